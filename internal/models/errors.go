package models

import "errors"

// Error variables shared across modules. Configuration errors indicate
// programmer mistakes and are expected to abort the current command
// invocation; input rejection is never reported through errors.
var (
	// ErrIllegalConfiguration indicates an invalid replay condition construction,
	// such as a multi-reply condition without done texts.
	ErrIllegalConfiguration = errors.New("illegal replay condition configuration")
	// ErrUnknownConditionType indicates an unrecognized condition type at evaluation time.
	ErrUnknownConditionType = errors.New("unknown replay condition type")
	// ErrNotImplemented indicates a callout component type that is not yet supported.
	ErrNotImplemented = errors.New("callout component type not implemented")
	// ErrConcurrentWait indicates a second reply wait was requested for a chat
	// that already has an active waiter. This is a logic error in the caller.
	ErrConcurrentWait = errors.New("a reply waiter is already active for this chat")
	// ErrWaitAborted indicates a pending reply wait was cancelled.
	ErrWaitAborted = errors.New("reply wait aborted")
	// ErrInvalidChatID indicates a chat identifier that could not be canonicalized.
	ErrInvalidChatID = errors.New("invalid chat identifier")
)

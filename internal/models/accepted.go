package models

// ReplayAccepted is the outcome of testing an inbound message against a
// replay condition. Accepted reports whether the message satisfied the
// condition; IsDoneMessage and IsSkipMessage mark sentinel matches that
// terminate or skip a collection. Only text sentinel matches can set either
// flag. Context keeps a back-reference to the originating message.
type ReplayAccepted struct {
	Type          ReplayType `json:"type"`
	Accepted      bool       `json:"accepted"`
	IsDoneMessage bool       `json:"is_done_message"`
	IsSkipMessage bool       `json:"is_skip_message"`
	Context       *Message   `json:"context,omitempty"`

	// Text carries the raw reply text with its original casing, even when
	// matching was case-insensitive.
	Text string `json:"text,omitempty"`
	// Value carries the matched selection value for selection conditions.
	Value string `json:"value,omitempty"`
	// FileType and FileID describe the accepted file payload, if any.
	FileType string `json:"file_type,omitempty"`
	FileID   string `json:"file_id,omitempty"`
	// Answer carries the typed answer parsed for a component condition.
	Answer any `json:"answer,omitempty"`
}

// RejectReplay builds a rejected result of the given type for a message.
func RejectReplay(t ReplayType, msg *Message) ReplayAccepted {
	return ReplayAccepted{Type: t, Accepted: false, Context: msg}
}

package models

import "fmt"

// ReplayType discriminates what kind of reply a condition expects.
type ReplayType string

const (
	// ReplayNone expects no answer at all; every reply is rejected.
	ReplayNone ReplayType = "none"
	// ReplayAny accepts any reply.
	ReplayAny ReplayType = "any"
	// ReplayText expects a text reply, optionally from a whitelist.
	ReplayText ReplayType = "text"
	// ReplayFile expects a file reply, optionally restricted by MIME types.
	ReplayFile ReplayType = "file"
	// ReplaySelection expects a choice from an ordered value/label list.
	ReplaySelection ReplayType = "selection"
	// ReplayCalloutComponent expects an answer valid for a callout form component.
	ReplayCalloutComponent ReplayType = "callout-component-schema"
)

// SelectionOption is one choice of a selection condition. Options keep their
// insertion order so numbered replies can be mapped back to values.
type SelectionOption struct {
	Value string `json:"value"`
	Label string `json:"label"`
}

// Collect bundles the reply-collection settings shared by all condition
// variants: whether several replies are gathered, whether the question is
// optional, and the sentinel texts that terminate or skip the collection.
type Collect struct {
	Multiple  bool
	Required  bool
	DoneTexts []string
	SkipTexts []string
}

// ReplayCondition describes what reply is currently expected from a chat.
// Conditions are immutable descriptors; construct them through the New*
// factory functions, which enforce the configuration invariants.
type ReplayCondition struct {
	Type      ReplayType
	Multiple  bool
	Required  bool
	DoneTexts []string
	SkipTexts []string

	// Texts is the optional whitelist for ReplayText conditions.
	Texts []string
	// MimeTypes is the optional restriction list for ReplayFile conditions.
	MimeTypes []string
	// ValueLabel holds the ordered options of a ReplaySelection condition.
	ValueLabel []SelectionOption
	// Component is the validation target of a ReplayCalloutComponent condition.
	Component *CalloutComponent
}

// validate enforces the construction invariant: a multi-reply collection
// needs at least one done text to terminate.
func (c ReplayCondition) validate() error {
	if c.Multiple && len(c.DoneTexts) == 0 {
		return fmt.Errorf("%w: multiple replies require at least one done text", ErrIllegalConfiguration)
	}
	return nil
}

// NewNoneCondition creates a condition that rejects every reply. Used for
// purely informational content with no expected answer.
func NewNoneCondition() ReplayCondition {
	return ReplayCondition{Type: ReplayNone}
}

// NewAnyCondition creates a condition that accepts any reply.
func NewAnyCondition(c Collect) (ReplayCondition, error) {
	cond := ReplayCondition{
		Type:      ReplayAny,
		Multiple:  c.Multiple,
		Required:  c.Required,
		DoneTexts: c.DoneTexts,
		SkipTexts: c.SkipTexts,
	}
	if err := cond.validate(); err != nil {
		return ReplayCondition{}, err
	}
	return cond, nil
}

// NewTextCondition creates a text condition. With a non-empty whitelist only
// listed texts are accepted (matched case-insensitively after trimming);
// without one, any non-empty text is accepted.
func NewTextCondition(c Collect, texts ...string) (ReplayCondition, error) {
	cond := ReplayCondition{
		Type:      ReplayText,
		Multiple:  c.Multiple,
		Required:  c.Required,
		DoneTexts: c.DoneTexts,
		SkipTexts: c.SkipTexts,
		Texts:     texts,
	}
	if err := cond.validate(); err != nil {
		return ReplayCondition{}, err
	}
	return cond, nil
}

// NewFileCondition creates a file condition, optionally restricted to the
// given MIME types.
func NewFileCondition(c Collect, mimeTypes ...string) (ReplayCondition, error) {
	cond := ReplayCondition{
		Type:      ReplayFile,
		Multiple:  c.Multiple,
		Required:  c.Required,
		DoneTexts: c.DoneTexts,
		SkipTexts: c.SkipTexts,
		MimeTypes: mimeTypes,
	}
	if err := cond.validate(); err != nil {
		return ReplayCondition{}, err
	}
	return cond, nil
}

// NewSelectionCondition creates a selection condition over an ordered list
// of value/label options. Replies may pick an option either by its 1-based
// number or by its label.
func NewSelectionCondition(c Collect, options []SelectionOption) (ReplayCondition, error) {
	if len(options) == 0 {
		return ReplayCondition{}, fmt.Errorf("%w: selection requires at least one option", ErrIllegalConfiguration)
	}
	cond := ReplayCondition{
		Type:       ReplaySelection,
		Multiple:   c.Multiple,
		Required:   c.Required,
		DoneTexts:  c.DoneTexts,
		SkipTexts:  c.SkipTexts,
		ValueLabel: options,
	}
	if err := cond.validate(); err != nil {
		return ReplayCondition{}, err
	}
	return cond, nil
}

// NewComponentCondition creates a condition that validates replies against a
// callout form component schema.
func NewComponentCondition(c Collect, component *CalloutComponent) (ReplayCondition, error) {
	if component == nil {
		return ReplayCondition{}, fmt.Errorf("%w: component condition requires a component", ErrIllegalConfiguration)
	}
	cond := ReplayCondition{
		Type:      ReplayCalloutComponent,
		Multiple:  c.Multiple,
		Required:  c.Required,
		DoneTexts: c.DoneTexts,
		SkipTexts: c.SkipTexts,
		Component: component,
	}
	if err := cond.validate(); err != nil {
		return ReplayCondition{}, err
	}
	return cond, nil
}

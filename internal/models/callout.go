package models

import "strings"

// CalloutComponentType identifies the kind of a form component.
type CalloutComponentType string

const (
	ComponentTypeContent     CalloutComponentType = "content"
	ComponentTypeTextfield   CalloutComponentType = "textfield"
	ComponentTypeTextarea    CalloutComponentType = "textarea"
	ComponentTypeEmail       CalloutComponentType = "email"
	ComponentTypeURL         CalloutComponentType = "url"
	ComponentTypeNumber      CalloutComponentType = "number"
	ComponentTypeCheckbox    CalloutComponentType = "checkbox"
	ComponentTypeSelect      CalloutComponentType = "select"
	ComponentTypeRadio       CalloutComponentType = "radio"
	ComponentTypeSelectBoxes CalloutComponentType = "selectboxes"
	ComponentTypeFile        CalloutComponentType = "file"
	ComponentTypeAddress     CalloutComponentType = "address"
)

// ComponentValue is one selectable value of a select-like component.
type ComponentValue struct {
	Value string `json:"value"`
	Label string `json:"label"`
}

// ComponentValidate carries the validation bounds of a component.
type ComponentValidate struct {
	Required  bool     `json:"required,omitempty"`
	MaxLength int      `json:"maxLength,omitempty"`
	Min       *float64 `json:"min,omitempty"`
	Max       *float64 `json:"max,omitempty"`
}

// CalloutComponent is one question (or content block) inside a slide.
type CalloutComponent struct {
	Key      string               `json:"key"`
	Type     CalloutComponentType `json:"type"`
	Label    string               `json:"label,omitempty"`
	// Input reports whether the component expects an answer; content blocks
	// carry Input=false.
	Input    bool               `json:"input"`
	Multiple bool               `json:"multiple,omitempty"`
	Values   []ComponentValue   `json:"values,omitempty"`
	Validate *ComponentValidate `json:"validate,omitempty"`
	// FilePattern restricts accepted MIME types for file components.
	FilePattern string `json:"filePattern,omitempty"`
}

// CalloutSlide is one page of a callout form.
type CalloutSlide struct {
	ID         string             `json:"id"`
	Title      string             `json:"title,omitempty"`
	Components []CalloutComponent `json:"components"`
}

// CalloutForm is the form structure of a callout.
type CalloutForm struct {
	Slides []CalloutSlide `json:"slides"`
}

// Callout is a structured survey hosted by the external content system.
type Callout struct {
	ID       string      `json:"id"`
	Slug     string      `json:"slug"`
	Title    string      `json:"title"`
	Excerpt  string      `json:"excerpt,omitempty"`
	Image    string      `json:"image,omitempty"`
	Status   string      `json:"status,omitempty"`
	Starts   string      `json:"starts,omitempty"`
	Expires  string      `json:"expires,omitempty"`
	Form     CalloutForm `json:"formSchema"`
	Updated  string      `json:"updated,omitempty"`
}

// GroupKeySeparator joins a slide id and a component key into a composite
// group key of the form "<slideId>-slide:<componentKey>".
const GroupKeySeparator = "-slide:"

// ComponentGroupKey builds the composite group key for a component answer.
func ComponentGroupKey(slideID, componentKey string) string {
	return slideID + GroupKeySeparator + componentKey
}

// SplitGroupKey splits a composite group key back into its slide id and
// component key. The separator is split on its first occurrence only; any
// further occurrences inside the component key are preserved by rejoining.
// ok is false when the key contains no separator at all.
func SplitGroupKey(key string) (slideID, componentKey string, ok bool) {
	parts := strings.Split(key, GroupKeySeparator)
	if len(parts) < 2 {
		return "", "", false
	}
	return parts[0], strings.Join(parts[1:], GroupKeySeparator), true
}

// CalloutResponseAnswers maps slide id -> component key -> answer value.
type CalloutResponseAnswers map[string]map[string]any

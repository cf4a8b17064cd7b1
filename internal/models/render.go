package models

// RenderType selects the transport payload shape of a render.
type RenderType string

const (
	RenderTypeText     RenderType = "text"
	RenderTypeMarkdown RenderType = "markdown"
	RenderTypeHTML     RenderType = "html"
	RenderTypePhoto    RenderType = "photo"
)

// InlineKeyboardButton is one button of an inline keyboard.
type InlineKeyboardButton struct {
	Text string `json:"text"`
	Data string `json:"data"`
}

// InlineKeyboard is a grid of inline buttons attached to a render.
type InlineKeyboard struct {
	Rows [][]InlineKeyboardButton `json:"rows"`
}

// Render is one outbound payload: text in some markup, or a photo with an
// optional caption, each with an optional inline keyboard. Accepted carries
// the replay condition a reply to this render is matched against.
type Render struct {
	Key            string          `json:"key,omitempty"`
	Type           RenderType      `json:"type"`
	Text           string          `json:"text,omitempty"`
	Photo          string          `json:"photo,omitempty"`
	Caption        string          `json:"caption,omitempty"`
	Keyboard       *InlineKeyboard `json:"keyboard,omitempty"`
	RemoveKeyboard bool            `json:"remove_keyboard,omitempty"`
	Accepted       ReplayCondition `json:"accepted,omitempty"`
}

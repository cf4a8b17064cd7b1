// Package models defines the core data structures for the callout bot.
//
// It includes the inbound event model, replay conditions and accepted results,
// callout content structures, and session state shared across modules.
package models

// User identifies the sender of an inbound event.
type User struct {
	ID        int64  `json:"id"`
	FirstName string `json:"first_name,omitempty"`
	LastName  string `json:"last_name,omitempty"`
	Username  string `json:"username,omitempty"`
}

// FileRef references an uploaded file on the chat transport.
type FileRef struct {
	FileID   string `json:"file_id"`
	FileName string `json:"file_name,omitempty"`
	MimeType string `json:"mime_type,omitempty"`
}

// Location is a geographic point payload.
type Location struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// Venue is a named place payload with an attached location.
type Venue struct {
	Location Location `json:"location"`
	Title    string   `json:"title,omitempty"`
	Address  string   `json:"address,omitempty"`
}

// Contact is a shared contact payload.
type Contact struct {
	PhoneNumber string `json:"phone_number"`
	FirstName   string `json:"first_name,omitempty"`
	LastName    string `json:"last_name,omitempty"`
}

// Message is an inbound chat message. Exactly which payload fields are
// populated depends on what the user sent; classifiers inspect them and
// degrade gracefully when fields are absent.
type Message struct {
	ID       int      `json:"id"`
	ChatID   int64    `json:"chat_id"`
	From     *User    `json:"from,omitempty"`
	Text     string   `json:"text,omitempty"`
	Caption  string   `json:"caption,omitempty"`
	Document *FileRef `json:"document,omitempty"`
	// Photo holds the available photo sizes, smallest first, mirroring the
	// transport payload. The largest size is used as the canonical file.
	Photo    []FileRef `json:"photo,omitempty"`
	Audio    *FileRef  `json:"audio,omitempty"`
	Video    *FileRef  `json:"video,omitempty"`
	Location *Location `json:"location,omitempty"`
	Venue    *Venue    `json:"venue,omitempty"`
	Contact  *Contact  `json:"contact,omitempty"`
	Time     int64     `json:"time"`
}

// CallbackPress is an inline keyboard button press.
type CallbackPress struct {
	ID     string `json:"id"`
	ChatID int64  `json:"chat_id"`
	From   *User  `json:"from,omitempty"`
	Data   string `json:"data"`
}

// Event is one inbound transport event: either a new message or a button
// press. Exactly one of the two fields is set.
type Event struct {
	Message  *Message       `json:"message,omitempty"`
	Callback *CallbackPress `json:"callback,omitempty"`
}

// ChatID returns the chat the event originated from, or 0 if unknown.
func (e *Event) ChatID() int64 {
	switch {
	case e == nil:
		return 0
	case e.Message != nil:
		return e.Message.ChatID
	case e.Callback != nil:
		return e.Callback.ChatID
	default:
		return 0
	}
}

// UserID returns the sender of the event, or 0 if unknown.
func (e *Event) UserID() int64 {
	switch {
	case e == nil:
		return 0
	case e.Message != nil && e.Message.From != nil:
		return e.Message.From.ID
	case e.Callback != nil && e.Callback.From != nil:
		return e.Callback.From.ID
	default:
		return 0
	}
}

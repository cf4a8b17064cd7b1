package models

import "time"

// Subscriber is a chat member known to the bot.
type Subscriber struct {
	ChatID    int64     `json:"chat_id"`
	FirstName string    `json:"first_name,omitempty"`
	LastName  string    `json:"last_name,omitempty"`
	Username  string    `json:"username,omitempty"`
	Anonymous bool      `json:"anonymous"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// CalloutResponseRecord is a locally stored audit record of a submitted
// callout response.
type CalloutResponseRecord struct {
	ID          string    `json:"id"`
	ChatID      int64     `json:"chat_id"`
	CalloutSlug string    `json:"callout_slug"`
	// Answers is the JSON-encoded CalloutResponseAnswers map.
	Answers     string    `json:"answers"`
	SubmittedAt time.Time `json:"submitted_at"`
}

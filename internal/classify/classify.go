// Package classify provides stateless predicates over inbound chat messages.
//
// The predicates answer capability questions (is this a photo, a contact, a
// number?) based on which payload fields are populated. They never fail;
// absent data simply yields a negative result.
package classify

import (
	"math"
	"strconv"
	"strings"

	"github.com/calloutkit/calloutbot/internal/models"
)

// IsAudioFile reports whether the message carries an audio payload.
func IsAudioFile(msg *models.Message) bool {
	return msg != nil && msg.Audio != nil
}

// IsPhotoFile reports whether the message carries a photo payload.
func IsPhotoFile(msg *models.Message) bool {
	return msg != nil && len(msg.Photo) > 0
}

// IsVideoFile reports whether the message carries a video payload.
func IsVideoFile(msg *models.Message) bool {
	return msg != nil && msg.Video != nil
}

// IsDocumentFile reports whether the message carries a generic document.
// An optional MIME prefix narrows the check to documents of that type.
func IsDocumentFile(msg *models.Message, mimePrefix string) bool {
	if msg == nil || msg.Document == nil {
		return false
	}
	if mimePrefix == "" {
		return true
	}
	return strings.HasPrefix(msg.Document.MimeType, mimePrefix)
}

// IsContact reports whether the message carries a shared contact.
func IsContact(msg *models.Message) bool {
	return msg != nil && msg.Contact != nil
}

// IsLocation reports whether the message carries a bare location.
func IsLocation(msg *models.Message) bool {
	return msg != nil && msg.Location != nil
}

// IsAddress reports whether the message carries a venue (a named address).
func IsAddress(msg *models.Message) bool {
	return msg != nil && msg.Venue != nil
}

// IsAnyFile reports whether the message carries any file-like payload.
func IsAnyFile(msg *models.Message) bool {
	return IsPhotoFile(msg) || IsDocumentFile(msg, "") || IsVideoFile(msg) ||
		IsAudioFile(msg) || IsLocation(msg) || IsContact(msg) || IsAddress(msg)
}

// ExtractNumbers coerces a text into a number by stripping every character
// that is not a digit, a dot, or a minus sign before parsing. It returns NaN,
// never an error, when no digits remain or the remainder does not parse.
func ExtractNumbers(text string) float64 {
	var b strings.Builder
	for _, r := range text {
		if (r >= '0' && r <= '9') || r == '.' || r == '-' {
			b.WriteRune(r)
		}
	}
	cleaned := b.String()
	if !strings.ContainsAny(cleaned, "0123456789") {
		return math.NaN()
	}
	n, err := strconv.ParseFloat(cleaned, 64)
	if err != nil {
		return math.NaN()
	}
	return n
}

// IsNumber reports whether the text coerces to a number.
func IsNumber(text string) bool {
	return !math.IsNaN(ExtractNumbers(text))
}

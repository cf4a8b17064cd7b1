// Package replay implements the reply-matching engine: the condition
// evaluator that decides whether an inbound message satisfies the pending
// replay condition, and the response transformer that shapes accepted
// replies into typed answers.
package replay

import (
	"fmt"
	"log/slog"
	"math"
	"strings"

	"github.com/calloutkit/calloutbot/internal/callout"
	"github.com/calloutkit/calloutbot/internal/classify"
	"github.com/calloutkit/calloutbot/internal/models"
)

// normalize prepares a text for sentinel and whitelist matching.
func normalize(text string) string {
	return strings.ToLower(strings.TrimSpace(text))
}

// matchesAny reports whether the normalized text matches any of the given
// texts under the same normalization.
func matchesAny(text string, texts []string) bool {
	norm := normalize(text)
	if norm == "" {
		return false
	}
	for _, t := range texts {
		if norm == normalize(t) {
			return true
		}
	}
	return false
}

// Evaluate tests an inbound message against the pending replay condition and
// produces the accepted result. Precedence is strict: a done sentinel always
// wins, then a skip sentinel, then type-specific matching. Malformed or
// missing payload fields never produce an error; they degrade to a rejected
// result. Only unknown condition types and unsupported component types error.
func Evaluate(msg *models.Message, cond models.ReplayCondition) (models.ReplayAccepted, error) {
	if msg == nil {
		slog.Debug("replay.Evaluate: nil message rejected", "conditionType", cond.Type)
		return models.RejectReplay(cond.Type, nil), nil
	}

	// A done sentinel closes a multi-reply collection regardless of the
	// condition's type.
	if cond.Multiple && len(cond.DoneTexts) > 0 && matchesAny(msg.Text, cond.DoneTexts) {
		slog.Debug("replay.Evaluate: done sentinel matched", "chatID", msg.ChatID, "text", msg.Text)
		return models.ReplayAccepted{
			Type:          models.ReplayText,
			Accepted:      true,
			IsDoneMessage: true,
			Context:       msg,
			Text:          msg.Text,
		}, nil
	}

	// A skip sentinel opts out of an optional question.
	if !cond.Required && len(cond.SkipTexts) > 0 && matchesAny(msg.Text, cond.SkipTexts) {
		slog.Debug("replay.Evaluate: skip sentinel matched", "chatID", msg.ChatID, "text", msg.Text)
		return models.ReplayAccepted{
			Type:          models.ReplayText,
			Accepted:      true,
			IsSkipMessage: true,
			Context:       msg,
			Text:          msg.Text,
		}, nil
	}

	switch cond.Type {
	case models.ReplayAny:
		return models.ReplayAccepted{
			Type:          models.ReplayAny,
			Accepted:      true,
			IsDoneMessage: !cond.Multiple,
			Context:       msg,
			Text:          msg.Text,
		}, nil
	case models.ReplayNone:
		return models.RejectReplay(models.ReplayNone, msg), nil
	case models.ReplayFile:
		return evaluateFile(msg, cond), nil
	case models.ReplayText:
		return evaluateText(msg, cond), nil
	case models.ReplaySelection:
		return evaluateSelection(msg, cond), nil
	case models.ReplayCalloutComponent:
		return evaluateComponent(msg, cond)
	default:
		return models.ReplayAccepted{}, fmt.Errorf("%w: %q", models.ErrUnknownConditionType, cond.Type)
	}
}

// fileBucket is one coarse file category a MIME restriction maps to.
type fileBucket struct {
	name    string
	matches func(*models.Message) bool
	fileID  func(*models.Message) string
}

// fileBuckets is the fixed evaluation order: the first allowed bucket the
// message satisfies wins.
var fileBuckets = []fileBucket{
	{"photo", classify.IsPhotoFile, func(m *models.Message) string { return m.Photo[len(m.Photo)-1].FileID }},
	{"document", func(m *models.Message) bool { return classify.IsDocumentFile(m, "") }, func(m *models.Message) string { return m.Document.FileID }},
	{"video", classify.IsVideoFile, func(m *models.Message) string { return m.Video.FileID }},
	{"audio", classify.IsAudioFile, func(m *models.Message) string { return m.Audio.FileID }},
	{"location", classify.IsLocation, func(m *models.Message) string { return "" }},
	{"contact", classify.IsContact, func(m *models.Message) string { return "" }},
	{"address", classify.IsAddress, func(m *models.Message) string { return "" }},
}

// bucketForMime maps one MIME restriction entry to its coarse bucket name.
// Non-MIME pseudo types (location, contact, address) pass through.
func bucketForMime(mime string) string {
	switch {
	case strings.HasPrefix(mime, "image/"):
		return "photo"
	case strings.HasPrefix(mime, "video/"):
		return "video"
	case strings.HasPrefix(mime, "audio/"):
		return "audio"
	case mime == "location", mime == "contact", mime == "address":
		return mime
	case strings.Contains(mime, "/"):
		return "document"
	default:
		return ""
	}
}

func evaluateFile(msg *models.Message, cond models.ReplayCondition) models.ReplayAccepted {
	// Without a MIME restriction any detected file is accepted.
	if len(cond.MimeTypes) == 0 {
		for _, b := range fileBuckets {
			if b.matches(msg) {
				return models.ReplayAccepted{
					Type:          models.ReplayFile,
					Accepted:      true,
					IsDoneMessage: !cond.Multiple,
					Context:       msg,
					FileType:      b.name,
					FileID:        b.fileID(msg),
				}
			}
		}
		return models.RejectReplay(models.ReplayFile, msg)
	}

	allowed := make(map[string]bool, len(cond.MimeTypes))
	for _, mime := range cond.MimeTypes {
		if bucket := bucketForMime(mime); bucket != "" {
			allowed[bucket] = true
		}
	}

	for _, b := range fileBuckets {
		if allowed[b.name] && b.matches(msg) {
			return models.ReplayAccepted{
				Type:          models.ReplayFile,
				Accepted:      true,
				IsDoneMessage: !cond.Multiple,
				Context:       msg,
				FileType:      b.name,
				FileID:        b.fileID(msg),
			}
		}
	}
	return models.RejectReplay(models.ReplayFile, msg)
}

func evaluateText(msg *models.Message, cond models.ReplayCondition) models.ReplayAccepted {
	if strings.TrimSpace(msg.Text) == "" {
		return models.RejectReplay(models.ReplayText, msg)
	}
	if len(cond.Texts) > 0 && !matchesAny(msg.Text, cond.Texts) {
		return models.RejectReplay(models.ReplayText, msg)
	}
	return models.ReplayAccepted{
		Type:          models.ReplayText,
		Accepted:      true,
		IsDoneMessage: !cond.Multiple,
		Context:       msg,
		Text:          msg.Text,
	}
}

func evaluateSelection(msg *models.Message, cond models.ReplayCondition) models.ReplayAccepted {
	value, ok := resolveSelection(msg.Text, cond.ValueLabel)
	if !ok {
		return models.RejectReplay(models.ReplaySelection, msg)
	}
	return models.ReplayAccepted{
		Type:          models.ReplaySelection,
		Accepted:      true,
		IsDoneMessage: !cond.Multiple,
		Context:       msg,
		Text:          msg.Text,
		Value:         value,
	}
}

// resolveSelection maps a reply text to a selection value: a text that
// coerces to a whole number N picks the N-th option (1-indexed) when present;
// otherwise the text is matched case-insensitively against the option labels.
func resolveSelection(text string, options []models.SelectionOption) (string, bool) {
	n := classify.ExtractNumbers(text)
	if !math.IsNaN(n) && n == math.Trunc(n) {
		idx := int(n)
		if idx >= 1 && idx <= len(options) {
			return options[idx-1].Value, true
		}
		return "", false
	}

	norm := normalize(text)
	for _, opt := range options {
		if norm != "" && norm == normalize(opt.Label) {
			return opt.Value, true
		}
	}
	return "", false
}

// evaluateComponent parses a typed answer for the condition's form component
// and runs the component validator against it. Component types with no
// answer (content blocks) are rejected with type none; unsupported component
// types propagate ErrNotImplemented.
func evaluateComponent(msg *models.Message, cond models.ReplayCondition) (models.ReplayAccepted, error) {
	component := cond.Component
	if component == nil {
		return models.RejectReplay(models.ReplayCalloutComponent, msg), nil
	}

	parsedType, err := callout.ParsedTypeFor(component.Type)
	if err != nil {
		return models.ReplayAccepted{}, err
	}
	if parsedType == models.ParsedResponseTypeNone {
		return models.RejectReplay(models.ReplayNone, msg), nil
	}

	answer := parseComponentAnswer(msg, component, parsedType)
	ok, err := callout.ValidateAnswer(component, answer)
	if err != nil {
		return models.ReplayAccepted{}, err
	}
	if !ok {
		slog.Debug("replay.evaluateComponent: answer rejected by validator",
			"chatID", msg.ChatID, "component", component.Key, "componentType", component.Type)
		return models.RejectReplay(models.ReplayCalloutComponent, msg), nil
	}

	accepted := models.ReplayAccepted{
		Type:          models.ReplayCalloutComponent,
		Accepted:      true,
		IsDoneMessage: !cond.Multiple,
		Context:       msg,
		Text:          msg.Text,
		Answer:        answer,
	}
	if file, isFile := answer.(*models.FileAnswer); isFile {
		accepted.FileType = file.FileType
		accepted.FileID = file.FileID
	}
	return accepted, nil
}

// parseComponentAnswer shapes the raw message into the answer type the
// component expects. Select-like components also accept the option's 1-based
// number, mirroring selection conditions.
func parseComponentAnswer(msg *models.Message, component *models.CalloutComponent, parsedType models.ParsedResponseType) any {
	switch parsedType {
	case models.ParsedResponseTypeText:
		if len(component.Values) > 0 {
			options := make([]models.SelectionOption, 0, len(component.Values))
			for _, v := range component.Values {
				options = append(options, models.SelectionOption{Value: v.Value, Label: v.Label})
			}
			if value, ok := resolveSelection(msg.Text, options); ok {
				return value
			}
		}
		return msg.Text
	case models.ParsedResponseTypeMultiSelect:
		options := make([]models.SelectionOption, 0, len(component.Values))
		for _, v := range component.Values {
			options = append(options, models.SelectionOption{Value: v.Value, Label: v.Label})
		}
		if value, ok := resolveSelection(msg.Text, options); ok {
			return value
		}
		return msg.Text
	default:
		return ParseResponse(msg, parsedType)
	}
}

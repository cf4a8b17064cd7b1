package replay

import (
	"log/slog"

	"github.com/calloutkit/calloutbot/internal/classify"
	"github.com/calloutkit/calloutbot/internal/models"
)

// ParseResponse shapes one inbound message into the typed answer value for
// the target type. Parsing is lossy but never fails: unparseable input
// degrades to the type's zero-ish value.
func ParseResponse(msg *models.Message, targetType models.ParsedResponseType) any {
	if msg == nil {
		return nil
	}
	switch targetType {
	case models.ParsedResponseTypeText:
		return msg.Text
	case models.ParsedResponseTypeNumber:
		return classify.ExtractNumbers(msg.Text)
	case models.ParsedResponseTypeBoolean:
		return parseBoolean(msg)
	case models.ParsedResponseTypeFile:
		return parseFile(msg)
	case models.ParsedResponseTypeAddress:
		return parseAddress(msg)
	case models.ParsedResponseTypeAny:
		if msg.Text != "" {
			return msg.Text
		}
		if file := parseFile(msg); file != nil {
			return file
		}
		return nil
	case models.ParsedResponseTypeNone:
		return nil
	default:
		return msg.Text
	}
}

// parseBoolean accepts exactly the literal strings "true" and "false"; any
// other text is logged and yields false.
func parseBoolean(msg *models.Message) bool {
	switch normalize(msg.Text) {
	case "true":
		return true
	case "false":
		return false
	default:
		slog.Warn("replay.parseBoolean: text is not a boolean literal, defaulting to false",
			"chatID", msg.ChatID, "text", msg.Text)
		return false
	}
}

func parseFile(msg *models.Message) *models.FileAnswer {
	for _, b := range fileBuckets {
		if b.matches(msg) {
			return &models.FileAnswer{FileType: b.name, FileID: b.fileID(msg)}
		}
	}
	return nil
}

// parseAddress prefers an explicit venue or location payload, falling back
// to the raw text, then the venue title, in that priority order. Missing
// coordinates default to 0; this is a known lossy fallback.
func parseAddress(msg *models.Message) *models.AddressAnswer {
	answer := &models.AddressAnswer{}

	switch {
	case msg.Venue != nil:
		answer.Latitude = msg.Venue.Location.Latitude
		answer.Longitude = msg.Venue.Location.Longitude
	case msg.Location != nil:
		answer.Latitude = msg.Location.Latitude
		answer.Longitude = msg.Location.Longitude
	}

	switch {
	case msg.Venue != nil && msg.Venue.Address != "":
		answer.Address = msg.Venue.Address
	case msg.Text != "":
		answer.Address = msg.Text
	case msg.Venue != nil:
		answer.Address = msg.Venue.Title
	}

	return answer
}

// ParseResponses shapes an ordered list of accepted replies into one parsed
// response for the target type. Sentinel done/skip replies are filtered out,
// as are replies without the payload kind the target type needs. Single-
// reply collections yield the value itself; multi-reply collections yield an
// ordered []any.
func ParseResponses(key string, replies []models.ReplayAccepted, targetType models.ParsedResponseType) models.ParsedResponse {
	parsed := models.ParsedResponse{Type: targetType, Key: key, Replay: replies}

	var values []any
	for _, reply := range replies {
		if !reply.Accepted || reply.IsDoneMessage || reply.IsSkipMessage {
			continue
		}
		value := valueFromReply(reply, targetType)
		if value == nil {
			continue
		}
		values = append(values, value)
	}

	switch targetType {
	case models.ParsedResponseTypeMultiSelect:
		selected := make(map[string]bool, len(values))
		for _, v := range values {
			if s, ok := v.(string); ok && s != "" {
				selected[s] = true
			}
		}
		parsed.Data = selected
	default:
		switch len(values) {
		case 0:
			parsed.Data = nil
		case 1:
			parsed.Data = values[0]
		default:
			parsed.Data = values
		}
	}
	return parsed
}

// valueFromReply extracts the typed value of one accepted reply, preferring
// the answer or selection value the evaluator already resolved over
// re-parsing the raw message.
func valueFromReply(reply models.ReplayAccepted, targetType models.ParsedResponseType) any {
	if reply.Answer != nil {
		return reply.Answer
	}
	if reply.Value != "" {
		return reply.Value
	}
	if reply.Context == nil {
		return nil
	}
	value := ParseResponse(reply.Context, targetType)
	if s, ok := value.(string); ok && s == "" {
		return nil
	}
	return value
}

// GroupByGroupKey correlates a flat list of per-component answers back into
// a nested per-slide answer map. Responses originating from a none-typed
// condition are discarded; responses whose key is not a valid composite
// group key are skipped with a warning. Duplicate component keys within a
// slide overwrite earlier values, last write wins.
func GroupByGroupKey(responses []models.ParsedResponse) models.CalloutResponseAnswers {
	answers := make(models.CalloutResponseAnswers)
	for _, response := range responses {
		if response.Type == models.ParsedResponseTypeNone {
			continue
		}
		slideID, componentKey, ok := models.SplitGroupKey(response.Key)
		if !ok {
			slog.Warn("replay.GroupByGroupKey: response key is not a composite group key, skipping",
				"key", response.Key, "type", response.Type)
			continue
		}
		slideAnswers, exists := answers[slideID]
		if !exists {
			slideAnswers = make(map[string]any)
			answers[slideID] = slideAnswers
		}
		slideAnswers[componentKey] = response.Data
	}
	return answers
}

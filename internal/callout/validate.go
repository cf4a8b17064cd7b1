// Package callout validates typed answers against callout form components.
//
// The validator mirrors the form schema of the external content system: each
// component type has its own acceptance rules. Validation is pure and never
// errors on bad input; only unsupported component types raise an error.
package callout

import (
	"fmt"
	"log/slog"
	"math"
	"strings"

	"github.com/calloutkit/calloutbot/internal/models"
)

// ParsedTypeFor maps a component type to the parsed response type of its
// answer. Content components have no answer and map to the none type;
// unsupported component types return ErrNotImplemented.
func ParsedTypeFor(t models.CalloutComponentType) (models.ParsedResponseType, error) {
	switch t {
	case models.ComponentTypeContent:
		return models.ParsedResponseTypeNone, nil
	case models.ComponentTypeTextfield, models.ComponentTypeTextarea,
		models.ComponentTypeEmail, models.ComponentTypeURL,
		models.ComponentTypeSelect, models.ComponentTypeRadio:
		return models.ParsedResponseTypeText, nil
	case models.ComponentTypeSelectBoxes:
		return models.ParsedResponseTypeMultiSelect, nil
	case models.ComponentTypeNumber:
		return models.ParsedResponseTypeNumber, nil
	case models.ComponentTypeCheckbox:
		return models.ParsedResponseTypeBoolean, nil
	case models.ComponentTypeFile:
		return models.ParsedResponseTypeFile, nil
	case models.ComponentTypeAddress:
		return models.ParsedResponseTypeAddress, nil
	default:
		return "", fmt.Errorf("%w: %q", models.ErrNotImplemented, t)
	}
}

// ValidateAnswer checks a typed answer against a component's rules. It
// returns false for any answer that does not satisfy the component;
// unsupported component types return ErrNotImplemented.
func ValidateAnswer(component *models.CalloutComponent, answer any) (bool, error) {
	if component == nil {
		return false, nil
	}

	switch component.Type {
	case models.ComponentTypeContent:
		// Content blocks expect no answer.
		return false, nil
	case models.ComponentTypeTextfield, models.ComponentTypeTextarea:
		return validateText(component, answer), nil
	case models.ComponentTypeEmail:
		text, ok := answer.(string)
		return ok && validateText(component, answer) && looksLikeEmail(text), nil
	case models.ComponentTypeURL:
		text, ok := answer.(string)
		return ok && validateText(component, answer) && looksLikeURL(text), nil
	case models.ComponentTypeNumber:
		return validateNumber(component, answer), nil
	case models.ComponentTypeCheckbox:
		_, ok := answer.(bool)
		return ok, nil
	case models.ComponentTypeSelect, models.ComponentTypeRadio, models.ComponentTypeSelectBoxes:
		return validateSelection(component, answer), nil
	case models.ComponentTypeFile:
		file, ok := answer.(*models.FileAnswer)
		return ok && file != nil, nil
	case models.ComponentTypeAddress:
		addr, ok := answer.(*models.AddressAnswer)
		return ok && addr != nil && addr.Address != "", nil
	default:
		return false, fmt.Errorf("%w: %q", models.ErrNotImplemented, component.Type)
	}
}

func validateText(component *models.CalloutComponent, answer any) bool {
	text, ok := answer.(string)
	if !ok {
		return false
	}
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return !isRequired(component)
	}
	if component.Validate != nil && component.Validate.MaxLength > 0 && len(trimmed) > component.Validate.MaxLength {
		slog.Debug("callout.validateText: answer exceeds max length", "component", component.Key, "maxLength", component.Validate.MaxLength)
		return false
	}
	return true
}

func validateNumber(component *models.CalloutComponent, answer any) bool {
	n, ok := answer.(float64)
	if !ok || math.IsNaN(n) {
		return false
	}
	if component.Validate != nil {
		if component.Validate.Min != nil && n < *component.Validate.Min {
			return false
		}
		if component.Validate.Max != nil && n > *component.Validate.Max {
			return false
		}
	}
	return true
}

// validateSelection checks membership of the answer in the component's value
// set. Select boxes accept either a single value or a map of chosen values.
func validateSelection(component *models.CalloutComponent, answer any) bool {
	switch v := answer.(type) {
	case string:
		return hasValue(component, v)
	case map[string]bool:
		if len(v) == 0 {
			return !isRequired(component)
		}
		for value, chosen := range v {
			if chosen && !hasValue(component, value) {
				return false
			}
		}
		return true
	default:
		return false
	}
}

func hasValue(component *models.CalloutComponent, value string) bool {
	for _, cv := range component.Values {
		if strings.EqualFold(cv.Value, value) || strings.EqualFold(cv.Label, value) {
			return true
		}
	}
	return false
}

func isRequired(component *models.CalloutComponent) bool {
	return component.Validate != nil && component.Validate.Required
}

// looksLikeEmail is a deliberately loose shape check; the content system
// performs authoritative validation on submission.
func looksLikeEmail(text string) bool {
	at := strings.Index(text, "@")
	return at > 0 && strings.Contains(text[at:], ".")
}

func looksLikeURL(text string) bool {
	return strings.HasPrefix(text, "http://") || strings.HasPrefix(text, "https://")
}

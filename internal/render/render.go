// Package render builds the outbound payloads of the bot: callout lists,
// callout details, and per-component questions, each carrying the replay
// condition a reply is matched against.
package render

import (
	"fmt"
	"html"
	"log/slog"
	"strings"

	"github.com/calloutkit/calloutbot/internal/callout"
	"github.com/calloutkit/calloutbot/internal/i18n"
	"github.com/calloutkit/calloutbot/internal/models"
)

// Renderer builds localized renders.
type Renderer struct {
	catalog *i18n.Catalog
}

// NewRenderer creates a renderer for one locale catalog.
func NewRenderer(catalog *i18n.Catalog) *Renderer {
	return &Renderer{catalog: catalog}
}

func (r *Renderer) t(key string, placeholders map[string]string) string {
	return r.catalog.T(key, placeholders)
}

// DoneText returns the localized done sentinel.
func (r *Renderer) DoneText() string {
	return r.t("sentinels.done", nil)
}

// SkipText returns the localized skip sentinel.
func (r *Renderer) SkipText() string {
	return r.t("sentinels.skip", nil)
}

// Message builds a plain localized text render without a reply condition.
func (r *Renderer) Message(key string, placeholders map[string]string) models.Render {
	return models.Render{
		Key:      key,
		Type:     models.RenderTypeText,
		Text:     r.t(key, placeholders),
		Accepted: models.NewNoneCondition(),
	}
}

// CalloutList renders the numbered list of open callouts. A reply picks a
// callout by number or title.
func (r *Renderer) CalloutList(callouts []models.Callout) (models.Render, error) {
	if len(callouts) == 0 {
		return r.Message("callouts.list.empty", nil), nil
	}

	var b strings.Builder
	fmt.Fprintf(&b, "<b>%s</b>\n\n", html.EscapeString(r.t("callouts.list.title", nil)))
	options := make([]models.SelectionOption, 0, len(callouts))
	for i, c := range callouts {
		fmt.Fprintf(&b, "%d. %s\n", i+1, html.EscapeString(c.Title))
		options = append(options, models.SelectionOption{Value: c.Slug, Label: c.Title})
	}
	b.WriteString("\n" + html.EscapeString(r.t("callouts.list.prompt", nil)))

	cond, err := models.NewSelectionCondition(models.Collect{}, options)
	if err != nil {
		return models.Render{}, err
	}
	return models.Render{
		Key:      "callouts.list",
		Type:     models.RenderTypeHTML,
		Text:     b.String(),
		Accepted: cond,
	}, nil
}

// CalloutDetail renders one callout's title, excerpt and image, with an
// inline button that starts the answer flow.
func (r *Renderer) CalloutDetail(c models.Callout) models.Render {
	keyboard := &models.InlineKeyboard{Rows: [][]models.InlineKeyboardButton{
		{{Text: r.t("callouts.details.respond", nil), Data: "callout-respond:" + c.Slug}},
	}}

	var b strings.Builder
	fmt.Fprintf(&b, "<b>%s</b>", html.EscapeString(c.Title))
	if c.Excerpt != "" {
		b.WriteString("\n\n" + html.EscapeString(c.Excerpt))
	}
	if c.Expires != "" {
		b.WriteString("\n\n" + html.EscapeString(r.t("callouts.details.expires", map[string]string{"date": c.Expires})))
	}

	if c.Image != "" {
		return models.Render{
			Key:      "callouts.details",
			Type:     models.RenderTypePhoto,
			Photo:    c.Image,
			Caption:  stripTags(b.String()),
			Keyboard: keyboard,
			Accepted: models.NewNoneCondition(),
		}
	}
	return models.Render{
		Key:      "callouts.details",
		Type:     models.RenderTypeHTML,
		Text:     b.String(),
		Keyboard: keyboard,
		Accepted: models.NewNoneCondition(),
	}
}

// ComponentQuestion renders one form component as a question. The render's
// key is the component's composite group key, and its condition matches
// answers for exactly this component.
func (r *Renderer) ComponentQuestion(slideID string, component models.CalloutComponent) (models.Render, error) {
	collect := models.Collect{
		Multiple: component.Multiple,
		Required: component.Validate != nil && component.Validate.Required,
	}
	if collect.Multiple {
		collect.DoneTexts = []string{r.DoneText()}
	}
	if !collect.Required {
		collect.SkipTexts = []string{r.SkipText()}
	}

	cond, err := models.NewComponentCondition(collect, &component)
	if err != nil {
		return models.Render{}, err
	}

	var b strings.Builder
	b.WriteString("<b>" + html.EscapeString(component.Label) + "</b>")
	if len(component.Values) > 0 {
		b.WriteString("\n")
		for i, v := range component.Values {
			fmt.Fprintf(&b, "\n%d. %s", i+1, html.EscapeString(v.Label))
		}
	}
	if collect.Multiple {
		b.WriteString("\n\n" + html.EscapeString(r.t("respond.done-hint", map[string]string{"done": r.DoneText()})))
	}
	if !collect.Required {
		b.WriteString("\n" + html.EscapeString(r.t("respond.skip-hint", map[string]string{"skip": r.SkipText()})))
	}

	return models.Render{
		Key:      models.ComponentGroupKey(slideID, component.Key),
		Type:     models.RenderTypeHTML,
		Text:     b.String(),
		Accepted: cond,
	}, nil
}

// NotAccepted renders the retry hint for a rejected reply, specific to what
// the condition expects. Conditions with a fixed answer set enumerate it in
// the hint.
func (r *Renderer) NotAccepted(cond models.ReplayCondition) models.Render {
	key := "respond.not-accepted.generic"
	var placeholders map[string]string
	switch cond.Type {
	case models.ReplayText:
		key = "respond.not-accepted.text"
		if len(cond.Texts) > 0 {
			key = "respond.not-accepted.text-options"
			placeholders = map[string]string{"options": strings.Join(cond.Texts, ", ")}
		}
	case models.ReplaySelection:
		key = "respond.not-accepted.selection"
		placeholders = map[string]string{"options": selectionLabels(cond.ValueLabel)}
	case models.ReplayFile:
		key = "respond.not-accepted.file"
	case models.ReplayCalloutComponent:
		if cond.Component != nil {
			key = notAcceptedComponentKey(cond.Component.Type)
			if key == "respond.not-accepted.selection" {
				placeholders = map[string]string{"options": componentLabels(cond.Component.Values)}
			}
		}
	}
	return models.Render{
		Key:      key,
		Type:     models.RenderTypeText,
		Text:     r.t(key, placeholders),
		Accepted: models.NewNoneCondition(),
	}
}

func selectionLabels(options []models.SelectionOption) string {
	labels := make([]string, 0, len(options))
	for _, o := range options {
		labels = append(labels, o.Label)
	}
	return strings.Join(labels, ", ")
}

func componentLabels(values []models.ComponentValue) string {
	labels := make([]string, 0, len(values))
	for _, v := range values {
		labels = append(labels, v.Label)
	}
	return strings.Join(labels, ", ")
}

func notAcceptedComponentKey(t models.CalloutComponentType) string {
	parsedType, err := callout.ParsedTypeFor(t)
	if err != nil {
		return "respond.not-accepted.generic"
	}
	switch parsedType {
	case models.ParsedResponseTypeText:
		if t == models.ComponentTypeSelect || t == models.ComponentTypeRadio {
			return "respond.not-accepted.selection"
		}
		return "respond.not-accepted.text"
	case models.ParsedResponseTypeMultiSelect:
		return "respond.not-accepted.selection"
	case models.ParsedResponseTypeNumber:
		return "respond.not-accepted.number"
	case models.ParsedResponseTypeFile:
		return "respond.not-accepted.file"
	case models.ParsedResponseTypeAddress:
		return "respond.not-accepted.address"
	default:
		return "respond.not-accepted.generic"
	}
}

// stripTags removes the minimal HTML markup used by the text renders so the
// same content can serve as a photo caption.
func stripTags(s string) string {
	replacer := strings.NewReplacer("<b>", "", "</b>", "", "<i>", "", "</i>", "")
	out := replacer.Replace(s)
	if strings.Contains(out, "<") {
		slog.Debug("render.stripTags: unexpected markup in caption")
	}
	return html.UnescapeString(out)
}

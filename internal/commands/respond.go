package commands

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/calloutkit/calloutbot/internal/callout"
	"github.com/calloutkit/calloutbot/internal/models"
	"github.com/calloutkit/calloutbot/internal/replay"
)

type respondCommand struct {
	deps *Deps
}

func (c *respondCommand) Name() string    { return "/respond" }
func (c *respondCommand) Immediate() bool { return false }

func (c *respondCommand) Handle(ctx context.Context, sess *models.Session, ev *models.Event) error {
	parts := strings.Fields(ev.Message.Text)
	if len(parts) < 2 {
		return c.deps.Comm.Send(ctx, sess.ChatID, c.deps.Renderer.Message("help.text", nil))
	}
	return c.respond(ctx, sess, parts[1])
}

// respond walks the callout's form slide by slide, component by component:
// ask, collect replies until the collection closes, parse them into a typed
// answer. Collected answers are grouped per slide and submitted to the
// content system, with a local audit record.
func (c *respondCommand) respond(ctx context.Context, sess *models.Session, slug string) error {
	target, ok := c.deps.Source.Callout(slug)
	if !ok {
		return c.deps.Comm.Send(ctx, sess.ChatID,
			c.deps.Renderer.Message("respond.unknown", map[string]string{"slug": slug}))
	}

	c.deps.Comm.Sessions().SetState(ctx, sess.ChatID, models.ChatStateCalloutAnswer)
	slog.Info("respondCommand: answer flow started", "chatID", sess.ChatID, "slug", slug)

	var responses []models.ParsedResponse
	for _, slide := range target.Form.Slides {
		for _, component := range slide.Components {
			if !component.Input || component.Type == models.ComponentTypeContent {
				continue
			}

			question, err := c.deps.Renderer.ComponentQuestion(slide.ID, component)
			if err != nil {
				return err
			}
			if err := c.deps.Comm.Send(ctx, sess.ChatID, question); err != nil {
				return err
			}

			replies, err := c.deps.Comm.WaitForRepliesUntilDone(ctx, sess, question.Accepted, c.deps.Renderer.NotAccepted)
			if err != nil {
				if errors.Is(err, models.ErrWaitAborted) {
					slog.Info("respondCommand: answer flow aborted", "chatID", sess.ChatID, "slug", slug)
					return nil
				}
				return err
			}

			parsedType, err := callout.ParsedTypeFor(component.Type)
			if err != nil {
				return err
			}
			responses = append(responses, replay.ParseResponses(question.Key, replies, parsedType))
		}
	}

	answers := replay.GroupByGroupKey(responses)
	if err := c.submit(ctx, sess, target, answers); err != nil {
		slog.Error("respondCommand: submission failed", "error", err, "chatID", sess.ChatID, "slug", slug)
		return c.deps.Comm.Send(ctx, sess.ChatID, c.deps.Renderer.Message("respond.failed", nil))
	}

	c.deps.Comm.Sessions().SetState(ctx, sess.ChatID, models.ChatStateCalloutAnswered)
	return c.deps.Comm.Send(ctx, sess.ChatID,
		c.deps.Renderer.Message("respond.thanks", map[string]string{"title": target.Title}))
}

func (c *respondCommand) submit(ctx context.Context, sess *models.Session, target models.Callout, answers models.CalloutResponseAnswers) error {
	var guest *models.Subscriber
	if c.deps.Store != nil {
		if sub, err := c.deps.Store.GetSubscriber(ctx, sess.ChatID); err == nil {
			guest = sub
		}
	}

	if err := c.deps.Submitter.SubmitResponse(ctx, target.Slug, answers, guest); err != nil {
		return err
	}

	if c.deps.Store != nil {
		encoded, err := json.Marshal(answers)
		if err != nil {
			return err
		}
		record := models.CalloutResponseRecord{
			ID:          uuid.NewString(),
			ChatID:      sess.ChatID,
			CalloutSlug: target.Slug,
			Answers:     string(encoded),
			SubmittedAt: time.Now(),
		}
		if err := c.deps.Store.AddCalloutResponse(ctx, record); err != nil {
			slog.Warn("respondCommand: failed to store audit record", "error", err, "chatID", sess.ChatID, "slug", target.Slug)
		}
	}
	return nil
}

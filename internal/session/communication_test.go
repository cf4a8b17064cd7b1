package session

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/calloutkit/calloutbot/internal/events"
	"github.com/calloutkit/calloutbot/internal/messaging"
	"github.com/calloutkit/calloutbot/internal/models"
	"github.com/calloutkit/calloutbot/internal/testutil"
)

type fixture struct {
	svc    *testutil.MockMessagingService
	bus    *events.Dispatcher
	comm   *Communication
	cancel context.CancelFunc
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	svc := testutil.NewMockMessagingService()
	bus := events.NewDispatcher()
	comm := NewCommunication(svc, bus, NewStore(nil))

	ctx, cancel := context.WithCancel(context.Background())
	go messaging.DispatchLoop(ctx, svc, bus)
	t.Cleanup(cancel)
	return &fixture{svc: svc, bus: bus, comm: comm, cancel: cancel}
}

// settle gives the dispatch loop and waiter goroutines time to register.
func settle() { time.Sleep(50 * time.Millisecond) }

func mustTextCondition(t *testing.T, collect models.Collect, texts ...string) models.ReplayCondition {
	t.Helper()
	cond, err := models.NewTextCondition(collect, texts...)
	if err != nil {
		t.Fatalf("condition: %v", err)
	}
	return cond
}

func TestWaitForReply_Accepted(t *testing.T) {
	f := newFixture(t)
	sess := f.comm.Sessions().Get(42)
	cond := mustTextCondition(t, models.Collect{}, "yes", "no")

	type result struct {
		accepted models.ReplayAccepted
		err      error
	}
	done := make(chan result, 1)
	go func() {
		accepted, err := f.comm.WaitForReply(context.Background(), sess, cond)
		done <- result{accepted, err}
	}()
	settle()

	f.svc.InjectText(42, "Yes")

	select {
	case r := <-done:
		if r.err != nil {
			t.Fatalf("WaitForReply failed: %v", r.err)
		}
		if !r.accepted.Accepted || r.accepted.Text != "Yes" {
			t.Errorf("unexpected result: %+v", r.accepted)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("WaitForReply never returned")
	}
}

func TestWaitForReply_IgnoresOtherChats(t *testing.T) {
	f := newFixture(t)
	sess := f.comm.Sessions().Get(42)
	cond := mustTextCondition(t, models.Collect{})

	done := make(chan models.ReplayAccepted, 1)
	go func() {
		accepted, err := f.comm.WaitForReply(context.Background(), sess, cond)
		if err != nil {
			t.Errorf("WaitForReply failed: %v", err)
		}
		done <- accepted
	}()
	settle()

	f.svc.InjectText(99, "wrong chat")
	f.svc.InjectText(42, "right chat")

	select {
	case accepted := <-done:
		if accepted.Text != "right chat" {
			t.Errorf("expected reply from chat 42, got %+v", accepted)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("WaitForReply never returned")
	}
}

func TestWaitForReply_ConcurrentWaitRejected(t *testing.T) {
	f := newFixture(t)
	sess := f.comm.Sessions().Get(42)
	cond := mustTextCondition(t, models.Collect{})

	go func() {
		_, _ = f.comm.WaitForReply(context.Background(), sess, cond)
	}()
	settle()

	_, err := f.comm.WaitForReply(context.Background(), sess, cond)
	if !errors.Is(err, models.ErrConcurrentWait) {
		t.Errorf("expected ErrConcurrentWait, got %v", err)
	}

	// Unblock the first waiter.
	f.svc.InjectText(42, "bye")
}

func TestCancel_AbortsActiveWait(t *testing.T) {
	f := newFixture(t)
	sess := f.comm.Sessions().Get(42)
	cond := mustTextCondition(t, models.Collect{})

	errc := make(chan error, 1)
	go func() {
		_, err := f.comm.WaitForReply(context.Background(), sess, cond)
		errc <- err
	}()
	settle()

	if !f.comm.Cancel(sess) {
		t.Error("expected Cancel to report an aborted wait")
	}

	select {
	case err := <-errc:
		if !errors.Is(err, models.ErrWaitAborted) {
			t.Errorf("expected ErrWaitAborted, got %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("wait never aborted")
	}

	if f.comm.Cancel(sess) {
		t.Error("expected second Cancel to be a no-op")
	}
}

func TestReset_IsIdempotent(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	sess := f.comm.Sessions().Get(42)
	f.comm.Sessions().SetState(ctx, 42, models.ChatStateCalloutAnswer)

	f.comm.Reset(ctx, sess)
	if sess.State != models.ChatStateInitial {
		t.Errorf("expected initial state after reset, got %s", sess.State)
	}

	// A second reset with nothing pending is safe.
	f.comm.Reset(ctx, sess)
	if sess.State != models.ChatStateInitial {
		t.Errorf("expected initial state after second reset, got %s", sess.State)
	}
}

func TestWaitForRepliesUntilDone_CollectsAndRetries(t *testing.T) {
	f := newFixture(t)
	sess := f.comm.Sessions().Get(42)
	cond := mustTextCondition(t, models.Collect{
		Multiple:  true,
		DoneTexts: []string{"done"},
	}, "a", "b")

	notAccepted := func(models.ReplayCondition) models.Render {
		return models.Render{Key: "retry", Type: models.RenderTypeText, Text: "try again"}
	}

	type result struct {
		replies []models.ReplayAccepted
		err     error
	}
	done := make(chan result, 1)
	go func() {
		replies, err := f.comm.WaitForRepliesUntilDone(context.Background(), sess, cond, notAccepted)
		done <- result{replies, err}
	}()

	for _, text := range []string{"a", "zzz", "b", "done"} {
		settle()
		f.svc.InjectText(42, text)
	}

	select {
	case r := <-done:
		if r.err != nil {
			t.Fatalf("WaitForRepliesUntilDone failed: %v", r.err)
		}
		if len(r.replies) != 3 {
			t.Fatalf("expected 3 replies, got %d: %+v", len(r.replies), r.replies)
		}
		if r.replies[0].Text != "a" || r.replies[1].Text != "b" || !r.replies[2].IsDoneMessage {
			t.Errorf("unexpected replies: %+v", r.replies)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("collection never completed")
	}

	sent := f.svc.Sent()
	if len(sent) != 1 || sent[0].Render.Key != "retry" {
		t.Errorf("expected one retry hint, got %+v", sent)
	}
}

func TestWaitForRepliesUntilDone_SkipEndsCollection(t *testing.T) {
	f := newFixture(t)
	sess := f.comm.Sessions().Get(42)
	cond := mustTextCondition(t, models.Collect{
		Multiple:  true,
		DoneTexts: []string{"done"},
		SkipTexts: []string{"skip"},
	})

	done := make(chan []models.ReplayAccepted, 1)
	go func() {
		replies, err := f.comm.WaitForRepliesUntilDone(context.Background(), sess, cond, nil)
		if err != nil {
			t.Errorf("WaitForRepliesUntilDone failed: %v", err)
		}
		done <- replies
	}()
	settle()

	f.svc.InjectText(42, "skip")

	select {
	case replies := <-done:
		if len(replies) != 1 || !replies[0].IsSkipMessage {
			t.Errorf("expected single skip reply, got %+v", replies)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("collection never completed")
	}
}

func TestSend_RecordsKeyboardMetadata(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	err := f.comm.Send(ctx, 42, models.Render{
		Type: models.RenderTypeText,
		Text: "pick",
		Keyboard: &models.InlineKeyboard{Rows: [][]models.InlineKeyboardButton{
			{{Text: "One", Data: "one"}, {Text: "Two", Data: "two"}},
		}},
	})
	if err != nil {
		t.Fatalf("Send failed: %v", err)
	}

	sess := f.comm.Sessions().Get(42)
	if sess.LatestKeyboard == nil || !sess.LatestKeyboard.Inline {
		t.Fatalf("expected keyboard metadata, got %+v", sess.LatestKeyboard)
	}
	if len(sess.LatestKeyboard.Options) != 2 {
		t.Errorf("expected 2 options, got %v", sess.LatestKeyboard.Options)
	}
}

func TestSend_ContinuesAfterFailure(t *testing.T) {
	f := newFixture(t)
	f.svc.FailSends(errors.New("boom"))

	err := f.comm.Send(context.Background(), 42,
		models.Render{Type: models.RenderTypeText, Text: "one"},
		models.Render{Type: models.RenderTypeText, Text: "two"},
	)
	if err == nil {
		t.Error("expected combined error from failed sends")
	}
}

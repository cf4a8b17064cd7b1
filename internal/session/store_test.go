package session

import (
	"context"
	"sync"
	"testing"

	"github.com/calloutkit/calloutbot/internal/models"
)

type fakeSnapshotStore struct {
	saved []models.SessionSnapshot
}

func (f *fakeSnapshotStore) SaveSessionSnapshot(ctx context.Context, snapshot models.SessionSnapshot) error {
	f.saved = append(f.saved, snapshot)
	return nil
}

func (f *fakeSnapshotStore) ListSessionSnapshots(ctx context.Context) ([]models.SessionSnapshot, error) {
	return f.saved, nil
}

func TestStore_LazyCreation(t *testing.T) {
	s := NewStore(nil)

	sess := s.Get(42)
	if sess.ChatID != 42 || sess.State != models.ChatStateInitial {
		t.Errorf("unexpected new session: %+v", sess)
	}
	if s.Get(42) != sess {
		t.Error("expected the same session on second access")
	}
}

func TestStore_SetStatePersists(t *testing.T) {
	persist := &fakeSnapshotStore{}
	s := NewStore(persist)

	s.SetState(context.Background(), 42, models.ChatStateCalloutList)

	if s.Get(42).State != models.ChatStateCalloutList {
		t.Errorf("state not applied: %s", s.Get(42).State)
	}
	if len(persist.saved) != 1 || persist.saved[0].State != models.ChatStateCalloutList {
		t.Errorf("snapshot not persisted: %+v", persist.saved)
	}
}

func TestStore_SetContext(t *testing.T) {
	s := NewStore(nil)
	ev := &models.Event{Message: &models.Message{ChatID: 42, Text: "hi"}}

	s.SetContext(42, ev)
	if s.Get(42).Ctx != ev {
		t.Error("expected the event to be recorded on the session")
	}

	// Dispatch and command goroutines both write the context; concurrent
	// writes must be safe.
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				s.SetContext(42, ev)
			}
		}()
	}
	wg.Wait()
}

func TestStore_Restore(t *testing.T) {
	persist := &fakeSnapshotStore{saved: []models.SessionSnapshot{
		{ChatID: 1, State: models.ChatStateCalloutDetails},
		{ChatID: 2, State: models.ChatStateStart, LatestKeyboard: &models.KeyboardMetadata{Inline: true}},
	}}
	s := NewStore(persist)

	if err := s.Restore(context.Background()); err != nil {
		t.Fatalf("Restore failed: %v", err)
	}

	if s.Get(1).State != models.ChatStateCalloutDetails {
		t.Errorf("chat 1 state not restored: %s", s.Get(1).State)
	}
	restored := s.Get(2)
	if restored.State != models.ChatStateStart || restored.LatestKeyboard == nil {
		t.Errorf("chat 2 not fully restored: %+v", restored)
	}
	if restored.Abort != nil || restored.Ctx != nil {
		t.Error("runtime references must not survive a restore")
	}
}

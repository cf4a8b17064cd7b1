// Package session owns per-chat conversational state and the communication
// primitives built on it: sending renders, waiting for matching replies, and
// abort-based cancellation.
package session

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/calloutkit/calloutbot/internal/models"
)

// SnapshotStore persists the durable subset of sessions across restarts.
type SnapshotStore interface {
	SaveSessionSnapshot(ctx context.Context, snapshot models.SessionSnapshot) error
	ListSessionSnapshots(ctx context.Context) ([]models.SessionSnapshot, error)
}

// Store holds the live sessions of all chats. Sessions are created lazily on
// first access and never expire; restarts recover state and keyboard
// metadata from the snapshot store, while runtime references start empty.
type Store struct {
	mu       sync.Mutex
	sessions map[int64]*models.Session
	persist  SnapshotStore
}

// NewStore creates a session store. The snapshot store may be nil, in which
// case sessions are memory-only.
func NewStore(persist SnapshotStore) *Store {
	return &Store{
		sessions: make(map[int64]*models.Session),
		persist:  persist,
	}
}

// Get returns the session for a chat, creating it in the initial state on
// first access.
func (s *Store) Get(chatID int64) *models.Session {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions[chatID]
	if !ok {
		sess = models.NewSession(chatID)
		s.sessions[chatID] = sess
		slog.Debug("SessionStore.Get: created session", "chatID", chatID)
	}
	return sess
}

// SetState transitions a chat's state and persists the new snapshot. A
// failed persist is logged, never fatal; the in-memory transition stands.
func (s *Store) SetState(ctx context.Context, chatID int64, state models.ChatState) {
	sess := s.Get(chatID)

	s.mu.Lock()
	sess.State = state
	sess.UpdatedAt = time.Now()
	snapshot := sess.Snapshot()
	s.mu.Unlock()

	slog.Debug("SessionStore.SetState: state changed", "chatID", chatID, "state", state)
	s.save(ctx, snapshot)
}

// SetContext records the chat's most recent inbound event. The reference is
// runtime-only and never persisted. Writers on the dispatch goroutine and on
// command goroutines both go through here.
func (s *Store) SetContext(chatID int64, ev *models.Event) {
	sess := s.Get(chatID)

	s.mu.Lock()
	sess.Ctx = ev
	s.mu.Unlock()
}

// SetKeyboard records the latest keyboard sent to a chat and persists it.
func (s *Store) SetKeyboard(ctx context.Context, chatID int64, keyboard *models.KeyboardMetadata) {
	sess := s.Get(chatID)

	s.mu.Lock()
	sess.LatestKeyboard = keyboard
	sess.UpdatedAt = time.Now()
	snapshot := sess.Snapshot()
	s.mu.Unlock()

	s.save(ctx, snapshot)
}

func (s *Store) save(ctx context.Context, snapshot models.SessionSnapshot) {
	if s.persist == nil {
		return
	}
	if err := s.persist.SaveSessionSnapshot(ctx, snapshot); err != nil {
		slog.Warn("SessionStore.save: failed to persist snapshot", "error", err, "chatID", snapshot.ChatID)
	}
}

// Restore loads persisted snapshots into fresh sessions. Runtime references
// (pending waits, abort handles) do not survive a restart; only state and
// keyboard metadata are recovered.
func (s *Store) Restore(ctx context.Context) error {
	if s.persist == nil {
		return nil
	}
	snapshots, err := s.persist.ListSessionSnapshots(ctx)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for _, snap := range snapshots {
		sess := models.NewSession(snap.ChatID)
		sess.State = snap.State
		sess.LatestKeyboard = snap.LatestKeyboard
		sess.UpdatedAt = snap.UpdatedAt
		s.sessions[snap.ChatID] = sess
	}
	slog.Info("SessionStore.Restore: sessions restored", "count", len(snapshots))
	return nil
}

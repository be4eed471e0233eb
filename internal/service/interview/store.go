// Package interview runs the question/answer cycle of a simulated interview.
package interview

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/zhouzirui/interview-sim/backend/internal/apperr"
	"github.com/zhouzirui/interview-sim/backend/internal/model/interview"
)

// record wraps a session with the lock that serialises its exchanges.
type record struct {
	mu      sync.Mutex
	session interview.Session
	retired atomic.Bool

	// channel fields are guarded by Store.mu.
	channelID     uint64
	channelCancel context.CancelFunc
}

// Store keeps sessions in memory keyed by the uploaded file name.
type Store struct {
	mu        sync.RWMutex
	sessions  map[string]*record
	channelID uint64
}

// NewStore bootstraps an empty in-memory store.
func NewStore() *Store {
	return &Store{sessions: make(map[string]*record)}
}

// Register creates a fresh session under key. A session already registered
// with the same key is retired: its open channel is cancelled and any exchange
// still running against it will not be recorded.
func (s *Store) Register(key, documentText, personaID string) interview.Session {
	session := interview.Session{
		Key:          key,
		PersonaID:    personaID,
		DocumentText: documentText,
		State:        interview.StateAwaitingUtterance,
		CreatedAt:    time.Now().UTC(),
	}

	s.mu.Lock()
	prev := s.sessions[key]
	s.sessions[key] = &record{session: session}
	var cancel context.CancelFunc
	if prev != nil {
		prev.retired.Store(true)
		cancel = prev.channelCancel
		prev.channelCancel = nil
	}
	s.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	return session
}

// Get returns a snapshot of the session registered under key.
func (s *Store) Get(key string) (interview.Session, error) {
	rec, err := s.lookup(key)
	if err != nil {
		return interview.Session{}, err
	}
	rec.mu.Lock()
	defer rec.mu.Unlock()
	return rec.session, nil
}

// Delete discards the session and cancels its channel.
func (s *Store) Delete(key string) error {
	s.mu.Lock()
	rec, ok := s.sessions[key]
	if !ok {
		s.mu.Unlock()
		return apperr.Wrap(apperr.ErrUnknownSession, "delete session", nil)
	}
	delete(s.sessions, key)
	rec.retired.Store(true)
	cancel := rec.channelCancel
	rec.channelCancel = nil
	s.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	return nil
}

// SetVideoURL registers the interview recording for later analysis.
func (s *Store) SetVideoURL(key, url string) error {
	rec, err := s.lookup(key)
	if err != nil {
		return err
	}
	rec.mu.Lock()
	rec.session.VideoURL = url
	rec.mu.Unlock()
	return nil
}

// AttachChannel records cancel as the active channel for key. A channel that
// was already attached is cancelled and replaced. The returned detach func is
// safe to call more than once and does nothing once the channel was replaced.
func (s *Store) AttachChannel(key string, cancel context.CancelFunc) (func(), error) {
	s.mu.Lock()
	rec, ok := s.sessions[key]
	if !ok {
		s.mu.Unlock()
		return nil, apperr.Wrap(apperr.ErrUnknownSession, "attach channel", nil)
	}
	prev := rec.channelCancel
	s.channelID++
	id := s.channelID
	rec.channelID = id
	rec.channelCancel = cancel
	s.mu.Unlock()

	if prev != nil {
		prev()
	}

	detach := func() {
		s.mu.Lock()
		if rec.channelID == id {
			rec.channelCancel = nil
		}
		s.mu.Unlock()
	}
	return detach, nil
}

func (s *Store) lookup(key string) (*record, error) {
	s.mu.RLock()
	rec, ok := s.sessions[key]
	s.mu.RUnlock()
	if !ok {
		return nil, apperr.Wrap(apperr.ErrUnknownSession, "lookup session", nil)
	}
	return rec, nil
}

package dashboard

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/zalepa/censo/census"
)

// ErrStale is returned by Session.Load when a newer load was issued while
// this one was in flight. Its result has been discarded.
var ErrStale = errors.New("superseded by a newer load")

// Loader fetches the dataset for a municipality code.
type Loader interface {
	Load(ctx context.Context, code string) (census.Dataset, error)
}

// Session owns one user's State. Loads run outside the lock; each is
// numbered and only the most recently issued one may update the state.
type Session struct {
	ID string

	loader Loader
	toast  *Toast
	log    *slog.Logger

	mu       sync.Mutex
	state    State
	seq      uint64
	lastSeen time.Time
}

// NewSession returns a session with code selected and nothing loaded.
func NewSession(id string, loader Loader, code string, log *slog.Logger) *Session {
	if log == nil {
		log = slog.Default()
	}
	return &Session{
		ID:       id,
		loader:   loader,
		toast:    NewToast(ToastDuration),
		log:      log,
		state:    State{Code: code, Dataset: census.Dataset{}},
		lastSeen: time.Now(),
	}
}

// State returns a copy of the current state.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastSeen = time.Now()
	return s.state
}

// Toast returns the session's notification area.
func (s *Session) Toast() *Toast { return s.toast }

// LastSeen reports when the session was last read or changed.
func (s *Session) LastSeen() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastSeen
}

// Select changes the selected municipality without loading it.
func (s *Session) Select(code string) {
	s.mu.Lock()
	s.state.Code = code
	s.lastSeen = time.Now()
	s.mu.Unlock()
}

// SetFilter changes the table filter.
func (s *Session) SetFilter(filter string) {
	s.mu.Lock()
	s.state.Filter = filter
	s.lastSeen = time.Now()
	s.mu.Unlock()
}

// Load fetches code and, unless a newer load has been issued meanwhile,
// makes it the selected municipality and replaces the dataset. A failed
// fetch is recorded in the state and also returned; the previous dataset
// is kept.
func (s *Session) Load(ctx context.Context, code string) error {
	s.mu.Lock()
	s.seq++
	seq := s.seq
	s.state.Code = code
	s.lastSeen = time.Now()
	s.mu.Unlock()

	d, err := s.loader.Load(ctx, code)

	s.mu.Lock()
	defer s.mu.Unlock()
	if seq != s.seq {
		s.log.Debug("discarding stale load",
			slog.String("session", s.ID),
			slog.String("code", code),
			slog.Uint64("seq", seq),
			slog.Uint64("latest", s.seq),
		)
		return ErrStale
	}
	if err != nil {
		s.state.Err = err
		return err
	}
	s.state.Dataset = d
	s.state.Err = nil
	return nil
}

package capture

import (
	"errors"
	"sync"
	"time"
)

var ErrSessionNotFound = errors.New("capture session not found")

type State string

const (
	StateRecording State = "recording"
	StateDone      State = "done"
	StateFailed    State = "failed"
)

// Session is a snapshot of one capture.
type Session struct {
	ID        string    `json:"id"`
	State     State     `json:"state"`
	Recording string    `json:"recording,omitempty"`
	Err       string    `json:"error,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// sessions tracks captures by id. Finished sessions are dropped once they
// are older than ttl.
type sessions struct {
	mu  sync.Mutex
	m   map[string]*Session
	ttl time.Duration
	now func() time.Time
}

func newSessions(ttl time.Duration) *sessions {
	return &sessions{m: make(map[string]*Session), ttl: ttl, now: time.Now}
}

func (s *sessions) start(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pruneLocked()
	s.m[id] = &Session{ID: id, State: StateRecording, CreatedAt: s.now()}
}

func (s *sessions) finish(id, recording string, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.m[id]
	if !ok {
		return
	}
	if err != nil {
		sess.State = StateFailed
		sess.Err = err.Error()
		return
	}
	sess.State = StateDone
	sess.Recording = recording
}

func (s *sessions) drop(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.m, id)
}

func (s *sessions) get(id string) (Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.m[id]
	if !ok {
		return Session{}, ErrSessionNotFound
	}
	return *sess, nil
}

func (s *sessions) pruneLocked() {
	cutoff := s.now().Add(-s.ttl)
	for id, sess := range s.m {
		if sess.State != StateRecording && sess.CreatedAt.Before(cutoff) {
			delete(s.m, id)
		}
	}
}

package workflowclient

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"sync"
)

// Session is the logged-in identity. A non-nil session always carries a
// token; anything persisted without one reads back as logged out.
type Session struct {
	UserID   uint   `json:"userId"`
	Username string `json:"username"`
	Role     string `json:"role"`
	Token    string `json:"authToken"`
}

// SessionStore owns the process-wide session: hydrated from disk exactly
// once, written only by Login/Logout, safe for concurrent readers.
type SessionStore struct {
	path string

	once sync.Once
	mu   sync.RWMutex
	cur  *Session
}

func NewSessionStore(path string) *SessionStore {
	return &SessionStore{path: path}
}

// Hydrate loads the persisted session. It runs at most once; later calls
// are no-ops. A missing file or a session without a token hydrates to
// logged out rather than a partial session.
func (s *SessionStore) Hydrate() error {
	var err error
	s.once.Do(func() {
		data, readErr := os.ReadFile(s.path)
		if readErr != nil {
			if errors.Is(readErr, os.ErrNotExist) {
				return
			}
			err = fmt.Errorf("session: read %s: %w", s.path, readErr)
			return
		}

		var sess Session
		if jsonErr := json.Unmarshal(data, &sess); jsonErr != nil {
			err = fmt.Errorf("session: decode %s: %w", s.path, jsonErr)
			return
		}
		if sess.Token == "" {
			return
		}

		s.mu.Lock()
		s.cur = &sess
		s.mu.Unlock()
	})
	return err
}

// Current returns a copy of the session, or nil when logged out.
func (s *SessionStore) Current() *Session {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.cur == nil {
		return nil
	}
	copy := *s.cur
	return &copy
}

func (s *SessionStore) Set(sess Session) error {
	if sess.Token == "" {
		return errors.New("session: refusing to store a session without a token")
	}

	data, err := json.MarshalIndent(sess, "", "  ")
	if err != nil {
		return fmt.Errorf("session: encode: %w", err)
	}
	if err := os.WriteFile(s.path, data, 0o600); err != nil {
		return fmt.Errorf("session: write %s: %w", s.path, err)
	}

	s.mu.Lock()
	s.cur = &sess
	s.mu.Unlock()
	return nil
}

func (s *SessionStore) Clear() error {
	s.mu.Lock()
	s.cur = nil
	s.mu.Unlock()

	if err := os.Remove(s.path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("session: remove %s: %w", s.path, err)
	}
	return nil
}

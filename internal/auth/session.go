package auth

import (
	"context"
	"sync"

	"github.com/wolfman30/telehealth-portal/internal/users"
)

// SessionKey is the well-known key the serialized profile lives under, in the
// session store and in the mirrored cookie.
const SessionKey = "telehealth_user"

// SessionChange is one change notification for a session. Notifications are
// unordered and at most once; receivers adopt whatever arrives.
type SessionChange struct {
	Identity Identity
	Removed  bool
}

// SessionStore persists the current identity per browser session and fans
// out changes to every tab watching that session.
type SessionStore interface {
	Load(ctx context.Context, sessionID string) (Identity, error)
	Save(ctx context.Context, sessionID string, profile users.PublicProfile) error
	Clear(ctx context.Context, sessionID string) error
	// Subscribe streams changes until ctx is done; the channel is then closed.
	Subscribe(ctx context.Context, sessionID string) (<-chan SessionChange, error)
}

// MemorySessionStore keeps sessions in process. Used in tests and when redis
// is not configured.
type MemorySessionStore struct {
	mu       sync.Mutex
	sessions map[string]users.PublicProfile
	watchers map[string]map[chan SessionChange]struct{}
}

func NewMemorySessionStore() *MemorySessionStore {
	return &MemorySessionStore{
		sessions: make(map[string]users.PublicProfile),
		watchers: make(map[string]map[chan SessionChange]struct{}),
	}
}

func (s *MemorySessionStore) Load(ctx context.Context, sessionID string) (Identity, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.sessions[sessionID]
	if !ok {
		return Anonymous(), nil
	}
	return Authenticated(p), nil
}

func (s *MemorySessionStore) Save(ctx context.Context, sessionID string, profile users.PublicProfile) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[sessionID] = profile
	s.broadcast(sessionID, SessionChange{Identity: Authenticated(profile)})
	return nil
}

func (s *MemorySessionStore) Clear(ctx context.Context, sessionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, sessionID)
	s.broadcast(sessionID, SessionChange{Removed: true})
	return nil
}

func (s *MemorySessionStore) Subscribe(ctx context.Context, sessionID string) (<-chan SessionChange, error) {
	ch := make(chan SessionChange, 8)
	s.mu.Lock()
	if s.watchers[sessionID] == nil {
		s.watchers[sessionID] = make(map[chan SessionChange]struct{})
	}
	s.watchers[sessionID][ch] = struct{}{}
	s.mu.Unlock()

	go func() {
		<-ctx.Done()
		s.mu.Lock()
		delete(s.watchers[sessionID], ch)
		if len(s.watchers[sessionID]) == 0 {
			delete(s.watchers, sessionID)
		}
		s.mu.Unlock()
		close(ch)
	}()
	return ch, nil
}

// broadcast must be called with mu held. Slow watchers miss changes.
func (s *MemorySessionStore) broadcast(sessionID string, change SessionChange) {
	for ch := range s.watchers[sessionID] {
		select {
		case ch <- change:
		default:
		}
	}
}

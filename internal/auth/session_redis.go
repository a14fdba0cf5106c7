package auth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/wolfman30/telehealth-portal/internal/users"
	"github.com/wolfman30/telehealth-portal/pkg/logging"
)

// RedisSessionStore keeps the serialized profile in redis and publishes every
// change on a per-session channel so other tabs can follow along.
type RedisSessionStore struct {
	redis  *redis.Client
	ttl    time.Duration
	logger *logging.Logger
}

type sessionEnvelope struct {
	Removed bool                 `json:"removed,omitempty"`
	User    *users.PublicProfile `json:"user,omitempty"`
}

// NewRedisSessionStore creates a store. A zero ttl keeps sessions until sign-out.
func NewRedisSessionStore(client *redis.Client, ttl time.Duration, logger *logging.Logger) *RedisSessionStore {
	if client == nil {
		panic("auth: redis client required")
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &RedisSessionStore{redis: client, ttl: ttl, logger: logger}
}

func (s *RedisSessionStore) key(sessionID string) string {
	return fmt.Sprintf("telehealth:session:%s:%s", sessionID, SessionKey)
}

func (s *RedisSessionStore) channel(sessionID string) string {
	return fmt.Sprintf("telehealth:session:%s:changes", sessionID)
}

func (s *RedisSessionStore) Load(ctx context.Context, sessionID string) (Identity, error) {
	data, err := s.redis.Get(ctx, s.key(sessionID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return Anonymous(), nil
	}
	if err != nil {
		return Anonymous(), fmt.Errorf("auth: load session: %w", err)
	}
	var profile users.PublicProfile
	if err := json.Unmarshal(data, &profile); err != nil {
		return Anonymous(), fmt.Errorf("auth: decode session: %w", err)
	}
	return Authenticated(profile), nil
}

func (s *RedisSessionStore) Save(ctx context.Context, sessionID string, profile users.PublicProfile) error {
	data, err := json.Marshal(profile)
	if err != nil {
		return fmt.Errorf("auth: encode session: %w", err)
	}
	if err := s.redis.Set(ctx, s.key(sessionID), data, s.ttl).Err(); err != nil {
		return fmt.Errorf("auth: save session: %w", err)
	}
	s.publish(ctx, sessionID, sessionEnvelope{User: &profile})
	return nil
}

func (s *RedisSessionStore) Clear(ctx context.Context, sessionID string) error {
	if err := s.redis.Del(ctx, s.key(sessionID)).Err(); err != nil {
		return fmt.Errorf("auth: clear session: %w", err)
	}
	s.publish(ctx, sessionID, sessionEnvelope{Removed: true})
	return nil
}

// publish is best effort: the stored value is the source of truth and a
// missed notification only delays other tabs until they reload.
func (s *RedisSessionStore) publish(ctx context.Context, sessionID string, env sessionEnvelope) {
	data, err := json.Marshal(env)
	if err != nil {
		return
	}
	if err := s.redis.Publish(ctx, s.channel(sessionID), data).Err(); err != nil {
		s.logger.Warn("auth: session change publish failed", "error", err)
	}
}

func (s *RedisSessionStore) Subscribe(ctx context.Context, sessionID string) (<-chan SessionChange, error) {
	pubsub := s.redis.Subscribe(ctx, s.channel(sessionID))
	// Wait for the subscription confirmation so no change published after
	// Subscribe returns is lost.
	if _, err := pubsub.Receive(ctx); err != nil {
		_ = pubsub.Close()
		return nil, fmt.Errorf("auth: subscribe session: %w", err)
	}

	out := make(chan SessionChange, 8)
	go func() {
		defer close(out)
		defer pubsub.Close()
		msgs := pubsub.Channel()
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-msgs:
				if !ok {
					return
				}
				var env sessionEnvelope
				if err := json.Unmarshal([]byte(msg.Payload), &env); err != nil {
					s.logger.Warn("auth: dropping malformed session change", "error", err)
					continue
				}
				change := SessionChange{Removed: env.Removed || env.User == nil}
				if !change.Removed {
					change.Identity = Authenticated(*env.User)
				}
				select {
				case out <- change:
				case <-ctx.Done():
					return
				}
			}
		}
	}()
	return out, nil
}

package redislock

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	domainerrors "powertrack/contexts/progression/power-engine/domain/errors"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const (
	defaultTTL      = 10 * time.Second
	defaultRetry    = 25 * time.Millisecond
	defaultKeyspace = "power:lock:user:"
)

// releaseScript deletes the lock only while it still carries our token, so
// an expired holder cannot release a lock another process acquired.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// Locker serialises commits for one user across API and worker processes.
type Locker struct {
	Client   redis.UniversalClient
	TTL      time.Duration
	Retry    time.Duration
	Keyspace string
	Logger   *slog.Logger
}

func New(client redis.UniversalClient, logger *slog.Logger) *Locker {
	if logger == nil {
		logger = slog.Default()
	}
	return &Locker{
		Client:   client,
		TTL:      defaultTTL,
		Retry:    defaultRetry,
		Keyspace: defaultKeyspace,
		Logger:   logger,
	}
}

func (l *Locker) LockUser(ctx context.Context, userID string) (func(), error) {
	key := l.keyspace() + strings.TrimSpace(userID)
	token := uuid.NewString()

	ticker := time.NewTicker(l.retry())
	defer ticker.Stop()
	for {
		ok, err := l.Client.SetNX(ctx, key, token, l.ttl()).Result()
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			return nil, errors.Join(domainerrors.ErrLockUnavailable, err)
		}
		if ok {
			break
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-ticker.C:
		}
	}

	return func() {
		// The caller's context may already be done; release on a fresh one.
		releaseCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		if err := releaseScript.Run(releaseCtx, l.Client, []string{key}, token).Err(); err != nil {
			l.logger().Warn("power user lock release failed",
				"event", "power_user_lock_release_failed",
				"module", "progression/power-engine",
				"layer", "adapter",
				"key", key,
				"error", err.Error(),
			)
		}
	}, nil
}

func (l *Locker) ttl() time.Duration {
	if l.TTL <= 0 {
		return defaultTTL
	}
	return l.TTL
}

func (l *Locker) retry() time.Duration {
	if l.Retry <= 0 {
		return defaultRetry
	}
	return l.Retry
}

func (l *Locker) keyspace() string {
	if l.Keyspace == "" {
		return defaultKeyspace
	}
	return l.Keyspace
}

func (l *Locker) logger() *slog.Logger {
	if l.Logger == nil {
		return slog.Default()
	}
	return l.Logger
}

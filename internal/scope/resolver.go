package scope

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"household/internal/models"
)

var ErrUnauthenticated = errors.New("authentication required")

const maxCacheTTL = 5 * time.Minute

type SessionLookup interface {
	GetActive(ctx context.Context, token string, now time.Time) (models.Session, error)
}

type UserLookup interface {
	GetByID(ctx context.Context, userID string) (models.User, error)
}

// Cache maps session tokens to user ids.
type Cache interface {
	Get(ctx context.Context, token string) (string, bool, error)
	Set(ctx context.Context, token, userID string, ttl time.Duration) error
	Delete(ctx context.Context, token string) error
}

type Resolver struct {
	sessions SessionLookup
	users    UserLookup
	cache    Cache
	log      logrus.FieldLogger
	now      func() time.Time
}

// NewResolver builds a resolver. cache may be nil.
func NewResolver(sessions SessionLookup, users UserLookup, cache Cache, log logrus.FieldLogger) *Resolver {
	return &Resolver{
		sessions: sessions,
		users:    users,
		cache:    cache,
		log:      log,
		now:      time.Now,
	}
}

func (r *Resolver) Resolve(ctx context.Context, token string) (Identity, error) {
	if token == "" {
		return Identity{}, ErrUnauthenticated
	}
	userID, err := r.userIDFor(ctx, token)
	if err != nil {
		return Identity{}, err
	}
	user, err := r.users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			r.Forget(ctx, token)
			return Identity{}, ErrUnauthenticated
		}
		return Identity{}, fmt.Errorf("load user: %w", err)
	}
	return FromUser(user), nil
}

// Forget drops a cached token, used on logout.
func (r *Resolver) Forget(ctx context.Context, token string) {
	if r.cache == nil {
		return
	}
	if err := r.cache.Delete(ctx, token); err != nil {
		r.log.WithError(err).Warn("session cache delete failed")
	}
}

func (r *Resolver) userIDFor(ctx context.Context, token string) (string, error) {
	if r.cache != nil {
		userID, ok, err := r.cache.Get(ctx, token)
		if err != nil {
			r.log.WithError(err).Warn("session cache read failed")
		} else if ok {
			return userID, nil
		}
	}
	now := r.now()
	session, err := r.sessions.GetActive(ctx, token, now)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", ErrUnauthenticated
		}
		return "", fmt.Errorf("load session: %w", err)
	}
	if r.cache != nil {
		ttl := session.ExpiresAt.Sub(now)
		if ttl > maxCacheTTL {
			ttl = maxCacheTTL
		}
		if ttl > 0 {
			if err := r.cache.Set(ctx, token, session.UserID, ttl); err != nil {
				r.log.WithError(err).Warn("session cache write failed")
			}
		}
	}
	return session.UserID, nil
}

package auth

import (
	"context"
	"strconv"
	"time"

	"usersvc/internal/cache"
)

const (
	sessionKeyPrefix = "session:"
	// SessionIndexTTL bounds how long a token to user id mapping is trusted.
	SessionIndexTTL = 30 * time.Minute
)

// TokenIndex maps session tokens to user ids.
type TokenIndex interface {
	Put(ctx context.Context, token string, userID uint)
	Lookup(ctx context.Context, token string) (userID uint, ok bool)
	Forget(ctx context.Context, token string)
}

// TokenStore keeps the token index in Redis.
type TokenStore struct {
	cache *cache.Client
	ttl   time.Duration
}

var _ TokenIndex = (*TokenStore)(nil)

// NewTokenStore creates a new token store.
func NewTokenStore(cache *cache.Client) *TokenStore {
	return &TokenStore{cache: cache, ttl: SessionIndexTTL}
}

// Put records that token belongs to userID.
func (s *TokenStore) Put(ctx context.Context, token string, userID uint) {
	if token == "" {
		return
	}
	s.cache.Set(ctx, sessionKeyPrefix+token, []byte(strconv.FormatUint(uint64(userID), 10)), s.ttl)
}

// Lookup returns the user id recorded for token.
func (s *TokenStore) Lookup(ctx context.Context, token string) (uint, bool) {
	if token == "" {
		return 0, false
	}
	data := s.cache.Get(ctx, sessionKeyPrefix+token)
	if data == nil {
		return 0, false
	}
	id, err := strconv.ParseUint(string(data), 10, 64)
	if err != nil {
		return 0, false
	}
	return uint(id), true
}

// Forget drops the mapping for token.
func (s *TokenStore) Forget(ctx context.Context, token string) {
	if token == "" {
		return
	}
	s.cache.Delete(ctx, sessionKeyPrefix+token)
}

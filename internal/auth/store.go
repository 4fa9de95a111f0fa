package auth

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/yoockh/jobboard/internal/cache"
)

const (
	revokedKeyPrefix     = "auth:revoked:"
	resetKeyPrefix       = "auth:reset:"
	issuedAfterKeyPrefix = "auth:issued-after:"
)

var ErrResetTokenInvalid = errors.New("reset token invalid or expired")

// Store keeps short-lived token state in the shared cache.
type Store struct {
	cache cache.Cache
	now   func() time.Time
}

func NewStore(c cache.Cache) *Store {
	return &Store{cache: c, now: time.Now}
}

// Revoke blacklists the token's jti until the token would expire anyway.
func (s *Store) Revoke(ctx context.Context, c *Claims) error {
	if c == nil || c.ID == "" || c.ExpiresAt == nil {
		return ErrTokenInvalid
	}
	ttl := c.ExpiresAt.Time.Sub(s.now())
	if ttl <= 0 {
		return nil
	}
	return s.cache.SetJSON(ctx, revokedKeyPrefix+c.ID, true, ttl)
}

// Claim revokes the token and reports whether this call was the one that did.
// Concurrent claims of the same jti see exactly one true.
func (s *Store) Claim(ctx context.Context, c *Claims) (bool, error) {
	if c == nil || c.ID == "" || c.ExpiresAt == nil {
		return false, ErrTokenInvalid
	}
	ttl := c.ExpiresAt.Time.Sub(s.now())
	if ttl <= 0 {
		return false, nil
	}
	return s.cache.SetIfAbsent(ctx, revokedKeyPrefix+c.ID, true, ttl)
}

// RevokeUser invalidates every token issued to userID before now. The marker
// only needs to live as long as the longest token lifetime.
func (s *Store) RevokeUser(ctx context.Context, userID uint, maxTTL time.Duration) error {
	return s.cache.SetJSON(ctx, issuedAfterKey(userID), s.now().Unix(), maxTTL)
}

// IssuedBeforeRevocation reports whether c predates the user's last RevokeUser.
func (s *Store) IssuedBeforeRevocation(ctx context.Context, userID uint, c *Claims) (bool, error) {
	var cutoff int64
	hit, err := s.cache.GetJSON(ctx, issuedAfterKey(userID), &cutoff)
	if err != nil || !hit {
		return false, err
	}
	if c.IssuedAt == nil {
		return true, nil
	}
	return c.IssuedAt.Time.Unix() < cutoff, nil
}

func issuedAfterKey(userID uint) string {
	return issuedAfterKeyPrefix + strconv.FormatUint(uint64(userID), 10)
}

func (s *Store) IsRevoked(ctx context.Context, jti string) (bool, error) {
	return s.cache.Exists(ctx, revokedKeyPrefix+jti)
}

type resetEntry struct {
	UserID uint `json:"user_id"`
}

// NewResetToken stores a single-use password reset token for userID.
func (s *Store) NewResetToken(ctx context.Context, userID uint, ttl time.Duration) (string, error) {
	token := strings.ReplaceAll(uuid.NewString(), "-", "")
	if err := s.cache.SetJSON(ctx, resetKeyPrefix+token, resetEntry{UserID: userID}, ttl); err != nil {
		return "", err
	}
	return token, nil
}

// ConsumeResetToken returns the user the token was issued for and deletes it.
func (s *Store) ConsumeResetToken(ctx context.Context, token string) (uint, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return 0, ErrResetTokenInvalid
	}
	var e resetEntry
	hit, err := s.cache.TakeJSON(ctx, resetKeyPrefix+token, &e)
	if err != nil {
		return 0, err
	}
	if !hit || e.UserID == 0 {
		return 0, ErrResetTokenInvalid
	}
	return e.UserID, nil
}

// Package auth issues and validates the bearer tokens handed out at login and
// keeps the token state (revocations, password resets) that lives in Redis.
package auth

import (
	"errors"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const (
	TokenTypeAccess  = "access"
	TokenTypeRefresh = "refresh"
)

var (
	ErrTokenExpired = errors.New("token expired")
	ErrTokenInvalid = errors.New("token invalid")
)

// Claims only carry the user id (sub) and a token id (jti). Roles are never
// put in the token; callers re-resolve the user on every request.
type Claims struct {
	TokenType string `json:"typ"`
	jwt.RegisteredClaims
}

func (c *Claims) UserID() (uint, error) {
	id, err := strconv.ParseUint(c.Subject, 10, 64)
	if err != nil || id == 0 {
		return 0, ErrTokenInvalid
	}
	return uint(id), nil
}

// Pair is returned by login, register and refresh.
type Pair struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	TokenType    string `json:"token_type"`
	ExpiresIn    int64  `json:"expires_in"`
}

type IssuerConfig struct {
	AccessSecret  string
	RefreshSecret string
	AccessTTL     time.Duration
	RefreshTTL    time.Duration
	Issuer        string
}

type Issuer struct {
	accessSecret  []byte
	refreshSecret []byte
	accessTTL     time.Duration
	refreshTTL    time.Duration
	issuer        string

	now func() time.Time
}

func NewIssuer(cfg IssuerConfig) (*Issuer, error) {
	if cfg.AccessSecret == "" {
		return nil, errors.New("auth: access secret is empty")
	}
	if cfg.RefreshSecret == "" {
		cfg.RefreshSecret = cfg.AccessSecret
	}
	if cfg.AccessTTL <= 0 || cfg.RefreshTTL <= 0 {
		return nil, errors.New("auth: token lifetimes must be positive")
	}
	return &Issuer{
		accessSecret:  []byte(cfg.AccessSecret),
		refreshSecret: []byte(cfg.RefreshSecret),
		accessTTL:     cfg.AccessTTL,
		refreshTTL:    cfg.RefreshTTL,
		issuer:        cfg.Issuer,
		now:           time.Now,
	}, nil
}

// SetClock replaces the time source. Tests only.
func (i *Issuer) SetClock(now func() time.Time) { i.now = now }

// MaxTTL is the lifetime of the longest-lived token the issuer signs.
func (i *Issuer) MaxTTL() time.Duration {
	return max(i.accessTTL, i.refreshTTL)
}

func (i *Issuer) Issue(userID uint) (Pair, error) {
	access, err := i.sign(TokenTypeAccess, userID)
	if err != nil {
		return Pair{}, err
	}
	refresh, err := i.sign(TokenTypeRefresh, userID)
	if err != nil {
		return Pair{}, err
	}
	return Pair{
		AccessToken:  access,
		RefreshToken: refresh,
		TokenType:    "Bearer",
		ExpiresIn:    int64(i.accessTTL / time.Second),
	}, nil
}

// Parse validates raw and requires it to be of tokenType. A refresh token is
// never accepted where an access token is expected, and the reverse.
func (i *Issuer) Parse(raw, tokenType string) (*Claims, error) {
	secret, _, err := i.params(tokenType)
	if err != nil {
		return nil, err
	}

	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(i.now),
	}
	if i.issuer != "" {
		opts = append(opts, jwt.WithIssuer(i.issuer))
	}

	var c Claims
	tok, err := jwt.NewParser(opts...).ParseWithClaims(raw, &c, func(*jwt.Token) (any, error) {
		return secret, nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrTokenExpired
		}
		return nil, ErrTokenInvalid
	}
	if tok == nil || !tok.Valid || c.TokenType != tokenType || c.ID == "" {
		return nil, ErrTokenInvalid
	}
	if _, err := c.UserID(); err != nil {
		return nil, err
	}
	return &c, nil
}

func (i *Issuer) sign(tokenType string, userID uint) (string, error) {
	secret, ttl, err := i.params(tokenType)
	if err != nil {
		return "", err
	}
	now := i.now().UTC()
	c := Claims{
		TokenType: tokenType,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Subject:   strconv.FormatUint(uint64(userID), 10),
			Issuer:    i.issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, c).SignedString(secret)
}

func (i *Issuer) params(tokenType string) ([]byte, time.Duration, error) {
	switch tokenType {
	case TokenTypeAccess:
		return i.accessSecret, i.accessTTL, nil
	case TokenTypeRefresh:
		return i.refreshSecret, i.refreshTTL, nil
	default:
		return nil, 0, ErrTokenInvalid
	}
}

package auth_test

import (
	"errors"
	"testing"
	"time"

	"github.com/yoockh/jobboard/internal/auth"
)

func newIssuer(t *testing.T, now *time.Time) *auth.Issuer {
	t.Helper()
	iss, err := auth.NewIssuer(auth.IssuerConfig{
		AccessSecret: "test-secret",
		AccessTTL:    15 * time.Minute,
		RefreshTTL:   24 * time.Hour,
		Issuer:       "jobboard-test",
	})
	if err != nil {
		t.Fatalf("NewIssuer: %v", err)
	}
	iss.SetClock(func() time.Time { return *now })
	return iss
}

func TestIssuer_RoundTrip(t *testing.T) {
	now := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	iss := newIssuer(t, &now)

	pair, err := iss.Issue(42)
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}
	if pair.TokenType != "Bearer" || pair.ExpiresIn != int64((15*time.Minute)/time.Second) {
		t.Fatalf("unexpected pair meta: %+v", pair)
	}

	c, err := iss.Parse(pair.AccessToken, auth.TokenTypeAccess)
	if err != nil {
		t.Fatalf("Parse access: %v", err)
	}
	id, err := c.UserID()
	if err != nil || id != 42 {
		t.Fatalf("UserID=%d err=%v", id, err)
	}
	if c.ID == "" {
		t.Fatalf("expected jti")
	}

	rc, err := iss.Parse(pair.RefreshToken, auth.TokenTypeRefresh)
	if err != nil {
		t.Fatalf("Parse refresh: %v", err)
	}
	if rc.ID == c.ID {
		t.Fatalf("access and refresh share jti %q", c.ID)
	}
}

func TestIssuer_RejectsWrongTokenType(t *testing.T) {
	now := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	iss := newIssuer(t, &now)
	pair, err := iss.Issue(7)
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}

	if _, err := iss.Parse(pair.RefreshToken, auth.TokenTypeAccess); !errors.Is(err, auth.ErrTokenInvalid) {
		t.Fatalf("refresh as access: want ErrTokenInvalid, got %v", err)
	}
	if _, err := iss.Parse(pair.AccessToken, auth.TokenTypeRefresh); !errors.Is(err, auth.ErrTokenInvalid) {
		t.Fatalf("access as refresh: want ErrTokenInvalid, got %v", err)
	}
}

func TestIssuer_Expired(t *testing.T) {
	now := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	iss := newIssuer(t, &now)
	pair, err := iss.Issue(7)
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}

	now = now.Add(time.Hour)
	if _, err := iss.Parse(pair.AccessToken, auth.TokenTypeAccess); !errors.Is(err, auth.ErrTokenExpired) {
		t.Fatalf("want ErrTokenExpired, got %v", err)
	}
	if _, err := iss.Parse(pair.RefreshToken, auth.TokenTypeRefresh); err != nil {
		t.Fatalf("refresh should still be valid: %v", err)
	}
}

func TestIssuer_RejectsForeignSignature(t *testing.T) {
	now := time.Now()
	iss := newIssuer(t, &now)
	other, err := auth.NewIssuer(auth.IssuerConfig{
		AccessSecret: "another-secret",
		AccessTTL:    time.Minute,
		RefreshTTL:   time.Hour,
		Issuer:       "jobboard-test",
	})
	if err != nil {
		t.Fatalf("NewIssuer: %v", err)
	}
	pair, err := other.Issue(1)
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}

	for _, raw := range []string{pair.AccessToken, "", "not.a.jwt"} {
		if _, err := iss.Parse(raw, auth.TokenTypeAccess); !errors.Is(err, auth.ErrTokenInvalid) {
			t.Fatalf("Parse(%q): want ErrTokenInvalid, got %v", raw, err)
		}
	}
}

func TestNewIssuer_Validation(t *testing.T) {
	if _, err := auth.NewIssuer(auth.IssuerConfig{AccessTTL: time.Minute, RefreshTTL: time.Hour}); err == nil {
		t.Fatalf("expected error for empty secret")
	}
	if _, err := auth.NewIssuer(auth.IssuerConfig{AccessSecret: "x"}); err == nil {
		t.Fatalf("expected error for zero lifetimes")
	}
}

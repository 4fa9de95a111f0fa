package auth_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/yoockh/jobboard/internal/auth"
	"github.com/yoockh/jobboard/internal/testutil"
)

func TestStore_RevokeUntilExpiry(t *testing.T) {
	ctx := context.Background()
	now := time.Now()
	iss := newIssuer(t, &now)
	pair, err := iss.Issue(3)
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}
	c, err := iss.Parse(pair.AccessToken, auth.TokenTypeAccess)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}

	fc := testutil.NewFakeCache()
	st := auth.NewStore(fc)

	if revoked, _ := st.IsRevoked(ctx, c.ID); revoked {
		t.Fatalf("fresh token reported revoked")
	}
	if err := st.Revoke(ctx, c); err != nil {
		t.Fatalf("Revoke: %v", err)
	}
	if revoked, _ := st.IsRevoked(ctx, c.ID); !revoked {
		t.Fatalf("token not revoked")
	}

	// the entry must not outlive the token itself
	fc.Now = func() time.Time { return now.Add(16 * time.Minute) }
	if revoked, _ := st.IsRevoked(ctx, c.ID); revoked {
		t.Fatalf("revocation outlived token expiry")
	}
}

func TestStore_ResetTokenSingleUse(t *testing.T) {
	ctx := context.Background()
	st := auth.NewStore(testutil.NewFakeCache())

	tok, err := st.NewResetToken(ctx, 9, 30*time.Minute)
	if err != nil {
		t.Fatalf("NewResetToken: %v", err)
	}
	if len(tok) != 32 {
		t.Fatalf("unexpected token %q", tok)
	}

	uid, err := st.ConsumeResetToken(ctx, tok)
	if err != nil || uid != 9 {
		t.Fatalf("Consume: uid=%d err=%v", uid, err)
	}
	if _, err := st.ConsumeResetToken(ctx, tok); !errors.Is(err, auth.ErrResetTokenInvalid) {
		t.Fatalf("second consume: want ErrResetTokenInvalid, got %v", err)
	}
	if _, err := st.ConsumeResetToken(ctx, "nope"); !errors.Is(err, auth.ErrResetTokenInvalid) {
		t.Fatalf("unknown token: want ErrResetTokenInvalid, got %v", err)
	}
}

func TestStore_ResetTokenExpires(t *testing.T) {
	ctx := context.Background()
	fc := testutil.NewFakeCache()
	st := auth.NewStore(fc)

	tok, err := st.NewResetToken(ctx, 9, 30*time.Minute)
	if err != nil {
		t.Fatalf("NewResetToken: %v", err)
	}
	later := time.Now().Add(31 * time.Minute)
	fc.Now = func() time.Time { return later }
	if _, err := st.ConsumeResetToken(ctx, tok); !errors.Is(err, auth.ErrResetTokenInvalid) {
		t.Fatalf("want ErrResetTokenInvalid, got %v", err)
	}
}

func TestStore_ClaimIsSingleUse(t *testing.T) {
	ctx := context.Background()
	now := time.Now()
	iss := newIssuer(t, &now)
	pair, err := iss.Issue(3)
	if err != nil {
		t.Fatal(err)
	}
	c, err := iss.Parse(pair.RefreshToken, auth.TokenTypeRefresh)
	if err != nil {
		t.Fatal(err)
	}
	st := auth.NewStore(testutil.NewFakeCache())

	if ok, err := st.Claim(ctx, c); err != nil || !ok {
		t.Fatalf("first claim = %v, %v", ok, err)
	}
	if ok, err := st.Claim(ctx, c); err != nil || ok {
		t.Fatalf("second claim = %v, %v", ok, err)
	}
	if revoked, _ := st.IsRevoked(ctx, c.ID); !revoked {
		t.Fatalf("claimed token not revoked")
	}
	if _, err := st.Claim(ctx, &auth.Claims{}); !errors.Is(err, auth.ErrTokenInvalid) {
		t.Fatalf("claim without jti: want ErrTokenInvalid, got %v", err)
	}
}

func TestStore_RevokeUserCutsOffOlderTokens(t *testing.T) {
	ctx := context.Background()
	issued := time.Now().Add(-time.Minute)
	iss := newIssuer(t, &issued)
	old, err := iss.Issue(5)
	if err != nil {
		t.Fatal(err)
	}
	oldClaims, _ := iss.Parse(old.AccessToken, auth.TokenTypeAccess)

	fc := testutil.NewFakeCache()
	st := auth.NewStore(fc)
	if before, err := st.IssuedBeforeRevocation(ctx, 5, oldClaims); err != nil || before {
		t.Fatalf("no marker yet: %v, %v", before, err)
	}
	if err := st.RevokeUser(ctx, 5, iss.MaxTTL()); err != nil {
		t.Fatalf("RevokeUser: %v", err)
	}
	if before, _ := st.IssuedBeforeRevocation(ctx, 5, oldClaims); !before {
		t.Fatalf("older token still accepted")
	}
	if before, _ := st.IssuedBeforeRevocation(ctx, 6, oldClaims); before {
		t.Fatalf("marker leaked to another user")
	}

	issued = time.Now().Add(time.Second)
	fresh, _ := iss.Issue(5)
	freshClaims, _ := iss.Parse(fresh.AccessToken, auth.TokenTypeAccess)
	if before, _ := st.IssuedBeforeRevocation(ctx, 5, freshClaims); before {
		t.Fatalf("token issued after the cutoff rejected")
	}

	fc.Now = func() time.Time { return time.Now().Add(25 * time.Hour) }
	if len(fc.Keys()) != 0 {
		t.Fatalf("marker outlived token lifetime: %v", fc.Keys())
	}
}

package services_test

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/yoockh/jobboard/internal/services"
	"github.com/yoockh/jobboard/internal/utils"
)

func TestAuth_RegisterThenLogin(t *testing.T) {
	ctx := context.Background()
	e := newEnv(t)

	reg := e.register(t, "Alice", false)
	if reg.AccessToken == "" || reg.RefreshToken == "" || reg.TokenType != "Bearer" {
		t.Fatalf("unexpected pair: %+v", reg.Pair)
	}
	if reg.User.PasswordHash == "secret123" {
		t.Fatalf("password stored in clear")
	}
	b, _ := json.Marshal(reg)
	if strings.Contains(string(b), "password") {
		t.Fatalf("password leaked in response: %s", b)
	}

	for _, id := range []string{"alice@example.test", "ALICE@example.test", "Alice"} {
		res, err := e.Auth.Login(ctx, id, "secret123")
		if err != nil {
			t.Fatalf("login %q: %v", id, err)
		}
		if res.User.ID != reg.User.ID {
			t.Fatalf("login %q returned user %d", id, res.User.ID)
		}
	}
}

func TestAuth_LoginFailuresAreIndistinguishable(t *testing.T) {
	ctx := context.Background()
	e := newEnv(t)
	e.register(t, "alice", false)

	_, wrongPw := e.Auth.Login(ctx, "alice", "not-the-password")
	_, unknown := e.Auth.Login(ctx, "nobody@example.test", "secret123")
	for _, err := range []error{wrongPw, unknown} {
		wantCode(t, err, utils.CodeUnauthorized)
		var ae *utils.AppError
		if !errors.As(err, &ae) || ae.Message != "invalid credentials" {
			t.Fatalf("message = %v", err)
		}
	}
}

func TestAuth_RegisterValidation(t *testing.T) {
	ctx := context.Background()
	e := newEnv(t)
	e.register(t, "alice", false)

	cases := []struct {
		name string
		in   services.RegisterInput
		code utils.Code
	}{
		{"duplicate email", services.RegisterInput{Username: "alice2", Email: "alice@example.test", Password: "secret123"}, utils.CodeConflict},
		{"duplicate username", services.RegisterInput{Username: "alice", Email: "other@example.test", Password: "secret123"}, utils.CodeConflict},
		{"short password", services.RegisterInput{Username: "bob", Email: "bob@example.test", Password: "123"}, utils.CodeInvalidArgument},
		{"bad email", services.RegisterInput{Username: "bob", Email: "bob", Password: "secret123"}, utils.CodeInvalidArgument},
		{"short username", services.RegisterInput{Username: "bo", Email: "bob@example.test", Password: "secret123"}, utils.CodeInvalidArgument},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := e.Auth.Register(ctx, tc.in)
			wantCode(t, err, tc.code)
		})
	}
}

func TestAuth_AuthenticateRejectsRefreshToken(t *testing.T) {
	ctx := context.Background()
	e := newEnv(t)
	reg := e.register(t, "alice", false)

	if _, _, err := e.Auth.Authenticate(ctx, reg.AccessToken); err != nil {
		t.Fatalf("access token rejected: %v", err)
	}
	_, _, err := e.Auth.Authenticate(ctx, reg.RefreshToken)
	wantCode(t, err, utils.CodeUnauthorized)
	_, _, err = e.Auth.Authenticate(ctx, "garbage")
	wantCode(t, err, utils.CodeUnauthorized)
}

func TestAuth_RefreshRotates(t *testing.T) {
	ctx := context.Background()
	e := newEnv(t)
	reg := e.register(t, "alice", false)

	next, err := e.Auth.Refresh(ctx, reg.RefreshToken)
	if err != nil {
		t.Fatalf("Refresh: %v", err)
	}
	if next.RefreshToken == reg.RefreshToken {
		t.Fatalf("refresh token not rotated")
	}
	_, err = e.Auth.Refresh(ctx, reg.RefreshToken)
	wantCode(t, err, utils.CodeUnauthorized)

	_, err = e.Auth.Refresh(ctx, reg.AccessToken)
	wantCode(t, err, utils.CodeUnauthorized)
}

func TestAuth_ConcurrentRefreshSucceedsOnce(t *testing.T) {
	ctx := context.Background()
	e := newEnv(t)
	reg := e.register(t, "alice", false)

	var wg sync.WaitGroup
	errs := make([]error, 8)
	for i := range errs {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = e.Auth.Refresh(ctx, reg.RefreshToken)
		}(i)
	}
	wg.Wait()

	ok := 0
	for _, err := range errs {
		if err == nil {
			ok++
			continue
		}
		wantCode(t, err, utils.CodeUnauthorized)
	}
	if ok != 1 {
		t.Fatalf("%d refreshes succeeded with one token, want 1", ok)
	}
}

func TestAuth_LogoutRevokesTokens(t *testing.T) {
	ctx := context.Background()
	e := newEnv(t)
	reg := e.register(t, "alice", false)

	_, claims, err := e.Auth.Authenticate(ctx, reg.AccessToken)
	if err != nil {
		t.Fatal(err)
	}
	if err := e.Auth.Logout(ctx, claims, reg.RefreshToken); err != nil {
		t.Fatalf("Logout: %v", err)
	}
	_, _, err = e.Auth.Authenticate(ctx, reg.AccessToken)
	wantCode(t, err, utils.CodeUnauthorized)
	_, err = e.Auth.Refresh(ctx, reg.RefreshToken)
	wantCode(t, err, utils.CodeUnauthorized)
}

func TestAuth_LogoutRejectsForeignRefreshToken(t *testing.T) {
	ctx := context.Background()
	e := newEnv(t)
	alice := e.register(t, "alice", false)
	bob := e.register(t, "bob", false)

	_, claims, err := e.Auth.Authenticate(ctx, alice.AccessToken)
	if err != nil {
		t.Fatal(err)
	}
	err = e.Auth.Logout(ctx, claims, bob.RefreshToken)
	wantCode(t, err, utils.CodeInvalidArgument)

	if _, err := e.Auth.Refresh(ctx, bob.RefreshToken); err != nil {
		t.Fatalf("bob's refresh token was revoked: %v", err)
	}
}

func TestAuth_DeletedUserTokenIsUnauthorized(t *testing.T) {
	ctx := context.Background()
	e := newEnv(t)
	reg := e.register(t, "alice", false)

	if err := e.Users.Delete(ctx, reg.User.ID, reg.User.ID); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	_, _, err := e.Auth.Authenticate(ctx, reg.AccessToken)
	wantCode(t, err, utils.CodeUnauthorized)
	_, err = e.Auth.Me(ctx, reg.User.ID)
	wantCode(t, err, utils.CodeUnauthorized)
}

func TestAuth_PasswordReset(t *testing.T) {
	ctx := context.Background()
	e := newEnv(t)
	reg := e.register(t, "alice", false)

	token, err := e.Auth.ForgotPassword(ctx, "Alice@Example.test")
	if err != nil || token == "" {
		t.Fatalf("ForgotPassword = %q, %v", token, err)
	}
	none, err := e.Auth.ForgotPassword(ctx, "ghost@example.test")
	if err != nil || none != "" {
		t.Fatalf("unknown email must look like success, got %q, %v", none, err)
	}

	wantCode(t, e.Auth.ResetPassword(ctx, token, "123"), utils.CodeInvalidArgument)
	if err := e.Auth.ResetPassword(ctx, token, "brand-new-pw"); err != nil {
		t.Fatalf("ResetPassword: %v", err)
	}
	wantCode(t, e.Auth.ResetPassword(ctx, token, "another-pw"), utils.CodeInvalidArgument)

	if _, err := e.Auth.Login(ctx, "alice", "secret123"); err == nil {
		t.Fatalf("old password still works")
	}
	res, err := e.Auth.Login(ctx, "alice", "brand-new-pw")
	if err != nil || res.User.ID != reg.User.ID {
		t.Fatalf("login with new password: %v", err)
	}
}

func TestAuth_PasswordResetEndsExistingSessions(t *testing.T) {
	ctx := context.Background()
	e := newEnv(t)

	// sessions opened a minute before the reset
	e.issuer.SetClock(func() time.Time { return time.Now().Add(-time.Minute) })
	reg := e.register(t, "alice", false)
	other, err := e.Auth.Login(ctx, "alice", "secret123")
	if err != nil {
		t.Fatal(err)
	}
	bob := e.register(t, "bob", false)
	e.issuer.SetClock(time.Now)

	token, err := e.Auth.ForgotPassword(ctx, "alice@example.test")
	if err != nil {
		t.Fatal(err)
	}
	if err := e.Auth.ResetPassword(ctx, token, "brand-new-pw"); err != nil {
		t.Fatalf("ResetPassword: %v", err)
	}

	for _, sess := range []*services.AuthResult{reg, other} {
		_, _, err = e.Auth.Authenticate(ctx, sess.AccessToken)
		wantCode(t, err, utils.CodeUnauthorized)
		_, err = e.Auth.Refresh(ctx, sess.RefreshToken)
		wantCode(t, err, utils.CodeUnauthorized)
	}

	if _, _, err := e.Auth.Authenticate(ctx, bob.AccessToken); err != nil {
		t.Fatalf("other user's session ended: %v", err)
	}
	fresh, err := e.Auth.Login(ctx, "alice", "brand-new-pw")
	if err != nil {
		t.Fatal(err)
	}
	if _, _, err := e.Auth.Authenticate(ctx, fresh.AccessToken); err != nil {
		t.Fatalf("new session rejected: %v", err)
	}
	if _, err := e.Auth.Refresh(ctx, fresh.RefreshToken); err != nil {
		t.Fatalf("new refresh rejected: %v", err)
	}
}

func TestAuth_MePreloadsCompany(t *testing.T) {
	ctx := context.Background()
	e := newEnv(t)
	u, c := e.recruiterWithCompany(t, "rita", "Acme")

	me, err := e.Auth.Me(ctx, u.ID)
	if err != nil {
		t.Fatalf("Me: %v", err)
	}
	if me.Company == nil || me.Company.ID != c.ID {
		t.Fatalf("company = %+v", me.Company)
	}
}

package services

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/yoockh/jobboard/internal/auth"
	"github.com/yoockh/jobboard/internal/models"
	pgrepo "github.com/yoockh/jobboard/internal/repositories/postgres"
	"github.com/yoockh/jobboard/internal/utils"
)

const (
	msgInvalidCredentials = "invalid credentials"
	minUsernameLength     = 3
	maxUsernameLength     = 64
)

// dummyHash is compared against when the login identifier is unknown so both
// failure paths cost one bcrypt comparison.
var dummyHash = sync.OnceValue(func() string {
	h, _ := utils.HashPassword("not-a-real-password")
	return h
})

type RegisterInput struct {
	Username    string `json:"username"`
	Email       string `json:"email"`
	Password    string `json:"password"`
	FirstName   string `json:"first_name"`
	LastName    string `json:"last_name"`
	IsRecruiter bool   `json:"is_recruiter"`
}

// AuthResult is the body of register, login and refresh responses.
type AuthResult struct {
	auth.Pair
	User *models.User `json:"user"`
}

type AuthService interface {
	Register(ctx context.Context, in RegisterInput) (*AuthResult, error)
	// CreateUser registers without issuing tokens.
	CreateUser(ctx context.Context, in RegisterInput) (*models.User, error)
	Login(ctx context.Context, identifier, password string) (*AuthResult, error)
	Refresh(ctx context.Context, refreshToken string) (*AuthResult, error)
	Logout(ctx context.Context, access *auth.Claims, refreshToken string) error
	// Authenticate validates an access token and returns the live user.
	Authenticate(ctx context.Context, accessToken string) (*models.User, *auth.Claims, error)
	Me(ctx context.Context, userID uint) (*models.User, error)
	// ForgotPassword returns an empty token for unknown emails.
	ForgotPassword(ctx context.Context, email string) (string, error)
	ResetPassword(ctx context.Context, token, newPassword string) error
}

type authService struct {
	repos    *pgrepo.Repositories
	issuer   *auth.Issuer
	tokens   *auth.Store
	resetTTL time.Duration
	log      *logrus.Logger
}

func NewAuthService(repos *pgrepo.Repositories, issuer *auth.Issuer, tokens *auth.Store, resetTTL time.Duration, log *logrus.Logger) AuthService {
	if resetTTL <= 0 {
		resetTTL = 30 * time.Minute
	}
	if log == nil {
		log = logrus.New()
	}
	return &authService{repos: repos, issuer: issuer, tokens: tokens, resetTTL: resetTTL, log: log}
}

func (s *authService) Register(ctx context.Context, in RegisterInput) (*AuthResult, error) {
	const op = "AuthService.Register"

	u, err := s.createUser(ctx, op, in)
	if err != nil {
		return nil, err
	}
	return s.issue(op, u)
}

func (s *authService) CreateUser(ctx context.Context, in RegisterInput) (*models.User, error) {
	return s.createUser(ctx, "AuthService.CreateUser", in)
}

func (s *authService) createUser(ctx context.Context, op string, in RegisterInput) (*models.User, error) {
	in.Username = strings.TrimSpace(in.Username)
	in.Email = normalizeEmail(in.Email)

	if l := len(in.Username); l < minUsernameLength || l > maxUsernameLength {
		return nil, invalid(op, "username must be 3-64 characters")
	}
	if strings.Contains(in.Username, "@") {
		return nil, invalid(op, "username must not contain @")
	}
	if !validEmail(in.Email) {
		return nil, invalid(op, "a valid email is required")
	}

	hash, err := utils.HashPassword(in.Password)
	if err != nil {
		if errors.Is(err, utils.ErrPasswordTooShort) {
			return nil, invalid(op, "password must be at least 6 characters")
		}
		return nil, utils.E(utils.CodeInternal, op, "failed to hash password", err)
	}

	u := &models.User{
		Username:     in.Username,
		Email:        in.Email,
		PasswordHash: hash,
		FirstName:    strings.TrimSpace(in.FirstName),
		LastName:     strings.TrimSpace(in.LastName),
		IsRecruiter:  in.IsRecruiter,
	}
	if err := s.repos.Users.Create(ctx, u); err != nil {
		if errors.Is(err, utils.ErrDuplicate) {
			return nil, utils.E(utils.CodeConflict, op, "username or email already exists", err)
		}
		return nil, storeErr(op, err, "user")
	}
	return u, nil
}

func (s *authService) Login(ctx context.Context, identifier, password string) (*AuthResult, error) {
	const op = "AuthService.Login"

	identifier = strings.TrimSpace(identifier)
	if identifier == "" || password == "" {
		return nil, invalid(op, "email or username and password are required")
	}
	if strings.Contains(identifier, "@") {
		identifier = normalizeEmail(identifier)
	}

	u, err := s.repos.Users.GetByLogin(ctx, identifier)
	if err != nil {
		if !errors.Is(err, utils.ErrNotFound) {
			return nil, storeErr(op, err, "user")
		}
		_ = utils.CheckPassword(dummyHash(), password)
		return nil, utils.E(utils.CodeUnauthorized, op, msgInvalidCredentials, nil)
	}
	if err := utils.CheckPassword(u.PasswordHash, password); err != nil {
		return nil, utils.E(utils.CodeUnauthorized, op, msgInvalidCredentials, nil)
	}
	return s.issue(op, u)
}

func (s *authService) Refresh(ctx context.Context, refreshToken string) (*AuthResult, error) {
	const op = "AuthService.Refresh"

	c, err := s.validate(ctx, op, refreshToken, auth.TokenTypeRefresh)
	if err != nil {
		return nil, err
	}
	uid, _ := c.UserID()
	u, err := loadActor(ctx, s.repos.Users, op, uid)
	if err != nil {
		return nil, err
	}
	// refresh tokens are single use
	claimed, err := s.tokens.Claim(ctx, c)
	if err != nil {
		return nil, utils.E(utils.CodeUnavailable, op, "token store unavailable", err)
	}
	if !claimed {
		return nil, utils.E(utils.CodeUnauthorized, op, "token revoked", nil)
	}
	return s.issue(op, u)
}

func (s *authService) Logout(ctx context.Context, access *auth.Claims, refreshToken string) error {
	const op = "AuthService.Logout"

	if access == nil {
		return utils.E(utils.CodeUnauthorized, op, "unauthorized", nil)
	}
	if refreshToken != "" {
		rc, err := s.issuer.Parse(refreshToken, auth.TokenTypeRefresh)
		if err != nil || rc.Subject != access.Subject {
			return invalid(op, "invalid refresh_token")
		}
		if err := s.tokens.Revoke(ctx, rc); err != nil {
			return utils.E(utils.CodeUnavailable, op, "token store unavailable", err)
		}
	}
	if err := s.tokens.Revoke(ctx, access); err != nil {
		return utils.E(utils.CodeUnavailable, op, "token store unavailable", err)
	}
	return nil
}

func (s *authService) Authenticate(ctx context.Context, accessToken string) (*models.User, *auth.Claims, error) {
	const op = "AuthService.Authenticate"

	c, err := s.validate(ctx, op, accessToken, auth.TokenTypeAccess)
	if err != nil {
		return nil, nil, err
	}
	uid, _ := c.UserID()
	u, err := loadActor(ctx, s.repos.Users, op, uid)
	if err != nil {
		return nil, nil, err
	}
	return u, c, nil
}

func (s *authService) Me(ctx context.Context, userID uint) (*models.User, error) {
	const op = "AuthService.Me"

	if _, err := loadActor(ctx, s.repos.Users, op, userID); err != nil {
		return nil, err
	}
	u, err := s.repos.Users.GetByID(ctx, userID, "Company")
	if err != nil {
		return nil, storeErr(op, err, "user")
	}
	return u, nil
}

func (s *authService) ForgotPassword(ctx context.Context, email string) (string, error) {
	const op = "AuthService.ForgotPassword"

	email = normalizeEmail(email)
	if !validEmail(email) {
		return "", invalid(op, "a valid email is required")
	}
	u, err := s.repos.Users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, utils.ErrNotFound) {
			return "", nil
		}
		return "", storeErr(op, err, "user")
	}

	token, err := s.tokens.NewResetToken(ctx, u.ID, s.resetTTL)
	if err != nil {
		return "", utils.E(utils.CodeUnavailable, op, "token store unavailable", err)
	}
	s.log.WithFields(logrus.Fields{"user_id": u.ID}).Info("password reset requested")
	return token, nil
}

func (s *authService) ResetPassword(ctx context.Context, token, newPassword string) error {
	const op = "AuthService.ResetPassword"

	hash, err := utils.HashPassword(newPassword)
	if err != nil {
		if errors.Is(err, utils.ErrPasswordTooShort) {
			return invalid(op, "password must be at least 6 characters")
		}
		return utils.E(utils.CodeInternal, op, "failed to hash password", err)
	}

	uid, err := s.tokens.ConsumeResetToken(ctx, token)
	if err != nil {
		if errors.Is(err, auth.ErrResetTokenInvalid) {
			return invalid(op, "invalid or expired reset token")
		}
		return utils.E(utils.CodeUnavailable, op, "token store unavailable", err)
	}

	if err := s.repos.Users.Update(ctx, uid, map[string]any{"password_hash": hash}); err != nil {
		if errors.Is(err, utils.ErrNotFound) {
			return invalid(op, "invalid or expired reset token")
		}
		return storeErr(op, err, "user")
	}
	// end every session opened with the old password
	if err := s.tokens.RevokeUser(ctx, uid, s.issuer.MaxTTL()); err != nil {
		return utils.E(utils.CodeUnavailable, op, "token store unavailable", err)
	}
	s.log.WithFields(logrus.Fields{"user_id": uid}).Info("password reset; sessions revoked")
	return nil
}

func (s *authService) validate(ctx context.Context, op, raw, tokenType string) (*auth.Claims, error) {
	c, err := s.issuer.Parse(raw, tokenType)
	if err != nil {
		if errors.Is(err, auth.ErrTokenExpired) {
			return nil, utils.E(utils.CodeUnauthorized, op, "token expired", err)
		}
		return nil, utils.E(utils.CodeUnauthorized, op, "invalid token", err)
	}
	revoked, err := s.tokens.IsRevoked(ctx, c.ID)
	if err != nil {
		return nil, utils.E(utils.CodeUnavailable, op, "token store unavailable", err)
	}
	if !revoked {
		uid, _ := c.UserID()
		revoked, err = s.tokens.IssuedBeforeRevocation(ctx, uid, c)
		if err != nil {
			return nil, utils.E(utils.CodeUnavailable, op, "token store unavailable", err)
		}
	}
	if revoked {
		return nil, utils.E(utils.CodeUnauthorized, op, "token revoked", nil)
	}
	return c, nil
}

func (s *authService) issue(op string, u *models.User) (*AuthResult, error) {
	pair, err := s.issuer.Issue(u.ID)
	if err != nil {
		return nil, utils.E(utils.CodeInternal, op, "failed to issue token", err)
	}
	return &AuthResult{Pair: pair, User: u}, nil
}

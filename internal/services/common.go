package services

import (
	"context"
	"errors"
	"net/mail"
	"strings"

	"github.com/yoockh/jobboard/internal/models"
	pgrepo "github.com/yoockh/jobboard/internal/repositories/postgres"
	"github.com/yoockh/jobboard/internal/utils"
)

// storeErr converts a repository error into an AppError. Errors that are
// already AppErrors (returned from inside a transaction) pass through.
func storeErr(op string, err error, what string) error {
	var ae *utils.AppError
	if errors.As(err, &ae) {
		return err
	}
	switch {
	case errors.Is(err, utils.ErrNotFound):
		return utils.E(utils.CodeNotFound, op, what+" not found", err)
	case errors.Is(err, utils.ErrDuplicate):
		return utils.E(utils.CodeConflict, op, what+" already exists", err)
	case errors.Is(err, utils.ErrReference):
		return utils.E(utils.CodeNotFound, op, "referenced record not found", err)
	case errors.Is(err, context.DeadlineExceeded):
		return utils.E(utils.CodeTimeout, op, "request timed out", err)
	default:
		return utils.E(utils.CodeInternal, op, "storage error", err)
	}
}

// loadActor re-resolves the acting user from storage. A token whose user is
// gone is treated as unauthenticated.
func loadActor(ctx context.Context, users pgrepo.UserRepository, op string, actorID uint) (*models.User, error) {
	if actorID == 0 {
		return nil, utils.E(utils.CodeUnauthorized, op, "unauthorized", nil)
	}
	u, err := users.GetByID(ctx, actorID)
	if err != nil {
		if errors.Is(err, utils.ErrNotFound) {
			return nil, utils.E(utils.CodeUnauthorized, op, "unauthorized", err)
		}
		return nil, storeErr(op, err, "user")
	}
	return u, nil
}

func forbidden(op, msg string) error {
	return utils.E(utils.CodeForbidden, op, msg, nil)
}

func invalid(op, msg string) error {
	return utils.E(utils.CodeInvalidArgument, op, msg, nil)
}

func normalizeEmail(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

func validEmail(s string) bool {
	a, err := mail.ParseAddress(s)
	return err == nil && a.Address == s
}

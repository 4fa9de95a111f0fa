package services

import (
	"context"
	"errors"
	"strings"

	"github.com/yoockh/jobboard/internal/models"
	pgrepo "github.com/yoockh/jobboard/internal/repositories/postgres"
	"github.com/yoockh/jobboard/internal/utils"
)

// UserUpdate lists the fields a user may change on their own account.
type UserUpdate struct {
	Username  *string `json:"username"`
	Email     *string `json:"email"`
	Password  *string `json:"password"`
	FirstName *string `json:"first_name"`
	LastName  *string `json:"last_name"`
}

type UserService interface {
	Get(ctx context.Context, id uint, relations ...string) (*models.User, error)
	List(ctx context.Context, f pgrepo.UserFilter, page pgrepo.Page) ([]models.User, int64, error)
	Update(ctx context.Context, actorID, id uint, in UserUpdate) (*models.User, error)
	Delete(ctx context.Context, actorID, id uint) error
}

type userService struct {
	repos *pgrepo.Repositories
}

func NewUserService(repos *pgrepo.Repositories) UserService {
	return &userService{repos: repos}
}

func (s *userService) Get(ctx context.Context, id uint, relations ...string) (*models.User, error) {
	const op = "UserService.Get"

	u, err := s.repos.Users.GetByID(ctx, id, relations...)
	if err != nil {
		return nil, storeErr(op, err, "user")
	}
	return u, nil
}

func (s *userService) List(ctx context.Context, f pgrepo.UserFilter, page pgrepo.Page) ([]models.User, int64, error) {
	const op = "UserService.List"

	rows, total, err := s.repos.Users.List(ctx, f, page)
	if err != nil {
		return nil, 0, storeErr(op, err, "user")
	}
	return rows, total, nil
}

func (s *userService) Update(ctx context.Context, actorID, id uint, in UserUpdate) (*models.User, error) {
	const op = "UserService.Update"

	actor, err := loadActor(ctx, s.repos.Users, op, actorID)
	if err != nil {
		return nil, err
	}
	if !isSelf(actor, id) {
		return nil, forbidden(op, "you can only update your own account")
	}

	fields := map[string]any{}
	if in.Username != nil {
		v := strings.TrimSpace(*in.Username)
		if l := len(v); l < minUsernameLength || l > maxUsernameLength || strings.Contains(v, "@") {
			return nil, invalid(op, "username must be 3-64 characters without @")
		}
		fields["username"] = v
	}
	if in.Email != nil {
		v := normalizeEmail(*in.Email)
		if !validEmail(v) {
			return nil, invalid(op, "a valid email is required")
		}
		fields["email"] = v
	}
	if in.Password != nil {
		hash, err := utils.HashPassword(*in.Password)
		if err != nil {
			if errors.Is(err, utils.ErrPasswordTooShort) {
				return nil, invalid(op, "password must be at least 6 characters")
			}
			return nil, utils.E(utils.CodeInternal, op, "failed to hash password", err)
		}
		fields["password_hash"] = hash
	}
	if in.FirstName != nil {
		fields["first_name"] = strings.TrimSpace(*in.FirstName)
	}
	if in.LastName != nil {
		fields["last_name"] = strings.TrimSpace(*in.LastName)
	}
	if len(fields) == 0 {
		return actor, nil
	}

	if err := s.repos.Users.Update(ctx, id, fields); err != nil {
		if errors.Is(err, utils.ErrDuplicate) {
			return nil, utils.E(utils.CodeConflict, op, "username or email already exists", err)
		}
		return nil, storeErr(op, err, "user")
	}
	return s.Get(ctx, id)
}

// Delete removes the account with its applications and saved jobs. Owners of
// companies or posters of jobs must hand those off first.
func (s *userService) Delete(ctx context.Context, actorID, id uint) error {
	const op = "UserService.Delete"

	actor, err := loadActor(ctx, s.repos.Users, op, actorID)
	if err != nil {
		return err
	}
	if !isSelf(actor, id) {
		return forbidden(op, "you can only delete your own account")
	}

	err = s.repos.Transaction(ctx, func(tx *pgrepo.Repositories) error {
		owned, err := tx.Companies.CountByOwner(ctx, id)
		if err != nil {
			return err
		}
		if owned > 0 {
			return utils.E(utils.CodeConflict, op, "user owns companies; delete them first", nil)
		}
		posted, err := tx.Jobs.CountByRecruiter(ctx, id)
		if err != nil {
			return err
		}
		if posted > 0 {
			return utils.E(utils.CodeConflict, op, "user has posted jobs; delete them first", nil)
		}
		if err := tx.Applications.DeleteByUser(ctx, id); err != nil {
			return err
		}
		if err := tx.SavedJobs.DeleteByUser(ctx, id); err != nil {
			return err
		}
		return tx.Users.Delete(ctx, id)
	})
	if err != nil {
		return storeErr(op, err, "user")
	}
	return nil
}

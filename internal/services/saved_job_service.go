package services

import (
	"context"
	"errors"
	"time"

	"github.com/yoockh/jobboard/internal/models"
	pgrepo "github.com/yoockh/jobboard/internal/repositories/postgres"
	"github.com/yoockh/jobboard/internal/utils"
)

type SavedJobService interface {
	// Save is idempotent; created reports whether a new row was written.
	Save(ctx context.Context, actorID uint, userID *uint, jobID uint) (row *models.SavedJob, created bool, err error)
	Unsave(ctx context.Context, actorID uint, userID *uint, jobID uint) error
	List(ctx context.Context, actorID uint, userID *uint, page pgrepo.Page, relations ...string) ([]models.SavedJob, int64, error)
}

type savedJobService struct {
	repos *pgrepo.Repositories
	now   func() time.Time
}

func NewSavedJobService(repos *pgrepo.Repositories) SavedJobService {
	return &savedJobService{repos: repos, now: time.Now}
}

// owner resolves the user a saved-job call acts on. Omitting user_id means
// the actor.
func (s *savedJobService) owner(ctx context.Context, op string, actorID uint, userID *uint) (uint, error) {
	actor, err := loadActor(ctx, s.repos.Users, op, actorID)
	if err != nil {
		return 0, err
	}
	if userID != nil && !isSelf(actor, *userID) {
		return 0, forbidden(op, "you can only manage your own saved jobs")
	}
	return actor.ID, nil
}

func (s *savedJobService) Save(ctx context.Context, actorID uint, userID *uint, jobID uint) (*models.SavedJob, bool, error) {
	const op = "SavedJobService.Save"

	uid, err := s.owner(ctx, op, actorID, userID)
	if err != nil {
		return nil, false, err
	}
	if jobID == 0 {
		return nil, false, invalid(op, "job_id is required")
	}
	if _, err := s.repos.Jobs.GetByID(ctx, jobID); err != nil {
		return nil, false, storeErr(op, err, "job")
	}

	row, created, err := s.repos.SavedJobs.Save(ctx, uid, jobID, s.now().UTC())
	if err != nil {
		if errors.Is(err, utils.ErrReference) {
			return nil, false, utils.E(utils.CodeNotFound, op, "job not found", err)
		}
		return nil, false, storeErr(op, err, "saved job")
	}
	return row, created, nil
}

func (s *savedJobService) Unsave(ctx context.Context, actorID uint, userID *uint, jobID uint) error {
	const op = "SavedJobService.Unsave"

	uid, err := s.owner(ctx, op, actorID, userID)
	if err != nil {
		return err
	}
	if err := s.repos.SavedJobs.Delete(ctx, uid, jobID); err != nil {
		return storeErr(op, err, "saved job")
	}
	return nil
}

func (s *savedJobService) List(ctx context.Context, actorID uint, userID *uint, page pgrepo.Page, relations ...string) ([]models.SavedJob, int64, error) {
	const op = "SavedJobService.List"

	uid, err := s.owner(ctx, op, actorID, userID)
	if err != nil {
		return nil, 0, err
	}
	rows, total, err := s.repos.SavedJobs.ListByUser(ctx, uid, page, relations...)
	if err != nil {
		return nil, 0, storeErr(op, err, "saved job")
	}
	return rows, total, nil
}

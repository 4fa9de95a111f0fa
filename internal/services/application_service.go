package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/yoockh/jobboard/internal/events"
	"github.com/yoockh/jobboard/internal/models"
	mongorepo "github.com/yoockh/jobboard/internal/repositories/mongo"
	pgrepo "github.com/yoockh/jobboard/internal/repositories/postgres"
	"github.com/yoockh/jobboard/internal/utils"
)

type ApplyInput struct {
	UserID      *uint  `json:"user_id"`
	JobID       uint   `json:"job_id"`
	ResumeURL   string `json:"resume_url"`
	CoverLetter string `json:"cover_letter_text"`
}

type ApplicationQuery struct {
	UserID *uint
	JobID  *uint
	Status string
}

type ApplicationService interface {
	Apply(ctx context.Context, actorID uint, in ApplyInput) (*models.Application, error)
	Get(ctx context.Context, actorID, id uint, relations ...string) (*models.Application, error)
	List(ctx context.Context, actorID uint, q ApplicationQuery, page pgrepo.Page, relations ...string) ([]models.Application, int64, error)
	UpdateStatus(ctx context.Context, actorID, id uint, status string) (*models.Application, error)
	Events(ctx context.Context, actorID, id uint) ([]models.ApplicationEvent, error)
}

type applicationService struct {
	repos     *pgrepo.Repositories
	audit     mongorepo.ApplicationEventRepository
	publisher events.Publisher
	log       *logrus.Logger
	now       func() time.Time
}

// NewApplicationService wires the service. audit may be nil when MongoDB is
// not configured; publisher may be nil to drop events.
func NewApplicationService(repos *pgrepo.Repositories, audit mongorepo.ApplicationEventRepository, publisher events.Publisher, log *logrus.Logger) ApplicationService {
	if publisher == nil {
		publisher = events.Noop{}
	}
	if log == nil {
		log = logrus.New()
	}
	return &applicationService{repos: repos, audit: audit, publisher: publisher, log: log, now: time.Now}
}

func (s *applicationService) Apply(ctx context.Context, actorID uint, in ApplyInput) (*models.Application, error) {
	const op = "ApplicationService.Apply"

	actor, err := loadActor(ctx, s.repos.Users, op, actorID)
	if err != nil {
		return nil, err
	}
	if in.UserID != nil && *in.UserID != actor.ID {
		return nil, forbidden(op, "you cannot apply on behalf of another user")
	}
	if !canApply(actor) {
		return nil, forbidden(op, "only job seekers can apply to jobs")
	}
	if in.JobID == 0 {
		return nil, invalid(op, "job_id is required")
	}

	now := s.now().UTC()
	app := &models.Application{
		UserID:      actor.ID,
		JobID:       in.JobID,
		Status:      models.ApplicationStatusPending,
		ResumeURL:   strings.TrimSpace(in.ResumeURL),
		CoverLetter: strings.TrimSpace(in.CoverLetter),
		AppliedAt:   now,
	}

	var job *models.Job
	err = s.repos.Transaction(ctx, func(tx *pgrepo.Repositories) error {
		j, err := tx.Jobs.GetByID(ctx, in.JobID)
		if err != nil {
			return err
		}
		if !j.AcceptingApplications(now) {
			return invalid(op, "job is not accepting applications")
		}
		exists, err := tx.Applications.Exists(ctx, actor.ID, in.JobID)
		if err != nil {
			return err
		}
		if exists {
			return utils.E(utils.CodeConflict, op, "you have already applied to this job", nil)
		}
		job = j
		return tx.Applications.Create(ctx, app)
	})
	if err != nil {
		if errors.Is(err, utils.ErrDuplicate) {
			return nil, utils.E(utils.CodeConflict, op, "you have already applied to this job", err)
		}
		if errors.Is(err, utils.ErrReference) {
			return nil, utils.E(utils.CodeNotFound, op, "job not found", err)
		}
		return nil, storeErr(op, err, "job")
	}

	s.publish(ctx, models.ApplicationEvent{
		Type:          models.EventApplicationCreated,
		ApplicationID: app.ID,
		JobID:         job.ID,
		JobTitle:      job.Title,
		ApplicantID:   app.UserID,
		RecruiterID:   job.RecruiterID,
		ActorID:       actor.ID,
		ToStatus:      app.Status,
		At:            now,
	})
	return app, nil
}

func (s *applicationService) Get(ctx context.Context, actorID, id uint, relations ...string) (*models.Application, error) {
	const op = "ApplicationService.Get"

	actor, err := loadActor(ctx, s.repos.Users, op, actorID)
	if err != nil {
		return nil, err
	}
	app, err := s.repos.Applications.GetByID(ctx, id, relations...)
	if err != nil {
		return nil, storeErr(op, err, "application")
	}
	job, err := s.repos.Jobs.GetByID(ctx, app.JobID)
	if err != nil {
		return nil, storeErr(op, err, "job")
	}
	if !canViewApplication(actor, app, job) {
		return nil, forbidden(op, "you cannot view this application")
	}
	return app, nil
}

// List: job seekers only see their own applications; recruiters only see
// applications to jobs they manage.
func (s *applicationService) List(ctx context.Context, actorID uint, q ApplicationQuery, page pgrepo.Page, relations ...string) ([]models.Application, int64, error) {
	const op = "ApplicationService.List"

	actor, err := loadActor(ctx, s.repos.Users, op, actorID)
	if err != nil {
		return nil, 0, err
	}
	if q.Status != "" && !models.IsApplicationStatus(q.Status) {
		return nil, 0, invalid(op, "unknown status")
	}

	f := pgrepo.ApplicationFilter{UserID: q.UserID, JobID: q.JobID, Status: q.Status}
	if actor.IsRecruiter {
		if q.JobID != nil {
			job, err := s.repos.Jobs.GetByID(ctx, *q.JobID)
			if err != nil {
				return nil, 0, storeErr(op, err, "job")
			}
			if !canManageJob(actor, job) {
				return nil, 0, forbidden(op, "you can only view applications to jobs you manage")
			}
		}
		f.ManagedBy = managedScope(actor)
	} else {
		if q.UserID != nil && !isSelf(actor, *q.UserID) {
			return nil, 0, forbidden(op, "you can only view your own applications")
		}
		self := actor.ID
		f.UserID = &self
	}

	rows, total, err := s.repos.Applications.List(ctx, f, page, relations...)
	if err != nil {
		return nil, 0, storeErr(op, err, "application")
	}
	return rows, total, nil
}

func (s *applicationService) UpdateStatus(ctx context.Context, actorID, id uint, status string) (*models.Application, error) {
	const op = "ApplicationService.UpdateStatus"

	status = strings.ToLower(strings.TrimSpace(status))
	if !models.IsApplicationStatus(status) {
		return nil, invalid(op, "unknown status")
	}
	actor, err := loadActor(ctx, s.repos.Users, op, actorID)
	if err != nil {
		return nil, err
	}

	var (
		app  *models.Application
		job  *models.Job
		from string
	)
	err = s.repos.Transaction(ctx, func(tx *pgrepo.Repositories) error {
		a, err := tx.Applications.GetByID(ctx, id)
		if err != nil {
			return err
		}
		j, err := tx.Jobs.GetByID(ctx, a.JobID)
		if err != nil {
			return err
		}
		if !canViewApplication(actor, a, j) {
			return forbidden(op, "you cannot modify this application")
		}
		if !canSetApplicationStatus(actor, a, j, status) {
			return forbidden(op, "you are not allowed to set status "+status)
		}
		if !models.CanTransitionApplication(a.Status, status) {
			return utils.E(utils.CodeConflict, op, "cannot change status from "+a.Status+" to "+status, nil)
		}
		if err := tx.Applications.UpdateStatus(ctx, a.ID, status); err != nil {
			return err
		}
		from = a.Status
		a.Status = status
		app, job = a, j
		return nil
	})
	if err != nil {
		return nil, storeErr(op, err, "application")
	}

	s.publish(ctx, models.ApplicationEvent{
		Type:          models.EventApplicationStatusChanged,
		ApplicationID: app.ID,
		JobID:         job.ID,
		JobTitle:      job.Title,
		ApplicantID:   app.UserID,
		RecruiterID:   job.RecruiterID,
		ActorID:       actor.ID,
		FromStatus:    from,
		ToStatus:      status,
		At:            s.now().UTC(),
	})
	return app, nil
}

func (s *applicationService) Events(ctx context.Context, actorID, id uint) ([]models.ApplicationEvent, error) {
	const op = "ApplicationService.Events"

	if _, err := s.Get(ctx, actorID, id); err != nil {
		return nil, err
	}
	if s.audit == nil {
		return nil, utils.E(utils.CodeUnavailable, op, "audit trail is not configured", nil)
	}
	rows, err := s.audit.ListByApplication(ctx, id, 0)
	if err != nil {
		return nil, utils.E(utils.CodeUnavailable, op, "failed to load audit trail", err)
	}
	return rows, nil
}

// publish runs after commit; a lost event never fails the request.
func (s *applicationService) publish(ctx context.Context, e models.ApplicationEvent) {
	if err := s.publisher.Publish(ctx, e); err != nil {
		s.log.WithError(err).WithFields(logrus.Fields{
			"event":          e.Type,
			"application_id": e.ApplicationID,
		}).Warn("failed to publish application event")
	}
}

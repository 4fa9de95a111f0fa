package services

import (
	"context"
	"strings"
	"time"

	"github.com/yoockh/jobboard/internal/models"
	pgrepo "github.com/yoockh/jobboard/internal/repositories/postgres"
	"github.com/yoockh/jobboard/internal/utils"
	"gorm.io/datatypes"
)

type JobInput struct {
	Title        string     `json:"title"`
	Description  string     `json:"description"`
	Requirements string     `json:"requirements"`
	Location     string     `json:"location"`
	JobType      string     `json:"job_type"`
	SalaryMin    *int       `json:"salary_min"`
	SalaryMax    *int       `json:"salary_max"`
	Skills       []string   `json:"skills"`
	ExpiresAt    *time.Time `json:"expires_at"`
	IsActive     *bool      `json:"is_active"`
	RecruiterID  *uint      `json:"recruiter_id"`
	CompanyID    *uint      `json:"company_id"`
}

// JobUpdate is the allow-list for PUT /jobs/{id}. A job never moves between
// recruiters or companies.
type JobUpdate struct {
	Title        *string    `json:"title"`
	Description  *string    `json:"description"`
	Requirements *string    `json:"requirements"`
	Location     *string    `json:"location"`
	JobType      *string    `json:"job_type"`
	SalaryMin    *int       `json:"salary_min"`
	SalaryMax    *int       `json:"salary_max"`
	Skills       *[]string  `json:"skills"`
	ExpiresAt    *time.Time `json:"expires_at"`
	IsActive     *bool      `json:"is_active"`
}

type JobService interface {
	Create(ctx context.Context, actorID uint, in JobInput) (*models.Job, error)
	Get(ctx context.Context, id uint, relations ...string) (*models.Job, error)
	List(ctx context.Context, f pgrepo.JobFilter, page pgrepo.Page, relations ...string) ([]models.Job, int64, error)
	Update(ctx context.Context, actorID, id uint, in JobUpdate) (*models.Job, error)
	Delete(ctx context.Context, actorID, id uint) error
}

type jobService struct {
	repos *pgrepo.Repositories
	now   func() time.Time
}

func NewJobService(repos *pgrepo.Repositories) JobService {
	return &jobService{repos: repos, now: time.Now}
}

func (s *jobService) Create(ctx context.Context, actorID uint, in JobInput) (*models.Job, error) {
	const op = "JobService.Create"

	actor, err := loadActor(ctx, s.repos.Users, op, actorID)
	if err != nil {
		return nil, err
	}
	if !actor.IsRecruiter {
		return nil, forbidden(op, "only recruiters can post jobs")
	}
	if in.RecruiterID != nil && *in.RecruiterID != actor.ID {
		return nil, forbidden(op, "recruiter_id must be your own user id")
	}

	now := s.now().UTC()
	j := &models.Job{
		Title:        strings.TrimSpace(in.Title),
		Description:  strings.TrimSpace(in.Description),
		Requirements: strings.TrimSpace(in.Requirements),
		Location:     strings.TrimSpace(in.Location),
		JobType:      strings.TrimSpace(in.JobType),
		SalaryMin:    in.SalaryMin,
		SalaryMax:    in.SalaryMax,
		Skills:       cleanSkills(in.Skills),
		ExpiresAt:    utcPtr(in.ExpiresAt),
		IsActive:     true,
		RecruiterID:  actor.ID,
		PostedAt:     now,
	}
	if in.IsActive != nil {
		j.IsActive = *in.IsActive
	}
	if j.Title == "" || j.Description == "" {
		return nil, invalid(op, "title and description are required")
	}
	if err := checkSalary(op, j.SalaryMin, j.SalaryMax); err != nil {
		return nil, err
	}
	if j.ExpiresAt != nil && !j.ExpiresAt.After(now) {
		return nil, invalid(op, "expires_at must be in the future")
	}

	switch {
	case in.CompanyID != nil:
		if _, err := s.repos.Companies.GetByID(ctx, *in.CompanyID); err != nil {
			return nil, storeErr(op, err, "company")
		}
		if !belongsToCompany(actor, *in.CompanyID) {
			return nil, forbidden(op, "you can only post jobs for your own company")
		}
		j.CompanyID = *in.CompanyID
	case actor.CompanyID != nil:
		j.CompanyID = *actor.CompanyID
	default:
		return nil, forbidden(op, "create or join a company before posting jobs")
	}

	if err := s.repos.Jobs.Create(ctx, j); err != nil {
		return nil, storeErr(op, err, "job")
	}
	return j, nil
}

func (s *jobService) Get(ctx context.Context, id uint, relations ...string) (*models.Job, error) {
	const op = "JobService.Get"

	j, err := s.repos.Jobs.GetByID(ctx, id, relations...)
	if err != nil {
		return nil, storeErr(op, err, "job")
	}
	return j, nil
}

func (s *jobService) List(ctx context.Context, f pgrepo.JobFilter, page pgrepo.Page, relations ...string) ([]models.Job, int64, error) {
	const op = "JobService.List"

	rows, total, err := s.repos.Jobs.List(ctx, f, page, relations...)
	if err != nil {
		return nil, 0, storeErr(op, err, "job")
	}
	return rows, total, nil
}

func (s *jobService) Update(ctx context.Context, actorID, id uint, in JobUpdate) (*models.Job, error) {
	const op = "JobService.Update"

	actor, err := loadActor(ctx, s.repos.Users, op, actorID)
	if err != nil {
		return nil, err
	}
	if !actor.IsRecruiter {
		return nil, forbidden(op, "only recruiters can update jobs")
	}
	j, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if !canManageJob(actor, j) {
		return nil, forbidden(op, "you can only update jobs you manage")
	}

	fields := map[string]any{}
	for col, v := range map[string]*string{"title": in.Title, "description": in.Description} {
		if v != nil {
			t := strings.TrimSpace(*v)
			if t == "" {
				return nil, invalid(op, col+" must not be empty")
			}
			fields[col] = t
		}
	}
	setTrimmed(fields, "requirements", in.Requirements)
	setTrimmed(fields, "location", in.Location)
	setTrimmed(fields, "job_type", in.JobType)

	salaryMin, salaryMax := j.SalaryMin, j.SalaryMax
	if in.SalaryMin != nil {
		salaryMin = in.SalaryMin
		fields["salary_min"] = *in.SalaryMin
	}
	if in.SalaryMax != nil {
		salaryMax = in.SalaryMax
		fields["salary_max"] = *in.SalaryMax
	}
	if err := checkSalary(op, salaryMin, salaryMax); err != nil {
		return nil, err
	}
	if in.Skills != nil {
		fields["skills"] = cleanSkills(*in.Skills)
	}
	if in.ExpiresAt != nil {
		fields["expires_at"] = in.ExpiresAt.UTC()
	}
	if in.IsActive != nil {
		fields["is_active"] = *in.IsActive
	}
	if len(fields) == 0 {
		return j, nil
	}

	if err := s.repos.Jobs.Update(ctx, id, fields); err != nil {
		return nil, storeErr(op, err, "job")
	}
	return s.Get(ctx, id)
}

// Delete is refused while pending or reviewed applications exist. Decided
// applications and saved-job rows go with the job.
func (s *jobService) Delete(ctx context.Context, actorID, id uint) error {
	const op = "JobService.Delete"

	actor, err := loadActor(ctx, s.repos.Users, op, actorID)
	if err != nil {
		return err
	}
	if !actor.IsRecruiter {
		return forbidden(op, "only recruiters can delete jobs")
	}

	err = s.repos.Transaction(ctx, func(tx *pgrepo.Repositories) error {
		j, err := tx.Jobs.GetByID(ctx, id)
		if err != nil {
			return err
		}
		if !canManageJob(actor, j) {
			return forbidden(op, "you can only delete jobs you manage")
		}
		open, err := tx.Applications.CountOpenByJob(ctx, id)
		if err != nil {
			return err
		}
		if open > 0 {
			return utils.E(utils.CodeConflict, op, "job has open applications", nil)
		}
		if err := tx.Applications.DeleteByJob(ctx, id); err != nil {
			return err
		}
		if err := tx.SavedJobs.DeleteByJob(ctx, id); err != nil {
			return err
		}
		return tx.Jobs.Delete(ctx, id)
	})
	if err != nil {
		return storeErr(op, err, "job")
	}
	return nil
}

func checkSalary(op string, lo, hi *int) error {
	if (lo != nil && *lo < 0) || (hi != nil && *hi < 0) {
		return invalid(op, "salary must not be negative")
	}
	if lo != nil && hi != nil && *lo > *hi {
		return invalid(op, "salary_min must not exceed salary_max")
	}
	return nil
}

func cleanSkills(in []string) datatypes.JSONSlice[string] {
	out := make(datatypes.JSONSlice[string], 0, len(in))
	seen := map[string]struct{}{}
	for _, s := range in {
		s = strings.TrimSpace(s)
		k := strings.ToLower(s)
		if s == "" {
			continue
		}
		if _, dup := seen[k]; dup {
			continue
		}
		seen[k] = struct{}{}
		out = append(out, s)
	}
	return out
}

func utcPtr(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	u := t.UTC()
	return &u
}

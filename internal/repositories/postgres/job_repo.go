package postgres

import (
	"context"
	"time"

	"github.com/yoockh/jobboard/internal/models"
	"gorm.io/gorm"
)

type JobFilter struct {
	Title       string
	Location    string
	JobType     string
	CompanyID   *uint
	RecruiterID *uint
	IsActive    *bool
}

type JobRepository interface {
	Create(ctx context.Context, j *models.Job) error
	GetByID(ctx context.Context, id uint, relations ...string) (*models.Job, error)
	List(ctx context.Context, f JobFilter, page Page, relations ...string) ([]models.Job, int64, error)
	Update(ctx context.Context, id uint, fields map[string]any) error
	Delete(ctx context.Context, id uint) error
	CountByCompany(ctx context.Context, companyID uint) (int64, error)
	CountByRecruiter(ctx context.Context, recruiterID uint) (int64, error)
	// DeactivateExpired flips is_active off for active jobs whose expires_at
	// is at or before now and returns how many rows changed.
	DeactivateExpired(ctx context.Context, now time.Time) (int64, error)
}

type jobRepo struct {
	db *gorm.DB
}

func NewJobRepo(db *gorm.DB) JobRepository {
	return &jobRepo{db: db}
}

func (r *jobRepo) Create(ctx context.Context, j *models.Job) error {
	return translate(r.db.WithContext(ctx).Omit("Recruiter", "Company").Create(j).Error)
}

func (r *jobRepo) GetByID(ctx context.Context, id uint, relations ...string) (*models.Job, error) {
	var j models.Job
	err := preload(r.db.WithContext(ctx), relations).Where("id = ?", id).Take(&j).Error
	if err != nil {
		return nil, translate(err)
	}
	return &j, nil
}

func (r *jobRepo) List(ctx context.Context, f JobFilter, page Page, relations ...string) ([]models.Job, int64, error) {
	scope := func() *gorm.DB {
		q := r.db.WithContext(ctx).Model(&models.Job{})
		if f.Title != "" {
			q = q.Where("LOWER(title) LIKE ?", like(f.Title))
		}
		if f.Location != "" {
			q = q.Where("LOWER(location) LIKE ?", like(f.Location))
		}
		if f.JobType != "" {
			q = q.Where("LOWER(job_type) LIKE ?", like(f.JobType))
		}
		if f.CompanyID != nil {
			q = q.Where("company_id = ?", *f.CompanyID)
		}
		if f.RecruiterID != nil {
			q = q.Where("recruiter_id = ?", *f.RecruiterID)
		}
		if f.IsActive != nil {
			q = q.Where("is_active = ?", *f.IsActive)
		}
		return q
	}

	var total int64
	if err := scope().Count(&total).Error; err != nil {
		return nil, 0, translate(err)
	}
	var rows []models.Job
	if err := preload(page.apply(scope()), relations).Order("id").Find(&rows).Error; err != nil {
		return nil, 0, translate(err)
	}
	return rows, total, nil
}

func (r *jobRepo) Update(ctx context.Context, id uint, fields map[string]any) error {
	res := r.db.WithContext(ctx).Model(&models.Job{}).Where("id = ?", id).Updates(fields)
	if res.Error != nil {
		return translate(res.Error)
	}
	if res.RowsAffected == 0 {
		if _, err := r.GetByID(ctx, id); err != nil {
			return err
		}
	}
	return nil
}

func (r *jobRepo) Delete(ctx context.Context, id uint) error {
	res := r.db.WithContext(ctx).Where("id = ?", id).Delete(&models.Job{})
	if res.Error != nil {
		return translate(res.Error)
	}
	if res.RowsAffected == 0 {
		return translate(gorm.ErrRecordNotFound)
	}
	return nil
}

func (r *jobRepo) CountByCompany(ctx context.Context, companyID uint) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&models.Job{}).Where("company_id = ?", companyID).Count(&n).Error
	return n, translate(err)
}

func (r *jobRepo) CountByRecruiter(ctx context.Context, recruiterID uint) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&models.Job{}).Where("recruiter_id = ?", recruiterID).Count(&n).Error
	return n, translate(err)
}

func (r *jobRepo) DeactivateExpired(ctx context.Context, now time.Time) (int64, error) {
	res := r.db.WithContext(ctx).
		Model(&models.Job{}).
		Where("is_active = ? AND expires_at IS NOT NULL AND expires_at <= ?", true, now).
		Updates(map[string]any{"is_active": false, "updated_at": now})
	return res.RowsAffected, translate(res.Error)
}

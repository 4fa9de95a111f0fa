package postgres

import (
	"context"

	"github.com/yoockh/jobboard/internal/models"
	"gorm.io/gorm"
)

// ApplicationScope restricts a listing to applications for jobs a recruiter
// manages: jobs they posted plus jobs of their company.
type ApplicationScope struct {
	RecruiterID uint
	CompanyID   uint
}

type ApplicationFilter struct {
	UserID    *uint
	JobID     *uint
	Status    string
	ManagedBy *ApplicationScope
}

type ApplicationRepository interface {
	Create(ctx context.Context, a *models.Application) error
	GetByID(ctx context.Context, id uint, relations ...string) (*models.Application, error)
	Exists(ctx context.Context, userID, jobID uint) (bool, error)
	List(ctx context.Context, f ApplicationFilter, page Page, relations ...string) ([]models.Application, int64, error)
	UpdateStatus(ctx context.Context, id uint, status string) error
	CountOpenByJob(ctx context.Context, jobID uint) (int64, error)
	DeleteByJob(ctx context.Context, jobID uint) error
	DeleteByUser(ctx context.Context, userID uint) error
}

type applicationRepo struct {
	db *gorm.DB
}

func NewApplicationRepo(db *gorm.DB) ApplicationRepository {
	return &applicationRepo{db: db}
}

func (r *applicationRepo) Create(ctx context.Context, a *models.Application) error {
	return translate(r.db.WithContext(ctx).Omit("User", "Job").Create(a).Error)
}

func (r *applicationRepo) GetByID(ctx context.Context, id uint, relations ...string) (*models.Application, error) {
	var a models.Application
	err := preload(r.db.WithContext(ctx), relations).Where("id = ?", id).Take(&a).Error
	if err != nil {
		return nil, translate(err)
	}
	return &a, nil
}

func (r *applicationRepo) Exists(ctx context.Context, userID, jobID uint) (bool, error) {
	var n int64
	err := r.db.WithContext(ctx).
		Model(&models.Application{}).
		Where("user_id = ? AND job_id = ?", userID, jobID).
		Count(&n).Error
	return n > 0, translate(err)
}

func (r *applicationRepo) List(ctx context.Context, f ApplicationFilter, page Page, relations ...string) ([]models.Application, int64, error) {
	scope := func() *gorm.DB {
		q := r.db.WithContext(ctx).Model(&models.Application{})
		if f.UserID != nil {
			q = q.Where("user_id = ?", *f.UserID)
		}
		if f.JobID != nil {
			q = q.Where("job_id = ?", *f.JobID)
		}
		if f.Status != "" {
			q = q.Where("status = ?", f.Status)
		}
		if m := f.ManagedBy; m != nil {
			managed := r.db.Model(&models.Job{}).
				Select("id").
				Where("recruiter_id = ? OR company_id = ?", m.RecruiterID, m.CompanyID)
			q = q.Where("job_id IN (?)", managed)
		}
		return q
	}

	var total int64
	if err := scope().Count(&total).Error; err != nil {
		return nil, 0, translate(err)
	}
	var rows []models.Application
	if err := preload(page.apply(scope()), relations).Order("id").Find(&rows).Error; err != nil {
		return nil, 0, translate(err)
	}
	return rows, total, nil
}

func (r *applicationRepo) UpdateStatus(ctx context.Context, id uint, status string) error {
	res := r.db.WithContext(ctx).Model(&models.Application{}).Where("id = ?", id).Update("status", status)
	if res.Error != nil {
		return translate(res.Error)
	}
	if res.RowsAffected == 0 {
		return translate(gorm.ErrRecordNotFound)
	}
	return nil
}

func (r *applicationRepo) CountOpenByJob(ctx context.Context, jobID uint) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).
		Model(&models.Application{}).
		Where("job_id = ? AND status IN ?", jobID, models.OpenApplicationStatuses).
		Count(&n).Error
	return n, translate(err)
}

func (r *applicationRepo) DeleteByJob(ctx context.Context, jobID uint) error {
	return translate(r.db.WithContext(ctx).Where("job_id = ?", jobID).Delete(&models.Application{}).Error)
}

func (r *applicationRepo) DeleteByUser(ctx context.Context, userID uint) error {
	return translate(r.db.WithContext(ctx).Where("user_id = ?", userID).Delete(&models.Application{}).Error)
}

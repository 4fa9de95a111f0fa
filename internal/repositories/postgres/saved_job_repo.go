package postgres

import (
	"context"
	"time"

	"github.com/yoockh/jobboard/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type SavedJobRepository interface {
	// Save inserts the (user, job) pair unless it already exists. created is
	// false when the existing row is returned.
	Save(ctx context.Context, userID, jobID uint, at time.Time) (row *models.SavedJob, created bool, err error)
	// Delete removes the pair; a missing row is not an error.
	Delete(ctx context.Context, userID, jobID uint) error
	ListByUser(ctx context.Context, userID uint, page Page, relations ...string) ([]models.SavedJob, int64, error)
	DeleteByJob(ctx context.Context, jobID uint) error
	DeleteByUser(ctx context.Context, userID uint) error
}

type savedJobRepo struct {
	db *gorm.DB
}

func NewSavedJobRepo(db *gorm.DB) SavedJobRepository {
	return &savedJobRepo{db: db}
}

func (r *savedJobRepo) Save(ctx context.Context, userID, jobID uint, at time.Time) (*models.SavedJob, bool, error) {
	row := models.SavedJob{UserID: userID, JobID: jobID, SavedAt: at}
	res := r.db.WithContext(ctx).
		Omit("Job", "User").
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "user_id"}, {Name: "job_id"}},
			DoNothing: true,
		}).
		Create(&row)
	if res.Error != nil {
		return nil, false, translate(res.Error)
	}
	if res.RowsAffected == 1 {
		return &row, true, nil
	}

	var existing models.SavedJob
	err := r.db.WithContext(ctx).Where("user_id = ? AND job_id = ?", userID, jobID).Take(&existing).Error
	if err != nil {
		return nil, false, translate(err)
	}
	return &existing, false, nil
}

func (r *savedJobRepo) Delete(ctx context.Context, userID, jobID uint) error {
	return translate(r.db.WithContext(ctx).
		Where("user_id = ? AND job_id = ?", userID, jobID).
		Delete(&models.SavedJob{}).Error)
}

func (r *savedJobRepo) ListByUser(ctx context.Context, userID uint, page Page, relations ...string) ([]models.SavedJob, int64, error) {
	scope := func() *gorm.DB {
		return r.db.WithContext(ctx).Model(&models.SavedJob{}).Where("user_id = ?", userID)
	}
	var total int64
	if err := scope().Count(&total).Error; err != nil {
		return nil, 0, translate(err)
	}
	var rows []models.SavedJob
	if err := preload(page.apply(scope()), relations).Order("id").Find(&rows).Error; err != nil {
		return nil, 0, translate(err)
	}
	return rows, total, nil
}

func (r *savedJobRepo) DeleteByJob(ctx context.Context, jobID uint) error {
	return translate(r.db.WithContext(ctx).Where("job_id = ?", jobID).Delete(&models.SavedJob{}).Error)
}

func (r *savedJobRepo) DeleteByUser(ctx context.Context, userID uint) error {
	return translate(r.db.WithContext(ctx).Where("user_id = ?", userID).Delete(&models.SavedJob{}).Error)
}

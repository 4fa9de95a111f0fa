package postgres

import (
	"context"

	"github.com/yoockh/jobboard/internal/models"
	"gorm.io/gorm"
)

// Page is a limit/offset window. A zero Limit means no limit.
type Page struct {
	Limit  int
	Offset int
}

func (p Page) apply(q *gorm.DB) *gorm.DB {
	if p.Limit > 0 {
		q = q.Limit(p.Limit)
	}
	if p.Offset > 0 {
		q = q.Offset(p.Offset)
	}
	return q
}

// Repositories bundles every relational repository over one *gorm.DB, which is
// either the pool or an open transaction.
type Repositories struct {
	db *gorm.DB

	Users        UserRepository
	Companies    CompanyRepository
	Jobs         JobRepository
	Applications ApplicationRepository
	SavedJobs    SavedJobRepository
}

func New(db *gorm.DB) *Repositories {
	return &Repositories{
		db:           db,
		Users:        NewUserRepo(db),
		Companies:    NewCompanyRepo(db),
		Jobs:         NewJobRepo(db),
		Applications: NewApplicationRepo(db),
		SavedJobs:    NewSavedJobRepo(db),
	}
}

// Transaction runs fn with repositories bound to a single transaction. Any
// error returned by fn rolls everything back.
func (r *Repositories) Transaction(ctx context.Context, fn func(tx *Repositories) error) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(New(tx))
	})
}

// Migrate creates or updates the relational schema.
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&models.Company{},
		&models.User{},
		&models.Job{},
		&models.Application{},
		&models.SavedJob{},
	)
}

func preload(q *gorm.DB, relations []string) *gorm.DB {
	for _, rel := range relations {
		q = q.Preload(rel)
	}
	return q
}

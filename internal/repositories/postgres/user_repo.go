package postgres

import (
	"context"

	"github.com/yoockh/jobboard/internal/models"
	"gorm.io/gorm"
)

type UserFilter struct {
	Username    string
	Email       string
	IsRecruiter *bool
	CompanyID   *uint
}

type UserRepository interface {
	Create(ctx context.Context, u *models.User) error
	GetByID(ctx context.Context, id uint, relations ...string) (*models.User, error)
	// GetByLogin resolves a user by exact email or username.
	GetByLogin(ctx context.Context, identifier string) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	List(ctx context.Context, f UserFilter, page Page) ([]models.User, int64, error)
	Update(ctx context.Context, id uint, fields map[string]any) error
	Delete(ctx context.Context, id uint) error
	// AttachCompany sets company_id on a recruiter that has none. It reports
	// false when the user is missing, not a recruiter or already attached.
	AttachCompany(ctx context.Context, userID, companyID uint) (bool, error)
	// LeaveCompany clears company_id only if the user belongs to companyID.
	LeaveCompany(ctx context.Context, userID, companyID uint) (bool, error)
	// DetachCompany clears company_id for every member of the company.
	DetachCompany(ctx context.Context, companyID uint) error
}

type userRepo struct {
	db *gorm.DB
}

func NewUserRepo(db *gorm.DB) UserRepository {
	return &userRepo{db: db}
}

func (r *userRepo) Create(ctx context.Context, u *models.User) error {
	return translate(r.db.WithContext(ctx).Omit("Company").Create(u).Error)
}

func (r *userRepo) GetByID(ctx context.Context, id uint, relations ...string) (*models.User, error) {
	var u models.User
	err := preload(r.db.WithContext(ctx), relations).Where("id = ?", id).Take(&u).Error
	if err != nil {
		return nil, translate(err)
	}
	return &u, nil
}

func (r *userRepo) GetByLogin(ctx context.Context, identifier string) (*models.User, error) {
	var u models.User
	err := r.db.WithContext(ctx).
		Where("email = ? OR username = ?", identifier, identifier).
		Order("id").
		Take(&u).Error
	if err != nil {
		return nil, translate(err)
	}
	return &u, nil
}

func (r *userRepo) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	var u models.User
	if err := r.db.WithContext(ctx).Where("email = ?", email).Take(&u).Error; err != nil {
		return nil, translate(err)
	}
	return &u, nil
}

func (r *userRepo) List(ctx context.Context, f UserFilter, page Page) ([]models.User, int64, error) {
	scope := func() *gorm.DB {
		q := r.db.WithContext(ctx).Model(&models.User{})
		if f.Username != "" {
			q = q.Where("LOWER(username) LIKE ?", like(f.Username))
		}
		if f.Email != "" {
			q = q.Where("LOWER(email) LIKE ?", like(f.Email))
		}
		if f.IsRecruiter != nil {
			q = q.Where("is_recruiter = ?", *f.IsRecruiter)
		}
		if f.CompanyID != nil {
			q = q.Where("company_id = ?", *f.CompanyID)
		}
		return q
	}

	var total int64
	if err := scope().Count(&total).Error; err != nil {
		return nil, 0, translate(err)
	}
	var rows []models.User
	if err := page.apply(scope()).Order("id").Find(&rows).Error; err != nil {
		return nil, 0, translate(err)
	}
	return rows, total, nil
}

func (r *userRepo) Update(ctx context.Context, id uint, fields map[string]any) error {
	res := r.db.WithContext(ctx).Model(&models.User{}).Where("id = ?", id).Updates(fields)
	if res.Error != nil {
		return translate(res.Error)
	}
	if res.RowsAffected == 0 {
		return r.exists(ctx, id)
	}
	return nil
}

func (r *userRepo) Delete(ctx context.Context, id uint) error {
	res := r.db.WithContext(ctx).Where("id = ?", id).Delete(&models.User{})
	if res.Error != nil {
		return translate(res.Error)
	}
	if res.RowsAffected == 0 {
		return translate(gorm.ErrRecordNotFound)
	}
	return nil
}

func (r *userRepo) AttachCompany(ctx context.Context, userID, companyID uint) (bool, error) {
	res := r.db.WithContext(ctx).
		Model(&models.User{}).
		Where("id = ? AND is_recruiter = ? AND company_id IS NULL", userID, true).
		Update("company_id", companyID)
	if res.Error != nil {
		return false, translate(res.Error)
	}
	return res.RowsAffected == 1, nil
}

func (r *userRepo) LeaveCompany(ctx context.Context, userID, companyID uint) (bool, error) {
	res := r.db.WithContext(ctx).
		Model(&models.User{}).
		Where("id = ? AND company_id = ?", userID, companyID).
		Update("company_id", nil)
	if res.Error != nil {
		return false, translate(res.Error)
	}
	return res.RowsAffected == 1, nil
}

func (r *userRepo) DetachCompany(ctx context.Context, companyID uint) error {
	return translate(r.db.WithContext(ctx).
		Model(&models.User{}).
		Where("company_id = ?", companyID).
		Update("company_id", nil).Error)
}

// exists distinguishes "no such row" from "nothing changed" after an update.
func (r *userRepo) exists(ctx context.Context, id uint) error {
	var n int64
	if err := r.db.WithContext(ctx).Model(&models.User{}).Where("id = ?", id).Count(&n).Error; err != nil {
		return translate(err)
	}
	if n == 0 {
		return translate(gorm.ErrRecordNotFound)
	}
	return nil
}

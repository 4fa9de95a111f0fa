package postgres

import (
	"context"

	"github.com/yoockh/jobboard/internal/models"
	"gorm.io/gorm"
)

type CompanyFilter struct {
	Name     string
	Industry string
	Location string
	OwnerID  *uint
}

type CompanyRepository interface {
	Create(ctx context.Context, c *models.Company) error
	GetByID(ctx context.Context, id uint) (*models.Company, error)
	List(ctx context.Context, f CompanyFilter, page Page) ([]models.Company, int64, error)
	Update(ctx context.Context, id uint, fields map[string]any) error
	Delete(ctx context.Context, id uint) error
	CountByOwner(ctx context.Context, ownerID uint) (int64, error)
}

type companyRepo struct {
	db *gorm.DB
}

func NewCompanyRepo(db *gorm.DB) CompanyRepository {
	return &companyRepo{db: db}
}

func (r *companyRepo) Create(ctx context.Context, c *models.Company) error {
	return translate(r.db.WithContext(ctx).Create(c).Error)
}

func (r *companyRepo) GetByID(ctx context.Context, id uint) (*models.Company, error) {
	var c models.Company
	if err := r.db.WithContext(ctx).Where("id = ?", id).Take(&c).Error; err != nil {
		return nil, translate(err)
	}
	return &c, nil
}

func (r *companyRepo) List(ctx context.Context, f CompanyFilter, page Page) ([]models.Company, int64, error) {
	scope := func() *gorm.DB {
		q := r.db.WithContext(ctx).Model(&models.Company{})
		if f.Name != "" {
			q = q.Where("LOWER(name) LIKE ?", like(f.Name))
		}
		if f.Industry != "" {
			q = q.Where("LOWER(industry) LIKE ?", like(f.Industry))
		}
		if f.Location != "" {
			q = q.Where("LOWER(location) LIKE ?", like(f.Location))
		}
		if f.OwnerID != nil {
			q = q.Where("owner_id = ?", *f.OwnerID)
		}
		return q
	}

	var total int64
	if err := scope().Count(&total).Error; err != nil {
		return nil, 0, translate(err)
	}
	var rows []models.Company
	if err := page.apply(scope()).Order("id").Find(&rows).Error; err != nil {
		return nil, 0, translate(err)
	}
	return rows, total, nil
}

func (r *companyRepo) Update(ctx context.Context, id uint, fields map[string]any) error {
	res := r.db.WithContext(ctx).Model(&models.Company{}).Where("id = ?", id).Updates(fields)
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

func (r *companyRepo) Delete(ctx context.Context, id uint) error {
	res := r.db.WithContext(ctx).Where("id = ?", id).Delete(&models.Company{})
	if res.Error != nil {
		return translate(res.Error)
	}
	if res.RowsAffected == 0 {
		return translate(gorm.ErrRecordNotFound)
	}
	return nil
}

func (r *companyRepo) CountByOwner(ctx context.Context, ownerID uint) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&models.Company{}).Where("owner_id = ?", ownerID).Count(&n).Error
	return n, translate(err)
}

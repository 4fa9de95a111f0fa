package services

import (
	"context"
	"errors"
	"strings"

	"github.com/yoockh/jobboard/internal/models"
	pgrepo "github.com/yoockh/jobboard/internal/repositories/postgres"
	"github.com/yoockh/jobboard/internal/utils"
)

type CompanyInput struct {
	Name         string `json:"name"`
	Industry     string `json:"industry"`
	Description  string `json:"description"`
	Website      string `json:"website"`
	ContactEmail string `json:"contact_email"`
	Location     string `json:"location"`
}

type CompanyUpdate struct {
	Name         *string `json:"name"`
	Industry     *string `json:"industry"`
	Description  *string `json:"description"`
	Website      *string `json:"website"`
	ContactEmail *string `json:"contact_email"`
	Location     *string `json:"location"`
}

type CompanyService interface {
	Create(ctx context.Context, actorID uint, in CompanyInput) (*models.Company, error)
	Get(ctx context.Context, id uint) (*models.Company, error)
	List(ctx context.Context, f pgrepo.CompanyFilter, page pgrepo.Page) ([]models.Company, int64, error)
	Update(ctx context.Context, actorID, id uint, in CompanyUpdate) (*models.Company, error)
	Delete(ctx context.Context, actorID, id uint) error
	// AddRecruiter lets the owner attach a recruiter that has no company yet.
	AddRecruiter(ctx context.Context, actorID, companyID, userID uint) (*models.User, error)
	RemoveRecruiter(ctx context.Context, actorID, companyID, userID uint) error
}

type companyService struct {
	repos *pgrepo.Repositories
}

func NewCompanyService(repos *pgrepo.Repositories) CompanyService {
	return &companyService{repos: repos}
}

// Create makes the actor the owner and attaches them to the new company.
func (s *companyService) Create(ctx context.Context, actorID uint, in CompanyInput) (*models.Company, error) {
	const op = "CompanyService.Create"

	actor, err := loadActor(ctx, s.repos.Users, op, actorID)
	if err != nil {
		return nil, err
	}
	if !actor.IsRecruiter {
		return nil, forbidden(op, "only recruiters can create companies")
	}
	if !canOwnCompany(actor) {
		return nil, utils.E(utils.CodeConflict, op, "recruiter already belongs to a company", nil)
	}

	c := &models.Company{
		Name:         strings.TrimSpace(in.Name),
		Industry:     strings.TrimSpace(in.Industry),
		Description:  strings.TrimSpace(in.Description),
		Website:      strings.TrimSpace(in.Website),
		ContactEmail: normalizeEmail(in.ContactEmail),
		Location:     strings.TrimSpace(in.Location),
		OwnerID:      actor.ID,
	}
	if c.Name == "" {
		return nil, invalid(op, "name is required")
	}
	if c.ContactEmail != "" && !validEmail(c.ContactEmail) {
		return nil, invalid(op, "contact_email is not a valid email")
	}

	err = s.repos.Transaction(ctx, func(tx *pgrepo.Repositories) error {
		if err := tx.Companies.Create(ctx, c); err != nil {
			return err
		}
		attached, err := tx.Users.AttachCompany(ctx, actor.ID, c.ID)
		if err != nil {
			return err
		}
		if !attached {
			return utils.E(utils.CodeConflict, op, "recruiter already belongs to a company", nil)
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, utils.ErrDuplicate) {
			return nil, utils.E(utils.CodeConflict, op, "company name already exists", err)
		}
		return nil, storeErr(op, err, "company")
	}
	return c, nil
}

func (s *companyService) Get(ctx context.Context, id uint) (*models.Company, error) {
	const op = "CompanyService.Get"

	c, err := s.repos.Companies.GetByID(ctx, id)
	if err != nil {
		return nil, storeErr(op, err, "company")
	}
	return c, nil
}

func (s *companyService) List(ctx context.Context, f pgrepo.CompanyFilter, page pgrepo.Page) ([]models.Company, int64, error) {
	const op = "CompanyService.List"

	rows, total, err := s.repos.Companies.List(ctx, f, page)
	if err != nil {
		return nil, 0, storeErr(op, err, "company")
	}
	return rows, total, nil
}

func (s *companyService) Update(ctx context.Context, actorID, id uint, in CompanyUpdate) (*models.Company, error) {
	const op = "CompanyService.Update"

	actor, err := loadActor(ctx, s.repos.Users, op, actorID)
	if err != nil {
		return nil, err
	}
	c, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if !canManageCompany(actor, c) {
		return nil, forbidden(op, "only the company owner can update it")
	}

	fields := map[string]any{}
	if in.Name != nil {
		v := strings.TrimSpace(*in.Name)
		if v == "" {
			return nil, invalid(op, "name must not be empty")
		}
		fields["name"] = v
	}
	if in.ContactEmail != nil {
		v := normalizeEmail(*in.ContactEmail)
		if v != "" && !validEmail(v) {
			return nil, invalid(op, "contact_email is not a valid email")
		}
		fields["contact_email"] = v
	}
	setTrimmed(fields, "industry", in.Industry)
	setTrimmed(fields, "description", in.Description)
	setTrimmed(fields, "website", in.Website)
	setTrimmed(fields, "location", in.Location)
	if len(fields) == 0 {
		return c, nil
	}

	if err := s.repos.Companies.Update(ctx, id, fields); err != nil {
		if errors.Is(err, utils.ErrDuplicate) {
			return nil, utils.E(utils.CodeConflict, op, "company name already exists", err)
		}
		return nil, storeErr(op, err, "company")
	}
	return s.Get(ctx, id)
}

// Delete refuses while jobs reference the company and detaches its recruiters.
func (s *companyService) Delete(ctx context.Context, actorID, id uint) error {
	const op = "CompanyService.Delete"

	actor, err := loadActor(ctx, s.repos.Users, op, actorID)
	if err != nil {
		return err
	}
	c, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	if !canManageCompany(actor, c) {
		return forbidden(op, "only the company owner can delete it")
	}

	err = s.repos.Transaction(ctx, func(tx *pgrepo.Repositories) error {
		jobs, err := tx.Jobs.CountByCompany(ctx, id)
		if err != nil {
			return err
		}
		if jobs > 0 {
			return utils.E(utils.CodeConflict, op, "company has jobs; delete them first", nil)
		}
		if err := tx.Users.DetachCompany(ctx, id); err != nil {
			return err
		}
		return tx.Companies.Delete(ctx, id)
	})
	if err != nil {
		if errors.Is(err, utils.ErrReference) {
			return utils.E(utils.CodeConflict, op, "company has dependents", err)
		}
		return storeErr(op, err, "company")
	}
	return nil
}

func (s *companyService) AddRecruiter(ctx context.Context, actorID, companyID, userID uint) (*models.User, error) {
	const op = "CompanyService.AddRecruiter"

	if _, err := s.ownedCompany(ctx, op, actorID, companyID); err != nil {
		return nil, err
	}
	u, err := s.repos.Users.GetByID(ctx, userID)
	if err != nil {
		return nil, storeErr(op, err, "user")
	}
	if !u.IsRecruiter {
		return nil, invalid(op, "only recruiters can join a company")
	}

	attached, err := s.repos.Users.AttachCompany(ctx, userID, companyID)
	if err != nil {
		return nil, storeErr(op, err, "user")
	}
	if !attached {
		return nil, utils.E(utils.CodeConflict, op, "recruiter already belongs to a company", nil)
	}
	u, err = s.repos.Users.GetByID(ctx, userID, "Company")
	if err != nil {
		return nil, storeErr(op, err, "user")
	}
	return u, nil
}

// RemoveRecruiter detaches a member. Jobs they posted stay theirs to manage.
func (s *companyService) RemoveRecruiter(ctx context.Context, actorID, companyID, userID uint) error {
	const op = "CompanyService.RemoveRecruiter"

	c, err := s.ownedCompany(ctx, op, actorID, companyID)
	if err != nil {
		return err
	}
	if userID == c.OwnerID {
		return utils.E(utils.CodeConflict, op, "the owner cannot leave the company", nil)
	}
	left, err := s.repos.Users.LeaveCompany(ctx, userID, companyID)
	if err != nil {
		return storeErr(op, err, "user")
	}
	if !left {
		return utils.E(utils.CodeNotFound, op, "recruiter is not a member of this company", nil)
	}
	return nil
}

func (s *companyService) ownedCompany(ctx context.Context, op string, actorID, companyID uint) (*models.Company, error) {
	actor, err := loadActor(ctx, s.repos.Users, op, actorID)
	if err != nil {
		return nil, err
	}
	c, err := s.repos.Companies.GetByID(ctx, companyID)
	if err != nil {
		return nil, storeErr(op, err, "company")
	}
	if !canManageCompany(actor, c) {
		return nil, forbidden(op, "only the company owner can manage its recruiters")
	}
	return c, nil
}

func setTrimmed(fields map[string]any, col string, v *string) {
	if v != nil {
		fields[col] = strings.TrimSpace(*v)
	}
}

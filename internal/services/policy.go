package services

import (
	"github.com/yoockh/jobboard/internal/models"
	pgrepo "github.com/yoockh/jobboard/internal/repositories/postgres"
)

// Authorization rules. Every rule takes the live user row, never token claims.

func isSelf(actor *models.User, userID uint) bool {
	return actor != nil && actor.ID == userID
}

func canOwnCompany(actor *models.User) bool {
	return actor.IsRecruiter && actor.CompanyID == nil
}

func canManageCompany(actor *models.User, c *models.Company) bool {
	return actor.IsRecruiter && c.OwnerID == actor.ID
}

func belongsToCompany(actor *models.User, companyID uint) bool {
	return actor.IsRecruiter && actor.CompanyID != nil && *actor.CompanyID == companyID
}

// canManageJob: the recruiter who posted the job or any recruiter of its company.
func canManageJob(actor *models.User, j *models.Job) bool {
	if !actor.IsRecruiter {
		return false
	}
	return j.RecruiterID == actor.ID || belongsToCompany(actor, j.CompanyID)
}

func canApply(actor *models.User) bool {
	return !actor.IsRecruiter
}

func canViewApplication(actor *models.User, a *models.Application, j *models.Job) bool {
	return a.UserID == actor.ID || canManageJob(actor, j)
}

// canSetApplicationStatus: applicants may only withdraw; managing recruiters
// make every other decision.
func canSetApplicationStatus(actor *models.User, a *models.Application, j *models.Job, status string) bool {
	if status == models.ApplicationStatusWithdrawn {
		return a.UserID == actor.ID
	}
	return canManageJob(actor, j)
}

// managedScope limits application listings to the jobs a recruiter manages.
func managedScope(actor *models.User) *pgrepo.ApplicationScope {
	s := &pgrepo.ApplicationScope{RecruiterID: actor.ID}
	if actor.CompanyID != nil {
		s.CompanyID = *actor.CompanyID
	}
	return s
}

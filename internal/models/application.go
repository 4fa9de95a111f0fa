package models

import "time"

const (
	ApplicationStatusPending   = "pending"
	ApplicationStatusReviewed  = "reviewed"
	ApplicationStatusAccepted  = "accepted"
	ApplicationStatusRejected  = "rejected"
	ApplicationStatusWithdrawn = "withdrawn"
)

// OpenApplicationStatuses are the statuses that still await a decision.
var OpenApplicationStatuses = []string{ApplicationStatusPending, ApplicationStatusReviewed}

// applicationTransitions lists the statuses reachable from each status.
// accepted, rejected and withdrawn are terminal.
var applicationTransitions = map[string][]string{
	ApplicationStatusPending: {
		ApplicationStatusReviewed, ApplicationStatusAccepted,
		ApplicationStatusRejected, ApplicationStatusWithdrawn,
	},
	ApplicationStatusReviewed: {
		ApplicationStatusAccepted, ApplicationStatusRejected, ApplicationStatusWithdrawn,
	},
}

func IsApplicationStatus(s string) bool {
	switch s {
	case ApplicationStatusPending, ApplicationStatusReviewed, ApplicationStatusAccepted,
		ApplicationStatusRejected, ApplicationStatusWithdrawn:
		return true
	}
	return false
}

func CanTransitionApplication(from, to string) bool {
	for _, s := range applicationTransitions[from] {
		if s == to {
			return true
		}
	}
	return false
}

type Application struct {
	ID     uint  `gorm:"column:id;primaryKey" json:"id"`
	UserID uint  `gorm:"column:user_id;not null;uniqueIndex:idx_applications_user_job" json:"user_id"`
	User   *User `gorm:"foreignKey:UserID" json:"applicant,omitempty"`
	JobID  uint  `gorm:"column:job_id;not null;uniqueIndex:idx_applications_user_job" json:"job_id"`
	Job    *Job  `gorm:"foreignKey:JobID" json:"job,omitempty"`

	Status      string `gorm:"column:status;type:varchar(20);not null;index" json:"status"`
	ResumeURL   string `gorm:"column:resume_url;type:varchar(512)" json:"resume_url"`
	CoverLetter string `gorm:"column:cover_letter;type:text" json:"cover_letter"`

	AppliedAt time.Time `gorm:"column:applied_at;not null" json:"applied_at"`
	UpdatedAt time.Time `gorm:"column:updated_at" json:"updated_at"`
}

func (Application) TableName() string { return "applications" }

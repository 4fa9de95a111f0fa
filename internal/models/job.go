package models

import (
	"time"

	"gorm.io/datatypes"
)

type Job struct {
	ID           uint   `gorm:"column:id;primaryKey" json:"id"`
	Title        string `gorm:"column:title;type:varchar(128);not null" json:"title"`
	Description  string `gorm:"column:description;type:text;not null" json:"description"`
	Requirements string `gorm:"column:requirements;type:text" json:"requirements"`
	Location     string `gorm:"column:location;type:varchar(128)" json:"location"`
	JobType      string `gorm:"column:job_type;type:varchar(50)" json:"job_type"`

	SalaryMin *int `gorm:"column:salary_min" json:"salary_min"`
	SalaryMax *int `gorm:"column:salary_max" json:"salary_max"`

	Skills datatypes.JSONSlice[string] `gorm:"column:skills" json:"skills"`

	PostedAt  time.Time  `gorm:"column:posted_at;not null" json:"posted_at"`
	ExpiresAt *time.Time `gorm:"column:expires_at;index" json:"expires_at"`
	IsActive  bool       `gorm:"column:is_active;not null;index" json:"is_active"`

	RecruiterID uint     `gorm:"column:recruiter_id;not null;index" json:"recruiter_id"`
	Recruiter   *User    `gorm:"foreignKey:RecruiterID" json:"recruiter,omitempty"`
	CompanyID   uint     `gorm:"column:company_id;not null;index" json:"company_id"`
	Company     *Company `gorm:"foreignKey:CompanyID" json:"company,omitempty"`

	UpdatedAt time.Time `gorm:"column:updated_at" json:"updated_at"`
}

func (Job) TableName() string { return "jobs" }

// AcceptingApplications reports whether the job is active and not past expiry.
func (j *Job) AcceptingApplications(now time.Time) bool {
	if !j.IsActive {
		return false
	}
	return j.ExpiresAt == nil || now.Before(*j.ExpiresAt)
}

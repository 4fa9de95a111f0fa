package models

import "time"

const (
	RoleJobSeeker = "job_seeker"
	RoleRecruiter = "recruiter"
)

type User struct {
	ID           uint   `gorm:"column:id;primaryKey" json:"id"`
	Username     string `gorm:"column:username;type:varchar(64);uniqueIndex;not null" json:"username"`
	Email        string `gorm:"column:email;type:varchar(120);uniqueIndex;not null" json:"email"`
	PasswordHash string `gorm:"column:password_hash;type:varchar(255);not null" json:"-"`
	FirstName    string `gorm:"column:first_name;type:varchar(80)" json:"first_name"`
	LastName     string `gorm:"column:last_name;type:varchar(80)" json:"last_name"`

	IsRecruiter bool     `gorm:"column:is_recruiter;not null" json:"is_recruiter"`
	CompanyID   *uint    `gorm:"column:company_id;index" json:"company_id"` // recruiters only
	Company     *Company `gorm:"foreignKey:CompanyID;constraint:OnDelete:SET NULL" json:"company,omitempty"`

	CreatedAt time.Time `gorm:"column:created_at" json:"created_at"`
	UpdatedAt time.Time `gorm:"column:updated_at" json:"updated_at"`
}

func (User) TableName() string { return "users" }

// Role is derived from the stored flag; it is never read from token claims.
func (u *User) Role() string {
	if u.IsRecruiter {
		return RoleRecruiter
	}
	return RoleJobSeeker
}

package models

import "time"

type Company struct {
	ID           uint   `gorm:"column:id;primaryKey" json:"id"`
	Name         string `gorm:"column:name;type:varchar(128);uniqueIndex;not null" json:"name"`
	Industry     string `gorm:"column:industry;type:varchar(64)" json:"industry"`
	Description  string `gorm:"column:description;type:text" json:"description"`
	Website      string `gorm:"column:website;type:varchar(128)" json:"website"`
	ContactEmail string `gorm:"column:contact_email;type:varchar(120)" json:"contact_email"`
	Location     string `gorm:"column:location;type:varchar(128)" json:"location"`

	// OwnerID is the recruiter that created the company. Plain column, the
	// users table already references companies.
	OwnerID uint `gorm:"column:owner_id;not null;index" json:"owner_id"`

	CreatedAt time.Time `gorm:"column:created_at" json:"created_at"`
	UpdatedAt time.Time `gorm:"column:updated_at" json:"updated_at"`
}

func (Company) TableName() string { return "companies" }

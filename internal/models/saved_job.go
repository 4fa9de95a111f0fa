package models

import "time"

type SavedJob struct {
	ID      uint      `gorm:"column:id;primaryKey" json:"id"`
	UserID  uint      `gorm:"column:user_id;not null;uniqueIndex:idx_saved_jobs_user_job" json:"user_id"`
	JobID   uint      `gorm:"column:job_id;not null;uniqueIndex:idx_saved_jobs_user_job" json:"job_id"`
	Job     *Job      `gorm:"foreignKey:JobID" json:"job,omitempty"`
	User    *User     `gorm:"foreignKey:UserID" json:"-"`
	SavedAt time.Time `gorm:"column:saved_at;not null" json:"saved_at"`
}

func (SavedJob) TableName() string { return "saved_jobs" }

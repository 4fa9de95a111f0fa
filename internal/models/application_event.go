package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

const (
	EventApplicationCreated       = "application.created"
	EventApplicationStatusChanged = "application.status_changed"
)

// ApplicationEvent is one entry of an application's audit trail (MongoDB).
type ApplicationEvent struct {
	ID            primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Type          string             `bson:"type" json:"type"`
	ApplicationID uint               `bson:"application_id" json:"application_id"`
	JobID         uint               `bson:"job_id" json:"job_id"`
	JobTitle      string             `bson:"job_title,omitempty" json:"job_title,omitempty"`
	ApplicantID   uint               `bson:"applicant_id" json:"applicant_id"`
	RecruiterID   uint               `bson:"recruiter_id" json:"recruiter_id"`
	ActorID       uint               `bson:"actor_id" json:"actor_id"`

	FromStatus string `bson:"from_status,omitempty" json:"from_status,omitempty"`
	ToStatus   string `bson:"to_status" json:"to_status"`

	At time.Time `bson:"at" json:"at"`
}

// Recipients returns the users who should be notified about the event, never
// the actor itself.
func (e ApplicationEvent) Recipients() []uint {
	var out []uint
	for _, id := range []uint{e.ApplicantID, e.RecruiterID} {
		if id != 0 && id != e.ActorID {
			out = append(out, id)
		}
	}
	return out
}

package config

import (
	"context"
	"time"

	mongorepo "github.com/yoockh/jobboard/internal/repositories/mongo"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

func EnsureMongoIndexes(ctx context.Context, db *mongo.Database) error {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	events := db.Collection(mongorepo.ApplicationEventsCollection)
	_, err := events.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "application_id", Value: 1}, {Key: "at", Value: 1}},
			Options: options.Index().SetName("by_application_at"),
		},
		{
			Keys:    bson.D{{Key: "applicant_id", Value: 1}, {Key: "at", Value: -1}},
			Options: options.Index().SetName("by_applicant_at"),
		},
		{
			Keys:    bson.D{{Key: "recruiter_id", Value: 1}, {Key: "at", Value: -1}},
			Options: options.Index().SetName("by_recruiter_at"),
		},
	})
	return err
}

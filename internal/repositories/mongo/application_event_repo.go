package mongo

import (
	"context"
	"time"

	"github.com/yoockh/jobboard/internal/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const ApplicationEventsCollection = "application_events"

type ApplicationEventRepository interface {
	Insert(ctx context.Context, e *models.ApplicationEvent) error
	ListByApplication(ctx context.Context, applicationID uint, limit int) ([]models.ApplicationEvent, error)
}

type applicationEventRepo struct {
	col *mongo.Collection
}

func NewApplicationEventRepo(db *mongo.Database) ApplicationEventRepository {
	return &applicationEventRepo{col: db.Collection(ApplicationEventsCollection)}
}

func (r *applicationEventRepo) Insert(ctx context.Context, e *models.ApplicationEvent) error {
	if e.At.IsZero() {
		e.At = time.Now().UTC()
	}
	_, err := r.col.InsertOne(ctx, e)
	return err
}

// ListByApplication returns the trail oldest first.
func (r *applicationEventRepo) ListByApplication(ctx context.Context, applicationID uint, limit int) ([]models.ApplicationEvent, error) {
	if limit <= 0 {
		limit = 100
	}
	opts := options.Find().
		SetSort(bson.D{{Key: "at", Value: 1}}).
		SetLimit(int64(limit))

	cur, err := r.col.Find(ctx, bson.M{"application_id": applicationID}, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	out := make([]models.ApplicationEvent, 0)
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

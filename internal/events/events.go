// Package events carries application lifecycle events from the services to
// the background workers over a Redis stream.
package events

import (
	"context"
	"encoding/json"
	"errors"
	"strconv"

	"github.com/redis/go-redis/v9"
	"github.com/yoockh/jobboard/internal/models"
)

const (
	DefaultStream = "applications:events"

	fieldType    = "type"
	fieldPayload = "payload"
)

var ErrMalformed = errors.New("malformed event message")

type Publisher interface {
	Publish(ctx context.Context, e models.ApplicationEvent) error
}

// Noop drops every event. Used when no stream is configured.
type Noop struct{}

func (Noop) Publish(context.Context, models.ApplicationEvent) error { return nil }

type RedisStream struct {
	rdb    redis.UniversalClient
	stream string
	maxLen int64
}

func NewRedisStream(rdb redis.UniversalClient, stream string, maxLen int64) *RedisStream {
	if stream == "" {
		stream = DefaultStream
	}
	return &RedisStream{rdb: rdb, stream: stream, maxLen: maxLen}
}

func (p *RedisStream) Stream() string { return p.stream }

func (p *RedisStream) Publish(ctx context.Context, e models.ApplicationEvent) error {
	values, err := Encode(e)
	if err != nil {
		return err
	}
	args := &redis.XAddArgs{Stream: p.stream, Values: values}
	if p.maxLen > 0 {
		args.MaxLen = p.maxLen
		args.Approx = true
	}
	return p.rdb.XAdd(ctx, args).Err()
}

func Encode(e models.ApplicationEvent) (map[string]any, error) {
	b, err := json.Marshal(e)
	if err != nil {
		return nil, err
	}
	return map[string]any{fieldType: e.Type, fieldPayload: string(b)}, nil
}

// Decode parses the values of a stream entry written by Encode.
func Decode(values map[string]any) (models.ApplicationEvent, error) {
	var e models.ApplicationEvent
	raw, _ := values[fieldPayload].(string)
	if raw == "" {
		return e, ErrMalformed
	}
	if err := json.Unmarshal([]byte(raw), &e); err != nil {
		return e, errors.Join(ErrMalformed, err)
	}
	if e.Type == "" || e.ApplicationID == 0 {
		return e, ErrMalformed
	}
	return e, nil
}

// NotificationChannel is the pub/sub channel a user's websocket listens on.
func NotificationChannel(userID uint) string {
	return "user:" + strconv.FormatUint(uint64(userID), 10) + ":notifications"
}

// Notification is the JSON pushed to NotificationChannel.
type Notification struct {
	Type  string                  `json:"type"`
	Event models.ApplicationEvent `json:"event"`
}

package workers

import (
	"context"
	"encoding/json"
	"errors"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	"github.com/yoockh/jobboard/internal/events"
	mongorepo "github.com/yoockh/jobboard/internal/repositories/mongo"
)

// Notifier delivers a payload to one user's live channel.
type Notifier interface {
	Notify(ctx context.Context, userID uint, payload []byte) error
}

type RedisNotifier struct {
	Redis redis.UniversalClient
}

func (n RedisNotifier) Notify(ctx context.Context, userID uint, payload []byte) error {
	return n.Redis.Publish(ctx, events.NotificationChannel(userID), payload).Err()
}

// streamClient is the part of the Redis client a consumer needs.
type streamClient interface {
	XReadGroup(ctx context.Context, a *redis.XReadGroupArgs) *redis.XStreamSliceCmd
	XAck(ctx context.Context, stream, group string, ids ...string) *redis.IntCmd
	XAutoClaim(ctx context.Context, a *redis.XAutoClaimArgs) *redis.XAutoClaimCmd
}

const (
	cursorPending = "0"
	cursorNew     = ">"
)

var errRetryPending = errors.New("events left pending")

// EventWorkerPool consumes application events from a Redis stream consumer
// group, appends them to the audit trail and notifies the parties involved.
//
// A message whose handling fails stays in the consumer's pending list and is
// read again (ID "0") until it succeeds or MaxAttempts is reached. Entries
// left behind by dead consumers are taken over with XAUTOCLAIM once they
// have been idle for ClaimMinIdle.
type EventWorkerPool struct {
	Redis      redis.UniversalClient
	Audit      mongorepo.ApplicationEventRepository // optional
	Notifier   Notifier
	NumWorkers int

	Logger *logrus.Logger

	Stream         string
	Group          string
	ConsumerPrefix string

	MaxAttempts  int
	RetryDelay   time.Duration
	ClaimMinIdle time.Duration

	streams streamClient
}

// consumerState is owned by a single consumer goroutine.
type consumerState struct {
	name      string
	cursor    string
	attempts  map[string]int
	lastClaim time.Time
}

func newConsumerState(name string) *consumerState {
	// start by draining whatever a previous run left pending
	return &consumerState{name: name, cursor: cursorPending, attempts: map[string]int{}}
}

func (p *EventWorkerPool) Start(ctx context.Context) error {
	if p.Redis == nil {
		return errors.New("EventWorkerPool missing dependency: Redis must be set")
	}
	if p.Notifier == nil {
		p.Notifier = RedisNotifier{Redis: p.Redis}
	}
	if p.streams == nil {
		p.streams = p.Redis
	}
	p.setDefaults()

	_ = p.Redis.XGroupCreateMkStream(ctx, p.Stream, p.Group, "0").Err() // ignore BUSYGROUP

	for i := 0; i < p.NumWorkers; i++ {
		consumer := p.ConsumerPrefix + "-" + strconv.Itoa(i+1)
		go p.runConsumer(ctx, consumer)
	}
	return nil
}

func (p *EventWorkerPool) setDefaults() {
	if p.Stream == "" {
		p.Stream = events.DefaultStream
	}
	if p.Group == "" {
		p.Group = "application-event-workers"
	}
	if p.ConsumerPrefix == "" {
		p.ConsumerPrefix = "c"
	}
	if p.NumWorkers <= 0 {
		p.NumWorkers = 2
	}
	if p.MaxAttempts <= 0 {
		p.MaxAttempts = 5
	}
	if p.RetryDelay <= 0 {
		p.RetryDelay = 2 * time.Second
	}
	if p.ClaimMinIdle <= 0 {
		p.ClaimMinIdle = time.Minute
	}
	if p.Logger == nil {
		p.Logger = logrus.New()
	}
}

func (p *EventWorkerPool) runConsumer(ctx context.Context, consumer string) {
	st := newConsumerState(consumer)
	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		err := p.poll(ctx, st)
		if err == nil || ctx.Err() != nil {
			continue
		}
		delay := p.RetryDelay
		if !errors.Is(err, errRetryPending) {
			p.Logger.WithError(err).WithField("consumer", consumer).Warn("xreadgroup failed")
			delay = 500 * time.Millisecond
		}
		select {
		case <-ctx.Done():
			return
		case <-time.After(delay):
		}
	}
}

// poll runs one read-handle-ack round. It returns errRetryPending when some
// message failed and was left pending for the next round.
func (p *EventWorkerPool) poll(ctx context.Context, st *consumerState) error {
	if time.Since(st.lastClaim) >= p.ClaimMinIdle {
		st.lastClaim = time.Now()
		if n, err := p.reclaim(ctx, st.name); err != nil {
			p.Logger.WithError(err).WithField("consumer", st.name).Warn("xautoclaim failed")
		} else if n > 0 {
			st.cursor = cursorPending
		}
	}

	args := &redis.XReadGroupArgs{
		Group:    p.Group,
		Consumer: st.name,
		Streams:  []string{p.Stream, st.cursor},
		Count:    10,
	}
	if st.cursor == cursorNew {
		args.Block = 5 * time.Second
	}
	res, err := p.streams.XReadGroup(ctx, args).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil
		}
		return err
	}

	var msgs []redis.XMessage
	for _, stream := range res {
		msgs = append(msgs, stream.Messages...)
	}
	if st.cursor == cursorPending && len(msgs) == 0 {
		st.cursor = cursorNew
		return nil
	}

	retry := false
	for _, msg := range msgs {
		if err := p.handleMsg(ctx, msg); err != nil {
			st.attempts[msg.ID]++
			if st.attempts[msg.ID] < p.MaxAttempts {
				retry = true
				continue
			}
			p.Logger.WithError(err).WithFields(logrus.Fields{
				"redis_id": msg.ID,
				"attempts": st.attempts[msg.ID],
			}).Error("giving up on event")
		}
		delete(st.attempts, msg.ID)
		if err := p.streams.XAck(ctx, p.Stream, p.Group, msg.ID).Err(); err != nil {
			p.Logger.WithError(err).WithField("redis_id", msg.ID).Warn("xack failed")
		}
	}
	if retry {
		st.cursor = cursorPending
		return errRetryPending
	}
	return nil
}

// reclaim moves entries idle for ClaimMinIdle into consumer's pending list.
func (p *EventWorkerPool) reclaim(ctx context.Context, consumer string) (int, error) {
	msgs, _, err := p.streams.XAutoClaim(ctx, &redis.XAutoClaimArgs{
		Stream:   p.Stream,
		Group:    p.Group,
		Consumer: consumer,
		MinIdle:  p.ClaimMinIdle,
		Start:    "0-0",
		Count:    100,
	}).Result()
	return len(msgs), err
}

// handleMsg returns an error only for failures worth a retry. Malformed
// messages are logged and acknowledged.
func (p *EventWorkerPool) handleMsg(ctx context.Context, msg redis.XMessage) error {
	e, err := events.Decode(msg.Values)
	if err != nil {
		p.Logger.WithError(err).WithField("redis_id", msg.ID).Warn("dropping malformed event")
		return nil
	}

	log := p.Logger.WithFields(logrus.Fields{
		"redis_id":       msg.ID,
		"event":          e.Type,
		"application_id": e.ApplicationID,
	})

	if p.Audit != nil {
		if err := p.Audit.Insert(ctx, &e); err != nil {
			log.WithError(err).Error("audit insert failed")
			return err
		}
	}

	payload, _ := json.Marshal(events.Notification{Type: e.Type, Event: e})
	for _, uid := range e.Recipients() {
		if err := p.Notifier.Notify(ctx, uid, payload); err != nil {
			log.WithError(err).WithField("user_id", uid).Warn("notify failed")
		}
	}
	log.Debug("event processed")
	return nil
}

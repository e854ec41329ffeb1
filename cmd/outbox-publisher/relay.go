package main

import (
	"context"
	"errors"
	"fmt"
	"time"

	gcppubsub "cloud.google.com/go/pubsub/v2"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/netstore-backend/pkg/config"
	"github.com/angelmondragon/netstore-backend/pkg/db/models"
	"github.com/angelmondragon/netstore-backend/pkg/enums"
	"github.com/angelmondragon/netstore-backend/pkg/logger"
	"github.com/angelmondragon/netstore-backend/pkg/metrics"
	"github.com/angelmondragon/netstore-backend/pkg/outbox/registry"
)

const (
	publishTimeout = 15 * time.Second
	maxBackoff     = 10 * time.Second
	jitterWindow   = 250 * time.Millisecond
)

type dbClient interface {
	Ping(context.Context) error
	WithTx(context.Context, func(tx *gorm.DB) error) error
}

type pubSubClient interface {
	Ping(context.Context) error
	Publisher(name string) *gcppubsub.Publisher
}

type outboxRepository interface {
	FetchUnpublishedForPublish(tx *gorm.DB, limit, maxAttempts int) ([]models.OutboxEvent, error)
	MarkPublishedTx(tx *gorm.DB, id uuid.UUID) error
	MarkFailedTx(tx *gorm.DB, id uuid.UUID, err error) error
	MarkTerminalTx(tx *gorm.DB, id uuid.UUID, err error) error
}

type dlqRepository interface {
	InsertTx(tx *gorm.DB, entry models.OutboxDLQ) error
}

type resolver interface {
	Resolve(models.OutboxEvent) (*registry.ResolvedEvent, error)
}

// verdict is what one delivery attempt decided for an outbox row.
type verdict int

const (
	verdictPublished verdict = iota
	verdictRetry
	verdictDeadLetter
)

type delivery struct {
	event   models.OutboxEvent
	topic   string
	verdict verdict
	reason  enums.OutboxDLQErrorReason
	err     error
}

type RelayParams struct {
	Outbox     config.OutboxConfig
	Logger     *logger.Logger
	DB         dbClient
	PubSub     pubSubClient
	Repository outboxRepository
	DLQ        dlqRepository
	Registry   resolver
	Metrics    *metrics.OutboxMetrics
	// Open overrides how topic publishers are created; tests use it.
	Open func(topic string) publisher
	Now  func() time.Time
}

// Relay moves order events from outbox_events to Pub/Sub. Each batch is read
// with row locks and settled in the same transaction.
type Relay struct {
	logg       *logger.Logger
	db         dbClient
	pubsub     pubSubClient
	repo       outboxRepository
	dlq        dlqRepository
	registry   resolver
	metrics    *metrics.OutboxMetrics
	publishers *topicPublishers
	now        func() time.Time

	batchSize   int
	maxAttempts int
	poll        time.Duration
}

func NewRelay(p RelayParams) (*Relay, error) {
	switch {
	case p.Logger == nil:
		return nil, errors.New("logger is required")
	case p.DB == nil:
		return nil, errors.New("database client is required")
	case p.PubSub == nil && p.Open == nil:
		return nil, errors.New("pubsub client is required")
	case p.Repository == nil || p.DLQ == nil:
		return nil, errors.New("outbox and dlq repositories are required")
	case p.Registry == nil:
		return nil, errors.New("event registry is required")
	}
	open := p.Open
	if open == nil {
		open = gcpOpener(p.PubSub)
	}
	now := p.Now
	if now == nil {
		now = time.Now
	}
	return &Relay{
		logg:        p.Logger,
		db:          p.DB,
		pubsub:      p.PubSub,
		repo:        p.Repository,
		dlq:         p.DLQ,
		registry:    p.Registry,
		metrics:     p.Metrics,
		publishers:  newTopicPublishers(open),
		now:         now,
		batchSize:   positiveOr(p.Outbox.BatchSize, 50),
		maxAttempts: positiveOr(p.Outbox.MaxAttempts, 10),
		poll:        time.Duration(positiveOr(p.Outbox.PollIntervalMS, 500)) * time.Millisecond,
	}, nil
}

func positiveOr(v, fallback int) int {
	if v > 0 {
		return v
	}
	return fallback
}

// Run polls until ctx ends. Empty polls wait one interval; failed batches back
// off exponentially up to maxBackoff.
func (r *Relay) Run(ctx context.Context) error {
	if err := r.db.Ping(ctx); err != nil {
		return fmt.Errorf("database ping: %w", err)
	}
	if r.pubsub != nil {
		if err := r.pubsub.Ping(ctx); err != nil {
			return fmt.Errorf("pubsub ping: %w", err)
		}
	}

	wait := r.poll
	for ctx.Err() == nil {
		n, err := r.drain(ctx)
		switch {
		case err != nil:
			r.logg.Error(ctx, "outbox batch failed", err)
			wait = nextBackoff(wait, r.poll, maxBackoff)
		case n > 0:
			wait = r.poll
			continue
		default:
			wait = r.poll
		}
		if err := sleepCtx(ctx, jittered(wait)); err != nil {
			break
		}
	}
	r.logg.Info(ctx, "outbox relay stopping")
	return ctx.Err()
}

// drain handles one locked batch and reports how many rows it settled.
func (r *Relay) drain(ctx context.Context) (int, error) {
	started := r.now()
	settled := 0
	err := r.db.WithTx(ctx, func(tx *gorm.DB) error {
		events, err := r.repo.FetchUnpublishedForPublish(tx, r.batchSize, r.maxAttempts)
		if err != nil {
			return fmt.Errorf("fetch outbox batch: %w", err)
		}
		for _, event := range events {
			if err := r.settle(ctx, tx, r.deliver(ctx, event)); err != nil {
				return err
			}
			settled++
		}
		return nil
	})
	if settled > 0 {
		r.metrics.ObserveBatch(r.now().Sub(started))
	}
	return settled, err
}

func (r *Relay) deliver(ctx context.Context, event models.OutboxEvent) delivery {
	d := delivery{event: event}
	resolved, err := r.registry.Resolve(event)
	if err != nil {
		d.verdict, d.reason, d.err = verdictDeadLetter, enums.OutboxDLQReasonNonRetryable, err
		return d
	}
	d.topic = resolved.Descriptor.Topic

	pub := r.publishers.get(d.topic)
	if pub == nil {
		d.verdict, d.reason = verdictDeadLetter, enums.OutboxDLQReasonUnroutable
		d.err = fmt.Errorf("no publisher for topic %q", d.topic)
		return d
	}

	publishCtx, cancel := context.WithTimeout(ctx, publishTimeout)
	defer cancel()
	result := pub.Publish(publishCtx, orderMessage(event, resolved))
	if result == nil {
		d.verdict, d.reason = verdictDeadLetter, enums.OutboxDLQReasonUnroutable
		d.err = fmt.Errorf("publisher for %q returned no result", d.topic)
		return d
	}
	if _, err := result.Get(publishCtx); err != nil {
		d.err = err
		var permanent registry.NonRetryableError
		switch {
		case errors.As(err, &permanent):
			d.verdict, d.reason = verdictDeadLetter, enums.OutboxDLQReasonNonRetryable
		case event.AttemptCount+1 >= r.maxAttempts:
			d.verdict, d.reason = verdictDeadLetter, enums.OutboxDLQReasonMaxAttempts
			d.err = fmt.Errorf("gave up after %d attempts: %w", event.AttemptCount+1, err)
		default:
			d.verdict = verdictRetry
		}
		return d
	}
	d.verdict = verdictPublished
	return d
}

// settle writes the verdict back inside the batch transaction.
func (r *Relay) settle(ctx context.Context, tx *gorm.DB, d delivery) error {
	id := d.event.ID
	logCtx := r.logg.WithFields(ctx, map[string]any{
		"outbox_id":     id.String(),
		"event_type":    d.event.EventType,
		"order_id":      d.event.AggregateID.String(),
		"topic":         d.topic,
		"attempt_count": d.event.AttemptCount,
	})

	switch d.verdict {
	case verdictPublished:
		if err := r.repo.MarkPublishedTx(tx, id); err != nil {
			return fmt.Errorf("mark published %s: %w", id, err)
		}
		r.metrics.IncPublished(string(d.event.EventType))
		r.logg.Info(logCtx, "order event published")
	case verdictRetry:
		if err := r.repo.MarkFailedTx(tx, id, d.err); err != nil {
			return fmt.Errorf("mark failed %s: %w", id, err)
		}
		r.metrics.IncFailed(string(d.event.EventType))
		r.logg.Warn(r.logg.WithField(logCtx, "error", d.err.Error()), "order event publish failed; will retry")
	case verdictDeadLetter:
		msg := d.err.Error()
		entry := models.OutboxDLQ{
			EventID:       id,
			EventType:     d.event.EventType,
			AggregateType: d.event.AggregateType,
			AggregateID:   d.event.AggregateID,
			Payload:       d.event.Payload,
			ErrorReason:   d.reason,
			ErrorMessage:  &msg,
			AttemptCount:  d.event.AttemptCount,
			FailedAt:      r.now().UTC(),
		}
		if err := r.dlq.InsertTx(tx, entry); err != nil {
			return fmt.Errorf("insert dlq %s: %w", id, err)
		}
		if err := r.repo.MarkTerminalTx(tx, id, d.err); err != nil {
			return fmt.Errorf("mark terminal %s: %w", id, err)
		}
		r.metrics.IncDeadLettered(string(d.reason))
		r.logg.Warn(r.logg.WithFields(logCtx, map[string]any{"error": msg, "error_reason": d.reason}), "order event dead-lettered")
	}
	return nil
}

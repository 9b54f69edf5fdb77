package notifications

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	gcppubsub "cloud.google.com/go/pubsub/v2"
	"github.com/google/uuid"

	"github.com/angelmondragon/packfinderz-payouts/pkg/logger"
)

const defaultPublishTimeout = 15 * time.Second

// Notifier delivers notifications without blocking the caller. Delivery
// failures are logged, never returned.
type Notifier interface {
	Notify(ctx context.Context, events ...Event)
}

type publishResult interface {
	Get(ctx context.Context) (string, error)
}

type publisher interface {
	Publish(ctx context.Context, msg *gcppubsub.Message) publishResult
}

// PublisherParams configure the Pub/Sub notifier.
type PublisherParams struct {
	Publisher *gcppubsub.Publisher
	Logger    *logger.Logger
	Timeout   time.Duration
	Now       func() time.Time
}

// Publisher sends notifications to the Pub/Sub notification topic.
type Publisher struct {
	pub     publisher
	logg    *logger.Logger
	timeout time.Duration
	now     func() time.Time
	wg      sync.WaitGroup
}

// NewPublisher builds a Pub/Sub backed Notifier.
func NewPublisher(params PublisherParams) (*Publisher, error) {
	if params.Publisher == nil {
		return nil, fmt.Errorf("pubsub publisher required")
	}
	return newPublisher(&gcpPublisher{Publisher: params.Publisher}, params)
}

func newPublisher(pub publisher, params PublisherParams) (*Publisher, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	timeout := params.Timeout
	if timeout <= 0 {
		timeout = defaultPublishTimeout
	}
	now := params.Now
	if now == nil {
		now = time.Now
	}
	return &Publisher{
		pub:     pub,
		logg:    params.Logger,
		timeout: timeout,
		now:     now,
	}, nil
}

// Notify publishes every event and returns immediately; results are awaited
// in the background.
func (p *Publisher) Notify(ctx context.Context, events ...Event) {
	for _, event := range events {
		msg, err := p.message(event)
		logCtx := p.logg.WithFields(ctx, map[string]any{
			"event_type":   string(event.Type),
			"recipient_id": event.RecipientID.String(),
		})
		if err != nil {
			p.logg.Error(logCtx, "failed to encode notification", err)
			continue
		}

		// The caller's request may finish before the publish does.
		publishCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), p.timeout)
		result := p.pub.Publish(publishCtx, msg)
		if result == nil {
			cancel()
			p.logg.Error(logCtx, "failed to publish notification", errors.New("publisher returned nil result"))
			continue
		}

		p.wg.Add(1)
		go func() {
			defer p.wg.Done()
			defer cancel()
			if _, err := result.Get(publishCtx); err != nil {
				p.logg.Error(logCtx, "failed to publish notification", err)
				return
			}
			p.logg.Debug(logCtx, "notification published")
		}()
	}
}

// Wait blocks until every in-flight publish has resolved.
func (p *Publisher) Wait() {
	p.wg.Wait()
}

func (p *Publisher) message(event Event) (*gcppubsub.Message, error) {
	envelope := Envelope{
		EventID:    uuid.NewString(),
		EventType:  string(event.Type),
		OccurredAt: p.now().UTC(),
		Data:       event,
	}
	data, err := json.Marshal(envelope)
	if err != nil {
		return nil, err
	}
	attrs := map[string]string{
		"event_id":     envelope.EventID,
		"event_type":   envelope.EventType,
		"recipient_id": event.RecipientID.String(),
		"created_at":   envelope.OccurredAt.Format(time.RFC3339Nano),
	}
	if event.OrderID != nil {
		attrs["order_id"] = event.OrderID.String()
	}
	return &gcppubsub.Message{Data: data, Attributes: attrs}, nil
}

type gcpPublisher struct {
	*gcppubsub.Publisher
}

func (p *gcpPublisher) Publish(ctx context.Context, msg *gcppubsub.Message) publishResult {
	if p == nil || p.Publisher == nil {
		return nil
	}
	return &gcpPublishResult{PublishResult: p.Publisher.Publish(ctx, msg)}
}

type gcpPublishResult struct {
	*gcppubsub.PublishResult
}

func (r *gcpPublishResult) Get(ctx context.Context) (string, error) {
	if r == nil || r.PublishResult == nil {
		return "", errors.New("publish result is nil")
	}
	return r.PublishResult.Get(ctx)
}

// Discard is a Notifier that drops every event.
type Discard struct{}

func (Discard) Notify(context.Context, ...Event) {}

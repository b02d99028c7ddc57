package notification

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"

	"gallery_api/internal/domain/models"
	"gallery_api/internal/lib/logger/sl"
	"gallery_api/internal/metrics"
)

// Outcome is the listener's verdict on one delivery.
type Outcome int

const (
	OutcomeOK Outcome = iota
	OutcomeBadRequest
	OutcomeUpstreamFailure
)

func (o Outcome) String() string {
	switch o {
	case OutcomeOK:
		return "ok"
	case OutcomeBadRequest:
		return "bad_request"
	case OutcomeUpstreamFailure:
		return "upstream_failure"
	}
	return "unknown"
}

type Validator interface {
	Validate(ctx context.Context, env Envelope) error
}

type Confirmer interface {
	ConfirmSubscription(ctx context.Context, topicArn, token string) error
}

// EventHandler processes an unwrapped domain event. false means the event
// was recognised but could not be applied.
type EventHandler interface {
	HandleEvent(ctx context.Context, name string, data json.RawMessage) (bool, error)
}

type Listener struct {
	log       *slog.Logger
	validator Validator
	confirmer Confirmer
	handler   EventHandler
	dedup     *Deduplicator
}

// NewListener wires the ingress pipeline. dedup may be nil.
func NewListener(log *slog.Logger, validator Validator, confirmer Confirmer, handler EventHandler, dedup *Deduplicator) *Listener {
	return &Listener{
		log:       log,
		validator: validator,
		confirmer: confirmer,
		handler:   handler,
		dedup:     dedup,
	}
}

// Handle runs one SNS delivery through parse, validation, subscription
// handshake and event dispatch.
func (l *Listener) Handle(ctx context.Context, raw []byte) Outcome {
	const op = "notification.Listener.Handle"
	log := l.log.With(slog.String("op", op))

	env, err := ParseEnvelope(raw)
	if err != nil {
		log.Warn("failed to parse envelope", sl.Err(err))
		return OutcomeBadRequest
	}

	log = log.With(
		slog.String("type", env.Type),
		slog.String("message_id", env.MessageID),
		slog.String("topic_arn", env.TopicArn),
	)

	if err := l.validator.Validate(ctx, env); err != nil {
		log.Warn("envelope failed validation", sl.Err(err))
		// A pending handshake is still acknowledged.
		if env.Kind() == KindSubscriptionConfirmation {
			if err := l.confirmer.ConfirmSubscription(ctx, env.TopicArn, env.Token); err != nil {
				log.Error("failed to confirm subscription", sl.Err(err))
			}
		}
		return OutcomeBadRequest
	}

	switch env.Kind() {
	case KindSubscriptionConfirmation:
		if err := l.confirmer.ConfirmSubscription(ctx, env.TopicArn, env.Token); err != nil {
			log.Error("failed to confirm subscription", sl.Err(err))
			return OutcomeUpstreamFailure
		}
		return OutcomeOK
	case KindNotification:
		return l.notify(ctx, log, env)
	default:
		log.Info("ignoring envelope")
		return OutcomeOK
	}
}

func (l *Listener) notify(ctx context.Context, log *slog.Logger, env Envelope) Outcome {
	name, data, err := ExtractEvent(env)
	if errors.Is(err, ErrNotEvent) {
		log.Warn("dropping notification without an event", sl.Err(err))
		metrics.ModerationEventsTotal.WithLabelValues("none", "not_event").Inc()
		return OutcomeOK
	}
	if err != nil {
		log.Warn("failed to extract event", sl.Err(err))
		return OutcomeBadRequest
	}

	log = log.With(slog.String("event", name))

	if l.dedup != nil {
		seen, err := l.dedup.Seen(ctx, env.MessageID)
		if err != nil {
			log.Warn("dedup lookup failed, processing anyway", sl.Err(err))
		} else if seen {
			log.Info("duplicate delivery acknowledged")
			metrics.ModerationEventsTotal.WithLabelValues(eventLabel(name), "duplicate").Inc()
			return OutcomeOK
		}
	}

	processed, err := l.handler.HandleEvent(ctx, name, data)
	if err != nil {
		log.Error("event handler failed", sl.Err(err))
	}
	if !processed {
		return OutcomeUpstreamFailure
	}

	if l.dedup != nil {
		if err := l.dedup.Remember(ctx, env.MessageID); err != nil {
			log.Warn("failed to remember message", sl.Err(err))
		}
	}

	return OutcomeOK
}

func eventLabel(name string) string {
	if name == models.EventImageModeration {
		return name
	}
	return "other"
}

package notify

import (
	"encoding/json"

	"go.uber.org/zap"

	"github.com/seu-repo/sigec-ve/internal/adapter/queue"
	"github.com/seu-repo/sigec-ve/internal/observability/telemetry"
)

// EventPublisher is the secondary, fire-and-forget NATS fan-out for
// cross-cutting domain events (session started/stopped, wallet topped up);
// nothing in this repository subscribes to them. It is distinct from the
// Redis command/event bus, which remains the OCPP actor's bus of record.
type EventPublisher struct {
	mq  queue.MessageQueue
	log *zap.Logger
}

// NewEventPublisher accepts a nil mq when NATS is unavailable at boot; every
// Publish call becomes a no-op in that case rather than a startup failure.
func NewEventPublisher(mq queue.MessageQueue, log *zap.Logger) *EventPublisher {
	return &EventPublisher{mq: mq, log: log}
}

func (p *EventPublisher) Publish(subject string, payload interface{}) {
	if p == nil || p.mq == nil {
		return
	}

	data, err := json.Marshal(payload)
	if err != nil {
		p.log.Warn("notify: failed to marshal event", zap.String("subject", subject), zap.Error(err))
		return
	}

	if err := p.mq.Publish(subject, data); err != nil {
		telemetry.MessageQueueMessagesTotal.WithLabelValues(subject, "failed").Inc()
		p.log.Warn("notify: failed to publish event", zap.String("subject", subject), zap.Error(err))
		return
	}
	telemetry.MessageQueueMessagesTotal.WithLabelValues(subject, "published").Inc()
}

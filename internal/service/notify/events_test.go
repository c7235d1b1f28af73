package notify

import (
	"encoding/json"
	"testing"

	"go.uber.org/zap"

	"github.com/seu-repo/sigec-ve/internal/mocks"
)

func TestEventPublisher_PublishesMarshaledPayload(t *testing.T) {
	mq := mocks.NewMockMessageQueue()
	publisher := NewEventPublisher(mq, zap.NewNop())

	publisher.Publish("domain.session.started", map[string]string{"session_id": "s-1"})

	published := mq.GetPublishedMessages("domain.session.started")
	if len(published) != 1 {
		t.Fatalf("expected 1 published message, got %d", len(published))
	}

	var payload map[string]string
	if err := json.Unmarshal(published[0], &payload); err != nil {
		t.Fatalf("failed to unmarshal published payload: %v", err)
	}
	if payload["session_id"] != "s-1" {
		t.Errorf("expected session_id 's-1', got %q", payload["session_id"])
	}
}

func TestEventPublisher_NilQueueIsNoOp(t *testing.T) {
	publisher := NewEventPublisher(nil, zap.NewNop())
	// Must not panic when NATS was unavailable at boot.
	publisher.Publish("domain.wallet.topup", map[string]string{"client_id": "c-1"})
}

func TestEventPublisher_NilPublisherIsNoOp(t *testing.T) {
	var publisher *EventPublisher
	// Handlers hold a possibly-nil *EventPublisher when notify wiring is skipped in tests.
	publisher.Publish("domain.session.stopped", map[string]string{})
}

func TestEventPublisher_MarshalFailureDoesNotPublish(t *testing.T) {
	mq := mocks.NewMockMessageQueue()
	publisher := NewEventPublisher(mq, zap.NewNop())

	publisher.Publish("domain.session.started", make(chan int))

	if len(mq.GetPublishedMessages("domain.session.started")) != 0 {
		t.Error("expected no message to be published when marshaling fails")
	}
}

package application

import (
	"context"
	"encoding/json"
	"fmt"
	"reflect"

	"github.com/google/uuid"
	"github.com/rodolfodevapp/eventshop-messaging-go/core/primitives"

	"github.com/RodolfoDevApp/clubhouse-reservations-go/internal/domain"
)

// OutboxWriter stores events for later delivery. Called with a transactional
// ctx, the message commits or rolls back together with the state change.
type OutboxWriter interface {
	Enqueue(ctx context.Context, ev primitives.Event) error
}

type outboxWriter struct {
	repo  domain.OutboxRepository
	clock domain.Clock
}

func NewOutboxWriter(repo domain.OutboxRepository, clock domain.Clock) OutboxWriter {
	if clock == nil {
		clock = domain.SystemClock{}
	}
	return &outboxWriter{repo: repo, clock: clock}
}

func (w *outboxWriter) Enqueue(ctx context.Context, ev primitives.Event) error {
	payload, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("marshal %s: %w", typeNameOf(ev), err)
	}

	eventType := ev.GetRoutingKey()
	if eventType == "" {
		eventType = typeNameOf(ev)
	}

	msg := domain.OutboxMessage{
		ID:             uuid.New(),
		Type:           eventType,
		PayloadJSON:    string(payload),
		OccurredAtUtc:  w.clock.Now().Unix(),
		RetryCount:     0,
		ProcessedAtUtc: nil,
	}
	return w.repo.Insert(ctx, msg)
}

func typeNameOf(ev primitives.Event) string {
	if ev == nil {
		return ""
	}
	t := reflect.TypeOf(ev)
	if t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	return t.Name()
}

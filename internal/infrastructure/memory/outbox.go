package memory

import (
	"context"
	"errors"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/RodolfoDevApp/clubhouse-reservations-go/internal/domain"
)

// Outbox exposes the store as a domain.OutboxRepository.
func (s *Store) Outbox() domain.OutboxRepository {
	return outboxRepo{s}
}

type outboxRepo struct{ s *Store }

func (r outboxRepo) Insert(ctx context.Context, msg domain.OutboxMessage) error {
	if msg.ID == uuid.Nil {
		msg.ID = uuid.New()
	}
	if msg.OccurredAtUtc == 0 {
		msg.OccurredAtUtc = time.Now().UTC().Unix()
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if r.s.failInsertOutbox != nil {
		return r.s.failInsertOutbox
	}
	r.s.outbox = append(r.s.outbox, msg)
	return nil
}

func (r outboxRepo) GetPendingBatch(ctx context.Context, maxRetry, batchSize int) ([]domain.OutboxMessage, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	var pending []domain.OutboxMessage
	for _, msg := range r.s.outbox {
		if msg.ProcessedAtUtc == nil && msg.RetryCount < maxRetry {
			pending = append(pending, msg)
		}
	}
	sort.SliceStable(pending, func(i, j int) bool { return pending[i].OccurredAtUtc < pending[j].OccurredAtUtc })
	if batchSize > 0 && len(pending) > batchSize {
		pending = pending[:batchSize]
	}
	return pending, nil
}

func (r outboxRepo) Save(ctx context.Context, msg domain.OutboxMessage) error {
	if msg.ID == uuid.Nil {
		return errors.New("outbox message id is empty")
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for i := range r.s.outbox {
		if r.s.outbox[i].ID == msg.ID {
			r.s.outbox[i].RetryCount = msg.RetryCount
			if msg.ProcessedAtUtc != nil {
				r.s.outbox[i].ProcessedAtUtc = msg.ProcessedAtUtc
			}
			return nil
		}
	}
	return errors.New("outbox message not found")
}

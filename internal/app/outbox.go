package service

import (
	"context"

	eventqueue "github.com/okian/bingonight/internal/adapters/mq/queue"
	repository "github.com/okian/bingonight/internal/adapters/repository"
	"github.com/okian/bingonight/internal/domain/model"
)

// publishingStore forwards every appended event to the outbox queue once the
// store accepted it. A full queue drops the copy; the store keeps the event.
type publishingStore struct {
	repository.Store
	queue eventqueue.Queue
}

func (p *publishingStore) AppendEvent(ctx context.Context, e *model.Event) error {
	if err := p.Store.AppendEvent(ctx, e); err != nil {
		return err
	}
	p.queue.Enqueue(ctx, *e.Clone())
	return nil
}

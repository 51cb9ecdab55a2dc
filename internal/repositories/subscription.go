package repositories

import (
	"context"
	"sync"
)

// Subscription is a live query. Stop releases it; callbacks may still be in
// flight when Stop returns and callers must tolerate that.
type Subscription interface {
	Stop()
}

type subscription struct {
	cancel context.CancelFunc
	once   sync.Once
}

func (s *subscription) Stop() {
	s.once.Do(s.cancel)
}

// startSubscription runs loop on its own goroutine under a cancellable context.
func startSubscription(ctx context.Context, loop func(ctx context.Context)) Subscription {
	ctx, cancel := context.WithCancel(ctx)
	go loop(ctx)
	return &subscription{cancel: cancel}
}

// SnapshotFunc receives the complete current result of a live query.
type SnapshotFunc[T any] func([]T)

// ErrorFunc receives the error that ended a live query.
type ErrorFunc func(error)

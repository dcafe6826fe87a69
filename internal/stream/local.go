package stream

import "context"

// localWakeBus is the in-process fallback used when Redis is not
// configured: wakes only reach workers in the same process.
type localWakeBus struct {
	wake chan struct{}
}

func NewLocalWakeBus() WakeBus {
	return &localWakeBus{wake: make(chan struct{}, 1)}
}

func (b *localWakeBus) Notify(ctx context.Context) error {
	select {
	case b.wake <- struct{}{}:
	default:
	}
	return nil
}

func (b *localWakeBus) Wake() <-chan struct{} { return b.wake }

func (b *localWakeBus) Close() error { return nil }

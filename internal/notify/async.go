package notify

import (
	"context"
	"sync"

	"go.uber.org/zap"
)

// Async delivers alerts on a background goroutine so callers never wait on
// the network. Alerts that arrive while the queue is full are dropped.
type Async struct {
	next   Notifier
	queue  chan Alert
	logger *zap.Logger

	wg sync.WaitGroup
}

func NewAsync(next Notifier, size int, logger *zap.Logger) *Async {
	if size <= 0 {
		size = 32
	}
	return &Async{next: next, queue: make(chan Alert, size), logger: logger}
}

// Start runs the delivery loop until ctx is done. Queued alerts are flushed
// before Wait returns.
func (a *Async) Start(ctx context.Context) {
	a.wg.Add(1)
	go func() {
		defer a.wg.Done()
		for {
			select {
			case <-ctx.Done():
				a.drain()
				return
			case alert := <-a.queue:
				a.deliver(ctx, alert)
			}
		}
	}()
}

func (a *Async) drain() {
	for {
		select {
		case alert := <-a.queue:
			a.deliver(context.Background(), alert)
		default:
			return
		}
	}
}

func (a *Async) deliver(ctx context.Context, alert Alert) {
	if err := a.next.Notify(ctx, alert); err != nil {
		a.logger.Warn("Urgency alert not delivered", zap.Error(err))
	}
}

// Notify enqueues alert and returns immediately.
func (a *Async) Notify(_ context.Context, alert Alert) error {
	select {
	case a.queue <- alert:
	default:
		a.logger.Warn("Alert queue full, dropping urgency alert", zap.String("run_id", alert.RunID))
	}
	return nil
}

// Wait blocks until the delivery loop has stopped.
func (a *Async) Wait() {
	a.wg.Wait()
}

package mail

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/dmitrijs2005/gophreddit/internal/logging"
)

// Stats are cumulative delivery counters.
type Stats struct {
	Sent    int64
	Failed  int64
	Dropped int64
}

// Dispatcher delivers queued mail on a fixed pool of workers.
type Dispatcher struct {
	sender      Sender
	log         logging.Logger
	queue       chan Email
	sendTimeout time.Duration

	mu     sync.RWMutex
	closed bool
	wg     sync.WaitGroup

	sent, failed, dropped atomic.Int64
}

// NewDispatcher starts workers goroutines draining a queue of queueSize.
func NewDispatcher(sender Sender, log logging.Logger, queueSize, workers int) *Dispatcher {
	if queueSize < 1 {
		queueSize = 1
	}
	if workers < 1 {
		workers = 1
	}
	d := &Dispatcher{
		sender:      sender,
		log:         log.With("module", "mail"),
		queue:       make(chan Email, queueSize),
		sendTimeout: 30 * time.Second,
	}
	d.wg.Add(workers)
	for i := 0; i < workers; i++ {
		go d.worker()
	}
	return d
}

// Enqueue hands email to the workers without blocking.
func (d *Dispatcher) Enqueue(email Email) error {
	d.mu.RLock()
	defer d.mu.RUnlock()
	if d.closed {
		d.dropped.Add(1)
		return ErrDispatcherClosed
	}
	select {
	case d.queue <- email:
		return nil
	default:
		d.dropped.Add(1)
		return ErrQueueFull
	}
}

func (d *Dispatcher) worker() {
	defer d.wg.Done()
	for email := range d.queue {
		ctx, cancel := context.WithTimeout(context.Background(), d.sendTimeout)
		err := d.sender.Send(ctx, email)
		cancel()
		if err != nil {
			d.failed.Add(1)
			d.log.Error(ctx, "mail delivery failed", "to", email.Recipient, "subject", email.Subject, "error", err)
			continue
		}
		d.sent.Add(1)
		d.log.Info(ctx, "mail sent", "to", email.Recipient, "subject", email.Subject)
	}
}

// Close stops intake and waits for queued mail to be delivered or for ctx
// to end, whichever comes first. It is safe to call more than once.
func (d *Dispatcher) Close(ctx context.Context) error {
	d.mu.Lock()
	if !d.closed {
		d.closed = true
		close(d.queue)
	}
	d.mu.Unlock()

	done := make(chan struct{})
	go func() {
		d.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (d *Dispatcher) Stats() Stats {
	return Stats{
		Sent:    d.sent.Load(),
		Failed:  d.failed.Load(),
		Dropped: d.dropped.Load(),
	}
}

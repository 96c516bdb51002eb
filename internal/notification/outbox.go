package notification

import (
	"context"
	"errors"
	"fmt"

	"property_service_backend/platform/logger"
)

// ErrOutboxFull is returned when jobs had to be dropped.
var ErrOutboxFull = errors.New("notification outbox full")

// Outbox accepts jobs for later best-effort delivery.
type Outbox interface {
	Enqueue(ctx context.Context, jobs ...Job) error
}

// Deliverer performs the delivery of one job.
type Deliverer interface {
	Deliver(ctx context.Context, job Job) Report
}

// MemoryOutbox is an in-process outbox: a bounded queue drained by Run.
type MemoryOutbox struct {
	jobs      chan Job
	deliverer Deliverer
	log       *logger.Logger
}

const defaultOutboxBuffer = 256

func NewMemoryOutbox(deliverer Deliverer, buffer int, log *logger.Logger) *MemoryOutbox {
	if buffer < 1 {
		buffer = defaultOutboxBuffer
	}
	return &MemoryOutbox{
		jobs:      make(chan Job, buffer),
		deliverer: deliverer,
		log:       log,
	}
}

// Enqueue never blocks. Jobs that do not fit are dropped and reported
// through ErrOutboxFull.
func (o *MemoryOutbox) Enqueue(ctx context.Context, jobs ...Job) error {
	dropped := 0
	for _, job := range jobs {
		select {
		case o.jobs <- job:
		default:
			dropped++
			o.log.WithContext(ctx).Warn("notification dropped, outbox full", "event", string(job.Event), "displayId", job.Payload.DisplayID)
		}
	}
	if dropped > 0 {
		return fmt.Errorf("%w: dropped %d of %d jobs", ErrOutboxFull, dropped, len(jobs))
	}
	return nil
}

// Pending returns the number of queued jobs.
func (o *MemoryOutbox) Pending() int {
	return len(o.jobs)
}

// Run delivers queued jobs until ctx is done.
func (o *MemoryOutbox) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			if n := len(o.jobs); n > 0 {
				o.log.Warn("notification outbox stopped with pending jobs", "pending", n)
			}
			return
		case job := <-o.jobs:
			o.deliverer.Deliver(ctx, job)
		}
	}
}

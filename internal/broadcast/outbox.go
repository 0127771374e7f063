// Package broadcast delivers live attendance counts to connected clients.
//
// The sync service never talks to a socket directly: after each successful
// create/update it hands an AttendanceUpdate to a Publisher. The Outbox
// implementation buffers updates and drains them on a background goroutine,
// so a slow or failing delivery channel can never delay or fail the HTTP
// response that produced the update.
package broadcast

import (
	"time"

	"github.com/rs/zerolog/log"
)

// AttendanceUpdate is one live-count snapshot for a service, published after
// every successful check-in mutation.
type AttendanceUpdate struct {
	TenantID          string    `json:"tenant_id"`
	ChurchID          string    `json:"church_id"`
	ServiceID         string    `json:"service_id"`
	TotalCheckIns     int64     `json:"total_checkins"`
	CurrentAttendance int64     `json:"current_attendance"`
	Timestamp         time.Time `json:"timestamp"`
}

// Publisher accepts attendance updates for asynchronous delivery.
// Implementations must not block the caller and must swallow delivery
// failures; publishing is strictly fire-and-forget.
type Publisher interface {
	Publish(update AttendanceUpdate)
}

// Sink receives updates drained from the Outbox. The websocket Hub is the
// production sink; tests substitute a recording fake.
type Sink interface {
	Deliver(update AttendanceUpdate)
}

// Outbox is a bounded, in-memory post-commit queue of attendance updates.
// Publish never blocks: when the buffer is full the update is dropped and
// counted, which is acceptable because every subsequent mutation publishes a
// fresh snapshot superseding the lost one.
type Outbox struct {
	ch   chan AttendanceUpdate
	sink Sink
	done chan struct{}
}

// NewOutbox creates an Outbox draining into sink with the given buffer size
// and starts its delivery goroutine. Buffer sizes < 1 default to 64.
func NewOutbox(sink Sink, buffer int) *Outbox {
	if buffer < 1 {
		buffer = 64
	}
	o := &Outbox{
		ch:   make(chan AttendanceUpdate, buffer),
		sink: sink,
		done: make(chan struct{}),
	}
	go o.run()
	return o
}

// Publish enqueues an update for asynchronous delivery. It never blocks.
func (o *Outbox) Publish(update AttendanceUpdate) {
	select {
	case o.ch <- update:
	default:
		log.Warn().
			Str("service_id", update.ServiceID).
			Msg("attendance outbox full, update dropped")
	}
}

// Close stops the delivery goroutine after the buffered updates are drained.
func (o *Outbox) Close() {
	close(o.ch)
	<-o.done
}

func (o *Outbox) run() {
	defer close(o.done)
	for u := range o.ch {
		o.sink.Deliver(u)
	}
}

// Package offline implements the client-side durable mutation queue and the
// sync manager that replays it against the live API. This file contains the
// Manager: enqueue, drain, retry accounting, and observer notifications.
package offline

import (
	"context"
	"encoding/json"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/tbourn/go-attendance-backend/internal/domain"
)

// Event types delivered to observers.
const (
	// EventSyncSuccess: one mutation replayed successfully and was removed.
	EventSyncSuccess = "sync_success"
	// EventSyncFailed: one mutation exhausted its retries and was dropped.
	// The event carries the terminal error; callers must surface it to the
	// user — eviction is never silent data loss.
	EventSyncFailed = "sync_failed"
	// EventSyncComplete: one full drain pass finished; carries the aggregate.
	EventSyncComplete = "sync_complete"
)

// Event describes a queue state change observed during a drain pass.
type Event struct {
	Type string
	// Mutation is set for sync_success and sync_failed.
	Mutation *domain.QueuedMutation
	// Err is the terminal error message for sync_failed.
	Err string
	// Processed/Failed are set for sync_complete.
	Processed int
	Failed    int
}

// Observer receives queue events. Observers run synchronously on the drain
// goroutine and must be fast.
type Observer func(Event)

// Client replays one stored mutation against the live API. An error return
// means the attempt failed and the mutation stays queued (until its retry
// budget runs out).
type Client interface {
	Replay(ctx context.Context, m domain.QueuedMutation) error
}

// Mutation is the caller-facing description of a write to queue.
type Mutation struct {
	// Type labels the mutation kind ("checkin", "rsvp", ...) for observers.
	Type string
	// Method, Endpoint, Headers, Payload reproduce the original request.
	Method   string
	Endpoint string
	Headers  map[string]string
	Payload  []byte
	// Priority orders replay: higher drains first. Zero is normal.
	Priority int
	// MaxRetries overrides the manager default when > 0.
	MaxRetries int
}

// Manager owns the offline queue: it persists mutations through the injected
// Store and replays them through the injected Client. Only one drain pass
// runs at a time; a Drain call arriving while one is in flight is coalesced
// into a no-op.
type Manager struct {
	store  Store
	client Client

	// maxRetries is the default retry budget for enqueued mutations.
	maxRetries int

	draining atomic.Bool

	mu        sync.Mutex
	observers []Observer

	// kick wakes the Run loop for an immediate drain (connectivity restored,
	// user-initiated refresh).
	kick chan struct{}
}

// NewManager constructs a Manager. maxRetries <= 0 defaults to 3.
func NewManager(store Store, client Client, maxRetries int) *Manager {
	if maxRetries <= 0 {
		maxRetries = 3
	}
	return &Manager{
		store:      store,
		client:     client,
		maxRetries: maxRetries,
		kick:       make(chan struct{}, 1),
	}
}

// Subscribe registers an observer for queue events.
func (m *Manager) Subscribe(fn Observer) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.observers = append(m.observers, fn)
}

func (m *Manager) notify(ev Event) {
	m.mu.Lock()
	obs := make([]Observer, len(m.observers))
	copy(obs, m.observers)
	m.mu.Unlock()
	for _, fn := range obs {
		fn(ev)
	}
}

// Enqueue persists a mutation for later replay. It performs no network I/O
// and never fails the caller's critical path: a storage error is logged and
// swallowed. Returns the operation id ("" when persisting failed).
func (m *Manager) Enqueue(ctx context.Context, mut Mutation) string {
	maxRetries := mut.MaxRetries
	if maxRetries <= 0 {
		maxRetries = m.maxRetries
	}
	headers := ""
	if len(mut.Headers) > 0 {
		if b, err := json.Marshal(mut.Headers); err == nil {
			headers = string(b)
		}
	}

	rec := &domain.QueuedMutation{
		ID:         uuid.NewString(),
		Type:       mut.Type,
		Method:     mut.Method,
		Endpoint:   mut.Endpoint,
		Headers:    headers,
		Payload:    mut.Payload,
		Priority:   mut.Priority,
		MaxRetries: maxRetries,
		CreatedAt:  time.Now().UTC(),
	}
	if err := m.store.Save(ctx, rec); err != nil {
		log.Error().Err(err).Str("type", mut.Type).Msg("offline queue: enqueue failed")
		return ""
	}
	log.Debug().Str("op_id", rec.ID).Str("type", mut.Type).Msg("offline queue: mutation queued")
	return rec.ID
}

// Drain replays all queued mutations in (priority desc, createdAt asc)
// order. It returns the number of successful replays and the number of
// failed attempts in this pass (both retained and dropped mutations count
// as failed). If a drain is already running the call is coalesced and
// returns (0, 0) immediately.
func (m *Manager) Drain(ctx context.Context) (processed, failed int) {
	if !m.draining.CompareAndSwap(false, true) {
		return 0, 0
	}
	defer m.draining.Store(false)

	pending, err := m.store.ListPending(ctx)
	if err != nil {
		log.Error().Err(err).Msg("offline queue: listing pending mutations failed")
		return 0, 0
	}

	for i := range pending {
		rec := pending[i]

		err := m.client.Replay(ctx, rec)
		if err == nil {
			if derr := m.store.Delete(ctx, rec.ID); derr != nil {
				log.Error().Err(derr).Str("op_id", rec.ID).Msg("offline queue: delete after success failed")
			}
			processed++
			m.notify(Event{Type: EventSyncSuccess, Mutation: &rec})
			continue
		}

		failed++
		now := time.Now().UTC()
		rec.RetryCount++
		rec.LastError = err.Error()
		rec.LastAttempt = &now

		if rec.RetryCount >= rec.MaxRetries {
			if derr := m.store.Delete(ctx, rec.ID); derr != nil {
				log.Error().Err(derr).Str("op_id", rec.ID).Msg("offline queue: evict failed")
			}
			log.Warn().
				Str("op_id", rec.ID).
				Str("type", rec.Type).
				Str("last_error", rec.LastError).
				Msg("offline queue: mutation dropped after max retries")
			m.notify(Event{Type: EventSyncFailed, Mutation: &rec, Err: rec.LastError})
			continue
		}
		if serr := m.store.Save(ctx, &rec); serr != nil {
			log.Error().Err(serr).Str("op_id", rec.ID).Msg("offline queue: retry bookkeeping failed")
		}
	}

	m.notify(Event{Type: EventSyncComplete, Processed: processed, Failed: failed})
	return processed, failed
}

// Kick requests an immediate drain from the Run loop (used by connectivity
// listeners and pull-to-refresh). Non-blocking; redundant kicks coalesce.
func (m *Manager) Kick() {
	select {
	case m.kick <- struct{}{}:
	default:
	}
}

// Run drains the queue on a periodic background-sync tick and whenever Kick
// is called, until ctx is cancelled. Intervals <= 0 default to 30s.
func (m *Manager) Run(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = 30 * time.Second
	}
	t := time.NewTicker(interval)
	defer t.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			m.Drain(ctx)
		case <-m.kick:
			m.Drain(ctx)
		}
	}
}

// Package offline implements the client-side durable mutation queue and the
// sync manager that replays it against the live API.
//
// The queue is the mobile/PWA companion's safety net: writes captured while
// the device is offline (or while a request fails) are persisted locally and
// replayed when connectivity returns. Replays are safe to repeat because
// every queued check-in carries a client-chosen correlation token and the
// server resolves duplicates through its (service, user) uniqueness lookup.
//
// This file defines the durable storage handle. The store is injected into
// the Manager at construction — there is no module-level singleton — so
// tests run against an in-memory SQLite database.
package offline

import (
	"context"
	"time"

	sqlite "github.com/glebarez/sqlite"
	"gorm.io/gorm"

	"github.com/tbourn/go-attendance-backend/internal/domain"
)

// Store is the durable storage contract for queued mutations.
type Store interface {
	// Save inserts or updates a mutation record.
	Save(ctx context.Context, m *domain.QueuedMutation) error

	// Delete removes a mutation by id. Deleting a missing id is not an error.
	Delete(ctx context.Context, id string) error

	// ListPending returns all queued mutations ordered by
	// (priority desc, created_at asc): urgent first, oldest first within a
	// priority band.
	ListPending(ctx context.Context) ([]domain.QueuedMutation, error)

	// Count returns the number of queued mutations.
	Count(ctx context.Context) (int64, error)
}

// GormStore persists queued mutations in a local SQLite database through
// GORM, the same persistence idiom the server store uses.
type GormStore struct {
	db *gorm.DB
}

// OpenQueueDB opens (or creates) the local queue database and migrates its
// schema. Pass ":memory:" (or a file: DSN with mode=memory) in tests.
func OpenQueueDB(path string) (*GormStore, error) {
	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{})
	if err != nil {
		return nil, err
	}
	db.Exec("PRAGMA journal_mode=WAL;")
	db.Exec("PRAGMA busy_timeout=5000;")
	if err := db.AutoMigrate(&domain.QueuedMutation{}); err != nil {
		return nil, err
	}
	return &GormStore{db: db}, nil
}

// NewGormStore wraps an already-open GORM handle (tests).
func NewGormStore(db *gorm.DB) *GormStore { return &GormStore{db: db} }

// Save implements Store.
func (s *GormStore) Save(ctx context.Context, m *domain.QueuedMutation) error {
	m.UpdatedAt = time.Now().UTC()
	return s.db.WithContext(ctx).Save(m).Error
}

// Delete implements Store.
func (s *GormStore) Delete(ctx context.Context, id string) error {
	return s.db.WithContext(ctx).Delete(&domain.QueuedMutation{}, "id = ?", id).Error
}

// ListPending implements Store.
func (s *GormStore) ListPending(ctx context.Context) ([]domain.QueuedMutation, error) {
	var out []domain.QueuedMutation
	err := s.db.WithContext(ctx).
		Order("priority desc, created_at asc").
		Find(&out).Error
	return out, err
}

// Count implements Store.
func (s *GormStore) Count(ctx context.Context) (int64, error) {
	var total int64
	err := s.db.WithContext(ctx).
		Model(&domain.QueuedMutation{}).
		Count(&total).Error
	return total, err
}

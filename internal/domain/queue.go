// Package domain defines the core persistence models for the application.
// This file holds the client-side offline queue model, stored in a local
// SQLite database separate from the server store.
package domain

import "time"

// QueuedMutation is a durable record of a pending write captured while the
// client was offline (or while a request failed). It is replayed against the
// live API when connectivity returns, and deleted once the server round-trip
// reaches a terminal state: success, or permanent failure after MaxRetries.
type QueuedMutation struct {
	ID          string    `gorm:"type:char(36);primaryKey"`
	Type        string    `gorm:"type:varchar(32);not null;index"`
	Method      string    `gorm:"type:varchar(8);not null"`
	Endpoint    string    `gorm:"type:varchar(255);not null"`
	Headers     string    `gorm:"type:text"` // JSON-encoded map, replayed verbatim
	Payload     []byte    `gorm:"type:blob;not null"`
	Priority    int       `gorm:"not null;default:0;index:idx_queue_order,priority:1,sort:desc"`
	RetryCount  int       `gorm:"not null;default:0"`
	MaxRetries  int       `gorm:"not null;default:3"`
	LastError   string    `gorm:"type:text"`
	LastAttempt *time.Time
	CreatedAt   time.Time `gorm:"index:idx_queue_order,priority:2"`
	UpdatedAt   time.Time
}

// TableName implements the GORM tabler interface.
func (QueuedMutation) TableName() string { return "queued_mutations" }

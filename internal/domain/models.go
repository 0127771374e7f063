// Package domain defines the persistence models for services and check-ins.
// These types are mapped with GORM and form the core data layer of the
// attendance backend.
package domain

import (
	"time"

	"gorm.io/gorm"
)

// Service represents a single scheduled church service (a Sunday gathering,
// a midweek event, etc.) that members check in to. Services are scoped to a
// tenant and belong to exactly one local church.
//
// Fields:
//   - ID: stable UUID primary key (char(36)).
//   - TenantID: owning tenant; every lookup is filtered by it.
//   - ChurchID: the local church this service belongs to; authorization
//     compares it against the caller's church.
//   - Name: human-readable service name.
//   - Date: scheduled date of the service.
//   - CreatedAt / UpdatedAt: timestamps managed by GORM.
//   - DeletedAt: soft deletion marker (retains row for audit/history).
type Service struct {
	ID        string         `json:"id"         gorm:"type:char(36);primaryKey"`
	TenantID  string         `json:"tenant_id"  gorm:"type:varchar(64);not null;index:idx_tenant_services"`
	ChurchID  string         `json:"church_id"  gorm:"type:varchar(64);not null;index"`
	Name      string         `json:"name"       gorm:"type:varchar(255);not null;default:'Sunday Service'"`
	Date      time.Time      `json:"date"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `json:"-"          gorm:"index"`
}

// TableName returns the database table name for Service.
func (Service) TableName() string { return "services" }

// CheckIn represents one attendance record: a member checked in to a
// service. At most one row may exist per (service_id, user_id) pair; the
// composite unique index below is the final race-safety backstop for
// concurrent bulk-sync requests, and the conflict-resolution logic in the
// sync service is built around it.
//
// Fields:
//   - ID: UUID primary key (char(36)), server-assigned and stable.
//   - ServiceID: foreign key to the attended service (unique per user).
//   - UserID: identifier of the member who checked in (unique per service).
//   - CheckInTime: caller-supplied attendance timestamp; the only field
//     mutated under last-write-wins conflict resolution.
//   - CheckedOutAt: optional checkout timestamp; rows where it is NULL
//     count toward "currently present".
//   - IsNewBeliever: flag carried from the mobile check-in flow.
//   - CreatedAt / UpdatedAt: timestamps managed by GORM.
//
// Check-ins are never deleted by the sync subsystem.
type CheckIn struct {
	ID            string     `json:"id"              gorm:"type:char(36);primaryKey"`
	ServiceID     string     `json:"service_id"      gorm:"type:char(36);not null;index;uniqueIndex:ux_checkin_service_user"`
	UserID        string     `json:"user_id"         gorm:"type:varchar(64);not null;index;uniqueIndex:ux_checkin_service_user"`
	CheckInTime   time.Time  `json:"checkin_time"    gorm:"not null"`
	CheckedOutAt  *time.Time `json:"checked_out_at,omitempty"`
	IsNewBeliever bool       `json:"is_new_believer" gorm:"not null;default:false"`
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at"`

	// Service is the attended service. Check-ins are cascade-deleted
	// if their service is removed by the admin CRUD layer.
	Service Service `json:"-" gorm:"foreignKey:ServiceID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`
}

// TableName returns the database table name for CheckIn.
func (CheckIn) TableName() string { return "checkins" }

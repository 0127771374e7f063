// Package handlers provides HTTP handler implementations for the public API.
// This file wires the handler group to its service dependencies.
package handlers

import (
	"github.com/tbourn/go-attendance-backend/internal/broadcast"
)

// defaultMaxBatch is the bulk sync payload cap when none is configured. It
// must stay in sync with the service-level default so both gates agree.
const defaultMaxBatch = 100

// Handlers groups HTTP endpoints for check-in sync and attendance queries.
// It depends on abstract service interfaces to keep transport concerns
// separate from business logic.
type Handlers struct {
	syncSvc  SyncService
	attSvc   AttendanceService
	hub      *broadcast.Hub
	maxBatch int
}

// New constructs and returns a Handlers instance bound to the given services.
// hub may be nil when the live attendance feed is disabled. maxBatch caps the
// bulk sync payload size; pass the same value configured on the sync service,
// or <= 0 for the default.
func New(syncSvc SyncService, attSvc AttendanceService, hub *broadcast.Hub, maxBatch int) *Handlers {
	if maxBatch <= 0 {
		maxBatch = defaultMaxBatch
	}
	return &Handlers{syncSvc: syncSvc, attSvc: attSvc, hub: hub, maxBatch: maxBatch}
}

// Package models defines the append-only driver status history.
package models

import (
	"time"

	driverModels "vetting/internal/driver/models"
	id "vetting/pkg/domain"
)

// Event records one committed status transition. Sequence equals the driver
// version the transition produced, so events for one driver are totally
// ordered even when an append is retried out of band.
type Event struct {
	ID                id.EventID
	DriverID          id.DriverID
	Sequence          int64
	Action            driverModels.Action
	Status            driverModels.Status
	PreviousStatus    driverModels.Status
	ChangedBy         string
	VerificationLevel *int
	Notes             string
	CreatedAt         time.Time
}

// FromTransition builds the event for a committed transition.
func FromTransition(driverID id.DriverID, t driverModels.Transition) Event {
	e := Event{
		ID:             id.NewEventID(),
		DriverID:       driverID,
		Sequence:       t.Version,
		Action:         t.Action,
		Status:         t.To,
		PreviousStatus: t.From,
		ChangedBy:      t.Actor,
		Notes:          t.Notes,
		CreatedAt:      t.At,
	}
	if t.Level > 0 {
		level := t.Level
		e.VerificationLevel = &level
	}
	return e
}

// SameAs reports whether two events describe the same append. Retried appends
// carry the same ID.
func (e Event) SameAs(other Event) bool {
	return e.ID == other.ID && e.DriverID == other.DriverID && e.Sequence == other.Sequence
}

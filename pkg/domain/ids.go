// Package domain holds typed identifiers shared across modules. Each ID is a
// distinct type over uuid.UUID so a DriverID can never be passed where an
// ArtifactID is expected.
package domain

import (
	"strings"

	"github.com/google/uuid"

	dErrors "vetting/pkg/domain-errors"
)

type (
	DriverID   uuid.UUID
	ArtifactID uuid.UUID
	EventID    uuid.UUID
)

func NewDriverID() DriverID     { return DriverID(uuid.New()) }
func NewArtifactID() ArtifactID { return ArtifactID(uuid.New()) }
func NewEventID() EventID       { return EventID(uuid.New()) }

func (id DriverID) String() string   { return uuid.UUID(id).String() }
func (id ArtifactID) String() string { return uuid.UUID(id).String() }
func (id EventID) String() string    { return uuid.UUID(id).String() }

func (id DriverID) IsNil() bool   { return uuid.UUID(id) == uuid.Nil }
func (id ArtifactID) IsNil() bool { return uuid.UUID(id) == uuid.Nil }
func (id EventID) IsNil() bool    { return uuid.UUID(id) == uuid.Nil }

func (id DriverID) MarshalText() ([]byte, error)   { return []byte(id.String()), nil }
func (id ArtifactID) MarshalText() ([]byte, error) { return []byte(id.String()), nil }
func (id EventID) MarshalText() ([]byte, error)    { return []byte(id.String()), nil }

func ParseDriverID(s string) (DriverID, error) {
	u, err := parseUUID(s, "driver")
	return DriverID(u), err
}

func ParseArtifactID(s string) (ArtifactID, error) {
	u, err := parseUUID(s, "artifact")
	return ArtifactID(u), err
}

func ParseEventID(s string) (EventID, error) {
	u, err := parseUUID(s, "history event")
	return EventID(u), err
}

// maxIDLength rejects oversized input before handing it to the parser.
const maxIDLength = 64

func parseUUID(s, kind string) (uuid.UUID, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, kind+" id is required")
	}
	if len(s) > maxIDLength {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, "invalid "+kind+" id")
	}
	u, err := uuid.Parse(s)
	if err != nil {
		return uuid.Nil, dErrors.Wrap(err, dErrors.CodeInvalidInput, "invalid "+kind+" id")
	}
	if u == uuid.Nil {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, kind+" id must not be nil")
	}
	return u, nil
}

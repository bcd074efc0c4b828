// Package models defines the driver application aggregate and its lifecycle.
package models

import (
	"strings"
	"time"

	id "vetting/pkg/domain"
	dErrors "vetting/pkg/domain-errors"
)

// Level values. Level 1 is a display baseline that no action assigns.
const (
	LevelNone     = 0
	LevelBaseline = 1
	LevelStandard = 2
	LevelSltda    = 3
)

// Driver is a driver or guide application. The record store owns it; services
// hold a copy only for the duration of one operation.
type Driver struct {
	ID               id.DriverID
	Tier             Tier
	FullName         string
	YearsExperience  int
	Status           Status
	VerifiedLevel    int
	IsSltdaApproved  bool
	SuspensionReason string

	LicenseExpiry         *time.Time
	PoliceClearanceExpiry *time.Time
	MedicalExpiry         *time.Time
	SltdaLicenseExpiry    *time.Time

	Version   int64
	CreatedAt time.Time
	UpdatedAt time.Time
}

// NewDriver creates an application in status incomplete.
func NewDriver(tier Tier, fullName string, yearsExperience int, now time.Time) (*Driver, error) {
	fullName = strings.TrimSpace(fullName)
	if fullName == "" {
		return nil, dErrors.New(dErrors.CodeValidation, "full name is required")
	}
	if yearsExperience < 0 {
		return nil, dErrors.New(dErrors.CodeValidation, "years of experience cannot be negative")
	}
	return &Driver{
		ID:              id.NewDriverID(),
		Tier:            tier,
		FullName:        fullName,
		YearsExperience: yearsExperience,
		Status:          StatusIncomplete,
		VerifiedLevel:   LevelNone,
		Version:         1,
		CreatedAt:       now,
		UpdatedAt:       now,
	}, nil
}

// Transition describes one committed lifecycle step.
type Transition struct {
	Action  Action
	From    Status
	To      Status
	Level   int
	Notes   string
	Actor   string
	At      time.Time
	Version int64
}

// CanApply validates action against the current state without mutating it.
func (d *Driver) CanApply(action Action, notes string) error {
	if _, err := d.Status.Next(action); err != nil {
		return err
	}
	if action.RequiresNotes() && strings.TrimSpace(notes) == "" {
		return dErrors.New(dErrors.CodeValidation, "notes are required to "+string(action))
	}
	return nil
}

// Apply mutates the driver for action and returns the transition record. The
// version is incremented exactly once per applied transition.
func (d *Driver) Apply(action Action, notes, actor string, now time.Time) (Transition, error) {
	if err := d.CanApply(action, notes); err != nil {
		return Transition{}, err
	}
	to, _ := d.Status.Next(action)
	from := d.Status
	notes = strings.TrimSpace(notes)

	switch action {
	case ActionApproveLevel2:
		d.VerifiedLevel = LevelStandard
		d.IsSltdaApproved = false
		d.SuspensionReason = ""
	case ActionApproveLevel3:
		d.VerifiedLevel = LevelSltda
		d.IsSltdaApproved = true
		d.SuspensionReason = ""
	case ActionReject:
		d.VerifiedLevel = LevelNone
		d.IsSltdaApproved = false
		d.SuspensionReason = notes
	default:
		d.VerifiedLevel = LevelNone
		d.IsSltdaApproved = false
		if to != StatusSuspended {
			d.SuspensionReason = ""
		}
	}

	d.Status = to
	d.Version++
	d.UpdatedAt = now

	t := Transition{
		Action:  action,
		From:    from,
		To:      to,
		Notes:   notes,
		Actor:   actor,
		At:      now,
		Version: d.Version,
	}
	if to == StatusVerified {
		t.Level = d.VerifiedLevel
	}
	return t, nil
}

// Credentials are the dated credentials recorded on the application.
type Credentials struct {
	LicenseExpiry         *time.Time
	PoliceClearanceExpiry *time.Time
	MedicalExpiry         *time.Time
	SltdaLicenseExpiry    *time.Time
}

// ApplyCredentials replaces the recorded expiry dates. It has no effect on
// status.
func (d *Driver) ApplyCredentials(c Credentials, now time.Time) {
	d.LicenseExpiry = c.LicenseExpiry
	d.PoliceClearanceExpiry = c.PoliceClearanceExpiry
	d.MedicalExpiry = c.MedicalExpiry
	d.SltdaLicenseExpiry = c.SltdaLicenseExpiry
	d.Version++
	d.UpdatedAt = now
}

// CheckInvariants verifies the level and SLTDA rules hold for the record.
func (d *Driver) CheckInvariants() error {
	if d.VerifiedLevel < LevelNone || d.VerifiedLevel > LevelSltda {
		return dErrors.New(dErrors.CodeInvariantViolation, "verified level out of range")
	}
	if (d.VerifiedLevel > LevelNone) != (d.Status == StatusVerified) {
		return dErrors.New(dErrors.CodeInvariantViolation, "verified level must be set exactly when verified")
	}
	if d.IsSltdaApproved && d.VerifiedLevel != LevelSltda {
		return dErrors.New(dErrors.CodeInvariantViolation, "sltda approval requires level 3")
	}
	return nil
}

// Clone returns a deep copy so stores never share mutable state with callers.
func (d *Driver) Clone() *Driver {
	c := *d
	c.LicenseExpiry = clonePtr(d.LicenseExpiry)
	c.PoliceClearanceExpiry = clonePtr(d.PoliceClearanceExpiry)
	c.MedicalExpiry = clonePtr(d.MedicalExpiry)
	c.SltdaLicenseExpiry = clonePtr(d.SltdaLicenseExpiry)
	return &c
}

func clonePtr(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	v := *t
	return &v
}

// Filter selects drivers for listing. Empty Statuses means all.
type Filter struct {
	Statuses []Status
	Tier     Tier
	Limit    int
}

// Matches reports whether d passes the filter.
func (f Filter) Matches(d *Driver) bool {
	if f.Tier != "" && d.Tier != f.Tier {
		return false
	}
	if len(f.Statuses) == 0 {
		return true
	}
	for _, s := range f.Statuses {
		if d.Status == s {
			return true
		}
	}
	return false
}

// Package models defines uploaded verification artifacts and the per-tier
// requirement table.
package models

import (
	"time"

	id "vetting/pkg/domain"
	dErrors "vetting/pkg/domain-errors"
)

// Class separates documents from photos. Admin decisions name the class they
// expect so a stale UI cannot approve the wrong thing.
type Class string

const (
	ClassDocument Class = "document"
	ClassPhoto    Class = "photo"
)

func ParseClass(s string) (Class, error) {
	switch c := Class(s); c {
	case ClassDocument, ClassPhoto:
		return c, nil
	default:
		return "", dErrors.New(dErrors.CodeValidation, "class must be document or photo")
	}
}

// Kind is the specific document or photo type.
type Kind string

const (
	KindNationalID               Kind = "national_id"
	KindDrivingLicense           Kind = "driving_license"
	KindSltdaLicense             Kind = "slt_da_license"
	KindPoliceClearance          Kind = "police_clearance"
	KindMedicalReport            Kind = "medical_report"
	KindGramaNiladariCertificate Kind = "grama_niladari_certificate"
	KindVehicleRevenueLicense    Kind = "vehicle_revenue_license"
	KindVehicleInsurance         Kind = "vehicle_insurance"
	KindVehicleRegistration      Kind = "vehicle_registration"
	KindVehiclePermit            Kind = "vehicle_permit"

	KindSelfieWithID    Kind = "selfie_with_id"
	KindVehicleFront    Kind = "vehicle_front"
	KindVehicleBack     Kind = "vehicle_back"
	KindVehicleSide     Kind = "vehicle_side"
	KindVehicleInterior Kind = "vehicle_interior"
	KindVideoIntro      Kind = "video_intro"
)

var kindClass = map[Kind]Class{
	KindNationalID:               ClassDocument,
	KindDrivingLicense:           ClassDocument,
	KindSltdaLicense:             ClassDocument,
	KindPoliceClearance:          ClassDocument,
	KindMedicalReport:            ClassDocument,
	KindGramaNiladariCertificate: ClassDocument,
	KindVehicleRevenueLicense:    ClassDocument,
	KindVehicleInsurance:         ClassDocument,
	KindVehicleRegistration:      ClassDocument,
	KindVehiclePermit:            ClassDocument,
	KindSelfieWithID:             ClassPhoto,
	KindVehicleFront:             ClassPhoto,
	KindVehicleBack:              ClassPhoto,
	KindVehicleSide:              ClassPhoto,
	KindVehicleInterior:          ClassPhoto,
	KindVideoIntro:               ClassPhoto,
}

// ParseKind validates a kind and returns the class it belongs to.
func ParseKind(s string) (Kind, Class, error) {
	k := Kind(s)
	c, ok := kindClass[k]
	if !ok {
		return "", "", dErrors.New(dErrors.CodeValidation, "unknown artifact kind "+s)
	}
	return k, c, nil
}

// Status is the per-artifact verification state.
type Status string

const (
	StatusPending  Status = "pending"
	StatusApproved Status = "approved"
	StatusRejected Status = "rejected"
)

// Decision is an admin verdict on one artifact.
type Decision string

const (
	DecisionApprove Decision = "approve"
	DecisionReject  Decision = "reject"
)

func ParseDecision(s string) (Decision, error) {
	switch d := Decision(s); d {
	case DecisionApprove, DecisionReject:
		return d, nil
	default:
		return "", dErrors.New(dErrors.CodeValidation, "decision must be approve or reject")
	}
}

// Artifact is an uploaded document or photo. It is never deleted; a correction
// is a new artifact of the same kind.
type Artifact struct {
	ID               id.ArtifactID
	DriverID         id.DriverID
	Class            Class
	Kind             Kind
	Status           Status
	VerificationDate *time.Time
	DecidedBy        string
	UploadedAt       time.Time
	Version          int64
}

// CanDecide validates a decision against the artifact before any write.
func (a *Artifact) CanDecide(class Class) error {
	if a.Class != class {
		return dErrors.New(dErrors.CodeValidation, "artifact is a "+string(a.Class)+", not a "+string(class))
	}
	return nil
}

// ApplyDecision records the verdict. Re-deciding an already decided artifact
// overwrites the earlier verdict.
func (a *Artifact) ApplyDecision(d Decision, actor string, now time.Time) {
	if d == DecisionApprove {
		a.Status = StatusApproved
	} else {
		a.Status = StatusRejected
	}
	a.VerificationDate = &now
	a.DecidedBy = actor
	a.Version++
}

// Counts is true when the artifact satisfies a requirement.
func (a *Artifact) Counts() bool {
	return a.Status == StatusPending || a.Status == StatusApproved
}

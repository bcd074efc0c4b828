package handler

import (
	"strings"
	"time"

	driverModels "vetting/internal/driver/models"
	dErrors "vetting/pkg/domain-errors"
	pstrings "vetting/pkg/platform/strings"
)

type decisionRequest struct {
	Action          string `json:"action"`
	Notes           string `json:"notes"`
	ExpectedVersion int64  `json:"expected_version"`
}

func (r *decisionRequest) Validate() error {
	r.Action = strings.TrimSpace(r.Action)
	r.Notes = strings.TrimSpace(r.Notes)
	if r.Action == "" {
		return dErrors.New(dErrors.CodeValidation, "action is required")
	}
	if r.ExpectedVersion <= 0 {
		return dErrors.New(dErrors.CodeValidation, "expected_version is required")
	}
	return nil
}

// lifecycleRequest carries reinstate, deactivate and reactivate. A zero
// expected_version applies to the current record.
type lifecycleRequest struct {
	Notes           string `json:"notes"`
	ExpectedVersion int64  `json:"expected_version"`
}

func (r *lifecycleRequest) Validate() error {
	r.Notes = strings.TrimSpace(r.Notes)
	if r.ExpectedVersion < 0 {
		return dErrors.New(dErrors.CodeValidation, "expected_version must not be negative")
	}
	return nil
}

type artifactDecisionRequest struct {
	Class           string `json:"class"`
	Decision        string `json:"decision"`
	ExpectedVersion int64  `json:"expected_version"`
}

func (r *artifactDecisionRequest) Validate() error {
	r.Class = strings.TrimSpace(r.Class)
	r.Decision = strings.TrimSpace(r.Decision)
	if r.Class == "" {
		return dErrors.New(dErrors.CodeValidation, "class is required")
	}
	if r.Decision == "" {
		return dErrors.New(dErrors.CodeValidation, "decision is required")
	}
	if r.ExpectedVersion < 0 {
		return dErrors.New(dErrors.CodeValidation, "expected_version must not be negative")
	}
	return nil
}

type credentialsPayload struct {
	LicenseExpiry         *time.Time `json:"license_expiry,omitempty"`
	PoliceClearanceExpiry *time.Time `json:"police_clearance_expiry,omitempty"`
	MedicalExpiry         *time.Time `json:"medical_expiry,omitempty"`
	SltdaLicenseExpiry    *time.Time `json:"sltda_license_expiry,omitempty"`
}

func (p credentialsPayload) toModel() driverModels.Credentials {
	return driverModels.Credentials{
		LicenseExpiry:         p.LicenseExpiry,
		PoliceClearanceExpiry: p.PoliceClearanceExpiry,
		MedicalExpiry:         p.MedicalExpiry,
		SltdaLicenseExpiry:    p.SltdaLicenseExpiry,
	}
}

type registerDriverRequest struct {
	Tier            string             `json:"tier"`
	FullName        string             `json:"full_name"`
	YearsExperience int                `json:"years_experience"`
	Credentials     credentialsPayload `json:"credentials"`
}

func (r *registerDriverRequest) Validate() error {
	r.Tier = strings.TrimSpace(r.Tier)
	r.FullName = strings.TrimSpace(r.FullName)
	if r.Tier == "" {
		return dErrors.New(dErrors.CodeValidation, "tier is required")
	}
	if r.FullName == "" {
		return dErrors.New(dErrors.CodeValidation, "full_name is required")
	}
	if r.YearsExperience < 0 {
		return dErrors.New(dErrors.CodeValidation, "years_experience must not be negative")
	}
	return nil
}

type registerArtifactRequest struct {
	Class string `json:"class"`
	Kind  string `json:"kind"`
}

func (r *registerArtifactRequest) Validate() error {
	r.Class = strings.TrimSpace(r.Class)
	r.Kind = strings.TrimSpace(r.Kind)
	if r.Kind == "" {
		return dErrors.New(dErrors.CodeValidation, "kind is required")
	}
	return nil
}

type updateCredentialsRequest struct {
	credentialsPayload
	ExpectedVersion int64 `json:"expected_version"`
}

func (r *updateCredentialsRequest) Validate() error {
	if r.ExpectedVersion < 0 {
		return dErrors.New(dErrors.CodeValidation, "expected_version must not be negative")
	}
	return nil
}

// parseStatuses reads the comma-separated status filter.
func parseStatuses(raw string) ([]driverModels.Status, error) {
	var out []driverModels.Status
	for _, part := range pstrings.SplitList(raw) {
		st, err := driverModels.ParseStatus(part)
		if err != nil {
			return nil, err
		}
		out = append(out, st)
	}
	return out, nil
}

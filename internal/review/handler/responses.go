package handler

import (
	"time"

	artifactModels "vetting/internal/artifact/models"
	driverModels "vetting/internal/driver/models"
	driverService "vetting/internal/driver/service"
	"vetting/internal/expiry"
	historyModels "vetting/internal/history/models"
	reviewService "vetting/internal/review/service"
	"vetting/internal/risk"
)

type driverResponse struct {
	ID                    string     `json:"id"`
	Tier                  string     `json:"tier"`
	FullName              string     `json:"full_name"`
	YearsExperience       int        `json:"years_experience"`
	Status                string     `json:"status"`
	VerifiedLevel         int        `json:"verified_level"`
	IsSltdaApproved       bool       `json:"is_sltda_approved"`
	SuspensionReason      string     `json:"suspension_reason,omitempty"`
	LicenseExpiry         *time.Time `json:"license_expiry,omitempty"`
	PoliceClearanceExpiry *time.Time `json:"police_clearance_expiry,omitempty"`
	MedicalExpiry         *time.Time `json:"medical_expiry,omitempty"`
	SltdaLicenseExpiry    *time.Time `json:"sltda_license_expiry,omitempty"`
	Version               int64      `json:"version"`
	CreatedAt             time.Time  `json:"created_at"`
	UpdatedAt             time.Time  `json:"updated_at"`
}

func toDriverResponse(d *driverModels.Driver) driverResponse {
	return driverResponse{
		ID:                    d.ID.String(),
		Tier:                  string(d.Tier),
		FullName:              d.FullName,
		YearsExperience:       d.YearsExperience,
		Status:                string(d.Status),
		VerifiedLevel:         d.VerifiedLevel,
		IsSltdaApproved:       d.IsSltdaApproved,
		SuspensionReason:      d.SuspensionReason,
		LicenseExpiry:         d.LicenseExpiry,
		PoliceClearanceExpiry: d.PoliceClearanceExpiry,
		MedicalExpiry:         d.MedicalExpiry,
		SltdaLicenseExpiry:    d.SltdaLicenseExpiry,
		Version:               d.Version,
		CreatedAt:             d.CreatedAt,
		UpdatedAt:             d.UpdatedAt,
	}
}

type artifactResponse struct {
	ID               string     `json:"id"`
	DriverID         string     `json:"driver_id"`
	Class            string     `json:"class"`
	Kind             string     `json:"kind"`
	Status           string     `json:"status"`
	VerificationDate *time.Time `json:"verification_date,omitempty"`
	DecidedBy        string     `json:"decided_by,omitempty"`
	UploadedAt       time.Time  `json:"uploaded_at"`
	Version          int64      `json:"version"`
}

func toArtifactResponse(a *artifactModels.Artifact) artifactResponse {
	return artifactResponse{
		ID:               a.ID.String(),
		DriverID:         a.DriverID.String(),
		Class:            string(a.Class),
		Kind:             string(a.Kind),
		Status:           string(a.Status),
		VerificationDate: a.VerificationDate,
		DecidedBy:        a.DecidedBy,
		UploadedAt:       a.UploadedAt,
		Version:          a.Version,
	}
}

func toArtifactResponses(in []*artifactModels.Artifact) []artifactResponse {
	out := make([]artifactResponse, 0, len(in))
	for _, a := range in {
		out = append(out, toArtifactResponse(a))
	}
	return out
}

type historyEventResponse struct {
	ID                string    `json:"id"`
	Sequence          int64     `json:"sequence"`
	Action            string    `json:"action"`
	Status            string    `json:"status"`
	PreviousStatus    string    `json:"previous_status"`
	ChangedBy         string    `json:"changed_by"`
	VerificationLevel *int      `json:"verification_level,omitempty"`
	Notes             string    `json:"notes,omitempty"`
	CreatedAt         time.Time `json:"created_at"`
}

func toHistoryResponses(in []historyModels.Event) []historyEventResponse {
	out := make([]historyEventResponse, 0, len(in))
	for _, e := range in {
		out = append(out, historyEventResponse{
			ID:                e.ID.String(),
			Sequence:          e.Sequence,
			Action:            string(e.Action),
			Status:            string(e.Status),
			PreviousStatus:    string(e.PreviousStatus),
			ChangedBy:         e.ChangedBy,
			VerificationLevel: e.VerificationLevel,
			Notes:             e.Notes,
			CreatedAt:         e.CreatedAt,
		})
	}
	return out
}

type queueItemResponse struct {
	Driver         driverResponse  `json:"driver"`
	Risk           risk.Assessment `json:"risk"`
	Expiry         expiry.Report   `json:"expiry"`
	NeedsAttention bool            `json:"needs_attention"`
}

type queueResponse struct {
	Items []queueItemResponse `json:"items"`
	Count int                 `json:"count"`
}

func toQueueResponse(items []reviewService.QueueItem) queueResponse {
	out := queueResponse{Items: make([]queueItemResponse, 0, len(items)), Count: len(items)}
	for _, it := range items {
		out.Items = append(out.Items, queueItemResponse{
			Driver:         toDriverResponse(it.Driver),
			Risk:           it.Risk,
			Expiry:         it.Expiry,
			NeedsAttention: it.NeedsAttention,
		})
	}
	return out
}

type reviewResponse struct {
	Driver         driverResponse               `json:"driver"`
	Documents      []artifactResponse           `json:"documents"`
	Photos         []artifactResponse           `json:"photos"`
	History        []historyEventResponse       `json:"history"`
	Missing        []artifactModels.Requirement `json:"missing"`
	Risk           risk.Assessment              `json:"risk"`
	Expiry         expiry.Report                `json:"expiry"`
	NeedsAttention bool                         `json:"needs_attention"`
	Consistency    *consistencyResponse         `json:"history_consistency,omitempty"`
}

type consistencyResponse struct {
	Consistent    bool   `json:"consistent"`
	Pending       bool   `json:"pending"`
	HistoryStatus string `json:"history_status,omitempty"`
}

func toReviewResponse(r *reviewService.Review) reviewResponse {
	missing := r.Missing
	if missing == nil {
		missing = []artifactModels.Requirement{}
	}
	resp := reviewResponse{
		Driver:         toDriverResponse(r.Driver),
		Documents:      toArtifactResponses(r.Documents),
		Photos:         toArtifactResponses(r.Photos),
		History:        toHistoryResponses(r.History),
		Missing:        missing,
		Risk:           r.Risk,
		Expiry:         r.Expiry,
		NeedsAttention: r.NeedsAttention,
	}
	if c := r.Consistency; c != nil {
		resp.Consistency = &consistencyResponse{
			Consistent:    c.Consistent,
			Pending:       c.Pending,
			HistoryStatus: string(c.HistoryStatus),
		}
	}
	return resp
}

type decisionResponse struct {
	Driver         driverResponse `json:"driver"`
	NewStatus      string         `json:"new_status"`
	HistoryEventID string         `json:"history_event_id"`
	Version        int64          `json:"version"`
	HistoryPending bool           `json:"history_pending,omitempty"`
}

func toDecisionResponse(res *driverService.DecideResult) decisionResponse {
	return decisionResponse{
		Driver:         toDriverResponse(res.Driver),
		NewStatus:      string(res.NewStatus),
		HistoryEventID: res.HistoryEventID.String(),
		Version:        res.Version,
		HistoryPending: res.HistoryPending,
	}
}

type registerArtifactResponse struct {
	Artifact  artifactResponse  `json:"artifact"`
	Submitted *decisionResponse `json:"submitted,omitempty"`
}

package service

import (
	"time"

	artifactModels "vetting/internal/artifact/models"
	driverModels "vetting/internal/driver/models"
	"vetting/internal/expiry"
	"vetting/internal/risk"
	dErrors "vetting/pkg/domain-errors"
)

// experiencedYears is the threshold for the experienced signal.
const experiencedYears = 5

var mandatoryByKind = map[artifactModels.Kind]expiry.Credential{
	artifactModels.KindDrivingLicense:  expiry.CredentialLicense,
	artifactModels.KindPoliceClearance: expiry.CredentialPoliceClearance,
	artifactModels.KindMedicalReport:   expiry.CredentialMedical,
	artifactModels.KindSltdaLicense:    expiry.CredentialSltdaLicense,
}

// CredentialsOf projects a driver's credential expiries for classification.
func CredentialsOf(d *driverModels.Driver) expiry.Credentials {
	return expiry.Credentials{
		License:         d.LicenseExpiry,
		PoliceClearance: d.PoliceClearanceExpiry,
		Medical:         d.MedicalExpiry,
		SltdaLicense:    d.SltdaLicenseExpiry,
	}
}

// MandatoryCredentials lists the dated credentials a tier must hold, derived
// from its required document set.
func MandatoryCredentials(tier driverModels.Tier) []expiry.Credential {
	var out []expiry.Credential
	for _, r := range artifactModels.RequiredSet(tier) {
		if c, ok := mandatoryByKind[r.Kind]; ok {
			out = append(out, c)
		}
	}
	return out
}

// Signals binds the default policy's factors for one driver. Every signal is
// always produced so Policy.Evaluate never sees a gap.
func Signals(d *driverModels.Driver, artifacts []*artifactModels.Artifact, now time.Time) map[string]bool {
	return map[string]bool{
		risk.SignalLicenseValid:         current(d.LicenseExpiry, now),
		risk.SignalPoliceClearanceValid: current(d.PoliceClearanceExpiry, now),
		risk.SignalMedicalValid:         current(d.MedicalExpiry, now),
		risk.SignalSltdaLicensed:        d.IsSltdaApproved || current(d.SltdaLicenseExpiry, now),
		risk.SignalDocumentsApproved:    artifactModels.AllApproved(d.Tier, artifacts, artifactModels.ClassDocument),
		risk.SignalPhotosApproved:       artifactModels.AllApproved(d.Tier, artifacts, artifactModels.ClassPhoto),
		risk.SignalExperienced:          d.YearsExperience >= experiencedYears,
	}
}

// ValidatePolicy rejects a policy book whose active policy weights a signal
// that Signals never produces. Historical versions are left alone so old
// scores stay reproducible.
func ValidatePolicy(book *risk.PolicyBook) error {
	produced := Signals(&driverModels.Driver{}, nil, time.Time{})
	if _, err := book.Current().Evaluate(produced); err != nil {
		return dErrors.Wrap(err, dErrors.CodeInvalidInput, "active risk policy cannot be scored")
	}
	return nil
}

func current(date *time.Time, now time.Time) bool {
	return date != nil && expiry.Classify(date, now) != expiry.StatusExpired
}

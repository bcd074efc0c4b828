package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	driverModels "vetting/internal/driver/models"
	dErrors "vetting/pkg/domain-errors"
)

func uploaded(tier driverModels.Tier, status Status) []*Artifact {
	var out []*Artifact
	for _, r := range RequiredSet(tier) {
		out = append(out, &Artifact{Class: r.Class, Kind: r.Kind, Status: status})
	}
	return out
}

func TestRequiredSet(t *testing.T) {
	t.Run("national guide needs no vehicle photos", func(t *testing.T) {
		set := RequiredSet(driverModels.TierNationalGuide)
		assert.Len(t, set, 6)
		assert.NotContains(t, set, Requirement{Class: ClassPhoto, Kind: KindVehicleFront})
		assert.Contains(t, set, Requirement{Class: ClassPhoto, Kind: KindSelfieWithID})
	})

	t.Run("freelance driver skips sltda and police", func(t *testing.T) {
		set := RequiredSet(driverModels.TierFreelanceDriver)
		assert.NotContains(t, set, Requirement{Class: ClassDocument, Kind: KindSltdaLicense})
		assert.NotContains(t, set, Requirement{Class: ClassDocument, Kind: KindPoliceClearance})
		assert.Contains(t, set, Requirement{Class: ClassPhoto, Kind: KindVehicleInterior})
	})

	t.Run("video intro is never required", func(t *testing.T) {
		for _, tier := range []driverModels.Tier{
			driverModels.TierChauffeurGuide, driverModels.TierNationalGuide,
			driverModels.TierTouristDriver, driverModels.TierFreelanceDriver,
		} {
			assert.NotContains(t, RequiredSet(tier), Requirement{Class: ClassPhoto, Kind: KindVideoIntro}, tier)
		}
	})

	t.Run("returns a copy", func(t *testing.T) {
		set := RequiredSet(driverModels.TierChauffeurGuide)
		set[0].Kind = KindVideoIntro
		assert.Equal(t, KindSltdaLicense, RequiredSet(driverModels.TierChauffeurGuide)[0].Kind)
	})
}

func TestMissing(t *testing.T) {
	tier := driverModels.TierTouristDriver

	assert.Empty(t, Missing(tier, uploaded(tier, StatusPending)))
	assert.Len(t, Missing(tier, nil), len(RequiredSet(tier)))

	all := uploaded(tier, StatusApproved)
	all[0].Status = StatusRejected
	missing := Missing(tier, all)
	require.Len(t, missing, 1)
	assert.Equal(t, KindDrivingLicense, missing[0].Kind)

	// a fresh upload of the rejected kind satisfies it again
	all = append(all, &Artifact{Class: ClassDocument, Kind: KindDrivingLicense, Status: StatusPending})
	assert.Empty(t, Missing(tier, all))
}

func TestAllApproved(t *testing.T) {
	tier := driverModels.TierNationalGuide
	all := uploaded(tier, StatusApproved)
	assert.True(t, AllApproved(tier, all, ClassDocument))
	assert.True(t, AllApproved(tier, all, ClassPhoto))

	all[len(all)-1].Status = StatusPending
	assert.False(t, AllApproved(tier, all, ClassPhoto))
	assert.True(t, AllApproved(tier, all, ClassDocument))
}

func TestParseKind(t *testing.T) {
	kind, class, err := ParseKind("vehicle_side")
	require.NoError(t, err)
	assert.Equal(t, KindVehicleSide, kind)
	assert.Equal(t, ClassPhoto, class)

	_, _, err = ParseKind("passport")
	assert.True(t, dErrors.HasCode(err, dErrors.CodeValidation))
}

func TestDecision(t *testing.T) {
	a := &Artifact{Class: ClassDocument, Kind: KindMedicalReport, Status: StatusPending, Version: 1}
	assert.True(t, dErrors.HasCode(a.CanDecide(ClassPhoto), dErrors.CodeValidation))
	require.NoError(t, a.CanDecide(ClassDocument))

	now := time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)
	a.ApplyDecision(DecisionReject, "admin-1", now)
	assert.Equal(t, StatusRejected, a.Status)
	assert.False(t, a.Counts())
	assert.Equal(t, int64(2), a.Version)
	require.NotNil(t, a.VerificationDate)
	assert.Equal(t, now, *a.VerificationDate)

	_, err := ParseDecision("maybe")
	assert.Error(t, err)
}

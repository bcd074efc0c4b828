package models

import (
	driverModels "vetting/internal/driver/models"
)

// Requirement is one mandatory artifact kind for a tier.
type Requirement struct {
	Class Class `json:"class"`
	Kind  Kind  `json:"kind"`
}

func doc(k Kind) Requirement   { return Requirement{Class: ClassDocument, Kind: k} }
func photo(k Kind) Requirement { return Requirement{Class: ClassPhoto, Kind: k} }

var vehiclePhotos = []Requirement{
	photo(KindVehicleFront),
	photo(KindVehicleBack),
	photo(KindVehicleSide),
	photo(KindVehicleInterior),
}

// requiredByTier is fixed; video_intro is optional for every tier.
var requiredByTier = map[driverModels.Tier][]Requirement{
	driverModels.TierChauffeurGuide: append([]Requirement{
		doc(KindSltdaLicense),
		doc(KindDrivingLicense),
		doc(KindNationalID),
		doc(KindPoliceClearance),
		doc(KindMedicalReport),
		doc(KindVehicleRevenueLicense),
		doc(KindVehicleInsurance),
		photo(KindSelfieWithID),
	}, vehiclePhotos...),
	driverModels.TierNationalGuide: {
		doc(KindSltdaLicense),
		doc(KindDrivingLicense),
		doc(KindNationalID),
		doc(KindPoliceClearance),
		doc(KindMedicalReport),
		photo(KindSelfieWithID),
	},
	driverModels.TierTouristDriver: append([]Requirement{
		doc(KindDrivingLicense),
		doc(KindNationalID),
		doc(KindPoliceClearance),
		doc(KindVehicleRevenueLicense),
		doc(KindVehicleInsurance),
		photo(KindSelfieWithID),
	}, vehiclePhotos...),
	driverModels.TierFreelanceDriver: append([]Requirement{
		doc(KindDrivingLicense),
		doc(KindNationalID),
		doc(KindVehicleRevenueLicense),
		doc(KindVehicleInsurance),
		photo(KindSelfieWithID),
	}, vehiclePhotos...),
}

// RequiredSet returns a copy of the mandatory artifacts for tier. Unknown tiers
// have no requirements table and return nil.
func RequiredSet(tier driverModels.Tier) []Requirement {
	req := requiredByTier[tier]
	if req == nil {
		return nil
	}
	out := make([]Requirement, len(req))
	copy(out, req)
	return out
}

// Missing diffs uploaded artifacts against the tier's required set. A kind is
// satisfied by any pending or approved artifact; rejected ones do not count.
func Missing(tier driverModels.Tier, uploaded []*Artifact) []Requirement {
	have := make(map[Requirement]struct{}, len(uploaded))
	for _, a := range uploaded {
		if a.Counts() {
			have[Requirement{Class: a.Class, Kind: a.Kind}] = struct{}{}
		}
	}
	var missing []Requirement
	for _, r := range RequiredSet(tier) {
		if _, ok := have[r]; !ok {
			missing = append(missing, r)
		}
	}
	return missing
}

// AllApproved reports whether every required artifact of class has an approved
// upload.
func AllApproved(tier driverModels.Tier, uploaded []*Artifact, class Class) bool {
	approved := make(map[Kind]struct{})
	for _, a := range uploaded {
		if a.Class == class && a.Status == StatusApproved {
			approved[a.Kind] = struct{}{}
		}
	}
	for _, r := range RequiredSet(tier) {
		if r.Class != class {
			continue
		}
		if _, ok := approved[r.Kind]; !ok {
			return false
		}
	}
	return true
}

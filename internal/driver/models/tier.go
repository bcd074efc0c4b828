package models

import dErrors "vetting/pkg/domain-errors"

// Tier is the service category a driver applies for. It determines which
// artifacts are mandatory.
type Tier string

const (
	TierChauffeurGuide  Tier = "chauffeur_guide"
	TierNationalGuide   Tier = "national_guide"
	TierTouristDriver   Tier = "tourist_driver"
	TierFreelanceDriver Tier = "freelance_driver"
)

func ParseTier(s string) (Tier, error) {
	switch t := Tier(s); t {
	case TierChauffeurGuide, TierNationalGuide, TierTouristDriver, TierFreelanceDriver:
		return t, nil
	default:
		return "", dErrors.New(dErrors.CodeValidation, "unknown tier "+s)
	}
}

// internal/workers/allocation/update-allocation-config/models.go
package updateallocationconfig

import "internship-allocator/internal/allocation"

// Input replaces the quota table wholesale. Boost weights are merged field by
// field over the current values.
type Input struct {
	QuotaPercentages map[string]float64 `json:"quotaPercentages,omitempty"`
	DiversityBoosts  *BoostUpdate       `json:"diversityBoosts,omitempty"`
}

type BoostUpdate struct {
	Rural           *float64 `json:"rural,omitempty"`
	Female          *float64 `json:"female,omitempty"`
	Disability      *float64 `json:"disability,omitempty"`
	FirstGeneration *float64 `json:"firstGeneration,omitempty"`
}

func (u BoostUpdate) apply(w allocation.BoostWeights) allocation.BoostWeights {
	if u.Rural != nil {
		w.Rural = *u.Rural
	}
	if u.Female != nil {
		w.Female = *u.Female
	}
	if u.Disability != nil {
		w.Disability = *u.Disability
	}
	if u.FirstGeneration != nil {
		w.FirstGeneration = *u.FirstGeneration
	}
	return w
}

type Output struct {
	Updated          []string                `json:"updated"`
	QuotaPercentages allocation.Percentages  `json:"quotaPercentages"`
	DiversityBoosts  allocation.BoostWeights `json:"diversityBoosts"`
}

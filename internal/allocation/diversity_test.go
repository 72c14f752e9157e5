package allocation

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"internship-allocator/internal/common/logger"
	"internship-allocator/internal/models"
)

func newTestBooster(t *testing.T) *DiversityBooster {
	t.Helper()
	b, err := NewDiversityBooster(DefaultBoostWeights(), nil, logger.NewTestLogger(t))
	require.NoError(t, err)
	return b
}

func TestDiversityBooster_RuralLocationKeyword(t *testing.T) {
	b := newTestBooster(t)
	candidates := map[string]models.Candidate{
		"c1": {ID: "c1", Location: "Barnala village, Punjab"},
	}

	out := b.Boost([]models.MatchRecord{{CandidateID: "c1", InternshipID: "i1", RawScore: 0.6}}, candidates)
	require.Len(t, out, 1)
	assert.InDelta(t, 0.05, out[0].TotalBoost, 1e-9)
	assert.InDelta(t, 0.65, out[0].BoostedScore, 1e-9)
	assert.Equal(t, []string{ReasonRural}, out[0].BoostReasons)
}

func TestDiversityBooster_Indicators(t *testing.T) {
	b := newTestBooster(t)

	tests := []struct {
		name      string
		candidate models.Candidate
		raw       float64
		boost     float64
		reasons   []string
	}{
		{
			name:      "no indicators",
			candidate: models.Candidate{ID: "c", Location: "Mumbai"},
			raw:       0.5,
		},
		{
			name:      "rural flag without keyword",
			candidate: models.Candidate{ID: "c", Location: "Nashik", Rural: true},
			raw:       0.5,
			boost:     0.05,
			reasons:   []string{ReasonRural},
		},
		{
			name:      "all four in fixed order",
			candidate: models.Candidate{ID: "c", Location: "Tehsil Office Road", Female: true, Disability: true, FirstGeneration: true},
			raw:       0.5,
			boost:     0.17,
			reasons:   []string{ReasonRural, ReasonGender, ReasonDisability, ReasonFirstGeneration},
		},
		{
			name:      "clamped at one but reasons kept",
			candidate: models.Candidate{ID: "c", Female: true, FirstGeneration: true},
			raw:       0.98,
			boost:     0.07,
			reasons:   []string{ReasonGender, ReasonFirstGeneration},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out := b.Boost([]models.MatchRecord{{CandidateID: "c", InternshipID: "i", RawScore: tt.raw}},
				map[string]models.Candidate{"c": tt.candidate})
			require.Len(t, out, 1)

			assert.InDelta(t, tt.boost, out[0].TotalBoost, 1e-9)
			assert.Equal(t, tt.reasons, out[0].BoostReasons)
			assert.InDelta(t, math.Min(tt.raw+tt.boost, 1.0), out[0].BoostedScore, 1e-9)
			assert.LessOrEqual(t, out[0].BoostedScore, 1.0)
		})
	}
}

func TestDiversityBooster_BoostedScoreProperty(t *testing.T) {
	b := newTestBooster(t)
	candidates := map[string]models.Candidate{}
	var records []models.MatchRecord
	for i := 0; i < 50; i++ {
		id := string(rune('a'+i%26)) + string(rune('a'+i/26))
		candidates[id] = models.Candidate{
			ID:              id,
			Rural:           i%2 == 0,
			Female:          i%3 == 0,
			Disability:      i%5 == 0,
			FirstGeneration: i%7 == 0,
		}
		records = append(records, models.MatchRecord{CandidateID: id, InternshipID: "i1", RawScore: float64(i) / 49})
	}

	w := b.Weights()
	for _, r := range b.Boost(records, candidates) {
		c := candidates[r.CandidateID]
		var sum float64
		if c.Rural {
			sum += w.Rural
		}
		if c.Female {
			sum += w.Female
		}
		if c.Disability {
			sum += w.Disability
		}
		if c.FirstGeneration {
			sum += w.FirstGeneration
		}
		assert.InDelta(t, math.Min(r.RawScore+sum, 1.0), r.BoostedScore, 1e-9, r.CandidateID)
	}
}

func TestDiversityBooster_ResortsByBoostedScore(t *testing.T) {
	b := newTestBooster(t)
	candidates := map[string]models.Candidate{
		"a": {ID: "a"},
		"b": {ID: "b", Location: "Gram Panchayat Khera", Female: true},
		"c": {ID: "c", Disability: true},
	}
	records := []models.MatchRecord{
		{CandidateID: "a", InternshipID: "i1", RawScore: 0.79},
		{CandidateID: "c", InternshipID: "i1", RawScore: 0.75},
		{CandidateID: "b", InternshipID: "i1", RawScore: 0.74},
	}

	out := b.Boost(records, candidates)
	ids := []string{out[0].CandidateID, out[1].CandidateID, out[2].CandidateID}
	// b: 0.82, c: 0.80, a: 0.79
	assert.Equal(t, []string{"b", "c", "a"}, ids)

	assert.Equal(t, "a", records[0].CandidateID, "input slice is not reordered")
	assert.Zero(t, records[0].BoostedScore)
}

func TestDiversityBooster_UnknownCandidateKeepsRawScore(t *testing.T) {
	b := newTestBooster(t)
	out := b.Boost([]models.MatchRecord{{CandidateID: "ghost", InternshipID: "i1", RawScore: 0.4}}, nil)
	require.Len(t, out, 1)
	assert.Equal(t, 0.4, out[0].BoostedScore)
	assert.Empty(t, out[0].BoostReasons)
}

func TestDiversityBooster_UpdateWeights(t *testing.T) {
	b := newTestBooster(t)

	err := b.UpdateWeights(BoostWeights{Rural: -0.1, Female: 0.03})
	require.Error(t, err)
	assert.True(t, IsValidation(err))
	assert.Equal(t, DefaultBoostWeights(), b.Weights())

	updated := BoostWeights{Rural: 0.10, Female: 0.02, Disability: 0.05, FirstGeneration: 0}
	require.NoError(t, b.UpdateWeights(updated))
	assert.Equal(t, updated, b.Weights())

	out := b.Boost([]models.MatchRecord{{CandidateID: "c", RawScore: 0.5}},
		map[string]models.Candidate{"c": {ID: "c", Location: "Mandal HQ", FirstGeneration: true}})
	assert.InDelta(t, 0.60, out[0].BoostedScore, 1e-9)
	assert.Equal(t, []string{ReasonRural, ReasonFirstGeneration}, out[0].BoostReasons)
}

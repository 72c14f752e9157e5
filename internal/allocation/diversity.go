// internal/allocation/diversity.go
package allocation

import (
	"math"
	"sync"
	"time"

	"internship-allocator/internal/common/logger"
	"internship-allocator/internal/models"
)

const (
	ReasonRural           = "rural_background"
	ReasonGender          = "gender_diversity"
	ReasonDisability      = "disability"
	ReasonFirstGeneration = "first_generation"
)

// BoostWeights are the additive increments per diversity indicator.
type BoostWeights struct {
	Rural           float64 `mapstructure:"rural" json:"rural"`
	Female          float64 `mapstructure:"female" json:"female"`
	Disability      float64 `mapstructure:"disability" json:"disability"`
	FirstGeneration float64 `mapstructure:"first_generation" json:"firstGeneration"`
}

func DefaultBoostWeights() BoostWeights {
	return BoostWeights{Rural: 0.05, Female: 0.03, Disability: 0.05, FirstGeneration: 0.04}
}

func (w BoostWeights) Validate() error {
	for name, v := range map[string]float64{
		ReasonRural:           w.Rural,
		ReasonGender:          w.Female,
		ReasonDisability:      w.Disability,
		ReasonFirstGeneration: w.FirstGeneration,
	} {
		if v < 0 || math.IsNaN(v) {
			return newValidationError(StageConfig, name, "boost weight must be non-negative, got %v", v)
		}
	}
	return nil
}

type DiversityBooster struct {
	mu      sync.RWMutex
	weights BoostWeights
	rural   RuralDetector
	logger  logger.Logger
}

func NewDiversityBooster(weights BoostWeights, rural RuralDetector, log logger.Logger) (*DiversityBooster, error) {
	if err := weights.Validate(); err != nil {
		return nil, err
	}
	if rural == nil {
		rural = DefaultClassifiers().Rural
	}
	return &DiversityBooster{
		weights: weights,
		rural:   rural,
		logger:  log.WithFields(map[string]interface{}{"stage": StageBoosting}),
	}, nil
}

func (b *DiversityBooster) Weights() BoostWeights {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.weights
}

// UpdateWeights replaces the boost table. Invalid tables leave it untouched.
func (b *DiversityBooster) UpdateWeights(w BoostWeights) error {
	if err := w.Validate(); err != nil {
		return err
	}
	b.mu.Lock()
	b.weights = w
	b.mu.Unlock()
	b.logger.Info("diversity boosts updated", map[string]interface{}{"weights": w})
	return nil
}

// IsRural reports the rural indicator for a candidate.
func (b *DiversityBooster) IsRural(c models.Candidate) bool {
	return c.Rural || b.rural.IsRural(c.Location)
}

// Boost returns new records with boosted scores, re-sorted by boosted score.
// Records whose candidate is unknown keep their raw score.
func (b *DiversityBooster) Boost(records []models.MatchRecord, candidates map[string]models.Candidate) []models.MatchRecord {
	started := time.Now()
	w := b.Weights()

	out := make([]models.MatchRecord, len(records))
	boosted := 0
	for i, r := range records {
		c, ok := candidates[r.CandidateID]
		if !ok {
			r.BoostedScore = r.RawScore
			r.TotalBoost = 0
			r.BoostReasons = nil
			out[i] = r
			continue
		}
		total, reasons := b.evaluate(c, w)
		r.TotalBoost = total
		r.BoostReasons = reasons
		r.BoostedScore = math.Min(r.RawScore+total, 1.0)
		if total > 0 {
			boosted++
		}
		out[i] = r
	}

	SortByBoostedScore(out)

	b.logger.Debug("boosts applied", map[string]interface{}{
		"records":  len(out),
		"boosted":  boosted,
		"duration": time.Since(started).String(),
	})
	return out
}

func (b *DiversityBooster) evaluate(c models.Candidate, w BoostWeights) (float64, []string) {
	var total float64
	var reasons []string
	if b.IsRural(c) {
		total += w.Rural
		reasons = append(reasons, ReasonRural)
	}
	if c.Female {
		total += w.Female
		reasons = append(reasons, ReasonGender)
	}
	if c.Disability {
		total += w.Disability
		reasons = append(reasons, ReasonDisability)
	}
	if c.FirstGeneration {
		total += w.FirstGeneration
		reasons = append(reasons, ReasonFirstGeneration)
	}
	return total, reasons
}

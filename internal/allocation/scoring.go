// internal/allocation/scoring.go
package allocation

import (
	"math"
	"strings"

	"internship-allocator/internal/models"
)

// NeutralScore is substituted for a pair whose score could not be computed.
const NeutralScore = 0.5

const (
	partialSkillCredit   = 0.6
	categoryExactScore   = 1.0
	categoryRelatedScore = 0.7
	categoryDefaultScore = 0.2
	locationExactScore   = 1.0
	locationRemoteScore  = 0.8
	locationRegionScore  = 0.6
	locationDefaultScore = 0.3
	experienceBaseScore  = 0.7
	experienceStepScore  = 0.1
	weightSumTolerance   = 0.01
)

// Weights is the score weight table. Components must be non-negative and sum to 1.
type Weights struct {
	Skills     float64 `mapstructure:"skills" json:"skills"`
	Category   float64 `mapstructure:"category" json:"category"`
	Location   float64 `mapstructure:"location" json:"location"`
	Experience float64 `mapstructure:"experience" json:"experience"`
	Salary     float64 `mapstructure:"salary" json:"salary"`
}

func DefaultWeights() Weights {
	return Weights{Skills: 0.40, Category: 0.25, Location: 0.20, Experience: 0.10, Salary: 0.05}
}

func (w Weights) Validate() error {
	parts := []struct {
		name  string
		value float64
	}{
		{"skills", w.Skills},
		{"category", w.Category},
		{"location", w.Location},
		{"experience", w.Experience},
		{"salary", w.Salary},
	}
	for _, p := range parts {
		if p.value < 0 || math.IsNaN(p.value) {
			return newValidationError(StageConfig, p.name, "score weight must be non-negative, got %v", p.value)
		}
	}
	sum := w.Skills + w.Category + w.Location + w.Experience + w.Salary
	if math.Abs(sum-1.0) > weightSumTolerance {
		return newValidationError(StageConfig, "", "score weights must sum to 1.0, got %.4f", sum)
	}
	return nil
}

var skillSynonyms = map[string][]string{
	"javascript": {"js", "node", "react", "angular"},
	"python":     {"django", "flask", "pandas"},
	"java":       {"spring", "hibernate"},
	"sql":        {"mysql", "postgresql", "database"},
}

// ScoreResult is the weighted score of one pair plus its components.
type ScoreResult struct {
	Score     float64
	Breakdown models.ScoreBreakdown
}

// DisplayScore rounds to one decimal place. Only for presentation.
func DisplayScore(score float64) float64 {
	return math.Round(score*10) / 10
}

// Scorer computes the compatibility of one candidate/internship pair.
type Scorer interface {
	Score(c models.Candidate, in models.Internship) (ScoreResult, error)
}

type ScoreCalculator struct {
	weights     Weights
	classifiers Classifiers
}

func NewScoreCalculator(weights Weights, classifiers Classifiers) (*ScoreCalculator, error) {
	if err := weights.Validate(); err != nil {
		return nil, err
	}
	return &ScoreCalculator{weights: weights, classifiers: classifiers.withDefaults()}, nil
}

func (s *ScoreCalculator) Weights() Weights { return s.weights }

func (s *ScoreCalculator) Score(c models.Candidate, in models.Internship) (ScoreResult, error) {
	pairID := c.ID + "/" + in.ID
	switch {
	case strings.TrimSpace(c.ID) == "" || strings.TrimSpace(in.ID) == "":
		return ScoreResult{}, newComputationError(pairID, "candidate and internship ids are required")
	case in.SalaryMin < 0 || in.SalaryMax < 0:
		return ScoreResult{}, newComputationError(pairID, "negative salary bound")
	case in.SalaryMax > 0 && in.SalaryMin > in.SalaryMax:
		return ScoreResult{}, newComputationError(pairID, "salary min %d exceeds max %d", in.SalaryMin, in.SalaryMax)
	}

	b := models.ScoreBreakdown{
		Skills:     skillsScore(c.Skills, in.RequiredSkills),
		Category:   s.categoryScore(c.Category, in.Category),
		Location:   s.locationScore(c.Location, in),
		Experience: experienceScore(len(c.Experience)),
		Salary:     salaryScore(in.SalaryMax),
	}

	total := b.Skills*s.weights.Skills +
		b.Category*s.weights.Category +
		b.Location*s.weights.Location +
		b.Experience*s.weights.Experience +
		b.Salary*s.weights.Salary

	return ScoreResult{Score: clamp01(total), Breakdown: b}, nil
}

func skillsScore(candidateSkills, required []string) float64 {
	if len(required) == 0 {
		return NeutralScore
	}
	have := make(map[string]struct{}, len(candidateSkills))
	for _, sk := range candidateSkills {
		if k := normalizeText(sk); k != "" {
			have[k] = struct{}{}
		}
	}

	var exact, partial int
	for _, r := range required {
		req := normalizeText(r)
		if _, ok := have[req]; ok {
			exact++
			continue
		}
		if synonymMatch(req, have) {
			partial++
		}
	}

	n := float64(len(required))
	return math.Min(float64(exact)/n+partialSkillCredit*float64(partial)/n, 1.0)
}

func synonymMatch(required string, have map[string]struct{}) bool {
	for _, syn := range skillSynonyms[required] {
		if _, ok := have[syn]; ok {
			return true
		}
	}
	for skill := range have {
		for _, syn := range skillSynonyms[skill] {
			if syn == required {
				return true
			}
		}
	}
	return false
}

func (s *ScoreCalculator) categoryScore(candidate, internship string) float64 {
	a, b := normalizeText(candidate), normalizeText(internship)
	if a == "" || b == "" {
		return categoryDefaultScore
	}
	if strings.Contains(a, b) || strings.Contains(b, a) {
		return categoryExactScore
	}
	if s.classifiers.Categories.Related(a, b) {
		return categoryRelatedScore
	}
	return categoryDefaultScore
}

func (s *ScoreCalculator) locationScore(candidate string, in models.Internship) float64 {
	a, b := normalizeText(candidate), normalizeText(in.Location)
	if a != "" && b != "" && (strings.Contains(a, b) || strings.Contains(b, a)) {
		return locationExactScore
	}
	if in.Remote || strings.Contains(b, "remote") {
		return locationRemoteScore
	}
	ra, okA := s.classifiers.Regions.Region(a)
	rb, okB := s.classifiers.Regions.Region(b)
	if okA && okB && ra == rb {
		return locationRegionScore
	}
	return locationDefaultScore
}

func experienceScore(entries int) float64 {
	return math.Min(experienceBaseScore+experienceStepScore*float64(entries), 1.0)
}

func salaryScore(upper int) float64 {
	switch {
	case upper >= 40000:
		return 1.0
	case upper >= 25000:
		return 0.8
	case upper >= 15000:
		return 0.6
	case upper >= 10000:
		return 0.4
	default:
		return 0.2
	}
}

func clamp01(v float64) float64 {
	if math.IsNaN(v) || v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

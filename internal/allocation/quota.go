// internal/allocation/quota.go
package allocation

import (
	"fmt"
	"math"
	"sort"
	"strings"
	"sync"

	"internship-allocator/internal/common/logger"
	"internship-allocator/internal/models"
)

const quotaSumTolerance = 0.01

// Percentages is the configured share per quota category.
type Percentages map[models.QuotaCategory]float64

// DefaultPercentages keeps the statutory reserved shares and gives general the
// remainder so the table sums to 1.0.
func DefaultPercentages() Percentages {
	return Percentages{
		models.QuotaGeneral: 0.405,
		models.QuotaSC:      0.15,
		models.QuotaST:      0.075,
		models.QuotaOBC:     0.27,
		models.QuotaEWS:     0.10,
	}
}

// Clone returns a full table; categories missing from p are 0.
func (p Percentages) Clone() Percentages {
	out := make(Percentages, len(models.AllQuotaCategories))
	for _, cat := range models.AllQuotaCategories {
		out[cat] = p[cat]
	}
	return out
}

func (p Percentages) Validate() error {
	if len(p) == 0 {
		return newValidationError(StageConfig, "", "quota percentages are empty")
	}
	var sum float64
	for cat, v := range p {
		if !cat.Valid() {
			return newValidationError(StageConfig, string(cat), "unknown quota category")
		}
		if v < 0 || math.IsNaN(v) {
			return newValidationError(StageConfig, string(cat), "quota percentage must be non-negative, got %v", v)
		}
		sum += v
	}
	if math.Abs(sum-1.0) > quotaSumTolerance {
		return newValidationError(StageConfig, "", "quota percentages must sum to 1.0, got %.4f", sum)
	}
	return nil
}

// ParsePercentages converts string keys (codes or long names) into a table.
func ParsePercentages(raw map[string]float64) (Percentages, error) {
	out := make(Percentages, len(raw))
	for k, v := range raw {
		cat, ok := models.ParseQuotaCategory(k)
		if !ok {
			return nil, newValidationError(StageConfig, k, "unknown quota category")
		}
		out[cat] += v
	}
	return out, nil
}

func (p Percentages) String() string {
	parts := make([]string, 0, len(models.AllQuotaCategories))
	for _, cat := range models.AllQuotaCategories {
		parts = append(parts, fmt.Sprintf("%s=%.3f", cat, p[cat]))
	}
	return strings.Join(parts, " ")
}

type QuotaPlanner struct {
	mu          sync.RWMutex
	percentages Percentages
	logger      logger.Logger
}

func NewQuotaPlanner(p Percentages, log logger.Logger) (*QuotaPlanner, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	return &QuotaPlanner{
		percentages: p.Clone(),
		logger:      log.WithFields(map[string]interface{}{"stage": StagePlanning}),
	}, nil
}

func (q *QuotaPlanner) Percentages() Percentages {
	q.mu.RLock()
	defer q.mu.RUnlock()
	return q.percentages.Clone()
}

// UpdatePercentages replaces the whole table. Rejected tables leave the
// current configuration unchanged.
func (q *QuotaPlanner) UpdatePercentages(p Percentages) error {
	if err := p.Validate(); err != nil {
		q.logger.Warn("quota update rejected", map[string]interface{}{"error": err.Error()})
		return err
	}
	q.mu.Lock()
	q.percentages = p.Clone()
	q.mu.Unlock()
	q.logger.Info("quota percentages updated", map[string]interface{}{"percentages": p.String()})
	return nil
}

// Plan converts total capacity into per-category slot counts whose sum never
// exceeds capacity.
func (q *QuotaPlanner) Plan(totalCapacity int) (models.QuotaPlan, error) {
	if totalCapacity < 1 {
		return nil, newValidationError(StagePlanning, "", "total capacity must be at least 1, got %d", totalCapacity)
	}
	return PlanQuotas(totalCapacity, q.Percentages()), nil
}

// PlanQuotas is the stateless planning rule behind QuotaPlanner.Plan.
func PlanQuotas(capacity int, p Percentages) models.QuotaPlan {
	plan := make(models.QuotaPlan, len(models.AllQuotaCategories))
	for _, cat := range models.AllQuotaCategories {
		plan[cat] = maxInt(1, int(math.Floor(float64(capacity)*p[cat])))
	}

	if sum := plan.Total(); sum > capacity {
		factor := float64(capacity) / float64(sum)
		for _, cat := range models.AllQuotaCategories {
			plan[cat] = maxInt(1, int(math.Floor(float64(plan[cat])*factor)))
		}
	}

	// The max(1, ...) floor can keep the sum above capacity when there are
	// fewer seats than categories. Trim the largest counts until it fits.
	order := trimOrder(p)
	for plan.Total() > capacity {
		victim := order[0]
		for _, cat := range order[1:] {
			if plan[cat] > plan[victim] {
				victim = cat
			}
		}
		if plan[victim] == 0 {
			break
		}
		plan[victim]--
	}
	return plan
}

// trimOrder lists categories by ascending percentage, ties in reverse
// canonical order, so the smallest share loses a seat first.
func trimOrder(p Percentages) []models.QuotaCategory {
	order := make([]models.QuotaCategory, len(models.AllQuotaCategories))
	for i, cat := range models.AllQuotaCategories {
		order[len(order)-1-i] = cat
	}
	sort.SliceStable(order, func(i, j int) bool {
		return p[order[i]] < p[order[j]]
	})
	return order
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}

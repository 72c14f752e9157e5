package allocation

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"internship-allocator/internal/common/logger"
	"internship-allocator/internal/models"
)

func newTestPlanner(t *testing.T) *QuotaPlanner {
	t.Helper()
	q, err := NewQuotaPlanner(DefaultPercentages(), logger.NewTestLogger(t))
	require.NoError(t, err)
	return q
}

func TestQuotaPlanner_Plan(t *testing.T) {
	q := newTestPlanner(t)

	tests := []struct {
		name     string
		capacity int
		expected models.QuotaPlan
	}{
		{
			name:     "large capacity",
			capacity: 100,
			expected: models.QuotaPlan{models.QuotaGeneral: 40, models.QuotaSC: 15, models.QuotaST: 7, models.QuotaOBC: 27, models.QuotaEWS: 10},
		},
		{
			name:     "one seat per category",
			capacity: 5,
			expected: models.QuotaPlan{models.QuotaGeneral: 1, models.QuotaSC: 1, models.QuotaST: 1, models.QuotaOBC: 1, models.QuotaEWS: 1},
		},
		{
			name:     "single seat goes to the largest share",
			capacity: 1,
			expected: models.QuotaPlan{models.QuotaGeneral: 1, models.QuotaSC: 0, models.QuotaST: 0, models.QuotaOBC: 0, models.QuotaEWS: 0},
		},
		{
			name:     "three seats",
			capacity: 3,
			expected: models.QuotaPlan{models.QuotaGeneral: 1, models.QuotaSC: 1, models.QuotaST: 0, models.QuotaOBC: 1, models.QuotaEWS: 0},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			plan, err := q.Plan(tt.capacity)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, plan)
		})
	}
}

func TestDefaultPercentages_Valid(t *testing.T) {
	p := DefaultPercentages()
	require.NoError(t, p.Validate())
	assert.Len(t, p, len(models.AllQuotaCategories))

	_, err := NewPipeline(DefaultPipelineConfig(), logger.NewTestLogger(t), nil, nil)
	require.NoError(t, err)
}

func TestQuotaPlanner_PlanProperties(t *testing.T) {
	tables := []Percentages{
		DefaultPercentages(),
		{models.QuotaGeneral: 0.96, models.QuotaSC: 0.01, models.QuotaST: 0.01, models.QuotaOBC: 0.01, models.QuotaEWS: 0.01},
		{models.QuotaGeneral: 0.2, models.QuotaSC: 0.2, models.QuotaST: 0.2, models.QuotaOBC: 0.2, models.QuotaEWS: 0.2},
		{models.QuotaGeneral: 1.0},
	}

	for _, p := range tables {
		for capacity := 1; capacity <= 250; capacity++ {
			plan := PlanQuotas(capacity, p)
			assert.LessOrEqual(t, plan.Total(), capacity, "capacity %d table %s", capacity, p)
			if capacity >= len(models.AllQuotaCategories) {
				for _, cat := range models.AllQuotaCategories {
					assert.GreaterOrEqual(t, plan[cat], 1, "capacity %d category %s table %s", capacity, cat, p)
				}
			}
		}
	}
}

func TestQuotaPlanner_PlanRejectsEmptyCapacity(t *testing.T) {
	q := newTestPlanner(t)
	_, err := q.Plan(0)
	require.Error(t, err)
	assert.True(t, IsValidation(err))
}

func TestQuotaPlanner_UpdateRejectedLeavesConfigUnchanged(t *testing.T) {
	q := newTestPlanner(t)
	before := q.Percentages()

	tests := []struct {
		name   string
		update Percentages
	}{
		{name: "sum above tolerance", update: Percentages{models.QuotaGeneral: 0.5, models.QuotaSC: 0.6}},
		{name: "sum below tolerance", update: Percentages{models.QuotaGeneral: 0.5, models.QuotaSC: 0.3}},
		{name: "negative share", update: Percentages{models.QuotaGeneral: 1.2, models.QuotaSC: -0.2}},
		{name: "unknown category", update: Percentages{models.QuotaGeneral: 0.5, models.QuotaCategory("nri"): 0.5}},
		{name: "empty", update: Percentages{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := q.UpdatePercentages(tt.update)
			require.Error(t, err)
			assert.True(t, IsValidation(err))
			assert.Equal(t, before, q.Percentages())
		})
	}
}

func TestQuotaPlanner_UpdateReplacesWholeTable(t *testing.T) {
	q := newTestPlanner(t)

	require.NoError(t, q.UpdatePercentages(Percentages{models.QuotaGeneral: 0.6, models.QuotaSC: 0.4005}))

	got := q.Percentages()
	assert.Equal(t, 0.6, got[models.QuotaGeneral])
	assert.Equal(t, 0.4005, got[models.QuotaSC])
	assert.Zero(t, got[models.QuotaST])
	assert.Zero(t, got[models.QuotaOBC])
	assert.Zero(t, got[models.QuotaEWS])
}

func TestParsePercentages(t *testing.T) {
	p, err := ParsePercentages(map[string]float64{"General": 0.5, "Scheduled Caste": 0.3, "obc": 0.2})
	require.NoError(t, err)
	assert.Equal(t, 0.5, p[models.QuotaGeneral])
	assert.Equal(t, 0.3, p[models.QuotaSC])
	assert.Equal(t, 0.2, p[models.QuotaOBC])
	require.NoError(t, p.Validate())

	_, err = ParsePercentages(map[string]float64{"management": 1.0})
	require.Error(t, err)
	assert.True(t, IsValidation(err))
}

func TestQuotaPlanner_ConcurrentUpdateAndPlan(t *testing.T) {
	q := newTestPlanner(t)
	alt := Percentages{models.QuotaGeneral: 0.2, models.QuotaSC: 0.2, models.QuotaST: 0.2, models.QuotaOBC: 0.2, models.QuotaEWS: 0.2}

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(2)
		go func(i int) {
			defer wg.Done()
			if i%2 == 0 {
				assert.NoError(t, q.UpdatePercentages(alt))
			} else {
				assert.NoError(t, q.UpdatePercentages(DefaultPercentages()))
			}
		}(i)
		go func() {
			defer wg.Done()
			plan, err := q.Plan(40)
			assert.NoError(t, err)
			assert.LessOrEqual(t, plan.Total(), 40)
		}()
	}
	wg.Wait()
}

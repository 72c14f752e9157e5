package allocation

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"internship-allocator/internal/models"
)

// ==========================
// Test Helper Functions
// ==========================

func newTestScorer(t *testing.T) *ScoreCalculator {
	t.Helper()
	s, err := NewScoreCalculator(DefaultWeights(), DefaultClassifiers())
	require.NoError(t, err)
	return s
}

func createTestCandidate() models.Candidate {
	return models.Candidate{
		ID:             "cand-001",
		Name:           "Asha Verma",
		Skills:         []string{"Go", "Python", "React"},
		Location:       "Bangalore, Karnataka",
		Category:       "Software Development",
		SocialCategory: "General",
		Experience: []models.Experience{
			{Title: "Backend intern"},
			{Title: "Open source contributor"},
		},
		Education: []models.Education{{Degree: "B.Tech"}},
	}
}

func createTestInternship() models.Internship {
	return models.Internship{
		ID:             "int-001",
		Title:          "Platform Engineering Intern",
		Capacity:       2,
		Category:       "software development",
		Location:       "Bengaluru",
		RequiredSkills: []string{"python", "javascript", "sql"},
		SalaryMin:      15000,
		SalaryMax:      30000,
	}
}

// ==========================
// Weights
// ==========================

func TestWeights_Validate(t *testing.T) {
	tests := []struct {
		name    string
		weights Weights
		wantErr bool
	}{
		{name: "defaults", weights: DefaultWeights()},
		{name: "within tolerance", weights: Weights{Skills: 0.405, Category: 0.25, Location: 0.20, Experience: 0.10, Salary: 0.05}},
		{name: "sum too high", weights: Weights{Skills: 0.5, Category: 0.25, Location: 0.20, Experience: 0.10, Salary: 0.05}, wantErr: true},
		{name: "sum too low", weights: Weights{Skills: 0.3, Category: 0.25, Location: 0.20, Experience: 0.10, Salary: 0.05}, wantErr: true},
		{name: "negative component", weights: Weights{Skills: 0.5, Category: 0.35, Location: 0.20, Experience: 0.10, Salary: -0.15}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.weights.Validate()
			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, IsValidation(err))
				return
			}
			assert.NoError(t, err)
		})
	}
}

func TestNewScoreCalculator_RejectsInvalidWeights(t *testing.T) {
	_, err := NewScoreCalculator(Weights{Skills: 1, Category: 1}, DefaultClassifiers())
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrValidation))
}

// ==========================
// Component Scores
// ==========================

func TestScore_WeightedSum(t *testing.T) {
	s := newTestScorer(t)

	res, err := s.Score(createTestCandidate(), createTestInternship())
	require.NoError(t, err)

	// python exact, javascript via react, sql missing
	assert.InDelta(t, 1.0/3+0.6/3, res.Breakdown.Skills, 1e-9)
	assert.Equal(t, 1.0, res.Breakdown.Category)
	assert.Equal(t, 0.6, res.Breakdown.Location)
	assert.InDelta(t, 0.9, res.Breakdown.Experience, 1e-9)
	assert.Equal(t, 0.8, res.Breakdown.Salary)

	expected := (1.0/3+0.6/3)*0.40 + 1.0*0.25 + 0.6*0.20 + 0.9*0.10 + 0.8*0.05
	assert.InDelta(t, expected, res.Score, 1e-9)
	assert.Equal(t, 0.7, DisplayScore(res.Score))
}

func TestSkillsScore(t *testing.T) {
	tests := []struct {
		name      string
		candidate []string
		required  []string
		expected  float64
	}{
		{name: "no required skills is neutral", candidate: []string{"go"}, required: nil, expected: 0.5},
		{name: "all exact case insensitive", candidate: []string{"PYTHON", "Sql"}, required: []string{"python", "SQL"}, expected: 1.0},
		{name: "required synonym of candidate skill", candidate: []string{"javascript"}, required: []string{"react"}, expected: 0.6},
		{name: "candidate synonym of required skill", candidate: []string{"django"}, required: []string{"python"}, expected: 0.6},
		{name: "no overlap", candidate: []string{"excel"}, required: []string{"java", "sql"}, expected: 0.0},
		{name: "mixed exact and partial", candidate: []string{"java", "mysql"}, required: []string{"java", "sql"}, expected: 0.8},
		{name: "empty candidate skills", candidate: nil, required: []string{"java"}, expected: 0.0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.expected, skillsScore(tt.candidate, tt.required), 1e-9)
		})
	}
}

func TestCategoryScore(t *testing.T) {
	s := newTestScorer(t)

	tests := []struct {
		name       string
		candidate  string
		internship string
		expected   float64
	}{
		{name: "substring", candidate: "marketing", internship: "Digital Marketing", expected: 1.0},
		{name: "related group", candidate: "data science", internship: "software development", expected: 0.7},
		{name: "related design group", candidate: "graphic design", internship: "ui/ux", expected: 0.7},
		{name: "unrelated", candidate: "finance", internship: "programming", expected: 0.2},
		{name: "empty candidate", candidate: "", internship: "programming", expected: 0.2},
		{name: "empty internship", candidate: "finance", internship: "  ", expected: 0.2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, s.categoryScore(tt.candidate, tt.internship))
		})
	}
}

func TestLocationScore(t *testing.T) {
	s := newTestScorer(t)

	tests := []struct {
		name       string
		candidate  string
		internship models.Internship
		expected   float64
	}{
		{name: "substring", candidate: "Pune", internship: models.Internship{Location: "Pune, Maharashtra"}, expected: 1.0},
		{name: "remote flag", candidate: "Jaipur", internship: models.Internship{Location: "Mumbai", Remote: true}, expected: 0.8},
		{name: "remote in location", candidate: "Jaipur", internship: models.Internship{Location: "Remote (India)"}, expected: 0.8},
		{name: "same region", candidate: "Gurgaon", internship: models.Internship{Location: "Gurugram Sector 44"}, expected: 0.6},
		{name: "different region", candidate: "Chennai", internship: models.Internship{Location: "Kolkata"}, expected: 0.3},
		{name: "empty candidate location", candidate: "", internship: models.Internship{Location: "Kolkata"}, expected: 0.3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, s.locationScore(tt.candidate, tt.internship))
		})
	}
}

func TestExperienceAndSalaryScore(t *testing.T) {
	assert.InDelta(t, 0.7, experienceScore(0), 1e-9)
	assert.InDelta(t, 0.8, experienceScore(1), 1e-9)
	assert.Equal(t, 1.0, experienceScore(3))
	assert.Equal(t, 1.0, experienceScore(12))

	steps := map[int]float64{0: 0.2, 9999: 0.2, 10000: 0.4, 15000: 0.6, 24999: 0.6, 25000: 0.8, 40000: 1.0, 90000: 1.0}
	for salary, want := range steps {
		assert.Equal(t, want, salaryScore(salary), "salary %d", salary)
	}
}

// ==========================
// Failure Cases
// ==========================

func TestScore_ComputationErrors(t *testing.T) {
	s := newTestScorer(t)

	tests := []struct {
		name   string
		mutate func(c *models.Candidate, in *models.Internship)
	}{
		{name: "missing candidate id", mutate: func(c *models.Candidate, _ *models.Internship) { c.ID = "" }},
		{name: "missing internship id", mutate: func(_ *models.Candidate, in *models.Internship) { in.ID = " " }},
		{name: "negative salary", mutate: func(_ *models.Candidate, in *models.Internship) { in.SalaryMin = -1 }},
		{name: "inverted salary range", mutate: func(_ *models.Candidate, in *models.Internship) { in.SalaryMin, in.SalaryMax = 50000, 20000 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, in := createTestCandidate(), createTestInternship()
			tt.mutate(&c, &in)

			_, err := s.Score(c, in)
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrComputation))

			var se *StageError
			require.True(t, errors.As(err, &se))
			assert.Equal(t, StageScoring, se.Stage)
		})
	}
}

func TestScore_AlwaysWithinUnitInterval(t *testing.T) {
	s, err := NewScoreCalculator(Weights{Skills: 0.2, Category: 0.2, Location: 0.2, Experience: 0.2, Salary: 0.2}, Classifiers{})
	require.NoError(t, err)

	c := createTestCandidate()
	c.Skills = []string{"python", "javascript", "sql"}
	c.Location = "Bengaluru"
	in := createTestInternship()
	in.SalaryMax = 80000

	res, err := s.Score(c, in)
	require.NoError(t, err)
	assert.GreaterOrEqual(t, res.Score, 0.0)
	assert.LessOrEqual(t, res.Score, 1.0)
}

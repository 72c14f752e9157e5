// internal/workers/allocation/match-candidates/models.go
package matchcandidates

import "internship-allocator/internal/models"

// Input carries profiles inline or as ids to load. Inline profiles win.
type Input struct {
	Candidates    []models.Candidate  `json:"candidates,omitempty"`
	Internships   []models.Internship `json:"internships,omitempty"`
	CandidateIDs  []string            `json:"candidateIds,omitempty"`
	InternshipIDs []string            `json:"internshipIds,omitempty"`
	TopMatches    *int                `json:"topMatches,omitempty"`
}

type TopMatch struct {
	CandidateID  string                `json:"candidateId"`
	InternshipID string                `json:"internshipId"`
	Score        float64               `json:"score"`
	Breakdown    models.ScoreBreakdown `json:"breakdown"`
	Fallback     bool                  `json:"fallback,omitempty"`
}

type Output struct {
	BatchID        string     `json:"batchId"`
	MatchCount     int        `json:"matchCount"`
	CandidateCount int        `json:"candidateCount"`
	EligiblePairs  int        `json:"eligiblePairs"`
	DroppedPairs   int        `json:"droppedPairs"`
	BelowThreshold int        `json:"belowThreshold"`
	FallbackCount  int        `json:"fallbackCount"`
	TopMatches     []TopMatch `json:"topMatches"`
}

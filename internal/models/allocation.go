// internal/models/allocation.go
package models

import "time"

type AllocationType string

const (
	AllocationQuota        AllocationType = "quota"
	AllocationMeritInQuota AllocationType = "merit_in_quota"
	AllocationMerit        AllocationType = "merit"
	AllocationGeneral      AllocationType = "general"
)

// AllocationTypes lists every allocation type in report order.
var AllocationTypes = []AllocationType{AllocationQuota, AllocationMeritInQuota, AllocationMerit, AllocationGeneral}

type ScoreBreakdown struct {
	Skills     float64 `json:"skills"`
	Category   float64 `json:"category"`
	Location   float64 `json:"location"`
	Experience float64 `json:"experience"`
	Salary     float64 `json:"salary"`
}

// MatchRecord is a scored candidate/internship pair. It lives for one run only.
type MatchRecord struct {
	CandidateID   string         `json:"candidateId"`
	InternshipID  string         `json:"internshipId"`
	RawScore      float64        `json:"rawScore"`
	BoostedScore  float64        `json:"boostedScore"`
	TotalBoost    float64        `json:"totalBoost"`
	BoostReasons  []string       `json:"boostReasons,omitempty"`
	QuotaCategory QuotaCategory  `json:"quotaCategory"`
	Breakdown     ScoreBreakdown `json:"breakdown"`
	Fallback      bool           `json:"fallback,omitempty"`
}

// QuotaPlan maps each quota category to its integer seat target.
type QuotaPlan map[QuotaCategory]int

func (p QuotaPlan) Total() int {
	total := 0
	for _, n := range p {
		total += n
	}
	return total
}

// Slots returns 0 for categories absent from the plan.
func (p QuotaPlan) Slots(cat QuotaCategory) int {
	return p[cat]
}

type Allocation struct {
	CandidateID       string         `json:"candidateId"`
	CandidateName     string         `json:"candidateName,omitempty"`
	InternshipID      string         `json:"internshipId"`
	InternshipTitle   string         `json:"internshipTitle,omitempty"`
	QuotaCategory     QuotaCategory  `json:"quotaCategory"`
	SeatCategory      QuotaCategory  `json:"seatCategory"`
	AllocationType    AllocationType `json:"allocationType"`
	OriginalScore     float64        `json:"originalScore"`
	FinalScore        float64        `json:"finalScore"`
	DiversityBoost    float64        `json:"diversityBoost"`
	BoostReasons      []string       `json:"boostReasons,omitempty"`
	CandidateLocation string         `json:"candidateLocation,omitempty"`
	Rural             bool           `json:"rural"`
	AllocatedAt       time.Time      `json:"allocatedAt"`
}

type AllocationSummary struct {
	TotalAllocated        int `json:"totalAllocated"`
	TotalCapacity         int `json:"totalCapacity"`
	UnallocatedCandidates int `json:"unallocatedCandidates"`
}

type AllocationResult struct {
	Allocations         []Allocation          `json:"allocations"`
	QuotaPlan           QuotaPlan             `json:"quotaPlan"`
	QuotaFulfillment    map[QuotaCategory]int `json:"quotaFulfillment"`
	CapacityUtilization map[string]int        `json:"capacityUtilization"`
	Summary             AllocationSummary     `json:"summary"`
}

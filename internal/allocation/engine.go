// internal/allocation/engine.go
package allocation

import (
	"strings"
	"time"

	"internship-allocator/internal/common/logger"
	"internship-allocator/internal/models"
)

// AllocationInput is one allocation run. Matches should carry boosted scores;
// the engine re-sorts a copy so callers cannot break ordering.
type AllocationInput struct {
	Matches     []models.MatchRecord
	Plan        models.QuotaPlan
	Internships []models.Internship
	// Candidates is optional and only enriches allocation records.
	Candidates map[string]models.Candidate
}

type AllocationEngine struct {
	logger   logger.Logger
	recorder Recorder
	now      func() time.Time
}

func NewAllocationEngine(log logger.Logger, rec Recorder) *AllocationEngine {
	if rec == nil {
		rec = NopRecorder{}
	}
	return &AllocationEngine{
		logger:   log.WithFields(map[string]interface{}{"stage": StageAllocation}),
		recorder: rec,
		now:      time.Now,
	}
}

// WithClock overrides the timestamp source.
func (e *AllocationEngine) WithClock(now func() time.Time) *AllocationEngine {
	e.now = now
	return e
}

// allocationState is owned by a single Allocate call.
type allocationState struct {
	plan      models.QuotaPlan
	capacity  map[string]int
	used      map[string]int
	filled    map[models.QuotaCategory]int
	allocated map[string]struct{}
}

func newAllocationState(plan models.QuotaPlan, internships []models.Internship) *allocationState {
	s := &allocationState{
		plan:      plan,
		capacity:  make(map[string]int, len(internships)),
		used:      make(map[string]int, len(internships)),
		filled:    make(map[models.QuotaCategory]int, len(models.AllQuotaCategories)),
		allocated: make(map[string]struct{}),
	}
	for _, in := range internships {
		s.capacity[in.ID] = in.Capacity
		s.used[in.ID] = 0
	}
	for _, cat := range models.AllQuotaCategories {
		s.filled[cat] = 0
	}
	return s
}

func (s *allocationState) isAllocated(candidateID string) bool {
	_, ok := s.allocated[candidateID]
	return ok
}

func (s *allocationState) hasRoom(internshipID string) bool {
	return s.used[internshipID] < s.capacity[internshipID]
}

func (s *allocationState) seatsLeft(cat models.QuotaCategory) bool {
	return s.filled[cat] < s.plan.Slots(cat)
}

func (s *allocationState) firstOpenReserved() (models.QuotaCategory, bool) {
	for _, cat := range models.ReservedCategories {
		if s.seatsLeft(cat) {
			return cat, true
		}
	}
	return "", false
}

func (s *allocationState) commit(rec models.MatchRecord, seat models.QuotaCategory) error {
	if s.isAllocated(rec.CandidateID) {
		return newInvariantError(rec.CandidateID, "candidate allocated twice")
	}
	if !s.hasRoom(rec.InternshipID) {
		return newInvariantError(rec.InternshipID, "internship capacity %d exceeded", s.capacity[rec.InternshipID])
	}
	if !s.seatsLeft(seat) {
		return newInvariantError(string(seat), "quota slots %d exceeded", s.plan.Slots(seat))
	}
	s.allocated[rec.CandidateID] = struct{}{}
	s.used[rec.InternshipID]++
	s.filled[seat]++
	return nil
}

// Allocate runs the two-phase greedy assignment. Reserved categories are
// filled first in fixed order, then a single scan places general candidates
// and spills remaining candidates into open reserved or general seats.
func (e *AllocationEngine) Allocate(in AllocationInput) (*models.AllocationResult, error) {
	started := time.Now()
	if err := validateAllocationInput(in); err != nil {
		return nil, err
	}

	matches := make([]models.MatchRecord, len(in.Matches))
	for i, m := range in.Matches {
		if !m.QuotaCategory.Valid() {
			m.QuotaCategory = models.QuotaGeneral
			if c, ok := in.Candidates[m.CandidateID]; ok {
				m.QuotaCategory = c.QuotaCategory()
			}
		}
		matches[i] = m
	}
	SortByBoostedScore(matches)

	internships := make(map[string]models.Internship, len(in.Internships))
	for _, it := range in.Internships {
		internships[it.ID] = it
	}

	state := newAllocationState(in.Plan, in.Internships)
	at := e.now().UTC()
	allocations := make([]models.Allocation, 0, models.TotalCapacity(in.Internships))

	take := func(rec models.MatchRecord, seat models.QuotaCategory, t models.AllocationType) error {
		if err := state.commit(rec, seat); err != nil {
			return err
		}
		allocations = append(allocations, e.newAllocation(rec, seat, t, internships[rec.InternshipID], in.Candidates, at))
		return nil
	}

	for _, cat := range models.ReservedCategories {
		for _, rec := range matches {
			if !state.seatsLeft(cat) {
				break
			}
			if state.isAllocated(rec.CandidateID) || !state.hasRoom(rec.InternshipID) || rec.QuotaCategory != cat {
				continue
			}
			if err := take(rec, cat, models.AllocationQuota); err != nil {
				return nil, e.abort(err)
			}
		}
	}

	for _, rec := range matches {
		if state.isAllocated(rec.CandidateID) || !state.hasRoom(rec.InternshipID) {
			continue
		}

		var err error
		if rec.QuotaCategory == models.QuotaGeneral && state.seatsLeft(models.QuotaGeneral) {
			err = take(rec, models.QuotaGeneral, models.AllocationGeneral)
		} else if seat, ok := state.firstOpenReserved(); ok {
			// Any candidate, whatever its own category, may take an open reserved seat.
			err = take(rec, seat, models.AllocationMeritInQuota)
		} else if state.seatsLeft(models.QuotaGeneral) {
			err = take(rec, models.QuotaGeneral, models.AllocationMerit)
		}
		if err != nil {
			return nil, e.abort(err)
		}
	}

	result := &models.AllocationResult{
		Allocations:         allocations,
		QuotaPlan:           copyPlan(in.Plan),
		QuotaFulfillment:    state.filled,
		CapacityUtilization: state.used,
		Summary: models.AllocationSummary{
			TotalAllocated:        len(allocations),
			TotalCapacity:         models.TotalCapacity(in.Internships),
			UnallocatedCandidates: countCandidates(matches) - len(allocations),
		},
	}

	if err := VerifyAllocation(result, in.Internships); err != nil {
		return nil, e.abort(err)
	}

	for _, a := range allocations {
		e.recorder.Allocated(a.AllocationType, a.SeatCategory)
	}
	e.recorder.StageCompleted(StageAllocation, time.Since(started))
	e.logger.Info("allocation completed", map[string]interface{}{
		"matches":        len(matches),
		"totalAllocated": result.Summary.TotalAllocated,
		"totalCapacity":  result.Summary.TotalCapacity,
		"unallocated":    result.Summary.UnallocatedCandidates,
		"fulfillment":    result.QuotaFulfillment,
	})
	return result, nil
}

func (e *AllocationEngine) abort(err error) error {
	fields := map[string]interface{}{"error": err.Error()}
	if se, ok := err.(*StageError); ok {
		fields["offendingId"] = se.ID
	}
	e.logger.Error("allocation aborted", fields)
	return err
}

func (e *AllocationEngine) newAllocation(rec models.MatchRecord, seat models.QuotaCategory, t models.AllocationType,
	internship models.Internship, candidates map[string]models.Candidate, at time.Time) models.Allocation {
	a := models.Allocation{
		CandidateID:     rec.CandidateID,
		InternshipID:    rec.InternshipID,
		InternshipTitle: internship.Title,
		QuotaCategory:   rec.QuotaCategory,
		SeatCategory:    seat,
		AllocationType:  t,
		OriginalScore:   rec.RawScore,
		FinalScore:      rec.BoostedScore,
		DiversityBoost:  rec.TotalBoost,
		BoostReasons:    append([]string(nil), rec.BoostReasons...),
		AllocatedAt:     at,
	}
	for _, r := range rec.BoostReasons {
		if r == ReasonRural {
			a.Rural = true
		}
	}
	if c, ok := candidates[rec.CandidateID]; ok {
		a.CandidateName = c.Name
		a.CandidateLocation = c.Location
		a.Rural = a.Rural || c.Rural
	}
	return a
}

func validateAllocationInput(in AllocationInput) error {
	if len(in.Matches) == 0 {
		return newValidationError(StageAllocation, "", "match set is empty")
	}
	if len(in.Internships) == 0 {
		return newValidationError(StageAllocation, "", "internship set is empty")
	}

	seen, err := validateInternships(StageAllocation, in.Internships)
	if err != nil {
		return err
	}

	for _, m := range in.Matches {
		if _, ok := seen[m.InternshipID]; !ok {
			return newValidationError(StageAllocation, m.InternshipID, "match references unknown internship")
		}
	}

	if len(in.Plan) == 0 {
		return newValidationError(StageAllocation, "", "quota plan is empty")
	}
	for cat, n := range in.Plan {
		if !cat.Valid() {
			return newValidationError(StageAllocation, string(cat), "unknown quota category in plan")
		}
		if n < 0 {
			return newValidationError(StageAllocation, string(cat), "negative slot count %d", n)
		}
	}
	if total, capacity := in.Plan.Total(), models.TotalCapacity(in.Internships); total > capacity {
		return newValidationError(StageAllocation, "", "quota plan total %d exceeds capacity %d", total, capacity)
	}
	return nil
}

// validateInternships requires non-blank unique ids and a capacity of at least
// one seat. It returns the id set for reference checks.
func validateInternships(stage string, internships []models.Internship) (map[string]struct{}, error) {
	seen := make(map[string]struct{}, len(internships))
	for _, it := range internships {
		if strings.TrimSpace(it.ID) == "" {
			return nil, newValidationError(stage, "", "internship id is required")
		}
		if it.Capacity < 1 {
			return nil, newValidationError(stage, it.ID, "internship capacity must be at least 1, got %d", it.Capacity)
		}
		if _, dup := seen[it.ID]; dup {
			return nil, newValidationError(stage, it.ID, "duplicate internship id")
		}
		seen[it.ID] = struct{}{}
	}
	return seen, nil
}

func validateCandidates(stage string, candidates []models.Candidate) error {
	seen := make(map[string]struct{}, len(candidates))
	for _, c := range candidates {
		if strings.TrimSpace(c.ID) == "" {
			return newValidationError(stage, "", "candidate id is required")
		}
		if _, dup := seen[c.ID]; dup {
			return newValidationError(stage, c.ID, "duplicate candidate id")
		}
		seen[c.ID] = struct{}{}
	}
	return nil
}

// VerifyAllocation re-checks the batch invariants over a finished result.
func VerifyAllocation(result *models.AllocationResult, internships []models.Internship) error {
	capacity := make(map[string]int, len(internships))
	for _, it := range internships {
		capacity[it.ID] = it.Capacity
	}

	seen := make(map[string]struct{}, len(result.Allocations))
	perInternship := make(map[string]int)
	perSeat := make(map[models.QuotaCategory]int)
	for _, a := range result.Allocations {
		if _, dup := seen[a.CandidateID]; dup {
			return newInvariantError(a.CandidateID, "candidate appears twice in allocation set")
		}
		seen[a.CandidateID] = struct{}{}

		perInternship[a.InternshipID]++
		if perInternship[a.InternshipID] > capacity[a.InternshipID] {
			return newInvariantError(a.InternshipID, "internship over capacity")
		}
		perSeat[a.SeatCategory]++
		if perSeat[a.SeatCategory] > result.QuotaPlan.Slots(a.SeatCategory) {
			return newInvariantError(string(a.SeatCategory), "filled count beyond plan")
		}
	}
	return nil
}

func copyPlan(p models.QuotaPlan) models.QuotaPlan {
	out := make(models.QuotaPlan, len(models.AllQuotaCategories))
	for _, cat := range models.AllQuotaCategories {
		out[cat] = p.Slots(cat)
	}
	return out
}

func countCandidates(matches []models.MatchRecord) int {
	ids := make(map[string]struct{})
	for _, m := range matches {
		ids[m.CandidateID] = struct{}{}
	}
	return len(ids)
}

// internal/allocation/matcher.go
package allocation

import (
	"context"
	"fmt"
	"runtime"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"internship-allocator/internal/common/logger"
	"internship-allocator/internal/models"
)

// MatcherConfig bounds and tunes a BatchMatcher run.
type MatcherConfig struct {
	// MinScore drops pairs scoring below it. Zero keeps everything.
	MinScore    float64 `mapstructure:"min_score" json:"minScore"`
	Concurrency int     `mapstructure:"concurrency" json:"concurrency"`
	// MaxPairs caps candidates x internships. Zero disables the cap.
	MaxPairs int `mapstructure:"max_pairs" json:"maxPairs"`
}

type MatchStats struct {
	Candidates     int `json:"candidates"`
	Internships    int `json:"internships"`
	EligiblePairs  int `json:"eligiblePairs"`
	DroppedPairs   int `json:"droppedPairs"`
	BelowThreshold int `json:"belowThreshold"`
	Fallbacks      int `json:"fallbacks"`
}

type BatchMatcher struct {
	scorer   Scorer
	cfg      MatcherConfig
	logger   logger.Logger
	recorder Recorder
}

func NewBatchMatcher(scorer Scorer, cfg MatcherConfig, log logger.Logger, rec Recorder) *BatchMatcher {
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = runtime.NumCPU()
	}
	if rec == nil {
		rec = NopRecorder{}
	}
	return &BatchMatcher{
		scorer:   scorer,
		cfg:      cfg,
		logger:   log.WithFields(map[string]interface{}{"stage": StageMatching}),
		recorder: rec,
	}
}

type pairRef struct {
	candidate  int
	internship int
}

// Match scores every eligible pair and returns the records sorted by raw score
// descending, then candidate id and internship id ascending.
func (m *BatchMatcher) Match(ctx context.Context, candidates []models.Candidate, internships []models.Internship) ([]models.MatchRecord, MatchStats, error) {
	started := time.Now()
	stats := MatchStats{Candidates: len(candidates), Internships: len(internships)}

	if len(candidates) == 0 {
		return nil, stats, newValidationError(StageMatching, "", "candidate set is empty")
	}
	if len(internships) == 0 {
		return nil, stats, newValidationError(StageMatching, "", "internship set is empty")
	}
	if err := validateCandidates(StageMatching, candidates); err != nil {
		return nil, stats, err
	}
	if _, err := validateInternships(StageMatching, internships); err != nil {
		return nil, stats, err
	}
	if m.cfg.MaxPairs > 0 && len(candidates)*len(internships) > m.cfg.MaxPairs {
		return nil, stats, newValidationError(StageMatching, "",
			"cross product %d exceeds limit %d", len(candidates)*len(internships), m.cfg.MaxPairs)
	}
	if err := ctx.Err(); err != nil {
		return nil, stats, err
	}

	pairs := make([]pairRef, 0, len(candidates)*len(internships))
	for ci := range candidates {
		for ii := range internships {
			if Eligible(candidates[ci], internships[ii]) {
				pairs = append(pairs, pairRef{candidate: ci, internship: ii})
			}
		}
	}
	stats.EligiblePairs = len(pairs)
	stats.DroppedPairs = len(candidates)*len(internships) - len(pairs)

	records := make([]models.MatchRecord, len(pairs))
	var fallbacks int64

	jobs := make(chan int)
	var wg sync.WaitGroup
	workers := m.cfg.Concurrency
	if workers > len(pairs) {
		workers = len(pairs)
	}
	wg.Add(workers)
	for w := 0; w < workers; w++ {
		go func() {
			defer wg.Done()
			for idx := range jobs {
				p := pairs[idx]
				rec := m.scorePair(candidates[p.candidate], internships[p.internship])
				if rec.Fallback {
					atomic.AddInt64(&fallbacks, 1)
				}
				records[idx] = rec
			}
		}()
	}

	var cancelled error
dispatch:
	for idx := range pairs {
		select {
		case <-ctx.Done():
			cancelled = ctx.Err()
			break dispatch
		case jobs <- idx:
		}
	}
	close(jobs)
	wg.Wait()

	if cancelled != nil {
		return nil, stats, fmt.Errorf("match cancelled after partial dispatch: %w", cancelled)
	}

	stats.Fallbacks = int(fallbacks)

	if m.cfg.MinScore > 0 {
		kept := records[:0]
		for _, r := range records {
			if r.RawScore >= m.cfg.MinScore {
				kept = append(kept, r)
			}
		}
		stats.BelowThreshold = len(records) - len(kept)
		records = kept
	}

	SortByRawScore(records)

	m.recorder.StageCompleted(StageMatching, time.Since(started))
	m.logger.Info("batch matched", map[string]interface{}{
		"candidates":     stats.Candidates,
		"internships":    stats.Internships,
		"eligiblePairs":  stats.EligiblePairs,
		"droppedPairs":   stats.DroppedPairs,
		"belowThreshold": stats.BelowThreshold,
		"fallbacks":      stats.Fallbacks,
		"records":        len(records),
	})

	return records, stats, nil
}

// scorePair never fails: errors and panics are replaced by the neutral score.
func (m *BatchMatcher) scorePair(c models.Candidate, in models.Internship) (rec models.MatchRecord) {
	rec = models.MatchRecord{
		CandidateID:   c.ID,
		InternshipID:  in.ID,
		QuotaCategory: c.QuotaCategory(),
	}

	defer func() {
		if r := recover(); r != nil {
			m.fallback(&rec, fmt.Errorf("%w: panic: %v", ErrComputation, r))
		}
	}()

	res, err := m.scorer.Score(c, in)
	if err != nil {
		m.fallback(&rec, err)
		return rec
	}

	rec.RawScore = res.Score
	rec.BoostedScore = res.Score
	rec.Breakdown = res.Breakdown
	m.recorder.PairScored(false)
	return rec
}

func (m *BatchMatcher) fallback(rec *models.MatchRecord, err error) {
	rec.RawScore = NeutralScore
	rec.BoostedScore = NeutralScore
	rec.Breakdown = models.ScoreBreakdown{}
	rec.Fallback = true
	m.recorder.PairScored(true)
	m.logger.Warn("pair scoring failed, using neutral score", map[string]interface{}{
		"candidateId":  rec.CandidateID,
		"internshipId": rec.InternshipID,
		"error":        err.Error(),
	})
}

// SortByRawScore orders records by raw score descending with id tie-breaks.
func SortByRawScore(records []models.MatchRecord) {
	sort.SliceStable(records, func(i, j int) bool {
		return lessByScore(records[i], records[j], records[i].RawScore, records[j].RawScore)
	})
}

// SortByBoostedScore orders records by boosted score descending with id tie-breaks.
func SortByBoostedScore(records []models.MatchRecord) {
	sort.SliceStable(records, func(i, j int) bool {
		return lessByScore(records[i], records[j], records[i].BoostedScore, records[j].BoostedScore)
	})
}

func lessByScore(a, b models.MatchRecord, sa, sb float64) bool {
	if sa != sb {
		return sa > sb
	}
	if a.CandidateID != b.CandidateID {
		return a.CandidateID < b.CandidateID
	}
	return a.InternshipID < b.InternshipID
}

// internal/store/postgres.go
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/lib/pq"

	"internship-allocator/internal/allocation"
	"internship-allocator/internal/models"
)

var ErrRunNotFound = errors.New("allocation run not found")

// ProfileRepository reads candidate and internship profiles.
type ProfileRepository struct {
	db *sql.DB
}

func NewProfileRepository(db *sql.DB) *ProfileRepository {
	return &ProfileRepository{db: db}
}

// LoadCandidates returns the candidates among ids that exist, ordered by id.
func (r *ProfileRepository) LoadCandidates(ctx context.Context, ids []string) ([]models.Candidate, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, name, skills, location, category, social_category,
		       rural, female, disability, first_generation, experience, education
		FROM candidates
		WHERE id = ANY($1)
		ORDER BY id`, pq.Array(ids))
	if err != nil {
		return nil, fmt.Errorf("query candidates: %w", err)
	}
	defer rows.Close()

	var out []models.Candidate
	for rows.Next() {
		var c models.Candidate
		var experience, education []byte
		err := rows.Scan(
			&c.ID, &c.Name, pq.Array(&c.Skills), &c.Location, &c.Category, &c.SocialCategory,
			&c.Rural, &c.Female, &c.Disability, &c.FirstGeneration, &experience, &education,
		)
		if err != nil {
			return nil, fmt.Errorf("scan candidate: %w", err)
		}
		if len(experience) > 0 {
			if err := json.Unmarshal(experience, &c.Experience); err != nil {
				return nil, fmt.Errorf("decode experience of %s: %w", c.ID, err)
			}
		}
		if len(education) > 0 {
			if err := json.Unmarshal(education, &c.Education); err != nil {
				return nil, fmt.Errorf("decode education of %s: %w", c.ID, err)
			}
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// LoadInternships returns the internships among ids that exist, ordered by id.
func (r *ProfileRepository) LoadInternships(ctx context.Context, ids []string) ([]models.Internship, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, title, company, capacity, category, location, remote, required_skills,
		       salary_min, salary_max, min_education, location_restricted, allowed_locations
		FROM internships
		WHERE id = ANY($1)
		ORDER BY id`, pq.Array(ids))
	if err != nil {
		return nil, fmt.Errorf("query internships: %w", err)
	}
	defer rows.Close()

	var out []models.Internship
	for rows.Next() {
		var in models.Internship
		var minEducation sql.NullString
		err := rows.Scan(
			&in.ID, &in.Title, &in.Company, &in.Capacity, &in.Category, &in.Location, &in.Remote,
			pq.Array(&in.RequiredSkills), &in.SalaryMin, &in.SalaryMax, &minEducation,
			&in.LocationRestricted, pq.Array(&in.AllowedLocations),
		)
		if err != nil {
			return nil, fmt.Errorf("scan internship: %w", err)
		}
		in.MinEducation = minEducation.String
		out = append(out, in)
	}
	return out, rows.Err()
}

// AllocationRun is a persisted allocation together with the inputs the
// diversity report needs.
type AllocationRun struct {
	ID          string                   `json:"id"`
	BatchID     string                   `json:"batchId"`
	Percentages allocation.Percentages   `json:"percentages"`
	Plan        models.QuotaPlan         `json:"quotaPlan"`
	Summary     models.AllocationSummary `json:"summary"`
	Allocations []models.Allocation      `json:"allocations"`
	Applicants  []models.Candidate       `json:"applicants"`
	CreatedAt   time.Time                `json:"createdAt"`
}

type AllocationRepository struct {
	db *sql.DB
}

func NewAllocationRepository(db *sql.DB) *AllocationRepository {
	return &AllocationRepository{db: db}
}

// SaveRun writes the run row and all of its allocations in one transaction.
func (r *AllocationRepository) SaveRun(ctx context.Context, run *AllocationRun) (err error) {
	percentages, err := json.Marshal(run.Percentages)
	if err != nil {
		return fmt.Errorf("encode percentages: %w", err)
	}
	plan, err := json.Marshal(run.Plan)
	if err != nil {
		return fmt.Errorf("encode quota plan: %w", err)
	}
	applicants, err := json.Marshal(run.Applicants)
	if err != nil {
		return fmt.Errorf("encode applicants: %w", err)
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO allocation_runs
			(id, batch_id, quota_percentages, quota_plan, total_allocated, total_capacity,
			 unallocated_candidates, applicants, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		run.ID, run.BatchID, percentages, plan, run.Summary.TotalAllocated, run.Summary.TotalCapacity,
		run.Summary.UnallocatedCandidates, applicants, run.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert allocation run: %w", err)
	}

	for i, a := range run.Allocations {
		_, err = tx.ExecContext(ctx, `
			INSERT INTO allocation_items
				(run_id, position, candidate_id, candidate_name, internship_id, internship_title,
				 quota_category, seat_category, allocation_type, original_score, final_score,
				 diversity_boost, boost_reasons, candidate_location, rural, allocated_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)`,
			run.ID, i, a.CandidateID, a.CandidateName, a.InternshipID, a.InternshipTitle,
			string(a.QuotaCategory), string(a.SeatCategory), string(a.AllocationType), a.OriginalScore, a.FinalScore,
			a.DiversityBoost, pq.Array(a.BoostReasons), a.CandidateLocation, a.Rural, a.AllocatedAt,
		)
		if err != nil {
			return fmt.Errorf("insert allocation %s/%s: %w", a.CandidateID, a.InternshipID, err)
		}
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit allocation run: %w", err)
	}
	return nil
}

// LoadRun returns ErrRunNotFound for unknown ids.
func (r *AllocationRepository) LoadRun(ctx context.Context, id string) (*AllocationRun, error) {
	run := &AllocationRun{ID: id}
	var percentages, plan, applicants []byte
	err := r.db.QueryRowContext(ctx, `
		SELECT batch_id, quota_percentages, quota_plan, total_allocated, total_capacity,
		       unallocated_candidates, applicants, created_at
		FROM allocation_runs
		WHERE id = $1`, id).Scan(
		&run.BatchID, &percentages, &plan, &run.Summary.TotalAllocated, &run.Summary.TotalCapacity,
		&run.Summary.UnallocatedCandidates, &applicants, &run.CreatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrRunNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("query allocation run: %w", err)
	}

	var rawPercentages map[string]float64
	if err := json.Unmarshal(percentages, &rawPercentages); err != nil {
		return nil, fmt.Errorf("decode percentages: %w", err)
	}
	if run.Percentages, err = allocation.ParsePercentages(rawPercentages); err != nil {
		return nil, err
	}
	if err := json.Unmarshal(plan, &run.Plan); err != nil {
		return nil, fmt.Errorf("decode quota plan: %w", err)
	}
	if err := json.Unmarshal(applicants, &run.Applicants); err != nil {
		return nil, fmt.Errorf("decode applicants: %w", err)
	}

	rows, err := r.db.QueryContext(ctx, `
		SELECT candidate_id, candidate_name, internship_id, internship_title, quota_category,
		       seat_category, allocation_type, original_score, final_score, diversity_boost,
		       boost_reasons, candidate_location, rural, allocated_at
		FROM allocation_items
		WHERE run_id = $1
		ORDER BY position`, id)
	if err != nil {
		return nil, fmt.Errorf("query allocation items: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var a models.Allocation
		var quotaCat, seatCat, allocType string
		err := rows.Scan(
			&a.CandidateID, &a.CandidateName, &a.InternshipID, &a.InternshipTitle, &quotaCat,
			&seatCat, &allocType, &a.OriginalScore, &a.FinalScore, &a.DiversityBoost,
			pq.Array(&a.BoostReasons), &a.CandidateLocation, &a.Rural, &a.AllocatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scan allocation item: %w", err)
		}
		a.QuotaCategory = models.QuotaCategory(quotaCat)
		a.SeatCategory = models.QuotaCategory(seatCat)
		a.AllocationType = models.AllocationType(allocType)
		run.Allocations = append(run.Allocations, a)
	}
	return run, rows.Err()
}

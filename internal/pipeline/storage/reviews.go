package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/studioops/fulfillment-be/internal/pipeline/domain"
)

// reviewRow carries the checklist as raw JSONB alongside the domain fields.
type reviewRow struct {
	domain.QualityReview
	ChecklistJSON []byte `db:"checklist"`
}

func (r *reviewRow) toDomain() (*domain.QualityReview, error) {
	review := r.QualityReview
	if len(r.ChecklistJSON) > 0 {
		if err := json.Unmarshal(r.ChecklistJSON, &review.Checklist); err != nil {
			return nil, fmt.Errorf("failed to decode checklist: %w", err)
		}
	}
	return &review, nil
}

const reviewColumns = `
	review_id, deliverable_id, job_id, reviewer_id,
	technical_score, creative_score, adherence_score, overall_score,
	checklist, feedback, decision, created_at
`

// CreateReview inserts the review and commits the job transition from -> to
// in one transaction. The unique constraint on deliverable_id backs the
// one-review-per-deliverable invariant at the database level too.
func (s *Storage) CreateReview(ctx context.Context, r *domain.QualityReview, from, to domain.JobStatus, now time.Time) error {
	var checklistJSON []byte
	if r.Checklist != nil {
		var err error
		checklistJSON, err = json.Marshal(r.Checklist)
		if err != nil {
			return fmt.Errorf("failed to encode checklist: %w", err)
		}
	}

	return s.inTx(ctx, func(tx *sqlx.Tx) error {
		insert := `
			INSERT INTO quality_reviews (` + reviewColumns + `)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		`
		if _, err := tx.ExecContext(ctx, insert,
			r.ReviewID, r.DeliverableID, r.JobID, r.ReviewerID,
			r.TechnicalScore, r.CreativeScore, r.AdherenceScore, r.OverallScore,
			checklistJSON, r.Feedback, r.Decision, r.CreatedAt,
		); err != nil {
			if isUniqueViolation(err) {
				return fmt.Errorf("%w: deliverable %s", domain.ErrAlreadyReviewed, r.DeliverableID)
			}
			return fmt.Errorf("failed to insert review: %w", err)
		}

		update := `
			UPDATE jobs
			SET status = $1, updated_at = $2
			WHERE job_id = $3 AND status = $4
		`
		result, err := tx.ExecContext(ctx, update, to, now, r.JobID, from)
		if err != nil {
			return fmt.Errorf("failed to update job status: %w", err)
		}
		rows, err := result.RowsAffected()
		if err != nil {
			return fmt.Errorf("failed to get rows affected: %w", err)
		}
		if rows == 0 {
			return fmt.Errorf("%w: expected %s", domain.ErrStatusConflict, from)
		}
		return nil
	})
}

// ReviewForDeliverable returns the deliverable's review, or nil when it is
// still awaiting one.
func (s *Storage) ReviewForDeliverable(ctx context.Context, deliverableID string) (*domain.QualityReview, error) {
	query := `SELECT ` + reviewColumns + ` FROM quality_reviews WHERE deliverable_id = $1`

	var row reviewRow
	if err := s.db.GetContext(ctx, &row, query, deliverableID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get review: %w", err)
	}
	return row.toDomain()
}

// LatestReviewForJob returns the job's most recent review, or nil.
func (s *Storage) LatestReviewForJob(ctx context.Context, jobID string) (*domain.QualityReview, error) {
	query := `SELECT ` + reviewColumns + ` FROM quality_reviews WHERE job_id = $1 ORDER BY created_at DESC LIMIT 1`

	var row reviewRow
	if err := s.db.GetContext(ctx, &row, query, jobID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get latest review: %w", err)
	}
	return row.toDomain()
}

// ReviewsForCreator returns every review recorded against the creator's
// submissions, newest first.
func (s *Storage) ReviewsForCreator(ctx context.Context, creatorID string) ([]domain.QualityReview, error) {
	query := `
		SELECT
			r.review_id, r.deliverable_id, r.job_id, r.reviewer_id,
			r.technical_score, r.creative_score, r.adherence_score, r.overall_score,
			r.checklist, r.feedback, r.decision, r.created_at
		FROM quality_reviews r
		JOIN deliverables d ON d.deliverable_id = r.deliverable_id
		WHERE d.creator_id = $1
		ORDER BY r.created_at DESC
	`

	var rows []reviewRow
	if err := s.db.SelectContext(ctx, &rows, query, creatorID); err != nil {
		return nil, fmt.Errorf("failed to list reviews for creator: %w", err)
	}

	out := make([]domain.QualityReview, 0, len(rows))
	for i := range rows {
		review, err := rows[i].toDomain()
		if err != nil {
			return nil, err
		}
		out = append(out, *review)
	}
	return out, nil
}

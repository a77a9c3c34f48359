package referral

import (
	"context"
	"database/sql"
	"errors"
	"strconv"
	"time"

	"github.com/jmoiron/sqlx"
)

type Repository interface {
	CountByStatusSince(ctx context.Context, since time.Time) (map[string]int, error)
	TopReferrersByFraud(ctx context.Context, since time.Time, limit int) ([]ReferrerStats, error)
	RecentFraudCases(ctx context.Context, since time.Time, limit int) ([]Referral, error)
	ListForReviewSince(ctx context.Context, since time.Time, status Status, limit int) ([]Referral, error)
	GetByID(ctx context.Context, id int64) (*Referral, error)
	ApplyReviewDecision(ctx context.Context, id int64, decision Decision, expected Status, now time.Time) (*Referral, bool, error)
}

type repository struct {
	db *sqlx.DB
}

func NewRepository(db *sqlx.DB) Repository {
	return &repository{db: db}
}

func (r *repository) CountByStatusSince(ctx context.Context, since time.Time) (map[string]int, error) {
	rows := []struct {
		Status string `db:"status"`
		Total  int    `db:"total"`
	}{}

	query := `SELECT status, COUNT(*) AS total
		FROM referrals
		WHERE created_at >= $1
		GROUP BY status`

	if err := r.db.SelectContext(ctx, &rows, query, since); err != nil {
		return nil, err
	}

	counts := make(map[string]int, len(rows))
	for _, row := range rows {
		counts[row.Status] = row.Total
	}
	return counts, nil
}

func (r *repository) TopReferrersByFraud(ctx context.Context, since time.Time, limit int) ([]ReferrerStats, error) {
	stats := []ReferrerStats{}

	query := `SELECT referrer_user_id,
			COUNT(*) AS started_total,
			COUNT(*) FILTER (WHERE status = 'FRAUD_CONFIRMED') AS rejected_fraud_total,
			COALESCE(MAX(fraud_score), 0) AS max_fraud_score
		FROM referrals
		WHERE created_at >= $1
		GROUP BY referrer_user_id
		HAVING COUNT(*) FILTER (WHERE status = 'FRAUD_CONFIRMED') > 0
		ORDER BY rejected_fraud_total DESC, max_fraud_score DESC
		LIMIT $2`

	if err := r.db.SelectContext(ctx, &stats, query, since, limit); err != nil {
		return nil, err
	}
	return stats, nil
}

func (r *repository) RecentFraudCases(ctx context.Context, since time.Time, limit int) ([]Referral, error) {
	cases := []Referral{}

	query := `SELECT id, referrer_user_id, referred_user_id, status, fraud_score,
			created_at, qualified_at, rewarded_at
		FROM referrals
		WHERE created_at >= $1
		  AND status IN ('FRAUD_SUSPECTED', 'FRAUD_CONFIRMED')
		ORDER BY fraud_score DESC, created_at DESC
		LIMIT $2`

	if err := r.db.SelectContext(ctx, &cases, query, since, limit); err != nil {
		return nil, err
	}
	return cases, nil
}

func (r *repository) ListForReviewSince(ctx context.Context, since time.Time, status Status, limit int) ([]Referral, error) {
	cases := []Referral{}

	query := `SELECT id, referrer_user_id, referred_user_id, status, fraud_score,
			created_at, qualified_at, rewarded_at
		FROM referrals
		WHERE created_at >= $1`
	args := []interface{}{since}

	if status != "" {
		query += ` AND status = $2`
		args = append(args, string(status))
	} else {
		query += ` AND status IN ('PENDING', 'QUALIFIED', 'FRAUD_SUSPECTED')`
	}

	query += ` ORDER BY fraud_score DESC, created_at ASC LIMIT $` + strconv.Itoa(len(args)+1)
	args = append(args, limit)

	if err := r.db.SelectContext(ctx, &cases, query, args...); err != nil {
		return nil, err
	}
	return cases, nil
}

func (r *repository) GetByID(ctx context.Context, id int64) (*Referral, error) {
	var ref Referral

	query := `SELECT id, referrer_user_id, referred_user_id, status, fraud_score,
			created_at, qualified_at, rewarded_at
		FROM referrals
		WHERE id = $1`

	if err := r.db.GetContext(ctx, &ref, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &ref, nil
}

// ApplyReviewDecision moves one referral through the review state machine.
// The expected status is rechecked under row lock so concurrent reviewers
// cannot clobber each other; a mismatch surfaces as ErrStatusConflict.
func (r *repository) ApplyReviewDecision(ctx context.Context, id int64, decision Decision, expected Status, now time.Time) (*Referral, bool, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, false, err
	}
	defer tx.Rollback()

	var ref Referral
	query := `SELECT id, referrer_user_id, referred_user_id, status, fraud_score,
			created_at, qualified_at, rewarded_at
		FROM referrals
		WHERE id = $1
		FOR UPDATE`

	if err := tx.GetContext(ctx, &ref, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, false, ErrNotFound
		}
		return nil, false, err
	}

	target, ok := ResolveNextStatus(expected, decision)
	if !ok {
		return nil, false, ErrDecisionConflict
	}

	if ref.Status != expected {
		// Replaying the same decision is harmless; anything else conflicts.
		if ref.Status == target {
			if err := tx.Commit(); err != nil {
				return nil, false, err
			}
			return &ref, true, nil
		}
		return nil, false, ErrStatusConflict
	}

	ref.Status = target
	switch decision {
	case DecisionConfirmFraud:
		if ref.FraudScore < FraudScoreVelocity {
			ref.FraudScore = FraudScoreVelocity
		}
		ref.QualifiedAt = sql.NullTime{}
		ref.RewardedAt = sql.NullTime{}
	case DecisionReopen:
		ref.FraudScore = 0
		ref.QualifiedAt = sql.NullTime{}
		ref.RewardedAt = sql.NullTime{}
	case DecisionCancel:
		ref.QualifiedAt = sql.NullTime{}
		ref.RewardedAt = sql.NullTime{}
	}

	update := `UPDATE referrals
		SET status = $1, fraud_score = $2, qualified_at = $3, rewarded_at = $4, updated_at = $5
		WHERE id = $6`

	if _, err := tx.ExecContext(ctx, update,
		string(ref.Status), ref.FraudScore, ref.QualifiedAt, ref.RewardedAt, now, ref.ID); err != nil {
		return nil, false, err
	}

	if err := tx.Commit(); err != nil {
		return nil, false, err
	}
	return &ref, false, nil
}

package promo

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/jmoiron/sqlx"
)

// Repository defines promo data access interface
type Repository interface {
	// Dashboard counters
	CountAttemptsByResult(ctx context.Context, since time.Time) (map[string]int, error)
	CountRedemptionsByStatus(ctx context.Context, since time.Time) (map[string]int, error)
	CountDiscountRedemptionsByStatus(ctx context.Context, since time.Time) (map[string]int, error)
	CountCampaignsByStatus(ctx context.Context) (map[string]int, error)
	CountPausedCampaignsSince(ctx context.Context, since time.Time) (int, error)
	CountAbusiveCodeHashes(ctx context.Context, since time.Time, minFailedAttempts, minDistinctUsers int) (int, error)

	// Campaigns
	ListCampaigns(ctx context.Context, status, campaignName string, limit int) ([]*Campaign, error)
	TransitionCampaignStatus(ctx context.Context, id int64, desired, expected CampaignStatus, now time.Time) (*Campaign, error)

	// Refund rollback
	RollbackRefundedPurchase(ctx context.Context, purchaseID string, now time.Time) (*RollbackResult, error)
}

type repository struct {
	db *sqlx.DB
}

// NewRepository creates new promo repository
func NewRepository(db *sqlx.DB) Repository {
	return &repository{db: db}
}

type statusCount struct {
	Key   string `db:"key"`
	Total int    `db:"total"`
}

func (r *repository) countsByKey(ctx context.Context, query string, args ...interface{}) (map[string]int, error) {
	var rows []statusCount
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, err
	}
	counts := make(map[string]int, len(rows))
	for _, row := range rows {
		counts[row.Key] = row.Total
	}
	return counts, nil
}

func (r *repository) CountAttemptsByResult(ctx context.Context, since time.Time) (map[string]int, error) {
	return r.countsByKey(ctx, `
		SELECT result AS key, COUNT(*) AS total
		FROM promo_attempts
		WHERE created_at >= $1
		GROUP BY result
	`, since)
}

func (r *repository) CountRedemptionsByStatus(ctx context.Context, since time.Time) (map[string]int, error) {
	return r.countsByKey(ctx, `
		SELECT status AS key, COUNT(*) AS total
		FROM promo_redemptions
		WHERE created_at >= $1
		GROUP BY status
	`, since)
}

func (r *repository) CountDiscountRedemptionsByStatus(ctx context.Context, since time.Time) (map[string]int, error) {
	return r.countsByKey(ctx, `
		SELECT pr.status AS key, COUNT(*) AS total
		FROM promo_redemptions pr
		JOIN promo_codes pc ON pc.id = pr.promo_code_id
		WHERE pr.created_at >= $1 AND pc.promo_type = 'DISCOUNT'
		GROUP BY pr.status
	`, since)
}

func (r *repository) CountCampaignsByStatus(ctx context.Context) (map[string]int, error) {
	return r.countsByKey(ctx, `
		SELECT status AS key, COUNT(*) AS total
		FROM promo_codes
		GROUP BY status
	`)
}

func (r *repository) CountPausedCampaignsSince(ctx context.Context, since time.Time) (int, error) {
	var total int
	err := r.db.GetContext(ctx, &total, `
		SELECT COUNT(*) FROM promo_codes
		WHERE status = 'PAUSED' AND updated_at >= $1
	`, since)
	return total, err
}

// CountAbusiveCodeHashes counts distinct code hashes that look like guessing
// attacks: enough failed attempts from enough distinct users in the window.
func (r *repository) CountAbusiveCodeHashes(ctx context.Context, since time.Time, minFailedAttempts, minDistinctUsers int) (int, error) {
	var total int
	err := r.db.GetContext(ctx, &total, `
		SELECT COUNT(*) FROM (
			SELECT code_hash
			FROM promo_attempts
			WHERE created_at >= $1 AND result <> 'ACCEPTED'
			GROUP BY code_hash
			HAVING COUNT(*) >= $2 AND COUNT(DISTINCT user_id) >= $3
		) abusive
	`, since, minFailedAttempts, minDistinctUsers)
	return total, err
}

func (r *repository) ListCampaigns(ctx context.Context, status, campaignName string, limit int) ([]*Campaign, error) {
	query := `
		SELECT id, campaign_name, promo_type, target_scope, status,
		       valid_from, valid_until, max_total_uses, used_total, updated_at
		FROM promo_codes
		WHERE ($1 = '' OR status = $1)
		  AND ($2 = '' OR campaign_name ILIKE '%' || $2 || '%')
		ORDER BY updated_at DESC
		LIMIT $3
	`
	var campaigns []*Campaign
	err := r.db.SelectContext(ctx, &campaigns, query, status, campaignName, limit)
	return campaigns, err
}

// TransitionCampaignStatus performs the precondition-guarded status change
// in one transaction, locking the row so the expected-status check and the
// update are atomic.
func (r *repository) TransitionCampaignStatus(ctx context.Context, id int64, desired, expected CampaignStatus, now time.Time) (*Campaign, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	var campaign Campaign
	err = tx.GetContext(ctx, &campaign, `
		SELECT id, campaign_name, promo_type, target_scope, status,
		       valid_from, valid_until, max_total_uses, used_total, updated_at
		FROM promo_codes
		WHERE id = $1
		FOR UPDATE
	`, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrCampaignNotFound
		}
		return nil, err
	}

	if campaign.Status != expected {
		return nil, ErrStatusConflict
	}

	if campaign.Status != desired {
		if !IsMutableStatus(campaign.Status) || !CanTransition(campaign.Status, desired) {
			return nil, ErrStatusConflict
		}
		_, err = tx.ExecContext(ctx, `
			UPDATE promo_codes SET status = $1, updated_at = $2 WHERE id = $3
		`, desired, now, campaign.ID)
		if err != nil {
			return nil, err
		}
		campaign.Status = desired
		campaign.UpdatedAt = now
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return &campaign, nil
}

// RollbackRefundedPurchase reverts the promo redemption attached to a
// refunded purchase: redemption goes to ROLLED_BACK and the campaign's
// used_total is decremented (never below zero). Re-running for the same
// purchase is an idempotent replay.
func (r *repository) RollbackRefundedPurchase(ctx context.Context, purchaseID string, now time.Time) (*RollbackResult, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	var purchase struct {
		ID                 string        `db:"id"`
		Status             string        `db:"status"`
		AppliedPromoCodeID sql.NullInt64 `db:"applied_promo_code_id"`
	}
	err = tx.GetContext(ctx, &purchase, `
		SELECT id, status, applied_promo_code_id
		FROM purchases
		WHERE id = $1
		FOR UPDATE
	`, purchaseID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrPurchaseNotFound
		}
		return nil, err
	}

	replay := true
	if purchase.Status != "REFUNDED" {
		if purchase.Status != "COMPLETED" {
			return nil, ErrRefundNotAllowed
		}
		_, err = tx.ExecContext(ctx, `
			UPDATE purchases SET status = 'REFUNDED', updated_at = $1 WHERE id = $2
		`, now, purchase.ID)
		if err != nil {
			return nil, err
		}
		purchase.Status = "REFUNDED"
		replay = false
	}

	result := &RollbackResult{
		PurchaseID:     purchase.ID,
		PurchaseStatus: purchase.Status,
	}

	if purchase.AppliedPromoCodeID.Valid {
		codeID := purchase.AppliedPromoCodeID.Int64
		result.PromoCodeID = &codeID

		var redemption struct {
			ID     string `db:"id"`
			Status string `db:"status"`
		}
		err = tx.GetContext(ctx, &redemption, `
			SELECT id, status FROM promo_redemptions
			WHERE purchase_id = $1 AND promo_code_id = $2
			FOR UPDATE
		`, purchase.ID, codeID)
		if err != nil && !errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		if err == nil {
			if redemption.Status != RedemptionStatusRolledBack {
				_, err = tx.ExecContext(ctx, `
					UPDATE promo_redemptions SET status = $1, updated_at = $2 WHERE id = $3
				`, RedemptionStatusRolledBack, now, redemption.ID)
				if err != nil {
					return nil, err
				}
				_, err = tx.ExecContext(ctx, `
					UPDATE promo_codes
					SET used_total = GREATEST(used_total - 1, 0), updated_at = $1
					WHERE id = $2
				`, now, codeID)
				if err != nil {
					return nil, err
				}
				redemption.Status = RedemptionStatusRolledBack
				replay = false
			}
			result.PromoRedemptionID = &redemption.ID
			result.PromoRedemptionStatus = &redemption.Status
		}

		var usedTotal int64
		err = tx.GetContext(ctx, &usedTotal, `SELECT used_total FROM promo_codes WHERE id = $1`, codeID)
		if errors.Is(err, sql.ErrNoRows) {
			// purchase references a campaign that no longer exists
			return nil, ErrRefundInvariant
		}
		if err != nil {
			return nil, err
		}
		if usedTotal < 0 {
			return nil, ErrRefundInvariant
		}
		result.PromoCodeUsedTotal = &usedTotal
	}

	result.IdempotentReplay = replay
	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return result, nil
}

package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"bazaar-ads/internal/core/domain"
	"bazaar-ads/internal/core/port"
)

// CampaignStore implements port.CampaignStore using pgxpool for PostgreSQL.
// Spend and click deltas are single-statement increment-and-return updates,
// so per-campaign atomicity comes from the database itself rather than a
// read-modify-write cycle in the application.
type CampaignStore struct {
	pool *pgxpool.Pool
}

// NewCampaignStore returns a new store instance.
func NewCampaignStore(pool *pgxpool.Pool) *CampaignStore {
	return &CampaignStore{pool: pool}
}

const campaignColumns = `
	id, merchant_id, name, type, status,
	product_ids, target_audience, target_locations, target_interests, target_demographics,
	budget, spent, start_date, end_date,
	impressions, clicks, conversions, click_through_rate, conversion_rate,
	created_at, updated_at`

func scanCampaign(row pgx.CollectableRow) (domain.Campaign, error) {
	var c domain.Campaign
	err := row.Scan(
		&c.ID,
		&c.MerchantID,
		&c.Name,
		&c.Type,
		&c.Status,
		&c.ProductIDs,
		&c.TargetAudience,
		&c.TargetLocations,
		&c.TargetInterests,
		&c.TargetDemographics,
		&c.Budget,
		&c.Spent,
		&c.StartDate,
		&c.EndDate,
		&c.Impressions,
		&c.Clicks,
		&c.Conversions,
		&c.ClickThroughRate,
		&c.ConversionRate,
		&c.CreatedAt,
		&c.UpdatedAt,
	)
	return c, err
}

// FindActiveCampaigns returns all ACTIVE campaigns, optionally scoped to a
// merchant. Results are ordered by id so rankings downstream are
// reproducible.
func (s *CampaignStore) FindActiveCampaigns(ctx context.Context, merchantID string) ([]domain.Campaign, error) {
	query := `SELECT` + campaignColumns + ` FROM campaigns WHERE status = $1`
	args := []any{domain.StatusActive}
	if merchantID != "" {
		query += ` AND merchant_id = $2`
		args = append(args, merchantID)
	}
	query += ` ORDER BY id`

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("find active campaigns: %w", err)
	}
	return pgx.CollectRows(rows, scanCampaign)
}

// FindCampaignsByMerchant returns every campaign of the merchant regardless
// of status, ordered by id.
func (s *CampaignStore) FindCampaignsByMerchant(ctx context.Context, merchantID string) ([]domain.Campaign, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT`+campaignColumns+` FROM campaigns WHERE merchant_id = $1 ORDER BY id`, merchantID)
	if err != nil {
		return nil, fmt.Errorf("find campaigns by merchant: %w", err)
	}
	return pgx.CollectRows(rows, scanCampaign)
}

// GetCampaign returns a campaign by id or port.ErrCampaignNotFound.
func (s *CampaignStore) GetCampaign(ctx context.Context, id string) (*domain.Campaign, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT`+campaignColumns+` FROM campaigns WHERE id = $1`, id)
	if err != nil {
		return nil, fmt.Errorf("get campaign: %w", err)
	}
	c, err := pgx.CollectOneRow(rows, scanCampaign)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, port.ErrCampaignNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get campaign: %w", err)
	}
	return &c, nil
}

// ApplySpendDelta adds amount to spent and impressionDelta to the
// impression counter in one statement and returns the updated values.
func (s *CampaignStore) ApplySpendDelta(ctx context.Context, id string, amount float64, impressionDelta int64) (float64, int64, error) {
	var (
		spent       float64
		impressions int64
	)
	err := s.pool.QueryRow(ctx, `
		UPDATE campaigns SET
			spent = spent + $1,
			impressions = impressions + $2,
			click_through_rate = CASE
				WHEN impressions + $2 > 0 THEN clicks::float8 / (impressions + $2)
				ELSE 0
			END,
			updated_at = now()
		WHERE id = $3
		RETURNING spent, impressions`,
		amount, impressionDelta, id,
	).Scan(&spent, &impressions)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, 0, port.ErrCampaignNotFound
	}
	if err != nil {
		return 0, 0, fmt.Errorf("apply spend delta: %w", err)
	}
	return spent, impressions, nil
}

// ApplyClickDelta increments the click counter and refreshes the stored
// click-through rate in one statement, returning the updated counters.
func (s *CampaignStore) ApplyClickDelta(ctx context.Context, id string) (int64, int64, error) {
	var (
		clicks      int64
		impressions int64
	)
	err := s.pool.QueryRow(ctx, `
		UPDATE campaigns SET
			clicks = clicks + 1,
			click_through_rate = CASE
				WHEN impressions > 0 THEN (clicks + 1)::float8 / impressions
				ELSE 0
			END,
			updated_at = now()
		WHERE id = $1
		RETURNING clicks, impressions`,
		id,
	).Scan(&clicks, &impressions)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, 0, port.ErrCampaignNotFound
	}
	if err != nil {
		return 0, 0, fmt.Errorf("apply click delta: %w", err)
	}
	return clicks, impressions, nil
}

// UpdateBudgets writes an allocation inside one transaction so a partial
// allocation is never visible.
func (s *CampaignStore) UpdateBudgets(ctx context.Context, allocation map[string]float64) (err error) {
	var tx pgx.Tx
	tx, err = s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("update budgets: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback(ctx)
		} else {
			err = tx.Commit(ctx)
		}
	}()

	for id, budget := range allocation {
		var tag int64
		tag, err = execAffected(ctx, tx, `UPDATE campaigns SET budget = $1, updated_at = now() WHERE id = $2`, budget, id)
		if err != nil {
			return fmt.Errorf("update budgets: %w", err)
		}
		if tag == 0 {
			err = port.ErrCampaignNotFound
			return err
		}
	}
	return err
}

func execAffected(ctx context.Context, tx pgx.Tx, query string, args ...any) (int64, error) {
	tag, err := tx.Exec(ctx, query, args...)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

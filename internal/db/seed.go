package db

import (
	"context"
	"fmt"
	"math/rand"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"bazaar-ads/internal/core/domain"
)

// Seed inserts demo campaigns for local development. Campaigns get random
// targeting and a bit of performance history so that scoring, reports and
// recommendations return something interesting out of the box.
func Seed(ctx context.Context, pool *pgxpool.Pool) error {
	r := rand.New(rand.NewSource(time.Now().UnixNano()))

	merchants := []string{"merchant-coffee", "merchant-books", "merchant-gear"}
	audiences := []domain.TargetAudience{
		domain.AudienceAll,
		domain.AudiencePreviousVisitors,
		domain.AudienceCartAbandoners,
		domain.AudiencePreviousCustomers,
	}
	types := []domain.CampaignType{
		domain.TypeProductPromotion,
		domain.TypeRetargeting,
		domain.TypeBrandAwareness,
	}
	locations := []string{"London", "Berlin", "Yerevan"}
	interests := []string{"coffee", "reading", "hiking", "tech"}

	for i := 1; i <= 9; i++ {
		merchant := merchants[(i-1)%len(merchants)]
		productIDs := []string{
			fmt.Sprintf("product-%d", i),
			fmt.Sprintf("product-%d", i+100),
		}
		impressions := int64(r.Intn(5000))
		clicks := int64(0)
		if impressions > 0 {
			clicks = int64(r.Intn(int(impressions)/10 + 1))
		}
		conversions := int64(0)
		if clicks > 0 {
			conversions = int64(r.Intn(int(clicks)/5 + 1))
		}
		ctr := 0.0
		if impressions > 0 {
			ctr = float64(clicks) / float64(impressions)
		}
		cvr := 0.0
		if clicks > 0 {
			cvr = float64(conversions) / float64(clicks)
		}

		budget := float64(100 * (1 + r.Intn(10)))
		var endDate *time.Time
		if i%3 != 0 {
			end := time.Now().AddDate(0, 0, 7+r.Intn(21))
			endDate = &end
		}

		_, err := pool.Exec(ctx, `INSERT INTO campaigns
    (id, merchant_id, name, type, status,
     product_ids, target_audience, target_locations, target_interests, target_demographics,
     budget, spent, start_date, end_date,
     impressions, clicks, conversions, click_through_rate, conversion_rate,
     created_at, updated_at)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17,$18,$19,now(),now())
ON CONFLICT DO NOTHING`,
			uuid.NewString(),
			merchant,
			fmt.Sprintf("Demo campaign %d", i),
			types[r.Intn(len(types))],
			domain.StatusActive,
			productIDs,
			audiences[r.Intn(len(audiences))],
			[]string{locations[r.Intn(len(locations))]},
			[]string{interests[r.Intn(len(interests))], interests[r.Intn(len(interests))]},
			[]string{"18-35"},
			budget,
			budget*float64(r.Intn(60))/100,
			time.Now().AddDate(0, 0, -r.Intn(14)-1),
			endDate,
			impressions,
			clicks,
			conversions,
			ctr,
			cvr,
		)
		if err != nil {
			return err
		}
	}
	return nil
}

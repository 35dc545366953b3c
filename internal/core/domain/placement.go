package domain

// PlacementContext describes input from a single discovery feed request. It
// captures viewer signals such as location, interests and shopping history.
// The HTTP layer constructs this struct from request data and passes it into
// the placement engine. It is never persisted.
type PlacementContext struct {
	UserID       string
	SessionID    string
	Location     string
	Interests    []string
	Demographics []string

	PreviouslyViewedProductIDs []string
	CartProductIDs             []string
	PurchasedProductIDs        []string

	// MaxAds limits how many sponsored placements are returned. Zero or
	// negative means the configured default applies.
	MaxAds int
}

// PlacementResult is a single sponsored placement selected for the feed.
type PlacementResult struct {
	CampaignID     string       `json:"campaign_id"`
	MerchantID     string       `json:"merchant_id"`
	ProductIDs     []string     `json:"product_ids"`
	Type           CampaignType `json:"type"`
	RelevanceScore float64      `json:"relevance_score"`
	IsSponsored    bool         `json:"is_sponsored"`
	ImpressionCost float64      `json:"impression_cost"`
}

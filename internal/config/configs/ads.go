package configs

// Ads collects the tunable business parameters of the budget and placement
// engine. They are operating assumptions, not structural invariants, so
// every one of them can be overridden from the environment.
type Ads struct {
	// PlanningHorizonDays is the assumed duration, in days, used for
	// daily-budget and time-based allocation math when a campaign has no end
	// date.
	PlanningHorizonDays int `env:"PLANNING_HORIZON_DAYS" envDefault:"30"`
	// AssumedDailyImpressions is the denominator used to derive a cost per
	// impression from a campaign's daily budget.
	AssumedDailyImpressions float64 `env:"ASSUMED_DAILY_IMPRESSIONS" envDefault:"1000"`
	// AssumedDailyClicks is the click analogue, used to derive a cost per
	// click from the daily budget.
	AssumedDailyClicks float64 `env:"ASSUMED_DAILY_CLICKS" envDefault:"100"`
	// DefaultMaxAds caps the number of sponsored placements per feed request
	// when the request does not specify its own limit.
	DefaultMaxAds int `env:"DEFAULT_MAX_ADS" envDefault:"2"`

	// DefaultCTR and DefaultCVR substitute for click-through and conversion
	// rates of products with no impression or click history yet.
	DefaultCTR float64 `env:"DEFAULT_CTR" envDefault:"0.01"`
	DefaultCVR float64 `env:"DEFAULT_CVR" envDefault:"0.02"`
	// BaseRecommendedBudget is the floor of every placement recommendation;
	// performance scales it up.
	BaseRecommendedBudget float64 `env:"BASE_RECOMMENDED_BUDGET" envDefault:"100"`
	// PerformanceBudgetBoost scales how strongly a product's performance
	// score raises its recommended budget above the base.
	PerformanceBudgetBoost float64 `env:"PERFORMANCE_BUDGET_BOOST" envDefault:"10"`
	// EstimatedImpressionCost converts a recommended budget into an expected
	// impression volume.
	EstimatedImpressionCost float64 `env:"ESTIMATED_IMPRESSION_COST" envDefault:"0.01"`

	// EventBufferSize is the capacity of the in-process ad event queue.
	// Events beyond it are dropped rather than blocking placement.
	EventBufferSize int `env:"EVENT_BUFFER_SIZE" envDefault:"256"`
}

package port

import "bazaar-ads/internal/core/domain"

// Notifier is the fire-and-forget publish mechanism the engine uses to
// announce ad events to analytics and suppression subsystems. Publish must
// never block the caller and must never fail in a way that reaches the
// engine: a lost event is acceptable, a stalled or rolled-back spend is not.
type Notifier interface {
	Publish(event domain.AdEvent)
}

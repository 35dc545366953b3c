package httpadapter

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"bazaar-ads/internal/core/domain"
)

// feedRequest is the JSON body of a discovery feed ad request. It carries
// the viewer signals used for targeting.
type feedRequest struct {
	UserID                     string   `json:"user_id"`
	SessionID                  string   `json:"session_id"`
	Location                   string   `json:"location"`
	Interests                  []string `json:"interests"`
	Demographics               []string `json:"demographics"`
	PreviouslyViewedProductIDs []string `json:"previously_viewed_product_ids"`
	CartProductIDs             []string `json:"cart_product_ids"`
	PurchasedProductIDs        []string `json:"purchased_product_ids"`
	MaxAds                     int      `json:"max_ads"`
}

// handleDiscoveryFeed selects sponsored placements for a feed request. The
// body is decoded into a placement context; parsing errors produce HTTP
// 400, internal errors HTTP 500. An empty result is a normal 200 with an
// empty list.
func (h *Handler) handleDiscoveryFeed(w http.ResponseWriter, r *http.Request) {
	var req feedRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid JSON", http.StatusBadRequest)
		return
	}

	pc := domain.PlacementContext{
		UserID:                     req.UserID,
		SessionID:                  req.SessionID,
		Location:                   req.Location,
		Interests:                  req.Interests,
		Demographics:               req.Demographics,
		PreviouslyViewedProductIDs: req.PreviouslyViewedProductIDs,
		CartProductIDs:             req.CartProductIDs,
		PurchasedProductIDs:        req.PurchasedProductIDs,
		MaxAds:                     req.MaxAds,
	}

	results, err := h.engine.GetAdsForDiscoveryFeed(r.Context(), pc)
	if err != nil {
		h.logger.Error("discovery feed error", slog.Any("error", err))
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	if results == nil {
		results = []domain.PlacementResult{}
	}
	h.writeJSON(w, results)
}

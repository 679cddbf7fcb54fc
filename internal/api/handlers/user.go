package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/ratewise/store-ratings/internal/api/httpx"
	"github.com/ratewise/store-ratings/internal/api/validate"
	"github.com/ratewise/store-ratings/internal/middleware"
	"github.com/ratewise/store-ratings/internal/models"
	"github.com/ratewise/store-ratings/internal/services"
)

type UserHandler struct {
	Svc *services.RatingService
}

func NewUserHandler(svc *services.RatingService) *UserHandler {
	return &UserHandler{Svc: svc}
}

func (h *UserHandler) ListStores(w http.ResponseWriter, r *http.Request) {
	id, _ := middleware.IdentityFrom(r.Context())
	stores, err := h.Svc.ListStoresForUser(r.Context(), id.UserID)
	if err != nil {
		httpx.Error(w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, stores)
}

type rateReq struct {
	StoreID string `json:"storeId"`
	Rating  int    `json:"rating"`
}

// RateStore answers 201 for a first-time rating and 200 for an
// overwrite; either way exactly one rating row remains for the pair.
func (h *UserHandler) RateStore(w http.ResponseWriter, r *http.Request) {
	id, _ := middleware.IdentityFrom(r.Context())
	var req rateReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpx.WriteError(w, http.StatusBadRequest, "bad_request", "invalid request body", nil)
		return
	}
	var errs validate.Errs
	for _, ef := range []*validate.ErrField{
		validate.Required("storeId", req.StoreID),
		validate.IntRange("rating", req.Rating, models.RatingMin, models.RatingMax),
	} {
		if ef != nil {
			errs = append(errs, *ef)
		}
	}
	if len(errs) > 0 {
		httpx.WriteError(w, http.StatusBadRequest, "validation_error", "invalid rating payload", errs)
		return
	}
	rt, created, err := h.Svc.RateStore(r.Context(), id.UserID, req.StoreID, req.Rating)
	if err != nil {
		httpx.Error(w, err)
		return
	}
	status := http.StatusOK
	msg := "rating updated successfully"
	if created {
		status = http.StatusCreated
		msg = "rating submitted successfully"
	}
	httpx.WriteJSON(w, status, map[string]any{
		"message": msg,
		"rating":  rt,
	})
}

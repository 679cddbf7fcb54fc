package handlers

import (
	"net/http"

	"github.com/ratewise/store-ratings/internal/api/httpx"
	"github.com/ratewise/store-ratings/internal/middleware"
	"github.com/ratewise/store-ratings/internal/services"
)

type OwnerHandler struct {
	Svc *services.RatingService
}

func NewOwnerHandler(svc *services.RatingService) *OwnerHandler {
	return &OwnerHandler{Svc: svc}
}

func (h *OwnerHandler) Dashboard(w http.ResponseWriter, r *http.Request) {
	id, _ := middleware.IdentityFrom(r.Context())
	dash, err := h.Svc.Dashboard(r.Context(), id.UserID)
	if err != nil {
		httpx.Error(w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, dash)
}

package handlers

import (
	"encoding/csv"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/ratewise/store-ratings/internal/api/httpx"
	"github.com/ratewise/store-ratings/internal/api/validate"
	"github.com/ratewise/store-ratings/internal/middleware"
	"github.com/ratewise/store-ratings/internal/services"
)

type AdminHandler struct {
	Svc *services.AdminService
}

func NewAdminHandler(svc *services.AdminService) *AdminHandler {
	return &AdminHandler{Svc: svc}
}

type createUserReq struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
	Address  string `json:"address"`
	Role     string `json:"role"`
}

func (h *AdminHandler) CreateUser(w http.ResponseWriter, r *http.Request) {
	var req createUserReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpx.WriteError(w, http.StatusBadRequest, "bad_request", "invalid request body", nil)
		return
	}
	var errs validate.Errs
	for _, ef := range []*validate.ErrField{
		validate.Required("name", req.Name),
		validate.Required("email", req.Email),
		validate.Required("password", req.Password),
		validate.Required("role", req.Role),
	} {
		if ef != nil {
			errs = append(errs, *ef)
		}
	}
	if len(errs) > 0 {
		httpx.WriteError(w, http.StatusBadRequest, "validation_error", "missing required fields", errs)
		return
	}

	u, err := h.Svc.CreateUser(r.Context(), req.Name, req.Email, req.Password, req.Address, req.Role)
	if err != nil {
		httpx.Error(w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusCreated, map[string]any{
		"message": "user created successfully",
		"userId":  u.ID,
		"role":    u.Role,
	})
}

func (h *AdminHandler) ListUsers(w http.ResponseWriter, r *http.Request) {
	users, err := h.Svc.ListUsers(r.Context())
	if err != nil {
		httpx.Error(w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, users)
}

func (h *AdminHandler) GetUser(w http.ResponseWriter, r *http.Request) {
	detail, err := h.Svc.GetUser(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		httpx.Error(w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, detail)
}

func (h *AdminHandler) DeleteUser(w http.ResponseWriter, r *http.Request) {
	id, _ := middleware.IdentityFrom(r.Context())
	if err := h.Svc.DeleteUser(r.Context(), id.UserID, chi.URLParam(r, "id")); err != nil {
		httpx.Error(w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, map[string]string{"message": "user deleted successfully"})
}

func (h *AdminHandler) ChangeRole(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Role string `json:"role"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpx.WriteError(w, http.StatusBadRequest, "bad_request", "invalid request body", nil)
		return
	}
	u, err := h.Svc.ChangeRole(r.Context(), chi.URLParam(r, "id"), req.Role)
	if err != nil {
		httpx.Error(w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, map[string]any{
		"message": "role updated successfully",
		"userId":  u.ID,
		"role":    u.Role,
	})
}

type createStoreReq struct {
	Name    string `json:"name"`
	Email   string `json:"email"`
	Address string `json:"address"`
	OwnerID string `json:"ownerId"`
}

func (h *AdminHandler) CreateStore(w http.ResponseWriter, r *http.Request) {
	var req createStoreReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpx.WriteError(w, http.StatusBadRequest, "bad_request", "invalid request body", nil)
		return
	}
	store, err := h.Svc.CreateStore(r.Context(), req.Name, req.Email, req.Address, req.OwnerID)
	if err != nil {
		httpx.Error(w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusCreated, map[string]any{
		"message": "store created successfully",
		"storeId": store.ID,
	})
}

func (h *AdminHandler) ListStores(w http.ResponseWriter, r *http.Request) {
	stores, err := h.Svc.ListStores(r.Context())
	if err != nil {
		httpx.Error(w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, stores)
}

func (h *AdminHandler) DeleteStore(w http.ResponseWriter, r *http.Request) {
	if err := h.Svc.DeleteStore(r.Context(), chi.URLParam(r, "id")); err != nil {
		httpx.Error(w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, map[string]string{"message": "store deleted successfully"})
}

func (h *AdminHandler) Dashboard(w http.ResponseWriter, r *http.Request) {
	totals, err := h.Svc.Dashboard(r.Context())
	if err != nil {
		httpx.Error(w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, totals)
}

func (h *AdminHandler) UsersReport(w http.ResponseWriter, r *http.Request) {
	rows, err := h.Svc.UsersReport(r.Context())
	if err != nil {
		httpx.Error(w, err)
		return
	}
	writeCSV(w, "users", rows)
}

func (h *AdminHandler) StoresReport(w http.ResponseWriter, r *http.Request) {
	rows, err := h.Svc.StoresReport(r.Context())
	if err != nil {
		httpx.Error(w, err)
		return
	}
	writeCSV(w, "stores", rows)
}

func writeCSV(w http.ResponseWriter, name string, rows [][]string) {
	filename := name + "_report_" + time.Now().Format("2006-01-02") + ".csv"
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="`+filename+`"`)
	_ = csv.NewWriter(w).WriteAll(rows)
}

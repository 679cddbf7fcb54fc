package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ratewise/store-ratings/internal/auth"
	"github.com/ratewise/store-ratings/internal/config"
	"github.com/ratewise/store-ratings/internal/models"
	"github.com/ratewise/store-ratings/internal/repository/memory"
	"github.com/ratewise/store-ratings/internal/services"
	"github.com/ratewise/store-ratings/internal/worker"
)

func setupRouter(t *testing.T) (http.Handler, memory.Repositories) {
	t.Helper()
	cfg := config.Config{
		Env:           "test",
		JWTSecret:     "test-secret",
		JWTIssuer:     "store-ratings",
		TokenTTL:      time.Hour,
		ResetTokenTTL: 15 * time.Minute,
		RateRPS:       0, // disabled in tests
	}
	repos := memory.NewRepositories()
	wp := worker.NewPool(1)
	t.Cleanup(wp.Stop)

	tm := auth.NewTokenManager(cfg.JWTSecret, cfg.JWTIssuer, cfg.TokenTTL)
	r := NewRouter(RouterDeps{
		Cfg:       cfg,
		TM:        tm,
		AuthSvc:   services.NewAuthService(repos.Users, tm, cfg.ResetTokenTTL),
		AdminSvc:  services.NewAdminService(repos.Users, repos.Stores, repos.Ratings, repos.AuditLogs, wp),
		RatingSvc: services.NewRatingService(repos.Stores, repos.Ratings),
	})
	return r, repos
}

func doJSON(t *testing.T, h http.Handler, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out), "body: %s", rec.Body.String())
	return out
}

func seedAccount(t *testing.T, repos memory.Repositories, name, email, password string, role models.Role) models.User {
	t.Helper()
	hash, err := auth.HashPassword(password)
	require.NoError(t, err)
	u, err := repos.Users.Create(context.Background(), models.User{Name: name, Email: email, PasswordHash: hash, Role: role})
	require.NoError(t, err)
	return u
}

func login(t *testing.T, h http.Handler, email, password string) string {
	t.Helper()
	rec := doJSON(t, h, http.MethodPost, "/api/auth/login", "", map[string]string{
		"email": email, "password": password,
	})
	require.Equal(t, http.StatusOK, rec.Code, "login failed: %s", rec.Body.String())
	return decode(t, rec)["token"].(string)
}

func TestSignupAndLogin(t *testing.T) {
	h, _ := setupRouter(t)

	rec := doJSON(t, h, http.MethodPost, "/api/auth/signup", "", map[string]string{
		"name": "Alice", "email": "alice@example.com", "password": "pass1234", "address": "12 Main St",
	})
	assert.Equal(t, http.StatusCreated, rec.Code)

	// role in the payload is ignored, never honored
	rec = doJSON(t, h, http.MethodPost, "/api/auth/signup", "", map[string]string{
		"name": "Mallory", "email": "mallory@example.com", "password": "pass1234", "role": "admin",
	})
	assert.Equal(t, http.StatusCreated, rec.Code)

	rec = doJSON(t, h, http.MethodPost, "/api/auth/signup", "", map[string]string{
		"name": "Alice Again", "email": "alice@example.com", "password": "other",
	})
	assert.Equal(t, http.StatusConflict, rec.Code)

	token := login(t, h, "mallory@example.com", "pass1234")
	require.NotEmpty(t, token)

	// signed-up accounts are plain users
	rec = doJSON(t, h, http.MethodGet, "/api/admin/users", token, nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)
	rec = doJSON(t, h, http.MethodGet, "/api/user/stores", token, nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = doJSON(t, h, http.MethodPost, "/api/auth/login", "", map[string]string{
		"email": "alice@example.com", "password": "wrong",
	})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestProtectedRoutesRequireToken(t *testing.T) {
	h, _ := setupRouter(t)

	for _, path := range []string{"/api/admin/users", "/api/owner/dashboard", "/api/user/stores"} {
		rec := doJSON(t, h, http.MethodGet, path, "", nil)
		assert.Equal(t, http.StatusUnauthorized, rec.Code, path)
	}

	rec := doJSON(t, h, http.MethodGet, "/api/user/stores", "not-a-jwt", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestRoleGatesAreExact(t *testing.T) {
	h, repos := setupRouter(t)
	seedAccount(t, repos, "Admin", "admin@example.com", "Admin@123", models.RoleAdmin)
	adminToken := login(t, h, "admin@example.com", "Admin@123")

	// no role hierarchy: admin cannot use user or owner endpoints
	rec := doJSON(t, h, http.MethodGet, "/api/user/stores", adminToken, nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)
	rec = doJSON(t, h, http.MethodGet, "/api/owner/dashboard", adminToken, nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)
	rec = doJSON(t, h, http.MethodGet, "/api/admin/dashboard", adminToken, nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestRatingFlow(t *testing.T) {
	h, repos := setupRouter(t)
	seedAccount(t, repos, "Admin", "admin@example.com", "Admin@123", models.RoleAdmin)
	adminToken := login(t, h, "admin@example.com", "Admin@123")

	rec := doJSON(t, h, http.MethodPost, "/api/admin/users", adminToken, map[string]string{
		"name": "Olive Owner", "email": "olive@example.com", "password": "pass1234", "role": "owner",
	})
	require.Equal(t, http.StatusCreated, rec.Code)
	ownerID := decode(t, rec)["userId"].(string)

	rec = doJSON(t, h, http.MethodPost, "/api/admin/stores", adminToken, map[string]string{
		"name": "Corner Shop", "email": "shop@example.com", "ownerId": ownerID,
	})
	require.Equal(t, http.StatusCreated, rec.Code)
	storeID := decode(t, rec)["storeId"].(string)

	seedAccount(t, repos, "Uma", "uma@example.com", "pass1234", models.RoleUser)
	seedAccount(t, repos, "Vic", "vic@example.com", "pass1234", models.RoleUser)
	umaToken := login(t, h, "uma@example.com", "pass1234")
	vicToken := login(t, h, "vic@example.com", "pass1234")

	// out-of-range rejected
	rec = doJSON(t, h, http.MethodPost, "/api/user/ratings", umaToken, map[string]any{
		"storeId": storeID, "rating": 6,
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	// first rating creates, second updates
	rec = doJSON(t, h, http.MethodPost, "/api/user/ratings", umaToken, map[string]any{
		"storeId": storeID, "rating": 4,
	})
	assert.Equal(t, http.StatusCreated, rec.Code)
	rec = doJSON(t, h, http.MethodPost, "/api/user/ratings", vicToken, map[string]any{
		"storeId": storeID, "rating": 2,
	})
	assert.Equal(t, http.StatusCreated, rec.Code)

	// the user listing carries overall average and own rating
	rec = doJSON(t, h, http.MethodGet, "/api/user/stores", umaToken, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var stores []map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &stores))
	require.Len(t, stores, 1)
	assert.Equal(t, 3.0, stores[0]["averageRating"])
	assert.Equal(t, 4.0, stores[0]["userRating"])

	// overwrite drops Uma's 4 to a 1; average follows
	rec = doJSON(t, h, http.MethodPost, "/api/user/ratings", umaToken, map[string]any{
		"storeId": storeID, "rating": 1,
	})
	assert.Equal(t, http.StatusOK, rec.Code)

	ownerToken := login(t, h, "olive@example.com", "pass1234")
	rec = doJSON(t, h, http.MethodGet, "/api/owner/dashboard", ownerToken, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	dash := decode(t, rec)
	assert.Equal(t, 1.5, dash["averageRating"])
	assert.Len(t, dash["ratings"], 2)
}

func TestAdminUserManagement(t *testing.T) {
	h, repos := setupRouter(t)
	admin := seedAccount(t, repos, "Admin", "admin@example.com", "Admin@123", models.RoleAdmin)
	adminToken := login(t, h, "admin@example.com", "Admin@123")

	// self-delete is refused
	rec := doJSON(t, h, http.MethodDelete, "/api/admin/users/"+admin.ID, adminToken, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	// removing a fellow admin works while more than one remains
	second := seedAccount(t, repos, "Second", "second@example.com", "Admin@123", models.RoleAdmin)
	rec = doJSON(t, h, http.MethodDelete, "/api/admin/users/"+second.ID, adminToken, nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	// role change path rejects admin as target role
	u := seedAccount(t, repos, "Bob", "bob@example.com", "pass1234", models.RoleUser)
	rec = doJSON(t, h, http.MethodPatch, "/api/admin/users/"+u.ID+"/role", adminToken, map[string]string{"role": "admin"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	rec = doJSON(t, h, http.MethodPatch, "/api/admin/users/"+u.ID+"/role", adminToken, map[string]string{"role": "owner"})
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestCSVReports(t *testing.T) {
	h, repos := setupRouter(t)
	seedAccount(t, repos, "Admin", "admin@example.com", "Admin@123", models.RoleAdmin)
	adminToken := login(t, h, "admin@example.com", "Admin@123")

	rec := doJSON(t, h, http.MethodGet, "/api/admin/reports/users", adminToken, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Type"), "text/csv")
	assert.Contains(t, rec.Body.String(), "ID,Name,Email,Role")
}

func TestPasswordResetEndpoints(t *testing.T) {
	h, _ := setupRouter(t)

	rec := doJSON(t, h, http.MethodPost, "/api/auth/signup", "", map[string]string{
		"name": "Alice", "email": "alice@example.com", "password": "oldpass",
	})
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = doJSON(t, h, http.MethodPost, "/api/auth/forgot-password", "", map[string]string{"email": "ghost@example.com"})
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = doJSON(t, h, http.MethodPost, "/api/auth/forgot-password", "", map[string]string{"email": "alice@example.com"})
	require.Equal(t, http.StatusOK, rec.Code)
	token := decode(t, rec)["resetToken"].(string)
	require.Len(t, token, 64)

	rec = doJSON(t, h, http.MethodPost, "/api/auth/reset-password", "", map[string]string{
		"token": "bogus", "newPassword": "newpass",
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = doJSON(t, h, http.MethodPost, "/api/auth/reset-password", "", map[string]string{
		"token": token, "newPassword": "newpass",
	})
	assert.Equal(t, http.StatusOK, rec.Code)

	login(t, h, "alice@example.com", "newpass")
}

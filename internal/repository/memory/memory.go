// Package memory holds map-backed implementations of the repository
// interfaces. Service and handler tests run against these instead of a
// live Postgres; the SQL-level guards are reproduced in Go.
package memory

import (
	"context"
	"fmt"
	"math"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/ratewise/store-ratings/internal/apperr"
	"github.com/ratewise/store-ratings/internal/models"
	repo "github.com/ratewise/store-ratings/internal/repository"
)

type Repositories struct {
	Users     *UsersRepo
	Stores    *StoresRepo
	Ratings   *RatingsRepo
	AuditLogs *AuditLogsRepo
}

func NewRepositories() Repositories {
	users := &UsersRepo{byID: map[string]models.User{}}
	stores := &StoresRepo{byID: map[string]models.Store{}}
	ratings := &RatingsRepo{byID: map[string]models.Rating{}}
	stores.ratings = ratings
	stores.users = users
	ratings.users = users
	users.stores = stores
	users.ratings = ratings
	return Repositories{
		Users:     users,
		Stores:    stores,
		Ratings:   ratings,
		AuditLogs: &AuditLogsRepo{},
	}
}

var (
	_ repo.Users     = (*UsersRepo)(nil)
	_ repo.Stores    = (*StoresRepo)(nil)
	_ repo.Ratings   = (*RatingsRepo)(nil)
	_ repo.AuditLogs = (*AuditLogsRepo)(nil)
)

// ---------------- users ----------------

type UsersRepo struct {
	mu      sync.Mutex
	byID    map[string]models.User
	stores  *StoresRepo
	ratings *RatingsRepo
}

func (r *UsersRepo) Create(_ context.Context, u models.User) (models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, other := range r.byID {
		if other.Email == u.Email {
			return models.User{}, fmt.Errorf("%w: users_email_key", apperr.ErrConflict)
		}
	}
	if u.ID == "" {
		u.ID = uuid.NewString()
	}
	u.CreatedAt = time.Now()
	u.UpdatedAt = u.CreatedAt
	r.byID[u.ID] = u
	return u, nil
}

func (r *UsersRepo) GetByID(_ context.Context, id string) (models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.byID[id]
	if !ok {
		return models.User{}, apperr.ErrNotFound
	}
	return u, nil
}

func (r *UsersRepo) GetByEmail(_ context.Context, email string) (models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.byID {
		if u.Email == email {
			return u, nil
		}
	}
	return models.User{}, apperr.ErrNotFound
}

func (r *UsersRepo) List(_ context.Context, excludeRole models.Role) ([]models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []models.User
	for _, u := range r.byID {
		if excludeRole != "" && u.Role == excludeRole {
			continue
		}
		out = append(out, u)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (r *UsersRepo) UpdatePassword(_ context.Context, id, passwordHash string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.byID[id]
	if !ok {
		return nil
	}
	u.PasswordHash = passwordHash
	u.UpdatedAt = time.Now()
	r.byID[id] = u
	return nil
}

func (r *UsersRepo) UpdateRole(_ context.Context, id string, role models.Role) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.byID[id]
	if !ok {
		return nil
	}
	u.Role = role
	u.UpdatedAt = time.Now()
	r.byID[id] = u
	return nil
}

func (r *UsersRepo) DeleteAdminGuarded(_ context.Context, id string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.byID[id]
	if !ok {
		return false, nil
	}
	if u.Role == models.RoleAdmin {
		admins := 0
		for _, other := range r.byID {
			if other.Role == models.RoleAdmin {
				admins++
			}
		}
		if admins <= 1 {
			return false, nil
		}
	}
	delete(r.byID, id)
	r.ratings.deleteByUser(id)
	r.stores.clearOwner(id)
	return true, nil
}

func (r *UsersRepo) SetResetToken(_ context.Context, email, token string, expiry time.Time) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for id, u := range r.byID {
		if u.Email == email {
			u.ResetToken = &token
			u.ResetTokenExpiry = &expiry
			r.byID[id] = u
			return true, nil
		}
	}
	return false, nil
}

func (r *UsersRepo) ConsumeResetToken(_ context.Context, token, passwordHash string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for id, u := range r.byID {
		if u.ResetToken != nil && *u.ResetToken == token &&
			u.ResetTokenExpiry != nil && u.ResetTokenExpiry.After(time.Now()) {
			u.PasswordHash = passwordHash
			u.ResetToken = nil
			u.ResetTokenExpiry = nil
			r.byID[id] = u
			return true, nil
		}
	}
	return false, nil
}

func (r *UsersRepo) Count(_ context.Context) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.byID), nil
}

// ---------------- stores ----------------

type StoresRepo struct {
	mu      sync.Mutex
	byID    map[string]models.Store
	ratings *RatingsRepo
	users   *UsersRepo
}

func (r *StoresRepo) Create(_ context.Context, s models.Store) (models.Store, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, other := range r.byID {
		if other.Email == s.Email {
			return models.Store{}, fmt.Errorf("%w: stores_email_key", apperr.ErrConflict)
		}
		if s.OwnerID != nil && other.OwnerID != nil && *other.OwnerID == *s.OwnerID {
			return models.Store{}, fmt.Errorf("%w: stores_owner_id_key", apperr.ErrConflict)
		}
	}
	if s.ID == "" {
		s.ID = uuid.NewString()
	}
	s.CreatedAt = time.Now()
	r.byID[s.ID] = s
	return s, nil
}

func (r *StoresRepo) GetByID(_ context.Context, id string) (models.Store, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.byID[id]
	if !ok {
		return models.Store{}, apperr.ErrNotFound
	}
	return s, nil
}

func (r *StoresRepo) GetByOwner(_ context.Context, ownerID string) (models.Store, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, s := range r.byID {
		if s.OwnerID != nil && *s.OwnerID == ownerID {
			return s, nil
		}
	}
	return models.Store{}, apperr.ErrNotFound
}

func (r *StoresRepo) ListWithOwners(ctx context.Context) ([]models.StoreSummary, error) {
	r.mu.Lock()
	stores := make([]models.Store, 0, len(r.byID))
	for _, s := range r.byID {
		stores = append(stores, s)
	}
	r.mu.Unlock()

	sort.Slice(stores, func(i, j int) bool { return stores[i].CreatedAt.After(stores[j].CreatedAt) })
	var out []models.StoreSummary
	for _, s := range stores {
		avg, _ := r.ratings.AverageForStore(ctx, s.ID)
		sum := models.StoreSummary{
			ID: s.ID, Name: s.Name, Email: s.Email, Address: s.Address, AverageRating: avg,
		}
		if s.OwnerID != nil {
			if owner, err := r.users.GetByID(ctx, *s.OwnerID); err == nil {
				sum.Owner = &models.StoreOwner{ID: owner.ID, Name: owner.Name, Email: owner.Email}
			}
		}
		out = append(out, sum)
	}
	return out, nil
}

func (r *StoresRepo) ListForUser(ctx context.Context, userID string) ([]models.StoreSummary, error) {
	r.mu.Lock()
	stores := make([]models.Store, 0, len(r.byID))
	for _, s := range r.byID {
		stores = append(stores, s)
	}
	r.mu.Unlock()

	sort.Slice(stores, func(i, j int) bool { return stores[i].CreatedAt.After(stores[j].CreatedAt) })
	var out []models.StoreSummary
	for _, s := range stores {
		avg, _ := r.ratings.AverageForStore(ctx, s.ID)
		sum := models.StoreSummary{
			ID: s.ID, Name: s.Name, Email: s.Email, Address: s.Address, AverageRating: avg,
		}
		if own, ok := r.ratings.get(userID, s.ID); ok {
			v := own.Rating
			sum.UserRating = &v
		}
		out = append(out, sum)
	}
	return out, nil
}

func (r *StoresRepo) Delete(_ context.Context, id string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.byID[id]; !ok {
		return false, nil
	}
	delete(r.byID, id)
	r.ratings.deleteByStore(id)
	return true, nil
}

// clearOwner mirrors the owner_id foreign key's ON DELETE SET NULL.
func (r *StoresRepo) clearOwner(ownerID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for id, s := range r.byID {
		if s.OwnerID != nil && *s.OwnerID == ownerID {
			s.OwnerID = nil
			r.byID[id] = s
		}
	}
}

func (r *StoresRepo) Count(_ context.Context) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.byID), nil
}

// ---------------- ratings ----------------

type RatingsRepo struct {
	mu    sync.Mutex
	byID  map[string]models.Rating
	users *UsersRepo
}

func (r *RatingsRepo) get(userID, storeID string) (models.Rating, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, rt := range r.byID {
		if rt.UserID == userID && rt.StoreID == storeID {
			return rt, true
		}
	}
	return models.Rating{}, false
}

func (r *RatingsRepo) deleteByStore(storeID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for id, rt := range r.byID {
		if rt.StoreID == storeID {
			delete(r.byID, id)
		}
	}
}

func (r *RatingsRepo) deleteByUser(userID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for id, rt := range r.byID {
		if rt.UserID == userID {
			delete(r.byID, id)
		}
	}
}

func (r *RatingsRepo) Upsert(_ context.Context, userID, storeID string, value int) (models.Rating, bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for id, rt := range r.byID {
		if rt.UserID == userID && rt.StoreID == storeID {
			rt.Rating = value
			rt.CreatedAt = time.Now()
			r.byID[id] = rt
			return rt, false, nil
		}
	}
	rt := models.Rating{
		ID:        uuid.NewString(),
		UserID:    userID,
		StoreID:   storeID,
		Rating:    value,
		CreatedAt: time.Now(),
	}
	r.byID[rt.ID] = rt
	return rt, true, nil
}

func (r *RatingsRepo) ListByStore(ctx context.Context, storeID string) ([]models.StoreRating, error) {
	r.mu.Lock()
	var rts []models.Rating
	for _, rt := range r.byID {
		if rt.StoreID == storeID {
			rts = append(rts, rt)
		}
	}
	r.mu.Unlock()

	sort.Slice(rts, func(i, j int) bool { return rts[i].CreatedAt.After(rts[j].CreatedAt) })
	var out []models.StoreRating
	for _, rt := range rts {
		name := ""
		if u, err := r.users.GetByID(ctx, rt.UserID); err == nil {
			name = u.Name
		}
		out = append(out, models.StoreRating{UserName: name, Rating: rt.Rating, CreatedAt: rt.CreatedAt})
	}
	return out, nil
}

func (r *RatingsRepo) AverageForStore(_ context.Context, storeID string) (float64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	sum, n := 0, 0
	for _, rt := range r.byID {
		if rt.StoreID == storeID {
			sum += rt.Rating
			n++
		}
	}
	if n == 0 {
		return 0, nil
	}
	return math.Round(float64(sum)/float64(n)*10) / 10, nil
}

func (r *RatingsRepo) Count(_ context.Context) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.byID), nil
}

// ---------------- audit logs ----------------

type AuditLogsRepo struct {
	mu      sync.Mutex
	Entries []models.AuditLog
}

func (r *AuditLogsRepo) Create(_ context.Context, l models.AuditLog) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if l.ID == "" {
		l.ID = uuid.NewString()
	}
	l.CreatedAt = time.Now()
	r.Entries = append(r.Entries, l)
	return nil
}

package services

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/ratewise/store-ratings/internal/apperr"
	"github.com/ratewise/store-ratings/internal/auth"
	"github.com/ratewise/store-ratings/internal/models"
	repo "github.com/ratewise/store-ratings/internal/repository"
	"github.com/ratewise/store-ratings/internal/worker"
)

// AdminService implements the admin-only operations and the record-level
// guards behind them: the role whitelist, the self-delete rule, the
// last-admin rule, and the one-store-per-owner rule.
type AdminService struct {
	users   repo.Users
	stores  repo.Stores
	ratings repo.Ratings
	audit   repo.AuditLogs
	wp      *worker.Pool
}

func NewAdminService(users repo.Users, stores repo.Stores, ratings repo.Ratings, audit repo.AuditLogs, wp *worker.Pool) *AdminService {
	return &AdminService{users: users, stores: stores, ratings: ratings, audit: audit, wp: wp}
}

func (s *AdminService) auditLog(entityType, entityID, action string, details map[string]any) {
	id := entityID
	l := models.AuditLog{EntityType: entityType, EntityID: &id, Action: action, Details: details}
	s.wp.Submit(func() {
		// request context is gone by the time this runs
		_ = s.audit.Create(context.Background(), l)
	})
}

// creatableRole allows exactly user and owner. Admin accounts cannot be
// minted or assigned through any admin endpoint.
func creatableRole(raw string) (models.Role, error) {
	role, err := models.ParseRole(raw)
	if err != nil || role == models.RoleAdmin {
		return "", fmt.Errorf("%w: role must be user or owner", apperr.ErrValidation)
	}
	return role, nil
}

func (s *AdminService) CreateUser(ctx context.Context, name, email, password, address, rawRole string) (models.User, error) {
	role, err := creatableRole(rawRole)
	if err != nil {
		return models.User{}, err
	}
	u := models.User{
		Name:    strings.TrimSpace(name),
		Email:   strings.TrimSpace(email),
		Address: strings.TrimSpace(address),
		Role:    role,
	}
	if err := u.Validate(); err != nil {
		return models.User{}, fmt.Errorf("%w: %s", apperr.ErrValidation, err)
	}
	if password == "" {
		return models.User{}, fmt.Errorf("%w: password required", apperr.ErrValidation)
	}
	hash, err := auth.HashPassword(password)
	if err != nil {
		return models.User{}, err
	}
	u.PasswordHash = hash
	created, err := s.users.Create(ctx, u)
	if errors.Is(err, apperr.ErrConflict) {
		return models.User{}, fmt.Errorf("%w: email already exists", apperr.ErrConflict)
	}
	if err != nil {
		return models.User{}, err
	}
	s.auditLog("user", created.ID, "created", map[string]any{"role": string(role)})
	return created, nil
}

// ListUsers returns the admin user listing with owners filtered out;
// owners surface through the store listing instead.
func (s *AdminService) ListUsers(ctx context.Context) ([]models.User, error) {
	return s.users.List(ctx, models.RoleOwner)
}

type UserDetail struct {
	models.User
	Store *models.Store `json:"store,omitempty"`
}

func (s *AdminService) GetUser(ctx context.Context, id string) (UserDetail, error) {
	u, err := s.users.GetByID(ctx, id)
	if err != nil {
		return UserDetail{}, err
	}
	detail := UserDetail{User: u}
	if u.Role == models.RoleOwner {
		if store, err := s.stores.GetByOwner(ctx, u.ID); err == nil {
			detail.Store = &store
		} else if !errors.Is(err, apperr.ErrNotFound) {
			return UserDetail{}, err
		}
	}
	return detail, nil
}

// DeleteUser removes a user. Admins may not delete themselves, and the
// last remaining admin cannot be deleted; the latter check runs inside
// the delete statement itself.
func (s *AdminService) DeleteUser(ctx context.Context, callerID, id string) error {
	if callerID == id {
		return fmt.Errorf("%w: cannot delete your own account", apperr.ErrInvalidOperation)
	}
	u, err := s.users.GetByID(ctx, id)
	if err != nil {
		return err
	}
	deleted, err := s.users.DeleteAdminGuarded(ctx, id)
	if err != nil {
		return err
	}
	if !deleted {
		if u.Role == models.RoleAdmin {
			return fmt.Errorf("%w: cannot delete the last admin", apperr.ErrInvalidOperation)
		}
		return apperr.ErrNotFound
	}
	s.auditLog("user", id, "deleted", map[string]any{"by": callerID, "role": string(u.Role)})
	return nil
}

// ChangeRole switches an account between user and owner. Admin is not a
// valid source or target.
func (s *AdminService) ChangeRole(ctx context.Context, id, rawRole string) (models.User, error) {
	role, err := creatableRole(rawRole)
	if err != nil {
		return models.User{}, err
	}
	u, err := s.users.GetByID(ctx, id)
	if err != nil {
		return models.User{}, err
	}
	if u.Role == models.RoleAdmin {
		return models.User{}, fmt.Errorf("%w: cannot change an admin's role", apperr.ErrInvalidOperation)
	}
	if err := s.users.UpdateRole(ctx, id, role); err != nil {
		return models.User{}, err
	}
	s.auditLog("user", id, "role_changed", map[string]any{"from": string(u.Role), "to": string(role)})
	u.Role = role
	return u, nil
}

func (s *AdminService) CreateStore(ctx context.Context, name, email, address, ownerID string) (models.Store, error) {
	if strings.TrimSpace(name) == "" || strings.TrimSpace(email) == "" || ownerID == "" {
		return models.Store{}, fmt.Errorf("%w: name, email and ownerId required", apperr.ErrValidation)
	}
	owner, err := s.users.GetByID(ctx, ownerID)
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			return models.Store{}, fmt.Errorf("%w: owner not found", apperr.ErrNotFound)
		}
		return models.Store{}, err
	}
	if owner.Role != models.RoleOwner {
		return models.Store{}, fmt.Errorf("%w: ownerId must reference an owner account", apperr.ErrValidation)
	}
	store, err := s.stores.Create(ctx, models.Store{
		Name:    strings.TrimSpace(name),
		Email:   strings.TrimSpace(email),
		Address: strings.TrimSpace(address),
		OwnerID: &ownerID,
	})
	if err != nil {
		if errors.Is(err, apperr.ErrConflict) && strings.Contains(err.Error(), "owner") {
			return models.Store{}, fmt.Errorf("%w: owner already has a store", apperr.ErrConflict)
		}
		if errors.Is(err, apperr.ErrConflict) {
			return models.Store{}, fmt.Errorf("%w: store email already exists", apperr.ErrConflict)
		}
		return models.Store{}, err
	}
	s.auditLog("store", store.ID, "created", map[string]any{"owner_id": ownerID})
	return store, nil
}

func (s *AdminService) ListStores(ctx context.Context) ([]models.StoreSummary, error) {
	return s.stores.ListWithOwners(ctx)
}

func (s *AdminService) DeleteStore(ctx context.Context, id string) error {
	deleted, err := s.stores.Delete(ctx, id)
	if err != nil {
		return err
	}
	if !deleted {
		return apperr.ErrNotFound
	}
	s.auditLog("store", id, "deleted", nil)
	return nil
}

type DashboardTotals struct {
	Users   int `json:"users"`
	Stores  int `json:"stores"`
	Ratings int `json:"ratings"`
}

func (s *AdminService) Dashboard(ctx context.Context) (DashboardTotals, error) {
	var (
		t   DashboardTotals
		err error
	)
	if t.Users, err = s.users.Count(ctx); err != nil {
		return DashboardTotals{}, err
	}
	if t.Stores, err = s.stores.Count(ctx); err != nil {
		return DashboardTotals{}, err
	}
	if t.Ratings, err = s.ratings.Count(ctx); err != nil {
		return DashboardTotals{}, err
	}
	return t, nil
}

// UsersReport returns the CSV rows for the user export, headers first.
// Columns match the listing the export was taken from.
func (s *AdminService) UsersReport(ctx context.Context) ([][]string, error) {
	users, err := s.ListUsers(ctx)
	if err != nil {
		return nil, err
	}
	rows := [][]string{{"ID", "Name", "Email", "Role"}}
	for _, u := range users {
		rows = append(rows, []string{u.ID, u.Name, u.Email, string(u.Role)})
	}
	return rows, nil
}

func (s *AdminService) StoresReport(ctx context.Context) ([][]string, error) {
	stores, err := s.stores.ListWithOwners(ctx)
	if err != nil {
		return nil, err
	}
	rows := [][]string{{"ID", "Store Name", "Owner", "Rating"}}
	for _, st := range stores {
		owner := "N/A"
		if st.Owner != nil {
			owner = st.Owner.Name
		}
		rows = append(rows, []string{st.ID, st.Name, owner, strconv.FormatFloat(st.AverageRating, 'f', 1, 64)})
	}
	return rows, nil
}

package repository

import (
	"context"
	"time"

	"github.com/ratewise/store-ratings/internal/models"
)

type Users interface {
	Create(ctx context.Context, u models.User) (models.User, error)
	GetByID(ctx context.Context, id string) (models.User, error)
	GetByEmail(ctx context.Context, email string) (models.User, error)
	// List returns users, skipping the given role. Pass "" for no filter.
	List(ctx context.Context, excludeRole models.Role) ([]models.User, error)
	UpdatePassword(ctx context.Context, id, passwordHash string) error
	UpdateRole(ctx context.Context, id string, role models.Role) error
	// DeleteAdminGuarded deletes the user unless doing so would remove the
	// last remaining admin. The guard and the delete are one statement.
	DeleteAdminGuarded(ctx context.Context, id string) (bool, error)
	SetResetToken(ctx context.Context, email, token string, expiry time.Time) (bool, error)
	// ConsumeResetToken sets the new password hash and clears the token in a
	// single conditional update. False means the token is unknown or expired.
	ConsumeResetToken(ctx context.Context, token, passwordHash string) (bool, error)
	Count(ctx context.Context) (int, error)
}

type Stores interface {
	Create(ctx context.Context, s models.Store) (models.Store, error)
	GetByID(ctx context.Context, id string) (models.Store, error)
	GetByOwner(ctx context.Context, ownerID string) (models.Store, error)
	// ListWithOwners returns every store with its rounded average rating and
	// resolved owner, for the admin listing.
	ListWithOwners(ctx context.Context) ([]models.StoreSummary, error)
	// ListForUser returns every store with its rounded average rating and the
	// given user's own rating, if any.
	ListForUser(ctx context.Context, userID string) ([]models.StoreSummary, error)
	Delete(ctx context.Context, id string) (bool, error)
	Count(ctx context.Context) (int, error)
}

type Ratings interface {
	// Upsert inserts the rating or, when the (user, store) pair already has
	// one, overwrites its value and timestamp. Created reports which happened.
	Upsert(ctx context.Context, userID, storeID string, value int) (r models.Rating, created bool, err error)
	ListByStore(ctx context.Context, storeID string) ([]models.StoreRating, error)
	AverageForStore(ctx context.Context, storeID string) (float64, error)
	Count(ctx context.Context) (int, error)
}

type AuditLogs interface {
	Create(ctx context.Context, l models.AuditLog) error
}

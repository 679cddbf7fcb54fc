package postgres

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/ratewise/store-ratings/internal/models"
)

type storesRepo struct{ pool *pgxpool.Pool }

func (r *storesRepo) Create(ctx context.Context, s models.Store) (models.Store, error) {
	if s.ID == "" {
		s.ID = uuid.NewString()
	}
	err := r.pool.QueryRow(ctx,
		`INSERT INTO stores(id, name, email, address, owner_id)
		 VALUES($1,$2,$3,$4,$5)
		 RETURNING id, name, email, address, owner_id, created_at`,
		s.ID, s.Name, s.Email, s.Address, s.OwnerID,
	).Scan(&s.ID, &s.Name, &s.Email, &s.Address, &s.OwnerID, &s.CreatedAt)
	return s, mapErr(err)
}

func (r *storesRepo) GetByID(ctx context.Context, id string) (models.Store, error) {
	var s models.Store
	err := r.pool.QueryRow(ctx,
		`SELECT id, name, email, address, owner_id, created_at FROM stores WHERE id=$1`, id,
	).Scan(&s.ID, &s.Name, &s.Email, &s.Address, &s.OwnerID, &s.CreatedAt)
	return s, mapErr(err)
}

func (r *storesRepo) GetByOwner(ctx context.Context, ownerID string) (models.Store, error) {
	var s models.Store
	err := r.pool.QueryRow(ctx,
		`SELECT id, name, email, address, owner_id, created_at FROM stores WHERE owner_id=$1`, ownerID,
	).Scan(&s.ID, &s.Name, &s.Email, &s.Address, &s.OwnerID, &s.CreatedAt)
	return s, mapErr(err)
}

func (r *storesRepo) ListWithOwners(ctx context.Context) ([]models.StoreSummary, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT s.id, s.name, s.email, s.address,
		        COALESCE(ROUND(AVG(rt.rating)::numeric, 1), 0),
		        u.id, u.name, u.email
		   FROM stores s
		   LEFT JOIN ratings rt ON rt.store_id = s.id
		   LEFT JOIN users u ON u.id = s.owner_id
		  GROUP BY s.id, u.id
		  ORDER BY s.created_at DESC`,
	)
	if err != nil {
		return nil, mapErr(err)
	}
	defer rows.Close()

	var out []models.StoreSummary
	for rows.Next() {
		var sum models.StoreSummary
		var ownerID, ownerName, ownerEmail *string
		if err := rows.Scan(&sum.ID, &sum.Name, &sum.Email, &sum.Address,
			&sum.AverageRating, &ownerID, &ownerName, &ownerEmail); err != nil {
			return nil, err
		}
		if ownerID != nil {
			sum.Owner = &models.StoreOwner{ID: *ownerID, Name: *ownerName, Email: *ownerEmail}
		}
		out = append(out, sum)
	}
	return out, rows.Err()
}

// The average covers every rating row for the store; the caller's own
// rating is a separate correlated column and never special-cased.
func (r *storesRepo) ListForUser(ctx context.Context, userID string) ([]models.StoreSummary, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT s.id, s.name, s.email, s.address,
		        COALESCE(ROUND(AVG(rt.rating)::numeric, 1), 0),
		        (SELECT mine.rating FROM ratings mine WHERE mine.store_id = s.id AND mine.user_id = $1)
		   FROM stores s
		   LEFT JOIN ratings rt ON rt.store_id = s.id
		  GROUP BY s.id
		  ORDER BY s.created_at DESC`,
		userID,
	)
	if err != nil {
		return nil, mapErr(err)
	}
	defer rows.Close()

	var out []models.StoreSummary
	for rows.Next() {
		var sum models.StoreSummary
		if err := rows.Scan(&sum.ID, &sum.Name, &sum.Email, &sum.Address,
			&sum.AverageRating, &sum.UserRating); err != nil {
			return nil, err
		}
		out = append(out, sum)
	}
	return out, rows.Err()
}

func (r *storesRepo) Delete(ctx context.Context, id string) (bool, error) {
	tag, err := r.pool.Exec(ctx, `DELETE FROM stores WHERE id=$1`, id)
	if err != nil {
		return false, mapErr(err)
	}
	return tag.RowsAffected() > 0, nil
}

func (r *storesRepo) Count(ctx context.Context) (int, error) {
	var n int
	err := r.pool.QueryRow(ctx, `SELECT count(*) FROM stores`).Scan(&n)
	return n, mapErr(err)
}

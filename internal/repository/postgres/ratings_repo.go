package postgres

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/ratewise/store-ratings/internal/models"
)

type ratingsRepo struct{ pool *pgxpool.Pool }

// Upsert relies on the (user_id, store_id) unique constraint instead of a
// pre-check, so concurrent first-time ratings cannot produce two rows.
// xmax = 0 reports whether the returned row came from the INSERT arm.
func (r *ratingsRepo) Upsert(ctx context.Context, userID, storeID string, value int) (models.Rating, bool, error) {
	var (
		rt      models.Rating
		created bool
	)
	err := r.pool.QueryRow(ctx,
		`INSERT INTO ratings(id, user_id, store_id, rating)
		 VALUES($1,$2,$3,$4)
		 ON CONFLICT (user_id, store_id) DO UPDATE
		 SET rating = EXCLUDED.rating, created_at = now()
		 RETURNING id, user_id, store_id, rating, created_at, (xmax = 0)`,
		uuid.NewString(), userID, storeID, value,
	).Scan(&rt.ID, &rt.UserID, &rt.StoreID, &rt.Rating, &rt.CreatedAt, &created)
	return rt, created, mapErr(err)
}

func (r *ratingsRepo) ListByStore(ctx context.Context, storeID string) ([]models.StoreRating, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT u.name, rt.rating, rt.created_at
		   FROM ratings rt
		   JOIN users u ON u.id = rt.user_id
		  WHERE rt.store_id = $1
		  ORDER BY rt.created_at DESC`,
		storeID,
	)
	if err != nil {
		return nil, mapErr(err)
	}
	defer rows.Close()

	var out []models.StoreRating
	for rows.Next() {
		var sr models.StoreRating
		if err := rows.Scan(&sr.UserName, &sr.Rating, &sr.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, sr)
	}
	return out, rows.Err()
}

func (r *ratingsRepo) AverageForStore(ctx context.Context, storeID string) (float64, error) {
	var avg float64
	err := r.pool.QueryRow(ctx,
		`SELECT COALESCE(ROUND(AVG(rating)::numeric, 1), 0) FROM ratings WHERE store_id=$1`,
		storeID,
	).Scan(&avg)
	return avg, mapErr(err)
}

func (r *ratingsRepo) Count(ctx context.Context) (int, error) {
	var n int
	err := r.pool.QueryRow(ctx, `SELECT count(*) FROM ratings`).Scan(&n)
	return n, mapErr(err)
}

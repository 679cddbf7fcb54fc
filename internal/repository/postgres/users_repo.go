package postgres

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/ratewise/store-ratings/internal/models"
)

type usersRepo struct{ pool *pgxpool.Pool }

const userCols = `id, name, email, password_hash, address, role, reset_token, reset_token_expiry, created_at, updated_at`

func scanUser(row interface{ Scan(...any) error }) (models.User, error) {
	var u models.User
	err := row.Scan(&u.ID, &u.Name, &u.Email, &u.PasswordHash, &u.Address, &u.Role,
		&u.ResetToken, &u.ResetTokenExpiry, &u.CreatedAt, &u.UpdatedAt)
	return u, err
}

func (r *usersRepo) Create(ctx context.Context, u models.User) (models.User, error) {
	if u.ID == "" {
		u.ID = uuid.NewString()
	}
	row := r.pool.QueryRow(ctx,
		`INSERT INTO users(id, name, email, password_hash, address, role)
		 VALUES($1,$2,$3,$4,$5,$6)
		 RETURNING `+userCols,
		u.ID, u.Name, u.Email, u.PasswordHash, u.Address, u.Role,
	)
	u, err := scanUser(row)
	return u, mapErr(err)
}

func (r *usersRepo) GetByID(ctx context.Context, id string) (models.User, error) {
	u, err := scanUser(r.pool.QueryRow(ctx, `SELECT `+userCols+` FROM users WHERE id=$1`, id))
	return u, mapErr(err)
}

func (r *usersRepo) GetByEmail(ctx context.Context, email string) (models.User, error) {
	u, err := scanUser(r.pool.QueryRow(ctx, `SELECT `+userCols+` FROM users WHERE email=$1`, email))
	return u, mapErr(err)
}

func (r *usersRepo) List(ctx context.Context, excludeRole models.Role) ([]models.User, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+userCols+` FROM users WHERE ($1 = '' OR role <> $1) ORDER BY created_at DESC`,
		string(excludeRole),
	)
	if err != nil {
		return nil, mapErr(err)
	}
	defer rows.Close()

	var out []models.User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, u)
	}
	return out, rows.Err()
}

func (r *usersRepo) UpdatePassword(ctx context.Context, id, passwordHash string) error {
	_, err := r.pool.Exec(ctx,
		`UPDATE users SET password_hash=$2, updated_at=now() WHERE id=$1`,
		id, passwordHash,
	)
	return mapErr(err)
}

func (r *usersRepo) UpdateRole(ctx context.Context, id string, role models.Role) error {
	_, err := r.pool.Exec(ctx,
		`UPDATE users SET role=$2, updated_at=now() WHERE id=$1`,
		id, role,
	)
	return mapErr(err)
}

// The admin count check and the delete run as one statement so two
// concurrent deletes cannot both pass the check and leave zero admins.
func (r *usersRepo) DeleteAdminGuarded(ctx context.Context, id string) (bool, error) {
	tag, err := r.pool.Exec(ctx,
		`DELETE FROM users
		  WHERE id=$1
		    AND (role <> 'admin' OR (SELECT count(*) FROM users WHERE role='admin') > 1)`,
		id,
	)
	if err != nil {
		return false, mapErr(err)
	}
	return tag.RowsAffected() > 0, nil
}

func (r *usersRepo) SetResetToken(ctx context.Context, email, token string, expiry time.Time) (bool, error) {
	tag, err := r.pool.Exec(ctx,
		`UPDATE users SET reset_token=$2, reset_token_expiry=$3, updated_at=now() WHERE email=$1`,
		email, token, expiry,
	)
	if err != nil {
		return false, mapErr(err)
	}
	return tag.RowsAffected() > 0, nil
}

func (r *usersRepo) ConsumeResetToken(ctx context.Context, token, passwordHash string) (bool, error) {
	tag, err := r.pool.Exec(ctx,
		`UPDATE users
		    SET password_hash=$2, reset_token=NULL, reset_token_expiry=NULL, updated_at=now()
		  WHERE reset_token=$1 AND reset_token_expiry > now()`,
		token, passwordHash,
	)
	if err != nil {
		return false, mapErr(err)
	}
	return tag.RowsAffected() > 0, nil
}

func (r *usersRepo) Count(ctx context.Context) (int, error) {
	var n int
	err := r.pool.QueryRow(ctx, `SELECT count(*) FROM users`).Scan(&n)
	return n, mapErr(err)
}

package postgres

import (
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/ratewise/store-ratings/internal/apperr"
)

// mapErr translates driver errors into the shared taxonomy so services
// never see pgconn details. Unique violations become Conflict, missing
// rows become NotFound, anything else passes through for the 500 path.
func mapErr(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, pgx.ErrNoRows) {
		return apperr.ErrNotFound
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		return fmt.Errorf("%w: %s", apperr.ErrConflict, pgErr.ConstraintName)
	}
	return err
}

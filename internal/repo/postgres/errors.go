package postgres

import (
	"errors"

	"github.com/jackc/pgx/v5/pgconn"
)

const emailUniqueConstraint = "collabzone_register_email_uniq"

func isEmailConflict(err error) bool {
	var pgErr *pgconn.PgError

	return errors.As(err, &pgErr) && pgErr.Code == "23505" && pgErr.ConstraintName == emailUniqueConstraint
}

package pgdb

import (
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
)

const uniqueViolation = "23505"

// postgresDuplicate сообщает о нарушении уникального ограничения.
func postgresDuplicate(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == uniqueViolation
}

// malformedID сообщает, что id не может быть ключом UUID-колонки.
// Такой товар заведомо не существует, поэтому запрос в БД не отправляется.
func malformedID(id string) bool {
	return uuid.Validate(id) != nil
}

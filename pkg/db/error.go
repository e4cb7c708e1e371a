package db

import (
	"errors"
	"strings"

	mysqldriver "github.com/go-sql-driver/mysql"
	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
)

func IsDuplicateKeyErr(err error) bool {
	if err == nil {
		return false
	}

	if errors.Is(err, gorm.ErrDuplicatedKey) || hasPGCode(err, "23505") || hasMySQLCode(err, 1062) {
		return true
	}

	msg := err.Error()
	switch {
	case strings.Contains(msg, "duplicate key value violates unique constraint"): // postgres
		return true
	case strings.Contains(msg, "UNIQUE constraint failed"): // sqlite
		return true
	}
	return false
}

// IsForeignKeyErr reports whether err is a referential integrity violation,
// e.g. deleting a rental that still has payments.
func IsForeignKeyErr(err error) bool {
	if err == nil {
		return false
	}

	if errors.Is(err, gorm.ErrForeignKeyViolated) || hasPGCode(err, "23503") || hasMySQLCode(err, 1451, 1452) {
		return true
	}

	msg := err.Error()
	switch {
	case strings.Contains(msg, "violates foreign key constraint"):
		return true
	case strings.Contains(msg, "FOREIGN KEY constraint failed"):
		return true
	}
	return false
}

func hasPGCode(err error, code string) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == code
	}
	return false
}

func hasMySQLCode(err error, codes ...uint16) bool {
	var myErr *mysqldriver.MySQLError
	if !errors.As(err, &myErr) {
		return false
	}
	for _, code := range codes {
		if myErr.Number == code {
			return true
		}
	}
	return false
}

package persistence

import (
	"errors"

	"github.com/boxstock/backend/internal/domain/shared"
	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
)

// PostgreSQL lock_not_available, raised when lock_timeout expires
const pgLockNotAvailable = "55P03"

// translateError maps driver errors to domain errors. what names the entity
// in the message.
func translateError(err error, what string) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return shared.NewDomainErrorf(shared.CodeNotFound, "%s not found", what)
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return shared.NewDomainErrorf(shared.CodeAlreadyExists, "%s already exists", what)
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == pgLockNotAvailable {
		return shared.NewDomainErrorf(shared.CodeConcurrencyConflict, "%s is locked by another transaction", what)
	}
	return err
}

func optimisticLockFailed(what string) error {
	return shared.NewDomainErrorf(shared.CodeOptimisticLockFailed, "%s was modified by another transaction", what)
}

package postgres

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/jackc/pgx/v5/pgconn"

	"slotbook/internal/store"
)

const (
	pgUniqueViolation   = "23505"
	pgLockNotAvailable  = "55P03"
	pgQueryCanceled     = "57014"
	pgDeadlockDetected  = "40P01"
	bookingsSlotKeyName = "bookings_slot_id_key"
)

func mapError(err error) error {
	if err == nil {
		return nil
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case pgLockNotAvailable, pgQueryCanceled, pgDeadlockDetected:
			return fmt.Errorf("%w: %s", store.ErrBusy, pgErr.Message)
		case pgUniqueViolation:
			if pgErr.ConstraintName == bookingsSlotKeyName {
				return store.ErrAlreadyBooked
			}
		}
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%w: %w", store.ErrBusy, err)
	}
	return err
}

// lockTimeoutSetting formats d for SET lock_timeout, which takes milliseconds.
func lockTimeoutSetting(d time.Duration) string {
	ms := d.Milliseconds()
	if ms < 1 {
		ms = 1
	}
	return strconv.FormatInt(ms, 10) + "ms"
}

package postgres

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"

	"slotbook/internal/domain"
	"slotbook/internal/store"
)

type BookingRepo struct {
	db          *bun.DB
	lockTimeout time.Duration
}

func NewBookingRepo(db *bun.DB, lockTimeout time.Duration) *BookingRepo {
	return &BookingRepo{db: db, lockTimeout: lockTimeout}
}

type bookingTx struct {
	tx bun.Tx
}

func (r *BookingRepo) WithLockedSlot(ctx context.Context, slotID uuid.UUID, fn func(ctx context.Context, tx store.BookingTx, slot domain.AvailabilitySlot) error) error {
	return r.inTx(ctx, func(ctx context.Context, tx bun.Tx) error {
		slot, err := lockSlot(ctx, tx, slotID)
		if err != nil {
			return err
		}
		return fn(ctx, bookingTx{tx: tx}, slot)
	})
}

func (r *BookingRepo) WithLockedBooking(ctx context.Context, bookingID uuid.UUID, fn func(ctx context.Context, tx store.BookingTx, booking domain.Booking) error) error {
	return r.inTx(ctx, func(ctx context.Context, tx bun.Tx) error {
		var slotID uuid.UUID
		err := tx.NewSelect().
			Model((*domain.Booking)(nil)).
			Column("slot_id").
			Where("id = ?", bookingID).
			Limit(1).
			Scan(ctx, &slotID)
		if errors.Is(err, sql.ErrNoRows) {
			return store.ErrBookingNotFound
		}
		if err != nil {
			return err
		}

		// Slot first, then booking: the same order the booking path uses.
		slot, err := lockSlot(ctx, tx, slotID)
		if errors.Is(err, store.ErrSlotNotFound) {
			return store.ErrBookingNotFound
		}
		if err != nil {
			return err
		}

		var b domain.Booking
		err = tx.NewSelect().
			Model(&b).
			Where("id = ?", bookingID).
			Limit(1).
			For("UPDATE").
			Scan(ctx)
		if errors.Is(err, sql.ErrNoRows) {
			return store.ErrBookingNotFound
		}
		if err != nil {
			return err
		}
		b.Slot = &slot

		return fn(ctx, bookingTx{tx: tx}, b)
	})
}

func (r *BookingRepo) ListBookings(ctx context.Context, q store.BookingQuery) ([]domain.Booking, error) {
	var rows []domain.Booking
	sel := r.db.NewSelect().
		Model(&rows).
		Relation("Slot")

	switch {
	case q.OwnerID != "":
		sel = sel.Where("slot.owner_id = ?", q.OwnerID)
	case q.ReservingParty != "":
		sel = sel.Where("b.reserving_party = ?", q.ReservingParty)
	default:
		return nil, errors.New("owner or reserving party is required")
	}

	if err := sel.OrderExpr("slot.start_time ASC").Scan(ctx); err != nil {
		return nil, mapError(err)
	}
	return rows, nil
}

func (r *BookingRepo) inTx(ctx context.Context, fn func(ctx context.Context, tx bun.Tx) error) error {
	err := r.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		if r.lockTimeout > 0 {
			_, err := tx.NewRaw("SELECT set_config('lock_timeout', ?, true)", lockTimeoutSetting(r.lockTimeout)).Exec(ctx)
			if err != nil {
				return err
			}
		}
		return fn(ctx, tx)
	})
	return mapError(err)
}

func lockSlot(ctx context.Context, tx bun.Tx, slotID uuid.UUID) (domain.AvailabilitySlot, error) {
	var slot domain.AvailabilitySlot
	err := tx.NewSelect().
		Model(&slot).
		Where("id = ?", slotID).
		Limit(1).
		For("UPDATE").
		Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.AvailabilitySlot{}, store.ErrSlotNotFound
	}
	if err != nil {
		return domain.AvailabilitySlot{}, err
	}
	return slot, nil
}

func (t bookingTx) SetSlotBooked(ctx context.Context, slotID uuid.UUID, booked bool) error {
	m := domain.AvailabilitySlot{ID: slotID, Booked: booked}
	res, err := t.tx.NewUpdate().
		Model(&m).
		Column("booked", "updated_at").
		WherePK().
		Exec(ctx)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return store.ErrSlotNotFound
	}
	return nil
}

func (t bookingTx) InsertBooking(ctx context.Context, b domain.Booking) (domain.Booking, error) {
	m := domain.Booking{
		ID:             b.ID,
		SlotID:         b.SlotID,
		ReservingParty: b.ReservingParty,
		Notes:          b.Notes,
		CreatedAt:      b.CreatedAt,
	}

	if _, err := t.tx.NewInsert().Model(&m).Exec(ctx); err != nil {
		return domain.Booking{}, mapError(err)
	}

	m.Slot = b.Slot
	return m, nil
}

func (t bookingTx) DeleteBooking(ctx context.Context, bookingID uuid.UUID) error {
	res, err := t.tx.NewDelete().
		Model((*domain.Booking)(nil)).
		Where("id = ?", bookingID).
		Exec(ctx)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return store.ErrBookingNotFound
	}
	return nil
}

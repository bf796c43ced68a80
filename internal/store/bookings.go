package store

import (
	"context"

	"github.com/google/uuid"

	"slotbook/internal/domain"
)

type BookingQuery struct {
	OwnerID        string
	ReservingParty string
}

// BookingTx is the write surface available while a slot row is locked.
type BookingTx interface {
	SetSlotBooked(ctx context.Context, slotID uuid.UUID, booked bool) error
	InsertBooking(ctx context.Context, b domain.Booking) (domain.Booking, error)
	DeleteBooking(ctx context.Context, bookingID uuid.UUID) error
}

type BookingRepository interface {
	// WithLockedSlot runs fn while holding an exclusive lock on the slot row.
	// The transaction commits only if fn returns nil.
	WithLockedSlot(ctx context.Context, slotID uuid.UUID, fn func(ctx context.Context, tx BookingTx, slot domain.AvailabilitySlot) error) error
	// WithLockedBooking locks the booking's slot and then the booking itself.
	// booking.Slot is populated.
	WithLockedBooking(ctx context.Context, bookingID uuid.UUID, fn func(ctx context.Context, tx BookingTx, booking domain.Booking) error) error
	ListBookings(ctx context.Context, q BookingQuery) ([]domain.Booking, error)
}

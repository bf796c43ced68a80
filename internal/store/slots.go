package store

import (
	"context"
	"time"

	"slotbook/internal/domain"
)

type SlotQuery struct {
	OwnerID string
	// Window restricts results to slots starting inside it.
	Window      *domain.TimeSpan
	OpenOnly    bool
	StartsAfter time.Time
}

type SlotRepository interface {
	// InsertSlots skips slots whose (owner, start, end) already exists and
	// returns the number of rows created.
	InsertSlots(ctx context.Context, slots []domain.AvailabilitySlot) (int, error)
	ListSlots(ctx context.Context, q SlotQuery) ([]domain.AvailabilitySlot, error)
	ListOwners(ctx context.Context, openAfter time.Time) ([]string, error)
}

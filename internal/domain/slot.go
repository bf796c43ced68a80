package domain

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

type AvailabilitySlot struct {
	bun.BaseModel `bun:"table:availability_slots,alias:slot"`

	ID        uuid.UUID `bun:"id,pk,type:uuid"`
	OwnerID   string    `bun:"owner_id,notnull"`
	StartTime time.Time `bun:"start_time,notnull"`
	EndTime   time.Time `bun:"end_time,notnull"`
	Booked    bool      `bun:"booked,notnull"`
	CreatedAt time.Time `bun:"created_at,notnull"`
	UpdatedAt time.Time `bun:"updated_at,notnull"`
}

func (s *AvailabilitySlot) BeforeAppendModel(ctx context.Context, query bun.Query) error {
	now := time.Now().UTC()
	switch query.(type) {
	case *bun.InsertQuery:
		if s.ID == uuid.Nil {
			id, err := uuid.NewV7()
			if err != nil {
				return err
			}
			s.ID = id
		}
		if s.CreatedAt.IsZero() {
			s.CreatedAt = now
		}
		if s.UpdatedAt.IsZero() {
			s.UpdatedAt = now
		}
	case *bun.UpdateQuery:
		s.UpdatedAt = now
	}
	return nil
}

func (s AvailabilitySlot) Span() TimeSpan {
	return TimeSpan{Start: s.StartTime, End: s.EndTime}
}

// Open reports whether the slot can still be reserved at now.
func (s AvailabilitySlot) Open(now time.Time) bool {
	return !s.Booked && s.StartTime.After(now)
}

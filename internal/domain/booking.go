package domain

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

type Booking struct {
	bun.BaseModel `bun:"table:bookings,alias:b"`

	ID             uuid.UUID `bun:"id,pk,type:uuid"`
	SlotID         uuid.UUID `bun:"slot_id,notnull,type:uuid"`
	ReservingParty string    `bun:"reserving_party,notnull"`
	Notes          *string   `bun:"notes"`
	CreatedAt      time.Time `bun:"created_at,notnull"`

	Slot *AvailabilitySlot `bun:"rel:belongs-to,join:slot_id=id"`
}

func (b *Booking) BeforeAppendModel(ctx context.Context, query bun.Query) error {
	if _, ok := query.(*bun.InsertQuery); !ok {
		return nil
	}
	if b.ID == uuid.Nil {
		id, err := uuid.NewV7()
		if err != nil {
			return err
		}
		b.ID = id
	}
	if b.CreatedAt.IsZero() {
		b.CreatedAt = time.Now().UTC()
	}
	return nil
}

func (b Booking) NotesText() string {
	if b.Notes == nil {
		return ""
	}
	return *b.Notes
}

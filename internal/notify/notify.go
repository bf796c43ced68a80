package notify

import (
	"context"
	"log/slog"
	"time"

	"slotbook/internal/domain"
)

type EventType string

const (
	EventBookingConfirmed EventType = "booking.confirmed"
	EventBookingCancelled EventType = "booking.cancelled"
)

// Event is the payload both parties get notified about. Rendering and
// delivery of the actual messages happen downstream.
type Event struct {
	Type        EventType `json:"type"`
	BookingID   string    `json:"booking_id"`
	SlotID      string    `json:"slot_id"`
	OwnerID     string    `json:"owner_id"`
	RequesterID string    `json:"requester_id"`
	StartTime   time.Time `json:"start_time"`
	EndTime     time.Time `json:"end_time"`
	Notes       string    `json:"notes,omitempty"`
	OccurredAt  time.Time `json:"occurred_at"`
}

func NewEvent(t EventType, b domain.Booking, slot domain.AvailabilitySlot, at time.Time) Event {
	return Event{
		Type:        t,
		BookingID:   b.ID.String(),
		SlotID:      slot.ID.String(),
		OwnerID:     slot.OwnerID,
		RequesterID: b.ReservingParty,
		StartTime:   slot.StartTime.UTC(),
		EndTime:     slot.EndTime.UTC(),
		Notes:       b.NotesText(),
		OccurredAt:  at.UTC(),
	}
}

type Gateway interface {
	BookingConfirmed(ctx context.Context, e Event) error
	BookingCancelled(ctx context.Context, e Event) error
}

type LogGateway struct {
	log *slog.Logger
}

func NewLogGateway(log *slog.Logger) *LogGateway {
	if log == nil {
		log = slog.Default()
	}
	return &LogGateway{log: log.With(slog.String("component", "notify.log"))}
}

func (g *LogGateway) BookingConfirmed(ctx context.Context, e Event) error {
	g.emit(ctx, e)
	return nil
}

func (g *LogGateway) BookingCancelled(ctx context.Context, e Event) error {
	g.emit(ctx, e)
	return nil
}

func (g *LogGateway) emit(ctx context.Context, e Event) {
	g.log.InfoContext(ctx, "notification",
		slog.String("event_type", string(e.Type)),
		slog.String("booking_id", e.BookingID),
		slog.String("slot_id", e.SlotID),
		slog.String("owner_id", e.OwnerID),
		slog.String("requester_id", e.RequesterID),
		slog.Time("start_time", e.StartTime),
		slog.Time("end_time", e.EndTime),
	)
}

package grpc

import (
	"google.golang.org/protobuf/types/known/timestamppb"

	"slotbook/internal/domain"
)

type Slot struct {
	ID        string                 `json:"id"`
	OwnerID   string                 `json:"owner_id"`
	StartTime *timestamppb.Timestamp `json:"start_time"`
	EndTime   *timestamppb.Timestamp `json:"end_time"`
	Booked    bool                   `json:"booked"`
}

type Booking struct {
	ID             string                 `json:"id"`
	SlotID         string                 `json:"slot_id"`
	ReservingParty string                 `json:"reserving_party"`
	Notes          string                 `json:"notes,omitempty"`
	CreatedAt      *timestamppb.Timestamp `json:"created_at"`
	Slot           *Slot                  `json:"slot,omitempty"`
}

type GenerateSlotsRequest struct {
	Date      string `json:"date"`
	StartTime string `json:"start_time"`
	EndTime   string `json:"end_time"`
}

type GenerateSlotsResponse struct {
	Candidates  int32 `json:"candidates"`
	SkippedPast int32 `json:"skipped_past"`
	Created     int32 `json:"created"`
}

type ListSlotsRequest struct {
	OwnerID string `json:"owner_id"`
	Date    string `json:"date,omitempty"`
}

type ListSlotsResponse struct {
	Slots []*Slot `json:"slots"`
}

type ListOwnersRequest struct{}

type ListOwnersResponse struct {
	OwnerIDs []string `json:"owner_ids"`
}

type UpcomingDatesRequest struct {
	Days int32 `json:"days,omitempty"`
}

type UpcomingDatesResponse struct {
	Dates []string `json:"dates"`
}

type BookSlotRequest struct {
	SlotID string `json:"slot_id"`
	Notes  string `json:"notes,omitempty"`
}

type BookSlotResponse struct {
	Booking *Booking `json:"booking"`
}

type ListBookingsRequest struct{}

type ListBookingsResponse struct {
	Bookings []*Booking `json:"bookings"`
}

type CancelBookingRequest struct {
	BookingID string `json:"booking_id"`
}

type CancelBookingResponse struct {
	Booking *Booking `json:"booking"`
}

func toWireSlot(s domain.AvailabilitySlot) *Slot {
	return &Slot{
		ID:        s.ID.String(),
		OwnerID:   s.OwnerID,
		StartTime: timestamppb.New(s.StartTime),
		EndTime:   timestamppb.New(s.EndTime),
		Booked:    s.Booked,
	}
}

func toWireSlots(slots []domain.AvailabilitySlot) []*Slot {
	out := make([]*Slot, 0, len(slots))
	for _, s := range slots {
		out = append(out, toWireSlot(s))
	}
	return out
}

func toWireBooking(b domain.Booking) *Booking {
	out := &Booking{
		ID:             b.ID.String(),
		SlotID:         b.SlotID.String(),
		ReservingParty: b.ReservingParty,
		Notes:          b.NotesText(),
		CreatedAt:      timestamppb.New(b.CreatedAt),
	}
	if b.Slot != nil {
		out.Slot = toWireSlot(*b.Slot)
	}
	return out
}

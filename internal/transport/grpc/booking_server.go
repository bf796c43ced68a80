package grpc

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/google/uuid"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"slotbook/internal/domain"
	"slotbook/internal/identity"
	"slotbook/internal/service/booking"
	"slotbook/internal/store"
)

const defaultUpcomingDays = 30

type BookingServer struct {
	svc bookingService
	log *slog.Logger
}

type bookingService interface {
	GenerateSlots(ctx context.Context, in booking.GenerateSlotsInput) (booking.GenerateSlotsResult, error)
	ListOwners(ctx context.Context) ([]string, error)
	ListSlots(ctx context.Context, ownerID, date string) ([]domain.AvailabilitySlot, error)
	ListOpenSlots(ctx context.Context, ownerID, date string) ([]domain.AvailabilitySlot, error)
	UpcomingDates(days int) []string
	BookSlot(ctx context.Context, in booking.BookSlotInput) (domain.Booking, error)
	ListBookings(ctx context.Context, partyID string) ([]domain.Booking, error)
	CancelBooking(ctx context.Context, in booking.CancelBookingInput) (domain.Booking, error)
}

func NewBookingServer(svc bookingService, log *slog.Logger) *BookingServer {
	if log == nil {
		log = slog.Default()
	}
	return &BookingServer{
		svc: svc,
		log: log.With(slog.String("component", "grpc.booking")),
	}
}

func (s *BookingServer) GenerateSlots(ctx context.Context, req *GenerateSlotsRequest) (*GenerateSlotsResponse, error) {
	log := s.log.With(slog.String("rpc", "GenerateSlots"))

	party, err := requireParty(ctx, log)
	if err != nil {
		return nil, err
	}

	res, err := s.svc.GenerateSlots(ctx, booking.GenerateSlotsInput{
		OwnerID:   party.ID,
		Date:      req.Date,
		StartTime: req.StartTime,
		EndTime:   req.EndTime,
	})
	if err != nil {
		return nil, toStatus(log, "slot generation failed", err, slog.String("owner_id", party.ID), slog.String("date", req.Date))
	}

	return &GenerateSlotsResponse{
		Candidates:  int32(res.Candidates),
		SkippedPast: int32(res.SkippedPast),
		Created:     int32(res.Created),
	}, nil
}

func (s *BookingServer) ListOwners(ctx context.Context, _ *ListOwnersRequest) (*ListOwnersResponse, error) {
	log := s.log.With(slog.String("rpc", "ListOwners"))

	owners, err := s.svc.ListOwners(ctx)
	if err != nil {
		return nil, toStatus(log, "owners list failed", err)
	}
	log.Debug("owners listed", slog.Int("count", len(owners)))
	return &ListOwnersResponse{OwnerIDs: owners}, nil
}

func (s *BookingServer) ListSlots(ctx context.Context, req *ListSlotsRequest) (*ListSlotsResponse, error) {
	log := s.log.With(slog.String("rpc", "ListSlots"))

	slots, err := s.svc.ListSlots(ctx, req.OwnerID, req.Date)
	if err != nil {
		return nil, toStatus(log, "slots list failed", err, slog.String("owner_id", req.OwnerID))
	}
	log.Debug("slots listed", slog.String("owner_id", req.OwnerID), slog.Int("count", len(slots)))
	return &ListSlotsResponse{Slots: toWireSlots(slots)}, nil
}

func (s *BookingServer) ListOpenSlots(ctx context.Context, req *ListSlotsRequest) (*ListSlotsResponse, error) {
	log := s.log.With(slog.String("rpc", "ListOpenSlots"))

	slots, err := s.svc.ListOpenSlots(ctx, req.OwnerID, req.Date)
	if err != nil {
		return nil, toStatus(log, "open slots list failed", err, slog.String("owner_id", req.OwnerID))
	}
	log.Debug("open slots listed", slog.String("owner_id", req.OwnerID), slog.Int("count", len(slots)))
	return &ListSlotsResponse{Slots: toWireSlots(slots)}, nil
}

func (s *BookingServer) UpcomingDates(ctx context.Context, req *UpcomingDatesRequest) (*UpcomingDatesResponse, error) {
	days := int(req.Days)
	if days <= 0 {
		days = defaultUpcomingDays
	}
	return &UpcomingDatesResponse{Dates: s.svc.UpcomingDates(days)}, nil
}

func (s *BookingServer) BookSlot(ctx context.Context, req *BookSlotRequest) (*BookSlotResponse, error) {
	log := s.log.With(slog.String("rpc", "BookSlot"))

	party, err := requireParty(ctx, log)
	if err != nil {
		return nil, err
	}
	slotID, err := uuid.Parse(strings.TrimSpace(req.SlotID))
	if err != nil {
		log.Warn("invalid request", slog.String("reason", "invalid_uuid"), slog.String("requester", party.ID))
		return nil, status.Error(codes.InvalidArgument, "slot_id must be a UUID")
	}

	b, err := s.svc.BookSlot(ctx, booking.BookSlotInput{
		SlotID:    slotID,
		Requester: party.ID,
		Notes:     req.Notes,
	})
	if err != nil {
		return nil, toStatus(log, "slot booking failed", err, slog.String("slot_id", slotID.String()), slog.String("requester", party.ID))
	}
	return &BookSlotResponse{Booking: toWireBooking(b)}, nil
}

func (s *BookingServer) ListBookings(ctx context.Context, _ *ListBookingsRequest) (*ListBookingsResponse, error) {
	log := s.log.With(slog.String("rpc", "ListBookings"))

	party, err := requireParty(ctx, log)
	if err != nil {
		return nil, err
	}

	bookings, err := s.svc.ListBookings(ctx, party.ID)
	if err != nil {
		return nil, toStatus(log, "bookings list failed", err, slog.String("party_id", party.ID))
	}

	out := make([]*Booking, 0, len(bookings))
	for _, b := range bookings {
		out = append(out, toWireBooking(b))
	}
	log.Debug("bookings listed", slog.String("party_id", party.ID), slog.Int("count", len(out)))
	return &ListBookingsResponse{Bookings: out}, nil
}

func (s *BookingServer) CancelBooking(ctx context.Context, req *CancelBookingRequest) (*CancelBookingResponse, error) {
	log := s.log.With(slog.String("rpc", "CancelBooking"))

	party, err := requireParty(ctx, log)
	if err != nil {
		return nil, err
	}
	id, err := uuid.Parse(strings.TrimSpace(req.BookingID))
	if err != nil {
		log.Warn("invalid request", slog.String("reason", "invalid_uuid"), slog.String("requester", party.ID))
		return nil, status.Error(codes.InvalidArgument, "booking_id must be a UUID")
	}

	b, err := s.svc.CancelBooking(ctx, booking.CancelBookingInput{BookingID: id, Requester: party.ID})
	if err != nil {
		return nil, toStatus(log, "booking cancel failed", err, slog.String("booking_id", id.String()), slog.String("requester", party.ID))
	}
	return &CancelBookingResponse{Booking: toWireBooking(b)}, nil
}

func requireParty(ctx context.Context, log *slog.Logger) (domain.Party, error) {
	p, ok := identity.PartyFrom(ctx)
	if !ok {
		log.Warn("unauthenticated request")
		return domain.Party{}, status.Error(codes.Unauthenticated, "authentication required")
	}
	return p, nil
}

// toStatus maps service and store errors onto gRPC codes. Expected outcomes
// are logged below error level.
func toStatus(log *slog.Logger, msg string, err error, attrs ...any) error {
	attrs = append(attrs, slog.Any("err", err))

	var vErr *booking.ValidationError
	switch {
	case errors.As(err, &vErr):
		log.Warn("invalid request", attrs...)
		return status.Error(codes.InvalidArgument, vErr.Error())
	case errors.Is(err, booking.ErrInvalidRange):
		log.Warn("invalid request", attrs...)
		return status.Error(codes.InvalidArgument, "End time must be later than start time.")
	case errors.Is(err, store.ErrSlotNotFound):
		log.Info("slot not found", attrs...)
		return status.Error(codes.NotFound, "slot not found")
	case errors.Is(err, store.ErrBookingNotFound):
		log.Info("booking not found", attrs...)
		return status.Error(codes.NotFound, "booking not found")
	case errors.Is(err, store.ErrAlreadyBooked):
		log.Info("slot already booked", attrs...)
		return status.Error(codes.FailedPrecondition, "Sorry, this slot was just booked by someone else. Pick a different slot.")
	case errors.Is(err, booking.ErrUnauthorized):
		log.Info("permission denied", attrs...)
		return status.Error(codes.PermissionDenied, "you are not allowed to do that")
	case errors.Is(err, store.ErrBusy), errors.Is(err, context.DeadlineExceeded):
		log.Warn("resource busy", attrs...)
		return status.Error(codes.Aborted, "The slot is busy right now. Try again.")
	case errors.Is(err, context.Canceled):
		log.Info("request canceled", attrs...)
		return status.Error(codes.Canceled, "request canceled")
	}
	log.Error(msg, attrs...)
	return status.Error(codes.Internal, "internal error")
}

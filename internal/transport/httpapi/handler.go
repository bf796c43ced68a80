package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/julienschmidt/httprouter"

	"slotbook/internal/domain"
	"slotbook/internal/identity"
	"slotbook/internal/service/booking"
)

const (
	defaultUpcomingDays = 30
	maxBodyBytes        = 64 << 10
)

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

type BookingHandler struct {
	svc bookingService
	log *slog.Logger
}

func NewBookingHandler(svc bookingService, log *slog.Logger) *BookingHandler {
	if log == nil {
		log = slog.Default()
	}
	return &BookingHandler{
		svc: svc,
		log: log.With(slog.String("component", "http.booking")),
	}
}

type slotJSON struct {
	ID        string    `json:"id"`
	OwnerID   string    `json:"owner_id"`
	StartTime time.Time `json:"start_time"`
	EndTime   time.Time `json:"end_time"`
	Booked    bool      `json:"booked"`
}

type bookingJSON struct {
	ID             string    `json:"id"`
	SlotID         string    `json:"slot_id"`
	ReservingParty string    `json:"reserving_party"`
	Notes          string    `json:"notes,omitempty"`
	CreatedAt      time.Time `json:"created_at"`
	Slot           *slotJSON `json:"slot,omitempty"`
}

func toSlotJSON(s domain.AvailabilitySlot) slotJSON {
	return slotJSON{
		ID:        s.ID.String(),
		OwnerID:   s.OwnerID,
		StartTime: s.StartTime.UTC(),
		EndTime:   s.EndTime.UTC(),
		Booked:    s.Booked,
	}
}

func toSlotsJSON(slots []domain.AvailabilitySlot) []slotJSON {
	out := make([]slotJSON, 0, len(slots))
	for _, s := range slots {
		out = append(out, toSlotJSON(s))
	}
	return out
}

func toBookingJSON(b domain.Booking) bookingJSON {
	out := bookingJSON{
		ID:             b.ID.String(),
		SlotID:         b.SlotID.String(),
		ReservingParty: b.ReservingParty,
		Notes:          b.NotesText(),
		CreatedAt:      b.CreatedAt.UTC(),
	}
	if b.Slot != nil {
		s := toSlotJSON(*b.Slot)
		out.Slot = &s
	}
	return out
}

type generateRequest struct {
	Date      string `json:"date"`
	StartTime string `json:"start_time"`
	EndTime   string `json:"end_time"`
}

type generateResponse struct {
	Candidates  int `json:"candidates"`
	SkippedPast int `json:"skipped_past"`
	Created     int `json:"created"`
}

func (h *BookingHandler) GenerateSlots(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	log := h.log.With(slog.String("handler", "GenerateSlots"))
	party, _ := identity.PartyFrom(r.Context())

	var req generateRequest
	if !h.decode(w, r, log, &req) {
		return
	}

	res, err := h.svc.GenerateSlots(r.Context(), booking.GenerateSlotsInput{
		OwnerID:   party.ID,
		Date:      req.Date,
		StartTime: req.StartTime,
		EndTime:   req.EndTime,
	})
	if err != nil {
		writeError(w, log, err, slog.String("owner_id", party.ID))
		return
	}

	statusCode := http.StatusOK
	if res.Created > 0 {
		statusCode = http.StatusCreated
	}
	writeSuccess(w, log, statusCode, generateResponse{
		Candidates:  res.Candidates,
		SkippedPast: res.SkippedPast,
		Created:     res.Created,
	})
}

func (h *BookingHandler) ListOwners(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	log := h.log.With(slog.String("handler", "ListOwners"))

	owners, err := h.svc.ListOwners(r.Context())
	if err != nil {
		writeError(w, log, err)
		return
	}
	if owners == nil {
		owners = []string{}
	}
	writeSuccess(w, log, http.StatusOK, owners)
}

func (h *BookingHandler) ListSlots(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	log := h.log.With(slog.String("handler", "ListSlots"))
	owner := ps.ByName("owner")

	slots, err := h.svc.ListSlots(r.Context(), owner, r.URL.Query().Get("date"))
	if err != nil {
		writeError(w, log, err, slog.String("owner_id", owner))
		return
	}
	writeSuccess(w, log, http.StatusOK, toSlotsJSON(slots))
}

func (h *BookingHandler) ListOpenSlots(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	log := h.log.With(slog.String("handler", "ListOpenSlots"))
	owner := ps.ByName("owner")

	slots, err := h.svc.ListOpenSlots(r.Context(), owner, r.URL.Query().Get("date"))
	if err != nil {
		writeError(w, log, err, slog.String("owner_id", owner))
		return
	}
	writeSuccess(w, log, http.StatusOK, toSlotsJSON(slots))
}

func (h *BookingHandler) UpcomingDates(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	log := h.log.With(slog.String("handler", "UpcomingDates"))

	days := defaultUpcomingDays
	if raw := r.URL.Query().Get("days"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			writeMessage(w, log, http.StatusBadRequest, "days must be a positive integer")
			return
		}
		days = n
	}
	writeSuccess(w, log, http.StatusOK, h.svc.UpcomingDates(days))
}

type bookRequest struct {
	Notes string `json:"notes"`
}

func (h *BookingHandler) BookSlot(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	log := h.log.With(slog.String("handler", "BookSlot"))
	party, _ := identity.PartyFrom(r.Context())

	slotID, err := uuid.Parse(ps.ByName("slot"))
	if err != nil {
		writeMessage(w, log, http.StatusBadRequest, "slot id must be a UUID")
		return
	}

	var req bookRequest
	if !h.decode(w, r, log, &req) {
		return
	}

	b, err := h.svc.BookSlot(r.Context(), booking.BookSlotInput{
		SlotID:    slotID,
		Requester: party.ID,
		Notes:     req.Notes,
	})
	if err != nil {
		writeError(w, log, err, slog.String("slot_id", slotID.String()), slog.String("requester", party.ID))
		return
	}
	writeSuccess(w, log, http.StatusCreated, toBookingJSON(b))
}

func (h *BookingHandler) ListBookings(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	log := h.log.With(slog.String("handler", "ListBookings"))
	party, _ := identity.PartyFrom(r.Context())

	bookings, err := h.svc.ListBookings(r.Context(), party.ID)
	if err != nil {
		writeError(w, log, err, slog.String("party_id", party.ID))
		return
	}

	out := make([]bookingJSON, 0, len(bookings))
	for _, b := range bookings {
		out = append(out, toBookingJSON(b))
	}
	writeSuccess(w, log, http.StatusOK, out)
}

func (h *BookingHandler) CancelBooking(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	log := h.log.With(slog.String("handler", "CancelBooking"))
	party, _ := identity.PartyFrom(r.Context())

	id, err := uuid.Parse(ps.ByName("booking"))
	if err != nil {
		writeMessage(w, log, http.StatusBadRequest, "booking id must be a UUID")
		return
	}

	b, err := h.svc.CancelBooking(r.Context(), booking.CancelBookingInput{BookingID: id, Requester: party.ID})
	if err != nil {
		writeError(w, log, err, slog.String("booking_id", id.String()), slog.String("requester", party.ID))
		return
	}
	writeSuccess(w, log, http.StatusOK, toBookingJSON(b))
}

// decode reads an optional JSON body. An empty body leaves dst untouched.
func (h *BookingHandler) decode(w http.ResponseWriter, r *http.Request, log *slog.Logger, dst any) bool {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil && !errors.Is(err, io.EOF) {
		log.Warn("invalid request body", slog.Any("err", err))
		writeMessage(w, log, http.StatusBadRequest, "Invalid request body: "+strings.TrimPrefix(err.Error(), "json: "))
		return false
	}
	return true
}

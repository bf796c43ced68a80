package booking

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"slotbook/internal/domain"
	"slotbook/internal/identity"
	"slotbook/internal/notify"
	"slotbook/internal/store"
)

const (
	defaultNotifyTimeout = 5 * time.Second
	maxUpcomingDays      = 90
)

type RoleProvider interface {
	Role(ctx context.Context, partyID string) (domain.Role, error)
}

type Service struct {
	slots    store.SlotRepository
	bookings store.BookingRepository
	roles    RoleProvider
	notifier notify.Gateway

	validate      *validator.Validate
	log           *slog.Logger
	now           func() time.Time
	loc           *time.Location
	slotLength    time.Duration
	notifyTimeout time.Duration
}

type Option func(*Service)

func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

// WithLocation sets the clinic time zone used to interpret calendar dates.
func WithLocation(loc *time.Location) Option {
	return func(s *Service) {
		if loc != nil {
			s.loc = loc
		}
	}
}

func WithSlotLength(d time.Duration) Option {
	return func(s *Service) {
		if d > 0 {
			s.slotLength = d
		}
	}
}

func WithNotifyTimeout(d time.Duration) Option {
	return func(s *Service) {
		if d > 0 {
			s.notifyTimeout = d
		}
	}
}

func WithLogger(log *slog.Logger) Option {
	return func(s *Service) {
		if log != nil {
			s.log = log
		}
	}
}

func NewService(slots store.SlotRepository, bookings store.BookingRepository, roles RoleProvider, notifier notify.Gateway, opts ...Option) *Service {
	s := &Service{
		slots:         slots,
		bookings:      bookings,
		roles:         roles,
		notifier:      notifier,
		validate:      newValidator(),
		log:           slog.Default(),
		now:           time.Now,
		loc:           time.UTC,
		slotLength:    domain.DefaultSlotLength,
		notifyTimeout: defaultNotifyTimeout,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.log = s.log.With(slog.String("component", "service.booking"))
	return s
}

type GenerateSlotsInput struct {
	OwnerID   string `json:"owner_id" validate:"required,max=256"`
	Date      string `json:"date" validate:"required,datetime=2006-01-02"`
	StartTime string `json:"start_time" validate:"required,datetime=15:04"`
	EndTime   string `json:"end_time" validate:"required,datetime=15:04"`
}

type GenerateSlotsResult struct {
	Candidates  int
	SkippedPast int
	Created     int
}

// GenerateSlots publishes fixed-length slots between two times of day. Slots
// that already exist or have already started are skipped.
func (s *Service) GenerateSlots(ctx context.Context, in GenerateSlotsInput) (GenerateSlotsResult, error) {
	in.OwnerID = strings.TrimSpace(in.OwnerID)
	in.Date = strings.TrimSpace(in.Date)
	in.StartTime = strings.TrimSpace(in.StartTime)
	in.EndTime = strings.TrimSpace(in.EndTime)

	if err := s.validateStruct(in); err != nil {
		return GenerateSlotsResult{}, err
	}
	if err := s.requireRole(ctx, in.OwnerID, domain.RoleOffering); err != nil {
		return GenerateSlotsResult{}, err
	}

	window, err := domain.ParseDay(in.Date, in.StartTime, in.EndTime, s.loc)
	if err != nil {
		if errors.Is(err, domain.ErrInvalidRange) {
			return GenerateSlotsResult{}, ErrInvalidRange
		}
		return GenerateSlotsResult{}, &ValidationError{msg: "invalid date or time format", err: err}
	}

	spans, err := domain.GenerateSlotSpans(window, s.slotLength)
	if err != nil {
		return GenerateSlotsResult{}, err
	}

	now := s.now()
	res := GenerateSlotsResult{Candidates: len(spans)}
	slots := make([]domain.AvailabilitySlot, 0, len(spans))
	for _, sp := range spans {
		if !sp.Start.After(now) {
			res.SkippedPast++
			continue
		}
		slots = append(slots, domain.AvailabilitySlot{
			OwnerID:   in.OwnerID,
			StartTime: sp.Start.UTC(),
			EndTime:   sp.End.UTC(),
		})
	}
	if len(slots) == 0 {
		return res, nil
	}

	created, err := s.slots.InsertSlots(ctx, slots)
	if err != nil {
		return GenerateSlotsResult{}, err
	}
	res.Created = created

	s.log.Info("slots generated",
		slog.String("owner_id", in.OwnerID),
		slog.String("date", in.Date),
		slog.Int("candidates", res.Candidates),
		slog.Int("skipped_past", res.SkippedPast),
		slog.Int("created", res.Created),
	)
	return res, nil
}

type BookSlotInput struct {
	SlotID    uuid.UUID `json:"slot_id" validate:"required"`
	Requester string    `json:"requester" validate:"required,max=256"`
	Notes     string    `json:"notes" validate:"max=2000"`
}

// BookSlot reserves a slot for the requester. Under concurrent calls for the
// same slot exactly one succeeds; the others get store.ErrAlreadyBooked.
func (s *Service) BookSlot(ctx context.Context, in BookSlotInput) (domain.Booking, error) {
	in.Requester = strings.TrimSpace(in.Requester)
	in.Notes = strings.TrimSpace(in.Notes)

	if err := s.validateStruct(in); err != nil {
		return domain.Booking{}, err
	}
	if err := s.requireRole(ctx, in.Requester, domain.RoleRequesting); err != nil {
		return domain.Booking{}, err
	}

	var notes *string
	if in.Notes != "" {
		notes = &in.Notes
	}

	var (
		booked domain.Booking
		slot   domain.AvailabilitySlot
	)
	err := s.bookings.WithLockedSlot(ctx, in.SlotID, func(ctx context.Context, tx store.BookingTx, locked domain.AvailabilitySlot) error {
		if locked.Booked {
			return store.ErrAlreadyBooked
		}
		if err := tx.SetSlotBooked(ctx, locked.ID, true); err != nil {
			return err
		}
		b, err := tx.InsertBooking(ctx, domain.Booking{
			SlotID:         locked.ID,
			ReservingParty: in.Requester,
			Notes:          notes,
		})
		if err != nil {
			return err
		}
		locked.Booked = true
		slot = locked
		booked = b
		return nil
	})
	if err != nil {
		return domain.Booking{}, err
	}
	booked.Slot = &slot

	s.log.Info("slot booked",
		slog.String("booking_id", booked.ID.String()),
		slog.String("slot_id", slot.ID.String()),
		slog.String("owner_id", slot.OwnerID),
		slog.String("requester", in.Requester),
	)

	s.notify(ctx, notify.EventBookingConfirmed, booked, slot)
	return booked, nil
}

type CancelBookingInput struct {
	BookingID uuid.UUID `json:"booking_id" validate:"required"`
	Requester string    `json:"requester" validate:"required,max=256"`
}

// CancelBooking reopens the slot and removes the booking in one commit. Only
// the reserving party may cancel.
func (s *Service) CancelBooking(ctx context.Context, in CancelBookingInput) (domain.Booking, error) {
	in.Requester = strings.TrimSpace(in.Requester)
	if err := s.validateStruct(in); err != nil {
		return domain.Booking{}, err
	}

	var (
		cancelled domain.Booking
		slot      domain.AvailabilitySlot
	)
	err := s.bookings.WithLockedBooking(ctx, in.BookingID, func(ctx context.Context, tx store.BookingTx, b domain.Booking) error {
		if b.ReservingParty != in.Requester {
			return ErrUnauthorized
		}
		if err := tx.SetSlotBooked(ctx, b.SlotID, false); err != nil {
			return err
		}
		if err := tx.DeleteBooking(ctx, b.ID); err != nil {
			return err
		}
		if b.Slot != nil {
			slot = *b.Slot
		} else {
			slot = domain.AvailabilitySlot{ID: b.SlotID}
		}
		slot.Booked = false
		cancelled = b
		return nil
	})
	if err != nil {
		return domain.Booking{}, err
	}
	cancelled.Slot = &slot

	s.log.Info("booking cancelled",
		slog.String("booking_id", cancelled.ID.String()),
		slog.String("slot_id", slot.ID.String()),
		slog.String("requester", in.Requester),
	)

	s.notify(ctx, notify.EventBookingCancelled, cancelled, slot)
	return cancelled, nil
}

// ListSlots returns every slot of the owner, optionally restricted to one
// calendar date.
func (s *Service) ListSlots(ctx context.Context, ownerID, date string) ([]domain.AvailabilitySlot, error) {
	q, err := s.slotQuery(ownerID, date)
	if err != nil {
		return nil, err
	}
	return s.slots.ListSlots(ctx, q)
}

// ListOpenSlots returns the owner's unbooked slots that have not started yet.
func (s *Service) ListOpenSlots(ctx context.Context, ownerID, date string) ([]domain.AvailabilitySlot, error) {
	q, err := s.slotQuery(ownerID, date)
	if err != nil {
		return nil, err
	}
	q.OpenOnly = true
	q.StartsAfter = s.now()
	return s.slots.ListSlots(ctx, q)
}

// ListBookings shows an offering party the bookings on its slots and anyone
// else the bookings they hold.
func (s *Service) ListBookings(ctx context.Context, partyID string) ([]domain.Booking, error) {
	partyID = strings.TrimSpace(partyID)
	if partyID == "" {
		return nil, validationError("party_id is required")
	}

	role, err := s.lookupRole(ctx, partyID)
	if err != nil {
		return nil, err
	}

	q := store.BookingQuery{ReservingParty: partyID}
	if role == domain.RoleOffering {
		q = store.BookingQuery{OwnerID: partyID}
	}
	return s.bookings.ListBookings(ctx, q)
}

// ListOwners returns the offering parties that still have open future slots.
func (s *Service) ListOwners(ctx context.Context) ([]string, error) {
	return s.slots.ListOwners(ctx, s.now())
}

func (s *Service) UpcomingDates(days int) []string {
	if days > maxUpcomingDays {
		days = maxUpcomingDays
	}
	return domain.UpcomingDates(s.now(), days, s.loc)
}

func (s *Service) slotQuery(ownerID, date string) (store.SlotQuery, error) {
	ownerID = strings.TrimSpace(ownerID)
	if ownerID == "" {
		return store.SlotQuery{}, validationError("owner_id is required")
	}

	q := store.SlotQuery{OwnerID: ownerID}
	if date = strings.TrimSpace(date); date != "" {
		window, err := domain.DayWindow(date, s.loc)
		if err != nil {
			return store.SlotQuery{}, validationError("date must be a date in YYYY-MM-DD format")
		}
		q.Window = &window
	}
	return q, nil
}

func (s *Service) lookupRole(ctx context.Context, partyID string) (domain.Role, error) {
	role, err := s.roles.Role(ctx, partyID)
	if err != nil {
		if errors.Is(err, identity.ErrUnknownParty) {
			return "", fmt.Errorf("%w: %w", ErrUnauthorized, err)
		}
		return "", err
	}
	return role, nil
}

func (s *Service) requireRole(ctx context.Context, partyID string, want domain.Role) error {
	role, err := s.lookupRole(ctx, partyID)
	if err != nil {
		return err
	}
	if role != want {
		return fmt.Errorf("%w: %s role required", ErrUnauthorized, want)
	}
	return nil
}

// notify runs after the transaction has released its lock. Failures are
// logged and dropped.
func (s *Service) notify(ctx context.Context, t notify.EventType, b domain.Booking, slot domain.AvailabilitySlot) {
	if s.notifier == nil {
		return
	}

	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.notifyTimeout)
	defer cancel()

	e := notify.NewEvent(t, b, slot, s.now())

	var err error
	switch t {
	case notify.EventBookingConfirmed:
		err = s.notifier.BookingConfirmed(ctx, e)
	case notify.EventBookingCancelled:
		err = s.notifier.BookingCancelled(ctx, e)
	default:
		err = fmt.Errorf("unknown event type %q", t)
	}
	if err != nil {
		s.log.Warn("notification failed",
			slog.Any("err", err),
			slog.String("event_type", string(t)),
			slog.String("booking_id", b.ID.String()),
		)
	}
}

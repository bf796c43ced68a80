package booking

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/google/uuid"

	"slotbook/internal/domain"
	"slotbook/internal/store"
)

type fakeSlotRepo struct {
	insertFn     func(ctx context.Context, slots []domain.AvailabilitySlot) (int, error)
	listFn       func(ctx context.Context, q store.SlotQuery) ([]domain.AvailabilitySlot, error)
	listOwnersFn func(ctx context.Context, openAfter time.Time) ([]string, error)
}

func (f *fakeSlotRepo) InsertSlots(ctx context.Context, slots []domain.AvailabilitySlot) (int, error) {
	if f.insertFn == nil {
		panic("InsertSlots not configured")
	}
	return f.insertFn(ctx, slots)
}

func (f *fakeSlotRepo) ListSlots(ctx context.Context, q store.SlotQuery) ([]domain.AvailabilitySlot, error) {
	if f.listFn == nil {
		panic("ListSlots not configured")
	}
	return f.listFn(ctx, q)
}

func (f *fakeSlotRepo) ListOwners(ctx context.Context, openAfter time.Time) ([]string, error) {
	if f.listOwnersFn == nil {
		panic("ListOwners not configured")
	}
	return f.listOwnersFn(ctx, openAfter)
}

type fakeBookingRepo struct {
	withSlotFn    func(ctx context.Context, slotID uuid.UUID, fn func(ctx context.Context, tx store.BookingTx, slot domain.AvailabilitySlot) error) error
	withBookingFn func(ctx context.Context, bookingID uuid.UUID, fn func(ctx context.Context, tx store.BookingTx, booking domain.Booking) error) error
	listFn        func(ctx context.Context, q store.BookingQuery) ([]domain.Booking, error)
}

func (f *fakeBookingRepo) WithLockedSlot(ctx context.Context, slotID uuid.UUID, fn func(ctx context.Context, tx store.BookingTx, slot domain.AvailabilitySlot) error) error {
	if f.withSlotFn == nil {
		panic("WithLockedSlot not configured")
	}
	return f.withSlotFn(ctx, slotID, fn)
}

func (f *fakeBookingRepo) WithLockedBooking(ctx context.Context, bookingID uuid.UUID, fn func(ctx context.Context, tx store.BookingTx, booking domain.Booking) error) error {
	if f.withBookingFn == nil {
		panic("WithLockedBooking not configured")
	}
	return f.withBookingFn(ctx, bookingID, fn)
}

func (f *fakeBookingRepo) ListBookings(ctx context.Context, q store.BookingQuery) ([]domain.Booking, error) {
	if f.listFn == nil {
		panic("ListBookings not configured")
	}
	return f.listFn(ctx, q)
}

func quietService(slots store.SlotRepository, bookings store.BookingRepository, now time.Time) *Service {
	return NewService(slots, bookings, testRoles(), nil,
		WithClock(func() time.Time { return now }),
		WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))),
	)
}

func TestChecksRunBeforeStoreAccess(t *testing.T) {
	svc := quietService(&fakeSlotRepo{}, &fakeBookingRepo{}, time.Now())
	ctx := context.Background()

	if _, err := svc.BookSlot(ctx, BookSlotInput{SlotID: uuid.New(), Requester: doctorID}); !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("BookSlot err = %v", err)
	}
	if _, err := svc.GenerateSlots(ctx, GenerateSlotsInput{OwnerID: patientID, Date: "2030-01-01", StartTime: "09:00", EndTime: "10:00"}); !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("GenerateSlots err = %v", err)
	}
	if _, err := svc.CancelBooking(ctx, CancelBookingInput{Requester: patientID}); !errors.Is(err, domain.ErrInvalidInput) {
		t.Fatalf("CancelBooking err = %v", err)
	}
}

func TestGenerateSlots_AllPastSkipsStore(t *testing.T) {
	now := time.Date(2024, 6, 2, 0, 0, 0, 0, time.UTC)
	svc := quietService(&fakeSlotRepo{}, &fakeBookingRepo{}, now)

	res, err := svc.GenerateSlots(context.Background(), GenerateSlotsInput{
		OwnerID: doctorID, Date: "2024-06-01", StartTime: "09:00", EndTime: "10:00",
	})
	if err != nil {
		t.Fatalf("GenerateSlots error: %v", err)
	}
	if res.SkippedPast != 2 || res.Created != 0 {
		t.Fatalf("result = %+v", res)
	}
}

func TestGenerateSlots_UsesClinicLocationAndSlotLength(t *testing.T) {
	loc := time.FixedZone("UTC+2", 2*60*60)
	var got []domain.AvailabilitySlot

	svc := NewService(&fakeSlotRepo{
		insertFn: func(ctx context.Context, slots []domain.AvailabilitySlot) (int, error) {
			got = slots
			return len(slots), nil
		},
	}, &fakeBookingRepo{}, testRoles(), nil,
		WithClock(func() time.Time { return time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC) }),
		WithLocation(loc),
		WithSlotLength(20*time.Minute),
		WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))),
	)

	if _, err := svc.GenerateSlots(context.Background(), GenerateSlotsInput{
		OwnerID: doctorID, Date: "2024-06-01", StartTime: "09:00", EndTime: "10:00",
	}); err != nil {
		t.Fatalf("GenerateSlots error: %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("len = %d, want 3", len(got))
	}
	if want := time.Date(2024, 6, 1, 7, 0, 0, 0, time.UTC); !got[0].StartTime.Equal(want) {
		t.Fatalf("first start = %s, want %s", got[0].StartTime, want)
	}
	if got[0].StartTime.Location() != time.UTC {
		t.Fatalf("stored times must be UTC, got %s", got[0].StartTime.Location())
	}
}

func TestBookSlot_PropagatesBusy(t *testing.T) {
	svc := quietService(&fakeSlotRepo{}, &fakeBookingRepo{
		withSlotFn: func(ctx context.Context, slotID uuid.UUID, fn func(ctx context.Context, tx store.BookingTx, slot domain.AvailabilitySlot) error) error {
			return store.ErrBusy
		},
	}, time.Now())

	_, err := svc.BookSlot(context.Background(), BookSlotInput{SlotID: uuid.New(), Requester: patientID})
	if !errors.Is(err, store.ErrBusy) {
		t.Fatalf("err = %v, want ErrBusy", err)
	}
}

func TestListBookings_QueryByRole(t *testing.T) {
	var got []store.BookingQuery
	svc := quietService(&fakeSlotRepo{}, &fakeBookingRepo{
		listFn: func(ctx context.Context, q store.BookingQuery) ([]domain.Booking, error) {
			got = append(got, q)
			return nil, nil
		},
	}, time.Now())

	if _, err := svc.ListBookings(context.Background(), doctorID); err != nil {
		t.Fatalf("ListBookings(doctor) error: %v", err)
	}
	if _, err := svc.ListBookings(context.Background(), patientID); err != nil {
		t.Fatalf("ListBookings(patient) error: %v", err)
	}
	if got[0] != (store.BookingQuery{OwnerID: doctorID}) || got[1] != (store.BookingQuery{ReservingParty: patientID}) {
		t.Fatalf("queries = %+v", got)
	}
}

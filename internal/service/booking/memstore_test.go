package booking

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"slotbook/internal/domain"
	"slotbook/internal/store"
)

// memStore serializes every locked section on a single mutex and applies the
// staged writes only when the callback returns nil.
type memStore struct {
	mu       sync.Mutex
	slots    map[uuid.UUID]domain.AvailabilitySlot
	bookings map[uuid.UUID]domain.Booking

	failInsertBooking error
}

func newMemStore() *memStore {
	return &memStore{
		slots:    map[uuid.UUID]domain.AvailabilitySlot{},
		bookings: map[uuid.UUID]domain.Booking{},
	}
}

func (m *memStore) addSlot(owner string, start time.Time, length time.Duration) domain.AvailabilitySlot {
	m.mu.Lock()
	defer m.mu.Unlock()
	s := domain.AvailabilitySlot{ID: uuid.New(), OwnerID: owner, StartTime: start, EndTime: start.Add(length)}
	m.slots[s.ID] = s
	return s
}

func (m *memStore) slot(id uuid.UUID) domain.AvailabilitySlot {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.slots[id]
}

func (m *memStore) bookingCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.bookings)
}

func (m *memStore) InsertSlots(ctx context.Context, slots []domain.AvailabilitySlot) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	created := 0
next:
	for _, s := range slots {
		for _, existing := range m.slots {
			if existing.OwnerID == s.OwnerID && existing.StartTime.Equal(s.StartTime) && existing.EndTime.Equal(s.EndTime) {
				continue next
			}
		}
		s.ID = uuid.New()
		m.slots[s.ID] = s
		created++
	}
	return created, nil
}

func (m *memStore) ListSlots(ctx context.Context, q store.SlotQuery) ([]domain.AvailabilitySlot, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var out []domain.AvailabilitySlot
	for _, s := range m.slots {
		if s.OwnerID != q.OwnerID {
			continue
		}
		if q.Window != nil && !q.Window.Contains(s.StartTime) {
			continue
		}
		if q.OpenOnly && s.Booked {
			continue
		}
		if !q.StartsAfter.IsZero() && !s.StartTime.After(q.StartsAfter) {
			continue
		}
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].StartTime.Before(out[j].StartTime) })
	return out, nil
}

func (m *memStore) ListOwners(ctx context.Context, openAfter time.Time) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	seen := map[string]bool{}
	var out []string
	for _, s := range m.slots {
		if s.Booked || !s.StartTime.After(openAfter) || seen[s.OwnerID] {
			continue
		}
		seen[s.OwnerID] = true
		out = append(out, s.OwnerID)
	}
	sort.Strings(out)
	return out, nil
}

type memTx struct {
	m       *memStore
	slots   map[uuid.UUID]domain.AvailabilitySlot
	inserts []domain.Booking
	deletes []uuid.UUID
}

func (tx *memTx) SetSlotBooked(ctx context.Context, slotID uuid.UUID, booked bool) error {
	s, ok := tx.m.slots[slotID]
	if !ok {
		return store.ErrSlotNotFound
	}
	s.Booked = booked
	tx.slots[slotID] = s
	return nil
}

func (tx *memTx) InsertBooking(ctx context.Context, b domain.Booking) (domain.Booking, error) {
	if tx.m.failInsertBooking != nil {
		return domain.Booking{}, tx.m.failInsertBooking
	}
	for _, existing := range tx.m.bookings {
		if existing.SlotID == b.SlotID {
			return domain.Booking{}, store.ErrAlreadyBooked
		}
	}
	b.ID = uuid.New()
	b.CreatedAt = time.Now().UTC()
	tx.inserts = append(tx.inserts, b)
	return b, nil
}

func (tx *memTx) DeleteBooking(ctx context.Context, bookingID uuid.UUID) error {
	if _, ok := tx.m.bookings[bookingID]; !ok {
		return store.ErrBookingNotFound
	}
	tx.deletes = append(tx.deletes, bookingID)
	return nil
}

func (tx *memTx) commit() {
	for id, s := range tx.slots {
		tx.m.slots[id] = s
	}
	for _, id := range tx.deletes {
		delete(tx.m.bookings, id)
	}
	for _, b := range tx.inserts {
		tx.m.bookings[b.ID] = b
	}
}

func (m *memStore) WithLockedSlot(ctx context.Context, slotID uuid.UUID, fn func(ctx context.Context, tx store.BookingTx, slot domain.AvailabilitySlot) error) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	s, ok := m.slots[slotID]
	if !ok {
		return store.ErrSlotNotFound
	}
	tx := &memTx{m: m, slots: map[uuid.UUID]domain.AvailabilitySlot{}}
	if err := fn(ctx, tx, s); err != nil {
		return err
	}
	tx.commit()
	return nil
}

func (m *memStore) WithLockedBooking(ctx context.Context, bookingID uuid.UUID, fn func(ctx context.Context, tx store.BookingTx, booking domain.Booking) error) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	b, ok := m.bookings[bookingID]
	if !ok {
		return store.ErrBookingNotFound
	}
	s := m.slots[b.SlotID]
	b.Slot = &s
	tx := &memTx{m: m, slots: map[uuid.UUID]domain.AvailabilitySlot{}}
	if err := fn(ctx, tx, b); err != nil {
		return err
	}
	tx.commit()
	return nil
}

func (m *memStore) ListBookings(ctx context.Context, q store.BookingQuery) ([]domain.Booking, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var out []domain.Booking
	for _, b := range m.bookings {
		s := m.slots[b.SlotID]
		if q.OwnerID != "" && s.OwnerID != q.OwnerID {
			continue
		}
		if q.ReservingParty != "" && b.ReservingParty != q.ReservingParty {
			continue
		}
		b.Slot = &s
		out = append(out, b)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Slot.StartTime.Before(out[j].Slot.StartTime) })
	return out, nil
}

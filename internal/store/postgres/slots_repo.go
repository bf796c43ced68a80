package postgres

import (
	"context"
	"time"

	"github.com/uptrace/bun"

	"slotbook/internal/domain"
	"slotbook/internal/store"
)

type SlotRepo struct {
	db *bun.DB
}

func NewSlotRepo(db *bun.DB) *SlotRepo {
	return &SlotRepo{db: db}
}

func (r *SlotRepo) InsertSlots(ctx context.Context, slots []domain.AvailabilitySlot) (int, error) {
	if len(slots) == 0 {
		return 0, nil
	}

	rows := make([]domain.AvailabilitySlot, 0, len(slots))
	for _, s := range slots {
		rows = append(rows, domain.AvailabilitySlot{
			ID:        s.ID,
			OwnerID:   s.OwnerID,
			StartTime: s.StartTime.UTC(),
			EndTime:   s.EndTime.UTC(),
		})
	}

	res, err := r.db.NewInsert().
		Model(&rows).
		On("CONFLICT (owner_id, start_time, end_time) DO NOTHING").
		Returning("NULL").
		Exec(ctx)
	if err != nil {
		return 0, mapError(err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return 0, err
	}
	return int(affected), nil
}

func (r *SlotRepo) ListSlots(ctx context.Context, q store.SlotQuery) ([]domain.AvailabilitySlot, error) {
	var rows []domain.AvailabilitySlot
	sel := r.db.NewSelect().
		Model(&rows).
		Where("owner_id = ?", q.OwnerID)

	if q.Window != nil {
		sel = sel.
			Where("start_time >= ?", q.Window.Start.UTC()).
			Where("start_time < ?", q.Window.End.UTC())
	}
	if q.OpenOnly {
		sel = sel.Where("booked = FALSE")
	}
	if !q.StartsAfter.IsZero() {
		sel = sel.Where("start_time > ?", q.StartsAfter.UTC())
	}

	if err := sel.OrderExpr("start_time ASC").Scan(ctx); err != nil {
		return nil, mapError(err)
	}
	return rows, nil
}

func (r *SlotRepo) ListOwners(ctx context.Context, openAfter time.Time) ([]string, error) {
	var owners []string
	err := r.db.NewSelect().
		Model((*domain.AvailabilitySlot)(nil)).
		ColumnExpr("DISTINCT owner_id").
		Where("booked = FALSE").
		Where("start_time > ?", openAfter.UTC()).
		OrderExpr("owner_id ASC").
		Scan(ctx, &owners)
	if err != nil {
		return nil, mapError(err)
	}
	return owners, nil
}

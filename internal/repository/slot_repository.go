package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/timetable-api/internal/models"
)

// SlotRepository provides persistence for weekly time slots.
type SlotRepository struct {
	db *sqlx.DB
}

// NewSlotRepository creates a new slot repository.
func NewSlotRepository(db *sqlx.DB) *SlotRepository {
	return &SlotRepository{db: db}
}

const slotColumns = `id, day_of_week, start_time, end_time, occurrence, cluster_id, is_lab, created_at`

// FindByID loads a slot by id.
func (r *SlotRepository) FindByID(ctx context.Context, id string) (*models.Slot, error) {
	query := fmt.Sprintf(`SELECT %s FROM slots WHERE id = $1`, slotColumns)
	var slot models.Slot
	if err := r.db.GetContext(ctx, &slot, query, id); err != nil {
		return nil, err
	}
	return &slot, nil
}

// List returns all slots in grid order.
func (r *SlotRepository) List(ctx context.Context) ([]models.Slot, error) {
	query := fmt.Sprintf(`SELECT %s FROM slots ORDER BY day_of_week ASC, start_time ASC, occurrence ASC`, slotColumns)
	var slots []models.Slot
	if err := r.db.SelectContext(ctx, &slots, query); err != nil {
		return nil, fmt.Errorf("list slots: %w", err)
	}
	return slots, nil
}

// ListByCluster returns the slots grouped under one cluster identifier.
func (r *SlotRepository) ListByCluster(ctx context.Context, clusterID string) ([]models.Slot, error) {
	query := fmt.Sprintf(`SELECT %s FROM slots WHERE cluster_id = $1 ORDER BY day_of_week ASC, start_time ASC`, slotColumns)
	var slots []models.Slot
	if err := r.db.SelectContext(ctx, &slots, query, clusterID); err != nil {
		return nil, fmt.Errorf("list slots by cluster: %w", err)
	}
	return slots, nil
}

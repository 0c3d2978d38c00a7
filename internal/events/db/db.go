package db

import (
	"context"
	"database/sql"
	"errors"

	"github.com/uptrace/bun"

	"ms-events/internal/models"
)

// ErrNoRows signals an id that matched nothing. The service layer maps it
// to its NotFound sentinel.
var ErrNoRows = errors.New("no matching event row")

type DB struct {
	Bun *bun.DB
}

func (d *DB) CreateEvent(ctx context.Context, event models.Event) error {
	_, err := d.Bun.NewInsert().Model(&event).Exec(ctx)
	return err
}

func (d *DB) GetEventByID(ctx context.Context, id string) (*models.Event, error) {
	var event models.Event
	err := d.Bun.NewSelect().
		Model(&event).
		Where("id = ?", id).
		Limit(1).
		Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNoRows
	}
	if err != nil {
		return nil, err
	}
	return &event, nil
}

// GetAllEvents returns every row ordered chronologically by start date,
// with the id as a stable tiebreak. This is the documented sort contract
// of the list endpoint.
func (d *DB) GetAllEvents(ctx context.Context) ([]models.Event, error) {
	var events []models.Event
	err := d.Bun.NewSelect().
		Model(&events).
		Order("start_date ASC").
		Order("id ASC").
		Scan(ctx)
	if err != nil {
		return nil, err
	}
	return events, nil
}

func (d *DB) UpdateEvent(ctx context.Context, event models.Event) error {
	res, err := d.Bun.NewUpdate().
		Model(&event).
		Column("title", "description", "start_date", "end_date", "location",
			"cover_image", "status", "is_featured", "updated_at").
		Where("id = ?", event.ID).
		Exec(ctx)
	if err != nil {
		return err
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return ErrNoRows
	}
	return nil
}

func (d *DB) DeleteEvent(ctx context.Context, id string) error {
	res, err := d.Bun.NewDelete().
		Model((*models.Event)(nil)).
		Where("id = ?", id).
		Exec(ctx)
	if err != nil {
		return err
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return ErrNoRows
	}
	return nil
}

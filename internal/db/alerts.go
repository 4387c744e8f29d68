package db

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"alert-registry/internal/models"
)

// Nullable text columns are coalesced so rows written by other tools still scan.
const alertColumns = `id, title, COALESCE(description, ''), COALESCE(category, ''),
	latitude, longitude, COALESCE(bairro, ''), timestamp`

const newestFirst = ` ORDER BY timestamp DESC, id DESC`

type rowScanner interface {
	Scan(dest ...any) error
}

// InsertAlert stores a new alert and returns it with its assigned id.
func (d *DB) InsertAlert(ctx context.Context, alert models.Alert) (models.Alert, error) {
	query := `
	INSERT INTO alerts (title, description, category, latitude, longitude, bairro, timestamp)
	VALUES ($1, $2, $3, $4, $5, $6, $7)
	RETURNING ` + alertColumns

	created, err := scanAlert(d.Pool.QueryRow(ctx, query,
		alert.Title,
		alert.Description,
		alert.Category,
		alert.Latitude,
		alert.Longitude,
		alert.Neighborhood,
		alert.Timestamp,
	))
	if err != nil {
		return models.Alert{}, storageError("insert alert", err)
	}
	return created, nil
}

// GetAlert fetches one alert by id.
func (d *DB) GetAlert(ctx context.Context, id int64) (models.Alert, error) {
	query := `SELECT ` + alertColumns + ` FROM alerts WHERE id = $1`

	alert, err := scanAlert(d.Pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.Alert{}, fmt.Errorf("alert %d: %w", id, models.ErrNotFound)
		}
		return models.Alert{}, storageError("get alert", err)
	}
	return alert, nil
}

// DeleteAlert removes one alert and returns the removed row.
func (d *DB) DeleteAlert(ctx context.Context, id int64) (models.Alert, error) {
	query := `DELETE FROM alerts WHERE id = $1 RETURNING ` + alertColumns

	alert, err := scanAlert(d.Pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.Alert{}, fmt.Errorf("alert %d: %w", id, models.ErrNotFound)
		}
		return models.Alert{}, storageError("delete alert", err)
	}
	return alert, nil
}

// ListAlerts returns a page of alerts, newest first, optionally filtered by category.
func (d *DB) ListAlerts(ctx context.Context, q models.ListQuery) ([]models.Alert, error) {
	query := `SELECT ` + alertColumns + ` FROM alerts`
	args := []interface{}{}
	if q.Category != "" {
		args = append(args, q.Category)
		query += fmt.Sprintf(" WHERE category = $%d", len(args))
	}
	args = append(args, q.Skip, q.Limit)
	query += newestFirst + fmt.Sprintf(" OFFSET $%d LIMIT $%d", len(args)-1, len(args))

	return d.queryAlerts(ctx, "list alerts", query, args...)
}

// ListAlertsInBox returns up to limit alerts inside box, newest first.
func (d *DB) ListAlertsInBox(ctx context.Context, box models.BoundingBox, limit int) ([]models.Alert, error) {
	query := `SELECT ` + alertColumns + ` FROM alerts
	WHERE latitude BETWEEN $1 AND $2
	  AND longitude BETWEEN $3 AND $4` + newestFirst + ` LIMIT $5`

	return d.queryAlerts(ctx, "list alerts in box", query,
		box.MinLat, box.MaxLat, box.MinLon, box.MaxLon, limit)
}

func (d *DB) queryAlerts(ctx context.Context, op, query string, args ...interface{}) ([]models.Alert, error) {
	rows, err := d.Pool.Query(ctx, query, args...)
	if err != nil {
		return nil, storageError(op, err)
	}
	defer rows.Close()

	list := []models.Alert{}
	for rows.Next() {
		alert, err := scanAlert(rows)
		if err != nil {
			return nil, storageError("scan alert", err)
		}
		list = append(list, alert)
	}
	if err := rows.Err(); err != nil {
		return nil, storageError(op, err)
	}
	return list, nil
}

func scanAlert(row rowScanner) (models.Alert, error) {
	var a models.Alert
	err := row.Scan(
		&a.ID,
		&a.Title,
		&a.Description,
		&a.Category,
		&a.Latitude,
		&a.Longitude,
		&a.Neighborhood,
		&a.Timestamp,
	)
	if err != nil {
		return models.Alert{}, err
	}
	a.Timestamp = a.Timestamp.UTC()
	return a, nil
}

func storageError(op string, err error) error {
	return fmt.Errorf("%w: %s: %w", models.ErrStorageUnavailable, op, err)
}

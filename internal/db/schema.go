package db

import (
	"context"
	"fmt"
)

var schemaStatements = []string{
	`CREATE TABLE IF NOT EXISTS alerts (
		id          BIGSERIAL PRIMARY KEY,
		title       VARCHAR(255) NOT NULL,
		description VARCHAR(1000),
		category    VARCHAR(100),
		latitude    DOUBLE PRECISION NOT NULL CHECK (latitude BETWEEN -90 AND 90),
		longitude   DOUBLE PRECISION NOT NULL CHECK (longitude BETWEEN -180 AND 180),
		timestamp   TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		bairro      VARCHAR(100)
	)`,
	`CREATE INDEX IF NOT EXISTS idx_alerts_title ON alerts (title)`,
	`CREATE INDEX IF NOT EXISTS idx_alerts_category ON alerts (category)`,
	`CREATE INDEX IF NOT EXISTS idx_location ON alerts (latitude, longitude)`,
	`CREATE INDEX IF NOT EXISTS idx_timestamp_category ON alerts (timestamp, category)`,
}

// EnsureSchema creates the alerts table and its indexes when missing.
func (d *DB) EnsureSchema(ctx context.Context) error {
	for _, stmt := range schemaStatements {
		if _, err := d.Pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("failed to ensure schema: %w", err)
		}
	}
	return nil
}

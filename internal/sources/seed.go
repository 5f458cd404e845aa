package sources

import (
	"context"
	"fmt"

	"github.com/cordonlabs/cordon/internal/errors"
)

// The bundled fixture: three tables and the canonical four-subject roster.
// The DDL sticks to types every SEED-capable engine (sqlite, duckdb,
// postgres) accepts unchanged.
var seedStatements = []string{
	`CREATE TABLE IF NOT EXISTS intake_reports (
		subject_id INTEGER PRIMARY KEY,
		name TEXT NOT NULL,
		reported_gender TEXT NOT NULL,
		appearance_notes TEXT
	)`,
	`CREATE TABLE IF NOT EXISTS surveillance_feed (
		subject_id INTEGER PRIMARY KEY,
		cam_front TEXT NOT NULL,
		cam_back TEXT NOT NULL,
		night_vision TEXT NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS biometrics_log (
		subject_id INTEGER PRIMARY KEY,
		voice_pitch TEXT NOT NULL,
		has_pulse BOOLEAN NOT NULL
	)`,
	`DELETE FROM intake_reports`,
	`DELETE FROM surveillance_feed`,
	`DELETE FROM biometrics_log`,
	`INSERT INTO intake_reports (subject_id, name, reported_gender, appearance_notes) VALUES
		(1, 'Mina Cho', 'Female', 'Wears sunglasses indoors'),
		(2, 'Yuna Park', 'Female', 'Unusually broad shoulders'),
		(3, 'Sora Kim', 'Female', 'Skin cold to the touch'),
		(4, 'Hana Lee', 'Female', 'Very prominent larynx')`,
	`INSERT INTO surveillance_feed (subject_id, cam_front, cam_back, night_vision) VALUES
		(1, 'Humanoid', 'Normal Back', 'Visible'),
		(2, 'Two People', 'Normal Back', 'Visible'),
		(3, 'Humanoid', 'Normal Back', 'Visible'),
		(4, 'Humanoid', 'Normal Back', 'Visible')`,
	`INSERT INTO biometrics_log (subject_id, voice_pitch, has_pulse) VALUES
		(1, 'Soft Soprano', TRUE),
		(2, 'Normal', TRUE),
		(3, 'Normal', FALSE),
		(4, 'Ultra-Deep Bass', TRUE)`,
}

// SeedStatements returns a copy of the fixture statements, for display.
func SeedStatements() []string {
	out := make([]string, len(seedStatements))
	copy(out, seedStatements)
	return out
}

// Seed applies the bundled fixture schema and roster to a SEED-capable
// store. Existing roster rows are replaced. Seeding a read-only store fails
// with a typed error before any statement runs.
func Seed(ctx context.Context, store Store) error {
	if !CanSeed(store) {
		return errors.NewSeedNotSupported(store.Name(), store.Engine())
	}

	for _, stmt := range seedStatements {
		if err := store.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("seed %s: %w", store.Name(), err)
		}
	}
	return nil
}

package sensing

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

// CalibrationStore persists sensor references and the measured palette.
type CalibrationStore interface {
	Save(ctx context.Context, res CalibrationResult) error
	Load(ctx context.Context) (CalibrationResult, error)
}

// SQLiteCalibrationStore implements CalibrationStore using SQLite.
type SQLiteCalibrationStore struct {
	db *sql.DB
}

// NewSQLiteCalibrationStore creates a new SQLite-backed calibration store.
func NewSQLiteCalibrationStore(db *sql.DB) *SQLiteCalibrationStore {
	return &SQLiteCalibrationStore{db: db}
}

// Save replaces the stored references and palette in one transaction.
func (s *SQLiteCalibrationStore) Save(ctx context.Context, res CalibrationResult) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("starting transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // Rollback is no-op after commit

	now := time.Now().UTC().Format(time.RFC3339)

	for id, cal := range res.References {
		if !id.valid() {
			return fmt.Errorf("%w: %d", ErrUnknownSensor, int(id))
		}
		_, err := tx.ExecContext(ctx, `
			INSERT INTO sensor_calibrations (sensor, black_r, black_g, black_b, white_r, white_g, white_b, updated_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?)
			ON CONFLICT(sensor) DO UPDATE SET
				black_r = excluded.black_r, black_g = excluded.black_g, black_b = excluded.black_b,
				white_r = excluded.white_r, white_g = excluded.white_g, white_b = excluded.white_b,
				updated_at = excluded.updated_at`,
			id.String(),
			cal.Black[0], cal.Black[1], cal.Black[2],
			cal.White[0], cal.White[1], cal.White[2],
			now,
		)
		if err != nil {
			return fmt.Errorf("saving %s calibration: %w", id, err)
		}
	}

	for name, rgb := range res.Palette {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO palette_colours (name, r, g, b, updated_at) VALUES (?, ?, ?, ?, ?)
			ON CONFLICT(name) DO UPDATE SET
				r = excluded.r, g = excluded.g, b = excluded.b, updated_at = excluded.updated_at`,
			name, rgb[0], rgb[1], rgb[2], now,
		)
		if err != nil {
			return fmt.Errorf("saving palette colour %s: %w", name, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing calibration: %w", err)
	}
	return nil
}

// Load returns everything stored. ErrNoCalibration is returned when
// neither references nor palette colours have been saved.
func (s *SQLiteCalibrationStore) Load(ctx context.Context) (CalibrationResult, error) {
	res := CalibrationResult{
		References: make(map[SensorID]Calibration),
		Palette:    make(map[string][3]float64),
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT sensor, black_r, black_g, black_b, white_r, white_g, white_b
		FROM sensor_calibrations`)
	if err != nil {
		return res, fmt.Errorf("querying calibrations: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var name string
		var cal Calibration
		if err := rows.Scan(&name,
			&cal.Black[0], &cal.Black[1], &cal.Black[2],
			&cal.White[0], &cal.White[1], &cal.White[2],
		); err != nil {
			return res, fmt.Errorf("scanning calibration row: %w", err)
		}
		id, ok := parseSensorID(name)
		if !ok {
			continue
		}
		res.References[id] = cal
	}
	if err := rows.Err(); err != nil {
		return res, fmt.Errorf("iterating calibrations: %w", err)
	}

	prows, err := s.db.QueryContext(ctx, `SELECT name, r, g, b FROM palette_colours ORDER BY name`)
	if err != nil {
		return res, fmt.Errorf("querying palette: %w", err)
	}
	defer prows.Close()

	for prows.Next() {
		var name string
		var rgb [3]float64
		if err := prows.Scan(&name, &rgb[0], &rgb[1], &rgb[2]); err != nil {
			return res, fmt.Errorf("scanning palette row: %w", err)
		}
		res.Palette[name] = rgb
	}
	if err := prows.Err(); err != nil {
		return res, fmt.Errorf("iterating palette: %w", err)
	}

	if len(res.References) == 0 && len(res.Palette) == 0 {
		return res, ErrNoCalibration
	}
	return res, nil
}

func parseSensorID(s string) (SensorID, bool) {
	for _, id := range AllSensors {
		if id.String() == s {
			return id, true
		}
	}
	return 0, false
}

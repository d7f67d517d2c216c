// README: Embedded SQLite initialization and schema migration.
package infra

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"
)

// OpenDB opens (creating if needed) the on-device database file with WAL
// journaling and foreign keys enabled, then applies migrations.
func OpenDB(dataDir, file string) (*sql.DB, error) {
	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		return nil, fmt.Errorf("create data dir: %w", err)
	}

	path := filepath.Join(dataDir, file)
	db, err := sql.Open("sqlite", path+"?_pragma=journal_mode(wal)&_pragma=foreign_keys(on)")
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}

	// The store is single-writer; one connection avoids SQLITE_BUSY
	// between concurrent transactions from UI double-submits.
	db.SetMaxOpenConns(1)

	if err := Migrate(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return db, nil
}

func Migrate(db *sql.DB) error {
	migrations := []string{
		`CREATE TABLE IF NOT EXISTS companies (
			id TEXT PRIMARY KEY,
			name TEXT NOT NULL,
			address TEXT NOT NULL DEFAULT '',
			phone TEXT NOT NULL DEFAULT '',
			created_at TEXT NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS users (
			id TEXT PRIMARY KEY,
			email TEXT NOT NULL UNIQUE,
			password_hash TEXT NOT NULL,
			first_name TEXT NOT NULL DEFAULT '',
			last_name TEXT NOT NULL DEFAULT '',
			role TEXT NOT NULL CHECK(role IN ('admin','driver')),
			company_id TEXT NOT NULL REFERENCES companies(id),
			created_at TEXT NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS sessions (
			token TEXT PRIMARY KEY,
			user_id TEXT NOT NULL REFERENCES users(id),
			created_at TEXT NOT NULL,
			expires_at TEXT NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS vehicles (
			id TEXT PRIMARY KEY,
			brand TEXT NOT NULL,
			model TEXT NOT NULL,
			license_plate TEXT NOT NULL UNIQUE,
			fleet_number TEXT NOT NULL UNIQUE,
			mileage INTEGER NOT NULL DEFAULT 0,
			is_active INTEGER NOT NULL DEFAULT 1,
			vin TEXT NOT NULL DEFAULT '',
			first_registration TEXT,
			engine_power_kw INTEGER NOT NULL DEFAULT 0,
			fuel_type TEXT NOT NULL DEFAULT '',
			seat_count INTEGER NOT NULL DEFAULT 0,
			category TEXT NOT NULL DEFAULT '',
			created_at TEXT NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS missions (
			id TEXT PRIMARY KEY,
			title TEXT NOT NULL,
			description TEXT NOT NULL DEFAULT '',
			status TEXT NOT NULL CHECK(status IN ('PENDING','ASSIGNED','IN_PROGRESS','COMPLETED','CANCELLED')),
			departure_name TEXT NOT NULL DEFAULT '',
			departure_address TEXT NOT NULL DEFAULT '',
			departure_lat REAL NOT NULL DEFAULT 0,
			departure_lng REAL NOT NULL DEFAULT 0,
			arrival_name TEXT NOT NULL DEFAULT '',
			arrival_address TEXT NOT NULL DEFAULT '',
			arrival_lat REAL NOT NULL DEFAULT 0,
			arrival_lng REAL NOT NULL DEFAULT 0,
			scheduled_departure_at TEXT NOT NULL,
			estimated_arrival_at TEXT,
			actual_departure_at TEXT,
			actual_arrival_at TEXT,
			route_polyline TEXT,
			distance_km REAL,
			estimated_duration_min INTEGER,
			max_passengers INTEGER NOT NULL,
			current_passengers INTEGER NOT NULL DEFAULT 0,
			driver_id TEXT REFERENCES users(id),
			company_id TEXT NOT NULL REFERENCES companies(id),
			vehicle_id TEXT REFERENCES vehicles(id),
			km_depot_start REAL,
			km_mission_start REAL,
			km_mission_end REAL,
			km_depot_end REAL,
			distance_depot_to_mission REAL,
			distance_depot_to_depot REAL,
			distance_mission_only REAL,
			driving_time_min INTEGER,
			rest_time_min INTEGER,
			waiting_time_min INTEGER,
			driving_time_comment TEXT,
			created_at TEXT NOT NULL,
			updated_at TEXT NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS notifications (
			id TEXT PRIMARY KEY,
			user_id TEXT NOT NULL REFERENCES users(id),
			type TEXT NOT NULL,
			title TEXT NOT NULL,
			message TEXT NOT NULL,
			mission_id TEXT NOT NULL,
			mission_title TEXT NOT NULL DEFAULT '',
			is_read INTEGER NOT NULL DEFAULT 0,
			requires_action INTEGER NOT NULL DEFAULT 0,
			created_at TEXT NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_missions_driver ON missions(driver_id)`,
		`CREATE INDEX IF NOT EXISTS idx_notifications_user ON notifications(user_id, created_at)`,
	}

	for _, m := range migrations {
		if _, err := db.Exec(m); err != nil {
			return fmt.Errorf("exec migration: %w", err)
		}
	}
	return nil
}

package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"autoadopt/internal/domain"
	"autoadopt/internal/repository"

	_ "modernc.org/sqlite"
)

var _ repository.Repository = (*Repository)(nil)

// Repository implements repository.Repository using SQLite
type Repository struct {
	db *sql.DB
}

// New creates a new SQLite repository
func New(dbPath string) (*Repository, error) {
	dsn := dbPath
	memory := dbPath == ":memory:" || strings.Contains(dbPath, "mode=memory")
	if !memory {
		dsn += "?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)"
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// Each connection to :memory: is a separate database
	if memory {
		db.SetMaxOpenConns(1)
	}

	repo := &Repository{db: db}
	if err := repo.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return repo, nil
}

func (r *Repository) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS devices (
		ip TEXT PRIMARY KEY,
		mac TEXT NOT NULL,
		vendor TEXT NOT NULL,
		port_open INTEGER NOT NULL DEFAULT 0,
		selected INTEGER NOT NULL DEFAULT 0,
		status TEXT NOT NULL DEFAULT 'pending',
		transcript TEXT,
		last_seen TEXT,
		updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);

	CREATE TABLE IF NOT EXISTS adoption_runs (
		id TEXT PRIMARY KEY,
		ip TEXT NOT NULL,
		credentials TEXT NOT NULL,
		username TEXT NOT NULL,
		controller_url TEXT NOT NULL,
		status TEXT NOT NULL,
		error_kind TEXT,
		error TEXT,
		timed_out INTEGER NOT NULL DEFAULT 0,
		transcript TEXT,
		started_at TEXT,
		finished_at TEXT
	);

	CREATE INDEX IF NOT EXISTS idx_adoption_runs_ip ON adoption_runs(ip);
	CREATE INDEX IF NOT EXISTS idx_adoption_runs_finished ON adoption_runs(finished_at);
	`

	_, err := r.db.Exec(schema)
	return err
}

const upsertDevice = `
	INSERT INTO devices (` + deviceColumns + `)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	ON CONFLICT(ip) DO UPDATE SET
		mac = excluded.mac,
		vendor = excluded.vendor,
		port_open = excluded.port_open,
		selected = excluded.selected,
		status = excluded.status,
		transcript = excluded.transcript,
		last_seen = excluded.last_seen,
		updated_at = CURRENT_TIMESTAMP
`

// ReplaceDevices replaces the device table with devices
func (r *Repository) ReplaceDevices(ctx context.Context, devices []domain.Device) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM devices`); err != nil {
		return fmt.Errorf("failed to clear devices: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, upsertDevice)
	if err != nil {
		return fmt.Errorf("failed to prepare device statement: %w", err)
	}
	defer stmt.Close()

	for _, d := range devices {
		if _, err := stmt.ExecContext(ctx, deviceInsertArgs(d)...); err != nil {
			return fmt.Errorf("failed to insert device %s: %w", d.Address, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// UpsertDevice creates or updates a single device
func (r *Repository) UpsertDevice(ctx context.Context, device domain.Device) error {
	if _, err := r.db.ExecContext(ctx, upsertDevice, deviceInsertArgs(device)...); err != nil {
		return fmt.Errorf("failed to upsert device: %w", err)
	}
	return nil
}

// ListDevices returns every stored device. Callers sort by address.
func (r *Repository) ListDevices(ctx context.Context) ([]domain.Device, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT `+deviceColumns+` FROM devices`)
	if err != nil {
		return nil, fmt.Errorf("failed to query devices: %w", err)
	}
	defer rows.Close()

	var devices []domain.Device
	for rows.Next() {
		var row deviceRow
		if err := rows.Scan(row.scanArgs()...); err != nil {
			return nil, fmt.Errorf("failed to scan device: %w", err)
		}
		d, err := row.toDomain()
		if err != nil {
			return nil, fmt.Errorf("device %s: %w", row.Address, err)
		}
		devices = append(devices, d)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating devices: %w", err)
	}
	return devices, nil
}

// RecordAdoption appends a finished adoption attempt
func (r *Repository) RecordAdoption(ctx context.Context, run domain.AdoptionRun) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO adoption_runs (`+runColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, runInsertArgs(run)...)
	if err != nil {
		return fmt.Errorf("failed to record adoption: %w", err)
	}
	return nil
}

// ListAdoptions returns adoption attempts newest first, optionally for a
// single address. limit <= 0 returns everything.
func (r *Repository) ListAdoptions(ctx context.Context, address string, limit int) ([]domain.AdoptionRun, error) {
	query := `SELECT ` + runColumns + ` FROM adoption_runs`
	var args []interface{}
	if address != "" {
		query += ` WHERE ip = ?`
		args = append(args, address)
	}
	query += ` ORDER BY finished_at DESC, rowid DESC`
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query adoptions: %w", err)
	}
	defer rows.Close()

	var runs []domain.AdoptionRun
	for rows.Next() {
		var row runRow
		if err := rows.Scan(row.scanArgs()...); err != nil {
			return nil, fmt.Errorf("failed to scan adoption: %w", err)
		}
		run, err := row.toDomain()
		if err != nil {
			return nil, fmt.Errorf("adoption %s: %w", row.ID, err)
		}
		runs = append(runs, run)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating adoptions: %w", err)
	}
	return runs, nil
}

// Close closes the database connection
func (r *Repository) Close() error {
	return r.db.Close()
}

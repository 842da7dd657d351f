package sqlite

import (
	"database/sql"
	"fmt"
	"time"

	"autoadopt/internal/domain"
)

// ============================================================================
// Null Type Conversion Helpers
// ============================================================================

// nullToString safely converts sql.NullString to string
func nullToString(ns sql.NullString) string {
	if ns.Valid {
		return ns.String
	}
	return ""
}

// stringToNull safely converts string to sql.NullString
func stringToNull(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}

// boolToInt converts a bool to the 0/1 SQLite stores
func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

// ============================================================================
// Time Helpers
// ============================================================================

// Times are stored in UTC with a fixed nine-digit fraction so that text
// order matches time order. RFC 3339 with trimmed zeros does not.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

// timeToNull formats t, storing NULL for the zero time
func timeToNull(t time.Time) sql.NullString {
	if t.IsZero() {
		return sql.NullString{}
	}
	return sql.NullString{String: t.UTC().Format(timeLayout), Valid: true}
}

// nullToTime parses a stored time, returning the zero time for NULL
func nullToTime(ns sql.NullString) (time.Time, error) {
	if !ns.Valid || ns.String == "" {
		return time.Time{}, nil
	}
	// RFC3339Nano accepts any fraction width on parse
	return time.Parse(time.RFC3339Nano, ns.String)
}

// ============================================================================
// Schema Evolution Guide
// ============================================================================
//
// To add a new column to the devices table:
// 1. Add field to deviceRow struct (below)
// 2. Update scanArgs() - APPEND to end to match column order
// 3. Update deviceColumns constant - APPEND to end
// 4. Update toDomain() to map new field to domain.Device
// 5. Update deviceInsertArgs() and the upsert statement
// 6. Add the column to the schema in sqlite.go migrate()
// 7. Update relevant tests
//
// CRITICAL: Column order must match between:
// - deviceColumns constant
// - scanArgs() return slice
// - All SELECT queries using deviceColumns
//
// Same pattern applies to adoption runs.

// ============================================================================
// Device Row Scanner
// ============================================================================

// deviceRow holds all columns from a device query for scanning
type deviceRow struct {
	Address         string
	HardwareAddress string
	Vendor          string
	PortOpen        int64
	Selected        int64
	Status          string
	Transcript      sql.NullString
	LastSeen        sql.NullString
}

// scanArgs returns pointers to all fields for sql.Scan()
// MUST match deviceColumns order exactly:
// ip, mac, vendor, port_open, selected, status, transcript, last_seen
func (r *deviceRow) scanArgs() []interface{} {
	return []interface{}{
		&r.Address,         // 1
		&r.HardwareAddress, // 2
		&r.Vendor,          // 3
		&r.PortOpen,        // 4
		&r.Selected,        // 5
		&r.Status,          // 6
		&r.Transcript,      // 7
		&r.LastSeen,        // 8
	}
}

// toDomain converts the scanned row to a domain.Device
func (r *deviceRow) toDomain() (domain.Device, error) {
	lastSeen, err := nullToTime(r.LastSeen)
	if err != nil {
		return domain.Device{}, fmt.Errorf("parse last_seen: %w", err)
	}

	d := domain.Device{
		Address:            r.Address,
		HardwareAddress:    r.HardwareAddress,
		Vendor:             r.Vendor,
		ManagementPortOpen: r.PortOpen != 0,
		Selected:           r.Selected != 0,
		Status:             domain.Status(r.Status),
		Transcript:         nullToString(r.Transcript),
		LastSeen:           lastSeen,
	}

	// Default status if unknown
	if !d.Status.Valid() {
		d.Status = domain.StatusPending
	}

	return d, nil
}

// deviceColumns returns the SELECT column list for device queries
const deviceColumns = `ip, mac, vendor, port_open, selected, status, transcript, last_seen`

// deviceInsertArgs prepares arguments for device INSERT/UPSERT in deviceColumns order
func deviceInsertArgs(d domain.Device) []interface{} {
	return []interface{}{
		d.Address,
		d.HardwareAddress,
		d.Vendor,
		boolToInt(d.ManagementPortOpen),
		boolToInt(d.Selected),
		string(d.Status),
		stringToNull(d.Transcript),
		timeToNull(d.LastSeen),
	}
}

// ============================================================================
// Adoption Run Row Scanner
// ============================================================================

// runRow holds all columns from an adoption run query for scanning
type runRow struct {
	ID            string
	Address       string
	Credentials   string
	Username      string
	ControllerURL string
	Status        string
	ErrorKind     sql.NullString
	Error         sql.NullString
	TimedOut      int64
	Transcript    sql.NullString
	StartedAt     sql.NullString
	FinishedAt    sql.NullString
}

// scanArgs returns pointers to all fields for sql.Scan()
// MUST match runColumns order exactly:
// id, ip, credentials, username, controller_url, status, error_kind,
// error, timed_out, transcript, started_at, finished_at
func (r *runRow) scanArgs() []interface{} {
	return []interface{}{
		&r.ID,            // 1
		&r.Address,       // 2
		&r.Credentials,   // 3
		&r.Username,      // 4
		&r.ControllerURL, // 5
		&r.Status,        // 6
		&r.ErrorKind,     // 7
		&r.Error,         // 8
		&r.TimedOut,      // 9
		&r.Transcript,    // 10
		&r.StartedAt,     // 11
		&r.FinishedAt,    // 12
	}
}

// toDomain converts the scanned row to a domain.AdoptionRun
func (r *runRow) toDomain() (domain.AdoptionRun, error) {
	started, err := nullToTime(r.StartedAt)
	if err != nil {
		return domain.AdoptionRun{}, fmt.Errorf("parse started_at: %w", err)
	}
	finished, err := nullToTime(r.FinishedAt)
	if err != nil {
		return domain.AdoptionRun{}, fmt.Errorf("parse finished_at: %w", err)
	}

	return domain.AdoptionRun{
		ID:            r.ID,
		Address:       r.Address,
		Credentials:   domain.CredentialSet(r.Credentials),
		Username:      r.Username,
		ControllerURL: r.ControllerURL,
		Status:        domain.Status(r.Status),
		ErrorKind:     nullToString(r.ErrorKind),
		Error:         nullToString(r.Error),
		TimedOut:      r.TimedOut != 0,
		Transcript:    nullToString(r.Transcript),
		StartedAt:     started,
		FinishedAt:    finished,
	}, nil
}

// runColumns returns the SELECT column list for adoption run queries
const runColumns = `id, ip, credentials, username, controller_url, status, error_kind,
	error, timed_out, transcript, started_at, finished_at`

// runInsertArgs prepares arguments for adoption run INSERT in runColumns order
func runInsertArgs(run domain.AdoptionRun) []interface{} {
	return []interface{}{
		run.ID,
		run.Address,
		string(run.Credentials),
		run.Username,
		run.ControllerURL,
		string(run.Status),
		stringToNull(run.ErrorKind),
		stringToNull(run.Error),
		boolToInt(run.TimedOut),
		stringToNull(run.Transcript),
		timeToNull(run.StartedAt),
		timeToNull(run.FinishedAt),
	}
}

package sqlite

import (
	"context"
	"database/sql"
	"path/filepath"
	"reflect"
	"testing"
	"time"

	"autoadopt/internal/domain"
)

// ============================================================================
// Test Helpers
// ============================================================================

// newTestRepo creates an in-memory SQLite repository for testing
func newTestRepo(t *testing.T) *Repository {
	t.Helper()
	repo, err := New(":memory:")
	if err != nil {
		t.Fatalf("failed to create test repository: %v", err)
	}
	t.Cleanup(func() {
		repo.Close()
	})
	return repo
}

// assertNoError fails the test if err is not nil
func assertNoError(t *testing.T, err error) {
	t.Helper()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

// assertEqual fails the test if expected != actual
func assertEqual(t *testing.T, expected, actual interface{}) {
	t.Helper()
	if !reflect.DeepEqual(expected, actual) {
		t.Fatalf("expected %v, got %v", expected, actual)
	}
}

func sampleDevice(ip string) domain.Device {
	return domain.Device{
		Address:            ip,
		HardwareAddress:    "24:A4:3C:11:22:33",
		Vendor:             "Ubiquiti Networks Inc.",
		ManagementPortOpen: true,
		Status:             domain.StatusPending,
		LastSeen:           time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC),
	}
}

func devicesByAddress(t *testing.T, repo *Repository) map[string]domain.Device {
	t.Helper()
	devices, err := repo.ListDevices(context.Background())
	assertNoError(t, err)
	out := make(map[string]domain.Device, len(devices))
	for _, d := range devices {
		out[d.Address] = d
	}
	return out
}

// ============================================================================
// Helper Function Tests
// ============================================================================

func TestNullToString(t *testing.T) {
	tests := []struct {
		name     string
		input    sql.NullString
		expected string
	}{
		{"valid", sql.NullString{String: "x", Valid: true}, "x"},
		{"null", sql.NullString{}, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assertEqual(t, tt.expected, nullToString(tt.input))
		})
	}
}

func TestTimeRoundTrip(t *testing.T) {
	if got := timeToNull(time.Time{}); got.Valid {
		t.Fatalf("zero time should be NULL, got %q", got.String)
	}

	ts := time.Date(2026, 1, 2, 3, 4, 5, 6000, time.FixedZone("X", 3600))
	parsed, err := nullToTime(timeToNull(ts))
	assertNoError(t, err)
	if !parsed.Equal(ts) {
		t.Fatalf("expected %v, got %v", ts, parsed)
	}

	zero, err := nullToTime(sql.NullString{})
	assertNoError(t, err)
	if !zero.IsZero() {
		t.Fatalf("expected zero time, got %v", zero)
	}
}

// ============================================================================
// Device Tests
// ============================================================================

func TestReplaceDevices(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	assertNoError(t, repo.ReplaceDevices(ctx, []domain.Device{sampleDevice("10.0.0.1"), sampleDevice("10.0.0.2")}))
	assertEqual(t, 2, len(devicesByAddress(t, repo)))

	assertNoError(t, repo.ReplaceDevices(ctx, []domain.Device{sampleDevice("10.0.0.3")}))
	got := devicesByAddress(t, repo)
	assertEqual(t, 1, len(got))
	if _, ok := got["10.0.0.3"]; !ok {
		t.Fatalf("expected 10.0.0.3 after replace, got %v", got)
	}

	assertNoError(t, repo.ReplaceDevices(ctx, nil))
	assertEqual(t, 0, len(devicesByAddress(t, repo)))
}

func TestUpsertDevice(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	d := sampleDevice("192.168.1.20")
	assertNoError(t, repo.UpsertDevice(ctx, d))

	d.Selected = true
	d.Status = domain.StatusError
	d.Transcript = "ubnt@192.168.1.20\n\nAuthentication failed"
	assertNoError(t, repo.UpsertDevice(ctx, d))

	got := devicesByAddress(t, repo)
	assertEqual(t, 1, len(got))
	assertEqual(t, d, got["192.168.1.20"])
}

func TestListDevicesDefaultsUnknownStatus(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	_, err := repo.db.ExecContext(ctx, `INSERT INTO devices (ip, mac, vendor, status) VALUES ('10.0.0.9', 'Unknown', 'Unknown', 'bogus')`)
	assertNoError(t, err)

	got := devicesByAddress(t, repo)["10.0.0.9"]
	assertEqual(t, domain.StatusPending, got.Status)
	assertEqual(t, false, got.ManagementPortOpen)
	if !got.LastSeen.IsZero() {
		t.Fatalf("expected zero last_seen, got %v", got.LastSeen)
	}
}

// ============================================================================
// Adoption Run Tests
// ============================================================================

func sampleRun(id, ip string, finished time.Time) domain.AdoptionRun {
	return domain.AdoptionRun{
		ID:            id,
		Address:       ip,
		Credentials:   domain.CredentialsDefault,
		Username:      "ubnt",
		ControllerURL: "http://192.168.1.2:8080",
		Status:        domain.StatusSuccess,
		Transcript:    "ubnt@" + ip + "\n",
		StartedAt:     finished.Add(-2 * time.Second),
		FinishedAt:    finished,
	}
}

func TestRecordAndListAdoptions(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	first := sampleRun("a", "10.0.0.1", base)
	second := sampleRun("b", "10.0.0.2", base.Add(time.Minute))
	third := sampleRun("c", "10.0.0.1", base.Add(2*time.Minute))
	third.Status = domain.StatusError
	third.ErrorKind = "authentication"
	third.Error = "Authentication failed"
	third.TimedOut = false

	for _, run := range []domain.AdoptionRun{first, second, third} {
		assertNoError(t, repo.RecordAdoption(ctx, run))
	}

	all, err := repo.ListAdoptions(ctx, "", 0)
	assertNoError(t, err)
	assertEqual(t, 3, len(all))
	assertEqual(t, "c", all[0].ID)
	assertEqual(t, "a", all[2].ID)
	assertEqual(t, third, all[0])

	forHost, err := repo.ListAdoptions(ctx, "10.0.0.1", 0)
	assertNoError(t, err)
	assertEqual(t, 2, len(forHost))

	limited, err := repo.ListAdoptions(ctx, "", 1)
	assertNoError(t, err)
	assertEqual(t, 1, len(limited))
	assertEqual(t, "c", limited[0].ID)

	if err := repo.RecordAdoption(ctx, first); err == nil {
		t.Fatal("expected duplicate id to fail")
	}
}

func TestListAdoptionsOrdersSubsecondTimes(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	base := time.Date(2026, 3, 1, 12, 0, 5, 0, time.UTC)

	// inserted newest first so rowid order cannot mask the sort
	runs := []domain.AdoptionRun{
		sampleRun("newest", "10.0.0.1", base.Add(900*time.Millisecond)),
		sampleRun("newer", "10.0.0.1", base.Add(550*time.Millisecond)),
		sampleRun("older", "10.0.0.1", base.Add(500*time.Millisecond)),
		sampleRun("oldest", "10.0.0.1", base),
	}
	for _, run := range runs {
		assertNoError(t, repo.RecordAdoption(ctx, run))
	}

	got, err := repo.ListAdoptions(ctx, "", 0)
	assertNoError(t, err)
	assertEqual(t, len(runs), len(got))
	for i, run := range runs {
		assertEqual(t, run.ID, got[i].ID)
		if !got[i].FinishedAt.Equal(run.FinishedAt) {
			t.Fatalf("run %s: expected %v, got %v", run.ID, run.FinishedAt, got[i].FinishedAt)
		}
	}
}

func TestTimeToNullFixedWidth(t *testing.T) {
	a := timeToNull(time.Date(2026, 3, 1, 12, 0, 5, 0, time.UTC))
	b := timeToNull(time.Date(2026, 3, 1, 12, 0, 5, 500_000_000, time.UTC))
	assertEqual(t, "2026-03-01T12:00:05.000000000Z", a.String)
	assertEqual(t, len(a.String), len(b.String))
	if a.String >= b.String {
		t.Fatalf("expected %q to sort before %q", a.String, b.String)
	}

	legacy, err := nullToTime(sql.NullString{String: "2026-03-01T12:00:05.55Z", Valid: true})
	assertNoError(t, err)
	assertEqual(t, 550_000_000, legacy.Nanosecond())
}

func TestFileDatabasePersists(t *testing.T) {
	path := filepath.Join(t.TempDir(), "autoadopt.db")
	ctx := context.Background()

	repo, err := New(path)
	assertNoError(t, err)
	assertNoError(t, repo.UpsertDevice(ctx, sampleDevice("10.0.0.5")))
	assertNoError(t, repo.Close())

	reopened, err := New(path)
	assertNoError(t, err)
	defer reopened.Close()

	got := devicesByAddress(t, reopened)
	assertEqual(t, sampleDevice("10.0.0.5"), got["10.0.0.5"])
}

package stoker

import (
	"database/sql"
	"path/filepath"
	"testing"
	"time"

	_ "modernc.org/sqlite"

	"github.com/stretchr/testify/require"
)

func openSweeperDB(t *testing.T) *sql.DB {
	t.Helper()

	dbPath := filepath.Join(t.TempDir(), "stoker_sweeper.db")
	db, err := sql.Open("sqlite", "file:"+dbPath+"?_journal=WAL&_pragma=busy_timeout(5000)")
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	_, err = db.Exec(`
		CREATE TABLE events (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			payload TEXT,
			created_at INTEGER NOT NULL
		)
	`)
	require.NoError(t, err)

	_, err = db.Exec(`CREATE INDEX events_created_at ON events (created_at)`)
	require.NoError(t, err)

	return db
}

func insertEvents(t *testing.T, db *sql.DB, ts time.Time, n int) {
	t.Helper()
	for i := 0; i < n; i++ {
		_, err := db.Exec(
			`INSERT INTO events (payload, created_at) VALUES (?, ?)`,
			"event", ts.UnixNano(),
		)
		require.NoError(t, err)
	}
}

func countEvents(t *testing.T, db *sql.DB) int {
	t.Helper()
	var n int
	require.NoError(t, db.QueryRow(`SELECT COUNT(*) FROM events`).Scan(&n))
	return n
}

func TestNewSQLiteSweeper_ValidatesConfig(t *testing.T) {
	t.Parallel()

	db := openSweeperDB(t)

	_, err := NewSQLiteSweeper(db, SweepConfig{
		Table:      "events; --",
		TimeColumn: "created_at",
		TTL:        time.Hour,
	})
	require.Error(t, err)

	_, err = NewSQLiteSweeper(db, SweepConfig{
		Table:      "events",
		TimeColumn: "created_at",
	})
	require.Error(t, err, "zero TTL must be rejected")
}

func TestSQLiteSweeper_ReclaimsExpiredRows(t *testing.T) {
	t.Parallel()

	db := openSweeperDB(t)

	s, err := NewSQLiteSweeper(db, SweepConfig{
		Table:      "events",
		TimeColumn: "created_at",
		TTL:        time.Hour,
		BatchSize:  8,
		// Long interval: the test drives the sweeper via NotifyWrite.
		Interval: time.Hour,
	})
	require.NoError(t, err)
	defer s.Close()

	now := time.Now()
	insertEvents(t, db, now.Add(-2*time.Hour), 20) // expired
	insertEvents(t, db, now, 5)                    // fresh

	s.NotifyWrite()

	waitFor(t, 5*time.Second, func() bool { return countEvents(t, db) == 5 },
		"sweeper did not reclaim expired rows")

	// Fresh rows must survive a further wake.
	s.NotifyWrite()
	time.Sleep(50 * time.Millisecond)
	require.Equal(t, 5, countEvents(t, db))
}

func TestSQLiteSweeper_IntervalBackstop(t *testing.T) {
	t.Parallel()

	db := openSweeperDB(t)

	s, err := NewSQLiteSweeper(db, SweepConfig{
		Table:      "events",
		TimeColumn: "created_at",
		TTL:        time.Minute,
		Interval:   10 * time.Millisecond,
	})
	require.NoError(t, err)
	defer s.Close()

	insertEvents(t, db, time.Now().Add(-time.Hour), 6)

	// No NotifyWrite: the interval alone must reclaim the rows.
	waitFor(t, 5*time.Second, func() bool { return countEvents(t, db) == 0 },
		"interval backstop did not reclaim expired rows")
}

func TestSQLiteSweeper_CancelResumeRoundTrip(t *testing.T) {
	t.Parallel()

	db := openSweeperDB(t)

	s, err := NewSQLiteSweeper(db, SweepConfig{
		Table:      "events",
		TimeColumn: "created_at",
		TTL:        time.Minute,
		Interval:   10 * time.Millisecond,
	})
	require.NoError(t, err)

	// Pause the sweep around a bulk load, then resume it.
	s.Worker().Cancel()
	require.False(t, s.Worker().Running())

	insertEvents(t, db, time.Now().Add(-time.Hour), 10)
	time.Sleep(50 * time.Millisecond)
	require.Equal(t, 10, countEvents(t, db), "cancelled sweeper must not delete")

	s.Worker().Resume()
	waitFor(t, 5*time.Second, func() bool { return countEvents(t, db) == 0 },
		"resumed sweeper did not reclaim rows")

	s.Close()
}

package archive

import (
	"context"
	"database/sql"
	"encoding/json"
	"path/filepath"
	"testing"
	"time"

	"codeberg.org/mutker/laserlog/internal/datalog"
	"codeberg.org/mutker/laserlog/internal/errors"
	"codeberg.org/mutker/laserlog/internal/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig(t *testing.T) Config {
	t.Helper()

	dir := t.TempDir()
	return Config{
		Enabled:   true,
		DBPath:    filepath.Join(dir, "archive.db"),
		BatchSize: 2,
		BackupDir: filepath.Join(dir, "backups"),
	}
}

func entry(session string, seq uint64) Entry {
	return Entry{
		SessionID: session,
		Sequence:  seq,
		LoggedAt:  time.Date(2025, 3, 14, 9, 26, 53, 0, time.UTC).Add(time.Duration(seq) * time.Minute),
		Header:    []string{"Date", "Time", "PRF"},
		Values:    map[string]string{"PRF": "100000"},
	}
}

func count(t *testing.T, db *sql.DB, table string) int {
	t.Helper()

	var n int
	require.NoError(t, db.QueryRow("SELECT COUNT(*) FROM "+table).Scan(&n))
	return n
}

func openDB(t *testing.T, path string) *sql.DB {
	t.Helper()

	db, err := sql.Open("sqlite3", path)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func TestDisabledArchiveIsNoop(t *testing.T) {
	a, err := NewService(DefaultConfig())
	require.NoError(t, err)

	assert.NoError(t, a.Record(context.Background(), entry("s", 1)))
	assert.NoError(t, a.Close())
}

func TestConfigValidation(t *testing.T) {
	cfg := testConfig(t)
	cfg.DBPath = ""
	_, err := NewService(cfg)
	code, ok := errors.CodeOf(err)
	require.True(t, ok)
	assert.Equal(t, ErrInvalidConfig, code)
	assert.ErrorIs(t, err, errors.New().New(ErrInvalidDBPath))

	cfg = testConfig(t)
	cfg.BatchSize = 0
	assert.Error(t, cfg.Validate())
	assert.NoError(t, Config{}.Validate())
}

func TestRepositoryFlushesBySize(t *testing.T) {
	cfg := testConfig(t)
	repo, err := NewRepository(cfg, logger.Component("test"))
	require.NoError(t, err)

	require.NoError(t, repo.Record(entry("s1", 1)))
	require.NoError(t, repo.Record(entry("s1", 2)))
	require.NoError(t, repo.Record(entry("s1", 3)))

	db := openDB(t, cfg.DBPath)
	assert.Equal(t, 2, count(t, db, "datapoints"))

	require.NoError(t, repo.Close())
	assert.Equal(t, 3, count(t, db, "datapoints"))
	assert.Equal(t, 1, count(t, db, "sessions"))

	var header, payload string
	require.NoError(t, db.QueryRow("SELECT header FROM sessions WHERE id = ?", "s1").Scan(&header))
	require.NoError(t, db.QueryRow("SELECT payload FROM datapoints WHERE session_id = ? AND seq = 3", "s1").Scan(&payload))

	var cols []string
	require.NoError(t, json.Unmarshal([]byte(header), &cols))
	assert.Equal(t, []string{"Date", "Time", "PRF"}, cols)

	var values map[string]string
	require.NoError(t, json.Unmarshal([]byte(payload), &values))
	assert.Equal(t, "100000", values["PRF"])
}

func TestRepositoryFlushesByTimer(t *testing.T) {
	cfg := testConfig(t)
	cfg.BatchSize = 100
	cfg.BatchTimeout = 1
	repo, err := NewRepository(cfg, logger.Component("test"))
	require.NoError(t, err)
	defer repo.Close()

	require.NoError(t, repo.Record(entry("s1", 1)))

	db := openDB(t, cfg.DBPath)
	assert.Eventually(t, func() bool {
		var n int
		return db.QueryRow("SELECT COUNT(*) FROM datapoints").Scan(&n) == nil && n == 1
	}, 5*time.Second, 50*time.Millisecond)
}

func TestSchemaMismatchBacksUpAndRecreates(t *testing.T) {
	cfg := testConfig(t)

	db := openDB(t, cfg.DBPath)
	_, err := db.Exec(`
		CREATE TABLE schema_versions (version INTEGER PRIMARY KEY, applied_at TEXT NOT NULL);
		INSERT INTO schema_versions VALUES (99, datetime('now'));
		CREATE TABLE datapoints (legacy TEXT);`)
	require.NoError(t, err)
	require.NoError(t, db.Close())

	repo, err := NewRepository(cfg, logger.Component("test"))
	require.NoError(t, err)
	require.NoError(t, repo.Record(entry("s1", 1)))
	require.NoError(t, repo.Close())

	backups, err := filepath.Glob(filepath.Join(cfg.BackupDir, "archive_v99_*.db"))
	require.NoError(t, err)
	assert.Len(t, backups, 1)

	db = openDB(t, cfg.DBPath)
	version, err := GetSchemaVersion(db)
	require.NoError(t, err)
	assert.Equal(t, SchemaVersion, version)
	assert.Equal(t, 1, count(t, db, "datapoints"))
}

func TestServiceRejectsInvalidEntries(t *testing.T) {
	a, err := NewService(testConfig(t))
	require.NoError(t, err)
	defer a.Close()

	err = a.Record(context.Background(), Entry{SessionID: "s1"})
	code, ok := errors.CodeOf(err)
	require.True(t, ok)
	assert.Equal(t, ErrInvalidEntry, code)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err = a.Record(ctx, entry("s1", 1))
	code, _ = errors.CodeOf(err)
	assert.Equal(t, ErrOperationTimeout, code)
}

type captureArchive struct {
	entries []Entry
}

func (c *captureArchive) Record(_ context.Context, e Entry) error {
	c.entries = append(c.entries, e)
	return nil
}

func (c *captureArchive) Close() error { return nil }

func TestObserverAttachesHeaderPerSession(t *testing.T) {
	capture := &captureArchive{}
	obs := NewObserver(capture)

	first := []string{"Date", "Time", "Alarms"}
	second := []string{"Date", "Time", "PRF", "Alarms"}
	at := time.Now()
	obs.OnDataPoint(datalog.DataPoint{SessionID: "a", Sequence: 1, At: at, Header: first, Values: map[string]string{"Alarms": ""}})
	obs.OnDataPoint(datalog.DataPoint{SessionID: "a", Sequence: 2, At: at, Header: first, Values: map[string]string{"Alarms": ""}})
	obs.OnDataPoint(datalog.DataPoint{SessionID: "b", Sequence: 1, At: at, Header: second, Values: map[string]string{"Alarms": "[x]"}})

	require.Len(t, capture.entries, 3)
	assert.Equal(t, first, capture.entries[0].Header)
	assert.Nil(t, capture.entries[1].Header)
	assert.Equal(t, second, capture.entries[2].Header, "each session keeps the header it was logged under")
	assert.Equal(t, "[x]", capture.entries[2].Values["Alarms"])
}

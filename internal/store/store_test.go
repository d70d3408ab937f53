package store

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dshills/sift/internal/finding"
)

func openTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := Open(filepath.Join(t.TempDir(), "nested", "sift.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func staticFinding(path string, line int, title string) *finding.Finding {
	return finding.NormalizeStatic(finding.RawFinding{
		RuleID:    "SEC002",
		FilePath:  path,
		LineStart: line,
		Category:  "security",
		Severity:  "block",
		Title:     title,
		Message:   "msg",
	}, "run")
}

func TestSaveAndLoadRun(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	f := staticFinding("app.py", 10, "Hardcoded secret")
	run := &Run{
		ID:        "run-1",
		Repo:      "acme/api",
		PR:        7,
		Status:    "completed",
		StartedAt: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC),
		Findings:  []*finding.Finding{f},
	}
	require.NoError(t, db.SaveRun(ctx, run))
	// Saving twice replaces rather than duplicates.
	require.NoError(t, db.SaveRun(ctx, run))

	got, err := db.LoadRun(ctx, "run-1")
	require.NoError(t, err)
	assert.Equal(t, "acme/api", got.Repo)
	require.Len(t, got.Findings, 1)
	assert.Equal(t, f.Fingerprint, got.Findings[0].Fingerprint)
	require.NotNil(t, got.Findings[0].LineStart)
	assert.Equal(t, 10, *got.Findings[0].LineStart)

	rows, err := db.ListRuns(ctx, "", 10)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, 1, rows[0].Findings)
	assert.Equal(t, 1, rows[0].Active)
	assert.True(t, rows[0].StartedAt.Equal(run.StartedAt))
}

func TestLoadRunNotFound(t *testing.T) {
	db := openTestDB(t)
	_, err := db.LoadRun(context.Background(), "missing")
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("LoadRun error = %v, want ErrNotFound", err)
	}
}

func TestPriorFingerprints(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	active := staticFinding("a.py", 1, "Active")
	hidden := staticFinding("a.py", 2, "Hidden")
	hidden.Suppress("Below minimum severity (high)")
	other := staticFinding("b.py", 3, "Other PR")

	require.NoError(t, db.SaveRun(ctx, &Run{ID: "r1", Repo: "acme/api", PR: 7, Status: "completed",
		StartedAt: time.Now(), Findings: []*finding.Finding{active, hidden}}))
	require.NoError(t, db.SaveRun(ctx, &Run{ID: "r2", Repo: "acme/api", PR: 8, Status: "completed",
		StartedAt: time.Now(), Findings: []*finding.Finding{other}}))

	set, err := db.PriorFingerprints(ctx, "acme/api", 7, "r3")
	require.NoError(t, err)
	assert.True(t, set.Has(active.Fingerprint))
	assert.False(t, set.Has(hidden.Fingerprint), "suppressed findings were never reported")
	assert.False(t, set.Has(other.Fingerprint), "other PRs do not count")

	self, err := db.PriorFingerprints(ctx, "acme/api", 7, "r1")
	require.NoError(t, err)
	assert.Empty(t, self)
}

func TestListRunsFilterAndPrune(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()
	old := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	recent := time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC)

	require.NoError(t, db.SaveRun(ctx, &Run{ID: "old", Repo: "acme/api", Status: "completed", StartedAt: old}))
	require.NoError(t, db.SaveRun(ctx, &Run{ID: "new", Repo: "acme/web", Status: "skipped", StartedAt: recent}))

	rows, err := db.ListRuns(ctx, "acme/web", 0)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "new", rows[0].ID)

	n, err := db.DeleteRunsBefore(ctx, time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	rows, err = db.ListRuns(ctx, "", 10)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "new", rows[0].ID)
}

func TestListRunsOrdersSubsecondTimestamps(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	require.NoError(t, db.SaveRun(ctx, &Run{ID: "z-whole", Status: "completed", StartedAt: base}))
	require.NoError(t, db.SaveRun(ctx, &Run{ID: "a-frac", Status: "completed", StartedAt: base.Add(500 * time.Millisecond)}))

	rows, err := db.ListRuns(ctx, "", 10)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "a-frac", rows[0].ID)
	assert.Equal(t, "z-whole", rows[1].ID)
	assert.True(t, rows[0].StartedAt.Equal(base.Add(500*time.Millisecond)))

	n, err := db.DeleteRunsBefore(ctx, base.Add(time.Millisecond))
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	rows, err = db.ListRuns(ctx, "", 10)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "a-frac", rows[0].ID)
}

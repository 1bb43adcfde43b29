package report

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"snowshift/internal/migrate"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleSummary() *migrate.Summary {
	return &migrate.Summary{
		Results: []migrate.Result{
			{
				Object:   "SALES",
				Status:   migrate.StatusDone,
				Duration: 1200 * time.Millisecond,
			},
			{
				Object:   "HR",
				Status:   migrate.StatusSkipped,
				Reason:   "already exists",
				Duration: 80 * time.Millisecond,
			},
			{
				Object:   "FINANCE",
				Status:   migrate.StatusFailed,
				Reason:   "statement failed",
				Err:      errors.New("syntax error"),
				Duration: 450 * time.Millisecond,
			},
		},
	}
}

func TestFromSummary(t *testing.T) {
	startedAt := time.Now().Add(-time.Minute)
	r := FromSummary("create-databases", "ab67890", startedAt, sampleSummary())

	assert.NotEmpty(t, r.ID)
	assert.Equal(t, "create-databases", r.Command)
	assert.Equal(t, "ab67890", r.Account)
	assert.Equal(t, startedAt, r.StartedAt)
	assert.False(t, r.FinishedAt.IsZero())

	require.Len(t, r.Entries, 3)
	assert.Equal(t, Entry{Object: "SALES", Status: "DONE", DurationMS: 1200}, r.Entries[0])
	assert.Equal(t, "already exists", r.Entries[1].Reason)
	assert.Equal(t, "syntax error", r.Entries[2].Error)

	assert.Equal(t, Totals{Done: 1, Skipped: 1, Failed: 1}, r.Totals)
}

func TestFromSummaryEmpty(t *testing.T) {
	r := FromSummary("merge", "xy12345", time.Now(), &migrate.Summary{})

	assert.Empty(t, r.Entries)
	assert.Equal(t, Totals{}, r.Totals)
}

func TestStoreSaveAndList(t *testing.T) {
	store, err := NewStoreAt(t.TempDir())
	require.NoError(t, err)

	older := FromSummary("merge", "xy12345", time.Now().Add(-time.Hour), sampleSummary())
	newer := FromSummary("create-tables", "ab67890", time.Now(), sampleSummary())

	olderPath, err := store.Save(older)
	require.NoError(t, err)
	_, err = store.Save(newer)
	require.NoError(t, err)

	// Saved file carries the run id in its name
	assert.Equal(t, "run-"+older.ID+".json", filepath.Base(olderPath))
	_, err = os.Stat(olderPath)
	require.NoError(t, err)

	reports, err := store.List()
	require.NoError(t, err)
	require.Len(t, reports, 2)

	// Newest first
	assert.Equal(t, newer.ID, reports[0].ID)
	assert.Equal(t, older.ID, reports[1].ID)

	assert.Equal(t, "create-tables", reports[0].Command)
	assert.Equal(t, Totals{Done: 1, Skipped: 1, Failed: 1}, reports[0].Totals)
	require.Len(t, reports[0].Entries, 3)
	assert.Equal(t, "FINANCE", reports[0].Entries[2].Object)
	assert.Equal(t, "syntax error", reports[0].Entries[2].Error)
}

func TestStoreSaveAssignsID(t *testing.T) {
	store, err := NewStoreAt(t.TempDir())
	require.NoError(t, err)

	r := &Report{Command: "share", StartedAt: time.Now()}
	_, err = store.Save(r)
	require.NoError(t, err)

	assert.NotEmpty(t, r.ID)
}

func TestStoreListSkipsUnreadableReports(t *testing.T) {
	dir := t.TempDir()
	store, err := NewStoreAt(dir)
	require.NoError(t, err)

	valid := FromSummary("merge", "xy12345", time.Now(), sampleSummary())
	_, err = store.Save(valid)
	require.NoError(t, err)

	require.NoError(t, os.WriteFile(filepath.Join(dir, "run-broken.json"), []byte("{not json"), 0644))

	reports, err := store.List()
	require.NoError(t, err)
	require.Len(t, reports, 1)
	assert.Equal(t, valid.ID, reports[0].ID)
}

func TestStoreListEmpty(t *testing.T) {
	store, err := NewStoreAt(t.TempDir())
	require.NoError(t, err)

	reports, err := store.List()
	require.NoError(t, err)
	assert.Empty(t, reports)
}

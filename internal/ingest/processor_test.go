package ingest

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/attmon/attmon/internal/attendance"
	"github.com/attmon/attmon/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

type fakeStore struct {
	mu        sync.Mutex
	records   []attendance.Record
	fileHash  string
	fileName  string
	upserted  int
	events    []string
	upsertErr error
}

func (f *fakeStore) UpsertPunches(_ context.Context, recs []attendance.Record, fileHash, fileName string) (store.Summary, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.upsertErr != nil {
		return store.Summary{}, f.upsertErr
	}
	f.records = recs
	f.fileHash = fileHash
	f.fileName = fileName
	f.upserted++
	return store.Summary{Total: len(recs), Inserted: len(recs)}, nil
}

func (f *fakeStore) LogEvent(_ context.Context, eventType, description, _ string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events = append(f.events, eventType+": "+description)
	return nil
}

type fakeNotifier struct {
	mu        sync.Mutex
	processed []string
	skipped   []string
	failed    []string
}

func (f *fakeNotifier) FileProcessed(name string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.processed = append(f.processed, name)
}

func (f *fakeNotifier) FileSkipped(name, reason string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.skipped = append(f.skipped, name+": "+reason)
}

func (f *fakeNotifier) FileError(name string, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.failed = append(f.failed, name)
}

func testConfig() func() Config {
	return func() Config {
		return Config{FileReadyTimeout: 2 * time.Second, FileReadyPoll: 10 * time.Millisecond}
	}
}

// writeWorkbook renders rows (header first) to an xlsx file on disk.
func writeWorkbook(t *testing.T, dir string, rows [][]any) string {
	t.Helper()
	f := excelize.NewFile()
	defer func() { _ = f.Close() }()
	sheet := f.GetSheetName(0)
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		require.NoError(t, err)
		require.NoError(t, f.SetSheetRow(sheet, cell, &row))
	}
	path := filepath.Join(dir, "punches.xlsx")
	require.NoError(t, f.SaveAs(path))
	return path
}

func TestProcessFile(t *testing.T) {
	path := writeWorkbook(t, t.TempDir(), [][]any{
		{"Punch_Date", "Employee_ID", "Employee_Name", "Punch_In_Time", "Punch_Out_Time"},
		{"2026-03-02", "E001", "Asha Rao", "08:55:12", "17:31:40"},
	})

	st := &fakeStore{}
	nt := &fakeNotifier{}
	p := New(st, nt, testConfig())

	require.NoError(t, p.ProcessFile(context.Background(), path))

	assert.Equal(t, 1, st.upserted)
	require.Len(t, st.records, 1)
	assert.Equal(t, "E001", st.records[0].EmployeeID)
	assert.Equal(t, "punches.xlsx", st.fileName)
	assert.Len(t, st.fileHash, 64) // hex-encoded sha256

	assert.Equal(t, []string{"punches.xlsx"}, nt.processed)
	assert.Empty(t, nt.skipped)
	assert.Empty(t, nt.failed)
}

func TestProcessFileMissingColumns(t *testing.T) {
	path := writeWorkbook(t, t.TempDir(), [][]any{
		{"Punch_Date", "Employee_Name"},
		{"2026-03-02", "Asha Rao"},
	})

	st := &fakeStore{}
	nt := &fakeNotifier{}
	p := New(st, nt, testConfig())

	err := p.ProcessFile(context.Background(), path)
	require.Error(t, err)

	assert.Zero(t, st.upserted)
	require.Len(t, st.events, 1)
	assert.Contains(t, st.events[0], "skipped: missing required columns")
	require.Len(t, nt.skipped, 1)
	assert.Contains(t, nt.skipped[0], "Employee_ID")
	assert.Empty(t, nt.processed)
}

func TestProcessFileCorrupt(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "broken.xlsx")
	require.NoError(t, os.WriteFile(path, []byte("this is not a zip archive"), 0o644))

	st := &fakeStore{}
	nt := &fakeNotifier{}
	p := New(st, nt, testConfig())

	err := p.ProcessFile(context.Background(), path)
	require.Error(t, err)

	assert.Zero(t, st.upserted)
	require.Len(t, nt.skipped, 1)
	assert.Contains(t, nt.skipped[0], "corrupted or in unsupported format")
}

func TestProcessFileDisappeared(t *testing.T) {
	st := &fakeStore{}
	nt := &fakeNotifier{}
	p := New(st, nt, testConfig())

	err := p.ProcessFile(context.Background(), filepath.Join(t.TempDir(), "never-existed.xlsx"))
	require.Error(t, err)

	assert.Zero(t, st.upserted)
	require.Len(t, nt.skipped, 1)
	assert.Contains(t, nt.skipped[0], "disappeared")
}

func TestProcessFileStoreFailure(t *testing.T) {
	path := writeWorkbook(t, t.TempDir(), [][]any{
		{"Punch_Date", "Employee_ID", "Employee_Name", "Punch_In_Time", "Punch_Out_Time"},
		{"2026-03-02", "E001", "Asha Rao", "08:55:12", "17:31:40"},
	})

	st := &fakeStore{upsertErr: errors.New("database is locked")}
	nt := &fakeNotifier{}
	p := New(st, nt, testConfig())

	err := p.ProcessFile(context.Background(), path)
	require.Error(t, err)

	assert.Equal(t, []string{"punches.xlsx"}, nt.failed)
	assert.Empty(t, nt.processed)
	require.Len(t, st.events, 1)
	assert.Contains(t, st.events[0], "error: store punches")
}

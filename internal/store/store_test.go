package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/attmon/attmon/internal/attendance"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "attendance.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func clock(h, m, s int) *attendance.Clock {
	c := attendance.NewClock(h, m, s)
	return &c
}

func record(date, id string, in, out *attendance.Clock) attendance.Record {
	return attendance.Record{
		Date:         date,
		EmployeeID:   id,
		EmployeeName: "Asha Rao",
		PunchIn:      in,
		PunchOut:     out,
		HoursWorked:  "8.50",
		Status:       "Present",
	}
}

func TestOpenAppliesPragmas(t *testing.T) {
	s := openTestStore(t)

	var journalMode string
	require.NoError(t, s.db.QueryRow("PRAGMA journal_mode").Scan(&journalMode))
	assert.Equal(t, "wal", journalMode)

	var busyTimeout int
	require.NoError(t, s.db.QueryRow("PRAGMA busy_timeout").Scan(&busyTimeout))
	assert.Equal(t, 5000, busyTimeout)
}

func TestUpsertPunchesInsert(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	sum, err := s.UpsertPunches(ctx,
		[]attendance.Record{record("2026-03-02", "E001", clock(9, 0, 0), clock(17, 0, 0))},
		"hash-1", "morning.xlsx")
	require.NoError(t, err)
	assert.Equal(t, Summary{Total: 1, Inserted: 1}, sum)

	recs, err := s.QueryByDate(ctx, "2026-03-02")
	require.NoError(t, err)
	require.Len(t, recs, 1)
	assert.Equal(t, "E001", recs[0].EmployeeID)
	assert.Equal(t, "hash-1", recs[0].FileHash)
	require.NotNil(t, recs[0].ProcessedAt)
	assert.True(t, attendance.ClockEqual(clock(9, 0, 0), recs[0].PunchIn))
}

func TestUpsertPunchesMerge(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	_, err := s.UpsertPunches(ctx,
		[]attendance.Record{record("2026-03-02", "E001", clock(9, 0, 0), clock(17, 0, 0))},
		"hash-1", "first.xlsx")
	require.NoError(t, err)

	// Earlier punch-in and later punch-out both win.
	sum, err := s.UpsertPunches(ctx,
		[]attendance.Record{record("2026-03-02", "E001", clock(8, 45, 0), clock(18, 10, 0))},
		"hash-2", "second.xlsx")
	require.NoError(t, err)
	assert.Equal(t, 1, sum.Updated)

	// A later punch-in and earlier punch-out must not regress the row.
	sum, err = s.UpsertPunches(ctx,
		[]attendance.Record{record("2026-03-02", "E001", clock(10, 0, 0), clock(12, 0, 0))},
		"hash-3", "third.xlsx")
	require.NoError(t, err)
	assert.Equal(t, 1, sum.Unchanged)

	recs, err := s.QueryByDate(ctx, "2026-03-02")
	require.NoError(t, err)
	require.Len(t, recs, 1)
	assert.True(t, attendance.ClockEqual(clock(8, 45, 0), recs[0].PunchIn))
	assert.True(t, attendance.ClockEqual(clock(18, 10, 0), recs[0].PunchOut))

	// Every duplicate encounter leaves a revision trail row.
	var revisions int
	require.NoError(t, s.db.QueryRow(`SELECT COUNT(*) FROM revision_log`).Scan(&revisions))
	assert.Equal(t, 2, revisions)
}

func TestUpsertPunchesNilPunchNeverWins(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	_, err := s.UpsertPunches(ctx,
		[]attendance.Record{record("2026-03-02", "E001", clock(9, 0, 0), nil)},
		"hash-1", "first.xlsx")
	require.NoError(t, err)

	// The open punch-out fills in; the existing punch-in stays.
	sum, err := s.UpsertPunches(ctx,
		[]attendance.Record{record("2026-03-02", "E001", nil, clock(17, 30, 0))},
		"hash-2", "second.xlsx")
	require.NoError(t, err)
	assert.Equal(t, 1, sum.Updated)

	recs, err := s.QueryByDate(ctx, "2026-03-02")
	require.NoError(t, err)
	require.Len(t, recs, 1)
	assert.True(t, attendance.ClockEqual(clock(9, 0, 0), recs[0].PunchIn))
	assert.True(t, attendance.ClockEqual(clock(17, 30, 0), recs[0].PunchOut))
}

func TestUpsertPunchesRowFailureDoesNotAbortFile(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	bad := record("", "E002", clock(9, 0, 0), clock(17, 0, 0)) // NOT NULL violation
	good := record("2026-03-02", "E001", clock(9, 0, 0), clock(17, 0, 0))

	sum, err := s.UpsertPunches(ctx, []attendance.Record{bad, good}, "hash-1", "mixed.xlsx")
	require.NoError(t, err)
	assert.Equal(t, 2, sum.Total)
	assert.Equal(t, 1, sum.Inserted)
	assert.Equal(t, 1, sum.Failed)

	recs, err := s.QueryByDate(ctx, "2026-03-02")
	require.NoError(t, err)
	assert.Len(t, recs, 1)

	events, err := s.RecentEvents(ctx, 10)
	require.NoError(t, err)
	types := make([]string, 0, len(events))
	for _, e := range events {
		types = append(types, e.Type)
	}
	assert.Contains(t, types, "error")
	assert.Contains(t, types, "summary")
}

func TestQueryByEmployee(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	_, err := s.UpsertPunches(ctx, []attendance.Record{
		record("2026-03-02", "E001", clock(9, 0, 0), clock(17, 0, 0)),
		record("2026-03-03", "E001", clock(9, 5, 0), clock(17, 2, 0)),
		record("2026-03-03", "E002", clock(8, 0, 0), clock(16, 0, 0)),
	}, "hash-1", "week.xlsx")
	require.NoError(t, err)

	recs, err := s.QueryByEmployee(ctx, "E001")
	require.NoError(t, err)
	require.Len(t, recs, 2)
	// Most recent date first.
	assert.Equal(t, "2026-03-03", recs[0].Date)
	assert.Equal(t, "2026-03-02", recs[1].Date)

	emps, err := s.Employees(ctx)
	require.NoError(t, err)
	assert.Len(t, emps, 2)
}

func TestEventsAndLastIngest(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	last, _, err := s.LastIngest(ctx)
	require.NoError(t, err)
	assert.True(t, last.IsZero())

	_, err = s.UpsertPunches(ctx,
		[]attendance.Record{record("2026-03-02", "E001", clock(9, 0, 0), clock(17, 0, 0))},
		"hash-1", "morning.xlsx")
	require.NoError(t, err)

	last, lastErr, err := s.LastIngest(ctx)
	require.NoError(t, err)
	assert.False(t, last.IsZero())
	assert.WithinDuration(t, time.Now().UTC(), last, time.Minute)
	assert.Empty(t, lastErr)

	require.NoError(t, s.LogEvent(ctx, "error", "bad workbook", "broken.xlsx"))
	_, lastErr, err = s.LastIngest(ctx)
	require.NoError(t, err)
	assert.Equal(t, "bad workbook", lastErr)

	events, err := s.RecentEvents(ctx, 1)
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, "error", events[0].Type)
	assert.Equal(t, "broken.xlsx", events[0].FileName)
}

func TestPing(t *testing.T) {
	s := openTestStore(t)
	require.NoError(t, s.Ping(context.Background()))
}

package scheduler

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/aristath/petracker/internal/domain"
	"github.com/aristath/petracker/internal/modules/market_hours"
	testingpkg "github.com/aristath/petracker/internal/testing"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubRunner struct {
	calls  int
	report *domain.RunReport
	err    error
}

func (r *stubRunner) RunScheduled(ctx context.Context) (*domain.RunReport, error) {
	r.calls++
	return r.report, r.err
}

type stubTask struct {
	name  string
	calls int
	err   error
}

func (t *stubTask) Name() string { return t.name }

func (t *stubTask) AfterRun(ctx context.Context, report *domain.RunReport) error {
	t.calls++
	return t.err
}

func calendarAt(t *testing.T, istDate string, extraHolidays ...string) *market_hours.Calendar {
	t.Helper()
	loc := kolkata(t)
	now, err := time.ParseInLocation("2006-01-02 15:04", istDate+" 15:30", loc)
	require.NoError(t, err)
	cal, err := market_hours.NewCalendar(loc, extraHolidays, func() time.Time { return now })
	require.NoError(t, err)
	return cal
}

func TestAcquisitionJob_RunsOnTradingDay(t *testing.T) {
	runner := &stubRunner{report: &domain.RunReport{RowsWritten: 3}}
	first := &stubTask{name: "first", err: errors.New("bucket missing")}
	second := &stubTask{name: "second"}
	job := NewAcquisitionJob(runner, calendarAt(t, "2026-10-14"), zerolog.Nop(), first, second)

	require.NoError(t, job.Run(context.Background()))
	assert.Equal(t, 1, runner.calls)
	assert.Equal(t, 1, first.calls)
	assert.Equal(t, 1, second.calls, "a failing task does not stop later tasks")
}

func TestAcquisitionJob_SkipsClosedDays(t *testing.T) {
	tests := []struct {
		name     string
		date     string
		holidays []string
	}{
		{name: "saturday", date: "2026-10-17"},
		{name: "gandhi jayanti", date: "2026-10-02"},
		{name: "configured holiday", date: "2026-11-09", holidays: []string{"2026-11-09"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			runner := &stubRunner{}
			job := NewAcquisitionJob(runner, calendarAt(t, tt.date, tt.holidays...), zerolog.Nop())
			require.NoError(t, job.Run(context.Background()))
			assert.Zero(t, runner.calls)
		})
	}
}

func TestAcquisitionJob_ErrorSkipsPostRunTasks(t *testing.T) {
	runner := &stubRunner{err: &domain.PersistenceError{Symbol: "TCS", Err: errors.New("locked")}}
	task := &stubTask{name: "backup"}
	job := NewAcquisitionJob(runner, calendarAt(t, "2026-10-14"), zerolog.Nop(), task)

	err := job.Run(context.Background())
	assert.ErrorIs(t, err, domain.ErrPersistence)
	assert.Zero(t, task.calls)
}

func TestDatabaseMaintenance(t *testing.T) {
	db, cleanup := testingpkg.NewTestDB(t, "maintenance")
	defer cleanup()

	m := NewDatabaseMaintenance(db, zerolog.Nop())
	assert.Equal(t, "database_maintenance", m.Name())
	require.NoError(t, m.AfterRun(context.Background(), &domain.RunReport{}))
}

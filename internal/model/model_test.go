package model

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestTimeProgress(t *testing.T) {
	p := TimeProgress{StartDate: day(2024, 1, 1), EndDate: day(2024, 1, 11)}

	tests := []struct {
		name      string
		now       time.Time
		percent   int
		remaining int
	}{
		{"before start", day(2023, 12, 25), 0, 17},
		{"at start", day(2024, 1, 1), 0, 10},
		{"midway", day(2024, 1, 6), 50, 5},
		{"partial day truncated", day(2024, 1, 4).Add(20 * time.Hour), 30, 6},
		{"at end", day(2024, 1, 11), 100, 0},
		{"after end", day(2024, 2, 1), 100, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			percent, remaining := p.Progress(tt.now)
			assert.Equal(t, tt.percent, percent)
			assert.Equal(t, tt.remaining, remaining)
		})
	}
}

func TestTimeProgressZeroLength(t *testing.T) {
	p := TimeProgress{StartDate: day(2024, 3, 1), EndDate: day(2024, 3, 1)}

	percent, remaining := p.Progress(day(2024, 2, 28))
	assert.Equal(t, 0, percent)
	assert.Equal(t, 2, remaining)

	percent, _ = p.Progress(day(2024, 3, 2))
	assert.Equal(t, 100, percent)
}

func TestDeadlineState(t *testing.T) {
	now := time.Date(2024, 5, 10, 12, 0, 0, 0, time.UTC)
	at := func(d time.Duration) *time.Time {
		v := now.Add(d)
		return &v
	}
	archived := now.Add(-time.Hour)

	tests := []struct {
		name string
		task Task
		want DeadlineState
	}{
		{"no deadline", Task{Status: StatusToDo}, DeadlineNone},
		{"overdue", Task{Status: StatusToDo, Deadline: at(-time.Hour)}, DeadlineOverdue},
		{"later today", Task{Status: StatusInProgress, Deadline: at(3 * time.Hour)}, DeadlineToday},
		{"within a week", Task{Status: StatusToDo, Deadline: at(3 * 24 * time.Hour)}, DeadlineUpcoming},
		{"beyond a week", Task{Status: StatusToDo, Deadline: at(8 * 24 * time.Hour)}, DeadlineNone},
		{"done is ignored", Task{Status: StatusDone, Deadline: at(-time.Hour)}, DeadlineNone},
		{"archived is ignored", Task{Status: StatusToDo, Deadline: at(-time.Hour), ArchivedAt: &archived}, DeadlineNone},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.task.DeadlineState(now))
		})
	}
}

func TestRemindersOrdering(t *testing.T) {
	now := time.Date(2024, 5, 10, 12, 0, 0, 0, time.UTC)
	dl := func(d time.Duration) *time.Time {
		v := now.Add(d)
		return &v
	}

	tasks := []Task{
		{ID: "up-late", Status: StatusToDo, Deadline: dl(5 * 24 * time.Hour)},
		{ID: "over", Status: StatusToDo, Deadline: dl(-2 * time.Hour)},
		{ID: "up-soon", Status: StatusToDo, Deadline: dl(2 * 24 * time.Hour)},
		{ID: "today", Status: StatusInProgress, Deadline: dl(time.Hour)},
		{ID: "none", Status: StatusToDo},
	}

	var ids []string
	for _, r := range Reminders(tasks, now) {
		ids = append(ids, r.TaskID)
	}
	assert.Equal(t, []string{"over", "today", "up-soon", "up-late"}, ids)
}

func TestArchiveDue(t *testing.T) {
	now := time.Date(2024, 5, 10, 12, 0, 0, 0, time.UTC)
	week := 7 * 24 * time.Hour
	old := now.Add(-week)
	recent := now.Add(-week + time.Minute)

	assert.True(t, Task{Status: StatusDone, CompletedAt: &old}.ArchiveDue(now, week))
	assert.False(t, Task{Status: StatusDone, CompletedAt: &recent}.ArchiveDue(now, week))
	assert.False(t, Task{Status: StatusToDo, CompletedAt: &old}.ArchiveDue(now, week))
	assert.False(t, Task{Status: StatusDone}.ArchiveDue(now, week))
}

func TestBoardClone(t *testing.T) {
	b := Board{Columns: []Column{
		{ID: "c1", Title: StatusToDo, Tasks: []Task{{ID: "a"}, {ID: "b"}}},
	}}

	c := b.Clone()
	c.Columns[0].Tasks[0].Title = "changed"
	c.Columns[0].Tasks = c.Columns[0].Tasks[:1]

	assert.Equal(t, "", b.Columns[0].Tasks[0].Title)
	assert.Len(t, b.Columns[0].Tasks, 2)

	ci, ti := b.FindTask("b")
	assert.Equal(t, 0, ci)
	assert.Equal(t, 1, ti)
	assert.Equal(t, -1, b.ColumnIndex("missing"))
}

func TestLoadConfigMissingFileReturnsDefaults(t *testing.T) {
	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "nope.yaml"))
	require.NoError(t, err)

	assert.Equal(t, DriverSQLite, cfg.Database.Driver)
	assert.True(t, cfg.Board.BatchWrites)
	assert.Equal(t, 7, cfg.Board.ArchiveAfterDays)
	assert.Equal(t, 7*24*time.Hour, cfg.ArchiveAfter())
}

func TestLoadConfigOverrides(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	data := `
database:
  driver: postgres
  host: db.internal
identity:
  username: alice
board:
  batch_writes: false
  archive_after_days: 3
`
	require.NoError(t, os.WriteFile(path, []byte(data), 0o600))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, DriverPostgres, cfg.Database.Driver)
	assert.Equal(t, "db.internal", cfg.Database.Host)
	assert.Equal(t, 5432, cfg.Database.Port)
	assert.Equal(t, "alice", cfg.Identity.Username)
	assert.False(t, cfg.Board.BatchWrites)
	assert.Equal(t, 3, cfg.Board.ArchiveAfterDays)
	assert.Equal(t, 600, cfg.Board.SweepIntervalSec)
}

func TestLoadConfigRejectsUnknownDriver(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("database:\n  driver: oracle\n"), 0o600))

	_, err := LoadConfig(path)
	assert.Error(t, err)
}

func TestSaveConfigRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")
	cfg := defaultAppConfig()
	cfg.Identity.Username = "bob"
	cfg.Board.ArchiveAfterDays = 14

	require.NoError(t, SaveConfig(path, cfg))

	loaded, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, "bob", loaded.Identity.Username)
	assert.Equal(t, 14, loaded.Board.ArchiveAfterDays)
}

func TestPostgresDSN(t *testing.T) {
	c := DatabaseConfig{Host: "h", Port: 5433, User: "u", Name: "db", SSLMode: "require"}
	assert.Equal(t, "postgres://u:p%40ss@h:5433/db?sslmode=require", c.PostgresDSN("p@ss"))
	assert.Equal(t, "postgres://u@h:5433/db?sslmode=require", c.PostgresDSN(""))
}

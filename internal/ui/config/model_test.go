package config

import (
	"path/filepath"
	"testing"

	"github.com/99designs/keyring"
	"github.com/alicebob/miniredis/v2"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nhle/taskboard/internal/credential"
	"github.com/nhle/taskboard/internal/keys"
	"github.com/nhle/taskboard/internal/model"
	"github.com/nhle/taskboard/internal/ui"
)

func newModel(t *testing.T) (Model, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	cfg, err := model.LoadConfig(path)
	require.NoError(t, err)
	return New(cfg, path, keys.DefaultKeyMap(), 100, 40), path
}

// editing opens the form and fills the bindings as a user would.
func editing(m Model, edit func(fb *formBindings)) Model {
	m, _ = m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("e")})
	edit(m.fb)
	return m
}

func TestSubmitSavesConfig(t *testing.T) {
	m, path := newModel(t)
	m = editing(m, func(fb *formBindings) {
		fb.title = "  Side projects "
		fb.archiveDays = "14"
		fb.batchWrites = false
	})
	require.Equal(t, ModeForm, m.mode)

	m, cmd := m.submit()
	require.NotNil(t, cmd)
	m, cmd = m.Update(cmd())
	assert.Equal(t, ModeSummary, m.mode)
	assert.Equal(t, "Settings saved", m.statusMsg)
	require.NotNil(t, cmd)
	assert.Equal(t, ui.StatusMsg{Text: "settings saved, restart to apply"}, cmd())

	saved, err := model.LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, "Side projects", saved.Board.Title)
	assert.Equal(t, 14, saved.Board.ArchiveAfterDays)
	assert.False(t, saved.Board.BatchWrites)
	assert.Contains(t, m.View(), "Side projects")
}

func TestSubmitRejectsInvalidValues(t *testing.T) {
	m, path := newModel(t)
	m = editing(m, func(fb *formBindings) { fb.archiveDays = "0" })

	m, cmd := m.submit()
	assert.Nil(t, cmd)
	assert.Contains(t, m.statusMsg, "archive_after_days")
	assert.NoFileExists(t, path)
}

func TestSubmitPingsCache(t *testing.T) {
	mr := miniredis.RunT(t)
	m, path := newModel(t)
	m = editing(m, func(fb *formBindings) { fb.redisURL = "redis://" + mr.Addr() + "/0" })

	m, _ = m.submit()
	assert.Equal(t, ModeValidating, m.mode)
	assert.Contains(t, m.View(), "Checking cache connection")

	m, cmd := m.Update(pingCache(m.mustApply(t))())
	require.NotNil(t, cmd)
	m, _ = m.Update(cmd())
	assert.Equal(t, "Settings saved", m.statusMsg)

	saved, err := model.LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, "redis://"+mr.Addr()+"/0", saved.Cache.RedisURL)
}

func TestUnreachableCacheIsNotSaved(t *testing.T) {
	mr := miniredis.RunT(t)
	addr := mr.Addr()
	mr.Close()

	m, path := newModel(t)
	m = editing(m, func(fb *formBindings) { fb.redisURL = "redis://" + addr })
	m, _ = m.submit()

	m, cmd := m.Update(pingCache(m.mustApply(t))())
	assert.Nil(t, cmd)
	assert.Equal(t, ModeSummary, m.mode)
	assert.Contains(t, m.statusMsg, "Cache unreachable")
	assert.NoFileExists(t, path)
}

func TestSavePassword(t *testing.T) {
	ring := keyring.NewArrayKeyring(nil)
	prev := credential.Opener
	credential.Opener = func() (keyring.Keyring, error) { return ring, nil }
	t.Cleanup(func() { credential.Opener = prev })

	m, _ := newModel(t)
	m, _ = m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("p")})
	require.Equal(t, ModePassword, m.mode)

	m, _ = m.Update(savePassword("hunter2")())
	assert.Equal(t, ModeSummary, m.mode)
	assert.Empty(t, m.fb.password)

	got, err := credential.Get(credential.DatabasePasswordKey)
	require.NoError(t, err)
	assert.Equal(t, "hunter2", got)
}

func TestValidators(t *testing.T) {
	assert.NoError(t, validateNumber(0)("0"))
	assert.Error(t, validateNumber(1)("0"))
	assert.Error(t, validateNumber(1)("ten"))
	assert.NoError(t, validateRedisURL(""))
	assert.NoError(t, validateRedisURL("redis://localhost:6379/0"))
	assert.Error(t, validateRedisURL("http://localhost"))
	assert.Error(t, validateRequired("host")("  "))
}

func TestBackCloses(t *testing.T) {
	m, _ := newModel(t)
	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEsc})
	require.NotNil(t, cmd)
	assert.Equal(t, ui.CloseMsg{}, cmd())
}

func (m Model) mustApply(t *testing.T) *model.AppConfig {
	t.Helper()
	cfg, err := m.applyBindings()
	require.NoError(t, err)
	return cfg
}

package config

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"
	"github.com/redis/go-redis/v9"

	"github.com/nhle/taskboard/internal/credential"
	"github.com/nhle/taskboard/internal/keys"
	"github.com/nhle/taskboard/internal/model"
	"github.com/nhle/taskboard/internal/theme"
	"github.com/nhle/taskboard/internal/ui"
)

// ConfigMode represents the current state of the settings view.
type ConfigMode int

const (
	ModeSummary    ConfigMode = iota // Current settings
	ModeForm                         // Editing settings
	ModeValidating                   // Pinging the cache
	ModePassword                     // Entering the database password
)

// pingTimeout bounds the cache connection check.
const pingTimeout = 3 * time.Second

type formBindings struct {
	title        string
	batchWrites  bool
	archiveDays  string
	sweepSeconds string
	driver       string
	host         string
	port         string
	user         string
	name         string
	redisURL     string
	logLevel     string
	password     string
}

// connCheckedMsg carries the result of pinging the configured cache.
type connCheckedMsg struct {
	cfg *model.AppConfig
	err error
}

// configSavedMsg is sent after the config file was written.
type configSavedMsg struct {
	cfg *model.AppConfig
	err error
}

type passwordSavedMsg struct{ err error }

// Model shows the application settings and edits the config file.
// Changes take effect on the next start.
type Model struct {
	mode      ConfigMode
	cfg       *model.AppConfig
	path      string
	keys      *keys.KeyMap
	form      *huh.Form
	fb        *formBindings
	spinner   spinner.Model
	statusMsg string
	width     int
	height    int
}

// New creates a settings view for cfg, saved to path.
func New(cfg *model.AppConfig, path string, k *keys.KeyMap, width, height int) Model {
	sp := spinner.New()
	sp.Spinner = spinner.Dot

	return Model{
		mode:    ModeSummary,
		cfg:     cfg,
		path:    path,
		keys:    k,
		fb:      &formBindings{},
		spinner: sp,
		width:   width,
		height:  height,
	}
}

// Reset returns the view to the summary.
func (m *Model) Reset() {
	m.mode = ModeSummary
	m.form = nil
	m.statusMsg = ""
}

// Update handles messages.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	switch msg := msg.(type) {
	case spinner.TickMsg:
		if m.mode != ModeValidating {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case connCheckedMsg:
		if m.mode != ModeValidating {
			return m, nil
		}
		if msg.err != nil {
			m.mode = ModeSummary
			m.statusMsg = fmt.Sprintf("Cache unreachable, settings not saved: %v", msg.err)
			return m, nil
		}
		return m, m.saveConfig(msg.cfg)

	case configSavedMsg:
		m.mode = ModeSummary
		m.form = nil
		if msg.err != nil {
			m.statusMsg = fmt.Sprintf("Error: %v", msg.err)
			return m, nil
		}
		m.cfg = msg.cfg
		m.statusMsg = "Settings saved"
		return m, func() tea.Msg {
			return ui.StatusMsg{Text: "settings saved, restart to apply"}
		}

	case passwordSavedMsg:
		m.mode = ModeSummary
		m.form = nil
		m.fb.password = ""
		if msg.err != nil {
			m.statusMsg = fmt.Sprintf("Error: %v", msg.err)
			return m, nil
		}
		m.statusMsg = "Database password stored in the keyring"
		return m, nil
	}

	switch m.mode {
	case ModeForm, ModePassword:
		return m.updateForm(msg)
	case ModeValidating:
		if keyMsg, ok := msg.(tea.KeyMsg); ok && key.Matches(keyMsg, m.keys.Back) {
			m.mode = ModeSummary
			m.statusMsg = "Check cancelled"
		}
		return m, nil
	}

	keyMsg, ok := msg.(tea.KeyMsg)
	if !ok {
		return m, nil
	}
	switch {
	case key.Matches(keyMsg, m.keys.Back):
		return m, func() tea.Msg { return ui.CloseMsg{} }

	case key.Matches(keyMsg, m.keys.Edit):
		m.loadBindings()
		m.form = m.buildSettingsForm()
		m.mode = ModeForm
		return m, m.form.Init()

	case keyMsg.String() == "p":
		m.fb.password = ""
		m.form = m.buildPasswordForm()
		m.mode = ModePassword
		return m, m.form.Init()
	}
	return m, nil
}

func (m Model) updateForm(msg tea.Msg) (Model, tea.Cmd) {
	if m.form == nil {
		m.mode = ModeSummary
		return m, nil
	}
	mdl, cmd := m.form.Update(msg)
	if f, ok := mdl.(*huh.Form); ok {
		m.form = f
	}
	switch m.form.State {
	case huh.StateCompleted:
		if m.mode == ModePassword {
			return m, savePassword(m.fb.password)
		}
		return m.submit()
	case huh.StateAborted:
		m.mode = ModeSummary
		m.form = nil
		return m, nil
	}
	return m, cmd
}

// submit validates the edited settings and saves them, checking the cache
// connection first when one is configured.
func (m Model) submit() (Model, tea.Cmd) {
	cfg, err := m.applyBindings()
	if err == nil {
		err = cfg.Validate()
	}
	if err != nil {
		m.mode = ModeSummary
		m.form = nil
		m.statusMsg = fmt.Sprintf("Error: %v", err)
		return m, nil
	}
	if cfg.Cache.RedisURL == "" {
		return m, m.saveConfig(cfg)
	}
	m.mode = ModeValidating
	return m, tea.Batch(m.spinner.Tick, pingCache(cfg))
}

func (m Model) loadBindings() {
	c := m.cfg
	*m.fb = formBindings{
		title:        c.Board.Title,
		batchWrites:  c.Board.BatchWrites,
		archiveDays:  strconv.Itoa(c.Board.ArchiveAfterDays),
		sweepSeconds: strconv.Itoa(c.Board.SweepIntervalSec),
		driver:       c.Database.Driver,
		host:         c.Database.Host,
		port:         strconv.Itoa(c.Database.Port),
		user:         c.Database.User,
		name:         c.Database.Name,
		redisURL:     c.Cache.RedisURL,
		logLevel:     c.Log.Level,
	}
}

// applyBindings returns a copy of the current config with the form values.
func (m Model) applyBindings() (*model.AppConfig, error) {
	cfg := *m.cfg
	fb := m.fb

	archiveDays, err := strconv.Atoi(strings.TrimSpace(fb.archiveDays))
	if err != nil {
		return nil, fmt.Errorf("archive days must be a number")
	}
	sweepSeconds, err := strconv.Atoi(strings.TrimSpace(fb.sweepSeconds))
	if err != nil {
		return nil, fmt.Errorf("sweep interval must be a number")
	}

	cfg.Board.Title = strings.TrimSpace(fb.title)
	cfg.Board.BatchWrites = fb.batchWrites
	cfg.Board.ArchiveAfterDays = archiveDays
	cfg.Board.SweepIntervalSec = sweepSeconds
	cfg.Database.Driver = fb.driver
	if fb.driver == model.DriverPostgres {
		port, err := strconv.Atoi(strings.TrimSpace(fb.port))
		if err != nil {
			return nil, fmt.Errorf("port must be a number")
		}
		cfg.Database.Host = strings.TrimSpace(fb.host)
		cfg.Database.Port = port
		cfg.Database.User = strings.TrimSpace(fb.user)
		cfg.Database.Name = strings.TrimSpace(fb.name)
	}
	cfg.Cache.RedisURL = strings.TrimSpace(fb.redisURL)
	cfg.Log.Level = fb.logLevel
	return &cfg, nil
}

func (m *Model) buildSettingsForm() *huh.Form {
	w, h := ui.FormSize(m.width, m.height)
	fb := m.fb
	return huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Board title").
				Value(&fb.title).
				Validate(validateRequired("board title")),
			huh.NewConfirm().
				Title("Save a move in one transaction?").
				Affirmative("Yes").
				Negative("One write per task").
				Value(&fb.batchWrites),
			huh.NewInput().
				Title("Archive done tasks after (days)").
				Value(&fb.archiveDays).
				Validate(validateNumber(1)),
			huh.NewInput().
				Title("Archive sweep interval (seconds, 0 disables)").
				Value(&fb.sweepSeconds).
				Validate(validateNumber(0)),
		).Title("Board"),
		huh.NewGroup(
			huh.NewSelect[string]().
				Title("Database").
				Options(
					huh.NewOption("SQLite file", model.DriverSQLite),
					huh.NewOption("PostgreSQL", model.DriverPostgres),
				).
				Value(&fb.driver),
			huh.NewInput().
				Title("Redis cache URL").
				Placeholder("redis://localhost:6379/0 (empty disables)").
				Value(&fb.redisURL).
				Validate(validateRedisURL),
			huh.NewSelect[string]().
				Title("Log level").
				Options(huh.NewOptions("debug", "info", "warn", "error")...).
				Value(&fb.logLevel),
		).Title("Storage"),
		huh.NewGroup(
			huh.NewInput().Title("Host").Value(&fb.host).Validate(validateRequired("host")),
			huh.NewInput().Title("Port").Value(&fb.port).Validate(validateNumber(1)),
			huh.NewInput().Title("User").Value(&fb.user).Validate(validateRequired("user")),
			huh.NewInput().Title("Database name").Value(&fb.name).Validate(validateRequired("database name")),
		).Title("PostgreSQL").WithHideFunc(func() bool {
			return fb.driver != model.DriverPostgres
		}),
	).WithWidth(w).WithHeight(h)
}

func (m *Model) buildPasswordForm() *huh.Form {
	w, h := ui.FormSize(m.width, m.height)
	return huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("PostgreSQL password").
				Description("Stored in the OS keyring, never in the config file.").
				EchoMode(huh.EchoModePassword).
				Value(&m.fb.password).
				Validate(validateRequired("password")),
		),
	).WithWidth(w).WithHeight(h)
}

// View renders the settings view.
func (m Model) View() string {
	style := lipgloss.NewStyle().Padding(1, 2).Width(m.width).Height(m.height)

	switch m.mode {
	case ModeForm, ModePassword:
		if m.form != nil {
			return style.Render(m.form.View())
		}
	case ModeValidating:
		return style.Render(fmt.Sprintf("%s Checking cache connection...\n\nPress esc to cancel.", m.spinner.View()))
	}

	var b strings.Builder
	titleStyle := lipgloss.NewStyle().Bold(true).Foreground(theme.ColorWhite).MarginBottom(1)
	b.WriteString(titleStyle.Render("Settings"))
	b.WriteString("\n\n")

	c := m.cfg
	database := c.Database.Path
	if c.Database.Driver == model.DriverPostgres {
		database = fmt.Sprintf("%s@%s:%d/%s", c.Database.User, c.Database.Host, c.Database.Port, c.Database.Name)
	}
	cache := c.Cache.RedisURL
	if cache == "" {
		cache = "off"
	}
	writes := "one write per task"
	if c.Board.BatchWrites {
		writes = "batched"
	}

	rows := [][2]string{
		{"Config file", m.path},
		{"Board", c.Board.Title},
		{"Move writes", writes},
		{"Archive after", fmt.Sprintf("%d days", c.Board.ArchiveAfterDays)},
		{"Sweep every", fmt.Sprintf("%ds", c.Board.SweepIntervalSec)},
		{"Database", c.Database.Driver + " " + database},
		{"Cache", cache},
		{"Log", c.Log.Level + " " + c.Log.Path},
	}
	labelStyle := theme.DimmedStyle.Width(16)
	for _, r := range rows {
		b.WriteString(labelStyle.Render(r[0]))
		b.WriteString(r[1])
		b.WriteString("\n")
	}

	if m.statusMsg != "" {
		b.WriteString("\n")
		b.WriteString(lipgloss.NewStyle().Foreground(theme.ColorYellow).Italic(true).Render(m.statusMsg))
	}

	b.WriteString("\n\n")
	b.WriteString(theme.HelpStyle.Render("e edit | p database password | esc back"))

	return style.Render(b.String())
}

// SetSize updates the view dimensions.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
}

func (m Model) saveConfig(cfg *model.AppConfig) tea.Cmd {
	path := m.path
	return func() tea.Msg {
		return configSavedMsg{cfg: cfg, err: model.SaveConfig(path, cfg)}
	}
}

func pingCache(cfg *model.AppConfig) tea.Cmd {
	return func() tea.Msg {
		opts, err := redis.ParseURL(cfg.Cache.RedisURL)
		if err != nil {
			return connCheckedMsg{err: err}
		}
		client := redis.NewClient(opts)
		defer client.Close()

		ctx, cancel := context.WithTimeout(context.Background(), pingTimeout)
		defer cancel()
		return connCheckedMsg{cfg: cfg, err: client.Ping(ctx).Err()}
	}
}

func savePassword(password string) tea.Cmd {
	return func() tea.Msg {
		return passwordSavedMsg{err: credential.Set(credential.DatabasePasswordKey, password)}
	}
}

// --- Validators ---

func validateRequired(fieldName string) func(string) error {
	return func(s string) error {
		if strings.TrimSpace(s) == "" {
			return fmt.Errorf("%s is required", fieldName)
		}
		return nil
	}
}

func validateNumber(minimum int) func(string) error {
	return func(s string) error {
		n, err := strconv.Atoi(strings.TrimSpace(s))
		if err != nil {
			return fmt.Errorf("must be a number")
		}
		if n < minimum {
			return fmt.Errorf("must be at least %d", minimum)
		}
		return nil
	}
}

func validateRedisURL(s string) error {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	if _, err := redis.ParseURL(strings.TrimSpace(s)); err != nil {
		return fmt.Errorf("invalid redis URL: %w", err)
	}
	return nil
}

package config

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"

	"github.com/nhle/novatasks/internal/credential"
	"github.com/nhle/novatasks/internal/keys"
	"github.com/nhle/novatasks/internal/model"
	"github.com/nhle/novatasks/internal/remotesync"
	"github.com/nhle/novatasks/internal/theme"
)

// ConfigMode represents the current state of the settings view.
type ConfigMode int

const (
	ModeForm           ConfigMode = iota // Editing settings
	ModeValidating                       // Testing the sync server
	ModeValidateResult                   // Show validation result
)

// ConfigDoneMsg signals the settings view should close.
type ConfigDoneMsg struct{}

// ConfigSavedMsg carries the configuration written to disk.
type ConfigSavedMsg struct {
	Config *model.AppConfig
}

// ValidateResultMsg carries the result of a sync server check.
type ValidateResultMsg struct {
	Err error
}

// configSavedInternalMsg is sent after the file is written.
type configSavedInternalMsg struct {
	cfg *model.AppConfig
	err error
}

// HealthChecker checks that a sync server is reachable. The default uses remotesync.Client.
type HealthChecker func(ctx context.Context, baseURL, token string) error

func defaultHealthCheck(ctx context.Context, baseURL, token string) error {
	return remotesync.NewClient(baseURL, token).Health(ctx)
}

// formBindings holds form field values on the heap so that huh's Value()
// pointers remain valid across Bubble Tea model copies.
type formBindings struct {
	tickSec      string
	maxEntries   string
	retention    string
	suppression  string
	syncEnabled  bool
	syncURL      string
	syncToken    string
	syncInterval string
	calEnabled   bool
	calName      string
}

// Model is the Bubble Tea model for the settings UI.
type Model struct {
	mode   ConfigMode
	path   string
	cfg    *model.AppConfig
	form   *huh.Form
	fb     *formBindings
	health HealthChecker

	saved     *model.AppConfig
	validErr  error
	statusMsg string
	spinner   spinner.Model

	keys          *keys.KeyMap
	width, height int
}

// New creates a settings view editing cfg, saved to path.
func New(cfg *model.AppConfig, path string, k *keys.KeyMap, width, height int) Model {
	sp := spinner.New()
	sp.Spinner = spinner.Dot

	return Model{
		path:    path,
		cfg:     cfg,
		fb:      &formBindings{},
		health:  defaultHealthCheck,
		keys:    k,
		spinner: sp,
		width:   width,
		height:  height,
	}
}

// SetHealthChecker replaces the sync server health check.
func (m *Model) SetHealthChecker(h HealthChecker) {
	m.health = h
}

// Init loads the current settings into a fresh form.
func (m *Model) Init() tea.Cmd {
	m.mode = ModeForm
	m.statusMsg = ""
	m.fb.load(m.cfg)
	m.form = m.buildForm()
	return m.form.Init()
}

// Update handles messages for the settings view.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	switch msg := msg.(type) {
	case configSavedInternalMsg:
		if msg.err != nil {
			m.statusMsg = fmt.Sprintf("Error saving settings: %v", msg.err)
			return m.restartForm()
		}
		m.cfg = msg.cfg
		m.saved = msg.cfg
		saved := func() tea.Msg { return ConfigSavedMsg{Config: msg.cfg} }
		if !msg.cfg.Sync.Enabled {
			return m, tea.Batch(saved, func() tea.Msg { return ConfigDoneMsg{} })
		}
		m.mode = ModeValidating
		return m, tea.Batch(saved, m.spinner.Tick, m.validate(msg.cfg.Sync.URL))

	case ValidateResultMsg:
		m.mode = ModeValidateResult
		m.validErr = msg.Err
		return m, nil

	case spinner.TickMsg:
		if m.mode == ModeValidating {
			var cmd tea.Cmd
			m.spinner, cmd = m.spinner.Update(msg)
			return m, cmd
		}
		return m, nil

	case tea.KeyMsg:
		if m.mode == ModeValidateResult || m.mode == ModeValidating {
			return m.handleResultKeys(msg)
		}
		if key.Matches(msg, m.keys.Back) {
			return m, func() tea.Msg { return ConfigDoneMsg{} }
		}
	}

	if m.mode != ModeForm {
		return m, nil
	}
	return m.updateForm(msg)
}

func (m Model) handleResultKeys(msg tea.KeyMsg) (Model, tea.Cmd) {
	switch {
	case msg.String() == "r" && m.mode == ModeValidateResult && m.saved != nil:
		m.mode = ModeValidating
		return m, tea.Batch(m.spinner.Tick, m.validate(m.saved.Sync.URL))
	case key.Matches(msg, m.keys.Select), key.Matches(msg, m.keys.Back):
		return m, func() tea.Msg { return ConfigDoneMsg{} }
	}
	return m, nil
}

func (m Model) restartForm() (Model, tea.Cmd) {
	m.mode = ModeForm
	m.form = m.buildForm()
	return m, m.form.Init()
}

func (m Model) updateForm(msg tea.Msg) (Model, tea.Cmd) {
	if m.form == nil {
		return m, nil
	}

	mdl, cmd := m.form.Update(msg)
	if f, ok := mdl.(*huh.Form); ok {
		m.form = f
	}

	switch m.form.State {
	case huh.StateCompleted:
		return m, m.save()
	case huh.StateAborted:
		return m, func() tea.Msg { return ConfigDoneMsg{} }
	}
	return m, cmd
}

func (m *Model) buildForm() *huh.Form {
	return huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Check interval (seconds)").
				Description("How often recurring tasks and deadlines are checked").
				Value(&m.fb.tickSec).
				Validate(validatePositive),
			huh.NewInput().
				Title("Notification log size").
				Value(&m.fb.maxEntries).
				Validate(validatePositive),
			huh.NewInput().
				Title("Keep notifications (days)").
				Value(&m.fb.retention).
				Validate(validatePositive),
			huh.NewInput().
				Title("Repeat deadline alerts after (minutes)").
				Value(&m.fb.suppression).
				Validate(validatePositive),
		).Title("General"),
		huh.NewGroup(
			huh.NewConfirm().
				Title("Enable remote sync").
				Value(&m.fb.syncEnabled),
			huh.NewInput().
				Title("Sync server URL").
				Placeholder("https://sync.example.com").
				Value(&m.fb.syncURL).
				Validate(m.validateSyncURL),
			huh.NewInput().
				Title("API token").
				Description("Stored in the system keyring; leave empty to keep the current one").
				EchoMode(huh.EchoModePassword).
				Value(&m.fb.syncToken),
			huh.NewInput().
				Title("Push interval (seconds)").
				Value(&m.fb.syncInterval).
				Validate(validatePositive),
		).Title("Remote sync"),
		huh.NewGroup(
			huh.NewConfirm().
				Title("Mirror deadlines to Google Calendar").
				Description("Run `novatasks calendar login` once before enabling").
				Value(&m.fb.calEnabled),
			huh.NewInput().
				Title("Calendar name").
				Description("Empty uses the primary calendar").
				Value(&m.fb.calName),
		).Title("Calendar"),
	).WithWidth(m.formWidth())
}

// save stores the token in the keyring and writes the config file.
func (m Model) save() tea.Cmd {
	cfg := m.fb.apply(m.cfg)
	token := strings.TrimSpace(m.fb.syncToken)
	path := m.path
	return func() tea.Msg {
		if token != "" {
			if err := credential.Set(credential.SyncTokenKey, token); err != nil {
				return configSavedInternalMsg{err: err}
			}
		}
		if err := model.SaveConfig(path, cfg); err != nil {
			return configSavedInternalMsg{err: err}
		}
		return configSavedInternalMsg{cfg: cfg}
	}
}

// validate checks the sync server with the stored token.
func (m Model) validate(baseURL string) tea.Cmd {
	check := m.health
	return func() tea.Msg {
		token, _ := credential.SyncToken()
		return ValidateResultMsg{Err: check(context.Background(), baseURL, token)}
	}
}

func (fb *formBindings) load(cfg *model.AppConfig) {
	*fb = formBindings{
		tickSec:      strconv.Itoa(cfg.Scheduler.IntervalSec),
		maxEntries:   strconv.Itoa(cfg.Notifications.MaxEntries),
		retention:    strconv.Itoa(cfg.Notifications.RetentionDays),
		suppression:  strconv.Itoa(cfg.Notifications.SuppressionWindowMin),
		syncEnabled:  cfg.Sync.Enabled,
		syncURL:      cfg.Sync.URL,
		syncInterval: strconv.Itoa(cfg.Sync.IntervalSec),
		calEnabled:   cfg.Calendar.Enabled,
		calName:      cfg.Calendar.Name,
	}
}

// apply returns a copy of base with the form values written over it.
func (fb *formBindings) apply(base *model.AppConfig) *model.AppConfig {
	cfg := *base
	cfg.Scheduler.IntervalSec = atoiOr(fb.tickSec, base.Scheduler.IntervalSec)
	cfg.Notifications.MaxEntries = atoiOr(fb.maxEntries, base.Notifications.MaxEntries)
	cfg.Notifications.RetentionDays = atoiOr(fb.retention, base.Notifications.RetentionDays)
	cfg.Notifications.SuppressionWindowMin = atoiOr(fb.suppression, base.Notifications.SuppressionWindowMin)
	cfg.Sync.Enabled = fb.syncEnabled
	cfg.Sync.URL = strings.TrimRight(strings.TrimSpace(fb.syncURL), "/")
	cfg.Sync.IntervalSec = atoiOr(fb.syncInterval, base.Sync.IntervalSec)
	cfg.Calendar.Enabled = fb.calEnabled
	cfg.Calendar.Name = strings.TrimSpace(fb.calName)
	return &cfg
}

func atoiOr(s string, fallback int) int {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil || n <= 0 {
		return fallback
	}
	return n
}

// View renders the settings UI based on the current mode.
func (m Model) View() string {
	style := lipgloss.NewStyle().
		Padding(1, 2).
		Width(m.width).
		Height(m.height)

	switch m.mode {
	case ModeValidating:
		return style.Render(fmt.Sprintf("%s Testing sync server...\n\nPress esc to skip.", m.spinner.View()))
	case ModeValidateResult:
		return style.Render(m.viewValidateResult())
	}

	if m.form == nil {
		return ""
	}
	content := theme.TitleStyle.Render("Settings") + "\n" + m.form.View()
	if m.statusMsg != "" {
		content += "\n" + lipgloss.NewStyle().Foreground(theme.ColorYellow).Italic(true).Render(m.statusMsg)
	}
	return style.Render(content)
}

func (m Model) viewValidateResult() string {
	hint := lipgloss.NewStyle().Foreground(theme.ColorGray)
	if m.validErr != nil {
		errStyle := lipgloss.NewStyle().Bold(true).Foreground(theme.ColorRed)
		return errStyle.Render("Sync server unreachable") + "\n\n" +
			m.validErr.Error() + "\n\n" +
			"Settings were saved.\n\n" +
			hint.Render("r retry | enter/esc back")
	}
	okStyle := lipgloss.NewStyle().Bold(true).Foreground(theme.ColorGreen)
	return okStyle.Render("Sync server reachable") + "\n\n" +
		"Settings saved. Restart to apply sync and calendar changes.\n\n" +
		hint.Render("enter/esc back")
}

// SetSize updates the view dimensions.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
}

func (m Model) formWidth() int {
	return min(max(m.width-4, 40), 100)
}

// --- Validators ---

func (m *Model) validateSyncURL(s string) error {
	if strings.TrimSpace(s) == "" {
		if m.fb.syncEnabled {
			return fmt.Errorf("URL is required when sync is enabled")
		}
		return nil
	}
	return validateURL(s)
}

func validateURL(s string) error {
	parsed, err := url.Parse(strings.TrimSpace(s))
	if err != nil {
		return fmt.Errorf("invalid URL: %w", err)
	}
	if parsed.Scheme == "" || parsed.Host == "" {
		return fmt.Errorf("URL must include scheme and host (e.g., https://example.com)")
	}
	return nil
}

func validatePositive(s string) error {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil || n <= 0 {
		return fmt.Errorf("must be a positive whole number")
	}
	return nil
}

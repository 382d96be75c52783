package ui

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"go.uber.org/zap"

	"github.com/five82/varlens/internal/prefs"
	"github.com/five82/varlens/internal/querycache"
	"github.com/five82/varlens/internal/state"
	"github.com/five82/varlens/internal/variants"
	"github.com/five82/varlens/internal/window"
)

// Options configures the UI.
type Options struct {
	Context   context.Context
	Session   *variants.Session
	Health    *state.Store
	PollTick  time.Duration
	ThemeName string
	PrefsPath string
	Prefs     prefs.Prefs
	Logger    *zap.Logger
}

// Model is the root application state for Bubble Tea.
type Model struct {
	// Configuration
	ctx       context.Context
	session   *variants.Session
	health    *state.Store
	prefsPath string
	prefs     prefs.Prefs
	pollTick  time.Duration
	log       *zap.Logger
	now       func() time.Time

	// Session change notifications, coalesced to one pending signal.
	changes     chan struct{}
	unsubscribe func()

	// UI state
	theme       Theme
	keys        keyMap
	width       int
	height      int
	ready       bool
	focusedPane int // 0 = table, 1 = detail
	showHelp    bool
	modal       Modal
	notice      string

	// Data state, re-read from the session on every change
	rows       querycache.Result[[]variants.Row]
	stats      querycache.Result[variants.Stats]
	win        window.State
	meta       window.Meta
	healthSnap state.Snapshot

	// Table state
	cursor     int
	cursorID   string
	filterMode filterMode

	detailViewport viewport.Model
}

// New creates a model bound to opts.Session. Call Close when the program exits.
func New(opts Options) Model {
	ctx := opts.Context
	if ctx == nil {
		ctx = context.Background()
	}
	pollTick := opts.PollTick
	if pollTick <= 0 {
		pollTick = DefaultUIInterval
	}
	themeName := opts.ThemeName
	if themeName == "" {
		themeName = opts.Prefs.Theme
	}
	prefsPath := opts.PrefsPath
	if prefsPath == "" {
		prefsPath = prefs.DefaultPath()
	}
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	m := Model{
		ctx:            ctx,
		session:        opts.Session,
		health:         opts.Health,
		prefsPath:      prefsPath,
		prefs:          opts.Prefs,
		pollTick:       pollTick,
		log:            logger,
		now:            time.Now,
		changes:        make(chan struct{}, 1),
		theme:          GetTheme(themeName),
		keys:           DefaultKeyMap(),
		detailViewport: viewport.New(0, 0),
	}
	changes := m.changes
	m.unsubscribe = opts.Session.Subscribe(func() {
		select {
		case changes <- struct{}{}:
		default:
		}
	})
	m.refresh()
	return m
}

// Close detaches the model from the session.
func (m Model) Close() {
	if m.unsubscribe != nil {
		m.unsubscribe()
	}
}

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	return tea.Batch(
		tickCmd(m.pollTick),
		waitForChange(m.ctx, m.changes),
	)
}

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.ready = true
		m.resizeDetail()
		m.syncDetail()
		return m, nil

	case tea.FocusMsg:
		m.session.Sync(querycache.TriggerFocus)
		return m, nil

	case tickMsg:
		m.refresh()
		return m, tickCmd(m.pollTick)

	case sessionChangedMsg:
		m.refresh()
		return m, waitForChange(m.ctx, m.changes)

	case inputSubmittedMsg:
		m.handleInput(msg)
		m.refresh()
		return m, nil
	}
	return m, nil
}

// View implements tea.Model.
func (m Model) View() string {
	if !m.ready {
		return "Loading..."
	}
	if m.showHelp {
		return m.renderHelp()
	}
	if m.modal != nil {
		return m.modal.View(m.theme, m.width, m.height)
	}
	var b strings.Builder
	b.WriteString(m.renderHeader())
	b.WriteString("\n")
	b.WriteString(m.renderCommandBar())
	b.WriteString("\n")
	b.WriteString(m.renderBrowser())
	return b.String()
}

// handleKey processes keyboard input.
func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.showHelp {
		m.showHelp = false
		return m, nil
	}
	if m.modal != nil {
		next, cmd, done := m.modal.Update(msg, m.keys)
		if done {
			m.modal = nil
		} else {
			m.modal = next
		}
		return m, cmd
	}

	m.notice = ""
	switch {
	case key.Matches(msg, m.keys.Quit):
		return m, tea.Quit
	case key.Matches(msg, m.keys.Help):
		m.showHelp = true
		return m, nil
	case key.Matches(msg, m.keys.CycleTheme):
		m.theme = GetTheme(NextTheme(m.theme.Name))
		m.prefs.Theme = m.theme.Name
		m.savePrefs()
		return m, nil
	case key.Matches(msg, m.keys.Tab):
		m.focusedPane ^= 1
		return m, nil
	case key.Matches(msg, m.keys.Escape):
		if m.focusedPane == 1 {
			m.focusedPane = 0
		} else if m.session.Filter().Search != "" {
			m.session.SetSearch("")
		}
	case key.Matches(msg, m.keys.Refresh):
		m.session.Refresh()
		m.notice = "Refreshing"
	case key.Matches(msg, m.keys.Reset):
		m.session.Reset()
		m.cursor = 0
		m.cursorID = ""
	case key.Matches(msg, m.keys.LoadMore):
		m.loadMore()
	case key.Matches(msg, m.keys.CycleFilter):
		m.filterMode = m.filterMode.next()
		m.session.SetFilter(m.filterMode.apply(m.session.Filter()))
	case key.Matches(msg, m.keys.Search):
		m.modal = newInputModal(inputSearch, "Search variants", "name, description or id", m.session.Filter().Search)
		return m, nil
	case key.Matches(msg, m.keys.DeepLink):
		m.modal = newInputModal(inputDeepLink, "Open deep link", "?variant=...&variants=...&revisions=...", "")
		return m, nil
	case key.Matches(msg, m.keys.PageSizeUp):
		m.changePageSize(pageSizeStep)
	case key.Matches(msg, m.keys.PageSizeDown):
		m.changePageSize(-pageSizeStep)
	case key.Matches(msg, m.keys.Invalidate):
		if id := m.cursorVariantID(); id != "" {
			n := m.session.InvalidateVariants(id)
			m.log.Debug("invalidated variant", zap.String("variant_id", id), zap.Int("entries", n))
		}
	case key.Matches(msg, m.keys.Toggle):
		if id := m.cursorVariantID(); id != "" {
			m.session.ToggleSelection(id)
		}
	case key.Matches(msg, m.keys.SelectAll):
		m.session.SelectMultiple(m.visibleVariantIDs()...)
	case key.Matches(msg, m.keys.ClearSelect):
		m.session.ClearSelection()
	default:
		if m.focusedPane == 1 {
			var cmd tea.Cmd
			m.detailViewport, cmd = m.detailViewport.Update(msg)
			return m, cmd
		}
		m.handleNavigation(msg)
	}
	m.refresh()
	return m, nil
}

// handleNavigation moves the table cursor. Moving past the last row loads
// the next page in windowed mode.
func (m *Model) handleNavigation(msg tea.KeyMsg) {
	count := len(m.rows.Value)
	if count == 0 {
		return
	}
	half := max(m.listHeight()/2, 1)
	switch {
	case key.Matches(msg, m.keys.Down):
		if m.cursor < count-1 {
			m.cursor++
		} else {
			m.loadMore()
		}
	case key.Matches(msg, m.keys.Up):
		if m.cursor > 0 {
			m.cursor--
		}
	case key.Matches(msg, m.keys.Top):
		m.cursor = 0
	case key.Matches(msg, m.keys.Bottom):
		m.cursor = count - 1
	case key.Matches(msg, m.keys.HalfPageDown):
		m.cursor = min(m.cursor+half, count-1)
	case key.Matches(msg, m.keys.HalfPageUp):
		m.cursor = max(m.cursor-half, 0)
	}
	m.cursorID = m.rows.Value[m.cursor].ID()
}

func (m *Model) handleInput(msg inputSubmittedMsg) {
	switch msg.purpose {
	case inputSearch:
		m.session.SetSearch(strings.TrimSpace(msg.value))
	case inputDeepLink:
		if err := m.session.SetURL(msg.value); err != nil {
			m.notice = err.Error()
			return
		}
		m.cursor = 0
		m.cursorID = ""
	}
}

func (m *Model) loadMore() {
	if m.session.Mode() != variants.ModeWindowed {
		return
	}
	if m.session.LoadMore() {
		m.notice = "Loading next page"
	}
}

func (m *Model) changePageSize(delta int) {
	size := min(max(m.session.Window().Limit+delta, minPageSize), maxPageSize)
	if err := m.session.SetPageSize(size); err != nil {
		m.notice = err.Error()
		return
	}
	m.prefs.PageSize = size
	m.savePrefs()
}

func (m *Model) savePrefs() {
	if m.prefsPath == "" {
		return
	}
	if err := prefs.Save(m.prefsPath, m.prefs); err != nil {
		m.log.Warn("save prefs failed", zap.Error(err))
	}
}

// refresh re-reads every session node the view renders.
func (m *Model) refresh() {
	m.rows = m.session.Rows()
	m.stats = m.session.Stats()
	m.win = m.session.Window()
	m.meta = m.session.Meta()
	if m.health != nil {
		m.healthSnap = m.health.Snapshot()
	}
	m.clampCursor()
	m.syncDetail()
}

// clampCursor keeps the cursor on the same variant when rows move.
func (m *Model) clampCursor() {
	rows := m.rows.Value
	if len(rows) == 0 {
		m.cursor = 0
		return
	}
	if m.cursorID != "" {
		for i, r := range rows {
			if r.ID() == m.cursorID {
				m.cursor = i
				return
			}
		}
	}
	m.cursor = min(max(m.cursor, 0), len(rows)-1)
	if !rows[m.cursor].IsSkeleton() {
		m.cursorID = rows[m.cursor].ID()
	}
}

// cursorVariantID returns the id under the cursor, or "" on a placeholder.
func (m Model) cursorVariantID() string {
	if m.cursor < 0 || m.cursor >= len(m.rows.Value) {
		return ""
	}
	if v, ok := m.rows.Value[m.cursor].Variant(); ok {
		return v.ID
	}
	return ""
}

func (m Model) visibleVariantIDs() []string {
	var ids []string
	for _, r := range m.rows.Value {
		if v, ok := r.Variant(); ok {
			ids = append(ids, v.ID)
		}
	}
	return ids
}

// Messages

type tickMsg time.Time

type sessionChangedMsg struct{}

// Commands

func tickCmd(d time.Duration) tea.Cmd {
	return tea.Tick(d, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

func waitForChange(ctx context.Context, changes <-chan struct{}) tea.Cmd {
	return func() tea.Msg {
		select {
		case <-changes:
			return sessionChangedMsg{}
		case <-ctx.Done():
			return nil
		}
	}
}

// Run starts the Bubble Tea program and blocks until the user quits or ctx
// is cancelled.
func Run(opts Options) error {
	m := New(opts)
	defer m.Close()
	ctx := m.ctx
	p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithReportFocus(), tea.WithContext(ctx))
	_, err := p.Run()
	if errors.Is(err, tea.ErrProgramKilled) && ctx.Err() != nil {
		return nil
	}
	return err
}

package tui

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/sahilm/fuzzy"

	"github.com/stavren/modelsync/internal/catalog"
	"github.com/stavren/modelsync/internal/daemon"
	"github.com/stavren/modelsync/internal/domain"
	"github.com/stavren/modelsync/internal/engine"
	"github.com/stavren/modelsync/internal/notify"
)

type (
	stateChangedMsg struct{}
	noticeMsg       notify.Notice

	searchResultMsg struct {
		page    domain.SearchPage
		replace bool
	}
	searchFailedMsg struct{ err error }
)

var sortCycle = []string{"Highest Rated", "Most Downloaded", "Newest"}

type browserModel struct {
	ctx  context.Context
	opts Options

	search textinput.Model
	spin   spinner.Model
	bar    progress.Model

	barColor engine.BarColor
	filters  domain.SearchFilters

	models     []domain.Model // fetched pages, in catalog order
	visible    []domain.Model // after live narrowing
	cursor     int
	nextCursor string
	searching  bool
	searchErr  string

	// Detail pane over the selected model's versions.
	detailOpen   bool
	detailCursor int

	notices []notify.Notice
	isAdmin bool

	width  int
	height int
}

func newBrowserModel(ctx context.Context, opts Options) browserModel {
	search := textinput.New()
	search.Placeholder = "search models..."
	search.Prompt = "/ "
	search.CharLimit = 128

	spin := spinner.New()
	spin.Spinner = spinner.Dot

	filters, ok := opts.Service.Store().Filters()
	if !ok {
		filters = domain.DefaultFilters()
	}
	if opts.Config.UI.PageSize > 0 {
		filters.Limit = fmt.Sprintf("%d", opts.Config.UI.PageSize)
	}
	filters.Cursor = ""
	search.SetValue(filters.SearchTerm)

	return browserModel{
		ctx:       ctx,
		opts:      opts,
		search:    search,
		spin:      spin,
		bar:       progress.New(progress.WithSolidFill(barAmberFill)),
		barColor:  engine.BarAmber,
		searching: true,
		filters:   filters,
		isAdmin:   daemon.IsAdminToken(opts.Service.Store().Token()),
	}
}

func (m browserModel) Init() tea.Cmd {
	return tea.Batch(
		m.searchCmd(m.filters, true),
		m.spin.Tick,
		m.waitNotice(),
	)
}

func (m browserModel) searchCmd(filters domain.SearchFilters, replace bool) tea.Cmd {
	return func() tea.Msg {
		page, err := m.opts.Catalog.Search(m.ctx, filters)
		if err != nil {
			return searchFailedMsg{err: err}
		}
		return searchResultMsg{page: page, replace: replace}
	}
}

func (m browserModel) waitNotice() tea.Cmd {
	return func() tea.Msg {
		n, ok := <-m.opts.Notices
		if !ok {
			return nil
		}
		return noticeMsg(n)
	}
}

func (m browserModel) downloadCmd(modelID, versionID string) tea.Cmd {
	return func() tea.Msg {
		// Failures surface as notices; the optimistic queue entry is
		// already visible.
		m.opts.Service.Enqueue(m.ctx, modelID, versionID)
		return stateChangedMsg{}
	}
}

func (m browserModel) batchCmd(modelIDs []string) tea.Cmd {
	return func() tea.Msg {
		m.opts.Service.SubmitBatch(m.ctx, modelIDs)
		return stateChangedMsg{}
	}
}

func (m browserModel) reconcileCmd() tea.Cmd {
	return func() tea.Msg {
		m.opts.Service.Reconcile(m.ctx)
		return stateChangedMsg{}
	}
}

func (m browserModel) adminCmd(run func(context.Context) error) tea.Cmd {
	return func() tea.Msg {
		run(m.ctx)
		return stateChangedMsg{}
	}
}

func (m browserModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.bar.Width = min(msg.Width-24, 50)
		return m, nil

	case spinner.TickMsg:
		if !m.searching {
			return m, nil
		}
		var cmd tea.Cmd
		m.spin, cmd = m.spin.Update(msg)
		return m, cmd

	case stateChangedMsg:
		m.syncBarColor()
		return m, nil

	case noticeMsg:
		m.notices = append(m.notices, notify.Notice(msg))
		if len(m.notices) > 4 {
			m.notices = m.notices[len(m.notices)-4:]
		}
		return m, m.waitNotice()

	case searchResultMsg:
		m.searching = false
		m.searchErr = ""
		if msg.replace {
			m.models = msg.page.Models
			m.cursor = 0
			m.detailOpen = false
		} else {
			m.models = append(m.models, msg.page.Models...)
		}
		m.nextCursor = msg.page.NextCursor
		m.opts.Service.SetCatalog(msg.page.Models)
		m.opts.Service.Store().SaveFilters(m.filters)
		m.narrow()
		m.syncBarColor()
		return m, nil

	case searchFailedMsg:
		m.searching = false
		m.searchErr = msg.err.Error()
		// Degrade to ranked local filtering of what was already fetched.
		if m.filters.SearchTerm != "" {
			m.visible = catalog.Filter(m.models, m.filters.SearchTerm)
			m.cursor = 0
		}
		return m, nil

	case tea.KeyMsg:
		if m.search.Focused() {
			return m.updateSearchFocused(msg)
		}
		if m.detailOpen {
			return m.updateDetail(msg)
		}
		return m.updateBrowsing(msg)
	}
	return m, nil
}

func (m browserModel) updateSearchFocused(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "enter":
		m.search.Blur()
		m.filters.SearchTerm = strings.TrimSpace(m.search.Value())
		m.filters.Cursor = ""
		m.searching = true
		return m, tea.Batch(m.searchCmd(m.filters, true), m.spin.Tick)
	case "esc":
		m.search.Blur()
		m.narrow()
		return m, nil
	}
	var cmd tea.Cmd
	m.search, cmd = m.search.Update(msg)
	m.narrow()
	return m, cmd
}

func (m browserModel) updateBrowsing(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c":
		return m, tea.Quit

	case "/":
		m.search.Focus()
		return m, textinput.Blink

	case "up", "k":
		if m.cursor > 0 {
			m.cursor--
		}
	case "down", "j":
		if m.cursor < len(m.visible)-1 {
			m.cursor++
		}

	case "enter":
		if _, ok := m.selected(); ok {
			m.detailOpen = true
			m.detailCursor = 0
		}

	case "d":
		if model, ok := m.selected(); ok {
			state := m.opts.Service.ResolveButtonFor(model)
			if state.Enabled {
				return m, m.downloadCmd(model.ID, "")
			}
		}

	case "a":
		ids := make([]string, 0, len(m.visible))
		for _, model := range m.visible {
			if m.opts.Service.ResolveButtonFor(model).Enabled {
				ids = append(ids, model.ID)
			}
		}
		if len(ids) > 0 {
			return m, m.batchCmd(ids)
		}

	case "n":
		if m.nextCursor != "" && !m.searching {
			next := m.filters
			next.Cursor = m.nextCursor
			m.searching = true
			return m, tea.Batch(m.searchCmd(next, false), m.spin.Tick)
		}

	case "x":
		m.filters.NSFW = !m.filters.NSFW
		return m.rerunSearch()

	case "o":
		m.filters.Sort = nextSort(m.filters.Sort)
		return m.rerunSearch()

	case "r":
		return m, m.reconcileCmd()

	case "p":
		if m.isAdmin {
			return m, m.adminCmd(m.opts.Service.Pause)
		}
	case "u":
		if m.isAdmin {
			return m, m.adminCmd(m.opts.Service.Resume)
		}
	}
	return m, nil
}

// updateDetail handles keys while the version pane of the selected model
// is open. Each version carries its own control, so older versions can be
// queued directly.
func (m browserModel) updateDetail(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	model, ok := m.selected()
	if !ok {
		m.detailOpen = false
		return m, nil
	}

	switch msg.String() {
	case "q", "ctrl+c":
		return m, tea.Quit

	case "esc", "backspace":
		m.detailOpen = false

	case "up", "k":
		if m.detailCursor > 0 {
			m.detailCursor--
		}
	case "down", "j":
		if m.detailCursor < len(model.Versions)-1 {
			m.detailCursor++
		}

	case "enter", "d":
		if version, ok := m.selectedVersion(); ok {
			state := m.opts.Service.ResolveButtonForVersion(model, version.ID)
			if state.Enabled {
				return m, m.downloadCmd(model.ID, version.ID)
			}
		}
	}
	return m, nil
}

func (m browserModel) selectedVersion() (domain.ModelVersion, bool) {
	model, ok := m.selected()
	if !ok || m.detailCursor < 0 || m.detailCursor >= len(model.Versions) {
		return domain.ModelVersion{}, false
	}
	return model.Versions[m.detailCursor], true
}

func (m browserModel) rerunSearch() (tea.Model, tea.Cmd) {
	m.filters.Cursor = ""
	m.searching = true
	return m, tea.Batch(m.searchCmd(m.filters, true), m.spin.Tick)
}

func nextSort(current string) string {
	for i, s := range sortCycle {
		if s == current {
			return sortCycle[(i+1)%len(sortCycle)]
		}
	}
	return sortCycle[0]
}

func (m browserModel) selected() (domain.Model, bool) {
	if m.cursor < 0 || m.cursor >= len(m.visible) {
		return domain.Model{}, false
	}
	return m.visible[m.cursor], true
}

// narrow applies live fuzzy filtering of the fetched pages as the user
// types, before the remote search runs on enter.
func (m *browserModel) narrow() {
	query := strings.TrimSpace(m.search.Value())
	if query == "" || query == m.filters.SearchTerm {
		m.visible = m.models
	} else {
		names := make([]string, len(m.models))
		for i, model := range m.models {
			names[i] = model.Name
		}
		matches := fuzzy.Find(query, names)
		m.visible = make([]domain.Model, 0, len(matches))
		for _, match := range matches {
			m.visible = append(m.visible, m.models[match.Index])
		}
	}
	if m.cursor >= len(m.visible) {
		m.cursor = len(m.visible) - 1
	}
	if m.cursor < 0 {
		m.cursor = 0
	}
}

func (m *browserModel) syncBarColor() {
	color := m.opts.Service.ProgressColorNow()
	if color == m.barColor {
		return
	}
	m.barColor = color
	width := m.bar.Width
	m.bar = progress.New(progress.WithSolidFill(barFill(color)))
	m.bar.Width = width
}

func barFill(color engine.BarColor) string {
	switch color {
	case engine.BarRed:
		return barRedFill
	case engine.BarGreen:
		return barGreenFill
	case engine.BarAmber:
		return barAmberFill
	default:
		return barBlueFill
	}
}

package tui

import (
	"context"
	"errors"
	"fmt"
	"slices"

	"github.com/charmbracelet/bubbles/help"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/custodia-labs/sercha-ask/internal/adapters/driving/tui/keymap"
	"github.com/custodia-labs/sercha-ask/internal/adapters/driving/tui/messages"
	"github.com/custodia-labs/sercha-ask/internal/adapters/driving/tui/styles"
	"github.com/custodia-labs/sercha-ask/internal/adapters/driving/tui/views/ask"
	"github.com/custodia-labs/sercha-ask/internal/adapters/driving/tui/views/filter"
	"github.com/custodia-labs/sercha-ask/internal/adapters/driving/tui/views/history"
	"github.com/custodia-labs/sercha-ask/internal/adapters/driving/tui/views/menu"
	"github.com/custodia-labs/sercha-ask/internal/adapters/driving/tui/views/search"
	"github.com/custodia-labs/sercha-ask/internal/core/domain"
	"github.com/custodia-labs/sercha-ask/internal/core/ports/driving"
	"github.com/custodia-labs/sercha-ask/internal/logger"
)

// historyLimit is how many entries the history view shows.
const historyLimit = 50

// App is the main TUI application following the Elm architecture.
// Views emit request messages; App runs them against the query
// session and sends the results back.
type App struct {
	// ports provides access to core services via driving ports.
	ports *Ports

	// ctx bounds every backend call and the config watcher.
	ctx    context.Context
	cancel context.CancelFunc

	styles *styles.Styles
	keymap *keymap.KeyMap
	help   help.Model

	menuView    *menu.View
	searchView  *search.View
	askView     *ask.View
	filterView  *filter.View
	historyView *history.View

	// session is only replaced from Update; commands capture the
	// session current when they were created.
	session  driving.QuerySession
	settings domain.ClientSettings
	filter   []string

	// changes and configs are 1-buffered wake-ups from the session
	// listener and the config watcher.
	changes chan struct{}
	configs chan struct{}

	// currentView tracks which view is active.
	currentView messages.ViewType

	// err holds the last error that occurred.
	err error

	width  int
	height int
	ready  bool
}

// Ensure App implements tea.Model.
var _ tea.Model = (*App)(nil)

// NewApp creates a new TUI application with the given ports.
func NewApp(ports *Ports) (*App, error) {
	if err := ports.Validate(); err != nil {
		return nil, fmt.Errorf("creating app: %w", err)
	}

	s := styles.DefaultStyles()
	km := keymap.DefaultKeyMap()

	a := &App{
		ports:       ports,
		styles:      s,
		keymap:      km,
		help:        help.New(),
		menuView:    menu.NewView(s, km),
		searchView:  search.NewView(s, km),
		askView:     ask.NewView(s, km),
		filterView:  filter.NewView(s, km),
		historyView: history.NewView(s, km),
		changes:     make(chan struct{}, 1),
		configs:     make(chan struct{}, 1),
		currentView: messages.ViewMenu,
	}
	a.ctx, a.cancel = context.WithCancel(context.Background())

	a.applySettings(a.loadSettings())

	session, err := ports.NewQuerySession(a.notifyChange)
	if err != nil {
		a.cancel()
		return nil, fmt.Errorf("creating app: %w", err)
	}
	a.session = session

	return a, nil
}

// WithContext sets the context for the app. Cancelling it stops the
// config watcher and any in-flight request.
func (a *App) WithContext(ctx context.Context) *App {
	a.cancel()
	a.ctx, a.cancel = context.WithCancel(ctx)
	return a
}

// Close stops background work and releases the session.
func (a *App) Close() error {
	a.cancel()
	return a.session.Close()
}

func (a *App) notifyChange() {
	select {
	case a.changes <- struct{}{}:
	default:
	}
}

func (a *App) notifyConfig() {
	select {
	case a.configs <- struct{}{}:
	default:
	}
}

// loadSettings returns the stored settings, or defaults when they are invalid.
func (a *App) loadSettings() domain.ClientSettings {
	settings, err := a.ports.Settings.Get()
	if err != nil || settings == nil {
		logger.Warn("using default settings: %v", err)
		return a.ports.Settings.GetDefaults()
	}
	return *settings
}

func (a *App) applySettings(settings domain.ClientSettings) {
	a.settings = settings
	a.searchView.SetMarkers(settings.Markers)
	a.menuView.SetBackend(settings.Backend.URL)
}

// Init implements tea.Model.
func (a *App) Init() tea.Cmd {
	return tea.Batch(
		tea.SetWindowTitle("sercha-ask"),
		a.waitForChange(),
		a.startConfigWatch(),
	)
}

// waitForChange turns the next session change into an AnswerChanged message.
func (a *App) waitForChange() tea.Cmd {
	ctx := a.ctx
	return func() tea.Msg {
		select {
		case <-a.changes:
			return messages.AnswerChanged{}
		case <-ctx.Done():
			return nil
		}
	}
}

func (a *App) startConfigWatch() tea.Cmd {
	if a.ports.WatchConfig == nil {
		return nil
	}

	ctx := a.ctx
	go func() {
		if err := a.ports.WatchConfig(ctx, a.notifyConfig); err != nil && !errors.Is(err, context.Canceled) {
			logger.Warn("config watch stopped: %v", err)
		}
	}()
	return a.waitForConfig()
}

func (a *App) waitForConfig() tea.Cmd {
	ctx := a.ctx
	return func() tea.Msg {
		select {
		case <-a.configs:
			return messages.ConfigChanged{}
		case <-ctx.Done():
			return nil
		}
	}
}

// Update implements tea.Model.
//
//nolint:gocognit,gocyclo,funlen // central message handler requires complexity
func (a *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.SetDimensions(msg.Width, msg.Height)
		return a, nil

	case tea.KeyMsg:
		if keymap.Matches(msg.String(), a.keymap.Quit) {
			return a, tea.Quit
		}
		return a, a.updateActive(msg)

	case messages.ViewChanged:
		return a, a.switchView(msg.View)

	case messages.SearchRequested:
		return a, a.runSearch(msg.Query, msg.Mode)

	case messages.PageRequested:
		return a, a.goToPage(msg.Page)

	case messages.SearchCompleted:
		a.err = msg.Err
		a.searchView, cmd = a.searchView.Update(msg)
		return a, cmd

	case messages.AskRequested:
		return a, a.runAsk(msg.Question, msg.Mode)

	case messages.CancelAnswerRequested:
		a.session.CancelAnswer()
		return a, a.snapshot()

	case messages.AnswerChanged:
		a.askView, _ = a.askView.Update(messages.AnswerUpdated{View: a.session.View()})
		return a, a.waitForChange()

	case messages.AnswerUpdated:
		a.err = msg.Err
		a.askView, cmd = a.askView.Update(msg)
		return a, cmd

	case messages.DocumentsRequested:
		return a, a.loadDocuments(msg.Refresh)

	case messages.DocumentsLoaded:
		a.filterView, cmd = a.filterView.Update(msg)
		return a, cmd

	case messages.FilterChanged:
		a.setFilter(msg.DocumentIDs)
		return a, a.switchView(messages.ViewMenu)

	case messages.HistoryRequested:
		return a, a.loadHistory()

	case messages.ClearHistoryRequested:
		return a, a.clearHistory()

	case messages.HistoryLoaded, messages.HistoryCleared:
		a.historyView, cmd = a.historyView.Update(msg)
		return a, cmd

	case messages.RerunRequested:
		return a, a.rerun(msg.Entry)

	case messages.ConfigChanged:
		return a, tea.Batch(a.reloadConfig(), a.waitForConfig())

	case messages.ErrorOccurred:
		a.err = msg.Err
		switch a.currentView {
		case messages.ViewSearch:
			a.searchView, cmd = a.searchView.Update(msg)
		case messages.ViewAsk:
			a.askView, cmd = a.askView.Update(msg)
		case messages.ViewMenu, messages.ViewFilter, messages.ViewHistory, messages.ViewHelp:
			// shown in View below the active screen
		}
		return a, cmd

	case messages.Quit:
		return a, tea.Quit
	}

	return a, a.updateActive(msg)
}

// updateActive forwards msg to the active view.
func (a *App) updateActive(msg tea.Msg) tea.Cmd {
	var cmd tea.Cmd

	switch a.currentView {
	case messages.ViewMenu:
		if key, ok := msg.(tea.KeyMsg); ok && keymap.Matches(key.String(), a.keymap.Help) {
			return a.switchView(messages.ViewHelp)
		}
		a.menuView, cmd = a.menuView.Update(msg)
	case messages.ViewSearch:
		a.searchView, cmd = a.searchView.Update(msg)
	case messages.ViewAsk:
		a.askView, cmd = a.askView.Update(msg)
	case messages.ViewFilter:
		a.filterView, cmd = a.filterView.Update(msg)
	case messages.ViewHistory:
		a.historyView, cmd = a.historyView.Update(msg)
	case messages.ViewHelp:
		if key, ok := msg.(tea.KeyMsg); ok && keymap.Matches(key.String(), a.keymap.Back) {
			return a.switchView(messages.ViewMenu)
		}
	}
	return cmd
}

// switchView activates view and initialises it.
func (a *App) switchView(view messages.ViewType) tea.Cmd {
	a.currentView = view
	a.err = nil

	switch view {
	case messages.ViewSearch:
		a.searchView.Reset()
		a.searchView.SetMode(a.settings.Search.Mode)
		return a.searchView.Init()
	case messages.ViewAsk:
		a.askView.Reset()
		a.askView.SetMode(a.settings.Search.Mode)
		return a.askView.Init()
	case messages.ViewFilter:
		a.filterView.SetSelected(a.filter)
		return a.filterView.Init()
	case messages.ViewHistory:
		return a.historyView.Init()
	case messages.ViewMenu, messages.ViewHelp:
	}
	return nil
}

// params builds query parameters from settings, mode and the document filter.
func (a *App) params(query string, mode domain.SearchMode, question bool) domain.QueryParameters {
	p := a.settings.SearchParameters(query)
	if question {
		p = a.settings.QuestionParameters(query)
	}
	if mode.IsValid() {
		p.Mode = mode
	}
	if len(a.filter) > 0 {
		p.DocumentIDs = slices.Clone(a.filter)
	}
	return p
}

func (a *App) runSearch(query string, mode domain.SearchMode) tea.Cmd {
	session, ctx := a.session, a.ctx
	sub := driving.Submission{Kind: domain.QueryKindSearch, Params: a.params(query, mode, false)}
	return func() tea.Msg {
		err := session.Submit(ctx, sub)
		return messages.SearchCompleted{View: session.View(), Err: err}
	}
}

func (a *App) goToPage(page int) tea.Cmd {
	session, ctx := a.session, a.ctx
	return func() tea.Msg {
		err := session.GoToPage(ctx, page)
		return messages.SearchCompleted{View: session.View(), Err: err}
	}
}

// runAsk submits a question. A streamed answer returns once it has
// started; later changes arrive through waitForChange.
func (a *App) runAsk(question string, mode domain.SearchMode) tea.Cmd {
	session, ctx := a.session, a.ctx
	sub := driving.Submission{
		Kind:   domain.QueryKindRAG,
		Params: a.params(question, mode, true),
		Stream: a.settings.RAG.Stream,
	}
	return func() tea.Msg {
		err := session.Submit(ctx, sub)
		return messages.AnswerUpdated{View: session.View(), Err: err}
	}
}

func (a *App) snapshot() tea.Cmd {
	session := a.session
	return func() tea.Msg {
		return messages.AnswerUpdated{View: session.View()}
	}
}

func (a *App) loadDocuments(refresh bool) tea.Cmd {
	docs, ctx := a.ports.Documents, a.ctx
	return func() tea.Msg {
		if docs == nil {
			return messages.DocumentsLoaded{Err: ErrNoDocumentService}
		}
		if refresh {
			docs.Refresh()
		}
		list, err := docs.List(ctx)
		return messages.DocumentsLoaded{Documents: list, Err: err}
	}
}

func (a *App) loadHistory() tea.Cmd {
	hist, ctx := a.ports.History, a.ctx
	return func() tea.Msg {
		if hist == nil {
			return messages.HistoryLoaded{Err: ErrNoHistoryService}
		}
		entries, err := hist.Recent(ctx, historyLimit)
		return messages.HistoryLoaded{Entries: entries, Err: err}
	}
}

func (a *App) clearHistory() tea.Cmd {
	hist, ctx := a.ports.History, a.ctx
	return func() tea.Msg {
		if hist == nil {
			return messages.HistoryCleared{Err: ErrNoHistoryService}
		}
		return messages.HistoryCleared{Err: hist.Clear(ctx)}
	}
}

// rerun repeats a history entry in the view matching its kind.
func (a *App) rerun(entry domain.HistoryEntry) tea.Cmd {
	if entry.Kind == domain.QueryKindRAG {
		start := a.switchView(messages.ViewAsk)
		a.askView.SetMode(entry.Mode)
		return tea.Batch(start, a.askView.Ask(entry.Query))
	}

	start := a.switchView(messages.ViewSearch)
	a.searchView.SetMode(entry.Mode)
	return tea.Batch(start, a.searchView.Run(entry.Query))
}

func (a *App) setFilter(ids []string) {
	a.filter = slices.Clone(ids)
	a.menuView.SetFilterCount(len(ids))
	a.searchView.SetFilterCount(len(ids))
	a.askView.SetFilterCount(len(ids))
}

// reloadConfig applies edited settings. A changed backend gets a new
// session; the old one is closed, which stops a live answer.
func (a *App) reloadConfig() tea.Cmd {
	settings := a.loadSettings()
	backendChanged := settings.Backend != a.settings.Backend
	a.applySettings(settings)
	logger.Debug("settings reloaded (backend changed: %t)", backendChanged)

	if !backendChanged {
		return nil
	}

	session, err := a.ports.NewQuerySession(a.notifyChange)
	if err != nil {
		return func() tea.Msg {
			return messages.ErrorOccurred{Err: fmt.Errorf("reconnecting to %s: %w", settings.Backend.URL, err)}
		}
	}

	old := a.session
	a.session = session
	if err := old.Close(); err != nil {
		logger.Warn("closing previous session: %v", err)
	}
	return nil
}

// View implements tea.Model.
func (a *App) View() string {
	if !a.ready {
		return "Initialising..."
	}

	var out string
	switch a.currentView {
	case messages.ViewSearch:
		out = a.searchView.View()
	case messages.ViewAsk:
		out = a.askView.View()
	case messages.ViewFilter:
		out = a.filterView.View()
	case messages.ViewHistory:
		out = a.historyView.View()
	case messages.ViewHelp:
		out = a.viewHelp()
	default:
		out = a.menuView.View()
	}

	if a.err != nil && (a.currentView == messages.ViewMenu || a.currentView == messages.ViewHelp) {
		out += "\n\n" + a.styles.Error.Render("Error: "+a.err.Error())
	}
	return out
}

// viewHelp renders the help view.
func (a *App) viewHelp() string {
	return a.styles.Title.Render("Help") + "\n\n" +
		a.help.FullHelpView(a.keymap.FullHelp()) + "\n\n" +
		a.styles.Muted.Render("Search results page with [ and ]. Tab cycles hybrid, keyword and semantic mode.\n"+
			"While an answer streams, esc stops it and keeps the partial text.") + "\n\n" +
		a.styles.Help.Render("[esc] back to menu")
}

// CurrentView returns the current view type.
func (a *App) CurrentView() messages.ViewType {
	return a.currentView
}

// Filter returns the document IDs queries are restricted to.
func (a *App) Filter() []string {
	return a.filter
}

// Settings returns the settings the app is using.
func (a *App) Settings() domain.ClientSettings {
	return a.settings
}

// Err returns the last error that occurred.
func (a *App) Err() error {
	return a.err
}

// Ready returns whether the app has been initialised.
func (a *App) Ready() bool {
	return a.ready
}

// SetDimensions sets the terminal dimensions on every view.
func (a *App) SetDimensions(width, height int) {
	a.width = width
	a.height = height
	a.ready = true
	a.help.Width = width

	a.menuView.SetDimensions(width, height)
	a.searchView.SetDimensions(width, height)
	a.askView.SetDimensions(width, height)
	a.filterView.SetDimensions(width, height)
	a.historyView.SetDimensions(width, height)
}

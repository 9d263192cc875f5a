// Package ask provides the question and answer view for the TUI.
package ask

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/custodia-labs/sercha-ask/internal/adapters/driving/tui/components/input"
	"github.com/custodia-labs/sercha-ask/internal/adapters/driving/tui/components/status"
	"github.com/custodia-labs/sercha-ask/internal/adapters/driving/tui/keymap"
	"github.com/custodia-labs/sercha-ask/internal/adapters/driving/tui/messages"
	"github.com/custodia-labs/sercha-ask/internal/adapters/driving/tui/styles"
	"github.com/custodia-labs/sercha-ask/internal/core/domain"
)

// View shows a question input and the live answer with its citations.
type View struct {
	styles    *styles.Styles
	keymap    *keymap.KeyMap
	input     *input.QueryInput
	body      viewport.Model
	statusbar *status.Bar

	mode     domain.SearchMode
	question string
	state    *domain.AnswerState
	pending  bool // request sent, no answer state yet
	err      error

	width      int
	height     int
	ready      bool
	focusInput bool
}

// NewView creates a new ask view.
func NewView(s *styles.Styles, km *keymap.KeyMap) *View {
	if s == nil {
		s = styles.DefaultStyles()
	}
	if km == nil {
		km = keymap.DefaultKeyMap()
	}

	return &View{
		styles:     s,
		keymap:     km,
		input:      input.NewQueryInput(s, "Ask", "Ask a question about your documents..."),
		body:       viewport.New(80, 10),
		statusbar:  status.NewBar(s, km),
		mode:       domain.SearchModeHybrid,
		width:      80,
		height:     24,
		focusInput: true,
	}
}

// Init initialises the view.
func (v *View) Init() tea.Cmd {
	return v.input.Init()
}

// Update handles messages for the ask view.
func (v *View) Update(msg tea.Msg) (*View, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		v.SetDimensions(msg.Width, msg.Height)
		return v, nil

	case tea.KeyMsg:
		return v.handleKeyMsg(msg)

	case messages.AnswerUpdated:
		v.handleAnswerUpdated(msg)
		return v, nil

	case messages.ErrorOccurred:
		v.pending = false
		v.setError(msg.Err)
		return v, nil
	}

	var cmd tea.Cmd
	if v.focusInput {
		v.input, cmd = v.input.Update(msg)
	} else {
		v.body, cmd = v.body.Update(msg)
	}
	return v, cmd
}

func (v *View) handleKeyMsg(msg tea.KeyMsg) (*View, tea.Cmd) {
	key := msg.String()

	// Esc stops a live answer before it navigates anywhere.
	if keymap.Matches(key, v.keymap.Cancel) && v.Live() {
		return v, func() tea.Msg { return messages.CancelAnswerRequested{} }
	}
	if keymap.Matches(key, v.keymap.Back) {
		return v, func() tea.Msg {
			return messages.ViewChanged{View: messages.ViewMenu}
		}
	}

	if keymap.Matches(key, v.keymap.CycleMode) {
		v.SetMode(v.mode.Next())
		return v, nil
	}

	if v.focusInput {
		if keymap.Matches(key, v.keymap.Submit) {
			return v, v.submit()
		}
		var cmd tea.Cmd
		v.input, cmd = v.input.Update(msg)
		return v, cmd
	}

	if keymap.Matches(key, v.keymap.NewQuery) && !v.Live() {
		v.focusInput = true
		v.input.SetValue("")
		return v, v.input.Focus()
	}

	var cmd tea.Cmd
	v.body, cmd = v.body.Update(msg)
	return v, cmd
}

// submit emits an ask request for the typed question.
func (v *View) submit() tea.Cmd {
	question := v.input.Value()
	if question == "" || v.Live() {
		return nil
	}

	v.question = question
	v.state = nil
	v.err = nil
	v.pending = true
	v.focusInput = false
	v.input.Blur()
	v.statusbar.SetMessage("")
	v.statusbar.SetState(status.StateAnswering)
	v.refreshBody()

	mode := v.mode
	return func() tea.Msg {
		return messages.AskRequested{Question: question, Mode: mode}
	}
}

// Ask submits question as if it had been typed.
func (v *View) Ask(question string) tea.Cmd {
	v.input.SetValue(question)
	return v.submit()
}

// handleAnswerUpdated renders the latest answer state.
func (v *View) handleAnswerUpdated(msg messages.AnswerUpdated) {
	v.pending = false
	if msg.View.AnswerState != nil {
		st := msg.View.AnswerState.Clone()
		v.state = &st
	}

	switch {
	case msg.Err != nil:
		v.setError(msg.Err)
	case v.state == nil:
		v.statusbar.SetState(status.StateReady)
	case v.state.Phase.IsLive():
		v.statusbar.SetState(status.StateAnswering)
	case v.state.Phase == domain.PhaseFailed:
		v.setError(v.state.Err)
	default:
		v.err = nil
		v.statusbar.SetState(status.StateAnswered)
		v.statusbar.SetMessage(summary(*v.state))
	}

	v.refreshBody()
}

func summary(st domain.AnswerState) string {
	switch st.Phase {
	case domain.PhaseCancelled:
		return "Answer cancelled"
	case domain.PhaseCompleted:
		switch n := len(st.Citations); n {
		case 0:
			return "Answered"
		case 1:
			return "1 citation"
		default:
			return fmt.Sprintf("%d citations", n)
		}
	default:
		return st.Phase.String()
	}
}

func (v *View) setError(err error) {
	if err == nil {
		err = domain.ErrAnswerFailed
	}
	v.err = err
	v.statusbar.SetState(status.StateError)
	v.statusbar.SetMessage(err.Error())
	v.refreshBody()
}

// refreshBody re-renders the answer into the viewport, following the
// tail while the answer is streaming.
func (v *View) refreshBody() {
	atBottom := v.body.AtBottom()
	v.body.SetContent(v.renderAnswer())
	if v.Live() && atBottom {
		v.body.GotoBottom()
	}
}

func (v *View) renderAnswer() string {
	if v.question == "" && v.state == nil && !v.pending {
		return v.styles.Muted.Render("Type a question and press enter.")
	}

	width := max(v.width-4, 20)
	var b strings.Builder

	if v.question != "" {
		b.WriteString(v.styles.Subtitle.Render("Q: "))
		b.WriteString(lipgloss.NewStyle().Width(width - 3).Render(v.question))
		b.WriteString("\n\n")
	}

	if v.pending || v.state == nil {
		b.WriteString(v.styles.Warning.Render("connecting..."))
		return b.String()
	}

	st := v.state
	b.WriteString(v.styles.Phase(st.Phase).Render(st.Phase.String()))
	b.WriteString("\n")

	if st.Answer != "" {
		b.WriteString(v.styles.Answer.Width(width).Render(st.Answer))
		b.WriteString("\n")
	}

	if len(st.Citations) > 0 {
		b.WriteString("\n")
		b.WriteString(v.styles.Subtitle.Render("Sources"))
		b.WriteString("\n")
		for i, c := range st.Citations {
			label := c.Label()
			if c.Marker == "" {
				label = fmt.Sprintf("[%d] %s", i+1, label)
			}
			b.WriteString("  " + v.styles.Citation.Render(label) + "\n")
		}
	}

	if v.err != nil {
		b.WriteString("\n")
		b.WriteString(v.styles.Error.Render("Error: " + v.err.Error()))
	}

	return b.String()
}

// View renders the ask view.
func (v *View) View() string {
	if !v.ready {
		return "Initialising..."
	}

	sections := []string{
		v.styles.Title.Render("Ask") + "  " + v.styles.Muted.Render(v.mode.Description()),
		"",
		v.input.View(),
		"",
		v.body.View(),
		"",
		v.statusbar.View(),
	}
	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

// SetDimensions sets the view dimensions.
func (v *View) SetDimensions(width, height int) {
	v.width = width
	v.height = height
	v.ready = true

	v.input.SetWidth(width)
	v.body.Width = width
	v.body.Height = max(height-9, 3) // title, input, status
	v.statusbar.SetWidth(width)
	v.refreshBody()
}

// SetMode sets the retrieval mode new questions run with.
func (v *View) SetMode(mode domain.SearchMode) {
	if !mode.IsValid() {
		return
	}
	v.mode = mode
	v.statusbar.SetMode(mode)
}

// Mode returns the retrieval mode new questions run with.
func (v *View) Mode() domain.SearchMode {
	return v.mode
}

// SetFilterCount shows how many documents questions are restricted to.
func (v *View) SetFilterCount(n int) {
	v.statusbar.SetFilterCount(n)
}

// SetQuestion sets the input text.
func (v *View) SetQuestion(q string) {
	v.input.SetValue(q)
}

// Question returns the last submitted question.
func (v *View) Question() string {
	return v.question
}

// State returns the displayed answer state, or nil before the first answer.
func (v *View) State() *domain.AnswerState {
	return v.state
}

// Live reports whether an answer is being generated.
func (v *View) Live() bool {
	return v.pending || (v.state != nil && v.state.Phase.IsLive())
}

// Err returns the current error, if any.
func (v *View) Err() error {
	return v.err
}

// Ready returns whether the view is ready to render.
func (v *View) Ready() bool {
	return v.ready
}

// InputFocused returns whether the input has focus.
func (v *View) InputFocused() bool {
	return v.focusInput
}

// Reset returns the view to an empty question.
func (v *View) Reset() {
	v.focusInput = true
	v.input.Focus()
	v.input.SetValue("")
	v.question = ""
	v.state = nil
	v.pending = false
	v.err = nil
	v.statusbar.Clear()
	v.refreshBody()
}

package cli

import (
	"bytes"
	"context"
	"sync"
	"testing"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/sercha-ask/internal/core/domain"
	"github.com/custodia-labs/sercha-ask/internal/core/ports/driving"
)

// mockQuerySession implements driving.QuerySession for testing.
type mockQuerySession struct {
	mu          sync.Mutex
	submissions []driving.Submission
	pages       []int
	view        driving.QueryView
	submitErr   error
	pageErr     error
	cancelled   int
	closed      bool
	onChange    func()

	// onSubmit, when set, updates the view for a submission.
	onSubmit func(m *mockQuerySession, sub driving.Submission)

	// await, when set, replaces the default AwaitAnswer.
	await func(ctx context.Context) (domain.AnswerState, error)
}

var _ driving.QuerySession = (*mockQuerySession)(nil)

func (m *mockQuerySession) factory(onChange func()) (driving.QuerySession, error) {
	m.onChange = onChange
	return m, nil
}

func (m *mockQuerySession) Submit(_ context.Context, sub driving.Submission) error {
	m.mu.Lock()
	m.submissions = append(m.submissions, sub)
	m.mu.Unlock()
	if m.onSubmit != nil {
		m.onSubmit(m, sub)
	}
	return m.submitErr
}

func (m *mockQuerySession) GoToPage(_ context.Context, page int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.pages = append(m.pages, page)
	if m.pageErr != nil {
		return m.pageErr
	}
	if m.view.SearchPage != nil {
		m.view.SearchPage.RequestedPage = page
	}
	return nil
}

func (m *mockQuerySession) CancelAnswer() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.cancelled++
}

func (m *mockQuerySession) AwaitAnswer(ctx context.Context) (domain.AnswerState, error) {
	if m.await != nil {
		return m.await(ctx)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.view.AnswerState == nil {
		return domain.AnswerState{}, nil
	}
	return m.view.AnswerState.Clone(), nil
}

func (m *mockQuerySession) View() driving.QueryView {
	m.mu.Lock()
	defer m.mu.Unlock()
	view := m.view
	if m.view.AnswerState != nil {
		st := m.view.AnswerState.Clone()
		view.AnswerState = &st
	}
	return view
}

func (m *mockQuerySession) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	return nil
}

func (m *mockQuerySession) setAnswer(st domain.AnswerState) {
	m.mu.Lock()
	m.view.Mode = driving.QueryModeRAG
	m.view.AnswerState = &st
	m.mu.Unlock()
}

func (m *mockQuerySession) Submissions() []driving.Submission {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]driving.Submission(nil), m.submissions...)
}

// mockSettingsService implements driving.SettingsService for testing.
type mockSettingsService struct {
	settings domain.ClientSettings
	getErr   error
	setErr   error
	saved    *domain.ClientSettings
	set      map[string]string
}

var _ driving.SettingsService = (*mockSettingsService)(nil)

func newMockSettings() *mockSettingsService {
	return &mockSettingsService{settings: domain.DefaultClientSettings(), set: map[string]string{}}
}

func (m *mockSettingsService) Get() (*domain.ClientSettings, error) {
	if m.getErr != nil {
		return nil, m.getErr
	}
	s := m.settings
	return &s, nil
}

func (m *mockSettingsService) Save(settings *domain.ClientSettings) error {
	s := *settings
	m.saved = &s
	return nil
}

func (m *mockSettingsService) Set(key, value string) error {
	if m.setErr != nil {
		return m.setErr
	}
	m.set[key] = value
	return nil
}

func (m *mockSettingsService) Values() (map[string]string, error) {
	if m.getErr != nil {
		return nil, m.getErr
	}
	return map[string]string{
		"backend.url": m.settings.Backend.URL,
		"search.mode": m.settings.Search.Mode.String(),
		"rag.stream":  "true",
	}, nil
}

func (m *mockSettingsService) Keys() []string {
	return []string{"backend.url", "search.mode", "rag.stream"}
}

func (m *mockSettingsService) GetDefaults() domain.ClientSettings {
	return domain.DefaultClientSettings()
}

// mockDocumentService implements driving.DocumentService for testing.
type mockDocumentService struct {
	docs      []domain.DocumentSummary
	err       error
	refreshed int
}

func (m *mockDocumentService) List(context.Context) ([]domain.DocumentSummary, error) {
	return m.docs, m.err
}

func (m *mockDocumentService) Refresh() { m.refreshed++ }

// mockHistoryService implements driving.HistoryService for testing.
type mockHistoryService struct {
	entries []domain.HistoryEntry
	err     error
	limit   int
	cleared bool
}

func (m *mockHistoryService) Recent(_ context.Context, limit int) ([]domain.HistoryEntry, error) {
	m.limit = limit
	return m.entries, m.err
}

func (m *mockHistoryService) Clear(context.Context) error {
	if m.err != nil {
		return m.err
	}
	m.cleared = true
	return nil
}

// execute runs the root command with args against svc and returns
// everything written to stdout and stderr.
func execute(t *testing.T, svc Services, args ...string) (string, error) {
	t.Helper()

	prev := services
	SetServices(svc)
	resetFlags(t, rootCmd)

	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetErr(buf)
	rootCmd.SetArgs(args)
	t.Cleanup(func() {
		services = prev
		rootCmd.SetArgs(nil)
		rootCmd.SetOut(nil)
		rootCmd.SetErr(nil)
	})

	err := rootCmd.Execute()
	return buf.String(), err
}

// resetFlags restores every flag of cmd and its children to its default
// so package-level flag variables do not leak between tests.
func resetFlags(t *testing.T, cmd *cobra.Command) {
	t.Helper()
	reset := func(f *pflag.Flag) {
		if sv, ok := f.Value.(pflag.SliceValue); ok {
			require.NoError(t, sv.Replace(nil))
		} else {
			require.NoError(t, f.Value.Set(f.DefValue))
		}
		f.Changed = false
	}
	cmd.Flags().VisitAll(reset)
	cmd.PersistentFlags().VisitAll(reset)
	for _, c := range cmd.Commands() {
		resetFlags(t, c)
	}
}

func intPtr(n int) *int { return &n }

func testPage() *domain.SearchResultPage {
	return &domain.SearchResultPage{
		Items: []domain.SearchResultItem{
			{
				DocumentID: "doc-1",
				Filename:   "report.pdf",
				PageNumber: intPtr(4),
				Text:       "full text of the report",
				Highlights: []string{"the <em>quarterly</em> report"},
				Score:      0.91,
			},
			{DocumentID: "doc-2", Text: "plain body text", Score: 0.5},
		},
		TotalMatches:  45,
		RequestedPage: 1,
		PageSize:      10,
	}
}

// searchSession returns a session that shows testPage for any search.
func searchSession() *mockQuerySession {
	return &mockQuerySession{
		onSubmit: func(m *mockQuerySession, sub driving.Submission) {
			m.mu.Lock()
			defer m.mu.Unlock()
			params := sub.Params
			m.view.Mode = driving.QueryModeSearch
			m.view.SearchPage = testPage()
			m.view.SearchParams = &params
		},
	}
}

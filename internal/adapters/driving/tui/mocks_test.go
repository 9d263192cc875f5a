package tui

import (
	"context"
	"sync"

	"github.com/custodia-labs/sercha-ask/internal/core/domain"
	"github.com/custodia-labs/sercha-ask/internal/core/ports/driving"
)

// mockSession implements driving.QuerySession for testing.
type mockSession struct {
	mu          sync.Mutex
	submissions []driving.Submission
	pages       []int
	view        driving.QueryView
	submitErr   error
	cancelled   bool
	closed      bool
}

func (m *mockSession) Submit(_ context.Context, sub driving.Submission) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.submissions = append(m.submissions, sub)
	return m.submitErr
}

func (m *mockSession) GoToPage(_ context.Context, page int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.pages = append(m.pages, page)
	if m.view.SearchPage != nil {
		p := *m.view.SearchPage
		p.RequestedPage = page
		m.view.SearchPage = &p
	}
	return nil
}

func (m *mockSession) CancelAnswer() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.cancelled = true
	if m.view.AnswerState != nil && m.view.AnswerState.Phase.IsLive() {
		st := *m.view.AnswerState
		st.Phase = domain.PhaseCancelled
		m.view.AnswerState = &st
	}
}

func (m *mockSession) AwaitAnswer(_ context.Context) (domain.AnswerState, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.view.AnswerState == nil {
		return domain.AnswerState{}, nil
	}
	return *m.view.AnswerState, nil
}

func (m *mockSession) View() driving.QueryView {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.view
}

func (m *mockSession) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	return nil
}

func (m *mockSession) setView(v driving.QueryView) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.view = v
}

func (m *mockSession) lastSubmission() driving.Submission {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.submissions[len(m.submissions)-1]
}

// mockFactory hands out sessions and records the change listener.
type mockFactory struct {
	sessions []*mockSession
	onChange func()
	err      error
}

func (f *mockFactory) open(onChange func()) (driving.QuerySession, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.onChange = onChange
	s := &mockSession{}
	f.sessions = append(f.sessions, s)
	return s, nil
}

func (f *mockFactory) current() *mockSession {
	return f.sessions[len(f.sessions)-1]
}

// mockSettings implements driving.SettingsService for testing.
type mockSettings struct {
	settings domain.ClientSettings
	getErr   error
}

func newMockSettings() *mockSettings {
	return &mockSettings{settings: domain.DefaultClientSettings()}
}

func (m *mockSettings) Get() (*domain.ClientSettings, error) {
	if m.getErr != nil {
		return nil, m.getErr
	}
	s := m.settings
	return &s, nil
}

func (m *mockSettings) Save(s *domain.ClientSettings) error {
	m.settings = *s
	return nil
}

func (m *mockSettings) Set(_, _ string) error { return nil }

func (m *mockSettings) Values() (map[string]string, error) { return map[string]string{}, nil }

func (m *mockSettings) Keys() []string { return nil }

func (m *mockSettings) GetDefaults() domain.ClientSettings { return domain.DefaultClientSettings() }

// mockDocuments implements driving.DocumentService for testing.
type mockDocuments struct {
	docs      []domain.DocumentSummary
	err       error
	refreshed bool
}

func (m *mockDocuments) List(_ context.Context) ([]domain.DocumentSummary, error) {
	return m.docs, m.err
}

func (m *mockDocuments) Refresh() {
	m.refreshed = true
}

// mockHistory implements driving.HistoryService for testing.
type mockHistory struct {
	entries []domain.HistoryEntry
	limit   int
	cleared bool
}

func (m *mockHistory) Recent(_ context.Context, limit int) ([]domain.HistoryEntry, error) {
	m.limit = limit
	return m.entries, nil
}

func (m *mockHistory) Clear(_ context.Context) error {
	m.cleared = true
	return nil
}

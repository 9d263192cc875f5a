package mcp

import (
	"context"
	"errors"
	"sync"

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
	closed      bool
}

func (m *mockQuerySession) Submit(_ context.Context, sub driving.Submission) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.submissions = append(m.submissions, sub)
	return m.submitErr
}

func (m *mockQuerySession) GoToPage(_ context.Context, page int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.pages = append(m.pages, page)
	if m.view.SearchPage != nil {
		m.view.SearchPage.RequestedPage = page
	}
	return nil
}

func (m *mockQuerySession) CancelAnswer() {}

func (m *mockQuerySession) AwaitAnswer(context.Context) (domain.AnswerState, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.view.AnswerState == nil {
		return domain.AnswerState{}, nil
	}
	return *m.view.AnswerState, nil
}

func (m *mockQuerySession) View() driving.QueryView {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.view
}

func (m *mockQuerySession) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	return nil
}

func (m *mockQuerySession) factory() driving.QuerySessionFactory {
	return func(func()) (driving.QuerySession, error) { return m, nil }
}

func failingFactory(func()) (driving.QuerySession, error) {
	return nil, errors.New("backend not configured")
}

// mockSettingsService implements driving.SettingsService for testing.
type mockSettingsService struct {
	settings domain.ClientSettings
	err      error
}

func (m *mockSettingsService) Get() (*domain.ClientSettings, error) {
	if m.err != nil {
		return nil, m.err
	}
	s := m.settings
	return &s, nil
}

func (m *mockSettingsService) Save(*domain.ClientSettings) error  { return nil }
func (m *mockSettingsService) Set(string, string) error           { return nil }
func (m *mockSettingsService) Values() (map[string]string, error) { return nil, nil }
func (m *mockSettingsService) Keys() []string                     { return nil }

func (m *mockSettingsService) GetDefaults() domain.ClientSettings {
	return domain.DefaultClientSettings()
}

// mockDocumentService implements driving.DocumentService for testing.
type mockDocumentService struct {
	docs []domain.DocumentSummary
	err  error
}

func (m *mockDocumentService) List(context.Context) ([]domain.DocumentSummary, error) {
	return m.docs, m.err
}

func (m *mockDocumentService) Refresh() {}

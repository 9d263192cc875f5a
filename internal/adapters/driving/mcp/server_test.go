package mcp

import (
	"context"
	"net"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/sercha-ask/internal/core/domain"
)

func TestNewServer(t *testing.T) {
	t.Run("nil ports returns error", func(t *testing.T) {
		server, err := NewServer(nil)
		assert.Nil(t, server)
		assert.ErrorIs(t, err, ErrMissingQuerySession)
	})

	t.Run("missing session factory returns error", func(t *testing.T) {
		server, err := NewServer(&Ports{})
		require.Error(t, err)
		assert.Nil(t, server)
		assert.ErrorIs(t, err, ErrMissingQuerySession)
	})

	t.Run("valid ports creates server", func(t *testing.T) {
		session := &mockQuerySession{}
		server, err := NewServer(&Ports{NewQuerySession: session.factory()})
		require.NoError(t, err)
		assert.NotNil(t, server)
	})
}

func TestPorts_Validate(t *testing.T) {
	session := &mockQuerySession{}

	t.Run("session factory only is valid", func(t *testing.T) {
		ports := &Ports{NewQuerySession: session.factory()}
		assert.NoError(t, ports.Validate())
	})

	t.Run("all ports is valid", func(t *testing.T) {
		ports := &Ports{
			NewQuerySession: session.factory(),
			Settings:        &mockSettingsService{},
			Documents:       &mockDocumentService{},
		}
		assert.NoError(t, ports.Validate())
	})
}

func TestNewServer_Options(t *testing.T) {
	session := &mockQuerySession{}

	t.Run("default version", func(t *testing.T) {
		server, err := NewServer(&Ports{NewQuerySession: session.factory()})
		require.NoError(t, err)
		assert.Equal(t, "dev", server.Version())
	})

	t.Run("with version", func(t *testing.T) {
		server, err := NewServer(&Ports{NewQuerySession: session.factory()}, WithVersion("1.4.0"))
		require.NoError(t, err)
		assert.Equal(t, "1.4.0", server.Version())
	})

	t.Run("empty version keeps default", func(t *testing.T) {
		server, err := NewServer(&Ports{NewQuerySession: session.factory()}, WithVersion(""))
		require.NoError(t, err)
		assert.Equal(t, "dev", server.Version())
	})
}

func TestServer_Instructions(t *testing.T) {
	settings := &mockSettingsService{settings: domain.DefaultClientSettings()}
	settings.settings.Backend.URL = "http://search.internal:9000"
	settings.settings.Search.Mode = domain.SearchModeKeyword
	settings.settings.RAG.TopK = 3

	server, err := NewServer(&Ports{
		NewQuerySession: (&mockQuerySession{}).factory(),
		Settings:        settings,
	})
	require.NoError(t, err)

	got := server.instructions()
	assert.Contains(t, got, "http://search.internal:9000")
	assert.Contains(t, got, "default mode keyword")
	assert.Contains(t, got, "top 3 passages")
	assert.Contains(t, got, "sercha-ask://documents")
}

func TestServer_Serve(t *testing.T) {
	server, err := NewServer(&Ports{NewQuerySession: (&mockQuerySession{}).factory()})
	require.NoError(t, err)

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- server.Serve(ctx, ln) }()

	resp, err := http.Post("http://"+ln.Addr().String(), "application/json", strings.NewReader("{}"))
	require.NoError(t, err)
	resp.Body.Close()

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("Serve did not return after cancel")
	}
}

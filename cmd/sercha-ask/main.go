// Package main provides the sercha-ask entry point.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/joho/godotenv"

	"github.com/custodia-labs/sercha-ask/internal/adapters/driven/backend/httpapi"
	"github.com/custodia-labs/sercha-ask/internal/adapters/driven/config/file"
	"github.com/custodia-labs/sercha-ask/internal/adapters/driven/storage/sqlite"
	"github.com/custodia-labs/sercha-ask/internal/adapters/driving/cli"
	"github.com/custodia-labs/sercha-ask/internal/core/domain"
	"github.com/custodia-labs/sercha-ask/internal/core/ports/driving"
	"github.com/custodia-labs/sercha-ask/internal/core/services"
	"github.com/custodia-labs/sercha-ask/internal/logger"
)

// version is set at build time with -ldflags "-X main.version=...".
var version string

func main() {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		fmt.Fprintf(os.Stderr, "Warning: failed to load .env file: %v\n", err)
	}

	if err := run(); err != nil {
		os.Exit(1)
	}
}

func run() error {
	configStore, err := file.NewConfigStore("")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return err
	}
	settingsService := services.NewSettingsService(configStore)

	store, err := sqlite.NewStore("")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return err
	}
	defer store.Close()

	history := services.NewHistoryService(store.HistoryStore())
	defer history.Wait()

	settings := loadSettings(settingsService)
	documents := services.NewDocumentService(
		httpapi.NewClient(httpapi.ConfigFromSettings(settings.Backend)),
		settings.DocumentCacheTTL,
	)

	cli.SetVersion(version)
	cli.SetServices(cli.Services{
		Settings:  settingsService,
		Documents: documents,
		History:   history,
		NewQuerySession: func(onChange func()) (driving.QuerySession, error) {
			// Each session reads settings afresh so a reload picks up a new backend.
			client := httpapi.NewClient(httpapi.ConfigFromSettings(loadSettings(settingsService).Backend))
			return services.NewQueryOrchestrator(
				services.NewSearchController(client),
				func(l driving.AnswerListener) *services.AnswerSession {
					return services.NewAnswerSession(client, services.WithAnswerListener(l))
				},
				services.WithHistory(history),
				services.WithChangeNotifier(onChange),
			), nil
		},
		WatchConfig: configStore.Watch,
		CheckBackend: func(ctx context.Context, b domain.BackendSettings) error {
			return httpapi.NewClient(httpapi.ConfigFromSettings(b)).Ping(ctx)
		},
	})

	return cli.Execute()
}

func loadSettings(s *services.SettingsService) domain.ClientSettings {
	settings, err := s.Get()
	if err != nil {
		logger.Warn("using default settings: %v", err)
		return s.GetDefaults()
	}
	return *settings
}

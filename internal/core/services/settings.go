package services

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/custodia-labs/sercha-ask/internal/core/domain"
	"github.com/custodia-labs/sercha-ask/internal/core/ports/driven"
	"github.com/custodia-labs/sercha-ask/internal/core/ports/driving"
)

// Ensure SettingsService implements the interface.
var _ driving.SettingsService = (*SettingsService)(nil)

// Config keys for settings storage.
const (
	keyBackendURL       = "backend.url"
	keyBackendTimeout   = "backend.timeout_seconds"
	keyBackendRPS       = "backend.requests_per_second"
	keySearchMode       = "search.mode"
	keySearchPageSize   = "search.page_size"
	keySearchHighlight  = "search.highlight"
	keyRAGTopK          = "rag.top_k"
	keyRAGStream        = "rag.stream"
	keyHighlightStart   = "highlight.start_marker"
	keyHighlightEnd     = "highlight.end_marker"
	keyDocumentCacheTTL = "documents.cache_ttl_seconds"
)

// EnvPrefix prefixes environment overrides, e.g. SERCHA_ASK_BACKEND_URL.
const EnvPrefix = "SERCHA_ASK_"

// settingKind is how a setting's string form is parsed.
type settingKind int

const (
	kindString settingKind = iota
	kindInt
	kindFloat
	kindBool
	kindMode
)

var settingKinds = map[string]settingKind{
	keyBackendURL:       kindString,
	keyBackendTimeout:   kindInt,
	keyBackendRPS:       kindFloat,
	keySearchMode:       kindMode,
	keySearchPageSize:   kindInt,
	keySearchHighlight:  kindBool,
	keyRAGTopK:          kindInt,
	keyRAGStream:        kindBool,
	keyHighlightStart:   kindString,
	keyHighlightEnd:     kindString,
	keyDocumentCacheTTL: kindInt,
}

// SettingsService manages client settings.
// Values resolve from the environment first, then the config store,
// then the defaults.
type SettingsService struct {
	configStore driven.ConfigStore
	lookupEnv   func(string) (string, bool)
}

// NewSettingsService creates a new settings service.
func NewSettingsService(configStore driven.ConfigStore) *SettingsService {
	return &SettingsService{
		configStore: configStore,
		lookupEnv:   os.LookupEnv,
	}
}

// Get retrieves current client settings.
func (s *SettingsService) Get() (*domain.ClientSettings, error) {
	d := domain.DefaultClientSettings()

	settings := &domain.ClientSettings{
		Backend: domain.BackendSettings{
			URL:               s.getString(keyBackendURL, d.Backend.URL),
			Timeout:           s.getSeconds(keyBackendTimeout, d.Backend.Timeout),
			RequestsPerSecond: s.getFloat(keyBackendRPS, d.Backend.RequestsPerSecond),
		},
		Search: domain.SearchSettings{
			Mode:      s.getSearchMode(d.Search.Mode),
			PageSize:  s.getInt(keySearchPageSize, d.Search.PageSize),
			Highlight: s.getBool(keySearchHighlight, d.Search.Highlight),
		},
		RAG: domain.RAGSettings{
			TopK:   s.getInt(keyRAGTopK, d.RAG.TopK),
			Stream: s.getBool(keyRAGStream, d.RAG.Stream),
		},
		Markers: domain.HighlightMarkers{
			Start: s.getString(keyHighlightStart, d.Markers.Start),
			End:   s.getString(keyHighlightEnd, d.Markers.End),
		},
		DocumentCacheTTL: s.getSeconds(keyDocumentCacheTTL, d.DocumentCacheTTL),
	}

	if err := settings.Validate(); err != nil {
		return nil, fmt.Errorf("load settings: %w", err)
	}
	return settings, nil
}

// Save validates and persists client settings.
func (s *SettingsService) Save(settings *domain.ClientSettings) error {
	if err := settings.Validate(); err != nil {
		return err
	}

	values := []struct {
		key   string
		value any
	}{
		{keyBackendURL, settings.Backend.URL},
		{keyBackendTimeout, int(settings.Backend.Timeout / time.Second)},
		{keyBackendRPS, settings.Backend.RequestsPerSecond},
		{keySearchMode, settings.Search.Mode.String()},
		{keySearchPageSize, settings.Search.PageSize},
		{keySearchHighlight, settings.Search.Highlight},
		{keyRAGTopK, settings.RAG.TopK},
		{keyRAGStream, settings.RAG.Stream},
		{keyHighlightStart, settings.Markers.Start},
		{keyHighlightEnd, settings.Markers.End},
		{keyDocumentCacheTTL, int(settings.DocumentCacheTTL / time.Second)},
	}
	for _, v := range values {
		if err := s.configStore.Set(v.key, v.value); err != nil {
			return fmt.Errorf("save %s: %w", v.key, err)
		}
	}
	return nil
}

// Set parses value for key and persists it.
func (s *SettingsService) Set(key, value string) error {
	kind, ok := settingKinds[key]
	if !ok {
		return fmt.Errorf("%w: unknown setting %q", domain.ErrInvalidInput, key)
	}

	parsed, err := parseSetting(kind, value)
	if err != nil {
		return fmt.Errorf("%w: %s: %v", domain.ErrInvalidInput, key, err)
	}
	if key == keyBackendURL {
		if err := (domain.BackendSettings{URL: value}).Validate(); err != nil {
			return err
		}
	}
	return s.configStore.Set(key, parsed)
}

// Values returns the effective value of every key as text.
func (s *SettingsService) Values() (map[string]string, error) {
	st, err := s.Get()
	if err != nil {
		return nil, err
	}
	return map[string]string{
		keyBackendURL:       st.Backend.URL,
		keyBackendTimeout:   strconv.Itoa(int(st.Backend.Timeout / time.Second)),
		keyBackendRPS:       strconv.FormatFloat(st.Backend.RequestsPerSecond, 'g', -1, 64),
		keySearchMode:       st.Search.Mode.String(),
		keySearchPageSize:   strconv.Itoa(st.Search.PageSize),
		keySearchHighlight:  strconv.FormatBool(st.Search.Highlight),
		keyRAGTopK:          strconv.Itoa(st.RAG.TopK),
		keyRAGStream:        strconv.FormatBool(st.RAG.Stream),
		keyHighlightStart:   st.Markers.Start,
		keyHighlightEnd:     st.Markers.End,
		keyDocumentCacheTTL: strconv.Itoa(int(st.DocumentCacheTTL / time.Second)),
	}, nil
}

// Keys lists the supported config keys in display order.
func (s *SettingsService) Keys() []string {
	return []string{
		keyBackendURL,
		keyBackendTimeout,
		keyBackendRPS,
		keySearchMode,
		keySearchPageSize,
		keySearchHighlight,
		keyRAGTopK,
		keyRAGStream,
		keyHighlightStart,
		keyHighlightEnd,
		keyDocumentCacheTTL,
	}
}

// GetDefaults returns default settings.
func (s *SettingsService) GetDefaults() domain.ClientSettings {
	return domain.DefaultClientSettings()
}

// EnvName returns the environment variable that overrides key.
func EnvName(key string) string {
	return EnvPrefix + strings.ToUpper(strings.ReplaceAll(key, ".", "_"))
}

func parseSetting(kind settingKind, value string) (any, error) {
	value = strings.TrimSpace(value)
	switch kind {
	case kindInt:
		n, err := strconv.Atoi(value)
		if err != nil {
			return nil, fmt.Errorf("expected integer, got %q", value)
		}
		if n < 0 {
			return nil, fmt.Errorf("must not be negative, got %d", n)
		}
		return n, nil
	case kindFloat:
		f, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return nil, fmt.Errorf("expected number, got %q", value)
		}
		return f, nil
	case kindBool:
		b, err := strconv.ParseBool(value)
		if err != nil {
			return nil, fmt.Errorf("expected true or false, got %q", value)
		}
		return b, nil
	case kindMode:
		mode, err := domain.ParseSearchMode(value)
		if err != nil {
			return nil, err
		}
		return mode.String(), nil
	default:
		if value == "" {
			return nil, fmt.Errorf("must not be empty")
		}
		return value, nil
	}
}

// Helper methods for reading config with defaults.

func (s *SettingsService) env(key string) (string, bool) {
	if s.lookupEnv == nil {
		return "", false
	}
	v, ok := s.lookupEnv(EnvName(key))
	if !ok || strings.TrimSpace(v) == "" {
		return "", false
	}
	return strings.TrimSpace(v), true
}

func (s *SettingsService) getString(key, defaultVal string) string {
	if v, ok := s.env(key); ok {
		return v
	}
	val := s.configStore.GetString(key)
	if val == "" {
		return defaultVal
	}
	return val
}

func (s *SettingsService) getInt(key string, defaultVal int) int {
	if v, ok := s.env(key); ok {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	val := s.configStore.GetInt(key)
	if val == 0 {
		return defaultVal
	}
	return val
}

func (s *SettingsService) getFloat(key string, defaultVal float64) float64 {
	if v, ok := s.env(key); ok {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	if _, exists := s.configStore.Get(key); !exists {
		return defaultVal
	}
	return s.configStore.GetFloat(key)
}

func (s *SettingsService) getBool(key string, defaultVal bool) bool {
	if v, ok := s.env(key); ok {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	if _, exists := s.configStore.Get(key); !exists {
		return defaultVal
	}
	return s.configStore.GetBool(key)
}

func (s *SettingsService) getSeconds(key string, defaultVal time.Duration) time.Duration {
	if v, ok := s.env(key); ok {
		if n, err := strconv.Atoi(v); err == nil && n >= 0 {
			return time.Duration(n) * time.Second
		}
	}
	if _, exists := s.configStore.Get(key); !exists {
		return defaultVal
	}
	return time.Duration(s.configStore.GetInt(key)) * time.Second
}

func (s *SettingsService) getSearchMode(defaultVal domain.SearchMode) domain.SearchMode {
	mode, err := domain.ParseSearchMode(s.getString(keySearchMode, defaultVal.String()))
	if err != nil {
		return defaultVal
	}
	return mode
}

package testsupport

import (
	"path/filepath"
	"testing"

	"cardledger/internal/config"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*configBuilder)

type configBuilder struct {
	t       testing.TB
	baseDir string
	cfg     *config.Config
}

// NewConfig produces a config seeded with unique temp directories per test.
// It defaults common fields and applies any provided options. The unit delay
// is zeroed so resolver tests run without pacing pauses.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfgVal := config.Default()
	cfgVal.Catalog.APIKey = "test"
	cfgVal.Catalog.BaseURL = "https://catalog.invalid"
	cfgVal.Paths.DataDir = filepath.Join(base, "data")
	cfgVal.Paths.LogDir = filepath.Join(base, "logs")
	cfgVal.Resolver.UnitDelayMS = 0

	builder := &configBuilder{
		t:       t,
		baseDir: base,
		cfg:     &cfgVal,
	}

	for _, opt := range opts {
		opt(builder)
	}

	return builder.cfg
}

// WithCatalogEndpoint points the catalog client at a test server.
func WithCatalogEndpoint(apiKey, baseURL string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Catalog.APIKey = apiKey
		b.cfg.Catalog.BaseURL = baseURL
	}
}

// WithAcceptThreshold overrides the resolver acceptance threshold.
func WithAcceptThreshold(threshold int) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Resolver.AcceptThreshold = threshold
	}
}

// WithBatchLimit overrides the resolver batch item cap.
func WithBatchLimit(limit int) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Resolver.BatchItemLimit = limit
	}
}

// WithNtfyEndpoint points notifications at a test server and enables all
// notification categories.
func WithNtfyEndpoint(url string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Notifications.NtfyTopic = url
		b.cfg.Notifications.Runs = true
		b.cfg.Notifications.Imports = true
		b.cfg.Notifications.Errors = true
	}
}

// BaseDir returns the root temp directory backing the generated config.
func BaseDir(cfg *config.Config) string {
	return filepath.Dir(cfg.Paths.DataDir)
}

package main

import (
	"log/slog"
	"net/http"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"cardledger/internal/catalog"
	"cardledger/internal/config"
	"cardledger/internal/inventory"
	"cardledger/internal/logging"
	"cardledger/internal/resolve"
)

type commandContext struct {
	configFlag   *string
	logLevelFlag *string

	configOnce sync.Once
	config     *config.Config
	configErr  error

	loggerOnce sync.Once
	logger     *slog.Logger
	loggerErr  error
}

func newCommandContext(configFlag, logLevelFlag *string) *commandContext {
	return &commandContext{
		configFlag:   configFlag,
		logLevelFlag: logLevelFlag,
	}
}

func (c *commandContext) ensureConfig() (*config.Config, error) {
	c.configOnce.Do(func() {
		// A .env in the working directory feeds the CARDLEDGER_* overrides
		// before the config file is read. Missing files are fine.
		_ = godotenv.Load()

		var path string
		if c.configFlag != nil {
			path = strings.TrimSpace(*c.configFlag)
		}
		cfg, _, _, err := config.Load(path)
		if err != nil {
			c.configErr = err
			return
		}
		if err := cfg.EnsureDirectories(); err != nil {
			c.configErr = err
			return
		}
		c.config = cfg
	})
	return c.config, c.configErr
}

func (c *commandContext) ensureLogger() (*slog.Logger, error) {
	c.loggerOnce.Do(func() {
		cfg, err := c.ensureConfig()
		if err != nil {
			c.loggerErr = err
			return
		}
		if c.logLevelFlag != nil {
			if level := strings.TrimSpace(*c.logLevelFlag); level != "" {
				cfg.Logging.Level = level
			}
		}
		logger, err := logging.NewFromConfig(cfg)
		if err != nil {
			c.loggerErr = err
			return
		}
		activeLog := filepath.Join(cfg.Paths.LogDir, "cardledger.log")
		logging.CleanupOldLogs(logger, cfg.Logging.RetentionDays, cfg.Paths.LogDir, "*.log", activeLog)
		c.logger = logger
	})
	return c.logger, c.loggerErr
}

func (c *commandContext) withStore(fn func(*inventory.Store) error) error {
	cfg, err := c.ensureConfig()
	if err != nil {
		return err
	}
	store, err := inventory.Open(cfg)
	if err != nil {
		return err
	}
	defer store.Close()
	return fn(store)
}

// newSearcher builds the catalog client wrapped in the caching, rate-spaced
// search layer every resolution path goes through.
func (c *commandContext) newSearcher(cfg *config.Config) (resolve.Searcher, error) {
	httpClient := &http.Client{Timeout: time.Duration(cfg.Catalog.RequestTimeout) * time.Second}
	client, err := catalog.New(cfg.Catalog.APIKey, cfg.Catalog.BaseURL, catalog.WithHTTPClient(httpClient))
	if err != nil {
		return nil, err
	}
	cacheTTL := time.Duration(cfg.Catalog.CacheTTLMinutes) * time.Minute
	minSpacing := time.Duration(cfg.Catalog.MinLookupIntervalMS) * time.Millisecond
	return resolve.NewCachedSearcher(client, cacheTTL, minSpacing), nil
}

func shouldSkipConfig(cmd *cobra.Command) bool {
	for c := cmd; c != nil; c = c.Parent() {
		if c.Annotations != nil && c.Annotations["skipConfigLoad"] == "true" {
			return true
		}
	}
	return false
}

func yesNo(value bool) string {
	if value {
		return "yes"
	}
	return "no"
}

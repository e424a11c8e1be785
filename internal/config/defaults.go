package config

const (
	defaultDataDir             = "~/.local/share/cardledger"
	defaultLogDir              = "~/.local/share/cardledger/logs"
	defaultLogFormat           = "console"
	defaultLogLevel            = "info"
	defaultLogRetentionDays    = 60
	defaultCatalogTimeout      = 10
	defaultCatalogMaxResults   = 10
	defaultPlaceholderMarker   = "placeholder"
	defaultCacheTTLMinutes     = 10
	defaultMinLookupIntervalMS = 250
	defaultAcceptThreshold     = 25
	defaultBatchItemLimit      = 400
	defaultUnitDelayMS         = 250
	defaultWriteAttempts       = 3
	defaultNameExactScore      = 40
	defaultNameContainsScore   = 30
	defaultNameFuzzyCap        = 25
	defaultSetExactScore       = 30
	defaultSetContainsScore    = 20
	defaultSetFuzzyCap         = 15
	defaultNumberExactScore    = 35
	defaultNumberNumericScore  = 30
	defaultNotifyTimeout       = 10
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			DataDir: defaultDataDir,
			LogDir:  defaultLogDir,
		},
		Catalog: Catalog{
			RequestTimeout:      defaultCatalogTimeout,
			MaxResults:          defaultCatalogMaxResults,
			PlaceholderMarker:   defaultPlaceholderMarker,
			CacheTTLMinutes:     defaultCacheTTLMinutes,
			MinLookupIntervalMS: defaultMinLookupIntervalMS,
		},
		Resolver: Resolver{
			AcceptThreshold:    defaultAcceptThreshold,
			BatchItemLimit:     defaultBatchItemLimit,
			UnitDelayMS:        defaultUnitDelayMS,
			WriteAttempts:      defaultWriteAttempts,
			NameExactScore:     defaultNameExactScore,
			NameContainsScore:  defaultNameContainsScore,
			NameFuzzyCap:       defaultNameFuzzyCap,
			SetExactScore:      defaultSetExactScore,
			SetContainsScore:   defaultSetContainsScore,
			SetFuzzyCap:        defaultSetFuzzyCap,
			NumberExactScore:   defaultNumberExactScore,
			NumberNumericScore: defaultNumberNumericScore,
		},
		Notifications: Notifications{
			RequestTimeout: defaultNotifyTimeout,
			Runs:           true,
			Imports:        true,
			Errors:         true,
		},
		Logging: Logging{
			Format:        defaultLogFormat,
			Level:         defaultLogLevel,
			RetentionDays: defaultLogRetentionDays,
		},
	}
}

package config

import (
	"errors"
	"fmt"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validateCatalog(); err != nil {
		return err
	}
	if err := c.validateResolver(); err != nil {
		return err
	}
	if err := c.validateNotifications(); err != nil {
		return err
	}
	return nil
}

func (c *Config) validateCatalog() error {
	if c.Catalog.APIKey == "" {
		defaultPath, err := DefaultConfigPath()
		if err != nil {
			defaultPath = "~/.config/cardledger/config.toml"
		}
		return fmt.Errorf("catalog.api_key is required. Set CARDLEDGER_CATALOG_API_KEY env var or edit %s (create with 'cardledger config init')", defaultPath)
	}
	if c.Catalog.BaseURL == "" {
		return errors.New("catalog.base_url is required (or set CARDLEDGER_CATALOG_URL)")
	}
	return nil
}

func (c *Config) validateResolver() error {
	r := c.Resolver
	if err := ensurePositiveMap(map[string]int{
		"resolver.accept_threshold":     r.AcceptThreshold,
		"resolver.batch_item_limit":     r.BatchItemLimit,
		"resolver.write_attempts":       r.WriteAttempts,
		"resolver.name_exact_score":     r.NameExactScore,
		"resolver.name_contains_score":  r.NameContainsScore,
		"resolver.name_fuzzy_cap":       r.NameFuzzyCap,
		"resolver.set_exact_score":      r.SetExactScore,
		"resolver.set_contains_score":   r.SetContainsScore,
		"resolver.set_fuzzy_cap":        r.SetFuzzyCap,
		"resolver.number_exact_score":   r.NumberExactScore,
		"resolver.number_numeric_score": r.NumberNumericScore,
	}); err != nil {
		return err
	}
	if r.UnitDelayMS < 0 {
		return errors.New("resolver.unit_delay_ms must be >= 0")
	}
	if r.NameContainsScore > r.NameExactScore {
		return errors.New("resolver.name_contains_score must not exceed resolver.name_exact_score")
	}
	if r.NameFuzzyCap > r.NameContainsScore {
		return errors.New("resolver.name_fuzzy_cap must not exceed resolver.name_contains_score")
	}
	if r.SetContainsScore > r.SetExactScore {
		return errors.New("resolver.set_contains_score must not exceed resolver.set_exact_score")
	}
	if r.SetFuzzyCap > r.SetContainsScore {
		return errors.New("resolver.set_fuzzy_cap must not exceed resolver.set_contains_score")
	}
	if r.NumberNumericScore > r.NumberExactScore {
		return errors.New("resolver.number_numeric_score must not exceed resolver.number_exact_score")
	}
	maxTotal := r.NameExactScore + r.SetExactScore + r.NumberExactScore
	if r.AcceptThreshold > maxTotal {
		return fmt.Errorf("resolver.accept_threshold %d exceeds maximum possible score %d", r.AcceptThreshold, maxTotal)
	}
	return nil
}

func (c *Config) validateNotifications() error {
	if c.Notifications.RequestTimeout <= 0 {
		return errors.New("notifications.request_timeout must be positive")
	}
	return nil
}

func ensurePositiveMap(values map[string]int) error {
	for key, value := range values {
		if value <= 0 {
			return fmt.Errorf("%s must be positive", key)
		}
	}
	return nil
}

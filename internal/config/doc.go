// Package config loads, normalizes, and validates cardledger configuration.
//
// It supplies repository defaults, expands user paths (including tilde
// shortcuts), reads TOML files, and honours environment fallbacks such as
// CARDLEDGER_CATALOG_API_KEY. The Config type centralizes every knob the CLI
// needs, including the resolver's scoring weights and acceptance threshold so
// match behavior can be tuned without a rebuild.
//
// Always obtain settings through this package so downstream code receives
// sanitized paths, canonical log formats, and clear validation errors.
package config

// Package logging assembles structured slog loggers and formatting helpers
// used across cardledger.
//
// It owns the configurable console/JSON handlers, centralizes level and output
// plumbing, and defines the standardized field keys (component, item_id,
// unit_key, run_id) that keep resolution runs traceable across packages. The
// package also provides a no-op logger for tests and wiring code that cannot
// fail.
//
// Prefer these constructors over hand-rolled slog setup so new components emit
// data with the same shape as the rest of the system.
package logging

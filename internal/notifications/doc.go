// Package notifications delivers engine events via pluggable notifiers.
//
// The default implementation publishes to ntfy using the topic configured in
// config.toml and gracefully degrades to a no-op when notifications are
// disabled. Per-event toggles (runs, imports, errors) let users silence
// categories without unsetting the topic.
//
// Extend this package if you need alternative transports; engine code depends
// only on the simple Service interface.
package notifications

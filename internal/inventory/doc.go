// Package inventory persists collectible items in SQLite and exposes the
// queries the resolver and CLI need.
//
// The Store manages database connections, schema initialization, item CRUD,
// image-coverage queries, and aggregate stats. Items capture the identity
// fields (name, set, card number, category) used by the resolver along with
// ownership details like condition, quantity, and purchase price.
//
// Treat this package as the single source of truth for item semantics; when
// you add new columns, update schema.sql and bump schemaVersion.
package inventory

package logging

const (
	// FieldComponent is the standardized structured logging key for component names.
	FieldComponent = "component"
	// FieldItemID is the standardized structured logging key for inventory item identifiers.
	FieldItemID = "item_id"
	// FieldUnitKey is the standardized structured logging key for search unit dedup keys.
	FieldUnitKey = "unit_key"
	// FieldRunID is the standardized structured logging key for resolution run identifiers.
	FieldRunID = "run_id"
	// FieldQuery is the standardized structured logging key for catalog query strings.
	FieldQuery = "query"
	// FieldMatchType is the standardized structured logging key for match classifications.
	FieldMatchType = "match_type"
	// FieldScore is the standardized structured logging key for match total scores.
	FieldScore = "score"
)

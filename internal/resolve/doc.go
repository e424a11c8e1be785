// Package resolve implements card identity matching and background image
// resolution for inventory items.
//
// The pipeline: items missing an image are grouped into search units by a
// coarse identity key (batcher), each unit generates an ordered list of query
// variations (queries), the first query returning a candidate with a usable
// image feeds the scorer, and an accepted match writes the image URL back to
// every member item of the unit. The Runner drives units sequentially with a
// fixed inter-unit delay to respect catalog rate limits; Resolver handles the
// on-demand single-item path.
//
// Normalization and scoring are pure functions over strings so they stay
// deterministic and cheap to test. Scoring weights and the acceptance
// threshold come from the resolver config section.
package resolve

// Package filter implements the per-pass predicates of the evidence engine.
//
// Protein-level options (existence level, last-reviewed range, search) select rows of the
// protein table and are combined as roaring bitmaps over row indices. Mention-level options
// (mention fraction, publication year) select rows of one protein's mention table after
// watermark truncation. The two never read each other's fields, so the order in which they
// are computed does not change the result.
package filter

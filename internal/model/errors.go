package model

import (
	"errors"
	"fmt"
)

var (
	// ErrMissingColumn is returned when an artifact lacks a required column or key.
	ErrMissingColumn = errors.New("missing required column")

	// ErrDuplicateProtein is returned when a protein ID appears twice in the protein table.
	ErrDuplicateProtein = errors.New("duplicate protein id")

	// ErrUnsupportedFormat is returned when no adapter can read an artifact.
	ErrUnsupportedFormat = errors.New("unsupported artifact format")
)

// SourceLoadError indicates an input artifact could not be read or is structurally invalid.
// It is fatal for the session.
type SourceLoadError struct {
	Path string
	Err  error
}

func (e *SourceLoadError) Error() string {
	return fmt.Sprintf("load %s: %v", e.Path, e.Err)
}

func (e *SourceLoadError) Unwrap() error { return e.Err }

// RowProcessingError indicates one protein's mention table failed type coercion.
// The protein contributes zero mentions for the pass; other proteins are unaffected.
type RowProcessingError struct {
	ProteinID string
	Row       int // 0-based row within the protein's mention table
	Err       error
}

func (e *RowProcessingError) Error() string {
	return fmt.Sprintf("protein %s: row %d: %v", e.ProteinID, e.Row, e.Err)
}

func (e *RowProcessingError) Unwrap() error { return e.Err }

// FieldError names the cell that failed to coerce
type FieldError struct {
	Field string
	Value string
	Err   error
}

func (e *FieldError) Error() string {
	return fmt.Sprintf("field %s=%q: %v", e.Field, e.Value, e.Err)
}

func (e *FieldError) Unwrap() error { return e.Err }

// RenderFallbackError indicates the rich table view could not be rendered and a plain
// tabular dump was written instead. The snapshot itself is unaffected.
type RenderFallbackError struct {
	Reason string
	Err    error
}

func (e *RenderFallbackError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("render fallback (%s): %v", e.Reason, e.Err)
	}
	return fmt.Sprintf("render fallback (%s)", e.Reason)
}

func (e *RenderFallbackError) Unwrap() error { return e.Err }

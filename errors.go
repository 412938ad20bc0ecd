package stover

import "errors"

// Sentinel errors. Callers can test for these with errors.Is; the wrapped
// message carries the file, column or treatment that triggered the failure.
var (
	// ErrMissingFile - a required input CSV does not exist.
	ErrMissingFile = errors.New("missing input file")

	// ErrSchemaMismatch - an input file's header or a cell does not match
	// the declared schema.
	ErrSchemaMismatch = errors.New("schema mismatch")

	// ErrColumnNotFound - a named column is not in the frame.
	ErrColumnNotFound = errors.New("column not found")

	// ErrMissingTreatment - a pivoted column for a required treatment level
	// is absent.
	ErrMissingTreatment = errors.New("missing treatment")

	// ErrInvalidMapData - choropleth inputs that cannot be mapped.
	ErrInvalidMapData = errors.New("invalid map data")
)

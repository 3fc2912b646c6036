package parser

import "errors"

var (
	// ErrParse is returned when no document can be constructed from a body.
	ErrParse = errors.New("failed to parse document")

	// ErrInvalidManifest is returned when a web app manifest is not valid JSON
	// of the expected shape.
	ErrInvalidManifest = errors.New("invalid web app manifest")
)

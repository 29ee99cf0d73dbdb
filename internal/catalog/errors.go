package catalog

import "errors"

var (
	// ErrMalformedCatalog is returned when the catalog document fails
	// structural validation: permissions not an array of strings, roles not
	// an object of string arrays, or options not an object.
	ErrMalformedCatalog = errors.New("catalog document has wrong format")
)

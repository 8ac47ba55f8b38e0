package model

import "github.com/rotisserie/eris"

// Error taxonomy for the resolution engine. Fatal conditions abort the
// whole request; NoDataFound is not an error (it is a nil-rate TariffResult
// with an explanatory trace), and secondary-source failures are swallowed
// into trace notes.
var (
	// ErrNotInitialized means a code index was queried before its schema
	// was persisted. Fatal, no retry: the caller must sync reference data
	// first.
	ErrNotInitialized = eris.New("code index not initialized")

	// ErrSourceUnavailable means the mandatory availability query against
	// the primary source failed (network or parse). Fatal for the request.
	ErrSourceUnavailable = eris.New("primary source unavailable")

	// ErrInvalidObservation means a data source returned a non-numeric
	// value where a rate was expected. Surfaced as-is: it indicates an
	// upstream contract violation worth escalating.
	ErrInvalidObservation = eris.New("invalid observation value")
)

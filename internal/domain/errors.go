package domain

import "errors"

// Sentinel errors shared across the scan/simulation pipeline.
// Callers match them with errors.Is; adapters wrap them with context.
var (
	// ErrInsufficientData means an estimator had no usable inputs
	// (empty ensemble, missing indicators) and no probability can be produced.
	ErrInsufficientData = errors.New("insufficient data for estimate")

	// ErrInvalidSignal means a signal cannot be turned into a trade:
	// not actionable, zero size, or missing entry price.
	ErrInvalidSignal = errors.New("invalid signal")

	// ErrAlreadySettled means a settlement was attempted on a trade
	// that already left the pending state. Settlement is at-most-once.
	ErrAlreadySettled = errors.New("trade already settled")

	// ErrStaleQuote means a market quote is older than the freshness bound
	// and must be treated as missing data, never traded on.
	ErrStaleQuote = errors.New("stale market quote")
)

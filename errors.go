package salesmart

import (
	"errors"

	"github.com/brunobiangulo/salesmart/warehouse"
)

var (
	// ErrUnsupportedFormat is returned for unrecognized transaction file formats.
	ErrUnsupportedFormat = errors.New("salesmart: unsupported input format")

	// ErrNoTransactions is returned when a run has no valid transactions to build from.
	ErrNoTransactions = errors.New("salesmart: no valid transactions")

	// ErrReferentialIntegrity is returned when a fact or order reference has no
	// matching dimension row. Fatal for the stage: nothing is persisted.
	ErrReferentialIntegrity = warehouse.ErrReferentialIntegrity

	// ErrInvalidConfig is returned for inconsistent threshold tables or weights,
	// detected once at pipeline construction.
	ErrInvalidConfig = errors.New("salesmart: invalid configuration")

	// ErrStageFailed is returned when a pipeline stage could not complete.
	ErrStageFailed = errors.New("salesmart: stage failed")
)

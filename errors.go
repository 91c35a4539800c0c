package weavecache

import (
	"errors"
	"fmt"

	"github.com/hupe1980/weavecache/internal/cache"
	"github.com/hupe1980/weavecache/internal/partition"
	"github.com/hupe1980/weavecache/resource"
)

var (
	// ErrConfiguration is returned for bad construction inputs, including
	// failures of a collaborator while setting up.
	ErrConfiguration = errors.New("configuration error")

	// ErrInvariantViolation is returned when an internal invariant is broken,
	// e.g. a coherent block that does not enclose its semicoherent block, or a
	// retrieval for a record that was never queried.
	ErrInvariantViolation = errors.New("invariant violation")

	// ErrAllocationFailure is returned when cached results cannot be accounted
	// within the memory limit.
	ErrAllocationFailure = errors.New("allocation failure")
)

// EnclosureError indicates a coherent frequency block which does not enclose
// the semicoherent frequency block it serves.
//
// EnclosureError unwraps to ErrInvariantViolation.
type EnclosureError struct {
	CohLeft, CohRight   int32
	SemiLeft, SemiRight int32
	SemiIndex           uint64
	QueryIndex          int
}

func (e *EnclosureError) Error() string {
	return fmt.Sprintf("range of coherent tiling [%d,%d] does not contain semicoherent tiling [%d,%d] at semicoherent index %d, query index %d",
		e.CohLeft, e.CohRight, e.SemiLeft, e.SemiRight, e.SemiIndex, e.QueryIndex)
}

func (e *EnclosureError) Unwrap() error { return ErrInvariantViolation }

// MissingQueryError indicates a record that was not answered by Query before
// it was finalized or retrieved.
//
// MissingQueryError unwraps to ErrInvariantViolation.
type MissingQueryError struct {
	QueryIndex int
}

func (e *MissingQueryError) Error() string {
	return fmt.Sprintf("missing query at index %d", e.QueryIndex)
}

func (e *MissingQueryError) Unwrap() error { return ErrInvariantViolation }

func configErrorf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrConfiguration, fmt.Sprintf(format, args...))
}

func invariantErrorf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvariantViolation, fmt.Sprintf(format, args...))
}

// translateError maps errors of internal packages onto the public taxonomy.
func translateError(err error) error {
	if err == nil {
		return nil
	}

	switch {
	case errors.Is(err, ErrConfiguration), errors.Is(err, ErrInvariantViolation), errors.Is(err, ErrAllocationFailure):
		return err
	case errors.Is(err, resource.ErrMemoryLimitExceeded):
		return fmt.Errorf("%w: %w", ErrAllocationFailure, err)
	case errors.Is(err, cache.ErrDuplicateKey):
		return fmt.Errorf("%w: %w", ErrInvariantViolation, err)
	case errors.Is(err, partition.ErrInvalidPartitions):
		return fmt.Errorf("%w: %w", ErrInvariantViolation, err)
	}

	return err
}

package domain

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidInput = errors.New("invalid input")
	ErrTemporary    = errors.New("temporary failure")

	// ErrPayloadTooLarge marks an embedding rejection caused by input size.
	// It must stay distinguishable from other embedding failures: it is the
	// trigger for the chunk-and-retry fallback during ingestion.
	ErrPayloadTooLarge = errors.New("payload too large")
)

// WrapError preserves typed semantic errors with operation context.
func WrapError(kind error, operation string, err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w: %w", operation, kind, err)
}

func IsKind(err error, kind error) bool {
	return errors.Is(err, kind)
}

package errors

import "errors"

var (
	ErrNotFound     = errors.New("not found")
	ErrUnauthorized = errors.New("unauthorized")
	ErrForbidden    = errors.New("forbidden")
	ErrInvalid      = errors.New("invalid")
	ErrTooMany      = errors.New("too many requests")
	ErrInternal     = errors.New("internal")

	// ErrEmbeddingUnavailable covers quota/timeout/auth failures from the
	// embedding provider. A chunk must stay unembedded on this error, never
	// be given a zero vector.
	ErrEmbeddingUnavailable = errors.New("embedding provider unavailable")
	ErrChunkStore           = errors.New("chunk store unavailable")
	ErrEmptyIndex           = errors.New("vector index is empty")
	ErrModelBackend         = errors.New("model backend failed")
	ErrDimensionMismatch    = errors.New("embedding dimension mismatch")
)

func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

func IsEmptyIndex(err error) bool {
	return errors.Is(err, ErrEmptyIndex)
}

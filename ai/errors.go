package ai

import "errors"

var (
	// ErrProviderUnavailable is returned when the embedding/chat backend
	// cannot be reached or times out. It is never retried automatically.
	ErrProviderUnavailable = errors.New("provider unavailable")

	// ErrModelNotFound is returned when the backend is reachable but the
	// configured model does not exist on it.
	ErrModelNotFound = errors.New("model not found")

	// ErrDimensionMismatch is returned when a provider returns a vector whose
	// length disagrees with the configured embedding dimension.
	ErrDimensionMismatch = errors.New("embedding dimension mismatch")

	// ErrUnsupportedProvider is returned when a provider name is not in the
	// allow-list.
	ErrUnsupportedProvider = errors.New("unsupported provider")

	// ErrChatUnsupported is returned by embed-only providers.
	ErrChatUnsupported = errors.New("chat not supported by provider")
)

package usecase

import "errors"

// Sentinel errors for use case layer
var (
	// Index maintenance errors
	ErrUpdateInProgress = errors.New("index update already in progress")

	// Retrieval errors, converted to empty results at the public boundary
	ErrIndexEmpty   = errors.New("index is empty")
	ErrNoEmbedder   = errors.New("embedding provider is not configured")
	ErrEmptyQuery   = errors.New("query is empty")
	ErrQueryVector  = errors.New("query embedding is empty")
	ErrNoCandidates = errors.New("no chunk matches the search filters")
	ErrNoLLMClient  = errors.New("completion provider is not configured")
)

// Context keys for error values
const (
	VaultIDKey = "vault_id"
	PathKey    = "path"
	QueryKey   = "query"
)

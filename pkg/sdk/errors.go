package vecgate

import "github.com/kailas-cloud/vecgate/internal/domain"

// Sentinel errors re-exported from the domain layer.
// Use errors.Is() to check.
var (
	ErrNotFound          = domain.ErrNotFound
	ErrAlreadyExists     = domain.ErrAlreadyExists
	ErrInvalid           = domain.ErrInvalid
	ErrVectorDimMismatch = domain.ErrVectorDimMismatch
	ErrTimeout           = domain.ErrTimeout
)

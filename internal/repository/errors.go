package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/kailas-cloud/vecgate/internal/domain"
)

// mapError translates a backend error into the domain taxonomy.
// collection names the collection the operation addressed, if any.
func mapError(collection string, err error) error {
	if err == nil {
		return nil
	}

	var de *domain.Error
	if errors.As(err, &de) {
		return de
	}

	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return &domain.Error{
			Kind:    domain.KindBackend,
			Message: domain.ErrTimeout.Error(),
			Err:     fmt.Errorf("%w: %w", domain.ErrTimeout, err),
		}
	case errors.Is(err, domain.ErrNotFound):
		return domain.CollectionMissing(collection)
	case errors.Is(err, domain.ErrAlreadyExists):
		return domain.NewConflict("Collection '%s' already exists.", collection)
	default:
		return domain.NewBackend(err)
	}
}

// status is the metrics label for an operation outcome.
func status(err error) string {
	if err == nil {
		return "ok"
	}
	return domain.KindOf(err).String()
}

package application

import (
	"context"
	"errors"

	"github.com/LocalHostDiluk/reinicializado/internal/domain"
	apperrors "github.com/LocalHostDiluk/reinicializado/pkg/errors"
	"github.com/LocalHostDiluk/reinicializado/pkg/resilience"
)

// toAppError maps domain error kinds onto the API error kinds. Anything
// the domain did not classify becomes an internal error whose cause is kept
// for logging but never rendered.
func toAppError(err error) *apperrors.AppError {
	if err == nil {
		return nil
	}
	if appErr, ok := apperrors.AsAppError(err); ok {
		return appErr
	}

	var domErr *domain.Error
	if !errors.As(err, &domErr) {
		if errors.Is(err, context.DeadlineExceeded) {
			return apperrors.ErrTimeout("request").Wrap(err)
		}
		if errors.Is(err, resilience.ErrCircuitOpen) {
			return apperrors.ErrServiceUnavailable("store").Wrap(err)
		}
		return apperrors.ErrInternal("").Wrap(err)
	}

	switch domErr.Kind {
	case domain.ErrNotFound:
		return apperrors.ErrNotFound(domErr.Message).Wrap(err)
	case domain.ErrInvalidArgument:
		return apperrors.ErrInvalidArgument(domErr.Message).Wrap(err)
	case domain.ErrInvalidState:
		return apperrors.ErrInvalidState(domErr.Message).Wrap(err)
	case domain.ErrInsufficientStock:
		return apperrors.ErrInsufficientStock(domErr.Message).Wrap(err)
	case domain.ErrConflict:
		return apperrors.ErrConflict(domErr.Message).Wrap(err)
	}
	return apperrors.ErrInternal("").Wrap(err)
}

// fail logs err at a level matching its kind and returns it as an AppError.
func (b *base) fail(ctx context.Context, operation string, err error) error {
	appErr := toAppError(err)
	log := b.logger.WithContext(ctx).WithError(err)
	switch appErr.Code {
	case apperrors.CodeInternalError, apperrors.CodeTimeout, apperrors.CodeServiceUnavailable:
		log.Error("Operation failed", "operation", operation)
	case apperrors.CodeConflict, apperrors.CodeInsufficientStock:
		log.Warn("Operation rejected", "operation", operation, "kind", appErr.Code)
	default:
		log.Debug("Operation rejected", "operation", operation, "kind", appErr.Code)
	}
	return appErr
}

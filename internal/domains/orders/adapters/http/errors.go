package http

import (
	"errors"
	"net/http"

	"github.com/Apurer/go-gin-meal-orders/internal/domains/orders/application"
	"github.com/Apurer/go-gin-meal-orders/internal/domains/orders/domain"
	"github.com/Apurer/go-gin-meal-orders/internal/domains/orders/ports"
	apierrors "github.com/Apurer/go-gin-meal-orders/internal/shared/errors"
)

// ErrorMapper maps order lifecycle failures to problem details.
func ErrorMapper(err error) (apierrors.ProblemDetail, bool) {
	switch {
	case errors.Is(err, domain.ErrTransitionNotAllowed):
		return apierrors.ErrTransitionForbidden.WithDetail(err.Error()), true
	case errors.Is(err, domain.ErrApprovalEpisodeOpen), errors.Is(err, domain.ErrAlreadyPendingApproval):
		return apierrors.ErrOrderPendingApproval.WithDetail(err.Error()), true
	case errors.Is(err, ports.ErrIdempotencyConflict):
		return apierrors.ErrIdempotencyKeyReused.WithDetail(err.Error()), true
	case errors.Is(err, application.ErrNotFound):
		return apierrors.ErrNotFound.WithDetail(err.Error()), true
	case errors.Is(err, application.ErrForbidden):
		return apierrors.ErrForbidden.WithDetail(err.Error()), true
	case errors.Is(err, application.ErrBadRequest):
		return apierrors.ErrBadRequest.WithDetail(err.Error()), true
	case errors.Is(err, application.ErrConflict):
		return apierrors.ErrConflict.WithDetail(err.Error()), true
	case errors.Is(err, application.ErrUnauthorized):
		return apierrors.ErrUnauthorized.WithDetail(err.Error()), true
	}
	return apierrors.ProblemDetail{}, false
}

// NewResponder returns a problem responder that understands order errors and
// hides unexpected failures behind a generic 500.
func NewResponder() *apierrors.ChainedResponder {
	return apierrors.NewChainedResponder("", ErrorMapper, func(err error) (apierrors.ProblemDetail, bool) {
		var problem apierrors.ProblemDetail
		if errors.As(err, &problem) {
			return problem, true
		}
		return apierrors.ErrInternal.WithDetail(http.StatusText(http.StatusInternalServerError)), true
	})
}

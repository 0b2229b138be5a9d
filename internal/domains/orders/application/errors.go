package application

import (
	"errors"
	"fmt"

	"github.com/Apurer/go-gin-meal-orders/internal/domains/orders/domain"
	"github.com/Apurer/go-gin-meal-orders/internal/domains/orders/ports"
)

// Error categories surfaced by the order lifecycle. Every failure wraps
// exactly one of them together with the specific reason.
var (
	ErrNotFound     = errors.New("not found")
	ErrForbidden    = errors.New("forbidden")
	ErrBadRequest   = errors.New("bad request")
	ErrConflict     = errors.New("conflict")
	ErrUnauthorized = errors.New("unauthorized")
)

func mapError(err error) error {
	if err == nil {
		return nil
	}
	switch {
	case errors.Is(err, ErrNotFound), errors.Is(err, ErrForbidden),
		errors.Is(err, ErrBadRequest), errors.Is(err, ErrConflict):
		return err
	case errors.Is(err, ports.ErrNotFound):
		return fmt.Errorf("%w: %w", ErrNotFound, err)
	case errors.Is(err, ports.ErrConflict), errors.Is(err, ports.ErrDuplicateCode):
		return fmt.Errorf("%w: %w", ErrConflict, err)
	case errors.Is(err, domain.ErrTransitionNotAllowed):
		return fmt.Errorf("%w: %w", ErrForbidden, err)
	case errors.Is(err, domain.ErrInvalidQuantity),
		errors.Is(err, domain.ErrInvalidStatus),
		errors.Is(err, domain.ErrStatusUnchanged),
		errors.Is(err, domain.ErrApprovalEpisodeOpen),
		errors.Is(err, domain.ErrApprovalNotTargetable),
		errors.Is(err, domain.ErrClosedForException),
		errors.Is(err, domain.ErrAlreadyPendingApproval),
		errors.Is(err, domain.ErrQuantityUnchanged),
		errors.Is(err, domain.ErrNoteTooShort),
		errors.Is(err, domain.ErrNotPendingApproval),
		errors.Is(err, domain.ErrInvalidDecision):
		return fmt.Errorf("%w: %w", ErrBadRequest, err)
	}
	return err
}

// Package errors renders RFC 7807 problem details for the meal order API.
package errors

import (
	"fmt"
	"net/http"
)

// ProblemDetail is an application/problem+json body.
// See: https://www.rfc-editor.org/rfc/rfc7807
type ProblemDetail struct {
	Type     string `json:"type"`
	Title    string `json:"title"`
	Status   int    `json:"status"`
	Detail   string `json:"detail,omitempty"`
	Instance string `json:"instance,omitempty"`
	// Extensions carries problem-specific members such as field errors.
	Extensions map[string]any `json:"extensions,omitempty"`
}

func (p ProblemDetail) Error() string {
	if p.Detail != "" {
		return fmt.Sprintf("%s: %s", p.Title, p.Detail)
	}
	return p.Title
}

// WithDetail returns a copy with the given detail message.
func (p ProblemDetail) WithDetail(detail string) ProblemDetail {
	p.Detail = detail
	return p
}

// WithExtension returns a copy with one more extension member.
func (p ProblemDetail) WithExtension(key string, value any) ProblemDetail {
	extensions := make(map[string]any, len(p.Extensions)+1)
	for k, v := range p.Extensions {
		extensions[k] = v
	}
	extensions[key] = value
	p.Extensions = extensions
	return p
}

// Problem type references. The order-specific types refine the generic
// forbidden, bad request and conflict categories.
const (
	TypeValidation   = "/problems/validation-error"
	TypeNotFound     = "/problems/not-found"
	TypeConflict     = "/problems/conflict"
	TypeInternal     = "/problems/internal-error"
	TypeUnauthorized = "/problems/unauthorized"
	TypeForbidden    = "/problems/forbidden"
	TypeBadRequest   = "/problems/bad-request"

	TypeTransitionForbidden  = "/problems/transition-forbidden"
	TypeOrderPendingApproval = "/problems/order-pending-approval"
	TypeIdempotencyKeyReused = "/problems/idempotency-key-reused"
)

var (
	ErrNotFound = ProblemDetail{
		Type:   TypeNotFound,
		Title:  "Resource Not Found",
		Status: http.StatusNotFound,
	}
	ErrValidation = ProblemDetail{
		Type:   TypeValidation,
		Title:  "Validation Error",
		Status: http.StatusBadRequest,
	}
	ErrBadRequest = ProblemDetail{
		Type:   TypeBadRequest,
		Title:  "Bad Request",
		Status: http.StatusBadRequest,
	}
	ErrConflict = ProblemDetail{
		Type:   TypeConflict,
		Title:  "Conflict",
		Status: http.StatusConflict,
	}
	ErrInternal = ProblemDetail{
		Type:   TypeInternal,
		Title:  "Internal Server Error",
		Status: http.StatusInternalServerError,
	}
	ErrUnauthorized = ProblemDetail{
		Type:   TypeUnauthorized,
		Title:  "Unauthorized",
		Status: http.StatusUnauthorized,
	}
	ErrForbidden = ProblemDetail{
		Type:   TypeForbidden,
		Title:  "Forbidden",
		Status: http.StatusForbidden,
	}

	// ErrTransitionForbidden is returned when the caller's role may not move
	// the order between the two statuses.
	ErrTransitionForbidden = ProblemDetail{
		Type:   TypeTransitionForbidden,
		Title:  "Status Transition Forbidden",
		Status: http.StatusForbidden,
	}
	// ErrOrderPendingApproval is returned while an approval episode is open.
	ErrOrderPendingApproval = ProblemDetail{
		Type:   TypeOrderPendingApproval,
		Title:  "Order Pending Approval",
		Status: http.StatusBadRequest,
	}
	ErrIdempotencyKeyReused = ProblemDetail{
		Type:   TypeIdempotencyKeyReused,
		Title:  "Idempotency Key Reused",
		Status: http.StatusConflict,
	}
)

// NewValidationProblem reports field -> message failures.
func NewValidationProblem(fieldErrors map[string]string) ProblemDetail {
	return ErrValidation.WithExtension("fields", fieldErrors)
}

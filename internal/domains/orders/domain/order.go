package domain

import (
	"errors"
	"strings"
	"time"

	"github.com/Apurer/go-gin-meal-orders/internal/shared/identity"
)

// Status enumerates order progression.
type Status string

const (
	StatusWaiting          Status = "WAITING"
	StatusInProgress       Status = "IN_PROGRESS"
	StatusReady            Status = "READY"
	StatusOnDelivery       Status = "ON_DELIVERY"
	StatusComplete         Status = "COMPLETE"
	StatusRejected         Status = "REJECTED"
	StatusAwaitingApproval Status = "AWAITING_APPROVAL"
)

// Statuses lists every status in lifecycle order.
var Statuses = []Status{
	StatusWaiting,
	StatusInProgress,
	StatusReady,
	StatusOnDelivery,
	StatusComplete,
	StatusRejected,
	StatusAwaitingApproval,
}

// ApprovalStatus tracks the administrator decision of an exception episode.
type ApprovalStatus string

const (
	ApprovalPending  ApprovalStatus = "PENDING"
	ApprovalApproved ApprovalStatus = "APPROVED"
	ApprovalRejected ApprovalStatus = "REJECTED"
)

// RequestKind is the originating kind of an exception episode.
type RequestKind string

const (
	RequestReject RequestKind = "REJECT"
	RequestEdit   RequestKind = "EDIT"
)

// MinNoteLength is the shortest accepted kitchen note.
const MinNoteLength = 10

var (
	ErrInvalidQuantity        = errors.New("quantity must be at least 1")
	ErrInvalidStatus          = errors.New("order status is invalid")
	ErrStatusUnchanged        = errors.New("status is unchanged")
	ErrTransitionNotAllowed   = errors.New("invalid status transition for role")
	ErrApprovalEpisodeOpen    = errors.New("order is pending approval and can only change through an approval decision")
	ErrApprovalNotTargetable  = errors.New("awaiting approval is reached through a rejection or edit request")
	ErrClosedForException     = errors.New("order cannot be rejected or edited at this status")
	ErrAlreadyPendingApproval = errors.New("order already pending approval")
	ErrQuantityUnchanged      = errors.New("new quantity must differ from current")
	ErrNoteTooShort           = errors.New("note must be at least 10 characters")
	ErrNotPendingApproval     = errors.New("order is not pending approval")
	ErrInvalidDecision        = errors.New("decision must be APPROVED or REJECTED")
)

// Order is the meal order aggregate.
type Order struct {
	ID                   int64
	Code                 string
	RequesterEmployeeID  int64
	DepartmentID         int64
	ShiftID              int64
	Quantity             int
	OriginalQuantity     *int
	Status               Status
	OrderDate            time.Time
	RequiresApproval     bool
	ApprovalStatus       *ApprovalStatus
	KitchenNote          *string
	AdminNote            *string
	ApprovedByEmployeeID *int64
	ProcessedAt          *time.Time
	ReadyAt              *time.Time
	DispatchedAt         *time.Time
	CompletedAt          *time.Time
}

// NewOrder builds a WAITING order for requester on orderDate.
func NewOrder(code string, requesterID, departmentID, shiftID int64, quantity int, orderDate time.Time) (*Order, error) {
	if quantity < 1 {
		return nil, ErrInvalidQuantity
	}
	return &Order{
		Code:                code,
		RequesterEmployeeID: requesterID,
		DepartmentID:        departmentID,
		ShiftID:             shiftID,
		Quantity:            quantity,
		Status:              StatusWaiting,
		OrderDate:           orderDate,
	}, nil
}

// Clone returns a deep copy so callers never share pointer fields.
func (o *Order) Clone() *Order {
	if o == nil {
		return nil
	}
	clone := *o
	clone.OriginalQuantity = clonePtr(o.OriginalQuantity)
	clone.ApprovalStatus = clonePtr(o.ApprovalStatus)
	clone.KitchenNote = clonePtr(o.KitchenNote)
	clone.AdminNote = clonePtr(o.AdminNote)
	clone.ApprovedByEmployeeID = clonePtr(o.ApprovedByEmployeeID)
	clone.ProcessedAt = clonePtr(o.ProcessedAt)
	clone.ReadyAt = clonePtr(o.ReadyAt)
	clone.DispatchedAt = clonePtr(o.DispatchedAt)
	clone.CompletedAt = clonePtr(o.CompletedAt)
	return &clone
}

// IsTerminal reports whether the order reached COMPLETE or REJECTED.
func (o *Order) IsTerminal() bool {
	return o.Status == StatusComplete || o.Status == StatusRejected
}

// PendingApproval reports whether an exception episode is open.
func (o *Order) PendingApproval() bool {
	return o.ApprovalStatus != nil && *o.ApprovalStatus == ApprovalPending
}

// TransitionTo moves the order to target on behalf of role and stamps the
// stage timestamp the first time its status is reached.
func (o *Order) TransitionTo(role identity.Role, target Status, now time.Time) error {
	if !target.Valid() {
		return ErrInvalidStatus
	}
	if target == o.Status {
		return ErrStatusUnchanged
	}
	if !TransitionAllowed(role, o.Status, target) {
		return ErrTransitionNotAllowed
	}
	if o.PendingApproval() {
		return ErrApprovalEpisodeOpen
	}
	if target == StatusAwaitingApproval {
		return ErrApprovalNotTargetable
	}
	o.Status = target
	o.stamp(target, now)
	return nil
}

// RequestRejection opens a rejection episode.
func (o *Order) RequestRejection(note string) error {
	if err := o.checkExceptionOpenable(note); err != nil {
		return err
	}
	o.openEpisode(note)
	return nil
}

// RequestEdit opens an edit episode and applies newQuantity immediately.
func (o *Order) RequestEdit(newQuantity int, note string) error {
	if err := o.checkExceptionOpenable(note); err != nil {
		return err
	}
	if newQuantity < 1 {
		return ErrInvalidQuantity
	}
	if newQuantity == o.Quantity {
		return ErrQuantityUnchanged
	}
	o.openEpisode(note)
	o.Quantity = newQuantity
	return nil
}

// PendingRequestKind reconstructs the kind of the open episode from the
// quantity snapshot. It reports EDIT only when the snapshot differs from the
// current quantity.
func (o *Order) PendingRequestKind() RequestKind {
	if o.OriginalQuantity != nil && *o.OriginalQuantity != o.Quantity {
		return RequestEdit
	}
	return RequestReject
}

// Decision is the outcome of closing an exception episode.
type Decision struct {
	Kind          RequestKind
	PreviousState Status
	StatusMoved   bool
}

// Decide closes the open episode with decision made by adminID.
func (o *Order) Decide(decision ApprovalStatus, adminID int64, note *string) (Decision, error) {
	if decision != ApprovalApproved && decision != ApprovalRejected {
		return Decision{}, ErrInvalidDecision
	}
	if !o.RequiresApproval || !o.PendingApproval() {
		return Decision{}, ErrNotPendingApproval
	}
	outcome := Decision{Kind: o.PendingRequestKind(), PreviousState: o.Status}
	switch decision {
	case ApprovalApproved:
		if outcome.Kind == RequestReject {
			o.Status = StatusRejected
		}
	case ApprovalRejected:
		if outcome.Kind == RequestEdit && o.OriginalQuantity != nil {
			o.Quantity = *o.OriginalQuantity
		}
		o.Status = StatusWaiting
	}
	outcome.StatusMoved = o.Status != outcome.PreviousState
	o.RequiresApproval = false
	o.ApprovalStatus = &decision
	o.ApprovedByEmployeeID = &adminID
	o.AdminNote = clonePtr(note)
	return outcome, nil
}

func (o *Order) checkExceptionOpenable(note string) error {
	if o.IsTerminal() {
		return ErrClosedForException
	}
	if o.Status == StatusAwaitingApproval || o.PendingApproval() {
		return ErrAlreadyPendingApproval
	}
	if len([]rune(strings.TrimSpace(note))) < MinNoteLength {
		return ErrNoteTooShort
	}
	return nil
}

func (o *Order) openEpisode(note string) {
	if o.OriginalQuantity == nil || !o.PendingApproval() {
		qty := o.Quantity
		o.OriginalQuantity = &qty
	}
	pending := ApprovalPending
	o.Status = StatusAwaitingApproval
	o.RequiresApproval = true
	o.ApprovalStatus = &pending
	o.KitchenNote = &note
}

func (o *Order) stamp(status Status, now time.Time) {
	var field **time.Time
	switch status {
	case StatusInProgress:
		field = &o.ProcessedAt
	case StatusReady:
		field = &o.ReadyAt
	case StatusOnDelivery:
		field = &o.DispatchedAt
	case StatusComplete:
		field = &o.CompletedAt
	default:
		return
	}
	if *field == nil {
		ts := now
		*field = &ts
	}
}

// Valid reports whether s is a known status.
func (s Status) Valid() bool {
	for _, known := range Statuses {
		if s == known {
			return true
		}
	}
	return false
}

// ParseStatus converts raw input into a Status.
func ParseStatus(raw string) (Status, error) {
	status := Status(strings.ToUpper(strings.TrimSpace(raw)))
	if !status.Valid() {
		return "", ErrInvalidStatus
	}
	return status, nil
}

func clonePtr[T any](p *T) *T {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}

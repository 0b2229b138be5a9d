package domain

import (
	"time"

	"github.com/Apurer/go-gin-meal-orders/internal/shared/identity"
)

// Event names as pushed to realtime subscribers.
const (
	EventOrderCreated           = "order.created"
	EventOrderStatusChanged     = "order.status.changed"
	EventOrderApprovalRequested = "order.approval.requested"
	EventOrderApprovalDecided   = "order.approval.decided"
)

// Event is implemented only by the order lifecycle events below.
type Event interface {
	EventName() string
	OccurredAt() time.Time
	orderEvent()
}

// BaseEvent provides common event metadata.
type BaseEvent struct {
	Timestamp time.Time `json:"timestamp"`
}

// OccurredAt returns when the event occurred.
func (e BaseEvent) OccurredAt() time.Time {
	return e.Timestamp
}

func (BaseEvent) orderEvent() {}

// OrderCreated is raised when an employee places an order.
type OrderCreated struct {
	BaseEvent
	OrderID      int64     `json:"orderId"`
	Code         string    `json:"code"`
	RequesterID  int64     `json:"requesterId"`
	DepartmentID int64     `json:"departmentId"`
	ShiftID      int64     `json:"shiftId"`
	Quantity     int       `json:"quantity"`
	OrderDate    time.Time `json:"orderDate"`
}

// EventName returns the event type identifier.
func (OrderCreated) EventName() string { return EventOrderCreated }

// NewOrderCreated describes the placement of order at at.
func NewOrderCreated(order *Order, at time.Time) OrderCreated {
	return OrderCreated{
		BaseEvent:    BaseEvent{Timestamp: at},
		OrderID:      order.ID,
		Code:         order.Code,
		RequesterID:  order.RequesterEmployeeID,
		DepartmentID: order.DepartmentID,
		ShiftID:      order.ShiftID,
		Quantity:     order.Quantity,
		OrderDate:    order.OrderDate,
	}
}

// OrderStatusChanged is raised whenever the status actually moves.
type OrderStatusChanged struct {
	BaseEvent
	OrderID       int64         `json:"orderId"`
	Code          string        `json:"code"`
	OldStatus     Status        `json:"oldStatus"`
	NewStatus     Status        `json:"newStatus"`
	ChangedBy     int64         `json:"changedBy"`
	ChangedByNIK  string        `json:"changedByNik"`
	ChangedByRole identity.Role `json:"changedByRole"`
	DepartmentID  int64         `json:"departmentId"`
	RequesterID   int64         `json:"requesterId"`
}

// EventName returns the event type identifier.
func (OrderStatusChanged) EventName() string { return EventOrderStatusChanged }

// OrderApprovalRequested is raised when the kitchen opens an exception episode.
type OrderApprovalRequested struct {
	BaseEvent
	OrderID        int64       `json:"orderId"`
	Code           string      `json:"code"`
	RequestType    RequestKind `json:"requestType"`
	RequestedBy    int64       `json:"requestedBy"`
	RequestedByNIK string      `json:"requestedByNik"`
	KitchenNote    string      `json:"kitchenNote"`
	OriginalQty    int         `json:"originalQty"`
	NewQty         *int        `json:"newQty,omitempty"`
	DepartmentID   int64       `json:"departmentId"`
	RequesterID    int64       `json:"requesterId"`
}

// EventName returns the event type identifier.
func (OrderApprovalRequested) EventName() string { return EventOrderApprovalRequested }

// OrderApprovalDecided is raised when an administrator closes an episode.
type OrderApprovalDecided struct {
	BaseEvent
	OrderID         int64          `json:"orderId"`
	Code            string         `json:"code"`
	Decision        ApprovalStatus `json:"decision"`
	DecidedBy       int64          `json:"decidedBy"`
	DecidedByNIK    string         `json:"decidedByNik"`
	AdminNote       *string        `json:"adminNote"`
	OriginalRequest RequestKind    `json:"originalRequest"`
	DepartmentID    int64          `json:"departmentId"`
	RequestedBy     int64          `json:"requestedBy"`
}

// EventName returns the event type identifier.
func (OrderApprovalDecided) EventName() string { return EventOrderApprovalDecided }

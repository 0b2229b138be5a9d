package domain

import (
	"fmt"
	"time"
)

// Action codes written to the audit trail.
const (
	ActionOrderCreated            = "ORDER_CREATED"
	ActionOrderStatusChanged      = "ORDER_STATUS_CHANGED"
	ActionOrderRejectionRequested = "ORDER_REJECTION_REQUESTED"
	ActionOrderEditRequested      = "ORDER_EDIT_REQUESTED"
	ActionApprovalDecided         = "APPROVAL_DECIDED"
)

// Record is one append-only audit entry. Subject is the order code the
// action concerns.
type Record struct {
	ID              int64     `json:"id,omitempty"`
	ActorEmployeeID *int64    `json:"actorEmployeeId"`
	Action          string    `json:"action"`
	Subject         string    `json:"subject,omitempty"`
	Detail          string    `json:"detail"`
	Timestamp       time.Time `json:"timestamp"`
}

func newRecord(actor int64, action, subject, detail string, at time.Time) Record {
	return Record{
		ActorEmployeeID: &actor,
		Action:          action,
		Subject:         subject,
		Detail:          detail,
		Timestamp:       at,
	}
}

// OrderCreated records a new order.
func OrderCreated(actor int64, code string, quantity int, shiftName string, at time.Time) Record {
	detail := fmt.Sprintf("Order %s created: qty=%d, shift=%s", code, quantity, shiftName)
	return newRecord(actor, ActionOrderCreated, code, detail, at)
}

// OrderStatusChanged records a status move.
func OrderStatusChanged(actor int64, code, from, to string, at time.Time) Record {
	detail := fmt.Sprintf("Order %s status changed: %s -> %s", code, from, to)
	return newRecord(actor, ActionOrderStatusChanged, code, detail, at)
}

// RejectionRequested records a kitchen rejection request.
func RejectionRequested(actor int64, code, note string, at time.Time) Record {
	detail := fmt.Sprintf("Kitchen requested rejection for order %s: %s", code, note)
	return newRecord(actor, ActionOrderRejectionRequested, code, detail, at)
}

// EditRequested records a kitchen quantity edit request.
func EditRequested(actor int64, code string, from, to int, note string, at time.Time) Record {
	detail := fmt.Sprintf("Kitchen requested edit for order %s: qty %d -> %d; reason: %s", code, from, to, note)
	return newRecord(actor, ActionOrderEditRequested, code, detail, at)
}

// ApprovalDecided records an administrator decision. request is
// REJECTION_REQUEST or EDIT_REQUEST.
func ApprovalDecided(actor int64, code, decision, request string, note *string, at time.Time) Record {
	detail := fmt.Sprintf("Admin approval decision for order %s: decision=%s, request=%s", code, decision, request)
	if note != nil && *note != "" {
		detail += ", notes=" + *note
	}
	return newRecord(actor, ActionApprovalDecided, code, detail, at)
}

package application

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/Apurer/go-gin-meal-orders/internal/domains/orders/application/types"
	"github.com/Apurer/go-gin-meal-orders/internal/shared/identity"
)

const fingerprintDateLayout = "2006-01-02"

type normalizedCreateOrderInput struct {
	EmployeeID int64  `json:"employeeId"`
	ShiftID    int64  `json:"shiftId"`
	Quantity   int    `json:"quantity"`
	OrderDate  string `json:"orderDate,omitempty"`
}

// IdempotencyScope namespaces a client key by the placing employee so two
// employees never collide on the same key.
func IdempotencyScope(actor identity.Actor, key string) string {
	return fmt.Sprintf("%d:%s", actor.EmployeeID, strings.TrimSpace(key))
}

// FingerprintCreateOrder builds a deterministic hash of a placement request,
// excluding the idempotency key.
func FingerprintCreateOrder(actor identity.Actor, input types.CreateOrderInput) (string, error) {
	normalized := normalizedCreateOrderInput{
		EmployeeID: actor.EmployeeID,
		ShiftID:    input.ShiftID,
		Quantity:   input.Quantity,
	}
	if input.OrderDate != nil {
		normalized.OrderDate = input.OrderDate.Format(fingerprintDateLayout)
	}
	payload, err := json.Marshal(normalized)
	if err != nil {
		return "", err
	}
	sum := sha256.Sum256(payload)
	return hex.EncodeToString(sum[:]), nil
}

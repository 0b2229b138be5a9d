//go:build pact
// +build pact

package pacttest

import (
	"os"
	"path/filepath"
	"runtime"
	"testing"
)

const (
	ProviderName = "meal-orders-api"
	ConsumerName = "kitchen-dashboard"

	StateOrderWaiting = "order 1 is waiting for the kitchen"
	StateOrderMissing = "no order with id 404"
	StateNoOrders     = "no orders exist"
)

const (
	WaitingOrderID int64 = 1
	MissingOrderID int64 = 404

	ExampleDepartmentID int64 = 1
	ExampleShiftID      int64 = 1
	ExampleEmployeeID   int64 = 10
	ExampleKitchenID    int64 = 2
	ExampleQuantity           = 12

	// ExampleToken is replaced by a freshly signed token during provider verification.
	ExampleToken = "kitchen-dashboard-token"
)

// PactDir returns the workspace-level directory for generated pact files.
func PactDir(t testing.TB) string {
	t.Helper()
	dir := filepath.Join(projectRoot(t), "pacts")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatalf("create pact dir: %v", err)
	}
	return dir
}

// PactFile returns the canonical pact file path for the kitchen dashboard consumer.
func PactFile(t testing.TB) string {
	t.Helper()
	return filepath.Join(PactDir(t), ConsumerName+"-"+ProviderName+".json")
}

// LogDir returns the log output directory for pact-go.
func LogDir(t testing.TB) string {
	t.Helper()
	dir := filepath.Join(projectRoot(t), "bin", "pact-logs")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatalf("create pact log dir: %v", err)
	}
	return dir
}

// ExampleOrderPayload is the order the kitchen dashboard expects to read.
func ExampleOrderPayload() map[string]any {
	return map[string]any{
		"id":                  WaitingOrderID,
		"code":                "PM-20240612-001",
		"requesterEmployeeId": ExampleEmployeeID,
		"departmentId":        ExampleDepartmentID,
		"shiftId":             ExampleShiftID,
		"quantity":            ExampleQuantity,
		"status":              "WAITING",
		"orderDate":           "2024-06-12T00:00:00Z",
		"requiresApproval":    false,
	}
}

// projectRoot walks up from this file to the workspace root.
func projectRoot(t testing.TB) string {
	t.Helper()
	_, file, _, ok := runtime.Caller(0)
	if !ok {
		t.Fatal("cannot determine caller for pact paths")
	}
	return filepath.Clean(filepath.Join(filepath.Dir(file), "..", ".."))
}

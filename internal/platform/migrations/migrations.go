package migrations

import (
	"time"

	"gorm.io/gorm"
)

// Run applies the schema for the bounded contexts. Adapters never automigrate.
func Run(db *gorm.DB) error {
	if db == nil {
		return nil
	}
	return db.AutoMigrate(
		&departmentRecord{},
		&shiftRecord{},
		&employeeRecord{},
		&orderRecord{},
		&orderIdempotencyRecord{},
		&auditRecord{},
	)
}

// Department schema mirrors the directory Postgres adapter.
type departmentRecord struct {
	ID        int64     `gorm:"primaryKey;column:id"`
	Name      string    `gorm:"column:name;size:128"`
	CreatedAt time.Time `gorm:"column:created_at"`
	UpdatedAt time.Time `gorm:"column:updated_at"`
}

func (departmentRecord) TableName() string { return "departments" }

// Shift schema mirrors the directory Postgres adapter.
type shiftRecord struct {
	ID           int64     `gorm:"primaryKey;column:id"`
	Name         string    `gorm:"column:name;size:64"`
	StartMinutes int       `gorm:"column:start_minutes"`
	EndMinutes   int       `gorm:"column:end_minutes"`
	CreatedAt    time.Time `gorm:"column:created_at"`
	UpdatedAt    time.Time `gorm:"column:updated_at"`
}

func (shiftRecord) TableName() string { return "shifts" }

// Employee schema mirrors the directory Postgres adapter.
type employeeRecord struct {
	ID           int64     `gorm:"primaryKey;column:id"`
	NIK          string    `gorm:"column:nik;size:32;uniqueIndex"`
	Name         string    `gorm:"column:name;size:128"`
	DepartmentID *int64    `gorm:"column:department_id;index"`
	Role         string    `gorm:"column:role;type:varchar(32)"`
	Active       bool      `gorm:"column:active"`
	CreatedAt    time.Time `gorm:"column:created_at"`
	UpdatedAt    time.Time `gorm:"column:updated_at"`
}

func (employeeRecord) TableName() string { return "employees" }

// Order schema mirrors the orders Postgres adapter. The unique code index
// backs the daily sequence retry.
type orderRecord struct {
	ID                   int64      `gorm:"primaryKey;column:id"`
	Code                 string     `gorm:"column:code;size:32;uniqueIndex:idx_orders_code"`
	RequesterEmployeeID  int64      `gorm:"column:requester_employee_id;index"`
	DepartmentID         int64      `gorm:"column:department_id;index:idx_orders_department_status"`
	ShiftID              int64      `gorm:"column:shift_id"`
	Quantity             int        `gorm:"column:quantity"`
	OriginalQuantity     *int       `gorm:"column:original_quantity"`
	Status               string     `gorm:"column:status;type:varchar(32);index:idx_orders_department_status"`
	OrderDate            time.Time  `gorm:"column:order_date;index"`
	RequiresApproval     bool       `gorm:"column:requires_approval;index"`
	ApprovalStatus       *string    `gorm:"column:approval_status;type:varchar(16)"`
	KitchenNote          *string    `gorm:"column:kitchen_note"`
	AdminNote            *string    `gorm:"column:admin_note"`
	ApprovedByEmployeeID *int64     `gorm:"column:approved_by_employee_id"`
	ProcessedAt          *time.Time `gorm:"column:processed_at"`
	ReadyAt              *time.Time `gorm:"column:ready_at"`
	DispatchedAt         *time.Time `gorm:"column:dispatched_at"`
	CompletedAt          *time.Time `gorm:"column:completed_at"`
	CreatedAt            time.Time  `gorm:"column:created_at;index"`
	UpdatedAt            time.Time  `gorm:"column:updated_at"`
}

func (orderRecord) TableName() string { return "orders" }

// Placement idempotency keys mirror the orders Postgres adapter.
type orderIdempotencyRecord struct {
	Key         string    `gorm:"primaryKey;column:key;size:255"`
	RequestHash string    `gorm:"column:request_hash;size:128"`
	OrderID     int64     `gorm:"column:order_id"`
	CreatedAt   time.Time `gorm:"column:created_at"`
	UpdatedAt   time.Time `gorm:"column:updated_at"`
}

func (orderIdempotencyRecord) TableName() string { return "order_idempotency_keys" }

// Audit schema mirrors the audit Postgres adapter.
type auditRecord struct {
	ID              int64     `gorm:"primaryKey;column:id"`
	ActorEmployeeID *int64    `gorm:"column:actor_employee_id;index"`
	Action          string    `gorm:"column:action;type:varchar(64);index:idx_audit_logs_subject_action"`
	Subject         string    `gorm:"column:subject;type:varchar(64);index:idx_audit_logs_subject_action"`
	Detail          string    `gorm:"column:detail;type:text"`
	Timestamp       time.Time `gorm:"column:logged_at;index"`
}

func (auditRecord) TableName() string { return "audit_logs" }

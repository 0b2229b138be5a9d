package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/lib/pq"
	"gorm.io/gorm"

	"github.com/Apurer/go-gin-meal-orders/internal/domains/orders/application/types"
	"github.com/Apurer/go-gin-meal-orders/internal/domains/orders/domain"
	"github.com/Apurer/go-gin-meal-orders/internal/domains/orders/ports"
)

var _ ports.Repository = (*Repository)(nil)

const (
	uniqueViolation = "23505"
	codeIndex       = "idx_orders_code"
)

// Repository persists orders in PostgreSQL using GORM.
type Repository struct {
	db *gorm.DB
}

// NewRepository wires a PostgreSQL-backed repository. Schema is owned by the
// migrations package; caller manages DB lifecycle.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// orderRecord maps the order aggregate to the orders table.
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

// CountByDate counts orders placed for orderDate.
func (r *Repository) CountByDate(ctx context.Context, orderDate time.Time) (int64, error) {
	if err := r.ensureDB(); err != nil {
		return 0, err
	}
	var count int64
	err := r.db.WithContext(ctx).Model(&orderRecord{}).Where("order_date = ?", orderDate).Count(&count).Error
	return count, err
}

// Create inserts a new order and assigns its identifier.
func (r *Repository) Create(ctx context.Context, order *domain.Order) (*types.OrderProjection, error) {
	if err := r.ensureDB(); err != nil {
		return nil, err
	}
	if order == nil {
		return nil, errors.New("order is nil")
	}
	record := toRecord(order)
	record.ID = 0
	if err := r.db.WithContext(ctx).Create(&record).Error; err != nil {
		if isDuplicateCode(err) {
			return nil, ports.ErrDuplicateCode
		}
		return nil, err
	}
	order.ID = record.ID
	return record.toProjection(), nil
}

// GetByID fetches an order by identifier.
func (r *Repository) GetByID(ctx context.Context, id int64) (*types.OrderProjection, error) {
	if err := r.ensureDB(); err != nil {
		return nil, err
	}
	var record orderRecord
	if err := r.db.WithContext(ctx).First(&record, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ports.ErrNotFound
		}
		return nil, err
	}
	return record.toProjection(), nil
}

// Update writes order only if the stored row still matches expect.
func (r *Repository) Update(ctx context.Context, order *domain.Order, expect ports.Guard) (*types.OrderProjection, error) {
	if err := r.ensureDB(); err != nil {
		return nil, err
	}
	if order == nil {
		return nil, errors.New("order is nil")
	}
	record := toRecord(order)
	query := r.db.WithContext(ctx).Model(&orderRecord{}).
		Where("id = ? AND status = ?", order.ID, string(expect.Status))
	if expect.ApprovalStatus == nil {
		query = query.Where("approval_status IS NULL")
	} else {
		query = query.Where("approval_status = ?", string(*expect.ApprovalStatus))
	}
	result := query.Updates(map[string]any{
		"quantity":                record.Quantity,
		"original_quantity":       record.OriginalQuantity,
		"status":                  record.Status,
		"requires_approval":       record.RequiresApproval,
		"approval_status":         record.ApprovalStatus,
		"kitchen_note":            record.KitchenNote,
		"admin_note":              record.AdminNote,
		"approved_by_employee_id": record.ApprovedByEmployeeID,
		"processed_at":            record.ProcessedAt,
		"ready_at":                record.ReadyAt,
		"dispatched_at":           record.DispatchedAt,
		"completed_at":            record.CompletedAt,
		"updated_at":              gorm.Expr("NOW()"),
	})
	if result.Error != nil {
		return nil, result.Error
	}
	if result.RowsAffected == 0 {
		if _, err := r.GetByID(ctx, order.ID); err != nil {
			return nil, err
		}
		return nil, ports.ErrConflict
	}
	return r.GetByID(ctx, order.ID)
}

// List returns one page of orders matching query, newest first, plus the
// total number of matches.
func (r *Repository) List(ctx context.Context, query ports.ListQuery) ([]*types.OrderProjection, int64, error) {
	if err := r.ensureDB(); err != nil {
		return nil, 0, err
	}
	filtered := applyFilters(r.db.WithContext(ctx).Model(&orderRecord{}), query)

	var total int64
	if err := filtered.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}
	page := filtered.Session(&gorm.Session{}).Order("created_at DESC").Order("id DESC")
	if query.Offset > 0 {
		page = page.Offset(query.Offset)
	}
	if query.Limit > 0 {
		page = page.Limit(query.Limit)
	}
	var records []orderRecord
	if err := page.Find(&records).Error; err != nil {
		return nil, 0, err
	}
	list := make([]*types.OrderProjection, 0, len(records))
	for i := range records {
		list = append(list, records[i].toProjection())
	}
	return list, total, nil
}

func applyFilters(db *gorm.DB, query ports.ListQuery) *gorm.DB {
	if len(query.Statuses) > 0 {
		statuses := make([]string, 0, len(query.Statuses))
		for _, s := range query.Statuses {
			statuses = append(statuses, string(s))
		}
		db = db.Where("status = ANY(?)", pq.Array(statuses))
	}
	if query.RequesterID != nil {
		db = db.Where("requester_employee_id = ?", *query.RequesterID)
	}
	if query.Status != nil {
		db = db.Where("status = ?", string(*query.Status))
	}
	if query.DepartmentID != nil {
		db = db.Where("department_id = ?", *query.DepartmentID)
	}
	if query.ShiftID != nil {
		db = db.Where("shift_id = ?", *query.ShiftID)
	}
	if query.From != nil {
		db = db.Where("order_date >= ?", *query.From)
	}
	if query.To != nil {
		db = db.Where("order_date <= ?", *query.To)
	}
	if query.RequiresApproval != nil {
		db = db.Where("requires_approval = ?", *query.RequiresApproval)
	}
	if query.ApprovalStatus != nil {
		db = db.Where("approval_status = ?", string(*query.ApprovalStatus))
	}
	return db
}

func isDuplicateCode(err error) bool {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return false
	}
	return pgErr.Code == uniqueViolation && (pgErr.ConstraintName == "" || pgErr.ConstraintName == codeIndex)
}

func (r *Repository) ensureDB() error {
	if r == nil || r.db == nil {
		return errors.New("postgres order repository not configured")
	}
	return nil
}

func toRecord(order *domain.Order) orderRecord {
	rec := orderRecord{
		ID:                   order.ID,
		Code:                 order.Code,
		RequesterEmployeeID:  order.RequesterEmployeeID,
		DepartmentID:         order.DepartmentID,
		ShiftID:              order.ShiftID,
		Quantity:             order.Quantity,
		OriginalQuantity:     order.OriginalQuantity,
		Status:               string(order.Status),
		OrderDate:            order.OrderDate,
		RequiresApproval:     order.RequiresApproval,
		KitchenNote:          order.KitchenNote,
		AdminNote:            order.AdminNote,
		ApprovedByEmployeeID: order.ApprovedByEmployeeID,
		ProcessedAt:          order.ProcessedAt,
		ReadyAt:              order.ReadyAt,
		DispatchedAt:         order.DispatchedAt,
		CompletedAt:          order.CompletedAt,
	}
	if order.ApprovalStatus != nil {
		status := string(*order.ApprovalStatus)
		rec.ApprovalStatus = &status
	}
	return rec
}

func (r orderRecord) toProjection() *types.OrderProjection {
	order := &domain.Order{
		ID:                   r.ID,
		Code:                 r.Code,
		RequesterEmployeeID:  r.RequesterEmployeeID,
		DepartmentID:         r.DepartmentID,
		ShiftID:              r.ShiftID,
		Quantity:             r.Quantity,
		OriginalQuantity:     r.OriginalQuantity,
		Status:               domain.Status(r.Status),
		OrderDate:            r.OrderDate,
		RequiresApproval:     r.RequiresApproval,
		KitchenNote:          r.KitchenNote,
		AdminNote:            r.AdminNote,
		ApprovedByEmployeeID: r.ApprovedByEmployeeID,
		ProcessedAt:          r.ProcessedAt,
		ReadyAt:              r.ReadyAt,
		DispatchedAt:         r.DispatchedAt,
		CompletedAt:          r.CompletedAt,
	}
	if r.ApprovalStatus != nil {
		status := domain.ApprovalStatus(*r.ApprovalStatus)
		order.ApprovalStatus = &status
	}
	return types.NewOrderProjection(order.Clone(), r.CreatedAt, r.UpdatedAt)
}

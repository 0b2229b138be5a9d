package postgres

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/Apurer/go-gin-meal-orders/internal/domains/audit/domain"
	"github.com/Apurer/go-gin-meal-orders/internal/domains/audit/ports"
)

var _ ports.Store = (*Store)(nil)

// Store persists the audit trail in PostgreSQL using GORM.
type Store struct {
	db *gorm.DB
}

// NewStore wires a PostgreSQL-backed audit store. Schema is owned by the
// migrations package.
func NewStore(db *gorm.DB) *Store {
	return &Store{db: db}
}

type auditRecord struct {
	ID              int64     `gorm:"primaryKey;column:id"`
	ActorEmployeeID *int64    `gorm:"column:actor_employee_id;index"`
	Action          string    `gorm:"column:action;type:varchar(64);index:idx_audit_logs_subject_action"`
	Subject         string    `gorm:"column:subject;type:varchar(64);index:idx_audit_logs_subject_action"`
	Detail          string    `gorm:"column:detail;type:text"`
	Timestamp       time.Time `gorm:"column:logged_at;index"`
}

func (auditRecord) TableName() string { return "audit_logs" }

// Append inserts records in a single statement.
func (s *Store) Append(ctx context.Context, records ...domain.Record) error {
	if err := s.ensureDB(); err != nil {
		return err
	}
	if len(records) == 0 {
		return nil
	}
	rows := make([]auditRecord, 0, len(records))
	for _, rec := range records {
		rows = append(rows, toRecord(rec))
	}
	return s.db.WithContext(ctx).Create(&rows).Error
}

// LatestActor returns the actor of the newest matching record.
func (s *Store) LatestActor(ctx context.Context, action, subject string) (*int64, error) {
	if err := s.ensureDB(); err != nil {
		return nil, err
	}
	var rec auditRecord
	err := s.db.WithContext(ctx).
		Where("action = ? AND subject = ?", action, subject).
		Order("logged_at DESC").
		Order("id DESC").
		Take(&rec).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return rec.ActorEmployeeID, nil
}

// List returns records newest first.
func (s *Store) List(ctx context.Context, filter ports.Filter) ([]domain.Record, error) {
	if err := s.ensureDB(); err != nil {
		return nil, err
	}
	query := s.db.WithContext(ctx).Model(&auditRecord{})
	if filter.Action != "" {
		query = query.Where("action = ?", filter.Action)
	}
	if filter.Subject != "" {
		query = query.Where("subject = ?", filter.Subject)
	}
	if filter.Limit > 0 {
		query = query.Limit(filter.Limit)
	}
	var rows []auditRecord
	if err := query.Order("logged_at DESC").Order("id DESC").Find(&rows).Error; err != nil {
		return nil, err
	}
	out := make([]domain.Record, 0, len(rows))
	for _, row := range rows {
		out = append(out, fromRecord(row))
	}
	return out, nil
}

func (s *Store) ensureDB() error {
	if s == nil || s.db == nil {
		return errors.New("postgres audit store not configured")
	}
	return nil
}

func toRecord(rec domain.Record) auditRecord {
	return auditRecord{
		ActorEmployeeID: rec.ActorEmployeeID,
		Action:          rec.Action,
		Subject:         rec.Subject,
		Detail:          rec.Detail,
		Timestamp:       rec.Timestamp,
	}
}

func fromRecord(row auditRecord) domain.Record {
	return domain.Record{
		ID:              row.ID,
		ActorEmployeeID: row.ActorEmployeeID,
		Action:          row.Action,
		Subject:         row.Subject,
		Detail:          row.Detail,
		Timestamp:       row.Timestamp,
	}
}

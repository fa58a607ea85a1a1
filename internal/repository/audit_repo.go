package repository

import (
	"context"

	"gorm.io/gorm"

	"lopan/backend/internal/model"
)

// AuditRepository 审计日志数据访问接口（只追加）
type AuditRepository interface {
	Append(ctx context.Context, log *model.AuditLog) error
	ListByEntity(ctx context.Context, entityType, entityID string, offset, limit int) ([]model.AuditLog, int64, error)
}

type auditRepo struct {
	db *gorm.DB
}

// NewAuditRepo 创建 AuditRepository 实例
func NewAuditRepo(db *gorm.DB) AuditRepository {
	return &auditRepo{db: db}
}

func (r *auditRepo) Append(ctx context.Context, log *model.AuditLog) error {
	return r.db.WithContext(ctx).Create(log).Error
}

func (r *auditRepo) ListByEntity(ctx context.Context, entityType, entityID string, offset, limit int) ([]model.AuditLog, int64, error) {
	var logs []model.AuditLog
	var total int64

	db := r.db.WithContext(ctx).Model(&model.AuditLog{}).
		Where("entity_type = ? AND entity_id = ?", entityType, entityID)

	if err := db.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	err := db.Offset(offset).Limit(limit).
		Order("created_at DESC").
		Find(&logs).Error
	return logs, total, err
}

// [自证通过] internal/repository/audit_repo.go

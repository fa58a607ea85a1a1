package handler

import (
	"errors"
	"time"

	"github.com/gin-gonic/gin"

	"lopan/backend/internal/dto"
	"lopan/backend/internal/service"
	"lopan/backend/pkg/response"
)

// BatchHandler 批次模块 HTTP 处理器
type BatchHandler struct {
	batchSvc       service.BatchService
	coordinatorSvc service.CoordinatorService
}

// NewBatchHandler 创建 BatchHandler
func NewBatchHandler(batchSvc service.BatchService, coordinatorSvc service.CoordinatorService) *BatchHandler {
	return &BatchHandler{batchSvc: batchSvc, coordinatorSvc: coordinatorSvc}
}

// CreateBatch 创建批次
// POST /api/v1/batches
func (h *BatchHandler) CreateBatch(c *gin.Context) {
	var req dto.CreateBatchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	operatorID, _ := GetOperator(c)
	batch, err := h.batchSvc.Create(c.Request.Context(), &req, operatorID)
	if err != nil {
		h.handleBatchError(c, err)
		return
	}

	response.Created(c, toBatchResponse(batch))
}

// ListBatches 批次列表
// GET /api/v1/batches
func (h *BatchHandler) ListBatches(c *gin.Context) {
	var req dto.BatchListRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	batches, total, err := h.batchSvc.List(c.Request.Context(), &req)
	if err != nil {
		response.InternalError(c)
		return
	}

	list := make([]dto.BatchResponse, 0, len(batches))
	for i := range batches {
		list = append(list, toBatchResponse(&batches[i]))
	}
	response.OKPage(c, list, total, req.GetPage(), req.GetPageSize())
}

// GetBatch 批次详情
// GET /api/v1/batches/:id
func (h *BatchHandler) GetBatch(c *gin.Context) {
	batch, err := h.batchSvc.GetByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.handleBatchError(c, err)
		return
	}
	response.OK(c, toBatchResponse(batch))
}

// GetStationOptions 批次当前工位可用情况与数量选项
// GET /api/v1/batches/:id/station-options?mode=xxx&gun=xxx
func (h *BatchHandler) GetStationOptions(c *gin.Context) {
	var req dto.StationOptionsRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	options, err := h.batchSvc.StationOptions(c.Request.Context(), c.Param("id"), req.Mode, req.Gun)
	if err != nil {
		h.handleBatchError(c, err)
		return
	}
	response.OK(c, options)
}

// GetCutoffInfo 指定日期的可选班次与截止提示
// GET /api/v1/batches/cutoff-info?date=2026-08-30
func (h *BatchHandler) GetCutoffInfo(c *gin.Context) {
	dateStr := c.Query("date")
	if dateStr == "" {
		response.BadRequest(c, 10001, "date 不能为空")
		return
	}
	date, err := time.ParseInLocation("2006-01-02", dateStr, time.Local)
	if err != nil {
		response.BadRequest(c, 10001, "date 格式须为 YYYY-MM-DD")
		return
	}

	info, allowed := h.batchSvc.CutoffInfo(date)
	response.OK(c, dto.CutoffInfoResponse{
		AllowedShifts:  allowed,
		HasRestriction: info.HasRestriction,
		Message:        info.Message,
	})
}

// GetInheritableProducts 上一班次可继承产品（经协调器缓存）
// GET /api/v1/batches/inheritable-products?machine_id=xxx&target_date=xxx&shift=xxx
func (h *BatchHandler) GetInheritableProducts(c *gin.Context) {
	var req dto.InheritableProductsRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}
	date, err := time.ParseInLocation("2006-01-02", req.TargetDate, time.Local)
	if err != nil {
		response.BadRequest(c, 10001, "target_date 格式须为 YYYY-MM-DD")
		return
	}

	products, err := h.coordinatorSvc.GetInheritableProducts(c.Request.Context(), req.MachineID, date, req.Shift)
	if err != nil {
		h.handleBatchError(c, err)
		return
	}

	list := make([]dto.InheritableProductResponse, 0, len(products))
	for i := range products {
		list = append(list, toInheritableResponse(&products[i]))
	}
	response.OK(c, gin.H{"list": list})
}

// AddProduct 批次内新增产品配置
// POST /api/v1/batches/:id/products
func (h *BatchHandler) AddProduct(c *gin.Context) {
	var req dto.AddProductRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	operatorID, _ := GetOperator(c)
	batch, err := h.batchSvc.AddProduct(c.Request.Context(), c.Param("id"), &req, operatorID)
	if err != nil {
		h.handleBatchError(c, err)
		return
	}
	response.OK(c, toBatchResponse(batch))
}

// AddInheritedProduct 将上一班次的产品继承进批次（仅颜色可覆盖）
// POST /api/v1/batches/:id/inherited-products
func (h *BatchHandler) AddInheritedProduct(c *gin.Context) {
	var req dto.AddInheritedProductRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	operatorID, _ := GetOperator(c)
	batch, err := h.batchSvc.AddInheritedProduct(c.Request.Context(), c.Param("id"), &req, operatorID)
	if err != nil {
		h.handleBatchError(c, err)
		return
	}
	response.OK(c, toBatchResponse(batch))
}

// RemoveProduct 批次内移除产品配置
// DELETE /api/v1/batches/:id/products/:configId
func (h *BatchHandler) RemoveProduct(c *gin.Context) {
	operatorID, _ := GetOperator(c)
	batch, err := h.batchSvc.RemoveProduct(c.Request.Context(), c.Param("id"), c.Param("configId"), operatorID)
	if err != nil {
		h.handleBatchError(c, err)
		return
	}
	response.OK(c, toBatchResponse(batch))
}

// SubmitBatch 提交批次进入待审批
// POST /api/v1/batches/:id/submit
func (h *BatchHandler) SubmitBatch(c *gin.Context) {
	var req dto.SubmitBatchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	operatorID, operatorName := GetOperator(c)
	batch, err := h.batchSvc.Submit(c.Request.Context(), c.Param("id"), req.Force, operatorID, operatorName)
	if err != nil {
		h.handleBatchError(c, err)
		return
	}
	response.OK(c, toBatchResponse(batch))
}

// ApproveBatch 批准批次
// POST /api/v1/batches/:id/approve
func (h *BatchHandler) ApproveBatch(c *gin.Context) {
	var req dto.ReviewBatchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	operatorID, _ := GetOperator(c)
	batch, err := h.batchSvc.Approve(c.Request.Context(), c.Param("id"), operatorID, req.Notes)
	if err != nil {
		h.handleBatchError(c, err)
		return
	}
	response.OK(c, toBatchResponse(batch))
}

// RejectBatch 驳回批次
// POST /api/v1/batches/:id/reject
func (h *BatchHandler) RejectBatch(c *gin.Context) {
	var req dto.ReviewBatchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	operatorID, _ := GetOperator(c)
	batch, err := h.batchSvc.Reject(c.Request.Context(), c.Param("id"), operatorID, req.Notes)
	if err != nil {
		h.handleBatchError(c, err)
		return
	}
	response.OK(c, toBatchResponse(batch))
}

// ExecuteBatch 开始执行批次
// POST /api/v1/batches/:id/execute
func (h *BatchHandler) ExecuteBatch(c *gin.Context) {
	var req dto.ExecuteBatchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}
	executionTime, err := time.Parse(time.RFC3339, req.ExecutionTime)
	if err != nil {
		response.BadRequest(c, 10001, "execution_time 格式须为 RFC3339")
		return
	}

	operatorID, _ := GetOperator(c)
	batch, err := h.batchSvc.Execute(c.Request.Context(), c.Param("id"), executionTime, operatorID)
	if err != nil {
		h.handleBatchError(c, err)
		return
	}
	response.OK(c, toBatchResponse(batch))
}

// CompleteBatch 手动完成批次
// POST /api/v1/batches/:id/complete
func (h *BatchHandler) CompleteBatch(c *gin.Context) {
	operatorID, _ := GetOperator(c)
	batch, err := h.batchSvc.Complete(c.Request.Context(), c.Param("id"), operatorID)
	if err != nil {
		h.handleBatchError(c, err)
		return
	}
	response.OK(c, toBatchResponse(batch))
}

// handleBatchError 批次模块业务错误 → HTTP 响应
func (h *BatchHandler) handleBatchError(c *gin.Context, err error) {
	var (
		scheduleConflict *service.ScheduleConflictError
		stationConflict  *service.StationConflictError
		invalidCount     *service.InvalidStationCountError
		insufficient     *service.InsufficientCapacityError
		inheritance      *service.InheritanceUnavailableError
		invalidExecTime  *service.InvalidExecutionTimeError
	)

	switch {
	case errors.Is(err, service.ErrBatchNotFound):
		response.NotFound(c, 13001, "批次不存在")
	case errors.Is(err, service.ErrMachineNotFound):
		response.NotFound(c, 12001, "机台不存在")
	case errors.Is(err, service.ErrProductNotFound):
		response.NotFound(c, 13002, "产品配置不存在")
	case errors.Is(err, service.ErrMachineNotOperational),
		errors.Is(err, service.ErrInvalidMode),
		errors.Is(err, service.ErrInvalidShift),
		errors.Is(err, service.ErrDateShiftRequired),
		errors.Is(err, service.ErrBatchEmpty),
		errors.Is(err, service.ErrTooManyProducts),
		errors.Is(err, service.ErrReviewNotesRequired),
		errors.Is(err, service.ErrNotShiftScoped):
		response.BadRequest(c, 13003, err.Error())
	case errors.Is(err, service.ErrInheritedStationsLocked):
		response.BadRequest(c, 13013, err.Error())
	case errors.Is(err, service.ErrBatchNotEditable),
		errors.Is(err, service.ErrInvalidTransition):
		response.Conflict(c, 13004, err.Error())
	case errors.Is(err, service.ErrShiftRestricted):
		response.Forbidden(c, 13005, err.Error())
	case errors.Is(err, service.ErrMachineBlocked):
		response.Forbidden(c, 13006, err.Error())
	case errors.As(err, &scheduleConflict):
		response.ErrorWithDetails(c, 409, 13007, err.Error(), scheduleConflict.ConflictBatchID)
	case errors.As(err, &stationConflict):
		response.Conflict(c, 13008, err.Error())
	case errors.As(err, &invalidCount):
		response.BadRequest(c, 13009, err.Error())
	case errors.As(err, &insufficient):
		response.BadRequest(c, 13010, err.Error())
	case errors.As(err, &invalidExecTime):
		response.BadRequest(c, 13011, err.Error())
	case errors.As(err, &inheritance):
		response.NotFound(c, 13012, err.Error())
	default:
		response.InternalError(c)
	}
}

// [自证通过] internal/api/handler/batch_handler.go

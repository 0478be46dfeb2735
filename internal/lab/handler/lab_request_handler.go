package handler

import (
	"errors"
	"net/http"
	"time"

	"github.com/bitfantasy/labtrack/internal/lab/entity"
	"github.com/bitfantasy/labtrack/internal/lab/repository"
	"github.com/bitfantasy/labtrack/internal/lab/service"
	"github.com/gin-gonic/gin"
)

// LabRequestHandler 委托单处理器
type LabRequestHandler struct {
	svc *service.LabRequestService
}

func NewLabRequestHandler(svc *service.LabRequestService) *LabRequestHandler {
	return &LabRequestHandler{svc: svc}
}

// Create 创建委托单
// POST /lab-requests
func (h *LabRequestHandler) Create(c *gin.Context) {
	var req service.CreateLabRequestReq
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "请求参数错误: "+err.Error())
		return
	}

	labReq, err := h.svc.Create(c.Request.Context(), req)
	if err != nil {
		BadRequest(c, err.Error())
		return
	}

	Created(c, gin.H{
		"id":              labReq.ID,
		"request_code":    labReq.RequestCode,
		"status":          labReq.Status,
		"detailed_status": labReq.DetailedStatus,
	})
}

// List 委托单列表
// GET /lab-requests
func (h *LabRequestHandler) List(c *gin.Context) {
	items, err := h.svc.List(c.Request.Context())
	if err != nil {
		InternalError(c, err.Error())
		return
	}
	Success(c, gin.H{"items": items})
}

// GetFull 委托单完整详情
// GET /lab-requests/:id/full
func (h *LabRequestHandler) GetFull(c *gin.Context) {
	id := c.Param("id")

	full, err := h.svc.GetFull(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			NotFound(c, "委托单不存在")
			return
		}
		InternalError(c, err.Error())
		return
	}

	Success(c, full)
}

// Timeline 客户时间轴
// GET /lab-requests/:id/timeline
func (h *LabRequestHandler) Timeline(c *gin.Context) {
	id := c.Param("id")

	timeline, err := h.svc.Timeline(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			NotFound(c, "委托单不存在")
			return
		}
		InternalError(c, err.Error())
		return
	}

	Success(c, gin.H{"timeline": timeline})
}

// UpdateStatusReq 高层状态更新请求
type UpdateStatusReq struct {
	Status    string `json:"status" binding:"required,oneof=Pending 'In Progress' Completed Rejected"`
	ChangedBy string `json:"changed_by"`
}

// UpdateStatus 更新高层状态
// PUT /lab-requests/:id/status
func (h *LabRequestHandler) UpdateStatus(c *gin.Context) {
	id := c.Param("id")

	var req UpdateStatusReq
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "请求参数错误: "+err.Error())
		return
	}

	changedBy := req.ChangedBy
	if changedBy == "" {
		changedBy = GetUserID(c)
	}

	labReq, err := h.svc.SetStatus(c.Request.Context(), id, req.Status, changedBy)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			NotFound(c, "委托单不存在")
			return
		}
		InternalError(c, err.Error())
		return
	}

	Success(c, labReq)
}

// UpdateDetailedStatusReq 细分状态更新请求
type UpdateDetailedStatusReq struct {
	DetailedStatus string `json:"detailed_status" binding:"required"`
	Reason         string `json:"reason"`
}

// UpdateDetailedStatus 更新细分状态
// PUT /lab-requests/:id/detailed-status
func (h *LabRequestHandler) UpdateDetailedStatus(c *gin.Context) {
	id := c.Param("id")

	var req UpdateDetailedStatusReq
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "请求参数错误: "+err.Error())
		return
	}

	labReq, err := h.svc.SetDetailedStatus(c.Request.Context(), id, req.DetailedStatus, req.Reason, GetUserID(c))
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			NotFound(c, "委托单不存在")
			return
		}
		InternalError(c, err.Error())
		return
	}

	Success(c, labReq)
}

// AddProgress 上报进度
// POST /lab-requests/:id/progress
func (h *LabRequestHandler) AddProgress(c *gin.Context) {
	id := c.Param("id")

	var req service.AddProgressReq
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "请求参数错误: "+err.Error())
		return
	}

	progress, err := h.svc.AddProgress(c.Request.Context(), id, req, GetUserID(c))
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			NotFound(c, "委托单不存在")
			return
		}
		InternalError(c, err.Error())
		return
	}

	Created(c, progress)
}

// AssignEngineer 分配工程师
// PUT /lab-requests/:id/assign
func (h *LabRequestHandler) AssignEngineer(c *gin.Context) {
	id := c.Param("id")

	var req service.AssignEngineerReq
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "请求参数错误: "+err.Error())
		return
	}

	assignment, err := h.svc.AssignEngineer(c.Request.Context(), id, req.EngineerID, GetUserID(c))
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			NotFound(c, "委托单不存在")
			return
		}
		InternalError(c, err.Error())
		return
	}

	Created(c, assignment)
}

// CreateSchedule 创建排期
// POST /lab-requests/:id/schedule
func (h *LabRequestHandler) CreateSchedule(c *gin.Context) {
	id := c.Param("id")

	var req service.CreateScheduleReq
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "请求参数错误: "+err.Error())
		return
	}

	start, err := time.Parse(time.RFC3339, req.StartDatetime)
	if err != nil {
		BadRequest(c, "start_datetime 格式错误")
		return
	}
	end, err := time.Parse(time.RFC3339, req.EndDatetime)
	if err != nil {
		BadRequest(c, "end_datetime 格式错误")
		return
	}
	if !end.After(start) {
		BadRequest(c, "结束时间必须晚于开始时间")
		return
	}

	schedule := &entity.LabSchedule{
		LabRequestID:   id,
		EngineerID:     req.EngineerID,
		StartDatetime:  start,
		EndDatetime:    end,
		ScheduleStatus: req.ScheduleStatus,
	}

	created, err := h.svc.CreateSchedule(c.Request.Context(), schedule)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			NotFound(c, "委托单不存在")
			return
		}
		InternalError(c, err.Error())
		return
	}

	Created(c, created)
}

// Export 导出委托单列表
// GET /lab-requests/export
func (h *LabRequestHandler) Export(c *gin.Context) {
	f, err := h.svc.ExportXLSX(c.Request.Context())
	if err != nil {
		InternalError(c, err.Error())
		return
	}

	c.Header("Content-Disposition", `attachment; filename="lab_requests.xlsx"`)
	c.Header("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	if err := f.Write(c.Writer); err != nil {
		c.Status(http.StatusInternalServerError)
	}
}

package handler

import (
	"errors"

	"github.com/bitfantasy/labtrack/internal/intake/service"
	labhandler "github.com/bitfantasy/labtrack/internal/lab/handler"
	labrepo "github.com/bitfantasy/labtrack/internal/lab/repository"
	"github.com/gin-gonic/gin"
)

// CalibrationHandler 校准申请单处理器
type CalibrationHandler struct {
	svc *service.CalibrationService
}

func NewCalibrationHandler(svc *service.CalibrationService) *CalibrationHandler {
	return &CalibrationHandler{svc: svc}
}

// Create 创建草稿申请单
// POST /calibration-requests
func (h *CalibrationHandler) Create(c *gin.Context) {
	req, err := h.svc.Create(c.Request.Context())
	if err != nil {
		labhandler.InternalError(c, err.Error())
		return
	}
	labhandler.Created(c, req)
}

// SaveProductDetails 保存产品信息
// PUT /calibration-requests/:id/product-details
func (h *CalibrationHandler) SaveProductDetails(c *gin.Context) {
	var req service.SaveProductDetailsReq
	if err := c.ShouldBindJSON(&req); err != nil {
		labhandler.BadRequest(c, "请求参数错误: "+err.Error())
		return
	}

	details, err := h.svc.SaveProductDetails(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		if errors.Is(err, labrepo.ErrNotFound) {
			labhandler.NotFound(c, "校准申请单不存在")
			return
		}
		labhandler.InternalError(c, err.Error())
		return
	}
	labhandler.Success(c, details)
}

// Submit 提交申请单
// POST /calibration-requests/:id/submit
func (h *CalibrationHandler) Submit(c *gin.Context) {
	var req service.SubmitReq
	if err := c.ShouldBindJSON(&req); err != nil {
		labhandler.BadRequest(c, "请求参数错误: "+err.Error())
		return
	}

	calReq, err := h.svc.Submit(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		if errors.Is(err, labrepo.ErrNotFound) {
			labhandler.NotFound(c, "校准申请单不存在")
			return
		}
		labhandler.InternalError(c, err.Error())
		return
	}
	labhandler.Success(c, calReq)
}

// Status 状态视图
// GET /calibration-requests/:id/status
func (h *CalibrationHandler) Status(c *gin.Context) {
	view, err := h.svc.Status(c.Request.Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, labrepo.ErrNotFound) {
			labhandler.NotFound(c, "校准申请单不存在")
			return
		}
		labhandler.InternalError(c, err.Error())
		return
	}
	labhandler.Success(c, view)
}

package handler

import (
	"errors"

	"github.com/bitfantasy/labtrack/internal/lab/repository"
	"github.com/bitfantasy/labtrack/internal/lab/service"
	"github.com/gin-gonic/gin"
)

// QuoteHandler 报价处理器
type QuoteHandler struct {
	svc *service.QuoteService
}

func NewQuoteHandler(svc *service.QuoteService) *QuoteHandler {
	return &QuoteHandler{svc: svc}
}

// Create 发送报价
// POST /lab-requests/:id/quotes
func (h *QuoteHandler) Create(c *gin.Context) {
	labRequestID := c.Param("id")

	var req service.CreateQuoteReq
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "请求参数错误: "+err.Error())
		return
	}

	quote, err := h.svc.CreateQuote(c.Request.Context(), labRequestID, req, GetUserID(c))
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			NotFound(c, "委托单不存在")
			return
		}
		BadRequest(c, err.Error())
		return
	}

	Created(c, quote)
}

// Respond 客户响应报价
// PUT /lab-requests/quotes/:quoteId/respond
func (h *QuoteHandler) Respond(c *gin.Context) {
	var req service.RespondQuoteReq
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "请求参数错误: "+err.Error())
		return
	}

	quote, err := h.svc.RespondQuote(c.Request.Context(), c.Param("quoteId"), req, GetUserID(c))
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			NotFound(c, "报价不存在")
			return
		}
		BadRequest(c, err.Error())
		return
	}

	Success(c, quote)
}

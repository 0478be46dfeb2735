package handler

import (
	"github.com/bitfantasy/labtrack/internal/lab/service"
	"github.com/gin-gonic/gin"
)

// Handlers 实验室模块处理器集合
type Handlers struct {
	LabRequest *LabRequestHandler
	Document   *DocumentHandler
	Quote      *QuoteHandler
	SSE        *SSEHandler
}

// NewHandlers 创建处理器集合
func NewHandlers(services *service.Services) *Handlers {
	return &Handlers{
		LabRequest: NewLabRequestHandler(services.LabRequest),
		Document:   NewDocumentHandler(services.Document),
		Quote:      NewQuoteHandler(services.Quote),
		SSE:        NewSSEHandler(),
	}
}

// === 响应辅助函数 ===

type Response struct {
	Code    int         `json:"code"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

func Success(c *gin.Context, data interface{}) {
	c.JSON(200, Response{
		Code:    0,
		Message: "success",
		Data:    data,
	})
}

func Created(c *gin.Context, data interface{}) {
	c.JSON(201, Response{
		Code:    0,
		Message: "success",
		Data:    data,
	})
}

func Error(c *gin.Context, code int, message string) {
	statusCode := code / 100
	if statusCode < 100 || statusCode > 599 {
		statusCode = 500
	}
	c.JSON(statusCode, Response{
		Code:    code,
		Message: message,
	})
}

func BadRequest(c *gin.Context, message string) {
	Error(c, 40000, message)
}

func NotFound(c *gin.Context, message string) {
	Error(c, 40400, message)
}

func InternalError(c *gin.Context, message string) {
	Error(c, 50000, message)
}

// GetUserID 从JWT claims取当前用户，未认证场景回落到system
func GetUserID(c *gin.Context) string {
	userID, _ := c.Get("user_id")
	if id, ok := userID.(string); ok && id != "" {
		return id
	}
	return "system"
}

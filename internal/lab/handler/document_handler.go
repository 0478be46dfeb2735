package handler

import (
	"errors"
	"io"
	"net/http"

	"github.com/bitfantasy/labtrack/internal/lab/repository"
	"github.com/bitfantasy/labtrack/internal/lab/service"
	"github.com/gin-gonic/gin"
)

// DocumentHandler 文档处理器
type DocumentHandler struct {
	svc *service.DocumentService
}

func NewDocumentHandler(svc *service.DocumentService) *DocumentHandler {
	return &DocumentHandler{svc: svc}
}

// Upload 上传文档
// POST /lab-requests/:id/documents
func (h *DocumentHandler) Upload(c *gin.Context) {
	labRequestID := c.Param("id")

	form, err := c.MultipartForm()
	if err != nil {
		BadRequest(c, "请求参数错误: "+err.Error())
		return
	}

	files := form.File["files"]
	docTypes := form.Value["doc_types"]
	if len(files) == 0 {
		BadRequest(c, "缺少上传文件")
		return
	}

	userID := GetUserID(c)
	saved := make([]interface{}, 0, len(files))

	for i, fh := range files {
		docType := "general"
		if i < len(docTypes) {
			docType = docTypes[i]
		}

		file, err := fh.Open()
		if err != nil {
			BadRequest(c, "读取文件失败: "+err.Error())
			return
		}

		doc, err := h.svc.Upload(
			c.Request.Context(),
			labRequestID,
			docType,
			fh.Filename,
			file,
			fh.Size,
			fh.Header.Get("Content-Type"),
			userID,
		)
		file.Close()
		if err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				NotFound(c, "委托单不存在")
				return
			}
			InternalError(c, err.Error())
			return
		}
		saved = append(saved, doc)
	}

	Created(c, gin.H{"documents": saved})
}

// List 文档列表
// GET /lab-requests/:id/documents
func (h *DocumentHandler) List(c *gin.Context) {
	docs, err := h.svc.List(c.Request.Context(), c.Param("id"))
	if err != nil {
		InternalError(c, err.Error())
		return
	}
	Success(c, gin.H{"documents": docs})
}

// Download 下载文档
// GET /lab-requests/documents/:docId/download
func (h *DocumentHandler) Download(c *gin.Context) {
	doc, reader, err := h.svc.Download(c.Request.Context(), c.Param("docId"))
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			NotFound(c, "文档不存在")
			return
		}
		InternalError(c, err.Error())
		return
	}
	defer reader.Close()

	c.Header("Content-Disposition", `attachment; filename="`+doc.FileName+`"`)
	c.Header("Content-Type", "application/octet-stream")
	if _, err := io.Copy(c.Writer, reader); err != nil {
		c.Status(http.StatusInternalServerError)
	}
}

// Delete 删除文档
// DELETE /lab-requests/documents/:docId
func (h *DocumentHandler) Delete(c *gin.Context) {
	err := h.svc.Delete(c.Request.Context(), c.Param("docId"))
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			NotFound(c, "文档不存在")
			return
		}
		InternalError(c, err.Error())
		return
	}
	Success(c, gin.H{"deleted": true})
}

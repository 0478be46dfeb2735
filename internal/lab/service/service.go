package service

import (
	"github.com/bitfantasy/labtrack/internal/lab/repository"
	"github.com/minio/minio-go/v7"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Services 实验室模块服务集合
type Services struct {
	LabRequest *LabRequestService
	Document   *DocumentService
	Quote      *QuoteService
}

// NewServices 创建服务集合。SyncService 依赖发起方协作方，由 main
// 单独构建后通过 SetSyncService 注入。
func NewServices(
	repos *repository.Repositories,
	db *gorm.DB,
	logger *zap.Logger,
	minioClient *minio.Client,
	bucketName string,
) *Services {
	labSvc := NewLabRequestService(repos, db, logger)
	return &Services{
		LabRequest: labSvc,
		Document:   NewDocumentService(repos.Document, repos.LabRequest, minioClient, bucketName),
		Quote:      NewQuoteService(repos.Quote, labSvc),
	}
}

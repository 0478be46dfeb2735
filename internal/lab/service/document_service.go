package service

import (
	"context"
	"fmt"
	"io"

	"github.com/bitfantasy/labtrack/internal/lab/entity"
	"github.com/bitfantasy/labtrack/internal/lab/repository"
	"github.com/minio/minio-go/v7"
)

// DocumentService 委托单文档服务，文件本体存MinIO，元数据入库
type DocumentService struct {
	docRepo     *repository.DocumentRepository
	labRepo     *repository.LabRequestRepository
	minioClient *minio.Client
	bucketName  string
}

func NewDocumentService(
	docRepo *repository.DocumentRepository,
	labRepo *repository.LabRequestRepository,
	minioClient *minio.Client,
	bucketName string,
) *DocumentService {
	return &DocumentService{
		docRepo:     docRepo,
		labRepo:     labRepo,
		minioClient: minioClient,
		bucketName:  bucketName,
	}
}

// Upload 上传文档并登记元数据
func (s *DocumentService) Upload(
	ctx context.Context,
	labRequestID, documentType, fileName string,
	reader io.Reader,
	fileSize int64,
	contentType, uploadedBy string,
) (*entity.LabDocument, error) {
	if _, err := s.labRepo.FindByID(ctx, labRequestID); err != nil {
		return nil, err
	}

	objectKey := fmt.Sprintf("lab-requests/%s/%s", labRequestID, fileName)

	if s.minioClient != nil {
		_, err := s.minioClient.PutObject(ctx, s.bucketName, objectKey, reader, fileSize, minio.PutObjectOptions{
			ContentType: contentType,
		})
		if err != nil {
			return nil, fmt.Errorf("上传文件失败: %w", err)
		}
	}

	doc := &entity.LabDocument{
		ID:           newID(),
		LabRequestID: labRequestID,
		DocumentType: documentType,
		FileName:     fileName,
		ObjectKey:    objectKey,
		FileSize:     fileSize,
		UploadedBy:   uploadedBy,
	}

	if err := s.docRepo.Create(ctx, doc); err != nil {
		return nil, fmt.Errorf("登记文档失败: %w", err)
	}

	return doc, nil
}

// List 查询委托单的文档列表
func (s *DocumentService) List(ctx context.Context, labRequestID string) ([]entity.LabDocument, error) {
	return s.docRepo.ListByLabRequest(ctx, labRequestID)
}

// Download 获取文档内容流，调用方负责Close
func (s *DocumentService) Download(ctx context.Context, documentID string) (*entity.LabDocument, io.ReadCloser, error) {
	doc, err := s.docRepo.FindByID(ctx, documentID)
	if err != nil {
		return nil, nil, err
	}

	if s.minioClient == nil {
		return nil, nil, fmt.Errorf("对象存储未配置")
	}

	obj, err := s.minioClient.GetObject(ctx, s.bucketName, doc.ObjectKey, minio.GetObjectOptions{})
	if err != nil {
		return nil, nil, fmt.Errorf("读取文件失败: %w", err)
	}
	return doc, obj, nil
}

// Delete 删除文档记录及对象
func (s *DocumentService) Delete(ctx context.Context, documentID string) error {
	doc, err := s.docRepo.FindByID(ctx, documentID)
	if err != nil {
		return err
	}

	if s.minioClient != nil {
		if err := s.minioClient.RemoveObject(ctx, s.bucketName, doc.ObjectKey, minio.RemoveObjectOptions{}); err != nil {
			return fmt.Errorf("删除文件失败: %w", err)
		}
	}

	return s.docRepo.Delete(ctx, documentID)
}

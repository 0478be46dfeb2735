package repository

import (
	"context"
	"errors"

	"github.com/bitfantasy/labtrack/internal/lab/entity"
	"gorm.io/gorm"
)

// DocumentRepository 文档元数据仓库
type DocumentRepository struct {
	db *gorm.DB
}

func NewDocumentRepository(db *gorm.DB) *DocumentRepository {
	return &DocumentRepository{db: db}
}

// Create 创建文档记录
func (r *DocumentRepository) Create(ctx context.Context, doc *entity.LabDocument) error {
	return r.db.WithContext(ctx).Create(doc).Error
}

// FindByID 根据ID查询文档
func (r *DocumentRepository) FindByID(ctx context.Context, id string) (*entity.LabDocument, error) {
	var doc entity.LabDocument
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&doc).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &doc, nil
}

// ListByLabRequest 查询委托单的文档列表
func (r *DocumentRepository) ListByLabRequest(ctx context.Context, labRequestID string) ([]entity.LabDocument, error) {
	var items []entity.LabDocument
	err := r.db.WithContext(ctx).
		Where("lab_request_id = ?", labRequestID).
		Order("uploaded_at ASC").
		Find(&items).Error
	return items, err
}

// Delete 删除文档记录
func (r *DocumentRepository) Delete(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).Delete(&entity.LabDocument{}, "id = ?", id).Error
}

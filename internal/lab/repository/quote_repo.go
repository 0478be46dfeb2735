package repository

import (
	"context"
	"errors"

	"github.com/bitfantasy/labtrack/internal/lab/entity"
	"gorm.io/gorm"
)

// QuoteRepository 报价单仓库
type QuoteRepository struct {
	db *gorm.DB
}

func NewQuoteRepository(db *gorm.DB) *QuoteRepository {
	return &QuoteRepository{db: db}
}

// Create 创建报价单
func (r *QuoteRepository) Create(ctx context.Context, q *entity.LabQuote) error {
	return r.db.WithContext(ctx).Create(q).Error
}

// FindByID 根据ID查询报价单
func (r *QuoteRepository) FindByID(ctx context.Context, id string) (*entity.LabQuote, error) {
	var q entity.LabQuote
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&q).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &q, nil
}

// ListByLabRequest 查询委托单的报价列表
func (r *QuoteRepository) ListByLabRequest(ctx context.Context, labRequestID string) ([]entity.LabQuote, error) {
	var items []entity.LabQuote
	err := r.db.WithContext(ctx).
		Where("lab_request_id = ?", labRequestID).
		Order("created_at ASC").
		Find(&items).Error
	return items, err
}

// Update 更新报价单
func (r *QuoteRepository) Update(ctx context.Context, q *entity.LabQuote) error {
	return r.db.WithContext(ctx).Save(q).Error
}

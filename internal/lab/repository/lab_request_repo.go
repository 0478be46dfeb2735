package repository

import (
	"context"
	"errors"

	"github.com/bitfantasy/labtrack/internal/lab/entity"
	"gorm.io/gorm"
)

// LabRequestRepository 委托单仓库
type LabRequestRepository struct {
	db *gorm.DB
}

func NewLabRequestRepository(db *gorm.DB) *LabRequestRepository {
	return &LabRequestRepository{db: db}
}

// DB 返回底层连接，供服务层开启跨仓库事务
func (r *LabRequestRepository) DB() *gorm.DB {
	return r.db
}

// Create 创建委托单
func (r *LabRequestRepository) Create(ctx context.Context, req *entity.LabRequest) error {
	return r.db.WithContext(ctx).Create(req).Error
}

// FindByID 根据ID查询委托单
func (r *LabRequestRepository) FindByID(ctx context.Context, id string) (*entity.LabRequest, error) {
	var req entity.LabRequest
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&req).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &req, nil
}

// List 查询全部委托单，按创建时间倒序
func (r *LabRequestRepository) List(ctx context.Context) ([]entity.LabRequest, error) {
	var items []entity.LabRequest
	err := r.db.WithContext(ctx).Order("created_date DESC").Find(&items).Error
	return items, err
}

// Update 更新委托单
func (r *LabRequestRepository) Update(ctx context.Context, req *entity.LabRequest) error {
	return r.db.WithContext(ctx).Save(req).Error
}

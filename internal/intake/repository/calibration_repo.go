package repository

import (
	"context"
	"errors"

	"github.com/bitfantasy/labtrack/internal/intake/entity"
	labrepo "github.com/bitfantasy/labtrack/internal/lab/repository"
	labservice "github.com/bitfantasy/labtrack/internal/lab/service"
	"gorm.io/gorm"
)

// CalibrationRepository 校准申请单数据访问
type CalibrationRepository struct {
	db *gorm.DB
}

func NewCalibrationRepository(db *gorm.DB) *CalibrationRepository {
	return &CalibrationRepository{db: db}
}

func (r *CalibrationRepository) Create(ctx context.Context, req *entity.CalibrationRequest) error {
	return r.db.WithContext(ctx).Create(req).Error
}

func (r *CalibrationRepository) FindByID(ctx context.Context, id string) (*entity.CalibrationRequest, error) {
	var req entity.CalibrationRequest
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&req).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, labrepo.ErrNotFound
		}
		return nil, err
	}
	return &req, nil
}

func (r *CalibrationRepository) Update(ctx context.Context, req *entity.CalibrationRequest) error {
	return r.db.WithContext(ctx).Save(req).Error
}

// OverwriteStatus 按委托单ID全量覆写校准申请单状态，实现同步调度器的
// 发起方协作接口。没有关联行时返回 ErrNoLinkedRequest。
func (r *CalibrationRepository) OverwriteStatus(ctx context.Context, labRequestID, newStatus string) error {
	result := r.db.WithContext(ctx).
		Model(&entity.CalibrationRequest{}).
		Where("lab_request_id = ?", labRequestID).
		Update("status", newStatus)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return labservice.ErrNoLinkedRequest
	}
	return nil
}

// SaveProductDetails 保存产品信息（每个申请单一行，存在则覆盖）
func (r *CalibrationRepository) SaveProductDetails(ctx context.Context, details *entity.CalibrationProductDetails) error {
	var existing entity.CalibrationProductDetails
	err := r.db.WithContext(ctx).
		Where("calibration_request_id = ?", details.CalibrationRequestID).
		First(&existing).Error
	if err == nil {
		details.ID = existing.ID
		details.CreatedAt = existing.CreatedAt
		return r.db.WithContext(ctx).Save(details).Error
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return r.db.WithContext(ctx).Create(details).Error
	}
	return err
}

func (r *CalibrationRepository) FindProductDetails(ctx context.Context, calibrationRequestID string) (*entity.CalibrationProductDetails, error) {
	var details entity.CalibrationProductDetails
	err := r.db.WithContext(ctx).
		Where("calibration_request_id = ?", calibrationRequestID).
		First(&details).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, labrepo.ErrNotFound
		}
		return nil, err
	}
	return &details, nil
}

// SaveLabSelection 保存实验室选择（每个申请单一行，存在则覆盖）
func (r *CalibrationRepository) SaveLabSelection(ctx context.Context, selection *entity.CalibrationLabSelection) error {
	var existing entity.CalibrationLabSelection
	err := r.db.WithContext(ctx).
		Where("calibration_request_id = ?", selection.CalibrationRequestID).
		First(&existing).Error
	if err == nil {
		selection.ID = existing.ID
		selection.CreatedAt = existing.CreatedAt
		return r.db.WithContext(ctx).Save(selection).Error
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return r.db.WithContext(ctx).Create(selection).Error
	}
	return err
}

package repository

import (
	"context"
	"errors"

	"github.com/bitfantasy/labtrack/internal/lab/entity"
	"gorm.io/gorm"
)

// LedgerRepository 进度/分配/排期/状态日志四类流水的仓库。
// 流水只追加；"当前值"一律取最新一条，时间戳相同时按插入顺序
// （id 倒序）取最后写入者。
type LedgerRepository struct {
	db *gorm.DB
}

func NewLedgerRepository(db *gorm.DB) *LedgerRepository {
	return &LedgerRepository{db: db}
}

// AppendProgress 追加进度流水
func (r *LedgerRepository) AppendProgress(ctx context.Context, p *entity.LabRequestProgress) error {
	return r.db.WithContext(ctx).Create(p).Error
}

// LatestProgress 查询最新进度，无流水时返回 ErrNotFound
func (r *LedgerRepository) LatestProgress(ctx context.Context, labRequestID string) (*entity.LabRequestProgress, error) {
	var p entity.LabRequestProgress
	err := r.db.WithContext(ctx).
		Where("lab_request_id = ?", labRequestID).
		Order("updated_at DESC, id DESC").
		First(&p).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &p, nil
}

// ListProgress 查询进度流水
func (r *LedgerRepository) ListProgress(ctx context.Context, labRequestID string) ([]entity.LabRequestProgress, error) {
	var items []entity.LabRequestProgress
	err := r.db.WithContext(ctx).
		Where("lab_request_id = ?", labRequestID).
		Order("updated_at ASC, id ASC").
		Find(&items).Error
	return items, err
}

// AppendStatusLog 追加状态变更日志
func (r *LedgerRepository) AppendStatusLog(ctx context.Context, l *entity.LabRequestStatusLog) error {
	return r.db.WithContext(ctx).Create(l).Error
}

// ListStatusLogs 查询状态变更日志
func (r *LedgerRepository) ListStatusLogs(ctx context.Context, labRequestID string) ([]entity.LabRequestStatusLog, error) {
	var items []entity.LabRequestStatusLog
	err := r.db.WithContext(ctx).
		Where("lab_request_id = ?", labRequestID).
		Order("changed_at ASC, id ASC").
		Find(&items).Error
	return items, err
}

// AppendAssignment 追加分配流水
func (r *LedgerRepository) AppendAssignment(ctx context.Context, a *entity.LabRequestAssignment) error {
	return r.db.WithContext(ctx).Create(a).Error
}

// LatestAssignment 查询最新分配记录
func (r *LedgerRepository) LatestAssignment(ctx context.Context, labRequestID string) (*entity.LabRequestAssignment, error) {
	var a entity.LabRequestAssignment
	err := r.db.WithContext(ctx).
		Where("lab_request_id = ?", labRequestID).
		Order("assigned_at DESC, id DESC").
		First(&a).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &a, nil
}

// ListAssignments 查询分配流水
func (r *LedgerRepository) ListAssignments(ctx context.Context, labRequestID string) ([]entity.LabRequestAssignment, error) {
	var items []entity.LabRequestAssignment
	err := r.db.WithContext(ctx).
		Where("lab_request_id = ?", labRequestID).
		Order("assigned_at ASC, id ASC").
		Find(&items).Error
	return items, err
}

// AppendSchedule 追加排期记录。同一工程师的排期不做重叠校验。
func (r *LedgerRepository) AppendSchedule(ctx context.Context, s *entity.LabSchedule) error {
	return r.db.WithContext(ctx).Create(s).Error
}

// ListSchedules 查询排期
func (r *LedgerRepository) ListSchedules(ctx context.Context, labRequestID string) ([]entity.LabSchedule, error) {
	var items []entity.LabSchedule
	err := r.db.WithContext(ctx).
		Where("lab_request_id = ?", labRequestID).
		Order("start_datetime ASC").
		Find(&items).Error
	return items, err
}

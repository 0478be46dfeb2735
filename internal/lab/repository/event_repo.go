package repository

import (
	"context"
	"time"

	"github.com/bitfantasy/labtrack/internal/lab/entity"
	"gorm.io/gorm"
)

// EventRepository 状态事件outbox仓库
type EventRepository struct {
	db *gorm.DB
}

func NewEventRepository(db *gorm.DB) *EventRepository {
	return &EventRepository{db: db}
}

// ListPending 查询待投递事件，按创建顺序
func (r *EventRepository) ListPending(ctx context.Context, limit int) ([]entity.LabStatusEvent, error) {
	var items []entity.LabStatusEvent
	err := r.db.WithContext(ctx).
		Where("dispatch_status = ?", entity.EventDispatchPending).
		Order("created_at ASC, id ASC").
		Limit(limit).
		Find(&items).Error
	return items, err
}

// MarkDispatched 标记事件已投递
func (r *EventRepository) MarkDispatched(ctx context.Context, id string) error {
	now := time.Now()
	return r.db.WithContext(ctx).
		Model(&entity.LabStatusEvent{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"dispatch_status": entity.EventDispatchDispatched,
			"dispatched_at":   now,
		}).Error
}

// MarkFailed 记录一次投递失败，事件保持pending等待重试
func (r *EventRepository) MarkFailed(ctx context.Context, id string, lastError string) error {
	return r.db.WithContext(ctx).
		Model(&entity.LabStatusEvent{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"attempts":   gorm.Expr("attempts + 1"),
			"last_error": lastError,
		}).Error
}

// CountPending 统计某委托单待投递事件数（测试与运维用）
func (r *EventRepository) CountPending(ctx context.Context, labRequestID string) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).
		Model(&entity.LabStatusEvent{}).
		Where("lab_request_id = ? AND dispatch_status = ?", labRequestID, entity.EventDispatchPending).
		Count(&n).Error
	return n, err
}

package entity

import "time"

// LabStatusEvent 状态变更事件（outbox）。
// 与触发它的委托单变更在同一事务内写入，由同步调度器异步投递到
// 发起方请求；投递失败只累计重试，绝不回滚源变更。
type LabStatusEvent struct {
	ID           string `json:"id" gorm:"primaryKey;size:32"`
	LabRequestID string `json:"lab_request_id" gorm:"size:32;not null;index"`

	Status         string `json:"status" gorm:"size:20;not null"`
	DetailedStatus string `json:"detailed_status" gorm:"size:50"`
	Progress       *int   `json:"progress"`

	DispatchStatus string `json:"dispatch_status" gorm:"size:20;default:pending;index"` // pending/dispatched/failed
	Attempts       int    `json:"attempts" gorm:"default:0"`
	LastError      string `json:"last_error" gorm:"type:text"`

	CreatedAt    time.Time  `json:"created_at" gorm:"autoCreateTime"`
	DispatchedAt *time.Time `json:"dispatched_at"`
}

func (LabStatusEvent) TableName() string {
	return "lab_status_events"
}

// 事件投递状态
const (
	EventDispatchPending    = "pending"
	EventDispatchDispatched = "dispatched"
	EventDispatchFailed     = "failed"
)

package entity

import "time"

// LabRequest 实验室委托单（聚合根）
type LabRequest struct {
	ID          string `json:"id" gorm:"primaryKey;size:32"`
	RequestCode string `json:"request_code" gorm:"size:32;index"` // e.g. LR-1001
	ProductName string `json:"product_name" gorm:"size:200;not null"`
	ServiceType string `json:"service_type" gorm:"size:50;not null"` // EMC/Safety/Thermal/Calibration

	// 双层状态：高层状态 + 细分状态，客户消息始终由细分状态派生
	Status         string `json:"status" gorm:"size:20;default:Pending"`            // Pending/In Progress/Completed/Rejected
	DetailedStatus string `json:"detailed_status" gorm:"size:50;default:Submitted"` // Submitted/Under Review/Quote Sent/...
	CustomerMessage string `json:"customer_message" gorm:"type:text"`

	CreatedDate         time.Time  `json:"created_date" gorm:"autoCreateTime"`
	EstimatedCompletion *time.Time `json:"estimated_completion"`
	ActualCompletion    *time.Time `json:"actual_completion"`

	// 当前工程师指针，由分配流水派生，与流水在同一事务内更新
	AssignedEngineerID *string `json:"assigned_engineer_id" gorm:"size:32"`
}

func (LabRequest) TableName() string {
	return "lab_requests"
}

// 高层状态
const (
	StatusPending    = "Pending"
	StatusInProgress = "In Progress"
	StatusCompleted  = "Completed"
	StatusRejected   = "Rejected"
)

// LabRequestProgress 进度流水（仅追加）
type LabRequestProgress struct {
	ID           string    `json:"id" gorm:"primaryKey;size:32"`
	LabRequestID string    `json:"lab_request_id" gorm:"size:32;not null;index"`
	ProgressPercent int    `json:"progress_percent" gorm:"not null"` // 0-100，允许回退
	Notes        string    `json:"notes" gorm:"type:text"`
	UpdatedBy    string    `json:"updated_by" gorm:"size:64;not null"`
	UpdatedAt    time.Time `json:"updated_at" gorm:"autoCreateTime;index"`
}

func (LabRequestProgress) TableName() string {
	return "lab_request_progress"
}

// LabSchedule 测试排期
type LabSchedule struct {
	ID             string    `json:"id" gorm:"primaryKey;size:32"`
	LabRequestID   string    `json:"lab_request_id" gorm:"size:32;not null;index"`
	EngineerID     string    `json:"engineer_id" gorm:"size:32;not null;index"`
	StartDatetime  time.Time `json:"start_datetime" gorm:"not null"`
	EndDatetime    time.Time `json:"end_datetime" gorm:"not null"`
	ScheduleStatus string    `json:"schedule_status" gorm:"size:20;default:Scheduled"`
}

func (LabSchedule) TableName() string {
	return "lab_schedule"
}

// LabRequestStatusLog 状态变更审计日志（仅追加，不更新不删除）
type LabRequestStatusLog struct {
	ID           string `json:"id" gorm:"primaryKey;size:32"`
	LabRequestID string `json:"lab_request_id" gorm:"size:32;not null;index"`

	PreviousStatus string `json:"previous_status" gorm:"size:20"`
	CurrentStatus  string `json:"current_status" gorm:"size:20;not null"`

	PreviousDetailedStatus string `json:"previous_detailed_status" gorm:"size:50"`
	CurrentDetailedStatus  string `json:"current_detailed_status" gorm:"size:50"`

	ChangedBy string    `json:"changed_by" gorm:"size:64;not null"`
	ChangedAt time.Time `json:"changed_at" gorm:"autoCreateTime"`
	Notes     string    `json:"notes" gorm:"type:text"` // 变更原因
}

func (LabRequestStatusLog) TableName() string {
	return "lab_request_status_logs"
}

// LabRequestAssignment 工程师分配流水（仅追加）
type LabRequestAssignment struct {
	ID           string    `json:"id" gorm:"primaryKey;size:32"`
	LabRequestID string    `json:"lab_request_id" gorm:"size:32;not null;index"`
	EngineerID   string    `json:"engineer_id" gorm:"size:32;not null;index"`
	AssignedBy   string    `json:"assigned_by" gorm:"size:64;not null"`
	AssignedAt   time.Time `json:"assigned_at" gorm:"autoCreateTime;index"`
}

func (LabRequestAssignment) TableName() string {
	return "lab_request_assignments"
}

// LabDocument 委托单关联文档元数据，文件本体存MinIO
type LabDocument struct {
	ID           string    `json:"id" gorm:"primaryKey;size:32"`
	LabRequestID string    `json:"lab_request_id" gorm:"size:32;not null;index"`
	DocumentType string    `json:"document_type" gorm:"size:50;not null"`
	FileName     string    `json:"file_name" gorm:"size:256;not null"`
	ObjectKey    string    `json:"object_key" gorm:"size:512;not null"`
	FileSize     int64     `json:"file_size" gorm:"not null"`
	UploadedBy   string    `json:"uploaded_by" gorm:"size:64;not null"`
	UploadedAt   time.Time `json:"uploaded_at" gorm:"autoCreateTime"`
}

func (LabDocument) TableName() string {
	return "lab_documents"
}

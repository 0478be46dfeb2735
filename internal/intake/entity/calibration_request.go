package entity

import "time"

// CalibrationRequest 校准申请单（发起方请求）。
// 提交时自动生成一张实验室委托单并建立单向关联，
// 此后委托单的状态投影由同步调度器覆写回 Status 字段。
type CalibrationRequest struct {
	ID           string    `gorm:"primaryKey;size:32" json:"id"`
	RequestCode  string    `gorm:"size:32;index" json:"request_code"`
	Status       string    `gorm:"size:32;default:draft" json:"status"`
	LabRequestID *string   `gorm:"size:32;index" json:"lab_request_id"`
	CreatedAt    time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt    time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

func (CalibrationRequest) TableName() string {
	return "calibration_requests"
}

// 校准申请单状态
const (
	CalibrationStatusDraft      = "draft"
	CalibrationStatusSubmitted  = "submitted"
	CalibrationStatusInProgress = "in_progress"
	CalibrationStatusCompleted  = "completed"
	CalibrationStatusRejected   = "rejected"
)

// CalibrationProductDetails 校准产品信息
type CalibrationProductDetails struct {
	ID                   string `gorm:"primaryKey;size:32" json:"id"`
	CalibrationRequestID string `gorm:"size:32;uniqueIndex" json:"calibration_request_id"`
	EUTName              string `gorm:"size:255" json:"eut_name"`
	EUTQuantity          int    `json:"eut_quantity"`
	Manufacturer         string `gorm:"size:255" json:"manufacturer"`
	ModelNo              string `gorm:"size:128" json:"model_no"`
	SerialNo             string `gorm:"size:128" json:"serial_no"`
	SupplyVoltage        string `gorm:"size:64" json:"supply_voltage"`
	OperatingFrequency   string `gorm:"size:64" json:"operating_frequency"`
	Industry             string `gorm:"size:128" json:"industry"`
	PreferredDate        string `gorm:"size:32" json:"preferred_date"`
	Notes                string `gorm:"type:text" json:"notes"`

	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

func (CalibrationProductDetails) TableName() string {
	return "calibration_product_details"
}

// CalibrationLabSelection 校准实验室选择（提交时的最后一步）
type CalibrationLabSelection struct {
	ID                   string `gorm:"primaryKey;size:32" json:"id"`
	CalibrationRequestID string `gorm:"size:32;uniqueIndex" json:"calibration_request_id"`
	SelectedLabs         string `gorm:"type:text" json:"selected_labs"` // JSON数组
	Region               string `gorm:"size:64" json:"region"`
	Remarks              string `gorm:"type:text" json:"remarks"`

	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

func (CalibrationLabSelection) TableName() string {
	return "calibration_lab_selection"
}

package entity

import "time"

// LabQuote 发给客户的报价单
type LabQuote struct {
	ID           string `json:"id" gorm:"primaryKey;size:32"`
	LabRequestID string `json:"lab_request_id" gorm:"size:32;not null;index"`

	Amount       float64 `json:"amount" gorm:"type:decimal(10,2);not null"`
	Currency     string  `json:"currency" gorm:"size:3;default:USD"`
	QuoteDetails string  `json:"quote_details" gorm:"type:text"`

	Status     string     `json:"status" gorm:"size:20;default:pending"` // pending/sent/approved/rejected
	ValidUntil *time.Time `json:"valid_until"`

	SentAt      *time.Time `json:"sent_at"`
	RespondedAt *time.Time `json:"responded_at"`
	CreatedAt   time.Time  `json:"created_at" gorm:"autoCreateTime"`
}

func (LabQuote) TableName() string {
	return "lab_quotes"
}

// 报价状态
const (
	QuoteStatusPending  = "pending"
	QuoteStatusSent     = "sent"
	QuoteStatusApproved = "approved"
	QuoteStatusRejected = "rejected"
)

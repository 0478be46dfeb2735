package service

import (
	"context"
	"fmt"
	"time"

	"github.com/bitfantasy/labtrack/internal/lab/entity"
	"github.com/bitfantasy/labtrack/internal/lab/repository"
	"github.com/bitfantasy/labtrack/internal/lab/status"
)

// QuoteService 报价服务：发报价、客户响应，并驱动委托单细分状态流转
type QuoteService struct {
	quoteRepo  *repository.QuoteRepository
	labService *LabRequestService
}

func NewQuoteService(quoteRepo *repository.QuoteRepository, labService *LabRequestService) *QuoteService {
	return &QuoteService{
		quoteRepo:  quoteRepo,
		labService: labService,
	}
}

// CreateQuoteReq 发送报价请求
type CreateQuoteReq struct {
	Amount       float64    `json:"amount" binding:"required,gt=0"`
	Currency     string     `json:"currency"`
	QuoteDetails string     `json:"quote_details"`
	ValidUntil   *time.Time `json:"valid_until"`
}

// CreateQuote 发送报价，委托单细分状态流转到 Quote Sent
func (s *QuoteService) CreateQuote(ctx context.Context, labRequestID string, req CreateQuoteReq, createdBy string) (*entity.LabQuote, error) {
	now := time.Now()
	currency := req.Currency
	if currency == "" {
		currency = "USD"
	}

	quote := &entity.LabQuote{
		ID:           newID(),
		LabRequestID: labRequestID,
		Amount:       req.Amount,
		Currency:     currency,
		QuoteDetails: req.QuoteDetails,
		Status:       entity.QuoteStatusSent,
		ValidUntil:   req.ValidUntil,
		SentAt:       &now,
	}

	// 先流转状态，委托单不存在时直接失败，不落报价
	if _, err := s.labService.SetDetailedStatus(ctx, labRequestID, status.QuoteSent, "", createdBy); err != nil {
		return nil, err
	}

	if err := s.quoteRepo.Create(ctx, quote); err != nil {
		return nil, fmt.Errorf("创建报价失败: %w", err)
	}

	return quote, nil
}

// RespondQuoteReq 客户对报价的响应
type RespondQuoteReq struct {
	Approve bool   `json:"approve"`
	Reason  string `json:"reason"`
}

// RespondQuote 记录客户响应：同意 → Quote Approved，拒绝 → Quote Rejected
func (s *QuoteService) RespondQuote(ctx context.Context, quoteID string, req RespondQuoteReq, respondedBy string) (*entity.LabQuote, error) {
	quote, err := s.quoteRepo.FindByID(ctx, quoteID)
	if err != nil {
		return nil, err
	}

	if quote.Status != entity.QuoteStatusSent {
		return nil, fmt.Errorf("报价当前状态 %s 不允许响应", quote.Status)
	}

	now := time.Now()
	quote.RespondedAt = &now

	var detailed string
	if req.Approve {
		quote.Status = entity.QuoteStatusApproved
		detailed = status.QuoteApproved
	} else {
		quote.Status = entity.QuoteStatusRejected
		detailed = status.QuoteRejected
	}

	if _, err := s.labService.SetDetailedStatus(ctx, quote.LabRequestID, detailed, req.Reason, respondedBy); err != nil {
		return nil, err
	}

	if err := s.quoteRepo.Update(ctx, quote); err != nil {
		return nil, fmt.Errorf("更新报价失败: %w", err)
	}

	return quote, nil
}

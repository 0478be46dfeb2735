package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/bitfantasy/labtrack/internal/lab/entity"
	"github.com/bitfantasy/labtrack/internal/lab/repository"
	"github.com/bitfantasy/labtrack/internal/lab/status"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// LabRequestService 委托单生命周期服务。
// 每个变更操作在一个事务内完成：聚合更新 + 流水追加 + outbox事件，
// 向发起方请求的同步由调度器在事务外异步完成。
type LabRequestService struct {
	repos   *repository.Repositories
	db      *gorm.DB
	logger  *zap.Logger
	syncSvc *SyncService
}

func NewLabRequestService(repos *repository.Repositories, db *gorm.DB, logger *zap.Logger) *LabRequestService {
	return &LabRequestService{
		repos:  repos,
		db:     db,
		logger: logger,
	}
}

// SetSyncService 注入同步调度器，事务提交后用于催促投递
func (s *LabRequestService) SetSyncService(syncSvc *SyncService) {
	s.syncSvc = syncSvc
}

func newID() string {
	return strings.ReplaceAll(uuid.New().String(), "-", "")
}

// CreateLabRequestReq 创建委托单请求
type CreateLabRequestReq struct {
	ProductName string `json:"product_name" binding:"required"`
	ServiceType string `json:"service_type" binding:"required"`
}

// Create 创建委托单，初始状态固定为 (Pending, Submitted)
func (s *LabRequestService) Create(ctx context.Context, req CreateLabRequestReq) (*entity.LabRequest, error) {
	id := newID()
	info := status.Resolve(status.Submitted, nil, "")

	labReq := &entity.LabRequest{
		ID:              id,
		RequestCode:     "LR-" + strings.ToUpper(id[:8]),
		ProductName:     req.ProductName,
		ServiceType:     req.ServiceType,
		Status:          entity.StatusPending,
		DetailedStatus:  status.Submitted,
		CustomerMessage: info.Message,
	}

	if err := s.repos.LabRequest.Create(ctx, labReq); err != nil {
		return nil, fmt.Errorf("创建委托单失败: %w", err)
	}

	s.logger.Info("Lab request created",
		zap.String("id", labReq.ID),
		zap.String("product", req.ProductName),
		zap.String("service_type", req.ServiceType),
	)

	return labReq, nil
}

// LabRequestListItem 列表投影
type LabRequestListItem struct {
	ID                 string  `json:"id"`
	RequestCode        string  `json:"request_code"`
	ProductName        string  `json:"product_name"`
	ServiceType        string  `json:"service_type"`
	Status             string  `json:"status"`
	DetailedStatus     string  `json:"detailed_status"`
	CustomerMessage    string  `json:"customer_message"`
	CreatedDate        string  `json:"created_date"`
	AssignedEngineerID *string `json:"assigned_engineer_id"`
}

// List 查询全部委托单的轻量投影
func (s *LabRequestService) List(ctx context.Context) ([]LabRequestListItem, error) {
	reqs, err := s.repos.LabRequest.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("查询委托单列表失败: %w", err)
	}

	items := make([]LabRequestListItem, 0, len(reqs))
	for _, r := range reqs {
		code := r.RequestCode
		if code == "" {
			code = "LR-" + strings.ToUpper(r.ID[:8])
		}
		items = append(items, LabRequestListItem{
			ID:                 r.ID,
			RequestCode:        code,
			ProductName:        r.ProductName,
			ServiceType:        r.ServiceType,
			Status:             r.Status,
			DetailedStatus:     r.DetailedStatus,
			CustomerMessage:    r.CustomerMessage,
			CreatedDate:        r.CreatedDate.Format("2006-01-02T15:04:05Z07:00"),
			AssignedEngineerID: r.AssignedEngineerID,
		})
	}
	return items, nil
}

// FullLabRequest 聚合 + 全部流水的完整投影
type FullLabRequest struct {
	Request     *entity.LabRequest            `json:"request"`
	Progress    []entity.LabRequestProgress   `json:"progress"`
	Schedule    []entity.LabSchedule          `json:"schedule"`
	StatusLogs  []entity.LabRequestStatusLog  `json:"status_logs"`
	Assignments []entity.LabRequestAssignment `json:"assignments"`
	Documents   []entity.LabDocument          `json:"documents"`
	Quotes      []entity.LabQuote             `json:"quotes"`
}

// GetFull 查询委托单完整详情，不存在时返回 repository.ErrNotFound
func (s *LabRequestService) GetFull(ctx context.Context, id string) (*FullLabRequest, error) {
	req, err := s.repos.LabRequest.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	progress, err := s.repos.Ledger.ListProgress(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("查询进度流水失败: %w", err)
	}
	schedule, err := s.repos.Ledger.ListSchedules(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("查询排期失败: %w", err)
	}
	logs, err := s.repos.Ledger.ListStatusLogs(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("查询状态日志失败: %w", err)
	}
	assignments, err := s.repos.Ledger.ListAssignments(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("查询分配流水失败: %w", err)
	}
	documents, err := s.repos.Document.ListByLabRequest(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("查询文档失败: %w", err)
	}
	quotes, err := s.repos.Quote.ListByLabRequest(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("查询报价失败: %w", err)
	}

	return &FullLabRequest{
		Request:     req,
		Progress:    progress,
		Schedule:    schedule,
		StatusLogs:  logs,
		Assignments: assignments,
		Documents:   documents,
		Quotes:      quotes,
	}, nil
}

// Timeline 返回委托单的客户时间轴
func (s *LabRequestService) Timeline(ctx context.Context, id string) ([]status.Milestone, error) {
	req, err := s.repos.LabRequest.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return status.Timeline(req.DetailedStatus), nil
}

// appendEvent 在事务内写outbox事件
func (s *LabRequestService) appendEvent(tx *gorm.DB, req *entity.LabRequest, progress *int) error {
	event := &entity.LabStatusEvent{
		ID:             newID(),
		LabRequestID:   req.ID,
		Status:         req.Status,
		DetailedStatus: req.DetailedStatus,
		Progress:       progress,
		DispatchStatus: entity.EventDispatchPending,
	}
	return tx.Create(event).Error
}

// kickSync 事务提交后催促调度器尽快投递
func (s *LabRequestService) kickSync() {
	if s.syncSvc != nil {
		s.syncSvc.Kick()
	}
}

// SetStatus 更新高层状态。写状态日志、按固定映射自动派生细分状态、
// 重算客户消息，最后触发同步。
func (s *LabRequestService) SetStatus(ctx context.Context, id, newStatus, changedBy string) (*entity.LabRequest, error) {
	req, err := s.repos.LabRequest.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		log := &entity.LabRequestStatusLog{
			ID:                     newID(),
			LabRequestID:           id,
			PreviousStatus:         req.Status,
			CurrentStatus:          newStatus,
			PreviousDetailedStatus: req.DetailedStatus,
			CurrentDetailedStatus:  req.DetailedStatus,
			ChangedBy:              changedBy,
		}

		req.Status = newStatus

		// 高层状态变更时细分状态按固定映射联动
		if detailed, ok := status.DetailedFromHighLevel(newStatus); ok {
			info := status.Resolve(detailed, nil, "")
			req.DetailedStatus = detailed
			req.CustomerMessage = info.Message
			log.CurrentDetailedStatus = detailed
		}

		if err := tx.Create(log).Error; err != nil {
			return err
		}
		if err := tx.Save(req).Error; err != nil {
			return err
		}
		return s.appendEvent(tx, req, nil)
	})
	if err != nil {
		return nil, fmt.Errorf("更新状态失败: %w", err)
	}

	s.kickSync()
	return req, nil
}

// SetDetailedStatus 更新细分状态。高层状态保持不变（与 SetStatus 的
// 联动是单向的），客户消息按当前进度重算。
func (s *LabRequestService) SetDetailedStatus(ctx context.Context, id, detailedStatus, reason, updatedBy string) (*entity.LabRequest, error) {
	req, err := s.repos.LabRequest.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	// 最新进度用于 In Progress 的动态消息
	var testProgress *int
	if latest, err := s.repos.Ledger.LatestProgress(ctx, id); err == nil {
		testProgress = &latest.ProgressPercent
	} else if !errors.Is(err, repository.ErrNotFound) {
		return nil, fmt.Errorf("查询当前进度失败: %w", err)
	}

	info := status.Resolve(detailedStatus, testProgress, reason)

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		log := &entity.LabRequestStatusLog{
			ID:                     newID(),
			LabRequestID:           id,
			PreviousStatus:         req.Status,
			CurrentStatus:          req.Status,
			PreviousDetailedStatus: req.DetailedStatus,
			CurrentDetailedStatus:  detailedStatus,
			ChangedBy:              updatedBy,
			Notes:                  reason,
		}

		req.DetailedStatus = detailedStatus
		req.CustomerMessage = info.Message

		if err := tx.Create(log).Error; err != nil {
			return err
		}
		if err := tx.Save(req).Error; err != nil {
			return err
		}
		return s.appendEvent(tx, req, testProgress)
	})
	if err != nil {
		return nil, fmt.Errorf("更新细分状态失败: %w", err)
	}

	s.kickSync()
	return req, nil
}

// AddProgressReq 进度上报请求
type AddProgressReq struct {
	ProgressPercent int    `json:"progress_percent" binding:"min=0,max=100"`
	Notes           string `json:"notes"`
}

// AddProgress 追加进度流水。进度不要求单调递增。仅当细分状态恰为
// "In Progress" 时按公式重算客户消息。
func (s *LabRequestService) AddProgress(ctx context.Context, id string, req AddProgressReq, updatedBy string) (*entity.LabRequestProgress, error) {
	labReq, err := s.repos.LabRequest.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	progress := &entity.LabRequestProgress{
		ID:              newID(),
		LabRequestID:    id,
		ProgressPercent: req.ProgressPercent,
		Notes:           req.Notes,
		UpdatedBy:       updatedBy,
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(progress).Error; err != nil {
			return err
		}

		if labReq.DetailedStatus == status.InProgress {
			info := status.Resolve(status.InProgress, &req.ProgressPercent, "")
			labReq.CustomerMessage = info.Message
			if err := tx.Save(labReq).Error; err != nil {
				return err
			}
		}

		return s.appendEvent(tx, labReq, &req.ProgressPercent)
	})
	if err != nil {
		return nil, fmt.Errorf("记录进度失败: %w", err)
	}

	s.kickSync()
	return progress, nil
}

// AssignEngineerReq 分配工程师请求
type AssignEngineerReq struct {
	EngineerID string `json:"engineer_id" binding:"required"`
}

// AssignEngineer 分配/改派工程师。追加分配流水并更新当前指针；
// Pending 状态下自动流转到 (In Progress, Testing Started) 并留一条
// 状态日志。
func (s *LabRequestService) AssignEngineer(ctx context.Context, id, engineerID, assignedBy string) (*entity.LabRequestAssignment, error) {
	req, err := s.repos.LabRequest.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	assignment := &entity.LabRequestAssignment{
		ID:           newID(),
		LabRequestID: id,
		EngineerID:   engineerID,
		AssignedBy:   assignedBy,
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(assignment).Error; err != nil {
			return err
		}

		req.AssignedEngineerID = &engineerID

		if req.Status == entity.StatusPending {
			log := &entity.LabRequestStatusLog{
				ID:                     newID(),
				LabRequestID:           id,
				PreviousStatus:         req.Status,
				CurrentStatus:          entity.StatusInProgress,
				PreviousDetailedStatus: req.DetailedStatus,
				CurrentDetailedStatus:  status.TestingStarted,
				ChangedBy:              assignedBy,
				Notes:                  "Engineer assigned",
			}
			if err := tx.Create(log).Error; err != nil {
				return err
			}

			info := status.Resolve(status.TestingStarted, nil, "")
			req.Status = entity.StatusInProgress
			req.DetailedStatus = status.TestingStarted
			req.CustomerMessage = info.Message
		}

		if err := tx.Save(req).Error; err != nil {
			return err
		}
		return s.appendEvent(tx, req, nil)
	})
	if err != nil {
		return nil, fmt.Errorf("分配工程师失败: %w", err)
	}

	s.kickSync()
	return assignment, nil
}

// CreateScheduleReq 创建排期请求
type CreateScheduleReq struct {
	EngineerID     string `json:"engineer_id" binding:"required"`
	StartDatetime  string `json:"start_datetime" binding:"required" time_format:"2006-01-02T15:04:05Z07:00"`
	EndDatetime    string `json:"end_datetime" binding:"required"`
	ScheduleStatus string `json:"schedule_status"`
}

// CreateSchedule 创建排期记录。无状态副作用，不触发同步。
func (s *LabRequestService) CreateSchedule(ctx context.Context, schedule *entity.LabSchedule) (*entity.LabSchedule, error) {
	if _, err := s.repos.LabRequest.FindByID(ctx, schedule.LabRequestID); err != nil {
		return nil, err
	}

	schedule.ID = newID()
	if schedule.ScheduleStatus == "" {
		schedule.ScheduleStatus = "Scheduled"
	}

	if err := s.repos.Ledger.AppendSchedule(ctx, schedule); err != nil {
		return nil, fmt.Errorf("创建排期失败: %w", err)
	}
	return schedule, nil
}

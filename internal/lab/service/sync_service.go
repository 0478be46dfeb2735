package service

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/bitfantasy/labtrack/internal/lab/entity"
	"github.com/bitfantasy/labtrack/internal/lab/repository"
	"github.com/bitfantasy/labtrack/internal/lab/sse"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// StatusEventChannel 状态事件的Redis发布频道
const StatusEventChannel = "lab:status-events"

// ErrNoLinkedRequest 发起方没有关联该委托单（正常情况，按no-op处理）
var ErrNoLinkedRequest = errors.New("no originating request linked")

// OriginatingRequests 发起方请求协作方：按委托单ID查找并覆写状态。
// 由各业务模块（校准、认证等）的仓库实现。
type OriginatingRequests interface {
	// OverwriteStatus 全量覆写发起方请求的状态字段；
	// 未找到关联请求时返回 ErrNoLinkedRequest。
	OverwriteStatus(ctx context.Context, labRequestID, newStatus string) error
}

// statusProjection 委托单高层状态到发起方状态的固定映射
var statusProjection = map[string]string{
	entity.StatusPending:    "submitted",
	entity.StatusInProgress: "in_progress",
	entity.StatusCompleted:  "completed",
	entity.StatusRejected:   "rejected",
}

// ProjectStatus 映射高层状态，未知值回落到 submitted
func ProjectStatus(labStatus string) string {
	if mapped, ok := statusProjection[labStatus]; ok {
		return mapped
	}
	return "submitted"
}

// SyncService 状态同步调度器。
// 委托单变更在事务内落一条outbox事件，这里异步消费：把状态投影
// 覆写到发起方请求，再发布到Redis和SSE。投递失败只记日志和重试
// 计数，绝不影响触发它的委托单变更。
type SyncService struct {
	eventRepo   *repository.EventRepository
	originating OriginatingRequests
	rdb         *redis.Client
	hub         *sse.Hub
	logger      *zap.Logger
	kick        chan struct{}
	interval    time.Duration
	batchSize   int
}

func NewSyncService(
	eventRepo *repository.EventRepository,
	originating OriginatingRequests,
	rdb *redis.Client,
	hub *sse.Hub,
	logger *zap.Logger,
) *SyncService {
	return &SyncService{
		eventRepo:   eventRepo,
		originating: originating,
		rdb:         rdb,
		hub:         hub,
		logger:      logger,
		kick:        make(chan struct{}, 1),
		interval:    5 * time.Second,
		batchSize:   100,
	}
}

// Configure 覆盖调度周期和单轮批量，零值保持默认
func (s *SyncService) Configure(interval time.Duration, batchSize int) {
	if interval > 0 {
		s.interval = interval
	}
	if batchSize > 0 {
		s.batchSize = batchSize
	}
}

// Kick 催促调度器立即跑一轮（非阻塞）
func (s *SyncService) Kick() {
	select {
	case s.kick <- struct{}{}:
	default:
	}
}

// Run 调度循环，ctx取消时退出
func (s *SyncService) Run(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		case <-s.kick:
		}
		if err := s.DispatchPending(ctx); err != nil {
			s.logger.Warn("Sync dispatch round failed", zap.Error(err))
		}
	}
}

// DispatchPending 投递当前全部待处理事件
func (s *SyncService) DispatchPending(ctx context.Context) error {
	events, err := s.eventRepo.ListPending(ctx, s.batchSize)
	if err != nil {
		return err
	}

	for _, event := range events {
		s.dispatch(ctx, event)
	}
	return nil
}

func (s *SyncService) dispatch(ctx context.Context, event entity.LabStatusEvent) {
	mapped := ProjectStatus(event.Status)

	err := s.originating.OverwriteStatus(ctx, event.LabRequestID, mapped)
	if err != nil && !errors.Is(err, ErrNoLinkedRequest) {
		// 覆写失败：记一次重试，事件保持pending
		s.logger.Warn("Failed to sync status to originating request",
			zap.String("lab_request_id", event.LabRequestID),
			zap.String("status", mapped),
			zap.Error(err),
		)
		if markErr := s.eventRepo.MarkFailed(ctx, event.ID, err.Error()); markErr != nil {
			s.logger.Error("Failed to record sync failure", zap.Error(markErr))
		}
		return
	}

	if errors.Is(err, ErrNoLinkedRequest) {
		// 委托单可以独立于发起方请求存在，无关联时按已投递处理
		s.logger.Debug("No originating request linked, skipping sync",
			zap.String("lab_request_id", event.LabRequestID),
		)
	} else {
		s.logger.Info("Synced lab request status to originating request",
			zap.String("lab_request_id", event.LabRequestID),
			zap.String("status", event.Status),
			zap.String("mapped_status", mapped),
			zap.String("detailed_status", event.DetailedStatus),
		)
	}

	if err := s.eventRepo.MarkDispatched(ctx, event.ID); err != nil {
		s.logger.Error("Failed to mark event dispatched", zap.String("event_id", event.ID), zap.Error(err))
		return
	}

	s.publish(ctx, event, mapped)
}

// publish 投递成功后对外广播：Redis Pub/Sub + 进程内SSE
func (s *SyncService) publish(ctx context.Context, event entity.LabStatusEvent, mapped string) {
	payload, err := json.Marshal(map[string]interface{}{
		"lab_request_id":  event.LabRequestID,
		"status":          event.Status,
		"detailed_status": event.DetailedStatus,
		"mapped_status":   mapped,
		"progress":        event.Progress,
	})
	if err != nil {
		return
	}

	if s.rdb != nil {
		if err := s.rdb.Publish(ctx, StatusEventChannel, payload).Err(); err != nil {
			s.logger.Warn("Failed to publish status event to Redis", zap.Error(err))
		}
	}

	if s.hub != nil {
		s.hub.Broadcast(sse.Event{EventType: "status_changed", Data: string(payload)})
	}
}

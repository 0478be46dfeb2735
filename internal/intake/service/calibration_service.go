package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/bitfantasy/labtrack/internal/intake/entity"
	"github.com/bitfantasy/labtrack/internal/intake/repository"
	labrepo "github.com/bitfantasy/labtrack/internal/lab/repository"
	labservice "github.com/bitfantasy/labtrack/internal/lab/service"
	"github.com/bitfantasy/labtrack/internal/lab/status"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// CalibrationService 校准申请单服务。
// 提交时生成委托单并建立关联；委托单创建失败只记日志，
// 不回滚已提交的申请单。
type CalibrationService struct {
	repo       *repository.CalibrationRepository
	labService *labservice.LabRequestService
	logger     *zap.Logger
}

func NewCalibrationService(
	repo *repository.CalibrationRepository,
	labService *labservice.LabRequestService,
	logger *zap.Logger,
) *CalibrationService {
	return &CalibrationService{
		repo:       repo,
		labService: labService,
		logger:     logger,
	}
}

func newID() string {
	return strings.ReplaceAll(uuid.New().String(), "-", "")
}

// Create 创建草稿状态的校准申请单
func (s *CalibrationService) Create(ctx context.Context) (*entity.CalibrationRequest, error) {
	id := newID()
	req := &entity.CalibrationRequest{
		ID:          id,
		RequestCode: "CAL-" + strings.ToUpper(id[:8]),
		Status:      entity.CalibrationStatusDraft,
	}
	if err := s.repo.Create(ctx, req); err != nil {
		return nil, fmt.Errorf("创建校准申请单失败: %w", err)
	}
	return req, nil
}

// SaveProductDetailsReq 产品信息
type SaveProductDetailsReq struct {
	EUTName            string `json:"eut_name"`
	EUTQuantity        int    `json:"eut_quantity"`
	Manufacturer       string `json:"manufacturer"`
	ModelNo            string `json:"model_no"`
	SerialNo           string `json:"serial_no"`
	SupplyVoltage      string `json:"supply_voltage"`
	OperatingFrequency string `json:"operating_frequency"`
	Industry           string `json:"industry"`
	PreferredDate      string `json:"preferred_date"`
	Notes              string `json:"notes"`
}

// SaveProductDetails 保存产品信息
func (s *CalibrationService) SaveProductDetails(ctx context.Context, calibrationRequestID string, req SaveProductDetailsReq) (*entity.CalibrationProductDetails, error) {
	if _, err := s.repo.FindByID(ctx, calibrationRequestID); err != nil {
		return nil, err
	}

	details := &entity.CalibrationProductDetails{
		ID:                   newID(),
		CalibrationRequestID: calibrationRequestID,
		EUTName:              req.EUTName,
		EUTQuantity:          req.EUTQuantity,
		Manufacturer:         req.Manufacturer,
		ModelNo:              req.ModelNo,
		SerialNo:             req.SerialNo,
		SupplyVoltage:        req.SupplyVoltage,
		OperatingFrequency:   req.OperatingFrequency,
		Industry:             req.Industry,
		PreferredDate:        req.PreferredDate,
		Notes:                req.Notes,
	}

	if err := s.repo.SaveProductDetails(ctx, details); err != nil {
		return nil, fmt.Errorf("保存产品信息失败: %w", err)
	}
	return details, nil
}

// SubmitReq 提交请求（最后一步的实验室选择）
type SubmitReq struct {
	SelectedLabs []string `json:"selected_labs"`
	Region       string   `json:"region"`
	Remarks      string   `json:"remarks"`
}

// Submit 提交校准申请单：落实验室选择、状态置为 submitted，并自动
// 生成委托单建立关联。委托单创建失败不回滚提交，留待人工补录。
// 重复提交不会生成第二张委托单。
func (s *CalibrationService) Submit(ctx context.Context, id string, req SubmitReq) (*entity.CalibrationRequest, error) {
	calReq, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	labsJSON, err := json.Marshal(req.SelectedLabs)
	if err != nil {
		return nil, fmt.Errorf("序列化实验室选择失败: %w", err)
	}
	selection := &entity.CalibrationLabSelection{
		ID:                   newID(),
		CalibrationRequestID: id,
		SelectedLabs:         string(labsJSON),
		Region:               req.Region,
		Remarks:              req.Remarks,
	}
	if err := s.repo.SaveLabSelection(ctx, selection); err != nil {
		return nil, fmt.Errorf("保存实验室选择失败: %w", err)
	}

	calReq.Status = entity.CalibrationStatusSubmitted
	if err := s.repo.Update(ctx, calReq); err != nil {
		return nil, fmt.Errorf("提交校准申请单失败: %w", err)
	}

	if calReq.LabRequestID == nil {
		productName := "Calibration Request #" + calReq.RequestCode
		if details, err := s.repo.FindProductDetails(ctx, id); err == nil && details.EUTName != "" {
			productName = details.EUTName
		}

		labReq, err := s.labService.Create(ctx, labservice.CreateLabRequestReq{
			ProductName: productName,
			ServiceType: "Calibration",
		})
		if err != nil {
			// 提交本身已生效，委托单创建失败不回滚
			s.logger.Warn("Failed to create lab request for calibration submission",
				zap.String("calibration_request_id", id),
				zap.Error(err),
			)
			return calReq, nil
		}

		calReq.LabRequestID = &labReq.ID
		if err := s.repo.Update(ctx, calReq); err != nil {
			s.logger.Warn("Failed to link lab request to calibration request",
				zap.String("calibration_request_id", id),
				zap.String("lab_request_id", labReq.ID),
				zap.Error(err),
			)
			return calReq, nil
		}

		s.logger.Info("Linked calibration request to lab request",
			zap.String("calibration_request_id", id),
			zap.String("lab_request_id", labReq.ID),
		)
	}

	return calReq, nil
}

// CalibrationStatusView 客户侧状态视图，关联委托单存在时附带其
// 细分状态、消息、进度和时间轴
type CalibrationStatusView struct {
	ID              string             `json:"id"`
	RequestCode     string             `json:"request_code"`
	Status          string             `json:"status"`
	LabRequestID    *string            `json:"lab_request_id"`
	DetailedStatus  string             `json:"detailed_status,omitempty"`
	CustomerMessage string             `json:"customer_message,omitempty"`
	Progress        *int               `json:"progress,omitempty"`
	ActionRequired  bool               `json:"action_required"`
	Timeline        []status.Milestone `json:"timeline,omitempty"`
}

// Status 查询校准申请单状态视图
func (s *CalibrationService) Status(ctx context.Context, id string) (*CalibrationStatusView, error) {
	calReq, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	view := &CalibrationStatusView{
		ID:           calReq.ID,
		RequestCode:  calReq.RequestCode,
		Status:       calReq.Status,
		LabRequestID: calReq.LabRequestID,
	}

	if calReq.LabRequestID == nil {
		return view, nil
	}

	full, err := s.labService.GetFull(ctx, *calReq.LabRequestID)
	if err != nil {
		if errors.Is(err, labrepo.ErrNotFound) {
			// 关联的委托单被删除，视图退化为仅本地状态
			return view, nil
		}
		return nil, err
	}

	view.DetailedStatus = full.Request.DetailedStatus
	view.CustomerMessage = full.Request.CustomerMessage
	if n := len(full.Progress); n > 0 {
		view.Progress = &full.Progress[n-1].ProgressPercent
	}
	view.ActionRequired = status.Resolve(full.Request.DetailedStatus, view.Progress, "").ActionRequired
	view.Timeline = status.Timeline(full.Request.DetailedStatus)

	return view, nil
}

package service

import (
	"context"
	"fmt"

	"github.com/xuri/excelize/v2"
)

// ExportXLSX 导出委托单列表为Excel工作簿
func (s *LabRequestService) ExportXLSX(ctx context.Context) (*excelize.File, error) {
	items, err := s.List(ctx)
	if err != nil {
		return nil, err
	}

	f := excelize.NewFile()
	sheet := "LabRequests"
	index, err := f.NewSheet(sheet)
	if err != nil {
		return nil, fmt.Errorf("创建工作表失败: %w", err)
	}
	f.SetActiveSheet(index)
	f.DeleteSheet("Sheet1")

	headers := []string{"Request Code", "Product", "Service Type", "Status", "Detailed Status", "Customer Message", "Created", "Engineer"}
	for i, h := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		f.SetCellValue(sheet, cell, h)
	}

	for row, item := range items {
		engineer := ""
		if item.AssignedEngineerID != nil {
			engineer = *item.AssignedEngineerID
		}
		values := []interface{}{
			item.RequestCode,
			item.ProductName,
			item.ServiceType,
			item.Status,
			item.DetailedStatus,
			item.CustomerMessage,
			item.CreatedDate,
			engineer,
		}
		for col, v := range values {
			cell, _ := excelize.CoordinatesToCellName(col+1, row+2)
			f.SetCellValue(sheet, cell, v)
		}
	}

	return f, nil
}

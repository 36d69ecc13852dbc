package services

import (
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"time"

	"github.com/jung-kurt/gofpdf"
	"github.com/leakwatch/leakwatch-api/internal/models"
	"github.com/leakwatch/leakwatch-api/internal/repository"
	"github.com/xuri/excelize/v2"
)

// ExportService produces downloadable leak reports for a company.
type ExportService struct {
	leakRepo repository.LeakRepository
}

func NewExportService(leakRepo repository.LeakRepository) *ExportService {
	return &ExportService{leakRepo: leakRepo}
}

func (s *ExportService) fetch(ctx context.Context, companyID uint) ([]models.Leak, *repository.LeakSummary, error) {
	query := repository.NewListQuery()
	query.PerPage = 10000
	leaks, _, err := s.leakRepo.FindByCompany(ctx, companyID, query)
	if err != nil {
		return nil, nil, err
	}
	summary, err := s.leakRepo.Summary(ctx, companyID)
	if err != nil {
		return nil, nil, err
	}
	return leaks, summary, nil
}

func (s *ExportService) ExportCSV(ctx context.Context, companyID uint) ([]byte, string, error) {
	leaks, summary, err := s.fetch(ctx, companyID)
	if err != nil {
		return nil, "", err
	}

	buf := new(bytes.Buffer)
	writer := csv.NewWriter(buf)

	_ = writer.Write([]string{"Leak Report", time.Now().Format("2006-01-02 15:04")})
	_ = writer.Write([]string{""})

	_ = writer.Write([]string{"Summary"})
	_ = writer.Write([]string{"Open Leaks", fmt.Sprintf("%d", summary.TotalOpen)})
	_ = writer.Write([]string{"Amount at Risk", fmt.Sprintf("%.2f", summary.TotalAmount)})
	_ = writer.Write([]string{"Critical", fmt.Sprintf("%d", summary.Critical)})
	_ = writer.Write([]string{"High", fmt.Sprintf("%d", summary.High)})
	_ = writer.Write([]string{"Medium", fmt.Sprintf("%d", summary.Medium)})
	_ = writer.Write([]string{"Low", fmt.Sprintf("%d", summary.Low)})
	_ = writer.Write([]string{""})

	_ = writer.Write([]string{"Type", "Status", "Priority", "Amount", "Confidence", "Reference", "Aging (days)", "Detected At"})
	for _, leak := range leaks {
		_ = writer.Write([]string{
			leak.LeakType,
			leak.Status,
			leak.Priority,
			fmt.Sprintf("%.2f", leak.Amount),
			fmt.Sprintf("%d", leak.Confidence),
			leak.SourceReference,
			fmt.Sprintf("%d", leak.AgingDays),
			leak.DetectedAt.Format("2006-01-02"),
		})
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, "", err
	}

	filename := fmt.Sprintf("leak_report_%s.csv", time.Now().Format("2006-01-02"))
	return buf.Bytes(), filename, nil
}

func (s *ExportService) ExportXLSX(ctx context.Context, companyID uint) ([]byte, string, error) {
	leaks, summary, err := s.fetch(ctx, companyID)
	if err != nil {
		return nil, "", err
	}

	f := excelize.NewFile()
	defer f.Close()

	sheet := "Leaks"
	_ = f.SetSheetName("Sheet1", sheet)

	headerStyle, _ := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true, Size: 14},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"#E0E0E0"}, Pattern: 1},
	})

	_ = f.SetCellValue(sheet, "A1", "Leak Report")
	_ = f.SetCellStyle(sheet, "A1", "A1", headerStyle)

	_ = f.SetCellValue(sheet, "A3", "Summary")
	_ = f.SetCellValue(sheet, "A4", "Open Leaks")
	_ = f.SetCellValue(sheet, "B4", summary.TotalOpen)
	_ = f.SetCellValue(sheet, "A5", "Amount at Risk")
	_ = f.SetCellValue(sheet, "B5", summary.TotalAmount)
	_ = f.SetCellValue(sheet, "A6", "Critical")
	_ = f.SetCellValue(sheet, "B6", summary.Critical)
	_ = f.SetCellValue(sheet, "A7", "High")
	_ = f.SetCellValue(sheet, "B7", summary.High)
	_ = f.SetCellValue(sheet, "A8", "Medium")
	_ = f.SetCellValue(sheet, "B8", summary.Medium)
	_ = f.SetCellValue(sheet, "A9", "Low")
	_ = f.SetCellValue(sheet, "B9", summary.Low)

	headers := []string{"Type", "Status", "Priority", "Amount", "Confidence", "Reference", "Aging (days)", "Detected At"}
	for i, header := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 11)
		_ = f.SetCellValue(sheet, cell, header)
	}

	for row, leak := range leaks {
		values := []interface{}{
			leak.LeakType,
			leak.Status,
			leak.Priority,
			leak.Amount,
			leak.Confidence,
			leak.SourceReference,
			leak.AgingDays,
			leak.DetectedAt.Format("2006-01-02"),
		}
		for col, value := range values {
			cell, _ := excelize.CoordinatesToCellName(col+1, row+12)
			_ = f.SetCellValue(sheet, cell, value)
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, "", err
	}

	filename := fmt.Sprintf("leak_report_%s.xlsx", time.Now().Format("2006-01-02"))
	return buf.Bytes(), filename, nil
}

func (s *ExportService) ExportPDF(ctx context.Context, companyID uint) ([]byte, string, error) {
	leaks, summary, err := s.fetch(ctx, companyID)
	if err != nil {
		return nil, "", err
	}

	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.AddPage()

	pdf.SetFont("Arial", "B", 16)
	pdf.Cell(40, 10, "Leak Report")
	pdf.Ln(12)

	pdf.SetFont("Arial", "B", 12)
	pdf.Cell(40, 10, "Summary")
	pdf.Ln(8)

	pdf.SetFont("Arial", "", 10)
	pdf.Cell(60, 10, "Open Leaks:")
	pdf.Cell(40, 10, fmt.Sprintf("%d", summary.TotalOpen))
	pdf.Ln(6)

	pdf.Cell(60, 10, "Amount at Risk:")
	pdf.Cell(40, 10, fmt.Sprintf("%.2f USD", summary.TotalAmount))
	pdf.Ln(6)

	pdf.Cell(60, 10, "Critical / High / Medium / Low:")
	pdf.Cell(40, 10, fmt.Sprintf("%d / %d / %d / %d", summary.Critical, summary.High, summary.Medium, summary.Low))
	pdf.Ln(12)

	pdf.SetFont("Arial", "B", 12)
	pdf.Cell(40, 10, "Leaks")
	pdf.Ln(8)

	pdf.SetFont("Arial", "", 9)
	for _, leak := range leaks {
		pdf.Cell(50, 8, leak.LeakType)
		pdf.Cell(30, 8, leak.Priority)
		pdf.Cell(30, 8, fmt.Sprintf("%.2f", leak.Amount))
		pdf.Cell(40, 8, leak.SourceReference)
		pdf.Cell(30, 8, leak.DetectedAt.Format("2006-01-02"))
		pdf.Ln(6)
	}

	buf := new(bytes.Buffer)
	if err := pdf.Output(buf); err != nil {
		return nil, "", err
	}

	filename := fmt.Sprintf("leak_report_%s.pdf", time.Now().Format("2006-01-02"))
	return buf.Bytes(), filename, nil
}

package services

import (
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"log/slog"
	"strconv"

	"github.com/xuri/excelize/v2"
)

const (
	ExportFormatExcel = "xlsx"
	ExportFormatCSV   = "csv"
)

// ExportService renders a session's answers as a grading sheet
type ExportService interface {
	ExportAnswerSheet(ctx context.Context, token, studentID, sessionID, format string) (*ExportFile, error)
}

type ExportFile struct {
	Filename    string
	ContentType string
	Data        []byte
}

type exportService struct {
	sessions SessionService
	logger   *slog.Logger
}

func NewExportService(sessions SessionService, logger *slog.Logger) ExportService {
	if logger == nil {
		logger = slog.Default()
	}
	return &exportService{
		sessions: sessions,
		logger:   logger,
	}
}

var answerSheetHeaders = []string{
	"Question Number", "Question ID", "Part", "Type", "Answer", "Resolved",
}

func (s *exportService) ExportAnswerSheet(ctx context.Context, token, studentID, sessionID, format string) (*ExportFile, error) {
	sheet, err := s.sessions.AnswerSheet(ctx, token, studentID, sessionID)
	if err != nil {
		return nil, err
	}

	s.logger.Info("Exporting answer sheet",
		"session_id", sessionID,
		"format", format,
		"rows", len(sheet.Rows))

	switch format {
	case "", ExportFormatExcel:
		data, err := answerSheetToExcel(sheet)
		if err != nil {
			return nil, err
		}
		return &ExportFile{
			Filename:    fmt.Sprintf("answers-%s.xlsx", sheet.SessionID),
			ContentType: "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",
			Data:        data,
		}, nil
	case ExportFormatCSV:
		data, err := answerSheetToCSV(sheet)
		if err != nil {
			return nil, err
		}
		return &ExportFile{
			Filename:    fmt.Sprintf("answers-%s.csv", sheet.SessionID),
			ContentType: "text/csv",
			Data:        data,
		}, nil
	default:
		return nil, NewValidationError("format", "unsupported export format", format)
	}
}

func answerSheetRows(sheet *AnswerSheet) [][]string {
	rows := make([][]string, 0, len(sheet.Rows))
	for _, r := range sheet.Rows {
		part := ""
		if r.PartNumber > 0 {
			part = strconv.Itoa(r.PartNumber)
		}
		resolved := "no"
		if r.Resolved {
			resolved = "yes"
		}
		rows = append(rows, []string{
			strconv.Itoa(r.Number), r.QuestionID, part, r.QuestionType, r.Answer, resolved,
		})
	}
	return rows
}

func answerSheetToExcel(sheet *AnswerSheet) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	sheetName := "Answers"
	index, err := f.NewSheet(sheetName)
	if err != nil {
		return nil, fmt.Errorf("failed to create Excel sheet: %w", err)
	}
	f.SetActiveSheet(index)
	f.DeleteSheet("Sheet1")

	headerStyle, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return nil, fmt.Errorf("failed to create header style: %w", err)
	}

	for i, header := range answerSheetHeaders {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		f.SetCellValue(sheetName, cell, header)
	}
	f.SetCellStyle(sheetName, "A1", "F1", headerStyle)

	for rowIndex, row := range answerSheetRows(sheet) {
		for colIndex, value := range row {
			cell, _ := excelize.CoordinatesToCellName(colIndex+1, rowIndex+2)
			if colIndex == 0 || (colIndex == 2 && value != "") {
				n, _ := strconv.Atoi(value)
				f.SetCellValue(sheetName, cell, n)
				continue
			}
			f.SetCellValue(sheetName, cell, value)
		}
	}
	f.SetColWidth(sheetName, "B", "B", 38)
	f.SetColWidth(sheetName, "E", "E", 40)

	// Session metadata on a second sheet
	meta := "Session"
	if _, err := f.NewSheet(meta); err != nil {
		return nil, fmt.Errorf("failed to create Excel sheet: %w", err)
	}
	for i, kv := range [][2]string{
		{"Session", sheet.SessionID},
		{"Task", sheet.TaskID},
		{"Mock", sheet.MockID},
		{"Mock Type", string(sheet.MockType)},
		{"Student", sheet.StudentID},
		{"Status", sheet.Status},
	} {
		f.SetCellValue(meta, fmt.Sprintf("A%d", i+1), kv[0])
		f.SetCellValue(meta, fmt.Sprintf("B%d", i+1), kv[1])
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("failed to write Excel file: %w", err)
	}
	return buf.Bytes(), nil
}

func answerSheetToCSV(sheet *AnswerSheet) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.Write(answerSheetHeaders); err != nil {
		return nil, err
	}
	if err := w.WriteAll(answerSheetRows(sheet)); err != nil {
		return nil, fmt.Errorf("failed to write CSV: %w", err)
	}
	return buf.Bytes(), nil
}

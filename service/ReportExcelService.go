// Copyright 2024-2025 NetCracker Technology Corporation
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package service

import (
	"fmt"
	"time"

	"github.com/Netcracker/qubership-pipelines-cleanup/view"
	"github.com/xuri/excelize/v2"
)

const summarySheetName = "Summary"
const resultsSheetName = "Results"
const remainingSheetName = "Remaining"

type ReportExcelService interface {
	ExportCleanupReport(report view.CleanupReport, results []view.CleanupJobResult) (*excelize.File, string, error)
}

func NewReportExcelService() ReportExcelService {
	return &reportExcelServiceImpl{}
}

type reportExcelServiceImpl struct {
}

func (e reportExcelServiceImpl) ExportCleanupReport(report view.CleanupReport, results []view.CleanupJobResult) (*excelize.File, string, error) {
	cleanupReport := cleanupReportWorkbook{workbook: excelize.NewFile()}
	if err := cleanupReport.createSummarySheet(report); err != nil {
		return nil, "", err
	}
	if err := cleanupReport.createResultsSheet(results); err != nil {
		return nil, "", err
	}
	if err := cleanupReport.createRemainingSheet(report.Remaining); err != nil {
		return nil, "", err
	}
	cleanupReport.workbook.SetActiveSheet(cleanupReport.firstSheetIndex)
	if err := cleanupReport.workbook.DeleteSheet("Sheet1"); err != nil {
		return nil, "", fmt.Errorf("failed to delete default Sheet1: %v", err.Error())
	}
	filename := fmt.Sprintf("cleanup_job_%s_%v.xlsx", report.JobId, report.FinishedAt.Format("2006-01-02 15-04-05"))
	return cleanupReport.workbook, filename, nil
}

type cleanupReportWorkbook struct {
	workbook        *excelize.File
	firstSheetIndex int
}

func (c *cleanupReportWorkbook) createSummarySheet(report view.CleanupReport) error {
	var err error
	c.firstSheetIndex, err = c.workbook.NewSheet(summarySheetName)
	if err != nil {
		return fmt.Errorf("failed to create new sheet: %v", err)
	}
	headerStyle := getSummaryHeaderStyle(c.workbook)
	c.workbook.SetColWidth(summarySheetName, "A", "A", 25)
	c.workbook.SetColWidth(summarySheetName, "B", "B", 45)

	cells := make(map[string]interface{})
	rows := [][]interface{}{
		{"Job ID", report.JobId},
		{"Status", string(report.Status)},
		{"Details", report.Details},
		{"Started At", report.StartedAt.Format(time.RFC3339)},
		{"Finished At", report.FinishedAt.Format(time.RFC3339)},
		{"Selected", report.Selected},
		{"Deleted", report.Deleted},
		{"Failed", report.Failed},
		{"Remaining", report.Remaining.Backlog()},
	}
	rowIndex := 1
	for _, row := range rows {
		cells[fmt.Sprintf("A%d", rowIndex)] = row[0]
		cells[fmt.Sprintf("B%d", rowIndex)] = row[1]
		rowIndex++
	}
	if err = c.workbook.SetCellStyle(summarySheetName, "A1", fmt.Sprintf("A%d", rowIndex-1), headerStyle); err != nil {
		return err
	}

	if report.Families != nil && len(report.Families.Keys()) > 0 {
		rowIndex++
		cells[fmt.Sprintf("A%d", rowIndex)] = "Family"
		cells[fmt.Sprintf("B%d", rowIndex)] = "Deleted"
		if err = c.workbook.SetCellStyle(summarySheetName, fmt.Sprintf("A%d", rowIndex), fmt.Sprintf("B%d", rowIndex), getHeaderStyle(c.workbook)); err != nil {
			return err
		}
		rowIndex++
		for _, family := range report.Families.Keys() {
			deleted, _ := report.Families.Get(family)
			cells[fmt.Sprintf("A%d", rowIndex)] = family
			cells[fmt.Sprintf("B%d", rowIndex)] = deleted
			rowIndex++
		}
	}
	return setCellsValues(c.workbook, summarySheetName, cells)
}

func (c *cleanupReportWorkbook) createResultsSheet(results []view.CleanupJobResult) error {
	if _, err := c.workbook.NewSheet(resultsSheetName); err != nil {
		return fmt.Errorf("failed to create new sheet: %v", err)
	}
	headerStyle := getHeaderStyle(c.workbook)
	evenCellStyle := getEvenCellStyle(c.workbook)
	oddCellStyle := getOddCellStyle(c.workbook)

	cells := make(map[string]interface{})
	cells["A1"] = "Tick"
	cells["B1"] = "Pipeline"
	cells["C1"] = "Stack"
	cells["D1"] = "Outcome"
	cells["E1"] = "Error"
	cells["F1"] = "Processed At"
	err := c.workbook.SetCellStyle(resultsSheetName, "A1", "F1", headerStyle)
	if err != nil {
		return err
	}
	c.workbook.SetColWidth(resultsSheetName, "A", "A", 8)
	c.workbook.SetColWidth(resultsSheetName, "B", "C", 40)
	c.workbook.SetColWidth(resultsSheetName, "D", "D", 16)
	c.workbook.SetColWidth(resultsSheetName, "E", "E", 60)
	c.workbook.SetColWidth(resultsSheetName, "F", "F", 22)

	rowIndex := 2
	for _, result := range results {
		cells[fmt.Sprintf("A%d", rowIndex)] = result.Tick
		cells[fmt.Sprintf("B%d", rowIndex)] = result.PipelineName
		cells[fmt.Sprintf("C%d", rowIndex)] = result.StackName
		cells[fmt.Sprintf("D%d", rowIndex)] = string(result.Outcome)
		cells[fmt.Sprintf("E%d", rowIndex)] = result.Error
		cells[fmt.Sprintf("F%d", rowIndex)] = result.ProcessedAt.Format(time.RFC3339)
		if rowIndex%2 == 0 {
			err = c.workbook.SetCellStyle(resultsSheetName, fmt.Sprintf("A%d", rowIndex), fmt.Sprintf("F%d", rowIndex), evenCellStyle)
		} else {
			err = c.workbook.SetCellStyle(resultsSheetName, fmt.Sprintf("A%d", rowIndex), fmt.Sprintf("F%d", rowIndex), oddCellStyle)
		}
		if err != nil {
			return err
		}
		rowIndex++
	}
	if err = setCellsValues(c.workbook, resultsSheetName, cells); err != nil {
		return fmt.Errorf("failed to set cell values: %v", err.Error())
	}
	return c.workbook.AutoFilter(resultsSheetName, fmt.Sprintf("A1:F%d", rowIndex-1), []excelize.AutoFilterOptions{})
}

func (c *cleanupReportWorkbook) createRemainingSheet(remaining view.ProgressStatus) error {
	if _, err := c.workbook.NewSheet(remainingSheetName); err != nil {
		return fmt.Errorf("failed to create new sheet: %v", err)
	}
	cells := make(map[string]interface{})
	cells["A1"] = "Pipeline"
	cells["B1"] = "Stack"
	if err := c.workbook.SetCellStyle(remainingSheetName, "A1", "B1", getHeaderStyle(c.workbook)); err != nil {
		return err
	}
	c.workbook.SetColWidth(remainingSheetName, "A", "B", 40)
	for i, pair := range remaining.UnitsOfWork {
		cells[fmt.Sprintf("A%d", i+2)] = pair.PipelineName
		cells[fmt.Sprintf("B%d", i+2)] = pair.StackName
	}
	return setCellsValues(c.workbook, remainingSheetName, cells)
}

func setCellsValues(report *excelize.File, sheetName string, columnsValue map[string]interface{}) error {
	for key, value := range columnsValue {
		err := report.SetCellValue(sheetName, key, value)
		if err != nil {
			return err
		}
	}
	return nil
}

func getHeaderStyle(file *excelize.File) (style int) {
	headerStyle, _ := file.NewStyle(&excelize.Style{
		Font: &excelize.Font{
			Bold:   true,
			Family: "Arial",
			Size:   10,
			Color:  "FFFFFF",
		},
		Border: []excelize.Border{
			{Type: "left", Color: "E2E5E8", Style: 1},
			{Type: "right", Color: "E2E5E8", Style: 1},
			{Type: "top", Color: "E2E5E8", Style: 1},
			{Type: "bottom", Color: "E2E5E8", Style: 1},
		},
		Fill: excelize.Fill{
			Type:    "pattern",
			Color:   []string{"4E79A0"},
			Pattern: 1,
		},
	})
	return headerStyle
}

func getSummaryHeaderStyle(file *excelize.File) (style int) {
	headerStyle, _ := file.NewStyle(&excelize.Style{
		Font: &excelize.Font{
			Bold:   true,
			Family: "Arial",
			Size:   10,
		},
		Border: []excelize.Border{
			{Type: "left", Color: "000000", Style: 1},
			{Type: "right", Color: "000000", Style: 1},
			{Type: "top", Color: "000000", Style: 1},
			{Type: "bottom", Color: "000000", Style: 1},
		},
		Fill: excelize.Fill{
			Type:    "pattern",
			Color:   []string{"DAE3ED"},
			Pattern: 1,
		},
	})
	return headerStyle
}

func getEvenCellStyle(file *excelize.File) (style int) {
	evenCellStyle, _ := file.NewStyle(&excelize.Style{
		Font: &excelize.Font{
			Family: "Arial",
			Size:   10,
		},
		Border: []excelize.Border{
			{Type: "left", Color: "E2E5E8", Style: 1},
			{Type: "right", Color: "E2E5E8", Style: 1},
			{Type: "top", Color: "E2E5E8", Style: 1},
			{Type: "bottom", Color: "E2E5E8", Style: 1},
		},
		Fill: excelize.Fill{
			Type:    "pattern",
			Color:   []string{"#F5F7F8"},
			Pattern: 1,
		},
	})
	return evenCellStyle
}

func getOddCellStyle(file *excelize.File) (style int) {
	oddCellStyle, _ := file.NewStyle(&excelize.Style{
		Font: &excelize.Font{
			Family: "Arial",
			Size:   10,
		},
		Border: []excelize.Border{
			{Type: "left", Color: "E2E5E8", Style: 1},
			{Type: "right", Color: "E2E5E8", Style: 1},
			{Type: "top", Color: "E2E5E8", Style: 1},
			{Type: "bottom", Color: "E2E5E8", Style: 1},
		},
	})
	return oddCellStyle
}

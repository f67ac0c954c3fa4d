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
	"testing"
	"time"

	"github.com/Netcracker/qubership-pipelines-cleanup/view"
	"github.com/iancoleman/orderedmap"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExportCleanupReport(t *testing.T) {
	finishedAt := time.Date(2025, time.June, 15, 14, 30, 0, 0, time.UTC)
	families := orderedmap.New()
	families.Set("orders", 2)
	report := view.CleanupReport{
		JobId:      "job-1",
		Status:     view.JobStatusTimedOut,
		StartedAt:  finishedAt.Add(-4 * time.Hour),
		FinishedAt: finishedAt,
		Selected:   4,
		Deleted:    2,
		Failed:     1,
		Remaining:  view.NewProgressStatus([]view.PipelineStackPair{pairOf("orders", 4)}),
		Families:   families,
	}
	results := []view.CleanupJobResult{
		{Tick: 1, PipelineName: pairOf("orders", 1).PipelineName, StackName: pairOf("orders", 1).StackName, Outcome: view.DeletionOutcomeDeleted, ProcessedAt: finishedAt},
		{Tick: 1, PipelineName: pairOf("orders", 2).PipelineName, StackName: pairOf("orders", 2).StackName, Outcome: view.DeletionOutcomeFailed, Error: "denied", ProcessedAt: finishedAt},
		{Tick: 2, PipelineName: pairOf("orders", 3).PipelineName, StackName: pairOf("orders", 3).StackName, Outcome: view.DeletionOutcomeAlreadyAbsent, ProcessedAt: finishedAt},
	}

	workbook, filename, err := NewReportExcelService().ExportCleanupReport(report, results)
	require.NoError(t, err)

	assert.Equal(t, "cleanup_job_job-1_2025-06-15 14-30-00.xlsx", filename)
	assert.Equal(t, []string{summarySheetName, resultsSheetName, remainingSheetName}, workbook.GetSheetList())

	status, err := workbook.GetCellValue(summarySheetName, "B2")
	require.NoError(t, err)
	assert.Equal(t, "timed_out", status)
	remaining, _ := workbook.GetCellValue(summarySheetName, "B9")
	assert.Equal(t, "1", remaining)
	family, _ := workbook.GetCellValue(summarySheetName, "A12")
	assert.Equal(t, "orders", family)
	familyDeleted, _ := workbook.GetCellValue(summarySheetName, "B12")
	assert.Equal(t, "2", familyDeleted)

	outcome, _ := workbook.GetCellValue(resultsSheetName, "D3")
	assert.Equal(t, "failed", outcome)
	errorText, _ := workbook.GetCellValue(resultsSheetName, "E3")
	assert.Equal(t, "denied", errorText)
	lastStack, _ := workbook.GetCellValue(resultsSheetName, "C4")
	assert.Equal(t, pairOf("orders", 3).StackName, lastStack)

	remainingStack, _ := workbook.GetCellValue(remainingSheetName, "B2")
	assert.Equal(t, pairOf("orders", 4).StackName, remainingStack)
}

func TestExportCleanupReport_EmptyJob(t *testing.T) {
	report := view.CleanupReport{
		JobId:     "job-2",
		Status:    view.JobStatusComplete,
		Remaining: view.NewProgressStatus(nil),
		Families:  orderedmap.New(),
	}

	workbook, _, err := NewReportExcelService().ExportCleanupReport(report, nil)
	require.NoError(t, err)

	header, _ := workbook.GetCellValue(resultsSheetName, "A1")
	assert.Equal(t, "Tick", header)
	firstRow, _ := workbook.GetCellValue(resultsSheetName, "A2")
	assert.Empty(t, firstRow)
}

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

package controller

import (
	"fmt"
	"net/http"
	"slices"

	"github.com/Netcracker/qubership-pipelines-cleanup/context"
	"github.com/Netcracker/qubership-pipelines-cleanup/exception"
	"github.com/Netcracker/qubership-pipelines-cleanup/metrics"
	"github.com/Netcracker/qubership-pipelines-cleanup/service"
	"github.com/Netcracker/qubership-pipelines-cleanup/view"
	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
)

const reportFormatXlsx = "xlsx"
const reportFormatJson = "json"

var reportFormats = []string{reportFormatXlsx, reportFormatJson}

type CleanupController interface {
	SelectForDeletion(w http.ResponseWriter, r *http.Request)
	Advance(w http.ResponseWriter, r *http.Request)
	StartJob(w http.ResponseWriter, r *http.Request)
	ListJobs(w http.ResponseWriter, r *http.Request)
	GetJob(w http.ResponseWriter, r *http.Request)
	GetJobResults(w http.ResponseWriter, r *http.Request)
	GetJobReport(w http.ResponseWriter, r *http.Request)
	CancelJob(w http.ResponseWriter, r *http.Request)
	RegisterDeployment(w http.ResponseWriter, r *http.Request)
}

func NewCleanupController(selectionService service.SelectionService,
	executor service.BatchDeletionExecutor,
	cleanupJobService service.CleanupJobService,
	inventoryService service.InventoryService,
	reportExcelService service.ReportExcelService) CleanupController {
	return &cleanupControllerImpl{
		selectionService:   selectionService,
		executor:           executor,
		cleanupJobService:  cleanupJobService,
		inventoryService:   inventoryService,
		reportExcelService: reportExcelService,
	}
}

type cleanupControllerImpl struct {
	selectionService   service.SelectionService
	executor           service.BatchDeletionExecutor
	cleanupJobService  service.CleanupJobService
	inventoryService   service.InventoryService
	reportExcelService service.ReportExcelService
}

func (c cleanupControllerImpl) SelectForDeletion(w http.ResponseWriter, r *http.Request) {
	progress, err := c.selectionService.SelectForDeletion(r.Context(), metrics.TriggerApi)
	if err != nil {
		RespondWithError(w, "Failed to select pipeline stacks for deletion", err)
		return
	}
	RespondWithJson(w, http.StatusOK, progress)
}

func (c cleanupControllerImpl) Advance(w http.ResponseWriter, r *http.Request) {
	var progress view.ProgressStatus
	if customError := readJsonBody(r, &progress); customError != nil {
		RespondWithCustomError(w, customError)
		return
	}
	if err := service.ValidateProgressStatus(progress); err != nil {
		RespondWithError(w, "Invalid progress status", err)
		return
	}
	next, report := c.executor.Advance(r.Context(), progress)
	log.Infof("Cleanup batch requested by %s: %d deleted, %d failed, %d pairs left",
		context.GetInitiator(r), report.Succeeded, report.Failed, report.BacklogAfter)
	RespondWithJson(w, http.StatusOK, next)
}

func (c cleanupControllerImpl) StartJob(w http.ResponseWriter, r *http.Request) {
	job, err := c.cleanupJobService.StartJob(r.Context(), context.GetInitiator(r))
	if err != nil {
		RespondWithError(w, "Failed to start cleanup job", err)
		return
	}
	RespondWithJson(w, http.StatusAccepted, job)
}

func (c cleanupControllerImpl) ListJobs(w http.ResponseWriter, r *http.Request) {
	limit, customError := getLimitQueryParam(r)
	if customError != nil {
		RespondWithCustomError(w, customError)
		return
	}
	page, customError := getPageQueryParam(r)
	if customError != nil {
		RespondWithCustomError(w, customError)
		return
	}
	jobs, err := c.cleanupJobService.ListJobs(r.Context(), limit, page)
	if err != nil {
		RespondWithError(w, "Failed to list cleanup jobs", err)
		return
	}
	RespondWithJson(w, http.StatusOK, jobs)
}

func (c cleanupControllerImpl) GetJob(w http.ResponseWriter, r *http.Request) {
	jobId, customError := getJobIdParam(r)
	if customError != nil {
		RespondWithCustomError(w, customError)
		return
	}
	job, err := c.cleanupJobService.GetJob(r.Context(), jobId)
	if err != nil {
		RespondWithError(w, "Failed to get cleanup job", err)
		return
	}
	RespondWithJson(w, http.StatusOK, job)
}

func (c cleanupControllerImpl) GetJobResults(w http.ResponseWriter, r *http.Request) {
	jobId, customError := getJobIdParam(r)
	if customError != nil {
		RespondWithCustomError(w, customError)
		return
	}
	results, err := c.cleanupJobService.GetJobResults(r.Context(), jobId)
	if err != nil {
		RespondWithError(w, "Failed to get cleanup job results", err)
		return
	}
	RespondWithJson(w, http.StatusOK, results)
}

func (c cleanupControllerImpl) GetJobReport(w http.ResponseWriter, r *http.Request) {
	jobId, customError := getJobIdParam(r)
	if customError != nil {
		RespondWithCustomError(w, customError)
		return
	}
	format := r.URL.Query().Get("format")
	if format == "" {
		format = reportFormatXlsx
	}
	if !slices.Contains(reportFormats, format) {
		RespondWithCustomError(w, &exception.CustomError{
			Status:  http.StatusBadRequest,
			Code:    exception.InvalidParameterValue,
			Message: exception.InvalidParameterValueMsg,
			Params:  map[string]interface{}{"param": "format", "value": format},
		})
		return
	}

	if format == reportFormatJson {
		report, err := c.cleanupJobService.GetArchivedReport(r.Context(), jobId)
		if err != nil {
			RespondWithError(w, "Failed to get archived cleanup job report", err)
			return
		}
		RespondWithJson(w, http.StatusOK, report)
		return
	}

	report, results, err := c.cleanupJobService.GetJobReport(r.Context(), jobId)
	if err != nil {
		RespondWithError(w, "Failed to build cleanup job report", err)
		return
	}
	workbook, filename, err := c.reportExcelService.ExportCleanupReport(*report, results)
	if err != nil {
		RespondWithError(w, "Failed to export cleanup job report", err)
		return
	}
	w.Header().Set("Content-Type", "application/octet-stream")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%v", filename))
	w.Header().Set("Content-Transfer-Encoding", "binary")
	w.Header().Set("Expires", "0")
	workbook.Write(w)
}

func (c cleanupControllerImpl) CancelJob(w http.ResponseWriter, r *http.Request) {
	jobId, customError := getJobIdParam(r)
	if customError != nil {
		RespondWithCustomError(w, customError)
		return
	}
	err := c.cleanupJobService.CancelJob(r.Context(), jobId, context.GetInitiator(r))
	if err != nil {
		RespondWithError(w, "Failed to cancel cleanup job", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (c cleanupControllerImpl) RegisterDeployment(w http.ResponseWriter, r *http.Request) {
	var registration view.InventoryRegistration
	if customError := readJsonBody(r, &registration); customError != nil {
		RespondWithCustomError(w, customError)
		return
	}
	record, err := c.inventoryService.RegisterDeployment(r.Context(), registration)
	if err != nil {
		RespondWithError(w, "Failed to register pipeline stack deployment", err)
		return
	}
	RespondWithJson(w, http.StatusOK, record)
}

func getJobIdParam(r *http.Request) (string, *exception.CustomError) {
	jobId, err := getUnescapedStringParam(r, "jobId")
	if err != nil {
		return "", &exception.CustomError{
			Status:  http.StatusBadRequest,
			Code:    exception.InvalidURLEscape,
			Message: exception.InvalidURLEscapeMsg,
			Params:  map[string]interface{}{"param": "jobId"},
			Debug:   err.Error(),
		}
	}
	if _, err = uuid.Parse(jobId); err != nil {
		return "", &exception.CustomError{
			Status:  http.StatusBadRequest,
			Code:    exception.InvalidParameterValue,
			Message: exception.InvalidParameterValueMsg,
			Params:  map[string]interface{}{"param": "jobId", "value": jobId},
			Debug:   err.Error(),
		}
	}
	return jobId, nil
}

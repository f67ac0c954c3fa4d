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
	"context"
	"errors"
	"fmt"
	"net/http"
	"sort"
	"time"

	"github.com/Netcracker/qubership-pipelines-cleanup/cache"
	"github.com/Netcracker/qubership-pipelines-cleanup/client"
	pcontext "github.com/Netcracker/qubership-pipelines-cleanup/context"
	"github.com/Netcracker/qubership-pipelines-cleanup/entity"
	"github.com/Netcracker/qubership-pipelines-cleanup/exception"
	"github.com/Netcracker/qubership-pipelines-cleanup/metrics"
	"github.com/Netcracker/qubership-pipelines-cleanup/repository"
	"github.com/Netcracker/qubership-pipelines-cleanup/utils"
	"github.com/Netcracker/qubership-pipelines-cleanup/view"
	"github.com/google/uuid"
	"github.com/iancoleman/orderedmap"
	"github.com/robfig/cron/v3"
	log "github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

const unknownFamily = "unknown"

type CleanupJobService interface {
	StartJob(ctx context.Context, initiator string) (*view.CleanupJob, error)
	RunTick(ctx context.Context)
	GetJob(ctx context.Context, jobId string) (*view.CleanupJob, error)
	ListJobs(ctx context.Context, limit int, page int) (*view.CleanupJobs, error)
	GetJobResults(ctx context.Context, jobId string) (*view.CleanupJobResults, error)
	GetJobReport(ctx context.Context, jobId string) (*view.CleanupReport, []view.CleanupJobResult, error)
	GetArchivedReport(ctx context.Context, jobId string) (*view.CleanupReport, error)
	CancelJob(ctx context.Context, jobId string, initiator string) error
	StartScheduler(schedule string) error
	StopScheduler() context.Context
}

func NewCleanupJobService(
	cleanupJobRepository repository.CleanupJobRepository,
	inventoryRepository repository.InventoryRepository,
	selectionService SelectionService,
	executor BatchDeletionExecutor,
	locker cache.JobLocker,
	reportStorageService ReportStorageService,
	notificationClient client.NotificationClient,
	instanceId string,
	tickLockTtl time.Duration) CleanupJobService {
	return &cleanupJobServiceImpl{
		cleanupJobRepository: cleanupJobRepository,
		inventoryRepository:  inventoryRepository,
		selectionService:     selectionService,
		executor:             executor,
		locker:               locker,
		reportStorageService: reportStorageService,
		notificationClient:   notificationClient,
		policy:               selectionService.GetPolicy(),
		instanceId:           instanceId,
		tickLockTtl:          tickLockTtl,
		cron:                 cron.New(),
		now:                  time.Now,
	}
}

type cleanupJobServiceImpl struct {
	cleanupJobRepository repository.CleanupJobRepository
	inventoryRepository  repository.InventoryRepository
	selectionService     SelectionService
	executor             BatchDeletionExecutor
	locker               cache.JobLocker
	reportStorageService ReportStorageService
	notificationClient   client.NotificationClient
	policy               view.RetentionPolicy
	instanceId           string
	tickLockTtl          time.Duration
	cron                 *cron.Cron
	now                  func() time.Time
}

func (c *cleanupJobServiceImpl) StartScheduler(schedule string) error {
	location, err := time.LoadLocation("")
	if err != nil {
		return err
	}
	c.cron = cron.New(cron.WithLocation(location))
	chain := cron.NewChain(cron.SkipIfStillRunning(cron.DefaultLogger))

	tickSchedule := fmt.Sprintf("@every %dm", c.policy.MinutesBetweenDeletes)
	_, err = c.cron.AddJob(tickSchedule, chain.Then(&cleanupTickJob{service: c}))
	if err != nil {
		log.Warnf("Cleanup tick job wasn't added for schedule - %s. With error - %s", tickSchedule, err)
		return err
	}
	log.Infof("Cleanup tick job was created with schedule - %s", tickSchedule)

	if schedule != "" {
		_, err = c.cron.AddJob(schedule, chain.Then(&cleanupStartJob{service: c}))
		if err != nil {
			log.Warnf("Cleanup start job wasn't added for schedule - %s. With error - %s", schedule, err)
			return err
		}
		log.Infof("Cleanup start job was created with schedule - %s", schedule)
	} else {
		log.Infof("Cleanup schedule is not set, cleanup jobs are started via API only")
	}
	c.cron.Start()
	return nil
}

func (c *cleanupJobServiceImpl) StopScheduler() context.Context {
	return c.cron.Stop()
}

type cleanupTickJob struct {
	service *cleanupJobServiceImpl
}

func (j *cleanupTickJob) Run() {
	j.service.RunTick(context.Background())
}

type cleanupStartJob struct {
	service *cleanupJobServiceImpl
}

func (j *cleanupStartJob) Run() {
	job, err := j.service.startJob(context.Background(), pcontext.SystemInitiator, metrics.TriggerSchedule)
	if err != nil {
		var customError *exception.CustomError
		if errors.As(err, &customError) && customError.Code == exception.CleanupJobAlreadyRunning {
			log.Infof("Scheduled cleanup job was skipped: %s", customError.Error())
			return
		}
		log.Errorf("Failed to start scheduled cleanup job: %v", err)
		return
	}
	log.Infof("Scheduled cleanup job %s started with %d pairs selected", job.JobId, job.Selected)
}

func (c *cleanupJobServiceImpl) StartJob(ctx context.Context, initiator string) (*view.CleanupJob, error) {
	return c.startJob(ctx, initiator, metrics.TriggerApi)
}

func (c *cleanupJobServiceImpl) startJob(ctx context.Context, initiator string, trigger string) (*view.CleanupJob, error) {
	pendingJobs, err := c.cleanupJobRepository.GetPendingCleanupJobs(ctx)
	if err != nil {
		return nil, err
	}
	if len(pendingJobs) > 0 {
		return nil, &exception.CustomError{
			Status:  http.StatusConflict,
			Code:    exception.CleanupJobAlreadyRunning,
			Message: exception.CleanupJobAlreadyRunningMsg,
			Params:  map[string]interface{}{"jobId": pendingJobs[0].JobId},
		}
	}

	progress, err := c.selectionService.SelectForDeletion(ctx, trigger)
	if err != nil {
		return nil, err
	}

	startedAt := c.now()
	ent := &entity.CleanupJobEntity{
		JobId:      uuid.New().String(),
		Status:     string(view.JobStatusPending),
		StartedBy:  initiator,
		InstanceId: c.instanceId,
		StartedAt:  startedAt,
		Deadline:   startedAt.Add(c.policy.DeleteProcessTimeout()),
		Selected:   progress.Backlog(),
		Progress:   progress,
		Policy:     c.policy,
	}
	if progress.IsComplete {
		ent.Status = string(view.JobStatusComplete)
		ent.FinishedAt = &startedAt
	}
	if err = c.cleanupJobRepository.StoreCleanupJob(ctx, ent); err != nil {
		return nil, err
	}
	log.Infof("Cleanup job %s started by %s: %d pairs selected, deadline %s", ent.JobId, initiator, ent.Selected, ent.Deadline.Format(time.RFC3339))

	if progress.IsComplete {
		c.onJobFinished(ctx, ent)
	} else {
		metrics.BacklogSize.WithLabelValues(ent.JobId).Set(float64(progress.Backlog()))
	}
	return entity.MakeCleanupJobView(*ent), nil
}

func (c *cleanupJobServiceImpl) RunTick(ctx context.Context) {
	start := time.Now()
	defer func() {
		metrics.TickDuration.Observe(time.Since(start).Seconds())
	}()
	pendingJobs, err := c.cleanupJobRepository.GetPendingCleanupJobs(ctx)
	if err != nil {
		log.Errorf("Failed to get pending cleanup jobs: %v", err)
		return
	}
	for _, job := range pendingJobs {
		c.processJob(ctx, job.JobId)
	}
}

func (c *cleanupJobServiceImpl) processJob(ctx context.Context, jobId string) {
	unlock, acquired, err := c.locker.TryLock(jobLockKey(jobId), c.tickLockTtl)
	if err != nil {
		log.Errorf("Failed to attempt lock acquisition for cleanup job %s: %v", jobId, err)
		return
	}
	if !acquired {
		log.Infof("Cleanup job %s tick skipped - another instance is processing the job", jobId)
		return
	}
	defer unlock()

	// the job may have been advanced or cancelled while waiting for the lock
	job, err := c.cleanupJobRepository.GetCleanupJob(ctx, jobId)
	if err != nil {
		log.Errorf("Failed to get cleanup job %s: %v", jobId, err)
		return
	}
	if job == nil || job.Status != string(view.JobStatusPending) {
		return
	}

	now := c.now()
	if !now.Before(job.Deadline) {
		c.timeoutJob(ctx, job, now)
		return
	}

	jobCtx := pcontext.CreateContextWithJobId(ctx, jobId)
	next, report := c.executor.Advance(jobCtx, job.Progress)
	tickAt := c.now()

	job.Ticks++
	job.Deleted += report.Succeeded
	job.Failed += report.Failed
	job.Progress = next
	job.LastTickAt = &tickAt
	if next.IsComplete {
		job.Status = string(view.JobStatusComplete)
		job.FinishedAt = &tickAt
	}
	results := entity.MakeCleanupBatchResultEntities(jobId, job.Ticks, tickAt, report)
	if err = c.cleanupJobRepository.SaveTick(ctx, job, results); err != nil {
		log.Errorf("Failed to save tick %d of cleanup job %s: %v", job.Ticks, jobId, err)
		return
	}
	metrics.BacklogSize.WithLabelValues(jobId).Set(float64(next.Backlog()))
	c.markStacksDeleted(ctx, report, tickAt)

	log.Infof("Cleanup job %s tick %d: %d deleted, %d failed, %d pairs left", jobId, job.Ticks, report.Succeeded, report.Failed, next.Backlog())
	if next.IsComplete {
		c.onJobFinished(ctx, job)
	}
}

func (c *cleanupJobServiceImpl) timeoutJob(ctx context.Context, job *entity.CleanupJobEntity, now time.Time) {
	timeoutErr := &exception.CustomError{
		Status:  http.StatusRequestTimeout,
		Code:    exception.SchedulingTimeout,
		Message: exception.SchedulingTimeoutMsg,
		Params: map[string]interface{}{
			"jobId":     job.JobId,
			"timeout":   job.Policy.DeleteProcessTimeoutMinutes,
			"remaining": job.Progress.Backlog(),
		},
	}
	log.Warn(timeoutErr.Error())
	err := c.cleanupJobRepository.FinishCleanupJob(ctx, job.JobId, view.JobStatusTimedOut, timeoutErr.Error(), now)
	if err != nil {
		log.Errorf("Failed to set timed out status for cleanup job %s: %v", job.JobId, err)
		return
	}
	job.Status = string(view.JobStatusTimedOut)
	job.Details = timeoutErr.Error()
	job.FinishedAt = &now
	c.onJobFinished(ctx, job)
}

func (c *cleanupJobServiceImpl) markStacksDeleted(ctx context.Context, report view.BatchReport, deletedAt time.Time) {
	for _, result := range report.Results {
		if !result.Succeeded() {
			continue
		}
		if err := c.inventoryRepository.MarkStackDeleted(ctx, result.Pair.StackName, deletedAt); err != nil {
			log.Warnf("Failed to mark stack %s as deleted in inventory: %v", result.Pair.StackName, err)
		}
	}
}

// onJobFinished archives the report and notifies subscribers. Both are best-effort.
func (c *cleanupJobServiceImpl) onJobFinished(ctx context.Context, job *entity.CleanupJobEntity) {
	metrics.FinishedJobs.WithLabelValues(job.Status).Inc()
	metrics.BacklogSize.DeleteLabelValues(job.JobId)

	resultEnts, err := c.cleanupJobRepository.GetCleanupJobResults(ctx, job.JobId)
	if err != nil {
		log.Errorf("Failed to get results of cleanup job %s: %v", job.JobId, err)
		return
	}
	report := makeCleanupReport(*job, makeCleanupJobResults(resultEnts))

	g := errgroup.Group{}
	g.Go(func() error {
		if !c.reportStorageService.IsEnabled() {
			return nil
		}
		objectName, err := c.reportStorageService.StoreReport(ctx, report)
		if err != nil {
			return err
		}
		return c.cleanupJobRepository.SetReportObject(ctx, job.JobId, objectName)
	})
	g.Go(func() error {
		if !c.notificationClient.IsEnabled() {
			return nil
		}
		return c.notificationClient.SendCleanupReport(ctx, report)
	})
	if err = g.Wait(); err != nil {
		log.Warnf("Failed to publish report of cleanup job %s: %v", job.JobId, err)
	}
	log.Infof("Cleanup job %s finished with status '%s'. Deleted %d, failed %d, %d pairs left.",
		job.JobId, job.Status, job.Deleted, job.Failed, job.Progress.Backlog())
}

func (c *cleanupJobServiceImpl) GetJob(ctx context.Context, jobId string) (*view.CleanupJob, error) {
	ent, err := c.getExistingJob(ctx, jobId)
	if err != nil {
		return nil, err
	}
	return entity.MakeCleanupJobView(*ent), nil
}

func (c *cleanupJobServiceImpl) ListJobs(ctx context.Context, limit int, page int) (*view.CleanupJobs, error) {
	ents, err := c.cleanupJobRepository.GetCleanupJobs(ctx, limit, page)
	if err != nil {
		return nil, err
	}
	jobs := make([]view.CleanupJob, 0, len(ents))
	for _, ent := range ents {
		jobs = append(jobs, *entity.MakeCleanupJobView(ent))
	}
	return &view.CleanupJobs{Jobs: jobs}, nil
}

func (c *cleanupJobServiceImpl) GetJobResults(ctx context.Context, jobId string) (*view.CleanupJobResults, error) {
	if _, err := c.getExistingJob(ctx, jobId); err != nil {
		return nil, err
	}
	ents, err := c.cleanupJobRepository.GetCleanupJobResults(ctx, jobId)
	if err != nil {
		return nil, err
	}
	return &view.CleanupJobResults{JobId: jobId, Results: makeCleanupJobResults(ents)}, nil
}

func (c *cleanupJobServiceImpl) GetJobReport(ctx context.Context, jobId string) (*view.CleanupReport, []view.CleanupJobResult, error) {
	ent, err := c.getExistingJob(ctx, jobId)
	if err != nil {
		return nil, nil, err
	}
	resultEnts, err := c.cleanupJobRepository.GetCleanupJobResults(ctx, jobId)
	if err != nil {
		return nil, nil, err
	}
	results := makeCleanupJobResults(resultEnts)
	report := makeCleanupReport(*ent, results)
	return &report, results, nil
}

func (c *cleanupJobServiceImpl) GetArchivedReport(ctx context.Context, jobId string) (*view.CleanupReport, error) {
	ent, err := c.getExistingJob(ctx, jobId)
	if err != nil {
		return nil, err
	}
	notAvailable := &exception.CustomError{
		Status:  http.StatusNotFound,
		Code:    exception.CleanupReportNotAvailable,
		Message: exception.CleanupReportNotAvailableMsg,
		Params:  map[string]interface{}{"jobId": jobId},
	}
	if ent.ReportObject == "" {
		return nil, notAvailable
	}
	report, err := c.reportStorageService.GetReport(ctx, ent.ReportObject)
	if err != nil {
		return nil, err
	}
	if report == nil {
		return nil, notAvailable
	}
	return report, nil
}

func (c *cleanupJobServiceImpl) CancelJob(ctx context.Context, jobId string, initiator string) error {
	unlock, acquired, err := c.locker.TryLock(jobLockKey(jobId), c.tickLockTtl)
	if err != nil {
		return err
	}
	if !acquired {
		return &exception.CustomError{
			Status:  http.StatusConflict,
			Code:    exception.CleanupJobTickInProgress,
			Message: exception.CleanupJobTickInProgressMsg,
			Params:  map[string]interface{}{"jobId": jobId},
		}
	}
	defer unlock()

	ent, err := c.getExistingJob(ctx, jobId)
	if err != nil {
		return err
	}
	if view.CleanupJobStatusEnum(ent.Status).IsFinal() {
		return &exception.CustomError{
			Status:  http.StatusConflict,
			Code:    exception.CleanupJobAlreadyFinished,
			Message: exception.CleanupJobAlreadyFinishedMsg,
			Params:  map[string]interface{}{"jobId": jobId, "status": ent.Status},
		}
	}
	now := c.now()
	details := fmt.Sprintf("cancelled by %s", initiator)
	if err = c.cleanupJobRepository.FinishCleanupJob(ctx, jobId, view.JobStatusCancelled, details, now); err != nil {
		return err
	}
	ent.Status = string(view.JobStatusCancelled)
	ent.Details = details
	ent.FinishedAt = &now
	c.onJobFinished(ctx, ent)
	return nil
}

func (c *cleanupJobServiceImpl) getExistingJob(ctx context.Context, jobId string) (*entity.CleanupJobEntity, error) {
	ent, err := c.cleanupJobRepository.GetCleanupJob(ctx, jobId)
	if err != nil {
		return nil, err
	}
	if ent == nil {
		return nil, &exception.CustomError{
			Status:  http.StatusNotFound,
			Code:    exception.CleanupJobNotFound,
			Message: exception.CleanupJobNotFoundMsg,
			Params:  map[string]interface{}{"jobId": jobId},
		}
	}
	return ent, nil
}

func jobLockKey(jobId string) string {
	return "cleanup-job-" + jobId
}

func makeCleanupJobResults(ents []entity.CleanupBatchResultEntity) []view.CleanupJobResult {
	results := make([]view.CleanupJobResult, 0, len(ents))
	for _, ent := range ents {
		results = append(results, entity.MakeCleanupJobResultView(ent))
	}
	return results
}

func makeCleanupReport(job entity.CleanupJobEntity, results []view.CleanupJobResult) view.CleanupReport {
	families := orderedmap.New()
	failures := make([]view.CleanupJobResult, 0)
	for _, result := range results {
		if result.Outcome == view.DeletionOutcomeFailed {
			failures = append(failures, result)
			continue
		}
		family, _, ok := utils.ParseVersionedPipelineStackName(result.StackName)
		if !ok {
			family = unknownFamily
		}
		deleted := 0
		if value, exists := families.Get(family); exists {
			deleted = value.(int)
		}
		families.Set(family, deleted+1)
	}
	families.SortKeys(sort.Strings)

	report := view.CleanupReport{
		JobId:     job.JobId,
		Status:    view.CleanupJobStatusEnum(job.Status),
		Details:   job.Details,
		StartedAt: job.StartedAt,
		Selected:  job.Selected,
		Deleted:   job.Deleted,
		Failed:    job.Failed,
		Remaining: job.Progress,
		Families:  families,
		Failures:  failures,
	}
	if job.FinishedAt != nil {
		report.FinishedAt = *job.FinishedAt
	}
	return report
}

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
	"net/http"
	"sync"
	"testing"
	"time"

	"github.com/Netcracker/qubership-pipelines-cleanup/cache"
	"github.com/Netcracker/qubership-pipelines-cleanup/entity"
	"github.com/Netcracker/qubership-pipelines-cleanup/exception"
	"github.com/Netcracker/qubership-pipelines-cleanup/utils"
	"github.com/Netcracker/qubership-pipelines-cleanup/view"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// inMemoryCleanupJobRepository keeps jobs in maps and lets tests override single calls.
type inMemoryCleanupJobRepository struct {
	mutex       sync.Mutex
	jobs        map[string]*entity.CleanupJobEntity
	results     map[string][]entity.CleanupBatchResultEntity
	SaveTickErr error
}

func newInMemoryCleanupJobRepository() *inMemoryCleanupJobRepository {
	return &inMemoryCleanupJobRepository{
		jobs:    map[string]*entity.CleanupJobEntity{},
		results: map[string][]entity.CleanupBatchResultEntity{},
	}
}

func (r *inMemoryCleanupJobRepository) StoreCleanupJob(ctx context.Context, ent *entity.CleanupJobEntity) error {
	r.mutex.Lock()
	defer r.mutex.Unlock()
	copied := *ent
	r.jobs[ent.JobId] = &copied
	return nil
}

func (r *inMemoryCleanupJobRepository) GetCleanupJob(ctx context.Context, jobId string) (*entity.CleanupJobEntity, error) {
	r.mutex.Lock()
	defer r.mutex.Unlock()
	ent, exists := r.jobs[jobId]
	if !exists {
		return nil, nil
	}
	copied := *ent
	return &copied, nil
}

func (r *inMemoryCleanupJobRepository) GetCleanupJobs(ctx context.Context, limit int, page int) ([]entity.CleanupJobEntity, error) {
	r.mutex.Lock()
	defer r.mutex.Unlock()
	ents := make([]entity.CleanupJobEntity, 0)
	for _, ent := range r.jobs {
		ents = append(ents, *ent)
	}
	return ents, nil
}

func (r *inMemoryCleanupJobRepository) GetPendingCleanupJobs(ctx context.Context) ([]entity.CleanupJobEntity, error) {
	r.mutex.Lock()
	defer r.mutex.Unlock()
	ents := make([]entity.CleanupJobEntity, 0)
	for _, ent := range r.jobs {
		if ent.Status == string(view.JobStatusPending) {
			ents = append(ents, *ent)
		}
	}
	return ents, nil
}

func (r *inMemoryCleanupJobRepository) SaveTick(ctx context.Context, ent *entity.CleanupJobEntity, results []*entity.CleanupBatchResultEntity) error {
	if r.SaveTickErr != nil {
		return r.SaveTickErr
	}
	r.mutex.Lock()
	defer r.mutex.Unlock()
	copied := *ent
	r.jobs[ent.JobId] = &copied
	for _, result := range results {
		r.results[ent.JobId] = append(r.results[ent.JobId], *result)
	}
	return nil
}

func (r *inMemoryCleanupJobRepository) FinishCleanupJob(ctx context.Context, jobId string, status view.CleanupJobStatusEnum, details string, finishedAt time.Time) error {
	r.mutex.Lock()
	defer r.mutex.Unlock()
	ent, exists := r.jobs[jobId]
	if !exists || ent.Status != string(view.JobStatusPending) {
		return errors.New("cleanup job is not pending anymore")
	}
	ent.Status = string(status)
	ent.Details = details
	ent.FinishedAt = &finishedAt
	return nil
}

func (r *inMemoryCleanupJobRepository) SetReportObject(ctx context.Context, jobId string, reportObject string) error {
	r.mutex.Lock()
	defer r.mutex.Unlock()
	if ent, exists := r.jobs[jobId]; exists {
		ent.ReportObject = reportObject
	}
	return nil
}

func (r *inMemoryCleanupJobRepository) GetCleanupJobResults(ctx context.Context, jobId string) ([]entity.CleanupBatchResultEntity, error) {
	r.mutex.Lock()
	defer r.mutex.Unlock()
	return append([]entity.CleanupBatchResultEntity{}, r.results[jobId]...), nil
}

type mockInventoryRepository struct {
	MarkStackDeletedFunc func(ctx context.Context, stackName string, deletedAt time.Time) error
	deletedStacks        []string
	registered           []*entity.PipelineStackInventoryEntity
}

func (m *mockInventoryRepository) ListPipelineStackFamilies(ctx context.Context) ([]view.InventoryRecord, error) {
	return nil, nil
}

func (m *mockInventoryRepository) RegisterDeployment(ctx context.Context, ent *entity.PipelineStackInventoryEntity) error {
	m.registered = append(m.registered, ent)
	return nil
}

func (m *mockInventoryRepository) MarkStackDeleted(ctx context.Context, stackName string, deletedAt time.Time) error {
	m.deletedStacks = append(m.deletedStacks, stackName)
	if m.MarkStackDeletedFunc != nil {
		return m.MarkStackDeletedFunc(ctx, stackName, deletedAt)
	}
	return nil
}

type mockSelectionService struct {
	SelectForDeletionFunc func(ctx context.Context, trigger string) (view.ProgressStatus, error)
	policy                view.RetentionPolicy
}

func (m *mockSelectionService) SelectForDeletion(ctx context.Context, trigger string) (view.ProgressStatus, error) {
	return m.SelectForDeletionFunc(ctx, trigger)
}

func (m *mockSelectionService) GetPolicy() view.RetentionPolicy {
	return m.policy
}

type mockJobLocker struct {
	TryLockFunc func(key string, ttl time.Duration) (cache.Unlocker, bool, error)
	lockedKeys  []string
	unlocks     int
}

func (m *mockJobLocker) TryLock(key string, ttl time.Duration) (cache.Unlocker, bool, error) {
	m.lockedKeys = append(m.lockedKeys, key)
	if m.TryLockFunc != nil {
		return m.TryLockFunc(key, ttl)
	}
	return func() { m.unlocks++ }, true, nil
}

type mockReportStorageService struct {
	enabled         bool
	StoreReportFunc func(ctx context.Context, report view.CleanupReport) (string, error)
	GetReportFunc   func(ctx context.Context, objectName string) (*view.CleanupReport, error)
	stored          []view.CleanupReport
	mutex           sync.Mutex
}

func (m *mockReportStorageService) IsEnabled() bool {
	return m.enabled
}

func (m *mockReportStorageService) Init(ctx context.Context) error {
	return nil
}

func (m *mockReportStorageService) StoreReport(ctx context.Context, report view.CleanupReport) (string, error) {
	m.mutex.Lock()
	m.stored = append(m.stored, report)
	m.mutex.Unlock()
	if m.StoreReportFunc != nil {
		return m.StoreReportFunc(ctx, report)
	}
	return buildReportObjectName(report.JobId), nil
}

func (m *mockReportStorageService) GetReport(ctx context.Context, objectName string) (*view.CleanupReport, error) {
	if m.GetReportFunc != nil {
		return m.GetReportFunc(ctx, objectName)
	}
	return nil, nil
}

type mockNotificationClient struct {
	enabled               bool
	SendCleanupReportFunc func(ctx context.Context, report view.CleanupReport) error
	sent                  []view.CleanupReport
	mutex                 sync.Mutex
}

func (m *mockNotificationClient) IsEnabled() bool {
	return m.enabled
}

func (m *mockNotificationClient) SendCleanupReport(ctx context.Context, report view.CleanupReport) error {
	m.mutex.Lock()
	m.sent = append(m.sent, report)
	m.mutex.Unlock()
	if m.SendCleanupReportFunc != nil {
		return m.SendCleanupReportFunc(ctx, report)
	}
	return nil
}

type cleanupJobServiceFixture struct {
	service       *cleanupJobServiceImpl
	jobs          *inMemoryCleanupJobRepository
	inventory     *mockInventoryRepository
	selection     *mockSelectionService
	client        *mockDeletionClient
	locker        *mockJobLocker
	storage       *mockReportStorageService
	notifications *mockNotificationClient
	clock         time.Time
}

func newCleanupJobServiceFixture(backlog []view.PipelineStackPair) *cleanupJobServiceFixture {
	f := &cleanupJobServiceFixture{
		jobs:      newInMemoryCleanupJobRepository(),
		inventory: &mockInventoryRepository{},
		selection: &mockSelectionService{
			policy: defaultTestPolicy,
			SelectForDeletionFunc: func(ctx context.Context, trigger string) (view.ProgressStatus, error) {
				return view.NewProgressStatus(backlog), nil
			},
		},
		client:        &mockDeletionClient{},
		locker:        &mockJobLocker{},
		storage:       &mockReportStorageService{enabled: true},
		notifications: &mockNotificationClient{enabled: true},
		clock:         selectorNow,
	}
	svc := NewCleanupJobService(
		f.jobs,
		f.inventory,
		f.selection,
		NewBatchDeletionExecutor(f.client, defaultTestPolicy),
		f.locker,
		f.storage,
		f.notifications,
		"instance-1",
		time.Minute,
	).(*cleanupJobServiceImpl)
	svc.now = func() time.Time { return f.clock }
	f.service = svc
	return f
}

func (f *cleanupJobServiceFixture) advanceClock(d time.Duration) {
	f.clock = f.clock.Add(d)
}

func familyBacklog(family string, versions ...int64) []view.PipelineStackPair {
	backlog := make([]view.PipelineStackPair, 0, len(versions))
	for _, version := range versions {
		backlog = append(backlog, view.PipelineStackPair{
			PipelineName: utils.MakeVersionedPipelineName(family, version),
			StackName:    utils.MakeVersionedPipelineStackName(family, version),
		})
	}
	return backlog
}

func requireCustomError(t *testing.T, err error, code string) *exception.CustomError {
	t.Helper()
	require.Error(t, err)
	var customError *exception.CustomError
	require.True(t, errors.As(err, &customError), "expected CustomError, got %v", err)
	assert.Equal(t, code, customError.Code)
	return customError
}

func TestStartJob_StoresPendingJob(t *testing.T) {
	f := newCleanupJobServiceFixture(familyBacklog("orders", 1, 2, 3))

	job, err := f.service.StartJob(context.Background(), "john")
	require.NoError(t, err)

	assert.NotEmpty(t, job.JobId)
	assert.Equal(t, view.JobStatusPending, job.Status)
	assert.Equal(t, "john", job.StartedBy)
	assert.Equal(t, 3, job.Selected)
	assert.Equal(t, selectorNow, job.StartedAt)
	assert.Equal(t, selectorNow.Add(defaultTestPolicy.DeleteProcessTimeout()), job.Deadline)
	assert.Equal(t, defaultTestPolicy, job.PolicyUsed)
	assert.False(t, job.Progress.IsComplete)

	stored, _ := f.jobs.GetCleanupJob(context.Background(), job.JobId)
	require.NotNil(t, stored)
	assert.Equal(t, "instance-1", stored.InstanceId)
	assert.Empty(t, f.notifications.sent)
}

func TestStartJob_NothingSelectedFinishesImmediately(t *testing.T) {
	f := newCleanupJobServiceFixture(nil)

	job, err := f.service.StartJob(context.Background(), "john")
	require.NoError(t, err)

	assert.Equal(t, view.JobStatusComplete, job.Status)
	require.NotNil(t, job.FinishedAt)
	assert.Equal(t, 0, job.Selected)
	require.Len(t, f.notifications.sent, 1)
	assert.Equal(t, view.JobStatusComplete, f.notifications.sent[0].Status)

	pending, _ := f.jobs.GetPendingCleanupJobs(context.Background())
	assert.Empty(t, pending)
}

func TestStartJob_RejectedWhileAnotherJobIsPending(t *testing.T) {
	f := newCleanupJobServiceFixture(familyBacklog("orders", 1))
	first, err := f.service.StartJob(context.Background(), "john")
	require.NoError(t, err)

	_, err = f.service.StartJob(context.Background(), "jane")

	customError := requireCustomError(t, err, exception.CleanupJobAlreadyRunning)
	assert.Equal(t, http.StatusConflict, customError.Status)
	assert.Equal(t, first.JobId, customError.Params["jobId"])
}

func TestStartJob_SelectionErrorIsReturned(t *testing.T) {
	f := newCleanupJobServiceFixture(nil)
	f.selection.SelectForDeletionFunc = func(ctx context.Context, trigger string) (view.ProgressStatus, error) {
		return view.ProgressStatus{}, &exception.CustomError{Status: http.StatusServiceUnavailable, Code: exception.InventoryUnavailable}
	}

	_, err := f.service.StartJob(context.Background(), "john")

	requireCustomError(t, err, exception.InventoryUnavailable)
	jobs, _ := f.jobs.GetCleanupJobs(context.Background(), 10, 0)
	assert.Empty(t, jobs)
}

func TestRunTick_DrainsBacklogInBatches(t *testing.T) {
	backlog := familyBacklog("orders", 1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11, 12)
	f := newCleanupJobServiceFixture(backlog)
	job, err := f.service.StartJob(context.Background(), "john")
	require.NoError(t, err)

	expectedBacklog := []int{7, 2, 0}
	for i, expected := range expectedBacklog {
		f.advanceClock(5 * time.Minute)
		f.service.RunTick(context.Background())

		current, err := f.service.GetJob(context.Background(), job.JobId)
		require.NoError(t, err)
		assert.Equal(t, i+1, current.Ticks)
		assert.Len(t, current.Progress.UnitsOfWork, expected)
	}

	finished, err := f.service.GetJob(context.Background(), job.JobId)
	require.NoError(t, err)
	assert.Equal(t, view.JobStatusComplete, finished.Status)
	assert.Equal(t, 12, finished.Deleted)
	assert.Equal(t, 0, finished.Failed)
	assert.True(t, finished.Progress.IsComplete)
	assert.Len(t, f.client.calls, 12)
	assert.Len(t, f.inventory.deletedStacks, 12)
	assert.Equal(t, buildReportObjectName(job.JobId), finished.ReportObject)

	results, err := f.service.GetJobResults(context.Background(), job.JobId)
	require.NoError(t, err)
	assert.Len(t, results.Results, 12)

	require.Len(t, f.notifications.sent, 1)
	require.Len(t, f.storage.stored, 1)
	deleted, exists := f.storage.stored[0].Families.Get("orders")
	require.True(t, exists)
	assert.Equal(t, 12, deleted)

	// a finished job is not touched by later ticks
	f.service.RunTick(context.Background())
	assert.Len(t, f.client.calls, 12)
}

func TestRunTick_FailuresAreRecordedAndSkipped(t *testing.T) {
	backlog := familyBacklog("orders", 1, 2, 3)
	f := newCleanupJobServiceFixture(backlog)
	f.client.DeleteStackFunc = func(ctx context.Context, stackName string) (view.DeletionOutcome, error) {
		if stackName == backlog[1].StackName {
			return "", errors.New("stack is protected from deletion")
		}
		return view.DeletionOutcomeDeleted, nil
	}
	job, err := f.service.StartJob(context.Background(), "john")
	require.NoError(t, err)

	f.service.RunTick(context.Background())

	finished, err := f.service.GetJob(context.Background(), job.JobId)
	require.NoError(t, err)
	assert.Equal(t, view.JobStatusComplete, finished.Status)
	assert.Equal(t, 2, finished.Deleted)
	assert.Equal(t, 1, finished.Failed)
	assert.NotContains(t, f.inventory.deletedStacks, backlog[1].StackName)

	report, results, err := f.service.GetJobReport(context.Background(), job.JobId)
	require.NoError(t, err)
	assert.Len(t, results, 3)
	require.Len(t, report.Failures, 1)
	assert.Equal(t, backlog[1].StackName, report.Failures[0].StackName)
	assert.Contains(t, report.Failures[0].Error, "protected")
}

func TestRunTick_SkippedWhenLockIsHeldElsewhere(t *testing.T) {
	f := newCleanupJobServiceFixture(familyBacklog("orders", 1, 2))
	job, err := f.service.StartJob(context.Background(), "john")
	require.NoError(t, err)
	f.locker.TryLockFunc = func(key string, ttl time.Duration) (cache.Unlocker, bool, error) {
		return nil, false, nil
	}

	f.service.RunTick(context.Background())

	current, err := f.service.GetJob(context.Background(), job.JobId)
	require.NoError(t, err)
	assert.Equal(t, 0, current.Ticks)
	assert.Empty(t, f.client.calls)
	assert.Equal(t, []string{jobLockKey(job.JobId)}, f.locker.lockedKeys)
}

func TestRunTick_ReleasesLock(t *testing.T) {
	f := newCleanupJobServiceFixture(familyBacklog("orders", 1, 2, 3, 4, 5, 6))
	_, err := f.service.StartJob(context.Background(), "john")
	require.NoError(t, err)

	f.service.RunTick(context.Background())

	assert.Equal(t, 1, f.locker.unlocks)
}

func TestRunTick_DeadlineExceededTimesOutJob(t *testing.T) {
	backlog := familyBacklog("orders", 1, 2, 3, 4, 5, 6, 7)
	f := newCleanupJobServiceFixture(backlog)
	job, err := f.service.StartJob(context.Background(), "john")
	require.NoError(t, err)

	f.service.RunTick(context.Background())
	f.advanceClock(defaultTestPolicy.DeleteProcessTimeout())
	f.service.RunTick(context.Background())

	current, err := f.service.GetJob(context.Background(), job.JobId)
	require.NoError(t, err)
	assert.Equal(t, view.JobStatusTimedOut, current.Status)
	assert.Equal(t, 1, current.Ticks)
	assert.Len(t, current.Progress.UnitsOfWork, 2)
	assert.Contains(t, current.Details, "240 minutes")
	assert.Contains(t, current.Details, "2 stacks left")
	assert.Len(t, f.client.calls, 5)

	require.Len(t, f.notifications.sent, 1)
	assert.Equal(t, view.JobStatusTimedOut, f.notifications.sent[0].Status)
	assert.Equal(t, backlog[5:], f.notifications.sent[0].Remaining.UnitsOfWork)
}

func TestRunTick_SaveErrorKeepsJobPending(t *testing.T) {
	f := newCleanupJobServiceFixture(familyBacklog("orders", 1, 2))
	job, err := f.service.StartJob(context.Background(), "john")
	require.NoError(t, err)
	f.jobs.SaveTickErr = errors.New("connection reset")

	f.service.RunTick(context.Background())

	current, err := f.service.GetJob(context.Background(), job.JobId)
	require.NoError(t, err)
	assert.Equal(t, view.JobStatusPending, current.Status)
	assert.Equal(t, 0, current.Ticks)
	assert.Empty(t, f.inventory.deletedStacks)
	assert.Empty(t, f.notifications.sent)
}

func TestOnJobFinished_PublishingErrorsAreNotFatal(t *testing.T) {
	f := newCleanupJobServiceFixture(familyBacklog("orders", 1))
	f.storage.StoreReportFunc = func(ctx context.Context, report view.CleanupReport) (string, error) {
		return "", errors.New("bucket is not reachable")
	}
	f.notifications.SendCleanupReportFunc = func(ctx context.Context, report view.CleanupReport) error {
		return errors.New("webhook returned 500")
	}
	job, err := f.service.StartJob(context.Background(), "john")
	require.NoError(t, err)

	f.service.RunTick(context.Background())

	current, err := f.service.GetJob(context.Background(), job.JobId)
	require.NoError(t, err)
	assert.Equal(t, view.JobStatusComplete, current.Status)
	assert.Empty(t, current.ReportObject)
	assert.Len(t, f.notifications.sent, 1)
}

func TestOnJobFinished_DisabledPublishersAreSkipped(t *testing.T) {
	f := newCleanupJobServiceFixture(nil)
	f.storage.enabled = false
	f.notifications.enabled = false

	_, err := f.service.StartJob(context.Background(), "john")
	require.NoError(t, err)

	assert.Empty(t, f.storage.stored)
	assert.Empty(t, f.notifications.sent)
}

func TestCancelJob(t *testing.T) {
	backlog := familyBacklog("orders", 1, 2, 3, 4, 5, 6, 7)
	f := newCleanupJobServiceFixture(backlog)
	job, err := f.service.StartJob(context.Background(), "john")
	require.NoError(t, err)
	f.service.RunTick(context.Background())

	err = f.service.CancelJob(context.Background(), job.JobId, "jane")
	require.NoError(t, err)

	current, err := f.service.GetJob(context.Background(), job.JobId)
	require.NoError(t, err)
	assert.Equal(t, view.JobStatusCancelled, current.Status)
	assert.Equal(t, "cancelled by jane", current.Details)
	assert.Len(t, current.Progress.UnitsOfWork, 2)
	require.Len(t, f.notifications.sent, 1)
	assert.Equal(t, view.JobStatusCancelled, f.notifications.sent[0].Status)

	f.service.RunTick(context.Background())
	assert.Len(t, f.client.calls, 5)

	err = f.service.CancelJob(context.Background(), job.JobId, "jane")
	customError := requireCustomError(t, err, exception.CleanupJobAlreadyFinished)
	assert.Equal(t, string(view.JobStatusCancelled), customError.Params["status"])
}

func TestCancelJob_NotFound(t *testing.T) {
	f := newCleanupJobServiceFixture(nil)

	err := f.service.CancelJob(context.Background(), "00000000-0000-0000-0000-000000000000", "jane")

	customError := requireCustomError(t, err, exception.CleanupJobNotFound)
	assert.Equal(t, http.StatusNotFound, customError.Status)
}

func TestCancelJob_TickInProgress(t *testing.T) {
	f := newCleanupJobServiceFixture(familyBacklog("orders", 1))
	job, err := f.service.StartJob(context.Background(), "john")
	require.NoError(t, err)
	f.locker.TryLockFunc = func(key string, ttl time.Duration) (cache.Unlocker, bool, error) {
		return nil, false, nil
	}

	err = f.service.CancelJob(context.Background(), job.JobId, "jane")

	customError := requireCustomError(t, err, exception.CleanupJobTickInProgress)
	assert.Equal(t, http.StatusConflict, customError.Status)
	current, _ := f.service.GetJob(context.Background(), job.JobId)
	assert.Equal(t, view.JobStatusPending, current.Status)
}

func TestGetArchivedReport(t *testing.T) {
	f := newCleanupJobServiceFixture(nil)
	job, err := f.service.StartJob(context.Background(), "john")
	require.NoError(t, err)
	f.storage.GetReportFunc = func(ctx context.Context, objectName string) (*view.CleanupReport, error) {
		assert.Equal(t, buildReportObjectName(job.JobId), objectName)
		return &view.CleanupReport{JobId: job.JobId, Status: view.JobStatusComplete}, nil
	}

	report, err := f.service.GetArchivedReport(context.Background(), job.JobId)
	require.NoError(t, err)
	assert.Equal(t, job.JobId, report.JobId)
}

func TestGetArchivedReport_NotAvailable(t *testing.T) {
	f := newCleanupJobServiceFixture(familyBacklog("orders", 1))
	job, err := f.service.StartJob(context.Background(), "john")
	require.NoError(t, err)

	_, err = f.service.GetArchivedReport(context.Background(), job.JobId)

	requireCustomError(t, err, exception.CleanupReportNotAvailable)
}

func TestMakeCleanupReport_GroupsByFamily(t *testing.T) {
	finishedAt := selectorNow
	job := entity.CleanupJobEntity{
		JobId:      "job-1",
		Status:     string(view.JobStatusComplete),
		StartedAt:  selectorNow.Add(-time.Hour),
		FinishedAt: &finishedAt,
		Selected:   5,
		Deleted:    4,
		Failed:     1,
		Progress:   view.NewProgressStatus(nil),
	}
	results := []view.CleanupJobResult{
		{StackName: utils.MakeVersionedPipelineStackName("payments", 1), Outcome: view.DeletionOutcomeDeleted},
		{StackName: utils.MakeVersionedPipelineStackName("orders", 1), Outcome: view.DeletionOutcomeDeleted},
		{StackName: utils.MakeVersionedPipelineStackName("orders", 2), Outcome: view.DeletionOutcomeAlreadyAbsent},
		{StackName: "hand-made-stack", Outcome: view.DeletionOutcomeDeleted},
		{StackName: utils.MakeVersionedPipelineStackName("orders", 3), Outcome: view.DeletionOutcomeFailed, Error: "denied"},
	}

	report := makeCleanupReport(job, results)

	assert.Equal(t, []string{"orders", "payments", unknownFamily}, report.Families.Keys())
	orders, _ := report.Families.Get("orders")
	assert.Equal(t, 2, orders)
	require.Len(t, report.Failures, 1)
	assert.Equal(t, "denied", report.Failures[0].Error)
	assert.Equal(t, finishedAt, report.FinishedAt)
	assert.True(t, report.Remaining.IsComplete)
}

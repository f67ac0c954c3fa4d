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
	"fmt"
	"net/http"

	pcontext "github.com/Netcracker/qubership-pipelines-cleanup/context"
	"github.com/Netcracker/qubership-pipelines-cleanup/exception"
	"github.com/Netcracker/qubership-pipelines-cleanup/metrics"
	"github.com/Netcracker/qubership-pipelines-cleanup/view"
	log "github.com/sirupsen/logrus"
)

// DeletionClient removes one stack by name. A stack that is already gone must not be reported as an error.
type DeletionClient interface {
	DeleteStack(ctx context.Context, stackName string) (view.DeletionOutcome, error)
}

// CleanupTick is the single-step contract any orchestrator drives: progress in, progress out.
type CleanupTick interface {
	Tick(ctx context.Context, progress view.ProgressStatus) view.ProgressStatus
}

type BatchDeletionExecutor interface {
	CleanupTick
	Advance(ctx context.Context, progress view.ProgressStatus) (view.ProgressStatus, view.BatchReport)
}

func NewBatchDeletionExecutor(deletionClient DeletionClient, policy view.RetentionPolicy) BatchDeletionExecutor {
	return &batchDeletionExecutorImpl{
		deletionClient: deletionClient,
		batchSize:      policy.DeleteBatchSize,
	}
}

type batchDeletionExecutorImpl struct {
	deletionClient DeletionClient
	batchSize      int
}

func (b batchDeletionExecutorImpl) Tick(ctx context.Context, progress view.ProgressStatus) view.ProgressStatus {
	next, _ := b.Advance(ctx, progress)
	return next
}

func (b batchDeletionExecutorImpl) Advance(ctx context.Context, progress view.ProgressStatus) (view.ProgressStatus, view.BatchReport) {
	report := view.BatchReport{
		BacklogBefore: progress.Backlog(),
		BacklogAfter:  progress.Backlog(),
		Results:       make([]view.DeletionResult, 0),
	}
	if progress.IsComplete {
		return progress, report
	}

	batchSize := b.batchSize
	if batchSize < 1 {
		batchSize = 1
	}
	if batchSize > len(progress.UnitsOfWork) {
		batchSize = len(progress.UnitsOfWork)
	}
	batch := progress.UnitsOfWork[:batchSize]
	next := view.NewProgressStatus(progress.UnitsOfWork[batchSize:])

	for _, pair := range batch {
		report.Add(b.deletePair(ctx, pair))
	}
	report.BacklogAfter = next.Backlog()

	metrics.DeletedPairs.Add(float64(report.Succeeded))
	metrics.FailedPairs.Add(float64(report.Failed))
	log.Infof("Cleanup batch finished: attempted %d, succeeded %d, failed %d, %d pairs left",
		report.Attempted, report.Succeeded, report.Failed, report.BacklogAfter)
	return next, report
}

func (b batchDeletionExecutorImpl) deletePair(ctx context.Context, pair view.PipelineStackPair) (result view.DeletionResult) {
	result = view.DeletionResult{Pair: pair}
	defer func() {
		// a panicking client must not take the rest of the batch down
		if r := recover(); r != nil {
			result = failedResult(ctx, pair, exception.DeletionFailure{
				PipelineName: pair.PipelineName,
				StackName:    pair.StackName,
				Cause:        fmt.Errorf("deletion client panicked: %v", r),
			})
		}
	}()

	outcome, err := b.deletionClient.DeleteStack(ctx, pair.StackName)
	if err != nil {
		return failedResult(ctx, pair, exception.DeletionFailure{
			PipelineName: pair.PipelineName,
			StackName:    pair.StackName,
			Cause:        err,
		})
	}
	if outcome == view.DeletionOutcomeAlreadyAbsent {
		log.WithFields(pairFields(ctx, pair)).Info("Stack is already absent, nothing to delete")
	} else {
		outcome = view.DeletionOutcomeDeleted
		log.WithFields(pairFields(ctx, pair)).Info("Stack deleted")
	}
	result.Outcome = outcome
	return result
}

func failedResult(ctx context.Context, pair view.PipelineStackPair, failure exception.DeletionFailure) view.DeletionResult {
	log.WithFields(pairFields(ctx, pair)).Errorf("Failed to delete pipeline stack: %v", failure.Cause)
	return view.DeletionResult{
		Pair:    pair,
		Outcome: view.DeletionOutcomeFailed,
		Error:   failure.Error(),
	}
}

func pairFields(ctx context.Context, pair view.PipelineStackPair) log.Fields {
	fields := log.Fields{
		"pipelineName": pair.PipelineName,
		"stackName":    pair.StackName,
	}
	if jobId := pcontext.GetJobIdFromContext(ctx); jobId != "" {
		fields["jobId"] = jobId
	}
	return fields
}

// ValidateProgressStatus rejects a status supplied by an outer orchestrator that could not have been produced by a tick.
func ValidateProgressStatus(progress view.ProgressStatus) error {
	reason := ""
	if progress.IsComplete && len(progress.UnitsOfWork) > 0 {
		reason = "isComplete is true while unitsOfWork is not empty"
	}
	for i, pair := range progress.UnitsOfWork {
		if pair.StackName == "" {
			reason = fmt.Sprintf("unitsOfWork[%d] has empty stackName", i)
			break
		}
	}
	if reason == "" {
		return nil
	}
	return &exception.CustomError{
		Status:  http.StatusBadRequest,
		Code:    exception.InvalidProgressStatus,
		Message: exception.InvalidProgressStatusMsg,
		Params:  map[string]interface{}{"reason": reason},
	}
}

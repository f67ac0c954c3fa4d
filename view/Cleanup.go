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

package view

import (
	"fmt"
	"time"
)

// PipelineStackPair identifies one deletable unit: a versioned delivery pipeline and the stack it lives in.
type PipelineStackPair struct {
	PipelineName string `json:"pipelineName"`
	StackName    string `json:"stackName"`
}

func (p PipelineStackPair) String() string {
	return fmt.Sprintf("%s/%s", p.PipelineName, p.StackName)
}

// ProgressStatus is the resumable cursor handed back and forth between ticks.
// Field names are part of the orchestration history format and must not change.
type ProgressStatus struct {
	IsComplete  bool                `json:"isComplete"`
	UnitsOfWork []PipelineStackPair `json:"unitsOfWork"`
}

// NewProgressStatus copies the backlog so that the returned status never shares its slice with the caller.
func NewProgressStatus(backlog []PipelineStackPair) ProgressStatus {
	units := make([]PipelineStackPair, len(backlog))
	copy(units, backlog)
	return ProgressStatus{
		IsComplete:  len(units) == 0,
		UnitsOfWork: units,
	}
}

func (p ProgressStatus) Backlog() int {
	return len(p.UnitsOfWork)
}

type InventoryRecord struct {
	Family              string    `json:"family" validate:"required"`
	VersionOrdinal      *int64    `json:"versionOrdinal" validate:"required"`
	DeploymentTimestamp time.Time `json:"deploymentTimestamp" validate:"required"`
	PipelineName        string    `json:"pipelineName"`
	StackName           string    `json:"stackName" validate:"required"`
}

func (r InventoryRecord) Pair() PipelineStackPair {
	return PipelineStackPair{
		PipelineName: r.PipelineName,
		StackName:    r.StackName,
	}
}

type RetentionPolicy struct {
	HistoryMonths               int `json:"historyMonths"`
	MaxHistoryLength            int `json:"maxHistoryLength"`
	DeleteBatchSize             int `json:"deleteBatchSize"`
	MinutesBetweenDeletes       int `json:"minutesBetweenDeletes"`
	DeleteProcessTimeoutMinutes int `json:"deleteProcessTimeoutMinutes"`
}

func (p RetentionPolicy) DeleteProcessTimeout() time.Duration {
	return time.Duration(p.DeleteProcessTimeoutMinutes) * time.Minute
}

type DeletionOutcome string

const DeletionOutcomeDeleted DeletionOutcome = "deleted"
const DeletionOutcomeAlreadyAbsent DeletionOutcome = "already_absent"
const DeletionOutcomeFailed DeletionOutcome = "failed"

type DeletionResult struct {
	Pair    PipelineStackPair `json:"pair"`
	Outcome DeletionOutcome   `json:"outcome"`
	Error   string            `json:"error,omitempty"`
}

func (r DeletionResult) Succeeded() bool {
	return r.Outcome != DeletionOutcomeFailed
}

// BatchReport is the side channel of a single tick; the progress bookkeeping never depends on it.
type BatchReport struct {
	Attempted     int              `json:"attempted"`
	Succeeded     int              `json:"succeeded"`
	Failed        int              `json:"failed"`
	BacklogBefore int              `json:"backlogBefore"`
	BacklogAfter  int              `json:"backlogAfter"`
	Results       []DeletionResult `json:"results"`
}

func (r *BatchReport) Add(result DeletionResult) {
	r.Attempted++
	if result.Succeeded() {
		r.Succeeded++
	} else {
		r.Failed++
	}
	r.Results = append(r.Results, result)
}

// InventoryRegistration is sent by the deployment pipeline after a pipeline stack is deployed.
type InventoryRegistration struct {
	InventoryRecord
	Account string `json:"account,omitempty"`
}

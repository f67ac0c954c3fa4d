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

	"github.com/iancoleman/orderedmap"
)

type CleanupJobStatusEnum string

const JobStatusPending CleanupJobStatusEnum = "pending"
const JobStatusComplete CleanupJobStatusEnum = "complete"
const JobStatusTimedOut CleanupJobStatusEnum = "timed_out"
const JobStatusCancelled CleanupJobStatusEnum = "cancelled"

func CleanupJobStatusFromString(str string) (CleanupJobStatusEnum, error) {
	switch str {
	case "pending":
		return JobStatusPending, nil
	case "complete":
		return JobStatusComplete, nil
	case "timed_out":
		return JobStatusTimedOut, nil
	case "cancelled":
		return JobStatusCancelled, nil
	}
	return JobStatusPending, fmt.Errorf("unknown cleanup job status: %s", str)
}

func (s CleanupJobStatusEnum) IsFinal() bool {
	return s != JobStatusPending
}

type CleanupJob struct {
	JobId        string               `json:"jobId"`
	Status       CleanupJobStatusEnum `json:"status"`
	Details      string               `json:"details,omitempty"`
	StartedBy    string               `json:"startedBy"`
	StartedAt    time.Time            `json:"startedAt"`
	Deadline     time.Time            `json:"deadline"`
	FinishedAt   *time.Time           `json:"finishedAt,omitempty"`
	LastTickAt   *time.Time           `json:"lastTickAt,omitempty"`
	Ticks        int                  `json:"ticks"`
	Selected     int                  `json:"selected"`
	Deleted      int                  `json:"deleted"`
	Failed       int                  `json:"failed"`
	Progress     ProgressStatus       `json:"progress"`
	PolicyUsed   RetentionPolicy      `json:"policy"`
	ReportObject string               `json:"reportObject,omitempty"`
}

type CleanupJobs struct {
	Jobs []CleanupJob `json:"jobs"`
}

type CleanupJobResult struct {
	Tick         int             `json:"tick"`
	PipelineName string          `json:"pipelineName"`
	StackName    string          `json:"stackName"`
	Outcome      DeletionOutcome `json:"outcome"`
	Error        string          `json:"error,omitempty"`
	ProcessedAt  time.Time       `json:"processedAt"`
}

type CleanupJobResults struct {
	JobId   string             `json:"jobId"`
	Results []CleanupJobResult `json:"results"`
}

// CleanupReport is the final job output archived for operators and sent to the notification hook.
type CleanupReport struct {
	JobId      string                 `json:"jobId"`
	Status     CleanupJobStatusEnum   `json:"status"`
	Details    string                 `json:"details,omitempty"`
	StartedAt  time.Time              `json:"startedAt"`
	FinishedAt time.Time              `json:"finishedAt"`
	Selected   int                    `json:"selected"`
	Deleted    int                    `json:"deleted"`
	Failed     int                    `json:"failed"`
	Remaining  ProgressStatus         `json:"remaining"`
	Families   *orderedmap.OrderedMap `json:"families"`
	Failures   []CleanupJobResult     `json:"failures"`
}

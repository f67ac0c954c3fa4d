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

package entity

import (
	"time"

	"github.com/Netcracker/qubership-pipelines-cleanup/view"
)

type CleanupJobEntity struct {
	tableName struct{} `pg:"cleanup_job"`

	JobId        string               `pg:"job_id, pk, type:uuid"`
	Status       string               `pg:"status, type:varchar"`
	Details      string               `pg:"details, type:varchar"`
	StartedBy    string               `pg:"started_by, type:varchar"`
	InstanceId   string               `pg:"instance_id, type:varchar"`
	StartedAt    time.Time            `pg:"started_at, type:timestamp without time zone"`
	Deadline     time.Time            `pg:"deadline, type:timestamp without time zone"`
	FinishedAt   *time.Time           `pg:"finished_at, type:timestamp without time zone"`
	LastTickAt   *time.Time           `pg:"last_tick_at, type:timestamp without time zone"`
	Ticks        int                  `pg:"ticks, type:integer, use_zero"`
	Selected     int                  `pg:"selected, type:integer, use_zero"`
	Deleted      int                  `pg:"deleted, type:integer, use_zero"`
	Failed       int                  `pg:"failed, type:integer, use_zero"`
	Progress     view.ProgressStatus  `pg:"progress, type:jsonb"`
	Policy       view.RetentionPolicy `pg:"policy, type:jsonb"`
	ReportObject string               `pg:"report_object, type:varchar"`
}

func MakeCleanupJobView(ent CleanupJobEntity) *view.CleanupJob {
	status, _ := view.CleanupJobStatusFromString(ent.Status)
	return &view.CleanupJob{
		JobId:        ent.JobId,
		Status:       status,
		Details:      ent.Details,
		StartedBy:    ent.StartedBy,
		StartedAt:    ent.StartedAt,
		Deadline:     ent.Deadline,
		FinishedAt:   ent.FinishedAt,
		LastTickAt:   ent.LastTickAt,
		Ticks:        ent.Ticks,
		Selected:     ent.Selected,
		Deleted:      ent.Deleted,
		Failed:       ent.Failed,
		Progress:     ent.Progress,
		PolicyUsed:   ent.Policy,
		ReportObject: ent.ReportObject,
	}
}

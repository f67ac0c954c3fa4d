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

type CleanupBatchResultEntity struct {
	tableName struct{} `pg:"cleanup_batch_result"`

	JobId        string    `pg:"job_id, pk, type:uuid"`
	Tick         int       `pg:"tick, pk, type:integer, use_zero"`
	StackName    string    `pg:"stack_name, pk, type:varchar"`
	PipelineName string    `pg:"pipeline_name, type:varchar"`
	Outcome      string    `pg:"outcome, type:varchar"`
	Error        string    `pg:"error, type:varchar"`
	ProcessedAt  time.Time `pg:"processed_at, type:timestamp without time zone"`
}

func MakeCleanupBatchResultEntities(jobId string, tick int, processedAt time.Time, report view.BatchReport) []*CleanupBatchResultEntity {
	ents := make([]*CleanupBatchResultEntity, 0, len(report.Results))
	for _, result := range report.Results {
		ents = append(ents, &CleanupBatchResultEntity{
			JobId:        jobId,
			Tick:         tick,
			StackName:    result.Pair.StackName,
			PipelineName: result.Pair.PipelineName,
			Outcome:      string(result.Outcome),
			Error:        result.Error,
			ProcessedAt:  processedAt,
		})
	}
	return ents
}

func MakeCleanupJobResultView(ent CleanupBatchResultEntity) view.CleanupJobResult {
	return view.CleanupJobResult{
		Tick:         ent.Tick,
		PipelineName: ent.PipelineName,
		StackName:    ent.StackName,
		Outcome:      view.DeletionOutcome(ent.Outcome),
		Error:        ent.Error,
		ProcessedAt:  ent.ProcessedAt,
	}
}

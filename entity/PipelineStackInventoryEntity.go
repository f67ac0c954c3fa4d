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

// PipelineStackInventoryEntity is registered by the outer pipeline after each successful deploy.
type PipelineStackInventoryEntity struct {
	tableName struct{} `pg:"pipeline_stack_inventory"`

	StackName    string     `pg:"stack_name, pk, type:varchar"`
	PipelineName string     `pg:"pipeline_name, type:varchar"`
	Family       string     `pg:"family, type:varchar"`
	Version      *int64     `pg:"version, type:bigint"`
	Account      string     `pg:"account, type:varchar"`
	DeployedAt   time.Time  `pg:"deployed_at, type:timestamp without time zone"`
	DeletedAt    *time.Time `pg:"deleted_at, type:timestamp without time zone"`
}

func MakeInventoryRecordView(ent PipelineStackInventoryEntity) view.InventoryRecord {
	return view.InventoryRecord{
		Family:              ent.Family,
		VersionOrdinal:      ent.Version,
		DeploymentTimestamp: ent.DeployedAt,
		PipelineName:        ent.PipelineName,
		StackName:           ent.StackName,
	}
}

func MakePipelineStackInventoryEntity(record view.InventoryRecord, account string) *PipelineStackInventoryEntity {
	return &PipelineStackInventoryEntity{
		StackName:    record.StackName,
		PipelineName: record.PipelineName,
		Family:       record.Family,
		Version:      record.VersionOrdinal,
		Account:      account,
		DeployedAt:   record.DeploymentTimestamp,
	}
}

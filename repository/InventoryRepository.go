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

package repository

import (
	"context"
	"time"

	"github.com/Netcracker/qubership-pipelines-cleanup/db"
	"github.com/Netcracker/qubership-pipelines-cleanup/entity"
	"github.com/Netcracker/qubership-pipelines-cleanup/view"
	"github.com/go-pg/pg/v10"
	"github.com/pkg/errors"
)

type InventoryRepository interface {
	ListPipelineStackFamilies(ctx context.Context) ([]view.InventoryRecord, error)
	RegisterDeployment(ctx context.Context, ent *entity.PipelineStackInventoryEntity) error
	MarkStackDeleted(ctx context.Context, stackName string, deletedAt time.Time) error
}

func NewInventoryRepository(cp db.ConnectionProvider) InventoryRepository {
	return &inventoryRepositoryImpl{cp: cp}
}

type inventoryRepositoryImpl struct {
	cp db.ConnectionProvider
}

func (i inventoryRepositoryImpl) ListPipelineStackFamilies(ctx context.Context) ([]view.InventoryRecord, error) {
	ents := make([]entity.PipelineStackInventoryEntity, 0)
	err := i.cp.GetConnection().ModelContext(ctx, &ents).
		Where("deleted_at is null").
		Order("family ASC", "version DESC").
		Select()
	if err != nil && err != pg.ErrNoRows {
		return nil, errors.Wrap(err, "failed to read pipeline stack inventory")
	}
	records := make([]view.InventoryRecord, 0, len(ents))
	for _, ent := range ents {
		records = append(records, entity.MakeInventoryRecordView(ent))
	}
	return records, nil
}

func (i inventoryRepositoryImpl) RegisterDeployment(ctx context.Context, ent *entity.PipelineStackInventoryEntity) error {
	_, err := i.cp.GetConnection().ModelContext(ctx, ent).
		OnConflict("(stack_name) DO UPDATE").
		Set("pipeline_name = EXCLUDED.pipeline_name").
		Set("family = EXCLUDED.family").
		Set("version = EXCLUDED.version").
		Set("account = EXCLUDED.account").
		Set("deployed_at = EXCLUDED.deployed_at").
		Set("deleted_at = null").
		Insert()
	if err != nil {
		return errors.Wrapf(err, "failed to register deployment of stack %s", ent.StackName)
	}
	return nil
}

func (i inventoryRepositoryImpl) MarkStackDeleted(ctx context.Context, stackName string, deletedAt time.Time) error {
	_, err := i.cp.GetConnection().ModelContext(ctx, &entity.PipelineStackInventoryEntity{}).
		Set("deleted_at = ?", deletedAt).
		Where("stack_name = ?", stackName).
		Update()
	return err
}

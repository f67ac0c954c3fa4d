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

	"github.com/Netcracker/qubership-pipelines-cleanup/entity"
	"github.com/Netcracker/qubership-pipelines-cleanup/repository"
	"github.com/Netcracker/qubership-pipelines-cleanup/utils"
	"github.com/Netcracker/qubership-pipelines-cleanup/view"
	log "github.com/sirupsen/logrus"
)

type InventoryService interface {
	RegisterDeployment(ctx context.Context, registration view.InventoryRegistration) (*view.InventoryRecord, error)
}

func NewInventoryService(inventoryRepository repository.InventoryRepository, accounts view.Accounts) InventoryService {
	return &inventoryServiceImpl{
		inventoryRepository: inventoryRepository,
		accounts:            accounts,
	}
}

type inventoryServiceImpl struct {
	inventoryRepository repository.InventoryRepository
	accounts            view.Accounts
}

func (i inventoryServiceImpl) RegisterDeployment(ctx context.Context, registration view.InventoryRegistration) (*view.InventoryRecord, error) {
	record := registration.InventoryRecord
	if err := validateInventoryRecord(0, record); err != nil {
		return nil, err
	}
	if record.PipelineName == "" {
		record.PipelineName = utils.MakeVersionedPipelineName(record.Family, *record.VersionOrdinal)
	}
	ent := entity.MakePipelineStackInventoryEntity(record, registration.Account)
	if err := i.inventoryRepository.RegisterDeployment(ctx, ent); err != nil {
		return nil, err
	}
	log.Infof("Registered deployment of %s (family %s, version %d) in %s account",
		record.StackName, record.Family, *record.VersionOrdinal, i.accounts.ReadableName(registration.Account))
	return &record, nil
}

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
	"testing"

	"github.com/Netcracker/qubership-pipelines-cleanup/exception"
	"github.com/Netcracker/qubership-pipelines-cleanup/utils"
	"github.com/Netcracker/qubership-pipelines-cleanup/view"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegisterDeployment(t *testing.T) {
	repo := &mockInventoryRepository{}
	svc := NewInventoryService(repo, view.Accounts{Devops: "111111111111"})
	record := inventoryRecord("orders", 4, selectorNow)
	record.PipelineName = ""

	registered, err := svc.RegisterDeployment(context.Background(), view.InventoryRegistration{InventoryRecord: record, Account: "111111111111"})
	require.NoError(t, err)

	assert.Equal(t, utils.MakeVersionedPipelineName("orders", 4), registered.PipelineName)
	require.Len(t, repo.registered, 1)
	ent := repo.registered[0]
	assert.Equal(t, record.StackName, ent.StackName)
	assert.Equal(t, registered.PipelineName, ent.PipelineName)
	assert.Equal(t, int64(4), *ent.Version)
	assert.Equal(t, "111111111111", ent.Account)
	assert.Equal(t, selectorNow, ent.DeployedAt)
	assert.Nil(t, ent.DeletedAt)
}

func TestRegisterDeployment_Invalid(t *testing.T) {
	repo := &mockInventoryRepository{}
	svc := NewInventoryService(repo, view.Accounts{})
	record := inventoryRecord("orders", 4, selectorNow)
	record.VersionOrdinal = nil

	_, err := svc.RegisterDeployment(context.Background(), view.InventoryRegistration{InventoryRecord: record})

	var customError *exception.CustomError
	require.True(t, errors.As(err, &customError))
	assert.Equal(t, exception.InvalidInventoryRecord, customError.Code)
	assert.Contains(t, customError.Params["fields"], "versionOrdinal")
	assert.Empty(t, repo.registered)
}

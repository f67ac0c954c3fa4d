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
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/Netcracker/qubership-pipelines-cleanup/exception"
	"github.com/Netcracker/qubership-pipelines-cleanup/utils"
	"github.com/Netcracker/qubership-pipelines-cleanup/view"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var selectorNow = time.Date(2025, time.June, 15, 12, 0, 0, 0, time.UTC)

var defaultTestPolicy = view.RetentionPolicy{
	HistoryMonths:               3,
	MaxHistoryLength:            7,
	DeleteBatchSize:             5,
	MinutesBetweenDeletes:       5,
	DeleteProcessTimeoutMinutes: 240,
}

func inventoryRecord(family string, version int64, deployedAt time.Time) view.InventoryRecord {
	return view.InventoryRecord{
		Family:              family,
		VersionOrdinal:      &version,
		DeploymentTimestamp: deployedAt,
		PipelineName:        utils.MakeVersionedPipelineName(family, version),
		StackName:           utils.MakeVersionedPipelineStackName(family, version),
	}
}

func pairOf(family string, version int64) view.PipelineStackPair {
	return view.PipelineStackPair{
		PipelineName: utils.MakeVersionedPipelineName(family, version),
		StackName:    utils.MakeVersionedPipelineStackName(family, version),
	}
}

func TestSelectForDeletion_OnlyOldRecordsOutsideWindowAreEligible(t *testing.T) {
	// versions 1-2 are older than 3 months, 3..10 are newer
	inventory := []view.InventoryRecord{
		inventoryRecord("X", 1, time.Date(2025, time.January, 10, 0, 0, 0, 0, time.UTC)),
		inventoryRecord("X", 2, time.Date(2025, time.February, 20, 0, 0, 0, 0, time.UTC)),
	}
	for v := int64(3); v <= 10; v++ {
		inventory = append(inventory, inventoryRecord("X", v, time.Date(2025, time.April, int(v), 0, 0, 0, 0, time.UTC)))
	}

	progress, err := NewRetentionSelector().SelectForDeletion(inventory, defaultTestPolicy, selectorNow)
	require.NoError(t, err)
	assert.False(t, progress.IsComplete)
	assert.Equal(t, []view.PipelineStackPair{pairOf("X", 1), pairOf("X", 2)}, progress.UnitsOfWork)
}

func TestSelectForDeletion_EmptyInventory(t *testing.T) {
	progress, err := NewRetentionSelector().SelectForDeletion(nil, defaultTestPolicy, selectorNow)
	require.NoError(t, err)
	assert.True(t, progress.IsComplete)
	assert.NotNil(t, progress.UnitsOfWork)
	assert.Empty(t, progress.UnitsOfWork)

	data, err := json.Marshal(progress)
	require.NoError(t, err)
	assert.JSONEq(t, `{"isComplete": true, "unitsOfWork": []}`, string(data))
}

func TestSelectForDeletion_WindowIsNeverSelected(t *testing.T) {
	ancient := time.Date(2020, time.January, 1, 0, 0, 0, 0, time.UTC)
	inventory := make([]view.InventoryRecord, 0)
	for v := int64(1); v <= 20; v++ {
		inventory = append(inventory, inventoryRecord("api", v, ancient.AddDate(0, 0, int(v))))
	}

	progress, err := NewRetentionSelector().SelectForDeletion(inventory, defaultTestPolicy, selectorNow)
	require.NoError(t, err)
	require.Len(t, progress.UnitsOfWork, 13)
	for v := int64(14); v <= 20; v++ {
		assert.NotContains(t, progress.UnitsOfWork, pairOf("api", v))
	}
	for v := int64(1); v <= 13; v++ {
		assert.Equal(t, pairOf("api", v), progress.UnitsOfWork[v-1])
	}
}

func TestSelectForDeletion_SmallFamilyIsKept(t *testing.T) {
	ancient := time.Date(2019, time.March, 1, 0, 0, 0, 0, time.UTC)
	inventory := []view.InventoryRecord{
		inventoryRecord("small", 1, ancient),
		inventoryRecord("small", 2, ancient.AddDate(0, 1, 0)),
		inventoryRecord("small", 3, ancient.AddDate(0, 2, 0)),
	}

	progress, err := NewRetentionSelector().SelectForDeletion(inventory, defaultTestPolicy, selectorNow)
	require.NoError(t, err)
	assert.True(t, progress.IsComplete)
	assert.Empty(t, progress.UnitsOfWork)
}

func TestSelectForDeletion_WindowUsesVersionNotTimestamp(t *testing.T) {
	policy := defaultTestPolicy
	policy.MaxHistoryLength = 1
	old := time.Date(2024, time.January, 1, 0, 0, 0, 0, time.UTC)
	// the highest version was deployed first, it still stays in the window
	inventory := []view.InventoryRecord{
		inventoryRecord("svc", 5, old),
		inventoryRecord("svc", 4, old.AddDate(0, 1, 0)),
	}

	progress, err := NewRetentionSelector().SelectForDeletion(inventory, policy, selectorNow)
	require.NoError(t, err)
	assert.Equal(t, []view.PipelineStackPair{pairOf("svc", 4)}, progress.UnitsOfWork)
}

func TestSelectForDeletion_BoundaryIsNotEligible(t *testing.T) {
	policy := defaultTestPolicy
	policy.MaxHistoryLength = 1
	boundary := selectorNow.AddDate(0, -policy.HistoryMonths, 0)
	inventory := []view.InventoryRecord{
		inventoryRecord("b", 3, selectorNow),
		inventoryRecord("b", 2, boundary),
		inventoryRecord("b", 1, boundary.Add(-time.Second)),
	}

	progress, err := NewRetentionSelector().SelectForDeletion(inventory, policy, selectorNow)
	require.NoError(t, err)
	assert.Equal(t, []view.PipelineStackPair{pairOf("b", 1)}, progress.UnitsOfWork)
}

func TestSelectForDeletion_OrderedOldestFirstAcrossFamilies(t *testing.T) {
	policy := defaultTestPolicy
	policy.MaxHistoryLength = 1
	base := time.Date(2024, time.May, 1, 0, 0, 0, 0, time.UTC)
	inventory := []view.InventoryRecord{
		inventoryRecord("beta", 9, selectorNow),
		inventoryRecord("beta", 2, base.AddDate(0, 0, 3)),
		inventoryRecord("beta", 1, base),
		inventoryRecord("alpha", 7, selectorNow),
		inventoryRecord("alpha", 3, base.AddDate(0, 0, 1)),
		inventoryRecord("alpha", 1, base),
	}

	progress, err := NewRetentionSelector().SelectForDeletion(inventory, policy, selectorNow)
	require.NoError(t, err)
	assert.Equal(t, []view.PipelineStackPair{
		pairOf("alpha", 1),
		pairOf("beta", 1),
		pairOf("alpha", 3),
		pairOf("beta", 2),
	}, progress.UnitsOfWork)
}

func TestSelectForDeletion_InvalidRecord(t *testing.T) {
	deployed := time.Date(2024, time.May, 1, 0, 0, 0, 0, time.UTC)
	tests := []struct {
		name          string
		mutate        func(r *view.InventoryRecord)
		expectedField string
	}{
		{
			name:          "missing family",
			mutate:        func(r *view.InventoryRecord) { r.Family = "" },
			expectedField: "family",
		},
		{
			name:          "missing version ordinal",
			mutate:        func(r *view.InventoryRecord) { r.VersionOrdinal = nil },
			expectedField: "versionOrdinal",
		},
		{
			name:          "missing deployment timestamp",
			mutate:        func(r *view.InventoryRecord) { r.DeploymentTimestamp = time.Time{} },
			expectedField: "deploymentTimestamp",
		},
		{
			name:          "missing stack name",
			mutate:        func(r *view.InventoryRecord) { r.StackName = "" },
			expectedField: "stackName",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			broken := inventoryRecord("svc", 2, deployed)
			tt.mutate(&broken)
			inventory := []view.InventoryRecord{
				inventoryRecord("svc", 1, deployed),
				broken,
			}

			progress, err := NewRetentionSelector().SelectForDeletion(inventory, defaultTestPolicy, selectorNow)
			require.Error(t, err)
			assert.Empty(t, progress.UnitsOfWork)

			var customError *exception.CustomError
			require.True(t, errors.As(err, &customError))
			assert.Equal(t, exception.InvalidInventoryRecord, customError.Code)
			assert.Equal(t, 1, customError.Params["index"])
			assert.Contains(t, customError.Params["fields"], tt.expectedField)
		})
	}
}

func TestSelectForDeletion_DuplicateStack(t *testing.T) {
	deployed := time.Date(2024, time.May, 1, 0, 0, 0, 0, time.UTC)
	first := inventoryRecord("svc", 1, deployed)
	second := inventoryRecord("svc", 2, deployed)
	second.StackName = first.StackName

	_, err := NewRetentionSelector().SelectForDeletion([]view.InventoryRecord{first, second}, defaultTestPolicy, selectorNow)

	var customError *exception.CustomError
	require.True(t, errors.As(err, &customError))
	assert.Equal(t, exception.DuplicateInventoryStack, customError.Code)
}

func TestSelectForDeletion_DerivesMissingPipelineName(t *testing.T) {
	policy := defaultTestPolicy
	policy.MaxHistoryLength = 1
	old := time.Date(2023, time.May, 1, 0, 0, 0, 0, time.UTC)
	nameless := inventoryRecord("web", 1, old)
	nameless.PipelineName = ""

	progress, err := NewRetentionSelector().SelectForDeletion([]view.InventoryRecord{
		inventoryRecord("web", 2, old.AddDate(0, 1, 0)),
		nameless,
	}, policy, selectorNow)
	require.NoError(t, err)
	assert.Equal(t, []view.PipelineStackPair{pairOf("web", 1)}, progress.UnitsOfWork)
}

func TestSelectForDeletion_DoesNotMutateInput(t *testing.T) {
	old := time.Date(2023, time.May, 1, 0, 0, 0, 0, time.UTC)
	inventory := make([]view.InventoryRecord, 0)
	for v := int64(1); v <= 10; v++ {
		inventory = append(inventory, inventoryRecord("m", v, old.AddDate(0, 0, int(v))))
	}
	snapshot := make([]view.InventoryRecord, len(inventory))
	copy(snapshot, inventory)

	_, err := NewRetentionSelector().SelectForDeletion(inventory, defaultTestPolicy, selectorNow)
	require.NoError(t, err)
	assert.Equal(t, snapshot, inventory)
}

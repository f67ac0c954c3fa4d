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
	"net/http"
	"sort"
	"strings"
	"time"

	"github.com/Netcracker/qubership-pipelines-cleanup/exception"
	"github.com/Netcracker/qubership-pipelines-cleanup/utils"
	"github.com/Netcracker/qubership-pipelines-cleanup/view"
)

// RetentionSelector decides which pipeline/stack pairs fall out of the retention window.
// Implementations must not have side effects.
type RetentionSelector interface {
	SelectForDeletion(inventory []view.InventoryRecord, policy view.RetentionPolicy, now time.Time) (view.ProgressStatus, error)
}

func NewRetentionSelector() RetentionSelector {
	return &retentionSelectorImpl{}
}

type retentionSelectorImpl struct {
}

func (r retentionSelectorImpl) SelectForDeletion(inventory []view.InventoryRecord, policy view.RetentionPolicy, now time.Time) (view.ProgressStatus, error) {
	defer utils.LogDuration(time.Now(), 200*time.Millisecond, "SelectForDeletion")

	families, err := groupByFamily(inventory)
	if err != nil {
		return view.ProgressStatus{}, err
	}

	// a record is old enough only when deployed strictly before the boundary
	boundary := now.AddDate(0, -policy.HistoryMonths, 0)

	eligible := make([]view.InventoryRecord, 0)
	for _, records := range families {
		sort.SliceStable(records, func(i, j int) bool {
			return *records[i].VersionOrdinal > *records[j].VersionOrdinal
		})
		if len(records) <= policy.MaxHistoryLength {
			continue
		}
		for _, record := range records[policy.MaxHistoryLength:] {
			if record.DeploymentTimestamp.Before(boundary) {
				eligible = append(eligible, record)
			}
		}
	}

	sort.SliceStable(eligible, func(i, j int) bool {
		a, b := eligible[i], eligible[j]
		if !a.DeploymentTimestamp.Equal(b.DeploymentTimestamp) {
			return a.DeploymentTimestamp.Before(b.DeploymentTimestamp)
		}
		if a.Family != b.Family {
			return a.Family < b.Family
		}
		return *a.VersionOrdinal < *b.VersionOrdinal
	})

	backlog := make([]view.PipelineStackPair, 0, len(eligible))
	for _, record := range eligible {
		backlog = append(backlog, record.Pair())
	}
	return view.NewProgressStatus(backlog), nil
}

func groupByFamily(inventory []view.InventoryRecord) (map[string][]view.InventoryRecord, error) {
	families := make(map[string][]view.InventoryRecord)
	seenStacks := make(map[string]bool, len(inventory))
	for i, record := range inventory {
		if err := validateInventoryRecord(i, record); err != nil {
			return nil, err
		}
		if seenStacks[record.StackName] {
			return nil, &exception.CustomError{
				Status:  http.StatusBadRequest,
				Code:    exception.DuplicateInventoryStack,
				Message: exception.DuplicateInventoryStackMsg,
				Params:  map[string]interface{}{"stackName": record.StackName},
			}
		}
		seenStacks[record.StackName] = true
		if record.PipelineName == "" {
			record.PipelineName = utils.MakeVersionedPipelineName(record.Family, *record.VersionOrdinal)
		}
		families[record.Family] = append(families[record.Family], record)
	}
	return families, nil
}

func validateInventoryRecord(index int, record view.InventoryRecord) error {
	invalidFields := utils.GetInvalidFields(record)
	if len(invalidFields) == 0 {
		return nil
	}
	return &exception.CustomError{
		Status:  http.StatusBadRequest,
		Code:    exception.InvalidInventoryRecord,
		Message: exception.InvalidInventoryRecordMsg,
		Params: map[string]interface{}{
			"index":     index,
			"stackName": record.StackName,
			"fields":    strings.Join(invalidFields, ", "),
		},
	}
}

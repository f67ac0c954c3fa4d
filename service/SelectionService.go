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
	"net/http"
	"time"

	"github.com/Netcracker/qubership-pipelines-cleanup/exception"
	"github.com/Netcracker/qubership-pipelines-cleanup/metrics"
	"github.com/Netcracker/qubership-pipelines-cleanup/view"
	log "github.com/sirupsen/logrus"
)

// InventorySource lists every live pipeline/stack pair that belongs to a versioned family.
type InventorySource interface {
	ListPipelineStackFamilies(ctx context.Context) ([]view.InventoryRecord, error)
}

type SelectionService interface {
	SelectForDeletion(ctx context.Context, trigger string) (view.ProgressStatus, error)
	GetPolicy() view.RetentionPolicy
}

func NewSelectionService(inventorySource InventorySource, selector RetentionSelector, policy view.RetentionPolicy) SelectionService {
	return &selectionServiceImpl{
		inventorySource: inventorySource,
		selector:        selector,
		policy:          policy,
		now:             time.Now,
	}
}

type selectionServiceImpl struct {
	inventorySource InventorySource
	selector        RetentionSelector
	policy          view.RetentionPolicy
	now             func() time.Time
}

func (s selectionServiceImpl) GetPolicy() view.RetentionPolicy {
	return s.policy
}

func (s selectionServiceImpl) SelectForDeletion(ctx context.Context, trigger string) (view.ProgressStatus, error) {
	inventory, err := s.inventorySource.ListPipelineStackFamilies(ctx)
	if err != nil {
		metrics.Selections.WithLabelValues(trigger, metrics.ResultRejected).Inc()
		return view.ProgressStatus{}, &exception.CustomError{
			Status:  http.StatusServiceUnavailable,
			Code:    exception.InventoryUnavailable,
			Message: exception.InventoryUnavailableMsg,
			Debug:   err.Error(),
		}
	}
	progress, err := s.selector.SelectForDeletion(inventory, s.policy, s.now())
	if err != nil {
		metrics.Selections.WithLabelValues(trigger, metrics.ResultRejected).Inc()
		log.Errorf("Retention selection over %d inventory records was rejected: %v", len(inventory), err)
		return view.ProgressStatus{}, err
	}
	metrics.Selections.WithLabelValues(trigger, metrics.ResultSelected).Inc()
	metrics.SelectedPairs.WithLabelValues(trigger).Set(float64(progress.Backlog()))
	log.Infof("Retention selection: %d of %d inventory records are eligible for deletion", progress.Backlog(), len(inventory))
	return progress, nil
}

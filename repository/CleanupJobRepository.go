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

type CleanupJobRepository interface {
	StoreCleanupJob(ctx context.Context, ent *entity.CleanupJobEntity) error
	GetCleanupJob(ctx context.Context, jobId string) (*entity.CleanupJobEntity, error)
	GetCleanupJobs(ctx context.Context, limit int, page int) ([]entity.CleanupJobEntity, error)
	GetPendingCleanupJobs(ctx context.Context) ([]entity.CleanupJobEntity, error)
	SaveTick(ctx context.Context, ent *entity.CleanupJobEntity, results []*entity.CleanupBatchResultEntity) error
	FinishCleanupJob(ctx context.Context, jobId string, status view.CleanupJobStatusEnum, details string, finishedAt time.Time) error
	SetReportObject(ctx context.Context, jobId string, reportObject string) error
	GetCleanupJobResults(ctx context.Context, jobId string) ([]entity.CleanupBatchResultEntity, error)
}

func NewCleanupJobRepository(cp db.ConnectionProvider) CleanupJobRepository {
	return &cleanupJobRepositoryImpl{cp: cp}
}

type cleanupJobRepositoryImpl struct {
	cp db.ConnectionProvider
}

func (c cleanupJobRepositoryImpl) StoreCleanupJob(ctx context.Context, ent *entity.CleanupJobEntity) error {
	_, err := c.cp.GetConnection().ModelContext(ctx, ent).Insert()
	if err != nil {
		return errors.Wrapf(err, "failed to insert cleanup job %s", ent.JobId)
	}
	return nil
}

func (c cleanupJobRepositoryImpl) GetCleanupJob(ctx context.Context, jobId string) (*entity.CleanupJobEntity, error) {
	ent := new(entity.CleanupJobEntity)
	err := c.cp.GetConnection().ModelContext(ctx, ent).
		Where("job_id = ?", jobId).
		First()
	if err != nil {
		if err == pg.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	return ent, nil
}

func (c cleanupJobRepositoryImpl) GetCleanupJobs(ctx context.Context, limit int, page int) ([]entity.CleanupJobEntity, error) {
	ents := make([]entity.CleanupJobEntity, 0)
	err := c.cp.GetConnection().ModelContext(ctx, &ents).
		Order("started_at DESC").
		Limit(limit).
		Offset(limit * page).
		Select()
	if err != nil {
		if err == pg.ErrNoRows {
			return ents, nil
		}
		return nil, err
	}
	return ents, nil
}

func (c cleanupJobRepositoryImpl) GetPendingCleanupJobs(ctx context.Context) ([]entity.CleanupJobEntity, error) {
	ents := make([]entity.CleanupJobEntity, 0)
	err := c.cp.GetConnection().ModelContext(ctx, &ents).
		Where("status = ?", view.JobStatusPending).
		Order("started_at ASC").
		Select()
	if err != nil {
		if err == pg.ErrNoRows {
			return ents, nil
		}
		return nil, err
	}
	return ents, nil
}

func (c cleanupJobRepositoryImpl) SaveTick(ctx context.Context, ent *entity.CleanupJobEntity, results []*entity.CleanupBatchResultEntity) error {
	return c.cp.GetConnection().RunInTransaction(ctx, func(tx *pg.Tx) error {
		// only a pending job may move forward; a cancelled one keeps its backlog as is
		res, err := tx.Model(ent).
			Column("status", "finished_at", "last_tick_at", "ticks", "deleted", "failed", "progress").
			Where("job_id = ?", ent.JobId).
			Where("status = ?", view.JobStatusPending).
			Update()
		if err != nil {
			return errors.Wrapf(err, "failed to update cleanup job %s", ent.JobId)
		}
		if res.RowsAffected() == 0 {
			return errors.Errorf("cleanup job %s is not pending anymore", ent.JobId)
		}
		if len(results) == 0 {
			return nil
		}
		_, err = tx.Model(&results).
			OnConflict("(job_id, tick, stack_name) DO UPDATE").
			Insert()
		if err != nil {
			return errors.Wrapf(err, "failed to store batch results of cleanup job %s", ent.JobId)
		}
		return nil
	})
}

func (c cleanupJobRepositoryImpl) FinishCleanupJob(ctx context.Context, jobId string, status view.CleanupJobStatusEnum, details string, finishedAt time.Time) error {
	res, err := c.cp.GetConnection().ModelContext(ctx, &entity.CleanupJobEntity{}).
		Set("status = ?", status).
		Set("details = ?", details).
		Set("finished_at = ?", finishedAt).
		Where("job_id = ?", jobId).
		Where("status = ?", view.JobStatusPending).
		Update()
	if err != nil {
		return errors.Wrapf(err, "failed to set '%s' status for cleanup job %s", status, jobId)
	}
	if res.RowsAffected() == 0 {
		return errors.Errorf("cleanup job %s is not pending anymore", jobId)
	}
	return nil
}

func (c cleanupJobRepositoryImpl) SetReportObject(ctx context.Context, jobId string, reportObject string) error {
	_, err := c.cp.GetConnection().ModelContext(ctx, &entity.CleanupJobEntity{}).
		Set("report_object = ?", reportObject).
		Where("job_id = ?", jobId).
		Update()
	return err
}

func (c cleanupJobRepositoryImpl) GetCleanupJobResults(ctx context.Context, jobId string) ([]entity.CleanupBatchResultEntity, error) {
	ents := make([]entity.CleanupBatchResultEntity, 0)
	err := c.cp.GetConnection().ModelContext(ctx, &ents).
		Where("job_id = ?", jobId).
		Order("tick ASC", "processed_at ASC").
		Select()
	if err != nil {
		if err == pg.ErrNoRows {
			return ents, nil
		}
		return nil, err
	}
	return ents, nil
}

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
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"

	"github.com/Netcracker/qubership-pipelines-cleanup/db"
	mEntity "github.com/Netcracker/qubership-pipelines-cleanup/migration/entity"
	"github.com/go-pg/pg/v10"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
)

type DBMigrationService interface {
	Migrate(ctx context.Context) (int, int, bool, error)
}

func NewDBMigrationService(cp db.ConnectionProvider, basePath string) (DBMigrationService, error) {
	service := &dbMigrationServiceImpl{
		cp:               cp,
		migrationsFolder: filepath.Join(basePath, "resources", "migrations"),
	}
	upMigrations, err := getMigrationFilenamesMap(service.migrationsFolder)
	if err != nil {
		return nil, fmt.Errorf("failed to read migration files: %v", err.Error())
	}
	service.upMigrations = upMigrations
	return service, nil
}

type dbMigrationServiceImpl struct {
	cp               db.ConnectionProvider
	migrationsFolder string
	upMigrations     map[int]string
}

func (d *dbMigrationServiceImpl) createMigrationTables(ctx context.Context) error {
	_, err := d.cp.GetConnection().ExecContext(ctx, `
		create table if not exists schema_migrations
		(
			version integer not null,
			dirty boolean not null,
			PRIMARY KEY(version)
		)`)
	if err != nil {
		return err
	}
	_, err = d.cp.GetConnection().ExecContext(ctx, `
		create table if not exists stored_schema_migration
		(
			num integer not null,
			up_hash varchar not null,
			sql_up varchar not null,
			PRIMARY KEY(num)
		)`)
	return err
}

func (d *dbMigrationServiceImpl) Migrate(ctx context.Context) (currentMigrationNum int, newMigrationNum int, migrationRequired bool, err error) {
	log.Infof("Schema Migration: start")
	if err = d.createMigrationTables(ctx); err != nil {
		return 0, 0, false, fmt.Errorf("failed to create schema migrations tables: %w", err)
	}

	var currentMigrationNumber int
	_, err = d.cp.GetConnection().QueryOneContext(ctx, pg.Scan(&currentMigrationNumber), `SELECT version FROM schema_migrations`)
	if err != nil && err != pg.ErrNoRows {
		return 0, 0, false, err
	}
	newMigrationNumber := len(d.upMigrations)
	if newMigrationNumber < currentMigrationNumber {
		return 0, 0, false, fmt.Errorf("total number of migrations (%v) is lower than currently applied version from schema_migrations (%v)", newMigrationNumber, currentMigrationNumber)
	}
	if err = d.verifyAppliedMigrations(ctx, currentMigrationNumber); err != nil {
		return 0, 0, false, err
	}
	if newMigrationNumber == currentMigrationNumber {
		log.Infof("Schema Migration: no migrations required")
		return currentMigrationNumber, newMigrationNumber, false, nil
	}

	upMigrations := make([]mEntity.StoredSchemaMigrationEntity, 0, newMigrationNumber-currentMigrationNumber)
	for i := currentMigrationNumber + 1; i <= newMigrationNumber; i++ {
		migrationEnt, err := d.makeLocalMigrationEntity(i)
		if err != nil {
			return 0, 0, false, err
		}
		upMigrations = append(upMigrations, *migrationEnt)
	}
	if err = d.applyMigrations(ctx, upMigrations, newMigrationNumber); err != nil {
		return 0, 0, false, err
	}
	log.Infof("Schema Migration: finished successfully, version %v -> %v", currentMigrationNumber, newMigrationNumber)
	return currentMigrationNumber, newMigrationNumber, true, nil
}

// verifyAppliedMigrations refuses to start when an already applied migration file was edited afterwards.
func (d *dbMigrationServiceImpl) verifyAppliedMigrations(ctx context.Context, currentMigrationNumber int) error {
	for i := 1; i <= currentMigrationNumber; i++ {
		localMigration, err := d.makeLocalMigrationEntity(i)
		if err != nil {
			return err
		}
		storedMigration := new(mEntity.StoredSchemaMigrationEntity)
		err = d.cp.GetConnection().ModelContext(ctx, storedMigration).Where("num = ?", i).Select()
		if err != nil {
			if err == pg.ErrNoRows {
				// applied before hashes were stored
				_, err = d.cp.GetConnection().ModelContext(ctx, localMigration).OnConflict("(num) DO NOTHING").Insert()
				if err != nil {
					return errors.Wrapf(err, "failed to store applied migration %v", i)
				}
				continue
			}
			return errors.Wrapf(err, "failed to read stored migration %v", i)
		}
		if storedMigration.UpHash != localMigration.UpHash {
			return fmt.Errorf("migration %v was already applied with different content", i)
		}
	}
	return nil
}

func (d *dbMigrationServiceImpl) applyMigrations(ctx context.Context, upMigrations []mEntity.StoredSchemaMigrationEntity, latestMigrationNum int) error {
	log.Infof("Schema migration: start applying %v up migrations", len(upMigrations))
	return d.cp.GetConnection().RunInTransaction(ctx, func(tx *pg.Tx) error {
		for _, upMigration := range upMigrations {
			rs, err := tx.Exec(upMigration.SqlUp)
			if err != nil {
				return fmt.Errorf("failed to apply up migration %v: %w", upMigration.Num, err)
			}
			_, err = tx.Model(&upMigration).Insert()
			if err != nil {
				return fmt.Errorf("failed to store up migration %v: %w", upMigration.Num, err)
			}
			log.Infof("successfully applied up migration %v: %v rows affected", upMigration.Num, rs.RowsAffected())
		}
		_, err := tx.Model(&mEntity.SchemaMigrationEntity{}).
			Where("version is not null").
			Delete()
		if err != nil {
			return fmt.Errorf("failed to update schema_migrations table with latest migration version %v", latestMigrationNum)
		}
		_, err = tx.Model(&mEntity.SchemaMigrationEntity{Version: latestMigrationNum}).Insert()
		if err != nil {
			return fmt.Errorf("failed to update schema_migrations table with latest migration version %v", latestMigrationNum)
		}
		return nil
	})
}

func (d *dbMigrationServiceImpl) makeLocalMigrationEntity(migrationNumber int) (*mEntity.StoredSchemaMigrationEntity, error) {
	upMigrationFile, exists := d.upMigrations[migrationNumber]
	if !exists {
		return nil, fmt.Errorf("failed to read up migration file %v", migrationNumber)
	}
	data, err := os.ReadFile(upMigrationFile)
	if err != nil {
		return nil, fmt.Errorf("failed to read up migration file %v: %w", upMigrationFile, err)
	}
	return &mEntity.StoredSchemaMigrationEntity{
		Num:    migrationNumber,
		UpHash: calculateMigrationHash(migrationNumber, data),
		SqlUp:  string(data),
	}, nil
}

var upMigrationFileRegexp = regexp.MustCompile(`^[0-9]+_.+\.up\.sql$`)

func getMigrationFilenamesMap(migrationsFolder string) (map[int]string, error) {
	entries, err := os.ReadDir(migrationsFolder)
	if err != nil {
		return nil, err
	}
	upMigrations := make(map[int]string)
	maxUpMigrationNumber := 0
	for _, entry := range entries {
		file := entry.Name()
		if entry.IsDir() || !upMigrationFileRegexp.MatchString(file) {
			continue
		}
		num, _ := strconv.Atoi(strings.Split(file, `_`)[0])
		if _, exists := upMigrations[num]; exists {
			return nil, fmt.Errorf("found duplicate migration number, migration is not possible: %v", file)
		}
		upMigrations[num] = filepath.Join(migrationsFolder, file)
		if maxUpMigrationNumber < num {
			maxUpMigrationNumber = num
		}
	}
	if maxUpMigrationNumber != len(upMigrations) {
		return nil, fmt.Errorf("highest migration number (%v) should be equal to a total number of migrations (%v)", maxUpMigrationNumber, len(upMigrations))
	}
	return upMigrations, nil
}

func calculateMigrationHash(migrationNum int, data []byte) string {
	sum := sha256.Sum256(append([]byte(strconv.Itoa(migrationNum)), data...))
	return hex.EncodeToString(sum[:])
}

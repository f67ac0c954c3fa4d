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
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/Netcracker/qubership-pipelines-cleanup/view"
	log "github.com/sirupsen/logrus"
)

const (
	ARTIFACT_DESCRIPTOR_VERSION           = "ARTIFACT_DESCRIPTOR_VERSION"
	BASE_PATH                             = "BASE_PATH"
	PRODUCTION_MODE                       = "PRODUCTION_MODE"
	LOG_LEVEL                             = "LOG_LEVEL"
	LISTEN_ADDRESS                        = "LISTEN_ADDRESS"
	ORIGIN_ALLOWED                        = "ORIGIN_ALLOWED"
	PIPELINES_CLEANUP_POSTGRESQL_HOST     = "PIPELINES_CLEANUP_POSTGRESQL_HOST"
	PIPELINES_CLEANUP_POSTGRESQL_PORT     = "PIPELINES_CLEANUP_POSTGRESQL_PORT"
	PIPELINES_CLEANUP_POSTGRESQL_DB_NAME  = "PIPELINES_CLEANUP_POSTGRESQL_DB_NAME"
	PIPELINES_CLEANUP_POSTGRESQL_USERNAME = "PIPELINES_CLEANUP_POSTGRESQL_USERNAME"
	PIPELINES_CLEANUP_POSTGRESQL_PASSWORD = "PIPELINES_CLEANUP_POSTGRESQL_PASSWORD"
	PG_SSL_MODE                           = "PG_SSL_MODE"
	HISTORY_MONTHS_LENGTH                 = "HISTORY_MONTHS_LENGTH"
	MAX_HISTORY_LENGTH                    = "MAX_HISTORY_LENGTH"
	DELETE_BATCH_SIZE                     = "DELETE_BATCH_SIZE"
	MINUTES_BETWEEN_DELETES               = "MINUTES_BETWEEN_DELETES"
	DELETE_PROCESS_TIMEOUT_MINUTES        = "DELETE_PROCESS_TIMEOUT_MINUTES"
	CLEANUP_SCHEDULE                      = "CLEANUP_SCHEDULE"
	INVENTORY_SOURCE                      = "INVENTORY_SOURCE"
	AWS_REGION                            = "AWS_REGION"
	AWS_REQUESTS_PER_SECOND               = "AWS_REQUESTS_PER_SECOND"
	STACK_DELETE_WAIT_MINUTES             = "STACK_DELETE_WAIT_MINUTES"
	MANAGED_STACK_PREFIX                  = "MANAGED_STACK_PREFIX"
	STORAGE_SERVER_USERNAME               = "STORAGE_SERVER_USERNAME"
	STORAGE_SERVER_PASSWORD               = "STORAGE_SERVER_PASSWORD"
	STORAGE_SERVER_CRT                    = "STORAGE_SERVER_CRT"
	STORAGE_SERVER_URL                    = "STORAGE_SERVER_URL"
	STORAGE_SERVER_BUCKET_NAME            = "STORAGE_SERVER_BUCKET_NAME"
	STORAGE_SERVER_ACTIVE                 = "STORAGE_SERVER_ACTIVE"
	NOTIFICATION_WEBHOOK_URL              = "NOTIFICATION_WEBHOOK_URL"
	CLEANUP_API_KEY                       = "CLEANUP_API_KEY"
	DEVOPS_ACCOUNT                        = "DEVOPS_ACCOUNT"
	DEVELOPMENT_ACCOUNT                   = "DEVELOPMENT_ACCOUNT"
	TEST_ACCOUNT                          = "TEST_ACCOUNT"
	ACCEPTANCE_ACCOUNT                    = "ACCEPTANCE_ACCOUNT"
	PRODUCTION_ACCOUNT                    = "PRODUCTION_ACCOUNT"
	OLRIC_DISCOVERY_MODE                  = "OLRIC_DISCOVERY_MODE"
	OLRIC_REPLICA_COUNT                   = "OLRIC_REPLICA_COUNT"
	NAMESPACE                             = "NAMESPACE"
)

const (
	InventorySourceCloudFormation = "cloudformation"
	InventorySourceDatabase       = "database"
)

type SystemInfoService interface {
	GetSystemInfo() *view.SystemInfo
	Init() error
	GetBasePath() string
	IsProductionMode() bool
	GetBackendVersion() string
	GetLogLevel() string
	GetListenAddress() string
	GetOriginAllowed() string
	GetCredsFromEnv() *view.DbCredentials
	GetRetentionPolicy() view.RetentionPolicy
	GetCleanupSchedule() string
	GetInventorySource() string
	GetAwsSettings() view.AwsSettings
	GetMinioStorageCreds() *view.MinioStorageCreds
	GetNotificationWebhookUrl() string
	GetApiKey() string
	GetAccounts() view.Accounts
	GetOlricSettings() view.OlricSettings
}

func NewSystemInfoService() (SystemInfoService, error) {
	s := &systemInfoServiceImpl{
		systemInfoMap: make(map[string]interface{})}
	if err := s.Init(); err != nil {
		log.Error("Failed to read system info: " + err.Error())
		return nil, err
	}
	return s, nil
}

type systemInfoServiceImpl struct {
	systemInfoMap map[string]interface{}
}

func (g systemInfoServiceImpl) GetSystemInfo() *view.SystemInfo {
	return &view.SystemInfo{
		BackendVersion:  g.GetBackendVersion(),
		ProductionMode:  g.IsProductionMode(),
		Accounts:        g.GetAccounts(),
		Policy:          g.GetRetentionPolicy(),
		InventorySource: g.GetInventorySource(),
	}
}

func (g systemInfoServiceImpl) Init() error {
	g.setBasePath()
	if err := g.setProductionMode(); err != nil {
		return err
	}
	g.setBackendVersion()
	g.setStringWithDefault(LOG_LEVEL, "info")
	g.setStringWithDefault(LISTEN_ADDRESS, ":8080")
	g.setStringWithDefault(ORIGIN_ALLOWED, "")
	g.setStringWithDefault(PIPELINES_CLEANUP_POSTGRESQL_HOST, "localhost")
	if err := g.setInt(PIPELINES_CLEANUP_POSTGRESQL_PORT, 5432, 1); err != nil {
		return err
	}
	g.setStringWithDefault(PIPELINES_CLEANUP_POSTGRESQL_DB_NAME, "pipelines_cleanup")
	g.setStringWithDefault(PIPELINES_CLEANUP_POSTGRESQL_USERNAME, "pipelines_cleanup")
	g.setStringWithDefault(PIPELINES_CLEANUP_POSTGRESQL_PASSWORD, "pipelines_cleanup")
	g.setStringWithDefault(PG_SSL_MODE, "disable")

	if err := g.setInt(HISTORY_MONTHS_LENGTH, 3, 0); err != nil {
		return err
	}
	if err := g.setInt(MAX_HISTORY_LENGTH, 7, 1); err != nil {
		return err
	}
	if err := g.setInt(DELETE_BATCH_SIZE, 5, 1); err != nil {
		return err
	}
	if err := g.setInt(MINUTES_BETWEEN_DELETES, 5, 1); err != nil {
		return err
	}
	if err := g.setInt(DELETE_PROCESS_TIMEOUT_MINUTES, 240, 1); err != nil {
		return err
	}
	g.setStringWithDefault(CLEANUP_SCHEDULE, "")
	if err := g.setInventorySource(); err != nil {
		return err
	}

	g.setStringWithDefault(AWS_REGION, "")
	if err := g.setRequestsPerSecond(); err != nil {
		return err
	}
	if err := g.setInt(STACK_DELETE_WAIT_MINUTES, 0, 0); err != nil {
		return err
	}
	g.setStringWithDefault(MANAGED_STACK_PREFIX, "")

	g.setStringWithDefault(STORAGE_SERVER_USERNAME, "")
	g.setStringWithDefault(STORAGE_SERVER_PASSWORD, "")
	g.setStringWithDefault(STORAGE_SERVER_CRT, "")
	g.setStringWithDefault(STORAGE_SERVER_URL, "")
	g.setStringWithDefault(STORAGE_SERVER_BUCKET_NAME, "")
	g.setMinioStorageActive()

	g.setStringWithDefault(NOTIFICATION_WEBHOOK_URL, "")
	g.setStringWithDefault(CLEANUP_API_KEY, "")
	if g.GetApiKey() == "" {
		log.Warn("env CLEANUP_API_KEY is not set or empty, cleanup API will reject all requests")
	}

	g.setStringWithDefault(DEVOPS_ACCOUNT, "default-devops-account")
	g.setStringWithDefault(DEVELOPMENT_ACCOUNT, "default-development-account")
	g.setStringWithDefault(TEST_ACCOUNT, "default-test-account")
	g.setStringWithDefault(ACCEPTANCE_ACCOUNT, "default-acceptance-account")
	g.setStringWithDefault(PRODUCTION_ACCOUNT, "default-production-account")

	g.setStringWithDefault(OLRIC_DISCOVERY_MODE, "local")
	if err := g.setInt(OLRIC_REPLICA_COUNT, 1, 1); err != nil {
		return err
	}
	g.setStringWithDefault(NAMESPACE, "")

	return nil
}

func (g systemInfoServiceImpl) setBasePath() {
	g.systemInfoMap[BASE_PATH] = os.Getenv(BASE_PATH)
	if g.systemInfoMap[BASE_PATH] == "" {
		g.systemInfoMap[BASE_PATH] = "."
	}
}

func (g systemInfoServiceImpl) setProductionMode() error {
	envVal := os.Getenv(PRODUCTION_MODE)
	if envVal == "" {
		envVal = "false"
	}
	productionMode, err := strconv.ParseBool(envVal)
	if err != nil {
		return fmt.Errorf("failed to parse %v env value: %v", PRODUCTION_MODE, err.Error())
	}
	g.systemInfoMap[PRODUCTION_MODE] = productionMode
	return nil
}

func (g systemInfoServiceImpl) setBackendVersion() {
	version := os.Getenv(ARTIFACT_DESCRIPTOR_VERSION)
	if version == "" {
		version = "unknown"
	}
	g.systemInfoMap[ARTIFACT_DESCRIPTOR_VERSION] = version
}

func (g systemInfoServiceImpl) setStringWithDefault(name string, defaultValue string) {
	value := os.Getenv(name)
	if value == "" {
		value = defaultValue
	}
	g.systemInfoMap[name] = value
}

func (g systemInfoServiceImpl) setInt(name string, defaultValue int, minValue int) error {
	envVal := os.Getenv(name)
	if envVal == "" {
		g.systemInfoMap[name] = defaultValue
		return nil
	}
	value, err := strconv.Atoi(envVal)
	if err != nil {
		return fmt.Errorf("failed to parse %v env value: %v", name, err.Error())
	}
	if value < minValue {
		return fmt.Errorf("env %v value %d is less than allowed minimum %d", name, value, minValue)
	}
	g.systemInfoMap[name] = value
	return nil
}

func (g systemInfoServiceImpl) setInventorySource() error {
	source := strings.ToLower(os.Getenv(INVENTORY_SOURCE))
	switch source {
	case "":
		source = InventorySourceCloudFormation
	case InventorySourceCloudFormation, InventorySourceDatabase:
	default:
		return fmt.Errorf("env %v has unsupported value '%s', allowed values are %s and %s",
			INVENTORY_SOURCE, source, InventorySourceCloudFormation, InventorySourceDatabase)
	}
	g.systemInfoMap[INVENTORY_SOURCE] = source
	return nil
}

func (g systemInfoServiceImpl) setRequestsPerSecond() error {
	envVal := os.Getenv(AWS_REQUESTS_PER_SECOND)
	rps := 2.0
	if envVal != "" {
		var err error
		rps, err = strconv.ParseFloat(envVal, 64)
		if err != nil {
			return fmt.Errorf("failed to parse %v env value: %v", AWS_REQUESTS_PER_SECOND, err.Error())
		}
		if rps <= 0 {
			return fmt.Errorf("env %v must be positive", AWS_REQUESTS_PER_SECOND)
		}
	}
	g.systemInfoMap[AWS_REQUESTS_PER_SECOND] = rps
	return nil
}

func (g systemInfoServiceImpl) setMinioStorageActive() {
	envVal := os.Getenv(STORAGE_SERVER_ACTIVE)
	if envVal == "" {
		envVal = "false"
	}
	active, err := strconv.ParseBool(envVal)
	if err != nil {
		log.Infof("environment variable %v has invalid value, using false value instead", STORAGE_SERVER_ACTIVE)
		active = false
	}
	g.systemInfoMap[STORAGE_SERVER_ACTIVE] = active
}

func (g systemInfoServiceImpl) getString(name string) string {
	return g.systemInfoMap[name].(string)
}

func (g systemInfoServiceImpl) getInt(name string) int {
	return g.systemInfoMap[name].(int)
}

func (g systemInfoServiceImpl) GetBasePath() string {
	return g.getString(BASE_PATH)
}

func (g systemInfoServiceImpl) IsProductionMode() bool {
	return g.systemInfoMap[PRODUCTION_MODE].(bool)
}

func (g systemInfoServiceImpl) GetBackendVersion() string {
	return g.getString(ARTIFACT_DESCRIPTOR_VERSION)
}

func (g systemInfoServiceImpl) GetLogLevel() string {
	return g.getString(LOG_LEVEL)
}

func (g systemInfoServiceImpl) GetListenAddress() string {
	return g.getString(LISTEN_ADDRESS)
}

func (g systemInfoServiceImpl) GetOriginAllowed() string {
	return g.getString(ORIGIN_ALLOWED)
}

func (g systemInfoServiceImpl) GetCredsFromEnv() *view.DbCredentials {
	return &view.DbCredentials{
		Host:     g.getString(PIPELINES_CLEANUP_POSTGRESQL_HOST),
		Port:     g.getInt(PIPELINES_CLEANUP_POSTGRESQL_PORT),
		Database: g.getString(PIPELINES_CLEANUP_POSTGRESQL_DB_NAME),
		Username: g.getString(PIPELINES_CLEANUP_POSTGRESQL_USERNAME),
		Password: g.getString(PIPELINES_CLEANUP_POSTGRESQL_PASSWORD),
		SSLMode:  g.getString(PG_SSL_MODE),
	}
}

func (g systemInfoServiceImpl) GetRetentionPolicy() view.RetentionPolicy {
	return view.RetentionPolicy{
		HistoryMonths:               g.getInt(HISTORY_MONTHS_LENGTH),
		MaxHistoryLength:            g.getInt(MAX_HISTORY_LENGTH),
		DeleteBatchSize:             g.getInt(DELETE_BATCH_SIZE),
		MinutesBetweenDeletes:       g.getInt(MINUTES_BETWEEN_DELETES),
		DeleteProcessTimeoutMinutes: g.getInt(DELETE_PROCESS_TIMEOUT_MINUTES),
	}
}

func (g systemInfoServiceImpl) GetCleanupSchedule() string {
	return g.getString(CLEANUP_SCHEDULE)
}

func (g systemInfoServiceImpl) GetInventorySource() string {
	return g.getString(INVENTORY_SOURCE)
}

func (g systemInfoServiceImpl) GetAwsSettings() view.AwsSettings {
	return view.AwsSettings{
		Region:             g.getString(AWS_REGION),
		RequestsPerSecond:  g.systemInfoMap[AWS_REQUESTS_PER_SECOND].(float64),
		DeleteWaitMinutes:  g.getInt(STACK_DELETE_WAIT_MINUTES),
		ManagedStackPrefix: g.getString(MANAGED_STACK_PREFIX),
	}
}

func (g systemInfoServiceImpl) GetMinioStorageCreds() *view.MinioStorageCreds {
	return &view.MinioStorageCreds{
		BucketName:      g.getString(STORAGE_SERVER_BUCKET_NAME),
		IsActive:        g.systemInfoMap[STORAGE_SERVER_ACTIVE].(bool),
		Endpoint:        g.getString(STORAGE_SERVER_URL),
		Crt:             g.getString(STORAGE_SERVER_CRT),
		AccessKeyId:     g.getString(STORAGE_SERVER_USERNAME),
		SecretAccessKey: g.getString(STORAGE_SERVER_PASSWORD),
	}
}

func (g systemInfoServiceImpl) GetNotificationWebhookUrl() string {
	return g.getString(NOTIFICATION_WEBHOOK_URL)
}

func (g systemInfoServiceImpl) GetApiKey() string {
	return g.getString(CLEANUP_API_KEY)
}

func (g systemInfoServiceImpl) GetAccounts() view.Accounts {
	return view.Accounts{
		Devops:      g.getString(DEVOPS_ACCOUNT),
		Development: g.getString(DEVELOPMENT_ACCOUNT),
		Test:        g.getString(TEST_ACCOUNT),
		Acceptance:  g.getString(ACCEPTANCE_ACCOUNT),
		Production:  g.getString(PRODUCTION_ACCOUNT),
	}
}

func (g systemInfoServiceImpl) GetOlricSettings() view.OlricSettings {
	return view.OlricSettings{
		DiscoveryMode: g.getString(OLRIC_DISCOVERY_MODE),
		ReplicaCount:  g.getInt(OLRIC_REPLICA_COUNT),
		Namespace:     g.getString(NAMESPACE),
	}
}

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

package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/Netcracker/qubership-pipelines-cleanup/cache"
	"github.com/Netcracker/qubership-pipelines-cleanup/client"
	"github.com/Netcracker/qubership-pipelines-cleanup/controller"
	"github.com/Netcracker/qubership-pipelines-cleanup/db"
	"github.com/Netcracker/qubership-pipelines-cleanup/metrics"
	midldleware "github.com/Netcracker/qubership-pipelines-cleanup/middleware"
	mservice "github.com/Netcracker/qubership-pipelines-cleanup/migration/service"
	"github.com/Netcracker/qubership-pipelines-cleanup/repository"
	"github.com/Netcracker/qubership-pipelines-cleanup/security"
	"github.com/Netcracker/qubership-pipelines-cleanup/service"
	"github.com/Netcracker/qubership-pipelines-cleanup/utils"
	"github.com/Netcracker/qubership-pipelines-cleanup/view"
	"github.com/google/uuid"
	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	prefixed "github.com/x-cray/logrus-prefixed-formatter"
	"gopkg.in/natefinch/lumberjack.v2"
)

var systemInfoService service.SystemInfoService

var selectOutPath string
var advanceStatePath string
var advanceOutPath string

var rootCmd = &cobra.Command{
	Use:   "pipelines-cleanup",
	Short: "Retention cleanup of versioned delivery pipeline stacks",
	Long: `Selects pipeline/stack pairs that fell out of the retention policy and
deletes them in small batches, one batch per scheduler tick.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		systemInfoService, err = service.NewSystemInfoService()
		if err != nil {
			return err
		}
		setupLogging(systemInfoService.GetBasePath(), systemInfoService.GetLogLevel())
		return nil
	},
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API and the in-process cleanup scheduler",
	RunE: func(cmd *cobra.Command, args []string) error {
		return serve()
	},
}

var selectCmd = &cobra.Command{
	Use:   "select",
	Short: "Print the initial progress status computed from the configured inventory source",
	RunE: func(cmd *cobra.Command, args []string) error {
		return selectForDeletion(cmd.Context())
	},
}

var advanceCmd = &cobra.Command{
	Use:   "advance",
	Short: "Delete one batch from a progress status file and write the next status",
	RunE: func(cmd *cobra.Command, args []string) error {
		return advance(cmd.Context())
	},
}

func init() {
	selectCmd.Flags().StringVar(&selectOutPath, "out", "", "file to write the progress status to (stdout if empty)")
	advanceCmd.Flags().StringVar(&advanceStatePath, "state", "", "progress status file produced by select or a previous advance")
	advanceCmd.Flags().StringVar(&advanceOutPath, "out", "", "file to write the next progress status to (overwrites --state if empty)")
	advanceCmd.MarkFlagRequired("state")

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(selectCmd)
	rootCmd.AddCommand(advanceCmd)
}

func setupLogging(basePath string, level string) {
	logFilePath := filepath.Join(basePath, "logs")
	if err := os.MkdirAll(logFilePath, 0744); err != nil {
		log.Warnf("Failed to create log folder %s: %v", logFilePath, err)
	}
	fileLogger := &lumberjack.Logger{
		Filename: filepath.Join(logFilePath, "pipelines-cleanup.log"),
		MaxSize:  10, // megabytes
	}
	log.SetFormatter(&prefixed.TextFormatter{
		DisableColors:   true,
		TimestampFormat: "2006-01-02 15:04:05",
		FullTimestamp:   true,
		ForceFormatting: true,
	})
	log.SetOutput(io.MultiWriter(os.Stderr, fileLogger))
	logLevel, err := log.ParseLevel(level)
	if err != nil {
		log.Warnf("Unknown log level '%s', using info", level)
		logLevel = log.InfoLevel
	}
	log.SetLevel(logLevel)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func serve() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	policy := systemInfoService.GetRetentionPolicy()
	awsSettings := systemInfoService.GetAwsSettings()
	log.Infof("Starting pipelines cleanup %s with retention policy %+v", systemInfoService.GetBackendVersion(), policy)

	cp := db.NewConnectionProvider(systemInfoService.GetCredsFromEnv())
	migrationService, err := mservice.NewDBMigrationService(cp, systemInfoService.GetBasePath())
	if err != nil {
		return err
	}
	if _, _, _, err = migrationService.Migrate(ctx); err != nil {
		return fmt.Errorf("failed to migrate database schema: %w", err)
	}

	olricProvider, err := cache.NewOlricProvider(systemInfoService.GetOlricSettings())
	if err != nil {
		return fmt.Errorf("failed to start olric: %w", err)
	}
	jobLocker := cache.NewJobLocker(olricProvider)

	stackClient, err := client.NewCloudFormationStackClient(ctx, awsSettings)
	if err != nil {
		return err
	}
	cleanupJobRepository := repository.NewCleanupJobRepository(cp)
	inventoryRepository := repository.NewInventoryRepository(cp)

	selectionService := service.NewSelectionService(
		makeInventorySource(stackClient, inventoryRepository),
		service.NewRetentionSelector(),
		policy)
	executor := service.NewBatchDeletionExecutor(stackClient, policy)

	reportStorageService := service.NewReportStorageService(systemInfoService.GetMinioStorageCreds())
	if reportStorageService.IsEnabled() {
		if err = reportStorageService.Init(ctx); err != nil {
			return err
		}
	}
	notificationClient := client.NewNotificationClient(systemInfoService.GetNotificationWebhookUrl())

	cleanupJobService := service.NewCleanupJobService(
		cleanupJobRepository,
		inventoryRepository,
		selectionService,
		executor,
		jobLocker,
		reportStorageService,
		notificationClient,
		uuid.New().String(),
		tickLockTtl(policy, awsSettings))
	inventoryService := service.NewInventoryService(inventoryRepository, systemInfoService.GetAccounts())

	security.SetupGoGuardian(systemInfoService.GetApiKey())
	metrics.RegisterAllPrometheusApplicationMetrics()

	readyChan := make(chan bool, 1)
	healthController := controller.NewHealthController(readyChan)
	systemInfoController := controller.NewSystemInfoController(systemInfoService)
	cleanupController := controller.NewCleanupController(
		selectionService,
		executor,
		cleanupJobService,
		inventoryService,
		service.NewReportExcelService())

	r := mux.NewRouter().SkipClean(true).UseEncodedPath()
	r.HandleFunc("/api/v1/cleanup/selection", security.Secure(cleanupController.SelectForDeletion)).Methods(http.MethodPost)
	r.HandleFunc("/api/v1/cleanup/advance", security.Secure(cleanupController.Advance)).Methods(http.MethodPost)
	r.HandleFunc("/api/v1/cleanup/jobs", security.Secure(cleanupController.StartJob)).Methods(http.MethodPost)
	r.HandleFunc("/api/v1/cleanup/jobs", security.Secure(cleanupController.ListJobs)).Methods(http.MethodGet)
	r.HandleFunc("/api/v1/cleanup/jobs/{jobId}", security.Secure(cleanupController.GetJob)).Methods(http.MethodGet)
	r.HandleFunc("/api/v1/cleanup/jobs/{jobId}", security.Secure(cleanupController.CancelJob)).Methods(http.MethodDelete)
	r.HandleFunc("/api/v1/cleanup/jobs/{jobId}/results", security.Secure(cleanupController.GetJobResults)).Methods(http.MethodGet)
	r.HandleFunc("/api/v1/cleanup/jobs/{jobId}/report", security.Secure(cleanupController.GetJobReport)).Methods(http.MethodGet)
	r.HandleFunc("/api/v1/cleanup/inventory", security.Secure(cleanupController.RegisterDeployment)).Methods(http.MethodPut)
	r.HandleFunc("/api/v1/system/info", security.Secure(systemInfoController.GetSystemInfo)).Methods(http.MethodGet)

	r.HandleFunc("/live", healthController.HandleLiveRequest).Methods(http.MethodGet)
	r.HandleFunc("/ready", healthController.HandleReadyRequest).Methods(http.MethodGet)
	r.Handle("/metrics", promhttp.Handler()).Methods(http.MethodGet)
	r.Use(midldleware.PrometheusMiddleware)

	var handler http.Handler = r
	if origins := systemInfoService.GetOriginAllowed(); origins != "" {
		handler = handlers.CORS(
			handlers.AllowedHeaders([]string{"Content-Type", security.ApiKeyHeader, security.InitiatorHeader}),
			handlers.AllowedOrigins(strings.Split(origins, ",")),
			handlers.AllowedMethods([]string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete}),
		)(r)
	}

	srv := &http.Server{
		Handler:      handlers.CompressHandler(handler),
		Addr:         systemInfoService.GetListenAddress(),
		WriteTimeout: 300 * time.Second,
		ReadTimeout:  30 * time.Second,
	}

	if err = cleanupJobService.StartScheduler(systemInfoService.GetCleanupSchedule()); err != nil {
		return err
	}

	serverErr := make(chan error, 1)
	utils.SafeAsync("http server", func() {
		log.Infof("Listening on %s", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serverErr <- err
		}
	})
	readyChan <- true

	select {
	case <-ctx.Done():
		log.Info("Shutdown signal received")
	case err = <-serverErr:
		log.Errorf("HTTP server failed: %v", err)
	}

	// a running tick is allowed to finish its batch
	<-cleanupJobService.StopScheduler().Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if shutdownErr := srv.Shutdown(shutdownCtx); shutdownErr != nil {
		log.Errorf("Failed to shutdown HTTP server: %v", shutdownErr)
	}
	if shutdownErr := olricProvider.Shutdown(shutdownCtx); shutdownErr != nil {
		log.Warnf("Failed to shutdown olric: %v", shutdownErr)
	}
	return err
}

func makeInventorySource(stackClient client.StackClient, inventoryRepository repository.InventoryRepository) service.InventorySource {
	if systemInfoService.GetInventorySource() == service.InventorySourceDatabase {
		log.Infof("Pipeline stack inventory is read from database")
		return inventoryRepository
	}
	log.Infof("Pipeline stack inventory is read from CloudFormation")
	return stackClient
}

// tickLockTtl covers the worst case of one batch: every stack waits for its full DELETE_COMPLETE timeout.
func tickLockTtl(policy view.RetentionPolicy, awsSettings view.AwsSettings) time.Duration {
	perStack := time.Duration(awsSettings.DeleteWaitMinutes) * time.Minute
	if perStack < time.Minute {
		perStack = time.Minute
	}
	return time.Duration(policy.MinutesBetweenDeletes)*time.Minute + time.Duration(policy.DeleteBatchSize)*perStack
}

func selectForDeletion(ctx context.Context) error {
	stackClient, err := client.NewCloudFormationStackClient(ctx, systemInfoService.GetAwsSettings())
	if err != nil {
		return err
	}
	var inventorySource service.InventorySource = stackClient
	if systemInfoService.GetInventorySource() == service.InventorySourceDatabase {
		inventorySource = repository.NewInventoryRepository(db.NewConnectionProvider(systemInfoService.GetCredsFromEnv()))
	}
	selectionService := service.NewSelectionService(inventorySource, service.NewRetentionSelector(), systemInfoService.GetRetentionPolicy())
	progress, err := selectionService.SelectForDeletion(ctx, metrics.TriggerCli)
	if err != nil {
		return err
	}
	return writeProgressStatus(selectOutPath, progress)
}

func advance(ctx context.Context) error {
	progress, err := readProgressStatus(advanceStatePath)
	if err != nil {
		return err
	}
	if err = service.ValidateProgressStatus(progress); err != nil {
		return err
	}
	stackClient, err := client.NewCloudFormationStackClient(ctx, systemInfoService.GetAwsSettings())
	if err != nil {
		return err
	}
	executor := service.NewBatchDeletionExecutor(stackClient, systemInfoService.GetRetentionPolicy())
	next, report := executor.Advance(ctx, progress)
	for _, result := range report.Results {
		log.Infof("%s: %s %s", result.Pair, result.Outcome, result.Error)
	}
	outPath := advanceOutPath
	if outPath == "" {
		outPath = advanceStatePath
	}
	return writeProgressStatus(outPath, next)
}

func readProgressStatus(path string) (view.ProgressStatus, error) {
	var progress view.ProgressStatus
	content, err := os.ReadFile(path)
	if err != nil {
		return progress, fmt.Errorf("failed to read progress status file %s: %w", path, err)
	}
	if err = json.Unmarshal(content, &progress); err != nil {
		return progress, fmt.Errorf("failed to parse progress status file %s: %w", path, err)
	}
	return progress, nil
}

func writeProgressStatus(path string, progress view.ProgressStatus) error {
	content, err := json.MarshalIndent(progress, "", "  ")
	if err != nil {
		return err
	}
	if path == "" {
		_, err = fmt.Fprintln(os.Stdout, string(content))
		return err
	}
	return os.WriteFile(path, content, 0644)
}

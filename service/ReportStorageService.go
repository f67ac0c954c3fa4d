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
	"bytes"
	"context"
	"crypto/x509"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/Netcracker/qubership-pipelines-cleanup/utils"
	"github.com/Netcracker/qubership-pipelines-cleanup/view"
	"github.com/gosimple/slug"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
)

const reportsFolder = "cleanup-reports"

type ReportStorageService interface {
	IsEnabled() bool
	Init(ctx context.Context) error
	StoreReport(ctx context.Context, report view.CleanupReport) (string, error)
	GetReport(ctx context.Context, objectName string) (*view.CleanupReport, error)
}

func NewReportStorageService(creds *view.MinioStorageCreds) ReportStorageService {
	if !creds.IsActive {
		log.Info("MINIO storage is not active, cleanup reports will not be archived")
		return &reportStorageServiceImpl{creds: creds}
	}
	return &reportStorageServiceImpl{
		minioClient: createMinioClient(creds),
		creds:       creds,
	}
}

type reportStorageServiceImpl struct {
	minioClient *minioClient
	creds       *view.MinioStorageCreds
}

type minioClient struct {
	client *minio.Client
	error  error
}

func (m reportStorageServiceImpl) IsEnabled() bool {
	return m.minioClient != nil && m.minioClient.error == nil
}

func (m reportStorageServiceImpl) Init(ctx context.Context) error {
	if !m.IsEnabled() {
		if m.minioClient != nil {
			return m.minioClient.error
		}
		return nil
	}
	exists, err := m.minioClient.client.BucketExists(ctx, m.creds.BucketName)
	if err != nil {
		return errors.Wrapf(err, "failed to check minio bucket %s", m.creds.BucketName)
	}
	if exists {
		log.Infof("Minio bucket - %s exists", m.creds.BucketName)
		return nil
	}
	err = m.minioClient.client.MakeBucket(ctx, m.creds.BucketName, minio.MakeBucketOptions{})
	if err != nil {
		return errors.Wrapf(err, "failed to create minio bucket %s", m.creds.BucketName)
	}
	log.Infof("Minio bucket - %s was created", m.creds.BucketName)
	return nil
}

func (m reportStorageServiceImpl) StoreReport(ctx context.Context, report view.CleanupReport) (string, error) {
	if !m.IsEnabled() {
		return "", nil
	}
	content, err := json.Marshal(report)
	if err != nil {
		return "", err
	}
	objectName := buildReportObjectName(report.JobId)
	start := time.Now()
	_, err = m.minioClient.client.PutObject(ctx, m.creds.BucketName, objectName, bytes.NewReader(content), int64(len(content)),
		minio.PutObjectOptions{ContentType: "application/json"})
	utils.LogDuration(start, 500*time.Millisecond, "upload cleanup report to Minio")
	if err != nil {
		return "", errors.Wrapf(err, "failed to upload report of cleanup job %s", report.JobId)
	}
	return objectName, nil
}

func (m reportStorageServiceImpl) GetReport(ctx context.Context, objectName string) (*view.CleanupReport, error) {
	if !m.IsEnabled() {
		return nil, nil
	}
	minioObject, err := m.minioClient.client.GetObject(ctx, m.creds.BucketName, objectName, minio.GetObjectOptions{})
	if err != nil {
		return nil, errors.Wrapf(err, "failed to get object %s", objectName)
	}
	defer minioObject.Close()
	content, err := io.ReadAll(minioObject)
	if err != nil {
		if minio.ToErrorResponse(err).Code == "NoSuchKey" {
			return nil, nil
		}
		return nil, errors.Wrapf(err, "failed to read object %s", objectName)
	}
	report := new(view.CleanupReport)
	if err = json.Unmarshal(content, report); err != nil {
		return nil, errors.Wrapf(err, "object %s is not a cleanup report", objectName)
	}
	return report, nil
}

func createMinioClient(creds *view.MinioStorageCreds) *minioClient {
	client := new(minioClient)
	tr, err := minio.DefaultTransport(true)
	if err != nil {
		log.Warnf("error creating the minio connection: error creating the default transport layer: %v", err)
		client.error = err
		return client
	}
	decodedCrt, err := base64.StdEncoding.DecodeString(creds.Crt)
	if err != nil {
		log.Warn(err.Error())
		client.error = err
		return client
	}
	rootCAs := mustGetSystemCertPool()
	rootCAs.AppendCertsFromPEM(decodedCrt)
	tr.TLSClientConfig.RootCAs = rootCAs

	mc, err := minio.New(creds.Endpoint, &minio.Options{
		Creds:     credentials.NewStaticV4(creds.AccessKeyId, creds.SecretAccessKey, ""),
		Secure:    true,
		Transport: tr,
	})
	if err != nil {
		if strings.Contains(err.Error(), "endpoint") {
			err = fmt.Errorf("invalid storage URL")
		}
		log.Warn(err.Error())
		client.error = err
		return client
	}
	log.Infof("MINIO instance initialized")
	client.client = mc
	return client
}

func mustGetSystemCertPool() *x509.CertPool {
	pool, err := x509.SystemCertPool()
	if err != nil {
		return x509.NewCertPool()
	}
	return pool
}

func buildReportObjectName(jobId string) string {
	return fmt.Sprintf("%s/%s.json", reportsFolder, slug.Make(jobId))
}

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

package client

import (
	"context"
	"crypto/tls"
	"fmt"
	"net/http"
	"time"

	"github.com/Netcracker/qubership-pipelines-cleanup/view"
	"github.com/go-resty/resty/v2"
)

type NotificationClient interface {
	IsEnabled() bool
	SendCleanupReport(ctx context.Context, report view.CleanupReport) error
}

func NewNotificationClient(webhookUrl string) NotificationClient {
	return &notificationClientImpl{webhookUrl: webhookUrl}
}

type notificationClientImpl struct {
	webhookUrl string
}

func (n notificationClientImpl) IsEnabled() bool {
	return n.webhookUrl != ""
}

func (n notificationClientImpl) SendCleanupReport(ctx context.Context, report view.CleanupReport) error {
	if !n.IsEnabled() {
		return nil
	}
	resp, err := n.makeRequest(ctx).
		SetBody(report).
		Post(n.webhookUrl)
	if err != nil {
		return fmt.Errorf("failed to send report of cleanup job %s: %w", report.JobId, err)
	}
	if resp.IsError() {
		return fmt.Errorf("failed to send report of cleanup job %s: response status %v", report.JobId, resp.StatusCode())
	}
	return nil
}

func (n notificationClientImpl) makeRequest(ctx context.Context) *resty.Request {
	tr := http.Transport{TLSClientConfig: &tls.Config{InsecureSkipVerify: true}}
	cl := http.Client{Transport: &tr, Timeout: time.Second * 30}

	client := resty.NewWithClient(&cl).
		SetRetryCount(2).
		SetRetryWaitTime(time.Second)
	req := client.R().SetContext(ctx)
	req.SetHeader("Content-Type", "application/json")
	req.SetHeader("accept", "application/json")
	return req
}

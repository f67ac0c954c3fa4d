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

package view

type DbCredentials struct {
	Host     string
	Port     int
	Database string
	Username string
	Password string
	SSLMode  string
}

type MinioStorageCreds struct {
	BucketName      string
	IsActive        bool
	Endpoint        string
	Crt             string
	AccessKeyId     string
	SecretAccessKey string
}

type AwsSettings struct {
	Region             string
	RequestsPerSecond  float64
	DeleteWaitMinutes  int
	ManagedStackPrefix string
}

type Accounts struct {
	Devops      string `json:"devops"`
	Development string `json:"development"`
	Test        string `json:"test"`
	Acceptance  string `json:"acceptance"`
	Production  string `json:"production"`
}

func (a Accounts) ReadableName(account string) string {
	switch account {
	case a.Devops:
		return "devops"
	case a.Development:
		return "development"
	case a.Test:
		return "test"
	case a.Acceptance:
		return "acceptance"
	case a.Production:
		return "production"
	}
	return "unknown"
}

type SystemInfo struct {
	BackendVersion  string          `json:"backendVersion"`
	ProductionMode  bool            `json:"productionMode"`
	Accounts        Accounts        `json:"accounts"`
	Policy          RetentionPolicy `json:"retentionPolicy"`
	InventorySource string          `json:"inventorySource"`
}

type OlricSettings struct {
	DiscoveryMode string
	ReplicaCount  int
	Namespace     string
}

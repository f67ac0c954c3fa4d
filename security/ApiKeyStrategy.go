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

package security

import (
	goctx "context"
	"crypto/subtle"
	"fmt"
	"net/http"

	"github.com/shaj13/go-guardian/v2/auth"
)

const ApiKeyHeader = "api-key"

const apiKeyUserId = "api-key-user"
const apiKeyUserName = "cleanup api key"

func NewApiKeyStrategy(apiKey string) auth.Strategy {
	return &apiKeyStrategyImpl{apiKey: apiKey}
}

type apiKeyStrategyImpl struct {
	apiKey string
}

func (a apiKeyStrategyImpl) Authenticate(ctx goctx.Context, r *http.Request) (auth.Info, error) {
	apiKey := r.Header.Get(ApiKeyHeader)
	if apiKey == "" {
		return nil, fmt.Errorf("authentication failed: header '%v' is empty", ApiKeyHeader)
	}
	if a.apiKey == "" {
		return nil, fmt.Errorf("authentication failed: api key is not configured")
	}
	if subtle.ConstantTimeCompare([]byte(apiKey), []byte(a.apiKey)) != 1 {
		return nil, fmt.Errorf("authentication failed: '%v' is invalid", ApiKeyHeader)
	}
	initiator := r.Header.Get(InitiatorHeader)
	if initiator == "" {
		initiator = apiKeyUserId
	}
	return auth.NewDefaultUser(apiKeyUserName, initiator, []string{}, auth.Extensions{}), nil
}

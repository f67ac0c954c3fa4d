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
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/Netcracker/qubership-pipelines-cleanup/context"
	"github.com/stretchr/testify/assert"
)

func securedUserIdHandler(seen *string) http.HandlerFunc {
	return Secure(func(w http.ResponseWriter, r *http.Request) {
		*seen = context.GetInitiator(r)
		w.WriteHeader(http.StatusOK)
	})
}

func TestSecure(t *testing.T) {
	SetupGoGuardian("secret-key")

	tests := []struct {
		name           string
		headers        map[string]string
		expectedStatus int
		expectedUserId string
	}{
		{name: "valid key", headers: map[string]string{ApiKeyHeader: "secret-key"}, expectedStatus: http.StatusOK, expectedUserId: apiKeyUserId},
		{name: "valid key with initiator", headers: map[string]string{ApiKeyHeader: "secret-key", InitiatorHeader: "release-pipeline"}, expectedStatus: http.StatusOK, expectedUserId: "release-pipeline"},
		{name: "missing key", headers: map[string]string{}, expectedStatus: http.StatusUnauthorized},
		{name: "wrong key", headers: map[string]string{ApiKeyHeader: "guess"}, expectedStatus: http.StatusUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			seen := ""
			req := httptest.NewRequest(http.MethodPost, "/api/v1/cleanup/selection", nil)
			for k, v := range tt.headers {
				req.Header.Set(k, v)
			}
			rec := httptest.NewRecorder()

			securedUserIdHandler(&seen).ServeHTTP(rec, req)

			assert.Equal(t, tt.expectedStatus, rec.Code)
			assert.Equal(t, tt.expectedUserId, seen)
		})
	}
}

func TestSecure_EmptyConfiguredKeyRejectsEverything(t *testing.T) {
	SetupGoGuardian("")
	seen := ""
	req := httptest.NewRequest(http.MethodGet, "/api/v1/cleanup/jobs", nil)
	req.Header.Set(ApiKeyHeader, "anything")
	rec := httptest.NewRecorder()

	securedUserIdHandler(&seen).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Empty(t, seen)
}

func TestSecure_PanicIsAnswered(t *testing.T) {
	SetupGoGuardian("secret-key")
	req := httptest.NewRequest(http.MethodGet, "/api/v1/cleanup/jobs", nil)
	req.Header.Set(ApiKeyHeader, "secret-key")
	rec := httptest.NewRecorder()

	Secure(func(w http.ResponseWriter, r *http.Request) {
		panic("boom")
	}).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

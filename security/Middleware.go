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
	"fmt"
	"net/http"
	"runtime/debug"

	"github.com/Netcracker/qubership-pipelines-cleanup/controller"
	"github.com/Netcracker/qubership-pipelines-cleanup/exception"
	"github.com/shaj13/go-guardian/v2/auth"
	log "github.com/sirupsen/logrus"
)

// Secure authenticates the caller by api key and answers 500 instead of dropping the connection when the handler panics.
func Secure(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		defer recoverRequest(w, r)

		_, user, err := strategy.AuthenticateRequest(r)
		if err != nil {
			log.WithFields(requestFields(r)).Debugf("Rejected unauthenticated request: %v", err)
			controller.RespondWithCustomError(w, &exception.CustomError{
				Status:  http.StatusUnauthorized,
				Message: http.StatusText(http.StatusUnauthorized),
				Debug:   err.Error(),
			})
			return
		}
		next.ServeHTTP(w, auth.RequestWithUser(user, r))
	}
}

func recoverRequest(w http.ResponseWriter, r *http.Request) {
	err := recover()
	if err == nil {
		return
	}
	log.WithFields(requestFields(r)).Errorf("Request failed with panic: %v", err)
	log.Tracef("Stacktrace: %v", string(debug.Stack()))
	controller.RespondWithCustomError(w, &exception.CustomError{
		Status:  http.StatusInternalServerError,
		Message: http.StatusText(http.StatusInternalServerError),
		Debug:   fmt.Sprintf("%v", err),
	})
}

func requestFields(r *http.Request) log.Fields {
	return log.Fields{
		"method": r.Method,
		"path":   r.URL.Path,
		"remote": r.RemoteAddr,
	}
}

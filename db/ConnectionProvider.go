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

package db

import (
	"crypto/tls"
	"fmt"
	"sync"

	"github.com/Netcracker/qubership-pipelines-cleanup/view"
	"github.com/go-pg/pg/v10"
	log "github.com/sirupsen/logrus"
)

const poolSize = 10
const maxRetries = 5

// ConnectionProvider lazily opens one pooled connection to the job history database.
type ConnectionProvider interface {
	GetConnection() *pg.DB
}

type connectionProviderImpl struct {
	options *pg.Options
	once    sync.Once
	db      *pg.DB
}

func NewConnectionProvider(creds *view.DbCredentials) ConnectionProvider {
	return &connectionProviderImpl{options: makeOptions(*creds)}
}

func makeOptions(creds view.DbCredentials) *pg.Options {
	options := &pg.Options{
		Addr:            fmt.Sprintf("%s:%d", creds.Host, creds.Port),
		User:            creds.Username,
		Password:        creds.Password,
		Database:        creds.Database,
		ApplicationName: "pipelines-cleanup",
		PoolSize:        poolSize,
		MaxRetries:      maxRetries,
	}
	if creds.SSLMode == "require" {
		options.TLSConfig = &tls.Config{InsecureSkipVerify: true}
	}
	return options
}

func (c *connectionProviderImpl) GetConnection() *pg.DB {
	c.once.Do(func() {
		log.Infof("Connecting to job history database %s at %s", c.options.Database, c.options.Addr)
		c.db = pg.Connect(c.options)
	})
	return c.db
}

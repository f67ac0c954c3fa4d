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

package cache

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/buraksezer/olric"
	"github.com/gosimple/slug"
	log "github.com/sirupsen/logrus"
)

const jobLocksDMap = "CleanupJobLocks"

type Unlocker func()

// JobLocker guarantees a single writer of a job progress across service replicas.
type JobLocker interface {
	TryLock(key string, ttl time.Duration) (Unlocker, bool, error)
}

func NewJobLocker(op OlricProvider) JobLocker {
	return &olricJobLockerImpl{op: op}
}

type olricJobLockerImpl struct {
	op    OlricProvider
	mutex sync.Mutex
	locks *olric.DMap
}

func (o *olricJobLockerImpl) getLocks() (*olric.DMap, error) {
	o.mutex.Lock()
	defer o.mutex.Unlock()
	if o.locks == nil {
		dm, err := o.op.Get().NewDMap(jobLocksDMap)
		if err != nil {
			return nil, fmt.Errorf("failed to create olric dmap %s: %w", jobLocksDMap, err)
		}
		o.locks = dm
	}
	return o.locks, nil
}

func (o *olricJobLockerImpl) TryLock(key string, ttl time.Duration) (Unlocker, bool, error) {
	locks, err := o.getLocks()
	if err != nil {
		return nil, false, err
	}
	lockKey := slug.Make(key)
	lockCtx, err := locks.LockWithTimeout(lockKey, ttl, time.Second)
	if err != nil {
		if errors.Is(err, olric.ErrLockNotAcquired) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("failed to acquire lock %s: %w", lockKey, err)
	}
	return func() {
		if err := lockCtx.Unlock(); err != nil {
			log.Warnf("Failed to release lock %s: %v", lockKey, err)
		}
	}, true, nil
}

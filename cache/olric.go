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
	"context"
	"fmt"
	"net"
	"sync"
	"time"

	"github.com/Netcracker/qubership-pipelines-cleanup/view"
	"github.com/buraksezer/olric"
	discovery "github.com/buraksezer/olric-cloud-plugin/lib"
	"github.com/buraksezer/olric/config"
	log "github.com/sirupsen/logrus"
)

const serviceName = "qubership-pipelines-cleanup"

const discoveryModeLan = "lan"
const discoveryModeLocal = "local"

// OlricProvider holds the embedded olric node that replicas use to agree on cleanup job locks.
type OlricProvider interface {
	Get() *olric.Olric
	Shutdown(ctx context.Context) error
}

type olricProviderImpl struct {
	started sync.WaitGroup
	node    *olric.Olric
}

func NewOlricProvider(settings view.OlricSettings) (OlricProvider, error) {
	cfg, err := makeOlricConfig(settings)
	if err != nil {
		return nil, err
	}
	prov := &olricProviderImpl{}
	prov.started.Add(1)
	cfg.Started = prov.started.Done

	prov.node, err = olric.New(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create olric node: %w", err)
	}
	go func() {
		if startErr := prov.node.Start(); startErr != nil {
			log.Panicf("Olric node for cleanup job locks cannot be started: %v", startErr)
		}
	}()
	return prov, nil
}

// Get blocks until the node has joined the cluster.
func (op *olricProviderImpl) Get() *olric.Olric {
	op.started.Wait()
	return op.node
}

func (op *olricProviderImpl) Shutdown(ctx context.Context) error {
	return op.Get().Shutdown(ctx)
}

func makeOlricConfig(settings view.OlricSettings) (*config.Config, error) {
	mode := settings.DiscoveryMode
	if mode != discoveryModeLan && mode != discoveryModeLocal {
		log.Warnf("Unknown olric discovery mode '%s', falling back to '%s'", mode, discoveryModeLocal)
		mode = discoveryModeLocal
	}
	cfg := config.New(mode)
	cfg.LogLevel = "WARN"
	cfg.LogVerbosity = 2

	if mode == discoveryModeLocal {
		log.Info("Olric runs in local mode, cleanup job locks are not shared with other replicas")
		return withLocalPorts(cfg)
	}

	if settings.Namespace == "" {
		return nil, fmt.Errorf("NAMESPACE env is required for olric discovery mode '%s'", discoveryModeLan)
	}
	replicaCount := settings.ReplicaCount
	if replicaCount < 1 {
		replicaCount = 1
	}
	log.Infof("Olric runs in cloud mode with %d replicas in namespace %s", replicaCount, settings.Namespace)
	cfg.ServiceDiscovery = map[string]interface{}{
		"plugin":   &discovery.CloudDiscovery{},
		"provider": "k8s",
		"args":     fmt.Sprintf("namespace=%s label_selector=\"name=%s\"", settings.Namespace, serviceName),
	}
	cfg.PartitionCount = uint64(replicaCount * 4)
	cfg.ReplicaCount = replicaCount
	cfg.MemberCountQuorum = int32(replicaCount)
	cfg.BootstrapTimeout = 60 * time.Second
	cfg.MaxJoinAttempts = 60
	return cfg, nil
}

func withLocalPorts(cfg *config.Config) (*config.Config, error) {
	bindPort, err := freeLocalPort()
	if err != nil {
		return nil, err
	}
	memberlistPort, err := freeLocalPort()
	if err != nil {
		return nil, err
	}
	cfg.BindAddr = "localhost"
	cfg.BindPort = bindPort
	cfg.MemberlistConfig.BindPort = memberlistPort
	cfg.PartitionCount = 5
	return cfg, nil
}

func freeLocalPort() (int, error) {
	ln, err := net.Listen("tcp", "localhost:0")
	if err != nil {
		return 0, fmt.Errorf("failed to find a free port for olric: %w", err)
	}
	defer ln.Close()
	return ln.Addr().(*net.TCPAddr).Port, nil
}

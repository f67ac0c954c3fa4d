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

package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	log "github.com/sirupsen/logrus"
)

const namespace = "pipelines_cleanup"

var httpLabels = []string{"path", "code", "method"}

var TotalRequests = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "http_requests_total",
		Help:      "Number of http requests.",
	},
	httpLabels,
)

var HttpDuration = prometheus.NewHistogramVec(
	prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "http_request_duration_seconds",
		Help:      "Duration of http requests.",
		Buckets:   []float64{0.1, 0.2, 0.25, 0.5, 1, 1.5, 3, 5, 10},
	},
	httpLabels,
)

var DeletedPairs = prometheus.NewCounter(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "deleted_pairs_total",
		Help:      "Pipeline/stack pairs deleted or found already absent.",
	},
)

var FailedPairs = prometheus.NewCounter(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "failed_pairs_total",
		Help:      "Pipeline/stack pairs whose deletion failed and was skipped.",
	},
)

var BacklogSize = prometheus.NewGaugeVec(
	prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "backlog_size",
		Help:      "Pairs left in the backlog of a pending cleanup job.",
	},
	[]string{"job_id"},
)

var Selections = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "selections_total",
		Help:      "Number of retention selections.",
	},
	[]string{"trigger", "result"},
)

var SelectedPairs = prometheus.NewGaugeVec(
	prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "last_selection_size",
		Help:      "Number of pairs selected by the last retention selection.",
	},
	[]string{"trigger"},
)

var FinishedJobs = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "finished_jobs_total",
		Help:      "Number of cleanup jobs by final status.",
	},
	[]string{"status"},
)

var TickDuration = prometheus.NewHistogram(
	prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "tick_duration_seconds",
		Help:      "Duration of one deletion batch of a cleanup job.",
		Buckets:   []float64{1, 5, 15, 30, 60, 120, 300, 600},
	},
)

func RegisterAllPrometheusApplicationMetrics() {
	collectors := []prometheus.Collector{
		TotalRequests,
		HttpDuration,
		DeletedPairs,
		FailedPairs,
		BacklogSize,
		Selections,
		SelectedPairs,
		FinishedJobs,
		TickDuration,
	}
	for _, c := range collectors {
		if err := prometheus.Register(c); err != nil {
			log.Warnf("Failed to register prometheus collector: %v", err)
		}
	}
}

// Copyright 2025 FireLater Team
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//      http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package metrics

import (
	"net/http"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// OnCallResolutionsTotal counts who-is-on-call resolutions.
	OnCallResolutionsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "oncall_resolutions_total",
			Help: "Total number of who-is-on-call resolutions",
		},
	)

	// EscalationStepsFiredTotal counts escalation steps fired, by notify type.
	EscalationStepsFiredTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "escalation_steps_fired_total",
			Help: "Total number of escalation steps fired",
		},
		[]string{"notify_type"},
	)

	// EscalationRunsTotal counts finished escalation runs, by final state.
	EscalationRunsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "escalation_runs_total",
			Help: "Total number of finished escalation runs",
		},
		[]string{"state"},
	)

	// NotificationsDispatchedTotal counts dispatch requests, by channel and result.
	NotificationsDispatchedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "notifications_dispatched_total",
			Help: "Total number of notification dispatch requests",
		},
		[]string{"channel", "result"},
	)

	// CalendarExportsTotal counts calendar feed generations.
	CalendarExportsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "calendar_exports_total",
			Help: "Total number of calendar feed generations",
		},
	)
)

var (
	registry *prometheus.Registry
	once     sync.Once
)

// Registry returns the engine's metric registry, registering all collectors once.
func Registry() *prometheus.Registry {
	once.Do(func() {
		registry = prometheus.NewRegistry()
		registry.MustRegister(
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
			OnCallResolutionsTotal,
			EscalationStepsFiredTotal,
			EscalationRunsTotal,
			NotificationsDispatchedTotal,
			CalendarExportsTotal,
		)
	})
	return registry
}

// Handler returns the /metrics http handler.
func Handler() http.Handler {
	return promhttp.HandlerFor(Registry(), promhttp.HandlerOpts{})
}

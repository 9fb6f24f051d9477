// Copyright 2020 The Swarm Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package economy

import (
	m "github.com/nexusremote/nexus/pkg/metrics"
	"github.com/prometheus/client_golang/prometheus"
)

type metrics struct {
	// all metrics fields must be exported
	// to be able to return them by Metrics()
	// using reflection
	CreatedNodesCount    prometheus.Counter
	MiningCount          prometheus.Counter
	MinedAmount          prometheus.Counter
	RelaySettledCount    prometheus.Counter
	RelayFailedCount     prometheus.Counter
	RelayedVolume        prometheus.Counter
	CreditExtensionCount prometheus.Counter
	MicroTaskCount       prometheus.Counter
}

func newMetrics() metrics {
	subsystem := "economy"

	return metrics{
		CreatedNodesCount: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: m.Namespace,
			Subsystem: subsystem,
			Name:      "created_nodes_count",
			Help:      "Number of nodes created.",
		}),
		MiningCount: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: m.Namespace,
			Subsystem: subsystem,
			Name:      "mining_count",
			Help:      "Number of mining events.",
		}),
		MinedAmount: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: m.Namespace,
			Subsystem: subsystem,
			Name:      "mined_amount",
			Help:      "Amount of credit minted by mining.",
		}),
		RelaySettledCount: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: m.Namespace,
			Subsystem: subsystem,
			Name:      "relay_settled_count",
			Help:      "Number of settled relays.",
		}),
		RelayFailedCount: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: m.Namespace,
			Subsystem: subsystem,
			Name:      "relay_failed_count",
			Help:      "Number of relays rejected for insufficient client funds.",
		}),
		RelayedVolume: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: m.Namespace,
			Subsystem: subsystem,
			Name:      "relayed_volume",
			Help:      "Volume units relayed in settled relays.",
		}),
		CreditExtensionCount: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: m.Namespace,
			Subsystem: subsystem,
			Name:      "credit_extension_count",
			Help:      "Number of credit extensions granted.",
		}),
		MicroTaskCount: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: m.Namespace,
			Subsystem: subsystem,
			Name:      "micro_task_count",
			Help:      "Number of recoveries through micro-tasks.",
		}),
	}
}

// Metrics returns the prometheus Collectors for the economy engine.
func (e *Engine) Metrics() []prometheus.Collector {
	return m.PrometheusCollectorsFromFields(e.metrics)
}

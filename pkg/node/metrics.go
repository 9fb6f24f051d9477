// Copyright 2020 The Swarm Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package node

import (
	"github.com/nexusremote/nexus/pkg/metrics"
	"github.com/prometheus/client_golang/prometheus"
)

type nodeMetrics struct {
	// StartupDuration measures time in seconds for the node to start serving
	StartupDuration prometheus.Histogram
}

func newMetrics() nodeMetrics {
	subsystem := "init"

	return nodeMetrics{
		StartupDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: metrics.Namespace,
				Subsystem: subsystem,
				Name:      "startup_duration_seconds",
				Help:      "Duration in seconds for node startup to complete",
			},
		),
	}
}

func Metrics(nodeMetrics nodeMetrics) []prometheus.Collector {
	return metrics.PrometheusCollectorsFromFields(nodeMetrics)
}

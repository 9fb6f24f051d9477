// Copyright 2020 The Swarm Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package observer

import (
	m "github.com/nexusremote/nexus/pkg/metrics"
	"github.com/prometheus/client_golang/prometheus"
)

type metrics struct {
	// all metrics fields must be exported
	// to be able to return them by Metrics()
	// using reflection
	PublishCount         prometheus.Counter
	DroppedMessagesCount prometheus.Counter
	StoreErrorCount      prometheus.Counter
	Subscribers          prometheus.Gauge
}

func newMetrics() metrics {
	subsystem := "observer"

	return metrics{
		PublishCount: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: m.Namespace,
			Subsystem: subsystem,
			Name:      "publish_count",
			Help:      "Number of published snapshots.",
		}),
		DroppedMessagesCount: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: m.Namespace,
			Subsystem: subsystem,
			Name:      "dropped_messages_count",
			Help:      "Number of stale messages replaced before a subscriber read them.",
		}),
		StoreErrorCount: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: m.Namespace,
			Subsystem: subsystem,
			Name:      "store_error_count",
			Help:      "Number of failed snapshot writes to the state store.",
		}),
		Subscribers: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: m.Namespace,
			Subsystem: subsystem,
			Name:      "subscribers",
			Help:      "Number of active subscriptions.",
		}),
	}
}

// Metrics returns the prometheus Collectors for the observer.
func (s *Service) Metrics() []prometheus.Collector {
	return m.PrometheusCollectorsFromFields(s.metrics)
}

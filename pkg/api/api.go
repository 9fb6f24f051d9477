// Copyright 2020 The Swarm Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package api exposes the economy over HTTP and streams observer updates
// to websocket clients.
package api

import (
	"errors"
	"io"
	"net/http"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/nexusremote/nexus/pkg/economy"
	"github.com/nexusremote/nexus/pkg/logging"
	"github.com/nexusremote/nexus/pkg/observer"
	"github.com/prometheus/client_golang/prometheus"
	"golang.org/x/time/rate"
	"resenje.org/singleflight"
)

const (
	// OriginHeader is the request header checked against allowed origins.
	OriginHeader = "Origin"

	// DefaultWsRequestRate is the number of websocket requests per second a
	// single connection may send.
	DefaultWsRequestRate rate.Limit = 10
	// DefaultWsRequestBurst is the websocket request burst size.
	DefaultWsRequestBurst = 5
)

// Service is the HTTP API of the economy.
type Service interface {
	http.Handler
	io.Closer
	Metrics() []prometheus.Collector
}

// Subscriber is the source of streamed updates.
type Subscriber interface {
	Subscribe() (*observer.Subscription, error)
}

// Options for the API Service.
type Options struct {
	Economy  economy.Interface
	Observer Subscriber
	Logger   logging.Logger
	// MetricsRegistry, when set, is exposed on /metrics.
	MetricsRegistry    *prometheus.Registry
	CORSAllowedOrigins []string
	// PublishInterval is announced to websocket clients on connect.
	PublishInterval time.Duration
	WsRequestRate   rate.Limit
	WsRequestBurst  int
}

type server struct {
	Options
	http.Handler
	metrics metrics

	snapshotSF singleflight.Group

	wsWg      sync.WaitGroup // wait for all websockets to close on exit
	quit      chan struct{}
	closeOnce sync.Once
}

// New creates the API Service.
func New(o Options) Service {
	if o.Logger == nil {
		o.Logger = logging.Noop()
	}
	if o.WsRequestRate <= 0 {
		o.WsRequestRate = DefaultWsRequestRate
	}
	if o.WsRequestBurst <= 0 {
		o.WsRequestBurst = DefaultWsRequestBurst
	}
	if o.PublishInterval <= 0 {
		o.PublishInterval = observer.DefaultInterval
	}

	s := &server{
		Options: o,
		metrics: newMetrics(),
		quit:    make(chan struct{}),
	}

	s.setupRouting()

	return s
}

// Close hangs up running websockets on shutdown.
func (s *server) Close() (err error) {
	s.closeOnce.Do(func() {
		s.Logger.Info("api shutting down")
		close(s.quit)

		done := make(chan struct{})
		go func() {
			defer close(done)
			s.wsWg.Wait()
		}()

		select {
		case <-done:
		case <-time.After(1 * time.Second):
			err = errors.New("api shutting down with open websockets")
		}
	})
	return err
}

func (s *server) checkOrigin(r *http.Request) bool {
	origin := r.Header[OriginHeader]
	if len(origin) == 0 {
		return true
	}
	scheme := "http"
	if r.TLS != nil {
		scheme = "https"
	}
	hosts := append([]string{scheme + "://" + r.Host}, s.CORSAllowedOrigins...)
	for _, v := range hosts {
		if equalASCIIFold(origin[0], v) || v == "*" {
			return true
		}
	}

	return false
}

// equalASCIIFold returns true if s is equal to t with ASCII case folding as
// defined in RFC 4790.
func equalASCIIFold(s, t string) bool {
	for s != "" && t != "" {
		sr, size := utf8.DecodeRuneInString(s)
		s = s[size:]
		tr, size := utf8.DecodeRuneInString(t)
		t = t[size:]
		if sr == tr {
			continue
		}
		if 'A' <= sr && sr <= 'Z' {
			sr = sr + 'a' - 'A'
		}
		if 'A' <= tr && tr <= 'Z' {
			tr = tr + 'a' - 'A'
		}
		if sr != tr {
			return false
		}
	}
	return s == t
}

// Copyright 2020 The Swarm Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package node assembles the economy engine, the observer, the reporting
// store and the HTTP API into a running nexus node.
package node

import (
	"context"
	"errors"
	"fmt"
	"io"
	stdlog "log"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/hashicorp/go-multierror"
	"github.com/nexusremote/nexus/pkg/api"
	"github.com/nexusremote/nexus/pkg/economy"
	"github.com/nexusremote/nexus/pkg/logging"
	"github.com/nexusremote/nexus/pkg/metrics"
	"github.com/nexusremote/nexus/pkg/observer"
	"github.com/nexusremote/nexus/pkg/storage"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

// ErrShutdownInProgress is returned by Shutdown when it has already been
// called.
var ErrShutdownInProgress = errors.New("shutdown in progress")

type Nexus struct {
	economy          *economy.Engine
	apiServer        *http.Server
	apiCloser        io.Closer
	apiAddr          net.Addr
	observerCloser   io.Closer
	stateStoreCloser io.Closer
	errorLogWriter   *io.PipeWriter

	shutdownInProgress bool
	shutdownMutex      sync.Mutex
}

type Options struct {
	DataDir            string
	APIAddr            string
	PublishInterval    time.Duration
	SnapshotEnabled    bool
	RecordRecoveries   bool
	CORSAllowedOrigins []string
	Logger             logging.Logger
	// Seed, when set, populates the engine before the API starts serving.
	Seed func(economy.Interface) error
}

func NewNexus(o Options) (_ *Nexus, err error) {
	start := time.Now()

	logger := o.Logger
	if logger == nil {
		logger = logging.Noop()
	}

	n := &Nexus{
		errorLogWriter: logger.WriterLevel(logrus.ErrorLevel),
	}

	defer func() {
		if err != nil {
			if e := n.Shutdown(context.Background()); e != nil {
				logger.Errorf("shutdown after failed start: %v", e)
			}
		}
	}()

	n.economy = economy.New(economy.Options{
		Logger:           logger,
		RecordRecoveries: o.RecordRecoveries,
	})

	if o.Seed != nil {
		if err := o.Seed(n.economy); err != nil {
			return nil, fmt.Errorf("seed economy: %w", err)
		}
	}

	var stateStore storage.StateStorer
	if o.SnapshotEnabled {
		stateStore, err = InitStateStore(logger, o.DataDir)
		if err != nil {
			return nil, fmt.Errorf("statestore: %w", err)
		}
		n.stateStoreCloser = stateStore
	}

	observerService := observer.New(n.economy, observer.Options{
		Logger:   logger,
		Interval: o.PublishInterval,
		Store:    stateStore,
	})
	n.observerCloser = observerService

	// publish the initial state so that the store and late subscribers
	// do not wait for the first tick
	observerService.Publish()

	nodeMetrics := newMetrics()

	registry := metrics.NewRegistry()
	apiService := api.New(api.Options{
		Economy:            n.economy,
		Observer:           observerService,
		Logger:             logger,
		MetricsRegistry:    registry,
		CORSAllowedOrigins: o.CORSAllowedOrigins,
		PublishInterval:    o.PublishInterval,
	})
	n.apiCloser = apiService

	var collectors []prometheus.Collector
	collectors = append(collectors, logger.Metrics()...)
	collectors = append(collectors, n.economy.Metrics()...)
	collectors = append(collectors, observerService.Metrics()...)
	collectors = append(collectors, apiService.Metrics()...)
	collectors = append(collectors, Metrics(nodeMetrics)...)
	for _, c := range collectors {
		if err := registry.Register(c); err != nil {
			return nil, fmt.Errorf("register metrics: %w", err)
		}
	}

	apiListener, err := net.Listen("tcp", o.APIAddr)
	if err != nil {
		return nil, fmt.Errorf("api listener: %w", err)
	}
	n.apiAddr = apiListener.Addr()

	apiServer := &http.Server{
		IdleTimeout:       30 * time.Second,
		ReadHeaderTimeout: 3 * time.Second,
		Handler:           apiService,
		ErrorLog:          stdlog.New(n.errorLogWriter, "", 0),
	}
	n.apiServer = apiServer

	go func() {
		logger.Infof("api address: %s", apiListener.Addr())

		if err := apiServer.Serve(apiListener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Debugf("api server: %v", err)
			logger.Error("unable to serve api")
		}
	}()

	nodeMetrics.StartupDuration.Observe(time.Since(start).Seconds())

	return n, nil
}

// Economy returns the engine served by the node.
func (n *Nexus) Economy() economy.Interface {
	return n.economy
}

// APIAddr returns the address the API listens on.
func (n *Nexus) APIAddr() net.Addr {
	return n.apiAddr
}

func (n *Nexus) Shutdown(ctx context.Context) error {
	var mErr error

	// if a shutdown is already in process, return here
	n.shutdownMutex.Lock()
	if n.shutdownInProgress {
		n.shutdownMutex.Unlock()
		return ErrShutdownInProgress
	}
	n.shutdownInProgress = true
	n.shutdownMutex.Unlock()

	// tryClose is a convenient closure which decrease
	// repetitive io.Closer tryClose procedure.
	tryClose := func(c io.Closer, errMsg string) {
		if c == nil {
			return
		}
		if err := c.Close(); err != nil {
			mErr = multierror.Append(mErr, fmt.Errorf("%s: %w", errMsg, err))
		}
	}

	// hang up websockets first, they are hijacked and not tracked by
	// the http server
	tryClose(n.apiCloser, "api")

	var eg errgroup.Group
	if n.apiServer != nil {
		eg.Go(func() error {
			if err := n.apiServer.Shutdown(ctx); err != nil {
				return fmt.Errorf("api server: %w", err)
			}
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		mErr = multierror.Append(mErr, err)
	}

	tryClose(n.observerCloser, "observer")
	tryClose(n.stateStoreCloser, "statestore")
	tryClose(n.errorLogWriter, "error log writer")

	return mErr
}

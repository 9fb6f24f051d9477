// Copyright 2020 The Swarm Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package smoke verifies a running nexus API end to end: it checks the
// HTTP endpoints and the websocket channel and cross-checks the figures
// both report.
package smoke

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/gorilla/websocket"
	"github.com/hashicorp/go-multierror"
	"github.com/nexusremote/nexus/pkg/logging"
)

const (
	// DefaultTimeout bounds the wait for a websocket response.
	DefaultTimeout = 5 * time.Second
	// DefaultTolerance is the accepted difference between the transaction
	// counts reported over HTTP and over the websocket.
	DefaultTolerance = 1
)

// Step names, in execution order.
const (
	StepHealth  = "health"
	StepStats   = "stats"
	StepConnect = "ws-connect"
	StepRequest = "ws-request"
	StepCompare = "compare"
)

// ErrSkipped marks a step that could not run because an earlier step failed.
var ErrSkipped = errors.New("skipped")

// Options for Run.
type Options struct {
	// APIURL is the base HTTP URL of the API, for example http://localhost:8080.
	APIURL     string
	Timeout    time.Duration
	Tolerance  int
	HTTPClient *http.Client
	Logger     logging.Logger
}

// Step is the outcome of a single check.
type Step struct {
	Name     string
	Duration time.Duration
	Err      error
}

// OK reports whether the step passed.
func (s Step) OK() bool {
	return s.Err == nil
}

// Report lists the executed steps in order.
type Report struct {
	Steps            []Step
	HTTPTransactions int
	WsTransactions   int
	HealthStatus     string
	HealthVersion    string
}

// Passed reports whether every step passed.
func (r Report) Passed() bool {
	for _, s := range r.Steps {
		if !s.OK() {
			return false
		}
	}
	return true
}

// Run executes the smoke test sequence. Every failed step is recorded in
// the report and the returned error aggregates all failures.
func Run(ctx context.Context, o Options) (Report, error) {
	if o.Timeout <= 0 {
		o.Timeout = DefaultTimeout
	}
	if o.Tolerance < 0 {
		o.Tolerance = 0
	}
	if o.HTTPClient == nil {
		o.HTTPClient = &http.Client{Timeout: o.Timeout}
	}
	if o.Logger == nil {
		o.Logger = logging.Noop()
	}

	base, err := url.Parse(strings.TrimSuffix(o.APIURL, "/"))
	if err != nil {
		return Report{}, fmt.Errorf("parse api url: %w", err)
	}
	if base.Scheme != "http" && base.Scheme != "https" {
		return Report{}, fmt.Errorf("unsupported api url scheme %q", base.Scheme)
	}

	c := &client{
		base:   base,
		http:   o.HTTPClient,
		logger: o.Logger,
	}

	var (
		report Report
		mErr   *multierror.Error
	)
	step := func(name string, f func() error) error {
		start := time.Now()
		err := f()
		report.Steps = append(report.Steps, Step{Name: name, Duration: time.Since(start), Err: err})
		if err != nil {
			o.Logger.Debugf("smoke: %s failed: %v", name, err)
			mErr = multierror.Append(mErr, fmt.Errorf("%s: %w", name, err))
		} else {
			o.Logger.Debugf("smoke: %s passed", name)
		}
		return err
	}
	skip := func(name string) {
		report.Steps = append(report.Steps, Step{Name: name, Err: ErrSkipped})
	}

	_ = step(StepHealth, func() error {
		h, err := c.health(ctx)
		if err != nil {
			return err
		}
		report.HealthStatus = h.Status
		report.HealthVersion = h.Version
		return nil
	})

	statsErr := step(StepStats, func() error {
		s, err := c.stats(ctx)
		if err != nil {
			return err
		}
		report.HTTPTransactions = s.TotalTransactions
		return nil
	})

	var conn *websocket.Conn
	connErr := step(StepConnect, func() (err error) {
		conn, err = c.dial(ctx, o.Timeout)
		return err
	})
	if conn != nil {
		defer conn.Close()
	}

	var wsErr error
	if connErr != nil {
		skip(StepRequest)
		wsErr = connErr
	} else {
		wsErr = step(StepRequest, func() error {
			e, err := requestEconomy(conn, o.Timeout)
			if err != nil {
				return err
			}
			report.WsTransactions = e.TotalTransactions
			return nil
		})
	}

	if statsErr != nil || wsErr != nil {
		skip(StepCompare)
	} else {
		_ = step(StepCompare, func() error {
			diff := report.HTTPTransactions - report.WsTransactions
			if diff < 0 {
				diff = -diff
			}
			if diff > o.Tolerance {
				return fmt.Errorf("transaction count mismatch: http %d, websocket %d, tolerance %d", report.HTTPTransactions, report.WsTransactions, o.Tolerance)
			}
			return nil
		})
	}

	return report, mErr.ErrorOrNil()
}

type healthResponse struct {
	Status  string `json:"status"`
	Version string `json:"version"`
}

type statsResponse struct {
	TotalNodes        int `json:"total_nodes"`
	TotalTransactions int `json:"total_transactions"`
}

type client struct {
	base   *url.URL
	http   *http.Client
	logger logging.Logger
}

func (c *client) health(ctx context.Context) (healthResponse, error) {
	var h healthResponse
	if err := c.getJSON(ctx, "/health", &h); err != nil {
		return h, err
	}
	if h.Status != "ok" {
		return h, fmt.Errorf("unhealthy status %q", h.Status)
	}
	return h, nil
}

func (c *client) stats(ctx context.Context) (statsResponse, error) {
	var s statsResponse
	err := c.getJSON(ctx, "/stats", &s)
	return s, err
}

func (c *client) getJSON(ctx context.Context, path string, v interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.base.String()+path, nil)
	if err != nil {
		return err
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected status %s", resp.Status)
	}
	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

func (c *client) dial(ctx context.Context, timeout time.Duration) (*websocket.Conn, error) {
	u := *c.base
	switch u.Scheme {
	case "https":
		u.Scheme = "wss"
	default:
		u.Scheme = "ws"
	}
	u.Path += "/ws"

	dialer := websocket.Dialer{
		HandshakeTimeout: timeout,
	}
	conn, resp, err := dialer.DialContext(ctx, u.String(), nil)
	if err != nil {
		if resp != nil {
			return nil, fmt.Errorf("dial %s: %w: status %s", u.String(), err, resp.Status)
		}
		return nil, fmt.Errorf("dial %s: %w", u.String(), err)
	}
	return conn, nil
}

// Copyright 2020 The Swarm Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package smoke_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/nexusremote/nexus/pkg/api"
	"github.com/nexusremote/nexus/pkg/economy"
	"github.com/nexusremote/nexus/pkg/jsonhttp"
	"github.com/nexusremote/nexus/pkg/logging"
	"github.com/nexusremote/nexus/pkg/observer"
	"github.com/nexusremote/nexus/pkg/smoke"
)

func newAPIServer(t *testing.T) *httptest.Server {
	t.Helper()

	e := economy.New(economy.Options{Logger: logging.Noop()})
	for _, n := range []string{"Alice", "Bob"} {
		if _, err := e.CreateNode(n, n == "Alice"); err != nil {
			t.Fatal(err)
		}
		if _, err := e.Mine(n, 10); err != nil {
			t.Fatal(err)
		}
	}
	if _, err := e.Relay("Alice", "Bob", 5); err != nil {
		t.Fatal(err)
	}

	obs := observer.New(e, observer.Options{Interval: 10 * time.Millisecond})
	s := api.New(api.Options{
		Economy:  e,
		Observer: obs,
	})
	ts := httptest.NewServer(s)
	t.Cleanup(func() {
		_ = obs.Close()
		_ = s.Close()
		ts.Close()
	})
	return ts
}

func stepNames(r smoke.Report) []string {
	names := make([]string, 0, len(r.Steps))
	for _, s := range r.Steps {
		names = append(names, s.Name)
	}
	return names
}

func TestRun(t *testing.T) {
	ts := newAPIServer(t)

	report, err := smoke.Run(context.Background(), smoke.Options{
		APIURL: ts.URL,
	})
	if err != nil {
		t.Fatal(err)
	}
	if !report.Passed() {
		t.Fatalf("report not passed: %+v", report)
	}

	want := []string{smoke.StepHealth, smoke.StepStats, smoke.StepConnect, smoke.StepRequest, smoke.StepCompare}
	got := stepNames(report)
	if len(got) != len(want) {
		t.Fatalf("got steps %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("got steps %v, want %v", got, want)
		}
	}
	if report.HTTPTransactions != 4 || report.WsTransactions != 4 {
		t.Errorf("got transactions %d over http and %d over websocket, want 4", report.HTTPTransactions, report.WsTransactions)
	}
	if report.HealthStatus != "ok" {
		t.Errorf("got health status %q, want ok", report.HealthStatus)
	}
}

// fakeServer serves fixed responses so that failure paths can be exercised.
type fakeServer struct {
	healthCode        int
	totalTransactions int
	wsTransactions    int
	wsSilent          bool
}

func (f fakeServer) start(t *testing.T) *httptest.Server {
	t.Helper()

	upgrader := websocket.Upgrader{}
	mux := http.NewServeMux()
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		if f.healthCode != http.StatusOK {
			jsonhttp.Respond(w, f.healthCode, nil)
			return
		}
		jsonhttp.OK(w, map[string]string{"status": "ok", "version": "test"})
	})
	mux.HandleFunc("/stats", func(w http.ResponseWriter, r *http.Request) {
		jsonhttp.OK(w, map[string]int{"total_nodes": 2, "total_transactions": f.totalTransactions})
	})
	mux.HandleFunc("/ws", func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()

		var req map[string]string
		if err := conn.ReadJSON(&req); err != nil {
			return
		}
		if f.wsSilent {
			// keep the connection open without answering
			_, _, _ = conn.ReadMessage()
			return
		}
		_ = conn.WriteJSON(map[string]interface{}{"type": "economy_update", "data": map[string]int{}})
		_ = conn.WriteJSON(map[string]interface{}{
			"type": "data_response",
			"data": map[string]interface{}{
				"kind":    "economy",
				"payload": map[string]int{"total_transactions": f.wsTransactions},
			},
		})
		_, _, _ = conn.ReadMessage()
	})

	ts := httptest.NewServer(mux)
	t.Cleanup(ts.Close)
	return ts
}

func TestRunFailures(t *testing.T) {
	for _, tc := range []struct {
		name      string
		server    fakeServer
		tolerance int
		failed    map[string]error
	}{
		{
			name:      "within tolerance",
			server:    fakeServer{healthCode: http.StatusOK, totalTransactions: 10, wsTransactions: 9},
			tolerance: 1,
			failed:    map[string]error{},
		},
		{
			name:      "unhealthy",
			server:    fakeServer{healthCode: http.StatusServiceUnavailable, totalTransactions: 3, wsTransactions: 3},
			tolerance: 1,
			failed:    map[string]error{smoke.StepHealth: nil},
		},
		{
			name:      "mismatch",
			server:    fakeServer{healthCode: http.StatusOK, totalTransactions: 10, wsTransactions: 3},
			tolerance: 1,
			failed:    map[string]error{smoke.StepCompare: nil},
		},
		{
			name:      "websocket timeout",
			server:    fakeServer{healthCode: http.StatusOK, totalTransactions: 10, wsSilent: true},
			tolerance: 1,
			failed:    map[string]error{smoke.StepRequest: nil, smoke.StepCompare: smoke.ErrSkipped},
		},
	} {
		t.Run(tc.name, func(t *testing.T) {
			ts := tc.server.start(t)

			report, err := smoke.Run(context.Background(), smoke.Options{
				APIURL:    ts.URL,
				Timeout:   200 * time.Millisecond,
				Tolerance: tc.tolerance,
			})
			if len(tc.failed) == 0 {
				if err != nil {
					t.Fatalf("unexpected error %v", err)
				}
			} else if err == nil {
				t.Fatal("expected error")
			}

			for _, s := range report.Steps {
				wantErr, shouldFail := tc.failed[s.Name]
				switch {
				case !shouldFail && s.Err != nil:
					t.Errorf("step %s: unexpected error %v", s.Name, s.Err)
				case shouldFail && s.Err == nil:
					t.Errorf("step %s: expected failure", s.Name)
				case shouldFail && wantErr != nil && !errors.Is(s.Err, wantErr):
					t.Errorf("step %s: got error %v, want %v", s.Name, s.Err, wantErr)
				}
			}
		})
	}
}

func TestRunInvalidURL(t *testing.T) {
	if _, err := smoke.Run(context.Background(), smoke.Options{APIURL: "ftp://localhost"}); err == nil {
		t.Fatal("expected error")
	}
}

func TestRunUnreachable(t *testing.T) {
	ts := httptest.NewServer(http.NotFoundHandler())
	url := ts.URL
	ts.Close()

	report, err := smoke.Run(context.Background(), smoke.Options{
		APIURL:  url,
		Timeout: 200 * time.Millisecond,
	})
	if err == nil {
		t.Fatal("expected error")
	}
	if report.Passed() {
		t.Error("report passed against a closed server")
	}
	if got := len(report.Steps); got != 5 {
		t.Errorf("got %d steps, want 5", got)
	}
}

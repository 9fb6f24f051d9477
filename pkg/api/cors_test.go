// Copyright 2020 The Swarm Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package api_test

import (
	"net/http"
	"testing"

	"github.com/nexusremote/nexus/pkg/api"
)

func TestCORSHeaders(t *testing.T) {
	for _, tc := range []struct {
		name           string
		origin         string
		allowedOrigins []string
		wantCORS       bool
	}{
		{
			name: "none",
		},
		{
			name:           "no origin",
			allowedOrigins: []string{"https://dashboard.nexus.example"},
			wantCORS:       false,
		},
		{
			name:           "single explicit",
			origin:         "https://dashboard.nexus.example",
			allowedOrigins: []string{"https://dashboard.nexus.example"},
			wantCORS:       true,
		},
		{
			name:           "single explicit case insensitive",
			origin:         "https://Dashboard.Nexus.example",
			allowedOrigins: []string{"https://dashboard.nexus.example"},
			wantCORS:       true,
		},
		{
			name:           "single explicit blocked",
			origin:         "http://a-hacker.me",
			allowedOrigins: []string{"https://dashboard.nexus.example"},
			wantCORS:       false,
		},
		{
			name:           "multiple explicit",
			origin:         "https://staging.nexus.example",
			allowedOrigins: []string{"https://dashboard.nexus.example", "https://staging.nexus.example"},
			wantCORS:       true,
		},
		{
			name:           "wildcard",
			origin:         "http://localhost:1234",
			allowedOrigins: []string{"*"},
			wantCORS:       true,
		},
		{
			name:           "with origin only",
			origin:         "https://dashboard.nexus.example",
			allowedOrigins: nil,
			wantCORS:       false,
		},
	} {
		t.Run(tc.name, func(t *testing.T) {
			ts := newTestServer(t, testServerOptions{
				CORSAllowedOrigins: tc.allowedOrigins,
			})

			req, err := http.NewRequest(http.MethodGet, "/health", nil)
			if err != nil {
				t.Fatal(err)
			}
			if tc.origin != "" {
				req.Header.Set(api.OriginHeader, tc.origin)
			}

			r, err := ts.Client.Do(req)
			if err != nil {
				t.Fatal(err)
			}
			defer r.Body.Close()

			got := r.Header.Get("Access-Control-Allow-Origin")

			if tc.wantCORS {
				if got != tc.origin {
					t.Errorf("got Access-Control-Allow-Origin %q, want %q", got, tc.origin)
				}
			} else {
				if got != "" {
					t.Errorf("got Access-Control-Allow-Origin %q, want none", got)
				}
			}
		})
	}
}

// Copyright 2020 The Swarm Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package api

import (
	"net/http"

	"github.com/nexusremote/nexus"
	"github.com/nexusremote/nexus/pkg/jsonhttp"
)

type healthStatusResponse struct {
	Status  string `json:"status"`
	Version string `json:"version"`
}

func (s *server) healthHandler(w http.ResponseWriter, _ *http.Request) {
	jsonhttp.OK(w, healthStatusResponse{
		Status:  "ok",
		Version: nexus.Version,
	})
}

type readyStatusResponse healthStatusResponse

// readinessHandler reports whether the API still accepts work. It turns
// to not ready as soon as the shutdown starts.
func (s *server) readinessHandler(w http.ResponseWriter, _ *http.Request) {
	select {
	case <-s.quit:
		jsonhttp.ServiceUnavailable(w, readyStatusResponse{
			Status:  "notReady",
			Version: nexus.Version,
		})
	default:
		jsonhttp.OK(w, readyStatusResponse{
			Status:  "ready",
			Version: nexus.Version,
		})
	}
}

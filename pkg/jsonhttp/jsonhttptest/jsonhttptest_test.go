// Copyright 2020 The Swarm Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package jsonhttptest_test

import (
	"encoding/json"
	"io/ioutil"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/nexusremote/nexus/pkg/jsonhttp"
	"github.com/nexusremote/nexus/pkg/jsonhttp/jsonhttptest"
)

type relayRequest struct {
	Relay  string `json:"relay"`
	Client string `json:"client"`
	Volume uint64 `json:"volume"`
}

func TestRequest(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("X-Test"); got != "yes" {
			jsonhttp.BadRequest(w, "missing header")
			return
		}
		b, err := ioutil.ReadAll(r.Body)
		if err != nil {
			jsonhttp.InternalServerError(w, err)
			return
		}
		var req relayRequest
		if err := json.Unmarshal(b, &req); err != nil {
			jsonhttp.BadRequest(w, err)
			return
		}
		jsonhttp.OK(w, req)
	}))
	t.Cleanup(ts.Close)

	want := relayRequest{Relay: "Alice", Client: "Bob", Volume: 50}

	t.Run("expected json response", func(t *testing.T) {
		jsonhttptest.Request(t, ts.Client(), http.MethodPost, ts.URL, http.StatusOK,
			jsonhttptest.WithRequestHeader("X-Test", "yes"),
			jsonhttptest.WithJSONRequestBody(want),
			jsonhttptest.WithExpectedJSONResponse(want),
		)
	})

	t.Run("unmarshal response", func(t *testing.T) {
		var got relayRequest
		jsonhttptest.Request(t, ts.Client(), http.MethodPost, ts.URL, http.StatusOK,
			jsonhttptest.WithRequestHeader("X-Test", "yes"),
			jsonhttptest.WithJSONRequestBody(want),
			jsonhttptest.WithUnmarshalResponse(&got),
		)
		if got != want {
			t.Errorf("got %+v, want %+v", got, want)
		}
	})

	t.Run("status response", func(t *testing.T) {
		jsonhttptest.Request(t, ts.Client(), http.MethodPost, ts.URL, http.StatusBadRequest,
			jsonhttptest.WithExpectedJSONResponse(jsonhttp.StatusResponse{
				Message: "missing header",
				Code:    http.StatusBadRequest,
			}),
		)
	})
}

// Copyright 2020 The Swarm Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package jsonhttp_test

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/nexusremote/nexus/pkg/jsonhttp"
)

func TestRespond_defaults(t *testing.T) {
	w := httptest.NewRecorder()

	jsonhttp.Respond(w, 0, nil)

	statusCode := w.Result().StatusCode
	wantCode := http.StatusOK
	if statusCode != wantCode {
		t.Errorf("got status code %d, want %d", statusCode, wantCode)
	}

	var m *jsonhttp.StatusResponse

	if err := json.Unmarshal(w.Body.Bytes(), &m); err != nil {
		t.Errorf("json unmarshal response body: %s", err)
	}

	if m.Code != wantCode {
		t.Errorf("got message code %d, want %d", m.Code, wantCode)
	}

	wantMessage := http.StatusText(wantCode)
	if m.Message != wantMessage {
		t.Errorf("got message message %q, want %q", m.Message, wantMessage)
	}

	testContentType(t, w)
}

func TestRespond_statusResponse(t *testing.T) {
	for _, tc := range []struct {
		name     string
		code     int
		response interface{}
		want     string
	}{
		{name: "string", code: http.StatusBadRequest, response: "bad node name", want: "bad node name"},
		{name: "error", code: http.StatusConflict, response: errors.New("node exists"), want: "node exists"},
		{name: "stringer", code: http.StatusNotFound, response: stringer("unknown node"), want: "unknown node"},
	} {
		t.Run(tc.name, func(t *testing.T) {
			w := httptest.NewRecorder()

			jsonhttp.Respond(w, tc.code, tc.response)

			if got := w.Result().StatusCode; got != tc.code {
				t.Errorf("got status code %d, want %d", got, tc.code)
			}

			var m jsonhttp.StatusResponse
			if err := json.Unmarshal(w.Body.Bytes(), &m); err != nil {
				t.Fatalf("json unmarshal response body: %s", err)
			}
			if m.Code != tc.code {
				t.Errorf("got message code %d, want %d", m.Code, tc.code)
			}
			if m.Message != tc.want {
				t.Errorf("got message %q, want %q", m.Message, tc.want)
			}
		})
	}
}

func TestRespond_custom(t *testing.T) {
	w := httptest.NewRecorder()

	type node struct {
		Name    string `json:"name"`
		Balance int64  `json:"balance"`
	}
	jsonhttp.PaymentRequired(w, node{Name: "bob<>", Balance: 10})

	if got := w.Result().StatusCode; got != http.StatusPaymentRequired {
		t.Errorf("got status code %d, want %d", got, http.StatusPaymentRequired)
	}
	want := "{\"name\":\"bob<>\",\"balance\":10}\n\n"
	if got := w.Body.String(); got != want {
		t.Errorf("got body %q, want %q", got, want)
	}
}

func TestStandardStatusResponses(t *testing.T) {
	for _, tc := range []struct {
		code int
		f    func(w http.ResponseWriter, response interface{})
	}{
		{code: http.StatusOK, f: jsonhttp.OK},
		{code: http.StatusCreated, f: jsonhttp.Created},
		{code: http.StatusBadRequest, f: jsonhttp.BadRequest},
		{code: http.StatusPaymentRequired, f: jsonhttp.PaymentRequired},
		{code: http.StatusForbidden, f: jsonhttp.Forbidden},
		{code: http.StatusNotFound, f: jsonhttp.NotFound},
		{code: http.StatusMethodNotAllowed, f: jsonhttp.MethodNotAllowed},
		{code: http.StatusConflict, f: jsonhttp.Conflict},
		{code: http.StatusRequestEntityTooLarge, f: jsonhttp.RequestEntityTooLarge},
		{code: http.StatusTooManyRequests, f: jsonhttp.TooManyRequests},
		{code: http.StatusInternalServerError, f: jsonhttp.InternalServerError},
		{code: http.StatusServiceUnavailable, f: jsonhttp.ServiceUnavailable},
	} {
		w := httptest.NewRecorder()
		tc.f(w, nil)

		if got := w.Result().StatusCode; got != tc.code {
			t.Errorf("got status code %d, want %d", got, tc.code)
		}
		var m jsonhttp.StatusResponse
		if err := json.Unmarshal(w.Body.Bytes(), &m); err != nil {
			t.Fatalf("json unmarshal response body: %s", err)
		}
		if m.Message != http.StatusText(tc.code) {
			t.Errorf("got message %q, want %q", m.Message, http.StatusText(tc.code))
		}
	}
}

func testContentType(t *testing.T, r *httptest.ResponseRecorder) {
	t.Helper()

	if got := r.Header().Get("Content-Type"); got != jsonhttp.DefaultContentTypeHeader {
		t.Errorf("got content type %q, want %q", got, jsonhttp.DefaultContentTypeHeader)
	}
}

type stringer string

func (s stringer) String() string { return string(s) }

// Copyright 2020 The Swarm Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package api

import (
	"fmt"
	"net/http"

	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"
	"resenje.org/web"

	"github.com/nexusremote/nexus/pkg/jsonhttp"
	"github.com/nexusremote/nexus/pkg/logging/httpaccess"
)

// maxRequestBodySize limits the size of JSON request bodies.
const maxRequestBodySize = 4 * 1024

func (s *server) setupRouting() {
	router := mux.NewRouter()
	router.NotFoundHandler = http.HandlerFunc(jsonhttp.NotFoundHandler)

	router.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprintln(w, "Nexus Relay Economy")
	})

	router.Handle("/health", web.ChainHandlers(
		httpaccess.SetAccessLogLevelHandler(0), // suppress access log messages
		web.FinalHandler(jsonhttp.MethodHandler{
			"GET": http.HandlerFunc(s.healthHandler),
		}),
	))

	router.Handle("/readiness", web.ChainHandlers(
		httpaccess.SetAccessLogLevelHandler(0), // suppress access log messages
		web.FinalHandler(jsonhttp.MethodHandler{
			"GET": http.HandlerFunc(s.readinessHandler),
		}),
	))

	if s.MetricsRegistry != nil {
		router.Path("/metrics").Handler(web.ChainHandlers(
			httpaccess.SetAccessLogLevelHandler(0), // suppress access log messages
			web.FinalHandler(promhttp.InstrumentMetricHandler(
				s.MetricsRegistry,
				promhttp.HandlerFor(s.MetricsRegistry, promhttp.HandlerOpts{}),
			)),
		))
	}

	router.Handle("/nodes", jsonhttp.MethodHandler{
		"GET": http.HandlerFunc(s.nodesHandler),
		"POST": web.ChainHandlers(
			jsonhttp.NewMaxBodyBytesHandler(maxRequestBodySize),
			web.FinalHandlerFunc(s.createNodeHandler),
		),
	})
	router.Handle("/nodes/{name}", jsonhttp.MethodHandler{
		"GET": http.HandlerFunc(s.nodeHandler),
	})
	router.Handle("/nodes/{name}/mine", jsonhttp.MethodHandler{
		"POST": web.ChainHandlers(
			jsonhttp.NewMaxBodyBytesHandler(maxRequestBodySize),
			web.FinalHandlerFunc(s.mineHandler),
		),
	})
	router.Handle("/nodes/{name}/recover", jsonhttp.MethodHandler{
		"POST": http.HandlerFunc(s.recoverHandler),
	})

	router.Handle("/relay", jsonhttp.MethodHandler{
		"POST": web.ChainHandlers(
			jsonhttp.NewMaxBodyBytesHandler(maxRequestBodySize),
			web.FinalHandlerFunc(s.relayHandler),
		),
	})

	router.Handle("/transactions", jsonhttp.MethodHandler{
		"GET": http.HandlerFunc(s.transactionsHandler),
	})

	router.Handle("/stats", jsonhttp.MethodHandler{
		"GET": http.HandlerFunc(s.statsHandler),
	})

	if s.Observer != nil {
		router.Handle("/ws", web.ChainHandlers(
			httpaccess.SetAccessLogLevelHandler(logrus.DebugLevel),
			web.FinalHandlerFunc(s.wsHandler),
		))
	}

	s.Handler = web.ChainHandlers(
		httpaccess.NewHTTPAccessLogHandler(s.Logger, logrus.InfoLevel, "api access"),
		handlers.CompressHandler,
		s.pageviewMetricsHandler,
		s.responseCodeMetricsHandler,
		func(h http.Handler) http.Handler {
			return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				if o := r.Header.Get(OriginHeader); o != "" && s.checkOrigin(r) {
					w.Header().Set("Access-Control-Allow-Credentials", "true")
					w.Header().Set("Access-Control-Allow-Origin", o)
					w.Header().Set("Access-Control-Allow-Headers", "Origin, Accept, Authorization, Content-Type, X-Requested-With, Access-Control-Request-Headers, Access-Control-Request-Method")
					w.Header().Set("Access-Control-Allow-Methods", "GET, HEAD, OPTIONS, POST")
					w.Header().Set("Access-Control-Max-Age", "3600")
				}
				h.ServeHTTP(w, r)
			})
		},
		web.FinalHandler(router),
	)
}

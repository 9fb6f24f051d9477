// Copyright 2020 The Swarm Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package api

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"github.com/nexusremote/nexus/pkg/jsonhttp"
	"github.com/nexusremote/nexus/pkg/observer"
	"golang.org/x/time/rate"
)

// Websocket message types. Published observer messages keep their own
// types.
const (
	WsTypeConnected    = "connected"
	WsTypeGetData      = "get_data"
	WsTypeDataResponse = "data_response"
	WsTypeError        = "error"

	// DataKindEconomy requests the economy aggregates.
	DataKindEconomy = "economy"
	// DataKindNodes requests the node list.
	DataKindNodes = "nodes"
)

var (
	writeDeadline = 4 * time.Second // write deadline. should be smaller than the shutdown timeout on api close

	// Time allowed to read the next pong message from the peer.
	pongWait = 60 * time.Second

	// Send pings to peer with this period. Must be less than pongWait.
	pingPeriod = (pongWait * 9) / 10

	maxWsRequestSize int64 = 1024
)

// WsRequest is a message sent by a websocket client.
type WsRequest struct {
	Type string `json:"type"`
	Data string `json:"data"`
}

// WsResponse is a message sent to a websocket client in answer to a
// request or on connect.
type WsResponse struct {
	Type      string      `json:"type"`
	Data      interface{} `json:"data"`
	Timestamp time.Time   `json:"timestamp"`
}

// DataResponse is the payload of a data_response message.
type DataResponse struct {
	Kind    string      `json:"kind"`
	Payload interface{} `json:"payload"`
}

type connectedResponse struct {
	Message         string  `json:"message"`
	PublishInterval float64 `json:"publish_interval"`
}

type errorResponse struct {
	Message string `json:"message"`
}

func (s *server) wsHandler(w http.ResponseWriter, r *http.Request) {
	upgrader := websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 4096,
		CheckOrigin:     s.checkOrigin,
	}

	sub, err := s.Observer.Subscribe()
	if err != nil {
		s.Logger.Debugf("api: ws: subscribe: %v", err)
		jsonhttp.ServiceUnavailable(w, "updates unavailable")
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		sub.Unsubscribe()
		// the upgrader has already responded
		s.Logger.Debugf("api: ws: upgrade: %v", err)
		return
	}

	s.wsWg.Add(1)
	go s.pumpWs(conn, sub)
}

func (s *server) pumpWs(conn *websocket.Conn, sub *observer.Subscription) {
	defer s.wsWg.Done()

	s.metrics.WsConnections.Inc()

	var (
		requests = make(chan WsRequest)
		gone     = make(chan struct{})
		done     = make(chan struct{})
		limiter  = rate.NewLimiter(s.WsRequestRate, s.WsRequestBurst)
		ticker   = time.NewTicker(pingPeriod)
		err      error
	)
	defer func() {
		close(done)
		ticker.Stop()
		sub.Unsubscribe()
		conn.Close()
		s.metrics.WsConnections.Dec()
	}()

	conn.SetReadLimit(maxWsRequestSize)
	_ = conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	s.wsWg.Add(1)
	go func() {
		defer s.wsWg.Done()
		defer close(gone)
		for {
			var req WsRequest
			if err := conn.ReadJSON(&req); err != nil {
				if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
					s.Logger.Debugf("api: ws: read: %v", err)
				}
				return
			}
			select {
			case requests <- req:
			case <-done:
				return
			case <-s.quit:
				return
			}
		}
	}()

	write := func(v interface{}) error {
		if err := conn.SetWriteDeadline(time.Now().Add(writeDeadline)); err != nil {
			return fmt.Errorf("set write deadline: %w", err)
		}
		return conn.WriteJSON(v)
	}

	err = write(WsResponse{
		Type: WsTypeConnected,
		Data: connectedResponse{
			Message:         "connected to nexus",
			PublishInterval: s.PublishInterval.Seconds(),
		},
		Timestamp: time.Now(),
	})
	if err != nil {
		s.Logger.Debugf("api: ws: write: %v", err)
		return
	}

	for {
		select {
		case m, ok := <-sub.C():
			if !ok {
				// observer closed
				return
			}
			if err = write(m); err != nil {
				s.Logger.Debugf("api: ws: write update: %v", err)
				return
			}

		case req := <-requests:
			s.metrics.WsRequestCount.Inc()
			if !limiter.Allow() {
				s.metrics.WsRateLimitedCount.Inc()
				err = write(WsResponse{
					Type:      WsTypeError,
					Data:      errorResponse{Message: "too many requests"},
					Timestamp: time.Now(),
				})
			} else {
				err = write(s.wsRespond(req))
			}
			if err != nil {
				s.Logger.Debugf("api: ws: write response: %v", err)
				return
			}

		case <-s.quit:
			// shutdown
			err = conn.SetWriteDeadline(time.Now().Add(writeDeadline))
			if err != nil {
				s.Logger.Debugf("api: ws: set write deadline: %v", err)
				return
			}
			err = conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseGoingAway, "shutting down"))
			if err != nil {
				s.Logger.Debugf("api: ws: write close message: %v", err)
			}
			return

		case <-gone:
			// client gone
			return

		case <-ticker.C:
			err = conn.SetWriteDeadline(time.Now().Add(writeDeadline))
			if err != nil {
				s.Logger.Debugf("api: ws: set write deadline: %v", err)
				return
			}
			if err = conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func (s *server) wsRespond(req WsRequest) WsResponse {
	now := time.Now()

	if req.Type != WsTypeGetData {
		return WsResponse{
			Type:      WsTypeError,
			Data:      errorResponse{Message: fmt.Sprintf("unknown request type %q", req.Type)},
			Timestamp: now,
		}
	}

	snapshot, err := s.snapshot(context.Background())
	if err != nil {
		return WsResponse{
			Type:      WsTypeError,
			Data:      errorResponse{Message: "snapshot unavailable"},
			Timestamp: now,
		}
	}

	var payload interface{}
	switch req.Data {
	case DataKindEconomy:
		payload = observer.NewEconomyData(snapshot)
	case DataKindNodes:
		payload = nodesResponse{Nodes: newNodeResponses(snapshot.Nodes)}
	default:
		return WsResponse{
			Type:      WsTypeError,
			Data:      errorResponse{Message: fmt.Sprintf("unknown data kind %q", req.Data)},
			Timestamp: now,
		}
	}

	return WsResponse{
		Type: WsTypeDataResponse,
		Data: DataResponse{
			Kind:    req.Data,
			Payload: payload,
		},
		Timestamp: now,
	}
}

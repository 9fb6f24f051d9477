// Copyright 2020 The Swarm Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package smoke

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/gorilla/websocket"
)

const (
	typeGetData      = "get_data"
	typeDataResponse = "data_response"
	typeError        = "error"
	kindEconomy      = "economy"
)

var errTimeout = errors.New("timeout waiting for response")

type wsRequest struct {
	Type string `json:"type"`
	Data string `json:"data"`
}

type wsMessage struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
}

type dataResponse struct {
	Kind    string          `json:"kind"`
	Payload json.RawMessage `json:"payload"`
}

type economyPayload struct {
	TotalNodes        int `json:"total_nodes"`
	TotalTransactions int `json:"total_transactions"`
}

// requestEconomy sends a typed economy request and waits for the matching
// response. Other messages, such as published updates, are skipped.
func requestEconomy(conn *websocket.Conn, timeout time.Duration) (economyPayload, error) {
	deadline := time.Now().Add(timeout)

	if err := conn.SetWriteDeadline(deadline); err != nil {
		return economyPayload{}, err
	}
	if err := conn.WriteJSON(wsRequest{Type: typeGetData, Data: kindEconomy}); err != nil {
		return economyPayload{}, fmt.Errorf("write request: %w", err)
	}

	if err := conn.SetReadDeadline(deadline); err != nil {
		return economyPayload{}, err
	}
	for {
		var m wsMessage
		if err := conn.ReadJSON(&m); err != nil {
			var ne interface{ Timeout() bool }
			if errors.As(err, &ne) && ne.Timeout() {
				return economyPayload{}, errTimeout
			}
			return economyPayload{}, fmt.Errorf("read response: %w", err)
		}

		switch m.Type {
		case typeDataResponse:
		case typeError:
			return economyPayload{}, fmt.Errorf("server error: %s", m.Data)
		default:
			continue
		}

		var d dataResponse
		if err := json.Unmarshal(m.Data, &d); err != nil {
			return economyPayload{}, fmt.Errorf("decode response: %w", err)
		}
		if d.Kind != kindEconomy {
			continue
		}

		var e economyPayload
		if err := json.Unmarshal(d.Payload, &e); err != nil {
			return economyPayload{}, fmt.Errorf("decode economy payload: %w", err)
		}
		return e, nil
	}
}

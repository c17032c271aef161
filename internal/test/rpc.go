// Package test provides in-process helpers for exercising RPC clients, the
// relay daemon, and snapshot based assertions.
package test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
)

// RPCCall is one recorded JSON-RPC request.
type RPCCall struct {
	Method string
	Params []json.RawMessage
}

// RPCHandler produces the result for one JSON-RPC method call. Returning an
// error produces a JSON-RPC error response with code -32000.
type RPCHandler func(method string, params []json.RawMessage) (interface{}, error)

// RPCServer is an in-process JSON-RPC endpoint backed by httptest. It records
// every call and answers through the configured handler.
type RPCServer struct {
	srv *httptest.Server

	mu      sync.Mutex
	calls   []RPCCall
	handler RPCHandler
}

// StartRPCServer spins up an endpoint that lives until the test ends.
func StartRPCServer(t *testing.T, handler RPCHandler) *RPCServer {
	t.Helper()
	s := &RPCServer{handler: handler}
	s.srv = httptest.NewServer(http.HandlerFunc(s.serve))
	t.Cleanup(s.srv.Close)
	return s
}

// URL returns the endpoint address.
func (s *RPCServer) URL() string {
	return s.srv.URL
}

// Calls returns a copy of all recorded requests.
func (s *RPCServer) Calls() []RPCCall {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]RPCCall{}, s.calls...)
}

// CallsTo returns the recorded requests for one method.
func (s *RPCServer) CallsTo(method string) []RPCCall {
	var out []RPCCall
	for _, c := range s.Calls() {
		if c.Method == method {
			out = append(out, c)
		}
	}
	return out
}

func (s *RPCServer) serve(w http.ResponseWriter, r *http.Request) {
	var msg struct {
		ID     json.RawMessage   `json:"id"`
		Method string            `json:"method"`
		Params []json.RawMessage `json:"params"`
	}
	if err := json.NewDecoder(r.Body).Decode(&msg); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	s.mu.Lock()
	s.calls = append(s.calls, RPCCall{Method: msg.Method, Params: msg.Params})
	handler := s.handler
	s.mu.Unlock()

	resp := map[string]interface{}{
		"jsonrpc": "2.0",
		"id":      msg.ID,
	}
	result, err := handler(msg.Method, msg.Params)
	if err != nil {
		resp["error"] = map[string]interface{}{
			"code":    -32000,
			"message": err.Error(),
		}
	} else {
		resp["result"] = result
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(resp)
}

// StringParam decodes params[i] as a JSON string, typically a 0x hex value.
func StringParam(t *testing.T, params []json.RawMessage, i int) string {
	t.Helper()
	if i >= len(params) {
		t.Fatalf("param %d missing, got %d params", i, len(params))
	}
	var s string
	if err := json.Unmarshal(params[i], &s); err != nil {
		t.Fatalf("param %d is not a string: %v", i, err)
	}
	return s
}

package api

import (
	"bytes"
	"context"
	"math"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/seenimoa/bondrisk/internal/config"
	"github.com/seenimoa/bondrisk/internal/infra"
)

// ════════════════════════════════════════════════════════════════════
// Test Helpers
// ════════════════════════════════════════════════════════════════════

func testServer(t *testing.T) *Server {
	t.Helper()
	return NewServer(config.Default(), infra.Discard(), "test")
}

func decodeResponse(t *testing.T, rec *httptest.ResponseRecorder) APIResponse {
	t.Helper()
	var resp APIResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	return resp
}

func do(t *testing.T, srv *Server, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, req)
	return rec
}

const corporateBond = `{"bonds": [{"id": "C1", "faceValue": 1000, "couponRate": 5, "yieldToMaturity": 6,
	"maturityYears": 2, "type": "Corporate", "rating": "BBB", "sector": "Technology"}]}`

// ════════════════════════════════════════════════════════════════════
// Health
// ════════════════════════════════════════════════════════════════════

func TestHealth(t *testing.T) {
	srv := testServer(t)
	for _, path := range []string{"/health", "/api/v1/health"} {
		rec := do(t, srv, http.MethodGet, path, "")
		if rec.Code != http.StatusOK {
			t.Fatalf("GET %s: got status %d, want 200", path, rec.Code)
		}
		resp := decodeResponse(t, rec)
		if !resp.Success {
			t.Errorf("GET %s: success=false", path)
		}
		data, ok := resp.Data.(map[string]interface{})
		if !ok {
			t.Fatalf("GET %s: data is %T", path, resp.Data)
		}
		if data["version"] != "test" {
			t.Errorf("GET %s: version got %v, want test", path, data["version"])
		}
	}
}

// ════════════════════════════════════════════════════════════════════
// Metrics
// ════════════════════════════════════════════════════════════════════

func TestMetrics(t *testing.T) {
	srv := testServer(t)
	rec := do(t, srv, http.MethodPost, "/api/v1/metrics", corporateBond)
	if rec.Code != http.StatusOK {
		t.Fatalf("status: got %d, want 200 (%s)", rec.Code, rec.Body.String())
	}
	if ct := rec.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("Content-Type: got %q", ct)
	}

	resp := decodeResponse(t, rec)
	if !resp.Success {
		t.Fatalf("success=false: %s", resp.Error)
	}
	data := resp.Data.(map[string]interface{})
	bonds := data["bonds"].([]interface{})
	if len(bonds) != 1 {
		t.Fatalf("bonds: got %d, want 1", len(bonds))
	}
	b := bonds[0].(map[string]interface{})
	if b["id"] != "C1" {
		t.Errorf("id: got %v, want C1", b["id"])
	}
	price := b["marketPrice"].(float64)
	if price < 981.66 || price > 981.67 {
		t.Errorf("marketPrice: got %f, want ~981.666", price)
	}
	if b["cr01"] != b["pv01"] {
		t.Errorf("cr01 %v should equal pv01 %v for a corporate bond", b["cr01"], b["pv01"])
	}
}

func TestMetricsEmptyBody(t *testing.T) {
	srv := testServer(t)
	rec := do(t, srv, http.MethodPost, "/api/v1/metrics", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status: got %d, want 200", rec.Code)
	}
	resp := decodeResponse(t, rec)
	data := resp.Data.(map[string]interface{})
	bonds, ok := data["bonds"].([]interface{})
	if !ok || len(bonds) != 0 {
		t.Errorf("bonds: got %v, want []", data["bonds"])
	}
}

func TestMetricsRejectsBadInput(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		wantMsg string
	}{
		{"malformed", `{"bonds": [`, "malformed payload"},
		{"bonds not array", `{"bonds": 3}`, "must be an array"},
		{"missing field", `{"bonds": [{"faceValue": 100}]}`, "missing field"},
		{"bad maturity", `{"bonds": [{"faceValue": 100, "couponRate": 1, "yieldToMaturity": 1, "maturityYears": -1, "type": "Corporate", "rating": "A", "sector": "Energy"}]}`, "maturity"},
	}
	srv := testServer(t)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := do(t, srv, http.MethodPost, "/api/v1/metrics", tt.body)
			if rec.Code != http.StatusBadRequest {
				t.Fatalf("status: got %d, want 400", rec.Code)
			}
			resp := decodeResponse(t, rec)
			if resp.Success {
				t.Error("success should be false")
			}
			if !strings.Contains(resp.Error, tt.wantMsg) {
				t.Errorf("error: got %q, want it to contain %q", resp.Error, tt.wantMsg)
			}
		})
	}
}

func TestMetricsBodyTooLarge(t *testing.T) {
	cfg := config.Default()
	cfg.API.MaxBodyBytes = 16
	srv := NewServer(cfg, infra.Discard(), "test")

	rec := do(t, srv, http.MethodPost, "/api/v1/metrics", corporateBond)
	if rec.Code != http.StatusRequestEntityTooLarge {
		t.Fatalf("status: got %d, want 413", rec.Code)
	}
}

func TestMetricsHugeMaturityRejected(t *testing.T) {
	srv := testServer(t)
	body := `{"bonds": [{"faceValue": 1000, "couponRate": 4, "yieldToMaturity": 4, "maturityYears": 200000000, "type": "Government", "rating": "AAA", "sector": "Government"}]}`
	rec := do(t, srv, http.MethodPost, "/api/v1/metrics", body)
	if rec.Code != http.StatusRequestEntityTooLarge {
		t.Fatalf("status: got %d, want 413", rec.Code)
	}
	resp := decodeResponse(t, rec)
	if !strings.Contains(resp.Error, "cashflow budget") {
		t.Errorf("error: got %q, want cashflow budget", resp.Error)
	}

	// The server keeps serving.
	if rec := do(t, srv, http.MethodPost, "/api/v1/metrics", corporateBond); rec.Code != http.StatusOK {
		t.Errorf("follow-up status: got %d, want 200", rec.Code)
	}
}

func TestMetricsCashflowBudgetUnlimited(t *testing.T) {
	cfg := config.Default()
	cfg.API.MaxCashflows = 0
	srv := NewServer(cfg, infra.Discard(), "test")

	body := `{"bonds": [{"faceValue": 1000, "couponRate": 4, "yieldToMaturity": 4, "maturityYears": 200000000, "type": "Government", "rating": "AAA", "sector": "Government"}]}`
	rec := do(t, srv, http.MethodPost, "/api/v1/metrics", body)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status: got %d, want 400", rec.Code)
	}
	if resp := decodeResponse(t, rec); !strings.Contains(resp.Error, "maturity") {
		t.Errorf("error: got %q, want a maturity error", resp.Error)
	}
}

func TestMetricsMethodNotAllowed(t *testing.T) {
	srv := testServer(t)
	rec := do(t, srv, http.MethodGet, "/api/v1/metrics", "")
	if rec.Code != http.StatusMethodNotAllowed {
		t.Errorf("status: got %d, want 405", rec.Code)
	}
}

// ════════════════════════════════════════════════════════════════════
// Tables / Config
// ════════════════════════════════════════════════════════════════════

func TestTables(t *testing.T) {
	srv := testServer(t)
	rec := do(t, srv, http.MethodGet, "/api/v1/tables", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status: got %d, want 200", rec.Code)
	}
	data := decodeResponse(t, rec).Data.(map[string]interface{})

	ratings := data["ratings"].([]interface{})
	if len(ratings) != 13 {
		t.Errorf("ratings: got %d, want 13", len(ratings))
	}
	first := ratings[0].(map[string]interface{})
	if first["rating"] != "AAA" {
		t.Errorf("first rating: got %v, want AAA", first["rating"])
	}
	if data["pd_fallback"] != 0.001 {
		t.Errorf("pd_fallback: got %v, want 0.001", data["pd_fallback"])
	}
	if data["lgd_fallback"] != 0.4 {
		t.Errorf("lgd_fallback: got %v, want 0.4", data["lgd_fallback"])
	}
}

func TestGetConfig(t *testing.T) {
	srv := testServer(t)
	rec := do(t, srv, http.MethodGet, "/api/v1/config", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status: got %d, want 200", rec.Code)
	}
	data := decodeResponse(t, rec).Data.(map[string]interface{})
	cfg := data["config"].(map[string]interface{})
	apiCfg := cfg["api"].(map[string]interface{})
	if apiCfg["port"] != float64(8080) {
		t.Errorf("api.port: got %v, want 8080", apiCfg["port"])
	}
}

// ════════════════════════════════════════════════════════════════════
// Middleware
// ════════════════════════════════════════════════════════════════════

func TestRateLimit(t *testing.T) {
	cfg := config.Default()
	cfg.API.RateLimit = 2
	srv := NewServer(cfg, infra.Discard(), "test")

	codes := make([]int, 0, 3)
	for i := 0; i < 3; i++ {
		codes = append(codes, do(t, srv, http.MethodGet, "/health", "").Code)
	}
	if codes[0] != http.StatusOK || codes[1] != http.StatusOK {
		t.Errorf("first two requests: got %v, want 200s", codes[:2])
	}
	if codes[2] != http.StatusTooManyRequests {
		t.Errorf("third request: got %d, want 429", codes[2])
	}
}

func TestCORSPreflight(t *testing.T) {
	srv := testServer(t)
	req := httptest.NewRequest(http.MethodOptions, "/api/v1/metrics", nil)
	req.Header.Set("Origin", "https://desk.example.com")
	req.Header.Set("Access-Control-Request-Method", "POST")
	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, req)

	if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "*" {
		t.Errorf("Access-Control-Allow-Origin: got %q, want *", got)
	}
}

func TestRequestIDHeaderIsAccepted(t *testing.T) {
	srv := testServer(t)
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set("X-Request-ID", "abc-123")
	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Errorf("status: got %d, want 200", rec.Code)
	}
}

func TestWriteJSONLogsThroughServerLogger(t *testing.T) {
	var buf bytes.Buffer
	logger, err := infra.NewLoggerTo(&buf, config.LoggingConfig{Level: "error", Format: "json"})
	if err != nil {
		t.Fatalf("NewLoggerTo: %v", err)
	}
	srv := NewServer(config.Default(), logger, "test")

	rec := httptest.NewRecorder()
	srv.writeJSON(rec, http.StatusOK, APIResponse{Success: true, Data: math.Inf(1)})

	if !strings.Contains(buf.String(), "failed to write JSON response") {
		t.Errorf("server logger got %q, want the encode failure", buf.String())
	}
}

// ════════════════════════════════════════════════════════════════════
// Lifecycle
// ════════════════════════════════════════════════════════════════════

func TestListenAndServeShutsDownOnCancel(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Skipf("cannot reserve a port: %v", err)
	}
	addr := ln.Addr().String()
	ln.Close()

	srv := testServer(t)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- srv.ListenAndServe(ctx, addr) }()

	// Wait for the listener to come up.
	deadline := time.Now().Add(5 * time.Second)
	for {
		resp, err := http.Get("http://" + addr + "/health")
		if err == nil {
			resp.Body.Close()
			break
		}
		if time.Now().After(deadline) {
			cancel()
			t.Fatalf("server did not start: %v", err)
		}
		time.Sleep(20 * time.Millisecond)
	}

	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Errorf("ListenAndServe: got %v, want nil", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("server did not shut down")
	}
}

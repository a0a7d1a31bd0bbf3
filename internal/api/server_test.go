package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"telegram_parser/internal/batch"
	"telegram_parser/internal/ingest"
	"telegram_parser/internal/regions"
	"telegram_parser/internal/telegram"
	"telegram_parser/internal/validate"
)

type mockSink struct {
	saved int
}

func (m *mockSink) SaveFlight(_ context.Context, _ *telegram.Record, _, _ *regions.Region) (bool, error) {
	m.saved++
	return true, nil
}

func (m *mockSink) SaveBatch(_ context.Context, _, _ string, _ *batch.Stats, _ int) error {
	return nil
}

func newTestServer(cfg Config) (*Server, *mockSink) {
	sink := &mockSink{}
	ing := &ingest.Ingestor{
		Processor: batch.New(validate.DefaultLimits()),
		Sink:      sink,
	}
	return NewServer(ing, cfg), sink
}

func postJSON(t *testing.T, router http.Handler, path string, body any, headers map[string]string) *httptest.ResponseRecorder {
	t.Helper()
	b, err := json.Marshal(body)
	if err != nil {
		t.Fatalf("marshal request: %v", err)
	}
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(b))
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func TestHealth(t *testing.T) {
	srv, _ := newTestServer(Config{})
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	var body map[string]string
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if body["status"] != "ok" {
		t.Errorf("status field = %q, want ok", body["status"])
	}
}

func TestUpload(t *testing.T) {
	srv, sink := newTestServer(Config{})
	router := srv.Router()

	rec := postJSON(t, router, "/api/v1/upload/messages", uploadRequest{
		Messages: []string{
			"FPL-DRN1234 1507000000 5542N03736E 1509300000 5545N03740E",
			"FPL-DRN9999",
		},
	}, nil)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200: %s", rec.Code, rec.Body.String())
	}

	var resp uploadResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if resp.BatchID == "" {
		t.Error("BatchID is empty")
	}
	if resp.TotalMessages != 2 {
		t.Errorf("TotalMessages = %d, want 2", resp.TotalMessages)
	}
	if resp.Stats == nil || resp.Stats.AcceptedCount != 1 {
		t.Errorf("Stats = %+v, want AcceptedCount 1", resp.Stats)
	}
	if sink.saved != 1 {
		t.Errorf("sink saved = %d, want 1", sink.saved)
	}
}

func TestUpload_EmptyMessages(t *testing.T) {
	srv, _ := newTestServer(Config{})
	rec := postJSON(t, srv.Router(), "/api/v1/upload/messages", uploadRequest{}, nil)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
}

func TestUpload_BatchTooLarge(t *testing.T) {
	srv, _ := newTestServer(Config{})

	msgs := make([]string, batch.MaxBatchSize+1)
	for i := range msgs {
		msgs[i] = "FPL-DRN1234"
	}
	rec := postJSON(t, srv.Router(), "/api/v1/upload/messages", uploadRequest{Messages: msgs}, nil)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
}

func TestUpload_InvalidJSON(t *testing.T) {
	srv, _ := newTestServer(Config{})
	req := httptest.NewRequest(http.MethodPost, "/api/v1/upload/messages", bytes.NewReader([]byte("{not json")))
	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
}

func TestAuth(t *testing.T) {
	srv, _ := newTestServer(Config{AuthEnabled: true, APIKeys: []string{"secret-key"}})
	router := srv.Router()
	body := uploadRequest{Messages: []string{"FPL-DRN1234 1507000000 5542N03736E"}}

	if rec := postJSON(t, router, "/api/v1/upload/messages", body, nil); rec.Code != http.StatusUnauthorized {
		t.Errorf("no key: status = %d, want 401", rec.Code)
	}
	if rec := postJSON(t, router, "/api/v1/upload/messages", body, map[string]string{"X-API-Key": "wrong"}); rec.Code != http.StatusUnauthorized {
		t.Errorf("wrong key: status = %d, want 401", rec.Code)
	}
	if rec := postJSON(t, router, "/api/v1/upload/messages", body, map[string]string{"X-API-Key": "secret-key"}); rec.Code != http.StatusOK {
		t.Errorf("valid key: status = %d, want 200", rec.Code)
	}

	// Health stays open even with auth enabled.
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Errorf("health with auth: status = %d, want 200", rec.Code)
	}
}

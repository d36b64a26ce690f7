package collect_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/torosent/netsynth/internal/collect"
	"github.com/torosent/netsynth/internal/config"
)

const atlasFixture = `[
  {"prb_id": 1001, "timestamp": 1700000000, "min": 10.1, "avg": 12.5, "max": 20.3, "sent": 3, "rcvd": 3},
  {"prb_id": 1002, "timestamp": 1700000060, "min": 30.0, "avg": 35.0, "max": 41.0, "sent": 3, "rcvd": 2},
  {"prb_id": 1003, "timestamp": 1700000120, "min": -1, "avg": -1, "max": -1, "sent": 3, "rcvd": 0}
]`

func TestFetchResults(t *testing.T) {
	var gotPath, gotAuth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotAuth = r.Header.Get("Authorization")
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(atlasFixture))
	}))
	defer srv.Close()

	client := collect.NewClient(config.CollectConfig{
		BaseURL: srv.URL,
		APIKey:  "test-key",
		Timeout: 5 * time.Second,
	})

	results, err := client.FetchResults(context.Background(), 5001)
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}

	if gotPath != "/measurements/5001/results/" {
		t.Errorf("request path = %q", gotPath)
	}
	if gotAuth != "Key test-key" {
		t.Errorf("Authorization = %q, want Key test-key", gotAuth)
	}

	// The probe with zero replies is dropped.
	if len(results) != 2 {
		t.Fatalf("got %d results, want 2", len(results))
	}
	first := results[0]
	if first.ProbeID != 1001 || first.RTTAvg != 12.5 || first.Sent != 3 || first.Received != 3 {
		t.Errorf("first result = %+v", first)
	}
	if first.Loss != 0 {
		t.Errorf("first.Loss = %g, want 0", first.Loss)
	}
	if !first.Timestamp.Equal(time.Unix(1700000000, 0)) {
		t.Errorf("first.Timestamp = %v", first.Timestamp)
	}

	second := results[1]
	wantLoss := 1 - 2.0/3.0
	if second.Loss < wantLoss-1e-9 || second.Loss > wantLoss+1e-9 {
		t.Errorf("second.Loss = %g, want %g", second.Loss, wantLoss)
	}
}

func TestFetchResultsMaxResults(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(atlasFixture))
	}))
	defer srv.Close()

	client := collect.NewClient(config.CollectConfig{BaseURL: srv.URL, MaxResults: 1})
	results, err := client.FetchResults(context.Background(), 5001)
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if len(results) != 1 {
		t.Errorf("got %d results, want 1", len(results))
	}
}

func TestFetchResultsNonOKStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "measurement not found", http.StatusNotFound)
	}))
	defer srv.Close()

	client := collect.NewClient(config.CollectConfig{BaseURL: srv.URL})
	_, err := client.FetchResults(context.Background(), 5001)
	if err == nil {
		t.Fatal("expected error for 404 response")
	}
	if !strings.Contains(err.Error(), "404") {
		t.Errorf("error %q should mention the status code", err.Error())
	}
}

func TestFetchResultsBadShape(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"error": "nope"}`))
	}))
	defer srv.Close()

	client := collect.NewClient(config.CollectConfig{BaseURL: srv.URL})
	if _, err := client.FetchResults(context.Background(), 5001); err == nil {
		t.Fatal("expected error for non-array response")
	}
}

func TestFetchResultsInvalidID(t *testing.T) {
	client := collect.NewClient(config.CollectConfig{BaseURL: "http://127.0.0.1:1"})
	for _, id := range []int64{0, -5} {
		if _, err := client.FetchResults(context.Background(), id); err == nil {
			t.Errorf("FetchResults(%d) succeeded, want error", id)
		}
	}
}

func TestFetchResultsContextCancelled(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("[]"))
	}))
	defer srv.Close()

	client := collect.NewClient(config.CollectConfig{BaseURL: srv.URL})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := client.FetchResults(ctx, 5001); err == nil {
		t.Fatal("expected error for cancelled context")
	}
}

func TestWriteCSV(t *testing.T) {
	results := []collect.Result{
		{
			ProbeID:   1001,
			Timestamp: time.Unix(1700000000, 0).UTC(),
			RTTMin:    10.1,
			RTTAvg:    12.5,
			RTTMax:    20.3,
			Sent:      3,
			Received:  3,
			Loss:      0,
		},
	}

	path := filepath.Join(t.TempDir(), "atlas.csv")
	if err := collect.WriteCSV(path, results); err != nil {
		t.Fatalf("write: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read back: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	if len(lines) != 2 {
		t.Fatalf("got %d lines, want header + 1 row", len(lines))
	}
	if lines[0] != "timestamp,probe_id,rtt_min,rtt_avg,rtt_max,sent,rcvd,loss" {
		t.Errorf("header = %q", lines[0])
	}
	if lines[1] != "2023-11-14T22:13:20Z,1001,10.1,12.5,20.3,3,3,0" {
		t.Errorf("row = %q", lines[1])
	}
}

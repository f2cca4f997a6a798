package adminclient

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestStatsSuccess(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/stats" {
			t.Fatalf("unexpected path %q", r.URL.Path)
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"success": true,
			"data": map[string]interface{}{
				"uptimeSeconds":      42,
				"activeSessions":     3,
				"totalQueries":       10,
				"successfulQueries":  9,
				"failedQueries":      1,
				"serverStartTime":    "2026-01-01T00:00:00Z",
			},
		})
	}))
	defer srv.Close()

	c := New(srv.URL)
	stats, err := c.Stats(context.Background())
	if err != nil {
		t.Fatalf("Stats: %v", err)
	}
	if stats.ActiveSessions != 3 || stats.TotalQueries != 10 {
		t.Fatalf("unexpected stats: %+v", stats)
	}
}

func TestErrorEnvelopeSurfaces(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"success": false,
			"message": "session token not recognized",
			"code":    "Unauthenticated",
		})
	}))
	defer srv.Close()

	c := New(srv.URL)
	_, err := c.Stats(context.Background())
	if err == nil {
		t.Fatalf("expected error")
	}
	ae, ok := err.(*apiError)
	if !ok {
		t.Fatalf("expected *apiError, got %T", err)
	}
	if ae.Code != "Unauthenticated" {
		t.Fatalf("unexpected code %q", ae.Code)
	}
}

func TestExecute(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/execute" {
			t.Fatalf("unexpected path %q", r.URL.Path)
		}
		var body map[string]string
		_ = json.NewDecoder(r.Body).Decode(&body)
		if body["sql"] != "SELECT 1" {
			t.Fatalf("unexpected sql %q", body["sql"])
		}
		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"success": true,
			"data": map[string]interface{}{
				"total":    1,
				"returned": 1,
				"queryId":  "q1",
			},
		})
	}))
	defer srv.Close()

	c := New(srv.URL)
	res, err := c.Execute(context.Background(), "SELECT 1")
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if res.QueryID != "q1" || res.Total != 1 {
		t.Fatalf("unexpected result: %+v", res)
	}
}

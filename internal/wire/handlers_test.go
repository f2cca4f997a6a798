package wire

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/snowglobe/snowglobe/internal/catalog"
	"github.com/snowglobe/snowglobe/internal/config"
	"github.com/snowglobe/snowglobe/internal/engine"
	"github.com/snowglobe/snowglobe/internal/executor"
	"github.com/snowglobe/snowglobe/internal/history"
	"github.com/snowglobe/snowglobe/internal/observability"
	"github.com/snowglobe/snowglobe/internal/session"
	"github.com/snowglobe/snowglobe/internal/worksheet"
)

func newTestServer(t *testing.T) *Server {
	t.Helper()

	eng, err := engine.New(":memory:")
	if err != nil {
		t.Fatalf("engine.New: %v", err)
	}
	t.Cleanup(func() { eng.Close() })

	cat := catalog.New("", observability.NoopSink{})
	sessions := session.NewManager(0)
	hist := history.New(10)
	ws := worksheet.New("")
	exec := executor.New(cat, eng, sessions, hist, observability.NoopSink{}, 5*time.Second)

	cfg := config.Default()
	srv, err := New(cfg, exec, sessions, cat, hist, ws, observability.NoopSink{})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return srv
}

func doJSON(t *testing.T, mux http.Handler, method, path string, body interface{}, headers map[string]string) (*httptest.ResponseRecorder, Envelope) {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode request body: %v", err)
		}
	}

	req := httptest.NewRequest(method, path, &buf)
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)

	var env Envelope
	if rec.Body.Len() > 0 {
		if err := json.Unmarshal(rec.Body.Bytes(), &env); err != nil {
			t.Fatalf("decode response envelope: %v (body=%s)", err, rec.Body.String())
		}
	}
	return rec, env
}

func TestLoginThenQuery(t *testing.T) {
	srv := newTestServer(t)
	mux := srv.routes()

	rec, env := doJSON(t, mux, http.MethodPost, "/session/v1/login-request", LoginRequest{
		Data: LoginData{LoginName: "dev", Password: "dev", AccountName: "localhost"},
	}, nil)
	if rec.Code != http.StatusOK || !env.Success {
		t.Fatalf("login failed: status=%d env=%+v", rec.Code, env)
	}

	data, _ := json.Marshal(env.Data)
	var login LoginSuccessData
	if err := json.Unmarshal(data, &login); err != nil {
		t.Fatalf("decode login data: %v", err)
	}
	if login.Token == "" {
		t.Fatalf("expected non-empty token")
	}
	if login.SessionInfo.DatabaseName != "SNOWGLOBE" || login.SessionInfo.RoleName != "ACCOUNTADMIN" {
		t.Fatalf("unexpected session defaults: %+v", login.SessionInfo)
	}

	rec, env = doJSON(t, mux, http.MethodPost, "/queries/v1/query-request",
		QueryRequestBody{SQLText: "SELECT CURRENT_VERSION()"},
		map[string]string{"Authorization": `Snowflake Token="` + login.Token + `"`})
	if rec.Code != http.StatusOK || !env.Success {
		t.Fatalf("query failed: status=%d env=%+v", rec.Code, env)
	}
}

func TestQueryWithoutTokenIsUnauthenticated(t *testing.T) {
	srv := newTestServer(t)
	mux := srv.routes()

	rec, env := doJSON(t, mux, http.MethodPost, "/queries/v1/query-request",
		QueryRequestBody{SQLText: "SELECT 1"}, nil)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
	if env.Success {
		t.Fatalf("expected success=false")
	}
	if env.Code != "Unauthenticated" {
		t.Fatalf("expected code Unauthenticated, got %q", env.Code)
	}
}

func TestCloseSessionIsIdempotent(t *testing.T) {
	srv := newTestServer(t)
	mux := srv.routes()

	rec, env := doJSON(t, mux, http.MethodPost, "/session", nil,
		map[string]string{"Authorization": `Snowflake Token="nonexistent"`})
	if rec.Code != http.StatusOK || !env.Success {
		t.Fatalf("closing an unknown session should report success, got status=%d env=%+v", rec.Code, env)
	}
}

func TestExecuteEndpointNeedsNoToken(t *testing.T) {
	srv := newTestServer(t)
	mux := srv.routes()

	rec, env := doJSON(t, mux, http.MethodPost, "/api/execute",
		map[string]string{"sql": "SELECT CURRENT_DATABASE()"}, nil)
	if rec.Code != http.StatusOK || !env.Success {
		t.Fatalf("execute failed: status=%d env=%+v", rec.Code, env)
	}
}

func TestStatsAndHealthEndpoints(t *testing.T) {
	srv := newTestServer(t)
	mux := srv.routes()

	rec, env := doJSON(t, mux, http.MethodGet, "/health", nil, nil)
	if rec.Code != http.StatusOK || !env.Success {
		t.Fatalf("health failed: status=%d env=%+v", rec.Code, env)
	}

	rec, env = doJSON(t, mux, http.MethodGet, "/api/stats", nil, nil)
	if rec.Code != http.StatusOK || !env.Success {
		t.Fatalf("stats failed: status=%d env=%+v", rec.Code, env)
	}
}

func TestWorksheetCRUDThroughAPI(t *testing.T) {
	srv := newTestServer(t)
	mux := srv.routes()

	rec, env := doJSON(t, mux, http.MethodPost, "/api/worksheets",
		worksheetRequestBody{Name: "scratch", SQLText: "SELECT 1"}, nil)
	if rec.Code != http.StatusOK || !env.Success {
		t.Fatalf("create worksheet failed: status=%d env=%+v", rec.Code, env)
	}

	var created worksheet.Worksheet
	data, _ := json.Marshal(env.Data)
	if err := json.Unmarshal(data, &created); err != nil {
		t.Fatalf("decode worksheet: %v", err)
	}

	rec, env = doJSON(t, mux, http.MethodGet, "/api/worksheets/"+created.ID, nil, nil)
	if rec.Code != http.StatusOK || !env.Success {
		t.Fatalf("get worksheet failed: status=%d env=%+v", rec.Code, env)
	}

	rec, env = doJSON(t, mux, http.MethodDelete, "/api/worksheets/"+created.ID, nil, nil)
	if rec.Code != http.StatusOK || !env.Success {
		t.Fatalf("delete worksheet failed: status=%d env=%+v", rec.Code, env)
	}

	rec, env = doJSON(t, mux, http.MethodGet, "/api/worksheets/"+created.ID, nil, nil)
	if env.Success {
		t.Fatalf("expected NotFound after delete, got success")
	}
}

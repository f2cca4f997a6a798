// Package adminclient is the HTTP client snowglobectl uses to talk to a
// running server's operator surface. It never touches the Snowflake
// session/query wire protocol — only the unauthenticated /api/... routes.
package adminclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"
)

// Client is a thin HTTP client over a server's /api/... surface.
type Client struct {
	endpoint   string
	httpClient *http.Client
}

// New creates a Client targeting endpoint (e.g. "http://localhost:8084").
func New(endpoint string) *Client {
	return &Client{
		endpoint:   endpoint,
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
}

// Stats is the decoded response of GET /api/stats.
type Stats struct {
	UptimeSeconds        int64   `json:"uptimeSeconds"`
	ActiveSessions       int     `json:"activeSessions"`
	TotalQueries         int64   `json:"totalQueries"`
	SuccessfulQueries    int64   `json:"successfulQueries"`
	FailedQueries        int64   `json:"failedQueries"`
	AverageQueryDuration float64 `json:"averageQueryDurationMs"`
	ServerStartTime      string  `json:"serverStartTime"`
}

// Session is one entry of the GET /api/sessions listing.
type Session struct {
	SessionID   string `json:"sessionId"`
	User        string `json:"user"`
	Database    string `json:"database"`
	Schema      string `json:"schema"`
	Warehouse   string `json:"warehouse"`
	Role        string `json:"role"`
	TokenSuffix string `json:"tokenSuffix"`
	CreatedAt   string `json:"createdAt"`
	LastTouch   string `json:"lastTouch"`
}

// QueryRecord is one entry of the GET /api/queries listing.
type QueryRecord struct {
	ID         string `json:"id"`
	SessionID  string `json:"sessionId"`
	Text       string `json:"text"`
	SubmitTime string `json:"submitTime"`
	DurationMs int64  `json:"durationMs"`
	Success    bool   `json:"success"`
	RowCount   int64  `json:"rowCount"`
	ErrorCode  string `json:"errorCode,omitempty"`
}

// LogRecord is one entry of the GET /api/logs listing.
type LogRecord struct {
	Timestamp string `json:"timestamp"`
	Level     string `json:"level"`
	Logger    string `json:"logger"`
	Module    string `json:"module"`
	Function  string `json:"function"`
	Line      int    `json:"line"`
	Message   string `json:"message"`
}

// QueryResult is the decoded `data` object of a query-shaped response.
type QueryResult struct {
	RowType []struct {
		Name string `json:"name"`
		Type string `json:"type"`
	} `json:"rowtype"`
	RowSet          [][]*string `json:"rowset"`
	Total           int64       `json:"total"`
	Returned        int64       `json:"returned"`
	QueryID         string      `json:"queryId"`
	StatementTypeID int64       `json:"statementTypeId"`
}

// envelope mirrors internal/wire.Envelope, decoded independently so this
// package carries no dependency on the server's own HTTP layer.
type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data,omitempty"`
	Message string          `json:"message,omitempty"`
	Code    string          `json:"code,omitempty"`
}

// apiError is returned when the server answers with success=false.
type apiError struct {
	Code    string
	Message string
}

func (e *apiError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (c *Client) get(ctx context.Context, path string, query url.Values, out interface{}) error {
	u := c.endpoint + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return err
	}
	return c.do(req, out)
}

func (c *Client) post(ctx context.Context, path string, body interface{}, out interface{}) error {
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			return err
		}
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint+path, &buf)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	return c.do(req, out)
}

func (c *Client) do(req *http.Request, out interface{}) error {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("connecting to %s: %w", c.endpoint, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("reading response: %w", err)
	}

	var env envelope
	if err := json.Unmarshal(body, &env); err != nil {
		return fmt.Errorf("decoding response: %w (body=%s)", err, body)
	}
	if !env.Success {
		return &apiError{Code: env.Code, Message: env.Message}
	}
	if out == nil || len(env.Data) == 0 {
		return nil
	}
	return json.Unmarshal(env.Data, out)
}

// Stats fetches GET /api/stats.
func (c *Client) Stats(ctx context.Context) (*Stats, error) {
	var out Stats
	if err := c.get(ctx, "/api/stats", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Sessions fetches GET /api/sessions.
func (c *Client) Sessions(ctx context.Context) ([]Session, error) {
	var out []Session
	if err := c.get(ctx, "/api/sessions", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Queries fetches GET /api/queries?limit=N.
func (c *Client) Queries(ctx context.Context, limit int) ([]QueryRecord, error) {
	query := url.Values{}
	if limit > 0 {
		query.Set("limit", strconv.Itoa(limit))
	}
	var out []QueryRecord
	if err := c.get(ctx, "/api/queries", query, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Databases fetches GET /api/databases.
func (c *Client) Databases(ctx context.Context) ([]string, error) {
	var out []string
	if err := c.get(ctx, "/api/databases", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Schemas fetches GET /api/databases/<db>/schemas.
func (c *Client) Schemas(ctx context.Context, db string) ([]string, error) {
	var out []string
	if err := c.get(ctx, "/api/databases/"+url.PathEscape(db)+"/schemas", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Objects fetches GET /api/databases/<db>/schemas/<schema>/objects.
func (c *Client) Objects(ctx context.Context, db, schema string) ([]struct {
	Name string `json:"name"`
	Kind string `json:"kind"`
}, error) {
	var out []struct {
		Name string `json:"name"`
		Kind string `json:"kind"`
	}
	path := "/api/databases/" + url.PathEscape(db) + "/schemas/" + url.PathEscape(schema) + "/objects"
	if err := c.get(ctx, path, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Execute runs sql ad-hoc via POST /api/execute, requiring no session.
func (c *Client) Execute(ctx context.Context, sql string) (*QueryResult, error) {
	var out QueryResult
	if err := c.post(ctx, "/api/execute", map[string]string{"sql": sql}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Logs fetches GET /api/logs?level=L.
func (c *Client) Logs(ctx context.Context, level string, limit int) ([]LogRecord, error) {
	query := url.Values{}
	if level != "" {
		query.Set("level", level)
	}
	if limit > 0 {
		query.Set("limit", strconv.Itoa(limit))
	}
	var out []LogRecord
	if err := c.get(ctx, "/api/logs", query, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Health fetches GET /health.
func (c *Client) Health(ctx context.Context) (map[string]interface{}, error) {
	var out map[string]interface{}
	if err := c.get(ctx, "/health", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

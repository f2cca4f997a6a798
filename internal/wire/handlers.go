package wire

import (
	"encoding/json"
	"net/http"
	"sort"
	"strconv"
	"time"

	snowerrors "github.com/snowglobe/snowglobe/internal/errors"
	"github.com/snowglobe/snowglobe/internal/observability"
)

// neverExpireValiditySeconds is reported to clients in place of 0 when
// SessionIdleTimeoutSeconds is unset (sessions never expire), since
// Snowflake clients treat validityInSeconds as a TTL hint, not a sentinel.
const neverExpireValiditySeconds = 7 * 24 * 60 * 60

func sessionValiditySeconds(idleTimeoutSeconds int) int64 {
	if idleTimeoutSeconds <= 0 {
		return neverExpireValiditySeconds
	}
	return int64(idleTimeoutSeconds)
}

// writeEnvelope serializes an Envelope as the single HTTP 200 response
// body the Snowflake protocol expects for every application-level outcome.
func writeEnvelope(w http.ResponseWriter, env Envelope) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(env)
}

// writeError serializes err as a failed Envelope. Unauthenticated is the
// one code the wire layer answers with HTTP 401 instead of 200, since
// clients use the status to drive re-login.
func writeError(w http.ResponseWriter, err error) {
	se, _ := snowerrors.As(err)
	status := http.StatusOK
	message := err.Error()
	code := string(snowerrors.InternalInconsistency)
	if se != nil {
		status = se.HTTPStatus()
		message = se.Message
		code = string(se.Code())
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(Envelope{Success: false, Message: message, Code: code})
}

func writeData(w http.ResponseWriter, data interface{}) {
	writeEnvelope(w, Envelope{Success: true, Data: data})
}

// handleLogin implements POST /session/v1/login-request.
func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, snowerrors.New(snowerrors.BadRequest, "invalid login request body"))
		return
	}
	if req.Data.LoginName == "" {
		writeError(w, snowerrors.New(snowerrors.BadRequest, "LOGIN_NAME is required"))
		return
	}

	database := req.Data.DatabaseName
	if database == "" {
		database = "SNOWGLOBE"
	}
	schema := req.Data.SchemaName
	if schema == "" {
		schema = "PUBLIC"
	}
	warehouse := req.Data.WarehouseName
	if warehouse == "" {
		warehouse = "COMPUTE_WH"
	}
	role := req.Data.RoleName
	if role == "" {
		role = "ACCOUNTADMIN"
	}

	sess, err := s.sessions.Create(req.Data.LoginName, database, schema, warehouse, role)
	if err != nil {
		writeError(w, err)
		return
	}

	writeData(w, LoginSuccessData{
		Token:             sess.Token,
		MasterToken:       sess.MasterToken,
		SessionID:         sess.ID,
		ValidityInSeconds: sessionValiditySeconds(s.cfg.SessionIdleTimeoutSeconds),
		SessionInfo: SessionInfo{
			DatabaseName:  sess.Database,
			SchemaName:    sess.Schema,
			WarehouseName: sess.Warehouse,
			RoleName:      sess.Role,
		},
	})
}

// handleRenew implements POST /session/v1/login-request:renew.
func (s *Server) handleRenew(w http.ResponseWriter, r *http.Request) {
	var req TokenRequestBody
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.OldSessionToken == "" {
		writeError(w, snowerrors.New(snowerrors.BadRequest, "oldSessionToken is required"))
		return
	}

	sess, err := s.sessions.Renew(req.OldSessionToken)
	if err != nil {
		writeError(w, err)
		return
	}

	writeData(w, TokenSuccessData{
		SessionToken:      sess.Token,
		ValidityInSeconds: sessionValiditySeconds(s.cfg.SessionIdleTimeoutSeconds),
	})
}

// handleCloseSession implements POST /session (close). Closing an
// already-closed or unknown token is treated as success, matching the
// Session Manager's own idempotent Close.
func (s *Server) handleCloseSession(w http.ResponseWriter, r *http.Request) {
	token := tokenFromHeader(r.Header.Get("Authorization"))
	s.sessions.Close(token)
	writeEnvelope(w, Envelope{Success: true})
}

// handleQuery implements POST /queries/v1/query-request.
func (s *Server) handleQuery(w http.ResponseWriter, r *http.Request) {
	token := tokenFromHeader(r.Header.Get("Authorization"))
	if token == "" {
		writeError(w, snowerrors.New(snowerrors.Unauthenticated, "authorization token required"))
		return
	}

	var req QueryRequestBody
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, snowerrors.New(snowerrors.BadRequest, "invalid query request body"))
		return
	}

	resp, err := s.executor.Execute(r.Context(), token, req.SQLText)
	if err != nil {
		writeError(w, err)
		return
	}
	writeData(w, resp)
}

// handleAbort implements POST /queries/v1/abort-request. The embedded
// engine has no external interrupt, so this always acknowledges success,
// per spec.
func (s *Server) handleAbort(w http.ResponseWriter, r *http.Request) {
	token := tokenFromHeader(r.Header.Get("Authorization"))
	if token == "" {
		writeError(w, snowerrors.New(snowerrors.Unauthenticated, "authorization token required"))
		return
	}
	writeEnvelope(w, Envelope{Success: true})
}

// handleTelemetry accepts and discards client telemetry payloads, which
// the Snowflake Go driver sends unconditionally.
func (s *Server) handleTelemetry(w http.ResponseWriter, r *http.Request) {
	writeEnvelope(w, Envelope{Success: true})
}

// handleHealth implements GET /health: liveness plus version/build info.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeData(w, map[string]interface{}{
		"status":    "ok",
		"version":   s.version,
		"uptime":    time.Since(s.startTime).String(),
		"startTime": s.startTime.UTC().Format(time.RFC3339),
	})
}

// --- Operator surface (/api/...) ---------------------------------------

// handleStats implements GET /api/stats.
func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	writeData(w, s.history.Stats(s.sessions.Count()))
}

// handleSessions implements GET /api/sessions. Only the last 8 characters
// of each token are exposed, per spec.
func (s *Server) handleSessions(w http.ResponseWriter, r *http.Request) {
	live := s.sessions.List()
	out := make([]sessionDescriptor, 0, len(live))
	for _, sess := range live {
		out = append(out, sessionDescriptor{
			SessionID:   sess.ID,
			User:        sess.User,
			Database:    sess.Database,
			Schema:      sess.Schema,
			Warehouse:   sess.Warehouse,
			Role:        sess.Role,
			TokenSuffix: tokenSuffix(sess.Token),
			CreatedAt:   sess.CreatedAt.UTC().Format(time.RFC3339),
			LastTouch:   sess.LastTouch.UTC().Format(time.RFC3339),
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt < out[j].CreatedAt })
	writeData(w, out)
}

func tokenSuffix(token string) string {
	if len(token) <= 8 {
		return token
	}
	return token[len(token)-8:]
}

// handleQueries implements GET /api/queries?limit=N.
func (s *Server) handleQueries(w http.ResponseWriter, r *http.Request) {
	limit := 100
	if v := r.URL.Query().Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			limit = n
		}
	}
	writeData(w, s.history.Recent(limit))
}

// handleLogs implements GET /api/logs?level=L.
func (s *Server) handleLogs(w http.ResponseWriter, r *http.Request) {
	limit := s.cfg.LogCapacity
	if v := r.URL.Query().Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			limit = n
		}
	}
	level := observability.Level(r.URL.Query().Get("level"))
	writeData(w, s.sink.Recent(limit, level))
}

// handleExecute implements POST /api/execute {sql}: the same pipeline as
// the wire layer's query-request, but driven by the server's internal
// ad-hoc session instead of a caller-supplied token, since the dashboard
// surface is unauthenticated.
func (s *Server) handleExecute(w http.ResponseWriter, r *http.Request) {
	var req executeRequestBody
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, snowerrors.New(snowerrors.BadRequest, "invalid execute request body"))
		return
	}

	resp, err := s.executor.Execute(r.Context(), s.adhocToken, req.SQL)
	if err != nil {
		writeError(w, err)
		return
	}
	writeData(w, resp)
}

// handleDatabases implements GET /api/databases.
func (s *Server) handleDatabases(w http.ResponseWriter, r *http.Request) {
	dbs := s.catalog.ListDatabases()
	names := make([]string, 0, len(dbs))
	for _, db := range dbs {
		names = append(names, db.Name)
	}
	writeData(w, names)
}

// handleSchemas implements GET /api/databases/<db>/schemas.
func (s *Server) handleSchemas(w http.ResponseWriter, r *http.Request, db string) {
	schemas := s.catalog.ListSchemas(db)
	names := make([]string, 0, len(schemas))
	for _, sch := range schemas {
		names = append(names, sch.Name)
	}
	writeData(w, names)
}

// objectDescriptor describes one table or view under a schema, for
// GET /api/databases/<db>/schemas/<schema>/objects.
type objectDescriptor struct {
	Name string `json:"name"`
	Kind string `json:"kind"`
}

func (s *Server) handleObjects(w http.ResponseWriter, r *http.Request, db, schema string) {
	tables := s.catalog.ListTables(db, schema)
	views := s.catalog.ListViews(db, schema)
	out := make([]objectDescriptor, 0, len(tables)+len(views))
	for _, t := range tables {
		out = append(out, objectDescriptor{Name: t.Name, Kind: "TABLE"})
	}
	for _, v := range views {
		out = append(out, objectDescriptor{Name: v.Name, Kind: "VIEW"})
	}
	writeData(w, out)
}

// --- Worksheets ---------------------------------------------------------

func (s *Server) handleWorksheetsCollection(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		writeData(w, s.worksheets.List())
	case http.MethodPost:
		var req worksheetRequestBody
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, snowerrors.New(snowerrors.BadRequest, "invalid worksheet request body"))
			return
		}
		ws, err := s.worksheets.Create(req.Name, req.SQLText, req.Database, req.Schema)
		if err != nil {
			writeError(w, err)
			return
		}
		writeData(w, ws)
	default:
		writeError(w, snowerrors.New(snowerrors.BadRequest, "method not allowed"))
	}
}

func (s *Server) handleWorksheetItem(w http.ResponseWriter, r *http.Request, id string) {
	switch r.Method {
	case http.MethodGet:
		ws, ok := s.worksheets.Get(id)
		if !ok {
			writeError(w, snowerrors.Newf(snowerrors.NotFound, "worksheet %q does not exist", id))
			return
		}
		writeData(w, ws)
	case http.MethodPut:
		var req worksheetRequestBody
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, snowerrors.New(snowerrors.BadRequest, "invalid worksheet request body"))
			return
		}
		ws, err := s.worksheets.Update(id, req.Name, req.SQLText)
		if err != nil {
			writeError(w, err)
			return
		}
		writeData(w, ws)
	case http.MethodDelete:
		if err := s.worksheets.Delete(id); err != nil {
			writeError(w, err)
			return
		}
		writeEnvelope(w, Envelope{Success: true})
	default:
		writeError(w, snowerrors.New(snowerrors.BadRequest, "method not allowed"))
	}
}

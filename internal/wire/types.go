package wire

// LoginData is the `data` object of a login-request body.
type LoginData struct {
	LoginName     string                 `json:"LOGIN_NAME"`
	Password      string                 `json:"PASSWORD"`
	AccountName   string                 `json:"ACCOUNT_NAME"`
	DatabaseName  string                 `json:"DATABASE_NAME"`
	SchemaName    string                 `json:"SCHEMA_NAME"`
	WarehouseName string                 `json:"WAREHOUSE_NAME"`
	RoleName      string                 `json:"ROLE_NAME"`
	SessionParams map[string]interface{} `json:"SESSION_PARAMETERS"`
}

// LoginRequest is the body of POST /session/v1/login-request.
type LoginRequest struct {
	Data LoginData `json:"data"`
}

// LoginSuccessData is the `data` object of a successful login response.
type LoginSuccessData struct {
	Token             string      `json:"token"`
	MasterToken       string      `json:"masterToken"`
	SessionID         string      `json:"sessionId"`
	ValidityInSeconds int64       `json:"validityInSeconds"`
	SessionInfo       SessionInfo `json:"sessionInfo"`
}

// SessionInfo echoes the session's current database/schema/warehouse/role.
type SessionInfo struct {
	DatabaseName  string `json:"databaseName"`
	SchemaName    string `json:"schemaName"`
	WarehouseName string `json:"warehouseName"`
	RoleName      string `json:"roleName"`
}

// Envelope is the top-level {success, data, message, code} shape every
// wire response uses, per the protocol's single response contract.
type Envelope struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Message string      `json:"message,omitempty"`
	Code    string      `json:"code,omitempty"`
}

// QueryRequestBody is the body of POST /queries/v1/query-request.
type QueryRequestBody struct {
	SQLText string `json:"sqlText"`
}

// AbortRequestBody is the body of POST /queries/v1/abort-request.
type AbortRequestBody struct {
	QueryID string `json:"queryId"`
}

// TokenRequestBody is the body of POST /session/v1/login-request:renew.
// The renew call carries the session's master token, matching the real
// driver's field name for this request.
type TokenRequestBody struct {
	OldSessionToken string `json:"oldSessionToken"`
}

// TokenSuccessData is the `data` object of a successful renew response.
type TokenSuccessData struct {
	SessionToken      string `json:"sessionToken"`
	ValidityInSeconds int64  `json:"validityInSeconds"`
}

// sessionDescriptor is one entry of the GET /api/sessions listing. Only
// the last 8 characters of the token are exposed, per spec.
type sessionDescriptor struct {
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

// executeRequestBody is the body of POST /api/execute.
type executeRequestBody struct {
	SQL string `json:"sql"`
}

// worksheetRequestBody is the body of POST/PUT /api/worksheets[/<id>].
type worksheetRequestBody struct {
	Name     string `json:"name"`
	SQLText  string `json:"sqlText"`
	Database string `json:"database"`
	Schema   string `json:"schema"`
}

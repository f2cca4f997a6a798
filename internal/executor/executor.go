package executor

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/snowglobe/snowglobe/internal/catalog"
	"github.com/snowglobe/snowglobe/internal/engine"
	snowerrors "github.com/snowglobe/snowglobe/internal/errors"
	"github.com/snowglobe/snowglobe/internal/history"
	"github.com/snowglobe/snowglobe/internal/observability"
	"github.com/snowglobe/snowglobe/internal/session"
	"github.com/snowglobe/snowglobe/internal/sql"
)

// Executor owns the execution pipeline: touch session -> classify ->
// catalog-directive/constant/data dispatch -> shape envelope -> record.
type Executor struct {
	catalog   *catalog.Catalog
	engine    *engine.Adapter
	sessions  *session.Manager
	history   *history.History
	sink      observability.Sink
	deadline  time.Duration
	accountID string
	version   string
}

// New creates an Executor wired to the catalog, engine, session manager,
// and history ring it will drive.
func New(cat *catalog.Catalog, eng *engine.Adapter, sessions *session.Manager, hist *history.History, sink observability.Sink, deadline time.Duration) *Executor {
	if sink == nil {
		sink = observability.NoopSink{}
	}
	return &Executor{
		catalog:   cat,
		engine:    eng,
		sessions:  sessions,
		history:   hist,
		sink:      sink,
		deadline:  deadline,
		accountID: "SNOWGLOBE_LOCAL",
		version:   "1.0.0",
	}
}

// Execute runs one statement on behalf of the session identified by
// token, implementing the pipeline in §4.5.
func (e *Executor) Execute(ctx context.Context, token, sqlText string) (*Response, error) {
	submitTime := time.Now()

	sess, ok := e.sessions.Touch(token)
	if !ok {
		return nil, snowerrors.New(snowerrors.Unauthenticated, "session token not recognized")
	}

	if e.deadline > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.deadline)
		defer cancel()
	}

	resp, execErr := e.dispatch(ctx, sess, sqlText)

	rec := history.Record{
		ID:         uuid.NewString(),
		SessionID:  sess.ID,
		Text:       sqlText,
		SubmitTime: submitTime,
		DurationMs: time.Since(submitTime).Milliseconds(),
		Success:    execErr == nil,
	}
	if execErr != nil {
		rec.ErrorCode = string(snowerrors.CodeOf(execErr))
	} else if resp != nil {
		rec.RowCount = resp.Total
	}
	e.history.Append(rec)

	if execErr != nil {
		e.sink.Log("executor", observability.LevelWarn, "query failed: %v", execErr)
		return nil, execErr
	}
	return resp, nil
}

func (e *Executor) dispatch(ctx context.Context, sess *session.Session, sqlText string) (*Response, error) {
	rwCtx := sql.RewriteContext{
		Database:               sess.Database,
		Schema:                 sess.Schema,
		KnownUnqualifiedTables: e.unqualifiedTableNames(sess),
	}

	result, err := sql.Translate(sqlText, rwCtx)
	if err != nil {
		return nil, err
	}

	queryID := uuid.NewString()

	switch result.Class {
	case sql.ClassCatalogDirective:
		return e.dispatchDirective(ctx, sess, result.Directive, queryID)

	case sql.ClassConstant:
		return e.dispatchConstant(sess, result.ConstantFn, queryID)

	default:
		if err := e.ensureViews(ctx, sess, sqlText, make(map[string]bool)); err != nil {
			return nil, err
		}
		return e.dispatchData(ctx, result.Rewritten, sqlText, queryID)
	}
}

// ensureViews materializes the stored definition of every catalog view
// sqlText references, recursively, so a SELECT against a view sees a real
// DuckDB relation rather than "table not found" (§4.5 view support).
// visited guards against re-materializing the same view twice in one call
// and against runaway recursion on a cyclical definition.
func (e *Executor) ensureViews(ctx context.Context, sess *session.Session, sqlText string, visited map[string]bool) error {
	referenced := referencedIdentifiers(sqlText)
	for _, v := range e.catalog.ListViews(sess.Database, sess.Schema) {
		if !referenced[strings.ToUpper(v.Name)] {
			continue
		}
		key := catalog.ObjectFQName(v.Database, v.Schema, v.Name)
		if visited[key] {
			continue
		}
		visited[key] = true
		if err := e.engine.EnsureView(ctx, key, v.SelectSQL); err != nil {
			return err
		}
		if err := e.ensureViews(ctx, sess, v.SelectSQL, visited); err != nil {
			return err
		}
	}
	return nil
}

// referencedIdentifiers returns the set of upper-cased plain identifiers
// appearing anywhere in sqlText, used to test whether a statement could
// reference a given view by name.
func referencedIdentifiers(sqlText string) map[string]bool {
	out := make(map[string]bool)
	for _, tok := range sql.Tokenize(sqlText) {
		if tok.Kind == sql.TokenIdentifier {
			out[strings.ToUpper(tok.Text)] = true
		}
	}
	return out
}

func (e *Executor) dispatchData(ctx context.Context, rewritten, original, queryID string) (*Response, error) {
	qr, err := e.engine.Execute(ctx, rewritten)
	if err != nil {
		return nil, err
	}

	rowType := make([]RowTypeEntry, len(qr.Columns))
	for i, col := range qr.Columns {
		rowType[i] = RowTypeEntry{Name: col.Name, Type: col.Type, Nullable: col.Nullable}
	}

	total := int64(len(qr.Rows))
	if total == 0 && qr.RowsAffected > 0 {
		total = qr.RowsAffected
	}

	return &Response{
		RowType:         rowType,
		RowSet:          qr.Rows,
		Total:           total,
		Returned:        int64(len(qr.Rows)),
		QueryID:         queryID,
		StatementTypeID: sql.DataStatementTypeID(sql.Tokenize(original)),
	}, nil
}

func (e *Executor) dispatchConstant(sess *session.Session, fn, queryID string) (*Response, error) {
	val := sql.EvaluateConstant(fn, sql.ConstantContext{
		Version:   e.version,
		Account:   e.accountID,
		Role:      sess.Role,
		Warehouse: sess.Warehouse,
		Database:  sess.Database,
		Schema:    sess.Schema,
		Timestamp: time.Now().UTC().Format(time.RFC3339Nano),
	})

	colName := strings.ToUpper(fn) + "()"
	return &Response{
		RowType:         []RowTypeEntry{{Name: colName, Type: "TEXT", Nullable: false}},
		RowSet:          [][]*string{{&val}},
		Total:           1,
		Returned:        1,
		QueryID:         queryID,
		StatementTypeID: 4096,
	}, nil
}

// unqualifiedTableNames returns the set of live table/view names in the
// session's current schema, so rule 4 only qualifies genuine table
// references and leaves ordinary column names untouched.
func (e *Executor) unqualifiedTableNames(sess *session.Session) map[string]bool {
	out := make(map[string]bool)
	for _, t := range e.catalog.ListTables(sess.Database, sess.Schema) {
		out[t.Name] = true
	}
	for _, v := range e.catalog.ListViews(sess.Database, sess.Schema) {
		out[v.Name] = true
	}
	return out
}

// Package engine implements the Engine Adapter: a thin, serialized
// wrapper over the embedded DuckDB engine, driven through database/sql.
package engine

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"sync"
	"time"

	_ "github.com/marcboeker/go-duckdb"

	snowerrors "github.com/snowglobe/snowglobe/internal/errors"
)

// Adapter is the sole owner of engine connections. All executions are
// serialized through a single worker goroutine so concurrent callers
// queue FIFO, matching §5's "one writer at a time" discipline.
type Adapter struct {
	mu     sync.RWMutex
	db     *sql.DB
	path   string
	closed bool

	jobs chan job
}

type job struct {
	run func() error
	res chan error
}

// New opens the embedded engine at path (use ":memory:" for an ephemeral
// engine) and starts its serialized worker. Opening retries transiently
// failed attempts (e.g. a file lock the previous process hadn't released
// yet) with DefaultRetryConfig before giving up.
func New(path string) (*Adapter, error) {
	if path == "" {
		path = ":memory:"
	}

	var db *sql.DB
	result := ExecuteWithRetry(context.Background(), DefaultRetryConfig(), func() error {
		opened, err := sql.Open("duckdb", path)
		if err != nil {
			return err
		}
		if err := opened.Ping(); err != nil {
			opened.Close()
			return err
		}
		db = opened
		return nil
	})
	if !result.Success {
		return nil, snowerrors.Wrap(snowerrors.Unavailable, fmt.Sprintf("failed to open embedded engine: %s", result), result.LastError)
	}

	a := &Adapter{
		db:   db,
		path: path,
		jobs: make(chan job, 64),
	}
	go a.worker()
	return a, nil
}

func (a *Adapter) worker() {
	for j := range a.jobs {
		j.res <- j.run()
	}
}

// submit enqueues fn to run on the single serialized worker and blocks
// for its result, or returns ctx.Err() if ctx is cancelled first.
func (a *Adapter) submit(ctx context.Context, fn func() error) error {
	a.mu.RLock()
	if a.closed {
		a.mu.RUnlock()
		return snowerrors.New(snowerrors.Unavailable, "engine is closed")
	}
	a.mu.RUnlock()

	resCh := make(chan error, 1)
	select {
	case a.jobs <- job{run: fn, res: resCh}:
	case <-ctx.Done():
		return snowerrors.Wrap(snowerrors.Timeout, "query deadline exceeded while queued", ctx.Err())
	}

	select {
	case err := <-resCh:
		return err
	case <-ctx.Done():
		return snowerrors.Wrap(snowerrors.Timeout, "query deadline exceeded", ctx.Err())
	}
}

// Ping checks engine reachability.
func (a *Adapter) Ping(ctx context.Context) error {
	return a.submit(ctx, func() error {
		return a.db.PingContext(ctx)
	})
}

// Close stops accepting work and releases the underlying connection.
// Idempotent.
func (a *Adapter) Close() error {
	a.mu.Lock()
	if a.closed {
		a.mu.Unlock()
		return nil
	}
	a.closed = true
	a.mu.Unlock()

	close(a.jobs)
	return a.db.Close()
}

// Execute runs an arbitrary data statement (SELECT/INSERT/UPDATE/DELETE,
// already dialect-rewritten) and returns its column metadata and rows,
// every value pre-serialized to its wire string form.
func (a *Adapter) Execute(ctx context.Context, sqlText string) (*QueryResult, error) {
	var result *QueryResult
	err := a.submit(ctx, func() error {
		upper := strings.ToUpper(strings.TrimSpace(sqlText))
		if strings.HasPrefix(upper, "SELECT") || strings.HasPrefix(upper, "WITH") || strings.HasPrefix(upper, "SHOW") {
			res, err := a.queryLocked(ctx, sqlText)
			if err != nil {
				return err
			}
			result = res
			return nil
		}

		r, err := a.db.ExecContext(ctx, sqlText)
		if err != nil {
			return snowerrors.WrapEngine(err)
		}
		affected, _ := r.RowsAffected()
		result = &QueryResult{RowsAffected: affected}
		return nil
	})
	return result, err
}

func (a *Adapter) queryLocked(ctx context.Context, sqlText string) (*QueryResult, error) {
	rows, err := a.db.QueryContext(ctx, sqlText)
	if err != nil {
		return nil, snowerrors.WrapEngine(err)
	}
	defer rows.Close()

	colTypes, err := rows.ColumnTypes()
	if err != nil {
		return nil, snowerrors.WrapEngine(err)
	}

	cols := make([]ResultColumn, len(colTypes))
	for i, ct := range colTypes {
		nullable, _ := ct.Nullable()
		cols[i] = ResultColumn{
			Name:     ct.Name(),
			Type:     mapEngineType(ct.DatabaseTypeName()),
			Nullable: nullable,
		}
	}

	var outRows [][]*string
	for rows.Next() {
		raw := make([]interface{}, len(cols))
		ptrs := make([]interface{}, len(cols))
		for i := range raw {
			ptrs[i] = &raw[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, snowerrors.WrapEngine(err)
		}
		outRows = append(outRows, stringifyRow(raw))
	}
	if err := rows.Err(); err != nil {
		return nil, snowerrors.WrapEngine(err)
	}

	return &QueryResult{Columns: cols, Rows: outRows, RowsAffected: int64(len(outRows))}, nil
}

func stringifyRow(values []interface{}) []*string {
	out := make([]*string, len(values))
	for i, v := range values {
		out[i] = stringifyValue(v)
	}
	return out
}

func stringifyValue(v interface{}) *string {
	if v == nil {
		return nil
	}
	s := formatValue(v)
	return &s
}

func formatValue(v interface{}) string {
	switch val := v.(type) {
	case time.Time:
		return val.UTC().Format("2006-01-02T15:04:05.999999999Z")
	case []byte:
		return string(val)
	case fmt.Stringer:
		return val.String()
	default:
		return fmt.Sprintf("%v", val)
	}
}

func quoteIdent(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}

package executor

import (
	"context"
	"testing"
	"time"

	"github.com/snowglobe/snowglobe/internal/catalog"
	"github.com/snowglobe/snowglobe/internal/engine"
	snowerrors "github.com/snowglobe/snowglobe/internal/errors"
	"github.com/snowglobe/snowglobe/internal/history"
	"github.com/snowglobe/snowglobe/internal/observability"
	"github.com/snowglobe/snowglobe/internal/session"
)

// newTestExecutor wires a real in-memory engine to a fresh catalog and
// session manager, the same composition cmd/snowglobed uses, so these
// tests exercise the full dispatch pipeline rather than a mock engine.
func newTestExecutor(t *testing.T) (*Executor, *session.Manager) {
	t.Helper()

	eng, err := engine.New(":memory:")
	if err != nil {
		t.Fatalf("engine.New: %v", err)
	}
	t.Cleanup(func() { eng.Close() })

	cat := catalog.New("", observability.NoopSink{})
	sessions := session.NewManager(0)
	hist := history.New(10)

	return New(cat, eng, sessions, hist, observability.NoopSink{}, 5*time.Second), sessions
}

func mustExec(t *testing.T, e *Executor, token, sqlText string) *Response {
	t.Helper()
	resp, err := e.Execute(context.Background(), token, sqlText)
	if err != nil {
		t.Fatalf("execute %q: %v", sqlText, err)
	}
	return resp
}

func TestExecuteRejectsUnknownToken(t *testing.T) {
	e, _ := newTestExecutor(t)
	_, err := e.Execute(context.Background(), "nonexistent", "SELECT 1")
	if snowerrors.CodeOf(err) != snowerrors.Unauthenticated {
		t.Fatalf("expected Unauthenticated, got %v", err)
	}
}

func TestExecuteDDLAndDMLRoundTrip(t *testing.T) {
	e, sessions := newTestExecutor(t)
	sess, err := sessions.Create("dev", "SNOWGLOBE", "PUBLIC", "COMPUTE_WH", "ACCOUNTADMIN")
	if err != nil {
		t.Fatalf("create session: %v", err)
	}

	mustExec(t, e, sess.Token, "CREATE DATABASE TESTDB")
	mustExec(t, e, sess.Token, "USE DATABASE TESTDB")
	mustExec(t, e, sess.Token, "USE SCHEMA PUBLIC")
	mustExec(t, e, sess.Token, "CREATE TABLE T (ID INT, NAME VARCHAR)")
	mustExec(t, e, sess.Token, "INSERT INTO T VALUES (1,'A'),(2,'B')")

	resp := mustExec(t, e, sess.Token, "SELECT * FROM T ORDER BY ID")
	if resp.Total != 2 {
		t.Fatalf("expected 2 rows, got %d", resp.Total)
	}
	if *resp.RowSet[0][0] != "1" || *resp.RowSet[0][1] != "A" {
		t.Fatalf("unexpected first row: %+v", resp.RowSet[0])
	}
}

// TestExecuteMaterializesViewBeforeSelect is a regression test for the
// view-materialization wiring: a SELECT against a freshly created view
// must succeed, not fail with "table not found" in the engine.
func TestExecuteMaterializesViewBeforeSelect(t *testing.T) {
	e, sessions := newTestExecutor(t)
	sess, err := sessions.Create("dev", "SNOWGLOBE", "PUBLIC", "COMPUTE_WH", "ACCOUNTADMIN")
	if err != nil {
		t.Fatalf("create session: %v", err)
	}

	mustExec(t, e, sess.Token, "CREATE DATABASE TESTDB")
	mustExec(t, e, sess.Token, "USE DATABASE TESTDB")
	mustExec(t, e, sess.Token, "USE SCHEMA PUBLIC")
	mustExec(t, e, sess.Token, "CREATE TABLE T (ID INT, NAME VARCHAR)")
	mustExec(t, e, sess.Token, "INSERT INTO T VALUES (1,'A'),(2,'B')")
	mustExec(t, e, sess.Token, "CREATE VIEW V AS SELECT * FROM T")

	resp, err := e.Execute(context.Background(), sess.Token, "SELECT * FROM V ORDER BY ID")
	if err != nil {
		t.Fatalf("select from view failed: %v", err)
	}
	if resp.Total != 2 {
		t.Fatalf("expected 2 rows from view, got %d", resp.Total)
	}
}

// TestExecuteCreateOrReplaceTable is a regression test for the orReplace
// wiring: a second CREATE OR REPLACE TABLE with a different column list
// must succeed and the new definition must be visible immediately.
func TestExecuteCreateOrReplaceTable(t *testing.T) {
	e, sessions := newTestExecutor(t)
	sess, err := sessions.Create("dev", "SNOWGLOBE", "PUBLIC", "COMPUTE_WH", "ACCOUNTADMIN")
	if err != nil {
		t.Fatalf("create session: %v", err)
	}

	mustExec(t, e, sess.Token, "CREATE DATABASE TESTDB")
	mustExec(t, e, sess.Token, "USE DATABASE TESTDB")
	mustExec(t, e, sess.Token, "USE SCHEMA PUBLIC")
	mustExec(t, e, sess.Token, "CREATE TABLE T (ID INT)")

	_, err = e.Execute(context.Background(), sess.Token, "CREATE TABLE T (ID INT, LABEL VARCHAR)")
	if snowerrors.CodeOf(err) != snowerrors.AlreadyExists {
		t.Fatalf("expected AlreadyExists without OR REPLACE, got %v", err)
	}

	mustExec(t, e, sess.Token, "CREATE OR REPLACE TABLE T (ID INT, LABEL VARCHAR)")
	mustExec(t, e, sess.Token, "INSERT INTO T VALUES (1,'A')")

	resp := mustExec(t, e, sess.Token, "SELECT * FROM T")
	if resp.Total != 1 || len(resp.RowType) != 2 {
		t.Fatalf("expected the replacement's 2-column shape, got rowtype=%+v total=%d", resp.RowType, resp.Total)
	}
}

func TestExecuteDropUndropRoundTrip(t *testing.T) {
	e, sessions := newTestExecutor(t)
	sess, err := sessions.Create("dev", "SNOWGLOBE", "PUBLIC", "COMPUTE_WH", "ACCOUNTADMIN")
	if err != nil {
		t.Fatalf("create session: %v", err)
	}

	mustExec(t, e, sess.Token, "CREATE DATABASE TESTDB")
	mustExec(t, e, sess.Token, "USE DATABASE TESTDB")
	mustExec(t, e, sess.Token, "USE SCHEMA PUBLIC")
	mustExec(t, e, sess.Token, "CREATE TABLE T (ID INT, NAME VARCHAR)")
	mustExec(t, e, sess.Token, "INSERT INTO T VALUES (1,'A'),(2,'B')")
	mustExec(t, e, sess.Token, "DROP TABLE T")

	shown := mustExec(t, e, sess.Token, "SHOW DROPPED TABLES")
	found := false
	for _, row := range shown.RowSet {
		if row[0] != nil && *row[0] == "T" {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected T among dropped tables, got %+v", shown.RowSet)
	}

	mustExec(t, e, sess.Token, "UNDROP TABLE T")
	resp := mustExec(t, e, sess.Token, "SELECT COUNT(*) FROM T")
	if *resp.RowSet[0][0] != "2" {
		t.Fatalf("expected restored table to carry its original 2 rows, got %+v", resp.RowSet)
	}
}

func TestExecuteRecordsHistoryForSuccessAndFailure(t *testing.T) {
	e, sessions := newTestExecutor(t)
	sess, err := sessions.Create("dev", "SNOWGLOBE", "PUBLIC", "COMPUTE_WH", "ACCOUNTADMIN")
	if err != nil {
		t.Fatalf("create session: %v", err)
	}

	mustExec(t, e, sess.Token, "CREATE DATABASE TESTDB")

	if _, err := e.Execute(context.Background(), sess.Token, "CREATE FOOBAR X"); err == nil {
		t.Fatalf("expected unrecognized CREATE target to fail")
	}

	recent := e.history.Recent(10) // newest first
	if len(recent) != 2 {
		t.Fatalf("expected 2 history records, got %d", len(recent))
	}
	if recent[1].Success != true {
		t.Fatalf("expected the older record to be the success: %+v", recent)
	}
	if recent[0].Success {
		t.Fatalf("expected the newest record to be the failure: %+v", recent)
	}
	if recent[0].ErrorCode == "" {
		t.Fatalf("expected failure record to carry an error code")
	}
}

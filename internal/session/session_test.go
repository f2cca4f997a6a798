package session

import (
	"errors"
	"sync"
	"testing"
	"time"

	snowerrors "github.com/snowglobe/snowglobe/internal/errors"
)

func TestCreateThenLookup(t *testing.T) {
	m := NewManager(0)
	sess, err := m.Create("dev", "SNOWGLOBE", "PUBLIC", "COMPUTE_WH", "ACCOUNTADMIN")
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if sess.Token == "" || sess.MasterToken == "" || sess.ID == "" {
		t.Fatalf("expected non-empty identifiers, got %+v", sess)
	}

	got, ok := m.Lookup(sess.Token)
	if !ok {
		t.Fatalf("expected lookup to find the session")
	}
	if got.ID != sess.ID || got.User != "dev" {
		t.Fatalf("lookup returned unexpected session: %+v", got)
	}
}

func TestLookupUnknownTokenFails(t *testing.T) {
	m := NewManager(0)
	if _, ok := m.Lookup("nonexistent"); ok {
		t.Fatalf("expected lookup of unknown token to fail")
	}
}

func TestRenewIssuesFreshTokenKeepingIdentity(t *testing.T) {
	m := NewManager(0)
	sess, err := m.Create("dev", "SNOWGLOBE", "PUBLIC", "COMPUTE_WH", "ACCOUNTADMIN")
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	renewed, err := m.Renew(sess.MasterToken)
	if err != nil {
		t.Fatalf("renew: %v", err)
	}
	if renewed.Token == sess.Token {
		t.Fatalf("expected renew to issue a new token")
	}
	if renewed.ID != sess.ID || renewed.MasterToken != sess.MasterToken {
		t.Fatalf("expected renew to keep session ID and master token stable, got %+v", renewed)
	}

	if _, ok := m.Lookup(sess.Token); ok {
		t.Fatalf("expected the pre-renewal token to no longer resolve")
	}
	if _, ok := m.Lookup(renewed.Token); !ok {
		t.Fatalf("expected the renewed token to resolve")
	}
}

func TestRenewUnknownMasterTokenFails(t *testing.T) {
	m := NewManager(0)
	_, err := m.Renew("nonexistent")
	if snowerrors.CodeOf(err) != snowerrors.Unauthenticated {
		t.Fatalf("expected Unauthenticated, got %v", err)
	}
}

func TestIdleSessionExpiresOnLookup(t *testing.T) {
	m := NewManager(10 * time.Millisecond)
	sess, err := m.Create("dev", "SNOWGLOBE", "PUBLIC", "COMPUTE_WH", "ACCOUNTADMIN")
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	time.Sleep(25 * time.Millisecond)

	if _, ok := m.Lookup(sess.Token); ok {
		t.Fatalf("expected idle session to have expired")
	}
	if _, ok := m.ByID(sess.ID); ok {
		t.Fatalf("expected expired session to be evicted from the ID index too")
	}
}

func TestTouchDefersExpiry(t *testing.T) {
	m := NewManager(30 * time.Millisecond)
	sess, err := m.Create("dev", "SNOWGLOBE", "PUBLIC", "COMPUTE_WH", "ACCOUNTADMIN")
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	time.Sleep(20 * time.Millisecond)
	if _, ok := m.Touch(sess.Token); !ok {
		t.Fatalf("expected touch to find the still-live session")
	}

	time.Sleep(20 * time.Millisecond)
	if _, ok := m.Lookup(sess.Token); !ok {
		t.Fatalf("expected the touch to have deferred expiry past the original window")
	}
}

func TestSweepExpiredEvictsOnlyIdleSessions(t *testing.T) {
	m := NewManager(10 * time.Millisecond)
	stale, err := m.Create("dev", "SNOWGLOBE", "PUBLIC", "COMPUTE_WH", "ACCOUNTADMIN")
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	time.Sleep(20 * time.Millisecond)

	fresh, err := m.Create("dev2", "SNOWGLOBE", "PUBLIC", "COMPUTE_WH", "ACCOUNTADMIN")
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	evicted := m.SweepExpired()
	if evicted != 1 {
		t.Fatalf("expected exactly 1 eviction, got %d", evicted)
	}
	if _, ok := m.ByID(stale.ID); ok {
		t.Fatalf("expected the stale session to be gone")
	}
	if _, ok := m.ByID(fresh.ID); !ok {
		t.Fatalf("expected the fresh session to remain")
	}
}

func TestSweepExpiredDisabledWhenIdleTimeoutIsZero(t *testing.T) {
	m := NewManager(0)
	if _, err := m.Create("dev", "SNOWGLOBE", "PUBLIC", "COMPUTE_WH", "ACCOUNTADMIN"); err != nil {
		t.Fatalf("create: %v", err)
	}
	if evicted := m.SweepExpired(); evicted != 0 {
		t.Fatalf("expected no-op sweep when idleTimeout is 0, got %d evictions", evicted)
	}
}

func TestConcurrentTouchIsRaceFree(t *testing.T) {
	m := NewManager(0)
	sess, err := m.Create("dev", "SNOWGLOBE", "PUBLIC", "COMPUTE_WH", "ACCOUNTADMIN")
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	const workers = 50
	var wg sync.WaitGroup
	errChan := make(chan error, workers)

	wg.Add(workers)
	for i := 0; i < workers; i++ {
		go func() {
			defer wg.Done()
			if _, ok := m.Touch(sess.Token); !ok {
				errChan <- errors.New("touch did not find the session")
			}
		}()
	}
	wg.Wait()
	close(errChan)

	for err := range errChan {
		t.Errorf("concurrent touch failed: %v", err)
	}

	if _, ok := m.Lookup(sess.Token); !ok {
		t.Fatalf("expected session to remain live after concurrent touches")
	}
}

func TestUseSettersUpdateSessionState(t *testing.T) {
	m := NewManager(0)
	sess, err := m.Create("dev", "SNOWGLOBE", "PUBLIC", "COMPUTE_WH", "ACCOUNTADMIN")
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	if ok := m.SetDatabase(sess.Token, "TESTDB"); !ok {
		t.Fatalf("expected SetDatabase to find the session")
	}
	if ok := m.SetSchema(sess.Token, "OTHER"); !ok {
		t.Fatalf("expected SetSchema to find the session")
	}

	got, ok := m.Lookup(sess.Token)
	if !ok {
		t.Fatalf("expected lookup to succeed")
	}
	if got.Database != "TESTDB" || got.Schema != "OTHER" {
		t.Fatalf("expected USE changes to persist, got %+v", got)
	}
}

func TestCloseIsIdempotent(t *testing.T) {
	m := NewManager(0)
	sess, err := m.Create("dev", "SNOWGLOBE", "PUBLIC", "COMPUTE_WH", "ACCOUNTADMIN")
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	m.Close(sess.Token)
	if _, ok := m.Lookup(sess.Token); ok {
		t.Fatalf("expected session to be gone after close")
	}
	m.Close(sess.Token) // closing again must not panic
}

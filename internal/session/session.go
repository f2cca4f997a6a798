// Package session implements the Session Manager: token issuance, renewal,
// and idle expiration for authenticated Snowflake-protocol clients.
package session

import (
	"crypto/rand"
	"encoding/base64"
	"sync"
	"time"

	"github.com/google/uuid"

	snowerrors "github.com/snowglobe/snowglobe/internal/errors"
)

// Session is one authenticated client session.
type Session struct {
	ID          string
	Token       string
	MasterToken string
	User        string
	Database    string
	Schema      string
	Warehouse   string
	Role        string
	CreatedAt   time.Time
	LastTouch   time.Time
}

// snapshot returns a copy safe to hand to callers outside the lock.
func (s *Session) snapshot() *Session {
	cp := *s
	return &cp
}

// Manager owns every live session. Reads (Touch/lookups happening on every
// query) vastly outnumber writes (login/renew/close), so the lock is a
// reader-preferring sync.RWMutex per the concurrency model.
type Manager struct {
	mu          sync.RWMutex
	byToken     map[string]*Session
	byID        map[string]*Session
	idleTimeout time.Duration
}

// NewManager creates a Session Manager. idleTimeout <= 0 means sessions
// never expire from inactivity.
func NewManager(idleTimeout time.Duration) *Manager {
	return &Manager{
		byToken:     make(map[string]*Session),
		byID:        make(map[string]*Session),
		idleTimeout: idleTimeout,
	}
}

// Create opens a new session, returning it with freshly generated token,
// master token, and session ID.
func (m *Manager) Create(user, database, schema, warehouse, role string) (*Session, error) {
	token, err := randomToken()
	if err != nil {
		return nil, snowerrors.Wrap(snowerrors.InternalInconsistency, "failed to generate session token", err)
	}
	masterToken, err := randomToken()
	if err != nil {
		return nil, snowerrors.Wrap(snowerrors.InternalInconsistency, "failed to generate master token", err)
	}

	now := time.Now()
	sess := &Session{
		ID:          uuid.NewString(),
		Token:       token,
		MasterToken: masterToken,
		User:        user,
		Database:    database,
		Schema:      schema,
		Warehouse:   warehouse,
		Role:        role,
		CreatedAt:   now,
		LastTouch:   now,
	}

	m.mu.Lock()
	m.byToken[sess.Token] = sess
	m.byID[sess.ID] = sess
	m.mu.Unlock()

	return sess.snapshot(), nil
}

// randomToken returns a URL-safe base64 string encoding 256 bits of
// crypto/rand output, comfortably above the 128-bit minimum.
func randomToken() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}

// Lookup finds a session by its current token. ok is false if the token is
// unknown or expired (expired sessions are evicted on discovery).
func (m *Manager) Lookup(token string) (*Session, bool) {
	m.mu.RLock()
	sess, found := m.byToken[token]
	m.mu.RUnlock()
	if !found {
		return nil, false
	}
	if m.expired(sess) {
		m.evict(sess)
		return nil, false
	}
	return sess.snapshot(), true
}

// ByID finds a session by session ID, subject to the same expiry rule as
// Lookup.
func (m *Manager) ByID(id string) (*Session, bool) {
	m.mu.RLock()
	sess, found := m.byID[id]
	m.mu.RUnlock()
	if !found {
		return nil, false
	}
	if m.expired(sess) {
		m.evict(sess)
		return nil, false
	}
	return sess.snapshot(), true
}

func (m *Manager) expired(sess *Session) bool {
	if m.idleTimeout <= 0 {
		return false
	}
	m.mu.RLock()
	last := sess.LastTouch
	m.mu.RUnlock()
	return time.Since(last) > m.idleTimeout
}

func (m *Manager) evict(sess *Session) {
	m.mu.Lock()
	delete(m.byToken, sess.Token)
	delete(m.byID, sess.ID)
	m.mu.Unlock()
}

// Touch refreshes a session's last-activity timestamp. Called once per
// inbound request on the session's critical path.
func (m *Manager) Touch(token string) (*Session, bool) {
	m.mu.Lock()
	sess, found := m.byToken[token]
	if !found {
		m.mu.Unlock()
		return nil, false
	}
	sess.LastTouch = time.Now()
	snap := sess.snapshot()
	m.mu.Unlock()
	return snap, true
}

// SetDatabase updates the session's current database (USE DATABASE).
func (m *Manager) SetDatabase(token, database string) bool {
	return m.mutate(token, func(s *Session) { s.Database = database })
}

// SetSchema updates the session's current schema (USE SCHEMA).
func (m *Manager) SetSchema(token, schema string) bool {
	return m.mutate(token, func(s *Session) { s.Schema = schema })
}

// SetWarehouse updates the session's current warehouse (USE WAREHOUSE).
func (m *Manager) SetWarehouse(token, warehouse string) bool {
	return m.mutate(token, func(s *Session) { s.Warehouse = warehouse })
}

// SetRole updates the session's current role (USE ROLE).
func (m *Manager) SetRole(token, role string) bool {
	return m.mutate(token, func(s *Session) { s.Role = role })
}

func (m *Manager) mutate(token string, fn func(*Session)) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	sess, found := m.byToken[token]
	if !found {
		return false
	}
	fn(sess)
	return true
}

// Renew issues a fresh token for a session identified by its master token,
// matching Snowflake's login-request:renew semantics. The session ID and
// master token are unchanged.
func (m *Manager) Renew(masterToken string) (*Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var target *Session
	for _, sess := range m.byID {
		if sess.MasterToken == masterToken {
			target = sess
			break
		}
	}
	if target == nil {
		return nil, snowerrors.New(snowerrors.Unauthenticated, "master token not recognized")
	}

	newToken, err := randomToken()
	if err != nil {
		return nil, snowerrors.Wrap(snowerrors.InternalInconsistency, "failed to generate renewed token", err)
	}

	delete(m.byToken, target.Token)
	target.Token = newToken
	target.LastTouch = time.Now()
	m.byToken[newToken] = target

	return target.snapshot(), nil
}

// Close ends a session by token, removing it from both indexes. Closing an
// unknown token is not an error — it is treated as already-closed.
func (m *Manager) Close(token string) {
	m.mu.Lock()
	if sess, found := m.byToken[token]; found {
		delete(m.byToken, sess.Token)
		delete(m.byID, sess.ID)
	}
	m.mu.Unlock()
}

// List returns a snapshot of every live session, for the operator surface.
func (m *Manager) List() []*Session {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]*Session, 0, len(m.byID))
	for _, sess := range m.byID {
		out = append(out, sess.snapshot())
	}
	return out
}

// Count returns the number of currently tracked sessions (not accounting
// for idle expiry not yet discovered).
func (m *Manager) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.byID)
}

// SweepExpired removes every idle-expired session and returns how many
// were evicted. Intended to be called periodically from a background
// goroutine when idleTimeout > 0.
func (m *Manager) SweepExpired() int {
	if m.idleTimeout <= 0 {
		return 0
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	evicted := 0
	for id, sess := range m.byID {
		if time.Since(sess.LastTouch) > m.idleTimeout {
			delete(m.byID, id)
			delete(m.byToken, sess.Token)
			evicted++
		}
	}
	return evicted
}

// Package worksheet implements the optional worksheet surface: named,
// persisted SQL snippets the operator UI lists and edits, independent of
// any session. Persistence follows the Catalog's whole-state JSON
// snapshot discipline (internal/catalog/store.go): write to a temp file
// in the same directory, fsync, rename.
package worksheet

import (
	"sync"
	"time"

	"github.com/google/uuid"

	snowerrors "github.com/snowglobe/snowglobe/internal/errors"
)

// Worksheet is one saved SQL snippet.
type Worksheet struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	SQLText   string    `json:"sqlText"`
	Database  string    `json:"database,omitempty"`
	Schema    string    `json:"schema,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func (w *Worksheet) snapshot() *Worksheet {
	cp := *w
	return &cp
}

// Store owns every worksheet, guarded by a single exclusive lock held for
// the duration of both the in-memory change and the persistence write, the
// same discipline the Catalog uses.
type Store struct {
	mu    sync.RWMutex
	items map[string]*Worksheet
	store *fileStore
}

// New creates a Store backed by path for persistence. An empty path
// disables persistence (used by tests).
func New(path string) *Store {
	return &Store{
		items: make(map[string]*Worksheet),
		store: newFileStore(path),
	}
}

// Load reads the persisted snapshot, if any. A missing or invalid file is
// not an error: the store starts empty.
func (s *Store) Load() error {
	items, err := s.store.load()
	if err != nil {
		return nil
	}
	if items == nil {
		return nil
	}
	s.mu.Lock()
	s.items = items
	s.mu.Unlock()
	return nil
}

func (s *Store) persist() error {
	return s.store.save(s.items)
}

// List returns every worksheet, newest-updated first.
func (s *Store) List() []*Worksheet {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*Worksheet, 0, len(s.items))
	for _, w := range s.items {
		out = append(out, w.snapshot())
	}
	for i := 0; i < len(out); i++ {
		for j := i + 1; j < len(out); j++ {
			if out[j].UpdatedAt.After(out[i].UpdatedAt) {
				out[i], out[j] = out[j], out[i]
			}
		}
	}
	return out
}

// Get returns the worksheet with the given ID.
func (s *Store) Get(id string) (*Worksheet, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	w, ok := s.items[id]
	if !ok {
		return nil, false
	}
	return w.snapshot(), true
}

// Create adds a new worksheet and persists the store.
func (s *Store) Create(name, sqlText, database, schema string) (*Worksheet, error) {
	now := time.Now().UTC()
	w := &Worksheet{
		ID:        uuid.NewString(),
		Name:      name,
		SQLText:   sqlText,
		Database:  database,
		Schema:    schema,
		CreatedAt: now,
		UpdatedAt: now,
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.items[w.ID] = w
	if err := s.persist(); err != nil {
		delete(s.items, w.ID)
		return nil, snowerrors.Wrap(snowerrors.InternalInconsistency, "failed to persist worksheet", err)
	}
	return w.snapshot(), nil
}

// Update replaces a worksheet's name and/or text. Either may be empty to
// leave the existing value unchanged.
func (s *Store) Update(id, name, sqlText string) (*Worksheet, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	w, ok := s.items[id]
	if !ok {
		return nil, snowerrors.Newf(snowerrors.NotFound, "worksheet %q does not exist", id)
	}

	prev := *w
	if name != "" {
		w.Name = name
	}
	if sqlText != "" {
		w.SQLText = sqlText
	}
	w.UpdatedAt = time.Now().UTC()

	if err := s.persist(); err != nil {
		s.items[id] = &prev
		return nil, snowerrors.Wrap(snowerrors.InternalInconsistency, "failed to persist worksheet", err)
	}
	return w.snapshot(), nil
}

// Delete removes a worksheet. Deleting an unknown ID is not an error.
func (s *Store) Delete(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	removed, existed := s.items[id]
	delete(s.items, id)

	if err := s.persist(); err != nil {
		if existed {
			s.items[id] = removed
		}
		return snowerrors.Wrap(snowerrors.InternalInconsistency, "failed to persist worksheet", err)
	}
	return nil
}

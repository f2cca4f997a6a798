// Package catalog implements the Catalog (Metadata Store): the namespace
// of live and dropped databases, schemas, tables, and views, durably
// persisted as a whole-state JSON snapshot.
package catalog

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	snowerrors "github.com/snowglobe/snowglobe/internal/errors"
	"github.com/snowglobe/snowglobe/internal/observability"
)

// Catalog owns every database, schema, table, view, and their tombstones.
// All mutations hold the single exclusive lock for the duration of the
// in-memory change and the persistence write, so readers never observe
// partial state.
type Catalog struct {
	mu sync.RWMutex

	databases map[string]*Database
	schemas   map[string]*Schema
	tables    map[string]*Table
	views     map[string]*View

	dbTombstones     map[string][]*Tombstone
	schemaTombstones map[string][]*Tombstone
	tableTombstones  map[string][]*Tombstone
	viewTombstones   map[string][]*Tombstone

	store *store
	sink  observability.Sink
}

// New creates an empty Catalog backed by path for persistence. If path is
// empty, mutations still succeed but nothing is persisted (used by tests).
func New(path string, sink observability.Sink) *Catalog {
	if sink == nil {
		sink = observability.NoopSink{}
	}
	return &Catalog{
		databases:        make(map[string]*Database),
		schemas:          make(map[string]*Schema),
		tables:           make(map[string]*Table),
		views:            make(map[string]*View),
		dbTombstones:     make(map[string][]*Tombstone),
		schemaTombstones: make(map[string][]*Tombstone),
		tableTombstones:  make(map[string][]*Tombstone),
		viewTombstones:   make(map[string][]*Tombstone),
		store:            newStore(path),
		sink:             sink,
	}
}

// Load reads the persisted snapshot, if any. A missing or invalid file is
// not an error: the catalog starts empty and the condition is logged.
func (c *Catalog) Load() error {
	snap, err := c.store.load()
	if err != nil {
		c.sink.Log("catalog", observability.LevelWarn, "catalog snapshot missing or invalid, starting empty: %v", err)
		return nil
	}
	if snap == nil {
		return nil
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	c.databases = snap.Databases
	c.schemas = snap.Schemas
	c.tables = snap.Tables
	c.views = snap.Views
	c.dbTombstones = orEmpty(snap.DBTombstones)
	c.schemaTombstones = orEmpty(snap.SchemaTombstones)
	c.tableTombstones = orEmpty(snap.TableTombstones)
	c.viewTombstones = orEmpty(snap.ViewTombstones)
	return nil
}

func orEmpty(m map[string][]*Tombstone) map[string][]*Tombstone {
	if m == nil {
		return make(map[string][]*Tombstone)
	}
	return m
}

// persist must be called while c.mu is held for writing.
func (c *Catalog) persist() error {
	snap := &snapshot{
		Databases:        c.databases,
		Schemas:          c.schemas,
		Tables:           c.tables,
		Views:            c.views,
		DBTombstones:     c.dbTombstones,
		SchemaTombstones: c.schemaTombstones,
		TableTombstones:  c.tableTombstones,
		ViewTombstones:   c.viewTombstones,
	}
	return c.store.save(snap)
}

// --- Databases ---------------------------------------------------------

// CreateDatabaseOpts carries the optional arguments to CreateDatabase.
type CreateDatabaseOpts struct {
	IfNotExists bool
	Transient   bool
	Comment     string
}

// CreateDatabase adds a new live database.
func (c *Catalog) CreateDatabase(name string, opts CreateDatabaseOpts) error {
	name = Normalize(name)

	c.mu.Lock()
	defer c.mu.Unlock()

	if _, exists := c.databases[name]; exists {
		if opts.IfNotExists {
			return nil
		}
		return snowerrors.Newf(snowerrors.AlreadyExists, "database %s already exists", name)
	}

	c.databases[name] = &Database{
		Name:      name,
		CreatedAt: time.Now(),
		Comment:   opts.Comment,
		Transient: opts.Transient,
	}
	return c.persist()
}

// DropDatabaseOpts carries the optional arguments to DropDatabase.
type DropDatabaseOpts struct {
	IfExists bool
	Cascade  bool
}

// DropDatabase moves a database (and, with Cascade, its schemas/tables/
// views) from live to tombstone state.
func (c *Catalog) DropDatabase(name string, opts DropDatabaseOpts) error {
	name = Normalize(name)

	c.mu.Lock()
	defer c.mu.Unlock()

	db, exists := c.databases[name]
	if !exists {
		if opts.IfExists {
			return nil
		}
		return snowerrors.Newf(snowerrors.NotFound, "database %s does not exist", name)
	}

	hasChildren := false
	for key := range c.schemas {
		if schemaDB(key) == name {
			hasChildren = true
			break
		}
	}
	if hasChildren && !opts.Cascade {
		return snowerrors.Newf(snowerrors.NotEmpty, "database %s is not empty", name)
	}

	if hasChildren {
		for key, schema := range c.schemas {
			if schemaDB(key) != name {
				continue
			}
			c.dropSchemaLocked(schema.Database, schema.Name)
		}
	}

	delete(c.databases, name)
	c.dbTombstones[name] = append(c.dbTombstones[name], &Tombstone{
		FQName:    name,
		Kind:      KindDatabase,
		DroppedAt: time.Now(),
		Database:  db,
	})
	return c.persist()
}

// UndropDatabase restores the most recent database tombstone, failing if a
// live database with the same name already exists.
func (c *Catalog) UndropDatabase(name string) error {
	name = Normalize(name)

	c.mu.Lock()
	defer c.mu.Unlock()

	if _, exists := c.databases[name]; exists {
		return snowerrors.Newf(snowerrors.NameInUse, "database %s already exists", name)
	}

	stack := c.dbTombstones[name]
	if len(stack) == 0 {
		return snowerrors.Newf(snowerrors.NotFound, "no dropped database named %s", name)
	}

	top := stack[len(stack)-1]
	c.dbTombstones[name] = stack[:len(stack)-1]
	c.databases[name] = top.Database
	return c.persist()
}

func schemaDB(schemaFQ string) string {
	db, _, _ := splitTwo(schemaFQ)
	return db
}

func splitTwo(s string) (a, b string) {
	for i := 0; i < len(s); i++ {
		if s[i] == '.' {
			return s[:i], s[i+1:]
		}
	}
	return s, ""
}

// --- Schemas -------------------------------------------------------------

// CreateSchema adds a new live schema within an existing database.
func (c *Catalog) CreateSchema(db, name string, ifNotExists bool) error {
	db, name = Normalize(db), Normalize(name)

	c.mu.Lock()
	defer c.mu.Unlock()

	if _, exists := c.databases[db]; !exists {
		return snowerrors.Newf(snowerrors.NotFound, "database %s does not exist", db)
	}

	key := SchemaFQName(db, name)
	if _, exists := c.schemas[key]; exists {
		if ifNotExists {
			return nil
		}
		return snowerrors.Newf(snowerrors.AlreadyExists, "schema %s already exists", key)
	}

	c.schemas[key] = &Schema{Database: db, Name: name, CreatedAt: time.Now()}
	return c.persist()
}

// DropSchema moves a schema (and, with cascade, its tables/views) to
// tombstone state.
func (c *Catalog) DropSchema(db, name string, ifExists, cascade bool) error {
	db, name = Normalize(db), Normalize(name)

	c.mu.Lock()
	defer c.mu.Unlock()

	key := SchemaFQName(db, name)
	if _, exists := c.schemas[key]; !exists {
		if ifExists {
			return nil
		}
		return snowerrors.Newf(snowerrors.NotFound, "schema %s does not exist", key)
	}

	hasChildren := c.schemaHasChildrenLocked(db, name)
	if hasChildren && !cascade {
		return snowerrors.Newf(snowerrors.NotEmpty, "schema %s is not empty", key)
	}

	c.dropSchemaLocked(db, name)
	return c.persist()
}

func (c *Catalog) schemaHasChildrenLocked(db, schema string) bool {
	prefix := db + "." + schema + "."
	for key := range c.tables {
		if hasPrefix(key, prefix) {
			return true
		}
	}
	for key := range c.views {
		if hasPrefix(key, prefix) {
			return true
		}
	}
	return false
}

func hasPrefix(s, prefix string) bool {
	return len(s) >= len(prefix) && s[:len(prefix)] == prefix
}

// dropSchemaLocked tombstones a schema and (cascading) its tables/views.
// Caller must hold c.mu for writing.
func (c *Catalog) dropSchemaLocked(db, name string) {
	key := SchemaFQName(db, name)
	schema := c.schemas[key]

	prefix := db + "." + name + "."
	for objKey, table := range c.tables {
		if !hasPrefix(objKey, prefix) {
			continue
		}
		delete(c.tables, objKey)
		c.tableTombstones[objKey] = append(c.tableTombstones[objKey], &Tombstone{
			FQName: objKey, Kind: KindTable, DroppedAt: time.Now(), Table: table,
		})
	}
	for objKey, view := range c.views {
		if !hasPrefix(objKey, prefix) {
			continue
		}
		delete(c.views, objKey)
		c.viewTombstones[objKey] = append(c.viewTombstones[objKey], &Tombstone{
			FQName: objKey, Kind: KindView, DroppedAt: time.Now(), View: view,
		})
	}

	delete(c.schemas, key)
	c.schemaTombstones[key] = append(c.schemaTombstones[key], &Tombstone{
		FQName: key, Kind: KindSchema, DroppedAt: time.Now(), Schema: schema,
	})
}

// UndropSchema restores the most recent schema tombstone.
func (c *Catalog) UndropSchema(db, name string) error {
	db, name = Normalize(db), Normalize(name)
	key := SchemaFQName(db, name)

	c.mu.Lock()
	defer c.mu.Unlock()

	if _, exists := c.schemas[key]; exists {
		return snowerrors.Newf(snowerrors.NameInUse, "schema %s already exists", key)
	}
	stack := c.schemaTombstones[key]
	if len(stack) == 0 {
		return snowerrors.Newf(snowerrors.NotFound, "no dropped schema named %s", key)
	}

	top := stack[len(stack)-1]
	c.schemaTombstones[key] = stack[:len(stack)-1]
	c.schemas[key] = top.Schema
	return c.persist()
}

// --- Tables --------------------------------------------------------------

// CreateTable performs the two-phase commit described by the concurrency
// model: the engine relation is created first; only on engine success is
// the catalog record added and persisted. If persistence fails, the
// engine relation is rolled back (dropped); if that rollback itself
// fails, the table is recorded as orphaned and InternalInconsistency is
// returned.
//
// If orReplace is set and a live table already occupies name, the
// existing relation is renamed aside and the existing record moved to
// tombstone before the replacement is created, mirroring CreateView and
// the "replaced object is moved to tombstone" rule that governs UNDROP.
func (c *Catalog) CreateTable(ctx context.Context, db, schema, name string, columns []Column, ifNotExists, orReplace bool, engine Engine) error {
	db, schema, name = Normalize(db), Normalize(schema), Normalize(name)
	schemaKey := SchemaFQName(db, schema)
	key := ObjectFQName(db, schema, name)

	c.mu.Lock()
	defer c.mu.Unlock()

	if _, exists := c.schemas[schemaKey]; !exists {
		return snowerrors.Newf(snowerrors.NotFound, "schema %s does not exist", schemaKey)
	}

	var replaced *Table
	if existing, exists := c.tables[key]; exists {
		switch {
		case orReplace:
			replaced = existing
		case ifNotExists:
			return nil
		default:
			return snowerrors.Newf(snowerrors.AlreadyExists, "table %s already exists", key)
		}
	}

	relationID := key
	if replaced != nil {
		// Move the replaced relation's data aside instead of dropping it;
		// its record goes onto the tombstone stack below.
		asideID := key + "$replaced$" + uuid.NewString()
		if err := engine.RenameRelation(ctx, replaced.RelationID, asideID); err != nil {
			return snowerrors.WrapEngine(err)
		}
		replaced.RelationID = asideID
	}

	if err := engine.CreateRelation(ctx, relationID, columns); err != nil {
		if replaced != nil {
			if rbErr := engine.RenameRelation(ctx, replaced.RelationID, key); rbErr != nil {
				return snowerrors.Wrap(snowerrors.InternalInconsistency, "replace rollback failed; object orphaned", rbErr)
			}
			replaced.RelationID = key
		}
		return snowerrors.WrapEngine(err)
	}

	if replaced != nil {
		c.tableTombstones[key] = append(c.tableTombstones[key], &Tombstone{
			FQName: key, Kind: KindTable, DroppedAt: time.Now(), Table: replaced,
		})
	}
	c.tables[key] = &Table{
		Database: db, Schema: schema, Name: name,
		Columns: columns, CreatedAt: time.Now(), RelationID: relationID,
	}

	if err := c.persist(); err != nil {
		if rbErr := engine.DropRelation(ctx, relationID); rbErr != nil {
			delete(c.tables, key)
			return snowerrors.Wrap(snowerrors.InternalInconsistency,
				"catalog persistence failed and engine rollback also failed; object orphaned", err)
		}
		delete(c.tables, key)
		if replaced != nil {
			stack := c.tableTombstones[key]
			c.tableTombstones[key] = stack[:len(stack)-1]
			if rbErr := engine.RenameRelation(ctx, replaced.RelationID, key); rbErr != nil {
				return snowerrors.Wrap(snowerrors.InternalInconsistency,
					"catalog persistence failed and replace rollback also failed; object orphaned", err)
			}
			replaced.RelationID = key
			c.tables[key] = replaced
		}
		return snowerrors.Wrap(snowerrors.InternalInconsistency, "catalog persistence failed after engine commit", err)
	}
	return nil
}

// RecordTable registers a table whose engine relation already exists
// (used by CREATE TABLE ... AS SELECT, where the engine creates the
// relation and reports back the resulting column list).
func (c *Catalog) RecordTable(db, schema, name string, columns []Column, relationID string) error {
	db, schema, name = Normalize(db), Normalize(schema), Normalize(name)
	key := ObjectFQName(db, schema, name)

	c.mu.Lock()
	defer c.mu.Unlock()

	c.tables[key] = &Table{
		Database: db, Schema: schema, Name: name,
		Columns: columns, CreatedAt: time.Now(), RelationID: relationID,
	}
	return c.persist()
}

// DropTable moves a table to tombstone state. The underlying engine
// relation is left intact (per the data model: "underlying relation data
// intact"), so no engine call is required here — UndropTable can restore
// visibility without recreating anything.
func (c *Catalog) DropTable(db, schema, name string, ifExists bool) error {
	db, schema, name = Normalize(db), Normalize(schema), Normalize(name)
	key := ObjectFQName(db, schema, name)

	c.mu.Lock()
	defer c.mu.Unlock()

	table, exists := c.tables[key]
	if !exists {
		if ifExists {
			return nil
		}
		return snowerrors.Newf(snowerrors.NotFound, "table %s does not exist", key)
	}

	delete(c.tables, key)
	c.tableTombstones[key] = append(c.tableTombstones[key], &Tombstone{
		FQName: key, Kind: KindTable, DroppedAt: time.Now(), Table: table,
	})
	return c.persist()
}

// UndropTable restores the most recent table tombstone, failing with
// NameInUse if a live object has since taken the name.
func (c *Catalog) UndropTable(db, schema, name string) error {
	db, schema, name = Normalize(db), Normalize(schema), Normalize(name)
	key := ObjectFQName(db, schema, name)

	c.mu.Lock()
	defer c.mu.Unlock()

	if _, exists := c.tables[key]; exists {
		return snowerrors.Newf(snowerrors.NameInUse, "table %s already exists", key)
	}
	stack := c.tableTombstones[key]
	if len(stack) == 0 {
		return snowerrors.Newf(snowerrors.NotFound, "no dropped table named %s", key)
	}

	top := stack[len(stack)-1]
	c.tableTombstones[key] = stack[:len(stack)-1]
	c.tables[key] = top.Table
	return c.persist()
}

// TruncateTable empties the underlying relation via the engine and resets
// row_count to zero. Tombstones are untouched (TRUNCATE never creates
// one; this is a data-only operation).
func (c *Catalog) TruncateTable(ctx context.Context, db, schema, name string, engine Engine) error {
	db, schema, name = Normalize(db), Normalize(schema), Normalize(name)
	key := ObjectFQName(db, schema, name)

	c.mu.Lock()
	defer c.mu.Unlock()

	table, exists := c.tables[key]
	if !exists {
		return snowerrors.Newf(snowerrors.NotFound, "table %s does not exist", key)
	}

	if err := engine.TruncateRelation(ctx, table.RelationID); err != nil {
		return snowerrors.WrapEngine(err)
	}

	table.RowCount = 0
	return c.persist()
}

// RenameTable updates both the catalog record and the underlying engine
// relation name.
func (c *Catalog) RenameTable(ctx context.Context, db, schema, oldName, newName string, engine Engine) error {
	db, schema, oldName, newName = Normalize(db), Normalize(schema), Normalize(oldName), Normalize(newName)
	oldKey := ObjectFQName(db, schema, oldName)
	newKey := ObjectFQName(db, schema, newName)

	c.mu.Lock()
	defer c.mu.Unlock()

	table, exists := c.tables[oldKey]
	if !exists {
		return snowerrors.Newf(snowerrors.NotFound, "table %s does not exist", oldKey)
	}
	if _, exists := c.tables[newKey]; exists {
		return snowerrors.Newf(snowerrors.AlreadyExists, "table %s already exists", newKey)
	}

	oldRelationID := table.RelationID
	newRelationID := newKey
	if err := engine.RenameRelation(ctx, oldRelationID, newRelationID); err != nil {
		return snowerrors.WrapEngine(err)
	}

	delete(c.tables, oldKey)
	table.Name = newName
	table.RelationID = newRelationID
	c.tables[newKey] = table

	if err := c.persist(); err != nil {
		if rbErr := engine.RenameRelation(ctx, newRelationID, oldRelationID); rbErr != nil {
			return snowerrors.Wrap(snowerrors.InternalInconsistency, "rename rollback failed; object orphaned", err)
		}
		delete(c.tables, newKey)
		table.Name = oldName
		table.RelationID = oldRelationID
		c.tables[oldKey] = table
		return snowerrors.Wrap(snowerrors.InternalInconsistency, "catalog persistence failed after engine rename", err)
	}
	return nil
}

// CloneTable creates dst as a new table with src's schema and a full row
// copy, per CLONE semantics.
func (c *Catalog) CloneTable(ctx context.Context, srcDB, srcSchema, srcName, dstDB, dstSchema, dstName string, engine Engine) error {
	srcDB, srcSchema, srcName = Normalize(srcDB), Normalize(srcSchema), Normalize(srcName)
	dstDB, dstSchema, dstName = Normalize(dstDB), Normalize(dstSchema), Normalize(dstName)
	srcKey := ObjectFQName(srcDB, srcSchema, srcName)
	dstKey := ObjectFQName(dstDB, dstSchema, dstName)

	c.mu.Lock()
	defer c.mu.Unlock()

	src, exists := c.tables[srcKey]
	if !exists {
		return snowerrors.Newf(snowerrors.NotFound, "table %s does not exist", srcKey)
	}
	if _, exists := c.tables[dstKey]; exists {
		return snowerrors.Newf(snowerrors.AlreadyExists, "table %s already exists", dstKey)
	}

	if err := engine.CloneRelation(ctx, src.RelationID, dstKey); err != nil {
		return snowerrors.WrapEngine(err)
	}

	cols := make([]Column, len(src.Columns))
	copy(cols, src.Columns)
	c.tables[dstKey] = &Table{
		Database: dstDB, Schema: dstSchema, Name: dstName,
		Columns: cols, CreatedAt: time.Now(), RelationID: dstKey, RowCount: src.RowCount,
	}

	if err := c.persist(); err != nil {
		if rbErr := engine.DropRelation(ctx, dstKey); rbErr != nil {
			return snowerrors.Wrap(snowerrors.InternalInconsistency, "clone rollback failed; object orphaned", err)
		}
		delete(c.tables, dstKey)
		return snowerrors.Wrap(snowerrors.InternalInconsistency, "catalog persistence failed after engine clone", err)
	}
	return nil
}

// --- Views -----------------------------------------------------------------

// CreateView adds a new live view; the definition is stored verbatim and
// is not executed here (the engine materializes it lazily on reference).
func (c *Catalog) CreateView(db, schema, name, selectSQL string, secure, orReplace bool) error {
	db, schema, name = Normalize(db), Normalize(schema), Normalize(name)
	schemaKey := SchemaFQName(db, schema)
	key := ObjectFQName(db, schema, name)

	c.mu.Lock()
	defer c.mu.Unlock()

	if _, exists := c.schemas[schemaKey]; !exists {
		return snowerrors.Newf(snowerrors.NotFound, "schema %s does not exist", schemaKey)
	}

	if existing, exists := c.views[key]; exists {
		if !orReplace {
			return snowerrors.Newf(snowerrors.AlreadyExists, "view %s already exists", key)
		}
		c.viewTombstones[key] = append(c.viewTombstones[key], &Tombstone{
			FQName: key, Kind: KindView, DroppedAt: time.Now(), View: existing,
		})
	}

	c.views[key] = &View{
		Database: db, Schema: schema, Name: name,
		SelectSQL: selectSQL, Secure: secure, CreatedAt: time.Now(),
	}
	return c.persist()
}

// DropView moves a view to tombstone state.
func (c *Catalog) DropView(db, schema, name string, ifExists bool) error {
	db, schema, name = Normalize(db), Normalize(schema), Normalize(name)
	key := ObjectFQName(db, schema, name)

	c.mu.Lock()
	defer c.mu.Unlock()

	view, exists := c.views[key]
	if !exists {
		if ifExists {
			return nil
		}
		return snowerrors.Newf(snowerrors.NotFound, "view %s does not exist", key)
	}

	delete(c.views, key)
	c.viewTombstones[key] = append(c.viewTombstones[key], &Tombstone{
		FQName: key, Kind: KindView, DroppedAt: time.Now(), View: view,
	})
	return c.persist()
}

// UndropView restores the most recent view tombstone.
func (c *Catalog) UndropView(db, schema, name string) error {
	db, schema, name = Normalize(db), Normalize(schema), Normalize(name)
	key := ObjectFQName(db, schema, name)

	c.mu.Lock()
	defer c.mu.Unlock()

	if _, exists := c.views[key]; exists {
		return snowerrors.Newf(snowerrors.NameInUse, "view %s already exists", key)
	}
	stack := c.viewTombstones[key]
	if len(stack) == 0 {
		return snowerrors.Newf(snowerrors.NotFound, "no dropped view named %s", key)
	}

	top := stack[len(stack)-1]
	c.viewTombstones[key] = stack[:len(stack)-1]
	c.views[key] = top.View
	return c.persist()
}

// --- Reads -------------------------------------------------------------

// GetTable returns a copy of the live table record, if any.
func (c *Catalog) GetTable(db, schema, name string) (*Table, bool) {
	key := ObjectFQName(Normalize(db), Normalize(schema), Normalize(name))
	c.mu.RLock()
	defer c.mu.RUnlock()
	t, ok := c.tables[key]
	if !ok {
		return nil, false
	}
	cp := *t
	return &cp, true
}

// GetView returns a copy of the live view record, if any.
func (c *Catalog) GetView(db, schema, name string) (*View, bool) {
	key := ObjectFQName(Normalize(db), Normalize(schema), Normalize(name))
	c.mu.RLock()
	defer c.mu.RUnlock()
	v, ok := c.views[key]
	if !ok {
		return nil, false
	}
	cp := *v
	return &cp, true
}

// DatabaseExists reports whether a live database with this name exists.
func (c *Catalog) DatabaseExists(name string) bool {
	name = Normalize(name)
	c.mu.RLock()
	defer c.mu.RUnlock()
	_, ok := c.databases[name]
	return ok
}

// SchemaExists reports whether a live schema exists.
func (c *Catalog) SchemaExists(db, schema string) bool {
	key := SchemaFQName(Normalize(db), Normalize(schema))
	c.mu.RLock()
	defer c.mu.RUnlock()
	_, ok := c.schemas[key]
	return ok
}

// ListDatabases returns live databases ordered by creation time ascending,
// then name ascending.
func (c *Catalog) ListDatabases() []*Database {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]*Database, 0, len(c.databases))
	for _, db := range c.databases {
		cp := *db
		out = append(out, &cp)
	}
	sortByCreatedThenName(out, func(i int) (time.Time, string) { return out[i].CreatedAt, out[i].Name })
	return out
}

// ListSchemas returns live schemas within db.
func (c *Catalog) ListSchemas(db string) []*Schema {
	db = Normalize(db)
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]*Schema, 0)
	for key, schema := range c.schemas {
		if schemaDB(key) != db {
			continue
		}
		cp := *schema
		out = append(out, &cp)
	}
	sortByCreatedThenName(out, func(i int) (time.Time, string) { return out[i].CreatedAt, out[i].Name })
	return out
}

// ListTables returns live tables within db.schema.
func (c *Catalog) ListTables(db, schema string) []*Table {
	db, schema = Normalize(db), Normalize(schema)
	prefix := db + "." + schema + "."
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]*Table, 0)
	for key, table := range c.tables {
		if !hasPrefix(key, prefix) {
			continue
		}
		cp := *table
		out = append(out, &cp)
	}
	sortByCreatedThenName(out, func(i int) (time.Time, string) { return out[i].CreatedAt, out[i].Name })
	return out
}

// ListViews returns live views within db.schema.
func (c *Catalog) ListViews(db, schema string) []*View {
	db, schema = Normalize(db), Normalize(schema)
	prefix := db + "." + schema + "."
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]*View, 0)
	for key, view := range c.views {
		if !hasPrefix(key, prefix) {
			continue
		}
		cp := *view
		out = append(out, &cp)
	}
	sortByCreatedThenName(out, func(i int) (time.Time, string) { return out[i].CreatedAt, out[i].Name })
	return out
}

// ListDroppedTables returns table tombstones within db.schema, most
// recently dropped last per name, flattened across names.
func (c *Catalog) ListDroppedTables(db, schema string) []*Tombstone {
	db, schema = Normalize(db), Normalize(schema)
	prefix := db + "." + schema + "."
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]*Tombstone, 0)
	for key, stack := range c.tableTombstones {
		if !hasPrefix(key, prefix) {
			continue
		}
		for _, ts := range stack {
			cp := *ts
			out = append(out, &cp)
		}
	}
	sortTombstones(out)
	return out
}

// ListDroppedDatabases returns database tombstones.
func (c *Catalog) ListDroppedDatabases() []*Tombstone {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]*Tombstone, 0)
	for _, stack := range c.dbTombstones {
		for _, ts := range stack {
			cp := *ts
			out = append(out, &cp)
		}
	}
	sortTombstones(out)
	return out
}

// ListDroppedSchemas returns schema tombstones within db.
func (c *Catalog) ListDroppedSchemas(db string) []*Tombstone {
	db = Normalize(db)
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]*Tombstone, 0)
	for key, stack := range c.schemaTombstones {
		if schemaDB(key) != db {
			continue
		}
		for _, ts := range stack {
			cp := *ts
			out = append(out, &cp)
		}
	}
	sortTombstones(out)
	return out
}

// ListDroppedViews returns view tombstones within db.schema.
func (c *Catalog) ListDroppedViews(db, schema string) []*Tombstone {
	db, schema = Normalize(db), Normalize(schema)
	prefix := db + "." + schema + "."
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]*Tombstone, 0)
	for key, stack := range c.viewTombstones {
		if !hasPrefix(key, prefix) {
			continue
		}
		for _, ts := range stack {
			cp := *ts
			out = append(out, &cp)
		}
	}
	sortTombstones(out)
	return out
}

func sortTombstones(ts []*Tombstone) {
	for i := 1; i < len(ts); i++ {
		for j := i; j > 0 && ts[j-1].DroppedAt.After(ts[j].DroppedAt); j-- {
			ts[j-1], ts[j] = ts[j], ts[j-1]
		}
	}
}

func sortByCreatedThenName[T any](items []T, key func(i int) (time.Time, string)) {
	for i := 1; i < len(items); i++ {
		for j := i; j > 0; j-- {
			t1, n1 := key(j - 1)
			t2, n2 := key(j)
			if t1.Before(t2) || (t1.Equal(t2) && n1 <= n2) {
				break
			}
			items[j-1], items[j] = items[j], items[j-1]
		}
	}
}

package catalog

import "time"

// Column describes one column of a Table.
type Column struct {
	Name       string `json:"name"`
	Type       string `json:"type"`
	Nullable   bool   `json:"nullable"`
	PrimaryKey bool   `json:"primaryKey,omitempty"`
}

// Database is a top-level namespace owning schemas.
type Database struct {
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"createdAt"`
	Comment   string    `json:"comment,omitempty"`
	Transient bool      `json:"transient,omitempty"`
}

// Schema is owned by a Database and owns tables and views.
type Schema struct {
	Database  string    `json:"database"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"createdAt"`
}

// Table is owned by a Schema; RelationID names the underlying engine
// relation, which persists across DROP/UNDROP.
type Table struct {
	Database   string    `json:"database"`
	Schema     string    `json:"schema"`
	Name       string    `json:"name"`
	Columns    []Column  `json:"columns"`
	CreatedAt  time.Time `json:"createdAt"`
	RowCount   int64     `json:"rowCount"`
	RelationID string    `json:"relationId"`
}

// View is owned by a Schema; its definition is stored verbatim and
// materialized into the engine lazily, on first reference.
type View struct {
	Database  string    `json:"database"`
	Schema    string    `json:"schema"`
	Name      string    `json:"name"`
	SelectSQL string    `json:"selectSql"`
	Secure    bool      `json:"secure,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}

// Kind identifies the catalog object kind for dispatch/listing purposes.
type Kind string

const (
	KindDatabase Kind = "DATABASE"
	KindSchema   Kind = "SCHEMA"
	KindTable    Kind = "TABLE"
	KindView     Kind = "VIEW"
)

// Tombstone records a previously live object, retained so UNDROP can
// restore it. Most-recent tombstone for a name is last in its stack.
type Tombstone struct {
	FQName    string      `json:"fqName"`
	Kind      Kind        `json:"kind"`
	DroppedAt time.Time   `json:"droppedAt"`
	Database  *Database   `json:"database,omitempty"`
	Schema    *Schema     `json:"schema,omitempty"`
	Table     *Table      `json:"table,omitempty"`
	View      *View       `json:"view,omitempty"`
}

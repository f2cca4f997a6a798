package executor

import (
	"context"
	"fmt"

	"github.com/snowglobe/snowglobe/internal/catalog"
	snowerrors "github.com/snowglobe/snowglobe/internal/errors"
	"github.com/snowglobe/snowglobe/internal/session"
	"github.com/snowglobe/snowglobe/internal/sql"
)

func (e *Executor) dispatchDirective(ctx context.Context, sess *session.Session, d *sql.Directive, queryID string) (*Response, error) {
	typeID := sql.StatementTypeID(d, false)

	switch d.Verb {
	case sql.VerbCreate:
		return e.handleCreate(ctx, sess, d, queryID, typeID)
	case sql.VerbDrop:
		return e.handleDrop(sess, d, queryID, typeID)
	case sql.VerbUndrop:
		return e.handleUndrop(sess, d, queryID, typeID)
	case sql.VerbAlter:
		return e.handleAlter(ctx, sess, d, queryID, typeID)
	case sql.VerbTruncate:
		return e.handleTruncate(ctx, sess, d, queryID, typeID)
	case sql.VerbUse:
		return e.handleUse(sess, d, queryID, typeID)
	case sql.VerbShow:
		return e.handleShow(sess, d, queryID, typeID)
	case sql.VerbDescribe:
		return e.handleDescribe(sess, d, queryID, typeID)
	default:
		return nil, snowerrors.Newf(snowerrors.Translation, "unsupported directive verb %q", d.Verb)
	}
}

func (e *Executor) handleCreate(ctx context.Context, sess *session.Session, d *sql.Directive, queryID string, typeID int64) (*Response, error) {
	switch d.Object {
	case sql.ObjDatabase:
		name := catalog.Normalize(d.Name)
		if err := e.catalog.CreateDatabase(name, catalog.CreateDatabaseOpts{IfNotExists: d.IfNotExists, Transient: d.Transient}); err != nil {
			return nil, err
		}
		return statusResponse(fmt.Sprintf("Database %s successfully created.", name), queryID, typeID), nil

	case sql.ObjSchema:
		db, schema := catalog.SchemaQualifiedName(d.Name, sess.Database)
		if err := e.catalog.CreateSchema(db, schema, d.IfNotExists); err != nil {
			return nil, err
		}
		return statusResponse(fmt.Sprintf("Schema %s successfully created.", schema), queryID, typeID), nil

	case sql.ObjTable:
		db, schema, name := catalog.QualifiedName(d.Name, sess.Database, sess.Schema)

		if d.CloneSource != "" {
			srcDB, srcSchema, srcName := catalog.QualifiedName(d.CloneSource, sess.Database, sess.Schema)
			if err := e.catalog.CloneTable(ctx, srcDB, srcSchema, srcName, db, schema, name, e.engine); err != nil {
				return nil, err
			}
			return statusResponse(fmt.Sprintf("Table %s successfully created.", name), queryID, typeID), nil
		}

		if d.AsSelect != "" {
			rwCtx := sql.RewriteContext{Database: sess.Database, Schema: sess.Schema, KnownUnqualifiedTables: e.unqualifiedTableNames(sess)}
			rewritten := sql.Rewrite(sql.Tokenize(d.AsSelect), rwCtx)
			relationID := catalog.ObjectFQName(db, schema, name)
			cols, err := e.engine.CreateRelationAs(ctx, relationID, rewritten)
			if err != nil {
				return nil, err
			}
			if err := e.catalog.RecordTable(db, schema, name, cols, relationID); err != nil {
				return nil, err
			}
			return statusResponse(fmt.Sprintf("Table %s successfully created.", name), queryID, typeID), nil
		}

		cols := make([]catalog.Column, len(d.Columns))
		for i, c := range d.Columns {
			cols[i] = catalog.Column{Name: catalog.Normalize(c.Name), Type: c.Type, Nullable: c.Nullable, PrimaryKey: c.PrimaryKey}
		}
		if err := e.catalog.CreateTable(ctx, db, schema, name, cols, d.IfNotExists, d.OrReplace, e.engine); err != nil {
			return nil, err
		}
		return statusResponse(fmt.Sprintf("Table %s successfully created.", name), queryID, typeID), nil

	case sql.ObjView:
		db, schema, name := catalog.QualifiedName(d.Name, sess.Database, sess.Schema)
		if err := e.catalog.CreateView(db, schema, name, d.AsSelect, d.Secure, d.OrReplace); err != nil {
			return nil, err
		}
		return statusResponse(fmt.Sprintf("View %s successfully created.", name), queryID, typeID), nil

	default:
		return nil, snowerrors.Newf(snowerrors.Translation, "unsupported CREATE target %q", d.Object)
	}
}

func (e *Executor) handleDrop(sess *session.Session, d *sql.Directive, queryID string, typeID int64) (*Response, error) {
	switch d.Object {
	case sql.ObjDatabase:
		name := catalog.Normalize(d.Name)
		if err := e.catalog.DropDatabase(name, catalog.DropDatabaseOpts{IfExists: d.IfExists, Cascade: d.Cascade}); err != nil {
			return nil, err
		}
		return statusResponse(fmt.Sprintf("Database %s successfully dropped.", name), queryID, typeID), nil

	case sql.ObjSchema:
		db, schema := catalog.SchemaQualifiedName(d.Name, sess.Database)
		if err := e.catalog.DropSchema(db, schema, d.IfExists, d.Cascade); err != nil {
			return nil, err
		}
		return statusResponse(fmt.Sprintf("Schema %s successfully dropped.", schema), queryID, typeID), nil

	case sql.ObjTable:
		db, schema, name := catalog.QualifiedName(d.Name, sess.Database, sess.Schema)
		if err := e.catalog.DropTable(db, schema, name, d.IfExists); err != nil {
			return nil, err
		}
		return statusResponse(fmt.Sprintf("Table %s successfully dropped.", name), queryID, typeID), nil

	case sql.ObjView:
		db, schema, name := catalog.QualifiedName(d.Name, sess.Database, sess.Schema)
		if err := e.catalog.DropView(db, schema, name, d.IfExists); err != nil {
			return nil, err
		}
		return statusResponse(fmt.Sprintf("View %s successfully dropped.", name), queryID, typeID), nil

	default:
		return nil, snowerrors.Newf(snowerrors.Translation, "unsupported DROP target %q", d.Object)
	}
}

func (e *Executor) handleUndrop(sess *session.Session, d *sql.Directive, queryID string, typeID int64) (*Response, error) {
	switch d.Object {
	case sql.ObjDatabase:
		name := catalog.Normalize(d.Name)
		if err := e.catalog.UndropDatabase(name); err != nil {
			return nil, err
		}
		return statusResponse(fmt.Sprintf("Database %s successfully restored.", name), queryID, typeID), nil

	case sql.ObjSchema:
		db, schema := catalog.SchemaQualifiedName(d.Name, sess.Database)
		if err := e.catalog.UndropSchema(db, schema); err != nil {
			return nil, err
		}
		return statusResponse(fmt.Sprintf("Schema %s successfully restored.", schema), queryID, typeID), nil

	case sql.ObjTable:
		db, schema, name := catalog.QualifiedName(d.Name, sess.Database, sess.Schema)
		if err := e.catalog.UndropTable(db, schema, name); err != nil {
			return nil, err
		}
		return statusResponse(fmt.Sprintf("Table %s successfully restored.", name), queryID, typeID), nil

	case sql.ObjView:
		db, schema, name := catalog.QualifiedName(d.Name, sess.Database, sess.Schema)
		if err := e.catalog.UndropView(db, schema, name); err != nil {
			return nil, err
		}
		return statusResponse(fmt.Sprintf("View %s successfully restored.", name), queryID, typeID), nil

	default:
		return nil, snowerrors.Newf(snowerrors.Translation, "unsupported UNDROP target %q", d.Object)
	}
}

func (e *Executor) handleAlter(ctx context.Context, sess *session.Session, d *sql.Directive, queryID string, typeID int64) (*Response, error) {
	if d.Object != sql.ObjTable || d.NewName == "" {
		return nil, snowerrors.New(snowerrors.Translation, "unsupported ALTER clause")
	}
	db, schema, oldName := catalog.QualifiedName(d.Name, sess.Database, sess.Schema)
	_, _, newName := catalog.QualifiedName(d.NewName, sess.Database, sess.Schema)

	if err := e.catalog.RenameTable(ctx, db, schema, oldName, newName, e.engine); err != nil {
		return nil, err
	}
	return statusResponse(fmt.Sprintf("Table %s successfully renamed to %s.", oldName, newName), queryID, typeID), nil
}

func (e *Executor) handleTruncate(ctx context.Context, sess *session.Session, d *sql.Directive, queryID string, typeID int64) (*Response, error) {
	db, schema, name := catalog.QualifiedName(d.Name, sess.Database, sess.Schema)
	if err := e.catalog.TruncateTable(ctx, db, schema, name, e.engine); err != nil {
		return nil, err
	}
	return statusResponse(fmt.Sprintf("Table %s successfully truncated.", name), queryID, typeID), nil
}

func (e *Executor) handleUse(sess *session.Session, d *sql.Directive, queryID string, typeID int64) (*Response, error) {
	name := catalog.Normalize(d.Name)
	switch d.Object {
	case sql.ObjDatabase:
		e.sessions.SetDatabase(sess.Token, name)
	case sql.ObjSchema:
		e.sessions.SetSchema(sess.Token, name)
	case sql.ObjWarehouse:
		e.sessions.SetWarehouse(sess.Token, name)
	case sql.ObjRole:
		e.sessions.SetRole(sess.Token, name)
	default:
		return nil, snowerrors.Newf(snowerrors.Translation, "unsupported USE target %q", d.Object)
	}
	return statusResponse("Statement executed successfully.", queryID, typeID), nil
}

func (e *Executor) handleShow(sess *session.Session, d *sql.Directive, queryID string, typeID int64) (*Response, error) {
	db := sess.Database
	schema := sess.Schema
	if d.ShowIn != "" {
		switch d.ShowTarget {
		case "SCHEMAS", "TABLES", "VIEWS":
			resolvedDB, resolvedSchema := catalog.SchemaQualifiedName(d.ShowIn, sess.Database)
			db, schema = resolvedDB, resolvedSchema
		default:
			db = catalog.Normalize(d.ShowIn)
		}
	}

	var names []string
	switch {
	case d.ShowTarget == "DATABASES" && !d.ShowDropped:
		for _, v := range e.catalog.ListDatabases() {
			names = append(names, v.Name)
		}
	case d.ShowTarget == "DATABASES" && d.ShowDropped:
		for _, ts := range e.catalog.ListDroppedDatabases() {
			names = append(names, ts.FQName)
		}
	case d.ShowTarget == "SCHEMAS" && !d.ShowDropped:
		for _, v := range e.catalog.ListSchemas(db) {
			names = append(names, v.Name)
		}
	case d.ShowTarget == "SCHEMAS" && d.ShowDropped:
		for _, ts := range e.catalog.ListDroppedSchemas(db) {
			names = append(names, ts.Schema.Name)
		}
	case d.ShowTarget == "TABLES" && !d.ShowDropped:
		for _, v := range e.catalog.ListTables(db, schema) {
			names = append(names, v.Name)
		}
	case d.ShowTarget == "TABLES" && d.ShowDropped:
		for _, ts := range e.catalog.ListDroppedTables(db, schema) {
			names = append(names, ts.Table.Name)
		}
	case d.ShowTarget == "VIEWS" && !d.ShowDropped:
		for _, v := range e.catalog.ListViews(db, schema) {
			names = append(names, v.Name)
		}
	case d.ShowTarget == "VIEWS" && d.ShowDropped:
		for _, ts := range e.catalog.ListDroppedViews(db, schema) {
			names = append(names, ts.View.Name)
		}
	default:
		return nil, snowerrors.Newf(snowerrors.Translation, "unsupported SHOW target %q", d.ShowTarget)
	}

	rowSet := make([][]*string, len(names))
	for i := range names {
		v := names[i]
		rowSet[i] = []*string{&v}
	}

	return &Response{
		RowType:         []RowTypeEntry{{Name: "name", Type: "TEXT", Nullable: false}},
		RowSet:          rowSet,
		Total:           int64(len(rowSet)),
		Returned:        int64(len(rowSet)),
		QueryID:         queryID,
		StatementTypeID: typeID,
	}, nil
}

func (e *Executor) handleDescribe(sess *session.Session, d *sql.Directive, queryID string, typeID int64) (*Response, error) {
	db, schema, name := catalog.QualifiedName(d.Name, sess.Database, sess.Schema)

	var cols []catalog.Column
	switch d.Object {
	case sql.ObjTable:
		t, ok := e.catalog.GetTable(db, schema, name)
		if !ok {
			return nil, snowerrors.Newf(snowerrors.NotFound, "table %s does not exist", name)
		}
		cols = t.Columns
	case sql.ObjView:
		v, ok := e.catalog.GetView(db, schema, name)
		if !ok {
			return nil, snowerrors.Newf(snowerrors.NotFound, "view %s does not exist", name)
		}
		val := v.SelectSQL
		return &Response{
			RowType:         []RowTypeEntry{{Name: "text", Type: "TEXT", Nullable: false}},
			RowSet:          [][]*string{{&val}},
			Total:           1,
			Returned:        1,
			QueryID:         queryID,
			StatementTypeID: typeID,
		}, nil
	default:
		return nil, snowerrors.Newf(snowerrors.Translation, "unsupported DESCRIBE target %q", d.Object)
	}

	rowSet := make([][]*string, len(cols))
	for i, c := range cols {
		nameVal := c.Name
		typeVal := c.Type
		rowSet[i] = []*string{&nameVal, &typeVal}
	}

	return &Response{
		RowType: []RowTypeEntry{
			{Name: "name", Type: "TEXT", Nullable: false},
			{Name: "type", Type: "TEXT", Nullable: false},
		},
		RowSet:          rowSet,
		Total:           int64(len(rowSet)),
		Returned:        int64(len(rowSet)),
		QueryID:         queryID,
		StatementTypeID: typeID,
	}, nil
}

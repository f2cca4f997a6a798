package engine

import (
	"context"
	"strings"

	"github.com/snowglobe/snowglobe/internal/catalog"
	snowerrors "github.com/snowglobe/snowglobe/internal/errors"
)

// CreateRelation creates the underlying engine relation for a new table.
// relationID is used verbatim as a quoted identifier, so it may safely
// contain the catalog's "DB.SCHEMA.TABLE" dotted form.
func (a *Adapter) CreateRelation(ctx context.Context, relationID string, columns []catalog.Column) error {
	var b strings.Builder
	b.WriteString("CREATE TABLE ")
	b.WriteString(quoteIdent(relationID))
	b.WriteString(" (")
	for i, col := range columns {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(quoteIdent(col.Name))
		b.WriteString(" ")
		b.WriteString(col.Type)
		if !col.Nullable {
			b.WriteString(" NOT NULL")
		}
	}
	b.WriteString(")")

	return a.submit(ctx, func() error {
		_, err := a.db.ExecContext(ctx, b.String())
		if err != nil {
			return snowerrors.WrapEngine(err)
		}
		return nil
	})
}

// CreateRelationAs executes CREATE TABLE relationID AS <selectSQL> and
// reads back the resulting column list, for CTAS.
func (a *Adapter) CreateRelationAs(ctx context.Context, relationID, selectSQL string) ([]catalog.Column, error) {
	stmt := "CREATE TABLE " + quoteIdent(relationID) + " AS " + selectSQL

	var cols []catalog.Column
	err := a.submit(ctx, func() error {
		if _, err := a.db.ExecContext(ctx, stmt); err != nil {
			return snowerrors.WrapEngine(err)
		}

		rows, err := a.db.QueryContext(ctx, "SELECT * FROM "+quoteIdent(relationID)+" LIMIT 0")
		if err != nil {
			return snowerrors.WrapEngine(err)
		}
		defer rows.Close()

		colTypes, err := rows.ColumnTypes()
		if err != nil {
			return snowerrors.WrapEngine(err)
		}
		cols = make([]catalog.Column, len(colTypes))
		for i, ct := range colTypes {
			nullable, _ := ct.Nullable()
			cols[i] = catalog.Column{
				Name:     ct.Name(),
				Type:     mapEngineType(ct.DatabaseTypeName()),
				Nullable: nullable,
			}
		}
		return nil
	})
	return cols, err
}

// DropRelation drops the underlying engine relation. Used only for
// two-phase-commit rollback (ordinary DROP TABLE leaves the relation
// intact — see internal/catalog.DropTable).
func (a *Adapter) DropRelation(ctx context.Context, relationID string) error {
	return a.submit(ctx, func() error {
		_, err := a.db.ExecContext(ctx, "DROP TABLE IF EXISTS "+quoteIdent(relationID))
		if err != nil {
			return snowerrors.WrapEngine(err)
		}
		return nil
	})
}

// RenameRelation renames the underlying engine relation.
func (a *Adapter) RenameRelation(ctx context.Context, oldID, newID string) error {
	stmt := "ALTER TABLE " + quoteIdent(oldID) + " RENAME TO " + quoteIdent(newID)
	return a.submit(ctx, func() error {
		_, err := a.db.ExecContext(ctx, stmt)
		if err != nil {
			return snowerrors.WrapEngine(err)
		}
		return nil
	})
}

// CloneRelation creates dstID with srcID's schema and a full row copy.
func (a *Adapter) CloneRelation(ctx context.Context, srcID, dstID string) error {
	stmt := "CREATE TABLE " + quoteIdent(dstID) + " AS SELECT * FROM " + quoteIdent(srcID)
	return a.submit(ctx, func() error {
		_, err := a.db.ExecContext(ctx, stmt)
		if err != nil {
			return snowerrors.WrapEngine(err)
		}
		return nil
	})
}

// TruncateRelation empties relationID without affecting tombstones.
func (a *Adapter) TruncateRelation(ctx context.Context, relationID string) error {
	stmt := "DELETE FROM " + quoteIdent(relationID)
	return a.submit(ctx, func() error {
		_, err := a.db.ExecContext(ctx, stmt)
		if err != nil {
			return snowerrors.WrapEngine(err)
		}
		return nil
	})
}

// EnsureView creates or replaces the engine view from its stored
// definition, per §4.5's lazy view-creation rule. It runs the statement on
// every call, whether or not the view is already present.
func (a *Adapter) EnsureView(ctx context.Context, viewID, selectSQL string) error {
	stmt := "CREATE OR REPLACE VIEW " + quoteIdent(viewID) + " AS " + selectSQL
	return a.submit(ctx, func() error {
		_, err := a.db.ExecContext(ctx, stmt)
		if err != nil {
			return snowerrors.WrapEngine(err)
		}
		return nil
	})
}

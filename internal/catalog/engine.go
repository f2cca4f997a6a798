package catalog

import "context"

// Engine is the subset of the Engine Adapter the Catalog needs in order to
// drive the two-phase commit described by the concurrency model: engine
// mutation first, catalog change and persistence second, rollback on
// persistence failure. Defined here (rather than imported from
// internal/engine) so the catalog package has no dependency on the engine
// package; internal/engine.Adapter satisfies this interface.
type Engine interface {
	CreateRelation(ctx context.Context, relationID string, columns []Column) error
	CreateRelationAs(ctx context.Context, relationID, selectSQL string) ([]Column, error)
	DropRelation(ctx context.Context, relationID string) error
	RenameRelation(ctx context.Context, oldID, newID string) error
	CloneRelation(ctx context.Context, srcID, dstID string) error
	TruncateRelation(ctx context.Context, relationID string) error
	Ping(ctx context.Context) error
}

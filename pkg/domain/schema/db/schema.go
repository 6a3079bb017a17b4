package db

import "context"

// SchemaInterface represents the database schema of the catalog.
type SchemaInterface interface {
	// Upgrade applies every schema version the database does not have yet.
	Upgrade(ctx context.Context) error

	// Version returns the schema version the database is at.
	Version(ctx context.Context) (int, error)

	// Context derives a context which is cancelled when the schema in the
	// database falls behind the on-disk schema repository.
	//
	// Args
	//
	// - ctx: The context to be used.
	//
	// Returns
	//
	// - context.Context: cancelled (with cause) once the repository holds a
	// version newer than the database.
	//
	// - context.CancelFunc: The function to cancel the context.
	Context(ctx context.Context) (context.Context, context.CancelFunc)
}

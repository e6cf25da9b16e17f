// Package all wires all built-in storage backends into the storage factory.
//
// This package exists purely for side effects: importing it (even as a blank
// import) causes the init functions of each concrete backend to run, which in
// turn register their factories with the storage package.
//
// In other words, importing this package makes the following storage kinds
// available at runtime:
//
//   - "parquet"  (internal/storage/parquetfs)
//   - "postgres" (internal/storage/postgres)
//   - "sqlite"   (internal/storage/sqlite)
//
// Typical usage (in cmd/etl/main.go or a similar wiring layer):
//
//	import (
//	    _ "github.com/pamo12/data-lake/internal/storage/all" // enable all built-in backends
//
//	    "github.com/pamo12/data-lake/internal/storage"
//	)
//
//	w, err := storage.New(ctx, storage.Config{
//	    Kind: spec.Storage.Kind,
//	    Root: spec.Output.Root,
//	    DSN:  spec.Storage.DB.DSN,
//	})
//
// This keeps backend-specific wiring in a single, small package and lets the
// rest of the application depend only on the storage.Writer abstraction. A
// binary that supports a subset of backends can import the concrete packages
// it wants instead of this one.
package all

import (
	_ "github.com/pamo12/data-lake/internal/storage/parquetfs"
	_ "github.com/pamo12/data-lake/internal/storage/postgres"
	_ "github.com/pamo12/data-lake/internal/storage/sqlite"
)

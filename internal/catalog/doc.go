// Package catalog keeps a SQLite index of saved recording sessions and the
// sequence files each one produced, so recordings can be listed without
// scanning the output directory.
//
// The schema is created on first open and guarded by a schema_version row;
// a database created by a different version is rejected with
// ErrSchemaMismatch rather than migrated.
package catalog

// Package runs records render history in SQLite.
//
// Every pipeline invocation opens a run with Begin and closes it with Finish,
// storing the inputs, the atlas that was used, frame statistics and the
// failure classification when the render did not complete. The CLI reads the
// history back through List and Get.
//
// The database lives at <paths.state_dir>/runs.db. It runs in WAL mode and
// retries writes that hit SQLITE_BUSY so concurrent renders on one machine
// can share it. The schema is versioned; a mismatch is reported as
// ErrSchemaMismatch rather than migrated.
package runs

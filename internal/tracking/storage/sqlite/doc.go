// Package sqlite archives solved reconstructions in a SQLite database.
//
// Responsibilities: opening the archive with the standard pragmas,
// applying the embedded schema migrations, saving a solved object as a
// run (camera poses, bundles, intrinsics and keyframes) and reading runs
// back, including as a replay solver for the reconstruction engine.
//
// Key types: Store, Run.
//
// Dependency rule: sqlite is the only package that contains SQL. It
// depends on registry, reconstruct, camera and geom; nothing in the engine
// imports it.
package sqlite

// Package tasks holds the batch operations run from the CLI and at startup.
//
// # Seeding
//
// [Seeder] fills an empty catalog from the embedded seed.toml. It is gated on the song count, so
// repeated process starts are no-ops once any song exists. The demo user and its playlist are only
// created when there are no users at all. Everything happens inside one [repositories.Store.WithTx].
//
// # Exports
//
// [DumpSQL] writes the whole database as INSERT statements in foreign key order.
//
// [BulkExport] renders playlists through the formatter aggregates using a bounded worker pool
// throttled by a [rate.Limiter], then writes a manifest.json describing each outcome.
package tasks

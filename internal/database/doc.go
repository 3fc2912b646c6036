// Package database provides SQLite-based crawl history for passkeydir.
//
// Every crawl run is stored as one row in runs plus one row per output
// record in records, in input order. The history lets the CLI show how a
// domain's record changed between runs without keeping old copies of the
// JSON dataset around.
//
// The store uses modernc.org/sqlite, so the binary stays CGO-free and the
// history is a single file under the XDG data directory.
package database

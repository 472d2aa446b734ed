// Package cache stores explorer answers in a local SQLite database so that
// re-running a crawl does not fetch the same pages again.
//
// The database holds two tables:
//   - sources: the flattened source text of a contract
//   - similar: the similar-contract list of a reference, as JSON
//
// Every row carries the time it was fetched; rows older than the configured
// TTL are treated as missing.
//
// Design decision: We use SQLite (via modernc.org/sqlite) because the cache
// is a single file with no server to run, and the CGO-free driver keeps
// cross-compilation easy.
package cache

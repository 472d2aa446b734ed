// Package crawl implements the crawl stage.
//
// The Crawler lists the verified contracts of an explorer, asks the explorer
// for the contracts similar to each of them, fetches the sources and writes
// one unified diff per similar contract through store.Layout.
//
// Failure handling follows two rules:
//   - Anything that goes wrong with a single contract (network error,
//     missing source, exhausted rate-limit retries) is logged and that
//     contract is skipped.
//   - Filesystem errors abort the run, since every following group would
//     fail the same way.
package crawl

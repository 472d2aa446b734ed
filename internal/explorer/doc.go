// Package explorer talks to an Etherscan-style block explorer.
//
// # Architecture
//
// ContractSource is the capability the crawler depends on: list the
// verified contracts, list the contracts the explorer considers similar to
// one of them, and fetch the source of a contract. Client implements it by
// scraping the explorer's HTML pages; CachedSource wraps any ContractSource
// with a local store so re-runs do not hit the network for sources that
// were already fetched.
//
// # Pages
//
//   - <base>/contractsVerified and <base>/contractsVerified/<n>: paginated
//     list of verified contracts; addresses are the .address-tag elements
//     and the pager reads "Page <i> of <n>".
//   - <base>/find-similiar-contracts?a=<address>: similar contracts, again
//     as .address-tag elements. The misspelling is the explorer's.
//   - <base>/address/<address>#code: the source, held in #editor (single
//     file) or #editor1..#editorN (multi-file) elements.
//
// # Failures
//
// Every request is retried with exponential backoff on network errors and
// 5xx responses. HTTP 429 is reported as a RateLimitError and retried after
// the server's Retry-After delay, or the backoff if none is given. Other
// 4xx responses are returned immediately as a StatusError.
//
// # Usage
//
//	httpClient, err := explorer.NewHTTPClient("", 60*time.Second)
//	client, err := explorer.NewClient("https://etherscan.io", explorer.WithHTTPClient(httpClient))
//	addrs, err := client.ListVerifiedContracts(ctx)
package explorer

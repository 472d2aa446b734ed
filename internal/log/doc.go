// Package log provides the contractdiff logger: log/slog with a handler that
// masks credentials before they reach the output.
//
// The SecureHandler masks:
//   - attributes whose key names a credential (apikey, authorization, cookie, ...)
//   - values that look like credentials (bearer tokens, explorer API keys)
//   - the apikey query parameter inside URLs and error messages
//
// Contract addresses and transaction hashes are long hex strings but are
// never masked; they are what the logs are about.
//
// # Usage
//
//	logger := log.NewSecureLogger(os.Stderr, verbose)
//	slog.SetDefault(logger)
//
//	logger.Warn("request failed",
//	    "url", "https://etherscan.io/find-similiar-contracts?a=0x...&apikey=ABC", // apikey=***REDACTED***
//	)
package log

// Package pinning provides a uniform pinning interface over multiple pinning services.
//
// A PinningAggregation holds an ordered set of backends and fans every call out to all
// of them concurrently:
//
//   - Open, Close, Pin, Ls and Info succeed only if every backend succeeds; the first
//     failure is returned and nothing is rolled back
//   - Unpin is best effort: it waits for every backend and discards failures
//   - Ls merges listings, mapping each CID to the ids of all backends reporting it
//   - Info shallow-merges the per-backend diagnostics
//
// # Connection Strings
//
// Backends are selected by the designator at the start of the connection string scheme:
//
//	<designator>[+<sub>]://<host>[:<port>][/path][?params]
//
// Built-in variants:
//
//   - ipfs://10.0.0.1, ipfs+https://ipfs.example.com:5001, ipfs://__context
//   - s3://KEY:SECRET@bucket/prefix?region=us-west-2
//   - file:///var/lib/pins
//
// Hosts may register their own interfaces.PinningVariant values; the registry is an
// ordered list and the first variant with a matching designator wins.
//
// # Identity
//
// Backend ids are <designator>@base64url(sha256(connection string)). The aggregation id
// is pinning-aggregation@base64url(sha256(backend ids joined by newlines)), so the same
// ordered set of backends always yields the same id.
//
// # Usage Example
//
//	pctx := &interfaces.PinningContext{IPFS: pinning.NewIPFSShell("http://127.0.0.1:5001"), Log: logger}
//	factory := pinning.NewPinningFactory(logger, pctx, pinning.DefaultVariants())
//
//	aggregation, err := factory.NewAggregation([]string{
//	    "ipfs://__context",
//	    "s3://bucket/pins?region=eu-west-1",
//	})
//	if err != nil {
//	    log.Fatalf("Failed to create pinning aggregation: %v", err)
//	}
//	if err := aggregation.Open(ctx); err != nil {
//	    log.Fatalf("Failed to open pinning backends: %v", err)
//	}
//	defer aggregation.Close(ctx)
//
//	err = aggregation.Pin(ctx, c)
package pinning

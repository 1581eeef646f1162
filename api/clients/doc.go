// Package clients provides an HTTP client for the pinning server API.
//
// PinningClient implements interfaces.Pinning on top of the server routes, so
// tools can drive a remote aggregation exactly like a locally built one:
//
//	client := clients.NewPinningClient("http://localhost:8080")
//	if err := client.Open(ctx); err != nil {
//		return err
//	}
//	err := client.Pin(ctx, c)
package clients

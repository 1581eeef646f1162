/*
Package httpserver serves a pinning aggregation over HTTP.

# Pinning API

	POST   /api/pins/{cid}   pin the CID on every backend
	DELETE /api/pins/{cid}   unpin the CID from every backend, best effort
	GET    /api/pins         list pinned CIDs with the backends holding them
	GET    /api/info         aggregation id and per-backend diagnostics

Invalid CIDs are rejected with 400 before any backend is contacted. A failure
of any backend on pin, ls or info is reported as 502 with a JSON body of the
form {"error": "<backend id>: <reason>"}. Unpin always answers 200 for a valid
CID since its failures are only logged.

# Operations

	GET /livez     liveness
	GET /readyz    readiness, 503 while draining
	GET /drain     mark the server as not ready
	GET /undrain   mark the server as ready again
	/debug/pprof/  profiler, when EnablePprof is set

Prometheus metrics are served separately on MetricsAddr under /metrics.
Every pinning request that reaches the backends increments
pinning_aggregation_operations_total{operation,status} and observes
pinning_aggregation_operation_duration_seconds{operation}.

# Usage

	aggregation, err := factory.NewAggregation(connectionStrings)
	if err != nil {
		return err
	}
	if err := aggregation.Open(ctx); err != nil {
		return err
	}

	srv, err := httpserver.New(cfg, httpserver.NewHandler(aggregation, log))
	if err != nil {
		return err
	}
	srv.RunInBackground()
	defer srv.Shutdown()
*/
package httpserver

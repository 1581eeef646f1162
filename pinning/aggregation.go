package pinning

import (
	"context"
	"log/slog"
	"maps"
	"time"

	"github.com/ipfs/go-cid"
	"github.com/ruteri/pinning-aggregation/interfaces"
)

// PinningAggregation implements interfaces.Pinning over a fixed, ordered set of backends.
// Every call is dispatched to all backends concurrently.
type PinningAggregation struct {
	id       string
	backends []interfaces.Pinning
	log      *slog.Logger
}

// NewPinningAggregation creates an aggregation owning the given backends.
func NewPinningAggregation(backends []interfaces.Pinning, logger *slog.Logger) *PinningAggregation {
	if logger == nil {
		logger = slog.Default()
	}

	owned := make([]interfaces.Pinning, len(backends))
	copy(owned, backends)

	ids := make([]string, 0, len(owned))
	for _, backend := range owned {
		ids = append(ids, backend.ID())
	}

	return &PinningAggregation{
		id:       AggregationID(ids),
		backends: owned,
		log:      logger,
	}
}

// ID returns the aggregation id, derived from the ids of its backends.
func (a *PinningAggregation) ID() string {
	return a.id
}

// Backends returns the member backends in resolution order.
func (a *PinningAggregation) Backends() []interfaces.Pinning {
	backends := make([]interfaces.Pinning, len(a.backends))
	copy(backends, a.backends)
	return backends
}

// Open opens all the backends. Every call should succeed.
func (a *PinningAggregation) Open(ctx context.Context) error {
	start := time.Now()
	err := all(a.backends, func(backend interfaces.Pinning) error {
		return backend.Open(ctx)
	})
	if err != nil {
		a.log.Error("Failed to open pinning backends",
			slog.String("aggregation_id", a.id),
			"err", err,
			slog.Duration("duration", time.Since(start)))
		return err
	}

	a.log.Info("Opened pinning backends",
		slog.String("aggregation_id", a.id),
		slog.Int("backends", len(a.backends)),
		slog.Duration("duration", time.Since(start)))
	return nil
}

// Close closes all the backends. Every call should succeed.
func (a *PinningAggregation) Close(ctx context.Context) error {
	err := all(a.backends, func(backend interfaces.Pinning) error {
		return backend.Close(ctx)
	})
	if err != nil {
		a.log.Error("Failed to close pinning backends",
			slog.String("aggregation_id", a.id),
			"err", err)
		return err
	}
	return nil
}

// Pin pins the CID on every backend. Every call should succeed; pins already made on
// other backends are not rolled back on failure.
func (a *PinningAggregation) Pin(ctx context.Context, c cid.Cid) error {
	start := time.Now()
	err := all(a.backends, func(backend interfaces.Pinning) error {
		return backend.Pin(ctx, c)
	})
	if err != nil {
		a.log.Warn("Failed to pin content",
			slog.String("cid", c.String()),
			"err", err,
			slog.Duration("duration", time.Since(start)))
		return err
	}

	a.log.Debug("Pinned content",
		slog.String("cid", c.String()),
		slog.Duration("duration", time.Since(start)))
	return nil
}

// Unpin unpins the CID on every backend. Individual failures do not propagate;
// Unpin always returns nil once every backend has settled.
func (a *PinningAggregation) Unpin(ctx context.Context, c cid.Cid) error {
	settle(a.backends, func(backend interfaces.Pinning) error {
		return backend.Unpin(ctx, c)
	}, func(backend interfaces.Pinning, err error) {
		a.log.Debug("Ignoring unpin failure",
			slog.String("backend_id", backend.ID()),
			slog.String("cid", c.String()),
			"err", err)
	})
	return nil
}

// Ls lists pinned CIDs across backends. Each CID maps to the concatenated id lists
// of the backends reporting it, in backend order.
func (a *PinningAggregation) Ls(ctx context.Context) (interfaces.CidList, error) {
	perBackend, err := collect(a.backends, func(backend interfaces.Pinning) (interfaces.CidList, error) {
		return backend.Ls(ctx)
	})
	if err != nil {
		return nil, err
	}
	return mergeCidLists(perBackend), nil
}

// Info merges the diagnostics of every backend. Later backends win on key collisions.
func (a *PinningAggregation) Info(ctx context.Context) (interfaces.PinningInfo, error) {
	perBackend, err := collect(a.backends, func(backend interfaces.Pinning) (interfaces.PinningInfo, error) {
		return backend.Info(ctx)
	})
	if err != nil {
		return nil, err
	}

	result := interfaces.PinningInfo{}
	for _, info := range perBackend {
		maps.Copy(result, info)
	}
	return result, nil
}

func mergeCidLists(lists []interfaces.CidList) interfaces.CidList {
	result := interfaces.CidList{}
	for _, list := range lists {
		for c, ids := range list {
			merged, ok := result[c]
			if !ok {
				merged = make([]string, 0, len(ids))
			}
			result[c] = append(merged, ids...)
		}
	}
	return result
}

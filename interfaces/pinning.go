package interfaces

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/ipfs/go-cid"
)

// CidList maps a CID string to the ids of the backends reporting it as pinned.
type CidList map[string][]string

// PinningInfo is an opaque diagnostic record keyed by backend id.
type PinningInfo map[string]any

var (
	// ErrInvalidConnectionString is returned when a connection string is not a valid URI
	// or names an unsupported sub-scheme.
	// Connection strings must follow the format: <scheme>[+<sub>]://<host>[:<port>][/path][?params]
	ErrInvalidConnectionString = errors.New("invalid pinning connection string")

	// ErrUnknownPinningService is matched by UnknownPinningServiceError.
	ErrUnknownPinningService = errors.New("unknown pinning service")

	// ErrNoIpfsInstance is returned when a backend needs the host IPFS node from
	// PinningContext but none was supplied.
	ErrNoIpfsInstance = errors.New("no IPFS instance available")

	// ErrNotOpen is returned by backends that cannot serve a call before Open.
	ErrNotOpen = errors.New("pinning backend is not open")
)

// UnknownPinningServiceError is returned when a connection string designator matches
// no registered pinning variant. Designator is empty if no word could be taken from the scheme.
type UnknownPinningServiceError struct {
	Designator string
}

func (e *UnknownPinningServiceError) Error() string {
	if e.Designator == "" {
		return "unknown pinning service <none>"
	}
	return fmt.Sprintf("unknown pinning service %q", e.Designator)
}

// Is makes errors.Is(err, ErrUnknownPinningService) hold.
func (e *UnknownPinningServiceError) Is(target error) bool {
	return target == ErrUnknownPinningService
}

// Pinning retains content by CID on one pinning service, or on many when aggregated.
//
// Aggregations return the first backend failure prefixed with the backend id
// ("<id>: <err>"). Match failures with errors.Is or errors.As, not by message.
type Pinning interface {
	// ID returns a stable identifier derived from the backend configuration.
	ID() string

	// Open establishes the connection handle. No other call talks to the service before it.
	Open(ctx context.Context) error

	// Close releases the connection handle.
	Close(ctx context.Context) error

	// Pin asks the service to retain the content.
	Pin(ctx context.Context, c cid.Cid) error

	// Unpin asks the service to stop retaining the content.
	Unpin(ctx context.Context, c cid.Cid) error

	// Ls lists pinned CIDs.
	Ls(ctx context.Context) (CidList, error)

	// Info returns diagnostics keyed by backend id.
	Info(ctx context.Context) (PinningInfo, error)
}

// PinningVariant describes one kind of pinning backend that can be built from
// a connection string whose scheme starts with Designator.
type PinningVariant struct {
	Designator string
	Build      func(connectionString string, pctx *PinningContext) (Pinning, error)
}

// PinningContext is threaded through every variant constructor. The aggregation never
// inspects it; variants use it to reuse host-managed resources.
type PinningContext struct {
	// IPFS is the host-managed IPFS node, if any.
	IPFS IPFSNode

	// Log is the logger variants should use. Nil means slog.Default().
	Log *slog.Logger
}

// Logger returns the context logger or the default one.
func (p *PinningContext) Logger() *slog.Logger {
	if p == nil || p.Log == nil {
		return slog.Default()
	}
	return p.Log
}

// IPFSNode is the subset of an IPFS node API used by pinning backends.
type IPFSNode interface {
	// PinAdd pins the CID on the node.
	PinAdd(ctx context.Context, c cid.Cid, recursive bool) error

	// PinRm removes the pin.
	PinRm(ctx context.Context, c cid.Cid) error

	// PinLs lists pinned CIDs.
	PinLs(ctx context.Context) ([]cid.Cid, error)

	// Cat streams the content behind the CID.
	Cat(ctx context.Context, c cid.Cid) (io.ReadCloser, error)
}

// PinningFactory creates pinning backends.
type PinningFactory interface {
	// PinningFor creates a backend from a connection string.
	PinningFor(connectionString string) (Pinning, error)

	// CreateAggregation creates an aggregated backend, one member per connection string.
	CreateAggregation(connectionStrings []string) (Pinning, error)
}

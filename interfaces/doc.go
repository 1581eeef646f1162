// Package interfaces defines the core interfaces and types for the pinning aggregation
// system, separating interface definitions from implementations.
//
// # Pinning Interfaces
//
// Pinning: Retains content by CID on a pinning service (an IPFS node, a Filecoin
// gateway, an archive bucket). Aggregations implement the same interface.
//
// PinningVariant: A designator plus constructor. Hosts pass an ordered list of variants
// to choose which backends are linked in.
//
// PinningFactory: Resolves connection strings to backends and builds aggregations.
//
// IPFSNode: The slice of an IPFS node API that backends rely on, shared through
// PinningContext so a host can hand its own connection to backends.
//
// # Types
//
//   - CidList: CID string to the ids of backends that report it pinned
//   - PinningInfo: diagnostics keyed by backend id
//
// # Errors
//
//   - ErrInvalidConnectionString: malformed connection string
//   - UnknownPinningServiceError / ErrUnknownPinningService: no variant for a designator
//   - ErrNoIpfsInstance: a backend needs PinningContext.IPFS and it is missing
//   - ErrNotOpen: an operation that needs a backend handle ran before Open
package interfaces

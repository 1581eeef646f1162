package pinning

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"net/url"
	"sync"

	"github.com/ipfs/go-cid"
	"github.com/ruteri/pinning-aggregation/interfaces"
)

const (
	IpfsDesignator = "ipfs"

	// FromContextHost makes an ipfs backend reuse PinningContext.IPFS instead of dialing.
	FromContextHost = "__context"

	defaultIpfsPort = "5001"
)

// IpfsVariant builds IpfsPinning backends.
var IpfsVariant = interfaces.PinningVariant{
	Designator: IpfsDesignator,
	Build: func(connectionString string, pctx *interfaces.PinningContext) (interfaces.Pinning, error) {
		return NewIpfsPinning(connectionString, pctx)
	},
}

// IpfsPinning pins content on an IPFS node.
//
// The connection string selects the node: ipfs://3.3.3.3 translates into the
// http://3.3.3.3:5001 API endpoint, ipfs+https://host:port into https://host:port.
// The special host __context (ipfs://__context) reuses the node the host application
// put into PinningContext.
//
// Pins are direct, not recursive. Pin and Unpin silently pass before Open.
type IpfsPinning struct {
	id          string
	ipfsAddress string
	pctx        *interfaces.PinningContext
	log         *slog.Logger

	mu   sync.RWMutex
	ipfs interfaces.IPFSNode
}

// NewIpfsPinning creates an IPFS pinning backend. No connection is made until Open.
func NewIpfsPinning(connectionString string, pctx *interfaces.PinningContext) (*IpfsPinning, error) {
	address, err := ipfsAddress(connectionString)
	if err != nil {
		return nil, err
	}

	return &IpfsPinning{
		id:          BackendID(IpfsDesignator, connectionString),
		ipfsAddress: address,
		pctx:        pctx,
		log:         pctx.Logger(),
	}, nil
}

func ipfsAddress(connectionString string) (string, error) {
	u, err := url.Parse(connectionString)
	if err != nil {
		return "", fmt.Errorf("%w: %v", interfaces.ErrInvalidConnectionString, err)
	}

	host := u.Hostname()
	if host == FromContextHost {
		return FromContextHost, nil
	}
	if host == "" {
		return "", fmt.Errorf("%w: missing IPFS host in %s", interfaces.ErrInvalidConnectionString, u.Redacted())
	}

	var scheme string
	switch u.Scheme {
	case "ipfs", "ipfs+http":
		scheme = "http"
	case "ipfs+https":
		scheme = "https"
	default:
		return "", fmt.Errorf("%w: unsupported IPFS scheme %s", interfaces.ErrInvalidConnectionString, u.Scheme)
	}

	port := u.Port()
	if port == "" {
		port = defaultIpfsPort
	}

	return fmt.Sprintf("%s://%s", scheme, net.JoinHostPort(host, port)), nil
}

// ID returns ipfs@<digest of the connection string>.
func (b *IpfsPinning) ID() string {
	return b.id
}

// IpfsAddress returns the API endpoint, or __context for a host-provided node.
func (b *IpfsPinning) IpfsAddress() string {
	return b.ipfsAddress
}

// IPFS returns the node handle, nil before Open.
func (b *IpfsPinning) IPFS() interfaces.IPFSNode {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.ipfs
}

// Open takes the node from the pinning context for __context connection strings,
// and creates an API client otherwise.
func (b *IpfsPinning) Open(ctx context.Context) error {
	var node interfaces.IPFSNode
	if b.ipfsAddress == FromContextHost {
		if b.pctx == nil || b.pctx.IPFS == nil {
			return interfaces.ErrNoIpfsInstance
		}
		node = b.pctx.IPFS
	} else {
		node = NewIPFSShell(b.ipfsAddress)
	}

	b.mu.Lock()
	b.ipfs = node
	b.mu.Unlock()

	b.log.Debug("Opened IPFS pinning",
		slog.String("backend_id", b.id),
		slog.String("address", b.ipfsAddress))
	return nil
}

// Close drops the node handle. The HTTP client holds no persistent connections.
func (b *IpfsPinning) Close(ctx context.Context) error {
	b.mu.Lock()
	b.ipfs = nil
	b.mu.Unlock()
	return nil
}

func (b *IpfsPinning) Pin(ctx context.Context, c cid.Cid) error {
	node := b.IPFS()
	if node == nil {
		return nil
	}
	if err := node.PinAdd(ctx, c, false); err != nil {
		return fmt.Errorf("failed to pin %s on IPFS: %w", c, err)
	}
	return nil
}

func (b *IpfsPinning) Unpin(ctx context.Context, c cid.Cid) error {
	node := b.IPFS()
	if node == nil {
		return nil
	}
	if err := node.PinRm(ctx, c); err != nil {
		return fmt.Errorf("failed to unpin %s on IPFS: %w", c, err)
	}
	return nil
}

// Ls lists the node pins, each attributed to this backend. Empty before Open.
func (b *IpfsPinning) Ls(ctx context.Context) (interfaces.CidList, error) {
	result := interfaces.CidList{}
	node := b.IPFS()
	if node == nil {
		return result, nil
	}

	pins, err := node.PinLs(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list IPFS pins: %w", err)
	}
	for _, c := range pins {
		result[c.String()] = []string{b.id}
	}
	return result, nil
}

func (b *IpfsPinning) Info(ctx context.Context) (interfaces.PinningInfo, error) {
	return interfaces.PinningInfo{
		b.id: map[string]any{
			"address": b.ipfsAddress,
		},
	}, nil
}

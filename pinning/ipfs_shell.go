package pinning

import (
	"context"
	"fmt"
	"io"

	"github.com/ipfs/go-cid"
	shell "github.com/ipfs/go-ipfs-api"
)

// IPFSShell implements interfaces.IPFSNode over the IPFS HTTP API.
type IPFSShell struct {
	shell   *shell.Shell
	address string
}

// NewIPFSShell creates a client for the IPFS API at address, either a URL such as
// http://127.0.0.1:5001 or a multiaddr.
func NewIPFSShell(address string) *IPFSShell {
	return &IPFSShell{
		shell:   shell.NewShell(address),
		address: address,
	}
}

// Address returns the API address this shell talks to.
func (s *IPFSShell) Address() string {
	return s.address
}

// IsUp checks if the IPFS node answers the version call.
func (s *IPFSShell) IsUp() bool {
	return s.shell.IsUp()
}

func (s *IPFSShell) PinAdd(ctx context.Context, c cid.Cid, recursive bool) error {
	return s.shell.Request("pin/add", c.String()).
		Option("recursive", recursive).
		Exec(ctx, nil)
}

func (s *IPFSShell) PinRm(ctx context.Context, c cid.Cid) error {
	return s.shell.Request("pin/rm", c.String()).Exec(ctx, nil)
}

func (s *IPFSShell) PinLs(ctx context.Context) ([]cid.Cid, error) {
	var out struct {
		Keys map[string]struct {
			Type string
		}
	}
	if err := s.shell.Request("pin/ls").Exec(ctx, &out); err != nil {
		return nil, err
	}

	pins := make([]cid.Cid, 0, len(out.Keys))
	for key := range out.Keys {
		c, err := cid.Decode(key)
		if err != nil {
			return nil, fmt.Errorf("invalid CID %q in pin listing: %w", key, err)
		}
		pins = append(pins, c)
	}
	return pins, nil
}

func (s *IPFSShell) Cat(ctx context.Context, c cid.Cid) (io.ReadCloser, error) {
	resp, err := s.shell.Request("cat", c.String()).Send(ctx)
	if err != nil {
		return nil, err
	}
	if resp.Error != nil {
		resp.Close()
		return nil, resp.Error
	}
	return resp.Output, nil
}

package clients

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/ipfs/go-cid"
	"github.com/ruteri/pinning-aggregation/interfaces"
)

// InfoResponse is the body served on GET /api/info.
type InfoResponse struct {
	ID       string                 `json:"id"`
	Backends interfaces.PinningInfo `json:"backends"`
}

// PinningClient talks to a pinning server over HTTP. It implements
// interfaces.Pinning so a remote aggregation can be used like a local one.
type PinningClient struct {
	serverAddr string
	httpClient *http.Client

	id string
}

// NewPinningClient creates a client for the server at serverAddr (e.g. "http://localhost:8080").
func NewPinningClient(serverAddr string, timeout ...time.Duration) *PinningClient {
	clientTimeout := 30 * time.Second
	if len(timeout) > 0 {
		clientTimeout = timeout[0]
	}

	return &PinningClient{
		serverAddr: strings.TrimSuffix(serverAddr, "/"),
		httpClient: &http.Client{
			Timeout: clientTimeout,
		},
	}
}

// ID returns the remote aggregation id. It is known after Open.
func (c *PinningClient) ID() string {
	return c.id
}

// Open fetches the remote aggregation id.
func (c *PinningClient) Open(ctx context.Context) error {
	info, err := c.ServerInfo(ctx)
	if err != nil {
		return err
	}
	c.id = info.ID
	return nil
}

func (c *PinningClient) Close(ctx context.Context) error {
	return nil
}

func (c *PinningClient) Pin(ctx context.Context, content cid.Cid) error {
	return c.do(ctx, http.MethodPost, "/api/pins/"+content.String(), nil)
}

func (c *PinningClient) Unpin(ctx context.Context, content cid.Cid) error {
	return c.do(ctx, http.MethodDelete, "/api/pins/"+content.String(), nil)
}

func (c *PinningClient) Ls(ctx context.Context) (interfaces.CidList, error) {
	var list interfaces.CidList
	if err := c.do(ctx, http.MethodGet, "/api/pins", &list); err != nil {
		return nil, err
	}
	return list, nil
}

func (c *PinningClient) Info(ctx context.Context) (interfaces.PinningInfo, error) {
	info, err := c.ServerInfo(ctx)
	if err != nil {
		return nil, err
	}
	return info.Backends, nil
}

// ServerInfo returns the full /api/info response including the aggregation id.
func (c *PinningClient) ServerInfo(ctx context.Context) (*InfoResponse, error) {
	var info InfoResponse
	if err := c.do(ctx, http.MethodGet, "/api/info", &info); err != nil {
		return nil, err
	}
	return &info, nil
}

func (c *PinningClient) do(ctx context.Context, method, path string, result any) error {
	req, err := http.NewRequestWithContext(ctx, method, c.serverAddr+path, nil)
	if err != nil {
		return err
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("could not request %s: %w", path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		bodyBytes, err := io.ReadAll(resp.Body)
		if err != nil {
			return fmt.Errorf("%s returned non-200 response: %d", path, resp.StatusCode)
		}
		var errResp struct {
			Error string `json:"error"`
		}
		if json.Unmarshal(bodyBytes, &errResp) == nil && errResp.Error != "" {
			return fmt.Errorf("%s returned error %d: %s", path, resp.StatusCode, errResp.Error)
		}
		return fmt.Errorf("%s returned error %d: %s", path, resp.StatusCode, string(bodyBytes))
	}

	if result == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(result); err != nil {
		return fmt.Errorf("could not parse %s response: %w", path, err)
	}
	return nil
}

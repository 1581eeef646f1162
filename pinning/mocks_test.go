package pinning

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/ipfs/go-cid"
	"github.com/ruteri/pinning-aggregation/interfaces"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

const (
	testCidV0 = "QmSnuWmxptJZdLJpKRarxBMS2Ju2oANVrgbr2xWbie9b2D"
	testCidV1 = "bafybeigdyrzt5sfp7udm7hu76uh7y26nf3efuylqabf3oclgtqy55fbzdi"
)

// MockPinning implements interfaces.Pinning for testing
type MockPinning struct {
	mock.Mock
	id string
}

func (m *MockPinning) ID() string {
	return m.id
}

func (m *MockPinning) Open(ctx context.Context) error {
	return m.Called(ctx).Error(0)
}

func (m *MockPinning) Close(ctx context.Context) error {
	return m.Called(ctx).Error(0)
}

func (m *MockPinning) Pin(ctx context.Context, c cid.Cid) error {
	return m.Called(ctx, c).Error(0)
}

func (m *MockPinning) Unpin(ctx context.Context, c cid.Cid) error {
	return m.Called(ctx, c).Error(0)
}

func (m *MockPinning) Ls(ctx context.Context) (interfaces.CidList, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(interfaces.CidList), args.Error(1)
}

func (m *MockPinning) Info(ctx context.Context) (interfaces.PinningInfo, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(interfaces.PinningInfo), args.Error(1)
}

// MockIPFSNode implements interfaces.IPFSNode for testing
type MockIPFSNode struct {
	mock.Mock
}

func (m *MockIPFSNode) PinAdd(ctx context.Context, c cid.Cid, recursive bool) error {
	return m.Called(ctx, c, recursive).Error(0)
}

func (m *MockIPFSNode) PinRm(ctx context.Context, c cid.Cid) error {
	return m.Called(ctx, c).Error(0)
}

func (m *MockIPFSNode) PinLs(ctx context.Context) ([]cid.Cid, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]cid.Cid), args.Error(1)
}

func (m *MockIPFSNode) Cat(ctx context.Context, c cid.Cid) (io.ReadCloser, error) {
	args := m.Called(ctx, c)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(io.ReadCloser), args.Error(1)
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func mustCid(t *testing.T, s string) cid.Cid {
	t.Helper()
	c, err := cid.Decode(s)
	require.NoError(t, err)
	return c
}

func toBackends(mocks []*MockPinning) []interfaces.Pinning {
	backends := make([]interfaces.Pinning, 0, len(mocks))
	for _, m := range mocks {
		backends = append(backends, m)
	}
	return backends
}

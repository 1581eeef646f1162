package pinning

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/ipfs/go-cid"
	"github.com/ruteri/pinning-aggregation/interfaces"
)

const FileDesignator = "file"

// FileVariant builds FilePinning backends.
var FileVariant = interfaces.PinningVariant{
	Designator: FileDesignator,
	Build: func(connectionString string, pctx *interfaces.PinningContext) (interfaces.Pinning, error) {
		return NewFilePinning(connectionString, pctx)
	},
}

// FilePinning archives pinned content into a local directory, one file per CID.
// URI format: file:///absolute/path/ or file://./relative/path/
//
// Content is read from the host IPFS node (PinningContext.IPFS).
type FilePinning struct {
	id      string
	baseDir string
	pctx    *interfaces.PinningContext
	log     *slog.Logger

	mu   sync.RWMutex
	ipfs interfaces.IPFSNode
}

// NewFilePinning creates a file pinning backend. The directory is created on Open.
func NewFilePinning(connectionString string, pctx *interfaces.PinningContext) (*FilePinning, error) {
	u, err := url.Parse(connectionString)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", interfaces.ErrInvalidConnectionString, err)
	}

	baseDir := u.Path
	if u.Host != "" {
		baseDir = u.Host + "/" + strings.TrimPrefix(baseDir, "/")
	}
	if baseDir == "" {
		return nil, fmt.Errorf("%w: empty path in %s", interfaces.ErrInvalidConnectionString, connectionString)
	}

	return &FilePinning{
		id:      BackendID(FileDesignator, connectionString),
		baseDir: filepath.Clean(baseDir),
		pctx:    pctx,
		log:     pctx.Logger(),
	}, nil
}

// ID returns file@<digest of the connection string>.
func (b *FilePinning) ID() string {
	return b.id
}

// BaseDir returns the archive directory.
func (b *FilePinning) BaseDir() string {
	return b.baseDir
}

func (b *FilePinning) Open(ctx context.Context) error {
	if b.pctx == nil || b.pctx.IPFS == nil {
		return interfaces.ErrNoIpfsInstance
	}
	if err := os.MkdirAll(b.baseDir, 0755); err != nil {
		return fmt.Errorf("failed to create archive directory: %w", err)
	}

	b.mu.Lock()
	b.ipfs = b.pctx.IPFS
	b.mu.Unlock()
	return nil
}

func (b *FilePinning) Close(ctx context.Context) error {
	b.mu.Lock()
	b.ipfs = nil
	b.mu.Unlock()
	return nil
}

func (b *FilePinning) node() (interfaces.IPFSNode, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if b.ipfs == nil {
		return nil, interfaces.ErrNotOpen
	}
	return b.ipfs, nil
}

// Pin copies the content from IPFS into <baseDir>/<cid>. The file appears atomically.
func (b *FilePinning) Pin(ctx context.Context, c cid.Cid) error {
	node, err := b.node()
	if err != nil {
		return err
	}

	reader, err := node.Cat(ctx, c)
	if err != nil {
		return fmt.Errorf("failed to fetch %s from IPFS: %w", c, err)
	}
	defer reader.Close()

	tmp, err := os.CreateTemp(b.baseDir, ".pin-*")
	if err != nil {
		return fmt.Errorf("failed to create temporary file: %w", err)
	}
	defer os.Remove(tmp.Name())

	size, err := io.Copy(tmp, reader)
	if closeErr := tmp.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		return fmt.Errorf("failed to write %s: %w", c, err)
	}

	filePath := b.filePath(c)
	if err := os.Rename(tmp.Name(), filePath); err != nil {
		return fmt.Errorf("failed to write %s: %w", c, err)
	}

	b.log.Debug("Archived content in file",
		slog.String("path", filePath),
		slog.Int64("size", size))
	return nil
}

// Unpin removes the archived file. A missing file is not an error.
func (b *FilePinning) Unpin(ctx context.Context, c cid.Cid) error {
	if _, err := b.node(); err != nil {
		return err
	}
	if err := os.Remove(b.filePath(c)); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("failed to remove %s: %w", c, err)
	}
	return nil
}

// Ls lists archived CIDs. Files that are not named by a CID are skipped.
func (b *FilePinning) Ls(ctx context.Context) (interfaces.CidList, error) {
	if _, err := b.node(); err != nil {
		return nil, err
	}

	entries, err := os.ReadDir(b.baseDir)
	if err != nil {
		return nil, fmt.Errorf("failed to read archive directory: %w", err)
	}

	result := interfaces.CidList{}
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		c, err := cid.Decode(entry.Name())
		if err != nil {
			continue
		}
		result[c.String()] = []string{b.id}
	}
	return result, nil
}

func (b *FilePinning) Info(ctx context.Context) (interfaces.PinningInfo, error) {
	return interfaces.PinningInfo{
		b.id: map[string]any{
			"path": b.baseDir,
		},
	}, nil
}

func (b *FilePinning) filePath(c cid.Cid) string {
	return filepath.Join(b.baseDir, c.String())
}

package pinning

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"path"
	"strings"
	"sync"
	"time"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/credentials"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3"
	"github.com/aws/aws-sdk-go/service/s3/s3manager"
	"github.com/ipfs/go-cid"
	"github.com/ruteri/pinning-aggregation/interfaces"
)

const (
	S3Designator = "s3"

	defaultS3Region = "us-east-1"
)

// S3Variant builds S3Pinning backends.
var S3Variant = interfaces.PinningVariant{
	Designator: S3Designator,
	Build: func(connectionString string, pctx *interfaces.PinningContext) (interfaces.Pinning, error) {
		return NewS3Pinning(connectionString, pctx)
	},
}

// S3Pinning archives pinned content into an S3 or S3-compatible bucket.
//
// URI format: s3://[ACCESS_KEY:SECRET_KEY@]bucket-name[/prefix]?region=us-west-2&endpoint=custom.s3.com&path_style=true
//
// Content is read from the host IPFS node (PinningContext.IPFS) and stored under
// <prefix>/<cid>. Unpinning deletes the object.
type S3Pinning struct {
	id        string
	bucket    string
	prefix    string
	region    string
	endpoint  string
	pathStyle bool
	accessKey string
	secretKey string
	pctx      *interfaces.PinningContext
	log       *slog.Logger

	mu     sync.RWMutex
	client *s3.S3
	ipfs   interfaces.IPFSNode
}

// NewS3Pinning creates an S3 pinning backend. The AWS session is created on Open.
func NewS3Pinning(connectionString string, pctx *interfaces.PinningContext) (*S3Pinning, error) {
	u, err := url.Parse(connectionString)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", interfaces.ErrInvalidConnectionString, err)
	}

	bucket := u.Host
	if bucket == "" {
		return nil, fmt.Errorf("%w: missing bucket in %s", interfaces.ErrInvalidConnectionString, u.Redacted())
	}

	query := u.Query()
	region := query.Get("region")
	if region == "" {
		region = defaultS3Region
	}

	b := &S3Pinning{
		id:        BackendID(S3Designator, connectionString),
		bucket:    bucket,
		prefix:    strings.Trim(u.Path, "/"),
		region:    region,
		endpoint:  query.Get("endpoint"),
		pathStyle: query.Get("path_style") == "true",
		pctx:      pctx,
		log:       pctx.Logger(),
	}

	if u.User != nil {
		b.accessKey = u.User.Username()
		b.secretKey, _ = u.User.Password()
	}

	return b, nil
}

// ID returns s3@<digest of the connection string>.
func (b *S3Pinning) ID() string {
	return b.id
}

// Open creates the S3 client. The host IPFS node must be present in the pinning context.
func (b *S3Pinning) Open(ctx context.Context) error {
	if b.pctx == nil || b.pctx.IPFS == nil {
		return interfaces.ErrNoIpfsInstance
	}

	cfg := aws.Config{
		Region:           aws.String(b.region),
		S3ForcePathStyle: aws.Bool(b.pathStyle),
	}
	if b.endpoint != "" {
		cfg.Endpoint = aws.String(b.endpoint)
	}
	if b.accessKey != "" && b.secretKey != "" {
		cfg.Credentials = credentials.NewStaticCredentials(b.accessKey, b.secretKey, "")
	} else {
		b.log.Warn("No S3 credentials in connection string, using the default credential chain",
			slog.String("bucket", b.bucket))
	}

	sess, err := session.NewSession(&cfg)
	if err != nil {
		return fmt.Errorf("failed to create AWS session: %w", err)
	}

	b.mu.Lock()
	b.client = s3.New(sess)
	b.ipfs = b.pctx.IPFS
	b.mu.Unlock()
	return nil
}

func (b *S3Pinning) Close(ctx context.Context) error {
	b.mu.Lock()
	b.client = nil
	b.ipfs = nil
	b.mu.Unlock()
	return nil
}

func (b *S3Pinning) handles() (*s3.S3, interfaces.IPFSNode, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if b.client == nil {
		return nil, nil, interfaces.ErrNotOpen
	}
	return b.client, b.ipfs, nil
}

// Pin streams the content from IPFS into the bucket. Large content is uploaded in parts.
func (b *S3Pinning) Pin(ctx context.Context, c cid.Cid) error {
	start := time.Now()
	client, node, err := b.handles()
	if err != nil {
		return err
	}

	reader, err := node.Cat(ctx, c)
	if err != nil {
		return fmt.Errorf("failed to fetch %s from IPFS: %w", c, err)
	}
	defer reader.Close()

	key := b.objectKey(c)
	_, err = s3manager.NewUploaderWithClient(client).UploadWithContext(ctx, &s3manager.UploadInput{
		Bucket: aws.String(b.bucket),
		Key:    aws.String(key),
		Body:   reader,
	})
	if err != nil {
		b.log.Error("Failed to upload content to S3",
			slog.String("cid", c.String()),
			slog.String("bucket", b.bucket),
			slog.String("key", key),
			"err", err,
			slog.Duration("duration", time.Since(start)))
		return fmt.Errorf("failed to upload %s to S3: %w", c, err)
	}

	b.log.Debug("Archived content in S3",
		slog.String("cid", c.String()),
		slog.String("bucket", b.bucket),
		slog.String("key", key),
		slog.Duration("duration", time.Since(start)))
	return nil
}

func (b *S3Pinning) Unpin(ctx context.Context, c cid.Cid) error {
	client, _, err := b.handles()
	if err != nil {
		return err
	}

	_, err = client.DeleteObjectWithContext(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(b.bucket),
		Key:    aws.String(b.objectKey(c)),
	})
	if err != nil {
		return fmt.Errorf("failed to delete %s from S3: %w", c, err)
	}
	return nil
}

// Ls lists archived CIDs. Keys under the prefix that are not CIDs are skipped.
func (b *S3Pinning) Ls(ctx context.Context) (interfaces.CidList, error) {
	client, _, err := b.handles()
	if err != nil {
		return nil, err
	}

	listPrefix := ""
	if b.prefix != "" {
		listPrefix = b.prefix + "/"
	}

	result := interfaces.CidList{}
	err = client.ListObjectsV2PagesWithContext(ctx, &s3.ListObjectsV2Input{
		Bucket: aws.String(b.bucket),
		Prefix: aws.String(listPrefix),
	}, func(page *s3.ListObjectsV2Output, lastPage bool) bool {
		for _, obj := range page.Contents {
			name := strings.TrimPrefix(aws.StringValue(obj.Key), listPrefix)
			c, err := cid.Decode(name)
			if err != nil {
				b.log.Debug("Skipping non-CID object",
					slog.String("bucket", b.bucket),
					slog.String("key", aws.StringValue(obj.Key)))
				continue
			}
			result[c.String()] = []string{b.id}
		}
		return true
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list S3 objects: %w", err)
	}
	return result, nil
}

func (b *S3Pinning) Info(ctx context.Context) (interfaces.PinningInfo, error) {
	return interfaces.PinningInfo{
		b.id: map[string]any{
			"bucket": b.bucket,
			"prefix": b.prefix,
			"region": b.region,
		},
	}, nil
}

func (b *S3Pinning) objectKey(c cid.Cid) string {
	if b.prefix == "" {
		return c.String()
	}
	return path.Join(b.prefix, c.String())
}

package pinning

import (
	"context"
	"encoding/xml"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sort"
	"strings"
	"sync"
	"testing"
	"testing/iotest"

	"github.com/ruteri/pinning-aggregation/interfaces"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// fakeS3 serves path-style PutObject, DeleteObject and ListObjectsV2 for one bucket.
type fakeS3 struct {
	mu      sync.Mutex
	bucket  string
	objects map[string][]byte
}

type listBucketResult struct {
	XMLName     xml.Name `xml:"ListBucketResult"`
	Name        string   `xml:"Name"`
	Prefix      string   `xml:"Prefix"`
	KeyCount    int      `xml:"KeyCount"`
	IsTruncated bool     `xml:"IsTruncated"`
	Contents    []struct {
		Key  string `xml:"Key"`
		Size int    `xml:"Size"`
	} `xml:"Contents"`
}

func (f *fakeS3) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()

	bucketPrefix := "/" + f.bucket
	if !strings.HasPrefix(r.URL.Path, bucketPrefix) {
		w.WriteHeader(http.StatusNotFound)
		return
	}
	key := strings.TrimPrefix(strings.TrimPrefix(r.URL.Path, bucketPrefix), "/")

	switch {
	case r.Method == http.MethodPut && key != "":
		data, err := io.ReadAll(r.Body)
		if err != nil {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		f.objects[key] = data
		w.Header().Set("ETag", `"etag"`)
		w.WriteHeader(http.StatusOK)
	case r.Method == http.MethodDelete && key != "":
		delete(f.objects, key)
		w.WriteHeader(http.StatusNoContent)
	case r.Method == http.MethodGet && key == "" && r.URL.Query().Get("list-type") == "2":
		prefix := r.URL.Query().Get("prefix")
		result := listBucketResult{Name: f.bucket, Prefix: prefix}
		keys := make([]string, 0, len(f.objects))
		for k := range f.objects {
			if strings.HasPrefix(k, prefix) {
				keys = append(keys, k)
			}
		}
		sort.Strings(keys)
		for _, k := range keys {
			result.Contents = append(result.Contents, struct {
				Key  string `xml:"Key"`
				Size int    `xml:"Size"`
			}{Key: k, Size: len(f.objects[k])})
		}
		result.KeyCount = len(keys)
		w.Header().Set("Content-Type", "application/xml")
		w.WriteHeader(http.StatusOK)
		xml.NewEncoder(w).Encode(result)
	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

func (f *fakeS3) object(key string) ([]byte, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	data, ok := f.objects[key]
	return data, ok
}

func s3ConnectionString(endpoint string) string {
	query := url.Values{}
	query.Set("region", "us-east-1")
	query.Set("endpoint", endpoint)
	query.Set("path_style", "true")
	return "s3://AKID:SECRET@pins-bucket/archive?" + query.Encode()
}

func TestNewS3Pinning(t *testing.T) {
	backend, err := NewS3Pinning("s3://bucket/some/prefix/", nil)
	require.NoError(t, err)
	assert.Equal(t, "bucket", backend.bucket)
	assert.Equal(t, "some/prefix", backend.prefix)
	assert.Equal(t, defaultS3Region, backend.region)
	assert.Equal(t, BackendID(S3Designator, "s3://bucket/some/prefix/"), backend.ID())

	_, err = NewS3Pinning("s3:///no-bucket", nil)
	assert.ErrorIs(t, err, interfaces.ErrInvalidConnectionString)
}

func TestS3Pinning_OpenRequiresIPFS(t *testing.T) {
	backend, err := NewS3Pinning("s3://bucket/prefix", &interfaces.PinningContext{})
	require.NoError(t, err)

	assert.ErrorIs(t, backend.Open(context.Background()), interfaces.ErrNoIpfsInstance)
	assert.ErrorIs(t, backend.Pin(context.Background(), mustCid(t, testCidV0)), interfaces.ErrNotOpen)
}

func TestS3Pinning_Lifecycle(t *testing.T) {
	store := &fakeS3{bucket: "pins-bucket", objects: map[string][]byte{
		"archive/not-a-cid": []byte("ignored"),
	}}
	srv := httptest.NewServer(store)
	defer srv.Close()

	ctx := context.Background()
	c := mustCid(t, testCidV0)

	node := &MockIPFSNode{}
	node.On("Cat", mock.Anything, c).Return(io.NopCloser(strings.NewReader("hello world")), nil).Once()

	backend, err := NewS3Pinning(s3ConnectionString(srv.URL), &interfaces.PinningContext{IPFS: node, Log: testLogger()})
	require.NoError(t, err)
	require.NoError(t, backend.Open(ctx))

	require.NoError(t, backend.Pin(ctx, c))
	data, ok := store.object("archive/" + testCidV0)
	require.True(t, ok)
	assert.Equal(t, "hello world", string(data))

	list, err := backend.Ls(ctx)
	require.NoError(t, err)
	assert.Equal(t, interfaces.CidList{testCidV0: {backend.ID()}}, list)

	require.NoError(t, backend.Unpin(ctx, c))
	_, ok = store.object("archive/" + testCidV0)
	assert.False(t, ok)

	list, err = backend.Ls(ctx)
	require.NoError(t, err)
	assert.Empty(t, list)

	info, err := backend.Info(ctx)
	require.NoError(t, err)
	assert.Equal(t, interfaces.PinningInfo{backend.ID(): map[string]any{
		"bucket": "pins-bucket",
		"prefix": "archive",
		"region": "us-east-1",
	}}, info)

	require.NoError(t, backend.Close(ctx))
	node.AssertExpectations(t)
}

func TestS3Pinning_PinFailsWhenContentIsMissing(t *testing.T) {
	store := &fakeS3{bucket: "pins-bucket", objects: map[string][]byte{}}
	srv := httptest.NewServer(store)
	defer srv.Close()

	ctx := context.Background()
	c := mustCid(t, testCidV0)
	testErr := errors.New("block was not found locally")

	node := &MockIPFSNode{}
	node.On("Cat", mock.Anything, c).Return(nil, testErr)

	backend, err := NewS3Pinning(s3ConnectionString(srv.URL), &interfaces.PinningContext{IPFS: node, Log: testLogger()})
	require.NoError(t, err)
	require.NoError(t, backend.Open(ctx))

	assert.ErrorIs(t, backend.Pin(ctx, c), testErr)
	_, ok := store.object("archive/" + testCidV0)
	assert.False(t, ok)
}

// brokenStream yields some content and then fails.
type brokenStream struct {
	io.Reader
	closed bool
}

func (s *brokenStream) Close() error {
	s.closed = true
	return nil
}

func TestS3Pinning_PinStreamFailure(t *testing.T) {
	store := &fakeS3{bucket: "pins-bucket", objects: map[string][]byte{}}
	srv := httptest.NewServer(store)
	defer srv.Close()

	ctx := context.Background()
	c := mustCid(t, testCidV0)
	stream := &brokenStream{Reader: io.MultiReader(
		strings.NewReader("partial content"),
		iotest.ErrReader(errors.New("stream reset")),
	)}

	node := &MockIPFSNode{}
	node.On("Cat", mock.Anything, c).Return(stream, nil).Once()

	backend, err := NewS3Pinning(s3ConnectionString(srv.URL), &interfaces.PinningContext{IPFS: node, Log: testLogger()})
	require.NoError(t, err)
	require.NoError(t, backend.Open(ctx))

	err = backend.Pin(ctx, c)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "stream reset")
	assert.True(t, stream.closed)

	_, ok := store.object("archive/" + testCidV0)
	assert.False(t, ok)
	node.AssertExpectations(t)
}

package uploads

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"gocloud.dev/blob"
	"gocloud.dev/gcerrors"

	// Drivers register themselves on import; the bucket URL in config
	// selects one at runtime.
	_ "gocloud.dev/blob/fileblob"
	_ "gocloud.dev/blob/memblob"
	_ "gocloud.dev/blob/s3blob"
)

// ErrNotFound is returned when no object exists at the requested location.
var ErrNotFound = errors.New("upload not found")

// Store fetches uploaded workbook buffers by their storage location.
type Store interface {
	FindByLocation(ctx context.Context, location string) ([]byte, error)
}

type blobStore struct {
	bucket *blob.Bucket
}

// NewBlobStore wraps an opened bucket as an upload store.
func NewBlobStore(bucket *blob.Bucket) Store {
	return &blobStore{bucket: bucket}
}

// OpenBlobStore opens the bucket at bucketURL (s3://, file://, mem://) and
// wraps it as an upload store. The caller owns closing the returned bucket.
func OpenBlobStore(ctx context.Context, bucketURL string) (Store, *blob.Bucket, error) {
	bucket, err := blob.OpenBucket(ctx, bucketURL)
	if err != nil {
		return nil, nil, fmt.Errorf("open upload bucket %s: %w", bucketURL, err)
	}
	return &blobStore{bucket: bucket}, bucket, nil
}

func (s *blobStore) FindByLocation(ctx context.Context, location string) ([]byte, error) {
	data, err := s.bucket.ReadAll(ctx, location)
	if err != nil {
		if gcerrors.Code(err) == gcerrors.NotFound {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("read upload %s: %w", location, err)
	}
	return data, nil
}

// MemoryStore is an in-memory upload store for tests.
type MemoryStore struct {
	mu      sync.RWMutex
	objects map[string][]byte
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{objects: map[string][]byte{}}
}

func (s *MemoryStore) Put(location string, data []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.objects[location] = data
}

func (s *MemoryStore) FindByLocation(_ context.Context, location string) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	data, ok := s.objects[location]
	if !ok {
		return nil, ErrNotFound
	}
	return data, nil
}

package s3

import (
	"context"
	"io"
	"os"
	"strings"

	"github.com/minio/minio-go/v7"
	"github.com/pkg/errors"

	"github.com/zenkj/ossfs/store"
)

// Store implements store.Store against any S3-compatible object store.
type Store struct {
	client *minio.Client
	bucket string
}

// NewStore creates a new S3 store with the given client and bucket.
func NewStore(client *minio.Client, bucket string) *Store {
	return &Store{
		client: client,
		bucket: bucket,
	}
}

// List implements store.Store.
func (s *Store) List(ctx context.Context, prefix string) (*store.Listing, error) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	opts := minio.ListObjectsOptions{
		Prefix:    prefix,
		Recursive: false,
	}

	listing := &store.Listing{}

	for obj := range s.client.ListObjects(ctx, s.bucket, opts) {
		if obj.Err != nil {
			return nil, errors.WithStack(obj.Err)
		}

		// Skip the directory marker of the prefix itself.
		if obj.Key == prefix {
			continue
		}

		if strings.HasSuffix(obj.Key, store.Delimiter) {
			listing.Prefixes = append(listing.Prefixes, obj.Key)
			continue
		}

		listing.Objects = append(listing.Objects, store.Object{
			Key:          obj.Key,
			Size:         obj.Size,
			LastModified: obj.LastModified,
		})
	}

	return listing, nil
}

// GetRange implements store.Store.
func (s *Store) GetRange(ctx context.Context, key string, begin int64, end int64) (io.ReadCloser, error) {
	opts := minio.GetObjectOptions{}
	if err := opts.SetRange(begin, end); err != nil {
		return nil, errors.Wrapf(err, "could not set range [%d, %d] for key '%s'", begin, end, key)
	}

	obj, err := s.client.GetObject(ctx, s.bucket, key, opts)
	if err != nil {
		return nil, errors.WithStack(err)
	}

	return obj, nil
}

// StatObject implements store.Store.
func (s *Store) StatObject(ctx context.Context, key string) (*store.Object, error) {
	info, err := s.client.StatObject(ctx, s.bucket, key, minio.StatObjectOptions{})
	if err != nil {
		errResp := minio.ToErrorResponse(err)
		if errResp.Code == "NoSuchKey" {
			return nil, os.ErrNotExist
		}

		return nil, errors.WithStack(err)
	}

	return &store.Object{
		Key:          info.Key,
		Size:         info.Size,
		LastModified: info.LastModified,
	}, nil
}

// HasPrefix implements store.Store.
func (s *Store) HasPrefix(ctx context.Context, prefix string) (bool, error) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	opts := minio.ListObjectsOptions{
		Prefix:    prefix,
		Recursive: true,
		MaxKeys:   1,
	}

	for obj := range s.client.ListObjects(ctx, s.bucket, opts) {
		if obj.Err != nil {
			return false, errors.WithStack(obj.Err)
		}

		return true, nil
	}

	return false, nil
}

var _ store.Store = &Store{}

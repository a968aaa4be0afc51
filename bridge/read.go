package bridge

import (
	"context"
	"io"
	"os"

	"github.com/pkg/errors"
)

// Read implements Operations. The requested range is clamped to the file's
// cached extent before a single inclusive byte-range fetch is issued; the
// store may still return fewer bytes at end-of-file.
func (b *Bridge) Read(ctx context.Context, path string, length int, offset int64) ([]byte, error) {
	record, found, err := b.attrs.Lookup(ctx, path)
	if err != nil {
		return nil, errors.WithStack(err)
	}

	if !found {
		return nil, os.ErrNotExist
	}

	if record.IsDir() {
		return nil, errors.Wrapf(ErrIsDirectory, "could not read '%s'", path)
	}

	size := record.Size

	// A zero-size file or an offset at or past the extent yields no bytes
	// and must not hit the network: there is no valid inclusive range to
	// request.
	if size == 0 || offset >= size || length <= 0 {
		return []byte{}, nil
	}

	end := offset + int64(length)
	if end > size {
		end = size
	}

	body, err := b.objects.GetRange(ctx, storeKey(path), offset, end-1)
	if err != nil {
		return nil, errors.Wrapf(err, "could not fetch range [%d, %d] of '%s'", offset, end-1, path)
	}

	defer func() {
		_ = body.Close()
	}()

	data := make([]byte, end-offset)

	read, err := io.ReadFull(body, data)
	if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) && !errors.Is(err, io.EOF) {
		return nil, errors.WithStack(err)
	}

	return data[:read], nil
}

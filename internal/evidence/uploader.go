// Package evidence uploads delivery photos and invoice images before the ledger row that references them is written.
package evidence

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/sitetrack/procurement-api/internal/storage"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// ErrUpload wraps the first failure of a batch upload
var ErrUpload = errors.New("evidence upload failed")

const (
	defaultParallel = 4
	cleanupTimeout  = 30 * time.Second
)

// File is one evidence file supplied by the caller
type File struct {
	Filename    string
	ContentType string
	Size        int64
	Open        func() (io.ReadCloser, error)
}

// Uploader stores evidence batches in parallel
type Uploader struct {
	store       storage.Storage
	timeout     time.Duration
	maxParallel int
	logger      *zap.Logger
}

// NewUploader creates an uploader. A zero timeout disables the per-batch deadline.
func NewUploader(store storage.Storage, timeout time.Duration, logger *zap.Logger) *Uploader {
	return &Uploader{
		store:       store,
		timeout:     timeout,
		maxParallel: defaultParallel,
		logger:      logger,
	}
}

// UploadAll stores every file under prefix. Either all files are stored and their results
// are returned in input order, or none remain: already stored files are deleted on failure.
func (u *Uploader) UploadAll(ctx context.Context, prefix string, files []File) ([]storage.Stored, error) {
	if len(files) == 0 {
		return nil, nil
	}

	if u.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, u.timeout)
		defer cancel()
	}

	results := make([]*storage.Stored, len(files))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(u.maxParallel)

	for i, f := range files {
		g.Go(func() error {
			stored, err := u.put(gctx, prefix, f)
			if err != nil {
				return fmt.Errorf("%s: %w", f.Filename, err)
			}
			results[i] = stored
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		var uploaded []string
		for _, r := range results {
			if r != nil {
				uploaded = append(uploaded, r.Path)
			}
		}
		u.Discard(context.WithoutCancel(ctx), uploaded)
		return nil, fmt.Errorf("%w: %v", ErrUpload, err)
	}

	out := make([]storage.Stored, len(results))
	for i, r := range results {
		out[i] = *r
	}
	return out, nil
}

func (u *Uploader) put(ctx context.Context, prefix string, f File) (*storage.Stored, error) {
	if f.Open == nil {
		return nil, errors.New("no content")
	}
	body, err := f.Open()
	if err != nil {
		return nil, err
	}
	defer body.Close()

	return u.store.Put(ctx, storage.Object{
		Prefix:      prefix,
		Filename:    f.Filename,
		ContentType: f.ContentType,
		Body:        body,
	})
}

// Discard deletes stored objects best-effort; failures are only logged
func (u *Uploader) Discard(ctx context.Context, paths []string) {
	if len(paths) == 0 {
		return
	}
	ctx, cancel := context.WithTimeout(ctx, cleanupTimeout)
	defer cancel()

	for _, p := range paths {
		if err := u.store.Delete(ctx, p); err != nil {
			u.logger.Warn("failed to delete orphaned evidence",
				zap.String("path", p),
				zap.Error(err),
			)
		}
	}
}

// URLs returns the client URLs of stored objects
func URLs(stored []storage.Stored) []string {
	urls := make([]string, len(stored))
	for i, s := range stored {
		urls[i] = s.URL
	}
	return urls
}

// Paths returns the storage paths of stored objects
func Paths(stored []storage.Stored) []string {
	paths := make([]string, len(stored))
	for i, s := range stored {
		paths[i] = s.Path
	}
	return paths
}

package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/sitetrack/procurement-api/internal/config"
	"go.uber.org/zap"
)

// ErrObjectNotFound is returned by Open when the object does not exist
var ErrObjectNotFound = errors.New("stored object not found")

// Object is an evidence file to be stored
type Object struct {
	// Prefix groups objects by owner, e.g. "deliveries/<order id>"
	Prefix      string
	Filename    string
	ContentType string
	Body        io.Reader
}

// Stored describes an object after upload
type Stored struct {
	Path string
	URL  string
	Size int64
}

// Storage stores evidence blobs (delivery photos, invoice images)
type Storage interface {
	Put(ctx context.Context, obj Object) (*Stored, error)
	Open(ctx context.Context, storagePath string) (io.ReadCloser, error)
	Delete(ctx context.Context, storagePath string) error
	// URL returns the address clients use to fetch a stored path
	URL(storagePath string) string
}

// NewStorage creates the storage backend selected by configuration
func NewStorage(cfg *config.StorageConfig, logger *zap.Logger) (Storage, error) {
	switch cfg.Mode {
	case "local":
		return NewLocalStorage(cfg.LocalBasePath, cfg.PublicBaseURL)
	case "cloud", "azure":
		if cfg.CloudConnectionString == "" {
			return nil, fmt.Errorf("cloud connection string required for azure storage")
		}
		return NewAzureBlobStorage(cfg.CloudConnectionString, cfg.CloudContainer, logger)
	default:
		return nil, fmt.Errorf("unsupported storage mode: %s", cfg.Mode)
	}
}

// objectName builds "<prefix>/<uuid><ext>" using forward slashes
func objectName(prefix, filename string) string {
	name := uuid.New().String() + strings.ToLower(filepath.Ext(filename))
	prefix = strings.Trim(prefix, "/")
	if prefix == "" {
		return name
	}
	return path.Join(prefix, name)
}

// LocalStorage keeps objects on the local filesystem
type LocalStorage struct {
	basePath      string
	publicBaseURL string
}

// NewLocalStorage creates a new local storage rooted at basePath
func NewLocalStorage(basePath, publicBaseURL string) (*LocalStorage, error) {
	if err := os.MkdirAll(basePath, 0755); err != nil {
		return nil, fmt.Errorf("failed to create storage directory: %w", err)
	}

	return &LocalStorage{
		basePath:      basePath,
		publicBaseURL: strings.TrimRight(publicBaseURL, "/"),
	}, nil
}

// BasePath returns the root directory of the store
func (s *LocalStorage) BasePath() string {
	return s.basePath
}

func (s *LocalStorage) Put(ctx context.Context, obj Object) (*Stored, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	storagePath := objectName(obj.Prefix, obj.Filename)
	fullPath := filepath.Join(s.basePath, filepath.FromSlash(storagePath))

	if err := os.MkdirAll(filepath.Dir(fullPath), 0755); err != nil {
		return nil, fmt.Errorf("failed to create directory: %w", err)
	}

	file, err := os.Create(fullPath)
	if err != nil {
		return nil, fmt.Errorf("failed to create file: %w", err)
	}
	defer file.Close()

	size, err := io.Copy(file, obj.Body)
	if err != nil {
		os.Remove(fullPath)
		return nil, fmt.Errorf("failed to write file: %w", err)
	}

	return &Stored{Path: storagePath, URL: s.URL(storagePath), Size: size}, nil
}

func (s *LocalStorage) Open(ctx context.Context, storagePath string) (io.ReadCloser, error) {
	file, err := os.Open(filepath.Join(s.basePath, filepath.FromSlash(storagePath)))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrObjectNotFound, storagePath)
		}
		return nil, fmt.Errorf("failed to open file: %w", err)
	}
	return file, nil
}

// Delete removes a file; deleting a missing file is not an error
func (s *LocalStorage) Delete(ctx context.Context, storagePath string) error {
	if err := os.Remove(filepath.Join(s.basePath, filepath.FromSlash(storagePath))); err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("failed to delete file: %w", err)
	}
	return nil
}

func (s *LocalStorage) URL(storagePath string) string {
	if s.publicBaseURL == "" {
		return storagePath
	}
	return s.publicBaseURL + "/" + storagePath
}

// Package memory provides an in-memory blob store, used by tests and by
// deployments that do not keep media bytes.
package memory

import (
	"bytes"
	"context"
	"errors"
	"io"
	"sync"

	"github.com/mobilehub/mobile-content/pkg/mobilecontent"
)

// Backend is an in-memory implementation of the mobilecontent.BlobStore interface
type Backend struct {
	mu              sync.RWMutex
	urlPrefix       string
	objects         map[string][]byte
	objectsMimeType map[string]string
}

// Option configures the in-memory backend.
type Option func(*Backend)

// WithURLPrefix makes GetDownloadURL return prefix + "/" + objectKey instead
// of failing. Useful when a served URL is expected but bytes live in memory.
func WithURLPrefix(prefix string) Option {
	return func(b *Backend) {
		b.urlPrefix = prefix
	}
}

// New creates a new in-memory storage backend
func New(opts ...Option) *Backend {
	b := &Backend{
		objects:         make(map[string][]byte),
		objectsMimeType: make(map[string]string),
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Upload uploads content directly
func (b *Backend) Upload(ctx context.Context, objectKey string, reader io.Reader) error {
	data, err := io.ReadAll(reader)
	if err != nil {
		return err
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	b.objects[objectKey] = data
	if _, exists := b.objectsMimeType[objectKey]; !exists {
		b.objectsMimeType[objectKey] = "application/octet-stream"
	}
	return nil
}

// UploadWithParams uploads content with an explicit MIME type
func (b *Backend) UploadWithParams(ctx context.Context, reader io.Reader, params mobilecontent.UploadParams) error {
	data, err := io.ReadAll(reader)
	if err != nil {
		return err
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	b.objects[params.ObjectKey] = data
	b.objectsMimeType[params.ObjectKey] = params.MimeType
	return nil
}

// Download downloads content directly
func (b *Backend) Download(ctx context.Context, objectKey string) (io.ReadCloser, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	data, exists := b.objects[objectKey]
	if !exists {
		return nil, errors.New("object not found")
	}

	return io.NopCloser(bytes.NewReader(data)), nil
}

// GetDownloadURL returns a URL for downloading content. Without a configured
// URL prefix the in-memory backend has no addressable location.
func (b *Backend) GetDownloadURL(ctx context.Context, objectKey string, downloadFilename string) (string, error) {
	if b.urlPrefix == "" {
		return "", errors.New("direct download required for memory backend")
	}
	return b.urlPrefix + "/" + objectKey, nil
}

// Delete deletes content
func (b *Backend) Delete(ctx context.Context, objectKey string) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if _, exists := b.objects[objectKey]; !exists {
		return errors.New("object not found")
	}

	delete(b.objects, objectKey)
	delete(b.objectsMimeType, objectKey)
	return nil
}

// GetObjectMeta retrieves metadata for an object in memory
func (b *Backend) GetObjectMeta(ctx context.Context, objectKey string) (*mobilecontent.ObjectMeta, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	data, exists := b.objects[objectKey]
	if !exists {
		return nil, errors.New("object not found")
	}

	return &mobilecontent.ObjectMeta{
		Key:         objectKey,
		Size:        int64(len(data)),
		ContentType: b.objectsMimeType[objectKey],
		Metadata:    map[string]string{"mime_type": b.objectsMimeType[objectKey]},
	}, nil
}

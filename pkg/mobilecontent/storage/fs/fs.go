// Package fs provides a filesystem-backed blob store.
package fs

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/mobilehub/mobile-content/pkg/mobilecontent"
)

// Config contains configuration for the filesystem backend
type Config struct {
	// BaseDir is the directory media objects are stored under.
	BaseDir string

	// URLPrefix, when set, is prepended to object keys to build download
	// URLs. Without it the backend cannot produce URLs.
	URLPrefix string
}

// Backend is a filesystem implementation of the mobilecontent.BlobStore interface
type Backend struct {
	baseDir   string
	urlPrefix string
}

// New creates a new filesystem storage backend
func New(config Config) (*Backend, error) {
	if config.BaseDir == "" {
		return nil, errors.New("base directory is required")
	}

	if err := os.MkdirAll(config.BaseDir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create base directory: %w", err)
	}

	return &Backend{
		baseDir:   config.BaseDir,
		urlPrefix: strings.TrimSuffix(config.URLPrefix, "/"),
	}, nil
}

// objectPath maps an object key onto the base directory. Keys are cleaned so
// a crafted key cannot escape the base directory.
func (b *Backend) objectPath(objectKey string) (string, error) {
	clean := filepath.Clean("/" + objectKey)
	if clean == "/" {
		return "", errors.New("invalid object key")
	}
	return filepath.Join(b.baseDir, clean), nil
}

// Upload stores content on the filesystem
func (b *Backend) Upload(ctx context.Context, objectKey string, reader io.Reader) error {
	path, err := b.objectPath(objectKey)
	if err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}

	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create file: %w", err)
	}
	defer file.Close()

	if _, err := io.Copy(file, reader); err != nil {
		return fmt.Errorf("failed to write file: %w", err)
	}
	return nil
}

// UploadWithParams stores content; the filesystem keeps no MIME type, the
// content type is re-detected on read.
func (b *Backend) UploadWithParams(ctx context.Context, reader io.Reader, params mobilecontent.UploadParams) error {
	return b.Upload(ctx, params.ObjectKey, reader)
}

// Download reads content back from the filesystem
func (b *Backend) Download(ctx context.Context, objectKey string) (io.ReadCloser, error) {
	path, err := b.objectPath(objectKey)
	if err != nil {
		return nil, err
	}

	file, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.New("object not found")
		}
		return nil, fmt.Errorf("failed to open file: %w", err)
	}
	return file, nil
}

// GetDownloadURL returns a URL for downloading content
func (b *Backend) GetDownloadURL(ctx context.Context, objectKey string, downloadFilename string) (string, error) {
	if b.urlPrefix == "" {
		return "", errors.New("no URL prefix configured for filesystem backend")
	}

	u := b.urlPrefix + "/" + objectKey
	if downloadFilename != "" {
		u += "?filename=" + url.QueryEscape(downloadFilename)
	}
	return u, nil
}

// Delete removes content from the filesystem
func (b *Backend) Delete(ctx context.Context, objectKey string) error {
	path, err := b.objectPath(objectKey)
	if err != nil {
		return err
	}

	if err := os.Remove(path); err != nil {
		if os.IsNotExist(err) {
			return errors.New("object not found")
		}
		return fmt.Errorf("failed to delete file: %w", err)
	}

	b.cleanupEmptyDirectories(filepath.Dir(path))
	return nil
}

// cleanupEmptyDirectories removes now-empty parents up to the base directory
func (b *Backend) cleanupEmptyDirectories(dir string) {
	for dir != b.baseDir && strings.HasPrefix(dir, b.baseDir) {
		entries, err := os.ReadDir(dir)
		if err != nil || len(entries) > 0 {
			return
		}
		if err := os.Remove(dir); err != nil {
			return
		}
		dir = filepath.Dir(dir)
	}
}

// GetObjectMeta retrieves metadata for an object on the filesystem
func (b *Backend) GetObjectMeta(ctx context.Context, objectKey string) (*mobilecontent.ObjectMeta, error) {
	path, err := b.objectPath(objectKey)
	if err != nil {
		return nil, err
	}

	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.New("object not found")
		}
		return nil, fmt.Errorf("failed to stat file: %w", err)
	}

	contentType := "application/octet-stream"
	if file, err := os.Open(path); err == nil {
		buf := make([]byte, 512)
		n, _ := file.Read(buf)
		file.Close()
		if n > 0 {
			contentType = http.DetectContentType(buf[:n])
		}
	}

	return &mobilecontent.ObjectMeta{
		Key:         objectKey,
		Size:        info.Size(),
		ContentType: contentType,
		UpdatedAt:   info.ModTime(),
		Metadata:    map[string]string{},
	}, nil
}

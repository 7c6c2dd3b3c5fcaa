// Package media fetches remote images and stores them as media items.
package media

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"path"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/mobilehub/mobile-content/pkg/mobilecontent"
)

// maxDownloadBytes bounds how much of a remote image is accepted.
const maxDownloadBytes = 32 << 20 // 32 MiB

// Sideloader downloads a remote image over HTTP and stores the bytes in a
// blob store, recording a MediaItem row for the post.
type Sideloader struct {
	client      *http.Client
	repository  mobilecontent.Repository
	store       mobilecontent.BlobStore
	backendName string
	logger      *slog.Logger
}

// Option configures the sideloader.
type Option func(*Sideloader)

// WithHTTPClient overrides the HTTP client used to fetch remote images.
func WithHTTPClient(client *http.Client) Option {
	return func(s *Sideloader) {
		s.client = client
	}
}

// WithLogger sets the structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Sideloader) {
		s.logger = logger
	}
}

// NewSideloader creates a sideloader storing bytes in the named backend.
func NewSideloader(repo mobilecontent.Repository, store mobilecontent.BlobStore, backendName string, opts ...Option) *Sideloader {
	s := &Sideloader{
		client:      &http.Client{Timeout: 30 * time.Second},
		repository:  repo,
		store:       store,
		backendName: backendName,
		logger:      slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Sideload fetches sourceURL, stores the bytes under a fresh object key and
// records the media item. The returned item is already persisted.
func (s *Sideloader) Sideload(ctx context.Context, postID uuid.UUID, sourceURL string) (*mobilecontent.MediaItem, error) {
	parsed, err := url.Parse(sourceURL)
	if err != nil {
		return nil, &mobilecontent.MediaError{SourceURL: sourceURL, Op: "parse", Err: err}
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return nil, &mobilecontent.MediaError{SourceURL: sourceURL, Op: "parse",
			Err: fmt.Errorf("unsupported scheme %q", parsed.Scheme)}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, sourceURL, nil)
	if err != nil {
		return nil, &mobilecontent.MediaError{SourceURL: sourceURL, Op: "fetch", Err: err}
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, &mobilecontent.MediaError{SourceURL: sourceURL, Op: "fetch", Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, &mobilecontent.MediaError{SourceURL: sourceURL, Op: "fetch",
			Err: fmt.Errorf("unexpected status %d", resp.StatusCode)}
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxDownloadBytes+1))
	if err != nil {
		return nil, &mobilecontent.MediaError{SourceURL: sourceURL, Op: "fetch", Err: err}
	}
	if len(data) > maxDownloadBytes {
		return nil, &mobilecontent.MediaError{SourceURL: sourceURL, Op: "fetch",
			Err: fmt.Errorf("image exceeds %d bytes", maxDownloadBytes)}
	}
	if len(data) == 0 {
		return nil, &mobilecontent.MediaError{SourceURL: sourceURL, Op: "fetch",
			Err: fmt.Errorf("empty response body")}
	}

	mimeType := resp.Header.Get("Content-Type")
	if mimeType == "" || mimeType == "application/octet-stream" {
		mimeType = http.DetectContentType(data)
	}
	if i := strings.IndexByte(mimeType, ';'); i >= 0 {
		mimeType = strings.TrimSpace(mimeType[:i])
	}

	mediaID := uuid.New()
	fileName := remoteFileName(parsed, mimeType)
	objectKey := fmt.Sprintf("media/%s/%s", mediaID, fileName)

	err = s.store.UploadWithParams(ctx, bytes.NewReader(data), mobilecontent.UploadParams{
		ObjectKey: objectKey,
		MimeType:  mimeType,
	})
	if err != nil {
		return nil, &mobilecontent.MediaError{SourceURL: sourceURL, Op: "store", Err: err}
	}

	item := &mobilecontent.MediaItem{
		ID:             mediaID,
		PostID:         postID,
		StorageBackend: s.backendName,
		ObjectKey:      objectKey,
		FileName:       fileName,
		MimeType:       mimeType,
		SourceURL:      sourceURL,
		CreatedAt:      time.Now().UTC(),
	}
	if err := s.repository.CreateMedia(ctx, item); err != nil {
		// Orphaned bytes are cheaper than a dangling row; try to clean up.
		if delErr := s.store.Delete(ctx, objectKey); delErr != nil {
			s.logger.WarnContext(ctx, "orphaned object cleanup failed",
				"object_key", objectKey, "err", delErr)
		}
		return nil, &mobilecontent.MediaError{SourceURL: sourceURL, Op: "record", Err: err}
	}

	return item, nil
}

// remoteFileName derives a stored file name from the source URL path, falling
// back to a MIME-derived extension when the path has none.
func remoteFileName(u *url.URL, mimeType string) string {
	name := path.Base(u.Path)
	if name == "" || name == "." || name == "/" {
		name = "image"
	}
	if path.Ext(name) == "" {
		switch mimeType {
		case "image/jpeg":
			name += ".jpg"
		case "image/png":
			name += ".png"
		case "image/gif":
			name += ".gif"
		case "image/webp":
			name += ".webp"
		}
	}
	return name
}

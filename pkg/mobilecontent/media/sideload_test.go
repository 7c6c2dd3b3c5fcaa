package media_test

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mobilehub/mobile-content/pkg/mobilecontent/media"
	"github.com/mobilehub/mobile-content/pkg/mobilecontent/repo/memory"
	memorystorage "github.com/mobilehub/mobile-content/pkg/mobilecontent/storage/memory"
)

// Smallest valid PNG header, enough for content-type detection.
var pngBytes = []byte("\x89PNG\r\n\x1a\n" + "fake image payload")

func newSideloader() (*media.Sideloader, *memory.Repository, *memorystorage.Backend) {
	repo := memory.New()
	store := memorystorage.New()
	return media.NewSideloader(repo, store, "memory"), repo, store
}

func TestSideloadStoresImageAndRecord(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "image/png")
		w.Write(pngBytes)
	}))
	defer server.Close()

	sl, repo, store := newSideloader()
	postID := uuid.New()

	item, err := sl.Sideload(context.Background(), postID, server.URL+"/shots/phone.png")
	require.NoError(t, err)

	assert.Equal(t, postID, item.PostID)
	assert.Equal(t, "memory", item.StorageBackend)
	assert.Equal(t, "phone.png", item.FileName)
	assert.Equal(t, "image/png", item.MimeType)
	assert.Contains(t, item.ObjectKey, item.ID.String())

	stored, err := repo.GetMedia(context.Background(), item.ID)
	require.NoError(t, err)
	assert.Equal(t, item.ObjectKey, stored.ObjectKey)

	reader, err := store.Download(context.Background(), item.ObjectKey)
	require.NoError(t, err)
	defer reader.Close()
	data, err := io.ReadAll(reader)
	require.NoError(t, err)
	assert.Equal(t, pngBytes, data)
}

func TestSideloadDetectsContentType(t *testing.T) {
	// No usable Content-Type header; detection falls back to sniffing.
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/octet-stream")
		w.Write(pngBytes)
	}))
	defer server.Close()

	sl, _, _ := newSideloader()

	item, err := sl.Sideload(context.Background(), uuid.New(), server.URL+"/image")
	require.NoError(t, err)
	assert.Equal(t, "image/png", item.MimeType)
	assert.Equal(t, "image.png", item.FileName)
}

func TestSideloadFailures(t *testing.T) {
	notFound := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	}))
	defer notFound.Close()

	empty := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer empty.Close()

	tests := []struct {
		name string
		url  string
	}{
		{name: "unsupported scheme", url: "ftp://example.com/a.png"},
		{name: "unparseable url", url: "http://%zz"},
		{name: "http error status", url: notFound.URL + "/missing.png"},
		{name: "empty body", url: empty.URL + "/empty.png"},
		{name: "unreachable host", url: "http://127.0.0.1:1/a.png"},
	}

	sl, repo, _ := newSideloader()

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := sl.Sideload(context.Background(), uuid.New(), tt.url)
			assert.Error(t, err)
		})
	}

	// No media rows should have been created along the way.
	_, err := repo.GetMedia(context.Background(), uuid.New())
	assert.Error(t, err)
}

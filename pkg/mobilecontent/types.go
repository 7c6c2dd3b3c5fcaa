package mobilecontent

import (
	"time"

	"github.com/google/uuid"
)

// PostStatus is the domain type for post lifecycle states.
type PostStatus string

// Post status constants (typed).
const (
	PostStatusPublish PostStatus = "publish"
	PostStatusDraft   PostStatus = "draft"
	PostStatusPending PostStatus = "pending"
)

// Taxonomy names supported by the service.
const (
	TaxonomyCategory = "category"
	TaxonomyTag      = "post_tag"
)

// PostTypeMobiles is the single custom content kind managed by this service.
const PostTypeMobiles = "mobiles"

// Post represents a persisted content item of a registered post type.
//
// Title is unique among posts of the same post type; the repository is the
// source of truth for that invariant and rejects duplicate creates.
type Post struct {
	ID              uuid.UUID  `json:"id"`
	PostType        string     `json:"post_type"`
	Title           string     `json:"title"`
	Content         string     `json:"content"`
	Status          PostStatus `json:"status"`
	AuthorID        uuid.UUID  `json:"author_id"`
	FeaturedMediaID *uuid.UUID `json:"featured_media_id,omitempty"`
	CreatedAt       time.Time  `json:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at"`
}

// User is the owner identity that authors posts, keyed by email.
// Email comparison is case-insensitive; the stored form is as given at
// creation time.
type User struct {
	ID           uuid.UUID `json:"id"`
	Login        string    `json:"login"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"created_at"`
}

// Term is a taxonomy term (category or tag) attached to posts.
type Term struct {
	ID       uuid.UUID `json:"id"`
	Taxonomy string    `json:"taxonomy"`
	Name     string    `json:"name"`
}

// MediaItem is a stored media attachment, backed by an object in a BlobStore.
type MediaItem struct {
	ID             uuid.UUID `json:"id"`
	PostID         uuid.UUID `json:"post_id"`
	StorageBackend string    `json:"storage_backend"`
	ObjectKey      string    `json:"object_key"`
	FileName       string    `json:"file_name"`
	MimeType       string    `json:"mime_type"`
	SourceURL      string    `json:"source_url,omitempty"`
	CreatedAt      time.Time `json:"created_at"`
}

// SubmissionRecord is one untrusted entry of a bulk submit request. JSON
// field names follow the original wire format of the submit endpoint.
type SubmissionRecord struct {
	AuthorEmail      string            `json:"author_email"`
	Title            string            `json:"title"`
	Content          string            `json:"content"`
	Status           string            `json:"status,omitempty"`
	Tags             string            `json:"tags,omitempty"`
	Categories       string            `json:"categories,omitempty"`
	FeaturedImageURL string            `json:"featured_image,omitempty"`
	CustomFields     map[string]string `json:"custom_fields,omitempty"`
}

// SubmissionResult is the per-record outcome of a bulk submit. Exactly one of
// Error or PostID is set; Index mirrors the input position.
type SubmissionResult struct {
	Index  int    `json:"index"`
	PostID string `json:"post_id,omitempty"`
	Status string `json:"status,omitempty"`
	Error  string `json:"error,omitempty"`
}

// SubmissionStatusSuccess is the Status value of a successful SubmissionResult.
const SubmissionStatusSuccess = "success"

// PostData is the read projection returned by the fetch endpoints.
type PostData struct {
	ID            string            `json:"id"`
	Title         string            `json:"title"`
	Email         string            `json:"email"`
	CreatedAt     time.Time         `json:"created_at"`
	Tags          []string          `json:"tags"`
	Categories    []string          `json:"categories"`
	FeaturedImage string            `json:"featured_image,omitempty"`
	CustomFields  map[string]string `json:"custom_fields"`
}

// PostPage is one page of projected posts plus store-provided totals.
type PostPage struct {
	Posts      []PostData
	Total      int
	TotalPages int
}

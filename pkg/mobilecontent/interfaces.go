package mobilecontent

import (
	"context"
	"io"
	"time"

	"github.com/google/uuid"
)

// Repository defines the interface for post, term, meta and media persistence.
//
// Implementations must provide read-your-writes consistency: a post created by
// CreatePost is immediately visible to GetPostByTitle, so the title uniqueness
// check holds across records of the same batch.
type Repository interface {
	// Post operations
	CreatePost(ctx context.Context, post *Post) error
	GetPost(ctx context.Context, id uuid.UUID) (*Post, error)
	GetPostByTitle(ctx context.Context, postType, title string) (*Post, error)
	UpdatePost(ctx context.Context, post *Post) error
	ListPosts(ctx context.Context, params ListPostsParams) ([]*Post, int, error)
	ListPostsByAuthor(ctx context.Context, postType string, authorID uuid.UUID) ([]*Post, error)

	// Taxonomy operations
	GetTermByName(ctx context.Context, taxonomy, name string) (*Term, error)
	CreateTerm(ctx context.Context, taxonomy, name string) (*Term, error)
	SetPostTerms(ctx context.Context, postID uuid.UUID, taxonomy string, termIDs []uuid.UUID) error
	GetPostTerms(ctx context.Context, postID uuid.UUID, taxonomy string) ([]*Term, error)

	// Post meta operations
	SetPostMeta(ctx context.Context, postID uuid.UUID, key, value string) error
	GetPostMeta(ctx context.Context, postID uuid.UUID) (map[string]string, error)

	// Media operations
	CreateMedia(ctx context.Context, media *MediaItem) error
	GetMedia(ctx context.Context, id uuid.UUID) (*MediaItem, error)
}

// ListPostsParams selects one page of posts of a post type, in stable
// creation order.
type ListPostsParams struct {
	PostType string
	Page     int
	PerPage  int
}

// UserStore defines the interface for the identity collaborator. Lookups by
// email are case-insensitive.
type UserStore interface {
	GetUserByEmail(ctx context.Context, email string) (*User, error)
	GetUser(ctx context.Context, id uuid.UUID) (*User, error)
	CreateUser(ctx context.Context, user *User) error
	// Authenticate verifies a login/password pair and returns the matching
	// user, or ErrInvalidCredentials.
	Authenticate(ctx context.Context, login, password string) (*User, error)
}

// BlobStore defines the interface for media byte storage backends.
type BlobStore interface {
	// Upload stores the bytes read from reader under objectKey.
	Upload(ctx context.Context, objectKey string, reader io.Reader) error

	// UploadWithParams stores bytes with an explicit MIME type.
	UploadWithParams(ctx context.Context, reader io.Reader, params UploadParams) error

	// Download reads back the stored bytes.
	Download(ctx context.Context, objectKey string) (io.ReadCloser, error)

	// GetDownloadURL returns a URL a client can fetch the object from.
	GetDownloadURL(ctx context.Context, objectKey string, downloadFilename string) (string, error)

	// Delete removes the object.
	Delete(ctx context.Context, objectKey string) error

	// GetObjectMeta retrieves metadata for a stored object.
	GetObjectMeta(ctx context.Context, objectKey string) (*ObjectMeta, error)
}

// ObjectMeta contains metadata about an object in storage
type ObjectMeta struct {
	Key         string
	Size        int64
	ContentType string
	UpdatedAt   time.Time
	ETag        string
	Metadata    map[string]string
}

// UploadParams contains parameters for uploading an object
type UploadParams struct {
	ObjectKey string
	MimeType  string
}

// Sideloader fetches a remote resource and stores it as a media item
// attached to a post.
type Sideloader interface {
	Sideload(ctx context.Context, postID uuid.UUID, sourceURL string) (*MediaItem, error)
}

// EventSink defines the interface for event handling
type EventSink interface {
	// PostCreated is fired when a post is created
	PostCreated(ctx context.Context, post *Post) error

	// UserCreated is fired when an owner identity is auto-created
	UserCreated(ctx context.Context, user *User) error

	// MediaAttached is fired when a featured image is attached to a post
	MediaAttached(ctx context.Context, media *MediaItem) error
}

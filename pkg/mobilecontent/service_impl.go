package mobilecontent

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
)

// service implements the Service interface
type service struct {
	repository Repository
	users      UserStore
	blobStores map[string]BlobStore
	sideloader Sideloader
	eventSink  EventSink
	logger     *slog.Logger
	postTypes  map[string]PostType
}

// Option represents a functional option for configuring the service
type Option func(*service)

// WithRepository sets the repository for the service
func WithRepository(repo Repository) Option {
	return func(s *service) {
		s.repository = repo
	}
}

// WithUserStore sets the identity collaborator for the service
func WithUserStore(users UserStore) Option {
	return func(s *service) {
		s.users = users
	}
}

// WithBlobStore adds a media storage backend
func WithBlobStore(name string, store BlobStore) Option {
	return func(s *service) {
		if s.blobStores == nil {
			s.blobStores = make(map[string]BlobStore)
		}
		s.blobStores[name] = store
	}
}

// WithSideloader sets the featured-image sideloader
func WithSideloader(sl Sideloader) Option {
	return func(s *service) {
		s.sideloader = sl
	}
}

// WithEventSink sets the event sink for the service
func WithEventSink(sink EventSink) Option {
	return func(s *service) {
		s.eventSink = sink
	}
}

// WithLogger sets the structured logger used for enrichment diagnostics
func WithLogger(logger *slog.Logger) Option {
	return func(s *service) {
		s.logger = logger
	}
}

// WithPostType registers an additional post type definition
func WithPostType(pt PostType) Option {
	return func(s *service) {
		s.postTypes[pt.Name] = pt
	}
}

// New creates a new service instance with the given options. The "mobiles"
// post type is always registered.
func New(options ...Option) (Service, error) {
	s := &service{
		blobStores: make(map[string]BlobStore),
		postTypes:  map[string]PostType{PostTypeMobiles: MobilesPostType()},
	}

	for _, option := range options {
		option(s)
	}

	if s.repository == nil {
		return nil, fmt.Errorf("repository is required")
	}
	if s.users == nil {
		return nil, fmt.Errorf("user store is required")
	}
	if s.eventSink == nil {
		s.eventSink = NewNoopEventSink()
	}
	if s.logger == nil {
		s.logger = slog.Default()
	}

	return s, nil
}

func (s *service) RegisteredPostType(name string) (PostType, bool) {
	pt, ok := s.postTypes[name]
	return pt, ok
}

// Fetch operations

func (s *service) ListPosts(ctx context.Context, page, perPage int) (*PostPage, error) {
	if page < 1 {
		page = 1
	}
	if perPage < 1 {
		perPage = 10
	}

	posts, total, err := s.repository.ListPosts(ctx, ListPostsParams{
		PostType: PostTypeMobiles,
		Page:     page,
		PerPage:  perPage,
	})
	if err != nil {
		return nil, fmt.Errorf("list posts: %w", err)
	}

	data := make([]PostData, 0, len(posts))
	for _, post := range posts {
		data = append(data, s.projectPost(ctx, post))
	}

	totalPages := (total + perPage - 1) / perPage

	return &PostPage{Posts: data, Total: total, TotalPages: totalPages}, nil
}

func (s *service) ListPostsByEmail(ctx context.Context, email string) ([]PostData, error) {
	user, err := s.users.GetUserByEmail(ctx, SanitizeText(email))
	if err != nil {
		return nil, err
	}

	posts, err := s.repository.ListPostsByAuthor(ctx, PostTypeMobiles, user.ID)
	if err != nil {
		return nil, err
	}
	if len(posts) == 0 {
		return nil, ErrPostNotFound
	}

	data := make([]PostData, 0, len(posts))
	for _, post := range posts {
		data = append(data, s.projectPost(ctx, post))
	}
	return data, nil
}

// projectPost assembles the read projection for one post. Enrichment lookups
// are best effort: a missing term list or media object degrades to an empty
// field rather than failing the fetch.
func (s *service) projectPost(ctx context.Context, post *Post) PostData {
	data := PostData{
		ID:           post.ID.String(),
		Title:        post.Title,
		CreatedAt:    post.CreatedAt,
		Tags:         []string{},
		Categories:   []string{},
		CustomFields: map[string]string{},
	}

	if author, err := s.users.GetUser(ctx, post.AuthorID); err == nil {
		data.Email = author.Email
	} else {
		s.logger.WarnContext(ctx, "author lookup failed", "post_id", post.ID, "err", err)
	}

	if terms, err := s.repository.GetPostTerms(ctx, post.ID, TaxonomyTag); err == nil {
		data.Tags = termNames(terms)
	}
	if terms, err := s.repository.GetPostTerms(ctx, post.ID, TaxonomyCategory); err == nil {
		data.Categories = termNames(terms)
	}

	if meta, err := s.repository.GetPostMeta(ctx, post.ID); err == nil && meta != nil {
		data.CustomFields = meta
	}

	if post.FeaturedMediaID != nil {
		data.FeaturedImage = s.featuredImageURL(ctx, *post.FeaturedMediaID)
	}

	return data
}

func (s *service) featuredImageURL(ctx context.Context, mediaID uuid.UUID) string {
	media, err := s.repository.GetMedia(ctx, mediaID)
	if err != nil {
		s.logger.WarnContext(ctx, "media lookup failed", "media_id", mediaID, "err", err)
		return ""
	}

	store, ok := s.blobStores[media.StorageBackend]
	if !ok {
		s.logger.WarnContext(ctx, "unknown storage backend for media",
			"media_id", mediaID, "backend", media.StorageBackend)
		return ""
	}

	url, err := store.GetDownloadURL(ctx, media.ObjectKey, media.FileName)
	if err != nil {
		return ""
	}
	return url
}

func termNames(terms []*Term) []string {
	names := make([]string, 0, len(terms))
	for _, t := range terms {
		names = append(names, t.Name)
	}
	return names
}

// resolveOwner looks up the owner identity by email, creating it with a
// generated credential on first use.
func (s *service) resolveOwner(ctx context.Context, email string) (*User, error) {
	user, err := s.users.GetUserByEmail(ctx, email)
	if err == nil {
		return user, nil
	}
	if !errors.Is(err, ErrUserNotFound) {
		return nil, &UserError{Email: email, Op: "lookup", Err: err}
	}

	password, err := GeneratePassword()
	if err != nil {
		return nil, &UserError{Email: email, Op: "create", Err: err}
	}
	hash, err := HashPassword(password)
	if err != nil {
		return nil, &UserError{Email: email, Op: "create", Err: err}
	}

	user = &User{
		ID:           uuid.New(),
		Login:        email,
		Email:        email,
		PasswordHash: hash,
	}
	if err := s.users.CreateUser(ctx, user); err != nil {
		return nil, &UserError{Email: email, Op: "create", Err: err}
	}

	if err := s.eventSink.UserCreated(ctx, user); err != nil {
		s.logger.WarnContext(ctx, "user created event failed", "err", err)
	}

	return user, nil
}

package memory

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/mobilehub/mobile-content/pkg/mobilecontent"
)

// Repository implements mobilecontent.Repository using in-memory storage.
// Create-or-find paths run under one mutex, so concurrent batches cannot
// double-create a title or a term.
type Repository struct {
	mu        sync.RWMutex
	posts     map[uuid.UUID]*mobilecontent.Post
	postOrder map[uuid.UUID]int
	seq       int
	byTitle   map[string]uuid.UUID // postType + "\x00" + title -> post_id
	terms     map[uuid.UUID]*mobilecontent.Term
	byTerm    map[string]uuid.UUID // taxonomy + "\x00" + name -> term_id
	postTerms map[uuid.UUID]map[string][]uuid.UUID
	postMeta  map[uuid.UUID]map[string]string
	media     map[uuid.UUID]*mobilecontent.MediaItem
}

// New creates a new in-memory repository
func New() *Repository {
	return &Repository{
		posts:     make(map[uuid.UUID]*mobilecontent.Post),
		postOrder: make(map[uuid.UUID]int),
		byTitle:   make(map[string]uuid.UUID),
		terms:     make(map[uuid.UUID]*mobilecontent.Term),
		byTerm:    make(map[string]uuid.UUID),
		postTerms: make(map[uuid.UUID]map[string][]uuid.UUID),
		postMeta:  make(map[uuid.UUID]map[string]string),
		media:     make(map[uuid.UUID]*mobilecontent.MediaItem),
	}
}

func titleKey(postType, title string) string {
	return postType + "\x00" + title
}

func termKey(taxonomy, name string) string {
	return taxonomy + "\x00" + name
}

// Post operations

func (r *Repository) CreatePost(ctx context.Context, post *mobilecontent.Post) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	key := titleKey(post.PostType, post.Title)
	if _, exists := r.byTitle[key]; exists {
		return mobilecontent.ErrDuplicateTitle
	}

	now := time.Now().UTC()
	postCopy := *post
	if postCopy.CreatedAt.IsZero() {
		postCopy.CreatedAt = now
	}
	if postCopy.UpdatedAt.IsZero() {
		postCopy.UpdatedAt = now
	}

	r.seq++
	r.posts[post.ID] = &postCopy
	r.postOrder[post.ID] = r.seq
	r.byTitle[key] = post.ID

	return nil
}

func (r *Repository) GetPost(ctx context.Context, id uuid.UUID) (*mobilecontent.Post, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	post, exists := r.posts[id]
	if !exists {
		return nil, mobilecontent.ErrPostNotFound
	}
	postCopy := *post
	return &postCopy, nil
}

// GetPostByTitle looks up a post by exact title. Matching is case-sensitive,
// per the underlying store semantics the uniqueness invariant is defined on.
func (r *Repository) GetPostByTitle(ctx context.Context, postType, title string) (*mobilecontent.Post, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	id, exists := r.byTitle[titleKey(postType, title)]
	if !exists {
		return nil, mobilecontent.ErrPostNotFound
	}
	postCopy := *r.posts[id]
	return &postCopy, nil
}

func (r *Repository) UpdatePost(ctx context.Context, post *mobilecontent.Post) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	existing, exists := r.posts[post.ID]
	if !exists {
		return mobilecontent.ErrPostNotFound
	}

	if existing.Title != post.Title || existing.PostType != post.PostType {
		newKey := titleKey(post.PostType, post.Title)
		if other, taken := r.byTitle[newKey]; taken && other != post.ID {
			return mobilecontent.ErrDuplicateTitle
		}
		delete(r.byTitle, titleKey(existing.PostType, existing.Title))
		r.byTitle[newKey] = post.ID
	}

	postCopy := *post
	r.posts[post.ID] = &postCopy
	return nil
}

func (r *Repository) ListPosts(ctx context.Context, params mobilecontent.ListPostsParams) ([]*mobilecontent.Post, int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var all []*mobilecontent.Post
	for _, post := range r.posts {
		if post.PostType == params.PostType {
			all = append(all, post)
		}
	}

	// Stable submission order: creation timestamps can collide within a batch.
	sort.Slice(all, func(i, j int) bool {
		return r.postOrder[all[i].ID] < r.postOrder[all[j].ID]
	})

	total := len(all)
	start := (params.Page - 1) * params.PerPage
	if start >= total {
		return []*mobilecontent.Post{}, total, nil
	}
	end := start + params.PerPage
	if end > total {
		end = total
	}

	page := make([]*mobilecontent.Post, 0, end-start)
	for _, post := range all[start:end] {
		postCopy := *post
		page = append(page, &postCopy)
	}
	return page, total, nil
}

func (r *Repository) ListPostsByAuthor(ctx context.Context, postType string, authorID uuid.UUID) ([]*mobilecontent.Post, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var result []*mobilecontent.Post
	for _, post := range r.posts {
		if post.PostType == postType && post.AuthorID == authorID {
			postCopy := *post
			result = append(result, &postCopy)
		}
	}

	sort.Slice(result, func(i, j int) bool {
		return r.postOrder[result[i].ID] < r.postOrder[result[j].ID]
	})

	return result, nil
}

// Taxonomy operations

func (r *Repository) GetTermByName(ctx context.Context, taxonomy, name string) (*mobilecontent.Term, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	id, exists := r.byTerm[termKey(taxonomy, name)]
	if !exists {
		return nil, mobilecontent.ErrTermNotFound
	}
	termCopy := *r.terms[id]
	return &termCopy, nil
}

func (r *Repository) CreateTerm(ctx context.Context, taxonomy, name string) (*mobilecontent.Term, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	key := termKey(taxonomy, name)
	if id, exists := r.byTerm[key]; exists {
		termCopy := *r.terms[id]
		return &termCopy, nil
	}

	term := &mobilecontent.Term{
		ID:       uuid.New(),
		Taxonomy: taxonomy,
		Name:     name,
	}
	r.terms[term.ID] = term
	r.byTerm[key] = term.ID

	termCopy := *term
	return &termCopy, nil
}

func (r *Repository) SetPostTerms(ctx context.Context, postID uuid.UUID, taxonomy string, termIDs []uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.posts[postID]; !exists {
		return mobilecontent.ErrPostNotFound
	}

	if r.postTerms[postID] == nil {
		r.postTerms[postID] = make(map[string][]uuid.UUID)
	}
	ids := make([]uuid.UUID, len(termIDs))
	copy(ids, termIDs)
	r.postTerms[postID][taxonomy] = ids
	return nil
}

func (r *Repository) GetPostTerms(ctx context.Context, postID uuid.UUID, taxonomy string) ([]*mobilecontent.Term, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var result []*mobilecontent.Term
	for _, id := range r.postTerms[postID][taxonomy] {
		if term, exists := r.terms[id]; exists {
			termCopy := *term
			result = append(result, &termCopy)
		}
	}
	return result, nil
}

// Post meta operations

func (r *Repository) SetPostMeta(ctx context.Context, postID uuid.UUID, key, value string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.posts[postID]; !exists {
		return mobilecontent.ErrPostNotFound
	}

	if r.postMeta[postID] == nil {
		r.postMeta[postID] = make(map[string]string)
	}
	r.postMeta[postID][key] = value
	return nil
}

func (r *Repository) GetPostMeta(ctx context.Context, postID uuid.UUID) (map[string]string, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	meta := make(map[string]string, len(r.postMeta[postID]))
	for k, v := range r.postMeta[postID] {
		meta[k] = v
	}
	return meta, nil
}

// Media operations

func (r *Repository) CreateMedia(ctx context.Context, media *mobilecontent.MediaItem) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	mediaCopy := *media
	if mediaCopy.CreatedAt.IsZero() {
		mediaCopy.CreatedAt = time.Now().UTC()
	}
	r.media[media.ID] = &mediaCopy
	return nil
}

func (r *Repository) GetMedia(ctx context.Context, id uuid.UUID) (*mobilecontent.MediaItem, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	media, exists := r.media[id]
	if !exists {
		return nil, mobilecontent.ErrMediaNotFound
	}
	mediaCopy := *media
	return &mediaCopy, nil
}

// UserStore implements mobilecontent.UserStore in memory. Email lookups are
// case-insensitive.
type UserStore struct {
	mu      sync.RWMutex
	users   map[uuid.UUID]*mobilecontent.User
	byEmail map[string]uuid.UUID
}

// NewUserStore creates a new in-memory user store
func NewUserStore() *UserStore {
	return &UserStore{
		users:   make(map[uuid.UUID]*mobilecontent.User),
		byEmail: make(map[string]uuid.UUID),
	}
}

func (s *UserStore) GetUserByEmail(ctx context.Context, email string) (*mobilecontent.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	id, exists := s.byEmail[strings.ToLower(email)]
	if !exists {
		return nil, mobilecontent.ErrUserNotFound
	}
	userCopy := *s.users[id]
	return &userCopy, nil
}

func (s *UserStore) GetUser(ctx context.Context, id uuid.UUID) (*mobilecontent.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	user, exists := s.users[id]
	if !exists {
		return nil, mobilecontent.ErrUserNotFound
	}
	userCopy := *user
	return &userCopy, nil
}

func (s *UserStore) CreateUser(ctx context.Context, user *mobilecontent.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := strings.ToLower(user.Email)
	if _, exists := s.byEmail[key]; exists {
		return mobilecontent.ErrDuplicateEmail
	}

	userCopy := *user
	if userCopy.CreatedAt.IsZero() {
		userCopy.CreatedAt = time.Now().UTC()
	}
	s.users[user.ID] = &userCopy
	s.byEmail[key] = user.ID
	return nil
}

// Authenticate matches the login against user logins and emails,
// case-insensitively, and verifies the password against the stored hash.
func (s *UserStore) Authenticate(ctx context.Context, login, password string) (*mobilecontent.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	login = strings.ToLower(login)
	for _, user := range s.users {
		if strings.ToLower(user.Login) != login && strings.ToLower(user.Email) != login {
			continue
		}
		if !mobilecontent.CheckPassword(user.PasswordHash, password) {
			return nil, mobilecontent.ErrInvalidCredentials
		}
		userCopy := *user
		return &userCopy, nil
	}
	return nil, mobilecontent.ErrInvalidCredentials
}

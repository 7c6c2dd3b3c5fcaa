// Package postgres implements the mobilecontent repositories on PostgreSQL
// via pgx. Expected schema:
//
//	posts(id uuid pk, post_type text, title text, content text, status text,
//	      author_id uuid, featured_media_id uuid null,
//	      created_at timestamptz, updated_at timestamptz,
//	      unique (post_type, title))
//	users(id uuid pk, login text, email text, password_hash text,
//	      created_at timestamptz, unique (lower(email)))
//	terms(id uuid pk, taxonomy text, name text, unique (taxonomy, name))
//	post_terms(post_id uuid, taxonomy text, term_id uuid, position int,
//	      primary key (post_id, taxonomy, term_id))
//	post_meta(post_id uuid, meta_key text, meta_value text,
//	      primary key (post_id, meta_key))
//	media(id uuid pk, post_id uuid, storage_backend text, object_key text,
//	      file_name text, mime_type text, source_url text,
//	      created_at timestamptz)
package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/mobilehub/mobile-content/pkg/mobilecontent"
)

// DBTX is an interface that allows us to use either a database connection or a transaction
type DBTX interface {
	Exec(context.Context, string, ...interface{}) (pgconn.CommandTag, error)
	Query(context.Context, string, ...interface{}) (pgx.Rows, error)
	QueryRow(context.Context, string, ...interface{}) pgx.Row
}

// Repository implements mobilecontent.Repository using PostgreSQL
type Repository struct {
	db DBTX
}

// New creates a new PostgreSQL repository
func New(db DBTX) *Repository {
	return &Repository{db: db}
}

// NewWithPool creates a new PostgreSQL repository with connection pool
func NewWithPool(pool *pgxpool.Pool) *Repository {
	return &Repository{db: pool}
}

// Error handling helper
func handlePostgresError(operation string, err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case "23505": // unique_violation
			if strings.Contains(pgErr.ConstraintName, "title") {
				return mobilecontent.ErrDuplicateTitle
			}
			if strings.Contains(pgErr.ConstraintName, "email") {
				return mobilecontent.ErrDuplicateEmail
			}
			return fmt.Errorf("duplicate entry")
		case "23503": // foreign_key_violation
			return fmt.Errorf("referenced record not found")
		case "23502": // not_null_violation
			return fmt.Errorf("required field %s is missing", pgErr.ColumnName)
		case "42P01": // undefined_table
			return fmt.Errorf("table does not exist - database migration required")
		default:
			return fmt.Errorf("database error in %s: %s (code: %s)", operation, pgErr.Message, pgErr.Code)
		}
	}

	return fmt.Errorf("database error in %s: %w", operation, err)
}

// Post operations

func (r *Repository) CreatePost(ctx context.Context, post *mobilecontent.Post) error {
	query := `
		INSERT INTO posts (
			id, post_type, title, content, status, author_id,
			featured_media_id, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`

	_, err := r.db.Exec(ctx, query,
		post.ID, post.PostType, post.Title, post.Content, post.Status,
		post.AuthorID, post.FeaturedMediaID, post.CreatedAt, post.UpdatedAt)

	if err != nil {
		return handlePostgresError("create post", err)
	}

	return nil
}

func (r *Repository) GetPost(ctx context.Context, id uuid.UUID) (*mobilecontent.Post, error) {
	query := `
		SELECT id, post_type, title, content, status, author_id,
		       featured_media_id, created_at, updated_at
		FROM posts WHERE id = $1`

	post, err := scanPost(r.db.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, mobilecontent.ErrPostNotFound
		}
		return nil, handlePostgresError("get post", err)
	}
	return post, nil
}

func (r *Repository) GetPostByTitle(ctx context.Context, postType, title string) (*mobilecontent.Post, error) {
	query := `
		SELECT id, post_type, title, content, status, author_id,
		       featured_media_id, created_at, updated_at
		FROM posts WHERE post_type = $1 AND title = $2`

	post, err := scanPost(r.db.QueryRow(ctx, query, postType, title))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, mobilecontent.ErrPostNotFound
		}
		return nil, handlePostgresError("get post by title", err)
	}
	return post, nil
}

func (r *Repository) UpdatePost(ctx context.Context, post *mobilecontent.Post) error {
	query := `
		UPDATE posts SET
			title = $2, content = $3, status = $4, author_id = $5,
			featured_media_id = $6, updated_at = $7
		WHERE id = $1`

	tag, err := r.db.Exec(ctx, query,
		post.ID, post.Title, post.Content, post.Status, post.AuthorID,
		post.FeaturedMediaID, post.UpdatedAt)
	if err != nil {
		return handlePostgresError("update post", err)
	}
	if tag.RowsAffected() == 0 {
		return mobilecontent.ErrPostNotFound
	}
	return nil
}

func (r *Repository) ListPosts(ctx context.Context, params mobilecontent.ListPostsParams) ([]*mobilecontent.Post, int, error) {
	var total int
	if err := r.db.QueryRow(ctx,
		`SELECT COUNT(*) FROM posts WHERE post_type = $1`, params.PostType).Scan(&total); err != nil {
		return nil, 0, handlePostgresError("count posts", err)
	}

	query := `
		SELECT id, post_type, title, content, status, author_id,
		       featured_media_id, created_at, updated_at
		FROM posts WHERE post_type = $1
		ORDER BY created_at, id
		LIMIT $2 OFFSET $3`

	offset := (params.Page - 1) * params.PerPage
	rows, err := r.db.Query(ctx, query, params.PostType, params.PerPage, offset)
	if err != nil {
		return nil, 0, handlePostgresError("list posts", err)
	}
	defer rows.Close()

	posts, err := collectPosts(rows)
	if err != nil {
		return nil, 0, handlePostgresError("list posts", err)
	}
	return posts, total, nil
}

func (r *Repository) ListPostsByAuthor(ctx context.Context, postType string, authorID uuid.UUID) ([]*mobilecontent.Post, error) {
	query := `
		SELECT id, post_type, title, content, status, author_id,
		       featured_media_id, created_at, updated_at
		FROM posts WHERE post_type = $1 AND author_id = $2
		ORDER BY created_at, id`

	rows, err := r.db.Query(ctx, query, postType, authorID)
	if err != nil {
		return nil, handlePostgresError("list posts by author", err)
	}
	defer rows.Close()

	posts, err := collectPosts(rows)
	if err != nil {
		return nil, handlePostgresError("list posts by author", err)
	}
	return posts, nil
}

func scanPost(row pgx.Row) (*mobilecontent.Post, error) {
	var post mobilecontent.Post
	err := row.Scan(
		&post.ID, &post.PostType, &post.Title, &post.Content, &post.Status,
		&post.AuthorID, &post.FeaturedMediaID, &post.CreatedAt, &post.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &post, nil
}

func collectPosts(rows pgx.Rows) ([]*mobilecontent.Post, error) {
	var posts []*mobilecontent.Post
	for rows.Next() {
		post, err := scanPost(rows)
		if err != nil {
			return nil, err
		}
		posts = append(posts, post)
	}
	return posts, rows.Err()
}

// Taxonomy operations

func (r *Repository) GetTermByName(ctx context.Context, taxonomy, name string) (*mobilecontent.Term, error) {
	query := `SELECT id, taxonomy, name FROM terms WHERE taxonomy = $1 AND name = $2`

	var term mobilecontent.Term
	err := r.db.QueryRow(ctx, query, taxonomy, name).Scan(&term.ID, &term.Taxonomy, &term.Name)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, mobilecontent.ErrTermNotFound
		}
		return nil, handlePostgresError("get term", err)
	}
	return &term, nil
}

func (r *Repository) CreateTerm(ctx context.Context, taxonomy, name string) (*mobilecontent.Term, error) {
	// Concurrent find-or-create races resolve on the unique constraint; the
	// losing insert falls back to reading the winner's row.
	query := `
		INSERT INTO terms (id, taxonomy, name) VALUES ($1, $2, $3)
		ON CONFLICT (taxonomy, name) DO NOTHING`

	term := &mobilecontent.Term{ID: uuid.New(), Taxonomy: taxonomy, Name: name}
	tag, err := r.db.Exec(ctx, query, term.ID, term.Taxonomy, term.Name)
	if err != nil {
		return nil, handlePostgresError("create term", err)
	}
	if tag.RowsAffected() == 0 {
		return r.GetTermByName(ctx, taxonomy, name)
	}
	return term, nil
}

func (r *Repository) SetPostTerms(ctx context.Context, postID uuid.UUID, taxonomy string, termIDs []uuid.UUID) error {
	if _, err := r.db.Exec(ctx,
		`DELETE FROM post_terms WHERE post_id = $1 AND taxonomy = $2`, postID, taxonomy); err != nil {
		return handlePostgresError("set post terms", err)
	}

	for i, termID := range termIDs {
		if _, err := r.db.Exec(ctx,
			`INSERT INTO post_terms (post_id, taxonomy, term_id, position) VALUES ($1, $2, $3, $4)`,
			postID, taxonomy, termID, i); err != nil {
			return handlePostgresError("set post terms", err)
		}
	}
	return nil
}

func (r *Repository) GetPostTerms(ctx context.Context, postID uuid.UUID, taxonomy string) ([]*mobilecontent.Term, error) {
	query := `
		SELECT t.id, t.taxonomy, t.name
		FROM post_terms pt JOIN terms t ON t.id = pt.term_id
		WHERE pt.post_id = $1 AND pt.taxonomy = $2
		ORDER BY pt.position`

	rows, err := r.db.Query(ctx, query, postID, taxonomy)
	if err != nil {
		return nil, handlePostgresError("get post terms", err)
	}
	defer rows.Close()

	var terms []*mobilecontent.Term
	for rows.Next() {
		var term mobilecontent.Term
		if err := rows.Scan(&term.ID, &term.Taxonomy, &term.Name); err != nil {
			return nil, handlePostgresError("get post terms", err)
		}
		terms = append(terms, &term)
	}
	return terms, rows.Err()
}

// Post meta operations

func (r *Repository) SetPostMeta(ctx context.Context, postID uuid.UUID, key, value string) error {
	query := `
		INSERT INTO post_meta (post_id, meta_key, meta_value) VALUES ($1, $2, $3)
		ON CONFLICT (post_id, meta_key) DO UPDATE SET meta_value = EXCLUDED.meta_value`

	if _, err := r.db.Exec(ctx, query, postID, key, value); err != nil {
		return handlePostgresError("set post meta", err)
	}
	return nil
}

func (r *Repository) GetPostMeta(ctx context.Context, postID uuid.UUID) (map[string]string, error) {
	rows, err := r.db.Query(ctx,
		`SELECT meta_key, meta_value FROM post_meta WHERE post_id = $1`, postID)
	if err != nil {
		return nil, handlePostgresError("get post meta", err)
	}
	defer rows.Close()

	meta := make(map[string]string)
	for rows.Next() {
		var k, v string
		if err := rows.Scan(&k, &v); err != nil {
			return nil, handlePostgresError("get post meta", err)
		}
		meta[k] = v
	}
	return meta, rows.Err()
}

// Media operations

func (r *Repository) CreateMedia(ctx context.Context, media *mobilecontent.MediaItem) error {
	query := `
		INSERT INTO media (
			id, post_id, storage_backend, object_key, file_name,
			mime_type, source_url, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, COALESCE($8::timestamptz, NOW()))`

	var createdAt interface{}
	if !media.CreatedAt.IsZero() {
		createdAt = media.CreatedAt
	}

	_, err := r.db.Exec(ctx, query,
		media.ID, media.PostID, media.StorageBackend, media.ObjectKey,
		media.FileName, media.MimeType, media.SourceURL, createdAt)
	if err != nil {
		return handlePostgresError("create media", err)
	}
	return nil
}

func (r *Repository) GetMedia(ctx context.Context, id uuid.UUID) (*mobilecontent.MediaItem, error) {
	query := `
		SELECT id, post_id, storage_backend, object_key, file_name,
		       mime_type, source_url, created_at
		FROM media WHERE id = $1`

	var media mobilecontent.MediaItem
	err := r.db.QueryRow(ctx, query, id).Scan(
		&media.ID, &media.PostID, &media.StorageBackend, &media.ObjectKey,
		&media.FileName, &media.MimeType, &media.SourceURL, &media.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, mobilecontent.ErrMediaNotFound
		}
		return nil, handlePostgresError("get media", err)
	}
	return &media, nil
}

// UserStore implements mobilecontent.UserStore using PostgreSQL
type UserStore struct {
	db DBTX
}

// NewUserStore creates a new PostgreSQL user store
func NewUserStore(db DBTX) *UserStore {
	return &UserStore{db: db}
}

// NewUserStoreWithPool creates a new PostgreSQL user store with connection pool
func NewUserStoreWithPool(pool *pgxpool.Pool) *UserStore {
	return &UserStore{db: pool}
}

func (s *UserStore) GetUserByEmail(ctx context.Context, email string) (*mobilecontent.User, error) {
	query := `
		SELECT id, login, email, password_hash, created_at
		FROM users WHERE lower(email) = lower($1)`

	return s.scanUser(s.db.QueryRow(ctx, query, email))
}

func (s *UserStore) GetUser(ctx context.Context, id uuid.UUID) (*mobilecontent.User, error) {
	query := `
		SELECT id, login, email, password_hash, created_at
		FROM users WHERE id = $1`

	return s.scanUser(s.db.QueryRow(ctx, query, id))
}

func (s *UserStore) scanUser(row pgx.Row) (*mobilecontent.User, error) {
	var user mobilecontent.User
	err := row.Scan(&user.ID, &user.Login, &user.Email, &user.PasswordHash, &user.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, mobilecontent.ErrUserNotFound
		}
		return nil, handlePostgresError("get user", err)
	}
	return &user, nil
}

func (s *UserStore) CreateUser(ctx context.Context, user *mobilecontent.User) error {
	query := `
		INSERT INTO users (id, login, email, password_hash, created_at)
		VALUES ($1, $2, $3, $4, COALESCE($5::timestamptz, NOW()))`

	var createdAt interface{}
	if !user.CreatedAt.IsZero() {
		createdAt = user.CreatedAt
	}

	if _, err := s.db.Exec(ctx, query,
		user.ID, user.Login, user.Email, user.PasswordHash, createdAt); err != nil {
		return handlePostgresError("create user", err)
	}
	return nil
}

func (s *UserStore) Authenticate(ctx context.Context, login, password string) (*mobilecontent.User, error) {
	query := `
		SELECT id, login, email, password_hash, created_at
		FROM users WHERE lower(login) = lower($1) OR lower(email) = lower($1)`

	user, err := s.scanUser(s.db.QueryRow(ctx, query, login))
	if err != nil {
		if errors.Is(err, mobilecontent.ErrUserNotFound) {
			return nil, mobilecontent.ErrInvalidCredentials
		}
		return nil, err
	}
	if !mobilecontent.CheckPassword(user.PasswordHash, password) {
		return nil, mobilecontent.ErrInvalidCredentials
	}
	return user, nil
}

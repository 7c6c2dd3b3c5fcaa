package memory_test

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mobilehub/mobile-content/pkg/mobilecontent"
	"github.com/mobilehub/mobile-content/pkg/mobilecontent/repo/memory"
)

func newPost(title string) *mobilecontent.Post {
	return &mobilecontent.Post{
		ID:       uuid.New(),
		PostType: mobilecontent.PostTypeMobiles,
		Title:    title,
		Content:  "content",
		Status:   mobilecontent.PostStatusPublish,
		AuthorID: uuid.New(),
	}
}

func TestCreateAndGetPost(t *testing.T) {
	repo := memory.New()
	ctx := context.Background()

	post := newPost("A phone")
	require.NoError(t, repo.CreatePost(ctx, post))

	got, err := repo.GetPost(ctx, post.ID)
	require.NoError(t, err)
	assert.Equal(t, post.Title, got.Title)
	assert.False(t, got.CreatedAt.IsZero())

	byTitle, err := repo.GetPostByTitle(ctx, mobilecontent.PostTypeMobiles, "A phone")
	require.NoError(t, err)
	assert.Equal(t, post.ID, byTitle.ID)
}

func TestCreatePostDuplicateTitle(t *testing.T) {
	repo := memory.New()
	ctx := context.Background()

	require.NoError(t, repo.CreatePost(ctx, newPost("Same")))
	err := repo.CreatePost(ctx, newPost("Same"))
	assert.ErrorIs(t, err, mobilecontent.ErrDuplicateTitle)
}

func TestGetPostByTitleMiss(t *testing.T) {
	repo := memory.New()

	_, err := repo.GetPostByTitle(context.Background(), mobilecontent.PostTypeMobiles, "missing")
	assert.ErrorIs(t, err, mobilecontent.ErrPostNotFound)
}

func TestUpdatePostReindexesTitle(t *testing.T) {
	repo := memory.New()
	ctx := context.Background()

	post := newPost("Old title")
	require.NoError(t, repo.CreatePost(ctx, post))

	post.Title = "New title"
	require.NoError(t, repo.UpdatePost(ctx, post))

	_, err := repo.GetPostByTitle(ctx, mobilecontent.PostTypeMobiles, "Old title")
	assert.ErrorIs(t, err, mobilecontent.ErrPostNotFound)

	got, err := repo.GetPostByTitle(ctx, mobilecontent.PostTypeMobiles, "New title")
	require.NoError(t, err)
	assert.Equal(t, post.ID, got.ID)
}

func TestListPostsOrderAndPaging(t *testing.T) {
	repo := memory.New()
	ctx := context.Background()

	// Identical timestamps; insertion order must still be stable.
	now := time.Now().UTC()
	for i := 0; i < 12; i++ {
		post := newPost(fmt.Sprintf("Post %02d", i+1))
		post.CreatedAt = now
		post.UpdatedAt = now
		require.NoError(t, repo.CreatePost(ctx, post))
	}

	posts, total, err := repo.ListPosts(ctx, mobilecontent.ListPostsParams{
		PostType: mobilecontent.PostTypeMobiles,
		Page:     2,
		PerPage:  5,
	})
	require.NoError(t, err)
	assert.Equal(t, 12, total)
	require.Len(t, posts, 5)
	assert.Equal(t, "Post 06", posts[0].Title)
	assert.Equal(t, "Post 10", posts[4].Title)
}

func TestTermFindOrCreate(t *testing.T) {
	repo := memory.New()
	ctx := context.Background()

	_, err := repo.GetTermByName(ctx, mobilecontent.TaxonomyCategory, "phones")
	assert.ErrorIs(t, err, mobilecontent.ErrTermNotFound)

	created, err := repo.CreateTerm(ctx, mobilecontent.TaxonomyCategory, "phones")
	require.NoError(t, err)

	again, err := repo.CreateTerm(ctx, mobilecontent.TaxonomyCategory, "phones")
	require.NoError(t, err)
	assert.Equal(t, created.ID, again.ID)

	// Same name in a different taxonomy is a distinct term.
	tag, err := repo.CreateTerm(ctx, mobilecontent.TaxonomyTag, "phones")
	require.NoError(t, err)
	assert.NotEqual(t, created.ID, tag.ID)
}

func TestSetPostTermsReplaces(t *testing.T) {
	repo := memory.New()
	ctx := context.Background()

	post := newPost("Termed post")
	require.NoError(t, repo.CreatePost(ctx, post))

	first, err := repo.CreateTerm(ctx, mobilecontent.TaxonomyCategory, "one")
	require.NoError(t, err)
	second, err := repo.CreateTerm(ctx, mobilecontent.TaxonomyCategory, "two")
	require.NoError(t, err)

	require.NoError(t, repo.SetPostTerms(ctx, post.ID, mobilecontent.TaxonomyCategory, []uuid.UUID{first.ID}))
	require.NoError(t, repo.SetPostTerms(ctx, post.ID, mobilecontent.TaxonomyCategory, []uuid.UUID{second.ID}))

	terms, err := repo.GetPostTerms(ctx, post.ID, mobilecontent.TaxonomyCategory)
	require.NoError(t, err)
	require.Len(t, terms, 1)
	assert.Equal(t, "two", terms[0].Name)
}

func TestPostMeta(t *testing.T) {
	repo := memory.New()
	ctx := context.Background()

	post := newPost("Meta post")
	require.NoError(t, repo.CreatePost(ctx, post))

	require.NoError(t, repo.SetPostMeta(ctx, post.ID, "color", "blue"))
	require.NoError(t, repo.SetPostMeta(ctx, post.ID, "color", "green"))

	meta, err := repo.GetPostMeta(ctx, post.ID)
	require.NoError(t, err)
	assert.Equal(t, "green", meta["color"])

	err = repo.SetPostMeta(ctx, uuid.New(), "color", "red")
	assert.ErrorIs(t, err, mobilecontent.ErrPostNotFound)
}

func TestConcurrentCreateUniqueTitles(t *testing.T) {
	repo := memory.New()
	ctx := context.Background()

	const workers = 16
	var wg sync.WaitGroup
	errs := make([]error, workers)

	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			errs[i] = repo.CreatePost(ctx, newPost("Contended title"))
		}(i)
	}
	wg.Wait()

	var created, duplicates int
	for _, err := range errs {
		switch {
		case err == nil:
			created++
		default:
			require.ErrorIs(t, err, mobilecontent.ErrDuplicateTitle)
			duplicates++
		}
	}
	assert.Equal(t, 1, created)
	assert.Equal(t, workers-1, duplicates)
}

func TestUserStore(t *testing.T) {
	users := memory.NewUserStore()
	ctx := context.Background()

	hash, err := mobilecontent.HashPassword("secret")
	require.NoError(t, err)

	user := &mobilecontent.User{
		ID:           uuid.New(),
		Login:        "dana",
		Email:        "Dana@Example.com",
		PasswordHash: hash,
	}
	require.NoError(t, users.CreateUser(ctx, user))

	// Lookup is case-insensitive.
	got, err := users.GetUserByEmail(ctx, "dana@example.com")
	require.NoError(t, err)
	assert.Equal(t, user.ID, got.ID)

	err = users.CreateUser(ctx, &mobilecontent.User{
		ID:    uuid.New(),
		Login: "other",
		Email: "dana@EXAMPLE.com",
	})
	assert.ErrorIs(t, err, mobilecontent.ErrDuplicateEmail)
}

func TestUserStoreAuthenticate(t *testing.T) {
	users := memory.NewUserStore()
	ctx := context.Background()

	hash, err := mobilecontent.HashPassword("secret")
	require.NoError(t, err)
	require.NoError(t, users.CreateUser(ctx, &mobilecontent.User{
		ID:           uuid.New(),
		Login:        "dana",
		Email:        "dana@example.com",
		PasswordHash: hash,
	}))

	for _, login := range []string{"dana", "dana@example.com", "DANA"} {
		user, err := users.Authenticate(ctx, login, "secret")
		require.NoError(t, err, "login %q", login)
		assert.Equal(t, "dana", user.Login)
	}

	_, err = users.Authenticate(ctx, "dana", "wrong")
	assert.ErrorIs(t, err, mobilecontent.ErrInvalidCredentials)

	_, err = users.Authenticate(ctx, "nobody", "secret")
	assert.ErrorIs(t, err, mobilecontent.ErrInvalidCredentials)
}

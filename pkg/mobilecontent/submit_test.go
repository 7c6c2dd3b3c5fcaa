package mobilecontent_test

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mobilehub/mobile-content/pkg/mobilecontent"
	"github.com/mobilehub/mobile-content/pkg/mobilecontent/repo/memory"
)

func newTestService(t *testing.T, opts ...mobilecontent.Option) (mobilecontent.Service, *memory.Repository, *memory.UserStore) {
	t.Helper()

	repo := memory.New()
	users := memory.NewUserStore()

	options := append([]mobilecontent.Option{
		mobilecontent.WithRepository(repo),
		mobilecontent.WithUserStore(users),
	}, opts...)

	svc, err := mobilecontent.New(options...)
	require.NoError(t, err)

	return svc, repo, users
}

func validRecord(title string) mobilecontent.SubmissionRecord {
	return mobilecontent.SubmissionRecord{
		AuthorEmail: "author@example.com",
		Title:       title,
		Content:     "Some content",
	}
}

func TestSubmitBatchResultOrdering(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	records := []mobilecontent.SubmissionRecord{
		validRecord("First post"),
		{Title: "Missing email", Content: "content"},
		validRecord("Third post"),
	}

	results := svc.SubmitBatch(ctx, records)
	require.Len(t, results, len(records))

	for i, result := range results {
		assert.Equal(t, i, result.Index)
	}

	assert.Equal(t, mobilecontent.SubmissionStatusSuccess, results[0].Status)
	assert.Equal(t, "Author Email is a required field.", results[1].Error)
	assert.Equal(t, mobilecontent.SubmissionStatusSuccess, results[2].Status)
}

func TestSubmitBatchRequiredFields(t *testing.T) {
	tests := []struct {
		name    string
		record  mobilecontent.SubmissionRecord
		wantErr string
	}{
		{
			name:    "missing author email",
			record:  mobilecontent.SubmissionRecord{Title: "A post", Content: "content"},
			wantErr: "Author Email is a required field.",
		},
		{
			name:    "missing title",
			record:  mobilecontent.SubmissionRecord{AuthorEmail: "a@example.com", Content: "content"},
			wantErr: "Title is a required field.",
		},
		{
			name:    "missing content",
			record:  mobilecontent.SubmissionRecord{AuthorEmail: "a@example.com", Title: "A post"},
			wantErr: "Content is a required field.",
		},
		{
			name: "invalid email format",
			record: mobilecontent.SubmissionRecord{
				AuthorEmail: "not-an-email",
				Title:       "A post",
				Content:     "content",
			},
			wantErr: "Invalid author email format.",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, _, users := newTestService(t)

			results := svc.SubmitBatch(context.Background(), []mobilecontent.SubmissionRecord{tt.record})
			require.Len(t, results, 1)
			assert.Equal(t, tt.wantErr, results[0].Error)
			assert.Empty(t, results[0].PostID)

			// A rejected record must not create an owner as a side effect.
			if tt.record.AuthorEmail != "" {
				_, err := users.GetUserByEmail(context.Background(), tt.record.AuthorEmail)
				assert.ErrorIs(t, err, mobilecontent.ErrUserNotFound)
			}
		})
	}
}

func TestSubmitBatchTitleLengthBoundary(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	title50 := ""
	for i := 0; i < 50; i++ {
		title50 += "a"
	}

	results := svc.SubmitBatch(ctx, []mobilecontent.SubmissionRecord{
		{AuthorEmail: "a@example.com", Title: title50, Content: "content"},
		{AuthorEmail: "a@example.com", Title: title50 + "b", Content: "content"},
	})

	require.Len(t, results, 2)
	assert.Equal(t, mobilecontent.SubmissionStatusSuccess, results[0].Status)
	assert.Equal(t, "Title should not exceed 50 characters.", results[1].Error)
}

func TestSubmitBatchDuplicateTitleWithinBatch(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	results := svc.SubmitBatch(ctx, []mobilecontent.SubmissionRecord{
		validRecord("Same title"),
		validRecord("Same title"),
	})

	require.Len(t, results, 2)
	assert.Equal(t, mobilecontent.SubmissionStatusSuccess, results[0].Status)
	assert.Equal(t, "Title already exists.", results[1].Error)
}

func TestSubmitBatchStatusHandling(t *testing.T) {
	tests := []struct {
		name       string
		status     string
		wantErr    string
		wantStatus mobilecontent.PostStatus
	}{
		{name: "default publish", status: "", wantStatus: mobilecontent.PostStatusPublish},
		{name: "explicit draft", status: "draft", wantStatus: mobilecontent.PostStatusDraft},
		{name: "explicit pending", status: "pending", wantStatus: mobilecontent.PostStatusPending},
		{name: "unknown status", status: "archived", wantErr: "Invalid post status."},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, repo, _ := newTestService(t)
			ctx := context.Background()

			rec := validRecord("Status test")
			rec.Status = tt.status

			results := svc.SubmitBatch(ctx, []mobilecontent.SubmissionRecord{rec})
			require.Len(t, results, 1)

			if tt.wantErr != "" {
				assert.Equal(t, tt.wantErr, results[0].Error)
				return
			}

			require.Equal(t, mobilecontent.SubmissionStatusSuccess, results[0].Status)
			id, err := uuid.Parse(results[0].PostID)
			require.NoError(t, err)

			post, err := repo.GetPost(ctx, id)
			require.NoError(t, err)
			assert.Equal(t, tt.wantStatus, post.Status)
		})
	}
}

func TestSubmitBatchCreatesOwnerOnce(t *testing.T) {
	svc, repo, users := newTestService(t)
	ctx := context.Background()

	results := svc.SubmitBatch(ctx, []mobilecontent.SubmissionRecord{
		validRecord("Owner post one"),
		validRecord("Owner post two"),
	})
	require.Len(t, results, 2)
	require.Equal(t, mobilecontent.SubmissionStatusSuccess, results[0].Status)
	require.Equal(t, mobilecontent.SubmissionStatusSuccess, results[1].Status)

	user, err := users.GetUserByEmail(ctx, "author@example.com")
	require.NoError(t, err)
	assert.NotEmpty(t, user.PasswordHash)

	posts, err := repo.ListPostsByAuthor(ctx, mobilecontent.PostTypeMobiles, user.ID)
	require.NoError(t, err)
	assert.Len(t, posts, 2)
}

func TestSubmitBatchTagsAttachedAsSingleTerm(t *testing.T) {
	svc, repo, _ := newTestService(t)
	ctx := context.Background()

	rec := validRecord("Tagged post")
	rec.Tags = "android, flagship, 5g"

	results := svc.SubmitBatch(ctx, []mobilecontent.SubmissionRecord{rec})
	require.Equal(t, mobilecontent.SubmissionStatusSuccess, results[0].Status)

	id, err := uuid.Parse(results[0].PostID)
	require.NoError(t, err)

	terms, err := repo.GetPostTerms(ctx, id, mobilecontent.TaxonomyTag)
	require.NoError(t, err)
	require.Len(t, terms, 1)
	assert.Equal(t, "android, flagship, 5g", terms[0].Name)
}

func TestSubmitBatchCategoriesSplitAndDeduplicated(t *testing.T) {
	svc, repo, _ := newTestService(t)
	ctx := context.Background()

	first := validRecord("Category post one")
	first.Categories = "phones, tablets"
	second := validRecord("Category post two")
	second.Categories = " phones , wearables"

	results := svc.SubmitBatch(ctx, []mobilecontent.SubmissionRecord{first, second})
	require.Equal(t, mobilecontent.SubmissionStatusSuccess, results[0].Status)
	require.Equal(t, mobilecontent.SubmissionStatusSuccess, results[1].Status)

	firstID, err := uuid.Parse(results[0].PostID)
	require.NoError(t, err)
	secondID, err := uuid.Parse(results[1].PostID)
	require.NoError(t, err)

	firstTerms, err := repo.GetPostTerms(ctx, firstID, mobilecontent.TaxonomyCategory)
	require.NoError(t, err)
	secondTerms, err := repo.GetPostTerms(ctx, secondID, mobilecontent.TaxonomyCategory)
	require.NoError(t, err)

	require.Len(t, firstTerms, 2)
	require.Len(t, secondTerms, 2)

	// "phones" is reused between posts, not recreated.
	byName := map[string]uuid.UUID{}
	for _, term := range firstTerms {
		byName[term.Name] = term.ID
	}
	for _, term := range secondTerms {
		if term.Name == "phones" {
			assert.Equal(t, byName["phones"], term.ID)
		}
	}
}

func TestSubmitBatchCustomFieldsStored(t *testing.T) {
	svc, repo, _ := newTestService(t)
	ctx := context.Background()

	rec := validRecord("Meta post")
	rec.CustomFields = map[string]string{
		"color":   "midnight blue",
		"storage": "256GB",
	}

	results := svc.SubmitBatch(ctx, []mobilecontent.SubmissionRecord{rec})
	require.Equal(t, mobilecontent.SubmissionStatusSuccess, results[0].Status)

	id, err := uuid.Parse(results[0].PostID)
	require.NoError(t, err)

	meta, err := repo.GetPostMeta(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "midnight blue", meta["color"])
	assert.Equal(t, "256GB", meta["storage"])
}

// failingSideloader always errors, standing in for an unreachable image host.
type failingSideloader struct{}

func (failingSideloader) Sideload(ctx context.Context, postID uuid.UUID, sourceURL string) (*mobilecontent.MediaItem, error) {
	return nil, errors.New("download failed")
}

func TestSubmitBatchFeaturedImageFailureStillSucceeds(t *testing.T) {
	svc, repo, _ := newTestService(t, mobilecontent.WithSideloader(failingSideloader{}))
	ctx := context.Background()

	rec := validRecord("Image post")
	rec.FeaturedImageURL = "https://img.example.com/phone.jpg"

	results := svc.SubmitBatch(ctx, []mobilecontent.SubmissionRecord{rec})
	require.Len(t, results, 1)
	assert.Equal(t, mobilecontent.SubmissionStatusSuccess, results[0].Status)
	assert.Empty(t, results[0].Error)

	id, err := uuid.Parse(results[0].PostID)
	require.NoError(t, err)
	post, err := repo.GetPost(ctx, id)
	require.NoError(t, err)
	assert.Nil(t, post.FeaturedMediaID)
}

func TestSubmitBatchSanitizesTitleAndContent(t *testing.T) {
	svc, repo, _ := newTestService(t)
	ctx := context.Background()

	rec := mobilecontent.SubmissionRecord{
		AuthorEmail: "author@example.com",
		Title:       "  Phone <script>alert(1)</script> X  ",
		Content:     "Spec\tsheet\nhere",
	}

	results := svc.SubmitBatch(ctx, []mobilecontent.SubmissionRecord{rec})
	require.Equal(t, mobilecontent.SubmissionStatusSuccess, results[0].Status)

	id, err := uuid.Parse(results[0].PostID)
	require.NoError(t, err)
	post, err := repo.GetPost(ctx, id)
	require.NoError(t, err)

	assert.Equal(t, "Phone X", post.Title)
	assert.Equal(t, "Spec sheet here", post.Content)
}

func TestSubmitBatchEmptyBatch(t *testing.T) {
	svc, _, _ := newTestService(t)

	results := svc.SubmitBatch(context.Background(), nil)
	assert.Empty(t, results)
}

func TestSubmitBatchLargeBatchIndependence(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	var records []mobilecontent.SubmissionRecord
	for i := 0; i < 20; i++ {
		rec := validRecord(fmt.Sprintf("Batch post %d", i))
		if i%5 == 0 {
			rec.Content = ""
		}
		records = append(records, rec)
	}

	results := svc.SubmitBatch(ctx, records)
	require.Len(t, results, 20)
	for i, result := range results {
		if i%5 == 0 {
			assert.Equal(t, "Content is a required field.", result.Error, "record %d", i)
		} else {
			assert.Equal(t, mobilecontent.SubmissionStatusSuccess, result.Status, "record %d", i)
		}
	}
}

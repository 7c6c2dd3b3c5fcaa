package mobilecontent

import (
	"context"
	"errors"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
)

// Error strings reported per record by the submission pipeline. These are
// part of the wire contract of the submit endpoint.
const (
	msgAuthorEmailRequired = "Author Email is a required field."
	msgTitleRequired       = "Title is a required field."
	msgContentRequired     = "Content is a required field."
	msgInvalidEmail        = "Invalid author email format."
	msgTitleTooLong        = "Title should not exceed 50 characters."
	msgTitleExists         = "Title already exists."
	msgInvalidStatus       = "Invalid post status."
	msgUserCreateFailed    = "User could not be created."
	msgSaveFailed          = "Data could not be saved."
)

// maxTitleLength is the upper bound on submitted titles, in characters.
const maxTitleLength = 50

var validate = validator.New()

// SubmitBatch processes each record independently: validate, resolve the
// owning identity, persist the post, then enrich it with tags, categories,
// featured image and custom fields. A record's failure is captured in its
// SubmissionResult and never aborts the rest of the batch.
func (s *service) SubmitBatch(ctx context.Context, records []SubmissionRecord) []SubmissionResult {
	results := make([]SubmissionResult, 0, len(records))
	for i, record := range records {
		results = append(results, s.submitOne(ctx, i, record))
	}
	return results
}

func (s *service) submitOne(ctx context.Context, index int, rec SubmissionRecord) SubmissionResult {
	fail := func(msg string) SubmissionResult {
		return SubmissionResult{Index: index, Error: msg}
	}

	// Presence checks come first; everything below assumes non-empty values.
	if rec.AuthorEmail == "" {
		return fail(msgAuthorEmailRequired)
	}
	if rec.Title == "" {
		return fail(msgTitleRequired)
	}
	if rec.Content == "" {
		return fail(msgContentRequired)
	}

	if err := validate.Var(rec.AuthorEmail, "email"); err != nil {
		return fail(msgInvalidEmail)
	}

	if utf8.RuneCountInString(rec.Title) > maxTitleLength {
		return fail(msgTitleTooLong)
	}

	// Uniqueness goes last among the validations so malformed input never
	// costs a store lookup.
	title := SanitizeText(rec.Title)
	if _, err := s.repository.GetPostByTitle(ctx, PostTypeMobiles, title); err == nil {
		return fail(msgTitleExists)
	} else if !errors.Is(err, ErrPostNotFound) {
		return fail(msgSaveFailed)
	}

	status, err := resolveStatus(rec.Status)
	if err != nil {
		return fail(msgInvalidStatus)
	}

	owner, err := s.resolveOwner(ctx, rec.AuthorEmail)
	if err != nil {
		s.logger.WarnContext(ctx, "owner resolution failed", "index", index, "err", err)
		return fail(msgUserCreateFailed)
	}

	now := time.Now().UTC()
	post := &Post{
		ID:        uuid.New(),
		PostType:  PostTypeMobiles,
		Title:     title,
		Content:   SanitizeText(rec.Content),
		Status:    status,
		AuthorID:  owner.ID,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.repository.CreatePost(ctx, post); err != nil {
		s.logger.WarnContext(ctx, "post create failed", "index", index, "err", err)
		return fail(msgSaveFailed)
	}

	if err := s.eventSink.PostCreated(ctx, post); err != nil {
		s.logger.WarnContext(ctx, "post created event failed", "err", err)
	}

	s.enrichPost(ctx, post, rec)

	return SubmissionResult{
		Index:  index,
		PostID: post.ID.String(),
		Status: SubmissionStatusSuccess,
	}
}

// enrichPost attaches tags, categories, featured image and custom fields to a
// freshly created post. Enrichment is best effort: failures are logged, the
// already-created post is never reverted, and the record still reports
// success.
func (s *service) enrichPost(ctx context.Context, post *Post, rec SubmissionRecord) {
	if rec.Tags != "" {
		if err := s.attachTags(ctx, post.ID, rec.Tags); err != nil {
			s.logger.WarnContext(ctx, "tag attach failed", "post_id", post.ID, "err", err)
		}
	}

	if rec.Categories != "" {
		if err := s.attachCategories(ctx, post.ID, rec.Categories); err != nil {
			s.logger.WarnContext(ctx, "category attach failed", "post_id", post.ID, "err", err)
		}
	}

	if rec.FeaturedImageURL != "" {
		// An attach failure is deliberately not reflected in the record's
		// outcome; the submission still reports success.
		if err := s.attachFeaturedImage(ctx, post, rec.FeaturedImageURL); err != nil {
			s.logger.WarnContext(ctx, "featured image attach failed",
				"post_id", post.ID, "url", rec.FeaturedImageURL, "err", err)
		}
	}

	for key, value := range rec.CustomFields {
		if err := s.repository.SetPostMeta(ctx, post.ID, SanitizeText(key), SanitizeText(value)); err != nil {
			s.logger.WarnContext(ctx, "post meta set failed", "post_id", post.ID, "key", key, "err", err)
		}
	}
}

// attachTags stores the submitted tag string as a single post_tag term. The
// whole comma-separated value is sanitized and attached as one token, not
// split per tag; category handling below does split.
func (s *service) attachTags(ctx context.Context, postID uuid.UUID, tags string) error {
	name := SanitizeText(tags)
	if name == "" {
		return nil
	}
	term, err := s.findOrCreateTerm(ctx, TaxonomyTag, name)
	if err != nil {
		return err
	}
	return s.repository.SetPostTerms(ctx, postID, TaxonomyTag, []uuid.UUID{term.ID})
}

// attachCategories splits the comma-separated list, finds or creates each
// category term, and replaces the post's category set with the collected IDs.
func (s *service) attachCategories(ctx context.Context, postID uuid.UUID, categories string) error {
	var termIDs []uuid.UUID
	for _, raw := range strings.Split(categories, ",") {
		name := SanitizeText(strings.TrimSpace(raw))
		if name == "" {
			continue
		}
		term, err := s.findOrCreateTerm(ctx, TaxonomyCategory, name)
		if err != nil {
			s.logger.WarnContext(ctx, "category term failed", "name", name, "err", err)
			continue
		}
		termIDs = append(termIDs, term.ID)
	}
	return s.repository.SetPostTerms(ctx, postID, TaxonomyCategory, termIDs)
}

func (s *service) findOrCreateTerm(ctx context.Context, taxonomy, name string) (*Term, error) {
	term, err := s.repository.GetTermByName(ctx, taxonomy, name)
	if err == nil {
		return term, nil
	}
	if !errors.Is(err, ErrTermNotFound) {
		return nil, err
	}
	return s.repository.CreateTerm(ctx, taxonomy, name)
}

func (s *service) attachFeaturedImage(ctx context.Context, post *Post, sourceURL string) error {
	if s.sideloader == nil {
		return errors.New("no sideloader configured")
	}

	media, err := s.sideloader.Sideload(ctx, post.ID, sourceURL)
	if err != nil {
		return err
	}

	post.FeaturedMediaID = &media.ID
	post.UpdatedAt = time.Now().UTC()
	if err := s.repository.UpdatePost(ctx, post); err != nil {
		return &PostError{PostID: post.ID, Op: "set_featured_media", Err: err}
	}

	if err := s.eventSink.MediaAttached(ctx, media); err != nil {
		s.logger.WarnContext(ctx, "media attached event failed", "err", err)
	}
	return nil
}

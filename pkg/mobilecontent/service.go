package mobilecontent

import "context"

// Service is the main interface of the mobile-content domain. It owns the
// bulk submission pipeline and the read projections over stored posts; all
// mutation is delegated to the Repository, UserStore and BlobStore
// collaborators it is constructed with.
type Service interface {
	// SubmitBatch runs the submission pipeline over a batch of untrusted
	// records. It never fails as a whole: every record yields exactly one
	// SubmissionResult, in input order.
	SubmitBatch(ctx context.Context, records []SubmissionRecord) []SubmissionResult

	// ListPosts returns one page of projected posts plus totals. Page and
	// perPage default to 1 and 10 when out of range.
	ListPosts(ctx context.Context, page, perPage int) (*PostPage, error)

	// ListPostsByEmail returns all posts authored by the user with the given
	// email. ErrUserNotFound if no such user, ErrPostNotFound if the user has
	// no posts.
	ListPostsByEmail(ctx context.Context, email string) ([]PostData, error)

	// RegisteredPostType returns a registered post type definition by name.
	RegisteredPostType(name string) (PostType, bool)
}

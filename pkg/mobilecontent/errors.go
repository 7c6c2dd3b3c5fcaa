package mobilecontent

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
)

// Error types
var (
	// ErrPostNotFound indicates a post was not found
	ErrPostNotFound = errors.New("post not found")

	// ErrDuplicateTitle indicates a post with the same title already exists
	// for the post type
	ErrDuplicateTitle = errors.New("duplicate title")

	// ErrUserNotFound indicates a user was not found
	ErrUserNotFound = errors.New("user not found")

	// ErrDuplicateEmail indicates a user with the same email already exists
	ErrDuplicateEmail = errors.New("duplicate email")

	// ErrTermNotFound indicates a taxonomy term was not found
	ErrTermNotFound = errors.New("term not found")

	// ErrMediaNotFound indicates a media item was not found
	ErrMediaNotFound = errors.New("media not found")

	// ErrInvalidPostStatus indicates a status outside the allowed set
	ErrInvalidPostStatus = errors.New("invalid post status")

	// ErrUnknownPostType indicates a post type that was never registered
	ErrUnknownPostType = errors.New("unknown post type")

	// ErrInvalidCredentials indicates a failed authentication attempt
	ErrInvalidCredentials = errors.New("invalid credentials")
)

// PostError represents an error related to post operations
type PostError struct {
	PostID uuid.UUID
	Op     string
	Err    error
}

func (e *PostError) Error() string {
	return fmt.Sprintf("post operation %s failed for post %s: %v", e.Op, e.PostID, e.Err)
}

func (e *PostError) Unwrap() error {
	return e.Err
}

// UserError represents an error related to user operations
type UserError struct {
	Email string
	Op    string
	Err   error
}

func (e *UserError) Error() string {
	return fmt.Sprintf("user operation %s failed for %s: %v", e.Op, e.Email, e.Err)
}

func (e *UserError) Unwrap() error {
	return e.Err
}

// MediaError represents an error related to media sideloading and storage
type MediaError struct {
	SourceURL string
	Op        string
	Err       error
}

func (e *MediaError) Error() string {
	return fmt.Sprintf("media operation %s failed for %s: %v", e.Op, e.SourceURL, e.Err)
}

func (e *MediaError) Unwrap() error {
	return e.Err
}

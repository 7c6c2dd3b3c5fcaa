package mobilecontent

import "fmt"

// allowedStatuses is the set accepted on submission.
var allowedStatuses = map[PostStatus]struct{}{
	PostStatusPublish: {},
	PostStatusDraft:   {},
	PostStatusPending: {},
}

// resolveStatus sanitizes a submitted status value and checks it against the
// allowed set. An empty value defaults to publish.
func resolveStatus(raw string) (PostStatus, error) {
	if raw == "" {
		return PostStatusPublish, nil
	}
	status := PostStatus(SanitizeText(raw))
	if _, ok := allowedStatuses[status]; !ok {
		return "", fmt.Errorf("%w: %s", ErrInvalidPostStatus, status)
	}
	return status, nil
}

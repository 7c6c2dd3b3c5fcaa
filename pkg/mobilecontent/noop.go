package mobilecontent

import (
	"context"
	"log/slog"
)

// NoopEventSink is an event sink that discards all events.
type NoopEventSink struct{}

// NewNoopEventSink creates an event sink that does nothing.
func NewNoopEventSink() EventSink {
	return &NoopEventSink{}
}

func (s *NoopEventSink) PostCreated(ctx context.Context, post *Post) error { return nil }

func (s *NoopEventSink) UserCreated(ctx context.Context, user *User) error { return nil }

func (s *NoopEventSink) MediaAttached(ctx context.Context, m *MediaItem) error { return nil }

// LogEventSink writes events to a structured logger.
type LogEventSink struct {
	logger *slog.Logger
}

// NewLogEventSink creates an event sink backed by the given logger. A nil
// logger falls back to slog.Default.
func NewLogEventSink(logger *slog.Logger) EventSink {
	if logger == nil {
		logger = slog.Default()
	}
	return &LogEventSink{logger: logger}
}

func (s *LogEventSink) PostCreated(ctx context.Context, post *Post) error {
	s.logger.InfoContext(ctx, "post created",
		"post_id", post.ID, "post_type", post.PostType, "status", post.Status)
	return nil
}

func (s *LogEventSink) UserCreated(ctx context.Context, user *User) error {
	s.logger.InfoContext(ctx, "user created", "user_id", user.ID, "email", user.Email)
	return nil
}

func (s *LogEventSink) MediaAttached(ctx context.Context, m *MediaItem) error {
	s.logger.InfoContext(ctx, "media attached",
		"media_id", m.ID, "post_id", m.PostID, "source_url", m.SourceURL)
	return nil
}

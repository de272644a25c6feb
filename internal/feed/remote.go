package feed

import (
	"context"

	"github.com/prakharpks02/floww-wall/internal/entity"
)

// Page is one slice of the feed as returned by the backend's list endpoint.
// NextCursor is opaque; an empty string means the server issued no cursor.
type Page struct {
	Entities   []entity.RawEntity
	NextCursor string
}

// RemoteAPI is the backend boundary. Every call may succeed, fail with an
// error, or hang until the transport's own timeout fires; the engine issues
// no retries of its own.
type RemoteAPI interface {
	CreatePost(ctx context.Context, draft entity.RawEntity) (entity.RawEntity, error)
	UpdatePost(ctx context.Context, postID string, patch entity.RawEntity) (entity.RawEntity, error)
	DeletePost(ctx context.Context, postID string) error
	ListPosts(ctx context.Context, cursor string, pageSize int) (Page, error)

	AddReaction(ctx context.Context, entityID, reactionType string) error
	RemoveReaction(ctx context.Context, entityID, reactionType string) error

	AddComment(ctx context.Context, postID string, draft entity.RawEntity) (entity.RawEntity, error)
	EditComment(ctx context.Context, postID, commentID string, patch entity.RawEntity) (entity.RawEntity, error)
	DeleteComment(ctx context.Context, postID, commentID string) error
	AddReply(ctx context.Context, postID, commentID string, draft entity.RawEntity) (entity.RawEntity, error)
	DeleteReply(ctx context.Context, postID, commentID, replyID string) error
}

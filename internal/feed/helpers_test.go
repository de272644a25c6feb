package feed

import (
	"context"
	"errors"
	"fmt"

	"github.com/prakharpks02/floww-wall/internal/entity"
)

var errNotImplemented = errors.New("fake: not implemented")

// fakeRemote lets each test override only the calls it expects.
type fakeRemote struct {
	createPost     func(ctx context.Context, draft entity.RawEntity) (entity.RawEntity, error)
	updatePost     func(ctx context.Context, postID string, patch entity.RawEntity) (entity.RawEntity, error)
	deletePost     func(ctx context.Context, postID string) error
	listPosts      func(ctx context.Context, cursor string, pageSize int) (Page, error)
	addReaction    func(ctx context.Context, entityID, reactionType string) error
	removeReaction func(ctx context.Context, entityID, reactionType string) error
	addComment     func(ctx context.Context, postID string, draft entity.RawEntity) (entity.RawEntity, error)
	editComment    func(ctx context.Context, postID, commentID string, patch entity.RawEntity) (entity.RawEntity, error)
	deleteComment  func(ctx context.Context, postID, commentID string) error
	addReply       func(ctx context.Context, postID, commentID string, draft entity.RawEntity) (entity.RawEntity, error)
	deleteReply    func(ctx context.Context, postID, commentID, replyID string) error
}

func (f *fakeRemote) CreatePost(ctx context.Context, draft entity.RawEntity) (entity.RawEntity, error) {
	if f.createPost == nil {
		return entity.RawEntity{}, errNotImplemented
	}
	return f.createPost(ctx, draft)
}

func (f *fakeRemote) UpdatePost(ctx context.Context, postID string, patch entity.RawEntity) (entity.RawEntity, error) {
	if f.updatePost == nil {
		return entity.RawEntity{}, errNotImplemented
	}
	return f.updatePost(ctx, postID, patch)
}

func (f *fakeRemote) DeletePost(ctx context.Context, postID string) error {
	if f.deletePost == nil {
		return errNotImplemented
	}
	return f.deletePost(ctx, postID)
}

func (f *fakeRemote) ListPosts(ctx context.Context, cursor string, pageSize int) (Page, error) {
	if f.listPosts == nil {
		return Page{}, nil
	}
	return f.listPosts(ctx, cursor, pageSize)
}

func (f *fakeRemote) AddReaction(ctx context.Context, entityID, reactionType string) error {
	if f.addReaction == nil {
		return errNotImplemented
	}
	return f.addReaction(ctx, entityID, reactionType)
}

func (f *fakeRemote) RemoveReaction(ctx context.Context, entityID, reactionType string) error {
	if f.removeReaction == nil {
		return errNotImplemented
	}
	return f.removeReaction(ctx, entityID, reactionType)
}

func (f *fakeRemote) AddComment(ctx context.Context, postID string, draft entity.RawEntity) (entity.RawEntity, error) {
	if f.addComment == nil {
		return entity.RawEntity{}, errNotImplemented
	}
	return f.addComment(ctx, postID, draft)
}

func (f *fakeRemote) EditComment(ctx context.Context, postID, commentID string, patch entity.RawEntity) (entity.RawEntity, error) {
	if f.editComment == nil {
		return entity.RawEntity{}, errNotImplemented
	}
	return f.editComment(ctx, postID, commentID, patch)
}

func (f *fakeRemote) DeleteComment(ctx context.Context, postID, commentID string) error {
	if f.deleteComment == nil {
		return errNotImplemented
	}
	return f.deleteComment(ctx, postID, commentID)
}

func (f *fakeRemote) AddReply(ctx context.Context, postID, commentID string, draft entity.RawEntity) (entity.RawEntity, error) {
	if f.addReply == nil {
		return entity.RawEntity{}, errNotImplemented
	}
	return f.addReply(ctx, postID, commentID, draft)
}

func (f *fakeRemote) DeleteReply(ctx context.Context, postID, commentID, replyID string) error {
	if f.deleteReply == nil {
		return errNotImplemented
	}
	return f.deleteReply(ctx, postID, commentID, replyID)
}

// sequenceIDProvider issues predictable ids for assertions.
type sequenceIDProvider struct {
	next int
}

func (p *sequenceIDProvider) NewID() (string, error) {
	p.next++
	return fmt.Sprintf("temp-%04d", p.next), nil
}

// memoryLedger is an in-memory stand-in for the persistent reaction ledger.
type memoryLedger struct {
	marks map[string]bool
}

func newMemoryLedger() *memoryLedger {
	return &memoryLedger{marks: make(map[string]bool)}
}

func (l *memoryLedger) key(entityID, reactionType string) string {
	return entityID + "|" + reactionType
}

func (l *memoryLedger) HasReacted(target entity.Entity, reactionType string) bool {
	return l.marks[l.key(target.CanonicalID, reactionType)]
}

func (l *memoryLedger) Record(ctx context.Context, entityID, reactionType string, present bool) error {
	l.marks[l.key(entityID, reactionType)] = present
	return nil
}

func (l *memoryLedger) Rename(ctx context.Context, previousEntityID, confirmedEntityID string) error {
	for key, present := range l.marks {
		if len(key) > len(previousEntityID) && key[:len(previousEntityID)+1] == previousEntityID+"|" {
			l.marks[confirmedEntityID+key[len(previousEntityID):]] = present
			delete(l.marks, key)
		}
	}
	return nil
}

package feed

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/prakharpks02/floww-wall/internal/entity"
	"go.uber.org/zap"
)

var (
	errMissingIDProvider = errors.New("id provider is required")
	noOpLogger           = zap.NewNop()
)

const (
	opManagerNew    = "feed.manager.new"
	opCreatePost    = "feed.create_post"
	opEditPost      = "feed.edit_post"
	opDeletePost    = "feed.delete_post"
	opReact         = "feed.react"
	opAddComment    = "feed.add_comment"
	opEditComment   = "feed.edit_comment"
	opDeleteComment = "feed.delete_comment"
	opAddReply      = "feed.add_reply"
	opDeleteReply   = "feed.delete_reply"
)

// Draft is the user-supplied input for a new post, comment, or reply.
type Draft struct {
	Content  string
	Tags     []string
	Media    []entity.RawMediaItem
	Mentions []entity.Mention
}

// Patch is a partial edit; nil fields stay untouched.
type Patch struct {
	Content *string
	Tags    *[]string
	Media   *[]entity.RawMediaItem
}

// ReactionDetector decides whether the acting user currently has the given
// reaction on the target. It is injectable because reaction families differ:
// some callers treat a generic "like" and a distinct "love" as one slot, and
// that policy belongs to the caller, not to the toggle mechanics.
type ReactionDetector func(target entity.Entity, reactionType string) bool

// ReactionLedger is the persistent per-user reaction overlay the manager
// consults and updates around toggles.
type ReactionLedger interface {
	HasReacted(target entity.Entity, reactionType string) bool
	Record(ctx context.Context, entityID, reactionType string, present bool) error
	Rename(ctx context.Context, previousEntityID, confirmedEntityID string) error
}

// IDProvider issues identifiers for optimistic local entities.
type IDProvider interface {
	NewID() (string, error)
}

// ManagerConfig describes the dependencies of the optimistic mutation manager.
type ManagerConfig struct {
	Store      *Store
	Remote     RemoteAPI
	Ledger     ReactionLedger
	ActingUser entity.Author
	IDProvider IDProvider
	Clock      func() time.Time
	Logger     *zap.Logger
	// DetectReaction overrides the default ledger-backed detection.
	DetectReaction ReactionDetector
	// RefreshFeed runs after every reaction toggle resolves, success or
	// failure, to pull server-truth aggregate counts. Usually a paginator's
	// Refresh. Optional.
	RefreshFeed func(ctx context.Context) error
}

// Manager orchestrates optimistic mutations: apply locally, call remote,
// reconcile. Mutations on distinct entities may run concurrently; a second
// mutation on an entity already in transit fails fast with ErrEntityBusy.
type Manager struct {
	store      *Store
	remote     RemoteAPI
	ledger     ReactionLedger
	actingUser entity.Author
	idProvider IDProvider
	clock      func() time.Time
	logger     *zap.Logger
	detect     ReactionDetector
	refresh    func(ctx context.Context) error

	mu       sync.Mutex
	inFlight map[string]struct{}
}

// NewManager constructs the mutation manager.
func NewManager(cfg ManagerConfig) (*Manager, error) {
	if cfg.Store == nil {
		return nil, newEngineError(opManagerNew, "missing_store", errMissingStore)
	}
	if cfg.Remote == nil {
		return nil, newEngineError(opManagerNew, "missing_remote", errMissingRemote)
	}
	if cfg.IDProvider == nil {
		return nil, newEngineError(opManagerNew, "missing_id_provider", errMissingIDProvider)
	}
	clock := cfg.Clock
	if clock == nil {
		clock = time.Now
	}
	logger := cfg.Logger
	if logger == nil {
		logger = noOpLogger
	}

	manager := &Manager{
		store:      cfg.Store,
		remote:     cfg.Remote,
		ledger:     cfg.Ledger,
		actingUser: cfg.ActingUser,
		idProvider: cfg.IDProvider,
		clock:      clock,
		logger:     logger,
		refresh:    cfg.RefreshFeed,
		inFlight:   make(map[string]struct{}),
	}
	manager.detect = cfg.DetectReaction
	if manager.detect == nil {
		manager.detect = manager.defaultDetect
	}
	return manager, nil
}

func (m *Manager) defaultDetect(target entity.Entity, reactionType string) bool {
	if m.ledger == nil {
		return false
	}
	return m.ledger.HasReacted(target, reactionType)
}

// beginMutation reserves the entity for one in-flight mutation.
func (m *Manager) beginMutation(operation, canonicalID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, busy := m.inFlight[canonicalID]; busy {
		return newEngineError(operation, "entity_busy", ErrEntityBusy)
	}
	m.inFlight[canonicalID] = struct{}{}
	return nil
}

func (m *Manager) endMutation(canonicalID string) {
	m.mu.Lock()
	delete(m.inFlight, canonicalID)
	m.mu.Unlock()
}

// CreatePost inserts an optimistic post at the head of the feed, issues the
// create call, and either swaps in the server-confirmed entity or removes the
// optimistic one. A failed create surfaces a typed error so the caller can
// re-prompt with the preserved draft instead of silently losing it.
func (m *Manager) CreatePost(ctx context.Context, draft Draft) (entity.Entity, error) {
	rawDraft, err := m.draftToRaw(opCreatePost, draft)
	if err != nil {
		return entity.Entity{}, err
	}

	optimistic, err := m.newOptimistic(opCreatePost, rawDraft)
	if err != nil {
		return entity.Entity{}, err
	}
	tempID := optimistic.CanonicalID

	m.store.InsertFront(optimistic)
	if err := m.beginMutation(opCreatePost, tempID); err != nil {
		m.store.Remove(tempID)
		return entity.Entity{}, err
	}
	defer m.endMutation(tempID)

	response, err := m.remote.CreatePost(ctx, rawDraft)
	if err != nil {
		m.store.Remove(tempID)
		m.logError(opCreatePost, "remote_create_failed", err, zap.String("temp_id", tempID))
		return entity.Entity{}, newEngineError(opCreatePost, "remote_create_failed", errors.Join(ErrRemoteCall, err))
	}

	confirmed := entity.Normalize(response, m.actingUser)
	confirmed.Lifecycle = entity.LifecycleConfirmed
	m.store.Swap(tempID, confirmed)
	if m.ledger != nil {
		if err := m.ledger.Rename(ctx, tempID, confirmed.CanonicalID); err != nil {
			m.logError(opCreatePost, "ledger_rename_failed", err, zap.String("temp_id", tempID))
		}
	}
	return confirmed, nil
}

// EditPost applies the patch optimistically, issues the update call, and on
// failure restores the pre-edit snapshot as if nothing happened while still
// surfacing the error.
func (m *Manager) EditPost(ctx context.Context, postID string, patch Patch) (entity.Entity, error) {
	snapshot, ok := m.store.Get(postID)
	if !ok {
		return entity.Entity{}, newEngineError(opEditPost, "not_found", ErrEntityNotFound)
	}
	if err := validatePatch(opEditPost, patch); err != nil {
		return entity.Entity{}, err
	}
	if err := m.beginMutation(opEditPost, postID); err != nil {
		return entity.Entity{}, err
	}
	defer m.endMutation(postID)

	m.store.Apply(postID, func(target *entity.Entity) {
		applyPatch(target, patch)
		target.Lifecycle = entity.LifecycleUpdating
		target.UpdatedAt = m.clock().UTC()
	})

	response, err := m.remote.UpdatePost(ctx, postID, patchToRaw(patch))
	if err != nil {
		restored := snapshot.Clone()
		restored.Lifecycle = entity.LifecycleConfirmed
		m.store.Swap(postID, restored)
		m.logError(opEditPost, "remote_update_failed", err, zap.String("post_id", postID))
		return entity.Entity{}, newEngineError(opEditPost, "remote_update_failed", errors.Join(ErrRemoteCall, err))
	}

	merged := entity.Normalize(response, m.actingUser)
	merged.Lifecycle = entity.LifecycleConfirmed
	if len(merged.Comments) == 0 {
		// Update endpoints echo the post without its comment tree.
		merged.Comments = snapshot.Comments
	}
	if merged.CanonicalID != postID {
		merged.CanonicalID = postID
	}
	m.store.Swap(postID, merged)
	return merged, nil
}

// DeletePost removes the post immediately, issues the delete call, and
// re-inserts the post at its original position when the call fails.
func (m *Manager) DeletePost(ctx context.Context, postID string) error {
	if err := m.beginMutation(opDeletePost, postID); err != nil {
		return err
	}
	defer m.endMutation(postID)

	removed, position, ok := m.store.Remove(postID)
	if !ok {
		return newEngineError(opDeletePost, "not_found", ErrEntityNotFound)
	}

	if err := m.remote.DeletePost(ctx, postID); err != nil {
		m.store.InsertAt(position, removed)
		m.logError(opDeletePost, "remote_delete_failed", err, zap.String("post_id", postID))
		return newEngineError(opDeletePost, "remote_delete_failed", errors.Join(ErrRemoteCall, err))
	}
	return nil
}

// React toggles the acting user's reaction on a post or nested comment. The
// current state comes from the injected detector (ledger plus heuristic by
// default); the toggle flips the ledger and the local count optimistically,
// reverts both on remote failure, and afterwards refreshes the feed since the
// server alone owns aggregate counts. It returns whether the reaction is
// present after the toggle.
func (m *Manager) React(ctx context.Context, entityID, reactionType string) (bool, error) {
	normalizedType := strings.ToLower(strings.TrimSpace(reactionType))
	if normalizedType == "" {
		return false, newEngineError(opReact, "invalid_reaction_type", entity.ErrInvalidReactionType)
	}

	target, postID, found := m.findEntity(entityID)
	if !found {
		return false, newEngineError(opReact, "not_found", ErrEntityNotFound)
	}
	if err := m.beginMutation(opReact, entityID); err != nil {
		return false, err
	}
	defer m.endMutation(entityID)

	currently := m.detect(target, normalizedType)
	desired := !currently

	m.applyNested(postID, entityID, func(target *entity.Entity) {
		bumpReaction(target, normalizedType, desired, m.actingUser.ID)
	})
	if m.ledger != nil {
		if err := m.ledger.Record(ctx, entityID, normalizedType, desired); err != nil {
			m.logError(opReact, "ledger_record_failed", err, zap.String("entity_id", entityID))
		}
	}

	var remoteErr error
	if desired {
		remoteErr = m.remote.AddReaction(ctx, entityID, normalizedType)
	} else {
		remoteErr = m.remote.RemoveReaction(ctx, entityID, normalizedType)
	}

	if remoteErr != nil {
		m.applyNested(postID, entityID, func(target *entity.Entity) {
			bumpReaction(target, normalizedType, currently, m.actingUser.ID)
		})
		if m.ledger != nil {
			if err := m.ledger.Record(ctx, entityID, normalizedType, currently); err != nil {
				m.logError(opReact, "ledger_revert_failed", err, zap.String("entity_id", entityID))
			}
		}
	}

	m.refreshAfterReact(ctx)

	if remoteErr != nil {
		m.logError(opReact, "remote_toggle_failed", remoteErr,
			zap.String("entity_id", entityID),
			zap.String("reaction_type", normalizedType))
		return currently, newEngineError(opReact, "remote_toggle_failed", errors.Join(ErrRemoteCall, remoteErr))
	}
	return desired, nil
}

// refreshAfterReact pulls server-truth counts after a toggle resolves. A
// refresh failure is logged, not surfaced: the toggle outcome already stands.
func (m *Manager) refreshAfterReact(ctx context.Context) {
	if m.refresh == nil {
		return
	}
	if err := m.refresh(ctx); err != nil {
		m.logError(opReact, "feed_refresh_failed", err)
	}
}

// AddComment appends an optimistic comment to the post, issues the create
// call, and reconciles the comment against the server response.
func (m *Manager) AddComment(ctx context.Context, postID string, draft Draft) (entity.Entity, error) {
	rawDraft, err := m.draftToRaw(opAddComment, draft)
	if err != nil {
		return entity.Entity{}, err
	}
	if _, ok := m.store.Get(postID); !ok {
		return entity.Entity{}, newEngineError(opAddComment, "post_not_found", ErrEntityNotFound)
	}

	optimistic, err := m.newOptimistic(opAddComment, rawDraft)
	if err != nil {
		return entity.Entity{}, err
	}
	tempID := optimistic.CanonicalID

	m.store.Apply(postID, func(post *entity.Entity) {
		post.Comments = append(post.Comments, optimistic)
	})
	if err := m.beginMutation(opAddComment, tempID); err != nil {
		m.removeComment(postID, tempID)
		return entity.Entity{}, err
	}
	defer m.endMutation(tempID)

	response, err := m.remote.AddComment(ctx, postID, rawDraft)
	if err != nil {
		m.removeComment(postID, tempID)
		m.logError(opAddComment, "remote_create_failed", err, zap.String("post_id", postID))
		return entity.Entity{}, newEngineError(opAddComment, "remote_create_failed", errors.Join(ErrRemoteCall, err))
	}

	confirmed := entity.Normalize(response, m.actingUser)
	confirmed.Lifecycle = entity.LifecycleConfirmed
	m.store.Apply(postID, func(post *entity.Entity) {
		for position := range post.Comments {
			if post.Comments[position].CanonicalID == tempID {
				post.Comments[position] = confirmed
				return
			}
		}
	})
	if m.ledger != nil {
		if err := m.ledger.Rename(ctx, tempID, confirmed.CanonicalID); err != nil {
			m.logError(opAddComment, "ledger_rename_failed", err, zap.String("temp_id", tempID))
		}
	}
	return confirmed, nil
}

// EditComment applies an optimistic patch to a nested comment and reconciles
// or reverts exactly like a post edit.
func (m *Manager) EditComment(ctx context.Context, postID, commentID string, patch Patch) (entity.Entity, error) {
	snapshot, found := m.findComment(postID, commentID)
	if !found {
		return entity.Entity{}, newEngineError(opEditComment, "not_found", ErrEntityNotFound)
	}
	if err := validatePatch(opEditComment, patch); err != nil {
		return entity.Entity{}, err
	}
	if err := m.beginMutation(opEditComment, commentID); err != nil {
		return entity.Entity{}, err
	}
	defer m.endMutation(commentID)

	m.applyNested(postID, commentID, func(comment *entity.Entity) {
		applyPatch(comment, patch)
		comment.Lifecycle = entity.LifecycleUpdating
		comment.UpdatedAt = m.clock().UTC()
	})

	response, err := m.remote.EditComment(ctx, postID, commentID, patchToRaw(patch))
	if err != nil {
		restored := snapshot.Clone()
		restored.Lifecycle = entity.LifecycleConfirmed
		m.applyNested(postID, commentID, func(comment *entity.Entity) {
			*comment = restored
		})
		m.logError(opEditComment, "remote_update_failed", err, zap.String("comment_id", commentID))
		return entity.Entity{}, newEngineError(opEditComment, "remote_update_failed", errors.Join(ErrRemoteCall, err))
	}

	merged := entity.Normalize(response, m.actingUser)
	merged.Lifecycle = entity.LifecycleConfirmed
	if merged.CanonicalID != commentID {
		merged.CanonicalID = commentID
	}
	if len(merged.Comments) == 0 {
		merged.Comments = snapshot.Comments
	}
	m.applyNested(postID, commentID, func(comment *entity.Entity) {
		*comment = merged
	})
	return merged, nil
}

// DeleteComment removes the comment optimistically and restores it at its
// original position when the remote call fails.
func (m *Manager) DeleteComment(ctx context.Context, postID, commentID string) error {
	if err := m.beginMutation(opDeleteComment, commentID); err != nil {
		return err
	}
	defer m.endMutation(commentID)

	removed, position, ok := m.removeComment(postID, commentID)
	if !ok {
		return newEngineError(opDeleteComment, "not_found", ErrEntityNotFound)
	}

	if err := m.remote.DeleteComment(ctx, postID, commentID); err != nil {
		m.restoreComment(postID, position, removed)
		m.logError(opDeleteComment, "remote_delete_failed", err, zap.String("comment_id", commentID))
		return newEngineError(opDeleteComment, "remote_delete_failed", errors.Join(ErrRemoteCall, err))
	}
	return nil
}

// AddReply appends an optimistic reply beneath a comment and reconciles it
// against the server response.
func (m *Manager) AddReply(ctx context.Context, postID, commentID string, draft Draft) (entity.Entity, error) {
	rawDraft, err := m.draftToRaw(opAddReply, draft)
	if err != nil {
		return entity.Entity{}, err
	}
	if _, found := m.findComment(postID, commentID); !found {
		return entity.Entity{}, newEngineError(opAddReply, "comment_not_found", ErrEntityNotFound)
	}

	optimistic, err := m.newOptimistic(opAddReply, rawDraft)
	if err != nil {
		return entity.Entity{}, err
	}
	tempID := optimistic.CanonicalID

	m.applyNested(postID, commentID, func(comment *entity.Entity) {
		comment.Comments = append(comment.Comments, optimistic)
	})
	if err := m.beginMutation(opAddReply, tempID); err != nil {
		m.removeReply(postID, commentID, tempID)
		return entity.Entity{}, err
	}
	defer m.endMutation(tempID)

	response, err := m.remote.AddReply(ctx, postID, commentID, rawDraft)
	if err != nil {
		m.removeReply(postID, commentID, tempID)
		m.logError(opAddReply, "remote_create_failed", err, zap.String("comment_id", commentID))
		return entity.Entity{}, newEngineError(opAddReply, "remote_create_failed", errors.Join(ErrRemoteCall, err))
	}

	confirmed := entity.Normalize(response, m.actingUser)
	confirmed.Lifecycle = entity.LifecycleConfirmed
	m.applyNested(postID, commentID, func(comment *entity.Entity) {
		for position := range comment.Comments {
			if comment.Comments[position].CanonicalID == tempID {
				comment.Comments[position] = confirmed
				return
			}
		}
	})
	return confirmed, nil
}

// DeleteReply removes a reply optimistically and restores it when the remote
// call fails.
func (m *Manager) DeleteReply(ctx context.Context, postID, commentID, replyID string) error {
	if err := m.beginMutation(opDeleteReply, replyID); err != nil {
		return err
	}
	defer m.endMutation(replyID)

	removed, position, ok := m.removeReply(postID, commentID, replyID)
	if !ok {
		return newEngineError(opDeleteReply, "not_found", ErrEntityNotFound)
	}

	if err := m.remote.DeleteReply(ctx, postID, commentID, replyID); err != nil {
		m.applyNested(postID, commentID, func(comment *entity.Entity) {
			insertChildAt(&comment.Comments, position, removed)
		})
		m.logError(opDeleteReply, "remote_delete_failed", err, zap.String("reply_id", replyID))
		return newEngineError(opDeleteReply, "remote_delete_failed", errors.Join(ErrRemoteCall, err))
	}
	return nil
}

func (m *Manager) draftToRaw(operation string, draft Draft) (entity.RawEntity, error) {
	if strings.TrimSpace(draft.Content) == "" {
		return entity.RawEntity{}, newEngineError(operation, "empty_content", ErrEmptyContent)
	}
	raw := entity.RawEntity{
		Content:   draft.Content,
		Tags:      append([]string(nil), draft.Tags...),
		Media:     append([]entity.RawMediaItem(nil), draft.Media...),
		CreatedAt: m.clock().UTC().Format(time.RFC3339Nano),
		IsOwn:     true,
	}
	for _, mention := range draft.Mentions {
		raw.Mentions = append(raw.Mentions, entity.RawMention{UserID: mention.UserID, Username: mention.Username})
	}
	return raw, nil
}

// newOptimistic builds the temporary local entity for a draft.
func (m *Manager) newOptimistic(operation string, rawDraft entity.RawEntity) (entity.Entity, error) {
	rawID, err := m.idProvider.NewID()
	if err != nil {
		m.logError(operation, "id_generation_failed", err)
		return entity.Entity{}, newEngineError(operation, "id_generation_failed", err)
	}
	optimistic := entity.Normalize(rawDraft, m.actingUser)
	optimistic.CanonicalID = entity.LocalIDPrefix + rawID
	optimistic.ServerID = ""
	optimistic.Author = m.actingUser
	optimistic.Lifecycle = entity.LifecycleOptimistic
	return optimistic, nil
}

// findEntity locates a post or nested comment/reply by canonical id. The
// returned postID names the owning top-level post.
func (m *Manager) findEntity(canonicalID string) (entity.Entity, string, bool) {
	if target, ok := m.store.Get(canonicalID); ok {
		return target, canonicalID, true
	}
	for _, post := range m.store.Snapshot() {
		if target, found := findNested(post.Comments, canonicalID); found {
			return target, post.CanonicalID, true
		}
	}
	return entity.Entity{}, "", false
}

func findNested(children []entity.Entity, canonicalID string) (entity.Entity, bool) {
	for _, child := range children {
		if child.CanonicalID == canonicalID {
			return child.Clone(), true
		}
		if target, found := findNested(child.Comments, canonicalID); found {
			return target, true
		}
	}
	return entity.Entity{}, false
}

// applyNested mutates either the post itself or the nested child with the
// given id, all under the store lock.
func (m *Manager) applyNested(postID, canonicalID string, mutate func(*entity.Entity)) bool {
	return m.store.Apply(postID, func(post *entity.Entity) {
		if post.CanonicalID == canonicalID {
			mutate(post)
			return
		}
		applyToNested(post.Comments, canonicalID, mutate)
	})
}

func applyToNested(children []entity.Entity, canonicalID string, mutate func(*entity.Entity)) bool {
	for position := range children {
		if children[position].CanonicalID == canonicalID {
			mutate(&children[position])
			return true
		}
		if applyToNested(children[position].Comments, canonicalID, mutate) {
			return true
		}
	}
	return false
}

func (m *Manager) findComment(postID, commentID string) (entity.Entity, bool) {
	post, ok := m.store.Get(postID)
	if !ok {
		return entity.Entity{}, false
	}
	return findNested(post.Comments, commentID)
}

func (m *Manager) removeComment(postID, commentID string) (entity.Entity, int, bool) {
	var removed entity.Entity
	position := -1
	m.store.Apply(postID, func(post *entity.Entity) {
		removed, position = removeChild(&post.Comments, commentID)
	})
	if position < 0 {
		return entity.Entity{}, 0, false
	}
	return removed, position, true
}

func (m *Manager) restoreComment(postID string, position int, comment entity.Entity) {
	m.store.Apply(postID, func(post *entity.Entity) {
		insertChildAt(&post.Comments, position, comment)
	})
}

func (m *Manager) removeReply(postID, commentID, replyID string) (entity.Entity, int, bool) {
	var removed entity.Entity
	position := -1
	m.applyNested(postID, commentID, func(comment *entity.Entity) {
		removed, position = removeChild(&comment.Comments, replyID)
	})
	if position < 0 {
		return entity.Entity{}, 0, false
	}
	return removed, position, true
}

func removeChild(children *[]entity.Entity, canonicalID string) (entity.Entity, int) {
	for position := range *children {
		if (*children)[position].CanonicalID != canonicalID {
			continue
		}
		removed := (*children)[position]
		*children = append((*children)[:position], (*children)[position+1:]...)
		return removed, position
	}
	return entity.Entity{}, -1
}

func insertChildAt(children *[]entity.Entity, position int, child entity.Entity) {
	if position < 0 {
		position = 0
	}
	if position > len(*children) {
		position = len(*children)
	}
	*children = append(*children, entity.Entity{})
	copy((*children)[position+1:], (*children)[position:])
	(*children)[position] = child
}

// bumpReaction adjusts the local count and user list for an optimistic
// toggle. The server remains the source of truth; the refresh that follows
// the remote call overwrites whatever this guesses.
func bumpReaction(target *entity.Entity, reactionType string, present bool, userID string) {
	if target.Reactions == nil {
		target.Reactions = entity.ReactionMap{}
	}
	detail := target.Reactions[reactionType]
	if present {
		for _, existing := range detail.UserIDs {
			if existing == userID {
				return
			}
		}
		detail.Count++
		if userID != "" {
			detail.UserIDs = append(detail.UserIDs, userID)
		}
		target.Reactions[reactionType] = detail
		return
	}
	if detail.Count > 0 {
		detail.Count--
	}
	if userID != "" {
		filtered := detail.UserIDs[:0]
		for _, existing := range detail.UserIDs {
			if existing != userID {
				filtered = append(filtered, existing)
			}
		}
		detail.UserIDs = filtered
	}
	if detail.Count == 0 {
		delete(target.Reactions, reactionType)
		return
	}
	target.Reactions[reactionType] = detail
}

func validatePatch(operation string, patch Patch) error {
	if patch.Content != nil && strings.TrimSpace(*patch.Content) == "" {
		return newEngineError(operation, "empty_content", ErrEmptyContent)
	}
	return nil
}

func applyPatch(target *entity.Entity, patch Patch) {
	if patch.Content != nil {
		target.Content = *patch.Content
	}
	if patch.Tags != nil {
		target.Tags = append([]string(nil), (*patch.Tags)...)
	}
	if patch.Media != nil {
		raw := entity.RawEntity{Media: *patch.Media}
		target.Media = entity.Normalize(raw, target.Author).Media
	}
}

func patchToRaw(patch Patch) entity.RawEntity {
	var raw entity.RawEntity
	if patch.Content != nil {
		raw.Content = *patch.Content
	}
	if patch.Tags != nil {
		raw.Tags = append([]string(nil), (*patch.Tags)...)
	}
	if patch.Media != nil {
		raw.Media = append([]entity.RawMediaItem(nil), (*patch.Media)...)
	}
	return raw
}

func (m *Manager) logError(operation, reason string, err error, fields ...zap.Field) {
	attrs := []zap.Field{
		zap.String("operation", operation),
		zap.String("reason", reason),
	}
	if err != nil {
		attrs = append(attrs, zap.Error(err))
	}
	attrs = append(attrs, fields...)
	m.logger.Error("feed mutation error", attrs...)
}

package entity

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"
)

// LifecycleState tracks where an entity sits in the optimistic mutation flow.
type LifecycleState string

const (
	// LifecycleOptimistic marks a locally created entity awaiting server confirmation.
	LifecycleOptimistic LifecycleState = "optimistic"
	// LifecycleConfirmed marks an entity whose state matches the server.
	LifecycleConfirmed LifecycleState = "confirmed"
	// LifecycleUpdating marks an entity with an in-flight edit.
	LifecycleUpdating LifecycleState = "updating"
	// LifecycleFailed marks an entity whose last mutation was rejected.
	LifecycleFailed LifecycleState = "failed"
)

// LocalIDPrefix distinguishes locally generated identifiers from server ids.
const LocalIDPrefix = "local-"

const maxIdentifierLength = 190

var (
	// ErrInvalidEntityID indicates that an entity identifier is empty or exceeds storage bounds.
	ErrInvalidEntityID = errors.New("entity: invalid entity id")
	// ErrInvalidReactionType indicates that a reaction type name is empty or exceeds storage bounds.
	ErrInvalidReactionType = errors.New("entity: invalid reaction type")
)

// ID represents a validated entity identifier, local or server-assigned.
type ID string

// NewID validates raw input and returns an ID.
func NewID(rawInput string) (ID, error) {
	trimmed := strings.TrimSpace(rawInput)
	if trimmed == "" {
		return "", fmt.Errorf("%w: empty", ErrInvalidEntityID)
	}
	if len(trimmed) > maxIdentifierLength {
		return "", fmt.Errorf("%w: exceeds %d characters", ErrInvalidEntityID, maxIdentifierLength)
	}
	return ID(trimmed), nil
}

// String returns the underlying string identifier.
func (id ID) String() string {
	return string(id)
}

// IsLocal reports whether the identifier was generated locally and never confirmed.
func (id ID) IsLocal() bool {
	return strings.HasPrefix(string(id), LocalIDPrefix)
}

// ReactionType represents a validated reaction type name such as "like" or "love".
type ReactionType string

// NewReactionType validates raw input and returns a ReactionType.
func NewReactionType(rawInput string) (ReactionType, error) {
	trimmed := strings.TrimSpace(strings.ToLower(rawInput))
	if trimmed == "" {
		return "", fmt.Errorf("%w: empty", ErrInvalidReactionType)
	}
	if len(trimmed) > maxIdentifierLength {
		return "", fmt.Errorf("%w: exceeds %d characters", ErrInvalidReactionType, maxIdentifierLength)
	}
	return ReactionType(trimmed), nil
}

// String returns the underlying reaction type name.
func (rt ReactionType) String() string {
	return string(rt)
}

// Author is the denormalized snapshot of whoever wrote an entity.
type Author struct {
	ID          string `json:"id"`
	DisplayName string `json:"display_name"`
	AvatarURL   string `json:"avatar_url"`
	Title       string `json:"title"`
}

// Mention references a user called out inside entity content.
type Mention struct {
	UserID   string `json:"user_id"`
	Username string `json:"username"`
}

// MediaKind classifies an attached media record.
type MediaKind string

const (
	MediaKindImage    MediaKind = "image"
	MediaKindVideo    MediaKind = "video"
	MediaKindDocument MediaKind = "document"
	MediaKindLink     MediaKind = "link"
)

// MediaItem is one attached media record. The URL is treated as opaque.
type MediaItem struct {
	URL  string    `json:"url"`
	Name string    `json:"name"`
	Kind MediaKind `json:"kind"`
}

// MediaSet holds attached media split by kind.
type MediaSet struct {
	Images    []MediaItem `json:"images"`
	Videos    []MediaItem `json:"videos"`
	Documents []MediaItem `json:"documents"`
	Links     []MediaItem `json:"links"`
}

// IsEmpty reports whether the set holds no media at all.
func (m MediaSet) IsEmpty() bool {
	return len(m.Images) == 0 && len(m.Videos) == 0 && len(m.Documents) == 0 && len(m.Links) == 0
}

// ReactionDetail aggregates one reaction type on one entity. UserIDs may be
// empty even when Count is positive when the server only returned totals.
type ReactionDetail struct {
	Count   int      `json:"count"`
	UserIDs []string `json:"user_ids"`
}

// ReactionMap is the canonical in-memory representation of all reactions on
// an entity, keyed by reaction type name.
type ReactionMap map[string]ReactionDetail

// Clone returns a deep copy of the map.
func (rm ReactionMap) Clone() ReactionMap {
	if rm == nil {
		return nil
	}
	out := make(ReactionMap, len(rm))
	for reactionType, detail := range rm {
		userIDs := append([]string(nil), detail.UserIDs...)
		out[reactionType] = ReactionDetail{Count: detail.Count, UserIDs: userIDs}
	}
	return out
}

// Entity is the canonical post, comment, or reply record. Comments and
// replies use the same shape recursively; only posts carry child Comments.
type Entity struct {
	CanonicalID       string
	ServerID          string
	Author            Author
	Content           string
	Tags              []string
	Media             MediaSet
	Mentions          []Mention
	CreatedAt         time.Time
	UpdatedAt         time.Time
	Reactions         ReactionMap
	Comments          []Entity
	IsPinned          bool
	IsCommentsAllowed bool
	Lifecycle         LifecycleState
}

// Clone returns a deep copy suitable for rollback snapshots.
func (e Entity) Clone() Entity {
	out := e
	out.Tags = append([]string(nil), e.Tags...)
	out.Mentions = append([]Mention(nil), e.Mentions...)
	out.Media = MediaSet{
		Images:    append([]MediaItem(nil), e.Media.Images...),
		Videos:    append([]MediaItem(nil), e.Media.Videos...),
		Documents: append([]MediaItem(nil), e.Media.Documents...),
		Links:     append([]MediaItem(nil), e.Media.Links...),
	}
	out.Reactions = e.Reactions.Clone()
	if e.Comments != nil {
		out.Comments = make([]Entity, 0, len(e.Comments))
		for _, comment := range e.Comments {
			out.Comments = append(out.Comments, comment.Clone())
		}
	}
	return out
}

// RawAuthor is the union of author shapes observed across backend endpoints.
type RawAuthor struct {
	ID             string `json:"id"`
	UserID         string `json:"user_id"`
	Name           string `json:"name"`
	DisplayName    string `json:"display_name"`
	FullName       string `json:"full_name"`
	AvatarURL      string `json:"avatar_url"`
	ProfilePicture string `json:"profile_picture"`
	Title          string `json:"title"`
	Designation    string `json:"designation"`
}

// RawMediaItem is one media record as the backend emits it: either an
// unlabeled {link, type?} pair or an already-classified {url, name, kind}.
type RawMediaItem struct {
	Link string `json:"link"`
	URL  string `json:"url"`
	Name string `json:"name"`
	Type string `json:"type"`
	Kind string `json:"kind"`
}

// RawMention mirrors the mention records the backend attaches to content.
type RawMention struct {
	UserID   string `json:"user_id"`
	Username string `json:"username"`
}

// RawEntity is the union of post/comment/reply shapes observed across the
// backend's endpoints and versions. Normalize maps it to the canonical Entity.
type RawEntity struct {
	ID        string `json:"id"`
	CommentID string `json:"comment_id"`
	PostID    string `json:"post_id"`

	Content string `json:"content"`

	CreatedBy *RawAuthor `json:"created_by"`
	Author    *RawAuthor `json:"author"`
	User      *RawAuthor `json:"user"`
	IsOwn     bool       `json:"is_own"`

	Tags []string `json:"tags"`

	Media     []RawMediaItem `json:"media"`
	Images    []RawMediaItem `json:"images"`
	Videos    []RawMediaItem `json:"videos"`
	Documents []RawMediaItem `json:"documents"`
	Links     []RawMediaItem `json:"links"`

	Mentions []RawMention `json:"mentions"`

	CreatedAt string `json:"created_at"`
	UpdatedAt string `json:"updated_at"`

	ReactionCounts map[string]int  `json:"reaction_counts"`
	Reactions      json.RawMessage `json:"reactions"`

	Comments []RawEntity `json:"comments"`

	IsPinned          bool  `json:"is_pinned"`
	IsCommentsAllowed *bool `json:"is_comments_allowed"`
}

// derivedLocalID produces a deterministic local identifier for payloads that
// arrive without any identifier at all. Determinism keeps Normalize pure.
func derivedLocalID(raw RawEntity) string {
	digest := sha256.Sum256([]byte(raw.Content + "|" + raw.CreatedAt))
	return LocalIDPrefix + hex.EncodeToString(digest[:])[:12]
}

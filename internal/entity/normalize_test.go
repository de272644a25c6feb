package entity

import (
	"reflect"
	"testing"
	"time"
)

var testActingUser = Author{
	ID:          "user-self",
	DisplayName: "Self User",
	AvatarURL:   "https://cdn.example/self.png",
	Title:       "Engineer",
}

func TestNormalizeResolvesAuthorFromCreatedBy(t *testing.T) {
	raw := RawEntity{
		ID:      "post-1",
		Content: "hello",
		CreatedBy: &RawAuthor{
			UserID:         "user-9",
			FullName:       "Alice Doe",
			ProfilePicture: "https://cdn.example/alice.png",
			Designation:    "Designer",
		},
	}

	normalized := Normalize(raw, testActingUser)
	if normalized.Author.ID != "user-9" {
		t.Fatalf("expected author id user-9, got %q", normalized.Author.ID)
	}
	if normalized.Author.DisplayName != "Alice Doe" {
		t.Fatalf("expected display name from full_name, got %q", normalized.Author.DisplayName)
	}
	if normalized.Author.AvatarURL != "https://cdn.example/alice.png" {
		t.Fatalf("expected avatar from profile_picture, got %q", normalized.Author.AvatarURL)
	}
	if normalized.Author.Title != "Designer" {
		t.Fatalf("expected title from designation, got %q", normalized.Author.Title)
	}
}

func TestNormalizeAuthorFieldPriority(t *testing.T) {
	raw := RawEntity{
		ID:        "post-1",
		Content:   "hello",
		CreatedBy: &RawAuthor{ID: "primary", DisplayName: "Primary"},
		Author:    &RawAuthor{ID: "secondary", DisplayName: "Secondary"},
		User:      &RawAuthor{ID: "tertiary", DisplayName: "Tertiary"},
	}

	normalized := Normalize(raw, testActingUser)
	if normalized.Author.ID != "primary" {
		t.Fatalf("expected created_by to win, got %q", normalized.Author.ID)
	}
}

func TestNormalizeFallsBackToActingUserForOwnEntity(t *testing.T) {
	raw := RawEntity{ID: "post-1", Content: "mine", IsOwn: true}

	normalized := Normalize(raw, testActingUser)
	if normalized.Author != testActingUser {
		t.Fatalf("expected acting user fallback, got %#v", normalized.Author)
	}
}

func TestNormalizeDegradesToPlaceholderAuthor(t *testing.T) {
	raw := RawEntity{ID: "post-1", Content: "orphan"}

	normalized := Normalize(raw, testActingUser)
	if normalized.Author.DisplayName != placeholderDisplayName {
		t.Fatalf("expected placeholder author, got %#v", normalized.Author)
	}
}

func TestNormalizePrefersCommentIDOverGenericID(t *testing.T) {
	raw := RawEntity{ID: "render-key-1", CommentID: "comment-42", Content: "reply"}

	normalized := Normalize(raw, testActingUser)
	if normalized.CanonicalID != "comment-42" {
		t.Fatalf("expected comment_id as canonical id, got %q", normalized.CanonicalID)
	}
	if normalized.ServerID != "comment-42" {
		t.Fatalf("expected server id comment-42, got %q", normalized.ServerID)
	}
}

func TestNormalizeDerivesLocalIDWhenPayloadHasNone(t *testing.T) {
	raw := RawEntity{Content: "no id here", CreatedAt: "2026-01-02T03:04:05Z"}

	first := Normalize(raw, testActingUser)
	second := Normalize(raw, testActingUser)
	if first.CanonicalID == "" {
		t.Fatalf("expected a canonical id")
	}
	if !ID(first.CanonicalID).IsLocal() {
		t.Fatalf("expected derived id to carry the local prefix, got %q", first.CanonicalID)
	}
	if first.CanonicalID != second.CanonicalID {
		t.Fatalf("expected deterministic derived id, got %q and %q", first.CanonicalID, second.CanonicalID)
	}
	if first.ServerID != "" {
		t.Fatalf("expected no server id for local entity, got %q", first.ServerID)
	}
}

func TestNormalizeAggregateCountsScenario(t *testing.T) {
	raw := RawEntity{
		ID:             "post-1",
		Content:        "counts only",
		ReactionCounts: map[string]int{"like": 3, "love": 1},
	}

	normalized := Normalize(raw, testActingUser)
	expected := ReactionMap{
		"like": {Count: 3, UserIDs: []string{}},
		"love": {Count: 1, UserIDs: []string{}},
	}
	if !reflect.DeepEqual(normalized.Reactions, expected) {
		t.Fatalf("unexpected reaction map: %#v", normalized.Reactions)
	}
}

func TestNormalizeParsesTimestamps(t *testing.T) {
	raw := RawEntity{
		ID:        "post-1",
		Content:   "timed",
		CreatedAt: "2026-01-02T03:04:05Z",
		UpdatedAt: "2026-01-02 04:05:06",
	}

	normalized := Normalize(raw, testActingUser)
	if normalized.CreatedAt != time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC) {
		t.Fatalf("unexpected created at: %v", normalized.CreatedAt)
	}
	if normalized.UpdatedAt != time.Date(2026, 1, 2, 4, 5, 6, 0, time.UTC) {
		t.Fatalf("unexpected updated at: %v", normalized.UpdatedAt)
	}
}

func TestNormalizeUnparseableTimestampDegradesToZero(t *testing.T) {
	raw := RawEntity{ID: "post-1", Content: "bad time", CreatedAt: "yesterday-ish"}

	normalized := Normalize(raw, testActingUser)
	if !normalized.CreatedAt.IsZero() {
		t.Fatalf("expected zero time for unparseable timestamp, got %v", normalized.CreatedAt)
	}
}

func TestNormalizeDeduplicatesTagsAndMentions(t *testing.T) {
	raw := RawEntity{
		ID:      "post-1",
		Content: "tagged",
		Tags:    []string{"go", "go", " ", "wall"},
		Mentions: []RawMention{
			{UserID: "user-1", Username: "alice"},
			{UserID: "user-1", Username: "alice"},
			{UserID: "", Username: "ghost"},
		},
	}

	normalized := Normalize(raw, testActingUser)
	if !reflect.DeepEqual(normalized.Tags, []string{"go", "wall"}) {
		t.Fatalf("unexpected tags: %#v", normalized.Tags)
	}
	if len(normalized.Mentions) != 1 || normalized.Mentions[0].UserID != "user-1" {
		t.Fatalf("unexpected mentions: %#v", normalized.Mentions)
	}
}

func TestNormalizeRecursesIntoComments(t *testing.T) {
	raw := RawEntity{
		ID:      "post-1",
		Content: "parent",
		Comments: []RawEntity{
			{
				CommentID: "comment-1",
				Content:   "child",
				Comments: []RawEntity{
					{CommentID: "reply-1", Content: "grandchild"},
				},
			},
		},
	}

	normalized := Normalize(raw, testActingUser)
	if len(normalized.Comments) != 1 {
		t.Fatalf("expected one comment, got %d", len(normalized.Comments))
	}
	comment := normalized.Comments[0]
	if comment.CanonicalID != "comment-1" {
		t.Fatalf("unexpected comment id %q", comment.CanonicalID)
	}
	if len(comment.Comments) != 1 || comment.Comments[0].CanonicalID != "reply-1" {
		t.Fatalf("unexpected replies: %#v", comment.Comments)
	}
}

func TestNormalizeIsIdempotentThroughToRaw(t *testing.T) {
	payloads := []RawEntity{
		{
			ID:      "post-1",
			Content: "plain",
			CreatedBy: &RawAuthor{
				UserID:   "user-2",
				FullName: "Bob Roe",
			},
			CreatedAt:      "2026-03-04T05:06:07Z",
			ReactionCounts: map[string]int{"like": 2},
			Tags:           []string{"a", "b"},
			Media:          []RawMediaItem{{Link: "https://cdn.example/pic.png"}},
		},
		{
			CommentID: "comment-7",
			Content:   "tuple reactions",
			User:      &RawAuthor{ID: "user-3", Name: "Cara"},
			Reactions: []byte(`[{"reaction_type":"like","user_id":"u1"},{"reaction_type":"like","user_id":"u2"}]`),
			Comments: []RawEntity{
				{CommentID: "reply-9", Content: "nested"},
			},
		},
		{
			Content:   "no ids at all",
			CreatedAt: "2026-05-06T07:08:09Z",
		},
	}

	for _, raw := range payloads {
		once := Normalize(raw, testActingUser)
		twice := Normalize(ToRaw(once), testActingUser)
		if !reflect.DeepEqual(once, twice) {
			t.Fatalf("normalize not idempotent:\nonce:  %#v\ntwice: %#v", once, twice)
		}
	}
}

func TestNormalizeDefaultsCommentsAllowed(t *testing.T) {
	open := Normalize(RawEntity{ID: "p1", Content: "x"}, testActingUser)
	if !open.IsCommentsAllowed {
		t.Fatalf("expected comments allowed by default")
	}

	closed := false
	locked := Normalize(RawEntity{ID: "p2", Content: "y", IsCommentsAllowed: &closed}, testActingUser)
	if locked.IsCommentsAllowed {
		t.Fatalf("expected comments disallowed when flag is false")
	}
}

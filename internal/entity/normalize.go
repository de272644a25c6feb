package entity

import (
	"encoding/json"
	"strings"
	"time"
)

// placeholderDisplayName renders for payloads carrying no author data at all.
const placeholderDisplayName = "Unknown member"

var timestampLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// Normalize maps one server-shaped post/comment/reply payload into the
// canonical Entity. It is pure and idempotent: re-normalizing the raw form of
// an already-normalized entity yields the same entity. Payloads missing
// expected fields degrade to documented defaults instead of failing, so a
// partially unreadable record still renders.
func Normalize(raw RawEntity, actingUser Author) Entity {
	normalized := Entity{
		CanonicalID:       resolveCanonicalID(raw),
		ServerID:          resolveServerID(raw),
		Author:            resolveAuthor(raw, actingUser),
		Content:           raw.Content,
		Tags:              dedupeTags(raw.Tags),
		Media:             resolveMedia(raw),
		Mentions:          resolveMentions(raw.Mentions),
		CreatedAt:         parseTimestamp(raw.CreatedAt),
		UpdatedAt:         parseTimestamp(raw.UpdatedAt),
		Reactions:         NormalizeReactions(DecodeRawReactions(raw.ReactionCounts, raw.Reactions)),
		IsPinned:          raw.IsPinned,
		IsCommentsAllowed: true,
		Lifecycle:         LifecycleConfirmed,
	}
	if raw.IsCommentsAllowed != nil {
		normalized.IsCommentsAllowed = *raw.IsCommentsAllowed
	}
	if len(raw.Comments) > 0 {
		normalized.Comments = make([]Entity, 0, len(raw.Comments))
		for _, rawComment := range raw.Comments {
			normalized.Comments = append(normalized.Comments, Normalize(rawComment, actingUser))
		}
	}
	return normalized
}

// ToRaw renders a canonical entity back into the canonical wire shape. It is
// the inverse used when submitting drafts and when re-normalizing.
func ToRaw(normalized Entity) RawEntity {
	author := normalized.Author
	raw := RawEntity{
		ID:        normalized.CanonicalID,
		CommentID: normalized.ServerID,
		Content:   normalized.Content,
		Author: &RawAuthor{
			ID:          author.ID,
			DisplayName: author.DisplayName,
			AvatarURL:   author.AvatarURL,
			Title:       author.Title,
		},
		Tags:     append([]string(nil), normalized.Tags...),
		Mentions: rawMentions(normalized.Mentions),
		IsPinned: normalized.IsPinned,
	}
	allowed := normalized.IsCommentsAllowed
	raw.IsCommentsAllowed = &allowed
	if !normalized.CreatedAt.IsZero() {
		raw.CreatedAt = normalized.CreatedAt.UTC().Format(time.RFC3339Nano)
	}
	if !normalized.UpdatedAt.IsZero() {
		raw.UpdatedAt = normalized.UpdatedAt.UTC().Format(time.RFC3339Nano)
	}
	raw.Images = rawMediaItems(normalized.Media.Images)
	raw.Videos = rawMediaItems(normalized.Media.Videos)
	raw.Documents = rawMediaItems(normalized.Media.Documents)
	raw.Links = rawMediaItems(normalized.Media.Links)
	if len(normalized.Reactions) > 0 {
		// The canonical map is the only encoding that keeps user ids, so the
		// round trip through ToRaw loses nothing.
		if blob, err := json.Marshal(normalized.Reactions); err == nil {
			raw.Reactions = blob
		}
	}
	if len(normalized.Comments) > 0 {
		raw.Comments = make([]RawEntity, 0, len(normalized.Comments))
		for _, comment := range normalized.Comments {
			raw.Comments = append(raw.Comments, ToRaw(comment))
		}
	}
	return raw
}

// resolveCanonicalID prefers the semantic comment_id over the generic id
// because comment_id is the durable key the backend accepts for edit, delete,
// and react calls. A local id is derived when the payload carries none.
func resolveCanonicalID(raw RawEntity) string {
	if id := strings.TrimSpace(raw.CommentID); id != "" {
		return id
	}
	if id := strings.TrimSpace(raw.ID); id != "" {
		return id
	}
	if id := strings.TrimSpace(raw.PostID); id != "" {
		return id
	}
	return derivedLocalID(raw)
}

func resolveServerID(raw RawEntity) string {
	if id := strings.TrimSpace(raw.CommentID); id != "" {
		return id
	}
	id := strings.TrimSpace(raw.ID)
	if id == "" {
		id = strings.TrimSpace(raw.PostID)
	}
	if id == "" || strings.HasPrefix(id, LocalIDPrefix) {
		return ""
	}
	return id
}

// resolveAuthor checks the known author field paths in order, falls back to
// the acting user's own profile when the payload is flagged as self-authored,
// and degrades to a placeholder otherwise.
func resolveAuthor(raw RawEntity, actingUser Author) Author {
	for _, candidate := range []*RawAuthor{raw.CreatedBy, raw.Author, raw.User} {
		if candidate == nil {
			continue
		}
		resolved := Author{
			ID:          firstNonEmpty(candidate.ID, candidate.UserID),
			DisplayName: firstNonEmpty(candidate.DisplayName, candidate.Name, candidate.FullName),
			AvatarURL:   firstNonEmpty(candidate.AvatarURL, candidate.ProfilePicture),
			Title:       firstNonEmpty(candidate.Title, candidate.Designation),
		}
		if resolved.ID != "" || resolved.DisplayName != "" {
			if resolved.DisplayName == "" {
				resolved.DisplayName = placeholderDisplayName
			}
			return resolved
		}
	}
	if raw.IsOwn && actingUser.ID != "" {
		return actingUser
	}
	if actingUser.ID != "" && strings.TrimSpace(raw.CommentID) == "" && strings.TrimSpace(raw.ID) == "" {
		// A payload without any identifier is a locally drafted record, which
		// is always authored by the acting user.
		return actingUser
	}
	return Author{DisplayName: placeholderDisplayName}
}

func resolveMedia(raw RawEntity) MediaSet {
	split := MediaSet{
		Images:    canonicalMediaItems(raw.Images, MediaKindImage),
		Videos:    canonicalMediaItems(raw.Videos, MediaKindVideo),
		Documents: canonicalMediaItems(raw.Documents, MediaKindDocument),
		Links:     canonicalMediaItems(raw.Links, MediaKindLink),
	}
	if !split.IsEmpty() {
		// Already-split arrays are authoritative; the flat array duplicates
		// them on some endpoints and classifying it again would double media.
		return split
	}
	return classifyRawMedia(raw.Media)
}

func canonicalMediaItems(items []RawMediaItem, kind MediaKind) []MediaItem {
	var out []MediaItem
	for _, item := range items {
		mediaURL := firstNonEmpty(item.URL, item.Link)
		if strings.TrimSpace(mediaURL) == "" {
			continue
		}
		out = append(out, MediaItem{URL: mediaURL, Name: item.Name, Kind: kind})
	}
	return out
}

func rawMediaItems(items []MediaItem) []RawMediaItem {
	var out []RawMediaItem
	for _, item := range items {
		out = append(out, RawMediaItem{URL: item.URL, Name: item.Name, Kind: string(item.Kind)})
	}
	return out
}

func resolveMentions(raw []RawMention) []Mention {
	var out []Mention
	seen := make(map[string]struct{}, len(raw))
	for _, mention := range raw {
		userID := strings.TrimSpace(mention.UserID)
		if userID == "" {
			continue
		}
		if _, duplicate := seen[userID]; duplicate {
			continue
		}
		seen[userID] = struct{}{}
		out = append(out, Mention{UserID: userID, Username: mention.Username})
	}
	return out
}

func rawMentions(mentions []Mention) []RawMention {
	var out []RawMention
	for _, mention := range mentions {
		out = append(out, RawMention{UserID: mention.UserID, Username: mention.Username})
	}
	return out
}

func dedupeTags(tags []string) []string {
	var out []string
	seen := make(map[string]struct{}, len(tags))
	for _, tag := range tags {
		trimmed := strings.TrimSpace(tag)
		if trimmed == "" {
			continue
		}
		if _, duplicate := seen[trimmed]; duplicate {
			continue
		}
		seen[trimmed] = struct{}{}
		out = append(out, trimmed)
	}
	return out
}

func parseTimestamp(value string) time.Time {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return time.Time{}
	}
	for _, layout := range timestampLayouts {
		if parsed, err := time.Parse(layout, trimmed); err == nil {
			return parsed.UTC()
		}
	}
	return time.Time{}
}

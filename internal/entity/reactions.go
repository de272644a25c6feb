package entity

import (
	"encoding/json"
	"sort"
	"strings"
)

// ReactionTuple is the legacy per-user reaction record emitted by older
// backend endpoints.
type ReactionTuple struct {
	ReactionType string `json:"reaction_type"`
	UserID       string `json:"user_id"`
}

// RawReactions is the union of reaction encodings the backend emits for one
// entity. A payload may carry more than one encoding at once.
type RawReactions struct {
	// Counts is the aggregate {type: count} map. Newer endpoints emit this
	// and it is authoritative when present.
	Counts map[string]int
	// Tuples is the legacy flat array of per-user reaction records.
	Tuples []ReactionTuple
	// Canonical is a map already in the canonical shape.
	Canonical ReactionMap
}

// DecodeRawReactions sniffs the wire encoding of a reactions blob. The
// aggregate counts map travels in its own field; the blob itself is either
// the legacy tuple array or an already-canonical map.
func DecodeRawReactions(counts map[string]int, blob json.RawMessage) RawReactions {
	raw := RawReactions{Counts: counts}
	trimmed := strings.TrimSpace(string(blob))
	if trimmed == "" || trimmed == "null" {
		return raw
	}
	if strings.HasPrefix(trimmed, "[") {
		var tuples []ReactionTuple
		if err := json.Unmarshal(blob, &tuples); err == nil {
			raw.Tuples = tuples
		}
		return raw
	}
	var canonical ReactionMap
	if err := json.Unmarshal(blob, &canonical); err == nil {
		raw.Canonical = canonical
	}
	return raw
}

// NormalizeReactions converts any known reaction encoding into the canonical
// map. Encodings are tried in priority order: the aggregate counts map wins
// over the legacy tuple array, which wins over a pre-normalized map, because
// payloads carrying both an aggregate map and a legacy array have the fresher
// truth in the aggregate. Types whose count resolves to zero are dropped.
func NormalizeReactions(raw RawReactions) ReactionMap {
	if len(raw.Counts) > 0 {
		out := make(ReactionMap, len(raw.Counts))
		for reactionType, count := range raw.Counts {
			name := strings.TrimSpace(strings.ToLower(reactionType))
			if name == "" || count <= 0 {
				continue
			}
			out[name] = ReactionDetail{Count: count, UserIDs: []string{}}
		}
		return out
	}

	if len(raw.Tuples) > 0 {
		grouped := make(map[string]map[string]struct{})
		for _, tuple := range raw.Tuples {
			name := strings.TrimSpace(strings.ToLower(tuple.ReactionType))
			userID := strings.TrimSpace(tuple.UserID)
			if name == "" || userID == "" {
				continue
			}
			if grouped[name] == nil {
				grouped[name] = make(map[string]struct{})
			}
			grouped[name][userID] = struct{}{}
		}
		out := make(ReactionMap, len(grouped))
		for name, userSet := range grouped {
			userIDs := make([]string, 0, len(userSet))
			for userID := range userSet {
				userIDs = append(userIDs, userID)
			}
			sort.Strings(userIDs)
			out[name] = ReactionDetail{Count: len(userIDs), UserIDs: userIDs}
		}
		return out
	}

	if len(raw.Canonical) > 0 {
		out := make(ReactionMap, len(raw.Canonical))
		for reactionType, detail := range raw.Canonical {
			name := strings.TrimSpace(strings.ToLower(reactionType))
			count := detail.Count
			if count < len(detail.UserIDs) {
				count = len(detail.UserIDs)
			}
			if name == "" || count <= 0 {
				continue
			}
			userIDs := append([]string(nil), detail.UserIDs...)
			if userIDs == nil {
				userIDs = []string{}
			}
			sort.Strings(userIDs)
			out[name] = ReactionDetail{Count: count, UserIDs: userIDs}
		}
		return out
	}

	return ReactionMap{}
}

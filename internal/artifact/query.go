package artifact

import (
	"strconv"
	"strings"
)

// nullToken stands in for an absent optional identity field inside a Key.
const nullToken = "null"

// Query holds the logical parameters of one artifact request. Which fields
// matter depends on the kind; fields a kind does not use are ignored both
// for the request and for the cache key.
type Query struct {
	NovelID      int
	CharacterID  *int
	LocationID   *int
	ItemID       *int
	StartChapter *int
	EndChapter   *int
	// Depth of the relationship graph; values below 1 mean 1.
	Depth int
	// ForceRefresh bypasses the cache lookup. It is never part of the key.
	ForceRefresh bool
}

// Int returns a pointer to v, for filling optional Query fields.
func Int(v int) *int { return &v }

// Present reports whether an optional id is set. Non-positive ids count as
// absent, the same as nil.
func Present(id *int) bool { return id != nil && *id > 0 }

// EffectiveDepth returns the depth sent to the backend.
func (q Query) EffectiveDepth() int {
	if q.Depth < 1 {
		return 1
	}
	return q.Depth
}

// Key is the cache identity of a query: the kind plus the identity fields
// relevant to that kind, with absent optional fields written as "null".
type Key string

// KeyFor derives the cache key of q for kind.
func KeyFor(kind Kind, q Query) Key {
	parts := []string{string(kind), strconv.Itoa(q.NovelID)}
	switch kind {
	case KindRelationshipGraph:
		parts = append(parts, optional(q.CharacterID), strconv.Itoa(q.EffectiveDepth()))
	case KindTimeline:
		// Chapter bounds are plain integers, so zero is a real bound here.
		parts = append(parts, optional(q.CharacterID), bound(q.StartChapter), bound(q.EndChapter))
	case KindCharacterJourney:
		parts = append(parts, optional(q.CharacterID))
	case KindItemLineage:
		parts = append(parts, optional(q.ItemID))
	case KindLocationEvents:
		parts = append(parts, optional(q.LocationID))
	}
	return Key(strings.Join(parts, "/"))
}

func optional(id *int) string {
	if !Present(id) {
		return nullToken
	}
	return strconv.Itoa(*id)
}

func bound(ch *int) string {
	if ch == nil {
		return nullToken
	}
	return strconv.Itoa(*ch)
}

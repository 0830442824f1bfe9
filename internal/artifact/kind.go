package artifact

import "fmt"

// Kind identifies one derived view of a novel. It selects the cache
// partition, the gateway endpoint and the normalization rules.
type Kind string

const (
	KindRelationshipGraph Kind = "relationship-graph"
	KindTimeline          Kind = "timeline"
	KindCharacterJourney  Kind = "character-journey"
	KindItemLineage       Kind = "item-lineage"
	KindLocationEvents    Kind = "location-events"
)

var allKinds = []Kind{
	KindRelationshipGraph,
	KindTimeline,
	KindCharacterJourney,
	KindItemLineage,
	KindLocationEvents,
}

// Kinds returns every artifact kind in a stable order.
func Kinds() []Kind {
	out := make([]Kind, len(allKinds))
	copy(out, allKinds)
	return out
}

// ParseKind accepts the wire name of a kind (e.g. "character-journey").
func ParseKind(s string) (Kind, error) {
	for _, k := range allKinds {
		if string(k) == s {
			return k, nil
		}
	}
	return "", fmt.Errorf("unknown artifact kind %q", s)
}

func (k Kind) String() string { return string(k) }

// Valid reports whether k is one of the known kinds.
func (k Kind) Valid() bool {
	_, err := ParseKind(string(k))
	return err == nil
}

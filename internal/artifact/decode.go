package artifact

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
)

// New returns an empty artifact of the given kind.
func New(kind Kind) (Artifact, error) {
	switch kind {
	case KindRelationshipGraph:
		return &RelationshipGraph{}, nil
	case KindTimeline:
		return &Timeline{}, nil
	case KindCharacterJourney:
		return &CharacterJourney{}, nil
	case KindItemLineage:
		return &ItemLineage{}, nil
	case KindLocationEvents:
		return &LocationEvents{}, nil
	}
	return nil, fmt.Errorf("unknown artifact kind %q", kind)
}

// Decode turns a raw response body into a normalized artifact.
//
// The body must be a JSON object. If it carries a "data" member, that member
// is the payload. The payload is decoded into the kind's type and every
// absent sub-field is replaced with a typed empty value; the names of the
// synthesized fields are returned alongside the artifact.
func Decode(kind Kind, raw []byte) (Artifact, []string, error) {
	a, err := New(kind)
	if err != nil {
		return nil, nil, err
	}
	payload, err := unwrap(raw)
	if err != nil {
		return nil, nil, newMalformedError(kind, err)
	}
	if err := json.Unmarshal(payload, a); err != nil {
		return nil, nil, newMalformedError(kind, err)
	}
	return a, a.fillDefaults(), nil
}

var errNotObject = errors.New("payload is not a JSON object")

func unwrap(raw []byte) ([]byte, error) {
	var fields map[string]json.RawMessage
	if !isObject(raw) {
		return nil, errNotObject
	}
	if err := json.Unmarshal(raw, &fields); err != nil {
		return nil, err
	}
	data, ok := fields["data"]
	if !ok {
		return raw, nil
	}
	if !isObject(data) {
		return nil, fmt.Errorf("data envelope: %w", errNotObject)
	}
	return data, nil
}

func isObject(b []byte) bool {
	b = bytes.TrimSpace(b)
	return len(b) > 0 && b[0] == '{'
}

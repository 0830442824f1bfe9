package analysis

import (
	"context"

	"novellens/internal/artifact"
)

// RelationshipGraph fetches the character network of a novel.
func (s *Store) RelationshipGraph(ctx context.Context, q artifact.Query) (*artifact.RelationshipGraph, error) {
	return fetchAs[*artifact.RelationshipGraph](ctx, s, artifact.KindRelationshipGraph, q)
}

// Timeline fetches the event timeline of a novel.
func (s *Store) Timeline(ctx context.Context, q artifact.Query) (*artifact.Timeline, error) {
	return fetchAs[*artifact.Timeline](ctx, s, artifact.KindTimeline, q)
}

// CharacterJourney fetches the journey of q.CharacterID.
func (s *Store) CharacterJourney(ctx context.Context, q artifact.Query) (*artifact.CharacterJourney, error) {
	return fetchAs[*artifact.CharacterJourney](ctx, s, artifact.KindCharacterJourney, q)
}

// ItemLineage fetches the ownership history of q.ItemID.
func (s *Store) ItemLineage(ctx context.Context, q artifact.Query) (*artifact.ItemLineage, error) {
	return fetchAs[*artifact.ItemLineage](ctx, s, artifact.KindItemLineage, q)
}

// LocationEvents fetches the events at q.LocationID.
func (s *Store) LocationEvents(ctx context.Context, q artifact.Query) (*artifact.LocationEvents, error) {
	return fetchAs[*artifact.LocationEvents](ctx, s, artifact.KindLocationEvents, q)
}

func fetchAs[T artifact.Artifact](ctx context.Context, s *Store, kind artifact.Kind, q artifact.Query) (T, error) {
	var zero T
	a, err := s.Fetch(ctx, kind, q)
	if err != nil {
		return zero, err
	}
	return a.(T), nil
}

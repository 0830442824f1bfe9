package gateway

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"novellens/internal/artifact"
)

type relationshipGraphRequest struct {
	NovelID      int  `json:"novel_id"`
	CharacterID  *int `json:"character_id"`
	Depth        int  `json:"depth"`
	ForceRefresh bool `json:"force_refresh"`
}

type timelineRequest struct {
	NovelID      int  `json:"novel_id"`
	CharacterID  *int `json:"character_id,omitempty"`
	StartChapter *int `json:"start_chapter,omitempty"`
	EndChapter   *int `json:"end_chapter,omitempty"`
}

// noCacheHeader asks intermediaries not to serve a stored response.
var noCacheHeader = http.Header{
	"Cache-Control": {"no-cache, no-store, must-revalidate"},
	"Pragma":        {"no-cache"},
	"Expires":       {"0"},
}

// RelationshipGraph returns the character network of a novel.
// POST /analysis/relationship-graph
func (c *Client) RelationshipGraph(ctx context.Context, q artifact.Query) (json.RawMessage, error) {
	if q.NovelID <= 0 {
		return nil, fmt.Errorf("relationship graph: novel_id: %w", ErrMissingParam)
	}
	r := request{
		method:    http.MethodPost,
		path:      "/analysis/relationship-graph",
		operation: "relationship graph",
		body: relationshipGraphRequest{
			NovelID:      q.NovelID,
			CharacterID:  presentOrNil(q.CharacterID),
			Depth:        q.EffectiveDepth(),
			ForceRefresh: q.ForceRefresh,
		},
	}
	if q.ForceRefresh {
		r.header = noCacheHeader
	}
	return c.do(ctx, r)
}

// Timeline returns the events of a novel, optionally filtered by character
// and chapter range.
// POST /analysis/timeline
func (c *Client) Timeline(ctx context.Context, q artifact.Query) (json.RawMessage, error) {
	if q.NovelID <= 0 {
		return nil, fmt.Errorf("timeline: novel_id: %w", ErrMissingParam)
	}
	return c.do(ctx, request{
		method:    http.MethodPost,
		path:      "/analysis/timeline",
		operation: "timeline",
		body: timelineRequest{
			NovelID:      q.NovelID,
			CharacterID:  presentOrNil(q.CharacterID),
			StartChapter: q.StartChapter,
			EndChapter:   q.EndChapter,
		},
	})
}

// CharacterJourney returns the journey of one character.
// GET /analysis/character-journey/{novel_id}/{character_id}
func (c *Client) CharacterJourney(ctx context.Context, novelID int, characterID *int) (json.RawMessage, error) {
	path, err := pathFor("character journey", "character-journey", novelID, "character_id", characterID)
	if err != nil {
		return nil, err
	}
	return c.do(ctx, request{method: http.MethodGet, path: path, operation: "character journey"})
}

// ItemLineage returns the ownership history of an item.
// GET /analysis/item-lineage/{novel_id}/{item_id}
func (c *Client) ItemLineage(ctx context.Context, novelID int, itemID *int) (json.RawMessage, error) {
	path, err := pathFor("item lineage", "item-lineage", novelID, "item_id", itemID)
	if err != nil {
		return nil, err
	}
	return c.do(ctx, request{method: http.MethodGet, path: path, operation: "item lineage"})
}

// LocationEvents returns the events that took place at a location.
// GET /analysis/location-events/{novel_id}/{location_id}
func (c *Client) LocationEvents(ctx context.Context, novelID int, locationID *int) (json.RawMessage, error) {
	path, err := pathFor("location events", "location-events", novelID, "location_id", locationID)
	if err != nil {
		return nil, err
	}
	return c.do(ctx, request{method: http.MethodGet, path: path, operation: "location events"})
}

func pathFor(operation, route string, novelID int, idName string, id *int) (string, error) {
	if novelID <= 0 {
		return "", fmt.Errorf("%s: novel_id: %w", operation, ErrMissingParam)
	}
	if !artifact.Present(id) {
		return "", fmt.Errorf("%s: %s: %w", operation, idName, ErrMissingParam)
	}
	return fmt.Sprintf("/analysis/%s/%d/%d", route, novelID, *id), nil
}

func presentOrNil(id *int) *int {
	if !artifact.Present(id) {
		return nil
	}
	return id
}

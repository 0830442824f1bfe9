package gateway

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
)

// AskRequest is the body of POST /qa/ask.
type AskRequest struct {
	NovelID  int    `json:"novel_id"`
	Question string `json:"question"`
	UseRAG   bool   `json:"use_rag"`
}

// Answer is the backend's reply to a question.
type Answer struct {
	Answer     string   `json:"answer"`
	Sources    []Source `json:"sources"`
	Confidence float64  `json:"confidence"`
}

// Source is a passage the answer was grounded on.
type Source struct {
	ChapterID int     `json:"chapter_id,omitempty"`
	Title     string  `json:"title,omitempty"`
	Content   string  `json:"content,omitempty"`
	Score     float64 `json:"score,omitempty"`
}

// Ask sends a question about a novel.
// POST /qa/ask
func (c *Client) Ask(ctx context.Context, req AskRequest) (*Answer, error) {
	if req.NovelID <= 0 {
		return nil, fmt.Errorf("ask question: novel_id: %w", ErrMissingParam)
	}
	if req.Question == "" {
		return nil, fmt.Errorf("ask question: question: %w", ErrMissingParam)
	}
	raw, err := c.do(ctx, request{
		method:    http.MethodPost,
		path:      "/qa/ask",
		operation: "ask question",
		body:      req,
	})
	if err != nil {
		return nil, err
	}
	var ans Answer
	if err := json.Unmarshal(raw, &ans); err != nil {
		return nil, fmt.Errorf("ask question: decode response: %w", err)
	}
	if ans.Sources == nil {
		ans.Sources = []Source{}
	}
	return &ans, nil
}

// TextRequest is the body of POST /qa/extract-entities and
// POST /qa/analyze-text. A set NovelID makes the backend check that the
// novel exists first.
type TextRequest struct {
	Text    string `json:"text"`
	NovelID *int   `json:"novel_id,omitempty"`
}

// Entities are the named things found in a passage, grouped by type. Each
// entity carries at least "name" and "description".
type Entities struct {
	Persons   []map[string]any `json:"persons"`
	Locations []map[string]any `json:"locations"`
	Items     []map[string]any `json:"items"`
	Events    []map[string]any `json:"events"`
	Times     []map[string]any `json:"times"`
}

// TextAnalysis is the literary reading of a passage.
type TextAnalysis struct {
	Theme           *Theme           `json:"theme,omitempty"`
	Emotions        []string         `json:"emotions"`
	Conflicts       []Conflict       `json:"conflicts"`
	CharacterTraits []CharacterTrait `json:"character_traits"`
	Foreshadowing   []Foreshadowing  `json:"foreshadowing"`
}

type Theme struct {
	Main        string `json:"main"`
	Description string `json:"description,omitempty"`
}

type Conflict struct {
	Type        string `json:"type"`
	Description string `json:"description,omitempty"`
}

type CharacterTrait struct {
	Character string   `json:"character"`
	Traits    []string `json:"traits"`
}

type Foreshadowing struct {
	Description string  `json:"description"`
	Confidence  float64 `json:"confidence"`
}

// ExtractEntities finds the people, places, items, events and times named in
// a passage.
// POST /qa/extract-entities
func (c *Client) ExtractEntities(ctx context.Context, req TextRequest) (*Entities, error) {
	raw, err := c.postText(ctx, "/qa/extract-entities", "extract entities", req)
	if err != nil {
		return nil, err
	}
	var ents Entities
	if err := json.Unmarshal(raw, &ents); err != nil {
		return nil, fmt.Errorf("extract entities: decode response: %w", err)
	}
	ents.Persons = nonNilEntities(ents.Persons)
	ents.Locations = nonNilEntities(ents.Locations)
	ents.Items = nonNilEntities(ents.Items)
	ents.Events = nonNilEntities(ents.Events)
	ents.Times = nonNilEntities(ents.Times)
	return &ents, nil
}

// AnalyzeText asks for a literary reading of a passage. Lists the backend
// leaves out decode as empty, so an empty object yields an analysis with no
// theme and nothing in it.
// POST /qa/analyze-text
func (c *Client) AnalyzeText(ctx context.Context, req TextRequest) (*TextAnalysis, error) {
	raw, err := c.postText(ctx, "/qa/analyze-text", "analyze text", req)
	if err != nil {
		return nil, err
	}
	var ta TextAnalysis
	if err := json.Unmarshal(raw, &ta); err != nil {
		return nil, fmt.Errorf("analyze text: decode response: %w", err)
	}
	if ta.Emotions == nil {
		ta.Emotions = []string{}
	}
	if ta.Conflicts == nil {
		ta.Conflicts = []Conflict{}
	}
	if ta.CharacterTraits == nil {
		ta.CharacterTraits = []CharacterTrait{}
	}
	if ta.Foreshadowing == nil {
		ta.Foreshadowing = []Foreshadowing{}
	}
	return &ta, nil
}

func (c *Client) postText(ctx context.Context, path, operation string, req TextRequest) (json.RawMessage, error) {
	if req.Text == "" {
		return nil, fmt.Errorf("%s: text: %w", operation, ErrMissingParam)
	}
	return c.do(ctx, request{
		method:    http.MethodPost,
		path:      path,
		operation: operation,
		body:      req,
	})
}

func nonNilEntities(in []map[string]any) []map[string]any {
	if in == nil {
		return []map[string]any{}
	}
	return in
}

package gateway

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
)

// Novel is a novel known to the backend. The counts are only filled in by
// GetNovel. Timestamps are passed through as the backend formats them.
type Novel struct {
	ID              int    `json:"id"`
	Title           string `json:"title"`
	Author          string `json:"author"`
	Description     string `json:"description,omitempty"`
	CoverURL        string `json:"cover_url,omitempty"`
	CreatedAt       string `json:"created_at,omitempty"`
	UpdatedAt       string `json:"updated_at,omitempty"`
	ChaptersCount   int    `json:"chapters_count,omitempty"`
	CharactersCount int    `json:"characters_count,omitempty"`
}

// ListNovels returns a page of novels. A limit of 0 uses the backend
// default.
// GET /novels/?skip=&limit=
func (c *Client) ListNovels(ctx context.Context, skip, limit int) ([]Novel, error) {
	params := url.Values{}
	if skip > 0 {
		params.Set("skip", strconv.Itoa(skip))
	}
	if limit > 0 {
		params.Set("limit", strconv.Itoa(limit))
	}
	path := "/novels/"
	if len(params) > 0 {
		path += "?" + params.Encode()
	}
	raw, err := c.do(ctx, request{method: http.MethodGet, path: path, operation: "list novels"})
	if err != nil {
		return nil, err
	}
	var novels []Novel
	if err := json.Unmarshal(raw, &novels); err != nil {
		return nil, fmt.Errorf("list novels: decode response: %w", err)
	}
	if novels == nil {
		novels = []Novel{}
	}
	return novels, nil
}

// GetNovel returns one novel with its chapter and character counts.
// GET /novels/{novel_id}
func (c *Client) GetNovel(ctx context.Context, novelID int) (*Novel, error) {
	if novelID <= 0 {
		return nil, fmt.Errorf("get novel: novel_id: %w", ErrMissingParam)
	}
	raw, err := c.do(ctx, request{
		method:    http.MethodGet,
		path:      "/novels/" + strconv.Itoa(novelID),
		operation: "get novel",
	})
	if err != nil {
		return nil, err
	}
	var n Novel
	if err := json.Unmarshal(raw, &n); err != nil {
		return nil, fmt.Errorf("get novel: decode response: %w", err)
	}
	return &n, nil
}

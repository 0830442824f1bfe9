// Package mcp exposes the analysis store and the QA session as MCP tools.
package mcp

import (
	"context"
	"errors"
	"fmt"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"

	"novellens/internal/analysis"
	"novellens/internal/artifact"
	"novellens/internal/gateway"
	"novellens/internal/logging"
	"novellens/internal/qa"
)

// Server wraps the MCP SDK server around one analysis store and QA session.
type Server struct {
	MCPServer *sdkmcp.Server

	store   *analysis.Store
	qa      *qa.Session
	changes *ChangeLog
	stop    func()
}

// NewServer registers the analysis tools. Call Shutdown to detach the
// server from the store.
func NewServer(store *analysis.Store, session *qa.Session, version string) *Server {
	s := &Server{store: store, qa: session, changes: newChangeLog()}
	s.stop = store.OnChange(s.changes.Record)
	s.MCPServer = sdkmcp.NewServer(
		&sdkmcp.Implementation{Name: "novellens", Version: version},
		nil,
	)
	s.registerTools()
	return s
}

func (s *Server) registerTools() {
	sdkmcp.AddTool(s.MCPServer, &sdkmcp.Tool{
		Name:        "relationship_graph",
		Description: "Get the character relationship graph of a novel, optionally centered on one character. Results are cached per (novel, character, depth).",
	}, s.handleRelationshipGraph)

	sdkmcp.AddTool(s.MCPServer, &sdkmcp.Tool{
		Name:        "timeline",
		Description: "Get the event timeline of a novel, optionally filtered by character and chapter range.",
	}, s.handleTimeline)

	sdkmcp.AddTool(s.MCPServer, &sdkmcp.Tool{
		Name:        "character_journey",
		Description: "Get the stages, key events, emotions and relationships of one character.",
	}, s.handleCharacterJourney)

	sdkmcp.AddTool(s.MCPServer, &sdkmcp.Tool{
		Name:        "item_lineage",
		Description: "Get the ownership history of an item.",
	}, s.handleItemLineage)

	sdkmcp.AddTool(s.MCPServer, &sdkmcp.Tool{
		Name:        "location_events",
		Description: "Get the events that took place at a location and the characters seen there.",
	}, s.handleLocationEvents)

	sdkmcp.AddTool(s.MCPServer, &sdkmcp.Tool{
		Name:        "session_status",
		Description: "Report the loading and error state of every artifact kind, the cache size and the QA state.",
	}, s.handleSessionStatus)

	sdkmcp.AddTool(s.MCPServer, &sdkmcp.Tool{
		Name:        "reset_session",
		Description: "Clear current artifacts and errors. With purge=true the artifact cache, the QA history and the change log are dropped as well.",
	}, s.handleResetSession)

	sdkmcp.AddTool(s.MCPServer, &sdkmcp.Tool{
		Name:        "ask_question",
		Description: "Ask a free-text question about a novel. The question and answer are added to the session history.",
	}, s.handleAskQuestion)

	sdkmcp.AddTool(s.MCPServer, &sdkmcp.Tool{
		Name:        "extract_entities",
		Description: "Extract the people, places, items, events and times named in a passage. Not added to the session history.",
	}, s.handleExtractEntities)

	sdkmcp.AddTool(s.MCPServer, &sdkmcp.Tool{
		Name:        "analyze_text",
		Description: "Analyze the theme, emotions, conflicts, character traits and foreshadowing of a passage. Not added to the session history.",
	}, s.handleAnalyzeText)

	sdkmcp.AddTool(s.MCPServer, &sdkmcp.Tool{
		Name:        "get_changes",
		Description: "Read store state transitions recorded since a given index.",
	}, s.handleGetChanges)
}

// --- Tool input/output types ---

type graphInput struct {
	NovelID      int  `json:"novel_id" jsonschema:"novel id"`
	CharacterID  *int `json:"character_id,omitempty" jsonschema:"center character id; omit for the whole novel"`
	Depth        int  `json:"depth,omitempty" jsonschema:"neighborhood depth (default 1)"`
	ForceRefresh bool `json:"force_refresh,omitempty" jsonschema:"bypass the cache"`
}

type timelineInput struct {
	NovelID      int  `json:"novel_id" jsonschema:"novel id"`
	CharacterID  *int `json:"character_id,omitempty" jsonschema:"only events with this character"`
	StartChapter *int `json:"start_chapter,omitempty" jsonschema:"first chapter, inclusive"`
	EndChapter   *int `json:"end_chapter,omitempty" jsonschema:"last chapter, inclusive"`
	ForceRefresh bool `json:"force_refresh,omitempty" jsonschema:"bypass the cache"`
}

type journeyInput struct {
	NovelID      int  `json:"novel_id" jsonschema:"novel id"`
	CharacterID  int  `json:"character_id" jsonschema:"character id"`
	ForceRefresh bool `json:"force_refresh,omitempty" jsonschema:"bypass the cache"`
}

type lineageInput struct {
	NovelID      int  `json:"novel_id" jsonschema:"novel id"`
	ItemID       int  `json:"item_id" jsonschema:"item id"`
	ForceRefresh bool `json:"force_refresh,omitempty" jsonschema:"bypass the cache"`
}

type locationInput struct {
	NovelID      int  `json:"novel_id" jsonschema:"novel id"`
	LocationID   int  `json:"location_id" jsonschema:"location id"`
	ForceRefresh bool `json:"force_refresh,omitempty" jsonschema:"bypass the cache"`
}

type artifactOutput struct {
	Kind     string            `json:"kind"`
	Status   analysis.Status   `json:"status"`
	Artifact artifact.Artifact `json:"artifact"`
}

type sessionStatusInput struct{}

type sessionStatusOutput struct {
	Kinds        map[string]analysis.Status `json:"kinds"`
	CacheEntries int                        `json:"cache_entries"`
	QA           analysis.Status            `json:"qa"`
	QAHistory    int                        `json:"qa_history"`
}

type resetSessionInput struct {
	Purge bool `json:"purge,omitempty" jsonschema:"also drop cached artifacts"`
}

type resetSessionOutput struct {
	OK           string `json:"ok"`
	CacheEntries int    `json:"cache_entries"`
}

type askQuestionInput struct {
	NovelID  int    `json:"novel_id" jsonschema:"novel id"`
	Question string `json:"question" jsonschema:"free-text question"`
	UseRAG   *bool  `json:"use_rag,omitempty" jsonschema:"retrieve supporting passages (default true)"`
}

type askQuestionOutput struct {
	Answer     string           `json:"answer"`
	Sources    []gateway.Source `json:"sources"`
	Confidence float64          `json:"confidence"`
	History    int              `json:"history"`
}

type textInput struct {
	Text    string `json:"text" jsonschema:"passage to process"`
	NovelID *int   `json:"novel_id,omitempty" jsonschema:"novel the passage comes from; checked to exist when set"`
}

type getChangesInput struct {
	Since int `json:"since,omitempty" jsonschema:"return changes from this index onward (0-based)"`
}

type getChangesOutput struct {
	Changes []ChangeEntry `json:"changes"`
	Total   int           `json:"total"`
}

// --- Tool handlers ---

func (s *Server) handleRelationshipGraph(ctx context.Context, _ *sdkmcp.CallToolRequest, in graphInput) (*sdkmcp.CallToolResult, artifactOutput, error) {
	return s.fetch(ctx, artifact.KindRelationshipGraph, artifact.Query{
		NovelID:      in.NovelID,
		CharacterID:  in.CharacterID,
		Depth:        in.Depth,
		ForceRefresh: in.ForceRefresh,
	})
}

func (s *Server) handleTimeline(ctx context.Context, _ *sdkmcp.CallToolRequest, in timelineInput) (*sdkmcp.CallToolResult, artifactOutput, error) {
	return s.fetch(ctx, artifact.KindTimeline, artifact.Query{
		NovelID:      in.NovelID,
		CharacterID:  in.CharacterID,
		StartChapter: in.StartChapter,
		EndChapter:   in.EndChapter,
		ForceRefresh: in.ForceRefresh,
	})
}

func (s *Server) handleCharacterJourney(ctx context.Context, _ *sdkmcp.CallToolRequest, in journeyInput) (*sdkmcp.CallToolResult, artifactOutput, error) {
	return s.fetch(ctx, artifact.KindCharacterJourney, artifact.Query{
		NovelID:      in.NovelID,
		CharacterID:  artifact.Int(in.CharacterID),
		ForceRefresh: in.ForceRefresh,
	})
}

func (s *Server) handleItemLineage(ctx context.Context, _ *sdkmcp.CallToolRequest, in lineageInput) (*sdkmcp.CallToolResult, artifactOutput, error) {
	return s.fetch(ctx, artifact.KindItemLineage, artifact.Query{
		NovelID:      in.NovelID,
		ItemID:       artifact.Int(in.ItemID),
		ForceRefresh: in.ForceRefresh,
	})
}

func (s *Server) handleLocationEvents(ctx context.Context, _ *sdkmcp.CallToolRequest, in locationInput) (*sdkmcp.CallToolResult, artifactOutput, error) {
	return s.fetch(ctx, artifact.KindLocationEvents, artifact.Query{
		NovelID:      in.NovelID,
		LocationID:   artifact.Int(in.LocationID),
		ForceRefresh: in.ForceRefresh,
	})
}

func (s *Server) fetch(ctx context.Context, kind artifact.Kind, q artifact.Query) (*sdkmcp.CallToolResult, artifactOutput, error) {
	a, err := s.store.Fetch(ctx, kind, q)
	if err != nil {
		return nil, artifactOutput{}, toolError(kind.String(), err)
	}
	return nil, artifactOutput{Kind: kind.String(), Status: s.store.Status(kind), Artifact: a}, nil
}

// toolError turns a failure into the message an agent should see. Bad input
// and the caller's own cancellation keep their error text. Backend failures
// are reported with their user-facing message.
func toolError(op string, err error) error {
	// Checked first: a transport failure may wrap a context error, and it is
	// still a network failure.
	if gateway.IsNetwork(err) {
		return fmt.Errorf("%s: %s", op, analysis.UserMessage(err))
	}
	switch {
	case errors.Is(err, analysis.ErrInvalidQuery),
		errors.Is(err, gateway.ErrMissingParam),
		errors.Is(err, qa.ErrEmptyQuestion),
		errors.Is(err, qa.ErrEmptyText),
		errors.Is(err, context.Canceled),
		errors.Is(err, context.DeadlineExceeded):
		return fmt.Errorf("%s: %w", op, err)
	}
	return fmt.Errorf("%s: %s", op, analysis.UserMessage(err))
}

func (s *Server) handleSessionStatus(_ context.Context, _ *sdkmcp.CallToolRequest, _ sessionStatusInput) (*sdkmcp.CallToolResult, sessionStatusOutput, error) {
	snap := s.store.Snapshot()
	kinds := make(map[string]analysis.Status, len(snap))
	for k, st := range snap {
		kinds[k.String()] = st.Status
	}
	return nil, sessionStatusOutput{
		Kinds:        kinds,
		CacheEntries: s.store.CacheLen(),
		QA:           s.qa.Status(),
		QAHistory:    len(s.qa.History()),
	}, nil
}

func (s *Server) handleResetSession(_ context.Context, _ *sdkmcp.CallToolRequest, in resetSessionInput) (*sdkmcp.CallToolResult, resetSessionOutput, error) {
	if in.Purge {
		s.store.Purge()
		s.qa.Clear()
		s.changes.Reset()
	} else {
		s.store.ResetSession()
	}
	return nil, resetSessionOutput{OK: "session reset", CacheEntries: s.store.CacheLen()}, nil
}

func (s *Server) handleAskQuestion(ctx context.Context, _ *sdkmcp.CallToolRequest, in askQuestionInput) (*sdkmcp.CallToolResult, askQuestionOutput, error) {
	if in.NovelID <= 0 {
		return nil, askQuestionOutput{}, fmt.Errorf("ask_question: novel_id is required")
	}
	useRAG := true
	if in.UseRAG != nil {
		useRAG = *in.UseRAG
	}
	ans, err := s.qa.Ask(ctx, in.NovelID, in.Question, useRAG)
	if err != nil {
		return nil, askQuestionOutput{}, toolError("ask_question", err)
	}
	return nil, askQuestionOutput{
		Answer:     ans.Answer,
		Sources:    ans.Sources,
		Confidence: ans.Confidence,
		History:    len(s.qa.History()),
	}, nil
}

func (s *Server) handleExtractEntities(ctx context.Context, _ *sdkmcp.CallToolRequest, in textInput) (*sdkmcp.CallToolResult, gateway.Entities, error) {
	ents, err := s.qa.ExtractEntities(ctx, in.Text, in.NovelID)
	if err != nil {
		return nil, gateway.Entities{}, toolError("extract_entities", err)
	}
	return nil, *ents, nil
}

func (s *Server) handleAnalyzeText(ctx context.Context, _ *sdkmcp.CallToolRequest, in textInput) (*sdkmcp.CallToolResult, gateway.TextAnalysis, error) {
	ta, err := s.qa.AnalyzeText(ctx, in.Text, in.NovelID)
	if err != nil {
		return nil, gateway.TextAnalysis{}, toolError("analyze_text", err)
	}
	return nil, *ta, nil
}

func (s *Server) handleGetChanges(_ context.Context, _ *sdkmcp.CallToolRequest, in getChangesInput) (*sdkmcp.CallToolResult, getChangesOutput, error) {
	changes := s.changes.Since(in.Since)
	if changes == nil {
		changes = []ChangeEntry{}
	}
	return nil, getChangesOutput{Changes: changes, Total: s.changes.Len()}, nil
}

// Shutdown detaches the server from the store.
func (s *Server) Shutdown() {
	logging.New("mcp").Debug("detaching from store", "changes", s.changes.Len())
	s.stop()
}

// Package qa keeps the question-answering history of one session.
package qa

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"novellens/internal/analysis"
	"novellens/internal/gateway"
	"novellens/internal/logging"
)

var (
	// ErrEmptyQuestion is returned when Ask is given a blank question.
	ErrEmptyQuestion = errors.New("empty question")
	// ErrEmptyText is returned when a passage to extract from or analyze is
	// blank.
	ErrEmptyText = errors.New("empty text")
)

// RecordType tells a question, an answer and a failure apart.
type RecordType string

const (
	RecordQuestion RecordType = "question"
	RecordAnswer   RecordType = "answer"
	RecordError    RecordType = "error"
)

// Record is one entry of the history.
type Record struct {
	ID         string           `json:"id"`
	Type       RecordType       `json:"type"`
	Content    string           `json:"content"`
	Sources    []gateway.Source `json:"sources,omitempty"`
	Confidence float64          `json:"confidence,omitempty"`
	Timestamp  time.Time        `json:"timestamp"`
}

// Backend is the slice of the gateway a Session talks to. *gateway.Client
// implements it.
type Backend interface {
	Ask(ctx context.Context, req gateway.AskRequest) (*gateway.Answer, error)
	ExtractEntities(ctx context.Context, req gateway.TextRequest) (*gateway.Entities, error)
	AnalyzeText(ctx context.Context, req gateway.TextRequest) (*gateway.TextAnalysis, error)
}

// Session records questions and answers in order. Every operation shares
// one loading and error state. It is safe for concurrent use.
type Session struct {
	backend Backend
	logger  *slog.Logger
	now     func() time.Time

	mu       sync.Mutex
	history  []Record
	inflight int
	err      string
}

// NewSession returns a Session with an empty history.
func NewSession(backend Backend) *Session {
	return &Session{
		backend: backend,
		logger:  logging.New("qa"),
		now:     time.Now,
	}
}

// Ask records question, sends it and records the answer. On failure an error
// record carrying the user-facing message is appended and the error is
// returned.
func (s *Session) Ask(ctx context.Context, novelID int, question string, useRAG bool) (*gateway.Answer, error) {
	question = strings.TrimSpace(question)
	if question == "" {
		return nil, ErrEmptyQuestion
	}

	s.mu.Lock()
	s.inflight++
	s.err = ""
	s.appendLocked(Record{Type: RecordQuestion, Content: question})
	s.mu.Unlock()

	ans, err := s.backend.Ask(ctx, gateway.AskRequest{NovelID: novelID, Question: question, UseRAG: useRAG})

	s.mu.Lock()
	defer s.mu.Unlock()
	s.inflight--
	if err != nil {
		msg := analysis.UserMessage(err)
		s.err = msg
		s.appendLocked(Record{Type: RecordError, Content: msg})
		s.logger.WarnContext(ctx, "question failed", "novel_id", novelID, "error", err)
		return nil, fmt.Errorf("ask: %w", err)
	}
	s.appendLocked(Record{
		Type:       RecordAnswer,
		Content:    ans.Answer,
		Sources:    ans.Sources,
		Confidence: ans.Confidence,
	})
	s.logger.InfoContext(ctx, "question answered", "novel_id", novelID, "sources", len(ans.Sources))
	return ans, nil
}

// ExtractEntities finds the entities named in text. novelID may be nil; when
// set the backend first checks that the novel exists. Nothing is added to
// the history.
func (s *Session) ExtractEntities(ctx context.Context, text string, novelID *int) (*gateway.Entities, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, ErrEmptyText
	}
	s.begin()
	ents, err := s.backend.ExtractEntities(ctx, gateway.TextRequest{Text: text, NovelID: novelID})
	s.end(ctx, "entity extraction failed", err)
	if err != nil {
		return nil, fmt.Errorf("extract entities: %w", err)
	}
	return ents, nil
}

// AnalyzeText asks the backend for a literary reading of text. It follows
// the same rules as ExtractEntities.
func (s *Session) AnalyzeText(ctx context.Context, text string, novelID *int) (*gateway.TextAnalysis, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, ErrEmptyText
	}
	s.begin()
	ta, err := s.backend.AnalyzeText(ctx, gateway.TextRequest{Text: text, NovelID: novelID})
	s.end(ctx, "text analysis failed", err)
	if err != nil {
		return nil, fmt.Errorf("analyze text: %w", err)
	}
	return ta, nil
}

func (s *Session) begin() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.inflight++
	s.err = ""
}

// end settles a call started with begin, recording err when set.
func (s *Session) end(ctx context.Context, logMsg string, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.inflight--
	if err != nil {
		s.err = analysis.UserMessage(err)
		s.logger.WarnContext(ctx, logMsg, "error", err)
	}
}

func (s *Session) appendLocked(r Record) {
	r.ID = uuid.NewString()
	r.Timestamp = s.now().UTC()
	s.history = append(s.history, r)
}

// History returns a copy of the records in the order they were added.
func (s *Session) History() []Record {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Record, len(s.history))
	copy(out, s.history)
	return out
}

// Clear drops the history. The error status is kept.
func (s *Session) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.history = nil
}

// Status reports whether any operation is in flight and the last failure.
func (s *Session) Status() analysis.Status {
	s.mu.Lock()
	defer s.mu.Unlock()
	return analysis.Status{Loading: s.inflight > 0, Error: s.err}
}

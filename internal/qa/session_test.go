package qa

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"

	"novellens/internal/analysis"
	"novellens/internal/artifact"
	"novellens/internal/gateway"
)

type fakeBackend struct {
	ask     func(ctx context.Context, req gateway.AskRequest) (*gateway.Answer, error)
	extract func(ctx context.Context, req gateway.TextRequest) (*gateway.Entities, error)
	analyze func(ctx context.Context, req gateway.TextRequest) (*gateway.TextAnalysis, error)
}

func (f *fakeBackend) Ask(ctx context.Context, req gateway.AskRequest) (*gateway.Answer, error) {
	return f.ask(ctx, req)
}

func (f *fakeBackend) ExtractEntities(ctx context.Context, req gateway.TextRequest) (*gateway.Entities, error) {
	return f.extract(ctx, req)
}

func (f *fakeBackend) AnalyzeText(ctx context.Context, req gateway.TextRequest) (*gateway.TextAnalysis, error) {
	return f.analyze(ctx, req)
}

func askOnly(fn func(ctx context.Context, req gateway.AskRequest) (*gateway.Answer, error)) *fakeBackend {
	return &fakeBackend{ask: fn}
}

func fixedClock(s *Session) {
	t := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	s.now = func() time.Time { return t }
}

func TestAsk_RecordsQuestionAndAnswer(t *testing.T) {
	var got gateway.AskRequest
	s := NewSession(askOnly(func(_ context.Context, req gateway.AskRequest) (*gateway.Answer, error) {
		got = req
		return &gateway.Answer{
			Answer:     "She hides in the temple.",
			Sources:    []gateway.Source{{ChapterID: 4, Content: "the temple"}},
			Confidence: 0.8,
		}, nil
	}))
	fixedClock(s)

	ans, err := s.Ask(context.Background(), 3, "  Where does she hide?  ", true)
	if err != nil {
		t.Fatalf("Ask: %v", err)
	}
	if ans.Confidence != 0.8 {
		t.Errorf("confidence = %v", ans.Confidence)
	}
	if diff := cmp.Diff(gateway.AskRequest{NovelID: 3, Question: "Where does she hide?", UseRAG: true}, got); diff != "" {
		t.Errorf("request (-want +got):\n%s", diff)
	}

	ts := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	want := []Record{
		{Type: RecordQuestion, Content: "Where does she hide?", Timestamp: ts},
		{Type: RecordAnswer, Content: "She hides in the temple.", Sources: ans.Sources, Confidence: 0.8, Timestamp: ts},
	}
	hist := s.History()
	if diff := cmp.Diff(want, hist, cmpopts.IgnoreFields(Record{}, "ID")); diff != "" {
		t.Errorf("history (-want +got):\n%s", diff)
	}
	if hist[0].ID == "" || hist[0].ID == hist[1].ID {
		t.Errorf("record ids should be unique: %q %q", hist[0].ID, hist[1].ID)
	}
	if s.Status() != (analysis.Status{}) {
		t.Errorf("status = %+v", s.Status())
	}
}

func TestAsk_FailureAppendsErrorRecord(t *testing.T) {
	s := NewSession(askOnly(func(context.Context, gateway.AskRequest) (*gateway.Answer, error) {
		return nil, gateway.NewServerError("ask question", 500, "")
	}))

	_, err := s.Ask(context.Background(), 1, "Who is the heir?", false)
	if !gateway.HasStatusCode(err, 500) {
		t.Fatalf("expected 500 error, got: %v", err)
	}

	hist := s.History()
	if len(hist) != 2 {
		t.Fatalf("history length = %d, want 2", len(hist))
	}
	if hist[1].Type != RecordError || hist[1].Content != analysis.MsgInternal {
		t.Errorf("error record = %+v", hist[1])
	}
	if got := s.Status(); got != (analysis.Status{Error: analysis.MsgInternal}) {
		t.Errorf("status = %+v", got)
	}
}

func TestAsk_EmptyQuestion(t *testing.T) {
	s := NewSession(askOnly(func(context.Context, gateway.AskRequest) (*gateway.Answer, error) {
		t.Fatal("asker should not be called")
		return nil, nil
	}))
	if _, err := s.Ask(context.Background(), 1, "   ", true); !errors.Is(err, ErrEmptyQuestion) {
		t.Errorf("expected ErrEmptyQuestion, got: %v", err)
	}
	if len(s.History()) != 0 {
		t.Error("blank question should not be recorded")
	}
}

func TestClear(t *testing.T) {
	s := NewSession(askOnly(func(context.Context, gateway.AskRequest) (*gateway.Answer, error) {
		return &gateway.Answer{Answer: "yes", Sources: []gateway.Source{}}, nil
	}))
	s.Ask(context.Background(), 1, "Is it raining?", true)

	hist := s.History()
	hist[0].Content = "mutated"
	if s.History()[0].Content == "mutated" {
		t.Error("History should return a copy")
	}

	s.Clear()
	if len(s.History()) != 0 {
		t.Errorf("history after Clear = %v", s.History())
	}
}

func TestExtractEntities_TracksStatus(t *testing.T) {
	release := make(chan struct{})
	var got gateway.TextRequest
	s := NewSession(&fakeBackend{extract: func(_ context.Context, req gateway.TextRequest) (*gateway.Entities, error) {
		got = req
		<-release
		return &gateway.Entities{Persons: []map[string]any{{"name": "Wei"}}}, nil
	}})

	type result struct {
		ents *gateway.Entities
		err  error
	}
	done := make(chan result)
	go func() {
		ents, err := s.ExtractEntities(context.Background(), " Wei bowed. ", artifact.Int(2))
		done <- result{ents, err}
	}()

	deadline := time.After(2 * time.Second)
	for !s.Status().Loading {
		select {
		case <-deadline:
			t.Fatal("status never reported loading")
		case <-time.After(time.Millisecond):
		}
	}
	close(release)
	res := <-done
	if res.err != nil {
		t.Fatalf("ExtractEntities: %v", res.err)
	}
	if res.ents.Persons[0]["name"] != "Wei" {
		t.Errorf("persons = %v", res.ents.Persons)
	}
	if diff := cmp.Diff(gateway.TextRequest{Text: "Wei bowed.", NovelID: artifact.Int(2)}, got); diff != "" {
		t.Errorf("request (-want +got):\n%s", diff)
	}
	if s.Status() != (analysis.Status{}) {
		t.Errorf("status after success = %+v", s.Status())
	}
	if len(s.History()) != 0 {
		t.Error("entity extraction should not be recorded in history")
	}
}

func TestAnalyzeText_FailureSetsErrorAndReturnsIt(t *testing.T) {
	s := NewSession(&fakeBackend{analyze: func(context.Context, gateway.TextRequest) (*gateway.TextAnalysis, error) {
		return nil, gateway.NewServerError("analyze text", 404, "")
	}})

	_, err := s.AnalyzeText(context.Background(), "The seal cracked.", nil)
	if !gateway.IsNotFound(err) {
		t.Fatalf("expected not found, got: %v", err)
	}
	if got := s.Status(); got != (analysis.Status{Error: analysis.MsgNotFound}) {
		t.Errorf("status = %+v", got)
	}
}

func TestAnalyzeText_SuccessClearsPreviousError(t *testing.T) {
	fail := true
	s := NewSession(&fakeBackend{analyze: func(context.Context, gateway.TextRequest) (*gateway.TextAnalysis, error) {
		if fail {
			return nil, gateway.NewServerError("analyze text", 500, "")
		}
		return &gateway.TextAnalysis{Emotions: []string{"dread"}}, nil
	}})

	s.AnalyzeText(context.Background(), "x", nil)
	fail = false
	ta, err := s.AnalyzeText(context.Background(), "x", nil)
	if err != nil {
		t.Fatalf("AnalyzeText: %v", err)
	}
	if diff := cmp.Diff([]string{"dread"}, ta.Emotions); diff != "" {
		t.Errorf("emotions (-want +got):\n%s", diff)
	}
	if s.Status().Error != "" {
		t.Errorf("error should be cleared, got %q", s.Status().Error)
	}
}

func TestTextOperations_EmptyText(t *testing.T) {
	s := NewSession(&fakeBackend{})
	if _, err := s.ExtractEntities(context.Background(), "  ", nil); !errors.Is(err, ErrEmptyText) {
		t.Errorf("ExtractEntities: expected ErrEmptyText, got: %v", err)
	}
	if _, err := s.AnalyzeText(context.Background(), "", nil); !errors.Is(err, ErrEmptyText) {
		t.Errorf("AnalyzeText: expected ErrEmptyText, got: %v", err)
	}
	if s.Status() != (analysis.Status{}) {
		t.Errorf("status = %+v", s.Status())
	}
}

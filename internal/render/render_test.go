package render

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"novellens/internal/artifact"
	"novellens/internal/gateway"
)

func sampleGraph() *artifact.RelationshipGraph {
	return &artifact.RelationshipGraph{
		Nodes: []artifact.GraphNode{
			{ID: 1, Name: "Ayla", Alias: artifact.Aliases{"the Fox"}},
			{ID: 2, Name: "Bren"},
		},
		Edges: []artifact.GraphEdge{{Source: 1, Target: 2, Type: "sibling"}, {Source: 1, Target: 9, Type: "rival"}},
	}
}

func TestArtifact_GraphTable(t *testing.T) {
	var buf bytes.Buffer
	if err := Artifact(&buf, sampleGraph(), Table); err != nil {
		t.Fatalf("Artifact: %v", err)
	}
	out := buf.String()
	for _, want := range []string{"Ayla", "the Fox", "sibling", "Bren", "#9"} {
		if !strings.Contains(out, want) {
			t.Errorf("expected %q in output:\n%s", want, out)
		}
	}
	if !strings.Contains(out, "───") {
		t.Errorf("expected box-drawing characters in table output:\n%s", out)
	}
}

func TestArtifact_Markdown(t *testing.T) {
	tl := &artifact.Timeline{Events: []artifact.TimelineEvent{{
		Name:         "Coronation",
		ChapterID:    12,
		Participants: []artifact.Participant{{Name: "Ayla", Role: "heir"}},
		Location:     &artifact.Place{Name: "Capital"},
	}}}
	var buf bytes.Buffer
	if err := Artifact(&buf, tl, Markdown); err != nil {
		t.Fatalf("Artifact: %v", err)
	}
	out := buf.String()
	if !strings.Contains(strings.ToLower(out), "| chapter") {
		t.Errorf("expected markdown header in output:\n%s", out)
	}
	for _, want := range []string{"Coronation", "Ayla (heir)", "Capital"} {
		if !strings.Contains(out, want) {
			t.Errorf("expected %q in output:\n%s", want, out)
		}
	}
}

func TestArtifact_JSON(t *testing.T) {
	var buf bytes.Buffer
	if err := Artifact(&buf, sampleGraph(), JSON); err != nil {
		t.Fatalf("Artifact: %v", err)
	}
	var got artifact.RelationshipGraph
	if err := json.Unmarshal(buf.Bytes(), &got); err != nil {
		t.Fatalf("output is not JSON: %v\n%s", err, buf.String())
	}
	if diff := cmp.Diff(sampleGraph(), &got); diff != "" {
		t.Errorf("json (-want +got):\n%s", diff)
	}
}

func TestArtifact_EmptyJourneyAndLineage(t *testing.T) {
	for _, a := range []artifact.Artifact{
		&artifact.CharacterJourney{},
		&artifact.ItemLineage{OwnershipHistory: []artifact.Transfer{{ToCharacter: &artifact.Owner{Name: "Bren"}}}},
		&artifact.LocationEvents{Characters: []artifact.LocationCharacter{{Name: "Ayla", Count: 3}}},
	} {
		var buf bytes.Buffer
		if err := Artifact(&buf, a, Table); err != nil {
			t.Errorf("%s: %v", a.Kind(), err)
		}
		if buf.Len() == 0 {
			t.Errorf("%s: empty output", a.Kind())
		}
	}
}

func TestAnswer(t *testing.T) {
	ans := &gateway.Answer{
		Answer:     "In the tower.",
		Confidence: 0.75,
		Sources:    []gateway.Source{{ChapterID: 3, Title: "The Tower", Score: 0.9}},
	}
	var buf bytes.Buffer
	if err := Answer(&buf, ans, Table); err != nil {
		t.Fatalf("Answer: %v", err)
	}
	out := buf.String()
	for _, want := range []string{"In the tower.", "confidence: 0.75", "The Tower", "0.90"} {
		if !strings.Contains(out, want) {
			t.Errorf("expected %q in output:\n%s", want, out)
		}
	}
}

func TestParseFormat(t *testing.T) {
	for in, want := range map[string]Format{"json": JSON, "TABLE": Table, "markdown": Markdown} {
		got, err := ParseFormat(in)
		if err != nil || got != want {
			t.Errorf("ParseFormat(%q) = %q, %v", in, got, err)
		}
	}
	if _, err := ParseFormat("yaml"); err == nil {
		t.Error("expected error for yaml")
	}
}

func TestEntities(t *testing.T) {
	ents := &gateway.Entities{
		Persons:   []map[string]any{{"name": "Ayla", "description": "the heir"}},
		Locations: []map[string]any{{"name": "Temple"}},
	}
	var buf bytes.Buffer
	if err := Entities(&buf, ents, Table); err != nil {
		t.Fatalf("Entities: %v", err)
	}
	out := buf.String()
	for _, want := range []string{"Ayla", "the heir", "Temple"} {
		if !strings.Contains(out, want) {
			t.Errorf("expected %q in output:\n%s", want, out)
		}
	}

	buf.Reset()
	if err := Entities(&buf, &gateway.Entities{}, Markdown); err != nil {
		t.Fatalf("Entities: %v", err)
	}
	if !strings.Contains(buf.String(), "no entities found") {
		t.Errorf("empty output = %q", buf.String())
	}
}

func TestTextAnalysis(t *testing.T) {
	ta := &gateway.TextAnalysis{
		Theme:           &gateway.Theme{Main: "exile", Description: "a crown far from home"},
		Emotions:        []string{"longing", "dread"},
		CharacterTraits: []gateway.CharacterTrait{{Character: "Ayla", Traits: []string{"proud"}}},
		Foreshadowing:   []gateway.Foreshadowing{{Description: "the cracked seal", Confidence: 0.7}},
	}
	var buf bytes.Buffer
	if err := TextAnalysis(&buf, ta, Table); err != nil {
		t.Fatalf("TextAnalysis: %v", err)
	}
	out := buf.String()
	for _, want := range []string{"theme: exile", "emotions: longing, dread", "proud", "the cracked seal", "0.70"} {
		if !strings.Contains(out, want) {
			t.Errorf("expected %q in output:\n%s", want, out)
		}
	}
}

func TestNovels(t *testing.T) {
	var buf bytes.Buffer
	if err := Novels(&buf, []gateway.Novel{{ID: 3, Title: "The Heir", Author: "Lin"}}, Table); err != nil {
		t.Fatalf("Novels: %v", err)
	}
	for _, want := range []string{"3", "The Heir", "Lin"} {
		if !strings.Contains(buf.String(), want) {
			t.Errorf("expected %q in output:\n%s", want, buf.String())
		}
	}

	buf.Reset()
	if err := Novel(&buf, &gateway.Novel{ID: 3, Title: "The Heir", ChaptersCount: 40}, Markdown); err != nil {
		t.Fatalf("Novel: %v", err)
	}
	if !strings.Contains(buf.String(), "40") {
		t.Errorf("expected chapter count in output:\n%s", buf.String())
	}
}

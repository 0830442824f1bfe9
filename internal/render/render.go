// Package render writes artifacts and answers for the terminal.
package render

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"

	"novellens/internal/artifact"
	"novellens/internal/gateway"
)

// Format selects the output encoding.
type Format string

const (
	JSON     Format = "json"
	Table    Format = "table"
	Markdown Format = "markdown"
)

// ParseFormat converts a flag value to a Format.
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(s)); f {
	case JSON, Table, Markdown:
		return f, nil
	}
	return "", fmt.Errorf("unknown output format %q (want json, table or markdown)", s)
}

// descWidth caps free-text columns in tables.
const descWidth = 60

// Artifact writes a in format f.
func Artifact(w io.Writer, a artifact.Artifact, f Format) error {
	if f == JSON {
		return writeJSON(w, a)
	}
	var tables []*tableBuilder
	switch v := a.(type) {
	case *artifact.RelationshipGraph:
		tables = graphTables(v, f)
	case *artifact.Timeline:
		tables = timelineTables(v, f)
	case *artifact.CharacterJourney:
		tables = journeyTables(v, f)
	case *artifact.ItemLineage:
		tables = lineageTables(v, f)
	case *artifact.LocationEvents:
		tables = locationTables(v, f)
	default:
		return fmt.Errorf("render: unsupported artifact %T", a)
	}
	return writeTables(w, tables)
}

func writeTables(w io.Writer, tables []*tableBuilder) error {
	for i, t := range tables {
		if i > 0 {
			if _, err := io.WriteString(w, "\n"); err != nil {
				return err
			}
		}
		if _, err := fmt.Fprintln(w, t.String()); err != nil {
			return err
		}
	}
	return nil
}

// Answer writes a QA answer in format f.
func Answer(w io.Writer, ans *gateway.Answer, f Format) error {
	if f == JSON {
		return writeJSON(w, ans)
	}
	if _, err := fmt.Fprintf(w, "%s\n\nconfidence: %.2f\n", ans.Answer, ans.Confidence); err != nil {
		return err
	}
	if len(ans.Sources) == 0 {
		return nil
	}
	t := newTable(f, "Sources")
	t.header("Chapter", "Title", "Excerpt", "Score")
	t.columns(3, descWidth, 4)
	for _, s := range ans.Sources {
		t.row(s.ChapterID, s.Title, s.Content, strconv.FormatFloat(s.Score, 'f', 2, 64))
	}
	_, err := fmt.Fprintln(w, "\n"+t.String())
	return err
}

// Entities writes the entities found in a passage, one table per non-empty
// group.
func Entities(w io.Writer, ents *gateway.Entities, f Format) error {
	if f == JSON {
		return writeJSON(w, ents)
	}
	groups := []struct {
		title string
		list  []map[string]any
	}{
		{"Persons", ents.Persons},
		{"Locations", ents.Locations},
		{"Items", ents.Items},
		{"Events", ents.Events},
		{"Times", ents.Times},
	}
	var tables []*tableBuilder
	for _, g := range groups {
		if len(g.list) == 0 {
			continue
		}
		t := newTable(f, fmt.Sprintf("%s (%d)", g.title, len(g.list)))
		t.header("Name", "Description")
		t.columns(2, descWidth)
		for _, e := range g.list {
			t.row(entityField(e, "name"), entityField(e, "description"))
		}
		tables = append(tables, t)
	}
	if len(tables) == 0 {
		_, err := fmt.Fprintln(w, "no entities found")
		return err
	}
	return writeTables(w, tables)
}

func entityField(e map[string]any, key string) string {
	if v, ok := e[key]; ok && v != nil {
		return fmt.Sprint(v)
	}
	return ""
}

// TextAnalysis writes the reading of a passage in format f.
func TextAnalysis(w io.Writer, ta *gateway.TextAnalysis, f Format) error {
	if f == JSON {
		return writeJSON(w, ta)
	}
	if ta.Theme != nil {
		if _, err := fmt.Fprintf(w, "theme: %s\n", ta.Theme.Main); err != nil {
			return err
		}
		if ta.Theme.Description != "" {
			if _, err := fmt.Fprintln(w, ta.Theme.Description); err != nil {
				return err
			}
		}
	}
	if len(ta.Emotions) > 0 {
		if _, err := fmt.Fprintf(w, "emotions: %s\n", strings.Join(ta.Emotions, ", ")); err != nil {
			return err
		}
	}

	var tables []*tableBuilder
	if len(ta.Conflicts) > 0 {
		t := newTable(f, "Conflicts")
		t.header("Type", "Description")
		t.columns(2, descWidth)
		for _, c := range ta.Conflicts {
			t.row(c.Type, c.Description)
		}
		tables = append(tables, t)
	}
	if len(ta.CharacterTraits) > 0 {
		t := newTable(f, "Character traits")
		t.header("Character", "Traits")
		t.columns(2, descWidth)
		for _, c := range ta.CharacterTraits {
			t.row(c.Character, strings.Join(c.Traits, ", "))
		}
		tables = append(tables, t)
	}
	if len(ta.Foreshadowing) > 0 {
		t := newTable(f, "Foreshadowing")
		t.header("Description", "Confidence")
		t.columns(1, descWidth, 2)
		for _, fs := range ta.Foreshadowing {
			t.row(fs.Description, strconv.FormatFloat(fs.Confidence, 'f', 2, 64))
		}
		tables = append(tables, t)
	}
	if len(tables) == 0 {
		return nil
	}
	if _, err := io.WriteString(w, "\n"); err != nil {
		return err
	}
	return writeTables(w, tables)
}

// Novels writes a list of novels in format f.
func Novels(w io.Writer, novels []gateway.Novel, f Format) error {
	if f == JSON {
		return writeJSON(w, novels)
	}
	t := newTable(f, fmt.Sprintf("Novels (%d)", len(novels)))
	t.header("ID", "Title", "Author", "Description")
	t.columns(4, descWidth, 1)
	for _, n := range novels {
		t.row(n.ID, n.Title, n.Author, n.Description)
	}
	return writeTables(w, []*tableBuilder{t})
}

// Novel writes one novel with its counts in format f.
func Novel(w io.Writer, n *gateway.Novel, f Format) error {
	if f == JSON {
		return writeJSON(w, n)
	}
	t := newTable(f, n.Title)
	t.header("Field", "Value")
	t.columns(2, descWidth)
	t.row("ID", n.ID)
	t.row("Author", n.Author)
	t.row("Chapters", n.ChaptersCount)
	t.row("Characters", n.CharactersCount)
	if n.Description != "" {
		t.row("Description", n.Description)
	}
	return writeTables(w, []*tableBuilder{t})
}

// JSONValue writes any value as indented JSON.
func JSONValue(w io.Writer, v any) error {
	return writeJSON(w, v)
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func graphTables(g *artifact.RelationshipGraph, f Format) []*tableBuilder {
	names := make(map[int]string, len(g.Nodes))
	nodes := newTable(f, fmt.Sprintf("Characters (%d)", len(g.Nodes)))
	nodes.header("ID", "Name", "Aliases", "Description")
	nodes.columns(4, descWidth, 1)
	for _, n := range g.Nodes {
		names[n.ID] = n.Name
		nodes.row(n.ID, n.Name, strings.Join(n.Alias, ", "), n.Description)
	}

	edges := newTable(f, fmt.Sprintf("Relationships (%d)", len(g.Edges)))
	edges.header("Source", "Target", "Type", "Description")
	edges.columns(4, descWidth)
	for _, e := range g.Edges {
		edges.row(nodeLabel(names, e.Source), nodeLabel(names, e.Target), e.Type, e.Description)
	}
	return []*tableBuilder{nodes, edges}
}

func nodeLabel(names map[int]string, id int) string {
	if n, ok := names[id]; ok && n != "" {
		return n
	}
	return "#" + strconv.Itoa(id)
}

func timelineTables(tl *artifact.Timeline, f Format) []*tableBuilder {
	t := newTable(f, fmt.Sprintf("Timeline (%d events)", len(tl.Events)))
	t.header("Chapter", "Event", "When", "Where", "Participants", "Importance")
	t.columns(2, descWidth, 1, 6)
	for _, e := range tl.Events {
		where := ""
		if e.Location != nil {
			where = e.Location.Name
		}
		t.row(e.ChapterID, e.Name, e.TimeDescription, where, participantNames(e.Participants), e.Importance)
	}
	return []*tableBuilder{t}
}

func participantNames(ps []artifact.Participant) string {
	names := make([]string, 0, len(ps))
	for _, p := range ps {
		if p.Role != "" {
			names = append(names, p.Name+" ("+p.Role+")")
			continue
		}
		names = append(names, p.Name)
	}
	return strings.Join(names, ", ")
}

func journeyTables(j *artifact.CharacterJourney, f Format) []*tableBuilder {
	title := "Journey"
	if j.Character != nil {
		title = "Journey of " + j.Character.Name
	}
	stages := newTable(f, title)
	stages.header("Stage", "Chapters", "Key events", "Description")
	stages.columns(4, descWidth)
	for _, s := range j.Stages {
		stages.row(s.Title, fmt.Sprintf("%d-%d", s.StartChapter, s.EndChapter), len(s.KeyEvents), s.Description)
	}

	events := newTable(f, fmt.Sprintf("Key events (%d)", len(j.KeyEvents)))
	events.header("Chapter", "Event", "Importance", "Description")
	events.columns(4, descWidth, 1, 3)
	for _, e := range j.KeyEvents {
		events.row(e.ChapterID, e.Name, e.Importance, e.Description)
	}

	rels := newTable(f, fmt.Sprintf("Relationships (%d)", len(j.Relationships)))
	rels.header("Character", "Relation", "Direction", "Description")
	rels.columns(4, descWidth)
	for _, r := range j.Relationships {
		rels.row(r.Name, r.RelationType, r.Direction, r.Description)
	}

	out := []*tableBuilder{stages, events, rels}
	if len(j.Emotions) > 0 {
		emo := newTable(f, "Emotions")
		emo.header("Chapter", "Emotion", "Intensity", "Description")
		emo.columns(4, descWidth, 1, 3)
		for _, e := range j.Emotions {
			emo.row(e.ChapterID, e.Emotion, strconv.FormatFloat(e.Intensity, 'f', 2, 64), e.Description)
		}
		out = append(out, emo)
	}
	return out
}

func lineageTables(l *artifact.ItemLineage, f Format) []*tableBuilder {
	title := "Ownership history"
	if l.Item != nil {
		title += " of " + l.Item.Name
	}
	t := newTable(f, title)
	t.header("Chapter", "From", "To", "Description")
	t.columns(4, descWidth)
	for _, tr := range l.OwnershipHistory {
		chapter := ""
		if tr.Chapter != nil {
			chapter = tr.Chapter.Title
			if chapter == "" {
				chapter = strconv.Itoa(tr.Chapter.Number)
			}
		}
		t.row(chapter, ownerName(tr.FromCharacter), ownerName(tr.ToCharacter), tr.Description)
	}
	return []*tableBuilder{t}
}

func ownerName(o *artifact.Owner) string {
	if o == nil {
		return "-"
	}
	return o.Name
}

func locationTables(le *artifact.LocationEvents, f Format) []*tableBuilder {
	title := "Events"
	if le.Location != nil {
		title = "Events at " + le.Location.Name
	}
	events := newTable(f, title)
	events.header("Chapter", "Event", "When", "Participants", "Importance")
	events.columns(2, descWidth, 5)
	for _, e := range le.Events {
		chapter := ""
		if e.Chapter != nil {
			chapter = e.Chapter.Title
		}
		events.row(chapter, e.Name, e.TimeDescription, participantNames(e.Participants), e.Importance)
	}

	chars := newTable(f, fmt.Sprintf("Characters (%d)", len(le.Characters)))
	chars.header("Character", "Appearances")
	chars.columns(1, descWidth, 2)
	for _, c := range le.Characters {
		chars.row(c.Name, c.Count)
	}
	return []*tableBuilder{events, chars}
}

package artifact

import (
	"encoding/json"
	"fmt"
)

// Artifact is a normalized analysis result. The set of implementations is
// closed: every kind's type must provide its own fill-defaults pass.
type Artifact interface {
	Kind() Kind
	fillDefaults() []string
}

// Aliases is the alias list of a character. The backend stores it as JSON
// and has been seen to emit a bare string, a list, or null.
type Aliases []string

// UnmarshalJSON accepts a string, an array of strings, or null.
func (a *Aliases) UnmarshalJSON(data []byte) error {
	var list []string
	if err := json.Unmarshal(data, &list); err == nil {
		*a = list
		return nil
	}
	var single string
	if err := json.Unmarshal(data, &single); err != nil {
		return fmt.Errorf("unmarshal aliases: %w", err)
	}
	if single == "" {
		*a = nil
		return nil
	}
	*a = Aliases{single}
	return nil
}

// --- Relationship graph ---

// RelationshipGraph is the character network of a novel, optionally centered
// on one character and limited to a depth.
type RelationshipGraph struct {
	Nodes []GraphNode `json:"nodes"`
	Edges []GraphEdge `json:"edges"`
}

// GraphNode is one character in the graph.
type GraphNode struct {
	ID          int     `json:"id"`
	Name        string  `json:"name"`
	Description string  `json:"description"`
	Alias       Aliases `json:"alias,omitempty"`
}

// GraphEdge is a directed relationship between two nodes.
type GraphEdge struct {
	Source      int    `json:"source"`
	Target      int    `json:"target"`
	Type        string `json:"type"`
	Description string `json:"description"`
}

func (*RelationshipGraph) Kind() Kind { return KindRelationshipGraph }

func (g *RelationshipGraph) fillDefaults() []string {
	var filled []string
	fillSlice(&filled, "nodes", &g.Nodes)
	fillSlice(&filled, "edges", &g.Edges)
	return filled
}

// --- Timeline ---

// Timeline is the ordered event list of a novel.
type Timeline struct {
	Events []TimelineEvent `json:"events"`
}

// TimelineEvent is one event with its participants and location.
type TimelineEvent struct {
	ID              int           `json:"id"`
	NovelID         int           `json:"novel_id"`
	Name            string        `json:"name"`
	Description     string        `json:"description"`
	ChapterID       int           `json:"chapter_id"`
	LocationID      int           `json:"location_id,omitempty"`
	TimeDescription string        `json:"time_description"`
	Importance      int           `json:"importance"`
	Participants    []Participant `json:"participants"`
	Location        *Place        `json:"location,omitempty"`
}

// Participant is a character taking part in an event.
type Participant struct {
	CharacterID int    `json:"character_id,omitempty"`
	ID          int    `json:"id,omitempty"`
	Name        string `json:"name"`
	Role        string `json:"role"`
}

// Place is a location reference.
type Place struct {
	ID          int    `json:"id,omitempty"`
	LocationID  int    `json:"location_id,omitempty"`
	Name        string `json:"name"`
	Description string `json:"description"`
	ParentID    int    `json:"parent_id,omitempty"`
}

func (*Timeline) Kind() Kind { return KindTimeline }

func (t *Timeline) fillDefaults() []string {
	var filled []string
	fillSlice(&filled, "events", &t.Events)
	for i := range t.Events {
		fillSlice(nil, "", &t.Events[i].Participants)
	}
	return filled
}

// --- Character journey ---

// CharacterJourney follows one character through the novel. After decoding,
// all seven top-level fields are non-nil.
type CharacterJourney struct {
	Character     *JourneyCharacter     `json:"character"`
	Journey       *JourneyPath          `json:"journey"`
	Stats         *JourneyStats         `json:"stats"`
	Stages        []JourneyStage        `json:"stages"`
	KeyEvents     []JourneyEvent        `json:"key_events"`
	Emotions      []EmotionPoint        `json:"emotions"`
	Relationships []JourneyRelationship `json:"relationships"`
}

// JourneyCharacter describes the followed character.
type JourneyCharacter struct {
	ID              int     `json:"id"`
	Name            string  `json:"name"`
	Description     string  `json:"description"`
	Alias           Aliases `json:"alias"`
	FirstAppearance int     `json:"first_appearance"`
}

// JourneyPath is the backend's nested view of the journey.
type JourneyPath struct {
	Stages        []JourneyStage        `json:"stages"`
	Events        []JourneyEvent        `json:"events"`
	Relationships []JourneyRelationship `json:"relationships"`
}

// JourneyStats summarizes the journey.
type JourneyStats struct {
	TotalEvents        int    `json:"total_events"`
	TotalRelationships int    `json:"total_relationships"`
	FirstChapter       int    `json:"first_chapter"`
	LastChapter        int    `json:"last_chapter"`
	Summary            string `json:"summary"`
}

// JourneyStage groups consecutive events into a phase.
type JourneyStage struct {
	Title        string         `json:"title"`
	Description  string         `json:"description"`
	StartChapter int            `json:"start_chapter"`
	EndChapter   int            `json:"end_chapter"`
	KeyEvents    []JourneyEvent `json:"key_events"`
}

// JourneyEvent is an event the character participates in.
type JourneyEvent struct {
	EventID         int    `json:"event_id"`
	Name            string `json:"name"`
	Description     string `json:"description"`
	ChapterID       int    `json:"chapter_id"`
	Importance      int    `json:"importance"`
	TimeDescription string `json:"time_description,omitempty"`
}

// EmotionPoint is the character's emotional state at a chapter.
type EmotionPoint struct {
	ChapterID   int     `json:"chapter_id"`
	Emotion     string  `json:"emotion"`
	Intensity   float64 `json:"intensity"`
	Description string  `json:"description"`
}

// JourneyRelationship links the character to another one.
type JourneyRelationship struct {
	CharacterID  int    `json:"character_id"`
	Name         string `json:"name"`
	RelationType string `json:"relation_type"`
	Description  string `json:"description"`
	Direction    string `json:"direction"`
}

func (*CharacterJourney) Kind() Kind { return KindCharacterJourney }

func (j *CharacterJourney) fillDefaults() []string {
	var filled []string
	fillRecord(&filled, "character", &j.Character)
	fillRecord(&filled, "journey", &j.Journey)
	fillRecord(&filled, "stats", &j.Stats)
	fillSlice(&filled, "stages", &j.Stages)
	fillSlice(&filled, "key_events", &j.KeyEvents)
	fillSlice(&filled, "emotions", &j.Emotions)
	fillSlice(&filled, "relationships", &j.Relationships)

	fillSlice(&filled, "journey.stages", &j.Journey.Stages)
	fillSlice(&filled, "journey.events", &j.Journey.Events)
	fillSlice(&filled, "journey.relationships", &j.Journey.Relationships)
	for i := range j.Stages {
		fillSlice(nil, "", &j.Stages[i].KeyEvents)
	}
	for i := range j.Journey.Stages {
		fillSlice(nil, "", &j.Journey.Stages[i].KeyEvents)
	}
	return filled
}

// --- Item lineage ---

// ItemLineage is the ownership history of an item.
type ItemLineage struct {
	Item             *LineageItem `json:"item"`
	CurrentOwner     *Owner       `json:"current_owner"`
	OwnershipHistory []Transfer   `json:"ownership_history"`
}

// LineageItem describes the item.
type LineageItem struct {
	ID          int    `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
}

// Owner is a character holding the item. A nil CurrentOwner means nobody
// holds it.
type Owner struct {
	ID          int    `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
}

// ChapterRef points at a chapter.
type ChapterRef struct {
	ID     int    `json:"id"`
	Title  string `json:"title"`
	Number int    `json:"number"`
}

// Transfer is one change of ownership.
type Transfer struct {
	FromCharacter *Owner      `json:"from_character"`
	ToCharacter   *Owner      `json:"to_character"`
	Chapter       *ChapterRef `json:"chapter"`
	Description   string      `json:"description"`
}

func (*ItemLineage) Kind() Kind { return KindItemLineage }

func (l *ItemLineage) fillDefaults() []string {
	var filled []string
	fillRecord(&filled, "item", &l.Item)
	fillSlice(&filled, "ownership_history", &l.OwnershipHistory)
	return filled
}

// --- Location events ---

// LocationEvents lists what happened at a location and who was there.
type LocationEvents struct {
	Location   *Place              `json:"location"`
	Events     []LocationEvent     `json:"events"`
	Characters []LocationCharacter `json:"characters"`
}

// LocationEvent is an event that took place at the location.
type LocationEvent struct {
	ID              int           `json:"id"`
	Name            string        `json:"name"`
	Description     string        `json:"description"`
	Importance      int           `json:"importance"`
	TimeDescription string        `json:"time_description"`
	Chapter         *ChapterRef   `json:"chapter"`
	Participants    []Participant `json:"participants"`
}

// LocationCharacter counts a character's appearances at the location.
type LocationCharacter struct {
	ID    int    `json:"id"`
	Name  string `json:"name"`
	Count int    `json:"count"`
}

func (*LocationEvents) Kind() Kind { return KindLocationEvents }

func (e *LocationEvents) fillDefaults() []string {
	var filled []string
	fillRecord(&filled, "location", &e.Location)
	fillSlice(&filled, "events", &e.Events)
	fillSlice(&filled, "characters", &e.Characters)
	for i := range e.Events {
		fillSlice(nil, "", &e.Events[i].Participants)
	}
	return filled
}

// fillSlice replaces a nil slice with an empty one and records name in
// filled when filled is non-nil.
func fillSlice[T any](filled *[]string, name string, s *[]T) {
	if *s != nil {
		return
	}
	*s = []T{}
	if filled != nil {
		*filled = append(*filled, name)
	}
}

// fillRecord replaces a nil record with its zero value.
func fillRecord[T any](filled *[]string, name string, p **T) {
	if *p != nil {
		return
	}
	*p = new(T)
	if filled != nil {
		*filled = append(*filled, name)
	}
}

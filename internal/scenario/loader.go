// Package scenario loads game scenarios from YAML files and converts them
// into a ready-to-play world aggregate. Loading is forgiving where the
// scenario references facts it never defines (the dangling reference is
// logged and skipped) and strict where the world would be unplayable
// (missing start location, malformed values).
package scenario

import (
	"fmt"
	"log"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/whitlocke/intrigue/pkg/types"
)

// Scenario is the YAML document shape. Field names follow the file format,
// not the runtime types.
type Scenario struct {
	ID            string         `yaml:"id"`
	Name          string         `yaml:"name"`
	Description   string         `yaml:"description"`
	StartLocation string         `yaml:"start_location"`
	StartTime     string         `yaml:"start_time,omitempty"`
	PlayerID      string         `yaml:"player_id,omitempty"`
	Locations     []LocationDef  `yaml:"locations"`
	Characters    []CharacterDef `yaml:"characters"`
	Facts         []FactDef      `yaml:"facts"`
	Solution      *SolutionDef   `yaml:"solution,omitempty"`
}

// FactDef defines a statement characters can come to know.
type FactDef struct {
	ID       string `yaml:"id"`
	Content  string `yaml:"content"`
	IsSecret bool   `yaml:"is_secret,omitempty"`
}

// LocationDef describes one location and its interactive objects.
type LocationDef struct {
	ID          string         `yaml:"id"`
	Name        string         `yaml:"name"`
	Description string         `yaml:"description"`
	Connections []string       `yaml:"connections,omitempty"`
	Properties  map[string]any `yaml:"properties,omitempty"`
	Objects     []ObjectDef    `yaml:"objects,omitempty"`
}

// ObjectDef describes an interactive object carrying clues.
type ObjectDef struct {
	ID          string    `yaml:"id"`
	Name        string    `yaml:"name"`
	Description string    `yaml:"description"`
	Clues       []ClueDef `yaml:"clues,omitempty"`
}

// ClueDef ties a discoverable description to the fact it reveals.
type ClueDef struct {
	FactID      string  `yaml:"fact_id"`
	Description string  `yaml:"description"`
	Difficulty  float64 `yaml:"difficulty,omitempty"`
}

// CharacterDef describes a character, their starting knowledge, and their
// daily schedule.
type CharacterDef struct {
	ID               string             `yaml:"id"`
	Name             string             `yaml:"name"`
	Description      string             `yaml:"description"`
	InitialLocation  string             `yaml:"initial_location"`
	Goals            []string           `yaml:"goals,omitempty"`
	InitialKnowledge map[string]float64 `yaml:"initial_knowledge,omitempty"`
	Schedule         []ScheduleDef      `yaml:"schedule,omitempty"`
}

// ScheduleDef is one slot in a character's routine.
type ScheduleDef struct {
	Time       string `yaml:"time"`
	ActionType string `yaml:"action_type"`
	Target     string `yaml:"target,omitempty"`
	Message    string `yaml:"message,omitempty"`
}

// SolutionDef is the scenario's answer key.
type SolutionDef struct {
	KillerID        string   `yaml:"killer_id"`
	RequiredFactIDs []string `yaml:"required_fact_ids,omitempty"`
}

// defaultPlayerID is assumed when the scenario does not name one.
const defaultPlayerID = "player"

// Load reads, parses, and converts a scenario file into a playable world.
func Load(path string) (*types.World, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario %s: %w", path, err)
	}
	var sc Scenario
	if err := yaml.Unmarshal(data, &sc); err != nil {
		return nil, fmt.Errorf("failed to parse scenario %s: %w", path, err)
	}
	return sc.BuildWorld()
}

// BuildWorld converts the parsed scenario into a world aggregate. Clues and
// knowledge entries referencing undefined facts are skipped with a warning;
// structural problems return an error.
func (sc *Scenario) BuildWorld() (*types.World, error) {
	if sc.ID == "" {
		return nil, fmt.Errorf("scenario has no id")
	}
	if sc.StartLocation == "" {
		return nil, fmt.Errorf("scenario %q has no start_location", sc.ID)
	}

	facts := make(map[types.FactID]*types.Fact, len(sc.Facts))
	for _, f := range sc.Facts {
		facts[f.ID] = &types.Fact{ID: f.ID, Content: f.Content, IsSecret: f.IsSecret}
	}

	locations := make(map[types.LocationID]*types.Location, len(sc.Locations))
	for _, l := range sc.Locations {
		loc := &types.Location{
			ID:          l.ID,
			Name:        l.Name,
			Description: l.Description,
			Connections: append([]types.LocationID(nil), l.Connections...),
			Properties:  l.Properties,
		}
		for _, o := range l.Objects {
			obj := types.GameObject{ID: o.ID, Name: o.Name, Description: o.Description}
			for _, c := range o.Clues {
				if _, ok := facts[c.FactID]; !ok {
					log.Printf("WARNING: clue on object %q in %q references undefined fact %q, skipping", o.ID, l.ID, c.FactID)
					continue
				}
				if c.Difficulty < 0 || c.Difficulty > 1 {
					return nil, fmt.Errorf("clue on object %q in %q has difficulty %v outside [0,1]", o.ID, l.ID, c.Difficulty)
				}
				obj.Clues = append(obj.Clues, types.Clue{
					FactID:      c.FactID,
					Description: c.Description,
					Difficulty:  c.Difficulty,
				})
			}
			loc.Objects = append(loc.Objects, obj)
		}
		locations[l.ID] = loc
	}

	characters := make(map[types.CharacterID]*types.Character, len(sc.Characters))
	for _, c := range sc.Characters {
		ch := &types.Character{
			ID:          c.ID,
			Name:        c.Name,
			Description: c.Description,
			LocationID:  c.InitialLocation,
			Goals:       append([]string(nil), c.Goals...),
		}
		for factID, certainty := range c.InitialKnowledge {
			if _, ok := facts[factID]; !ok {
				log.Printf("WARNING: character %q starts knowing undefined fact %q, skipping", c.ID, factID)
				continue
			}
			if certainty < 0 || certainty > 1 {
				return nil, fmt.Errorf("character %q has certainty %v for fact %q outside [0,1]", c.ID, certainty, factID)
			}
			ch.Learn(factID, certainty)
		}
		for _, s := range c.Schedule {
			if _, err := types.ParseGameTime(s.Time); err != nil {
				return nil, fmt.Errorf("character %q has schedule entry with bad time: %w", c.ID, err)
			}
			ch.Schedule = append(ch.Schedule, types.ScheduleEntry{
				Time:       s.Time,
				ActionType: s.ActionType,
				Target:     s.Target,
				Message:    s.Message,
			})
		}
		characters[c.ID] = ch
	}

	playerID := sc.PlayerID
	if playerID == "" {
		playerID = defaultPlayerID
	}
	if player, ok := characters[playerID]; ok {
		// The scenario's start location wins over the character definition.
		player.LocationID = sc.StartLocation
	} else {
		log.Printf("WARNING: scenario %q defines no player character %q, creating a default detective", sc.ID, playerID)
		characters[playerID] = &types.Character{
			ID:          playerID,
			Name:        "Detective",
			Description: "You are a renowned detective.",
			LocationID:  sc.StartLocation,
			Goals:       []string{"Solve the mystery."},
		}
	}

	clock := types.DefaultStartTime
	if sc.StartTime != "" {
		parsed, err := types.ParseGameTime(sc.StartTime)
		if err != nil {
			return nil, fmt.Errorf("scenario %q has bad start_time: %w", sc.ID, err)
		}
		clock = parsed
	}

	world := &types.World{
		ID:         sc.ID,
		Name:       sc.Name,
		PlayerID:   playerID,
		Locations:  locations,
		Characters: characters,
		Facts:      facts,
		Clock:      clock,
	}
	if sc.Solution != nil {
		world.Solution = &types.Solution{
			KillerID:        sc.Solution.KillerID,
			RequiredFactIDs: append([]types.FactID(nil), sc.Solution.RequiredFactIDs...),
		}
	}

	if err := world.Validate(); err != nil {
		return nil, fmt.Errorf("scenario %q is inconsistent: %w", sc.ID, err)
	}
	return world, nil
}

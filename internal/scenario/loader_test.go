package scenario

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/whitlocke/intrigue/pkg/types"
)

const sampleScenario = `
id: manor
name: Blackwood Manor
description: A death in the family.
start_location: hall
start_time: "21:30"
locations:
  - id: hall
    name: Grand Hall
    description: Cold marble and colder stares.
    connections: [study]
  - id: study
    name: Study
    description: Smells of ash.
    connections: [hall]
    objects:
      - id: desk
        name: mahogany desk
        description: Locked drawers, recently forced.
        clues:
          - fact_id: fact1
            description: a half-burned letter
            difficulty: 0.3
          - fact_id: missing
            description: dangling clue
characters:
  - id: sophie
    name: Sophie
    description: The widow.
    initial_location: study
    goals: [protect the estate]
    initial_knowledge:
      fact1: 0.9
      missing: 1.0
    schedule:
      - time: "22:00"
        action_type: move
        target: hall
facts:
  - id: fact1
    content: the letter was burned at midnight
    is_secret: true
solution:
  killer_id: sophie
  required_fact_ids: [fact1]
`

func writeScenario(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "scenario.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoad_BuildsWorld(t *testing.T) {
	w, err := Load(writeScenario(t, sampleScenario))
	require.NoError(t, err)

	assert.Equal(t, "manor", w.ID)
	assert.Equal(t, "21:30", w.Clock.String())
	assert.Len(t, w.Locations, 2)
	assert.Len(t, w.Facts, 1)

	require.NotNil(t, w.Solution)
	assert.Equal(t, types.CharacterID("sophie"), w.Solution.KillerID)
}

func TestLoad_CreatesDefaultPlayer(t *testing.T) {
	w, err := Load(writeScenario(t, sampleScenario))
	require.NoError(t, err)

	player, ok := w.Characters["player"]
	require.True(t, ok, "an absent player definition gets a default detective")
	assert.Equal(t, types.LocationID("hall"), player.LocationID)
	assert.Equal(t, "Detective", player.Name)
}

func TestLoad_StartLocationOverridesPlayerDefinition(t *testing.T) {
	body := sampleScenario + `
player_id: sophie
`
	w, err := Load(writeScenario(t, body))
	require.NoError(t, err)
	assert.Equal(t, types.CharacterID("sophie"), w.PlayerID)
	assert.Equal(t, types.LocationID("hall"), w.Characters["sophie"].LocationID,
		"start_location wins over initial_location for the player")
}

func TestLoad_SkipsDanglingFactReferences(t *testing.T) {
	w, err := Load(writeScenario(t, sampleScenario))
	require.NoError(t, err)

	desk := w.Locations["study"].Object("desk")
	require.NotNil(t, desk)
	require.Len(t, desk.Clues, 1, "the clue for an undefined fact is dropped")
	assert.Equal(t, types.FactID("fact1"), desk.Clues[0].FactID)

	sophie := w.Characters["sophie"]
	assert.True(t, sophie.Knows("fact1"))
	assert.False(t, sophie.Knows("missing"))
	assert.InDelta(t, 0.9, sophie.Knowledge["fact1"].Certainty, 1e-9)
}

func TestLoad_DefaultStartTime(t *testing.T) {
	body := `
id: m
name: M
description: d
start_location: hall
locations:
  - id: hall
    name: Hall
    description: d
`
	w, err := Load(writeScenario(t, body))
	require.NoError(t, err)
	assert.Equal(t, types.DefaultStartTime, w.Clock)
}

func TestLoad_Failures(t *testing.T) {
	cases := []struct {
		name string
		body string
	}{
		{"missing file", ""},
		{"not yaml", "{{{"},
		{"no id", "name: x\nstart_location: hall"},
		{"no start location", "id: x\nname: x"},
		{"bad schedule time", `
id: m
name: M
description: d
start_location: hall
locations:
  - {id: hall, name: Hall, description: d}
characters:
  - id: npc
    name: N
    description: d
    initial_location: hall
    schedule:
      - {time: "25:99", action_type: move, target: hall}
`},
		{"certainty out of range", `
id: m
name: M
description: d
start_location: hall
locations:
  - {id: hall, name: Hall, description: d}
facts:
  - {id: f1, content: c}
characters:
  - id: npc
    name: N
    description: d
    initial_location: hall
    initial_knowledge: {f1: 1.5}
`},
		{"character in unknown location", `
id: m
name: M
description: d
start_location: hall
locations:
  - {id: hall, name: Hall, description: d}
characters:
  - {id: npc, name: N, description: d, initial_location: attic}
`},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			var err error
			if tc.name == "missing file" {
				_, err = Load(filepath.Join(t.TempDir(), "nope.yaml"))
			} else {
				_, err = Load(writeScenario(t, tc.body))
			}
			assert.Error(t, err)
		})
	}
}

// Command intrigue runs a scenario as an interactive terminal game. It loads
// the world from a YAML scenario file, wires the command handlers to the
// configured store and narrative service, and drives the turn loop: each
// successful player action advances the clock, runs NPC schedules, and saves
// the world.
package main

import (
	"bufio"
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/whitlocke/intrigue/internal/bus"
	"github.com/whitlocke/intrigue/internal/config"
	"github.com/whitlocke/intrigue/internal/feed"
	"github.com/whitlocke/intrigue/internal/game"
	"github.com/whitlocke/intrigue/internal/gamelog"
	"github.com/whitlocke/intrigue/internal/llm"
	"github.com/whitlocke/intrigue/internal/memory"
	"github.com/whitlocke/intrigue/internal/scenario"
	"github.com/whitlocke/intrigue/internal/store"
	"github.com/whitlocke/intrigue/internal/store/postgres"
	"github.com/whitlocke/intrigue/internal/store/sqlite"
	"github.com/whitlocke/intrigue/pkg/types"
)

func main() {
	// A missing .env file is fine; the environment may be set directly.
	_ = godotenv.Load()

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("ERROR: %v", err)
	}

	scenarioPath := "scenarios/harbor_mystery.yaml"
	if len(os.Args) > 1 {
		scenarioPath = os.Args[1]
	}

	if err := run(cfg, scenarioPath); err != nil {
		log.Fatalf("ERROR: %v", err)
	}
}

func run(cfg *config.Config, scenarioPath string) error {
	st, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer func() {
		if err := st.Close(); err != nil {
			log.Printf("WARNING: failed to close store: %v", err)
		}
	}()

	eventBus := bus.New()

	narrative, err := llm.NewService(llm.Config{
		Provider:          cfg.LLM.Provider,
		BaseURL:           cfg.LLM.BaseURL,
		APIKey:            cfg.LLM.APIKey,
		Model:             cfg.LLM.Model,
		RequestsPerSecond: cfg.LLM.RequestsPerSecond,
	})
	if err != nil {
		return err
	}
	narrative = llm.WithEventPublisher(narrative, eventBus)

	memSvc := memory.NewServiceWithLimits(st, narrative, cfg.Game.MemoryThreshold, cfg.Game.MemoryChunkSize)
	defer memSvc.Wait()

	world, err := scenario.Load(scenarioPath)
	if err != nil {
		return err
	}
	ctx := context.Background()
	if err := st.Save(ctx, world); err != nil {
		return err
	}
	fmt.Printf("World %q loaded from %s.\n", world.Name, scenarioPath)

	recorder, err := gamelog.NewRecorder("game.log", st, world.ID)
	if err != nil {
		return err
	}
	defer recorder.Close()
	recorder.SubscribeTo(eventBus)

	if cfg.Features.EnableEventFeed {
		hub := feed.NewHub(cfg.Security.FeedToken)
		hub.SubscribeTo(eventBus)
		go hub.Run()
		defer hub.Stop()

		addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
		srv := &http.Server{
			Addr:              addr,
			Handler:           hub,
			ReadHeaderTimeout: 10 * time.Second,
		}
		go func() {
			log.Printf("event feed listening on ws://%s", addr)
			if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				log.Printf("ERROR: event feed server: %v", err)
			}
		}()
		defer srv.Close()
	}

	moveHandler := game.NewMoveHandler(eventBus, memSvc)
	loop := &gameLoop{
		store:     st,
		worldID:   world.ID,
		playerID:  world.PlayerID,
		move:      moveHandler,
		talk:      game.NewTalkHandler(eventBus, memSvc, narrative),
		examine:   game.NewExamineHandler(eventBus, memSvc),
		endTalk:   game.NewEndDialogueHandler(eventBus, memSvc),
		accuse:    game.NewAccuseHandler(),
		scheduler: game.NewScheduler(moveHandler, cfg.Game.TickMinutes),
	}
	return loop.run(ctx)
}

func openStore(cfg *config.Config) (store.WorldStore, error) {
	switch cfg.Storage.Engine {
	case "memory":
		return store.NewMemoryStore(), nil
	case "sqlite":
		if err := os.MkdirAll(cfg.Storage.DataPath, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create data directory: %w", err)
		}
		return sqlite.NewWorldStore(filepath.Join(cfg.Storage.DataPath, "intrigue.db"))
	case "postgres":
		return postgres.NewWorldStore(cfg.Storage.PostgresDSN)
	default:
		return nil, fmt.Errorf("unknown storage engine %q", cfg.Storage.Engine)
	}
}

// gameLoop holds the per-run state of the terminal session.
type gameLoop struct {
	store     store.WorldStore
	worldID   string
	playerID  types.CharacterID
	move      *game.MoveHandler
	talk      *game.TalkHandler
	examine   *game.ExamineHandler
	endTalk   *game.EndDialogueHandler
	accuse    *game.AccuseHandler
	scheduler *game.Scheduler

	// The session the player is currently in, if any. A non-talk action
	// implicitly ends it.
	sessionID       string
	sessionListener types.CharacterID
}

func (g *gameLoop) run(ctx context.Context) error {
	fmt.Println("\nCommands: look | move <location> | talk <character> [message] | end | examine <object> | accuse <character> | quit")

	in := bufio.NewScanner(os.Stdin)
	for {
		world, err := g.store.Get(ctx, g.worldID)
		if err != nil {
			return err
		}
		g.describe(world)

		fmt.Print("> ")
		if !in.Scan() {
			return in.Err()
		}
		line := strings.TrimSpace(in.Text())
		if line == "" {
			continue
		}
		parts := strings.Fields(line)
		verb := strings.ToLower(parts[0])

		if verb == "quit" {
			fmt.Println("Goodbye!")
			return nil
		}
		if verb == "look" {
			continue
		}

		acted, gameOver, err := g.dispatch(ctx, verb, parts[1:], world)
		if err != nil {
			fmt.Printf("You can't do that: %v\n", err)
			continue
		}
		if gameOver {
			return nil
		}
		if !acted {
			continue
		}

		g.scheduler.AdvanceClock(world)
		g.scheduler.RunScheduledBehaviors(ctx, world)
		if err := g.store.Save(ctx, world); err != nil {
			return err
		}
	}
}

// dispatch executes one player command against the in-hand world. It
// reports whether the world changed (and should be ticked and saved) and
// whether the game is over.
func (g *gameLoop) dispatch(ctx context.Context, verb string, args []string, world *types.World) (acted, gameOver bool, err error) {
	switch verb {
	case "move":
		if len(args) == 0 {
			fmt.Println("Move where? 'move <location>'")
			return false, false, nil
		}
		target := g.findLocation(world, strings.Join(args, " "))
		if target == "" {
			fmt.Printf("Location %q not found.\n", strings.Join(args, " "))
			return false, false, nil
		}
		if err := g.endActiveSession(ctx, world); err != nil {
			return false, false, err
		}
		err := g.move.Execute(ctx, game.MoveCharacterCommand{
			WorldID: world.ID, CharacterID: g.playerID, TargetLocationID: target,
		}, world)
		if err != nil {
			return false, false, err
		}
		fmt.Printf("You move to the %s.\n", world.Locations[target].Name)
		return true, false, nil

	case "talk":
		if len(args) == 0 {
			fmt.Println("Talk to who? 'talk <character> [message]'")
			return false, false, nil
		}
		listener := g.findCharacterAt(world, world.Characters[g.playerID].LocationID, args[0])
		if listener == "" {
			fmt.Printf("Character %q is not here.\n", args[0])
			return false, false, nil
		}
		if g.sessionID != "" && g.sessionListener != listener {
			// Switching interlocutors closes the old conversation first.
			if err := g.endActiveSession(ctx, world); err != nil {
				return false, false, err
			}
		}
		message := strings.Join(args[1:], " ")
		res, err := g.talk.Execute(ctx, game.TalkToCharacterCommand{
			WorldID: world.ID, SpeakerID: g.playerID, ListenerID: listener,
			Message: message, SessionID: g.sessionID,
		}, world)
		if err != nil {
			return false, false, err
		}
		g.sessionID = res.SessionID
		g.sessionListener = listener
		if res.Text != "" {
			fmt.Printf("%s: %q\n", world.Characters[listener].Name, res.Text)
		} else {
			fmt.Printf("%s turns to you, waiting.\n", world.Characters[listener].Name)
		}
		for _, id := range res.RevealedFactIDs {
			if f, ok := world.Facts[id]; ok {
				fmt.Printf("  * You learned: %s\n", f.Content)
			}
		}
		return true, false, nil

	case "end":
		if g.sessionID == "" {
			fmt.Println("You are not talking to anyone.")
			return false, false, nil
		}
		if err := g.endActiveSession(ctx, world); err != nil {
			return false, false, err
		}
		fmt.Println("You end the conversation.")
		return true, false, nil

	case "examine":
		if len(args) == 0 {
			fmt.Println("Examine what? 'examine <object>'")
			return false, false, nil
		}
		player := world.Characters[g.playerID]
		object := g.findObject(world, player.LocationID, strings.Join(args, " "))
		if object == "" {
			fmt.Printf("There is no %q here.\n", strings.Join(args, " "))
			return false, false, nil
		}
		if err := g.endActiveSession(ctx, world); err != nil {
			return false, false, err
		}
		clues, err := g.examine.Execute(ctx, game.ExamineObjectCommand{
			WorldID: world.ID, PlayerID: g.playerID, ObjectID: object, LocationID: player.LocationID,
		}, world)
		if err != nil {
			return false, false, err
		}
		if len(clues) == 0 {
			fmt.Println("You examine it carefully, but find nothing new.")
		}
		for _, c := range clues {
			fmt.Printf("  * You discover %s.\n", c.Description)
		}
		return true, false, nil

	case "accuse":
		if len(args) == 0 {
			fmt.Println("Accuse who? 'accuse <character>'")
			return false, false, nil
		}
		accused := g.findCharacter(world, strings.Join(args, " "))
		if accused == "" {
			fmt.Printf("Character %q not found.\n", strings.Join(args, " "))
			return false, false, nil
		}
		res, err := g.accuse.Execute(ctx, game.AccuseCharacterCommand{
			WorldID: world.ID, PlayerID: g.playerID, AccusedCharacterID: accused,
		}, world)
		if err != nil {
			return false, false, err
		}
		if !res.GameOver {
			fmt.Println(res.Message)
			return false, false, nil
		}
		fmt.Println("\n********** The End **********")
		fmt.Println(res.Message)
		fmt.Println("*****************************")
		return false, true, nil

	default:
		fmt.Printf("Unknown command %q.\n", verb)
		return false, false, nil
	}
}

func (g *gameLoop) endActiveSession(ctx context.Context, world *types.World) error {
	if g.sessionID == "" {
		return nil
	}
	err := g.endTalk.Execute(ctx, game.EndDialogueCommand{WorldID: world.ID, SessionID: g.sessionID}, world)
	if err != nil {
		return err
	}
	g.sessionID = ""
	g.sessionListener = ""
	return nil
}

func (g *gameLoop) describe(world *types.World) {
	player := world.Characters[g.playerID]
	location := world.Locations[player.LocationID]

	fmt.Println("\n" + strings.Repeat("=", 40))
	fmt.Printf("Game Time: %s\n", world.Clock)
	fmt.Printf("You are in the %s.\n", location.Name)
	fmt.Println(location.Description)

	if len(location.Objects) > 0 {
		names := make([]string, len(location.Objects))
		for i, o := range location.Objects {
			names[i] = o.Name
		}
		fmt.Printf("You see the following objects: %s\n", strings.Join(names, ", "))
	}
	if others := world.CharactersAt(location.ID, g.playerID); len(others) > 0 {
		names := make([]string, len(others))
		for i, c := range others {
			names[i] = c.Name
		}
		fmt.Printf("You see: %s\n", strings.Join(names, ", "))
	}
	if len(location.Connections) > 0 {
		fmt.Printf("Exits: %s\n", strings.Join(location.Connections, ", "))
	}
}

func (g *gameLoop) findLocation(world *types.World, name string) types.LocationID {
	name = strings.ToLower(name)
	for id, l := range world.Locations {
		if strings.ToLower(l.Name) == name || strings.ToLower(id) == name {
			return id
		}
	}
	return ""
}

func (g *gameLoop) findCharacter(world *types.World, name string) types.CharacterID {
	name = strings.ToLower(name)
	for id, c := range world.Characters {
		if strings.ToLower(c.Name) == name || strings.ToLower(id) == name {
			return id
		}
	}
	return ""
}

func (g *gameLoop) findCharacterAt(world *types.World, at types.LocationID, name string) types.CharacterID {
	id := g.findCharacter(world, name)
	if id == "" || id == g.playerID {
		return ""
	}
	if world.Characters[id].LocationID != at {
		return ""
	}
	return id
}

func (g *gameLoop) findObject(world *types.World, at types.LocationID, name string) string {
	location, ok := world.Locations[at]
	if !ok {
		return ""
	}
	name = strings.ToLower(name)
	for _, o := range location.Objects {
		if strings.ToLower(o.Name) == name || strings.ToLower(o.ID) == name {
			return o.ID
		}
	}
	return ""
}

// Package memory keeps characters' episodic memory bounded. When a
// character's narrative log grows past a threshold, the service schedules a
// detached background task that summarizes the oldest entries into a single
// line. The triggering command is never blocked and never sees a compaction
// failure.
//
// The background task re-reads the world from the store right before writing
// back, rather than using the snapshot captured at scheduling time. That
// narrows the race with the foreground command that is still mutating its
// own copy, but does not eliminate it: under the store's last-write-wins
// policy a foreground save landing between the task's read and its save is
// overwritten. This is the documented behavior, not a bug to fix here;
// stronger consistency would need aggregate versioning at the store.
package memory

import (
	"context"
	"fmt"
	"log"
	"strings"
	"sync"

	"github.com/whitlocke/intrigue/internal/store"
	"github.com/whitlocke/intrigue/pkg/types"
)

// Defaults for the compaction trigger. A threshold of 15 with a chunk of 10
// means a 16-entry memory collapses to 7 entries (1 summary + 6 kept).
const (
	DefaultThreshold = 15
	DefaultChunkSize = 10
)

// Summarizer is the slice of the narrative service this package needs.
type Summarizer interface {
	Summarize(ctx context.Context, text string) (string, error)
}

// Service owns memory compaction and session fold-in for characters.
type Service struct {
	store      store.WorldStore
	summarizer Summarizer
	threshold  int
	chunkSize  int

	tasks sync.WaitGroup

	mu               sync.Mutex
	onCompactionDone func(worldID string, characterID types.CharacterID)
}

// NewService creates a compaction service with the default threshold and
// chunk size.
func NewService(st store.WorldStore, summarizer Summarizer) *Service {
	return NewServiceWithLimits(st, summarizer, DefaultThreshold, DefaultChunkSize)
}

// NewServiceWithLimits creates a compaction service with explicit limits.
func NewServiceWithLimits(st store.WorldStore, summarizer Summarizer, threshold, chunkSize int) *Service {
	if threshold <= 0 {
		threshold = DefaultThreshold
	}
	if chunkSize <= 0 {
		chunkSize = DefaultChunkSize
	}
	return &Service{
		store:      st,
		summarizer: summarizer,
		threshold:  threshold,
		chunkSize:  chunkSize,
	}
}

// SetOnCompactionDone registers a callback fired after a background
// compaction writes back (or gives up). Useful for tests and UI refreshes.
func (s *Service) SetOnCompactionDone(fn func(worldID string, characterID types.CharacterID)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.onCompactionDone = fn
}

// CompressIfNeeded checks the character's narrative memory against the
// threshold and, when exceeded, schedules exactly one detached background
// task to summarize the oldest chunkSize entries. The check is synchronous,
// the effect is not: the caller's world copy is left untouched and the
// task writes back through the store later. Reports whether a task was
// scheduled.
func (s *Service) CompressIfNeeded(world *types.World, character *types.Character) bool {
	if len(character.NarrativeMemory) <= s.threshold {
		return false
	}

	// The threshold is independent of the chunk size: with a small threshold
	// the whole memory may be shorter than one chunk.
	n := min(s.chunkSize, len(character.NarrativeMemory))
	chunk := append([]string(nil), character.NarrativeMemory[:n]...)
	log.Printf("memory: %s has %d narrative entries, scheduling compaction of the oldest %d",
		character.Name, len(character.NarrativeMemory), len(chunk))

	s.tasks.Add(1)
	go s.summarizeChunk(world.ID, character.ID, chunk)
	return true
}

// summarizeChunk is the detached compaction task. Every failure path is
// logged and dropped: nothing here may surface to the command that
// triggered the compaction, and there are no automatic retries.
func (s *Service) summarizeChunk(worldID string, characterID types.CharacterID, chunk []string) {
	defer s.tasks.Done()
	defer func() {
		if r := recover(); r != nil {
			log.Printf("ERROR: memory compaction for %s panicked: %v", characterID, r)
		}
	}()

	ctx := context.Background()

	summary, err := s.summarizer.Summarize(ctx, strings.Join(chunk, "\n"))
	if err != nil {
		log.Printf("ERROR: memory compaction for %s failed to summarize: %v", characterID, err)
		s.notifyDone(worldID, characterID)
		return
	}

	// Re-read the latest world state right before mutating. The foreground
	// command may have saved more memory lines since we were scheduled.
	world, err := s.store.Get(ctx, worldID)
	if err != nil {
		log.Printf("ERROR: memory compaction for %s could not load world %q: %v", characterID, worldID, err)
		s.notifyDone(worldID, characterID)
		return
	}
	character, ok := world.Characters[characterID]
	if !ok {
		log.Printf("ERROR: memory compaction target %s vanished from world %q", characterID, worldID)
		s.notifyDone(worldID, characterID)
		return
	}

	// Replace the summarized prefix against the freshly read memory.
	rest := character.NarrativeMemory
	if len(rest) >= len(chunk) {
		rest = rest[len(chunk):]
	} else {
		rest = nil
	}
	character.NarrativeMemory = append([]string{summary}, rest...)

	if err := s.store.Save(ctx, world); err != nil {
		log.Printf("ERROR: memory compaction for %s failed to save world %q: %v", characterID, worldID, err)
		s.notifyDone(worldID, characterID)
		return
	}

	log.Printf("memory: compacted %s, narrative memory now %d entries", characterID, len(character.NarrativeMemory))
	s.notifyDone(worldID, characterID)
}

// SummarizeIntoMemory condenses the given transcript lines into one summary
// and appends it to the character's narrative memory. Unlike compaction this
// runs synchronously on the caller's world copy; end-dialogue uses it to
// fold a session into each participant's long-term memory.
func (s *Service) SummarizeIntoMemory(ctx context.Context, character *types.Character, lines []string) error {
	if len(lines) == 0 {
		return nil
	}
	summary, err := s.summarizer.Summarize(ctx, strings.Join(lines, "\n"))
	if err != nil {
		return fmt.Errorf("memory: failed to summarize session for %s: %w", character.ID, err)
	}
	character.Remember(summary)
	return nil
}

// Wait blocks until all scheduled compaction tasks have finished. Intended
// for shutdown and tests; the game loop never calls it.
func (s *Service) Wait() {
	s.tasks.Wait()
}

func (s *Service) notifyDone(worldID string, characterID types.CharacterID) {
	s.mu.Lock()
	fn := s.onCompactionDone
	s.mu.Unlock()
	if fn != nil {
		fn(worldID, characterID)
	}
}

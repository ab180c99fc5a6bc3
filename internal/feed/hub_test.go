package feed

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/whitlocke/intrigue/internal/bus"
	"github.com/whitlocke/intrigue/pkg/types"
)

func runHub(t *testing.T, token string) *Hub {
	t.Helper()
	h := NewHub(token)
	go h.Run()
	t.Cleanup(h.Stop)
	return h
}

func TestHub_BroadcastsEnvelopes(t *testing.T) {
	h := runHub(t, "")
	client := &MockClient{SendChan: make(chan []byte, 8)}
	h.Register(client)

	world := &types.World{Clock: types.DefaultStartTime}
	err := h.HandleEvent(context.Background(), types.CharacterMoved{
		EventMeta:      types.NewEventMeta(),
		CharacterID:    "sophie",
		FromLocationID: "hall",
		ToLocationID:   "study",
	}, world)
	require.NoError(t, err)

	select {
	case data := <-client.SendChan:
		var env struct {
			Kind  types.EventKind `json:"kind"`
			Clock string          `json:"clock"`
			Event map[string]any  `json:"event"`
		}
		require.NoError(t, json.Unmarshal(data, &env))
		assert.Equal(t, types.KindCharacterMoved, env.Kind)
		assert.Equal(t, "08:00", env.Clock)
		assert.Equal(t, "sophie", env.Event["character_id"])
	case <-time.After(2 * time.Second):
		t.Fatal("no envelope broadcast")
	}
}

func TestHub_DisconnectsSlowClients(t *testing.T) {
	h := runHub(t, "")
	slow := &MockClient{SendChan: make(chan []byte)} // unbuffered, never read
	h.Register(slow)

	for i := 0; i < 3; i++ {
		require.NoError(t, h.HandleEvent(context.Background(), types.NarrativeRequested{
			EventMeta: types.NewEventMeta(), Operation: "generate",
		}, nil))
	}

	// The slow client's channel is closed when it is evicted.
	select {
	case _, open := <-slow.SendChan:
		if open {
			// First queued message may land before eviction; the close follows.
			_, open = <-slow.SendChan
			assert.False(t, open)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("slow client was never evicted")
	}
}

func TestHub_ViaBus(t *testing.T) {
	h := runHub(t, "")
	b := bus.New()
	h.SubscribeTo(b)
	client := &MockClient{SendChan: make(chan []byte, 8)}
	h.Register(client)

	b.Publish(context.Background(), types.DialogueEnded{
		EventMeta: types.NewEventMeta(), SessionID: "s1",
	}, nil)

	select {
	case data := <-client.SendChan:
		assert.Contains(t, string(data), string(types.KindDialogueEnded))
	case <-time.After(2 * time.Second):
		t.Fatal("no envelope from bus publish")
	}
}

func TestHub_UnregisterAfterStopDoesNotBlock(t *testing.T) {
	h := NewHub("")
	go h.Run()
	h.Stop()

	done := make(chan struct{})
	go func() {
		defer close(done)
		h.Unregister(&MockClient{SendChan: make(chan []byte, 1)})
		h.Register(&MockClient{SendChan: make(chan []byte, 1)})
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("register/unregister blocked after hub shutdown")
	}
}

func TestServeHTTP_RejectsBadToken(t *testing.T) {
	h := runHub(t, "secret")

	req := httptest.NewRequest(http.MethodGet, "/ws", nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	req = httptest.NewRequest(http.MethodGet, "/ws", nil)
	req.Header.Set("Authorization", "Bearer wrong")
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestServeHTTP_RateLimitsUpgrades(t *testing.T) {
	h := runHub(t, "")

	throttled := 0
	for i := 0; i < 20; i++ {
		req := httptest.NewRequest(http.MethodGet, "/ws", nil)
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		if rec.Code == http.StatusTooManyRequests {
			throttled++
		}
	}
	assert.Greater(t, throttled, 0, "burst upgrades past the limit must be throttled")
}

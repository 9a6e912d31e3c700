package broadcast

import (
	"encoding/json"
	"metromanic/internal/events"
	"testing"
	"time"
)

func TestNewBroadcaster(t *testing.T) {
	bus := events.NewBus()
	b := NewBroadcaster(bus)
	defer b.Close()
	if b == nil {
		t.Fatal("NewBroadcaster() returned nil")
	}
}

func TestBroadcaster_SubscribeUnsubscribe(t *testing.T) {
	b := NewBroadcaster(events.NewBus())
	defer b.Close()

	ch := b.Subscribe()
	if ch == nil {
		t.Fatal("Subscribe() returned nil")
	}

	b.Mu.Lock()
	if len(b.Clients) != 1 {
		t.Errorf("clients count = %d, want 1", len(b.Clients))
	}
	b.Mu.Unlock()

	b.Unsubscribe(ch)

	b.Mu.Lock()
	if len(b.Clients) != 0 {
		t.Errorf("clients count after unsubscribe = %d, want 0", len(b.Clients))
	}
	b.Mu.Unlock()
}

func TestBroadcaster_Broadcast(t *testing.T) {
	b := NewBroadcaster(events.NewBus())
	defer b.Close()

	ch1 := b.Subscribe()
	ch2 := b.Subscribe()

	b.Broadcast("test-event", "hello")

	for i, ch := range []chan SSEMessage{ch1, ch2} {
		select {
		case msg := <-ch:
			if msg.Event != "test-event" || msg.Msg != "hello" {
				t.Errorf("ch%d got %+v, want event=test-event, msg=hello", i+1, msg)
			}
		case <-time.After(1 * time.Second):
			t.Fatalf("ch%d timed out", i+1)
		}
	}

	b.Unsubscribe(ch1)
	b.Unsubscribe(ch2)
}

func TestBroadcaster_SkipsFullChannels(t *testing.T) {
	b := NewBroadcaster(events.NewBus())
	defer b.Close()

	ch := b.Subscribe()

	// Fill the channel buffer (capacity 10)
	for i := 0; i < 10; i++ {
		b.Broadcast("fill", "data")
	}

	done := make(chan bool)
	go func() {
		b.Broadcast("overflow", "data")
		done <- true
	}()

	select {
	case <-done:
	case <-time.After(1 * time.Second):
		t.Fatal("Broadcast blocked on full channel")
	}

	b.Unsubscribe(ch)
}

func TestBroadcaster_ForwardsLifecycleEvents(t *testing.T) {
	bus := events.NewBus()
	b := NewBroadcaster(bus)
	defer b.Close()

	ch := b.Subscribe()

	bus.Publish(
		events.Event{Kind: events.StationAdded, RoomCode: "ABCD"},
		events.Event{Kind: events.MissionEnded, RoomCode: "ABCD", Success: true},
	)

	select {
	case msg := <-ch:
		if msg.Event != "mission_ended" {
			t.Fatalf("event = %q, want mission_ended", msg.Event)
		}
		var n Notice
		if err := json.Unmarshal([]byte(msg.Msg), &n); err != nil {
			t.Fatal(err)
		}
		if n.Room != "ABCD" || n.Success == nil || !*n.Success {
			t.Errorf("notice = %+v", n)
		}
	case <-time.After(1 * time.Second):
		t.Fatal("timed out waiting for lifecycle broadcast")
	}

	select {
	case msg := <-ch:
		t.Errorf("unexpected extra frame %+v", msg)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestNotice_PlayersUseCamelCaseKeys(t *testing.T) {
	bus := events.NewBus()
	b := NewBroadcaster(bus)
	defer b.Close()

	ch := b.Subscribe()
	bus.Publish(events.Event{
		Kind:     events.PlayerJoined,
		RoomCode: "ABCD",
		PlayerID: "p1",
		Players:  []events.PlayerRef{{ID: "p1", Name: "Alice", Score: 2, IsHost: true}},
	})

	select {
	case msg := <-ch:
		var raw struct {
			Players []map[string]any `json:"players"`
		}
		if err := json.Unmarshal([]byte(msg.Msg), &raw); err != nil {
			t.Fatal(err)
		}
		if len(raw.Players) != 1 {
			t.Fatalf("players = %v, want 1 entry", raw.Players)
		}
		p := raw.Players[0]
		if p["id"] != "p1" || p["name"] != "Alice" || p["score"] != float64(2) || p["isHost"] != true {
			t.Errorf("player = %v", p)
		}
		if _, ok := p["ID"]; ok {
			t.Errorf("player carries Go field names: %v", p)
		}
	case <-time.After(1 * time.Second):
		t.Fatal("timed out waiting for player_joined broadcast")
	}
}

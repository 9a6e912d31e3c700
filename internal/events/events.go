package events

import (
	"sync"
	"time"
)

type Kind string

const (
	RoomCreated        = Kind("room_created")
	RoomDestroyed      = Kind("room_destroyed")
	PlayerJoined       = Kind("player_joined")
	PlayerLeft         = Kind("player_left")
	PlayerRejoined     = Kind("player_rejoined")
	GameStarted        = Kind("game_started")
	StationAdded       = Kind("station_added")
	LineCreated        = Kind("line_created")
	StationConnected   = Kind("station_connected")
	PassengerDelivered = Kind("passenger_delivered")
	ObjectiveUpdated   = Kind("objective_updated")
	MissionEnded       = Kind("mission_ended")
)

// IsLifecycle reports whether the event describes a room or mission transition
// rather than a gameplay action.
func (k Kind) IsLifecycle() bool {
	switch k {
	case StationAdded, LineCreated, StationConnected, PassengerDelivered, ObjectiveUpdated:
		return false
	}
	return true
}

// PlayerRef is a point-in-time copy of a roster entry carried by lifecycle events.
type PlayerRef struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Score  int    `json:"score"`
	IsHost bool   `json:"isHost"`
}

type Event struct {
	Kind      Kind
	RoomCode  string
	PlayerID  string
	LineID    int
	StationID int
	Detail    string // station type, line color, objective id, destroy reason
	Success   bool
	Stats     []byte // raw JSON stats reported with end_mission
	Completed int    // objectives completed, set on mission_ended
	Players   []PlayerRef
	At        time.Time
}

// Bus fans domain events out to subscribers. Publish never blocks: a
// subscriber whose buffer is full misses the event.
type Bus struct {
	mu   sync.Mutex
	subs map[chan Event]struct{}
}

func NewBus() *Bus {
	return &Bus{
		subs: make(map[chan Event]struct{}),
	}
}

func (b *Bus) Subscribe(buffer int) chan Event {
	ch := make(chan Event, buffer)
	b.mu.Lock()
	b.subs[ch] = struct{}{}
	b.mu.Unlock()
	return ch
}

func (b *Bus) Unsubscribe(ch chan Event) {
	b.mu.Lock()
	_, ok := b.subs[ch]
	delete(b.subs, ch)
	b.mu.Unlock()
	if ok {
		close(ch)
	}
}

func (b *Bus) Publish(evs ...Event) {
	if b == nil {
		return
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, ev := range evs {
		for ch := range b.subs {
			select {
			case ch <- ev:
			default:
			}
		}
	}
}

package broadcast

import (
	"encoding/json"
	"log"
	"metromanic/internal/events"
	"sync"
	"time"
)

// SSEMessage is one frame of the operator event stream.
type SSEMessage struct {
	Event string
	Msg   string
}

// Notice is the JSON body of a lifecycle frame.
type Notice struct {
	Room     string             `json:"room"`
	PlayerID string             `json:"playerId,omitempty"`
	Detail   string             `json:"detail,omitempty"`
	Success  *bool              `json:"success,omitempty"`
	Players  []events.PlayerRef `json:"players,omitempty"`
	At       time.Time          `json:"at"`
}

// Broadcaster forwards room lifecycle events from the bus to SSE subscribers.
// Gameplay events stay on the WebSocket side.
type Broadcaster struct {
	Mu      sync.Mutex
	Clients map[chan SSEMessage]bool

	bus *events.Bus
	sub chan events.Event
}

func NewBroadcaster(bus *events.Bus) *Broadcaster {
	b := &Broadcaster{
		Clients: make(map[chan SSEMessage]bool),
		bus:     bus,
		sub:     bus.Subscribe(64),
	}
	go func() {
		for ev := range b.sub {
			if !ev.Kind.IsLifecycle() {
				continue
			}
			b.Broadcast(string(ev.Kind), notice(ev))
		}
	}()
	return b
}

// Close detaches from the bus and stops forwarding.
func (b *Broadcaster) Close() {
	b.bus.Unsubscribe(b.sub)
}

func notice(ev events.Event) string {
	n := Notice{
		Room:     ev.RoomCode,
		PlayerID: ev.PlayerID,
		Detail:   ev.Detail,
		Players:  ev.Players,
		At:       ev.At,
	}
	if ev.Kind == events.MissionEnded {
		success := ev.Success
		n.Success = &success
	}
	data, err := json.Marshal(n)
	if err != nil {
		log.Printf("[Broadcast] Marshal error for %s: %v\n", ev.Kind, err)
		return "{}"
	}
	return string(data)
}

func (b *Broadcaster) Subscribe() chan SSEMessage {
	ch := make(chan SSEMessage, 10)
	b.Mu.Lock()
	b.Clients[ch] = true
	b.Mu.Unlock()
	return ch
}

func (b *Broadcaster) Unsubscribe(ch chan SSEMessage) {
	b.Mu.Lock()
	delete(b.Clients, ch)
	b.Mu.Unlock()
	close(ch)
}

func (b *Broadcaster) Broadcast(event string, message string) {
	b.Mu.Lock()
	defer b.Mu.Unlock()
	for ch := range b.Clients {
		select {
		case ch <- SSEMessage{Event: event, Msg: message}:
		default:
			// skip clients with full data channels
		}
	}
}

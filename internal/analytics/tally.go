package analytics

import (
	"metromanic/internal/events"
)

// Tally accumulates per-player mission stats from gameplay events while a
// mission runs, so awards can be evaluated without reading back the batched
// action log.
type Tally struct {
	players map[string]*PlayerMissionStats
	order   []string
}

func NewTally() *Tally {
	return &Tally{players: make(map[string]*PlayerMissionStats)}
}

func (t *Tally) player(id string) *PlayerMissionStats {
	p, ok := t.players[id]
	if !ok {
		p = &PlayerMissionStats{PlayerID: id}
		t.players[id] = p
		t.order = append(t.order, id)
	}
	return p
}

// Seat registers a player with their assignment before any action arrives.
func (t *Tally) Seat(id, name, role, shape string) {
	p := t.player(id)
	p.PlayerName = name
	p.Role = role
	p.Shape = shape
}

// Observe counts one gameplay event. Lifecycle events are ignored.
func (t *Tally) Observe(ev events.Event) {
	if ev.PlayerID == "" {
		return
	}
	switch ev.Kind {
	case events.StationAdded:
		t.player(ev.PlayerID).Stations++
	case events.LineCreated:
		t.player(ev.PlayerID).Lines++
	case events.StationConnected:
		t.player(ev.PlayerID).Connections++
	case events.PassengerDelivered:
		t.player(ev.PlayerID).Deliveries++
	}
}

// Finish copies final scores from the roster snapshot and returns stats in
// seat order.
func (t *Tally) Finish(missionID string, roster []events.PlayerRef) []PlayerMissionStats {
	for _, ref := range roster {
		p := t.player(ref.ID)
		p.PlayerName = ref.Name
		p.Score = ref.Score
	}
	out := make([]PlayerMissionStats, 0, len(t.order))
	for _, id := range t.order {
		p := *t.players[id]
		p.MissionID = missionID
		out = append(out, p)
	}
	return out
}

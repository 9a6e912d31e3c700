package gamedata

import (
	"metromanic/internal/events"
	"metromanic/internal/players"
	"time"
)

// Apply mutates the room replica for the four authoritative action kinds
// and returns the domain events that resulted. Unknown kinds and references
// to missing lines or stations change nothing and return no events.
func Apply(s *State, roster *players.Roster, a Action, roomCode string, now time.Time) []events.Event {
	base := events.Event{RoomCode: roomCode, PlayerID: a.PlayerID, At: now}

	switch a.Type {
	case ActionAddStation:
		st := &Station{
			ID:         len(s.Stations),
			X:          a.X,
			Y:          a.Y,
			Type:       a.StationType,
			Passengers: []Passenger{},
		}
		s.Stations = append(s.Stations, st)
		ev := base
		ev.Kind = events.StationAdded
		ev.StationID = st.ID
		ev.Detail = string(st.Type)
		return []events.Event{ev}

	case ActionNewLine:
		ln := &Line{
			ID:       len(s.Lines),
			Color:    a.Color,
			OwnerID:  a.PlayerID,
			Stations: []int{},
		}
		s.Lines = append(s.Lines, ln)
		ev := base
		ev.Kind = events.LineCreated
		ev.LineID = ln.ID
		ev.Detail = string(ln.Color)
		return []events.Event{ev}

	case ActionConnectStation:
		if a.LineID == nil || a.StationID == nil {
			return nil
		}
		ln := s.Line(*a.LineID)
		if ln == nil || s.Station(*a.StationID) == nil {
			return nil
		}
		if n := len(ln.Stations); n > 0 && ln.Stations[n-1] == *a.StationID {
			return nil
		}
		ln.Stations = append(ln.Stations, *a.StationID)
		ev := base
		ev.Kind = events.StationConnected
		ev.LineID = ln.ID
		ev.StationID = *a.StationID
		return []events.Event{ev}

	case ActionPassengerDelivered:
		if roster.AddScore(a.PlayerID, 1) == nil {
			return nil
		}
		s.Deliveries++
		ev := base
		ev.Kind = events.PassengerDelivered
		if a.StationID != nil {
			ev.StationID = *a.StationID
		}
		return []events.Event{ev}
	}
	return nil
}

package gamedata

import (
	"encoding/json"
	"errors"
	"time"
)

type StationType string

const (
	Circle   = StationType("circle")
	Square   = StationType("square")
	Triangle = StationType("triangle")
	Diamond  = StationType("diamond")
)

// Shapes is the fixed round-robin order used for station-shape assignment.
var Shapes = []StationType{Circle, Square, Triangle, Diamond}

type LineColor string

const (
	Red    = LineColor("red")
	Blue   = LineColor("blue")
	Yellow = LineColor("yellow")
	Green  = LineColor("green")
)

type Passenger struct {
	StationID   int         `json:"stationId"`
	Destination StationType `json:"destination"`
}

type Station struct {
	ID         int         `json:"id"`
	X          float64     `json:"x"`
	Y          float64     `json:"y"`
	Type       StationType `json:"type"`
	Passengers []Passenger `json:"passengers"`
}

type Line struct {
	ID       int       `json:"id"`
	Color    LineColor `json:"color"`
	OwnerID  string    `json:"ownerId"`
	Stations []int     `json:"stations"`
}

// State is the room-side replica of the shared network. It is what late
// joiners and rejoiners receive as game_state_update.
type State struct {
	Stations   []*Station  `json:"stations"`
	Lines      []*Line     `json:"lines"`
	Passengers []Passenger `json:"passengers"`
	Day        int         `json:"day"`
	Time       float64     `json:"time"`
	Deliveries int         `json:"-"`
}

func NewState() *State {
	return &State{
		Stations:   []*Station{},
		Lines:      []*Line{},
		Passengers: []Passenger{},
		Day:        1,
	}
}

func (s *State) Station(id int) *Station {
	if id < 0 || id >= len(s.Stations) {
		return nil
	}
	return s.Stations[id]
}

func (s *State) Line(id int) *Line {
	if id < 0 || id >= len(s.Lines) {
		return nil
	}
	return s.Lines[id]
}

// Action is the envelope of a game_action. Only the fields the processor
// reads are decoded; the relay forwards the raw payload untouched.
type Action struct {
	Type        string      `json:"type"`
	PlayerID    string      `json:"playerId"`
	Timestamp   int64       `json:"timestamp"`
	X           float64     `json:"x"`
	Y           float64     `json:"y"`
	StationType StationType `json:"stationType"`
	Color       LineColor   `json:"color"`
	LineID      *int        `json:"lineId"`
	StationID   *int        `json:"stationId"`
}

const (
	ActionAddStation         = "add_station"
	ActionNewLine            = "new_line"
	ActionConnectStation     = "connect_station"
	ActionPassengerDelivered = "passenger_delivered"
)

// DecodeAction reads an action envelope and stamps it with the acting
// player and the relay's clock, overriding whatever the client sent.
func DecodeAction(raw json.RawMessage, playerID string, now time.Time) (Action, map[string]any, error) {
	var a Action
	if err := json.Unmarshal(raw, &a); err != nil {
		return Action{}, nil, err
	}
	var fields map[string]any
	if err := json.Unmarshal(raw, &fields); err != nil {
		return Action{}, nil, err
	}
	if fields == nil {
		return Action{}, nil, errors.New("empty action")
	}
	a.PlayerID = playerID
	a.Timestamp = now.UnixMilli()
	fields["playerId"] = a.PlayerID
	fields["timestamp"] = a.Timestamp
	return a, fields, nil
}

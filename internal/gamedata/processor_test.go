package gamedata

import (
	"encoding/json"
	"metromanic/internal/events"
	"metromanic/internal/players"
	"testing"
	"time"
)

func intPtr(i int) *int { return &i }

func newTestRoster() *players.Roster {
	r := players.NewRoster()
	r.Add(&players.Player{ID: "p1", Name: "Alice"})
	r.Add(&players.Player{ID: "p2", Name: "Bob"})
	return r
}

func TestNewState(t *testing.T) {
	s := NewState()
	if len(s.Stations) != 0 || len(s.Lines) != 0 {
		t.Error("new state should be empty")
	}
	if s.Day != 1 {
		t.Errorf("Day = %d, want 1", s.Day)
	}
}

func TestApply_AddStation(t *testing.T) {
	s := NewState()
	r := newTestRoster()
	now := time.Now()

	Apply(s, r, Action{Type: ActionAddStation, PlayerID: "p1", X: 10, Y: 20, StationType: Circle}, "ABCD", now)
	evs := Apply(s, r, Action{Type: ActionAddStation, PlayerID: "p1", X: 100, Y: 200, StationType: Square}, "ABCD", now)

	if len(s.Stations) != 2 {
		t.Fatalf("stations = %d, want 2", len(s.Stations))
	}
	st := s.Stations[1]
	if st.ID != 1 {
		t.Errorf("station ID = %d, want 1", st.ID)
	}
	if st.X != 100 || st.Y != 200 || st.Type != Square {
		t.Errorf("station = %+v", st)
	}
	if len(evs) != 1 || evs[0].Kind != events.StationAdded || evs[0].StationID != 1 || evs[0].RoomCode != "ABCD" {
		t.Errorf("events = %+v", evs)
	}
}

func TestApply_NewLineOwnedByActingPlayer(t *testing.T) {
	s := NewState()
	r := newTestRoster()

	Apply(s, r, Action{Type: ActionNewLine, PlayerID: "p1", Color: Red}, "ABCD", time.Now())
	evs := Apply(s, r, Action{Type: ActionNewLine, PlayerID: "p2", Color: Blue}, "ABCD", time.Now())

	if len(s.Lines) != 2 {
		t.Fatalf("lines = %d, want 2", len(s.Lines))
	}
	ln := s.Lines[1]
	if ln.ID != 1 || ln.OwnerID != "p2" || ln.Color != Blue {
		t.Errorf("line = %+v", ln)
	}
	if len(evs) != 1 || evs[0].Kind != events.LineCreated || evs[0].LineID != 1 {
		t.Errorf("events = %+v", evs)
	}
}

func TestApply_ConnectStationSkipsRepeatedTail(t *testing.T) {
	s := NewState()
	r := newTestRoster()
	now := time.Now()
	Apply(s, r, Action{Type: ActionAddStation, StationType: Circle}, "ABCD", now)
	Apply(s, r, Action{Type: ActionAddStation, StationType: Square}, "ABCD", now)
	Apply(s, r, Action{Type: ActionNewLine, PlayerID: "p1", Color: Red}, "ABCD", now)

	connect := Action{Type: ActionConnectStation, LineID: intPtr(0), StationID: intPtr(1)}
	first := Apply(s, r, connect, "ABCD", now)
	second := Apply(s, r, connect, "ABCD", now)

	if got := s.Lines[0].Stations; len(got) != 1 || got[0] != 1 {
		t.Errorf("line stations = %v, want [1]", got)
	}
	if len(first) != 1 || first[0].Kind != events.StationConnected {
		t.Errorf("first connect events = %+v", first)
	}
	if len(second) != 0 {
		t.Errorf("repeated connect should emit nothing, got %+v", second)
	}

	// non-consecutive repeats are allowed (loops)
	Apply(s, r, Action{Type: ActionConnectStation, LineID: intPtr(0), StationID: intPtr(0)}, "ABCD", now)
	Apply(s, r, connect, "ABCD", now)
	if got := s.Lines[0].Stations; len(got) != 3 {
		t.Errorf("line stations = %v, want [1 0 1]", got)
	}
}

func TestApply_ConnectStationMissingReferencesAreNoOps(t *testing.T) {
	s := NewState()
	r := newTestRoster()
	now := time.Now()
	Apply(s, r, Action{Type: ActionAddStation}, "ABCD", now)

	cases := []Action{
		{Type: ActionConnectStation, LineID: intPtr(5), StationID: intPtr(0)},
		{Type: ActionConnectStation, LineID: intPtr(0), StationID: intPtr(0)},
		{Type: ActionConnectStation, StationID: intPtr(0)},
		{Type: ActionConnectStation, LineID: intPtr(-1), StationID: intPtr(0)},
	}
	for _, a := range cases {
		if evs := Apply(s, r, a, "ABCD", now); len(evs) != 0 {
			t.Errorf("Apply(%+v) emitted %+v, want nothing", a, evs)
		}
	}

	Apply(s, r, Action{Type: ActionNewLine, PlayerID: "p1"}, "ABCD", now)
	if evs := Apply(s, r, Action{Type: ActionConnectStation, LineID: intPtr(0), StationID: intPtr(7)}, "ABCD", now); len(evs) != 0 {
		t.Errorf("connect to missing station emitted %+v", evs)
	}
	if len(s.Lines[0].Stations) != 0 {
		t.Errorf("line stations = %v, want empty", s.Lines[0].Stations)
	}
}

func TestApply_PassengerDeliveredScoresActingPlayer(t *testing.T) {
	s := NewState()
	r := newTestRoster()

	Apply(s, r, Action{Type: ActionPassengerDelivered, PlayerID: "p2"}, "ABCD", time.Now())
	evs := Apply(s, r, Action{Type: ActionPassengerDelivered, PlayerID: "p2"}, "ABCD", time.Now())

	if r.Get("p2").Score != 2 {
		t.Errorf("p2 score = %d, want 2", r.Get("p2").Score)
	}
	if r.Get("p1").Score != 0 {
		t.Errorf("p1 score = %d, want 0", r.Get("p1").Score)
	}
	if s.Deliveries != 2 {
		t.Errorf("Deliveries = %d, want 2", s.Deliveries)
	}
	if len(evs) != 1 || evs[0].Kind != events.PassengerDelivered {
		t.Errorf("events = %+v", evs)
	}

	if evs := Apply(s, r, Action{Type: ActionPassengerDelivered, PlayerID: "ghost"}, "ABCD", time.Now()); len(evs) != 0 {
		t.Errorf("unknown player delivery emitted %+v", evs)
	}
}

func TestApply_UnknownTypeIsIgnored(t *testing.T) {
	s := NewState()
	if evs := Apply(s, newTestRoster(), Action{Type: "train_moved"}, "ABCD", time.Now()); evs != nil {
		t.Errorf("unknown action emitted %+v", evs)
	}
}

func TestDecodeAction_StampsPlayerAndTime(t *testing.T) {
	raw := json.RawMessage(`{"type":"add_station","x":100,"y":200,"stationType":"square","playerId":"spoofed","extra":"kept"}`)
	now := time.UnixMilli(1700000000000)

	a, fields, err := DecodeAction(raw, "p1", now)
	if err != nil {
		t.Fatal(err)
	}
	if a.PlayerID != "p1" {
		t.Errorf("PlayerID = %q, want %q", a.PlayerID, "p1")
	}
	if a.Timestamp != 1700000000000 {
		t.Errorf("Timestamp = %d, want %d", a.Timestamp, int64(1700000000000))
	}
	if a.StationType != Square || a.X != 100 || a.Y != 200 {
		t.Errorf("action = %+v", a)
	}
	if fields["playerId"] != "p1" {
		t.Errorf("relayed playerId = %v, want p1", fields["playerId"])
	}
	if fields["extra"] != "kept" {
		t.Errorf("relayed extra = %v, want kept", fields["extra"])
	}
}

func TestDecodeAction_Malformed(t *testing.T) {
	if _, _, err := DecodeAction(json.RawMessage(`[1,2]`), "p1", time.Now()); err == nil {
		t.Error("DecodeAction should fail for a non-object payload")
	}
}

func TestDecodeAction_Null(t *testing.T) {
	if _, _, err := DecodeAction(json.RawMessage(`null`), "p1", time.Now()); err == nil {
		t.Error("DecodeAction should fail for a null payload")
	}
}

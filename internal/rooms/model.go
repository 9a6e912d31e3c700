package rooms

import (
	"metromanic/internal/gamedata"
	"metromanic/internal/mission"
	"metromanic/internal/players"
	"metromanic/internal/wshub"
	"time"
)

type Room struct {
	Code         string
	Players      *players.Roster
	Started      bool
	CreatedAt    time.Time
	LastActivity time.Time
	State        *gamedata.State
	Mission      *mission.Mission
	Hub          *wshub.Hub
}

func newRoom(code string, now time.Time) *Room {
	return &Room{
		Code:         code,
		Players:      players.NewRoster(),
		CreatedAt:    now,
		LastActivity: now,
		State:        gamedata.NewState(),
		Mission:      mission.New(),
		Hub:          wshub.NewHub(),
	}
}

// Touch records activity so the inactivity sweep leaves the room alone.
func (r *Room) Touch(now time.Time) {
	r.LastActivity = now
}

func (r *Room) Counts() mission.Counts {
	return mission.Counts{
		Stations:   len(r.State.Stations),
		Lines:      len(r.State.Lines),
		Deliveries: r.State.Deliveries,
	}
}

// Summary is the read-only view served by the diagnostic endpoint.
type Summary struct {
	ID          string    `json:"id"`
	PlayerCount int       `json:"playerCount"`
	Connected   int       `json:"connected"` // seats with a live connection
	GameStarted bool      `json:"gameStarted"`
	TeamScore   int       `json:"teamScore"`
	Default     bool      `json:"default"`
	CreatedAt   time.Time `json:"createdAt"`
}

func (r *Room) Summary() Summary {
	return Summary{
		ID:          r.Code,
		PlayerCount: r.Players.Count(),
		Connected:   r.Hub.Len(),
		GameStarted: r.Started,
		TeamScore:   r.Players.TotalScore(),
		CreatedAt:   r.CreatedAt,
	}
}

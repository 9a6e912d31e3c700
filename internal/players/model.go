package players

import "time"

// MaxPlayers is the seat limit of a room.
const MaxPlayers = 4

type Player struct {
	ID           string    `json:"id"`
	ConnectionID string    `json:"-"`
	Name         string    `json:"name"`
	IsHost       bool      `json:"isHost"`
	Score        int       `json:"score"`
	Connected    bool      `json:"connected"`
	JoinedAt     time.Time `json:"joinedAt"`
}

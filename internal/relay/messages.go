package relay

import (
	"encoding/json"
	"metromanic/internal/gamedata"
	"metromanic/internal/mission"
	"metromanic/internal/players"
)

// Inbound event names.
const (
	EventJoinGame          = "join_game"
	EventStartGame         = "start_game"
	EventGameAction        = "game_action"
	EventTeamworkAction    = "teamwork_action"
	EventObjectiveProgress = "objective_progress"
	EventEndMission        = "end_mission"
	EventRejoinGame        = "rejoin_game"
)

// Outbound-only event names.
const (
	EventGameJoined       = "game_joined"
	EventPlayerJoined     = "player_joined"
	EventPlayerLeft       = "player_left"
	EventPlayerRejoined   = "player_rejoined"
	EventGameStarted      = "game_started"
	EventObjectiveUpdated = "objective_updated"
	EventMissionEnded     = "mission_ended"
	EventGameStateUpdate  = "game_state_update"
	EventError            = "error"
)

func knownEvent(event string) bool {
	switch event {
	case EventJoinGame, EventStartGame, EventGameAction, EventTeamworkAction,
		EventObjectiveProgress, EventEndMission, EventRejoinGame:
		return true
	}
	return false
}

type JoinGame struct {
	PlayerName string `json:"playerName"`
	RoomCode   string `json:"roomCode"`
}

type RejoinGame struct {
	PlayerID   string `json:"playerId"`
	PlayerName string `json:"playerName"`
}

type ObjectiveProgress struct {
	ObjectiveID string  `json:"objectiveId"`
	Progress    float64 `json:"progress"`
	Completed   bool    `json:"completed"`
}

type EndMission struct {
	Success bool            `json:"success"`
	Stats   json.RawMessage `json:"stats,omitempty"`
}

type GameJoined struct {
	RoomCode string           `json:"roomCode"`
	PlayerID string           `json:"playerId"`
	IsHost   bool             `json:"isHost"`
	Players  []players.Player `json:"players"`
}

type PlayerList struct {
	Players []players.Player `json:"players"`
}

type PlayerLeft struct {
	PlayerID string           `json:"playerId"`
	Players  []players.Player `json:"players"`
}

type PlayerRejoined struct {
	PlayerID   string `json:"playerId"`
	PlayerName string `json:"playerName"`
}

type GameStarted struct {
	Players       []players.Player                `json:"players"`
	Roles         map[string]mission.Role         `json:"roles"`
	StationShapes map[string]gamedata.StationType `json:"stationShapes"`
	Objectives    []*mission.Objective            `json:"objectives"`
}

type ObjectiveUpdated struct {
	ObjectiveID string  `json:"objectiveId"`
	Progress    float64 `json:"progress"`
	Completed   bool    `json:"completed"`
	PlayerID    string  `json:"playerId"`
}

type MissionEnded struct {
	Success bool            `json:"success"`
	Stats   json.RawMessage `json:"stats"`
}

type ErrorPayload struct {
	Code    Code   `json:"code"`
	Message string `json:"message"`
}

// decode tolerates an absent payload; the zero value is then used.
func decode(raw json.RawMessage, v any) error {
	if len(raw) == 0 || string(raw) == "null" {
		return nil
	}
	return json.Unmarshal(raw, v)
}

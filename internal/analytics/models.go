package analytics

import (
	"encoding/json"
	"time"
)

// PlayerMissionStats is one player's contribution to a single mission.
type PlayerMissionStats struct {
	PlayerID    string `json:"playerId"`
	PlayerName  string `json:"playerName"`
	MissionID   string `json:"missionId"`
	Role        string `json:"role"`
	Shape       string `json:"shape"`
	Score       int    `json:"score"`
	Stations    int    `json:"stations"`
	Lines       int    `json:"lines"`
	Connections int    `json:"connections"`
	Deliveries  int    `json:"deliveries"`
}

// MissionOutcome is the team result a mission ended with.
type MissionOutcome struct {
	Success             bool
	ObjectivesCompleted int
	ObjectivesTotal     int
}

type PlayerLifetimeStats struct {
	PlayerID       string   `json:"playerId"`
	PlayerName     string   `json:"playerName"`
	MissionsPlayed int      `json:"missionsPlayed"`
	MissionsWon    int      `json:"missionsWon"`
	TotalScore     int      `json:"totalScore"`
	BestMission    int      `json:"bestMission"`
	SuccessStreak  int      `json:"successStreak"`
	Badges         []Badge  `json:"badges"`
	Awarded        []string `json:"awarded"` // badge ids recorded at mission end
}

type LeaderboardEntry struct {
	PlayerID   string `json:"playerId"`
	PlayerName string `json:"playerName"`
	Value      int    `json:"value"`
	Rank       int    `json:"rank"`
}

type MissionRecap struct {
	MissionID           string               `json:"missionId"`
	RoomCode            string               `json:"roomCode"`
	StartedAt           *time.Time           `json:"startedAt"`
	EndedAt             *time.Time           `json:"endedAt"`
	Success             *bool                `json:"success"`
	ObjectivesCompleted int                  `json:"objectivesCompleted"`
	Stats               json.RawMessage      `json:"stats,omitempty"`
	Players             []PlayerMissionStats `json:"players"`
}

package db

import (
	"fmt"
)

func (d *DB) CreateMission(roomCode, hostID string) (string, error) {
	var id string
	err := d.conn.QueryRow(`
		INSERT INTO missions (room_code, host_id, started_at)
		VALUES ($1, $2, now())
		RETURNING id
	`, roomCode, hostID).Scan(&id)
	if err != nil {
		return "", fmt.Errorf("creating mission: %w", err)
	}
	return id, nil
}

// EndMission stores the outcome reported by end_mission. stats is the raw
// JSON the client sent and may be nil.
func (d *DB) EndMission(missionID string, success bool, objectivesCompleted int, stats []byte) error {
	var statsArg any
	if len(stats) > 0 {
		statsArg = string(stats)
	}
	_, err := d.conn.Exec(`
		UPDATE missions
		SET ended_at = now(), success = $2, objectives_completed = $3, stats = $4::jsonb
		WHERE id = $1
	`, missionID, success, objectivesCompleted, statsArg)
	if err != nil {
		return fmt.Errorf("ending mission: %w", err)
	}
	return nil
}

// AbandonMission closes a mission whose room went away before end_mission.
// success stays NULL.
func (d *DB) AbandonMission(missionID string) error {
	_, err := d.conn.Exec(`
		UPDATE missions SET ended_at = now() WHERE id = $1 AND ended_at IS NULL
	`, missionID)
	if err != nil {
		return fmt.Errorf("abandoning mission: %w", err)
	}
	return nil
}

func (d *DB) AddMissionPlayer(missionID, playerID, role, shape string, finalScore int) error {
	_, err := d.conn.Exec(`
		INSERT INTO mission_players (mission_id, player_id, role, shape, final_score)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (mission_id, player_id) DO UPDATE SET final_score = $5
	`, missionID, playerID, role, shape, finalScore)
	if err != nil {
		return fmt.Errorf("adding mission player: %w", err)
	}
	return nil
}

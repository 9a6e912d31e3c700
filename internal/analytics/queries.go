package analytics

import (
	"fmt"
	"metromanic/internal/db"
)

type Queries struct {
	DB *db.DB
}

func NewQueries(database *db.DB) *Queries {
	return &Queries{DB: database}
}

// LeaderboardCategories lists the accepted values of GetLeaderboard's category.
var LeaderboardCategories = []string{"score", "missions", "deliveries"}

func (q *Queries) GetPlayerMissionStats(missionID, playerID string) (*PlayerMissionStats, error) {
	stats := &PlayerMissionStats{
		MissionID: missionID,
		PlayerID:  playerID,
	}

	err := q.DB.QueryRow(`
		SELECT p.name, mp.role, mp.shape, mp.final_score
		FROM mission_players mp
		JOIN players p ON p.id = mp.player_id
		WHERE mp.mission_id = $1 AND mp.player_id = $2
	`, missionID, playerID).Scan(&stats.PlayerName, &stats.Role, &stats.Shape, &stats.Score)
	if err != nil {
		return nil, fmt.Errorf("getting mission player: %w", err)
	}

	err = q.DB.QueryRow(`
		SELECT
			COUNT(*) FILTER (WHERE kind = 'station_added') as stations,
			COUNT(*) FILTER (WHERE kind = 'line_created') as lines,
			COUNT(*) FILTER (WHERE kind = 'station_connected') as connections,
			COUNT(*) FILTER (WHERE kind = 'passenger_delivered') as deliveries
		FROM mission_actions
		WHERE mission_id = $1 AND player_id = $2
	`, missionID, playerID).Scan(&stats.Stations, &stats.Lines, &stats.Connections, &stats.Deliveries)
	if err != nil {
		return nil, fmt.Errorf("getting action stats: %w", err)
	}

	return stats, nil
}

func (q *Queries) GetPlayerLifetimeStats(playerID string) (*PlayerLifetimeStats, error) {
	stats := &PlayerLifetimeStats{
		PlayerID: playerID,
	}

	player, err := q.DB.GetPlayer(playerID)
	if err != nil {
		return nil, err
	}
	stats.PlayerName = player.Name

	err = q.DB.QueryRow(`
		SELECT
			COUNT(*) as missions_played,
			COUNT(*) FILTER (WHERE m.success) as missions_won,
			COALESCE(SUM(mp.final_score), 0) as total_score,
			COALESCE(MAX(mp.final_score), 0) as best_mission
		FROM mission_players mp
		JOIN missions m ON m.id = mp.mission_id
		WHERE mp.player_id = $1
	`, playerID).Scan(&stats.MissionsPlayed, &stats.MissionsWon, &stats.TotalScore, &stats.BestMission)
	if err != nil {
		return nil, fmt.Errorf("getting lifetime stats: %w", err)
	}

	// Most recent consecutive successful missions.
	rows, err := q.DB.Query(`
		SELECT COALESCE(m.success, false)
		FROM mission_players mp
		JOIN missions m ON m.id = mp.mission_id
		WHERE mp.player_id = $1 AND m.ended_at IS NOT NULL
		ORDER BY m.ended_at DESC
	`, playerID)
	if err != nil {
		return nil, fmt.Errorf("getting success streak: %w", err)
	}
	defer rows.Close()

	streak := 0
	for rows.Next() {
		var success bool
		if err := rows.Scan(&success); err != nil {
			return nil, err
		}
		if !success {
			break
		}
		streak++
	}
	stats.SuccessStreak = streak

	stats.Badges = EvaluateLifetimeBadges(*stats)

	awarded, err := q.DB.GetPlayerBadges(playerID)
	if err != nil {
		return nil, err
	}
	stats.Awarded = awarded

	return stats, nil
}

func (q *Queries) GetLeaderboard(category string, limit int) ([]LeaderboardEntry, error) {
	var query string
	switch category {
	case "score":
		query = `
			SELECT p.id, p.name, COALESCE(SUM(mp.final_score), 0) as value
			FROM players p
			JOIN mission_players mp ON mp.player_id = p.id
			GROUP BY p.id, p.name
			ORDER BY value DESC
			LIMIT $1`
	case "missions":
		query = `
			SELECT p.id, p.name, COUNT(*) FILTER (WHERE m.success) as value
			FROM players p
			JOIN mission_players mp ON mp.player_id = p.id
			JOIN missions m ON m.id = mp.mission_id
			GROUP BY p.id, p.name
			ORDER BY value DESC
			LIMIT $1`
	case "deliveries":
		query = `
			SELECT p.id, p.name, COUNT(*) as value
			FROM players p
			JOIN mission_actions ma ON ma.player_id = p.id AND ma.kind = 'passenger_delivered'
			GROUP BY p.id, p.name
			ORDER BY value DESC
			LIMIT $1`
	default:
		return nil, fmt.Errorf("unknown leaderboard category: %s", category)
	}

	rows, err := q.DB.Query(query, limit)
	if err != nil {
		return nil, fmt.Errorf("getting leaderboard: %w", err)
	}
	defer rows.Close()

	entries := []LeaderboardEntry{}
	rank := 1
	for rows.Next() {
		var e LeaderboardEntry
		if err := rows.Scan(&e.PlayerID, &e.PlayerName, &e.Value); err != nil {
			return nil, err
		}
		e.Rank = rank
		rank++
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

func (q *Queries) GetMissionRecap(missionID string) (*MissionRecap, error) {
	recap := &MissionRecap{MissionID: missionID}

	var stats []byte
	err := q.DB.QueryRow(`
		SELECT room_code, started_at, ended_at, success, objectives_completed, stats
		FROM missions WHERE id = $1
	`, missionID).Scan(&recap.RoomCode, &recap.StartedAt, &recap.EndedAt, &recap.Success, &recap.ObjectivesCompleted, &stats)
	if err != nil {
		return nil, fmt.Errorf("getting mission: %w", err)
	}
	recap.Stats = stats

	rows, err := q.DB.Query(`
		SELECT player_id FROM mission_players WHERE mission_id = $1 ORDER BY final_score DESC, player_id
	`, missionID)
	if err != nil {
		return nil, fmt.Errorf("getting mission players: %w", err)
	}
	var playerIDs []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			rows.Close()
			return nil, err
		}
		playerIDs = append(playerIDs, id)
	}
	rows.Close()

	recap.Players = []PlayerMissionStats{}
	for _, id := range playerIDs {
		stats, err := q.GetPlayerMissionStats(missionID, id)
		if err != nil {
			return nil, err
		}
		recap.Players = append(recap.Players, *stats)
	}

	return recap, nil
}

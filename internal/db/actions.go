package db

import (
	"fmt"
	"time"
)

// ActionRecord is one authoritative gameplay action. LineID and StationID
// are nil for kinds that do not reference them.
type ActionRecord struct {
	MissionID string
	PlayerID  string
	Kind      string
	LineID    *int
	StationID *int
	Detail    string
	At        time.Time
}

const insertAction = `
	INSERT INTO mission_actions (mission_id, player_id, kind, line_id, station_id, detail, created_at)
	VALUES ($1, $2, $3, $4, $5, $6, $7)
`

func (d *DB) RecordAction(a ActionRecord) error {
	_, err := d.conn.Exec(insertAction, a.MissionID, a.PlayerID, a.Kind, a.LineID, a.StationID, a.Detail, a.At)
	if err != nil {
		return fmt.Errorf("recording action: %w", err)
	}
	return nil
}

func (d *DB) BatchRecordActions(actions []ActionRecord) error {
	tx, err := d.conn.Begin()
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.Prepare(insertAction)
	if err != nil {
		return fmt.Errorf("preparing statement: %w", err)
	}
	defer stmt.Close()

	for _, a := range actions {
		if _, err := stmt.Exec(a.MissionID, a.PlayerID, a.Kind, a.LineID, a.StationID, a.Detail, a.At); err != nil {
			return fmt.Errorf("recording action in batch: %w", err)
		}
	}

	return tx.Commit()
}

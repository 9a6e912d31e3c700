package server

import (
	"log"
	"metromanic/internal/analytics"
	"metromanic/internal/db"
	"metromanic/internal/events"
	"metromanic/internal/gamedata"
	"metromanic/internal/mission"
	"time"
)

// missionStore is the part of *db.DB the recorder writes through.
type missionStore interface {
	UpsertPlayer(id, name string) error
	CreateMission(roomCode, hostID string) (string, error)
	AddMissionPlayer(missionID, playerID, role, shape string, finalScore int) error
	EndMission(missionID string, success bool, objectivesCompleted int, stats []byte) error
	AbandonMission(missionID string) error
	AwardBadge(playerID, badgeID string, missionID *string) error
	RecordAction(a db.ActionRecord) error
}

type liveMission struct {
	id    string
	tally *analytics.Tally
}

// recorder turns bus events into mission history. It runs on its own
// goroutine so database latency never reaches the relay.
type recorder struct {
	store    missionStore
	actions  chan<- db.ActionRecord
	missions map[string]*liveMission // room code -> running mission
}

func newRecorder(store missionStore, actions chan<- db.ActionRecord) *recorder {
	return &recorder{
		store:    store,
		actions:  actions,
		missions: make(map[string]*liveMission),
	}
}

func (rec *recorder) run(sub <-chan events.Event) {
	for ev := range sub {
		rec.handle(ev)
	}
}

func (rec *recorder) handle(ev events.Event) {
	switch ev.Kind {
	case events.PlayerJoined, events.PlayerRejoined:
		if err := rec.store.UpsertPlayer(ev.PlayerID, ev.Detail); err != nil {
			log.Printf("[DB] UpsertPlayer error: %v\n", err)
		}

	case events.GameStarted:
		rec.startMission(ev)

	case events.StationAdded, events.LineCreated, events.StationConnected, events.PassengerDelivered:
		m, ok := rec.missions[ev.RoomCode]
		if !ok {
			return
		}
		m.tally.Observe(ev)
		a := actionRecord(m.id, ev)
		select {
		case rec.actions <- a:
		default:
			// Batch writer is behind; write this one directly.
			if err := rec.store.RecordAction(a); err != nil {
				log.Printf("[DB] RecordAction error: %v\n", err)
			}
		}

	case events.MissionEnded:
		rec.endMission(ev)

	case events.RoomDestroyed:
		m, ok := rec.missions[ev.RoomCode]
		if !ok {
			return
		}
		delete(rec.missions, ev.RoomCode)
		if err := rec.store.AbandonMission(m.id); err != nil {
			log.Printf("[DB] AbandonMission error: %v\n", err)
		}
	}
}

func (rec *recorder) startMission(ev events.Event) {
	if prev, ok := rec.missions[ev.RoomCode]; ok {
		if err := rec.store.AbandonMission(prev.id); err != nil {
			log.Printf("[DB] AbandonMission error: %v\n", err)
		}
		delete(rec.missions, ev.RoomCode)
	}

	hostID := ""
	for _, p := range ev.Players {
		if err := rec.store.UpsertPlayer(p.ID, p.Name); err != nil {
			log.Printf("[DB] UpsertPlayer error: %v\n", err)
		}
		if p.IsHost {
			hostID = p.ID
		}
	}

	id, err := rec.store.CreateMission(ev.RoomCode, hostID)
	if err != nil {
		log.Printf("[DB] CreateMission error: %v\n", err)
		return
	}

	m := &liveMission{id: id, tally: analytics.NewTally()}
	// Assignments follow seat order, the same round-robin the relay uses.
	for i, p := range ev.Players {
		role := mission.Roles[i%len(mission.Roles)].Name
		shape := string(gamedata.Shapes[i%len(gamedata.Shapes)])
		m.tally.Seat(p.ID, p.Name, role, shape)
		if err := rec.store.AddMissionPlayer(id, p.ID, role, shape, 0); err != nil {
			log.Printf("[DB] AddMissionPlayer error: %v\n", err)
		}
	}
	rec.missions[ev.RoomCode] = m
}

func (rec *recorder) endMission(ev events.Event) {
	m, ok := rec.missions[ev.RoomCode]
	if !ok {
		return
	}
	delete(rec.missions, ev.RoomCode)

	if err := rec.store.EndMission(m.id, ev.Success, ev.Completed, ev.Stats); err != nil {
		log.Printf("[DB] EndMission error: %v\n", err)
	}

	outcome := analytics.MissionOutcome{
		Success:             ev.Success,
		ObjectivesCompleted: ev.Completed,
		ObjectivesTotal:     mission.ObjectivesPerMission,
	}
	missionID := m.id
	for _, stats := range m.tally.Finish(m.id, ev.Players) {
		if err := rec.store.AddMissionPlayer(m.id, stats.PlayerID, stats.Role, stats.Shape, stats.Score); err != nil {
			log.Printf("[DB] AddMissionPlayer error: %v\n", err)
		}
		for _, badge := range analytics.EvaluateMissionBadges(stats, outcome) {
			if err := rec.store.AwardBadge(stats.PlayerID, string(badge.ID), &missionID); err != nil {
				log.Printf("[DB] AwardBadge error: %v\n", err)
			}
		}
	}
	log.Printf("[DB] Recorded mission %s for room %s\n", m.id, ev.RoomCode)
}

func actionRecord(missionID string, ev events.Event) db.ActionRecord {
	a := db.ActionRecord{
		MissionID: missionID,
		PlayerID:  ev.PlayerID,
		Kind:      string(ev.Kind),
		Detail:    ev.Detail,
		At:        ev.At,
	}
	switch ev.Kind {
	case events.LineCreated:
		a.LineID = &ev.LineID
	case events.StationConnected:
		a.LineID = &ev.LineID
		a.StationID = &ev.StationID
	case events.StationAdded, events.PassengerDelivered:
		a.StationID = &ev.StationID
	}
	return a
}

// actionBatchWriter drains the action buffer into the database in batches,
// flushing at 50 rows or every half second.
func actionBatchWriter(database *db.DB, buffer chan db.ActionRecord) {
	ticker := time.NewTicker(500 * time.Millisecond)
	defer ticker.Stop()

	batch := make([]db.ActionRecord, 0, 50)

	flush := func() {
		if len(batch) == 0 {
			return
		}
		if err := database.BatchRecordActions(batch); err != nil {
			log.Printf("[DB] BatchRecordActions error: %v\n", err)
		}
		batch = batch[:0]
	}

	for {
		select {
		case a := <-buffer:
			batch = append(batch, a)
			if len(batch) >= 50 {
				flush()
			}
		case <-ticker.C:
			flush()
		}
	}
}

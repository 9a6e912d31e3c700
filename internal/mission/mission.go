package mission

import (
	"encoding/json"
	"errors"
	"math/rand"
	"metromanic/internal/gamedata"
)

type Status string

const (
	Inactive = Status("inactive")
	Active   = Status("active")
	Ended    = Status("ended")
)

var (
	ErrNotActive         = errors.New("mission is not active")
	ErrObjectiveNotFound = errors.New("objective not found")
)

// Mission tracks the team objectives of one room from start_game to
// end_mission. Completion is reported by clients; the mission never decides
// success on its own.
type Mission struct {
	Status     Status
	Objectives []*Objective
	Roles      map[string]Role
	Shapes     map[string]gamedata.StationType
	Success    *bool
	Stats      json.RawMessage
}

func New() *Mission {
	return &Mission{
		Status:     Inactive,
		Objectives: []*Objective{},
		Roles:      map[string]Role{},
		Shapes:     map[string]gamedata.StationType{},
	}
}

// Start assigns roles and shapes to the seated players and draws a fresh
// objective set.
func (m *Mission) Start(playerIDs []string, rng *rand.Rand) {
	m.Status = Active
	m.Roles = AssignRoles(playerIDs)
	m.Shapes = AssignShapes(playerIDs)
	m.Objectives = GenerateObjectives(rng)
	m.Success = nil
	m.Stats = nil
}

func (m *Mission) Objective(id string) *Objective {
	for _, o := range m.Objectives {
		if o.ID == id {
			return o
		}
	}
	return nil
}

// ReportProgress applies a client claim verbatim. Last report wins.
func (m *Mission) ReportProgress(id string, progress float64, completed bool) (*Objective, error) {
	if m.Status == Inactive {
		return nil, ErrNotActive
	}
	o := m.Objective(id)
	if o == nil {
		return nil, ErrObjectiveNotFound
	}
	o.Progress = progress
	o.Completed = completed
	return o, nil
}

// Derive raises count-based objectives to the relay's own counts. Progress
// never goes down and completion is never withdrawn. The changed objectives
// are returned.
func (m *Mission) Derive(c Counts) []*Objective {
	if m.Status != Active {
		return nil
	}
	var changed []*Objective
	for _, o := range m.Objectives {
		v, ok := c.forType(o.Type)
		if !ok || v <= o.Progress {
			continue
		}
		o.Progress = v
		if v >= o.Target {
			o.Completed = true
		}
		changed = append(changed, o)
	}
	return changed
}

func (m *Mission) End(success bool, stats json.RawMessage) error {
	if m.Status == Inactive {
		return ErrNotActive
	}
	m.Status = Ended
	m.Success = &success
	m.Stats = stats
	return nil
}

func (m *Mission) Ended() bool {
	return m.Status == Ended
}

func (m *Mission) CompletedCount() int {
	n := 0
	for _, o := range m.Objectives {
		if o.Completed {
			n++
		}
	}
	return n
}

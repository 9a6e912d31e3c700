package mission

import (
	"math/rand"
	"metromanic/internal/gamedata"
	"strconv"
	"strings"

	"github.com/google/uuid"
)

type ObjectiveType string

const (
	PassengerCount  = ObjectiveType("passenger_count")
	LineCount       = ObjectiveType("line_count")
	StationCount    = ObjectiveType("station_count")
	ShapeConnection = ObjectiveType("shape_connection")
	TimeChallenge   = ObjectiveType("time_challenge")
)

// ObjectivesPerMission is the size of the set drawn at start_game.
const ObjectivesPerMission = 5

type Objective struct {
	ID          string               `json:"id"`
	Type        ObjectiveType        `json:"type"`
	Description string               `json:"description"`
	Target      float64              `json:"target"`
	Progress    float64              `json:"progress"`
	Completed   bool                 `json:"completed"`
	Shape       gamedata.StationType `json:"shape,omitempty"`
	TimeLimit   int                  `json:"time,omitempty"` // seconds
}

type template struct {
	Type        ObjectiveType
	Description string
	Target      float64
	TimeLimit   int
}

// shape_connection progress is the connected fraction of that shape's
// stations, so its target is 1.
var templates = []template{
	{Type: PassengerCount, Description: "Deliver {count} passengers", Target: 10},
	{Type: LineCount, Description: "Build {count} subway lines", Target: 3},
	{Type: StationCount, Description: "Build {count} stations", Target: 5},
	{Type: ShapeConnection, Description: "Connect all {shape} stations", Target: 1},
	{Type: TimeChallenge, Description: "Deliver {count} passengers within {time} seconds", Target: 5, TimeLimit: 60},
}

// GenerateObjectives draws ObjectivesPerMission objectives from the template
// pool with replacement.
func GenerateObjectives(rng *rand.Rand) []*Objective {
	objectives := make([]*Objective, 0, ObjectivesPerMission)
	for range ObjectivesPerMission {
		tpl := templates[rng.Intn(len(templates))]
		obj := &Objective{
			ID:        uuid.New().String(),
			Type:      tpl.Type,
			Target:    tpl.Target,
			TimeLimit: tpl.TimeLimit,
		}
		if tpl.Type == ShapeConnection {
			obj.Shape = gamedata.Shapes[rng.Intn(len(gamedata.Shapes))]
		}
		obj.Description = strings.NewReplacer(
			"{count}", strconv.Itoa(int(tpl.Target)),
			"{time}", strconv.Itoa(tpl.TimeLimit),
			"{shape}", string(obj.Shape),
		).Replace(tpl.Description)
		objectives = append(objectives, obj)
	}
	return objectives
}

// Counts are the values the relay can derive from its own replica.
type Counts struct {
	Stations   int
	Lines      int
	Deliveries int
}

func (c Counts) forType(t ObjectiveType) (float64, bool) {
	switch t {
	case StationCount:
		return float64(c.Stations), true
	case LineCount:
		return float64(c.Lines), true
	case PassengerCount:
		return float64(c.Deliveries), true
	}
	return 0, false
}

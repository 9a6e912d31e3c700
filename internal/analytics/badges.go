package analytics

type BadgeID string

const (
	BadgeStationPlanner BadgeID = "station_planner"
	BadgeLineBoss       BadgeID = "line_boss"
	BadgeConductor      BadgeID = "conductor"
	BadgeMissionCleared BadgeID = "mission_cleared"
	BadgePerfectRun     BadgeID = "perfect_run"
	BadgeUnstoppable    BadgeID = "unstoppable"
	BadgeVeteran        BadgeID = "veteran"
)

type Badge struct {
	ID          BadgeID `json:"id"`
	Name        string  `json:"name"`
	Description string  `json:"description"`
	Icon        string  `json:"icon"`
}

var AllBadges = map[BadgeID]Badge{
	BadgeStationPlanner: {ID: BadgeStationPlanner, Name: "Station Planner", Description: "Placed 5+ stations in a mission", Icon: "station"},
	BadgeLineBoss:       {ID: BadgeLineBoss, Name: "Line Boss", Description: "Opened 3+ lines in a mission", Icon: "line"},
	BadgeConductor:      {ID: BadgeConductor, Name: "Conductor", Description: "Delivered 10+ passengers in a mission", Icon: "traffic"},
	BadgeMissionCleared: {ID: BadgeMissionCleared, Name: "Mission Cleared", Description: "Part of a successful mission", Icon: "network"},
	BadgePerfectRun:     {ID: BadgePerfectRun, Name: "Perfect Run", Description: "Every objective completed in a mission", Icon: "star"},
	BadgeUnstoppable:    {ID: BadgeUnstoppable, Name: "Unstoppable", Description: "3 successful missions in a row", Icon: "fire"},
	BadgeVeteran:        {ID: BadgeVeteran, Name: "Veteran", Description: "Played 10+ missions", Icon: "medal"},
}

// EvaluateMissionBadges checks which badges a player earned in one mission.
// Team badges go to everyone seated when the mission ended.
func EvaluateMissionBadges(stats PlayerMissionStats, outcome MissionOutcome) []Badge {
	var earned []Badge

	if stats.Stations >= 5 {
		earned = append(earned, AllBadges[BadgeStationPlanner])
	}
	if stats.Lines >= 3 {
		earned = append(earned, AllBadges[BadgeLineBoss])
	}
	if stats.Deliveries >= 10 {
		earned = append(earned, AllBadges[BadgeConductor])
	}
	if outcome.Success {
		earned = append(earned, AllBadges[BadgeMissionCleared])
	}
	if outcome.ObjectivesTotal > 0 && outcome.ObjectivesCompleted >= outcome.ObjectivesTotal {
		earned = append(earned, AllBadges[BadgePerfectRun])
	}

	return earned
}

// EvaluateLifetimeBadges checks which badges a player earned across their career.
func EvaluateLifetimeBadges(stats PlayerLifetimeStats) []Badge {
	var earned []Badge

	if stats.SuccessStreak >= 3 {
		earned = append(earned, AllBadges[BadgeUnstoppable])
	}
	if stats.MissionsPlayed >= 10 {
		earned = append(earned, AllBadges[BadgeVeteran])
	}

	return earned
}

package mission

import "metromanic/internal/gamedata"

type Role struct {
	Name        string `json:"name"`
	Icon        string `json:"icon"`
	Description string `json:"description"`
}

var Roles = []Role{
	{Name: "Line Manager", Icon: "line", Description: "Create efficient subway lines connecting stations"},
	{Name: "Station Planner", Icon: "station", Description: "Place stations at strategic locations"},
	{Name: "Traffic Coordinator", Icon: "traffic", Description: "Ensure smooth passenger flow and prevent overcrowding"},
	{Name: "Network Designer", Icon: "network", Description: "Design the overall network layout and plan for expansions"},
}

// AssignRoles hands out roles round-robin in seat order.
func AssignRoles(playerIDs []string) map[string]Role {
	out := make(map[string]Role, len(playerIDs))
	for i, id := range playerIDs {
		out[id] = Roles[i%len(Roles)]
	}
	return out
}

// AssignShapes hands out station shapes round-robin in seat order.
func AssignShapes(playerIDs []string) map[string]gamedata.StationType {
	out := make(map[string]gamedata.StationType, len(playerIDs))
	for i, id := range playerIDs {
		out[id] = gamedata.Shapes[i%len(gamedata.Shapes)]
	}
	return out
}

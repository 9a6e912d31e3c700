package players

// Roster is the ordered seat list of one room. Order is join order and
// decides host succession. A Roster is owned by the relay and is not safe
// for concurrent use.
type Roster struct {
	players []*Player
}

func NewRoster() *Roster {
	return &Roster{}
}

// Add seats p at the end of the list. The first seated player becomes host.
// It returns false when the roster is already full.
func (r *Roster) Add(p *Player) bool {
	if len(r.players) >= MaxPlayers {
		return false
	}
	p.IsHost = len(r.players) == 0
	r.players = append(r.players, p)
	return true
}

func (r *Roster) Get(id string) *Player {
	for _, p := range r.players {
		if p.ID == id {
			return p
		}
	}
	return nil
}

// Remove drops the player and, if they held the host seat, promotes the
// first remaining player. It returns the removed player or nil.
func (r *Roster) Remove(id string) *Player {
	for i, p := range r.players {
		if p.ID != id {
			continue
		}
		r.players = append(r.players[:i], r.players[i+1:]...)
		if p.IsHost && len(r.players) > 0 {
			r.players[0].IsHost = true
		}
		return p
	}
	return nil
}

func (r *Roster) Host() *Player {
	for _, p := range r.players {
		if p.IsHost {
			return p
		}
	}
	return nil
}

func (r *Roster) AddScore(id string, points int) *Player {
	if p := r.Get(id); p != nil {
		p.Score += points
		return p
	}
	return nil
}

// ResetScores zeroes every seat's score for a fresh mission.
func (r *Roster) ResetScores() {
	for _, p := range r.players {
		p.Score = 0
	}
}

func (r *Roster) Count() int {
	return len(r.players)
}

func (r *Roster) Full() bool {
	return len(r.players) >= MaxPlayers
}

// GetList returns value copies in seat order, safe to marshal after the
// relay releases the room.
func (r *Roster) GetList() []Player {
	list := make([]Player, 0, len(r.players))
	for _, p := range r.players {
		list = append(list, *p)
	}
	return list
}

func (r *Roster) IDs() []string {
	ids := make([]string, 0, len(r.players))
	for _, p := range r.players {
		ids = append(ids, p.ID)
	}
	return ids
}

func (r *Roster) TotalScore() int {
	total := 0
	for _, p := range r.players {
		total += p.Score
	}
	return total
}

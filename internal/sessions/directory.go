package sessions

// Binding ties one live connection to a seat in a room.
type Binding struct {
	PlayerID string
	RoomCode string
}

// Directory resolves inbound connections to (player, room) and stable
// player ids back to their room, so rejoin never scans the registry.
type Directory struct {
	byConn   map[string]Binding
	byPlayer map[string]string // player id -> room code
}

func NewDirectory() *Directory {
	return &Directory{
		byConn:   make(map[string]Binding),
		byPlayer: make(map[string]string),
	}
}

func (d *Directory) Bind(connID, playerID, roomCode string) {
	d.byConn[connID] = Binding{PlayerID: playerID, RoomCode: roomCode}
	d.byPlayer[playerID] = roomCode
}

func (d *Directory) Lookup(connID string) (Binding, bool) {
	b, ok := d.byConn[connID]
	return b, ok
}

// Unbind drops the connection entry only. The player's room index survives
// so a later rejoin can find the seat.
func (d *Directory) Unbind(connID string) (Binding, bool) {
	b, ok := d.byConn[connID]
	if ok {
		delete(d.byConn, connID)
	}
	return b, ok
}

func (d *Directory) RoomOf(playerID string) (string, bool) {
	code, ok := d.byPlayer[playerID]
	return code, ok
}

// Forget removes the player index once the seat is gone for good.
func (d *Directory) Forget(playerID string) {
	delete(d.byPlayer, playerID)
}

func (d *Directory) Len() int {
	return len(d.byConn)
}

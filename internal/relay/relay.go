package relay

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"math/rand"
	"metromanic/internal/events"
	"metromanic/internal/gamedata"
	"metromanic/internal/metrics"
	"metromanic/internal/mission"
	"metromanic/internal/players"
	"metromanic/internal/rooms"
	"metromanic/internal/sessions"
	"metromanic/internal/wshub"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

type Config struct {
	ReconnectGrace time.Duration
	RoomTTL        time.Duration
	SweepInterval  time.Duration
}

// ConnState is where a connection sits in the join/start lifecycle.
type ConnState string

const (
	Unbound      = ConnState("unbound")
	Joined       = ConnState("joined")
	InGame       = ConnState("in_game")
	Disconnected = ConnState("disconnected")
)

type departure struct {
	timer *time.Timer
}

// Relay owns every room, seat and session. All message handling runs under
// one mutex, so each inbound message is applied atomically and no handler
// ever waits on a socket: outbound frames go through each client's buffer.
type Relay struct {
	mu         sync.Mutex
	rooms      *rooms.Store
	sessions   *sessions.Directory
	conns      map[string]*wshub.Client
	departures map[string]*departure // player id -> pending seat release
	bus        *events.Bus
	metrics    *metrics.Metrics
	cfg        Config
	now        func() time.Time
	rng        *rand.Rand
}

func New(store *rooms.Store, bus *events.Bus, m *metrics.Metrics, cfg Config) *Relay {
	return &Relay{
		rooms:      store,
		sessions:   sessions.NewDirectory(),
		conns:      make(map[string]*wshub.Client),
		departures: make(map[string]*departure),
		bus:        bus,
		metrics:    m,
		cfg:        cfg,
		now:        time.Now,
		rng:        rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// Connect registers a new transport connection. It starts Unbound.
func (r *Relay) Connect(c *wshub.Client) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.conns[c.ID] = c
	r.metrics.ConnectionOpened()
	log.Printf("[Relay] Client connected: %s\n", c.ID)
}

// Disconnect handles transport loss. A seated player keeps the seat for the
// reconnect grace period; with no grace the seat is released at once.
func (r *Relay) Disconnect(connID string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	c, ok := r.conns[connID]
	if !ok {
		return
	}
	delete(r.conns, connID)
	c.Close()
	r.metrics.ConnectionClosed()
	log.Printf("[Relay] Client disconnected: %s\n", connID)

	b, ok := r.sessions.Unbind(connID)
	if !ok {
		return
	}
	room := r.rooms.Get(b.RoomCode)
	if room == nil {
		r.sessions.Forget(b.PlayerID)
		return
	}
	room.Hub.Unregister(connID)

	p := room.Players.Get(b.PlayerID)
	if p == nil || p.ConnectionID != connID {
		return
	}
	p.Connected = false
	p.ConnectionID = ""

	if r.cfg.ReconnectGrace <= 0 {
		r.releaseSeat(room, p.ID)
		return
	}
	playerID := p.ID
	d := &departure{}
	d.timer = time.AfterFunc(r.cfg.ReconnectGrace, func() {
		r.expireSeat(playerID, d)
	})
	r.departures[playerID] = d
	log.Printf("[Relay] Holding seat of %s in room %s for %s\n", p.Name, room.Code, r.cfg.ReconnectGrace)
}

// expireSeat runs when a grace timer fires. A timer superseded by a rejoin
// or a later disconnect finds its departure gone and does nothing.
func (r *Relay) expireSeat(playerID string, d *departure) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.departures[playerID] != d {
		return
	}
	code, ok := r.sessions.RoomOf(playerID)
	if !ok {
		return
	}
	room := r.rooms.Get(code)
	if room == nil {
		r.sessions.Forget(playerID)
		return
	}
	p := room.Players.Get(playerID)
	if p == nil || p.Connected {
		return
	}
	r.releaseSeat(room, playerID)
}

// releaseSeat removes a player for good. The room is destroyed when it
// empties, otherwise the remaining players learn the new list.
func (r *Relay) releaseSeat(room *rooms.Room, playerID string) {
	r.cancelDeparture(playerID)
	r.sessions.Forget(playerID)

	p := room.Players.Remove(playerID)
	if p == nil {
		return
	}
	now := r.now()
	log.Printf("[Relay] Player %s left room %s\n", p.Name, room.Code)

	if room.Players.Count() == 0 {
		r.destroyRoom(room, "empty")
		return
	}
	if p.IsHost {
		log.Printf("[Relay] %s is now host of room %s\n", room.Players.Host().Name, room.Code)
	}
	room.Touch(now)
	list := room.Players.GetList()
	room.Hub.Broadcast(wshub.ServerMessage{
		Event: EventPlayerLeft,
		Data:  PlayerLeft{PlayerID: p.ID, Players: list},
	})
	r.bus.Publish(events.Event{
		Kind:     events.PlayerLeft,
		RoomCode: room.Code,
		PlayerID: p.ID,
		Players:  playerRefs(list),
		At:       now,
	})
}

func (r *Relay) cancelDeparture(playerID string) {
	if d, ok := r.departures[playerID]; ok {
		d.timer.Stop()
		delete(r.departures, playerID)
	}
}

func (r *Relay) destroyRoom(room *rooms.Room, reason string) {
	r.rooms.Delete(room.Code)
	for _, id := range room.Players.IDs() {
		r.cancelDeparture(id)
		r.sessions.Forget(id)
	}
	for _, c := range room.Hub.Clear() {
		r.sessions.Unbind(c.ID)
	}
	r.metrics.RoomDestroyed(reason)
	r.metrics.SetRooms(r.rooms.Len())
	r.bus.Publish(events.Event{
		Kind:     events.RoomDestroyed,
		RoomCode: room.Code,
		Detail:   reason,
		At:       r.now(),
	})
	log.Printf("[Relay] Room %s destroyed (%s)\n", room.Code, reason)
}

// Handle processes one inbound frame. A panic inside a handler costs only
// that message.
func (r *Relay) Handle(connID string, data []byte) {
	r.mu.Lock()
	defer r.mu.Unlock()
	defer func() {
		if rec := recover(); rec != nil {
			log.Printf("[Relay] Recovered panic handling message from %s: %v\n", connID, rec)
		}
	}()

	c, ok := r.conns[connID]
	if !ok {
		return
	}
	var msg wshub.ClientMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		if _, bound := r.sessions.Lookup(connID); bound {
			r.reject(c, "", invalidPayload("message"))
		}
		return
	}
	if knownEvent(msg.Event) {
		r.metrics.Message(msg.Event)
	} else {
		r.metrics.Message("unknown")
	}
	if err := r.dispatch(c, msg); err != nil {
		r.reject(c, msg.Event, err)
	}
}

func (r *Relay) reject(c *wshub.Client, event string, err error) {
	var rerr *Error
	if !errors.As(err, &rerr) {
		rerr = &Error{Code: CodeInternal, Message: "Internal error"}
		log.Printf("[Relay] %s from %s failed: %v\n", event, c.ID, err)
	}
	if rerr.Code == CodeSessionNotFound {
		return
	}
	r.metrics.Rejected(string(rerr.Code))
	log.Printf("[Relay] Rejected %s from %s: %s\n", event, c.ID, rerr.Code)
	send(c, EventError, ErrorPayload{Code: rerr.Code, Message: rerr.Message})
}

func (r *Relay) dispatch(c *wshub.Client, msg wshub.ClientMessage) error {
	switch msg.Event {
	case EventJoinGame:
		return r.joinGame(c, msg.Data)
	case EventRejoinGame:
		return r.rejoinGame(c, msg.Data)
	}

	b, ok := r.sessions.Lookup(c.ID)
	if !ok {
		return ErrSessionNotFound
	}
	room := r.rooms.Get(b.RoomCode)
	if room == nil {
		return ErrSessionNotFound
	}
	room.Touch(r.now())

	switch msg.Event {
	case EventStartGame:
		return r.startGame(room, b.PlayerID)
	case EventGameAction:
		return r.gameAction(c, room, b.PlayerID, msg.Data)
	case EventTeamworkAction:
		return r.teamworkAction(room, b.PlayerID, msg.Data)
	case EventObjectiveProgress:
		return r.objectiveProgress(room, b.PlayerID, msg.Data)
	case EventEndMission:
		return r.endMission(room, msg.Data)
	}
	return ErrUnknownEvent
}

func (r *Relay) joinGame(c *wshub.Client, raw json.RawMessage) error {
	if _, bound := r.sessions.Lookup(c.ID); bound {
		return ErrAlreadyJoined
	}
	var req JoinGame
	if err := decode(raw, &req); err != nil {
		return invalidPayload(EventJoinGame)
	}

	code := rooms.NormalizeCode(req.RoomCode)
	if code != "" && !rooms.ValidCode(code) {
		return errBadRoomCode
	}
	now := r.now()
	room, created, err := r.rooms.GetOrCreate(code, now)
	if err != nil {
		return err
	}
	isDefault := code == ""
	if room.Started {
		if isDefault {
			return errDefaultGameStarted
		}
		return ErrGameStarted
	}
	if room.Players.Full() {
		if isDefault {
			return errDefaultRoomFull
		}
		return ErrRoomFull
	}

	name := strings.TrimSpace(req.PlayerName)
	if name == "" {
		name = "Player"
	}
	p := &players.Player{
		ID:           uuid.NewString(),
		ConnectionID: c.ID,
		Name:         name,
		Connected:    true,
		JoinedAt:     now,
	}
	room.Players.Add(p)
	r.sessions.Bind(c.ID, p.ID, room.Code)
	room.Hub.Register(c)
	room.Touch(now)

	list := room.Players.GetList()
	send(c, EventGameJoined, GameJoined{
		RoomCode: room.Code,
		PlayerID: p.ID,
		IsHost:   p.IsHost,
		Players:  list,
	})
	room.Hub.Broadcast(wshub.ServerMessage{Event: EventPlayerJoined, Data: PlayerList{Players: list}})

	if created {
		r.metrics.SetRooms(r.rooms.Len())
		r.bus.Publish(events.Event{Kind: events.RoomCreated, RoomCode: room.Code, At: now})
	}
	r.bus.Publish(events.Event{
		Kind:     events.PlayerJoined,
		RoomCode: room.Code,
		PlayerID: p.ID,
		Detail:   p.Name,
		Players:  playerRefs(list),
		At:       now,
	})
	log.Printf("[Relay] Player %s joined room %s\n", p.Name, room.Code)
	return nil
}

func (r *Relay) startGame(room *rooms.Room, playerID string) error {
	p := room.Players.Get(playerID)
	if p == nil || !p.IsHost {
		return ErrNotHost
	}
	if room.Started && !room.Mission.Ended() {
		return ErrGameStarted
	}
	if room.Mission.Ended() {
		room.State = gamedata.NewState()
		room.Players.ResetScores()
	}

	room.Started = true
	room.Mission.Start(room.Players.IDs(), r.rng)

	list := room.Players.GetList()
	room.Hub.Broadcast(wshub.ServerMessage{Event: EventGameStarted, Data: gameStarted(room, list)})
	r.bus.Publish(events.Event{
		Kind:     events.GameStarted,
		RoomCode: room.Code,
		PlayerID: playerID,
		Players:  playerRefs(list),
		At:       r.now(),
	})
	log.Printf("[Relay] Game started in room %s with %d players\n", room.Code, len(list))
	return nil
}

func (r *Relay) gameAction(c *wshub.Client, room *rooms.Room, playerID string, raw json.RawMessage) error {
	if !room.Started {
		return ErrGameNotStarted
	}
	now := r.now()
	action, fields, err := gamedata.DecodeAction(raw, playerID, now)
	if err != nil {
		return invalidPayload(EventGameAction)
	}

	evs := gamedata.Apply(room.State, room.Players, action, room.Code, now)
	room.Hub.BroadcastExcept(c.ID, wshub.ServerMessage{Event: EventGameAction, Data: fields})
	r.bus.Publish(evs...)

	if len(evs) > 0 {
		r.deriveObjectives(room, now)
	}
	return nil
}

// deriveObjectives lifts count-based objectives to the room's own counts
// and announces each one that moved.
func (r *Relay) deriveObjectives(room *rooms.Room, now time.Time) {
	for _, o := range room.Mission.Derive(room.Counts()) {
		room.Hub.Broadcast(wshub.ServerMessage{
			Event: EventObjectiveUpdated,
			Data: ObjectiveUpdated{
				ObjectiveID: o.ID,
				Progress:    o.Progress,
				Completed:   o.Completed,
			},
		})
		r.bus.Publish(events.Event{
			Kind:     events.ObjectiveUpdated,
			RoomCode: room.Code,
			Detail:   o.ID,
			Success:  o.Completed,
			At:       now,
		})
	}
}

func (r *Relay) teamworkAction(room *rooms.Room, playerID string, raw json.RawMessage) error {
	if !room.Started {
		return ErrGameNotStarted
	}
	fields := map[string]any{}
	if err := decode(raw, &fields); err != nil {
		return invalidPayload(EventTeamworkAction)
	}
	fields["playerId"] = playerID
	fields["timestamp"] = r.now().UnixMilli()
	room.Hub.Broadcast(wshub.ServerMessage{Event: EventTeamworkAction, Data: fields})
	return nil
}

func (r *Relay) objectiveProgress(room *rooms.Room, playerID string, raw json.RawMessage) error {
	if !room.Started {
		return ErrGameNotStarted
	}
	var req ObjectiveProgress
	if err := decode(raw, &req); err != nil {
		return invalidPayload(EventObjectiveProgress)
	}
	o, err := room.Mission.ReportProgress(req.ObjectiveID, req.Progress, req.Completed)
	if errors.Is(err, mission.ErrObjectiveNotFound) {
		return ErrObjectiveNotFound
	}
	if err != nil {
		return ErrGameNotStarted
	}

	room.Hub.Broadcast(wshub.ServerMessage{
		Event: EventObjectiveUpdated,
		Data: ObjectiveUpdated{
			ObjectiveID: o.ID,
			Progress:    o.Progress,
			Completed:   o.Completed,
			PlayerID:    playerID,
		},
	})
	r.bus.Publish(events.Event{
		Kind:     events.ObjectiveUpdated,
		RoomCode: room.Code,
		PlayerID: playerID,
		Detail:   o.ID,
		Success:  o.Completed,
		At:       r.now(),
	})
	return nil
}

func (r *Relay) endMission(room *rooms.Room, raw json.RawMessage) error {
	if !room.Started {
		return ErrGameNotStarted
	}
	var req EndMission
	if err := decode(raw, &req); err != nil {
		return invalidPayload(EventEndMission)
	}
	if err := room.Mission.End(req.Success, req.Stats); err != nil {
		return ErrGameNotStarted
	}

	room.Hub.Broadcast(wshub.ServerMessage{
		Event: EventMissionEnded,
		Data:  MissionEnded{Success: req.Success, Stats: req.Stats},
	})
	r.bus.Publish(events.Event{
		Kind:      events.MissionEnded,
		RoomCode:  room.Code,
		Success:   req.Success,
		Stats:     req.Stats,
		Completed: room.Mission.CompletedCount(),
		Players:   playerRefs(room.Players.GetList()),
		At:        r.now(),
	})
	log.Printf("[Relay] Mission ended in room %s (success=%t)\n", room.Code, req.Success)
	return nil
}

func (r *Relay) rejoinGame(c *wshub.Client, raw json.RawMessage) error {
	if _, bound := r.sessions.Lookup(c.ID); bound {
		return ErrAlreadyJoined
	}
	var req RejoinGame
	if err := decode(raw, &req); err != nil {
		return invalidPayload(EventRejoinGame)
	}

	code, ok := r.sessions.RoomOf(req.PlayerID)
	if !ok {
		return ErrRejoinFailed
	}
	room := r.rooms.Get(code)
	if room == nil {
		return ErrRejoinFailed
	}
	p := room.Players.Get(req.PlayerID)
	if p == nil {
		return ErrRejoinFailed
	}

	r.cancelDeparture(p.ID)
	// A seat still held by a live connection moves to the new one.
	if old := p.ConnectionID; old != "" && old != c.ID && room.Hub.Has(old) {
		room.Hub.Unregister(old)
		r.sessions.Unbind(old)
		log.Printf("[Relay] Moving seat of %s from %s to %s\n", p.Name, old, c.ID)
	}
	if name := strings.TrimSpace(req.PlayerName); name != "" {
		p.Name = name
	}
	p.ConnectionID = c.ID
	p.Connected = true
	r.sessions.Bind(c.ID, p.ID, room.Code)
	room.Hub.Register(c)
	now := r.now()
	room.Touch(now)

	list := room.Players.GetList()
	send(c, EventGameJoined, GameJoined{
		RoomCode: room.Code,
		PlayerID: p.ID,
		IsHost:   p.IsHost,
		Players:  list,
	})
	if room.Started {
		send(c, EventGameStarted, gameStarted(room, list))
		send(c, EventGameStateUpdate, room.State)
	}
	room.Hub.BroadcastExcept(c.ID, wshub.ServerMessage{
		Event: EventPlayerRejoined,
		Data:  PlayerRejoined{PlayerID: p.ID, PlayerName: p.Name},
	})
	r.bus.Publish(events.Event{
		Kind:     events.PlayerRejoined,
		RoomCode: room.Code,
		PlayerID: p.ID,
		Detail:   p.Name,
		Players:  playerRefs(list),
		At:       now,
	})
	log.Printf("[Relay] Player %s rejoined room %s\n", p.Name, room.Code)
	return nil
}

// Run sweeps inactive rooms until ctx is cancelled.
func (r *Relay) Run(ctx context.Context) {
	if r.cfg.SweepInterval <= 0 {
		return
	}
	ticker := time.NewTicker(r.cfg.SweepInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := r.Sweep(); n > 0 {
				log.Printf("[Sweep] Removed %d inactive rooms\n", n)
			}
		}
	}
}

// Sweep destroys rooms idle for longer than the configured TTL and returns
// how many were removed. Their connections stay open but become Unbound.
func (r *Relay) Sweep() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.cfg.RoomTTL <= 0 {
		return 0
	}
	stale := r.rooms.Stale(r.now(), r.cfg.RoomTTL)
	for _, room := range stale {
		r.destroyRoom(room, "inactive")
	}
	return len(stale)
}

// Rooms lists active rooms for the diagnostic endpoint.
func (r *Relay) Rooms() []rooms.Summary {
	r.mu.Lock()
	defer r.mu.Unlock()
	list := r.rooms.List()
	out := make([]rooms.Summary, 0, len(list))
	for _, room := range list {
		sum := room.Summary()
		sum.Default = r.rooms.IsDefault(room.Code)
		out = append(out, sum)
	}
	return out
}

// Stats reports how many rooms are open and how many connections are bound
// to a seat.
func (r *Relay) Stats() (roomCount, bound int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.rooms.Len(), r.sessions.Len()
}

// State reports the lifecycle state of a connection or, for a connection
// that is gone, of the seat it last held.
func (r *Relay) State(connID string) ConnState {
	r.mu.Lock()
	defer r.mu.Unlock()
	b, ok := r.sessions.Lookup(connID)
	if !ok {
		if _, open := r.conns[connID]; open {
			return Unbound
		}
		return Disconnected
	}
	room := r.rooms.Get(b.RoomCode)
	if room == nil {
		return Unbound
	}
	if room.Started {
		return InGame
	}
	return Joined
}

func gameStarted(room *rooms.Room, list []players.Player) GameStarted {
	return GameStarted{
		Players:       list,
		Roles:         room.Mission.Roles,
		StationShapes: room.Mission.Shapes,
		Objectives:    room.Mission.Objectives,
	}
}

func send(c *wshub.Client, event string, data any) {
	frame, ok := wshub.Encode(wshub.ServerMessage{Event: event, Data: data})
	if !ok {
		return
	}
	if !c.Enqueue(frame) {
		log.Printf("[Relay] Dropped %s for %s\n", event, c.ID)
	}
}

func playerRefs(list []players.Player) []events.PlayerRef {
	refs := make([]events.PlayerRef, 0, len(list))
	for _, p := range list {
		refs = append(refs, events.PlayerRef{ID: p.ID, Name: p.Name, Score: p.Score, IsHost: p.IsHost})
	}
	return refs
}

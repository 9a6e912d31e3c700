package server

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"metromanic/internal/broadcast"
	"metromanic/internal/db"
	"metromanic/internal/relay"
	"metromanic/internal/wshub"
	"net/http"
	"strings"

	"github.com/coder/websocket"
	"github.com/google/uuid"
)

const maxMessageSize = 64 << 10

type Server struct {
	Relay       *relay.Relay
	Broadcaster *broadcast.Broadcaster
	DB          *db.DB       // nil if no database configured
	Metrics     http.Handler // nil disables /metrics
	WriteBuffer int
}

func (s *Server) handleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{InsecureSkipVerify: true})
	if err != nil {
		log.Printf("[WS] Accept error: %v\n", err)
		return
	}
	defer conn.Close(websocket.StatusGoingAway, "Server closing websocket")
	conn.SetReadLimit(maxMessageSize)

	buffer := s.WriteBuffer
	if buffer <= 0 {
		buffer = 64
	}
	client := wshub.NewClient(uuid.New().String(), conn, buffer)
	s.Relay.Connect(client)
	defer s.Relay.Disconnect(client.ID)

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()
	go func() {
		client.WritePump(ctx)
		// A failed write ends the session the same way a failed read does.
		cancel()
	}()

	for {
		_, data, err := conn.Read(ctx)
		if err != nil {
			log.Printf("[WS] %s closed while %s: %v\n", client.ID, s.Relay.State(client.ID), err)
			return
		}
		s.Relay.Handle(client.ID, data)
	}
}

func (s *Server) handleRooms(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.Relay.Rooms())
}

func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "Streaming unsupported", http.StatusInternalServerError)
		return
	}

	msgChan := s.Broadcaster.Subscribe()
	defer s.Broadcaster.Unsubscribe(msgChan)

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	for {
		select {
		case <-r.Context().Done():
			return
		case msg := <-msgChan:
			fmt.Fprintf(w, "event: %s\n", msg.Event)
			for _, line := range strings.Split(msg.Msg, "\n") {
				fmt.Fprintf(w, "data: %s\n", line)
			}
			fmt.Fprint(w, "\n")
			flusher.Flush()
		}
	}
}

type health struct {
	Status   string `json:"status"`
	Error    string `json:"error,omitempty"`
	Rooms    int    `json:"rooms"`
	Sessions int    `json:"sessions"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	h := health{Status: "ok"}
	h.Rooms, h.Sessions = s.Relay.Stats()
	if s.DB != nil {
		if err := s.DB.Ping(); err != nil {
			h.Status = "db_error"
			h.Error = err.Error()
			writeJSON(w, http.StatusServiceUnavailable, h)
			return
		}
	}
	writeJSON(w, http.StatusOK, h)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("[HTTP] Encode error: %v\n", err)
	}
}

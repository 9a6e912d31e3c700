package server

import (
	"log"
	"metromanic/internal/analytics"
	"net/http"
	"slices"
	"strconv"
)

const defaultLeaderboardLimit = 10

func (s *Server) requireDB(w http.ResponseWriter) bool {
	if s.DB == nil {
		http.Error(w, "Analytics requires a database connection", http.StatusServiceUnavailable)
		return false
	}
	return true
}

func (s *Server) handleLeaderboard(w http.ResponseWriter, r *http.Request) {
	if !s.requireDB(w) {
		return
	}

	category := r.URL.Query().Get("cat")
	if category == "" {
		category = "score"
	}
	if !slices.Contains(analytics.LeaderboardCategories, category) {
		http.Error(w, "Unknown leaderboard category", http.StatusBadRequest)
		return
	}
	limit := defaultLeaderboardLimit
	if v, err := strconv.Atoi(r.URL.Query().Get("limit")); err == nil && v > 0 && v <= 100 {
		limit = v
	}

	q := analytics.NewQueries(s.DB)
	entries, err := q.GetLeaderboard(category, limit)
	if err != nil {
		log.Printf("[Analytics] leaderboard error: %v\n", err)
		http.Error(w, "Error loading leaderboard", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, entries)
}

func (s *Server) handleMission(w http.ResponseWriter, r *http.Request) {
	if !s.requireDB(w) {
		return
	}

	q := analytics.NewQueries(s.DB)
	recap, err := q.GetMissionRecap(r.PathValue("id"))
	if err != nil {
		log.Printf("[Analytics] mission recap error: %v\n", err)
		http.Error(w, "Mission not found", http.StatusNotFound)
		return
	}
	writeJSON(w, http.StatusOK, recap)
}

func (s *Server) handleMissionPlayer(w http.ResponseWriter, r *http.Request) {
	if !s.requireDB(w) {
		return
	}

	q := analytics.NewQueries(s.DB)
	stats, err := q.GetPlayerMissionStats(r.PathValue("id"), r.PathValue("playerId"))
	if err != nil {
		log.Printf("[Analytics] mission player error: %v\n", err)
		http.Error(w, "Player not found in mission", http.StatusNotFound)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

func (s *Server) handlePlayer(w http.ResponseWriter, r *http.Request) {
	if !s.requireDB(w) {
		return
	}

	q := analytics.NewQueries(s.DB)
	stats, err := q.GetPlayerLifetimeStats(r.PathValue("id"))
	if err != nil {
		log.Printf("[Analytics] player stats error: %v\n", err)
		http.Error(w, "Player not found", http.StatusNotFound)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

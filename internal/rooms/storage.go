package rooms

import (
	"fmt"
	"sort"
	"sync"
	"time"
)

const maxCodeAttempts = 10

type Store struct {
	mu          sync.Mutex
	rooms       map[string]*Room
	defaultCode string
}

func NewStore() *Store {
	return &Store{
		rooms: make(map[string]*Room),
	}
}

func (s *Store) createLocked(now time.Time) (*Room, error) {
	for range maxCodeAttempts {
		code, err := GenerateCode()
		if err != nil {
			return nil, fmt.Errorf("generating room code: %w", err)
		}
		if _, exists := s.rooms[code]; exists {
			continue
		}
		room := newRoom(code, now)
		s.rooms[code] = room
		return room, nil
	}
	return nil, fmt.Errorf("failed to generate unique room code after %d attempts", maxCodeAttempts)
}

// GetOrCreate returns the room for code, creating it under that exact code
// when absent. An empty code resolves to the shared default room, which is
// created under a generated code on first use. created reports whether a
// new room was opened; now stamps its creation and activity times.
func (s *Store) GetOrCreate(code string, now time.Time) (room *Room, created bool, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if code == "" {
		if r, ok := s.rooms[s.defaultCode]; ok && s.defaultCode != "" {
			return r, false, nil
		}
		r, err := s.createLocked(now)
		if err != nil {
			return nil, false, err
		}
		s.defaultCode = r.Code
		return r, true, nil
	}

	if r, ok := s.rooms[code]; ok {
		return r, false, nil
	}
	if !ValidCode(code) {
		return nil, false, fmt.Errorf("invalid room code %q", code)
	}
	r := newRoom(code, now)
	s.rooms[code] = r
	return r, true, nil
}

func (s *Store) Get(code string) *Room {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.rooms[code]
}

func (s *Store) IsDefault(code string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return code != "" && code == s.defaultCode
}

func (s *Store) Delete(code string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.rooms, code)
	if code == s.defaultCode {
		s.defaultCode = ""
	}
}

// List returns rooms ordered by creation time.
func (s *Store) List() []*Room {
	s.mu.Lock()
	defer s.mu.Unlock()
	list := make([]*Room, 0, len(s.rooms))
	for _, r := range s.rooms {
		list = append(list, r)
	}
	sort.Slice(list, func(i, j int) bool {
		if list[i].CreatedAt.Equal(list[j].CreatedAt) {
			return list[i].Code < list[j].Code
		}
		return list[i].CreatedAt.Before(list[j].CreatedAt)
	})
	return list
}

func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.rooms)
}

// Stale removes and returns rooms whose last activity is older than ttl.
func (s *Store) Stale(now time.Time, ttl time.Duration) []*Room {
	s.mu.Lock()
	defer s.mu.Unlock()
	var removed []*Room
	for code, room := range s.rooms {
		if now.Sub(room.LastActivity) > ttl {
			delete(s.rooms, code)
			if code == s.defaultCode {
				s.defaultCode = ""
			}
			removed = append(removed, room)
		}
	}
	return removed
}

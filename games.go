package main

import "sync"

// GameStore holds the live Game instances, keyed by their game rowid. The
// store owns nothing but the map; each Game serializes its own mutations.
type GameStore struct {
	mu    sync.Mutex
	games map[int64]*Game
}

func newGameStore() *GameStore {
	return &GameStore{games: make(map[int64]*Game)}
}

var store = newGameStore()

// GetOrCreate returns the live Game for a game row, creating a fresh lobby
// instance on first access.
func (s *GameStore) GetOrCreate(id int64, cfg AppConfig) *Game {
	s.mu.Lock()
	defer s.mu.Unlock()
	if g, ok := s.games[id]; ok {
		return g
	}
	g := NewGame(id)
	if cfg.MinPlayers > 0 {
		g.MinPlayers = cfg.MinPlayers
	}
	g.WolfCubRevenge = cfg.WolfCubRevenge
	s.games[id] = g
	return g
}

// Remove drops a finished game's live instance.
func (s *GameStore) Remove(id int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.games, id)
}

// currentGame returns the live Game behind the newest game row.
func currentGame() (*GameRow, *Game, error) {
	row, err := currentGameRow()
	if err != nil {
		return nil, nil, err
	}
	return row, store.GetOrCreate(row.ID, config), nil
}

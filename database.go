package main

import (
	"database/sql"
	"log"
	"time"
)

// Live game state (roster, roles, intents, votes) lives in memory on the Game
// aggregate. The database keeps what has to survive a page reload or a
// finished game: accounts, sessions, the role preset, the public event
// history and finished-game results.

// Account is a registered player identity.
type Account struct {
	ID         int64  `db:"id"`
	Name       string `db:"name"`
	SecretCode string `db:"secret_code"`
}

// GameRow is the persisted shell of a game: its id keys the live Game in the
// store, status mirrors the live phase for reconnecting clients, and the host
// is the one account allowed to advance phases.
type GameRow struct {
	ID           int64  `db:"id"`
	Status       string `db:"status"` // lobby, night, day, finished
	HostPlayerID int64  `db:"host_player_id"`
}

// RoleConfig is one row of the lobby's role preset: how many copies of a
// role go into the deck.
type RoleConfig struct {
	GameID   int64  `db:"game_id"`
	RoleName string `db:"role_name"`
	Count    int    `db:"count"`
}

// GameEvent is one line of a game's public history. Stories stream into
// their row as the storyteller produces text; an empty text stays hidden.
type GameEvent struct {
	ID     int64  `db:"id"`
	GameID int64  `db:"game_id"`
	Kind   string `db:"kind"` // "report" or "story"
	Text   string `db:"text"`
}

// GameResult records a finished game for the results view.
type GameResult struct {
	ID         int64  `db:"id"`
	GameID     int64  `db:"game_id"`
	Winner     string `db:"winner"`
	Days       int    `db:"days"`
	FinishedAt string `db:"finished_at"`
}

func getAccount(id int64) (Account, error) {
	var a Account
	err := db.Get(&a, "SELECT rowid AS id, name, secret_code FROM player WHERE rowid = ?", id)
	return a, err
}

func accountName(id int64) string {
	var name string
	db.Get(&name, "SELECT name FROM player WHERE rowid = ?", id)
	return name
}

// currentGameRow returns the newest game row, creating a fresh lobby row if
// none exists yet.
func currentGameRow() (*GameRow, error) {
	var row GameRow
	err := db.Get(&row, "SELECT rowid AS id, status, host_player_id FROM game ORDER BY rowid DESC LIMIT 1")
	if err == sql.ErrNoRows {
		result, err := db.Exec("INSERT INTO game (status, host_player_id) VALUES ('lobby', 0)")
		if err != nil {
			return nil, err
		}
		id, _ := result.LastInsertId()
		row = GameRow{ID: id, Status: "lobby"}
		log.Printf("Created new game: id=%d, status='lobby'", id)
		LogDBState("after new game created")
	} else if err != nil {
		return nil, err
	}
	return &row, nil
}

func setGameStatus(gameID int64, status string) {
	if _, err := db.Exec("UPDATE game SET status = ? WHERE rowid = ?", status, gameID); err != nil {
		logError("setGameStatus", err)
	}
}

func setGameHost(gameID, playerID int64) {
	if _, err := db.Exec("UPDATE game SET host_player_id = ? WHERE rowid = ?", playerID, gameID); err != nil {
		logError("setGameHost", err)
	}
}

// getRoleConfigs returns the preset rows for a game in catalog order.
func getRoleConfigs(gameID int64) ([]RoleConfig, error) {
	var configs []RoleConfig
	err := db.Select(&configs,
		"SELECT game_id, role_name, count FROM game_role_config WHERE game_id = ?", gameID)
	return configs, err
}

// buildDeck turns the stored preset into a role deck for AssignRoles.
// Unknown role names are skipped with a log line rather than failing the
// start; the engine pads with Villager anyway.
func buildDeck(gameID int64) ([]*Role, error) {
	configs, err := getRoleConfigs(gameID)
	if err != nil {
		return nil, err
	}
	var deck []*Role
	for _, rc := range configs {
		r := RoleByName(rc.RoleName)
		if r == nil {
			log.Printf("buildDeck: unknown role %q in preset for game %d", rc.RoleName, gameID)
			continue
		}
		for i := 0; i < rc.Count; i++ {
			deck = append(deck, r)
		}
	}
	return deck, nil
}

// adjustRoleCount applies a +1/-1 preset edit; rows at zero are removed.
func adjustRoleCount(gameID int64, roleName string, delta int) {
	var current int
	err := db.Get(&current,
		"SELECT count FROM game_role_config WHERE game_id = ? AND role_name = ?", gameID, roleName)
	switch {
	case err == sql.ErrNoRows:
		if delta > 0 {
			db.Exec("INSERT INTO game_role_config (game_id, role_name, count) VALUES (?, ?, 1)",
				gameID, roleName)
		}
	case err != nil:
		logError("adjustRoleCount", err)
	default:
		next := current + delta
		if next > 0 {
			db.Exec("UPDATE game_role_config SET count = ? WHERE game_id = ? AND role_name = ?",
				next, gameID, roleName)
		} else {
			db.Exec("DELETE FROM game_role_config WHERE game_id = ? AND role_name = ?",
				gameID, roleName)
		}
	}
}

// copyRoleConfigs carries the preset from a finished game into the next one.
func copyRoleConfigs(fromGameID, toGameID int64) {
	_, err := db.Exec(`
		INSERT INTO game_role_config (game_id, role_name, count)
		SELECT ?, role_name, count FROM game_role_config WHERE game_id = ?`,
		toGameID, fromGameID)
	if err != nil {
		logError("copyRoleConfigs", err)
	}
}

// appendEvent adds one line to a game's public history and returns its rowid.
func appendEvent(gameID int64, kind, text string) int64 {
	result, err := db.Exec("INSERT INTO game_event (game_id, kind, text) VALUES (?, ?, ?)",
		gameID, kind, text)
	if err != nil {
		logError("appendEvent", err)
		return 0
	}
	id, _ := result.LastInsertId()
	return id
}

// getEvents returns a game's visible history, oldest first.
func getEvents(gameID int64) ([]GameEvent, error) {
	var events []GameEvent
	err := db.Select(&events, `
		SELECT rowid AS id, game_id, kind, text FROM game_event
		WHERE game_id = ? AND text != '' ORDER BY rowid ASC`, gameID)
	return events, err
}

func saveResult(gameID int64, winner Winner, days int) {
	_, err := db.Exec("INSERT INTO game_result (game_id, winner, days, finished_at) VALUES (?, ?, ?, ?)",
		gameID, winner.String(), days, time.Now().UTC().Format(time.RFC3339))
	if err != nil {
		logError("saveResult", err)
	}
}

// getResults returns finished games, newest first.
func getResults() ([]GameResult, error) {
	var results []GameResult
	err := db.Select(&results, `
		SELECT rowid AS id, game_id, winner, days, finished_at
		FROM game_result ORDER BY rowid DESC LIMIT 20`)
	return results, err
}

func initDB() error {
	schema := `
	PRAGMA journal_mode=WAL;

	CREATE TABLE IF NOT EXISTS player (
		name TEXT UNIQUE NOT NULL,
		secret_code TEXT NOT NULL
	);
	CREATE TABLE IF NOT EXISTS session (
		token INTEGER PRIMARY KEY,
		player_id INTEGER NOT NULL,
		FOREIGN KEY (player_id) REFERENCES player(rowid)
	);
	CREATE TABLE IF NOT EXISTS game (
		status TEXT NOT NULL DEFAULT 'lobby',
		host_player_id INTEGER NOT NULL DEFAULT 0
	);
	CREATE TABLE IF NOT EXISTS game_role_config (
		game_id INTEGER NOT NULL,
		role_name TEXT NOT NULL,
		count INTEGER NOT NULL DEFAULT 0,
		FOREIGN KEY (game_id) REFERENCES game(rowid),
		UNIQUE(game_id, role_name)
	);
	CREATE TABLE IF NOT EXISTS game_event (
		game_id INTEGER NOT NULL,
		kind TEXT NOT NULL DEFAULT 'report',
		text TEXT NOT NULL DEFAULT '',
		FOREIGN KEY (game_id) REFERENCES game(rowid)
	);
	CREATE INDEX IF NOT EXISTS idx_game_event_lookup ON game_event(game_id);
	CREATE TABLE IF NOT EXISTS game_result (
		game_id INTEGER NOT NULL,
		winner TEXT NOT NULL,
		days INTEGER NOT NULL DEFAULT 0,
		finished_at TEXT NOT NULL,
		FOREIGN KEY (game_id) REFERENCES game(rowid)
	);
	`
	if _, err := db.Exec(schema); err != nil {
		log.Printf("initDB error: %v", err)
		return err
	}
	log.Printf("Database initialized successfully")
	return nil
}

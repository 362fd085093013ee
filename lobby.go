package main

import (
	"bytes"
	"log"
)

// LobbyData feeds the lobby template.
type LobbyData struct {
	Players     []Player
	RoleConfigs []RoleConfigDisplay
	TotalRoles  int
	PlayerCount int
	MinPlayers  int
	CanStart    bool
	IsHost      bool
	HostName    string
	GameID      int64
}

type RoleConfigDisplay struct {
	Role  *Role
	Count int
}

// joinCurrentLobby registers a connected player with the live game. Outside
// the lobby phase the connection is a reconnect, not a join.
func joinCurrentLobby(playerID int64) {
	name := accountName(playerID)

	row, game, err := currentGame()
	if err != nil {
		logError("joinCurrentLobby: currentGame", err)
		return
	}

	if err := game.AddPlayer(playerID, name); err != nil {
		if kind, ok := errKind(err); ok && kind == ErrWrongPhase {
			DebugLog("joinCurrentLobby", "Player '%s' reconnected to running game %d", name, row.ID)
			broadcastGameUpdate()
			return
		}
		DebugLog("joinCurrentLobby", "Player '%s' already in game %d", name, row.ID)
		return
	}

	// First joiner hosts.
	if row.HostPlayerID == 0 {
		setGameHost(row.ID, playerID)
		log.Printf("Player %d (%s) is hosting game %d", playerID, name, row.ID)
	}

	log.Printf("Player %d (%s) joined the lobby", playerID, name)
	LogDBState("after player join: " + name)
	broadcastGameUpdate()
}

// leaveCurrentLobby removes a fully disconnected player while the game is
// still forming. Mid-game disconnects keep their seat.
func leaveCurrentLobby(playerID int64) {
	name := accountName(playerID)

	row, game, err := currentGame()
	if err != nil {
		logError("leaveCurrentLobby: currentGame", err)
		return
	}

	if err := game.RemovePlayer(playerID); err != nil {
		DebugLog("leaveCurrentLobby", "Player '%s' stays in game %d: %v", name, row.ID, err)
		return
	}

	if row.HostPlayerID == playerID {
		// Hand the host role to whoever joined next, if anyone is left.
		next := int64(0)
		if remaining := game.Players(); len(remaining) > 0 {
			next = remaining[0].ID
		}
		setGameHost(row.ID, next)
	}

	log.Printf("Player %d (%s) left the lobby", playerID, name)
	LogDBState("after player leave: " + name)
	broadcastGameUpdate()
}

// broadcastGameUpdate pushes a fresh game component and character card to
// every player in the current game.
func broadcastGameUpdate() {
	row, game, err := currentGame()
	if err != nil {
		logError("broadcastGameUpdate: currentGame", err)
		return
	}

	players := game.Players()
	DebugLog("broadcastGameUpdate", "Broadcasting to %d players in game %d (%s)", len(players), row.ID, game.Phase())

	for _, p := range players {
		buf, err := getGameComponent(p.ID, row, game)
		if err != nil {
			logError("broadcastGameUpdate: getGameComponent", err)
			continue
		}
		hub.sendToPlayer(p.ID, buf.Bytes())

		var charBuf bytes.Buffer
		if err := templates.ExecuteTemplate(&charBuf, "character_info.html", characterData(game, p.ID)); err == nil {
			hub.sendToPlayer(p.ID, charBuf.Bytes())
		}
	}
}

func handleWSUpdateRole(client *Client, msg WSMessage) {
	row, game, err := currentGame()
	if err != nil {
		logError("handleWSUpdateRole: currentGame", err)
		sendErrorToast(client.playerID, "Failed to get game")
		return
	}

	if game.Phase() != PhaseLobby {
		sendErrorToast(client.playerID, "Cannot change roles: game already started")
		return
	}
	if RoleByName(msg.Role) == nil {
		sendErrorToast(client.playerID, "Unknown role")
		return
	}

	delta := 1
	if msg.Delta == "-1" {
		delta = -1
	}
	adjustRoleCount(row.ID, msg.Role, delta)
	DebugLog("handleWSUpdateRole", "Preset for game %d: %s %+d", row.ID, msg.Role, delta)
	LogDBState("after role update")
	broadcastGameUpdate()
}

func handleWSClaimHost(client *Client) {
	row, _, err := currentGame()
	if err != nil {
		logError("handleWSClaimHost: currentGame", err)
		sendErrorToast(client.playerID, "Failed to get game")
		return
	}

	// Claiming is open when the seat is empty or its holder has dropped off.
	if row.HostPlayerID != 0 && row.HostPlayerID != client.playerID {
		for _, id := range hub.connectedPlayerIDs() {
			if id == row.HostPlayerID {
				sendErrorToast(client.playerID, "Another player is already hosting")
				return
			}
		}
	}

	setGameHost(row.ID, client.playerID)
	log.Printf("Player %d (%s) claimed host of game %d", client.playerID, accountName(client.playerID), row.ID)
	broadcastGameUpdate()
}

func handleWSStartGame(client *Client) {
	row, game, err := currentGame()
	if err != nil {
		logError("handleWSStartGame: currentGame", err)
		sendErrorToast(client.playerID, "Failed to get game")
		return
	}

	if row.HostPlayerID != client.playerID {
		sendErrorToast(client.playerID, "Only the host can start the game")
		return
	}

	deck, err := buildDeck(row.ID)
	if err != nil {
		logError("handleWSStartGame: buildDeck", err)
		sendErrorToast(client.playerID, "Failed to load the role preset")
		return
	}

	if err := game.AssignRoles(deck); err != nil {
		rejectWithToast(client.playerID, err)
		return
	}

	setGameStatus(row.ID, "night")
	appendEvent(row.ID, "report", "Roles have been dealt. Night falls over the village.")
	log.Printf("Game %d started with %d players, %d preset roles", row.ID, len(game.Players()), len(deck))
	LogDBState("after game start")
	broadcastGameUpdate()
}

package main

import (
	"fmt"
	"log"
)

// requireHost checks that the caller holds the host seat.
func requireHost(client *Client, row *GameRow) bool {
	if row.HostPlayerID != client.playerID {
		sendErrorToast(client.playerID, "Only the host can do that")
		return false
	}
	return true
}

// handleWSResolveNight runs the night pipeline and publishes the morning
// report. Vision results go privately to each viewer.
func handleWSResolveNight(client *Client) {
	row, game, err := currentGame()
	if err != nil {
		logError("handleWSResolveNight: currentGame", err)
		sendErrorToast(client.playerID, "Failed to get game")
		return
	}
	if !requireHost(client, row) {
		return
	}

	summary, err := game.ResolveNight()
	if err != nil {
		rejectWithToast(client.playerID, err)
		return
	}

	log.Printf("Game %d night resolved: %d deaths, %d converted, %d recruited",
		row.ID, len(summary.Deaths), len(summary.Converted), len(summary.Recruited))
	appendEvent(row.ID, "report", summary.Text)
	deliverVisions(game, summary.Visions)
	if summary.HunterDied != 0 {
		sendInfoToast(summary.HunterDied, "You are dying, but your finger is still on the trigger. Take your shot.")
	}

	if summary.Winner != WinnerNone {
		finishGame(row, game, summary.Winner)
		return
	}

	setGameStatus(row.ID, "day")
	if len(summary.Deaths) > 0 {
		maybeGenerateStory(row.ID)
	}
	LogDBState("after night resolution")
	broadcastGameUpdate()
}

// handleWSEndDay closes the vote and publishes the lynch outcome.
func handleWSEndDay(client *Client) {
	row, game, err := currentGame()
	if err != nil {
		logError("handleWSEndDay: currentGame", err)
		sendErrorToast(client.playerID, "Failed to get game")
		return
	}
	if !requireHost(client, row) {
		return
	}

	outcome, err := game.EndDay()
	if err != nil {
		rejectWithToast(client.playerID, err)
		return
	}

	log.Printf("Game %d day ended: lynched=%d prince=%d tanner=%v",
		row.ID, outcome.Lynched, outcome.PrinceSaved, outcome.TannerWin)
	appendEvent(row.ID, "report", outcome.Text)
	if outcome.HunterDied != 0 {
		sendInfoToast(outcome.HunterDied, "You are dying, but your finger is still on the trigger. Take your shot.")
	}

	if outcome.Winner != WinnerNone {
		finishGame(row, game, outcome.Winner)
		return
	}

	setGameStatus(row.ID, "night")
	if outcome.Lynched != 0 {
		maybeGenerateStory(row.ID)
	}
	LogDBState("after day resolution")
	broadcastGameUpdate()
}

// deliverVisions sends each scrying result to its viewer only.
func deliverVisions(game *Game, visions []Vision) {
	for _, v := range visions {
		viewer, ok := game.Player(v.Viewer)
		if !ok {
			continue
		}
		sendInfoToast(v.Viewer, visionText(game, viewer, v))
	}
}

func visionText(game *Game, viewer Player, v Vision) string {
	first, _ := game.Player(v.First)
	switch viewer.Role {
	case Seer:
		if v.Hit {
			return fmt.Sprintf("Your vision is clear: %s is a werewolf!", first.Name)
		}
		return fmt.Sprintf("Your vision is clear: %s is not a werewolf.", first.Name)
	case AuraSeer:
		if v.Hit {
			return fmt.Sprintf("A power hums around %s.", first.Name)
		}
		return fmt.Sprintf("%s carries no special power.", first.Name)
	case Sorceress:
		if v.Hit {
			return fmt.Sprintf("%s is the Seer!", first.Name)
		}
		return fmt.Sprintf("%s is not the Seer.", first.Name)
	case Investigator:
		second, _ := game.Player(v.Second)
		if v.Hit {
			return fmt.Sprintf("Something howled near %s and %s. At least one of them runs with the wolves.", first.Name, second.Name)
		}
		return fmt.Sprintf("Neither %s nor %s runs with the wolves.", first.Name, second.Name)
	default:
		return ""
	}
}

// finishGame records the result and closes out the live instance's row.
func finishGame(row *GameRow, game *Game, winner Winner) {
	setGameStatus(row.ID, "finished")
	saveResult(row.ID, winner, game.DayCount())
	appendEvent(row.ID, "report", winner.Announcement())
	log.Printf("Game %d finished, winner: %s", row.ID, winner)
	LogDBState("after game end")
	broadcastGameUpdate()
}

// handleWSNewGame replaces a finished game with a fresh lobby, carrying the
// role preset over and seating everyone still connected.
func handleWSNewGame(client *Client) {
	row, game, err := currentGame()
	if err != nil {
		logError("handleWSNewGame: currentGame", err)
		sendErrorToast(client.playerID, "Failed to get game")
		return
	}

	if game.Phase() != PhaseOver {
		sendErrorToast(client.playerID, "Game is not finished yet")
		return
	}

	result, err := db.Exec("INSERT INTO game (status, host_player_id) VALUES ('lobby', ?)", client.playerID)
	if err != nil {
		logError("handleWSNewGame: create new game", err)
		sendErrorToast(client.playerID, "Failed to create new game")
		return
	}
	newGameID, _ := result.LastInsertId()
	copyRoleConfigs(row.ID, newGameID)
	store.Remove(row.ID)

	fresh := store.GetOrCreate(newGameID, config)
	playerIDs := hub.connectedPlayerIDs()
	for _, pid := range playerIDs {
		if err := fresh.AddPlayer(pid, accountName(pid)); err != nil {
			logError("handleWSNewGame: seat player", err)
		}
	}

	log.Printf("New game %d created (replaced game %d), %d players seated", newGameID, row.ID, len(playerIDs))
	LogDBState("after new game created")
	broadcastGameUpdate()
}

package main

import "log"

// Single-target night intents, keyed by wire action name.
var nightActions = map[string]func(*Game, int64, int64) error{
	"wolf_kill":         (*Game).WolfKill,
	"seer_peek":         (*Game).SeerPeek,
	"aura_peek":         (*Game).AuraPeek,
	"sorceress_scry":    (*Game).SorceressScry,
	"priest_bless":      (*Game).PriestBless,
	"doctor_save":       (*Game).DoctorSave,
	"bodyguard_protect": (*Game).BodyguardProtect,
	"witch_heal":        (*Game).WitchHeal,
	"witch_poison":      (*Game).WitchPoison,
	"hag_silence":       (*Game).OldHagSilence,
	"vampire_bite":      (*Game).VampireBite,
	"cult_recruit":      (*Game).CultRecruit,
}

// Pair-target night intents.
var pairActions = map[string]func(*Game, int64, int64, int64) error{
	"cupid_pair":         (*Game).CupidPair,
	"spellcaster_bind":   (*Game).SpellcasterBind,
	"troublemaker_swap":  (*Game).TroublemakerSwap,
	"investigator_check": (*Game).InvestigatorCheck,
}

// handleWSNightAction records one night intent. Wolf votes are visible to
// the pack, so those refresh everyone; other intents only refresh the actor.
func handleWSNightAction(client *Client, msg WSMessage) {
	_, game, err := currentGame()
	if err != nil {
		logError("handleWSNightAction: currentGame", err)
		sendErrorToast(client.playerID, "Failed to get game")
		return
	}

	if single, ok := nightActions[msg.Action]; ok {
		err = single(game, client.playerID, msg.Target)
	} else if pair, ok := pairActions[msg.Action]; ok {
		err = pair(game, client.playerID, msg.Target, msg.Target2)
	} else {
		log.Printf("Unknown night action %q from player %d", msg.Action, client.playerID)
		return
	}

	if err != nil {
		rejectWithToast(client.playerID, err)
		return
	}

	DebugLog("handleWSNightAction", "player %d recorded %s -> %d", client.playerID, msg.Action, msg.Target)
	if msg.Action == "wolf_kill" {
		broadcastGameUpdate()
		return
	}
	sendInfoToast(client.playerID, "Your choice is locked in. You can change it until dawn.")
	refreshPlayer(client.playerID)
}

func handleWSDayVote(client *Client, msg WSMessage) {
	_, game, err := currentGame()
	if err != nil {
		logError("handleWSDayVote: currentGame", err)
		sendErrorToast(client.playerID, "Failed to get game")
		return
	}

	target := msg.Target
	if msg.Skip {
		target = SkipVote
	}
	if err := game.Vote(client.playerID, target); err != nil {
		rejectWithToast(client.playerID, err)
		return
	}

	DebugLog("handleWSDayVote", "player %d voted for %d", client.playerID, target)
	broadcastGameUpdate()
}

func handleWSRevealMayor(client *Client) {
	_, game, err := currentGame()
	if err != nil {
		logError("handleWSRevealMayor: currentGame", err)
		sendErrorToast(client.playerID, "Failed to get game")
		return
	}

	if err := game.RevealMayor(client.playerID); err != nil {
		rejectWithToast(client.playerID, err)
		return
	}

	p, _ := game.Player(client.playerID)
	log.Printf("Player %d (%s) revealed as Mayor", client.playerID, p.Name)
	if row, _, err := currentGame(); err == nil {
		appendEvent(row.ID, "report", p.Name+" steps forward as the Mayor. Their vote now counts twice.")
	}
	broadcastGameUpdate()
}

func handleWSHunterShoot(client *Client, msg WSMessage) {
	row, game, err := currentGame()
	if err != nil {
		logError("handleWSHunterShoot: currentGame", err)
		sendErrorToast(client.playerID, "Failed to get game")
		return
	}

	victim, _ := game.Player(msg.Target)
	if err := game.HunterShoot(client.playerID, msg.Target); err != nil {
		rejectWithToast(client.playerID, err)
		return
	}

	shooter, _ := game.Player(client.playerID)
	log.Printf("Hunter %d (%s) shot %d (%s)", client.playerID, shooter.Name, msg.Target, victim.Name)
	appendEvent(row.ID, "report",
		"With a last breath, "+shooter.Name+" raises the rifle and takes "+victim.Name+" along.")

	if w := game.IsOver(); w != WinnerNone && game.Phase() == PhaseOver {
		finishGame(row, game, w)
		return
	}
	maybeGenerateStory(row.ID)
	broadcastGameUpdate()
}

// refreshPlayer pushes a fresh game component to one player.
func refreshPlayer(playerID int64) {
	row, game, err := currentGame()
	if err != nil {
		logError("refreshPlayer: currentGame", err)
		return
	}
	buf, err := getGameComponent(playerID, row, game)
	if err != nil {
		logError("refreshPlayer: getGameComponent", err)
		return
	}
	hub.sendToPlayer(playerID, buf.Bytes())
}

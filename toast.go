package main

import (
	"bytes"
	"log"
	"strconv"
)

// Toast is a transient notification rendered as an HTML fragment and swapped
// into the page by the client script.
type Toast struct {
	ID      string
	Type    string // "error", "warning", "success", "info"
	Message string
}

var toastCounter int64

func renderToast(toastType, message string) string {
	var buf bytes.Buffer
	toastCounter++
	toast := Toast{ID: strconv.FormatInt(toastCounter, 10), Type: toastType, Message: message}
	if err := templates.ExecuteTemplate(&buf, "toast.html", toast); err != nil {
		log.Printf("Failed to render toast: %v", err)
		return ""
	}
	return buf.String()
}

// sendErrorToast sends an error toast to one player over their socket.
func sendErrorToast(playerID int64, message string) {
	html := renderToast("error", message)
	if html != "" {
		hub.sendToPlayer(playerID, []byte(html))
	}
}

// sendInfoToast sends an informational toast to one player.
func sendInfoToast(playerID int64, message string) {
	html := renderToast("info", message)
	if html != "" {
		hub.sendToPlayer(playerID, []byte(html))
	}
}

// rejectWithToast turns an engine rejection into a user-facing toast. The
// engine's detail strings are diagnostic; the kind picks the wording.
func rejectWithToast(playerID int64, err error) {
	kind, ok := errKind(err)
	if !ok {
		logError("rejectWithToast", err)
		sendErrorToast(playerID, "Something went wrong")
		return
	}
	DebugLog("rejectWithToast", "player %d rejected: %v", playerID, err)
	sendErrorToast(playerID, toastMessage(kind))
}

func toastMessage(kind ErrorKind) string {
	switch kind {
	case ErrWrongPhase:
		return "You cannot do that right now"
	case ErrRoleMismatch:
		return "Your role cannot do that"
	case ErrInvalidTarget:
		return "That target is not available"
	case ErrResourceExhausted:
		return "You have already used that ability"
	case ErrRepeatTarget:
		return "You cannot pick the same target twice in a row"
	case ErrBound:
		return "A spell keeps you from acting"
	case ErrNotEnoughPlayers:
		return "Not enough players to start"
	case ErrAlreadyStarted:
		return "The game has already started"
	case ErrAmbiguous:
		return "More than one player matches that name"
	default:
		return "Something went wrong"
	}
}

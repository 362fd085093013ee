package main

import (
	"log"
	"net/http"
	"sync"

	"github.com/gorilla/websocket"
)

// WSMessage is a client action. Targets travel as the engine's player ids.
type WSMessage struct {
	Action  string `json:"action"`
	Role    string `json:"role,omitempty"`    // role name for preset edits
	Delta   string `json:"delta,omitempty"`   // "+1" / "-1" for preset edits
	Target  int64  `json:"target,omitempty"`  // primary target player id
	Target2 int64  `json:"target2,omitempty"` // second target for pair actions
	Skip    bool   `json:"skip,omitempty"`    // day-vote abstain
}

// Client is one websocket connection with its logged-in player.
type Client struct {
	conn     *websocket.Conn
	playerID int64
	writeMu  sync.Mutex // gorilla/websocket allows one writer at a time
}

// Hub tracks connected clients and fans out updates. Pushes always go per
// player via sendToPlayer; fragments and toasts differ per recipient.
type Hub struct {
	clients    map[*websocket.Conn]*Client
	register   chan *Client
	unregister chan *websocket.Conn
	mu         sync.RWMutex
	done       chan struct{}
	wg         sync.WaitGroup
}

func newHub() *Hub {
	return &Hub{
		clients:    make(map[*websocket.Conn]*Client),
		register:   make(chan *Client),
		unregister: make(chan *websocket.Conn, 64),
		done:       make(chan struct{}),
	}
}

// stop signals the hub goroutine to exit and waits for it to finish.
func (h *Hub) stop() {
	close(h.done)
	h.wg.Wait()
}

var hub = newHub()

func (h *Hub) sendToPlayer(playerID int64, message []byte) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, client := range h.clients {
		if client.playerID != playerID {
			continue
		}
		LogWSMessage("OUT", accountName(playerID), string(message))

		client.writeMu.Lock()
		err := client.conn.WriteMessage(websocket.TextMessage, message)
		client.writeMu.Unlock()

		if err != nil {
			log.Printf("WebSocket write error to player %d: %v", playerID, err)
		}
	}
}

// connectedPlayerIDs returns each distinct logged-in player with at least one
// open connection.
func (h *Hub) connectedPlayerIDs() []int64 {
	h.mu.RLock()
	defer h.mu.RUnlock()
	seen := make(map[int64]bool)
	var ids []int64
	for _, client := range h.clients {
		if !seen[client.playerID] {
			seen[client.playerID] = true
			ids = append(ids, client.playerID)
		}
	}
	return ids
}

func (h *Hub) run() {
	h.wg.Add(1)
	defer h.wg.Done()
	for {
		select {
		case <-h.done:
			return

		case client := <-h.register:
			h.mu.Lock()
			h.clients[client.conn] = client
			total := len(h.clients)
			h.mu.Unlock()
			name := accountName(client.playerID)
			log.Printf("WebSocket client connected (player %d: %s). Total: %d", client.playerID, name, total)
			DebugLog("hub.register", "Player '%s' (ID: %d) connected", name, client.playerID)
			joinCurrentLobby(client.playerID)

		case conn := <-h.unregister:
			var removePlayerID int64
			h.mu.Lock()
			if client, ok := h.clients[conn]; ok {
				playerID := client.playerID
				delete(h.clients, conn)
				conn.Close()

				hasOtherConn := false
				for _, c := range h.clients {
					if c.playerID == playerID {
						hasOtherConn = true
						break
					}
				}
				if !hasOtherConn {
					removePlayerID = playerID
				}
			}
			total := len(h.clients)
			h.mu.Unlock()
			log.Printf("WebSocket client disconnected. Total: %d", total)
			// leaveCurrentLobby broadcasts, which needs the read lock, so it
			// runs after the write lock is released.
			if removePlayerID != 0 {
				leaveCurrentLobby(removePlayerID)
			}
		}
	}
}

func handleWebSocket(w http.ResponseWriter, r *http.Request) {
	// Capture globals at entry; parallel tests swap them.
	currentHub := hub

	playerID, err := getPlayerIdFromSession(r)
	if err != nil {
		DebugLog("handleWebSocket", "Rejected WebSocket connection - not logged in")
		http.Error(w, "Not logged in", http.StatusUnauthorized)
		return
	}

	var upgrader = websocket.Upgrader{}
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("WebSocket upgrade error for player %d: %v", playerID, err)
		return
	}

	client := &Client{conn: conn, playerID: playerID}
	currentHub.register <- client

	go func() {
		defer func() {
			currentHub.unregister <- conn
		}()
		for {
			_, message, err := conn.ReadMessage()
			if err != nil {
				break
			}
			handleWSMessage(client, message)
		}
	}()
}

package main

import (
	"bufio"
	"bytes"
	"compress/gzip"
	"embed"
	"encoding/json"
	"flag"
	"fmt"
	"html/template"
	"io"
	"log"
	"net"
	"net/http"
	"os"
	"strings"

	"github.com/jmoiron/sqlx"
	_ "github.com/mattn/go-sqlite3"
)

//go:embed templates/*
var templateFS embed.FS

//go:embed static/*
var staticFS embed.FS

var templates *template.Template
var db *sqlx.DB
var config AppConfig
var devMode bool

// logError logs an error with context and dumps the database in dev mode.
func logError(context string, err error) {
	log.Printf("ERROR [%s]: %v", context, err)
	if devMode {
		LogDBState("error: " + context)
	}
}

// PlayerView is the template-friendly projection of a registry snapshot.
type PlayerView struct {
	ID       int64
	Name     string
	RoleName string
	Alive    bool
}

func viewPlayers(players []Player, revealRoles bool) []PlayerView {
	out := make([]PlayerView, 0, len(players))
	for _, p := range players {
		v := PlayerView{ID: p.ID, Name: p.Name, Alive: p.Alive}
		if revealRoles && p.Role != nil {
			v.RoleName = p.Role.Name
		}
		out = append(out, v)
	}
	return out
}

// GameData feeds the game page shell.
type GameData struct {
	PlayerName    string
	SecretCode    string
	GameComponent template.HTML
	CharacterCard template.HTML
}

// VoteLine is one "voter -> target" row for vote lists.
type VoteLine struct {
	Voter  string
	Target string
}

// NightData feeds the night template for one viewer.
type NightData struct {
	NightNumber  int
	Me           PlayerView
	RoleName     string
	RoleDesc     string
	ActionName   string // wire action for this role's intent, empty if none
	NeedsPair    bool
	Bound        bool
	IsWolf       bool
	PackMates    []PlayerView
	WolfVotes    []VoteLine
	AliveTargets []PlayerView
	IsHost       bool
	Events       []GameEvent
}

// DayData feeds the day template for one viewer.
type DayData struct {
	DayNumber     int
	Me            PlayerView
	Silenced      bool
	IsMayor       bool
	MayorRevealed bool
	Votes         []VoteLine
	AliveTargets  []PlayerView
	PendingHunter bool   // the viewer owes a revenge shot
	HunterName    string // somebody owes a revenge shot
	IsHost        bool
	Events        []GameEvent
}

// FinishedData feeds the end-of-game template.
type FinishedData struct {
	Winner  string
	Players []PlayerView
	Results []GameResult
	Events  []GameEvent
}

// CharacterData feeds the private character card.
type CharacterData struct {
	Name      string
	RoleName  string
	RoleDesc  string
	Alignment string
	Alive     bool
	Lover     string
	PackMates []string
	Lodge     []string
}

// wireAction maps an actionable role to its intake action name.
func wireAction(r *Role) (action string, pair bool) {
	switch r {
	case Werewolf, WolfCub, LoneWolf:
		return "wolf_kill", false
	case Seer:
		return "seer_peek", false
	case AuraSeer:
		return "aura_peek", false
	case Sorceress:
		return "sorceress_scry", false
	case Priest:
		return "priest_bless", false
	case Doctor:
		return "doctor_save", false
	case Bodyguard:
		return "bodyguard_protect", false
	case Witch:
		return "witch_heal", false // the poison form posts witch_poison directly
	case OldHag:
		return "hag_silence", false
	case Vampire:
		return "vampire_bite", false
	case CultLeader:
		return "cult_recruit", false
	case Cupid:
		return "cupid_pair", true
	case Spellcaster:
		return "spellcaster_bind", true
	case Troublemaker:
		return "troublemaker_swap", true
	case Investigator:
		return "investigator_check", true
	}
	return "", false
}

func characterData(game *Game, playerID int64) CharacterData {
	p, ok := game.Player(playerID)
	if !ok {
		return CharacterData{}
	}
	data := CharacterData{Name: p.Name, Alive: p.Alive}
	if p.Role != nil {
		data.RoleName = p.Role.Name
		data.RoleDesc = p.Role.Description
		data.Alignment = p.Role.Alignment.String()
	}
	if a, b := game.Lovers(); a == playerID || b == playerID {
		other := a
		if a == playerID {
			other = b
		}
		if lover, ok := game.Player(other); ok {
			data.Lover = lover.Name
		}
	}
	for _, id := range game.WolfTeam() {
		if id == playerID {
			for _, mate := range game.WolfTeam() {
				if m, ok := game.Player(mate); ok && mate != playerID {
					data.PackMates = append(data.PackMates, m.Name)
				}
			}
			break
		}
	}
	for _, id := range game.MasonLodge() {
		if id == playerID {
			for _, brother := range game.MasonLodge() {
				if m, ok := game.Player(brother); ok && brother != playerID {
					data.Lodge = append(data.Lodge, m.Name)
				}
			}
			break
		}
	}
	return data
}

func handleIndex(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}

	playerID, err := getPlayerIdFromSession(r)
	loggedIn := err == nil && playerID > 0
	if loggedIn {
		DebugLog("handleIndex", "Page accessed by player %d", playerID)
	}

	data := struct {
		LoggedIn bool
		Error    string
	}{LoggedIn: loggedIn, Error: r.URL.Query().Get("error")}
	templates.ExecuteTemplate(w, "index.html", data)
}

func handleGame(w http.ResponseWriter, r *http.Request) {
	playerID, err := getPlayerIdFromSession(r)
	if err != nil {
		http.Redirect(w, r, "/", http.StatusSeeOther)
		return
	}

	account, err := getAccount(playerID)
	if err != nil {
		logError("handleGame: getAccount", err)
		http.Redirect(w, r, "/", http.StatusSeeOther)
		return
	}

	row, game, err := currentGame()
	if err != nil {
		logError("handleGame: currentGame", err)
		http.Error(w, "Something went wrong", http.StatusInternalServerError)
		return
	}

	buf, err := getGameComponent(playerID, row, game)
	if err != nil {
		logError("handleGame: getGameComponent", err)
		http.Error(w, "Something went wrong", http.StatusInternalServerError)
		return
	}

	var charBuf bytes.Buffer
	templates.ExecuteTemplate(&charBuf, "character_info.html", characterData(game, playerID))

	data := GameData{
		PlayerName:    account.Name,
		SecretCode:    account.SecretCode,
		GameComponent: template.HTML(buf.String()),
		CharacterCard: template.HTML(charBuf.String()),
	}
	templates.ExecuteTemplate(w, "game.html", data)
}

func handleGameComponent(w http.ResponseWriter, r *http.Request) {
	playerID, err := getPlayerIdFromSession(r)
	if err != nil {
		http.Redirect(w, r, "/", http.StatusSeeOther)
		return
	}

	row, game, err := currentGame()
	if err != nil {
		logError("handleGameComponent: currentGame", err)
		http.Error(w, "Something went wrong", http.StatusInternalServerError)
		return
	}

	buf, err := getGameComponent(playerID, row, game)
	if err != nil {
		logError("handleGameComponent: getGameComponent", err)
		http.Error(w, "Something went wrong", http.StatusInternalServerError)
		return
	}
	buf.WriteTo(w)
}

func handleCharacterInfo(w http.ResponseWriter, r *http.Request) {
	playerID, err := getPlayerIdFromSession(r)
	if err != nil {
		http.Redirect(w, r, "/", http.StatusSeeOther)
		return
	}

	_, game, err := currentGame()
	if err != nil {
		logError("handleCharacterInfo: currentGame", err)
		return
	}
	templates.ExecuteTemplate(w, "character_info.html", characterData(game, playerID))
}

// getGameComponent renders the phase-appropriate component for one viewer.
func getGameComponent(playerID int64, row *GameRow, game *Game) (*bytes.Buffer, error) {
	var buf bytes.Buffer
	events, err := getEvents(row.ID)
	if err != nil {
		logError("getGameComponent: getEvents", err)
	}
	isHost := row.HostPlayerID == playerID

	switch game.Phase() {
	case PhaseLobby:
		configs, err := getRoleConfigs(row.ID)
		if err != nil {
			logError("getGameComponent: getRoleConfigs", err)
			return nil, err
		}
		counts := make(map[string]int, len(configs))
		total := 0
		for _, rc := range configs {
			counts[rc.RoleName] = rc.Count
			total += rc.Count
		}
		display := make([]RoleConfigDisplay, 0, len(AllRoles))
		for _, r := range AllRoles {
			display = append(display, RoleConfigDisplay{Role: r, Count: counts[r.Name]})
		}

		players := game.Players()
		data := LobbyData{
			Players:     players,
			RoleConfigs: display,
			TotalRoles:  total,
			PlayerCount: len(players),
			MinPlayers:  game.MinPlayers,
			CanStart:    len(players) >= game.MinPlayers,
			IsHost:      isHost,
			HostName:    accountName(row.HostPlayerID),
			GameID:      row.ID,
		}
		err = templates.ExecuteTemplate(&buf, "lobby_content.html", data)
		return &buf, err

	case PhaseNight:
		me, _ := game.Player(playerID)
		data := NightData{
			NightNumber:  game.DayCount() + 1,
			Me:           PlayerView{ID: me.ID, Name: me.Name, Alive: me.Alive},
			Bound:        game.IsBound(playerID),
			AliveTargets: viewPlayers(game.AlivePlayers(), false),
			IsHost:       isHost,
			Events:       events,
		}
		if me.Role != nil {
			data.RoleName = me.Role.Name
			data.RoleDesc = me.Role.Description
			if me.Alive && me.Role.NightAction {
				data.ActionName, data.NeedsPair = wireAction(me.Role)
			}
			if me.Alive && isKillingWolf(me.Role) {
				data.ActionName, data.NeedsPair = "wolf_kill", false
			}
		}
		for _, id := range game.WolfTeam() {
			if id == playerID {
				data.IsWolf = true
			}
		}
		if data.IsWolf {
			for _, id := range game.WolfTeam() {
				if p, ok := game.Player(id); ok {
					data.PackMates = append(data.PackMates, PlayerView{ID: p.ID, Name: p.Name, Alive: p.Alive})
				}
			}
			for voter, target := range game.WolfVotes() {
				v, _ := game.Player(voter)
				t, _ := game.Player(target)
				data.WolfVotes = append(data.WolfVotes, VoteLine{Voter: v.Name, Target: t.Name})
			}
		}
		err = templates.ExecuteTemplate(&buf, "night_content.html", data)
		return &buf, err

	case PhaseDay:
		me, _ := game.Player(playerID)
		data := DayData{
			DayNumber:     game.DayCount(),
			Me:            PlayerView{ID: me.ID, Name: me.Name, Alive: me.Alive},
			Silenced:      game.IsSilenced(playerID),
			IsMayor:       me.Role == Mayor && me.Alive,
			MayorRevealed: game.MayorRevealed(),
			AliveTargets:  viewPlayers(game.AlivePlayers(), false),
			IsHost:        isHost,
			Events:        events,
		}
		if pending := game.PendingHunter(); pending != 0 {
			data.PendingHunter = pending == playerID
			if h, ok := game.Player(pending); ok {
				data.HunterName = h.Name
			}
		}
		for voter, target := range game.VotesCast() {
			v, _ := game.Player(voter)
			line := VoteLine{Voter: v.Name, Target: "skip"}
			if target != SkipVote {
				t, _ := game.Player(target)
				line.Target = t.Name
			}
			data.Votes = append(data.Votes, line)
		}
		err = templates.ExecuteTemplate(&buf, "day_content.html", data)
		return &buf, err

	default: // PhaseOver
		results, err := getResults()
		if err != nil {
			logError("getGameComponent: getResults", err)
		}
		data := FinishedData{
			Winner:  game.IsOver().Announcement(),
			Players: viewPlayers(game.Players(), true),
			Results: results,
			Events:  events,
		}
		err = templates.ExecuteTemplate(&buf, "finished_content.html", data)
		return &buf, err
	}
}

func disableCaching(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Add("Cache-Control", "no-cache")
		next.ServeHTTP(w, r)
	})
}

// shouldCompress reports whether a content type is worth gzipping.
func shouldCompress(contentType string) bool {
	for _, prefix := range []string{"text/", "application/json", "application/javascript", "image/svg"} {
		if strings.HasPrefix(contentType, prefix) {
			return true
		}
	}
	return false
}

// responseWriter wraps http.ResponseWriter for conditional gzip compression.
type responseWriter struct {
	http.ResponseWriter
	gz            *gzip.Writer
	wrappedWriter http.ResponseWriter
	acceptsGzip   bool
	headerSent    bool
}

func (w *responseWriter) WriteHeader(statusCode int) {
	if w.headerSent {
		return
	}
	w.headerSent = true

	contentType := w.Header().Get("Content-Type")
	if contentType != "" && shouldCompress(contentType) && w.acceptsGzip {
		w.gz = gzip.NewWriter(w.wrappedWriter)
		w.Header().Set("Content-Encoding", "gzip")
		w.Header().Del("Content-Length")
	}
	w.ResponseWriter.WriteHeader(statusCode)
}

func (w *responseWriter) Write(b []byte) (int, error) {
	if !w.headerSent {
		w.WriteHeader(http.StatusOK)
	}
	if w.gz != nil {
		return w.gz.Write(b)
	}
	return w.ResponseWriter.Write(b)
}

func (w *responseWriter) Flush() {
	if w.gz != nil {
		w.gz.Flush()
	}
	if flusher, ok := w.ResponseWriter.(http.Flusher); ok {
		flusher.Flush()
	}
}

func (w *responseWriter) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	if hijacker, ok := w.ResponseWriter.(http.Hijacker); ok {
		return hijacker.Hijack()
	}
	return nil, nil, fmt.Errorf("underlying ResponseWriter does not implement http.Hijacker")
}

func (w *responseWriter) Close() error {
	if w.gz != nil {
		return w.gz.Close()
	}
	return nil
}

// compress adds gzip to compressible responses.
func compress(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		wrapped := &responseWriter{
			ResponseWriter: w,
			wrappedWriter:  w,
			acceptsGzip:    strings.Contains(r.Header.Get("Accept-Encoding"), "gzip"),
		}
		defer wrapped.Close()
		next.ServeHTTP(wrapped, r)
	})
}

func handleWSMessage(client *Client, message []byte) {
	var msg WSMessage
	if err := json.Unmarshal(message, &msg); err != nil {
		log.Printf("WebSocket unmarshal error for player %d: %v", client.playerID, err)
		return
	}
	LogWSMessage("IN", accountName(client.playerID), msg.Action)

	if _, ok := nightActions[msg.Action]; ok {
		handleWSNightAction(client, msg)
		return
	}
	if _, ok := pairActions[msg.Action]; ok {
		handleWSNightAction(client, msg)
		return
	}

	switch msg.Action {
	case "update_role":
		handleWSUpdateRole(client, msg)
	case "claim_host":
		handleWSClaimHost(client)
	case "start_game":
		handleWSStartGame(client)
	case "resolve_night":
		handleWSResolveNight(client)
	case "day_vote":
		handleWSDayVote(client, msg)
	case "reveal_mayor":
		handleWSRevealMayor(client)
	case "hunter_shoot":
		handleWSHunterShoot(client, msg)
	case "end_day":
		handleWSEndDay(client)
	case "new_game":
		handleWSNewGame(client)
	default:
		log.Printf("Unknown action: %s for player %d", msg.Action, client.playerID)
	}
}

// newMux builds the full route table, wrapped with compression, cache
// control and optional request logging.
func newMux() *http.ServeMux {
	mux := http.NewServeMux()
	wrapHandler := func(pattern string, handler http.HandlerFunc) {
		var h http.Handler = handler
		h = compress(h)
		h = disableCaching(h)
		if appLogger != nil && appLogger.logRequests {
			mux.Handle(pattern, &LoggingHandler{Handler: h, Logger: appLogger})
		} else {
			mux.Handle(pattern, h)
		}
	}

	wrapHandler("/", handleIndex)
	wrapHandler("/signup", handleSignup)
	wrapHandler("/login", handleLogin)
	wrapHandler("/logout", handleLogout)
	wrapHandler("/game", handleGame)
	wrapHandler("/ws", handleWebSocket)
	wrapHandler("/game/component", handleGameComponent)
	wrapHandler("/game/character", handleCharacterInfo)
	mux.Handle("/static/", compress(http.FileServer(http.FS(staticFS))))
	return mux
}

func main() {
	fv := registerFlags()
	flag.Parse()
	config = loadConfig(*fv.configPath)
	fv.applyTo(&config)
	devMode = config.Dev

	logFile, err := os.OpenFile("werewolf.log", os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0644)
	if err != nil {
		log.Fatal("Failed to open log file:", err)
	}
	defer logFile.Close()
	log.SetOutput(io.MultiWriter(os.Stdout, logFile))

	logger, err := NewAppLogger(config.toLogConfig())
	if err != nil {
		log.Fatal("Failed to initialize logger:", err)
	}
	appLogger = logger
	defer CloseAppLogger()
	if appLogger.IsEnabled() {
		log.Println("Extended logging enabled")
	}

	db, err = sqlx.Connect("sqlite3", config.DB)
	if err != nil {
		log.Fatal("Failed to connect to database:", err)
	}
	defer db.Close()

	if err := initDB(); err != nil {
		log.Fatal("Failed to initialize database:", err)
	}
	LogDBState("after initDB")

	templates, err = template.New("").ParseFS(templateFS, "templates/*.html")
	if err != nil {
		log.Fatal("Failed to parse templates:", err)
	}

	initStoryteller(config)

	go hub.run()
	defer hub.stop()

	log.Printf("Server starting on %s", config.Addr)
	log.Fatal(http.ListenAndServe(config.Addr, newMux()))
}

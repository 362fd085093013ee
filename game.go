package main

import (
	"crypto/rand"
	"math/big"
	"sort"
	"strings"
	"sync"
)

// Phase is the game's top-level state.
type Phase int

const (
	PhaseLobby Phase = iota
	PhaseNight
	PhaseDay
	PhaseOver
)

func (p Phase) String() string {
	switch p {
	case PhaseLobby:
		return "lobby"
	case PhaseNight:
		return "night"
	case PhaseDay:
		return "day"
	default:
		return "over"
	}
}

// SkipVote is the day-vote sentinel for abstaining. A skip plurality cancels
// the lynch.
const SkipVote int64 = -1

// defaultMinPlayers is the engine floor; callers may raise it via config.
const defaultMinPlayers = 5

// Player is a registry record. Dead players stay in the registry with
// Alive=false; the registry never shrinks while the game lives.
type Player struct {
	ID    int64
	Name  string
	Role  *Role
	Alive bool
}

// intent records a single pending night action: who acts and on whom.
type intent struct {
	actor, target int64
}

// pairIntent records a night action aimed at two players at once.
type pairIntent struct {
	actor, first, second int64
}

// Game is the aggregate root for one running game. All exported methods
// serialize on the internal mutex; one Game is safe for concurrent use by
// many player sessions.
type Game struct {
	mu sync.Mutex

	ID             int64
	MinPlayers     int
	WolfCubRevenge bool // lynched Wolf Cub suppresses the next wolf kill

	phase    Phase
	dayCount int

	players map[int64]*Player
	order   []int64 // join order

	// Team sets. Supersets of the role alignments: conversions add members
	// without necessarily changing roles.
	wolves   map[int64]bool
	vampires map[int64]bool
	cult     map[int64]bool
	masons   map[int64]bool

	// Per-night intents, fully cleared by every resolution.
	wolfVotes      map[int64]int64
	seerPeek       *intent
	auraPeek       *intent
	sorcScry       *intent
	priestBless    *intent
	doctorSave     *intent
	bodyguardGuard *intent
	witchHeal      *intent
	witchPoison    *intent
	hagSilence     *intent
	vampireBite    *intent
	cultRecruit    *intent
	cupidPair      *pairIntent
	spellBind      *pairIntent
	troubleSwap    *pairIntent
	investigate    *pairIntent

	// Per-day votes: voter -> target or SkipVote.
	votes map[int64]int64

	// Carry-over modifiers that outlive a single night or day.
	witchHealLeft   bool
	witchPoisonLeft bool
	bodyguardLast   int64
	lovers          [2]int64
	mayorRevealed   bool
	princeRevealed  map[int64]bool
	toughGuyHit     map[int64]bool
	skipWolfKill    bool
	boundTonight    map[int64]bool
	silencedToday   map[int64]bool
	pendingHunter   int64

	winner Winner
}

// NewGame creates an empty lobby.
func NewGame(id int64) *Game {
	g := &Game{
		ID:         id,
		MinPlayers: defaultMinPlayers,
		phase:      PhaseLobby,
		players:    make(map[int64]*Player),
	}
	g.resetRuntimeState()
	return g
}

// resetRuntimeState clears everything except the registry and config.
// Callers hold the lock (or own the Game exclusively, as NewGame does).
func (g *Game) resetRuntimeState() {
	g.wolves = make(map[int64]bool)
	g.vampires = make(map[int64]bool)
	g.cult = make(map[int64]bool)
	g.masons = make(map[int64]bool)
	g.clearNightIntents()
	g.votes = make(map[int64]int64)
	g.witchHealLeft = true
	g.witchPoisonLeft = true
	g.bodyguardLast = 0
	g.lovers = [2]int64{}
	g.mayorRevealed = false
	g.princeRevealed = make(map[int64]bool)
	g.toughGuyHit = make(map[int64]bool)
	g.skipWolfKill = false
	g.boundTonight = make(map[int64]bool)
	g.silencedToday = make(map[int64]bool)
	g.pendingHunter = 0
	g.winner = WinnerNone
}

func (g *Game) clearNightIntents() {
	g.wolfVotes = make(map[int64]int64)
	g.seerPeek = nil
	g.auraPeek = nil
	g.sorcScry = nil
	g.priestBless = nil
	g.doctorSave = nil
	g.bodyguardGuard = nil
	g.witchHeal = nil
	g.witchPoison = nil
	g.hagSilence = nil
	g.vampireBite = nil
	g.cultRecruit = nil
	g.cupidPair = nil
	g.spellBind = nil
	g.troubleSwap = nil
	g.investigate = nil
}

// AddPlayer registers a participant. Lobby only; ids are never reused.
func (g *Game) AddPlayer(id int64, name string) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.phase != PhaseLobby {
		return errf(ErrWrongPhase, "players can only join in the lobby")
	}
	if _, ok := g.players[id]; ok {
		return errf(ErrInvalidTarget, "player %d already joined", id)
	}
	g.players[id] = &Player{ID: id, Name: name, Alive: true}
	g.order = append(g.order, id)
	return nil
}

// RemovePlayer drops a participant who left before the game started. Once
// roles are dealt the registry never shrinks; the dead stay on the books.
func (g *Game) RemovePlayer(id int64) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.phase != PhaseLobby {
		return errf(ErrWrongPhase, "players can only leave in the lobby")
	}
	if _, ok := g.players[id]; !ok {
		return errf(ErrInvalidTarget, "player %d is not in the lobby", id)
	}
	delete(g.players, id)
	for i, uid := range g.order {
		if uid == id {
			g.order = append(g.order[:i], g.order[i+1:]...)
			break
		}
	}
	return nil
}

// AssignRoles deals a deck to the roster and opens the first night. The deck
// is padded with Villager when short and truncated when long; roster and deck
// are shuffled independently so seating order leaks nothing.
func (g *Game) AssignRoles(deck []*Role) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.phase != PhaseLobby {
		return errf(ErrAlreadyStarted, "game is in %s phase", g.phase)
	}
	if len(g.players) < g.MinPlayers {
		return errf(ErrNotEnoughPlayers, "have %d players, need %d", len(g.players), g.MinPlayers)
	}

	uids := make([]int64, len(g.order))
	copy(uids, g.order)
	shuffle(uids)

	pool := make([]*Role, len(deck))
	copy(pool, deck)
	for len(pool) < len(uids) {
		pool = append(pool, Villager)
	}
	shuffle(pool)
	pool = pool[:len(uids)]

	g.resetRuntimeState()
	for i, uid := range uids {
		g.setRole(uid, pool[i])
	}
	g.phase = PhaseNight
	g.dayCount = 0
	return nil
}

// setRole assigns a role and seeds the role-derived team sets.
func (g *Game) setRole(uid int64, r *Role) {
	g.players[uid].Role = r
	if isWolfTeamRole(r) {
		g.wolves[uid] = true
	}
	switch r {
	case Vampire:
		g.vampires[uid] = true
	case CultLeader:
		g.cult[uid] = true
	case Mason:
		g.masons[uid] = true
	}
}

// Phase returns the current phase.
func (g *Game) Phase() Phase {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.phase
}

// DayCount returns the number of completed nights.
func (g *Game) DayCount() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.dayCount
}

// Players returns registry snapshots in join order, dead players included.
func (g *Game) Players() []Player {
	g.mu.Lock()
	defer g.mu.Unlock()
	out := make([]Player, 0, len(g.order))
	for _, uid := range g.order {
		out = append(out, *g.players[uid])
	}
	return out
}

// Player returns a snapshot of one registry record.
func (g *Game) Player(id int64) (Player, bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	p, ok := g.players[id]
	if !ok {
		return Player{}, false
	}
	return *p, true
}

// AlivePlayers returns snapshots of the living roster in join order.
func (g *Game) AlivePlayers() []Player {
	g.mu.Lock()
	defer g.mu.Unlock()
	var out []Player
	for _, uid := range g.order {
		if g.players[uid].Alive {
			out = append(out, *g.players[uid])
		}
	}
	return out
}

// PlayerByNumber resolves a 1-based index over the alphabetically sorted
// living roster, for chat UIs that show numbered lists.
func (g *Game) PlayerByNumber(n int) (int64, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	alive := g.aliveSortedByName()
	if n < 1 || n > len(alive) {
		return 0, errf(ErrInvalidTarget, "no player numbered %d", n)
	}
	return alive[n-1].ID, nil
}

// ResolveName resolves free text against the living roster: exact match
// first, then unique prefix, then unique substring. Comparisons are
// case-insensitive.
func (g *Game) ResolveName(text string) (int64, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	needle := strings.ToLower(strings.TrimSpace(text))
	if needle == "" {
		return 0, errf(ErrInvalidTarget, "empty name")
	}
	alive := g.aliveSortedByName()

	for _, p := range alive {
		if strings.ToLower(p.Name) == needle {
			return p.ID, nil
		}
	}
	if id, err := uniqueMatch(alive, needle, strings.HasPrefix); err == nil {
		return id, nil
	} else if ge, ok := err.(*GameError); ok && ge.Kind == ErrAmbiguous {
		return 0, err
	}
	return uniqueMatch(alive, needle, strings.Contains)
}

func uniqueMatch(alive []*Player, needle string, match func(s, sub string) bool) (int64, error) {
	var found *Player
	for _, p := range alive {
		if match(strings.ToLower(p.Name), needle) {
			if found != nil {
				return 0, errf(ErrAmbiguous, "%q matches %s and %s", needle, found.Name, p.Name)
			}
			found = p
		}
	}
	if found == nil {
		return 0, errf(ErrInvalidTarget, "no living player matches %q", needle)
	}
	return found.ID, nil
}

func (g *Game) aliveSortedByName() []*Player {
	var alive []*Player
	for _, uid := range g.order {
		if g.players[uid].Alive {
			alive = append(alive, g.players[uid])
		}
	}
	sort.Slice(alive, func(i, j int) bool { return alive[i].Name < alive[j].Name })
	return alive
}

// WolfTeam returns the ids of living wolf-team members.
func (g *Game) WolfTeam() []int64 {
	g.mu.Lock()
	defer g.mu.Unlock()
	var out []int64
	for _, uid := range g.order {
		if g.wolves[uid] && g.players[uid].Alive {
			out = append(out, uid)
		}
	}
	return out
}

// MasonLodge returns the ids of living masons.
func (g *Game) MasonLodge() []int64 {
	g.mu.Lock()
	defer g.mu.Unlock()
	var out []int64
	for _, uid := range g.order {
		if g.masons[uid] && g.players[uid].Alive {
			out = append(out, uid)
		}
	}
	return out
}

// IsSilenced reports whether a player's vote is hexed away today.
func (g *Game) IsSilenced(id int64) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.silencedToday[id]
}

// IsBound reports whether a player is barred from acting tonight.
func (g *Game) IsBound(id int64) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.boundTonight[id]
}

// PendingHunter returns the id of a dead Hunter who still owes the village a
// shot, or 0.
func (g *Game) PendingHunter() int64 {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.pendingHunter
}

// Lovers returns the linked pair, or zeros when Cupid never fired.
func (g *Game) Lovers() (int64, int64) {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.lovers[0], g.lovers[1]
}

// MayorRevealed reports whether the Mayor has stepped forward.
func (g *Game) MayorRevealed() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.mayorRevealed
}

// WolfVotes returns a copy of tonight's kill votes.
func (g *Game) WolfVotes() map[int64]int64 {
	g.mu.Lock()
	defer g.mu.Unlock()
	out := make(map[int64]int64, len(g.wolfVotes))
	for k, v := range g.wolfVotes {
		out[k] = v
	}
	return out
}

// VotesCast returns a copy of today's ballot: voter -> target or SkipVote.
func (g *Game) VotesCast() map[int64]int64 {
	g.mu.Lock()
	defer g.mu.Unlock()
	out := make(map[int64]int64, len(g.votes))
	for k, v := range g.votes {
		out[k] = v
	}
	return out
}

// IsOver evaluates the win conditions against the current roster. Once the
// game has been closed it returns the recorded winner (Tanner wins are set by
// the lynch itself and would not reproduce from the roster alone).
func (g *Game) IsOver() Winner {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.phase == PhaseOver {
		return g.winner
	}
	return evaluateWinner(g)
}

// livingTarget validates that an id names a living registry member.
// Callers hold the lock.
func (g *Game) livingTarget(id int64) *GameError {
	p, ok := g.players[id]
	if !ok {
		return errf(ErrInvalidTarget, "no player %d", id)
	}
	if !p.Alive {
		return errf(ErrInvalidTarget, "%s is dead", p.Name)
	}
	return nil
}

func (g *Game) aliveCount() int {
	n := 0
	for _, p := range g.players {
		if p.Alive {
			n++
		}
	}
	return n
}

// shuffle is a Fisher-Yates over crypto/rand, matching the role dealer's
// refusal to use a seedable source.
func shuffle[T any](s []T) {
	for i := len(s) - 1; i > 0; i-- {
		j := randIndex(i + 1)
		s[i], s[j] = s[j], s[i]
	}
}

// randIndex returns a uniform int in [0, n).
func randIndex(n int) int {
	jBig, err := rand.Int(rand.Reader, big.NewInt(int64(n)))
	if err != nil {
		// crypto/rand failing is effectively fatal elsewhere; degrade to the
		// first element rather than panic mid-resolution.
		return 0
	}
	return int(jBig.Int64())
}

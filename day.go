package main

import (
	"fmt"
	"strings"
)

// DayOutcome reports what ending the day did.
type DayOutcome struct {
	Lynched     int64 // 0 when nobody was lynched
	PrinceSaved int64 // Prince who revealed to dodge the rope, or 0
	TannerWin   bool
	HunterDied  int64 // lynched Hunter owed a revenge shot, or 0
	Winner      Winner
	Text        string
}

// Vote records or overwrites a day vote. SkipVote abstains; a skip plurality
// cancels the lynch.
func (g *Game) Vote(voter, target int64) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.phase != PhaseDay {
		return errf(ErrWrongPhase, "voting is not allowed in %s phase", g.phase)
	}
	p, ok := g.players[voter]
	if !ok || !p.Alive {
		return errf(ErrRoleMismatch, "player %d is not a living voter", voter)
	}
	if g.silencedToday[voter] {
		return errf(ErrBound, "%s has been silenced today", p.Name)
	}
	if target != SkipVote {
		if err := g.livingTarget(target); err != nil {
			return err
		}
	}
	g.votes[voter] = target
	return nil
}

// Tally returns the weighted vote totals per target. A revealed Mayor votes
// double; the Village Idiot's vote is recorded but weighs nothing.
func (g *Game) Tally() map[int64]int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.tallyLocked()
}

func (g *Game) tallyLocked() map[int64]int {
	totals := make(map[int64]int)
	for voter, target := range g.votes {
		totals[target] += g.voteWeight(voter)
	}
	return totals
}

func (g *Game) voteWeight(voter int64) int {
	p := g.players[voter]
	switch {
	case p.Role == VillageIdiot:
		return 0
	case p.Role == Mayor && g.mayorRevealed:
		return 2
	default:
		return 1
	}
}

// RevealMayor steps the Mayor forward; from now on their vote counts twice.
func (g *Game) RevealMayor(uid int64) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.phase != PhaseDay {
		return errf(ErrWrongPhase, "the Mayor can only reveal during the day")
	}
	p, ok := g.players[uid]
	if !ok || !p.Alive || p.Role != Mayor {
		return errf(ErrRoleMismatch, "player %d is not a living Mayor", uid)
	}
	if g.mayorRevealed {
		return errf(ErrResourceExhausted, "the Mayor has already revealed")
	}
	g.mayorRevealed = true
	return nil
}

// EndDay resolves the lynch vote and opens the next night. A tie, a skip
// plurality, a zero-weight plurality or an empty ballot all spare everyone.
func (g *Game) EndDay() (*DayOutcome, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.phase != PhaseDay {
		return nil, errf(ErrWrongPhase, "cannot end the day in %s phase", g.phase)
	}

	o := &DayOutcome{}
	target, ok := pluralityTarget(g.tallyLocked())

	switch {
	case !ok || target == SkipVote:
		// No lynch.
	default:
		t := g.players[target]
		switch {
		case t.Role == Prince && !g.princeRevealed[target]:
			g.princeRevealed[target] = true
			o.PrinceSaved = target
		case t.Role == Tanner:
			t.Alive = false
			o.Lynched = target
			o.TannerWin = true
			g.winner = WinnerTanner
			g.phase = PhaseOver
			o.Winner = WinnerTanner
			o.Text = g.dayText(o)
			return o, nil
		default:
			t.Alive = false
			o.Lynched = target
			if t.Role == WolfCub && g.WolfCubRevenge {
				g.skipWolfKill = true
			}
			if t.Role == Hunter {
				g.pendingHunter = target
				o.HunterDied = target
			}
		}
	}

	g.votes = make(map[int64]int64)
	g.silencedToday = make(map[int64]bool)
	g.phase = PhaseNight

	if w := evaluateWinner(g); w != WinnerNone {
		g.winner = w
		g.phase = PhaseOver
		o.Winner = w
	}

	o.Text = g.dayText(o)
	return o, nil
}

// HunterShoot fires the dead Hunter's revenge shot. If the victim is another
// Hunter the window stays open for them.
func (g *Game) HunterShoot(actor, target int64) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.phase == PhaseOver {
		return errf(ErrWrongPhase, "the game is already over")
	}
	if g.pendingHunter == 0 || actor != g.pendingHunter {
		return errf(ErrRoleMismatch, "player %d has no revenge shot to take", actor)
	}
	if err := g.livingTarget(target); err != nil {
		return err
	}

	t := g.players[target]
	t.Alive = false
	g.pendingHunter = 0
	if t.Role == Hunter {
		g.pendingHunter = target
	}

	if w := evaluateWinner(g); w != WinnerNone {
		g.winner = w
		g.phase = PhaseOver
	}
	return nil
}

// pluralityTarget finds the sole top-weight target. Ties and empty or
// all-zero tallies return ok=false.
func pluralityTarget(totals map[int64]int) (int64, bool) {
	best := 0
	var tied []int64
	for target, w := range totals {
		switch {
		case w > best:
			best = w
			tied = []int64{target}
		case w == best && w > 0:
			tied = append(tied, target)
		}
	}
	if best == 0 || len(tied) != 1 {
		return 0, false
	}
	return tied[0], true
}

// dayText renders the public evening report. Callers hold the lock.
func (g *Game) dayText(o *DayOutcome) string {
	var b strings.Builder
	switch {
	case o.PrinceSaved != 0:
		fmt.Fprintf(&b, "%s is dragged to the gallows, but reveals the royal seal. The lynch is off.",
			g.players[o.PrinceSaved].Name)
	case o.TannerWin:
		fmt.Fprintf(&b, "%s swings from the rope, grinning. The Tanner wanted this all along.",
			g.players[o.Lynched].Name)
	case o.Lynched != 0:
		p := g.players[o.Lynched]
		fmt.Fprintf(&b, "The village lynches %s, who was %s.", p.Name, p.Role.Name)
	default:
		b.WriteString("The village cannot agree. Nobody is lynched.")
	}
	if o.Winner != WinnerNone {
		fmt.Fprintf(&b, " %s", o.Winner.Announcement())
	} else {
		b.WriteString(" Night falls.")
	}
	return b.String()
}

package main

import (
	"fmt"
	"sort"
	"strings"
)

// Vision is one private scrying result computed during night resolution,
// before any deaths land. Second is zero except for the paranormal
// investigator's pairwise check.
type Vision struct {
	Viewer int64
	First  int64
	Second int64
	Hit    bool
}

// NightSummary reports what a night resolution did. Deaths, conversions and
// recruitments are public; Visions are for private delivery to each viewer.
type NightSummary struct {
	Deaths     []int64
	Converted  []int64 // bitten villagers who rose as vampires
	Recruited  []int64
	Silenced   []int64
	Visions    []Vision
	HunterDied int64 // dead Hunter owed a revenge shot, or 0
	Winner     Winner
	Text       string
}

// nightActor validates the common preconditions for a night intake call:
// night phase, living actor with the required role, not bound. Callers hold
// the lock.
func (g *Game) nightActor(uid int64, want *Role) *GameError {
	if g.phase != PhaseNight {
		return errf(ErrWrongPhase, "night actions are not allowed in %s phase", g.phase)
	}
	p, ok := g.players[uid]
	if !ok || !p.Alive || p.Role != want {
		return errf(ErrRoleMismatch, "player %d is not a living %s", uid, want.Name)
	}
	if g.boundTonight[uid] {
		return errf(ErrBound, "%s is bound tonight", p.Name)
	}
	return nil
}

// WolfKill records one pack member's kill vote. Votes accumulate across the
// pack; the plurality target dies at resolution.
func (g *Game) WolfKill(actor, target int64) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.phase != PhaseNight {
		return errf(ErrWrongPhase, "night actions are not allowed in %s phase", g.phase)
	}
	p, ok := g.players[actor]
	if !ok || !p.Alive || !isKillingWolf(p.Role) {
		return errf(ErrRoleMismatch, "player %d is not a living killing wolf", actor)
	}
	if g.boundTonight[actor] {
		return errf(ErrBound, "%s is bound tonight", p.Name)
	}
	if err := g.livingTarget(target); err != nil {
		return err
	}
	g.wolfVotes[actor] = target
	return nil
}

// SeerPeek records the Seer's alignment check.
func (g *Game) SeerPeek(actor, target int64) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if err := g.nightActor(actor, Seer); err != nil {
		return err
	}
	if err := g.livingTarget(target); err != nil {
		return err
	}
	g.seerPeek = &intent{actor, target}
	return nil
}

// AuraPeek records the Aura Seer's power check.
func (g *Game) AuraPeek(actor, target int64) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if err := g.nightActor(actor, AuraSeer); err != nil {
		return err
	}
	if err := g.livingTarget(target); err != nil {
		return err
	}
	g.auraPeek = &intent{actor, target}
	return nil
}

// SorceressScry records the Sorceress's search for the Seer.
func (g *Game) SorceressScry(actor, target int64) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if err := g.nightActor(actor, Sorceress); err != nil {
		return err
	}
	if err := g.livingTarget(target); err != nil {
		return err
	}
	g.sorcScry = &intent{actor, target}
	return nil
}

// PriestBless records the Priest's protection.
func (g *Game) PriestBless(actor, target int64) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if err := g.nightActor(actor, Priest); err != nil {
		return err
	}
	if err := g.livingTarget(target); err != nil {
		return err
	}
	g.priestBless = &intent{actor, target}
	return nil
}

// DoctorSave records the Doctor's protection.
func (g *Game) DoctorSave(actor, target int64) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if err := g.nightActor(actor, Doctor); err != nil {
		return err
	}
	if err := g.livingTarget(target); err != nil {
		return err
	}
	g.doctorSave = &intent{actor, target}
	return nil
}

// BodyguardProtect records the Bodyguard's protection. Guarding the same
// player two nights running is not allowed.
func (g *Game) BodyguardProtect(actor, target int64) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if err := g.nightActor(actor, Bodyguard); err != nil {
		return err
	}
	if err := g.livingTarget(target); err != nil {
		return err
	}
	if target == g.bodyguardLast {
		return errf(ErrRepeatTarget, "%s was already guarded last night", g.players[target].Name)
	}
	g.bodyguardGuard = &intent{actor, target}
	return nil
}

// WitchHeal spends the Witch's one heal potion. The target only needs to
// exist in the registry: the whole point is saving someone about to die.
func (g *Game) WitchHeal(actor, target int64) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if err := g.nightActor(actor, Witch); err != nil {
		return err
	}
	if !g.witchHealLeft {
		return errf(ErrResourceExhausted, "the heal potion is spent")
	}
	if _, ok := g.players[target]; !ok {
		return errf(ErrInvalidTarget, "no player %d", target)
	}
	g.witchHeal = &intent{actor, target}
	return nil
}

// WitchPoison spends the Witch's one poison potion.
func (g *Game) WitchPoison(actor, target int64) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if err := g.nightActor(actor, Witch); err != nil {
		return err
	}
	if !g.witchPoisonLeft {
		return errf(ErrResourceExhausted, "the poison potion is spent")
	}
	if err := g.livingTarget(target); err != nil {
		return err
	}
	g.witchPoison = &intent{actor, target}
	return nil
}

// OldHagSilence records the hag's hex. The target loses tomorrow's vote.
func (g *Game) OldHagSilence(actor, target int64) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if err := g.nightActor(actor, OldHag); err != nil {
		return err
	}
	if err := g.livingTarget(target); err != nil {
		return err
	}
	g.hagSilence = &intent{actor, target}
	return nil
}

// VampireBite records the vampire's bite.
func (g *Game) VampireBite(actor, target int64) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if err := g.nightActor(actor, Vampire); err != nil {
		return err
	}
	if err := g.livingTarget(target); err != nil {
		return err
	}
	g.vampireBite = &intent{actor, target}
	return nil
}

// CultRecruit records the Cult Leader's recruitment attempt.
func (g *Game) CultRecruit(actor, target int64) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if err := g.nightActor(actor, CultLeader); err != nil {
		return err
	}
	if err := g.livingTarget(target); err != nil {
		return err
	}
	g.cultRecruit = &intent{actor, target}
	return nil
}

// CupidPair links two players as lovers. One dies, the other follows.
func (g *Game) CupidPair(actor, first, second int64) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if err := g.nightActor(actor, Cupid); err != nil {
		return err
	}
	if err := g.pairTargets(first, second); err != nil {
		return err
	}
	g.cupidPair = &pairIntent{actor, first, second}
	return nil
}

// SpellcasterBind marks two players unable to act the following night.
func (g *Game) SpellcasterBind(actor, first, second int64) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if err := g.nightActor(actor, Spellcaster); err != nil {
		return err
	}
	if err := g.pairTargets(first, second); err != nil {
		return err
	}
	g.spellBind = &pairIntent{actor, first, second}
	return nil
}

// TroublemakerSwap exchanges two players' roles during the night.
func (g *Game) TroublemakerSwap(actor, first, second int64) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if err := g.nightActor(actor, Troublemaker); err != nil {
		return err
	}
	if err := g.pairTargets(first, second); err != nil {
		return err
	}
	g.troubleSwap = &pairIntent{actor, first, second}
	return nil
}

// InvestigatorCheck scans two players at once for a wolf presence.
func (g *Game) InvestigatorCheck(actor, first, second int64) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if err := g.nightActor(actor, Investigator); err != nil {
		return err
	}
	if err := g.pairTargets(first, second); err != nil {
		return err
	}
	g.investigate = &pairIntent{actor, first, second}
	return nil
}

// pairTargets validates two distinct living targets. Callers hold the lock.
func (g *Game) pairTargets(first, second int64) *GameError {
	if err := g.livingTarget(first); err != nil {
		return err
	}
	if err := g.livingTarget(second); err != nil {
		return err
	}
	if first == second {
		return errf(ErrInvalidTarget, "the two targets must differ")
	}
	return nil
}

// ResolveNight consumes all pending night intents in a fixed order, applies
// deaths and conversions, and opens the next day. Exactly one resolution
// happens per night; every intent slot is cleared on the way out.
func (g *Game) ResolveNight() (*NightSummary, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.phase != PhaseNight {
		return nil, errf(ErrWrongPhase, "cannot resolve the night in %s phase", g.phase)
	}

	s := &NightSummary{}

	// Silence lands tomorrow, never tonight.
	silenced := make(map[int64]bool)
	if g.hagSilence != nil && g.players[g.hagSilence.target].Alive {
		silenced[g.hagSilence.target] = true
		s.Silenced = append(s.Silenced, g.hagSilence.target)
	}

	// Visions read the pre-death, pre-swap state of the village.
	if g.seerPeek != nil {
		t := g.players[g.seerPeek.target]
		s.Visions = append(s.Visions, Vision{
			Viewer: g.seerPeek.actor, First: t.ID,
			Hit: readsAsWolf(t.Role),
		})
	}
	if g.auraPeek != nil {
		t := g.players[g.auraPeek.target]
		s.Visions = append(s.Visions, Vision{
			Viewer: g.auraPeek.actor, First: t.ID,
			Hit: t.Role.NightAction,
		})
	}
	if g.sorcScry != nil {
		t := g.players[g.sorcScry.target]
		s.Visions = append(s.Visions, Vision{
			Viewer: g.sorcScry.actor, First: t.ID,
			Hit: t.Role == Seer,
		})
	}
	if g.investigate != nil {
		a := g.players[g.investigate.first]
		b := g.players[g.investigate.second]
		s.Visions = append(s.Visions, Vision{
			Viewer: g.investigate.actor, First: a.ID, Second: b.ID,
			Hit: readsAsWolf(a.Role) || readsAsWolf(b.Role),
		})
	}

	// Cupid's arrow and the role swap commit before anything lethal.
	if g.cupidPair != nil {
		g.lovers = [2]int64{g.cupidPair.first, g.cupidPair.second}
	}
	if g.troubleSwap != nil {
		g.swapRoles(g.troubleSwap.first, g.troubleSwap.second)
	}
	nextBound := make(map[int64]bool)
	if g.spellBind != nil {
		nextBound[g.spellBind.first] = true
		nextBound[g.spellBind.second] = true
	}

	// Wolf kill tally. Plurality wins, ties break at random.
	var killList []int64
	if !g.skipWolfKill {
		if victim, ok := tallyWolfVotes(g.wolfVotes); ok {
			killList = append(killList, victim)
		}
	}
	g.skipWolfKill = false

	// Protections are a union. Three sources, one effect.
	protected := make(map[int64]bool)
	if g.doctorSave != nil {
		protected[g.doctorSave.target] = true
	}
	if g.bodyguardGuard != nil {
		protected[g.bodyguardGuard.target] = true
		g.bodyguardLast = g.bodyguardGuard.target
	} else {
		g.bodyguardLast = 0
	}
	if g.priestBless != nil {
		protected[g.priestBless.target] = true
	}

	// The heal pulls its target off the kill list outright.
	if g.witchHeal != nil {
		killList = removeID(killList, g.witchHeal.target)
		protected[g.witchHeal.target] = true
		g.witchHealLeft = false
	}

	// Cult recruitment. Wolves, vampires and the protected cannot be turned.
	if r := g.cultRecruit; r != nil {
		t := g.players[r.target]
		if t.Alive && !protected[r.target] && !g.wolves[r.target] && !g.vampires[r.target] {
			g.cult[r.target] = true
			s.Recruited = append(s.Recruited, r.target)
		}
	}

	// Vampire bite: convert the ordinary, kill the gifted.
	if b := g.vampireBite; b != nil {
		t := g.players[b.target]
		if t.Alive && !protected[b.target] {
			if t.Role.Alignment == AlignVillage && !isVampireProof(t.Role) {
				t.Role = Vampire
				g.vampires[b.target] = true
				s.Converted = append(s.Converted, b.target)
			} else {
				killList = append(killList, b.target)
			}
		}
	}

	// Deaths, with per-role modifiers.
	for _, id := range killList {
		t := g.players[id]
		if !t.Alive || protected[id] {
			continue
		}
		switch {
		case t.Role == ToughGuy && !g.toughGuyHit[id]:
			g.toughGuyHit[id] = true
		case t.Role == Cursed:
			t.Role = Werewolf
			g.wolves[id] = true
		case t.Role == Diseased:
			t.Alive = false
			g.skipWolfKill = true
			s.Deaths = append(s.Deaths, id)
		default:
			t.Alive = false
			s.Deaths = append(s.Deaths, id)
		}
	}

	// Poison is its own pipeline. No modifiers soften it.
	if p := g.witchPoison; p != nil {
		t := g.players[p.target]
		if t.Alive && !protected[p.target] {
			t.Alive = false
			s.Deaths = append(s.Deaths, p.target)
		}
		g.witchPoisonLeft = false
	}

	// Grief. If exactly one lover fell tonight, the other follows.
	if g.lovers[0] != 0 {
		a, b := g.players[g.lovers[0]], g.players[g.lovers[1]]
		if a.Alive != b.Alive {
			dead, survivor := a, b
			if !b.Alive {
				dead, survivor = b, a
			}
			if containsID(s.Deaths, dead.ID) {
				survivor.Alive = false
				s.Deaths = append(s.Deaths, survivor.ID)
			}
		}
	}

	for _, id := range s.Deaths {
		if g.players[id].Role == Hunter {
			g.pendingHunter = id
			s.HunterDied = id
		}
	}

	g.clearNightIntents()
	g.boundTonight = nextBound
	g.silencedToday = silenced
	g.votes = make(map[int64]int64)
	g.phase = PhaseDay
	g.dayCount++

	if w := evaluateWinner(g); w != WinnerNone {
		g.winner = w
		g.phase = PhaseOver
		s.Winner = w
	}

	s.Text = g.nightText(s)
	return s, nil
}

// swapRoles exchanges two players' roles and rebuilds the role-derived team
// memberships. Membership acquired by conversion (cult, vampire set entries
// without the Vampire role) stays with the player, not the card.
func (g *Game) swapRoles(a, b int64) {
	pa, pb := g.players[a], g.players[b]
	pa.Role, pb.Role = pb.Role, pa.Role
	for _, id := range []int64{a, b} {
		p := g.players[id]
		if isWolfTeamRole(p.Role) {
			g.wolves[id] = true
		} else {
			delete(g.wolves, id)
		}
		if p.Role == Mason {
			g.masons[id] = true
		} else {
			delete(g.masons, id)
		}
		if p.Role == Vampire {
			g.vampires[id] = true
		}
	}
}

// tallyWolfVotes computes the plurality target of the pack's votes. Ties
// break uniformly at random among the tied targets.
func tallyWolfVotes(votes map[int64]int64) (int64, bool) {
	if len(votes) == 0 {
		return 0, false
	}
	counts := make(map[int64]int)
	for _, target := range votes {
		counts[target]++
	}
	best := 0
	var tied []int64
	for target, n := range counts {
		switch {
		case n > best:
			best = n
			tied = []int64{target}
		case n == best:
			tied = append(tied, target)
		}
	}
	sort.Slice(tied, func(i, j int) bool { return tied[i] < tied[j] })
	return tied[randIndex(len(tied))], true
}

func removeID(ids []int64, id int64) []int64 {
	out := ids[:0]
	for _, v := range ids {
		if v != id {
			out = append(out, v)
		}
	}
	return out
}

func containsID(ids []int64, id int64) bool {
	for _, v := range ids {
		if v == id {
			return true
		}
	}
	return false
}

// nightText renders the public morning report. Callers hold the lock.
func (g *Game) nightText(s *NightSummary) string {
	var b strings.Builder
	if len(s.Deaths) == 0 {
		b.WriteString("The village wakes to a quiet morning. Nobody died.")
	} else {
		names := make([]string, 0, len(s.Deaths))
		for _, id := range s.Deaths {
			names = append(names, g.players[id].Name)
		}
		fmt.Fprintf(&b, "The village wakes to find %s dead.", joinNames(names))
	}
	for _, id := range s.Converted {
		fmt.Fprintf(&b, " %s looks unusually pale this morning.", g.players[id].Name)
	}
	for _, id := range s.Recruited {
		fmt.Fprintf(&b, " %s was seen returning late from a meeting.", g.players[id].Name)
	}
	if s.Winner != WinnerNone {
		fmt.Fprintf(&b, " %s", s.Winner.Announcement())
	} else {
		fmt.Fprintf(&b, " Day %d begins.", g.dayCount)
	}
	return b.String()
}

func joinNames(names []string) string {
	switch len(names) {
	case 0:
		return ""
	case 1:
		return names[0]
	case 2:
		return names[0] + " and " + names[1]
	default:
		return strings.Join(names[:len(names)-1], ", ") + " and " + names[len(names)-1]
	}
}

package main

import "testing"

// dayGame builds a game already in its first day.
func dayGame(t *testing.T, roles ...*Role) (*Game, []int64) {
	t.Helper()
	g, ids := testGame(t, roles...)
	toDay(t, g)
	return g, ids
}

func TestVoteRequiresDayPhase(t *testing.T) {
	g, ids := testGame(t, Werewolf, Villager, Villager, Villager, Villager)
	wantKind(t, g.Vote(ids[1], ids[0]), ErrWrongPhase)
}

func TestDeadCannotVote(t *testing.T) {
	g, ids := testGame(t, Werewolf, Villager, Villager, Villager, Villager, Villager)
	g.WolfKill(ids[0], ids[1])
	toDay(t, g)
	wantKind(t, g.Vote(ids[1], ids[0]), ErrRoleMismatch)
}

func TestVoteRejectsDeadTarget(t *testing.T) {
	g, ids := testGame(t, Werewolf, Villager, Villager, Villager, Villager, Villager)
	g.WolfKill(ids[0], ids[1])
	toDay(t, g)
	wantKind(t, g.Vote(ids[2], ids[1]), ErrInvalidTarget)
}

func TestLynchPlurality(t *testing.T) {
	g, ids := dayGame(t, Werewolf, Villager, Villager, Villager, Villager)
	wolf := ids[0]

	g.Vote(ids[1], wolf)
	g.Vote(ids[2], wolf)
	g.Vote(wolf, ids[1])

	o := mustEndDay(t, g)
	if o.Lynched != wolf {
		t.Fatalf("expected %d lynched, got %d", wolf, o.Lynched)
	}
	if o.Winner != WinnerVillage {
		t.Errorf("the last wolf swinging ends the game, got %s", o.Winner)
	}
	if g.Phase() != PhaseOver {
		t.Errorf("expected game over, got %s", g.Phase())
	}
}

func TestLynchTieSparesEveryone(t *testing.T) {
	g, ids := dayGame(t, Werewolf, Villager, Villager, Villager, Villager)

	g.Vote(ids[1], ids[2])
	g.Vote(ids[2], ids[1])

	o := mustEndDay(t, g)
	if o.Lynched != 0 {
		t.Errorf("a tie must not lynch, got %d", o.Lynched)
	}
	if g.Phase() != PhaseNight {
		t.Errorf("expected night, got %s", g.Phase())
	}
}

func TestSkipPluralityCancelsLynch(t *testing.T) {
	g, ids := dayGame(t, Werewolf, Villager, Villager, Villager, Villager)

	g.Vote(ids[1], SkipVote)
	g.Vote(ids[2], SkipVote)
	g.Vote(ids[3], ids[0])

	o := mustEndDay(t, g)
	if o.Lynched != 0 {
		t.Errorf("a skip plurality must not lynch, got %d", o.Lynched)
	}
}

func TestVoteIsOverwritten(t *testing.T) {
	g, ids := dayGame(t, Werewolf, Villager, Villager, Villager, Villager)

	g.Vote(ids[1], ids[0])
	g.Vote(ids[1], ids[2]) // changes their mind

	votes := g.VotesCast()
	if votes[ids[1]] != ids[2] {
		t.Errorf("last vote should stand, got %d", votes[ids[1]])
	}
	if len(votes) != 1 {
		t.Errorf("one voter, one ballot; got %d", len(votes))
	}
}

func TestMayorRevealDoublesVote(t *testing.T) {
	g, ids := dayGame(t, Werewolf, Mayor, Villager, Villager, Villager)
	mayor, a, b := ids[1], ids[2], ids[3]

	// Unrevealed: one against one is a tie.
	g.Vote(mayor, a)
	g.Vote(a, b)
	tally := g.Tally()
	if tally[a] != 1 || tally[b] != 1 {
		t.Fatalf("unrevealed mayor weighs one, tally: %v", tally)
	}

	if err := g.RevealMayor(mayor); err != nil {
		t.Fatalf("RevealMayor: %v", err)
	}
	tally = g.Tally()
	if tally[a] != 2 {
		t.Errorf("revealed mayor weighs two, tally: %v", tally)
	}

	o := mustEndDay(t, g)
	if o.Lynched != a {
		t.Errorf("the mayor's double vote should carry, got %d", o.Lynched)
	}
}

func TestRevealMayorGuards(t *testing.T) {
	g, ids := dayGame(t, Werewolf, Mayor, Villager, Villager, Villager)

	wantKind(t, g.RevealMayor(ids[2]), ErrRoleMismatch)
	if err := g.RevealMayor(ids[1]); err != nil {
		t.Fatalf("RevealMayor: %v", err)
	}
	wantKind(t, g.RevealMayor(ids[1]), ErrResourceExhausted)
}

func TestVillageIdiotVoteWeighsNothing(t *testing.T) {
	g, ids := dayGame(t, Werewolf, VillageIdiot, Villager, Villager, Villager)
	idiot := ids[1]

	g.Vote(idiot, ids[2])
	o := mustEndDay(t, g)
	if o.Lynched != 0 {
		t.Errorf("an idiot's lone vote lynches nobody, got %d", o.Lynched)
	}
}

func TestPrinceSurvivesFirstLynch(t *testing.T) {
	g, ids := dayGame(t, Werewolf, Prince, Villager, Villager, Villager)
	prince := ids[1]

	g.Vote(ids[2], prince)
	g.Vote(ids[3], prince)
	o := mustEndDay(t, g)
	if o.PrinceSaved != prince || o.Lynched != 0 {
		t.Fatalf("first lynch should bounce off the seal: %+v", o)
	}
	if !isAlive(t, g, prince) {
		t.Fatal("the prince should live")
	}

	// The seal works once.
	toDay(t, g)
	g.Vote(ids[2], prince)
	g.Vote(ids[3], prince)
	o = mustEndDay(t, g)
	if o.Lynched != prince {
		t.Errorf("second lynch should land, got %+v", o)
	}
}

func TestTannerWinsByLynch(t *testing.T) {
	g, ids := dayGame(t, Werewolf, Tanner, Villager, Villager, Villager)
	tanner := ids[1]

	g.Vote(ids[2], tanner)
	g.Vote(ids[3], tanner)
	o := mustEndDay(t, g)

	if !o.TannerWin || o.Winner != WinnerTanner {
		t.Fatalf("lynching the tanner hands them the game: %+v", o)
	}
	if g.Phase() != PhaseOver {
		t.Errorf("expected game over, got %s", g.Phase())
	}
	if isAlive(t, g, tanner) {
		t.Error("the tanner still hangs")
	}
	if g.IsOver() != WinnerTanner {
		t.Errorf("recorded winner should survive re-reads, got %s", g.IsOver())
	}
}

func TestWolfCubRevengeSuppressesNextKill(t *testing.T) {
	g, ids := testGame(t, Werewolf, WolfCub, Villager, Villager, Villager, Villager)
	g.WolfCubRevenge = true
	toDay(t, g)
	wolf, cub := ids[0], ids[1]

	g.Vote(ids[2], cub)
	g.Vote(ids[3], cub)
	mustEndDay(t, g)

	g.WolfKill(wolf, ids[2])
	s := mustResolveNight(t, g)
	if len(s.Deaths) != 0 {
		t.Errorf("the pack mourns the cub and does not hunt, deaths: %v", s.Deaths)
	}
}

func TestWolfCubLynchWithoutRevengeFlag(t *testing.T) {
	g, ids := dayGame(t, Werewolf, WolfCub, Villager, Villager, Villager, Villager)
	wolf, cub := ids[0], ids[1]

	g.Vote(ids[2], cub)
	g.Vote(ids[3], cub)
	mustEndDay(t, g)

	g.WolfKill(wolf, ids[2])
	s := mustResolveNight(t, g)
	if !containsID(s.Deaths, ids[2]) {
		t.Errorf("with the flag off the hunt goes on, deaths: %v", s.Deaths)
	}
}

func TestLynchedHunterShootsBack(t *testing.T) {
	g, ids := dayGame(t, Werewolf, Hunter, Villager, Villager, Villager, Villager)
	wolf, hunter := ids[0], ids[1]

	g.Vote(ids[2], hunter)
	g.Vote(ids[3], hunter)
	o := mustEndDay(t, g)
	if o.HunterDied != hunter {
		t.Fatalf("expected hunter marked, got %d", o.HunterDied)
	}

	wantKind(t, g.HunterShoot(ids[2], wolf), ErrRoleMismatch) // only the hunter shoots
	if err := g.HunterShoot(hunter, ids[2]); err != nil {
		t.Fatalf("HunterShoot: %v", err)
	}
	if isAlive(t, g, ids[2]) {
		t.Error("the shot should land")
	}
	if g.PendingHunter() != 0 {
		t.Error("the window closes after one shot")
	}
}

func TestHunterCannotShootAfterGameEnds(t *testing.T) {
	g, ids := testGame(t, Werewolf, Hunter, Villager)
	wolf, hunter := ids[0], ids[1]

	// The Hunter's own death hands the wolves parity and closes the game
	// with the revenge window still marked.
	g.WolfKill(wolf, hunter)
	s := mustResolveNight(t, g)
	if s.Winner != WinnerWolves {
		t.Fatalf("expected the wolves to win, got %s", s.Winner)
	}
	if g.Phase() != PhaseOver {
		t.Fatalf("expected game over, got %s", g.Phase())
	}

	wantKind(t, g.HunterShoot(hunter, wolf), ErrWrongPhase)
	if !isAlive(t, g, wolf) {
		t.Error("a finished game must not accept the shot")
	}
	if g.IsOver() != WinnerWolves {
		t.Errorf("recorded winner must stand, got %s", g.IsOver())
	}
}

func TestHunterChain(t *testing.T) {
	g, ids := dayGame(t, Werewolf, Hunter, Hunter, Villager, Villager, Villager)
	h1, h2 := ids[1], ids[2]

	g.Vote(ids[3], h1)
	g.Vote(ids[4], h1)
	mustEndDay(t, g)

	if err := g.HunterShoot(h1, h2); err != nil {
		t.Fatalf("HunterShoot: %v", err)
	}
	if g.PendingHunter() != h2 {
		t.Errorf("shooting a hunter reopens the window for them, got %d", g.PendingHunter())
	}
}

func TestEndDayClearsBallotAndSilence(t *testing.T) {
	g, ids := testGame(t, Werewolf, OldHag, Villager, Villager, Villager)
	g.OldHagSilence(ids[1], ids[2])
	toDay(t, g)

	g.Vote(ids[3], ids[0])
	mustEndDay(t, g)

	if len(g.VotesCast()) != 0 {
		t.Error("the ballot should be cleared at dusk")
	}
	if g.IsSilenced(ids[2]) {
		t.Error("silence should lift at dusk")
	}
}

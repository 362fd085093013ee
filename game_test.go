package main

import (
	"fmt"
	"testing"
)

func TestAddPlayerOnlyInLobby(t *testing.T) {
	g := NewGame(1)
	g.MinPlayers = 2
	if err := g.AddPlayer(1, "Alice"); err != nil {
		t.Fatalf("AddPlayer: %v", err)
	}
	if err := g.AddPlayer(2, "Bob"); err != nil {
		t.Fatalf("AddPlayer: %v", err)
	}
	if err := g.AssignRoles([]*Role{Werewolf, Villager}); err != nil {
		t.Fatalf("AssignRoles: %v", err)
	}
	wantKind(t, g.AddPlayer(3, "Carol"), ErrWrongPhase)
}

func TestAddPlayerDuplicate(t *testing.T) {
	g := NewGame(1)
	if err := g.AddPlayer(1, "Alice"); err != nil {
		t.Fatalf("AddPlayer: %v", err)
	}
	wantKind(t, g.AddPlayer(1, "Alice again"), ErrInvalidTarget)
}

func TestRemovePlayerOnlyInLobby(t *testing.T) {
	g := NewGame(1)
	g.MinPlayers = 2
	g.AddPlayer(1, "Alice")
	g.AddPlayer(2, "Bob")
	g.AddPlayer(3, "Carol")

	if err := g.RemovePlayer(3); err != nil {
		t.Fatalf("RemovePlayer: %v", err)
	}
	if _, ok := g.Player(3); ok {
		t.Error("removed player still in registry")
	}
	wantKind(t, g.RemovePlayer(3), ErrInvalidTarget)

	if err := g.AssignRoles([]*Role{Werewolf, Villager}); err != nil {
		t.Fatalf("AssignRoles: %v", err)
	}
	wantKind(t, g.RemovePlayer(1), ErrWrongPhase)
}

func TestAssignRolesNotEnoughPlayers(t *testing.T) {
	g := NewGame(1)
	g.MinPlayers = 5
	for i := int64(1); i <= 4; i++ {
		g.AddPlayer(i, fmt.Sprintf("P%d", i))
	}
	wantKind(t, g.AssignRoles([]*Role{Werewolf}), ErrNotEnoughPlayers)
	if g.Phase() != PhaseLobby {
		t.Errorf("failed start must leave the lobby intact, got %s", g.Phase())
	}
}

func TestAssignRolesTwice(t *testing.T) {
	g := NewGame(1)
	g.MinPlayers = 2
	g.AddPlayer(1, "Alice")
	g.AddPlayer(2, "Bob")
	if err := g.AssignRoles([]*Role{Werewolf, Villager}); err != nil {
		t.Fatalf("AssignRoles: %v", err)
	}
	wantKind(t, g.AssignRoles([]*Role{Werewolf, Villager}), ErrAlreadyStarted)
}

func TestAssignRolesPadsWithVillagers(t *testing.T) {
	g := NewGame(1)
	g.MinPlayers = 5
	for i := int64(1); i <= 5; i++ {
		g.AddPlayer(i, fmt.Sprintf("P%d", i))
	}
	if err := g.AssignRoles([]*Role{Werewolf, Seer}); err != nil {
		t.Fatalf("AssignRoles: %v", err)
	}

	counts := make(map[*Role]int)
	for _, p := range g.Players() {
		if p.Role == nil {
			t.Fatalf("player %d has no role", p.ID)
		}
		counts[p.Role]++
	}
	if counts[Werewolf] != 1 || counts[Seer] != 1 || counts[Villager] != 3 {
		t.Errorf("expected 1 wolf, 1 seer, 3 villagers; got %v", counts)
	}
	if g.Phase() != PhaseNight {
		t.Errorf("expected night phase after deal, got %s", g.Phase())
	}
	if g.DayCount() != 0 {
		t.Errorf("expected day count 0, got %d", g.DayCount())
	}
}

func TestAssignRolesTruncatesOversizedDeck(t *testing.T) {
	g := NewGame(1)
	g.MinPlayers = 3
	for i := int64(1); i <= 3; i++ {
		g.AddPlayer(i, fmt.Sprintf("P%d", i))
	}
	deck := []*Role{Werewolf, Werewolf, Werewolf, Werewolf, Werewolf}
	if err := g.AssignRoles(deck); err != nil {
		t.Fatalf("AssignRoles: %v", err)
	}
	for _, p := range g.Players() {
		if p.Role != Werewolf {
			t.Errorf("player %d got %s from an all-wolf deck", p.ID, p.Role.Name)
		}
	}
}

func TestWolfTeamIncludesMinionButNotSorceress(t *testing.T) {
	g, ids := testGame(t, Werewolf, Minion, Sorceress, Villager, Villager)

	team := g.WolfTeam()
	if !containsID(team, ids[0]) || !containsID(team, ids[1]) {
		t.Errorf("wolf team should hold the wolf and the minion, got %v", team)
	}
	if containsID(team, ids[2]) {
		t.Error("the sorceress serves the wolves but is not on the team")
	}
}

func TestMasonLodge(t *testing.T) {
	g, ids := testGame(t, Werewolf, Mason, Mason, Villager, Villager)
	lodge := g.MasonLodge()
	if len(lodge) != 2 || !containsID(lodge, ids[1]) || !containsID(lodge, ids[2]) {
		t.Errorf("expected lodge of both masons, got %v", lodge)
	}
}

func TestResolveName(t *testing.T) {
	g := NewGame(1)
	g.AddPlayer(1, "Alice")
	g.AddPlayer(2, "Albert")
	g.AddPlayer(3, "Bob")
	g.AddPlayer(4, "bobby")

	// Exact match beats the prefix collision.
	id, err := g.ResolveName("Bob")
	if err != nil || id != 3 {
		t.Errorf("exact match: got %d, %v", id, err)
	}
	// Unique prefix.
	id, err = g.ResolveName("alb")
	if err != nil || id != 2 {
		t.Errorf("prefix match: got %d, %v", id, err)
	}
	// Ambiguous prefix.
	_, err = g.ResolveName("al")
	wantKind(t, err, ErrAmbiguous)
	// Unique substring when no prefix matches.
	id, err = g.ResolveName("lber")
	if err != nil || id != 2 {
		t.Errorf("substring match: got %d, %v", id, err)
	}
	// Nothing at all.
	_, err = g.ResolveName("zzz")
	wantKind(t, err, ErrInvalidTarget)
	_, err = g.ResolveName("   ")
	wantKind(t, err, ErrInvalidTarget)
}

func TestResolveNameSkipsDead(t *testing.T) {
	g, ids := testGame(t, Werewolf, Villager, Villager, Villager, Villager)
	g.players[ids[1]].Alive = false

	_, err := g.ResolveName("P2")
	wantKind(t, err, ErrInvalidTarget)
}

func TestPlayerByNumber(t *testing.T) {
	g := NewGame(1)
	g.AddPlayer(1, "Zoe")
	g.AddPlayer(2, "Alice")
	g.AddPlayer(3, "Mallory")

	// Numbering is alphabetical, not join order.
	id, err := g.PlayerByNumber(1)
	if err != nil || id != 2 {
		t.Errorf("number 1: got %d, %v", id, err)
	}
	id, err = g.PlayerByNumber(3)
	if err != nil || id != 1 {
		t.Errorf("number 3: got %d, %v", id, err)
	}
	_, err = g.PlayerByNumber(0)
	wantKind(t, err, ErrInvalidTarget)
	_, err = g.PlayerByNumber(4)
	wantKind(t, err, ErrInvalidTarget)
}

func TestAlivePlayersShrinksWithDeaths(t *testing.T) {
	g, ids := testGame(t, Werewolf, Villager, Villager, Villager, Villager)
	g.WolfKill(ids[0], ids[4])
	mustResolveNight(t, g)

	if len(g.Players()) != 5 {
		t.Errorf("registry must keep the dead, got %d entries", len(g.Players()))
	}
	if len(g.AlivePlayers()) != 4 {
		t.Errorf("expected 4 living players, got %d", len(g.AlivePlayers()))
	}
}

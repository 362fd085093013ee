package main

import (
	"strings"
	"testing"
)

func renderComponent(t *testing.T, playerID int64, row *GameRow, g *Game) string {
	t.Helper()
	buf, err := getGameComponent(playerID, row, g)
	if err != nil {
		t.Fatalf("getGameComponent: %v", err)
	}
	return buf.String()
}

func TestLobbyComponent(t *testing.T) {
	ctx := newTestContext(t)
	defer ctx.cleanup()

	row, game, err := currentGame()
	if err != nil {
		t.Fatalf("currentGame: %v", err)
	}
	game.AddPlayer(1, "Alice")
	row.HostPlayerID = 1
	adjustRoleCount(row.ID, "Werewolf", 1)

	html := renderComponent(t, 1, row, game)
	for _, want := range []string{`id="game-component"`, "phase-lobby", "Alice", "Werewolf", `data-action="start_game"`} {
		if !strings.Contains(html, want) {
			t.Errorf("lobby component missing %q", want)
		}
	}

	// Non-hosts see the preset but not the edit buttons.
	game.AddPlayer(2, "Bob")
	html = renderComponent(t, 2, row, game)
	if strings.Contains(html, `data-action="update_role"`) {
		t.Error("non-host should not see preset edit buttons")
	}
}

func TestNightComponent(t *testing.T) {
	ctx := newTestContext(t)
	defer ctx.cleanup()

	g, ids := testGame(t, Werewolf, Seer, Villager, Villager)
	row := &GameRow{ID: 99, Status: "night", HostPlayerID: ids[0]}

	// The seer gets their action form.
	html := renderComponent(t, ids[1], row, g)
	for _, want := range []string{"phase-night", "Night 1", `data-action="seer_peek"`} {
		if !strings.Contains(html, want) {
			t.Errorf("seer night component missing %q", want)
		}
	}
	if strings.Contains(html, "wolf-card") {
		t.Error("the seer must not see the pack")
	}

	// The wolf sees the pack and the kill form.
	g.WolfKill(ids[0], ids[2])
	html = renderComponent(t, ids[0], row, g)
	for _, want := range []string{`data-action="wolf_kill"`, "wolf-card", "P3"} {
		if !strings.Contains(html, want) {
			t.Errorf("wolf night component missing %q", want)
		}
	}
}

func TestDayComponent(t *testing.T) {
	ctx := newTestContext(t)
	defer ctx.cleanup()

	g, ids := testGame(t, Werewolf, Villager, Villager, Villager)
	toDay(t, g)
	row := &GameRow{ID: 99, Status: "day", HostPlayerID: ids[0]}

	g.Vote(ids[1], ids[0])
	html := renderComponent(t, ids[1], row, g)
	for _, want := range []string{"phase-day", "Day 1", `data-action="day_vote"`, "P2"} {
		if !strings.Contains(html, want) {
			t.Errorf("day component missing %q", want)
		}
	}

	// The host sees the end-day control, others do not.
	if !strings.Contains(renderComponent(t, ids[0], row, g), `data-action="end_day"`) {
		t.Error("host day component missing end_day button")
	}
	if strings.Contains(html, `data-action="end_day"`) {
		t.Error("non-host should not see the end_day button")
	}
}

func TestFinishedComponent(t *testing.T) {
	ctx := newTestContext(t)
	defer ctx.cleanup()

	g, ids := testGame(t, Werewolf, Villager, Villager, Villager)
	toDay(t, g)
	g.Vote(ids[1], ids[0])
	g.Vote(ids[2], ids[0])
	o := mustEndDay(t, g)
	if o.Winner != WinnerVillage {
		t.Fatalf("expected village win, got %s", o.Winner)
	}

	row := &GameRow{ID: 99, Status: "finished"}
	saveResult(row.ID, o.Winner, g.DayCount())

	html := renderComponent(t, ids[1], row, g)
	for _, want := range []string{"phase-finished", "The village wins!", "Werewolf", "Game #99"} {
		if !strings.Contains(html, want) {
			t.Errorf("finished component missing %q", want)
		}
	}
}

package main

import "testing"

func TestAdjustRoleCount(t *testing.T) {
	ctx := newTestContext(t)
	defer ctx.cleanup()

	row, err := currentGameRow()
	if err != nil {
		t.Fatalf("currentGameRow: %v", err)
	}

	adjustRoleCount(row.ID, "Werewolf", 1)
	adjustRoleCount(row.ID, "Werewolf", 1)
	adjustRoleCount(row.ID, "Seer", 1)
	adjustRoleCount(row.ID, "Seer", -1)

	deck, err := buildDeck(row.ID)
	if err != nil {
		t.Fatalf("buildDeck: %v", err)
	}
	if len(deck) != 2 {
		t.Fatalf("expected 2 cards, got %d", len(deck))
	}
	for _, r := range deck {
		if r != Werewolf {
			t.Errorf("expected only werewolves in the deck, got %s", r.Name)
		}
	}

	// Rows at zero are removed, so going negative is a no-op.
	adjustRoleCount(row.ID, "Seer", -1)
	deck, _ = buildDeck(row.ID)
	if len(deck) != 2 {
		t.Errorf("deck changed after no-op decrement: %d cards", len(deck))
	}
}

func TestBuildDeckSkipsUnknownRoles(t *testing.T) {
	ctx := newTestContext(t)
	defer ctx.cleanup()

	row, _ := currentGameRow()
	adjustRoleCount(row.ID, "Werewolf", 1)
	db.Exec("INSERT INTO game_role_config (game_id, role_name, count) VALUES (?, 'Basilisk', 3)", row.ID)

	deck, err := buildDeck(row.ID)
	if err != nil {
		t.Fatalf("buildDeck: %v", err)
	}
	if len(deck) != 1 {
		t.Errorf("unknown roles should be skipped, got %d cards", len(deck))
	}
}

func TestCopyRoleConfigs(t *testing.T) {
	ctx := newTestContext(t)
	defer ctx.cleanup()

	row, _ := currentGameRow()
	adjustRoleCount(row.ID, "Werewolf", 2)
	adjustRoleCount(row.ID, "Seer", 1)

	result, err := db.Exec("INSERT INTO game (status, host_player_id) VALUES ('lobby', 0)")
	if err != nil {
		t.Fatalf("insert game: %v", err)
	}
	nextID, _ := result.LastInsertId()
	copyRoleConfigs(row.ID, nextID)

	deck, err := buildDeck(nextID)
	if err != nil {
		t.Fatalf("buildDeck: %v", err)
	}
	if len(deck) != 3 {
		t.Errorf("preset should carry over, got %d cards", len(deck))
	}
}

func TestEventHistoryHidesEmptyRows(t *testing.T) {
	ctx := newTestContext(t)
	defer ctx.cleanup()

	row, _ := currentGameRow()
	appendEvent(row.ID, "report", "The village wakes to find Alice dead.")
	placeholder := appendEvent(row.ID, "story", "")
	appendEvent(row.ID, "report", "Bob was lynched at noon.")

	events, err := getEvents(row.ID)
	if err != nil {
		t.Fatalf("getEvents: %v", err)
	}
	if len(events) != 2 {
		t.Fatalf("empty rows stay hidden, got %d events", len(events))
	}

	db.Exec("UPDATE game_event SET text = 'A shadow crossed the square.' WHERE rowid = ?", placeholder)
	events, _ = getEvents(row.ID)
	if len(events) != 3 {
		t.Fatalf("filled rows should surface, got %d events", len(events))
	}
	// Ordering follows insertion, so the story lands in the middle.
	if events[1].Kind != "story" {
		t.Errorf("expected the story second, got %q", events[1].Kind)
	}
}

func TestSaveAndGetResults(t *testing.T) {
	ctx := newTestContext(t)
	defer ctx.cleanup()

	row, _ := currentGameRow()
	saveResult(row.ID, WinnerVillage, 3)
	saveResult(row.ID, WinnerWolves, 5)

	results, err := getResults()
	if err != nil {
		t.Fatalf("getResults: %v", err)
	}
	if len(results) != 2 {
		t.Fatalf("expected 2 results, got %d", len(results))
	}
	// Newest first.
	if results[0].Winner != WinnerWolves.String() || results[0].Days != 5 {
		t.Errorf("unexpected first result: %+v", results[0])
	}
}

func TestCurrentGameRowCreatesLobby(t *testing.T) {
	ctx := newTestContext(t)
	defer ctx.cleanup()

	row, err := currentGameRow()
	if err != nil {
		t.Fatalf("currentGameRow: %v", err)
	}
	if row.Status != "lobby" {
		t.Errorf("fresh game should be a lobby, got %q", row.Status)
	}

	again, err := currentGameRow()
	if err != nil {
		t.Fatalf("currentGameRow: %v", err)
	}
	if again.ID != row.ID {
		t.Errorf("repeated calls should return the same row: %d vs %d", row.ID, again.ID)
	}
}

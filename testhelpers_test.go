package main

import (
	"fmt"
	"html/template"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"testing"

	"github.com/jmoiron/sqlx"
)

// testGame builds a game already in the first night, with the given roles
// dealt to players 1..n in order. Players are named P1..Pn. This sidesteps
// AssignRoles so tests control exactly who holds what.
func testGame(t *testing.T, roles ...*Role) (*Game, []int64) {
	t.Helper()
	g := NewGame(1)
	g.MinPlayers = len(roles)
	ids := make([]int64, len(roles))
	for i := range roles {
		id := int64(i + 1)
		if err := g.AddPlayer(id, fmt.Sprintf("P%d", id)); err != nil {
			t.Fatalf("AddPlayer(%d): %v", id, err)
		}
		ids[i] = id
	}
	g.resetRuntimeState()
	for i, id := range ids {
		g.setRole(id, roles[i])
	}
	g.phase = PhaseNight
	return g, ids
}

// mustResolveNight resolves the night or fails the test.
func mustResolveNight(t *testing.T, g *Game) *NightSummary {
	t.Helper()
	s, err := g.ResolveNight()
	if err != nil {
		t.Fatalf("ResolveNight: %v", err)
	}
	return s
}

// mustEndDay ends the day or fails the test.
func mustEndDay(t *testing.T, g *Game) *DayOutcome {
	t.Helper()
	o, err := g.EndDay()
	if err != nil {
		t.Fatalf("EndDay: %v", err)
	}
	return o
}

// toDay advances an idle night into the day phase.
func toDay(t *testing.T, g *Game) {
	t.Helper()
	mustResolveNight(t, g)
	if g.Phase() != PhaseDay {
		t.Fatalf("expected day phase, got %s", g.Phase())
	}
}

// wantKind asserts an error carries a specific rejection kind.
func wantKind(t *testing.T, err error, want ErrorKind) {
	t.Helper()
	if err == nil {
		t.Fatalf("expected %s error, got nil", want)
	}
	kind, ok := errKind(err)
	if !ok {
		t.Fatalf("expected %s error, got %v", want, err)
	}
	if kind != want {
		t.Fatalf("expected %s error, got %s (%v)", want, kind, err)
	}
}

func isAlive(t *testing.T, g *Game, id int64) bool {
	t.Helper()
	p, ok := g.Player(id)
	if !ok {
		t.Fatalf("player %d not in registry", id)
	}
	return p.Alive
}

// ============================================================================
// Server test context
// ============================================================================

// TestContext runs the full HTTP stack against a fresh in-memory database,
// a fresh hub and a fresh game store.
type TestContext struct {
	t       *testing.T
	baseURL string
	server  *httptest.Server
	cleanup func()
}

func newTestContext(t *testing.T) *TestContext {
	t.Helper()

	oldDB, oldHub, oldStore, oldConfig := db, hub, store, config

	var err error
	// Shared cache mode so every pooled connection sees the same database.
	db, err = sqlx.Connect("sqlite3", "file::memory:?mode=memory&cache=shared")
	if err != nil {
		t.Fatalf("Failed to connect to test database: %v", err)
	}
	if err := initDB(); err != nil {
		t.Fatalf("Failed to initialize database: %v", err)
	}

	templates, err = template.New("").ParseFS(templateFS, "templates/*.html")
	if err != nil {
		t.Fatalf("Failed to parse templates: %v", err)
	}

	config = defaultConfig()
	config.MinPlayers = 2
	store = newGameStore()
	hub = newHub()
	go hub.run()

	server := httptest.NewServer(newMux())

	cleanup := func() {
		server.Close()
		hub.stop()
		db.Close()
		db, hub, store, config = oldDB, oldHub, oldStore, oldConfig
	}

	return &TestContext{t: t, baseURL: server.URL, server: server, cleanup: cleanup}
}

// noRedirectClient returns responses as the server sent them, without
// following 303s, so tests can assert on Location headers.
func noRedirectClient() *http.Client {
	return &http.Client{
		CheckRedirect: func(req *http.Request, via []*http.Request) error {
			return http.ErrUseLastResponse
		},
	}
}

// newCookieClient keeps the session cookie across requests, like a browser.
func newCookieClient(t *testing.T) *http.Client {
	t.Helper()
	jar, err := cookiejar.New(nil)
	if err != nil {
		t.Fatalf("cookiejar: %v", err)
	}
	return &http.Client{Jar: jar}
}

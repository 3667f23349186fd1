package server

import (
	"encoding/json"
	"io"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/escaperoom/backoffice/config"
	"github.com/escaperoom/backoffice/src/router"
	"github.com/escaperoom/backoffice/src/types"
)

type fakeLister struct {
	games []types.GameConnection
}

func (f *fakeLister) Snapshot() []types.GameConnection { return f.games }
func (f *fakeLister) Count() int                       { return len(f.games) }

type fakeRouter struct {
	routed []routedCall
	err    error
}

type routedCall struct {
	gameID  string
	action  string
	payload map[string]any
}

func (f *fakeRouter) Route(gameID, action string, payload map[string]any) error {
	f.routed = append(f.routed, routedCall{gameID, action, payload})
	return f.err
}

type fakeHub struct{ infos []types.ClientInfo }

func (f *fakeHub) ClientCount() int { return len(f.infos) }

func (f *fakeHub) ConnectedClients() []string {
	ids := make([]string, 0, len(f.infos))
	for _, info := range f.infos {
		ids = append(ids, info.ID)
	}
	return ids
}

func (f *fakeHub) ClientInfo(clientID string) *types.ClientInfo {
	for _, info := range f.infos {
		if info.ID == clientID {
			i := info
			return &i
		}
	}
	return nil
}

func newTestServer(lister *fakeLister, rt *fakeRouter) *Server {
	cfg := config.Config{Addr: ":0"}
	h := &fakeHub{infos: []types.ClientInfo{
		{ID: "conn-1", Kind: "game"},
		{ID: "conn-2", Kind: "screen", Name: "Salle A"},
	}}
	return New(cfg, h, lister, rt, nil, zerolog.Nop())
}

func TestListGames(t *testing.T) {
	lister := &fakeLister{games: []types.GameConnection{
		{
			ConnectionID:     "conn-1",
			GameID:           "aria",
			Name:             "Aria",
			AvailableActions: []types.GameAction{{ID: "start", Label: "Start"}},
			State:            map[string]any{"phase": float64(2)},
		},
	}}
	srv := newTestServer(lister, &fakeRouter{})

	resp, err := srv.App().Test(httptest.NewRequest("GET", "/api/games", nil))
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, 200, resp.StatusCode)

	var games []types.GameConnection
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&games))
	require.Len(t, games, 1)
	assert.Equal(t, "aria", games[0].GameID)
	assert.Equal(t, float64(2), games[0].State["phase"])
}

func TestCommandRouted(t *testing.T) {
	rt := &fakeRouter{}
	srv := newTestServer(&fakeLister{}, rt)

	req := httptest.NewRequest("POST", "/api/games/aria/command",
		strings.NewReader(`{"action":"enable_dilemma","payload":{"level":3}}`))
	req.Header.Set("Content-Type", "application/json")

	resp, err := srv.App().Test(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, 200, resp.StatusCode)
	body, _ := io.ReadAll(resp.Body)
	assert.JSONEq(t, `{"ok":true}`, string(body))

	require.Len(t, rt.routed, 1)
	assert.Equal(t, "aria", rt.routed[0].gameID)
	assert.Equal(t, "enable_dilemma", rt.routed[0].action)
	assert.Equal(t, map[string]any{"level": float64(3)}, rt.routed[0].payload)
}

func TestCommandGameNotFound(t *testing.T) {
	rt := &fakeRouter{err: router.ErrGameNotFound}
	srv := newTestServer(&fakeLister{}, rt)

	req := httptest.NewRequest("POST", "/api/games/ghost/command",
		strings.NewReader(`{"action":"start"}`))
	req.Header.Set("Content-Type", "application/json")

	resp, err := srv.App().Test(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, 404, resp.StatusCode)
	body, _ := io.ReadAll(resp.Body)
	assert.JSONEq(t, `{"error":"Game not found"}`, string(body))
}

func TestCommandMissingAction(t *testing.T) {
	rt := &fakeRouter{}
	srv := newTestServer(&fakeLister{}, rt)

	req := httptest.NewRequest("POST", "/api/games/aria/command",
		strings.NewReader(`{"payload":{}}`))
	req.Header.Set("Content-Type", "application/json")

	resp, err := srv.App().Test(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, 400, resp.StatusCode)
	assert.Empty(t, rt.routed, "malformed command must not reach the router")
}

func TestListGroups(t *testing.T) {
	lister := &fakeLister{games: []types.GameConnection{
		{ConnectionID: "1", GameID: "labyrinthe:explorer", Name: "Explorateur"},
		{ConnectionID: "2", GameID: "labyrinthe:protector", Name: "Protecteur"},
		{ConnectionID: "3", GameID: "aria", Name: "Aria"},
	}}
	srv := newTestServer(lister, &fakeRouter{})

	resp, err := srv.App().Test(httptest.NewRequest("GET", "/api/games/groups", nil))
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, 200, resp.StatusCode)

	var groups []map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&groups))
	require.Len(t, groups, 2)
	assert.Equal(t, "labyrinthe", groups[0]["baseId"])
	assert.Equal(t, "aria", groups[1]["baseId"])
}

func TestListGroupsEmptyRendersEmptyArray(t *testing.T) {
	srv := newTestServer(&fakeLister{}, &fakeRouter{})

	resp, err := srv.App().Test(httptest.NewRequest("GET", "/api/games/groups", nil))
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, 200, resp.StatusCode)
	body, _ := io.ReadAll(resp.Body)
	assert.JSONEq(t, `[]`, string(body))
}

func TestListClients(t *testing.T) {
	srv := newTestServer(&fakeLister{}, &fakeRouter{})

	resp, err := srv.App().Test(httptest.NewRequest("GET", "/api/clients", nil))
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, 200, resp.StatusCode)

	var clients []types.ClientInfo
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&clients))
	require.Len(t, clients, 2)
	assert.Equal(t, "conn-1", clients[0].ID)
	assert.Equal(t, "screen", clients[1].Kind)
	assert.Equal(t, "Salle A", clients[1].Name)
}

func TestHealthz(t *testing.T) {
	lister := &fakeLister{games: []types.GameConnection{{GameID: "aria"}}}
	srv := newTestServer(lister, &fakeRouter{})

	resp, err := srv.App().Test(httptest.NewRequest("GET", "/healthz", nil))
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, 200, resp.StatusCode)

	var body map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, "ok", body["status"])
	assert.Equal(t, float64(2), body["clients"])
	assert.Equal(t, float64(1), body["games"])
}

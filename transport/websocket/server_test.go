package websocket

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rocketscienceinc/gomoku-backend/internal/entity"
	"github.com/rocketscienceinc/gomoku-backend/internal/repository"
	"github.com/rocketscienceinc/gomoku-backend/internal/usecase"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testClient struct {
	t    *testing.T
	conn *websocket.Conn
}

func newTestServer(t *testing.T) string {
	t.Helper()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	manager := usecase.NewGameManager(
		logger,
		repository.NewMemoryPlayerRepository(),
		repository.NewMemoryGameRepository(),
		repository.NewLocalLocker(),
		entity.DefaultSize,
	)

	ctx, cancel := context.WithCancel(context.Background())
	srv := httptest.NewServer(New(logger, manager).Handler(ctx))

	t.Cleanup(func() {
		cancel()
		srv.Close()
	})

	return "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws"
}

func dial(t *testing.T, url string, header http.Header) (*testClient, *http.Response) {
	t.Helper()

	conn, resp, err := websocket.DefaultDialer.Dial(url, header)
	require.NoError(t, err)

	t.Cleanup(func() {
		conn.Close()
	})

	return &testClient{t: t, conn: conn}, resp
}

func newTestClient(t *testing.T) (*testClient, *http.Response) {
	t.Helper()

	return dial(t, newTestServer(t), nil)
}

func (that *testClient) send(action string, payload any) Payload {
	that.t.Helper()

	body, err := json.Marshal(payload)
	require.NoError(that.t, err)

	require.NoError(that.t, that.conn.WriteJSON(Message{Action: action, Payload: body}))

	return that.read(action)
}

func (that *testClient) read(action string) Payload {
	that.t.Helper()

	require.NoError(that.t, that.conn.SetReadDeadline(time.Now().Add(5*time.Second)))

	var msg Message
	require.NoError(that.t, that.conn.ReadJSON(&msg))
	require.Equal(that.t, action, msg.Action)

	var payload Payload
	require.NoError(that.t, json.Unmarshal(msg.Payload, &payload))

	return payload
}

func TestServer_SessionCookie(t *testing.T) {
	_, resp := newTestClient(t)

	cookies := resp.Cookies()
	require.Len(t, cookies, 1)
	assert.Equal(t, sessionCookieName, cookies[0].Name)
	assert.NotEmpty(t, cookies[0].Value)
}

func TestServer_GameFlow(t *testing.T) {
	client, _ := newTestClient(t)

	// Given: a connected player
	resp := client.send(actionConnect, Request{})
	require.Empty(t, resp.Error)
	require.NotNil(t, resp.Player)
	assert.Nil(t, resp.Game)

	// When: actions are sent before a game exists
	resp = client.send(actionGameUndo, Request{})

	// Then: the client is told there is no game
	assert.Equal(t, "no active game", resp.Error)

	// When: a game is started with the default size
	resp = client.send(actionGameNew, Request{})
	require.Empty(t, resp.Error)
	require.NotNil(t, resp.Game)
	assert.Equal(t, entity.DefaultSize, resp.Game.Size)
	assert.Equal(t, resp.Game.ID, resp.Player.GameID)

	row, col := 4, 4
	resp = client.send(actionGameTurn, Request{Row: &row, Col: &col})
	require.Empty(t, resp.Error)
	assert.Equal(t, entity.PlayerX, resp.Game.Grid[4][4])
	assert.Equal(t, entity.PlayerO, resp.Game.Turn)

	// Occupied cell is answered with the unchanged state
	resp = client.send(actionGameTurn, Request{Row: &row, Col: &col})
	assert.Empty(t, resp.Error)
	assert.Equal(t, entity.PlayerO, resp.Game.Turn)
	assert.Equal(t, 2, resp.Game.Steps)

	// Out of range is a real error
	bad := 40
	resp = client.send(actionGameTurn, Request{Row: &bad, Col: &col})
	assert.NotEmpty(t, resp.Error)

	resp = client.send(actionGameUndo, Request{})
	require.Empty(t, resp.Error)
	assert.Equal(t, entity.EmptyCell, resp.Game.Grid[4][4])
	assert.True(t, resp.Game.CanRedo)

	resp = client.send(actionGameRedo, Request{})
	require.Empty(t, resp.Error)
	assert.Equal(t, entity.PlayerX, resp.Game.Grid[4][4])

	resp = client.send(actionGameState, nil)
	require.Empty(t, resp.Error)
	assert.Equal(t, 1, resp.Game.Step)

	resp = client.send(actionGameResize, Request{Size: 15})
	require.Empty(t, resp.Error)
	assert.Equal(t, 15, resp.Game.Size)
	assert.Equal(t, 1, resp.Game.Steps)

	resp = client.send(actionGameResize, Request{Size: 16})
	assert.NotEmpty(t, resp.Error)

	resp = client.send(actionGameReset, Request{})
	require.Empty(t, resp.Error)
	assert.Equal(t, 15, resp.Game.Size)

	resp = client.send(actionGameDismiss, Request{})
	require.Empty(t, resp.Error)
	assert.False(t, resp.Game.AnnouncementOpen)

	// Leaving drops the game
	resp = client.send(actionGameLeave, Request{})
	require.Empty(t, resp.Error)
	assert.Empty(t, resp.Player.GameID)

	resp = client.send(actionGameState, Request{})
	assert.Equal(t, "no active game", resp.Error)
}

func TestServer_Reconnect(t *testing.T) {
	client, _ := newTestClient(t)

	resp := client.send(actionConnect, Request{})
	player := resp.Player

	resp = client.send(actionGameNew, Request{Size: 20})
	require.Empty(t, resp.Error)
	gameID := resp.Game.ID

	// When: the same player connects again
	resp = client.send(actionConnect, Request{Player: &entity.Player{ID: player.ID}})

	// Then: the active game comes back with the player
	require.Empty(t, resp.Error)
	assert.Equal(t, player.ID, resp.Player.ID)
	require.NotNil(t, resp.Game)
	assert.Equal(t, gameID, resp.Game.ID)
	assert.Equal(t, 20, resp.Game.Size)
}

func TestServer_BadMessages(t *testing.T) {
	client, _ := newTestClient(t)

	require.NoError(t, client.conn.WriteMessage(websocket.TextMessage, []byte("{not json")))
	resp := client.read("")
	assert.Equal(t, "malformed message", resp.Error)

	resp = client.send("game:fly", Request{})
	assert.Equal(t, "unknown action", resp.Error)

	resp = client.send(actionGameNew, Request{})
	assert.Equal(t, msgNotConnected, resp.Error)
}

func TestServer_CookieSessionResumes(t *testing.T) {
	url := newTestServer(t)

	// Given: a session that started a game
	first, httpResp := dial(t, url, nil)
	cookies := httpResp.Cookies()
	require.Len(t, cookies, 1)

	resp := first.send(actionConnect, Request{})
	require.Empty(t, resp.Error)
	playerID := resp.Player.ID

	resp = first.send(actionGameNew, Request{Size: 25})
	require.Empty(t, resp.Error)
	gameID := resp.Game.ID

	// When: the browser reconnects with its cookie and no player id
	header := http.Header{}
	header.Add("Cookie", (&http.Cookie{Name: cookies[0].Name, Value: cookies[0].Value}).String())
	second, httpResp := dial(t, url, header)
	assert.Empty(t, httpResp.Cookies())

	resp = second.send(actionConnect, Request{})

	// Then: the same player and its active game come back
	require.Empty(t, resp.Error)
	assert.Equal(t, playerID, resp.Player.ID)
	require.NotNil(t, resp.Game)
	assert.Equal(t, gameID, resp.Game.ID)
	assert.Equal(t, 25, resp.Game.Size)
}

func TestServer_ActionsNeedOwnSession(t *testing.T) {
	url := newTestServer(t)

	// Given: a player with an active game
	owner, _ := dial(t, url, nil)
	resp := owner.send(actionConnect, Request{})
	require.Empty(t, resp.Error)
	ownerPlayer := resp.Player

	resp = owner.send(actionGameNew, Request{})
	require.Empty(t, resp.Error)

	row, col := 0, 0
	other, _ := dial(t, url, nil)

	// When: another socket names that player without connecting
	resp = other.send(actionGameTurn, Request{Player: ownerPlayer, Row: &row, Col: &col})

	// Then: it is refused
	assert.Equal(t, msgNotConnected, resp.Error)

	resp = other.send(actionGameLeave, Request{Player: ownerPlayer})
	assert.Equal(t, msgNotConnected, resp.Error)

	// And: after connecting, the payload player is ignored in favour of its own session
	resp = other.send(actionConnect, Request{})
	require.Empty(t, resp.Error)
	assert.NotEqual(t, ownerPlayer.ID, resp.Player.ID)

	resp = other.send(actionGameTurn, Request{Player: ownerPlayer, Row: &row, Col: &col})
	assert.Equal(t, "no active game", resp.Error)

	resp = owner.send(actionGameState, Request{})
	require.Empty(t, resp.Error)
	assert.Equal(t, entity.EmptyCell, resp.Game.Grid[0][0])
}

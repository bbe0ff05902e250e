package rest

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/rocketscienceinc/gomoku-backend/internal/entity"
	"github.com/rocketscienceinc/gomoku-backend/internal/repository"
	"github.com/rocketscienceinc/gomoku-backend/internal/usecase"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	manager := usecase.NewGameManager(
		logger,
		repository.NewMemoryPlayerRepository(),
		repository.NewMemoryGameRepository(),
		repository.NewLocalLocker(),
		entity.DefaultSize,
	)

	srv := httptest.NewServer(New(logger, manager).Handler())
	t.Cleanup(srv.Close)

	return srv
}

func doRequest(t *testing.T, method, url, body string) (*http.Response, []byte) {
	t.Helper()

	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}

	req, err := http.NewRequest(method, url, reader)
	require.NoError(t, err)

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	return resp, data
}

func decodeView(t *testing.T, data []byte) entity.GameView {
	t.Helper()

	var view entity.GameView
	require.NoError(t, json.Unmarshal(data, &view))

	return view
}

func createGame(t *testing.T, srv *httptest.Server, body string) entity.GameView {
	t.Helper()

	resp, data := doRequest(t, http.MethodPost, srv.URL+"/games", body)
	require.Equal(t, http.StatusCreated, resp.StatusCode, string(data))

	return decodeView(t, data)
}

func TestPing(t *testing.T) {
	srv := newTestServer(t)

	resp, data := doRequest(t, http.MethodGet, srv.URL+"/ping", "")

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "pong", string(data))
}

func TestNewGame(t *testing.T) {
	srv := newTestServer(t)

	t.Run("Empty body uses the default size", func(t *testing.T) {
		view := createGame(t, srv, "")

		assert.NotEmpty(t, view.ID)
		assert.Equal(t, entity.DefaultSize, view.Size)
		assert.Equal(t, entity.PlayerX, view.Turn)
		assert.Equal(t, 1, view.Steps)
	})

	t.Run("Explicit size", func(t *testing.T) {
		view := createGame(t, srv, `{"size":25}`)

		assert.Equal(t, 25, view.Size)
		assert.Len(t, view.Grid, 25)
	})

	t.Run("Unsupported size", func(t *testing.T) {
		resp, _ := doRequest(t, http.MethodPost, srv.URL+"/games", `{"size":13}`)

		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	})

	t.Run("Malformed body", func(t *testing.T) {
		resp, _ := doRequest(t, http.MethodPost, srv.URL+"/games", `{"size":`)

		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	})
}

func TestGameFlow(t *testing.T) {
	srv := newTestServer(t)
	game := createGame(t, srv, `{"size":10}`)
	base := srv.URL + "/games/" + game.ID

	move := func(body string) (int, entity.GameView) {
		resp, data := doRequest(t, http.MethodPost, base+"/moves", body)
		if resp.StatusCode != http.StatusOK {
			return resp.StatusCode, entity.GameView{}
		}
		return resp.StatusCode, decodeView(t, data)
	}

	// Given: X plays (0,0)
	status, view := move(`{"row":0,"col":0}`)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, entity.PlayerO, view.Turn)
	assert.True(t, view.CanUndo)
	require.NotNil(t, view.LastMove)
	assert.Equal(t, entity.Move{Row: 0, Col: 0, Mark: entity.PlayerX}, *view.LastMove)

	// When: O clicks the same cell
	status, view = move(`{"row":0,"col":0}`)

	// Then: it is answered with the unchanged state
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, entity.PlayerO, view.Turn)
	assert.Equal(t, 2, view.Steps)

	// Out of range and missing fields are bad requests
	status, _ = move(`{"row":10,"col":0}`)
	assert.Equal(t, http.StatusBadRequest, status)

	status, _ = move(`{"row":1}`)
	assert.Equal(t, http.StatusBadRequest, status)

	// Undo then redo
	resp, data := doRequest(t, http.MethodPost, base+"/undo", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	view = decodeView(t, data)
	assert.Equal(t, entity.PlayerX, view.Turn)
	assert.True(t, view.CanRedo)

	resp, data = doRequest(t, http.MethodPost, base+"/redo", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	view = decodeView(t, data)
	assert.Equal(t, entity.PlayerX, view.Grid[0][0])

	// Redo at the end is a no-op, still 200
	resp, _ = doRequest(t, http.MethodPost, base+"/redo", "")
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	// Finish the game: X on row 0, O on row 5
	for _, body := range []string{
		`{"row":5,"col":0}`, `{"row":0,"col":1}`, `{"row":5,"col":1}`, `{"row":0,"col":2}`,
		`{"row":5,"col":2}`, `{"row":0,"col":3}`, `{"row":5,"col":3}`, `{"row":0,"col":4}`,
	} {
		status, view = move(body)
		require.Equal(t, http.StatusOK, status)
	}

	assert.Equal(t, entity.PlayerX, view.Winner)
	assert.Equal(t, entity.StatusFinished, view.Status)
	assert.Len(t, view.WinningLine, 5)
	assert.True(t, view.AnnouncementOpen)

	// Board rendering highlights the run
	resp, data = doRequest(t, http.MethodGet, base+"/board", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(data), "x x x x x")
	assert.Contains(t, string(data), "Winner: X")

	// Dismiss the overlay
	resp, data = doRequest(t, http.MethodPost, base+"/dismiss", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.False(t, decodeView(t, data).AnnouncementOpen)

	// Resize starts over
	resp, data = doRequest(t, http.MethodPost, base+"/resize", `{"size":20}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	view = decodeView(t, data)
	assert.Equal(t, 20, view.Size)
	assert.Equal(t, entity.EmptyCell, view.Winner)
	assert.Equal(t, 1, view.Steps)

	resp, _ = doRequest(t, http.MethodPost, base+"/resize", `{"size":21}`)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	// Reset keeps the size
	resp, data = doRequest(t, http.MethodPost, base+"/reset", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, 20, decodeView(t, data).Size)

	// Delete, then the game is gone
	resp, _ = doRequest(t, http.MethodDelete, base, "")
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)

	resp, _ = doRequest(t, http.MethodGet, base, "")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestUnknownGame(t *testing.T) {
	srv := newTestServer(t)

	for _, path := range []string{"/undo", "/redo", "/reset", "/dismiss"} {
		resp, _ := doRequest(t, http.MethodPost, srv.URL+"/games/missing"+path, "")
		assert.Equal(t, http.StatusNotFound, resp.StatusCode, path)
	}
}

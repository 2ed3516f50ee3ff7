package handlers

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/coder/websocket"
	"github.com/jason-s-yu/tienlen/internal/room"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type envelope struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
}

func setupTestServer(t *testing.T) (*room.Registry, string) {
	t.Helper()
	logger := logrus.New()
	logger.SetOutput(io.Discard)

	reg := room.NewRegistry(logger, room.Options{DefaultRoom: "main"})
	mux := http.NewServeMux()
	ws := RoomWSHandler(logger, reg, 64)
	mux.HandleFunc("/ws", ws)
	mux.HandleFunc("/ws/", ws)
	mux.HandleFunc("/rooms", ListRoomsHandler(reg))
	mux.HandleFunc("/", HealthHandler)

	srv := httptest.NewServer(mux)
	t.Cleanup(func() {
		srv.Close()
		reg.Close()
	})
	return reg, "ws" + strings.TrimPrefix(srv.URL, "http")
}

func dial(t *testing.T, url string) *websocket.Conn {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	c, _, err := websocket.Dial(ctx, url, &websocket.DialOptions{Subprotocols: []string{"tienlen"}})
	require.NoError(t, err)
	t.Cleanup(func() { c.Close(websocket.StatusNormalClosure, "") })
	return c
}

func send(t *testing.T, c *websocket.Conn, frame string) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	require.NoError(t, c.Write(ctx, websocket.MessageText, []byte(frame)))
}

// readUntil reads frames until one of the given type arrives and decodes its data into out.
func readUntil(t *testing.T, c *websocket.Conn, typ string, out interface{}) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	for {
		_, data, err := c.Read(ctx)
		require.NoError(t, err)
		var env envelope
		require.NoError(t, json.Unmarshal(data, &env))
		if env.Type == typ {
			if out != nil {
				require.NoError(t, json.Unmarshal(env.Data, out))
			}
			return
		}
	}
}

func TestRoomWSJoinAndDeal(t *testing.T) {
	_, url := setupTestServer(t)

	var clients []*websocket.Conn
	for i := 0; i < 4; i++ {
		c := dial(t, url+"/ws/r1")
		send(t, c, `{"type":"join"}`)
		var joined struct {
			RoomID    string `json:"roomId"`
			SeatIndex int    `json:"seatIndex"`
		}
		readUntil(t, c, "youJoined", &joined)
		assert.Equal(t, "r1", joined.RoomID)
		assert.Equal(t, i, joined.SeatIndex)
		clients = append(clients, c)
	}
	for _, c := range clients {
		send(t, c, `{"type":"toggleReady"}`)
	}

	seen := make(map[string]bool)
	lead, announced := -1, -1
	for i, c := range clients {
		var started struct {
			Hand        []string `json:"hand"`
			SeatIndex   int      `json:"seatIndex"`
			LeadingSeat int      `json:"leadingSeat"`
			RoundNumber int      `json:"roundNumber"`
		}
		readUntil(t, c, "gameStarted", &started)
		assert.Equal(t, i, started.SeatIndex)
		assert.Equal(t, 1, started.RoundNumber)
		assert.Len(t, started.Hand, 13)
		for _, card := range started.Hand {
			seen[card] = true
			if card == "3♠" {
				lead = i
			}
		}
		announced = started.LeadingSeat
	}
	assert.Len(t, seen, 52)
	require.GreaterOrEqual(t, lead, 0)
	assert.Equal(t, lead, announced, "the holder of 3♠ leads")

	// a pass on lead is refused to the sender only
	send(t, clients[lead], `{"type":"skipTurn"}`)
	var invalid struct {
		Reason string `json:"reason"`
	}
	readUntil(t, clients[lead], "invalidPlay", &invalid)
	assert.Equal(t, "cannot pass on lead", invalid.Reason)
}

func TestRoomWSRejectsMalformedFrames(t *testing.T) {
	_, url := setupTestServer(t)
	c := dial(t, url+"/ws")

	send(t, c, `{"type":"playCards","cards":["11♠"]}`)
	var notice struct {
		Message string `json:"message"`
	}
	readUntil(t, c, "error", &notice)
	assert.Contains(t, notice.Message, "malformed frame")

	send(t, c, `{"type":"toggleReady"}`)
	readUntil(t, c, "error", &notice)
	assert.Equal(t, "join a room first", notice.Message)
}

func TestRoomWSDefaultRoomAndDisconnect(t *testing.T) {
	reg, url := setupTestServer(t)
	c := dial(t, url+"/ws")

	send(t, c, `{"type":"join","displayName":"An"}`)
	var update struct {
		Count int      `json:"count"`
		Names []string `json:"names"`
	}
	readUntil(t, c, "roomUpdate", &update)
	assert.Equal(t, 1, update.Count)
	assert.Equal(t, "An", update.Names[0])
	require.Len(t, reg.Rooms(), 1)
	assert.Equal(t, "main", reg.Rooms()[0].ID)

	c.Close(websocket.StatusNormalClosure, "bye")
	assert.Eventually(t, func() bool { return len(reg.Rooms()) == 0 }, 2*time.Second, 10*time.Millisecond)
}

func TestRoomWSRoomFull(t *testing.T) {
	_, url := setupTestServer(t)
	for i := 0; i < 4; i++ {
		c := dial(t, url+"/ws/full")
		send(t, c, `{"type":"join"}`)
		readUntil(t, c, "youJoined", nil)
	}

	extra := dial(t, url+"/ws/full")
	send(t, extra, `{"type":"join"}`)
	var full struct {
		RoomID string `json:"roomId"`
	}
	readUntil(t, extra, "roomFull", &full)
	assert.Equal(t, "full", full.RoomID)
}

func TestRoomWSBadSubprotocol(t *testing.T) {
	_, url := setupTestServer(t)
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	c, _, err := websocket.Dial(ctx, url+"/ws", &websocket.DialOptions{Subprotocols: []string{"lobby"}})
	require.NoError(t, err)
	defer c.Close(websocket.StatusNormalClosure, "")

	_, _, err = c.Read(ctx)
	require.Error(t, err)
	assert.Equal(t, websocket.StatusCode(BadSubprotocolError), websocket.CloseStatus(err))
}

func TestListRoomsHandler(t *testing.T) {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	reg := room.NewRegistry(logger, room.Options{})
	defer reg.Close()

	_, err := reg.Join(room.NewConnection("a", 8, nil, logger), "alpha", "")
	require.NoError(t, err)

	w := httptest.NewRecorder()
	ListRoomsHandler(reg).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/rooms", nil))
	require.Equal(t, http.StatusOK, w.Code)

	var rooms []room.Summary
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &rooms))
	assert.Equal(t, []room.Summary{{ID: "alpha", State: "LOBBY", Occupied: 1, Round: 1}}, rooms)

	w = httptest.NewRecorder()
	ListRoomsHandler(reg).ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/rooms", nil))
	assert.Equal(t, http.StatusMethodNotAllowed, w.Code)
}

func TestHealthHandler(t *testing.T) {
	w := httptest.NewRecorder()
	HealthHandler(w, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, "ok", w.Body.String())

	w = httptest.NewRecorder()
	HealthHandler(w, httptest.NewRequest(http.MethodGet, "/nope", nil))
	assert.Equal(t, http.StatusNotFound, w.Code)
}

package websocket

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/playroomlabs/gamehub-backend/internal/entity"
	"github.com/playroomlabs/gamehub-backend/internal/lobby"
	"github.com/playroomlabs/gamehub-backend/internal/metrics"
	"github.com/playroomlabs/gamehub-backend/internal/protocol"
)

type memoryPlayers struct {
	mu      sync.Mutex
	players map[string]entity.Player
}

func (that *memoryPlayers) CreateOrUpdate(_ context.Context, player *entity.Player) error {
	that.mu.Lock()
	defer that.mu.Unlock()
	that.players[player.ID] = *player
	return nil
}

func (that *memoryPlayers) GetByID(_ context.Context, id string) (*entity.Player, error) {
	that.mu.Lock()
	defer that.mu.Unlock()

	player, ok := that.players[id]
	if !ok {
		return nil, fmt.Errorf("player not found")
	}
	return &player, nil
}

// wsClient drives one WebSocket connection through the protocol.
type wsClient struct {
	t    *testing.T
	conn *websocket.Conn
}

func startServer(t *testing.T) string {
	t.Helper()

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	collector := metrics.New()
	srv := New(logger, lobby.New(logger, collector), &memoryPlayers{players: make(map[string]entity.Player)}, collector)

	httpServer := httptest.NewServer(srv.Handler(ctx))
	t.Cleanup(httpServer.Close)

	return "ws" + strings.TrimPrefix(httpServer.URL, "http") + "/ws"
}

func dialClient(t *testing.T, url string) *wsClient {
	t.Helper()

	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })

	return &wsClient{t: t, conn: conn}
}

func (that *wsClient) send(raw string) {
	that.t.Helper()
	require.NoError(that.t, that.conn.WriteMessage(websocket.TextMessage, []byte(raw)))
}

func (that *wsClient) expect(messageType string) map[string]any {
	that.t.Helper()

	_, data, err := that.conn.ReadMessage()
	require.NoError(that.t, err)

	var message map[string]any
	require.NoError(that.t, json.Unmarshal(data, &message))
	require.Equal(that.t, messageType, message["type"], "unexpected message: %s", data)

	return message
}

func TestServer_WelcomeAndList(t *testing.T) {
	url := startServer(t)

	client := dialClient(t, url)

	welcome := client.expect(protocol.TypeWelcome)
	player, ok := welcome["player"].(map[string]any)
	require.True(t, ok)
	assert.NotEmpty(t, player["id"])

	client.send(`{"type":"list"}`)
	games := client.expect(protocol.TypeGames)
	assert.ElementsMatch(t, []any{"tictactoe", "rps"}, games["games"])
}

func TestServer_PairsOverWebSocket(t *testing.T) {
	url := startServer(t)

	first := dialClient(t, url)
	first.expect(protocol.TypeWelcome)
	first.send(`{"type":"join","game":"tictactoe"}`)
	first.expect(protocol.TypeWait)

	second := dialClient(t, url)
	second.expect(protocol.TypeWelcome)
	second.send(`{"type":"join","game":"tictactoe"}`)

	assert.Equal(t, "X", first.expect(protocol.TypeStart)["you"])
	assert.Equal(t, "O", second.expect(protocol.TypeStart)["you"])

	first.expect(protocol.TypeYourTurn)

	first.send(`{"type":"move","pos":4}`)
	first.expect(protocol.TypeUpdate)
	second.expect(protocol.TypeUpdate)

	turn := second.expect(protocol.TypeYourTurn)
	assert.Equal(t, []any{"", "", "", "", "X", "", "", "", ""}, turn["board"])
}

package tcp

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/playroomlabs/gamehub-backend/internal/entity"
	"github.com/playroomlabs/gamehub-backend/internal/lobby"
	"github.com/playroomlabs/gamehub-backend/internal/metrics"
	"github.com/playroomlabs/gamehub-backend/internal/protocol"
)

// memoryPlayers is an in-memory stand-in for the Redis identity store.
type memoryPlayers struct {
	mu      sync.Mutex
	players map[string]entity.Player
}

func newMemoryPlayers() *memoryPlayers {
	return &memoryPlayers{players: make(map[string]entity.Player)}
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

// testClient drives one TCP connection through the protocol.
type testClient struct {
	t      *testing.T
	conn   net.Conn
	reader *bufio.Reader
}

func startServer(t *testing.T) string {
	t.Helper()

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	collector := metrics.New()
	srv := New(logger, lobby.New(logger, collector), newMemoryPlayers(), collector)

	listener, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	go func() {
		_ = srv.Serve(ctx, listener)
	}()

	return listener.Addr().String()
}

func dialClient(t *testing.T, addr string) *testClient {
	t.Helper()

	conn, err := net.Dial("tcp", addr)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })

	require.NoError(t, conn.SetDeadline(time.Now().Add(10*time.Second)))

	return &testClient{
		t:      t,
		conn:   conn,
		reader: bufio.NewReader(conn),
	}
}

func (that *testClient) send(raw string) {
	that.t.Helper()

	_, err := that.conn.Write([]byte(raw + "\n"))
	require.NoError(that.t, err)
}

// expect reads the next message and asserts its type tag.
func (that *testClient) expect(messageType string) map[string]any {
	that.t.Helper()

	line, err := protocol.ReadLine(that.reader)
	require.NoError(that.t, err)

	var message map[string]any
	require.NoError(that.t, json.Unmarshal(line, &message))
	require.Equal(that.t, messageType, message["type"], "unexpected message: %s", line)

	return message
}

func TestServer_List(t *testing.T) {
	addr := startServer(t)

	client := dialClient(t, addr)
	client.expect(protocol.TypeWelcome)

	client.send(`{"type":"list"}`)

	games := client.expect(protocol.TypeGames)
	assert.ElementsMatch(t, []any{"tictactoe", "rps"}, games["games"])
}

func TestServer_RejectsUnknownAndMalformed(t *testing.T) {
	addr := startServer(t)

	client := dialClient(t, addr)
	client.expect(protocol.TypeWelcome)

	// unknown tag is reported, connection stays open
	client.send(`{"type":"dance"}`)
	client.expect(protocol.TypeError)

	// unparseable line is reported, connection stays open
	client.send(`{"type":`)
	client.expect(protocol.TypeError)

	// a move before joining is reported
	client.send(`{"type":"move","pos":4}`)
	client.expect(protocol.TypeError)

	// the connection still works
	client.send(`{"type":"list"}`)
	client.expect(protocol.TypeGames)
}

func TestServer_TicTacToeGame(t *testing.T) {
	addr := startServer(t)

	first := dialClient(t, addr)
	first.expect(protocol.TypeWelcome)
	first.send(`{"type":"join","game":"tictactoe"}`)
	first.expect(protocol.TypeWait)

	second := dialClient(t, addr)
	second.expect(protocol.TypeWelcome)
	second.send(`{"type":"join","game":"tictactoe"}`)

	// both sides see the same session start with complementary marks
	startFirst := first.expect(protocol.TypeStart)
	startSecond := second.expect(protocol.TypeStart)
	assert.Equal(t, "X", startFirst["you"])
	assert.Equal(t, "O", startSecond["you"])

	first.expect(protocol.TypeYourTurn)

	// the sample run: X 4, O 8, X 2, O 6, X 7, O 0, X 1
	moves := []struct {
		mover, waiter *testClient
		pos           int
	}{
		{first, second, 4}, {second, first, 8}, {first, second, 2},
		{second, first, 6}, {first, second, 7}, {second, first, 0},
	}

	for _, move := range moves {
		move.mover.send(fmt.Sprintf(`{"type":"move","pos":%d}`, move.pos))
		move.mover.expect(protocol.TypeUpdate)
		move.waiter.expect(protocol.TypeUpdate)
		move.waiter.expect(protocol.TypeYourTurn)
	}

	// an occupied cell is rejected without ending the game
	first.send(`{"type":"move","pos":4}`)
	first.expect(protocol.TypeError)

	// the winning move
	first.send(`{"type":"move","pos":1}`)
	overFirst := first.expect(protocol.TypeGameOver)
	overSecond := second.expect(protocol.TypeGameOver)

	assert.Equal(t, "win", overFirst["result"])
	assert.Equal(t, "loss", overSecond["result"])
	assert.Equal(t, []any{"O", "X", "X", "", "X", "", "O", "X", "O"}, overFirst["board"])
}

func TestServer_RPSGame(t *testing.T) {
	addr := startServer(t)

	first := dialClient(t, addr)
	first.expect(protocol.TypeWelcome)
	first.send(`{"type":"join","game":"rps"}`)
	first.expect(protocol.TypeWait)

	second := dialClient(t, addr)
	second.expect(protocol.TypeWelcome)
	second.send(`{"type":"join","game":"rps"}`)

	first.expect(protocol.TypeStart)
	second.expect(protocol.TypeStart)
	first.expect(protocol.TypeYourTurn)
	second.expect(protocol.TypeYourTurn)

	// player 2 takes two straight rounds
	for round := 0; round < 2; round++ {
		first.send(`{"type":"choice","move":"rock"}`)
		first.expect(protocol.TypeWait)

		second.send(`{"type":"choice","move":"paper"}`)

		resultFirst := first.expect(protocol.TypeRoundResult)
		resultSecond := second.expect(protocol.TypeRoundResult)
		assert.Equal(t, "loss", resultFirst["result"])
		assert.Equal(t, "paper", resultFirst["opponent"])
		assert.Equal(t, "win", resultSecond["result"])

		if round == 0 {
			first.expect(protocol.TypeYourTurn)
			second.expect(protocol.TypeYourTurn)
		}
	}

	overFirst := first.expect(protocol.TypeGameOver)
	overSecond := second.expect(protocol.TypeGameOver)

	assert.Equal(t, "loss", overFirst["result"])
	assert.Equal(t, "rock", overFirst["choice"])
	assert.Equal(t, "paper", overFirst["opponent"])
	assert.Equal(t, "win", overSecond["result"])
	assert.Equal(t, []any{float64(2), float64(0)}, overSecond["scores"])
}

func TestServer_PeerDisconnect(t *testing.T) {
	addr := startServer(t)

	first := dialClient(t, addr)
	first.expect(protocol.TypeWelcome)
	first.send(`{"type":"join","game":"tictactoe"}`)
	first.expect(protocol.TypeWait)

	second := dialClient(t, addr)
	second.expect(protocol.TypeWelcome)
	second.send(`{"type":"join","game":"tictactoe"}`)

	first.expect(protocol.TypeStart)
	second.expect(protocol.TypeStart)
	first.expect(protocol.TypeYourTurn)

	// When: the player on move drops mid-game
	require.NoError(t, first.conn.Close())

	// Then: the survivor is informed and its game is over
	second.expect(protocol.TypeOpponentLeft)
}

func TestServer_WaiterDisconnectNeverPairs(t *testing.T) {
	addr := startServer(t)

	// Given: a waiter that disconnects before a peer arrives
	ghost := dialClient(t, addr)
	ghost.expect(protocol.TypeWelcome)
	ghost.send(`{"type":"join","game":"rps"}`)
	ghost.expect(protocol.TypeWait)
	require.NoError(t, ghost.conn.Close())

	// Give the server a moment to observe the closed stream.
	time.Sleep(100 * time.Millisecond)

	// When: two live connections join
	first := dialClient(t, addr)
	first.expect(protocol.TypeWelcome)
	first.send(`{"type":"join","game":"rps"}`)
	first.expect(protocol.TypeWait)

	second := dialClient(t, addr)
	second.expect(protocol.TypeWelcome)
	second.send(`{"type":"join","game":"rps"}`)

	// Then: they pair with each other, not with the dead connection
	first.expect(protocol.TypeStart)
	second.expect(protocol.TypeStart)
}

// Package websocket serves the same message schema as the TCP transport over
// a WebSocket endpoint, one text frame per message.
package websocket

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"github.com/playroomlabs/gamehub-backend/internal/lobby"
	"github.com/playroomlabs/gamehub-backend/internal/metrics"
	"github.com/playroomlabs/gamehub-backend/internal/protocol"
	"github.com/playroomlabs/gamehub-backend/internal/repository"
	"github.com/playroomlabs/gamehub-backend/internal/server"
)

type Server struct {
	logger   *slog.Logger
	lobby    *lobby.Lobby
	players  repository.PlayerRepository
	metrics  *metrics.Metrics
	upgrader websocket.Upgrader
}

func New(logger *slog.Logger, gameLobby *lobby.Lobby, players repository.PlayerRepository, collector *metrics.Metrics) *Server {
	return &Server{
		logger:  logger.With("component", "websocket"),
		lobby:   gameLobby,
		players: players,
		metrics: collector,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(_ *http.Request) bool { return true },
		},
	}
}

// Handler - the /ws endpoint, exposed for the HTTP server and for tests.
func (that *Server) Handler(ctx context.Context) http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/ws", func(w http.ResponseWriter, r *http.Request) {
		that.upgrade(ctx, w, r)
	})

	return mux
}

// Start - serves the /ws endpoint until the server errors out.
func (that *Server) Start(ctx context.Context, port string) error {
	srv := &http.Server{
		Addr:        ":" + port,
		Handler:     that.Handler(ctx),
		ReadTimeout: 10 * time.Second,
		IdleTimeout: 30 * time.Second,
	}

	go func() {
		<-ctx.Done()
		_ = srv.Close()
	}()

	if err := srv.ListenAndServe(); err != nil && ctx.Err() == nil {
		return fmt.Errorf("failed to start server: %w", err)
	}

	return nil
}

// upgrade - upgrades the request and hands the connection to the shared
// per-connection handler.
func (that *Server) upgrade(ctx context.Context, writer http.ResponseWriter, req *http.Request) {
	conn, err := that.upgrader.Upgrade(writer, req, nil)
	if err != nil {
		that.logger.Error("failed to upgrade connection", "error", err)
		return
	}

	conn.SetReadLimit(protocol.MaxLineSize)

	client := server.NewClient(that.logger, &wsWire{conn: conn}, that.lobby, that.players, that.metrics)
	client.Serve(ctx)
}

// wsWire adapts a WebSocket connection to the server.Wire contract. The line
// terminator the TCP framing carries is stripped before writing, one message
// per text frame.
type wsWire struct {
	conn *websocket.Conn
}

func (that *wsWire) ReadMessage() ([]byte, error) {
	_, data, err := that.conn.ReadMessage()
	if err != nil {
		return nil, fmt.Errorf("failed to read frame: %w", err)
	}

	return bytes.TrimRight(data, "\r\n"), nil
}

func (that *wsWire) WriteMessage(data []byte) error {
	return that.conn.WriteMessage(websocket.TextMessage, bytes.TrimRight(data, "\n"))
}

func (that *wsWire) Close() error {
	return that.conn.Close()
}

func (that *wsWire) RemoteAddr() string {
	return that.conn.RemoteAddr().String()
}

// Package tcp serves the line-delimited JSON protocol over plain TCP, one
// goroutine per connection.
package tcp

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"

	"github.com/playroomlabs/gamehub-backend/internal/lobby"
	"github.com/playroomlabs/gamehub-backend/internal/metrics"
	"github.com/playroomlabs/gamehub-backend/internal/repository"
	"github.com/playroomlabs/gamehub-backend/internal/server"
)

type Server struct {
	logger  *slog.Logger
	lobby   *lobby.Lobby
	players repository.PlayerRepository
	metrics *metrics.Metrics
}

func New(logger *slog.Logger, gameLobby *lobby.Lobby, players repository.PlayerRepository, collector *metrics.Metrics) *Server {
	return &Server{
		logger:  logger.With("component", "tcp"),
		lobby:   gameLobby,
		players: players,
		metrics: collector,
	}
}

// Start - listens on port and serves connections until ctx is canceled.
// Failing to bind is fatal; per-connection failures are not.
func (that *Server) Start(ctx context.Context, port string) error {
	listener, err := net.Listen("tcp", ":"+port)
	if err != nil {
		return fmt.Errorf("failed to start listener: %w", err)
	}

	return that.Serve(ctx, listener)
}

// Serve - accepts connections from listener until ctx is canceled.
func (that *Server) Serve(ctx context.Context, listener net.Listener) error {
	go func() {
		<-ctx.Done()
		_ = listener.Close()
	}()

	that.logger.Info("accepting connections", "addr", listener.Addr().String())

	for {
		conn, err := listener.Accept()
		if err != nil {
			if ctx.Err() != nil || errors.Is(err, net.ErrClosed) {
				return nil
			}
			return fmt.Errorf("failed to accept connection: %w", err)
		}

		client := server.NewClient(that.logger, newWire(conn), that.lobby, that.players, that.metrics)
		go client.Serve(ctx)
	}
}

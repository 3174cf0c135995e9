// Package server implements the per-connection handler shared by every
// transport: it decodes client messages, dispatches them to the lobby or the
// session, and serializes all outbound writes for its connection.
package server

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"

	"github.com/playroomlabs/gamehub-backend/internal/entity"
	"github.com/playroomlabs/gamehub-backend/internal/lobby"
	"github.com/playroomlabs/gamehub-backend/internal/metrics"
	"github.com/playroomlabs/gamehub-backend/internal/protocol"
	"github.com/playroomlabs/gamehub-backend/internal/session"
	"github.com/playroomlabs/gamehub-backend/pkg"
)

// Wire abstracts one client connection: a whole protocol message per read and
// write. TCP frames messages as lines; WebSocket as text frames.
type Wire interface {
	ReadMessage() ([]byte, error)
	WriteMessage(data []byte) error
	Close() error
	RemoteAddr() string
}

type playerRepo interface {
	CreateOrUpdate(ctx context.Context, player *entity.Player) error
	GetByID(ctx context.Context, id string) (*entity.Player, error)
}

// Client runs the receive loop for one connection and is the connection's
// session.Participant. Send may be called concurrently by session broadcasts;
// writeMu keeps frames from interleaving.
type Client struct {
	logger  *slog.Logger
	wire    Wire
	lobby   *lobby.Lobby
	players playerRepo
	metrics *metrics.Metrics

	player  *entity.Player
	current *session.Session

	writeMu sync.Mutex
}

func NewClient(logger *slog.Logger, wire Wire, gameLobby *lobby.Lobby, players playerRepo, collector *metrics.Metrics) *Client {
	return &Client{
		logger:  logger.With("component", "client", "remote", wire.RemoteAddr()),
		wire:    wire,
		lobby:   gameLobby,
		players: players,
		metrics: collector,
	}
}

// ID - the player identity bound to this connection.
func (that *Client) ID() string {
	return that.player.ID
}

// Send - encodes and writes one message, serialized per connection.
func (that *Client) Send(message any) error {
	data, err := protocol.Encode(message)
	if err != nil {
		return err
	}

	that.writeMu.Lock()
	defer that.writeMu.Unlock()

	return that.wire.WriteMessage(data)
}

// Close - tears down the underlying connection, unblocking the receive loop.
func (that *Client) Close() error {
	return that.wire.Close()
}

// Serve - runs the connection's receive loop until the stream closes. On
// return the session (waiting or ongoing) is informed so the peer side is
// never left blocked on a dead connection.
func (that *Client) Serve(ctx context.Context) {
	defer func() {
		that.lobby.Abandon(that.current, that)
		_ = that.wire.Close()
		that.logger.Info("connection closed")
	}()

	that.metrics.ConnectionsTotal.Inc()
	that.hello(ctx)

	for {
		line, err := that.wire.ReadMessage()
		if err != nil {
			if !errors.Is(err, io.EOF) {
				that.logger.Debug("read failed", "error", err)
			}
			return
		}

		message, err := protocol.DecodeClientMessage(line)
		if err != nil {
			that.reject(err)
			continue
		}

		that.dispatch(ctx, message)
	}
}

// hello - mints a fresh player identity for the connection and announces it.
// The identity store being down is not fatal; the identity just stays
// in-memory for this connection.
func (that *Client) hello(ctx context.Context) {
	that.player = &entity.Player{ID: pkg.GeneratePlayerID()}

	if err := that.players.CreateOrUpdate(ctx, that.player); err != nil {
		that.logger.Warn("failed to persist player", "error", err)
	}

	if err := that.Send(protocol.NewWelcome(that.player)); err != nil {
		that.logger.Debug("failed to send welcome", "error", err)
	}
}

// dispatch - exhaustive over the decoded client message variants.
func (that *Client) dispatch(ctx context.Context, message any) {
	var err error

	switch msg := message.(type) {
	case protocol.ListRequest:
		err = that.handleList()
	case protocol.JoinRequest:
		err = that.handleJoin(ctx, msg)
	case protocol.MoveRequest:
		err = that.handleMove(msg)
	case protocol.ChoiceRequest:
		err = that.handleChoice(msg)
	}

	if err != nil {
		that.reject(err)
	}
}

// reject - reports a recoverable error to this client only; the connection
// stays open and no state has been mutated.
func (that *Client) reject(err error) {
	that.logger.Debug("request rejected", "reason", err)

	if sendErr := that.Send(protocol.NewError(err.Error())); sendErr != nil {
		that.logger.Debug("failed to send error message", "error", sendErr)
	}
}

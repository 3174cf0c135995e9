package server

import (
	"context"
	"errors"

	"github.com/playroomlabs/gamehub-backend/internal/apperror"
	"github.com/playroomlabs/gamehub-backend/internal/entity"
	"github.com/playroomlabs/gamehub-backend/internal/protocol"
	"github.com/playroomlabs/gamehub-backend/internal/repository"
)

func (that *Client) handleList() error {
	return that.Send(protocol.NewGames(that.lobby.Kinds()))
}

func (that *Client) handleJoin(ctx context.Context, msg protocol.JoinRequest) error {
	if that.current != nil && that.current.Status() != entity.StatusFinished {
		return apperror.ErrAlreadyInGame
	}

	that.resolveIdentity(ctx, msg)

	// The session itself sends wait or start during the attach: deciding
	// here would race a peer attaching concurrently.
	joined, _, err := that.lobby.Join(msg.Game, that)
	if err != nil {
		return err
	}

	that.current = joined
	that.logger.Info("joined lobby", "game", msg.Game, "playerID", that.player.ID, "sessionID", joined.ID)

	return nil
}

func (that *Client) handleMove(msg protocol.MoveRequest) error {
	if that.current == nil {
		return apperror.ErrNotInGame
	}

	if err := that.current.SubmitMove(that, msg.Pos); err != nil {
		return err
	}

	that.metrics.MovesTotal.WithLabelValues(that.current.Kind).Inc()

	return nil
}

func (that *Client) handleChoice(msg protocol.ChoiceRequest) error {
	if that.current == nil {
		return apperror.ErrNotInGame
	}

	if err := that.current.SubmitChoice(that, msg.Move); err != nil {
		return err
	}

	that.metrics.MovesTotal.WithLabelValues(that.current.Kind).Inc()

	return nil
}

// resolveIdentity - lets a join resume a persisted identity or rename the
// current one. Lookup failures fall back to the identity minted at connect.
func (that *Client) resolveIdentity(ctx context.Context, msg protocol.JoinRequest) {
	if msg.PlayerID != "" && msg.PlayerID != that.player.ID {
		existing, err := that.players.GetByID(ctx, msg.PlayerID)
		switch {
		case err == nil:
			that.player = existing
		case errors.Is(err, repository.ErrPlayerNotFound):
			that.logger.Debug("unknown player id on join", "playerID", msg.PlayerID)
		default:
			that.logger.Warn("failed to look up player", "error", err)
		}
	}

	if msg.Name != "" && msg.Name != that.player.Name {
		that.player.Name = msg.Name
		if err := that.players.CreateOrUpdate(ctx, that.player); err != nil {
			that.logger.Warn("failed to persist player name", "error", err)
		}
	}
}

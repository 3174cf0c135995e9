// Package session owns the mutable state of one paired game: the rule-engine
// state, the two participants, and the Waiting → Ongoing → Finished machine.
// Every mutation happens under the session's own mutex, so at most one move
// is applied between evaluations.
package session

import (
	"fmt"
	"log/slog"
	"sync"

	"github.com/playroomlabs/gamehub-backend/internal/apperror"
	"github.com/playroomlabs/gamehub-backend/internal/entity"
	"github.com/playroomlabs/gamehub-backend/internal/game/rps"
	"github.com/playroomlabs/gamehub-backend/internal/game/tictactoe"
	"github.com/playroomlabs/gamehub-backend/internal/protocol"
)

// Participant is one side of a session. Send must serialize its own writes;
// Close tears down the underlying connection.
type Participant interface {
	ID() string
	Send(message any) error
	Close() error
}

// rpsRoles are the slot roles announced to RPS participants.
var rpsRoles = [2]string{"1", "2"}

// tttMarks are assigned in attach order: first joiner plays X.
var tttMarks = [2]string{tictactoe.PlayerX, tictactoe.PlayerO}

type Session struct {
	ID   string
	Kind string

	logger *slog.Logger
	mu     sync.Mutex

	status       string
	participants [2]Participant
	roles        [2]string
	attached     int

	ttt *tictactoe.Game
	rps *rps.Match

	// OnFinish runs once, inside the session lock, when the session reaches
	// Finished. Set by the lobby before any participant attaches.
	OnFinish func()
}

// New - creates a Waiting session for the given kind.
func New(id, kind string, logger *slog.Logger) (*Session, error) {
	session := &Session{
		ID:     id,
		Kind:   kind,
		logger: logger.With("component", "session", "sessionID", id, "game", kind),
		status: entity.StatusWaiting,
	}

	switch kind {
	case entity.GameTicTacToe:
		session.ttt = tictactoe.NewGame()
	case entity.GameRPS:
		session.rps = rps.NewMatch()
	default:
		return nil, fmt.Errorf("%w: %q", apperror.ErrUnknownGameKind, kind)
	}

	return session, nil
}

// Attach - adds a participant. The first attach is told to wait; the second
// flips the session to Ongoing, assigns roles in attach order, and sends the
// start messages. Both sends happen under the session lock, so a participant
// can never observe wait after start even when the peer attaches
// concurrently.
func (that *Session) Attach(participant Participant) (started bool, err error) {
	that.mu.Lock()
	defer that.mu.Unlock()

	if that.attached >= 2 || that.status != entity.StatusWaiting {
		return false, apperror.ErrAlreadyInGame
	}

	slot := that.attached
	that.participants[slot] = participant
	that.roles[slot] = that.roleForSlot(slot)
	that.attached++

	if that.attached < 2 {
		that.send(slot, protocol.NewWait())
		return false, nil
	}

	that.status = entity.StatusOngoing
	that.sendStart()

	return true, nil
}

// Status - returns the current lifecycle status.
func (that *Session) Status() string {
	that.mu.Lock()
	defer that.mu.Unlock()

	return that.status
}

// Role - returns the role assigned to the participant, or "" if unknown.
func (that *Session) Role(participant Participant) string {
	that.mu.Lock()
	defer that.mu.Unlock()

	slot, ok := that.slotOf(participant)
	if !ok {
		return ""
	}

	return that.roles[slot]
}

// SubmitMove - applies one Tic-Tac-Toe move for the participant, evaluates
// the board, and broadcasts the resulting state. Rule violations leave the
// board untouched and are returned to the caller.
func (that *Session) SubmitMove(participant Participant, cell int) error {
	that.mu.Lock()
	defer that.mu.Unlock()

	if err := that.confirmOngoing(); err != nil {
		return err
	}

	if that.Kind != entity.GameTicTacToe {
		return fmt.Errorf("%w: move", apperror.ErrWrongAction)
	}

	slot, ok := that.slotOf(participant)
	if !ok {
		return apperror.ErrNotInGame
	}

	if err := that.ttt.ApplyMove(that.roles[slot], cell); err != nil {
		return err
	}

	switch result := that.ttt.Evaluate(); result {
	case tictactoe.ResultOngoing:
		that.ttt.AdvanceTurn()
		that.broadcastBoard()
	default:
		that.finishTicTacToe(result)
	}

	return nil
}

// SubmitChoice - buffers one RPS choice for the participant; once both sides
// have submitted, the round is judged atomically.
func (that *Session) SubmitChoice(participant Participant, choice string) error {
	that.mu.Lock()
	defer that.mu.Unlock()

	if err := that.confirmOngoing(); err != nil {
		return err
	}

	if that.Kind != entity.GameRPS {
		return fmt.Errorf("%w: choice", apperror.ErrWrongAction)
	}

	slot, ok := that.slotOf(participant)
	if !ok {
		return apperror.ErrNotInGame
	}

	ready, err := that.rps.Submit(slot, choice)
	if err != nil {
		return err
	}

	if !ready {
		that.send(slot, protocol.NewWait())
		return nil
	}

	that.finishRound()

	return nil
}

// Leave - handles a participant dropping out. An ongoing session finalizes
// without a winner: the surviving peer is told its opponent left and its
// connection is closed.
func (that *Session) Leave(participant Participant) {
	that.mu.Lock()
	defer that.mu.Unlock()

	slot, ok := that.slotOf(participant)
	if !ok {
		return
	}

	switch that.status {
	case entity.StatusOngoing:
		that.logger.Info("participant left ongoing session", "playerID", participant.ID())
		that.send(1-slot, protocol.NewOpponentLeft())
		that.finish()
	case entity.StatusWaiting:
		that.status = entity.StatusFinished
	}
}

// confirmOngoing - rejects submissions to Waiting or Finished sessions.
func (that *Session) confirmOngoing() error {
	switch that.status {
	case entity.StatusWaiting:
		return apperror.ErrGameIsNotStarted
	case entity.StatusFinished:
		return apperror.ErrGameFinished
	default:
		return nil
	}
}

func (that *Session) roleForSlot(slot int) string {
	if that.Kind == entity.GameRPS {
		return rpsRoles[slot]
	}
	return tttMarks[slot]
}

func (that *Session) slotOf(participant Participant) (int, bool) {
	for slot := 0; slot < that.attached; slot++ {
		if that.participants[slot] == participant {
			return slot, true
		}
	}

	return 0, false
}

// sendStart - announces the started session to both sides and prompts the
// first turn. Callers hold the lock.
func (that *Session) sendStart() {
	for slot := range that.participants {
		start := protocol.Start{
			Type: protocol.TypeStart,
			Game: that.Kind,
			You:  that.roles[slot],
		}
		if that.Kind == entity.GameTicTacToe {
			start.Board = that.ttt.Cells()
		}
		that.send(slot, start)
	}

	switch that.Kind {
	case entity.GameTicTacToe:
		that.promptTurn()
	case entity.GameRPS:
		// both sides choose simultaneously every round
		that.send(0, protocol.YourTurn{Type: protocol.TypeYourTurn})
		that.send(1, protocol.YourTurn{Type: protocol.TypeYourTurn})
	}
}

// broadcastBoard - sends the non-terminal board state to both sides and a
// turn prompt to the player on move.
func (that *Session) broadcastBoard() {
	update := protocol.Update{
		Type:  protocol.TypeUpdate,
		Board: that.ttt.Cells(),
		Next:  that.ttt.Turn,
	}
	that.send(0, update)
	that.send(1, update)

	that.promptTurn()
}

func (that *Session) promptTurn() {
	for slot := range that.roles {
		if that.roles[slot] == that.ttt.Turn {
			that.send(slot, protocol.YourTurn{Type: protocol.TypeYourTurn, Board: that.ttt.Cells()})
		}
	}
}

// finishTicTacToe - maps the board result to per-participant outcomes and
// finalizes the session.
func (that *Session) finishTicTacToe(result string) {
	for slot := range that.participants {
		gameOver := protocol.GameOver{
			Type:   protocol.TypeGameOver,
			Result: entity.ResultDraw,
			Board:  that.ttt.Cells(),
		}

		if result != tictactoe.ResultTie {
			if that.roles[slot] == result {
				gameOver.Result = entity.ResultWin
			} else {
				gameOver.Result = entity.ResultLoss
			}
		}

		that.send(slot, gameOver)
	}

	that.finish()
}

// finishRound - judges the buffered RPS round and either prompts the next
// round or finalizes the match.
func (that *Session) finishRound() {
	outcome := that.rps.JudgeRound()

	for slot := range that.participants {
		that.send(slot, protocol.RoundResult{
			Type:     protocol.TypeRoundResult,
			Result:   outcome.Results[slot],
			Choice:   outcome.Choices[slot],
			Opponent: outcome.Choices[1-slot],
			Scores:   [2]int{outcome.Scores[slot], outcome.Scores[1-slot]},
			Round:    outcome.Round,
		})
	}

	if !outcome.Finished {
		that.send(0, protocol.YourTurn{Type: protocol.TypeYourTurn})
		that.send(1, protocol.YourTurn{Type: protocol.TypeYourTurn})
		return
	}

	winnerSlot, _ := that.rps.WinnerSlot()
	for slot := range that.participants {
		result := entity.ResultLoss
		if slot == winnerSlot {
			result = entity.ResultWin
		}

		scores := [2]int{outcome.Scores[slot], outcome.Scores[1-slot]}
		that.send(slot, protocol.GameOver{
			Type:     protocol.TypeGameOver,
			Result:   result,
			Choice:   outcome.Choices[slot],
			Opponent: outcome.Choices[1-slot],
			Scores:   &scores,
		})
	}

	that.finish()
}

// finish - marks the session Finished, runs the OnFinish hook, and closes
// both connections. Callers hold the lock.
func (that *Session) finish() {
	if that.status == entity.StatusFinished {
		return
	}

	that.status = entity.StatusFinished

	if that.OnFinish != nil {
		that.OnFinish()
	}

	for slot := 0; slot < that.attached; slot++ {
		if err := that.participants[slot].Close(); err != nil {
			that.logger.Debug("failed to close participant connection", "error", err)
		}
	}
}

func (that *Session) send(slot int, message any) {
	participant := that.participants[slot]
	if participant == nil {
		return
	}

	if err := participant.Send(message); err != nil {
		that.logger.Error("failed to send message", "playerID", participant.ID(), "error", err)
	}
}

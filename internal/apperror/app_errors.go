package apperror

import "errors"

var (
	ErrGameFinished     = errors.New("game is already finished")
	ErrGameIsNotStarted = errors.New("game is not started")
	ErrNotYourTurn      = errors.New("it's not your turn")
	ErrCellOccupied     = errors.New("cell is already occupied")
	ErrInvalidCell      = errors.New("invalid cell index")
	ErrInvalidChoice    = errors.New("invalid choice")
	ErrChoiceAlready    = errors.New("choice already submitted for this round")
	ErrUnknownGameKind  = errors.New("unknown game kind")
	ErrNotInGame        = errors.New("player is not in a game")
	ErrAlreadyInGame    = errors.New("player is already in a game")
	ErrWrongAction      = errors.New("action not supported for this game")
)

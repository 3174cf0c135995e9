package protocol

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/playroomlabs/gamehub-backend/internal/entity"
)

var (
	ErrMalformedMessage = errors.New("malformed message")
	ErrUnknownType      = errors.New("unknown message type")
)

// Client message types.
const (
	TypeList   = "list"
	TypeJoin   = "join"
	TypeMove   = "move"
	TypeChoice = "choice"
)

// Server message types.
const (
	TypeWelcome      = "welcome"
	TypeGames        = "games"
	TypeWait         = "wait"
	TypeStart        = "start"
	TypeYourTurn     = "your_turn"
	TypeUpdate       = "update"
	TypeRoundResult  = "round_result"
	TypeGameOver     = "game_over"
	TypeOpponentLeft = "opponent_left"
	TypeError        = "error"
)

type ListRequest struct {
	Type string `json:"type"`
}

type JoinRequest struct {
	Type     string `json:"type"`
	Game     string `json:"game"`
	PlayerID string `json:"player_id,omitempty"`
	Name     string `json:"name,omitempty"`
}

type MoveRequest struct {
	Type string `json:"type"`
	Pos  int    `json:"pos"`
}

type ChoiceRequest struct {
	Type string `json:"type"`
	Move string `json:"move"`
}

// DecodeClientMessage - parses one line into the closed set of client message
// variants. Unparseable input maps to ErrMalformedMessage, an unrecognized
// tag to ErrUnknownType; both keep the connection open.
func DecodeClientMessage(line []byte) (any, error) {
	var envelope struct {
		Type string `json:"type"`
	}

	if err := json.Unmarshal(line, &envelope); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrMalformedMessage, err)
	}

	switch envelope.Type {
	case TypeList:
		return ListRequest{Type: TypeList}, nil
	case TypeJoin:
		var msg JoinRequest
		if err := json.Unmarshal(line, &msg); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrMalformedMessage, err)
		}
		return msg, nil
	case TypeMove:
		// pos must be present: an absent field would otherwise decode to
		// cell 0, a legal move.
		var msg struct {
			Pos *int `json:"pos"`
		}
		if err := json.Unmarshal(line, &msg); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrMalformedMessage, err)
		}
		if msg.Pos == nil {
			return nil, fmt.Errorf("%w: missing pos", ErrMalformedMessage)
		}
		return MoveRequest{Type: TypeMove, Pos: *msg.Pos}, nil
	case TypeChoice:
		var msg ChoiceRequest
		if err := json.Unmarshal(line, &msg); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrMalformedMessage, err)
		}
		return msg, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownType, envelope.Type)
	}
}

type Welcome struct {
	Type   string         `json:"type"`
	Player *entity.Player `json:"player"`
}

type Games struct {
	Type  string   `json:"type"`
	Games []string `json:"games"`
}

type Wait struct {
	Type string `json:"type"`
}

type Start struct {
	Type  string   `json:"type"`
	Game  string   `json:"game"`
	You   string   `json:"you"`
	Board []string `json:"board,omitempty"`
}

type YourTurn struct {
	Type  string   `json:"type"`
	Board []string `json:"board,omitempty"`
}

type Update struct {
	Type  string   `json:"type"`
	Board []string `json:"board"`
	Next  string   `json:"next"`
}

type RoundResult struct {
	Type     string `json:"type"`
	Result   string `json:"result"`
	Choice   string `json:"choice"`
	Opponent string `json:"opponent"`
	Scores   [2]int `json:"scores"`
	Round    int    `json:"round"`
}

type GameOver struct {
	Type     string   `json:"type"`
	Result   string   `json:"result"`
	Board    []string `json:"board,omitempty"`
	Choice   string   `json:"choice,omitempty"`
	Opponent string   `json:"opponent,omitempty"`
	Scores   *[2]int  `json:"scores,omitempty"`
}

type OpponentLeft struct {
	Type string `json:"type"`
}

type Error struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}

func NewWelcome(player *entity.Player) Welcome {
	return Welcome{Type: TypeWelcome, Player: player}
}

func NewGames(kinds []string) Games {
	return Games{Type: TypeGames, Games: kinds}
}

func NewWait() Wait {
	return Wait{Type: TypeWait}
}

func NewOpponentLeft() OpponentLeft {
	return OpponentLeft{Type: TypeOpponentLeft}
}

func NewError(message string) Error {
	return Error{Type: TypeError, Message: message}
}

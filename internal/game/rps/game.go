package rps

import (
	"fmt"

	"github.com/playroomlabs/gamehub-backend/internal/apperror"
)

const (
	Rock     = "rock"
	Paper    = "paper"
	Scissors = "scissors"
)

// A match ends as soon as one side collects TargetWins round wins.
const TargetWins = 2

// Round results from one player's perspective.
const (
	ResultWin  = "win"
	ResultLoss = "loss"
	ResultDraw = "draw"
)

// beats maps each choice to the choice it defeats: rock → scissors → paper → rock.
var beats = map[string]string{
	Rock:     Scissors,
	Scissors: Paper,
	Paper:    Rock,
}

// IsValidChoice - reports whether choice is one of rock, paper, scissors.
func IsValidChoice(choice string) bool {
	_, ok := beats[choice]
	return ok
}

// Judge - decides one round. Returns the result for each side; equal choices
// draw, otherwise exactly one side wins.
func Judge(choiceA, choiceB string) (string, string) {
	if choiceA == choiceB {
		return ResultDraw, ResultDraw
	}

	if beats[choiceA] == choiceB {
		return ResultWin, ResultLoss
	}

	return ResultLoss, ResultWin
}

// Match is a best-of-N Rock-Paper-Scissors match between two slots.
// It is not safe for concurrent use; the owning session serializes access.
type Match struct {
	Scores [2]int
	Round  int

	choices   [2]string
	submitted [2]bool
}

func NewMatch() *Match {
	return &Match{Round: 1}
}

// Submit - records a slot's choice for the current round. Returns true once
// both slots have submitted and the round can be judged.
func (that *Match) Submit(slot int, choice string) (bool, error) {
	if !IsValidChoice(choice) {
		return false, fmt.Errorf("%w: %q", apperror.ErrInvalidChoice, choice)
	}

	if that.submitted[slot] {
		return false, apperror.ErrChoiceAlready
	}

	that.choices[slot] = choice
	that.submitted[slot] = true

	return that.submitted[0] && that.submitted[1], nil
}

// RoundOutcome describes one judged round.
type RoundOutcome struct {
	Results  [2]string
	Choices  [2]string
	Scores   [2]int
	Round    int
	Finished bool
}

// JudgeRound - judges the buffered choices, updates the scores, and clears
// the round buffer. A drawn round replays without a score change.
func (that *Match) JudgeRound() RoundOutcome {
	resultA, resultB := Judge(that.choices[0], that.choices[1])

	switch {
	case resultA == ResultWin:
		that.Scores[0]++
	case resultB == ResultWin:
		that.Scores[1]++
	}

	outcome := RoundOutcome{
		Results: [2]string{resultA, resultB},
		Choices: that.choices,
		Scores:  that.Scores,
		Round:   that.Round,
	}

	that.choices = [2]string{}
	that.submitted = [2]bool{}
	that.Round++

	outcome.Finished = that.Scores[0] >= TargetWins || that.Scores[1] >= TargetWins

	return outcome
}

// WinnerSlot - returns the slot that reached the target score, or false if
// the match is still running.
func (that *Match) WinnerSlot() (int, bool) {
	switch {
	case that.Scores[0] >= TargetWins:
		return 0, true
	case that.Scores[1] >= TargetWins:
		return 1, true
	default:
		return 0, false
	}
}

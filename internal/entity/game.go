package entity

// Supported game kinds. A kind selects the rule engine and the message schema
// a session uses.
const (
	GameTicTacToe = "tictactoe"
	GameRPS       = "rps"
)

// Session lifecycle statuses.
const (
	StatusWaiting  = "waiting"
	StatusOngoing  = "ongoing"
	StatusFinished = "finished"
)

// Per-participant results, as seen from that participant's side.
const (
	ResultWin  = "win"
	ResultLoss = "loss"
	ResultDraw = "draw"
)

// GameKinds - returns all kinds the server can pair players for.
func GameKinds() []string {
	return []string{GameTicTacToe, GameRPS}
}

// IsValidGameKind - reports whether kind names a supported game.
func IsValidGameKind(kind string) bool {
	return kind == GameTicTacToe || kind == GameRPS
}

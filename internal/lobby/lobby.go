// Package lobby pairs waiting connections into sessions by game kind.
package lobby

import (
	"fmt"
	"log/slog"
	"sync"

	"github.com/google/uuid"

	"github.com/playroomlabs/gamehub-backend/internal/apperror"
	"github.com/playroomlabs/gamehub-backend/internal/entity"
	"github.com/playroomlabs/gamehub-backend/internal/metrics"
	"github.com/playroomlabs/gamehub-backend/internal/session"
)

// Lobby holds at most one waiting session per game kind: pairing happens as
// soon as a second connection asks for the same kind. The lock covers only
// the O(1) pairing decision, never any network write.
type Lobby struct {
	logger  *slog.Logger
	metrics *metrics.Metrics

	mu      sync.Mutex
	waiting map[string]*session.Session
}

func New(logger *slog.Logger, collector *metrics.Metrics) *Lobby {
	return &Lobby{
		logger:  logger.With("component", "lobby"),
		metrics: collector,
		waiting: make(map[string]*session.Session),
	}
}

// Kinds - lists the game kinds the lobby can pair for.
func (that *Lobby) Kinds() []string {
	return entity.GameKinds()
}

// Join - attaches the participant to the waiting session for kind, creating
// one if none exists. Returns the session and whether it just started; a
// started session has already sent its start messages to both sides.
func (that *Lobby) Join(kind string, participant session.Participant) (*session.Session, bool, error) {
	if !entity.IsValidGameKind(kind) {
		return nil, false, fmt.Errorf("%w: %q", apperror.ErrUnknownGameKind, kind)
	}

	var (
		current          *session.Session
		created, started bool
		err              error
	)

	// Attach happens outside the lobby lock: the second attach broadcasts the
	// start messages under the session's own lock. A waiting peer can vanish
	// between the pairing decision and the attach; its session is dead then,
	// so take another pairing decision.
	for {
		current, created, err = that.reserve(kind, participant)
		if err != nil {
			return nil, false, err
		}

		started, err = current.Attach(participant)
		if err == nil {
			break
		}

		if created {
			return nil, false, fmt.Errorf("failed to attach participant: %w", err)
		}
	}

	if created {
		that.logger.Info("participant waiting for a peer", "game", kind, "sessionID", current.ID, "playerID", participant.ID())
	}

	if started {
		that.metrics.SessionsStarted.WithLabelValues(kind).Inc()
		that.metrics.SessionsActive.Inc()
		that.logger.Info("session started", "game", kind, "sessionID", current.ID)
	}

	return current, started, nil
}

// reserve - the critical section of the pairing decision: either takes the
// waiting session for kind off the queue or registers a fresh one.
func (that *Lobby) reserve(kind string, participant session.Participant) (*session.Session, bool, error) {
	that.mu.Lock()
	defer that.mu.Unlock()

	if current, ok := that.waiting[kind]; ok {
		delete(that.waiting, kind)
		return current, false, nil
	}

	current, err := session.New(uuid.NewString(), kind, that.logger)
	if err != nil {
		return nil, false, fmt.Errorf("failed to create session: %w", err)
	}

	current.OnFinish = that.metrics.SessionsActive.Dec

	that.waiting[kind] = current
	return current, true, nil
}

// Abandon - handles a participant's connection going away. A session still
// waiting for a peer is removed from the queue so it can never be paired with
// a dead connection; an ongoing session finalizes and informs the peer.
func (that *Lobby) Abandon(current *session.Session, participant session.Participant) {
	if current == nil {
		return
	}

	that.mu.Lock()
	if that.waiting[current.Kind] == current {
		delete(that.waiting, current.Kind)
	}
	that.mu.Unlock()

	current.Leave(participant)
}

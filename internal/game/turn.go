// internal/game/turn.go
package game

// PassesToClear is how many consecutive passes clear the standing play:
// every seat other than the one that made it.
const PassesToClear = Seats - 1

// TurnScheduler tracks whose turn it is and consecutive passes since the
// last accepted play. All seats are occupied while a round is in play, so
// turns rotate through every seat.
type TurnScheduler struct {
	current int
	passes  int
}

// NewTurnScheduler starts a round with leader to act and no passes.
func NewTurnScheduler(leader int) TurnScheduler {
	return TurnScheduler{current: leader}
}

func (t *TurnScheduler) Current() int {
	return t.current
}

func (t *TurnScheduler) Passes() int {
	return t.passes
}

// Advance moves the turn to the next seat and returns it.
func (t *TurnScheduler) Advance() int {
	t.current = (t.current + 1) % Seats
	return t.current
}

// RecordPlay resets the pass count after an accepted play.
func (t *TurnScheduler) RecordPlay() {
	t.passes = 0
}

// RecordPass counts a pass. It returns true when the pass completes a full
// lap of passes, at which point the count resets and the standing play must
// be cleared by the caller.
func (t *TurnScheduler) RecordPass() bool {
	t.passes++
	if t.passes >= PassesToClear {
		t.passes = 0
		return true
	}
	return false
}

// internal/room/session.go
package room

import (
	"fmt"
	"math/rand"
	"time"

	"github.com/google/uuid"
	"github.com/jason-s-yu/tienlen/internal/cache"
	"github.com/jason-s-yu/tienlen/internal/game"
	"github.com/sirupsen/logrus"
)

// State is the session's position in the round lifecycle.
type State int

const (
	StateLobby State = iota
	StateReadyCheck
	StateDealt
	StateInProgress
	StateRoundOver
)

func (s State) String() string {
	switch s {
	case StateLobby:
		return "LOBBY"
	case StateReadyCheck:
		return "READY_CHECK"
	case StateDealt:
		return "DEALT"
	case StateInProgress:
		return "IN_PROGRESS"
	case StateRoundOver:
		return "ROUND_OVER"
	default:
		return "UNKNOWN"
	}
}

// Recorder receives round history. Implementations must not block.
type Recorder interface {
	Publish(rec cache.ActionRecord)
}

// Options configures every session a registry creates.
type Options struct {
	// DefaultRoom is used for joins that name no room.
	DefaultRoom string
	// SettleDelay is the pause between ROUND_OVER and the next deal.
	SettleDelay time.Duration
	// NewDeck produces the deck for each deal. Defaults to game.Generate.
	NewDeck func(rng *rand.Rand) []game.Card
	// Seed, when non-zero, makes every session's shuffle deterministic.
	Seed int64
	// Recorder, when set, receives an ActionRecord for each round event.
	Recorder Recorder
	// InboxSize bounds queued requests per session.
	InboxSize int
}

func (o Options) withDefaults() Options {
	if o.DefaultRoom == "" {
		o.DefaultRoom = "main"
	}
	if o.NewDeck == nil {
		o.NewDeck = game.Generate
	}
	if o.InboxSize <= 0 {
		o.InboxSize = 64
	}
	return o
}

// Player occupies one seat.
type Player struct {
	Name  string
	Seat  int
	Ready bool
	Hand  game.Hand

	conn *Connection
}

// Summary is a point-in-time view of a room for listings.
type Summary struct {
	ID       string `json:"id"`
	State    string `json:"state"`
	Occupied int    `json:"occupied"`
	Round    int    `json:"round"`
}

type command struct {
	apply func()
	done  chan struct{}
}

// Session is one room. Worker-owned fields are only touched by commands run
// on the goroutine started in newSession, one at a time in arrival order.
type Session struct {
	id      string
	opts    Options
	log     *logrus.Entry
	onClose func(*Session)

	inbox chan command
	done  chan struct{}

	// worker-owned
	closing      bool
	seats        [game.Seats]*Player
	state        State
	turn         game.TurnScheduler
	standing     game.Play
	standingSeat int
	round        int
	lastWinner   int
	settle       *time.Timer
	settleGen    int
	roundID      uuid.UUID
	actionIndex  int
	rng          *rand.Rand
}

func newSession(id string, opts Options, logger *logrus.Logger, onClose func(*Session)) *Session {
	rng := game.NewRand()
	if opts.Seed != 0 {
		rng = rand.New(rand.NewSource(opts.Seed))
	}
	s := &Session{
		id:           id,
		opts:         opts,
		log:          logger.WithField("room", id),
		onClose:      onClose,
		inbox:        make(chan command, opts.InboxSize),
		done:         make(chan struct{}),
		state:        StateLobby,
		standingSeat: -1,
		round:        1,
		lastWinner:   -1,
		rng:          rng,
	}
	go s.run()
	return s
}

// ID returns the room identifier.
func (s *Session) ID() string {
	return s.id
}

func (s *Session) run() {
	for {
		cmd := <-s.inbox
		cmd.apply()
		if cmd.done != nil {
			close(cmd.done)
		}
		if s.closing {
			close(s.done)
			s.log.Info("room closed")
			if s.onClose != nil {
				s.onClose(s)
			}
			return
		}
	}
}

// do runs fn on the worker and waits for it to finish.
func (s *Session) do(fn func()) error {
	cmd := command{apply: fn, done: make(chan struct{})}
	select {
	case s.inbox <- cmd:
	case <-s.done:
		return ErrRoomClosed
	}
	select {
	case <-cmd.done:
		return nil
	case <-s.done:
		// done is closed after the closing command's own done channel.
		select {
		case <-cmd.done:
			return nil
		default:
			return ErrRoomClosed
		}
	}
}

// post queues fn without waiting for it. Used by timers.
func (s *Session) post(fn func()) {
	select {
	case s.inbox <- command{apply: fn}:
	case <-s.done:
	}
}

// Join seats conn at the lowest free seat.
func (s *Session) Join(conn *Connection, displayName string) (int, error) {
	seat := -1
	var err error
	if doErr := s.do(func() { seat, err = s.join(conn, displayName) }); doErr != nil {
		return -1, doErr
	}
	return seat, err
}

// ToggleReady flips the ready flag of the seat held by connID.
func (s *Session) ToggleReady(connID string) error {
	var err error
	if doErr := s.do(func() { err = s.toggleReady(connID) }); doErr != nil {
		return doErr
	}
	return err
}

// PlayCards attempts a play for the seat held by connID.
func (s *Session) PlayCards(connID string, cards []game.Card) error {
	var err error
	if doErr := s.do(func() { err = s.playCards(connID, cards) }); doErr != nil {
		return doErr
	}
	return err
}

// SkipTurn passes for the seat held by connID.
func (s *Session) SkipTurn(connID string) error {
	var err error
	if doErr := s.do(func() { err = s.skipTurn(connID) }); doErr != nil {
		return doErr
	}
	return err
}

// Leave vacates the seat held by connID. reason is sent to the other seats if
// a round is aborted.
func (s *Session) Leave(connID, reason string) error {
	var err error
	if doErr := s.do(func() { err = s.leave(connID, reason) }); doErr != nil {
		return doErr
	}
	return err
}

// Summary reports the room's state for listings.
func (s *Session) Summary() (Summary, error) {
	var sum Summary
	err := s.do(func() {
		sum = Summary{ID: s.id, State: s.state.String(), Occupied: s.occupied(), Round: s.round}
	})
	return sum, err
}

// Close cancels any pending deal and stops the worker.
func (s *Session) Close() {
	_ = s.do(func() {
		s.stopSettle()
		s.closing = true
	})
}

func (s *Session) join(conn *Connection, name string) (int, error) {
	if s.state != StateLobby && s.state != StateReadyCheck {
		return -1, ErrAlreadyStarted
	}
	if s.seatOf(conn.ID) >= 0 {
		return -1, ErrAlreadySeated
	}
	seat := -1
	for i, p := range s.seats {
		if p == nil {
			seat = i
			break
		}
	}
	if seat < 0 {
		return -1, ErrRoomFull
	}
	if name == "" {
		name = fmt.Sprintf("Player %d", seat+1)
	}
	s.seats[seat] = &Player{Name: name, Seat: seat, conn: conn}
	if s.occupied() == game.Seats {
		s.state = StateReadyCheck
	}
	s.log.WithFields(logrus.Fields{"conn": conn.ID, "seat": seat}).Infof("%s joined", name)

	conn.Write(YouJoined{RoomID: s.id, SeatIndex: seat})
	s.broadcastRoster()
	return seat, nil
}

func (s *Session) toggleReady(connID string) error {
	seat := s.seatOf(connID)
	if seat < 0 {
		return ErrNotSeated
	}
	if s.state != StateLobby && s.state != StateReadyCheck {
		s.log.Debugf("seat %d toggled ready in %s, ignored", seat, s.state)
		return nil
	}
	p := s.seats[seat]
	p.Ready = !p.Ready
	if s.occupied() == game.Seats {
		s.state = StateReadyCheck
	}
	s.broadcastRoster()

	if s.state == StateReadyCheck && s.allReady() {
		s.startRound()
	}
	return nil
}

func (s *Session) playCards(connID string, cards []game.Card) error {
	seat := s.seatOf(connID)
	if seat < 0 {
		return ErrNotSeated
	}
	if !s.canAct(seat) {
		return nil
	}
	p := s.seats[seat]

	play := game.NewPlay(cards)
	switch {
	case play.Kind == game.Invalid:
		p.conn.Write(InvalidPlay{Reason: "not a valid combination"})
		return nil
	case !game.Beats(play.Cards, s.standing.Cards):
		p.conn.Write(InvalidPlay{Reason: "does not beat the standing play"})
		return nil
	}
	if err := p.Hand.Remove(play.Cards); err != nil {
		p.conn.Write(InvalidPlay{Reason: "cards not in hand"})
		return nil
	}

	s.standing = play
	s.standingSeat = seat
	s.turn.RecordPlay()
	s.broadcast(CardsPlayed{Seat: seat, Cards: play.Cards, Kind: play.Kind})
	s.broadcast(s.cardsRemaining())
	s.record(seat, cache.ActionPlay, map[string]interface{}{
		"cards": play.Cards,
		"kind":  play.Kind,
	})

	if p.Hand.Len() == 0 {
		s.endRound(seat)
		return nil
	}
	s.broadcast(TurnChanged{CurrentTurnSeat: s.turn.Advance()})
	return nil
}

func (s *Session) skipTurn(connID string) error {
	seat := s.seatOf(connID)
	if seat < 0 {
		return ErrNotSeated
	}
	if !s.canAct(seat) {
		return nil
	}
	if s.standing.Empty() {
		s.seats[seat].conn.Write(InvalidPlay{Reason: "cannot pass on lead"})
		return nil
	}

	s.broadcast(TurnPassed{Seat: seat})
	s.record(seat, cache.ActionPass, nil)

	cleared := s.turn.RecordPass()
	next := s.turn.Advance()
	if cleared {
		s.log.Debugf("standing %s by seat %d cleared", s.standing.Kind, s.standingSeat)
		s.standing = game.Play{}
		s.standingSeat = -1
		s.broadcast(StandingCleared{LeadingSeat: next})
		s.record(next, cache.ActionClear, nil)
	}
	s.broadcast(TurnChanged{CurrentTurnSeat: next})
	return nil
}

func (s *Session) leave(connID, reason string) error {
	seat := s.seatOf(connID)
	if seat < 0 {
		return ErrNotSeated
	}
	name := s.seats[seat].Name
	s.seats[seat] = nil
	s.log.WithFields(logrus.Fields{"conn": connID, "seat": seat}).Infof("%s left", name)

	switch s.state {
	case StateDealt, StateInProgress, StateRoundOver:
		s.abortRound(reason)
	default:
		s.state = StateLobby
	}
	s.round = 1
	s.lastWinner = -1

	if s.occupied() == 0 {
		s.stopSettle()
		s.closing = true
		return nil
	}
	s.broadcastRoster()
	return nil
}

// canAct reports whether seat may play or pass now. Anything else is out of
// turn and ignored without a reply.
func (s *Session) canAct(seat int) bool {
	if s.state != StateInProgress {
		s.log.Debugf("seat %d acted in %s, ignored", seat, s.state)
		return false
	}
	if seat != s.turn.Current() {
		s.log.Debugf("seat %d acted out of turn (current %d), ignored", seat, s.turn.Current())
		return false
	}
	return true
}

func (s *Session) startRound() {
	s.state = StateDealt
	s.roundID = uuid.New()
	s.actionIndex = 0
	hands, err := game.Deal(s.opts.NewDeck(s.rng))
	if err != nil {
		s.log.WithError(err).Error("deal failed")
		s.abortRound("deck integrity violation")
		s.broadcastRoster()
		return
	}

	leader := s.lastWinner
	for seat, p := range s.seats {
		p.Hand = hands[seat]
		p.Ready = false
		if leader < 0 && p.Hand.Contains(game.ThreeOfSpades) {
			leader = seat
		}
	}

	s.standing = game.Play{}
	s.standingSeat = -1
	s.turn = game.NewTurnScheduler(leader)
	s.state = StateInProgress
	s.log.WithFields(logrus.Fields{"round": s.round, "leader": leader}).Info("round started")

	dealt := make(map[string]interface{}, game.Seats)
	for seat, p := range s.seats {
		p.conn.Write(GameStarted{
			Hand:        p.Hand.Cards(),
			SeatIndex:   seat,
			LeadingSeat: leader,
			RoundNumber: s.round,
		})
		dealt[fmt.Sprint(seat)] = p.Hand.Cards()
	}
	s.broadcast(TurnChanged{CurrentTurnSeat: leader})
	s.broadcast(s.cardsRemaining())
	s.record(leader, cache.ActionDeal, map[string]interface{}{"hands": dealt})
}

func (s *Session) endRound(winner int) {
	s.state = StateRoundOver
	s.lastWinner = winner
	s.broadcast(RoundOver{WinningSeat: winner, RoundNumber: s.round})
	s.record(winner, cache.ActionRoundOver, nil)
	s.log.WithFields(logrus.Fields{"round": s.round, "winner": winner}).Info("round over")

	s.round++
	for _, p := range s.seats {
		p.Ready = false
	}
	s.broadcastRoster()
	s.scheduleDeal()
}

// scheduleDeal arms the settle timer. A timer that fires after being
// superseded or after the room left ROUND_OVER does nothing.
func (s *Session) scheduleDeal() {
	s.stopSettle()
	s.settleGen++
	gen := s.settleGen
	s.settle = time.AfterFunc(s.opts.SettleDelay, func() {
		s.post(func() {
			if gen != s.settleGen || s.state != StateRoundOver {
				return
			}
			s.settle = nil
			s.startRound()
		})
	})
}

func (s *Session) stopSettle() {
	if s.settle != nil {
		s.settle.Stop()
		s.settle = nil
	}
	s.settleGen++
}

// abortRound discards the current round and returns the room to LOBBY.
func (s *Session) abortRound(reason string) {
	s.stopSettle()
	if s.state == StateInProgress || s.state == StateDealt {
		s.record(-1, cache.ActionAbort, map[string]interface{}{"reason": reason})
	}
	s.state = StateLobby
	s.standing = game.Play{}
	s.standingSeat = -1
	for _, p := range s.seats {
		if p != nil {
			p.Ready = false
			p.Hand.Clear()
		}
	}
	s.broadcast(RoundAborted{Reason: reason})
	s.log.Warnf("round aborted: %s", reason)
}

func (s *Session) record(seat int, action string, payload map[string]interface{}) {
	if s.opts.Recorder == nil {
		return
	}
	s.opts.Recorder.Publish(cache.ActionRecord{
		RoundID:       s.roundID,
		RoomID:        s.id,
		RoundNumber:   s.round,
		ActionIndex:   s.actionIndex,
		Seat:          seat,
		ActionType:    action,
		ActionPayload: payload,
		Timestamp:     time.Now().UnixMilli(),
	})
	s.actionIndex++
}

func (s *Session) broadcast(n Notification) {
	for _, p := range s.seats {
		if p != nil {
			p.conn.Write(n)
		}
	}
}

func (s *Session) broadcastRoster() {
	update := RoomUpdate{
		Names: make([]string, game.Seats),
		Ready: make([]bool, game.Seats),
		State: s.state.String(),
	}
	for i, p := range s.seats {
		if p == nil {
			continue
		}
		update.Count++
		update.Names[i] = p.Name
		update.Ready[i] = p.Ready
	}
	s.broadcast(update)
}

func (s *Session) cardsRemaining() CardsRemainingPerSeat {
	var n CardsRemainingPerSeat
	for i, p := range s.seats {
		if p != nil {
			n.Counts[i] = p.Hand.Len()
		}
	}
	return n
}

func (s *Session) seatOf(connID string) int {
	for i, p := range s.seats {
		if p != nil && p.conn.ID == connID {
			return i
		}
	}
	return -1
}

func (s *Session) occupied() int {
	n := 0
	for _, p := range s.seats {
		if p != nil {
			n++
		}
	}
	return n
}

func (s *Session) allReady() bool {
	for _, p := range s.seats {
		if p == nil || !p.Ready {
			return false
		}
	}
	return true
}

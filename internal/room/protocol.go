// internal/room/protocol.go
package room

import (
	"encoding/json"
	"fmt"

	"github.com/jason-s-yu/tienlen/internal/game"
)

// Inbound is a validated client request. The set of implementations is closed.
type Inbound interface {
	inboundType() string
}

type JoinRequest struct {
	RoomID      string
	DisplayName string
}

type ToggleReady struct{}

type PlayCards struct {
	Cards []game.Card
}

type SkipTurn struct{}

type Leave struct{}

func (JoinRequest) inboundType() string { return "join" }
func (ToggleReady) inboundType() string { return "toggleReady" }
func (PlayCards) inboundType() string   { return "playCards" }
func (SkipTurn) inboundType() string    { return "skipTurn" }
func (Leave) inboundType() string       { return "leave" }

// frame is the raw JSON shape of every inbound message.
type frame struct {
	Type        string   `json:"type"`
	RoomID      string   `json:"roomId"`
	DisplayName string   `json:"displayName"`
	Cards       []string `json:"cards"`
}

const maxDisplayName = 32

// DecodeInbound parses a client frame. Card tokens are parsed here and nowhere
// else; a play naming the same card twice is rejected.
func DecodeInbound(data []byte) (Inbound, error) {
	var f frame
	if err := json.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedFrame, err)
	}
	switch f.Type {
	case "join":
		name := []rune(f.DisplayName)
		if len(name) > maxDisplayName {
			name = name[:maxDisplayName]
		}
		return JoinRequest{RoomID: f.RoomID, DisplayName: string(name)}, nil
	case "toggleReady":
		return ToggleReady{}, nil
	case "skipTurn":
		return SkipTurn{}, nil
	case "leave":
		return Leave{}, nil
	case "playCards":
		if len(f.Cards) == 0 {
			return nil, fmt.Errorf("%w: playCards needs at least one card", ErrMalformedFrame)
		}
		cards, err := game.ParseCards(f.Cards)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrMalformedFrame, err)
		}
		seen := make(map[game.Card]bool, len(cards))
		for _, c := range cards {
			if seen[c] {
				return nil, fmt.Errorf("%w: duplicate card %s", ErrMalformedFrame, c)
			}
			seen[c] = true
		}
		return PlayCards{Cards: cards}, nil
	case "":
		return nil, fmt.Errorf("%w: missing type", ErrMalformedFrame)
	default:
		return nil, fmt.Errorf("%w: unknown type %q", ErrMalformedFrame, f.Type)
	}
}

// Notification is an outbound message. The set of implementations is closed.
type Notification interface {
	notificationType() string
}

// RoomUpdate is the roster; slices are indexed by seat and empty seats have a blank name.
type RoomUpdate struct {
	Count int      `json:"count"`
	Names []string `json:"names"`
	Ready []bool   `json:"ready"`
	State string   `json:"state"`
}

type YouJoined struct {
	RoomID    string `json:"roomId"`
	SeatIndex int    `json:"seatIndex"`
}

// GameStarted is unicast; Hand is the recipient's own cards.
type GameStarted struct {
	Hand        []game.Card `json:"hand"`
	SeatIndex   int         `json:"seatIndex"`
	LeadingSeat int         `json:"leadingSeat"`
	RoundNumber int         `json:"roundNumber"`
}

type CardsPlayed struct {
	Seat  int           `json:"seat"`
	Cards []game.Card   `json:"cards"`
	Kind  game.PlayKind `json:"kind"`
}

type TurnPassed struct {
	Seat int `json:"seat"`
}

type StandingCleared struct {
	LeadingSeat int `json:"leadingSeat"`
}

type InvalidPlay struct {
	Reason string `json:"reason"`
}

type TurnChanged struct {
	CurrentTurnSeat int `json:"currentTurnSeat"`
}

type CardsRemainingPerSeat struct {
	Counts [game.Seats]int `json:"counts"`
}

type RoundOver struct {
	WinningSeat int `json:"winningSeat"`
	RoundNumber int `json:"roundNumber"`
}

type RoundAborted struct {
	Reason string `json:"reason"`
}

type RoomFull struct {
	RoomID string `json:"roomId"`
}

type AlreadyStarted struct {
	RoomID string `json:"roomId"`
}

type ErrorNotice struct {
	Message string `json:"message"`
}

func (RoomUpdate) notificationType() string            { return "roomUpdate" }
func (YouJoined) notificationType() string             { return "youJoined" }
func (GameStarted) notificationType() string           { return "gameStarted" }
func (CardsPlayed) notificationType() string           { return "cardsPlayed" }
func (TurnPassed) notificationType() string            { return "turnPassed" }
func (StandingCleared) notificationType() string       { return "standingCleared" }
func (InvalidPlay) notificationType() string           { return "invalidPlay" }
func (TurnChanged) notificationType() string           { return "turnChanged" }
func (CardsRemainingPerSeat) notificationType() string { return "cardsRemainingPerSeat" }
func (RoundOver) notificationType() string             { return "roundOver" }
func (RoundAborted) notificationType() string          { return "roundAborted" }
func (RoomFull) notificationType() string              { return "roomFull" }
func (AlreadyStarted) notificationType() string        { return "alreadyStarted" }
func (ErrorNotice) notificationType() string           { return "error" }

// TypeOf returns the wire name of a notification.
func TypeOf(n Notification) string {
	return n.notificationType()
}

// Encode wraps n in the {"type","data"} envelope.
func Encode(n Notification) ([]byte, error) {
	return json.Marshal(struct {
		Type string       `json:"type"`
		Data Notification `json:"data"`
	}{Type: n.notificationType(), Data: n})
}

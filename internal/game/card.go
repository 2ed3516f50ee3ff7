// internal/game/card.go
package game

import (
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"
)

// Rank orders card faces from 3 (lowest) to 2 (highest).
type Rank int

const (
	Three Rank = iota
	Four
	Five
	Six
	Seven
	Eight
	Nine
	Ten
	Jack
	Queen
	King
	Ace
	Two
)

// Suit breaks ties between cards of equal rank: Spades < Clubs < Diamonds < Hearts.
type Suit int

const (
	Spades Suit = iota
	Clubs
	Diamonds
	Hearts
)

var rankNames = [...]string{"3", "4", "5", "6", "7", "8", "9", "10", "J", "Q", "K", "A", "2"}

var suitSymbols = [...]string{"♠", "♣", "♦", "♥"}

// ErrInvalidCard is returned when a card token cannot be parsed.
var ErrInvalidCard = errors.New("invalid card")

func (r Rank) String() string {
	if r < Three || r > Two {
		return fmt.Sprintf("Rank(%d)", int(r))
	}
	return rankNames[r]
}

func (s Suit) String() string {
	if s < Spades || s > Hearts {
		return fmt.Sprintf("Suit(%d)", int(s))
	}
	return suitSymbols[s]
}

// Card is an immutable playing card.
type Card struct {
	Rank Rank
	Suit Suit
}

// Power is the card's position in the total order, 0 (3♠) through 51 (2♥).
func (c Card) Power() int {
	return int(c.Rank)*4 + int(c.Suit)
}

// Less reports whether c sorts before o.
func (c Card) Less(o Card) bool {
	return c.Power() < o.Power()
}

// Valid reports whether both rank and suit are in range.
func (c Card) Valid() bool {
	return c.Rank >= Three && c.Rank <= Two && c.Suit >= Spades && c.Suit <= Hearts
}

func (c Card) String() string {
	return c.Rank.String() + c.Suit.String()
}

// MarshalText encodes the card as e.g. "10♠".
func (c Card) MarshalText() ([]byte, error) {
	if !c.Valid() {
		return nil, fmt.Errorf("%w: %d/%d", ErrInvalidCard, c.Rank, c.Suit)
	}
	return []byte(c.String()), nil
}

// UnmarshalText accepts anything ParseCard accepts.
func (c *Card) UnmarshalText(text []byte) error {
	parsed, err := ParseCard(string(text))
	if err != nil {
		return err
	}
	*c = parsed
	return nil
}

// ThreeOfSpades is the lowest card in the deck; its holder leads the first round.
var ThreeOfSpades = Card{Rank: Three, Suit: Spades}

// ParseCard reads a rank token (3-10, J, Q, K, A, 2) followed by a suit
// symbol (♠♣♦♥) or letter (S, C, D, H). Letters are case-insensitive.
func ParseCard(s string) (Card, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Card{}, fmt.Errorf("%w: empty", ErrInvalidCard)
	}
	suitRune, size := utf8.DecodeLastRuneInString(s)
	suit, ok := parseSuit(suitRune)
	if !ok {
		return Card{}, fmt.Errorf("%w: bad suit in %q", ErrInvalidCard, s)
	}
	rankToken := strings.ToUpper(s[:len(s)-size])
	for i, name := range rankNames {
		if name == rankToken {
			return Card{Rank: Rank(i), Suit: suit}, nil
		}
	}
	return Card{}, fmt.Errorf("%w: bad rank in %q", ErrInvalidCard, s)
}

func parseSuit(r rune) (Suit, bool) {
	switch r {
	case '♠', 'S', 's':
		return Spades, true
	case '♣', 'C', 'c':
		return Clubs, true
	case '♦', 'D', 'd':
		return Diamonds, true
	case '♥', 'H', 'h':
		return Hearts, true
	}
	return 0, false
}

// ParseCards parses every token, failing on the first bad one.
func ParseCards(tokens []string) ([]Card, error) {
	cards := make([]Card, 0, len(tokens))
	for _, tok := range tokens {
		c, err := ParseCard(tok)
		if err != nil {
			return nil, err
		}
		cards = append(cards, c)
	}
	return cards, nil
}

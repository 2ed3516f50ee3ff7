// internal/game/deck.go
package game

import (
	"errors"
	"fmt"
	"math/rand"
	"time"
)

const (
	// Seats is the number of players at a table.
	Seats = 4
	// HandSize is the number of cards dealt to each seat.
	HandSize = 13
	// DeckSize is the number of cards in a full deck.
	DeckSize = Seats * HandSize
)

// ErrDeckIntegrity is returned by Deal when the deck is not exactly the 52 canonical cards.
var ErrDeckIntegrity = errors.New("deck integrity violation")

// NewDeck returns the 52 canonical cards in ascending order.
func NewDeck() []Card {
	deck := make([]Card, 0, DeckSize)
	for r := Three; r <= Two; r++ {
		for s := Spades; s <= Hearts; s++ {
			deck = append(deck, Card{Rank: r, Suit: s})
		}
	}
	return deck
}

// NewRand returns a time-seeded source for callers that don't supply one.
func NewRand() *rand.Rand {
	return rand.New(rand.NewSource(time.Now().UnixNano()))
}

// Generate returns a uniformly shuffled deck. rng must not be shared across goroutines.
func Generate(rng *rand.Rand) []Card {
	if rng == nil {
		rng = NewRand()
	}
	deck := NewDeck()
	// rand.Shuffle is Fisher-Yates.
	rng.Shuffle(len(deck), func(i, j int) { deck[i], deck[j] = deck[j], deck[i] })
	return deck
}

// ValidateDeck checks that deck holds each canonical card exactly once.
func ValidateDeck(deck []Card) error {
	if len(deck) != DeckSize {
		return fmt.Errorf("%w: %d cards, want %d", ErrDeckIntegrity, len(deck), DeckSize)
	}
	var seen [DeckSize]bool
	for _, c := range deck {
		if !c.Valid() {
			return fmt.Errorf("%w: invalid card %d/%d", ErrDeckIntegrity, c.Rank, c.Suit)
		}
		if seen[c.Power()] {
			return fmt.Errorf("%w: duplicate %s", ErrDeckIntegrity, c)
		}
		seen[c.Power()] = true
	}
	return nil
}

// Deal splits the deck left to right into four consecutive 13-card hands in seat order.
func Deal(deck []Card) ([Seats]Hand, error) {
	var hands [Seats]Hand
	if err := ValidateDeck(deck); err != nil {
		return hands, err
	}
	for seat := 0; seat < Seats; seat++ {
		hands[seat] = NewHand(deck[seat*HandSize : (seat+1)*HandSize])
	}
	return hands, nil
}

// internal/game/hand.go
package game

import (
	"errors"
	"fmt"
	"sort"
)

// ErrCardNotInHand is returned when removing cards the hand does not hold.
var ErrCardNotInHand = errors.New("card not in hand")

// Hand is one seat's private cards, kept in ascending order.
type Hand struct {
	cards []Card
}

// NewHand copies and sorts cards into a new hand.
func NewHand(cards []Card) Hand {
	h := Hand{cards: append([]Card(nil), cards...)}
	SortCards(h.cards)
	return h
}

// SortCards orders cards ascending by rank, then suit.
func SortCards(cards []Card) {
	sort.Slice(cards, func(i, j int) bool { return cards[i].Less(cards[j]) })
}

// Cards returns a copy of the hand in display order.
func (h *Hand) Cards() []Card {
	return append([]Card(nil), h.cards...)
}

func (h *Hand) Len() int {
	return len(h.cards)
}

func (h *Hand) Contains(c Card) bool {
	for _, held := range h.cards {
		if held == c {
			return true
		}
	}
	return false
}

// Add inserts cards, keeping display order.
func (h *Hand) Add(cards ...Card) {
	h.cards = append(h.cards, cards...)
	SortCards(h.cards)
}

// Remove takes the given cards out of the hand. Either every card is
// removed or, on error, the hand is left untouched.
func (h *Hand) Remove(cards []Card) error {
	remove := make(map[Card]int, len(cards))
	for _, c := range cards {
		remove[c]++
	}
	for c, n := range remove {
		held := 0
		for _, hc := range h.cards {
			if hc == c {
				held++
			}
		}
		if held < n {
			return fmt.Errorf("%w: %s", ErrCardNotInHand, c)
		}
	}

	kept := make([]Card, 0, len(h.cards))
	for _, c := range h.cards {
		if remove[c] > 0 {
			remove[c]--
			continue
		}
		kept = append(kept, c)
	}
	h.cards = kept
	return nil
}

// Clear empties the hand.
func (h *Hand) Clear() {
	h.cards = nil
}

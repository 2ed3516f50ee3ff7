package game

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewDeckIsCanonical(t *testing.T) {
	deck := NewDeck()
	require.Len(t, deck, DeckSize)
	require.NoError(t, ValidateDeck(deck))
	for i := 1; i < len(deck); i++ {
		assert.True(t, deck[i-1].Less(deck[i]))
	}
}

func TestDealPartitionsDeck(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	for round := 0; round < 50; round++ {
		hands, err := Deal(Generate(rng))
		require.NoError(t, err)

		seen := make(map[Card]int)
		for seat := range hands {
			require.Equal(t, HandSize, hands[seat].Len())
			for _, c := range hands[seat].Cards() {
				seen[c]++
			}
		}
		require.Len(t, seen, DeckSize)
		for c, n := range seen {
			require.Equal(t, 1, n, "card %s dealt %d times", c, n)
		}
	}
}

func TestDealConsumesLeftToRight(t *testing.T) {
	deck := NewDeck()
	hands, err := Deal(deck)
	require.NoError(t, err)
	assert.Equal(t, deck[:HandSize], hands[0].Cards())
	assert.Equal(t, deck[3*HandSize:], hands[3].Cards())
}

func TestDealRejectsCorruptDeck(t *testing.T) {
	short := NewDeck()[:51]
	_, err := Deal(short)
	assert.ErrorIs(t, err, ErrDeckIntegrity)

	dup := NewDeck()
	dup[10] = dup[11]
	_, err = Deal(dup)
	assert.ErrorIs(t, err, ErrDeckIntegrity)

	bad := NewDeck()
	bad[0] = Card{Rank: 13, Suit: Spades}
	_, err = Deal(bad)
	assert.ErrorIs(t, err, ErrDeckIntegrity)
}

// Every card should land in every seat about a quarter of the time.
func TestGenerateSpreadsCardsAcrossSeats(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	const trials = 4000
	var counts [Seats]int
	for i := 0; i < trials; i++ {
		deck := Generate(rng)
		for pos, c := range deck {
			if c == ThreeOfSpades {
				counts[pos/HandSize]++
			}
		}
	}
	for seat, n := range counts {
		assert.InDelta(t, trials/Seats, n, trials/20, "seat %d", seat)
	}
}

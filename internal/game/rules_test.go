package game

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func cards(t *testing.T, tokens ...string) []Card {
	t.Helper()
	out, err := ParseCards(tokens)
	require.NoError(t, err)
	return out
}

func TestClassify(t *testing.T) {
	tests := []struct {
		name  string
		cards []string
		want  PlayKind
	}{
		{"empty", nil, Invalid},
		{"single", []string{"7♦"}, Single},
		{"pair", []string{"9♠", "9♥"}, Pair},
		{"mixed pair", []string{"9♠", "10♥"}, Invalid},
		{"triple", []string{"K♠", "K♣", "K♥"}, Triple},
		{"quad", []string{"5♠", "5♣", "5♦", "5♥"}, FourOfAKind},
		{"straight of three", []string{"3♠", "4♥", "5♦"}, Straight},
		{"unordered straight", []string{"J♣", "9♠", "10♥", "Q♦"}, Straight},
		{"straight to ace", []string{"Q♠", "K♥", "A♦"}, Straight},
		{"straight with a two", []string{"K♠", "A♥", "2♦"}, Invalid},
		{"wraparound", []string{"A♠", "2♥", "3♦"}, Invalid},
		{"two cards in sequence", []string{"3♠", "4♠"}, Invalid},
		{"gap", []string{"3♠", "4♠", "6♠"}, Invalid},
		{"duplicate card", []string{"3♠", "3♠"}, Invalid},
		{"consecutive pairs", []string{"3♠", "3♥", "4♠", "4♥", "5♠", "5♥"}, Invalid},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Classify(cards(t, tt.cards...)))
		})
	}
}

func TestBeats(t *testing.T) {
	tests := []struct {
		name      string
		candidate []string
		standing  []string
		want      bool
	}{
		{"lead anything valid", []string{"3♠"}, nil, true},
		{"cannot lead invalid", []string{"3♠", "5♠"}, nil, false},
		{"higher single", []string{"8♣"}, []string{"7♥"}, true},
		{"suit breaks ties", []string{"7♥"}, []string{"7♠"}, true},
		{"lower suit loses", []string{"7♠"}, []string{"7♥"}, false},
		{"pair over pair", []string{"9♠", "9♦"}, []string{"8♣", "8♥"}, true},
		{"pair by top suit", []string{"9♠", "9♥"}, []string{"9♣", "9♦"}, true},
		{"kind mismatch", []string{"4♠"}, []string{"3♠", "3♥"}, false},
		{"pair over single", []string{"K♠", "K♥"}, []string{"5♦"}, false},
		{"longer straight", []string{"4♠", "5♠", "6♠", "7♠"}, []string{"3♠", "4♥", "5♦"}, false},
		{"higher straight", []string{"4♠", "5♠", "6♠"}, []string{"3♠", "4♥", "5♦"}, true},
		{"straight by top suit", []string{"3♠", "4♥", "5♥"}, []string{"3♣", "4♦", "5♦"}, true},
		{"quad beats single two", []string{"3♠", "3♣", "3♦", "3♥"}, []string{"2♥"}, true},
		{"quad beats pair of twos", []string{"3♠", "3♣", "3♦", "3♥"}, []string{"2♠", "2♥"}, true},
		{"quad does not beat plain single", []string{"3♠", "3♣", "3♦", "3♥"}, []string{"A♥"}, false},
		{"quad does not beat triple twos", []string{"3♠", "3♣", "3♦", "3♥"}, []string{"2♠", "2♣", "2♥"}, false},
		{"higher quad", []string{"9♠", "9♣", "9♦", "9♥"}, []string{"3♠", "3♣", "3♦", "3♥"}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Beats(cards(t, tt.candidate...), cards(t, tt.standing...)))
		})
	}
}

func TestBeatsIsAntisymmetric(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	for i := 0; i < 2000; i++ {
		deck := Generate(rng)
		n := 1 + rng.Intn(3)
		a, b := deck[:n], deck[n:2*n]
		assert.False(t, Beats(a, b) && Beats(b, a), "%v and %v beat each other", a, b)
	}
}

func TestBeatsRejectsEqualHighest(t *testing.T) {
	a := cards(t, "5♣", "5♥")
	b := cards(t, "5♠", "5♥")
	assert.False(t, Beats(a, b))
	assert.False(t, Beats(b, a))
}

func TestNewPlay(t *testing.T) {
	p := NewPlay(cards(t, "5♦", "3♠", "4♥"))
	assert.Equal(t, Straight, p.Kind)
	assert.Equal(t, cards(t, "3♠", "4♥", "5♦"), p.Cards)
	assert.Equal(t, Card{Five, Diamonds}, p.Highest())
	assert.False(t, p.Empty())
	assert.True(t, Play{}.Empty())
}

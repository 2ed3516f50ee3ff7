// internal/game/rules.go
package game

// PlayKind is the combination a set of cards forms.
type PlayKind int

const (
	Invalid PlayKind = iota
	Single
	Pair
	Triple
	Straight // 3+ consecutive ranks, never containing a 2
	FourOfAKind
)

func (k PlayKind) String() string {
	switch k {
	case Single:
		return "single"
	case Pair:
		return "pair"
	case Triple:
		return "triple"
	case Straight:
		return "straight"
	case FourOfAKind:
		return "four_of_a_kind"
	default:
		return "invalid"
	}
}

// MarshalText lets PlayKind appear by name in JSON payloads.
func (k PlayKind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// Play is a classified set of cards in ascending order.
type Play struct {
	Cards []Card
	Kind  PlayKind
}

// NewPlay sorts a copy of cards and classifies it.
func NewPlay(cards []Card) Play {
	sorted := append([]Card(nil), cards...)
	SortCards(sorted)
	return Play{Cards: sorted, Kind: Classify(sorted)}
}

// Empty reports whether there is no standing play.
func (p Play) Empty() bool {
	return len(p.Cards) == 0
}

// Highest returns the top card of the play. Play must not be empty.
func (p Play) Highest() Card {
	top := p.Cards[0]
	for _, c := range p.Cards[1:] {
		if top.Less(c) {
			top = c
		}
	}
	return top
}

// Classify maps a card set to exactly one PlayKind. Empty sets, sets with
// duplicate or out-of-range cards, and mixed sets that fit no kind are Invalid.
func Classify(cards []Card) PlayKind {
	if len(cards) == 0 || !distinct(cards) {
		return Invalid
	}
	if allSameRank(cards) {
		switch len(cards) {
		case 1:
			return Single
		case 2:
			return Pair
		case 3:
			return Triple
		case 4:
			return FourOfAKind
		}
	}
	if isStraight(cards) {
		return Straight
	}
	return Invalid
}

// Beats reports whether candidate may be played over standing. An empty
// standing play means the table is open and any valid play leads.
//
// FourOfAKind is the only bomb: besides beating a lower FourOfAKind it beats
// a standing single 2 or pair of 2s.
func Beats(candidate, standing []Card) bool {
	kind := Classify(candidate)
	if kind == Invalid {
		return false
	}
	if len(standing) == 0 {
		return true
	}
	standingKind := Classify(standing)
	if standingKind == Invalid {
		return false
	}

	if kind == FourOfAKind && isTwos(standing) && (standingKind == Single || standingKind == Pair) {
		return true
	}

	if kind != standingKind || len(candidate) != len(standing) {
		return false
	}
	return highest(standing).Less(highest(candidate))
}

func highest(cards []Card) Card {
	return Play{Cards: cards}.Highest()
}

func isTwos(cards []Card) bool {
	return allSameRank(cards) && cards[0].Rank == Two
}

func distinct(cards []Card) bool {
	var seen [DeckSize]bool
	for _, c := range cards {
		if !c.Valid() || seen[c.Power()] {
			return false
		}
		seen[c.Power()] = true
	}
	return true
}

func allSameRank(cards []Card) bool {
	for _, c := range cards[1:] {
		if c.Rank != cards[0].Rank {
			return false
		}
	}
	return true
}

func isStraight(cards []Card) bool {
	if len(cards) < 3 {
		return false
	}
	var present [Two + 1]bool
	lo, hi := Two, Three
	for _, c := range cards {
		if c.Rank == Two || present[c.Rank] {
			return false
		}
		present[c.Rank] = true
		if c.Rank < lo {
			lo = c.Rank
		}
		if c.Rank > hi {
			hi = c.Rank
		}
	}
	return int(hi-lo)+1 == len(cards)
}

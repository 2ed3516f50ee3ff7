package game

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAdvanceIsRoundRobin(t *testing.T) {
	for start := 0; start < Seats; start++ {
		ts := NewTurnScheduler(start)
		var visited []int
		for i := 0; i < Seats; i++ {
			visited = append(visited, ts.Advance())
		}
		assert.Equal(t, start, ts.Current(), "four advances return to the start")
		assert.ElementsMatch(t, []int{0, 1, 2, 3}, visited)
	}
}

func TestThreePassesClear(t *testing.T) {
	ts := NewTurnScheduler(1)
	ts.RecordPlay()
	ts.Advance()

	assert.False(t, ts.RecordPass())
	ts.Advance()
	assert.False(t, ts.RecordPass())
	ts.Advance()
	assert.True(t, ts.RecordPass())
	assert.Equal(t, 0, ts.Passes())
	assert.Equal(t, 1, ts.Advance(), "the last player to play leads again")
}

func TestPlayResetsPasses(t *testing.T) {
	ts := NewTurnScheduler(0)
	ts.RecordPass()
	ts.RecordPass()
	assert.Equal(t, 2, ts.Passes())
	ts.RecordPlay()
	assert.Equal(t, 0, ts.Passes())
}

package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSearchRestoresBoard(t *testing.T) {
	for _, layout := range []string{"---------", "X---O----", "XX-OO----", "XOXOXOOX-"} {
		b := MustParseBoard(layout)
		s := newSearcher(b, HardDepth)
		s.run(PlayerO)
		assert.Equal(t, b, s.board, "scratch board changed for %s", layout)

		s = newSearcher(b, MediumDepth)
		s.run(PlayerX)
		assert.Equal(t, b, s.board, "scratch board changed for %s", layout)
	}
}

func TestSearchPrefersImmediateWin(t *testing.T) {
	// O can win at 2 at once.
	s := newSearcher(MustParseBoard("OO-XX-X--"), HardDepth)
	out := s.run(PlayerO)

	assert.Equal(t, 2, out.move)
	assert.Equal(t, WinScore, out.score)
}

func TestSearchBlocksAndDelaysLoss(t *testing.T) {
	// X must block at 2; O still forces a win two plies later.
	s := newSearcher(MustParseBoard("OO-X-----"), HardDepth)
	out := s.run(PlayerX)

	assert.Equal(t, 2, out.move)
	assert.Equal(t, 7, out.score)
}

func TestSearchMetricsBounds(t *testing.T) {
	for _, layout := range []string{"---------", "X--------", "XX-OO----", "XOXOXO---"} {
		for _, limit := range []int{MediumDepth, HardDepth} {
			s := newSearcher(MustParseBoard(layout), limit)
			s.run(MustParseBoard(layout).SideToMove())

			m := s.metrics
			assert.GreaterOrEqual(t, m.NodesEvaluated, 1, layout)
			assert.LessOrEqual(t, m.BranchesPruned, m.NodesEvaluated, layout)
			assert.LessOrEqual(t, m.MaxDepthReached, limit, layout)
		}
	}
}

func TestSearchScoresEveryLegalMove(t *testing.T) {
	b := MustParseBoard("X---O----")
	s := newSearcher(b, HardDepth)
	out := s.run(PlayerX)

	require.Len(t, out.scores, len(LegalMoves(&b)))
	for _, m := range LegalMoves(&b) {
		_, ok := out.scores[m]
		assert.True(t, ok, "move %d not scored", m)
	}
}

func TestSearchEmptyBoardIsDraw(t *testing.T) {
	s := newSearcher(Board{}, HardDepth)
	out := s.run(PlayerO)

	assert.Equal(t, 0, out.score)
	assert.Contains(t, []int{0, 2, 4, 6, 8}, out.move)
	assert.Equal(t, HardDepth-1, s.metrics.MaxDepthReached)
}

func TestSearchNoLegalMoves(t *testing.T) {
	s := newSearcher(MustParseBoard("XOXXOOOXX"), HardDepth)
	out := s.run(PlayerO)

	assert.Equal(t, NoMove, out.move)
	assert.Equal(t, 0, out.score)
	assert.Empty(t, out.scores)
	assert.Equal(t, 0, s.metrics.NodesEvaluated)
}

func TestSearchDepthLimitCutsOff(t *testing.T) {
	s := newSearcher(Board{}, 1)
	s.run(PlayerX)

	assert.Equal(t, 1, s.metrics.MaxDepthReached)
	// 9 root moves, each with 8 replies evaluated at the cut-off, less
	// whatever alpha-beta skips.
	assert.LessOrEqual(t, s.metrics.NodesEvaluated, 9+9*8)
}

package types_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/scrypster/vestige/pkg/types"
)

func TestNewImportanceScore_Defaults(t *testing.T) {
	s := types.NewImportanceScore("mem-1", 0)
	assert.Equal(t, 0.5, s.Base)
	assert.Equal(t, 0.1, s.Usage)
	assert.Equal(t, 1.0, s.Recency)
	assert.Equal(t, 0.0, s.Connection)
	assert.InDelta(t, 0.20*0.5+0.40*0.1+0.25*1.0+0.15*0.0, s.FinalScore, 1e-9)
}

func TestRecompute_ClampsToFloor(t *testing.T) {
	s := types.ImportanceScore{Base: 0, Usage: 0, Recency: 0, Connection: 0}
	s.Recompute()
	assert.Equal(t, types.FinalScoreFloor, s.FinalScore)
}

func TestRecompute_ClampsToCeil(t *testing.T) {
	s := types.ImportanceScore{Base: 2, Usage: 2, Recency: 2, Connection: 2}
	s.Recompute()
	assert.Equal(t, types.FinalScoreCeil, s.FinalScore)
}

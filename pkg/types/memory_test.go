package types_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/scrypster/vestige/pkg/types"
)

func TestMemory_HasEmbedding(t *testing.T) {
	m := types.Memory{}
	assert.False(t, m.HasEmbedding())

	m.Embedding = []float32{0.1, 0.2}
	assert.True(t, m.HasEmbedding())
}

func TestMemory_StorageAndRetrievalStrength(t *testing.T) {
	m := types.Memory{
		Card:              types.CardState{Stability: 12.5},
		RetentionStrength: 0.73,
	}
	assert.Equal(t, 12.5, m.StorageStrength())
	assert.Equal(t, 0.73, m.RetrievalStrength())
}

package branding

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad(t *testing.T) {
	b := Load()
	require.NotNil(t, b)
	assert.NotEmpty(t, b.Mascot)
	assert.NotEmpty(t, b.Categories["wizard_greeting"])
}

func TestTextUnknownCategoryDegradesSilently(t *testing.T) {
	b := Load()
	assert.Empty(t, b.Text("no_such_category"))
	assert.Nil(t, b.All("no_such_category"))
}

func TestMatchSequence(t *testing.T) {
	b := Load()

	name, ok := b.MatchSequence("tally")
	require.True(t, ok)
	assert.Equal(t, "secret_friend", name)

	// The buffer may carry earlier keystrokes ahead of the sequence
	name, ok = b.MatchSequence("xjtally")
	require.True(t, ok)
	assert.Equal(t, "secret_friend", name)

	_, ok = b.MatchSequence("nonsense")
	assert.False(t, ok)
	_, ok = b.MatchSequence("tallyx")
	assert.False(t, ok)

	assert.GreaterOrEqual(t, b.MaxSequenceLen(), 5)
}

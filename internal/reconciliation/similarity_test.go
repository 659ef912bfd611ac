package reconciliation

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRatio(t *testing.T) {
	assert.Equal(t, 100, Ratio("Artturi Lehkonen", "Artturi Lehkonen"))
	assert.Equal(t, 100, Ratio("Artturi Lehkonen", "artturi lehkonen"))
	assert.Equal(t, 100, Ratio("", ""))
	assert.Equal(t, 0, Ratio("", "Jack Hughes"))

	// A short-form first name keeps most of the string intact.
	assert.Equal(t, 89, Ratio("Mitch Marner", "Mitchell Marner"))

	// Sharing a surname is not enough.
	assert.Less(t, Ratio("Jack Hughes", "Quinn Hughes"), DefaultThreshold)
}

func TestBestMatch(t *testing.T) {
	roster := []string{"Mitch Marner", "Auston Matthews", "John Tavares"}

	match, score, ok := BestMatch("Mitchell Marner", roster, DefaultThreshold)
	assert.True(t, ok)
	assert.Equal(t, "Mitch Marner", match)
	assert.Equal(t, 89, score)

	_, _, ok = BestMatch("Sidney Crosby", roster, DefaultThreshold)
	assert.False(t, ok)

	_, _, ok = BestMatch("Mitch Marner", nil, DefaultThreshold)
	assert.False(t, ok)
}

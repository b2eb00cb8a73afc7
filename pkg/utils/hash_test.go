package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHashString(t *testing.T) {
	assert.Equal(t,
		"e3b0c44298fc1c149afbf4c8996fb92427ae41e4649b934ca495991b7852b855",
		HashString(""))
	assert.NotEqual(t, HashString("a"), HashString("b"))
}

func TestHashJSONIsOrderIndependentForMaps(t *testing.T) {
	a, err := HashJSON(map[string]int{"chest": 1, "legs": 2})
	require.NoError(t, err)
	b, err := HashJSON(map[string]int{"legs": 2, "chest": 1})
	require.NoError(t, err)
	assert.Equal(t, a, b)
}

func TestHashJSONRejectsUnmarshalable(t *testing.T) {
	_, err := HashJSON(make(chan int))
	assert.Error(t, err)
}

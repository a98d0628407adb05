package lifecycle

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNextIdentifier(t *testing.T) {
	tests := []struct {
		name       string
		currentMax string
		want       string
	}{
		{name: "empty store yields seed", currentMax: "", want: "RX-UG-INC-000001"},
		{name: "increments suffix", currentMax: "RX-UG-INC-000047", want: "RX-UG-INC-000048"},
		{name: "keeps zero padding", currentMax: "RX-UG-INC-000001", want: "RX-UG-INC-000002"},
		{name: "garbage falls back to seed", currentMax: "garbage", want: "RX-UG-INC-000001"},
		{name: "too few segments falls back", currentMax: "RX-000001", want: "RX-UG-INC-000001"},
		{name: "non numeric suffix falls back", currentMax: "RX-UG-INC-abcdef", want: "RX-UG-INC-000001"},
		{name: "negative suffix falls back", currentMax: "RX-UG-INC--5", want: "RX-UG-INC-000001"},
		{name: "widens past six digits", currentMax: "RX-UG-INC-999999", want: "RX-UG-INC-1000000"},
		{name: "keeps counting when widened", currentMax: "RX-UG-INC-1000000", want: "RX-UG-INC-1000001"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, NextIdentifier(tc.currentMax))
		})
	}
}

func TestNextIdentifierNeverReusesSuffixes(t *testing.T) {
	seen := map[string]struct{}{}
	current := ""
	var lastSuffix int64 = 0

	for i := 0; i < 1000; i++ {
		next := NextIdentifier(current)
		_, dup := seen[next]
		require.False(t, dup, "identifier %s issued twice", next)
		seen[next] = struct{}{}

		suffix, ok := IdentifierSuffix(next)
		require.True(t, ok)
		require.Greater(t, suffix, lastSuffix)

		lastSuffix = suffix
		current = next
	}
}

func TestNextIdentifierToleratesGaps(t *testing.T) {
	// Failed inserts leave gaps in the sequence; allocation continues
	// strictly upward from whatever the stored maximum is.
	assert.Equal(t, "RX-UG-INC-000101", NextIdentifier("RX-UG-INC-000100"))
	assert.Equal(t, fmt.Sprintf("%s-000101", IdentifierPrefix), NextIdentifier(IdentifierPrefix+"-000100"))
}

func TestIdentifierSuffix(t *testing.T) {
	suffix, ok := IdentifierSuffix("RX-UG-INC-000042")
	require.True(t, ok)
	assert.Equal(t, int64(42), suffix)

	_, ok = IdentifierSuffix("not-an-id")
	assert.False(t, ok)
}

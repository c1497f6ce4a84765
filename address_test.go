package gridflow

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestColumnLettersRoundTrip(t *testing.T) {
	cases := []struct {
		letters string
		index   int
	}{
		{"A", 0}, {"Z", 25}, {"AA", 26}, {"AZ", 51}, {"BA", 52}, {"XFD", 16383},
	}
	for _, c := range cases {
		idx, err := ColumnLettersToIndex(c.letters)
		require.NoError(t, err)
		assert.Equal(t, c.index, idx, "letters=%s", c.letters)
		letters, err := ColumnIndexToLetters(c.index)
		require.NoError(t, err)
		assert.Equal(t, c.letters, letters)
	}
}

func TestParseAddressRoundTrip(t *testing.T) {
	addr, err := ParseAddress("$B$7")
	require.NoError(t, err)
	assert.Equal(t, 1, addr.Col)
	assert.Equal(t, 6, addr.Row)
	assert.True(t, addr.AbsRow)
	assert.True(t, addr.AbsCol)
	assert.Equal(t, "$B$7", addr.Format())
}

func TestParseRangeNormalizes(t *testing.T) {
	rng, err := ParseRange("C10:A1")
	require.NoError(t, err)
	assert.Equal(t, 0, rng.Start.Row)
	assert.Equal(t, 0, rng.Start.Col)
	assert.Equal(t, 9, rng.End.Row)
	assert.Equal(t, 2, rng.End.Col)
}

func TestParseSheetRefQuotedName(t *testing.T) {
	ref, err := ParseSheetRef("'My Sheet'!A1:B2")
	require.NoError(t, err)
	assert.Equal(t, "My Sheet", ref.Sheet)
	assert.Equal(t, "'My Sheet'!A1:B2", FormatSheetRef(ref))
}

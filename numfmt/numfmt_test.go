package numfmt

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsCustomID(t *testing.T) {
	assert.False(t, IsCustomID(0))
	assert.False(t, IsCustomID(163))
	assert.True(t, IsCustomID(164))
	assert.True(t, IsCustomID(200))
}

func TestResolvePrefersCustomCode(t *testing.T) {
	assert.Equal(t, "0.00%", Resolve(10, ""))
	assert.Equal(t, `#,##0.0"x"`, Resolve(10, `#,##0.0"x"`))
	assert.Equal(t, "General", Resolve(999, ""))
}

func TestFormatNumberGeneral(t *testing.T) {
	assert.Equal(t, "1", FormatNumber(1, 0, "General", false))
	assert.Equal(t, "1.5", FormatNumber(1.5, 0, "General", false))
}

func TestFormatNumberPercent(t *testing.T) {
	got := FormatNumber(0.5, 9, Resolve(9, ""), false)
	assert.Equal(t, "50%", got)
}

func TestFormatTextPassthroughWhenGeneral(t *testing.T) {
	assert.Equal(t, "hello", FormatText("hello", "General"))
	assert.Equal(t, "hello", FormatText("hello", "@"))
}

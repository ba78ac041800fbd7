package led_test

import (
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	. "github.com/coreman2200/funtimes-ledstrip/internal/led"
)

var TestPackedIsExpectedColor = []struct {
	Packed uint32
	Expect Color
}{
	{0x000000, Black},
	{0xFFFFFF, White},
	{0xFF0000, Red},
	{0x00FF00, Green},
	{0x000080, Navy},
	{0x112233, Color{R: 0x11, G: 0x22, B: 0x33}},
}

func TestColorsPacked(t *testing.T) {
	for k, v := range TestPackedIsExpectedColor {
		t.Run("Given packed"+strconv.Itoa(k), func(t *testing.T) {
			col := NewColor(v.Packed)
			assert.Equal(t, v.Expect, col, "should be same color")
			assert.Equal(t, v.Packed, col.Uint32(), "should pack back")
		})
	}
}

func TestParseColor(t *testing.T) {
	testCases := []struct {
		in   string
		want Color
		pass bool
	}{
		{in: "#ff0000", want: Red, pass: true},
		{in: "00ff00", want: Green, pass: true},
		{in: " #000080 ", want: Navy, pass: true},
		{in: "#fff"},
		{in: "GARBAGE"},
		{in: ""},
	}

	for _, tt := range testCases {
		t.Run(tt.in, func(t *testing.T) {
			c, err := ParseColor(tt.in)
			if !tt.pass {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, c)
		})
	}
}

func TestColorText(t *testing.T) {
	var c Color
	require.NoError(t, c.UnmarshalText([]byte("#0a0b0c")))
	assert.Equal(t, Color{R: 10, G: 11, B: 12}, c)

	b, err := c.MarshalText()
	require.NoError(t, err)
	assert.Equal(t, "#0a0b0c", string(b))

	r, g, bl, a := Red.RGBA()
	assert.Equal(t, uint32(0xffff), r)
	assert.Zero(t, g)
	assert.Zero(t, bl)
	assert.Equal(t, uint32(0xffff), a)
}

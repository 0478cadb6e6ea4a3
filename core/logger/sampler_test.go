package logger

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRatioSamplerWindow(t *testing.T) {
	s := newRatioSampler(2, 5)
	var got []bool
	for i := 0; i < 10; i++ {
		got = append(got, s.Allow())
	}
	assert.Equal(t, []bool{true, true, false, false, false, true, true, false, false, false}, got)

	s.Set(0, 0)
	for i := 0; i < 3; i++ {
		assert.True(t, s.Allow())
	}

	s.Set(9, 3)
	for i := 0; i < 3; i++ {
		assert.True(t, s.Allow(), "numerator is capped at the denominator")
	}
}

func TestParseRatioSpec(t *testing.T) {
	cases := map[string][2]int{
		"":      {0, 0},
		"1/50":  {1, 50},
		" 3/4 ": {3, 4},
		"20":    {1, 20},
		"10%":   {10, 100},
		"250%":  {100, 100},
		"0":     {0, 0},
		"-5%":   {0, 0},
		"a/b":   {0, 0},
		"often": {0, 0},
	}
	for raw, want := range cases {
		num, den := parseRatio(raw)
		assert.Equal(t, want, [2]int{num, den}, raw)
	}
}

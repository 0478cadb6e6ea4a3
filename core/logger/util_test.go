package logger

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestRoundMS(t *testing.T) {
	assert.Equal(t, 2*time.Millisecond, RoundMS(1600*time.Microsecond))
	assert.Zero(t, RoundMS(-time.Second))
}

func TestSummarizeStrings(t *testing.T) {
	s, cut := SummarizeStrings([]string{"a", "b", "c"}, 2)
	assert.Equal(t, "a, b", s)
	assert.True(t, cut)

	s, cut = SummarizeStrings([]string{"a"}, 2)
	assert.Equal(t, "a", s)
	assert.False(t, cut)

	_, cut = SummarizeStrings([]string{"a"}, 0)
	assert.True(t, cut)
}

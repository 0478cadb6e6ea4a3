package format

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEscape(t *testing.T) {
	assert.Equal(t, `Address: 10 Dance St\. \(studio\) \+7\-900\!`, Escape("Address: 10 Dance St. (studio) +7-900!"))
	assert.Equal(t, `a\_b\*c \[d\] \`+"`"+`e\`+"`", Escape("a_b*c [d] `e`"))
	assert.Equal(t, "plain text", Escape("plain text"))
}

func TestMarkdownV2Text(t *testing.T) {
	got := MarkdownV2Text(
		Chunk{Text: "Great, "},
		Chunk{Text: "Friday, 18:00", Bold: true},
		Chunk{Text: "!"},
		Chunk{Text: "", Bold: true},
	)
	assert.Equal(t, `Great, *Friday, 18:00*\!`, got)
}

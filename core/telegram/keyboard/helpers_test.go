package keyboard

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInlineButtonsOnePerRow(t *testing.T) {
	markup := InlineButtons([]InlineBtn{
		{Text: "Yes", Unique: "signup_yes"},
		{Text: "No", Unique: "signup_no"},
	})

	require.NotNil(t, markup)
	require.Len(t, markup.InlineKeyboard, 2)
	assert.Len(t, markup.InlineKeyboard[0], 1)
	assert.Equal(t, "Yes", markup.InlineKeyboard[0][0].Text)
	assert.Equal(t, "signup_no", markup.InlineKeyboard[1][0].Unique)
}

func TestInlineButtonsEmpty(t *testing.T) {
	assert.Nil(t, InlineButtons(nil))
}

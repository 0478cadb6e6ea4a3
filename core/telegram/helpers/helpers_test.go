package helpers

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Vladislavbro/tango-bot/core/logger"

	tele "gopkg.in/telebot.v4"
)

func offlineContext(t *testing.T) tele.Context {
	t.Helper()
	b, err := tele.NewBot(tele.Settings{Offline: true, Synchronous: true})
	require.NoError(t, err)
	return b.NewContext(tele.Update{ID: 1, Message: &tele.Message{Chat: &tele.Chat{ID: 5}}})
}

func TestCountersTrackReplies(t *testing.T) {
	c := offlineContext(t)
	ResetCounters(c)

	n, kb := Counters(c)
	assert.Zero(t, n)
	assert.False(t, kb)

	countReply(c, nil)
	countReply(c, &tele.SendOptions{ReplyMarkup: &tele.ReplyMarkup{}})
	countReply(c, &tele.SendOptions{})

	n, kb = Counters(c)
	assert.Equal(t, 3, n)
	assert.True(t, kb)

	ResetCounters(c)
	n, kb = Counters(c)
	assert.Zero(t, n)
	assert.False(t, kb)
}

func TestCountersNilContext(t *testing.T) {
	ResetCounters(nil)
	n, kb := Counters(nil)
	assert.Zero(t, n)
	assert.False(t, kb)
}

func TestBuildContextCarriesSession(t *testing.T) {
	b, err := tele.NewBot(tele.Settings{Offline: true, Synchronous: true})
	require.NoError(t, err)
	c := b.NewContext(tele.Update{ID: 9, Message: &tele.Message{
		Chat:   &tele.Chat{ID: 5},
		Sender: &tele.User{ID: 7},
	}})

	ctx := BuildContext(c)
	assert.Equal(t, "5:7", logger.SessionFrom(ctx))
	assert.Equal(t, int64(5), logger.ChatIDFrom(ctx))
	assert.Equal(t, int64(7), logger.UserIDFrom(ctx))
	assert.NotEmpty(t, logger.RIDFrom(ctx))

	cached, ok := ContextFrom(c)
	require.True(t, ok)
	assert.Equal(t, ctx, cached)

	ctx = WithHandler(c, "command.start")
	assert.Equal(t, "5:7", logger.SessionFrom(ctx))
}

func TestBuildContextWithoutSender(t *testing.T) {
	c := offlineContext(t)
	ctx := BuildContext(c)
	assert.Empty(t, logger.SessionFrom(ctx))
	assert.Equal(t, int64(5), logger.ChatIDFrom(ctx))
}

package middleware

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	tele "gopkg.in/telebot.v4"

	tghelpers "github.com/Vladislavbro/tango-bot/core/telegram/helpers"
)

func offlineContext(t *testing.T, upd tele.Update) tele.Context {
	t.Helper()
	b, err := tele.NewBot(tele.Settings{Offline: true, Synchronous: true})
	require.NoError(t, err)
	return b.NewContext(upd)
}

func textUpdate(text string) tele.Update {
	return tele.Update{ID: 3, Message: &tele.Message{
		Text:   text,
		Chat:   &tele.Chat{ID: 5, Type: tele.ChatPrivate},
		Sender: &tele.User{ID: 7, Username: "dancer", LanguageCode: "en"},
	}}
}

func TestRecoverMiddlewareSwallowsPanic(t *testing.T) {
	h := RecoverMiddleware(func(tele.Context) error { panic("boom") })
	assert.NoError(t, h(offlineContext(t, textUpdate("hi"))))

	boom := errors.New("boom")
	h = RecoverMiddleware(func(tele.Context) error { return boom })
	assert.ErrorIs(t, h(offlineContext(t, textUpdate("hi"))), boom)
}

func TestLoggerMiddlewareStoresContext(t *testing.T) {
	c := offlineContext(t, textUpdate("Anna"))
	called := false
	h := LoggerMiddleware(func(c tele.Context) error {
		called = true
		_, ok := tghelpers.ContextFrom(c)
		assert.True(t, ok)
		return nil
	})
	require.NoError(t, h(c))
	assert.True(t, called)
}

func TestReceiptAttrsOmitText(t *testing.T) {
	attrs := receiptAttrs(offlineContext(t, textUpdate("+7 999 123 45 67")))
	got := map[string]string{}
	for _, a := range attrs {
		got[a.Key] = a.Value.String()
	}
	assert.Equal(t, "message", got["kind"])
	assert.Equal(t, "private", got["chat_type"])
	assert.Equal(t, "dancer", got["username"])
	assert.Equal(t, "16", got["text_len"])
	for _, v := range got {
		assert.NotContains(t, v, "999")
	}
}

func TestReplyMetricsMiddlewareResets(t *testing.T) {
	c := offlineContext(t, textUpdate("hi"))
	c.Set("replies", 4)
	h := ReplyMetricsMiddleware(func(c tele.Context) error {
		n, kb := tghelpers.Counters(c)
		assert.Zero(t, n)
		assert.False(t, kb)
		return nil
	})
	require.NoError(t, h(c))
}

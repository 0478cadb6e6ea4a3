package telegram

import (
	"net"
	"strconv"
	"strings"
	"time"

	coreconfig "github.com/Vladislavbro/tango-bot/core/config"

	tele "gopkg.in/telebot.v4"
)

// allowedUpdates limits delivery to what the booking flow reads.
var allowedUpdates = []string{"message", "callback_query"}

// newPoller picks the update source for cfg: a webhook listener when
// run_mode is webhook, long polling otherwise.
func newPoller(cfg *coreconfig.Config) tele.Poller {
	if strings.EqualFold(cfg.Telegram.RunMode, coreconfig.RunModeWebhook) {
		return &tele.Webhook{
			Listen:         net.JoinHostPort(cfg.Webhook.Listen, strconv.Itoa(cfg.Webhook.Port)),
			AllowedUpdates: allowedUpdates,
			Endpoint:       &tele.WebhookEndpoint{PublicURL: cfg.Webhook.URL},
		}
	}
	return &tele.LongPoller{
		Timeout:        longPollTimeout(cfg),
		AllowedUpdates: allowedUpdates,
	}
}

func longPollTimeout(cfg *coreconfig.Config) time.Duration {
	if s := cfg.Telegram.LongPollTimeoutSeconds; s > 0 {
		return time.Duration(s) * time.Second
	}
	return defaultLongPoll
}

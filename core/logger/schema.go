package logger

import (
	"log/slog"
	"strings"
)

var knownStatuses = map[string]struct{}{
	"ok": {}, "fail": {}, "skip": {}, "retry": {},
	"rate_limited": {}, "cancelled": {}, "dropped": {},
}

var knownOutcomes = map[string]struct{}{
	"ok": {}, "fail": {}, "cancelled": {}, "rate_limited": {},
	"fallback": {}, "stale": {}, "ended": {},
}

// levelName maps custom levels down to the nearest standard name.
func levelName(l slog.Level) string {
	switch {
	case l >= slog.LevelError:
		return "ERROR"
	case l >= slog.LevelWarn:
		return "WARN"
	case l >= slog.LevelInfo:
		return "INFO"
	default:
		return "DEBUG"
	}
}

// parseLevel accepts slog level names in any case plus "warning".
// Unknown values fall back to info.
func parseLevel(s string) slog.Level {
	s = strings.TrimSpace(s)
	if strings.EqualFold(s, "warning") {
		return slog.LevelWarn
	}
	var l slog.Level
	if s == "" || l.UnmarshalText([]byte(s)) != nil {
		return slog.LevelInfo
	}
	return l
}

// normalizeStatus lowercases known statuses; unknown ones pass through.
func normalizeStatus(status string) string {
	lower := strings.ToLower(strings.TrimSpace(status))
	if _, ok := knownStatuses[lower]; ok {
		return lower
	}
	return status
}

// normalizeOutcome reports false for outcomes outside the known set.
func normalizeOutcome(outcome string) (string, bool) {
	lower := strings.ToLower(strings.TrimSpace(outcome))
	_, ok := knownOutcomes[lower]
	return lower, ok
}

// keyOrder lists the fields written first, in this order. Other fields
// follow alphabetically.
var keyOrder = strings.Fields(`
	ts level component event status
	rid rid_full ts_unix_nano update_id user_id chat_id chat_type session_id
	handler operation op cb_key
	event_kind token from_state to_state slot outcome
	duration_ms idle_ms messages kb count sessions timers payload username
	mode listen public_url http_code db host port
	err err_code cause retryable attempts backoff_ms
	rate_limited dropped queue pending_count
`)

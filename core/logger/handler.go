package logger

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"slices"
	"strconv"
	"strings"
	"time"
)

type logFormat string

const (
	formatJSON logFormat = "json"
	formatKV   logFormat = "kv"

	timeFormatMillis = "2006-01-02T15:04:05.000Z07:00"
)

type handlerConfig struct {
	level    slog.Leveler
	writer   *asyncWriter
	format   logFormat
	keyOrder []string
}

type field struct {
	key string
	val any
}

// entry holds the flattened fields of one log line.
type entry map[string]any

func (e entry) setDefault(key string, val any) {
	if _, ok := e[key]; !ok {
		e[key] = val
	}
}

func (e entry) str(key string) string {
	s, _ := e[key].(string)
	return s
}

// structuredHandler writes one flat line per record. Nested groups become
// dotted keys and context metadata fills fields the record left unset.
type structuredHandler struct {
	cfg    handlerConfig
	base   []field
	prefix string
}

func newStructuredHandler(cfg handlerConfig) *structuredHandler {
	if cfg.level == nil {
		cfg.level = slog.LevelInfo
	}
	if cfg.keyOrder == nil {
		cfg.keyOrder = keyOrder
	}
	return &structuredHandler{cfg: cfg}
}

func (h *structuredHandler) Enabled(_ context.Context, level slog.Level) bool {
	return level >= h.cfg.level.Level()
}

func (h *structuredHandler) Handle(ctx context.Context, r slog.Record) error {
	if h.cfg.writer == nil {
		return errors.New("logger: writer not initialized")
	}

	e := make(entry, 16+len(h.base)+r.NumAttrs())
	for _, f := range h.base {
		e[f.key] = f.val
	}
	r.Attrs(func(a slog.Attr) bool {
		for _, f := range appendAttr(nil, h.prefix, a) {
			e[f.key] = f.val
		}
		return true
	})

	ts := r.Time
	if ts.IsZero() {
		ts = time.Now()
	}
	ts = ts.UTC()
	e["ts"] = ts.Truncate(time.Millisecond).Format(timeFormatMillis)
	e["level"] = levelName(r.Level)

	isJSON := h.cfg.format == formatJSON
	if isJSON {
		e["ts_unix_nano"] = ts.UnixNano()
	}
	e.addMeta(MetaFrom(ctx))
	e.compactRID(isJSON)
	if e.str("event") == "" {
		e["event"] = r.Message
		if r.Message == "" {
			e["event"] = "unknown"
		}
	}
	if e.str("component") == "" {
		e["component"] = "app"
	}
	e.normalize()

	line, err := h.encode(e)
	if err != nil {
		return err
	}
	return h.cfg.writer.Write(append(line, '\n'))
}

func (h *structuredHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	if len(attrs) == 0 {
		return h
	}
	clone := *h
	clone.base = h.base[:len(h.base):len(h.base)]
	for _, a := range attrs {
		clone.base = appendAttr(clone.base, h.prefix, a)
	}
	return &clone
}

func (h *structuredHandler) WithGroup(name string) slog.Handler {
	if name == "" {
		return h
	}
	clone := *h
	clone.prefix = joinKey(h.prefix, name)
	return &clone
}

func joinKey(prefix, key string) string {
	switch {
	case prefix == "":
		return key
	case key == "":
		return prefix
	}
	return prefix + "." + key
}

// appendAttr flattens a into dotted fields under prefix.
func appendAttr(fs []field, prefix string, a slog.Attr) []field {
	a.Value = a.Value.Resolve()
	if a.Equal(slog.Attr{}) {
		return fs
	}
	key := joinKey(prefix, a.Key)
	if a.Value.Kind() == slog.KindGroup {
		for _, child := range a.Value.Group() {
			fs = appendAttr(fs, key, child)
		}
		return fs
	}
	if key == "" {
		return fs
	}
	if k, v, ok := fieldValue(key, a.Value); ok {
		fs = append(fs, field{key: k, val: v})
	}
	return fs
}

// fieldValue converts v to a JSON friendly value. Durations are written as
// whole milliseconds and their key gains an _ms suffix.
func fieldValue(key string, v slog.Value) (string, any, bool) {
	switch v.Kind() {
	case slog.KindString:
		return key, strings.TrimSpace(v.String()), true
	case slog.KindBool:
		return key, v.Bool(), true
	case slog.KindInt64:
		return key, v.Int64(), true
	case slog.KindUint64:
		if u := v.Uint64(); u <= math.MaxInt64 {
			return key, int64(u), true
		}
		return key, v.Uint64(), true
	case slog.KindFloat64:
		return key, v.Float64(), true
	case slog.KindDuration:
		return durationKey(key), RoundMS(v.Duration()).Milliseconds(), true
	case slog.KindTime:
		return key, v.Time().UTC().Format(time.RFC3339Nano), true
	}

	switch x := v.Any().(type) {
	case nil:
		return key, nil, false
	case error:
		return key, x.Error(), true
	case time.Duration:
		return durationKey(key), RoundMS(x).Milliseconds(), true
	case fmt.Stringer:
		return key, x.String(), true
	case string:
		return key, strings.TrimSpace(x), true
	default:
		return key, fmt.Sprint(x), true
	}
}

func durationKey(key string) string {
	switch {
	case key == "duration":
		return "duration_ms"
	case strings.HasSuffix(key, "_ms"):
		return key
	}
	return key + "_ms"
}

func (e entry) addMeta(m Meta) {
	if m.RID != "" {
		e.setDefault("rid", m.RID)
	}
	if m.Session != "" {
		e.setDefault("session_id", m.Session)
	}
	if m.UserID != 0 {
		e.setDefault("user_id", m.UserID)
	}
	if m.UpdateID != 0 {
		e.setDefault("update_id", m.UpdateID)
	}
	if m.ChatID != 0 {
		e.setDefault("chat_id", m.ChatID)
	}
	if m.Handler != "" {
		e.setDefault("handler", m.Handler)
	}
}

// compactRID shortens rid. JSON output keeps the original as rid_full.
func (e entry) compactRID(keepFull bool) {
	rid := e.str("rid")
	compact := CompactRID(rid)
	if compact == "" || compact == rid {
		return
	}
	if keepFull {
		e.setDefault("rid_full", rid)
	}
	e["rid"] = compact
}

// normalize canonicalizes status, drops unknown outcomes and removes empty strings.
func (e entry) normalize() {
	if s := e.str("status"); s != "" {
		e["status"] = normalizeStatus(s)
	}
	if o := e.str("outcome"); o != "" {
		if n, ok := normalizeOutcome(o); ok {
			e["outcome"] = n
		} else {
			delete(e, "outcome")
		}
	}
	for k, v := range e {
		if s, ok := v.(string); ok && s == "" {
			delete(e, k)
		}
	}
}

func (h *structuredHandler) encode(e entry) ([]byte, error) {
	keys := orderedKeys(e, h.cfg.keyOrder)
	if h.cfg.format == formatJSON {
		return encodeJSON(e, keys)
	}
	return encodeKV(e, keys), nil
}

// orderedKeys lists keys named in order first, then the rest sorted.
func orderedKeys(e entry, order []string) []string {
	keys := make([]string, 0, len(e))
	seen := make(map[string]bool, len(e))
	for _, k := range order {
		if _, ok := e[k]; ok && !seen[k] {
			keys = append(keys, k)
			seen[k] = true
		}
	}
	rest := len(keys)
	for k := range e {
		if !seen[k] {
			keys = append(keys, k)
		}
	}
	slices.Sort(keys[rest:])
	return keys
}

func encodeJSON(e entry, keys []string) ([]byte, error) {
	buf := make([]byte, 0, 256)
	buf = append(buf, '{')
	for i, k := range keys {
		v, err := json.Marshal(e[k])
		if err != nil {
			return nil, fmt.Errorf("logger: encode %s: %w", k, err)
		}
		if i > 0 {
			buf = append(buf, ',')
		}
		buf = strconv.AppendQuote(buf, k)
		buf = append(buf, ':')
		buf = append(buf, v...)
	}
	return append(buf, '}'), nil
}

func encodeKV(e entry, keys []string) []byte {
	buf := make([]byte, 0, 256)
	for i, k := range keys {
		if i > 0 {
			buf = append(buf, ' ')
		}
		buf = append(buf, k...)
		buf = append(buf, '=')
		buf = appendKVValue(buf, e[k])
	}
	return buf
}

func appendKVValue(buf []byte, v any) []byte {
	var s string
	switch x := v.(type) {
	case bool:
		return strconv.AppendBool(buf, x)
	case int:
		return strconv.AppendInt(buf, int64(x), 10)
	case int64:
		return strconv.AppendInt(buf, x, 10)
	case uint64:
		return strconv.AppendUint(buf, x, 10)
	case float64:
		return strconv.AppendFloat(buf, x, 'g', -1, 64)
	case string:
		s = x
	default:
		s = fmt.Sprint(x)
	}
	if strings.IndexFunc(s, needsQuote) >= 0 {
		return strconv.AppendQuote(buf, s)
	}
	return append(buf, s...)
}

func needsQuote(r rune) bool {
	return r <= ' ' || r == '=' || r == '"'
}

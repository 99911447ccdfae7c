package logger

import (
	"context"
	"io"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"github.com/muesli/termenv"
	"go.trai.ch/stitch/internal/ui/output"
	"go.trai.ch/stitch/internal/ui/style"
)

// Attribute keys the pretty handler folds into the message line.
const (
	AttrComponent = "component"
	AttrKind      = "kind"
	AttrReason    = "reason"
)

// PrettyHandler is a slog.Handler for terminals. Component attributes are folded
// into the message as "msg <component> (<kind>): <reason>"; anything else trails
// as key=value pairs.
type PrettyHandler struct {
	out    *termenv.Output
	level  slog.Leveler
	attrs  []slog.Attr
	prefix string
}

// NewPrettyHandler creates a new PrettyHandler writing to the provided writer.
func NewPrettyHandler(w io.Writer, opts *slog.HandlerOptions) *PrettyHandler {
	if w == nil {
		w = os.Stderr
	}

	var level slog.Leveler = slog.LevelInfo
	if opts != nil && opts.Level != nil {
		level = opts.Level
	}

	return &PrettyHandler{out: output.New(w), level: level}
}

// Enabled reports whether the handler handles records at the given level.
func (h *PrettyHandler) Enabled(_ context.Context, level slog.Level) bool {
	return level >= h.level.Level()
}

// Handle formats and outputs the log record.
//
//nolint:gocritic // slog.Handler interface requires slog.Record by value
func (h *PrettyHandler) Handle(_ context.Context, r slog.Record) error {
	icon, color := levelStyle(r.Level)

	var line lineBuilder
	for _, attr := range h.attrs {
		line.add(h.prefix, attr)
	}
	r.Attrs(func(attr slog.Attr) bool {
		line.add(h.prefix, attr)
		return true
	})

	msg := line.render(r.Message)
	if icon != "" {
		msg = icon + " " + msg
	}

	styled := h.out.String(msg).Foreground(color)
	_, err := h.out.WriteString(styled.String() + "\n")
	return err
}

// WithAttrs returns a new Handler with the given attributes appended.
func (h *PrettyHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	if len(attrs) == 0 {
		return h
	}
	next := *h
	next.attrs = append(append(make([]slog.Attr, 0, len(h.attrs)+len(attrs)), h.attrs...), attrs...)
	return &next
}

// WithGroup returns a new Handler whose later attributes are nested under name.
func (h *PrettyHandler) WithGroup(name string) slog.Handler {
	if name == "" {
		return h
	}
	next := *h
	next.prefix = joinKey(h.prefix, name)
	return &next
}

func levelStyle(level slog.Level) (string, termenv.Color) {
	switch {
	case level >= slog.LevelError:
		return style.Cross, termenv.RGBColor(string(style.Red))
	case level >= slog.LevelWarn:
		return style.Warning, termenv.RGBColor(string(style.Yellow))
	default:
		return "", termenv.RGBColor(string(style.Slate))
	}
}

// lineBuilder collects the attributes of one record.
type lineBuilder struct {
	component, kind, reason string
	rest                    []string
}

// add records attr. Component attributes only fold into the message at the top level.
func (b *lineBuilder) add(prefix string, attr slog.Attr) {
	attr.Value = attr.Value.Resolve()
	if attr.Equal(slog.Attr{}) {
		return
	}

	if attr.Value.Kind() == slog.KindGroup {
		group := joinKey(prefix, attr.Key)
		for _, member := range attr.Value.Group() {
			b.add(group, member)
		}
		return
	}

	if prefix == "" {
		switch attr.Key {
		case AttrComponent:
			b.component = attr.Value.String()
			return
		case AttrKind:
			b.kind = attr.Value.String()
			return
		case AttrReason:
			b.reason = attr.Value.String()
			return
		}
	}

	b.rest = append(b.rest, joinKey(prefix, attr.Key)+"="+quoteValue(attr.Value.String()))
}

func (b *lineBuilder) render(msg string) string {
	var sb strings.Builder
	sb.WriteString(msg)
	if b.component != "" {
		sb.WriteString(" " + b.component)
	}
	if b.kind != "" {
		sb.WriteString(" (" + b.kind + ")")
	}
	if b.reason != "" {
		sb.WriteString(": " + b.reason)
	}
	for _, part := range b.rest {
		sb.WriteString(" " + part)
	}
	return sb.String()
}

func joinKey(prefix, key string) string {
	if prefix == "" {
		return key
	}
	return prefix + "." + key
}

func quoteValue(v string) string {
	if v == "" || strings.ContainsAny(v, " \t\n\"=") {
		return strconv.Quote(v)
	}
	return v
}

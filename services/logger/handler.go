package logsvc

import (
	"context"
	"fmt"
	"io"
	"log"
	"log/slog"
	"strings"
	"sync"

	"github.com/fatih/color"
)

// ColorHandler is a slog.Handler writing one colored line per record.
type ColorHandler struct {
	mu    *sync.Mutex
	l     *log.Logger
	level slog.Leveler
	attrs []slog.Attr
	group string
}

var _ slog.Handler = (*ColorHandler)(nil)

func NewColorHandler(out io.Writer, level slog.Leveler) *ColorHandler {
	return &ColorHandler{mu: new(sync.Mutex), l: log.New(out, "", 0), level: level}
}

func (h *ColorHandler) Enabled(_ context.Context, level slog.Level) bool {
	return level >= h.level.Level()
}

func (h *ColorHandler) Handle(_ context.Context, r slog.Record) error {
	level := r.Level.String() + ":"
	switch {
	case r.Level >= slog.LevelError:
		level = color.RedString(level)
	case r.Level >= slog.LevelWarn:
		level = color.YellowString(level)
	case r.Level >= slog.LevelInfo:
		level = color.HiBlueString(level)
	default:
		level = color.MagentaString(level)
	}

	var sb strings.Builder
	write := func(a slog.Attr) {
		sb.WriteString(color.GreenString(a.Key) + "=" + fmt.Sprint(a.Value.Any()) + " ")
	}
	for _, a := range h.attrs {
		write(a)
	}
	r.Attrs(func(a slog.Attr) bool {
		write(h.qualify(a))
		return true
	})

	h.mu.Lock()
	defer h.mu.Unlock()
	h.l.Println(r.Time.Format("15:04:05.000"), level, r.Message, strings.TrimSpace(sb.String()))
	return nil
}

// qualify prefixes the attr key with the current group.
func (h *ColorHandler) qualify(a slog.Attr) slog.Attr {
	if h.group != "" {
		a.Key = h.group + "." + a.Key
	}
	return a
}

func (h *ColorHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	cp := *h
	cp.attrs = append([]slog.Attr(nil), h.attrs...)
	for _, a := range attrs {
		cp.attrs = append(cp.attrs, h.qualify(a))
	}
	return &cp
}

func (h *ColorHandler) WithGroup(name string) slog.Handler {
	cp := *h
	if cp.group != "" {
		name = cp.group + "." + name
	}
	cp.group = name
	return &cp
}

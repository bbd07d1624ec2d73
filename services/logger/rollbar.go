package logsvc

import (
	"context"
	"log/slog"
	"os"

	"github.com/rollbar/rollbar-go"
	"github.com/rollbar/rollbar-go/errors"

	"github.com/mahmoud01140/onlineEdu/core"
	"github.com/mahmoud01140/onlineEdu/core/user"
)

// RollbarLogger reports to rollbar and mirrors every entry on a local slog.Logger.
type RollbarLogger struct {
	std  *slog.Logger
	exit func(code int) // mockable
}

var _ core.Logger = (*RollbarLogger)(nil)

func NewRollbarLogger(std *slog.Logger, conf *core.Config) *RollbarLogger {
	rollbar.SetToken(conf.RollbarToken)
	rollbar.SetEnvironment(conf.Env)
	rollbar.SetServerHost(conf.Server.Host)
	rollbar.SetCodeVersion(conf.Build)
	rollbar.SetStackTracer(errors.StackTracer)
	rollbar.SetEnabled(conf.RollbarToken != "" && !conf.TestMode)
	return &RollbarLogger{std: std, exit: os.Exit}
}

func (l RollbarLogger) Enable(enabled bool) {
	rollbar.SetEnabled(enabled)
}

// prepare splits args for rollbar and slog.
// expected fmt: msg | error, map[string]interface{}, user.User
func (l RollbarLogger) prepare(msg string, args []interface{}) ([]interface{}, []slog.Attr) {
	var usrSet bool
	rbArgs := make([]interface{}, 0, len(args)+1)
	rbArgs = append(rbArgs, msg)
	attrs := make([]slog.Attr, 0, len(args))

	for _, arg := range args {
		switch a := arg.(type) {
		case user.User:
			// only set one User
			if !usrSet {
				rollbar.SetPerson(a.ID, a.Name, a.Email)
				attrs = append(attrs, slog.String("user", a.ID))
				usrSet = true
			}
			continue
		case error:
			attrs = append(attrs, slog.Any("error", a))
		case map[string]interface{}:
			for k, v := range a {
				attrs = append(attrs, slog.Any(k, v))
			}
		default:
			attrs = append(attrs, slog.Any("arg", a))
		}
		rbArgs = append(rbArgs, arg)
	}
	if !usrSet {
		rollbar.ClearPerson()
	}
	return rbArgs, attrs
}

func (l RollbarLogger) Debug(msg string, args ...interface{}) {
	rbArgs, attrs := l.prepare(msg, args)
	rollbar.Debug(rbArgs...)
	l.std.LogAttrs(context.Background(), slog.LevelDebug, msg, attrs...)
}

func (l RollbarLogger) Info(msg string, args ...interface{}) {
	rbArgs, attrs := l.prepare(msg, args)
	rollbar.Info(rbArgs...)
	l.std.LogAttrs(context.Background(), slog.LevelInfo, msg, attrs...)
}

func (l RollbarLogger) Warn(msg string, args ...interface{}) {
	rbArgs, attrs := l.prepare(msg, args)
	rollbar.Warning(rbArgs...)
	l.std.LogAttrs(context.Background(), slog.LevelWarn, msg, attrs...)
}

func (l RollbarLogger) Error(msg string, args ...interface{}) {
	rbArgs, attrs := l.prepare(msg, args)
	rollbar.Error(rbArgs...)
	l.std.LogAttrs(context.Background(), slog.LevelError, msg, attrs...)
}

func (l RollbarLogger) Fatal(msg string, args ...interface{}) {
	rbArgs, attrs := l.prepare(msg, args)
	rollbar.Critical(rbArgs...)
	l.std.LogAttrs(context.Background(), slog.LevelError+4, msg, attrs...)
	rollbar.Wait()
	l.exit(1)
}

// Close flushes the pending rollbar reports.
func (l RollbarLogger) Close() {
	rollbar.Close()
}

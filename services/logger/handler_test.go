package logsvc

import (
	"bytes"
	"log/slog"
	"testing"

	"github.com/fatih/color"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"

	"github.com/mahmoud01140/onlineEdu/core"
	"github.com/mahmoud01140/onlineEdu/core/user"
)

func init() {
	color.NoColor = true
}

func TestColorHandler(t *testing.T) {
	var buf bytes.Buffer
	log := slog.New(NewColorHandler(&buf, slog.LevelInfo))

	log.Debug("hidden")
	assert.Empty(t, buf.String())

	log.With("app", "onlineEdu").WithGroup("req").Warn("slow request", "path", "/api/exams")
	out := buf.String()
	assert.Contains(t, out, "WARN:")
	assert.Contains(t, out, "slow request")
	assert.Contains(t, out, " app=onlineEdu")
	assert.Contains(t, out, "req.path=/api/exams")
}

func TestRollbarLogger(t *testing.T) {
	var buf bytes.Buffer
	conf := core.NewTestConfig()
	logger := NewRollbarLogger(slog.New(NewColorHandler(&buf, slog.LevelDebug)), conf)

	var exitCode int
	logger.exit = func(code int) { exitCode = code }

	usr := user.User{ActorCore: user.ActorCore{ID: "u-1", Name: "Amina", Email: "amina@example.com"}}
	logger.Error("submit failed", errors.New("boom"), map[string]interface{}{"exam": "e-1"}, usr)
	out := buf.String()
	assert.Contains(t, out, "ERROR:")
	assert.Contains(t, out, "error=boom")
	assert.Contains(t, out, "exam=e-1")
	assert.Contains(t, out, "user=u-1")

	logger.Fatal("cannot start")
	assert.Equal(t, 1, exitCode)
}

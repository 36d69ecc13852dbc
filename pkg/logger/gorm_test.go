package logger

import (
	"bytes"
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

func captureLog(t *testing.T) *bytes.Buffer {
	t.Helper()
	buf := &bytes.Buffer{}
	prev := Log
	Log = slog.New(slog.NewTextHandler(buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
	t.Cleanup(func() { Log = prev })
	return buf
}

func TestGormLogger_RecordNotFoundIsNotAnError(t *testing.T) {
	buf := captureLog(t)
	l := NewGormLogger(gormlogger.Info, 200*time.Millisecond)

	l.Trace(context.Background(), time.Now(), func() (string, int64) {
		return "SELECT * FROM leaks WHERE id = 1", 0
	}, gorm.ErrRecordNotFound)

	out := buf.String()
	assert.NotContains(t, out, "level=ERROR")
	assert.Contains(t, out, "SQL no rows")
}

func TestGormLogger_RealErrorIsLogged(t *testing.T) {
	buf := captureLog(t)
	l := NewGormLogger(gormlogger.Info, 200*time.Millisecond)

	l.Trace(context.Background(), time.Now(), func() (string, int64) {
		return "SELECT 1", 0
	}, assert.AnError)

	out := buf.String()
	assert.Contains(t, out, "level=ERROR")
	assert.Contains(t, out, assert.AnError.Error())
}

func TestGormLogger_SlowQueryWarns(t *testing.T) {
	buf := captureLog(t)
	l := NewGormLogger(gormlogger.Warn, time.Nanosecond)

	l.Trace(context.Background(), time.Now().Add(-time.Second), func() (string, int64) {
		return "SELECT * FROM invoices", 10
	}, nil)

	assert.Contains(t, buf.String(), "Slow SQL")
}

func TestGormLogger_SilentLogsNothing(t *testing.T) {
	buf := captureLog(t)
	l := NewGormLogger(gormlogger.Silent, time.Nanosecond)

	l.Trace(context.Background(), time.Now().Add(-time.Second), func() (string, int64) {
		return "SELECT 1", 1
	}, assert.AnError)

	assert.Empty(t, buf.String())
}

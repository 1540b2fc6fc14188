package logging

// The console logger covers diagnostics; this package is the durable
// record. Every tool dispatch and every completed exchange lands here
// as one JSON line, rotated so the trail survives without eating the
// disk. When a customer asks what the agent did on their behalf, this
// file is the answer.

import (
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	lumberjack "gopkg.in/natefinch/lumberjack.v2"
)

type Audit struct {
	logger *zap.Logger
}

// NewAudit opens (creating if needed) a rotating audit log at path.
func NewAudit(path string) *Audit {
	rotator := &lumberjack.Logger{
		Filename:   path,
		MaxSize:    10, // megabytes
		MaxBackups: 5,
		MaxAge:     30, // days
		Compress:   true,
	}

	encoderConfig := zap.NewProductionEncoderConfig()
	encoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	core := zapcore.NewCore(
		zapcore.NewJSONEncoder(encoderConfig),
		zapcore.AddSync(rotator),
		zapcore.InfoLevel,
	)

	return &Audit{logger: zap.New(core)}
}

// All methods are nil-safe so components can carry an optional *Audit
// without guarding every call site.

func (a *Audit) ToolDispatched(tool, argument string, success bool, err error, elapsed time.Duration) {
	if a == nil {
		return
	}

	fields := []zap.Field{
		zap.String("event", "tool_dispatch"),
		zap.String("tool", tool),
		zap.String("argument", argument),
		zap.Bool("success", success),
		zap.Duration("elapsed", elapsed),
	}

	if err != nil {
		fields = append(fields, zap.String("error", err.Error()))
	}

	a.logger.Info("tool_dispatch", fields...)
}

func (a *Audit) ExchangeCompleted(conversationID, input, reply string, elapsed time.Duration) {
	if a == nil {
		return
	}

	a.logger.Info("exchange",
		zap.String("event", "exchange"),
		zap.String("conversation_id", conversationID),
		zap.String("input", input),
		zap.String("reply", reply),
		zap.Duration("elapsed", elapsed),
	)
}

func (a *Audit) Sync() {
	if a == nil {
		return
	}

	_ = a.logger.Sync()
}

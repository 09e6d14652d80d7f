package report

import (
	"os"
	"path/filepath"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// AuditLogger appends one JSON object per event to a run log:
// {"timestamp","level","event","fields"}.
type AuditLogger struct {
	file   *os.File
	logger *zap.Logger
}

// NewAuditLogger opens path for appending. When tee is non-nil every event is
// also sent to it.
func NewAuditLogger(path string, tee *zap.Logger) (*AuditLogger, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil && dir != "." {
		return nil, err
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, err
	}
	encCfg := zapcore.EncoderConfig{
		TimeKey:        "timestamp",
		LevelKey:       "level",
		MessageKey:     "event",
		LineEnding:     zapcore.DefaultLineEnding,
		EncodeLevel:    zapcore.CapitalLevelEncoder,
		EncodeTime:     utcRFC3339Nano,
		EncodeDuration: zapcore.StringDurationEncoder,
	}
	core := zapcore.NewCore(zapcore.NewJSONEncoder(encCfg), zapcore.AddSync(f), zapcore.DebugLevel)
	if tee != nil {
		core = zapcore.NewTee(core, tee.Core())
	}
	return &AuditLogger{file: f, logger: zap.New(core)}, nil
}

func utcRFC3339Nano(t time.Time, enc zapcore.PrimitiveArrayEncoder) {
	enc.AppendString(t.UTC().Format(time.RFC3339Nano))
}

func (l *AuditLogger) Close() {
	if l == nil || l.file == nil {
		return
	}
	_ = l.logger.Sync()
	_ = l.file.Close()
}

func (l *AuditLogger) Info(event string, fields map[string]interface{}) {
	l.log(zapcore.InfoLevel, event, fields)
}

func (l *AuditLogger) Warn(event string, fields map[string]interface{}) {
	l.log(zapcore.WarnLevel, event, fields)
}

func (l *AuditLogger) log(level zapcore.Level, event string, fields map[string]interface{}) {
	if l == nil || l.logger == nil {
		return
	}
	var zf []zap.Field
	if len(fields) > 0 {
		zf = append(zf, zap.Any("fields", fields))
	}
	if ce := l.logger.Check(level, event); ce != nil {
		ce.Write(zf...)
	}
}

// SPDX-License-Identifier: MPL-2.0
// Copyright (c) 2025 Daniel Schmidt

package cloudvision

import (
	"context"

	"go.uber.org/zap"
)

// ZapLogger adapts a *zap.Logger to the Logger interface.
//
// Example:
//
//	zl, _ := zap.NewProduction()
//	defer zl.Sync()
//	client, _ := cloudvision.NewClient(cfg,
//	    cloudvision.WithLogger(cloudvision.NewZapLogger(zl)))
type ZapLogger struct {
	sugar *zap.SugaredLogger
}

// NewZapLogger wraps zl. A nil logger falls back to zap.NewNop().
func NewZapLogger(zl *zap.Logger) *ZapLogger {
	if zl == nil {
		zl = zap.NewNop()
	}
	return &ZapLogger{sugar: zl.Sugar()}
}

// Debug logs at zap's debug level
func (z *ZapLogger) Debug(_ context.Context, msg string, keysAndValues ...any) {
	z.sugar.Debugw(msg, sanitizeKeysAndValues(keysAndValues)...)
}

// Info logs at zap's info level
func (z *ZapLogger) Info(_ context.Context, msg string, keysAndValues ...any) {
	z.sugar.Infow(msg, sanitizeKeysAndValues(keysAndValues)...)
}

// Warn logs at zap's warn level
func (z *ZapLogger) Warn(_ context.Context, msg string, keysAndValues ...any) {
	z.sugar.Warnw(msg, sanitizeKeysAndValues(keysAndValues)...)
}

// Error logs at zap's error level
func (z *ZapLogger) Error(_ context.Context, msg string, keysAndValues ...any) {
	z.sugar.Errorw(msg, sanitizeKeysAndValues(keysAndValues)...)
}

// sanitizeKeysAndValues stringifies keys and sanitizes string values. An odd
// trailing key gets a "<MISSING>" value rather than tripping zap's DPanic.
func sanitizeKeysAndValues(kv []any) []any {
	out := make([]any, 0, len(kv)+1)
	for i := 0; i < len(kv); i += 2 {
		out = append(out, sanitizeLogValue(kv[i]))
		if i+1 >= len(kv) {
			out = append(out, "<MISSING>")
			break
		}
		switch v := kv[i+1].(type) {
		case string:
			out = append(out, sanitizeLogValue(v))
		case error:
			out = append(out, sanitizeLogValue(v.Error()))
		default:
			out = append(out, v)
		}
	}
	return out
}

// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package observability builds the process logger for the mflow command.
package observability

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

// LogConfig selects level, encoding and sinks. The struct tags are read by
// go-flags, so it can be embedded as an option group.
type LogConfig struct {
	Level       string   `long:"log-level" default:"info" choice:"debug" choice:"info" choice:"warn" choice:"error" description:"minimum log level"`
	Format      string   `long:"log-format" default:"console" choice:"console" choice:"json" description:"log encoding"`
	Outputs     []string `long:"log-output" description:"log sink: stdout, stderr or a file path (repeatable)"`
	Development bool     `long:"log-dev" description:"development logging: colored levels, DPanic panics"`
	Rotation    Rotation `group:"Log rotation" namespace:"log-rotate"`
}

// Rotation configures lumberjack for file sinks.
type Rotation struct {
	Enable     bool `long:"enable" description:"rotate file sinks"`
	MaxSizeMB  int  `long:"max-size" default:"64" description:"megabytes before a file is rotated"`
	MaxBackups int  `long:"max-backups" default:"3" description:"rotated files kept"`
	MaxAgeDays int  `long:"max-age" default:"7" description:"days a rotated file is kept"`
	Compress   bool `long:"compress" description:"gzip rotated files"`
}

// ParseLevel maps a level name to a zap level. Unknown names are an error.
func ParseLevel(s string) (zapcore.Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return zap.DebugLevel, nil
	case "", "info":
		return zap.InfoLevel, nil
	case "warn", "warning":
		return zap.WarnLevel, nil
	case "error":
		return zap.ErrorLevel, nil
	}
	return zap.InfoLevel, fmt.Errorf("observability: unknown log level %q", s)
}

// SetupLogger builds a zap.Logger from c. With no outputs it logs to stderr.
// The caller should defer logger.Sync().
func SetupLogger(c LogConfig) (*zap.Logger, error) {
	level, err := ParseLevel(c.Level)
	if err != nil {
		return nil, err
	}

	encCfg := zap.NewProductionEncoderConfig()
	if c.Development {
		encCfg = zap.NewDevelopmentEncoderConfig()
		encCfg.EncodeLevel = zapcore.CapitalColorLevelEncoder
	}
	var encoder zapcore.Encoder
	if strings.EqualFold(c.Format, "json") {
		encoder = zapcore.NewJSONEncoder(encCfg)
	} else {
		encoder = zapcore.NewConsoleEncoder(encCfg)
	}

	outputs := c.Outputs
	if len(outputs) == 0 {
		outputs = []string{"stderr"}
	}
	cores := make([]zapcore.Core, 0, len(outputs))
	for _, out := range outputs {
		ws, err := sink(out, c.Rotation)
		if err != nil {
			return nil, err
		}
		cores = append(cores, zapcore.NewCore(encoder, ws, level))
	}

	opts := []zap.Option{zap.AddCaller(), zap.AddStacktrace(zap.ErrorLevel)}
	if c.Development {
		opts = append(opts, zap.Development())
	}
	return zap.New(zapcore.NewTee(cores...), opts...), nil
}

func sink(out string, r Rotation) (zapcore.WriteSyncer, error) {
	switch strings.ToLower(out) {
	case "stdout":
		return zapcore.Lock(os.Stdout), nil
	case "stderr":
		return zapcore.Lock(os.Stderr), nil
	}
	if dir := filepath.Dir(out); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("observability: %w", err)
		}
	}
	if r.Enable {
		return zapcore.AddSync(rotator(out, r)), nil
	}
	f, err := os.OpenFile(out, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, fmt.Errorf("observability: %w", err)
	}
	return zapcore.AddSync(f), nil
}

func rotator(filename string, r Rotation) io.WriteCloser {
	return &lumberjack.Logger{
		Filename:   filename,
		MaxSize:    max(r.MaxSizeMB, 1),
		MaxBackups: max(r.MaxBackups, 0),
		MaxAge:     max(r.MaxAgeDays, 0),
		Compress:   r.Compress,
	}
}

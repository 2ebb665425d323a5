/*
 * Licensed to the Apache Software Foundation (ASF) under one or more
 * contributor license agreements.  See the NOTICE file distributed with
 * this work for additional information regarding copyright ownership.
 * The ASF licenses this file to You under the Apache License, Version 2.0
 * (the "License"); you may not use this file except in compliance with
 * the License.  You may obtain a copy of the License at
 *
 *    http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

// Package logger provides the process-wide structured logger.
// logger 包提供进程级的结构化日志记录器。
//
// Logs go to stdout and, when a file is configured, to a rotated log file.
// Context-aware helpers (InfoF, ErrorF, ...) attach the active trace span.
// 日志输出到标准输出，配置文件路径时同时写入轮转日志文件。
// 带上下文的辅助函数（InfoF、ErrorF 等）会关联当前追踪 span。
package logger

import (
	"context"
	"fmt"
	"os"
	"strings"
	"sync"

	"github.com/uptrace/opentelemetry-go-extra/otelzap"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Config contains logging settings.
// Config 包含日志设置。
type Config struct {
	// Level is the log level (debug, info, warn, error)
	// Level 是日志级别（debug, info, warn, error）
	Level string

	// Format is console or json
	// Format 是 console 或 json
	Format string

	// File is the log file path; empty disables file output
	// File 是日志文件路径，为空时不写文件
	File string

	// MaxSize is the maximum size in MB before rotation
	// MaxSize 是轮转前的最大大小（MB）
	MaxSize int

	// MaxBackups is the number of rotated files to keep
	// MaxBackups 是保留的轮转文件数量
	MaxBackups int

	// MaxAge is the number of days to keep rotated files
	// MaxAge 是轮转文件保留天数
	MaxAge int

	// Compress gzips rotated files
	// Compress 表示是否压缩轮转文件
	Compress bool
}

var (
	mu      sync.RWMutex
	base    = zap.NewNop()
	ctxLog  = otelzap.New(zap.NewNop())
	closers []func() error
)

// Init builds the global logger from cfg. It may be called again to reconfigure.
// Init 根据 cfg 构建全局日志记录器，可重复调用以重新配置。
func Init(cfg Config) error {
	level, err := zapcore.ParseLevel(strings.ToLower(cfg.Level))
	if err != nil {
		return fmt.Errorf("invalid log level %q: %w", cfg.Level, err)
	}

	encCfg := zap.NewProductionEncoderConfig()
	encCfg.EncodeTime = zapcore.ISO8601TimeEncoder

	var encoder zapcore.Encoder
	if cfg.Format == "json" {
		encoder = zapcore.NewJSONEncoder(encCfg)
	} else {
		encCfg.EncodeLevel = zapcore.CapitalLevelEncoder
		encoder = zapcore.NewConsoleEncoder(encCfg)
	}

	cores := []zapcore.Core{
		zapcore.NewCore(encoder, zapcore.Lock(os.Stdout), level),
	}

	var newClosers []func() error
	if cfg.File != "" {
		rotator := &lumberjack.Logger{
			Filename:   cfg.File,
			MaxSize:    cfg.MaxSize,
			MaxBackups: cfg.MaxBackups,
			MaxAge:     cfg.MaxAge,
			Compress:   cfg.Compress,
		}
		cores = append(cores, zapcore.NewCore(encoder, zapcore.AddSync(rotator), level))
		newClosers = append(newClosers, rotator.Close)
	}

	l := zap.New(zapcore.NewTee(cores...), zap.AddCaller())

	mu.Lock()
	old := closers
	base = l
	ctxLog = otelzap.New(l.WithOptions(zap.AddCallerSkip(2)), otelzap.WithMinLevel(level))
	closers = newClosers
	mu.Unlock()

	for _, c := range old {
		_ = c()
	}
	return nil
}

// L returns the structured logger.
// L 返回结构化日志记录器。
func L() *zap.Logger {
	mu.RLock()
	defer mu.RUnlock()
	return base
}

// Sync flushes buffered entries and closes the rotated file.
// Sync 刷新缓冲的日志并关闭轮转文件。
func Sync() {
	mu.Lock()
	defer mu.Unlock()
	_ = base.Sync()
	for _, c := range closers {
		_ = c()
	}
	closers = nil
}

func withCtx(ctx context.Context) otelzap.LoggerWithCtx {
	mu.RLock()
	defer mu.RUnlock()
	if ctx == nil {
		ctx = context.Background()
	}
	return ctxLog.Ctx(ctx)
}

// DebugF logs a formatted message at debug level.
func DebugF(ctx context.Context, format string, args ...any) {
	withCtx(ctx).Debug(fmt.Sprintf(format, args...))
}

// InfoF logs a formatted message at info level.
// InfoF 以 info 级别记录格式化消息。
func InfoF(ctx context.Context, format string, args ...any) {
	withCtx(ctx).Info(fmt.Sprintf(format, args...))
}

// WarnF logs a formatted message at warn level.
func WarnF(ctx context.Context, format string, args ...any) {
	withCtx(ctx).Warn(fmt.Sprintf(format, args...))
}

// ErrorF logs a formatted message at error level.
// ErrorF 以 error 级别记录格式化消息。
func ErrorF(ctx context.Context, format string, args ...any) {
	withCtx(ctx).Error(fmt.Sprintf(format, args...))
}

// Copyright 2026 fanjia1024
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package log

import (
	"fmt"
	"io"
	"log/slog"
	"os"
)

// Logger 简单封装，供 internal 使用
type Logger struct {
	*slog.Logger
	level *slog.LevelVar
	out   io.Writer
}

// Config 日志配置（可与 config 包对接）
type Config struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
	File   string `mapstructure:"file"`
}

// ParseLevel 将 debug/info/warn/error 映射为 slog.Level，未知值按 info 处理
func ParseLevel(s string) slog.Level {
	switch s {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// NewLogger 根据配置创建 Logger，cfg 可为 nil 使用默认
func NewLogger(cfg *Config) (*Logger, error) {
	levelVar := &slog.LevelVar{}
	var out io.Writer = os.Stdout
	format := ""
	if cfg != nil {
		levelVar.Set(ParseLevel(cfg.Level))
		format = cfg.Format
		if cfg.File != "" {
			f, err := os.OpenFile(cfg.File, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
			if err != nil {
				return nil, fmt.Errorf("打开日志文件失败: %w", err)
			}
			out = f
		}
	}
	return newLogger(out, format, levelVar), nil
}

// NewWithWriter 写入指定 io.Writer，主要用于测试
func NewWithWriter(w io.Writer, format string, level slog.Level) *Logger {
	levelVar := &slog.LevelVar{}
	levelVar.Set(level)
	return newLogger(w, format, levelVar)
}

// Discard 丢弃所有输出
func Discard() *Logger {
	return NewWithWriter(io.Discard, "text", slog.LevelError)
}

func newLogger(out io.Writer, format string, levelVar *slog.LevelVar) *Logger {
	opts := &slog.HandlerOptions{Level: levelVar}
	var h slog.Handler = slog.NewJSONHandler(out, opts)
	if format == "text" {
		h = slog.NewTextHandler(out, opts)
	}
	return &Logger{Logger: slog.New(h), level: levelVar, out: out}
}

// Level 返回可共享的级别变量（供 hertz slog 扩展对齐级别）
func (l *Logger) Level() *slog.LevelVar { return l.level }

// Output 返回底层输出
func (l *Logger) Output() io.Writer { return l.out }

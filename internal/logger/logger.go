// 包 logger：进程级 slog 日志器，级别与格式由环境变量决定；各包通过 L() 获取
package logger

import (
	"io"
	"log/slog"
	"os"
	"strings"
	"sync/atomic"
)

var current atomic.Pointer[slog.Logger]

// Setup：按 LOG_LEVEL / LOG_FORMAT / LOG_OUTPUT 初始化默认日志器
// 约束：LOG_OUTPUT 仅支持 stderr（默认）与 stdout；未知取值回退到 stderr
func Setup() *slog.Logger {
	var w io.Writer = os.Stderr
	if strings.ToLower(os.Getenv("LOG_OUTPUT")) == "stdout" {
		w = os.Stdout
	}
	l := New(w, os.Getenv("LOG_LEVEL"), os.Getenv("LOG_FORMAT"))
	current.Store(l)
	return l
}

// New：构造独立日志器，不影响默认日志器
func New(w io.Writer, level, format string) *slog.Logger {
	opts := &slog.HandlerOptions{Level: parseLevel(level)}
	if strings.ToLower(format) == "json" {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}

// Set：替换默认日志器（测试中用于捕获输出）
func Set(l *slog.Logger) { current.Store(l) }

// L：获取默认日志器；未初始化时按环境变量初始化
func L() *slog.Logger {
	if l := current.Load(); l != nil {
		return l
	}
	return Setup()
}

func parseLevel(s string) slog.Level {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	}
	return slog.LevelInfo
}

package logging

import (
	"io"
	"os"

	"github.com/phuslu/log"
)

// New 创建结构化日志器，level 无法识别时使用 info；w 为 nil 时输出到标准输出控制台。
func New(level string, w io.Writer) *log.Logger {
	lvl := log.ParseLevel(level)
	if level == "" {
		lvl = log.InfoLevel
	}
	logger := &log.Logger{Level: lvl, TimeFormat: "2006-01-02T15:04:05.000Z07:00"}
	if w == nil {
		logger.Writer = &log.ConsoleWriter{Writer: os.Stdout, ColorOutput: log.IsTerminal(os.Stdout.Fd())}
	} else {
		logger.Writer = &log.IOWriter{Writer: w}
	}
	return logger
}

// Discard 返回丢弃全部输出的日志器，供测试使用。
func Discard() *log.Logger {
	return &log.Logger{Level: log.PanicLevel, Writer: &log.IOWriter{Writer: io.Discard}}
}

package config

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"io"
	"os"
)

// Config holds the process streams and logger a script runs against.
// The host takes no flags or environment variables, so everything here
// is set in code.
type Config struct {
	Stdin  io.Reader
	Stdout io.Writer
	Logger *zap.Logger
}

// Default returns a Config bound to the process streams with a no-op logger.
func Default() Config {
	return Config{
		Stdin:  os.Stdin,
		Stdout: os.Stdout,
		Logger: zap.NewNop(),
	}
}

// WithDefaults fills the unset fields of c from Default.
func (c Config) WithDefaults() Config {
	d := Default()
	if c.Stdin == nil {
		c.Stdin = d.Stdin
	}
	if c.Stdout == nil {
		c.Stdout = d.Stdout
	}
	if c.Logger == nil {
		c.Logger = d.Logger
	}
	return c
}

// NewLogger builds the diagnostic logger. It writes console-encoded entries
// at warn level and above to w, which should not be the script's stdout.
func NewLogger(w io.Writer) *zap.Logger {
	encoderCfg := zap.NewDevelopmentEncoderConfig()
	encoderCfg.TimeKey = ""
	core := zapcore.NewCore(
		zapcore.NewConsoleEncoder(encoderCfg),
		zapcore.AddSync(w),
		zap.WarnLevel,
	)
	return zap.New(core).Named("couchjs")
}

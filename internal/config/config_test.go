package config

import (
	"bytes"
	"github.com/stretchr/testify/require"
	"os"
	"strings"
	"testing"
)

func TestWithDefaults_FillsUnset(t *testing.T) {
	var out bytes.Buffer
	cfg := Config{Stdout: &out}.WithDefaults()

	require.Same(t, &out, cfg.Stdout)
	require.Equal(t, os.Stdin, cfg.Stdin)
	require.NotNil(t, cfg.Logger)
}

func TestWithDefaults_KeepsSet(t *testing.T) {
	in := strings.NewReader("x")
	var out bytes.Buffer
	cfg := Config{Stdin: in, Stdout: &out}.WithDefaults()

	require.Same(t, in, cfg.Stdin)
	require.Same(t, &out, cfg.Stdout)
	require.NotNil(t, cfg.Logger)
}

func TestNewLogger_WarnLevel(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(&buf)

	logger.Debug("compiled")
	logger.Info("running")
	require.Empty(t, buf.String())

	logger.Warn("stdin read failed")
	require.Contains(t, buf.String(), "WARN")
	require.Contains(t, buf.String(), "couchjs")
	require.Contains(t, buf.String(), "stdin read failed")
}

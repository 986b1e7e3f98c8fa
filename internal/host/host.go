package host

import (
	"bufio"
	"errors"
	"fmt"
	"github.com/dop251/goja"
	"go.uber.org/zap"
	"io"
	"strings"
)

// Host holds the process streams behind the native globals.
type Host struct {
	in     *bufio.Reader
	out    *bufio.Writer
	logger *zap.Logger
}

// New wraps stdin and stdout for use by the script globals.
func New(stdin io.Reader, stdout io.Writer, logger *zap.Logger) *Host {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Host{
		in:     bufio.NewReader(stdin),
		out:    bufio.NewWriter(stdout),
		logger: logger,
	}
}

// Install registers print, readline and gc on the global object of vm.
func Install(vm *goja.Runtime, h *Host) error {
	natives := []struct {
		name string
		fn   func(goja.FunctionCall) goja.Value
	}{
		{"print", func(call goja.FunctionCall) goja.Value {
			if err := h.Print(call.Arguments); err != nil {
				panic(vm.NewGoError(err))
			}
			return goja.Undefined()
		}},
		{"readline", func(call goja.FunctionCall) goja.Value {
			line, ok, err := h.ReadLine()
			if err != nil {
				panic(vm.NewGoError(err))
			}
			if !ok {
				return goja.Undefined()
			}
			return vm.ToValue(line)
		}},
		// Kept for scripts that expect a collector hook.
		{"gc", func(call goja.FunctionCall) goja.Value {
			return goja.Undefined()
		}},
	}

	for _, n := range natives {
		if err := vm.Set(n.name, n.fn); err != nil {
			return fmt.Errorf("failed to set %s: %w", n.name, err)
		}
	}
	return nil
}

// Print writes the arguments separated by single spaces and a newline, then
// flushes.
func (h *Host) Print(args []goja.Value) error {
	parts := make([]string, len(args))
	for i, arg := range args {
		parts[i] = toString(arg)
	}

	if _, err := h.out.WriteString(strings.Join(parts, " ")); err != nil {
		return err
	}
	if err := h.out.WriteByte('\n'); err != nil {
		return err
	}
	return h.out.Flush()
}

// ReadLine returns the next input line without its newline. ok is false once
// input is exhausted.
func (h *Host) ReadLine() (line string, ok bool, err error) {
	line, err = h.in.ReadString('\n')
	switch {
	case err == nil:
		return strings.TrimSuffix(line, "\n"), true, nil
	case errors.Is(err, io.EOF):
		return line, line != "", nil
	default:
		h.logger.Warn("stdin read failed", zap.Error(err))
		return "", false, fmt.Errorf("readline: %w", err)
	}
}

// Flush pushes out anything still buffered for stdout.
func (h *Host) Flush() error {
	return h.out.Flush()
}

func toString(v goja.Value) string {
	if v == nil {
		return "undefined"
	}
	return v.String()
}

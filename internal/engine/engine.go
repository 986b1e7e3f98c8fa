package engine

import (
	"fmt"
	"github.com/dop251/goja"
	"github.com/dop251/goja/parser"
	"github.com/joakimcarlsson/couchjs/internal/config"
	"github.com/joakimcarlsson/couchjs/internal/host"
	"github.com/joakimcarlsson/couchjs/internal/script"
	"go.uber.org/zap"
)

// MaxCallStackSize bounds script recursion; deeper calls fail the run.
const MaxCallStackSize = 10000

// Engine owns one JavaScript global environment with the host functions
// installed.
type Engine struct {
	vm     *goja.Runtime
	host   *host.Host
	logger *zap.Logger
}

// New creates the global environment. It must be called before any script
// runs.
func New(cfg config.Config) (*Engine, error) {
	cfg = cfg.WithDefaults()

	vm := goja.New()
	vm.SetMaxCallStackSize(MaxCallStackSize)
	h := host.New(cfg.Stdin, cfg.Stdout, cfg.Logger)
	if err := host.Install(vm, h); err != nil {
		return nil, fmt.Errorf("failed to install host functions: %w", err)
	}

	return &Engine{
		vm:     vm,
		host:   h,
		logger: cfg.Logger,
	}, nil
}

// Compile parses and compiles src in sloppy mode.
func (e *Engine) Compile(src *script.Source) (*goja.Program, error) {
	prg, err := parser.ParseFile(nil, src.Name, src.Text, 0)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", src.Name, err)
	}

	program, err := goja.CompileAST(prg, false)
	if err != nil {
		return nil, fmt.Errorf("compile %s: %w", src.Name, err)
	}
	return program, nil
}

// Execute compiles and runs src. The returned error is the raw engine
// failure, suitable for report.FromError.
func (e *Engine) Execute(src *script.Source) error {
	log := e.logger.With(zap.String("script", src.Name))

	program, err := e.Compile(src)
	if err != nil {
		log.Debug("compilation failed", zap.Error(err))
		return err
	}
	log.Debug("compiled", zap.Int("bytes", len(src.Text)))

	_, err = e.vm.RunProgram(program)
	if flushErr := e.host.Flush(); flushErr != nil && err == nil {
		err = fmt.Errorf("flush stdout: %w", flushErr)
	}
	if err != nil {
		// err.Error() may call back into the script's toString.
		log.Debug("execution failed", zap.String("type", fmt.Sprintf("%T", err)))
		return err
	}

	log.Debug("execution finished")
	return nil
}

package main

import (
	"errors"
	"fmt"
	"github.com/joakimcarlsson/couchjs/internal/config"
	"github.com/joakimcarlsson/couchjs/internal/engine"
	"github.com/joakimcarlsson/couchjs/internal/report"
	"github.com/joakimcarlsson/couchjs/internal/script"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"io"
	"os"
)

const (
	exitOK    = 0
	exitError = 1
	exitUsage = 2
)

const programName = "couchjs"

// statusError carries the process exit status for a failed run.
type statusError struct {
	code int
	err  error
}

func (e *statusError) Error() string { return e.err.Error() }
func (e *statusError) Unwrap() error { return e.err }

func main() {
	os.Exit(run(os.Args[1:], os.Stdin, os.Stdout, os.Stderr))
}

func run(args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	logger := config.NewLogger(stderr)
	defer func() { _ = logger.Sync() }()

	if len(args) != 1 {
		fmt.Fprintf(stderr, "incorrect number of arguments\n\n")
		fmt.Fprintf(stderr, "usage: %s <scriptfile>\n", programName)
		return exitUsage
	}

	cmd := newRootCmd(config.Config{
		Stdin:  stdin,
		Stdout: stdout,
		Logger: logger,
	}, args[0])
	// The path is bound above so cobra never matches it against its own
	// hidden commands such as __complete.
	cmd.SetArgs([]string{})
	cmd.SetIn(stdin)
	cmd.SetOut(stdout)
	cmd.SetErr(stderr)

	err := cmd.Execute()
	if err == nil {
		return exitOK
	}

	var se *statusError
	if errors.As(err, &se) {
		return se.code
	}
	logger.Error("unexpected failure", zap.Error(err))
	return exitError
}

func newRootCmd(cfg config.Config, path string) *cobra.Command {
	return &cobra.Command{
		Use:                programName + " <scriptfile>",
		Short:              "run a JavaScript file with print and readline",
		DisableFlagParsing: true,
		SilenceUsage:       true,
		SilenceErrors:      true,
		Args:               cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runScript(cfg, path)
		},
	}
}

func runScript(cfg config.Config, path string) error {
	out := cfg.Stdout
	log := cfg.Logger.With(zap.String("script", path))

	eng, err := engine.New(cfg)
	if err != nil {
		return &statusError{code: exitError, err: err}
	}

	src, err := script.Load(path)
	if err != nil {
		log.Debug("load failed", zap.Error(err))
		fmt.Fprintf(out, "Error reading '%s'\n", path)
		return &statusError{code: exitError, err: err}
	}

	if err := eng.Execute(src); err != nil {
		if werr := report.FromError(err, src).Write(out); werr != nil {
			log.Warn("failed to write error report", zap.Error(werr))
		}
		fmt.Fprintf(out, "Error executing '%s'\n", path)
		return &statusError{code: exitError, err: err}
	}
	return nil
}

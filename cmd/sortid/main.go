// sortid CLI - Command-line tool for time-sortable identifier generation and inspection
//
// Usage:
//
//	sortid generate [flags]           Generate identifiers
//	sortid parse <id>                 Parse and inspect an identifier
//	sortid convert <id> --to FORMAT   Re-encode an identifier
//	sortid validate <id>...           Validate identifiers
//	sortid bench [flags]              Run generation benchmarks
package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"
)

const version = "1.0.0"

// Environment variables used as flag defaults.
const (
	envKind     = "SORTID_KIND"
	envLogLevel = "SORTID_LOG_LEVEL"
)

// Identifier kinds.
const (
	kindTSID  = "tsid"
	kindULID  = "ulid"
	kindKSUID = "ksuid"
)

func main() {
	if err := newRootCmd(os.Stdout, os.Stderr).Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// app holds state shared by all commands.
type app struct {
	out     io.Writer
	errOut  io.Writer
	logger  *slog.Logger
	verbose bool
}

func newRootCmd(out, errOut io.Writer) *cobra.Command {
	a := &app{out: out, errOut: errOut}

	root := &cobra.Command{
		Use:           "sortid",
		Short:         "Time-sortable identifier toolkit",
		Long:          "Generate, inspect and convert TSID (64-bit), ULID (128-bit) and KSUID (160-bit) identifiers.",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			a.logger = newLogger(errOut, a.verbose)
		},
	}
	root.SetOut(out)
	root.SetErr(errOut)
	root.PersistentFlags().BoolVarP(&a.verbose, "verbose", "v", false, "Enable debug logging on stderr")

	root.AddCommand(
		a.newGenerateCmd(),
		a.newParseCmd(),
		a.newConvertCmd(),
		a.newValidateCmd(),
		a.newBenchCmd(),
	)
	return root
}

// newLogger returns a text logger on w. The level comes from --verbose, then
// SORTID_LOG_LEVEL, then defaults to warn so clock anomalies are still reported.
func newLogger(w io.Writer, verbose bool) *slog.Logger {
	level := slog.LevelWarn
	if v := os.Getenv(envLogLevel); v != "" {
		_ = level.UnmarshalText([]byte(v))
	}
	if verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}

func defaultKind() string {
	if k := os.Getenv(envKind); k != "" {
		return k
	}
	return kindTSID
}

func checkKind(kind string) error {
	switch kind {
	case kindTSID, kindULID, kindKSUID:
		return nil
	}
	return fmt.Errorf("unknown kind %q; use tsid|ulid|ksuid", kind)
}

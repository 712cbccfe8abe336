// Command arcview is a headless CLI driver for the archive virtualization
// and browsing layer (spec §6): open a root, navigate it page by page, and
// inspect entries, without any GUI.
//
// Grounded on the teacher's cmd tree convention of a single cobra.Command
// with RunE doing all the work, rather than a deep command tree — this
// tool has exactly one mode of operation (open a root, then REPL).
package main

import (
	"fmt"
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

var (
	flagRoot     string
	flagWorkers  int
	flagPages    int
	flagShift    bool
	flagRTL      bool
	flagLogLevel string
)

func main() {
	root := &cobra.Command{
		Use:           "arcview",
		Short:         "Browse archives and nested archives from the command line",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE:          runRoot,
	}

	root.Flags().StringVar(&flagRoot, "root", "", "path to open on startup (directory or archive)")
	root.Flags().IntVar(&flagWorkers, "workers", 0, "worker pool size (0 = NumCPU); accepted but not used, the REPL runs commands synchronously")
	root.Flags().IntVar(&flagPages, "pages", 1, "1 = single page, 2 = dual page")
	root.Flags().BoolVar(&flagShift, "shift", false, "dual-page pairing phase shift")
	root.Flags().BoolVar(&flagRTL, "rtl", false, "right-to-left dual-page display order")
	root.Flags().StringVar(&flagLogLevel, "log-level", "info", "debug, info, warn, or error")

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "arcview:", err)
		if exitErr, ok := err.(*exitCodeError); ok {
			os.Exit(exitErr.code)
		}
		os.Exit(1)
	}
}

// exitCodeError carries the CLI exit code named in spec §6 ("0 success, 1
// argument/usage error, 2 open failure") through cobra's plain error
// return.
type exitCodeError struct {
	code int
	err  error
}

func (e *exitCodeError) Error() string { return e.err.Error() }
func (e *exitCodeError) Unwrap() error { return e.err }

func parseLogLevel(s string) (logrus.Level, error) {
	switch s {
	case "debug":
		return logrus.DebugLevel, nil
	case "info":
		return logrus.InfoLevel, nil
	case "warn", "warning":
		return logrus.WarnLevel, nil
	case "error":
		return logrus.ErrorLevel, nil
	default:
		return 0, fmt.Errorf("unknown log level %q", s)
	}
}

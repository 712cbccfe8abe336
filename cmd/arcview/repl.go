// repl.go implements the CLI surface named in spec.md §6: a line-oriented
// command loop over one open root, backed directly by archivemgr.Manager
// and browser.Cursor — no worker pool indirection, since a synchronous CLI
// has no UI thread to keep responsive.
package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/zgock999/SupraView-sub001/archivemgr"
	"github.com/zgock999/SupraView-sub001/browser"
	"github.com/zgock999/SupraView-sub001/decoder"
	"github.com/zgock999/SupraView-sub001/entry"
	"github.com/zgock999/SupraView-sub001/handler"
)

// session holds the CLI's mutable state across one invocation of the REPL.
// There is no navigation lock here (spec §5's "drop inputs while a
// page-flip task is in flight" applies to the async pipeline, not this
// synchronous driver): each command runs to completion before the prompt
// returns.
type session struct {
	log     *logrus.Logger
	mgr     *archivemgr.Manager
	cursor  *browser.Cursor
	pages   int
	shift   bool
	rtl     bool
	out     io.Writer
}

func runRoot(cmd *cobra.Command, args []string) error {
	level, err := parseLogLevel(flagLogLevel)
	if err != nil {
		return &exitCodeError{code: 1, err: err}
	}
	if flagPages != 1 && flagPages != 2 {
		return &exitCodeError{code: 1, err: fmt.Errorf("--pages must be 1 or 2, got %d", flagPages)}
	}

	log := logrus.New()
	log.SetLevel(level)
	log.SetOutput(os.Stderr)

	s := &session{
		log:   log,
		mgr:   mustNewManager(log),
		pages: flagPages,
		shift: flagShift,
		rtl:   flagRTL,
		out:   cmd.OutOrStdout(),
	}
	defer s.mgr.Close()

	if flagRoot != "" {
		if err := s.open(cmd.Context(), flagRoot); err != nil {
			return &exitCodeError{code: 2, err: err}
		}
	}

	return s.loop(cmd.Context(), cmd.InOrStdin())
}

func mustNewManager(log *logrus.Logger) *archivemgr.Manager {
	registry := handler.NewDefaultRegistry()
	registry.Log = log
	mgr, err := archivemgr.New(registry, log)
	if err != nil {
		// New only fails if the platform temp dir is unusable, which a
		// CLI tool can't recover from either way.
		panic(err)
	}
	return mgr
}

// loop reads one command per line from in until EOF or "Q" (spec §6 CLI
// surface). Errors from individual commands are printed and the loop
// continues; only I/O errors on the scanner itself stop it early.
func (s *session) loop(ctx context.Context, in io.Reader) error {
	scanner := bufio.NewScanner(in)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		if !s.dispatch(ctx, line) {
			return nil
		}
	}
	return scanner.Err()
}

// dispatch runs one command line, returning false iff the REPL should
// stop ("Q").
func (s *session) dispatch(ctx context.Context, line string) bool {
	fields := strings.SplitN(line, " ", 2)
	command := fields[0]
	var arg string
	if len(fields) == 2 {
		arg = strings.TrimSpace(fields[1])
	}

	switch command {
	case "S":
		if err := s.open(ctx, arg); err != nil {
			fmt.Fprintln(s.out, "error:", err)
		}
	case "j":
		s.requireCursor(func() {
			if err := s.cursor.Jump(arg); err != nil {
				fmt.Fprintln(s.out, "error:", err)
				return
			}
			s.printCurrent()
		})
	case "n":
		s.requireCursor(func() { s.cursor.Next(); s.printCurrent() })
	case "p":
		s.requireCursor(func() { s.cursor.Prev(); s.printCurrent() })
	case "nn":
		s.requireCursor(func() { s.cursor.NextFolder(); s.printCurrent() })
	case "pp":
		s.requireCursor(func() { s.cursor.PrevFolder(); s.printCurrent() })
	case "gf":
		s.requireCursor(func() { s.cursor.GoFirst(); s.printCurrent() })
	case "gl":
		s.requireCursor(func() { s.cursor.GoLast(); s.printCurrent() })
	case "gt":
		s.requireCursor(func() { s.cursor.GoTop(); s.printCurrent() })
	case "ge":
		s.requireCursor(func() { s.cursor.GoEnd(); s.printCurrent() })
	case "A":
		s.requireCursor(func() {
			next := 1
			if s.pages == 1 {
				next = 2
			}
			if err := s.cursor.SetPages(next); err != nil {
				fmt.Fprintln(s.out, "error:", err)
				return
			}
			s.pages = next
			fmt.Fprintf(s.out, "pages=%d\n", s.pages)
		})
	case "T":
		s.requireCursor(func() {
			s.shift = !s.shift
			s.cursor.SetShift(s.shift)
			fmt.Fprintf(s.out, "shift=%v\n", s.shift)
		})
	case "l":
		s.requireOpen(func() {
			entries, err := s.mgr.ListEntries(arg)
			if err != nil {
				fmt.Fprintln(s.out, "error:", err)
				return
			}
			s.printEntries(entries)
		})
	case "lf":
		s.requireCursor(func() {
			entries, err := s.mgr.ListEntries(s.cursor.CurrentFolder())
			if err != nil {
				fmt.Fprintln(s.out, "error:", err)
				return
			}
			s.printEntries(entries)
		})
	case "c":
		s.requireCursor(func() { s.printCurrent() })
	case "D":
		s.cycleLogLevel()
	case "Q":
		return false
	default:
		fmt.Fprintf(s.out, "error: unknown command %q\n", command)
	}
	return true
}

func (s *session) requireOpen(fn func()) {
	if s.mgr.Root() == "" {
		fmt.Fprintln(s.out, "error: no root open, use S <path> first")
		return
	}
	fn()
}

func (s *session) requireCursor(fn func()) {
	if s.cursor == nil {
		fmt.Fprintln(s.out, "error: no root open, use S <path> first")
		return
	}
	fn()
}

func (s *session) open(ctx context.Context, root string) error {
	if root == "" {
		return fmt.Errorf("S requires a path argument")
	}
	if err := s.mgr.Open(ctx, root); err != nil {
		return err
	}
	cursor, err := browser.New(s.mgr.GetEntryCache(), decoder.Extensions, s.pages, s.shift, s.rtl)
	if err != nil {
		return err
	}
	cursor.StatusFunc = func(msg string) { fmt.Fprintln(s.out, "status:", msg) }
	s.cursor = cursor
	fmt.Fprintf(s.out, "opened %q: %d images\n", root, cursor.Len())
	return nil
}

func (s *session) printCurrent() {
	heads := s.cursor.GetCurrent()
	parts := make([]string, len(heads))
	for i, rel := range heads {
		if info, ok := s.mgr.GetEntryInfo(rel); ok {
			parts[i] = fmt.Sprintf("%s (%s)", rel, humanize.Bytes(uint64(info.Size)))
		} else {
			parts[i] = rel
		}
	}
	fmt.Fprintf(s.out, "%s\n", strings.Join(parts, " | "))
}

func (s *session) printEntries(entries []*entry.Info) {
	for _, e := range entries {
		fmt.Fprintf(s.out, "%-10s %10s  %s\n", e.Type, humanize.Bytes(uint64(e.Size)), e.Name)
	}
}

func (s *session) cycleLogLevel() {
	levels := []logrus.Level{logrus.DebugLevel, logrus.InfoLevel, logrus.WarnLevel, logrus.ErrorLevel}
	cur := s.log.GetLevel()
	for i, lv := range levels {
		if lv == cur {
			next := levels[(i+1)%len(levels)]
			s.log.SetLevel(next)
			fmt.Fprintf(s.out, "log-level=%s\n", next)
			return
		}
	}
	s.log.SetLevel(logrus.InfoLevel)
}

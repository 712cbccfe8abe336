package archivemgr

import (
	"os"
	"os/signal"
	"sync"
	"syscall"
)

// atexit is a minimal process-exit cleanup list, grounded on the teacher's
// github.com/rclone/rclone/lib/atexit pattern used in backend/zip/zip.go to
// flush writers before process termination. Registered funcs run once, in
// LIFO order, on SIGINT/SIGTERM or an explicit runAtExit() call.
var (
	atexitMu    sync.Mutex
	atexitFuncs []func()
	atexitOnce  sync.Once
)

func registerAtExit(fn func()) {
	atexitMu.Lock()
	atexitFuncs = append(atexitFuncs, fn)
	atexitMu.Unlock()

	atexitOnce.Do(func() {
		c := make(chan os.Signal, 1)
		signal.Notify(c, syscall.SIGINT, syscall.SIGTERM)
		go func() {
			<-c
			runAtExit()
			os.Exit(1)
		}()
	})
}

func runAtExit() {
	atexitMu.Lock()
	fns := atexitFuncs
	atexitFuncs = nil
	atexitMu.Unlock()

	for i := len(fns) - 1; i >= 0; i-- {
		fns[i]()
	}
}

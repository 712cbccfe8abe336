package thumbnail

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zgock999/SupraView-sub001/archivemgr"
	"github.com/zgock999/SupraView-sub001/decoder"
	"github.com/zgock999/SupraView-sub001/handler"
)

// countingDecoder blocks on the 2nd call (index 1) until release is
// closed, letting the test switch directories mid-batch deterministically.
// Decodes run in parallel, so the blocked call's input (each test file
// holds its own name) is recorded in blocked.
type countingDecoder struct {
	mu       sync.Mutex
	seen     int
	blocked  string
	release  chan struct{}
	started  *sync.WaitGroup
	blockIdx int
}

func (d *countingDecoder) Decode(r io.Reader) (decoder.PixelBuffer, decoder.Metadata, error) {
	data, _ := io.ReadAll(r)

	d.mu.Lock()
	idx := d.seen
	d.seen++
	if idx == d.blockIdx {
		d.blocked = string(data)
	}
	d.mu.Unlock()

	if idx == d.blockIdx {
		d.started.Done()
		<-d.release
	}
	return decoder.PixelBuffer{}, decoder.Metadata{}, nil
}

func TestThumbnailCoherenceAcrossDirectorySwitch(t *testing.T) {
	dirA := t.TempDir()
	relPaths := make([]string, 5)
	for i := 0; i < 5; i++ {
		name := relName(i)
		require.NoError(t, os.WriteFile(filepath.Join(dirA, name), []byte(name), 0o600))
		relPaths[i] = name
	}

	reg := handler.NewDefaultRegistry()
	mgr, err := archivemgr.New(reg, nil)
	require.NoError(t, err)
	require.NoError(t, mgr.Open(context.Background(), dirA))

	var started sync.WaitGroup
	started.Add(1)
	cd := &countingDecoder{release: make(chan struct{}), started: &started, blockIdx: 1}

	decoders := decoder.NewRegistry()
	decoders.Register("", cd) // plain test files have no extension

	coord := New(mgr, decoders, nil)

	var resultsMu sync.Mutex
	var resultsA, resultsB []Result

	coord.SetDirectory(context.Background(), "A", relPaths, func(res Result) {
		resultsMu.Lock()
		defer resultsMu.Unlock()
		if res.Dir == "A" {
			resultsA = append(resultsA, res)
		} else {
			resultsB = append(resultsB, res)
		}
	})

	// Wait until the 2nd decode call is blocked mid-flight, per scenario:
	// "Before the second file's decode completes, call set_directory(B)."
	started.Wait()

	coord.SetDirectory(context.Background(), "B", nil, func(res Result) {
		resultsMu.Lock()
		defer resultsMu.Unlock()
		resultsB = append(resultsB, res)
	})

	close(cd.release)
	time.Sleep(50 * time.Millisecond)

	cd.mu.Lock()
	blocked := cd.blocked
	cd.mu.Unlock()

	resultsMu.Lock()
	defer resultsMu.Unlock()
	assert.Empty(t, resultsB, "directory B had no files, so no B result should ever arrive")
	for _, r := range resultsA {
		assert.NotEqual(t, blocked, r.RelPath, "the blocked decode's result must not be delivered after the switch")
	}
}

func relName(i int) string {
	return "file" + string(rune('0'+i))
}

// plainDecoder always succeeds immediately; used where coherence isn't
// under test.
type plainDecoder struct{}

func (plainDecoder) Decode(r io.Reader) (decoder.PixelBuffer, decoder.Metadata, error) {
	_, _ = io.ReadAll(r)
	return decoder.PixelBuffer{}, decoder.Metadata{Width: 1, Height: 1}, nil
}

func TestCoordinatorDeliversAllResultsForSingleBatch(t *testing.T) {
	dir := t.TempDir()
	relPaths := make([]string, 3)
	for i := 0; i < 3; i++ {
		name := relName(i)
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte("x"), 0o600))
		relPaths[i] = name
	}

	reg := handler.NewDefaultRegistry()
	mgr, err := archivemgr.New(reg, nil)
	require.NoError(t, err)
	require.NoError(t, mgr.Open(context.Background(), dir))

	decoders := decoder.NewRegistry()
	decoders.Register("", plainDecoder{})

	coord := New(mgr, decoders, nil)

	var mu sync.Mutex
	var results []Result
	var wg sync.WaitGroup
	wg.Add(len(relPaths))

	coord.SetDirectory(context.Background(), "only", relPaths, func(res Result) {
		mu.Lock()
		results = append(results, res)
		mu.Unlock()
		wg.Done()
	})

	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for all thumbnail results")
	}

	mu.Lock()
	defer mu.Unlock()
	assert.Len(t, results, len(relPaths))
	for _, r := range results {
		assert.NoError(t, r.Err)
		assert.Equal(t, "only", r.Dir)
	}
	assert.Equal(t, "only", coord.CurrentDirectory())
}

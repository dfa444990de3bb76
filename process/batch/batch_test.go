package batch

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/sirupsen/logrus/hooks/test"

	"tablescan/models"
	"tablescan/pkg/table"
)

type fakeProc struct {
	mu    sync.Mutex
	seen  []string
	fail  map[string]error
	calls chan string
}

func (f *fakeProc) ProcessFile(ctx context.Context, path string) (*models.Manifest, error) {
	name := filepath.Base(path)
	f.mu.Lock()
	f.seen = append(f.seen, name)
	f.mu.Unlock()
	if f.calls != nil {
		f.calls <- name
	}
	if err := f.fail[name]; err != nil {
		return nil, err
	}
	return &models.Manifest{MD5: name}, nil
}

func touch(t *testing.T, dir string, names ...string) {
	t.Helper()
	for _, n := range names {
		if err := os.WriteFile(filepath.Join(dir, n), []byte("x"), 0o644); err != nil {
			t.Fatal(err)
		}
	}
}

func TestListImageFiles(t *testing.T) {
	dir := t.TempDir()
	touch(t, dir, "b.JPG", "a.png", "notes.txt", ".hidden.png")
	if err := os.Mkdir(filepath.Join(dir, "0123"), 0o755); err != nil {
		t.Fatal(err)
	}
	got, err := ListImageFiles(dir)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 2 || got[0] != "a.png" || got[1] != "b.JPG" {
		t.Fatalf("got %v", got)
	}
}

func TestRunCountsOutcomes(t *testing.T) {
	dir := t.TempDir()
	names := []string{"a.png", "b.png", "c.png", "d.png", "e.png"}
	touch(t, dir, names...)
	log, _ := test.NewNullLogger()
	proc := &fakeProc{fail: map[string]error{
		"b.png": fmt.Errorf("wrap: %w", table.ErrDetection),
		"c.png": fmt.Errorf("disk full"),
	}}
	r := &Runner{Dir: dir, Workers: 2, Proc: proc, Log: log, Skip: func(n string) bool { return n == "e.png" }}
	if err := r.Run(context.Background(), names); err != nil {
		t.Fatalf("run: %v", err)
	}
	st := r.Stats()
	if st.Processed != 2 || st.Rejected != 1 || st.Failed != 1 || st.Skipped != 1 {
		t.Fatalf("stats %+v", st)
	}
	sort.Strings(proc.seen)
	if len(proc.seen) != 4 || proc.seen[3] != "d.png" {
		t.Fatalf("seen %v", proc.seen)
	}
}

// a clean run must not report the pool's own cancellation
func TestRunSingleFileSucceeds(t *testing.T) {
	dir := t.TempDir()
	touch(t, dir, "a.png")
	log, _ := test.NewNullLogger()
	r := &Runner{Dir: dir, Workers: 1, Proc: &fakeProc{}, Log: log}
	if err := r.Run(context.Background(), []string{"a.png"}); err != nil {
		t.Fatalf("run: %v", err)
	}
	if st := r.Stats(); st.Processed != 1 || st.Failed != 0 {
		t.Fatalf("stats %+v", st)
	}
}

func TestRunCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	r := &Runner{Workers: 1, Proc: &fakeProc{}}
	if err := r.Run(ctx, []string{"a.png"}); err == nil {
		t.Fatalf("expected cancellation error")
	}
}

func TestWatchPicksUpNewFiles(t *testing.T) {
	dir := t.TempDir()
	log, _ := test.NewNullLogger()
	proc := &fakeProc{calls: make(chan string, 4)}
	r := &Runner{Dir: dir, Workers: 1, Proc: proc, Log: log, Debounce: 50 * time.Millisecond}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- r.Watch(ctx) }()

	// give the watcher time to register
	time.Sleep(100 * time.Millisecond)
	touch(t, dir, "new.png", "ignored.txt")

	select {
	case name := <-proc.calls:
		if name != "new.png" {
			t.Fatalf("processed %s", name)
		}
	case <-time.After(5 * time.Second):
		t.Fatalf("new file was not processed")
	}
	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("watch: %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatalf("watch did not stop")
	}
}

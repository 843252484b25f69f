// Package watch signals when the upstream refs of a checkout change on
// disk, for example after a `git fetch` run in another terminal. A fetch
// that leaves the refs where they were (FETCH_HEAD is rewritten on every
// fetch) does not signal.
package watch

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	gitlib "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"

	"repoup/internal/debug"
)

// DefaultDelay is how long the watcher waits for a burst of ref updates to
// settle before signalling.
const DefaultDelay = 500 * time.Millisecond

// Watcher delivers one value on Events per settled burst of ref changes.
type Watcher struct {
	fs        *fsnotify.Watcher
	gitDir    string
	remote    string
	events    chan struct{}
	debounce  *debouncer
	done      chan struct{}
	closeOnce sync.Once
	wg        sync.WaitGroup

	mu   sync.Mutex
	last string
}

// Option configures a Watcher.
type Option func(*settings)

type settings struct {
	delay time.Duration
}

// WithDelay overrides DefaultDelay.
func WithDelay(d time.Duration) Option {
	return func(s *settings) {
		if d > 0 {
			s.delay = d
		}
	}
}

// New watches gitDir and gitDir/refs/remotes/<remote>.
func New(gitDir, remote string, opts ...Option) (*Watcher, error) {
	cfg := settings{delay: DefaultDelay}
	for _, opt := range opts {
		opt(&cfg)
	}
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("fsnotify: %w", err)
	}
	w := &Watcher{
		fs:     fsw,
		gitDir: filepath.Clean(gitDir),
		remote: remote,
		events: make(chan struct{}, 1),
		done:   make(chan struct{}),
	}
	if snap, err := w.snapshot(); err == nil {
		w.last = snap
	} else {
		debug.Logf("watch: initial ref snapshot: %v", err)
	}
	for _, path := range watchPaths(w.gitDir, remote) {
		debug.Logf("watch: adding %s", path)
		if err := fsw.Add(path); err != nil {
			err := errors.Join(err, fsw.Close())
			return nil, fmt.Errorf("watch %s: %w", path, err)
		}
	}
	w.debounce = newDebouncer(cfg.delay, w.signal)
	w.wg.Add(1)
	go w.loop()
	return w, nil
}

// Events receives a value each time the remote refs settle after a change.
// Bursts are coalesced; a slow reader sees at most one pending value.
func (w *Watcher) Events() <-chan struct{} {
	return w.events
}

// Close stops watching. It is safe to call more than once.
func (w *Watcher) Close() error {
	var err error
	w.closeOnce.Do(func() {
		close(w.done)
		w.debounce.stop()
		err = w.fs.Close()
		w.wg.Wait()
	})
	return err
}

func (w *Watcher) loop() {
	defer w.wg.Done()
	for {
		select {
		case <-w.done:
			return
		case ev, ok := <-w.fs.Events:
			if !ok {
				return
			}
			if ev.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Remove|fsnotify.Rename) == 0 {
				continue
			}
			if !w.relevant(ev.Name) {
				continue
			}
			debug.Logf("watch: %s %s", ev.Op, ev.Name)
			w.debounce.trigger()
		case err, ok := <-w.fs.Errors:
			if !ok {
				return
			}
			debug.Logf("watch: fsnotify error: %v", err)
		}
	}
}

func (w *Watcher) signal() {
	select {
	case <-w.done:
		return
	default:
	}
	if !w.refsMoved() {
		return
	}
	select {
	case w.events <- struct{}{}:
	default:
	}
}

// refsMoved compares the current ref snapshot with the last one seen and
// records the new one. An unreadable repository counts as moved.
func (w *Watcher) refsMoved() bool {
	snap, err := w.snapshot()
	if err != nil {
		debug.Logf("watch: ref snapshot: %v", err)
		return true
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	if snap == w.last {
		debug.Log("watch: refs unchanged, ignoring")
		return false
	}
	w.last = snap
	return true
}

// snapshot lists HEAD and every ref under refs/remotes/<remote>, loose or
// packed, one "<hash> <name>" line each.
func (w *Watcher) snapshot() (string, error) {
	repo, err := gitlib.PlainOpen(w.gitDir)
	if err != nil {
		return "", fmt.Errorf("open %s: %w", w.gitDir, err)
	}
	var lines []string
	if head, err := repo.Head(); err == nil {
		lines = append(lines, head.Hash().String()+" HEAD")
	}
	refs, err := repo.References()
	if err != nil {
		return "", fmt.Errorf("list refs: %w", err)
	}
	prefix := "refs/remotes/" + w.remote + "/"
	err = refs.ForEach(func(ref *plumbing.Reference) error {
		if strings.HasPrefix(ref.Name().String(), prefix) {
			lines = append(lines, ref.String())
		}
		return nil
	})
	if err != nil {
		return "", fmt.Errorf("list refs: %w", err)
	}
	sort.Strings(lines)
	return strings.Join(lines, "\n"), nil
}

// relevant reports whether a changed path can move the upstream refs.
func (w *Watcher) relevant(name string) bool {
	if strings.EqualFold(filepath.Ext(name), ".lock") {
		return false
	}
	clean := filepath.Clean(name)
	if filepath.Dir(clean) == w.gitDir {
		switch filepath.Base(clean) {
		case "FETCH_HEAD", "packed-refs", "HEAD", "ORIG_HEAD":
			return true
		default:
			return false
		}
	}
	remoteDir := filepath.Join(w.gitDir, "refs", "remotes", w.remote)
	return strings.HasPrefix(clean, remoteDir+string(filepath.Separator))
}

func watchPaths(gitDir, remote string) []string {
	paths := []string{gitDir}
	remoteDir := filepath.Join(gitDir, "refs", "remotes", remote)
	if info, err := os.Stat(remoteDir); err == nil && info.IsDir() {
		paths = append(paths, remoteDir)
	}
	return paths
}

// Package crawl discovers files under a directory tree.
//
// Every directory listing and every per-entry stat goes through the shared
// admission controller, and subdirectories are explored concurrently. A
// directory that cannot be listed loses only its own subtree: the failure is
// reported as a diagnostic and the rest of the crawl carries on.
package crawl

import (
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/huangsam/corpusmetrics/internal/admission"
	"github.com/huangsam/corpusmetrics/internal/telemetry"
	"github.com/huangsam/corpusmetrics/schema"
	ignore "github.com/sabhiram/go-gitignore"
)

// Matcher decides whether a discovered regular file is returned.
type Matcher func(path string) bool

// SuffixMatcher matches paths ending in any of the given suffixes.
// With no suffixes every file matches.
func SuffixMatcher(suffixes ...string) Matcher {
	return func(path string) bool {
		if len(suffixes) == 0 {
			return true
		}
		for _, s := range suffixes {
			if strings.HasSuffix(path, s) {
				return true
			}
		}
		return false
	}
}

// Option configures a Crawler.
type Option func(*Crawler)

// WithIgnore skips entries whose path relative to the crawl root matches gi.
func WithIgnore(gi *ignore.GitIgnore) Option {
	return func(c *Crawler) { c.ignore = gi }
}

// WithReporter receives each diagnostic as soon as it is found.
func WithReporter(report func(schema.Diagnostic)) Option {
	return func(c *Crawler) { c.report = report }
}

// Crawler walks directory trees through an admission controller.
type Crawler struct {
	ctrl   *admission.Controller
	ignore *ignore.GitIgnore
	report func(schema.Diagnostic)
}

// New creates a crawler gated by ctrl.
func New(ctrl *admission.Controller, opts ...Option) *Crawler {
	c := &Crawler{ctrl: ctrl}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// task is one unit of crawl work: list a directory or stat an entry.
type task struct {
	path string
	list bool
}

// walk holds the state of a single Crawl call.
type walk struct {
	*Crawler
	root  string
	match Matcher

	mu      sync.Mutex
	cond    *sync.Cond
	queue   []task
	pending int // queued or running tasks
	files   []string
	diags   []schema.Diagnostic
}

// Crawl returns every regular file under root, at any depth, accepted by match.
// Directories are never returned and the order is unspecified. Symbolic links
// are followed; the tree is assumed to contain no link cycles.
//
// Work is drained by one worker per admission slot, so the goroutine count is
// bounded by the controller limit however large the tree is.
func (c *Crawler) Crawl(root string, match Matcher) ([]string, []schema.Diagnostic) {
	if match == nil {
		match = SuffixMatcher()
	}
	w := &walk{Crawler: c, root: root, match: match}
	w.cond = sync.NewCond(&w.mu)
	w.push(task{path: root, list: true})

	var wg sync.WaitGroup
	for range c.ctrl.Limit() {
		wg.Go(w.work)
	}
	wg.Wait()
	return w.files, w.diags
}

func (w *walk) push(t task) {
	w.mu.Lock()
	w.queue = append(w.queue, t)
	w.pending++
	w.mu.Unlock()
	w.cond.Signal()
}

// work runs tasks until every queued task, including those queued by others, is done.
func (w *walk) work() {
	for {
		w.mu.Lock()
		for len(w.queue) == 0 && w.pending > 0 {
			w.cond.Wait()
		}
		if len(w.queue) == 0 {
			w.mu.Unlock()
			return
		}
		t := w.queue[len(w.queue)-1]
		w.queue = w.queue[:len(w.queue)-1]
		w.mu.Unlock()

		if t.list {
			w.visit(t.path)
		} else {
			w.inspect(t.path)
		}

		w.mu.Lock()
		w.pending--
		done := w.pending == 0
		w.mu.Unlock()
		if done {
			w.cond.Broadcast()
		}
	}
}

func (w *walk) visit(dir string) {
	entries, err := admission.Do(w.ctrl, func() ([]fs.DirEntry, error) {
		telemetry.DirectoriesListed.Inc()
		return os.ReadDir(dir)
	})
	if err != nil {
		w.diagnose(schema.NewDiagnostic(schema.SubtreeDiagnostic, dir, err))
		return
	}

	for _, entry := range entries {
		w.push(task{path: filepath.Join(dir, entry.Name())})
	}
}

func (w *walk) inspect(path string) {
	info, err := admission.Do(w.ctrl, func() (fs.FileInfo, error) {
		return os.Stat(path)
	})
	if err != nil {
		w.diagnose(schema.NewDiagnostic(schema.FileDiagnostic, path, err))
		return
	}
	if w.ignored(path, info.IsDir()) {
		return
	}

	switch {
	case info.IsDir():
		w.push(task{path: path, list: true})
	case info.Mode().IsRegular() && w.match(path):
		w.mu.Lock()
		w.files = append(w.files, path)
		w.mu.Unlock()
	}
}

func (w *walk) ignored(path string, isDir bool) bool {
	if w.ignore == nil {
		return false
	}
	rel, err := filepath.Rel(w.root, path)
	if err != nil {
		return false
	}
	rel = filepath.ToSlash(rel)
	if isDir {
		// Directory-only patterns such as "vendor/" need the trailing slash.
		return w.ignore.MatchesPath(rel) || w.ignore.MatchesPath(rel+"/")
	}
	return w.ignore.MatchesPath(rel)
}

func (w *walk) diagnose(d schema.Diagnostic) {
	telemetry.Diagnostics.WithLabelValues(string(d.Kind)).Inc()
	w.mu.Lock()
	w.diags = append(w.diags, d)
	w.mu.Unlock()
	if w.report != nil {
		w.report(d)
	}
}

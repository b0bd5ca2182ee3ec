package frontier

import (
	"encoding/json"
	"fmt"
	"os"
	"sync"

	"github.com/docharvest/docharvest/internal/model"
)

// Frontier holds the ordered queue of URLs to visit and the set of URLs
// already visited or queued. All methods are safe for concurrent use.
type Frontier struct {
	mu sync.Mutex

	// queue holds URLs waiting to be dispatched, in FIFO (breadth-first) order.
	queue []model.CrawlURL

	// queued tracks membership of the queue for O(1) duplicate checks.
	queued map[string]bool

	// visited tracks URLs that have been popped. Once visited, a URL can
	// never be enqueued again.
	visited map[string]bool

	// totalEnqueued counts accepted enqueues across the lifetime of the
	// frontier, for reporting.
	totalEnqueued int
}

// New creates an empty Frontier.
func New() *Frontier {
	return &Frontier{
		queued:  make(map[string]bool),
		visited: make(map[string]bool),
	}
}

// Enqueue adds u to the queue unless it was already queued or visited.
// Duplicate and late discoveries are silently dropped; they are expected,
// not errors. Self-referential and mutually-referential pages therefore
// cannot grow the frontier without bound.
func (f *Frontier) Enqueue(u model.CrawlURL) {
	if u.IsZero() {
		return
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	key := u.String()
	if f.queued[key] || f.visited[key] {
		return
	}
	f.queued[key] = true
	f.queue = append(f.queue, u)
	f.totalEnqueued++
}

// Next pops the oldest queued URL and atomically marks it visited.
// The second return value is false when the queue is empty; an empty queue
// is not necessarily terminal while pages are still in flight, so the
// caller owns the termination decision.
func (f *Frontier) Next() (model.CrawlURL, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if len(f.queue) == 0 {
		return model.CrawlURL{}, false
	}

	u := f.queue[0]
	f.queue = f.queue[1:]
	key := u.String()
	delete(f.queued, key)
	f.visited[key] = true
	return u, true
}

// Requeue puts a previously popped URL back at the head of the queue and
// clears its visited mark. Next marks a URL visited the moment it is
// popped, so a page interrupted mid-processing by shutdown would otherwise
// be skipped forever; requeueing it lets a resumed crawl visit it first.
func (f *Frontier) Requeue(u model.CrawlURL) {
	if u.IsZero() {
		return
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	key := u.String()
	delete(f.visited, key)
	if f.queued[key] {
		return
	}
	f.queued[key] = true
	f.queue = append([]model.CrawlURL{u}, f.queue...)
}

// Seen reports whether u has already been queued or visited.
func (f *Frontier) Seen(u model.CrawlURL) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	key := u.String()
	return f.queued[key] || f.visited[key]
}

// Len returns the number of URLs currently queued.
func (f *Frontier) Len() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.queue)
}

// VisitedCount returns the number of URLs popped so far.
func (f *Frontier) VisitedCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.visited)
}

// snapshot is the serialized form of the frontier for resumable crawls.
type snapshot struct {
	Queue   []string `json:"queue"`
	Visited []string `json:"visited"`
}

// Save writes the frontier state to path as JSON. The write goes through a
// temporary file and rename so an interrupted save never clobbers a good
// snapshot.
func (f *Frontier) Save(path string) error {
	f.mu.Lock()
	snap := snapshot{
		Queue:   make([]string, 0, len(f.queue)),
		Visited: make([]string, 0, len(f.visited)),
	}
	for _, u := range f.queue {
		snap.Queue = append(snap.Queue, u.String())
	}
	for v := range f.visited {
		snap.Visited = append(snap.Visited, v)
	}
	f.mu.Unlock()

	data, err := json.MarshalIndent(snap, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to serialize frontier: %w", err)
	}

	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0600); err != nil {
		return fmt.Errorf("failed to write frontier snapshot: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return fmt.Errorf("failed to commit frontier snapshot: %w", err)
	}
	return nil
}

// Load restores frontier state saved by Save. URLs that no longer
// canonicalize are dropped rather than failing the whole restore.
func Load(path string) (*Frontier, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read frontier snapshot: %w", err)
	}

	var snap snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return nil, fmt.Errorf("failed to parse frontier snapshot: %w", err)
	}

	f := New()
	for _, v := range snap.Visited {
		f.visited[v] = true
	}
	for _, raw := range snap.Queue {
		u, err := model.Canonicalize(raw)
		if err != nil {
			continue
		}
		f.Enqueue(u)
	}
	return f, nil
}

package host

import (
	"container/list"
	"fmt"
	"sync"

	"github.com/flitter-run/flitter/pkg/compiler"
)

type registered struct {
	program      *compiler.Program
	resolvedPath string
}

// MemoryLoader is the reference SourceLoader: programs are pre-registered
// under a filename by the embedding test or host, then served back through
// a small LRU keyed by filename (SPEC_FULL.md §5). It is not a file-system
// loader — that remains a host concern per spec.md §1's Non-goals — just
// enough to exercise Import's caching and cycle-detection contract.
type MemoryLoader struct {
	mu       sync.Mutex
	capacity int
	sources  map[string]*compiler.Program
	order    *list.List
	recent   map[string]*list.Element
	cache    map[string]registered
}

// NewMemoryLoader returns a loader whose LRU cache holds at most capacity
// resolved entries (internal/config.LoaderCacheSize); capacity <= 0 means
// unbounded.
func NewMemoryLoader(capacity int) *MemoryLoader {
	return &MemoryLoader{
		capacity: capacity,
		sources:  map[string]*compiler.Program{},
		order:    list.New(),
		recent:   map[string]*list.Element{},
		cache:    map[string]registered{},
	}
}

// Register makes program available under filename. Load reports filename
// itself as the resolved path the program runs under (its Context.Path,
// compared against ancestor paths for cycle detection).
func (l *MemoryLoader) Register(filename string, program *compiler.Program) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.sources[filename] = program
}

// Load implements host.SourceLoader.
func (l *MemoryLoader) Load(filename, currentPath string) (*compiler.Program, string, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if hit, ok := l.cache[filename]; ok {
		l.touch(filename)
		return hit.program, hit.resolvedPath, nil
	}

	prog, ok := l.sources[filename]
	if !ok {
		return nil, "", fmt.Errorf("host: no such module %q", filename)
	}

	entry := registered{program: prog, resolvedPath: filename}
	l.cache[filename] = entry
	l.touch(filename)
	l.evictIfNeeded()
	return entry.program, entry.resolvedPath, nil
}

func (l *MemoryLoader) touch(filename string) {
	if el, ok := l.recent[filename]; ok {
		l.order.MoveToFront(el)
		return
	}
	l.recent[filename] = l.order.PushFront(filename)
}

func (l *MemoryLoader) evictIfNeeded() {
	if l.capacity <= 0 {
		return
	}
	for l.order.Len() > l.capacity {
		back := l.order.Back()
		if back == nil {
			return
		}
		filename := back.Value.(string)
		l.order.Remove(back)
		delete(l.recent, filename)
		delete(l.cache, filename)
	}
}

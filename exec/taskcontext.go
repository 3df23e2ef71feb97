package exec

import (
	"strconv"
	"sync"
)

// TaskContext provides one scheduled task with its input readers, per-port
// downstream writers, an external writer for emission, and an optional
// scan range, per §4.3.6. Readers and writers are acquired lazily on first
// request and released exactly once; Release is idempotent so a task's
// cleanup path can call it unconditionally on every exit (success, error,
// or cancellation).
type TaskContext struct {
	mu       sync.Mutex
	mainIn   RowSource
	subIn    map[int]RowSource
	downstream map[int]chan<- Row
	external chan<- Row
	scanRange *Range

	acquired map[string]bool
	released bool

	Work *WorkContext
}

func NewTaskContext() *TaskContext {
	return &TaskContext{
		subIn:      make(map[int]RowSource),
		downstream: make(map[int]chan<- Row),
		acquired:   make(map[string]bool),
		Work:       NewWorkContext(),
	}
}

// AcquireMain returns the task's main input reader, opening it via open on
// first call only.
func (t *TaskContext) AcquireMain(open func() (RowSource, error)) (RowSource, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.acquired["main"] {
		return t.mainIn, nil
	}
	src, err := open()
	if err != nil {
		return nil, err
	}
	t.mainIn = src
	t.acquired["main"] = true
	return src, nil
}

// AcquireSub returns the reader for subordinate input index, per
// create_pretask's sub_input_index (§4.3.5).
func (t *TaskContext) AcquireSub(index int, open func() (RowSource, error)) (RowSource, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	key := subKey(index)
	if t.acquired[key] {
		return t.subIn[index], nil
	}
	src, err := open()
	if err != nil {
		return nil, err
	}
	t.subIn[index] = src
	t.acquired[key] = true
	return src, nil
}

// AcquireDownstream returns the writer channel for output port, opening it
// via open on first call only.
func (t *TaskContext) AcquireDownstream(port int, open func() chan<- Row) chan<- Row {
	t.mu.Lock()
	defer t.mu.Unlock()
	key := downstreamKey(port)
	if t.acquired[key] {
		return t.downstream[port]
	}
	ch := open()
	t.downstream[port] = ch
	t.acquired[key] = true
	return ch
}

// AcquireExternal returns the task's external (client-facing) writer.
func (t *TaskContext) AcquireExternal(open func() chan<- Row) chan<- Row {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.acquired["external"] {
		return t.external
	}
	t.external = open()
	t.acquired["external"] = true
	return t.external
}

// SetRange attaches a scan range descriptor to this task, once.
func (t *TaskContext) SetRange(r Range) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.scanRange == nil {
		t.scanRange = &r
	}
}

func (t *TaskContext) Range() (Range, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.scanRange == nil {
		return Range{}, false
	}
	return *t.scanRange, true
}

// Release closes every acquired reader and is safe to call more than once;
// a second call is a no-op, matching §4.3.6's "release is idempotent".
func (t *TaskContext) Release() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.released {
		return nil
	}
	t.released = true
	var first error
	if t.mainIn != nil {
		if err := t.mainIn.Close(); err != nil && first == nil {
			first = err
		}
	}
	for _, src := range t.subIn {
		if err := src.Close(); err != nil && first == nil {
			first = err
		}
	}
	return first
}

func subKey(i int) string        { return "sub:" + strconv.Itoa(i) }
func downstreamKey(p int) string { return "down:" + strconv.Itoa(p) }

// WorkContext is an opaque per-operator scratchpad attached to a
// TaskContext (§4.3.6). Operators store whatever per-task state they need
// (e.g. a join's matched-set bitmap, or a scan's resume cursor) under a
// caller-chosen key, typically the operator's own pointer identity.
type WorkContext struct {
	mu    sync.Mutex
	slots map[any]any
}

func NewWorkContext() *WorkContext {
	return &WorkContext{slots: make(map[any]any)}
}

func (w *WorkContext) Get(key any) (any, bool) {
	w.mu.Lock()
	defer w.mu.Unlock()
	v, ok := w.slots[key]
	return v, ok
}

func (w *WorkContext) Set(key, value any) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.slots[key] = value
}

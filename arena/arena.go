// Package arena implements the scoped LIFO paged allocator described in
// §3.3: a per-execution-context allocator for variable-length payloads
// (text, binary) whose lifetime is tied to an operator's working set
// rather than to the garbage collector. Operators recover arena space
// per input row with a Checkpoint/DeallocateAfter pair.
package arena

// defaultPageSize is the size of each backing page. Chosen to comfortably
// hold a handful of VARCHAR/VARBINARY row payloads without forcing a new
// page on every allocation.
const defaultPageSize = 32 * 1024

// Checkpoint is an opaque marker produced by Arena.Mark, identifying a
// point in the arena's allocation history that DeallocateAfter can later
// roll back to.
type Checkpoint struct {
	page   int
	offset int
}

// Arena is a scoped, single-threaded, LIFO paged allocator (§3.3, §5 "Per-
// task arenas are single-threaded"). It is not safe for concurrent use by
// multiple goroutines; callers needing concurrent working sets must use one
// Arena per task.
type Arena struct {
	pages    [][]byte
	pageSize int
}

// New creates an Arena with the default page size.
func New() *Arena {
	return &Arena{pageSize: defaultPageSize}
}

// NewSized creates an Arena whose pages are at least pageSize bytes.
func NewSized(pageSize int) *Arena {
	if pageSize <= 0 {
		pageSize = defaultPageSize
	}
	return &Arena{pageSize: pageSize}
}

func (a *Arena) currentPage() []byte {
	if len(a.pages) == 0 {
		return nil
	}
	return a.pages[len(a.pages)-1]
}

// Allocate returns a slice of length n backed by arena storage. The
// returned slice is valid until a DeallocateAfter call that rolls back
// past this allocation's checkpoint.
func (a *Arena) Allocate(n int) []byte {
	if n == 0 {
		return nil
	}
	cur := a.currentPage()
	if cur == nil || len(cur)+n > cap(cur) {
		size := a.pageSize
		if n > size {
			size = n
		}
		a.pages = append(a.pages, make([]byte, 0, size))
		cur = a.pages[len(a.pages)-1]
	}
	start := len(cur)
	cur = cur[:start+n]
	a.pages[len(a.pages)-1] = cur
	return cur[start : start+n : start+n]
}

// AllocateCopy allocates len(src) bytes and copies src into them.
func (a *Arena) AllocateCopy(src []byte) []byte {
	dst := a.Allocate(len(src))
	copy(dst, src)
	return dst
}

// Mark returns a Checkpoint capturing the arena's current allocation
// position.
func (a *Arena) Mark() Checkpoint {
	if len(a.pages) == 0 {
		return Checkpoint{page: 0, offset: 0}
	}
	return Checkpoint{page: len(a.pages) - 1, offset: len(a.pages[len(a.pages)-1])}
}

// DeallocateAfter releases all memory allocated since cp. Slices handed
// out after cp was taken must not be used after this call (§3.3 invariant:
// a row_ref is valid only while its backing storage remains alive).
func (a *Arena) DeallocateAfter(cp Checkpoint) {
	if len(a.pages) == 0 {
		return
	}
	if cp.page >= len(a.pages) {
		return
	}
	a.pages = a.pages[:cp.page+1]
	a.pages[cp.page] = a.pages[cp.page][:cp.offset]
}

// Reset releases all pages, equivalent to DeallocateAfter(zero
// checkpoint) but also drops page capacity back to nothing retained.
func (a *Arena) Reset() {
	a.pages = a.pages[:0]
}

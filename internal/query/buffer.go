package query

const defaultPageSize = 256

// Buffer is a sparse array of items addressed by absolute index, plus the
// collection total once a fetch has reported it. Storage is allocated in
// fixed-size pages on first write so far-apart windows stay cheap.
//
// Buffer is not synchronised; the owning instance guards it.
type Buffer[T any] struct {
	pages      [][]*T
	pageSize   int
	total      int
	totalKnown bool
}

// NewBuffer creates an empty buffer with unknown total
func NewBuffer[T any]() *Buffer[T] {
	return &Buffer[T]{pageSize: defaultPageSize}
}

// Total returns the collection size and whether it is known yet
func (b *Buffer[T]) Total() (int, bool) {
	return b.total, b.totalKnown
}

// SetTotal records the collection size reported by a fetch
func (b *Buffer[T]) SetTotal(total int) {
	b.total = total
	b.totalKnown = true
}

// Get returns the item at index, if one has been written there
func (b *Buffer[T]) Get(index int) (T, bool) {
	var zero T
	if index < 0 {
		return zero, false
	}
	page, slot := index/b.pageSize, index%b.pageSize
	if page >= len(b.pages) || b.pages[page] == nil || b.pages[page][slot] == nil {
		return zero, false
	}
	return *b.pages[page][slot], true
}

// Set stores v at index
func (b *Buffer[T]) Set(index int, v T) {
	if index < 0 {
		return
	}
	page, slot := index/b.pageSize, index%b.pageSize
	if page >= len(b.pages) {
		b.grow(page)
	}
	if b.pages[page] == nil {
		b.pages[page] = make([]*T, b.pageSize)
	}
	b.pages[page][slot] = &v
}

// Write stores items starting at offset
func (b *Buffer[T]) Write(offset int, items []T) {
	for i, v := range items {
		b.Set(offset+i, v)
	}
}

// Slice returns the contiguous run of present items in [offset, offset+limit),
// stopping at the first hole.
func (b *Buffer[T]) Slice(offset, limit int) []T {
	if offset < 0 {
		limit += offset
		offset = 0
	}
	if b.totalKnown && offset+limit > b.total {
		limit = b.total - offset
	}
	if limit <= 0 {
		return []T{}
	}
	out := make([]T, 0, limit)
	for i := offset; i < offset+limit; i++ {
		v, ok := b.Get(i)
		if !ok {
			break
		}
		out = append(out, v)
	}
	return out
}

// Remove deletes the item at index and shifts every later item left by one.
// It does not touch the total.
func (b *Buffer[T]) Remove(index int) {
	if index < 0 {
		return
	}
	first, slot := index/b.pageSize, index%b.pageSize
	for p := first; p < len(b.pages); p++ {
		var carry *T
		if p+1 < len(b.pages) && b.pages[p+1] != nil {
			carry = b.pages[p+1][0]
		}
		page := b.pages[p]
		if page == nil {
			if carry == nil {
				slot = 0
				continue
			}
			page = make([]*T, b.pageSize)
			b.pages[p] = page
		}
		copy(page[slot:], page[slot+1:])
		page[b.pageSize-1] = carry
		slot = 0
	}
}

// Reset drops every item and forgets the total
func (b *Buffer[T]) Reset() {
	b.pages = nil
	b.total = 0
	b.totalKnown = false
}

func (b *Buffer[T]) grow(page int) {
	size := max(page+1, len(b.pages)*2)
	pages := make([][]*T, size)
	copy(pages, b.pages)
	b.pages = pages
}

package recorder

// ring is a fixed-capacity circular buffer of 32-bit words. Appending past
// capacity silently overwrites the oldest words still present, the buffer
// is circular, never FIFO-blocking.
type ring struct {
	words    []uint32
	capacity int
	writePos uint64 // monotonically increasing total words ever written
}

// newRing returns a ring of the given capacity. If reserve is true, the
// backing array is allocated immediately; otherwise allocation is deferred
// to the first push, per TRACECORE_RESERVE_BUFFER.
func newRing(capacityWords int, reserve bool) *ring {
	if capacityWords < 1 {
		capacityWords = 1
	}
	r := &ring{capacity: capacityWords}
	if reserve {
		r.words = make([]uint32, capacityWords)
	}
	return r
}

func (r *ring) cap() int { return r.capacity }

// push appends a single word, overwriting the oldest word if the buffer is
// full.
func (r *ring) push(w uint32) {
	if r.words == nil {
		r.words = make([]uint32, r.capacity)
	}
	r.words[int(r.writePos%uint64(len(r.words)))] = w
	r.writePos++
}

// pushAll appends ws in order.
func (r *ring) pushAll(ws ...uint32) {
	for _, w := range ws {
		r.push(w)
	}
}

// reset clears all logical content without reallocating the backing array.
func (r *ring) reset() {
	r.writePos = 0
}

// logicalLen returns the number of words currently live in the buffer.
func (r *ring) logicalLen() int {
	if r.writePos >= uint64(len(r.words)) {
		return len(r.words)
	}
	return int(r.writePos)
}

// logicalStart returns the physical index of the oldest live word.
func (r *ring) logicalStart() int {
	if r.writePos <= uint64(len(r.words)) {
		return 0
	}
	return int(r.writePos % uint64(len(r.words)))
}

// at returns the word at logical offset i (0 is the oldest live word).
func (r *ring) at(i int) uint32 {
	return r.words[(r.logicalStart()+i)%len(r.words)]
}

// snapshotWords materializes the live words in logical (oldest-first) order.
// Used by Dump, which needs to scan forward for the empty-scope marker and
// then decode fixed-arity records without worrying about wraparound.
func (r *ring) snapshotWords() []uint32 {
	n := r.logicalLen()
	out := make([]uint32, n)
	for i := 0; i < n; i++ {
		out[i] = r.at(i)
	}
	return out
}

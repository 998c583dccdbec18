// Package bufbuilder implements the generic intrusive buffer the WTF
// emitter and recorder dump path use to assemble byte runs: amortized O(1)
// append, O(N) build. The underlying representation is a plain growable
// byte slice -- the spec leaves the representation unspecified and a slice
// is the idiomatic Go choice the pack's binary-format code (e.g. the
// teacher's own use of encoding/binary against byte buffers) consistently
// reaches for over a custom chunked list.
package bufbuilder

import "encoding/binary"

// Builder accumulates bytes for later use as a single contiguous slice.
type Builder struct {
	buf []byte
}

// New returns an empty Builder, optionally pre-sized to size bytes.
func New(size int) *Builder {
	return &Builder{buf: make([]byte, 0, size)}
}

// Append appends raw bytes.
func (b *Builder) Append(p []byte) {
	b.buf = append(b.buf, p...)
}

// AppendU32 appends v as four little-endian bytes.
func (b *Builder) AppendU32(v uint32) {
	var tmp [4]byte
	binary.LittleEndian.PutUint32(tmp[:], v)
	b.buf = append(b.buf, tmp[:]...)
}

// AppendU32s appends each value in vs as four little-endian bytes.
func (b *Builder) AppendU32s(vs ...uint32) {
	for _, v := range vs {
		b.AppendU32(v)
	}
}

// AppendU16 appends v as two little-endian bytes.
func (b *Builder) AppendU16(v uint16) {
	var tmp [2]byte
	binary.LittleEndian.PutUint16(tmp[:], v)
	b.buf = append(b.buf, tmp[:]...)
}

// AppendCString appends s followed by a single NUL terminator.
func (b *Builder) AppendCString(s string) {
	b.buf = append(b.buf, s...)
	b.buf = append(b.buf, 0)
}

// PadTo4 appends NUL bytes until the builder's length is a multiple of 4.
func (b *Builder) PadTo4() {
	for len(b.buf)%4 != 0 {
		b.buf = append(b.buf, 0)
	}
}

// Len returns the number of bytes accumulated so far.
func (b *Builder) Len() int { return len(b.buf) }

// Build returns the accumulated bytes. The Builder remains usable after
// Build is called.
func (b *Builder) Build() []byte {
	out := make([]byte, len(b.buf))
	copy(out, b.buf)
	return out
}

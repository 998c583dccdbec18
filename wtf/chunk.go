// Package wtf assembles the Web Tracing Framework binary trace format: a
// stream of magic-prefixed chunks, each holding one or more 4-byte-aligned
// parts. Chunk and part assembly uses encoding/binary exclusively, the same
// idiom the pack's fixed-layout binary decoding reaches for in the opposite
// direction.
package wtf

import "encoding/binary"

// Stream magic preceding every chunk.
const (
	magicA uint32 = 0xDEADBEEF
	magicB uint32 = 0xE8214400
	magicC uint32 = 10
)

// Part type tags.
const (
	PartTypeHeader uint32 = 0x10000
	PartTypeEvents uint32 = 0x20002
	PartTypeStrings uint32 = 0x30000
)

// Chunk id/type pairs.
const (
	ChunkIDTrace     uint32 = 1
	ChunkIDFileHeader uint32 = 2
	ChunkIDEventDefs uint32 = 3

	ChunkTypeHeader uint32 = 1
	ChunkTypeData   uint32 = 2
)

// part is one named payload inside a chunk.
type part struct {
	ptype   uint32
	payload []byte
}

func pad4(n int) int {
	if r := n % 4; r != 0 {
		return n + (4 - r)
	}
	return n
}

// buildChunk assembles chunkID/chunkType's header, part table, and payloads
// (each padded to a 4-byte boundary) and prepends the stream magic.
func buildChunk(chunkID, chunkType, startTime, endTime uint32, parts []part) []byte {
	partTableLen := 12 * len(parts)
	payloadLen := 0
	offsets := make([]int, len(parts))
	for i, p := range parts {
		offsets[i] = payloadLen
		payloadLen += pad4(len(p.payload))
	}
	headerLen := 24 // chunk_id, chunk_type, chunk_length, start_time, end_time, part_count
	chunkLength := uint32(headerLen + partTableLen + payloadLen)

	buf := make([]byte, 0, 12+int(chunkLength))
	buf = appendU32(buf, magicA, magicB, magicC)
	buf = appendU32(buf, chunkID, chunkType, chunkLength, startTime, endTime, uint32(len(parts)))
	for i, p := range parts {
		buf = appendU32(buf, p.ptype, uint32(offsets[i]), uint32(pad4(len(p.payload))))
	}
	for _, p := range parts {
		buf = append(buf, p.payload...)
		if padded := pad4(len(p.payload)); padded > len(p.payload) {
			buf = append(buf, make([]byte, padded-len(p.payload))...)
		}
	}
	return buf
}

func appendU32(buf []byte, vs ...uint32) []byte {
	var tmp [4]byte
	for _, v := range vs {
		binary.LittleEndian.PutUint32(tmp[:], v)
		buf = append(buf, tmp[:]...)
	}
	return buf
}

// Package rle encodes and decodes the block-update diff format from
// spec.md §6: a sequence of 6-byte entries (flatIndex u32 LE, count u8,
// blockId u8), each expanding to count consecutive voxel changes starting
// at flatIndex. This wire format is spec-defined, new code — but packing a
// batch of changes into a small run-length form instead of sending each one
// individually is the same instinct behind
// server/terrain/compressed/chunk.go's nibble-packed heightmap storage:
// trade a bit of CPU for wire compactness.
package rle

import (
	"encoding/binary"
	"errors"
	"sort"
)

// entrySize is the fixed size of one RLE entry: flatIndex(4) + count(1) + blockID(1).
const entrySize = 6

// maxRun is the largest run a single entry can describe (count is a u8).
const maxRun = 255

// ErrMalformed is returned when a byte slice is not a whole number of
// 6-byte entries.
var ErrMalformed = errors.New("rle: malformed entry stream")

// Change is one voxel mutation: the block at FlatIndex becomes BlockID.
type Change struct {
	FlatIndex uint32
	BlockID   byte
}

// Encode sorts changes by FlatIndex, coalesces contiguous runs of identical
// BlockID (capped at 255 per run), and writes the spec's 6-byte entry
// stream.
func Encode(changes []Change) []byte {
	if len(changes) == 0 {
		return nil
	}

	sorted := make([]Change, len(changes))
	copy(sorted, changes)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].FlatIndex < sorted[j].FlatIndex })

	var out []byte
	i := 0
	for i < len(sorted) {
		start := sorted[i]
		runLen := 1
		j := i + 1
		for j < len(sorted) &&
			runLen < maxRun &&
			sorted[j].FlatIndex == start.FlatIndex+uint32(runLen) &&
			sorted[j].BlockID == start.BlockID {
			runLen++
			j++
		}

		entry := make([]byte, entrySize)
		binary.LittleEndian.PutUint32(entry[0:], start.FlatIndex)
		entry[4] = byte(runLen)
		entry[5] = start.BlockID
		out = append(out, entry...)

		i = j
	}
	return out
}

// Decode expands an entry stream back into individual Changes, in the
// order the entries appear (which, for encoder output, is ascending
// FlatIndex order; a decoder must not assume that of arbitrary input).
func Decode(b []byte) ([]Change, error) {
	if len(b)%entrySize != 0 {
		return nil, ErrMalformed
	}
	var changes []Change
	for o := 0; o < len(b); o += entrySize {
		flatIndex := binary.LittleEndian.Uint32(b[o:])
		count := int(b[o+4])
		blockID := b[o+5]
		for k := 0; k < count; k++ {
			changes = append(changes, Change{FlatIndex: flatIndex + uint32(k), BlockID: blockID})
		}
	}
	return changes, nil
}

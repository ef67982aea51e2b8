// Package client is the predicted-movement counterpart to internal/game:
// no Go client exists anywhere in the retrieved corpus (mk48's browser
// client is TypeScript/WASM-host JS; server_wasm only forwards postMessage
// JSON, it contains no movement code), so this package is new, grounded
// only in spec.md §4.H and in internal/movement's shared integrator, which
// exists specifically so this package and internal/game apply identical
// movement math — the guarantee the teacher's own "must match the
// client's code" comment in world/entity.go calls for.
package client

import (
	"github.com/ashgrove/voxelkeep/internal/voxel"
)

// ChunkCache is the client's local copy of chunk heightmaps, keyed by
// chunk, just enough to run the same ground test the
// server runs (spec.md's "grounded" definition), without the server's
// full collider geometry.
type ChunkCache struct {
	heights map[voxel.Key][]int32
}

// NewChunkCache returns an empty cache.
func NewChunkCache() *ChunkCache {
	return &ChunkCache{heights: make(map[voxel.Key][]int32)}
}

// Store records a chunk's heightmap. chunkResponse messages carry voxels
// only, so the caller supplies the heightmap.
func (c *ChunkCache) Store(key voxel.Key, heightmap []int32) {
	c.heights[key] = heightmap
}

// HeightAt returns the column-top y for world column (x, z), using the
// High-LOD chunk covering it. ok is false if that chunk hasn't been
// received yet.
func (c *ChunkCache) HeightAt(x, z int32) (top int32, ok bool) {
	cx := floorDiv(x, voxel.HighWidth)
	cz := floorDiv(z, voxel.HighDepth)
	key := voxel.Key{CX: cx, CZ: cz, LOD: voxel.High}

	heightmap, known := c.heights[key]
	if !known {
		return 0, false
	}

	lx := x - cx*voxel.HighWidth
	lz := z - cz*voxel.HighDepth
	return heightmap[lx+lz*voxel.HighWidth], true
}

func floorDiv(a, b int32) int32 {
	q := a / b
	if (a%b != 0) && ((a < 0) != (b < 0)) {
		q--
	}
	return q
}

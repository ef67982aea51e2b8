// Package voxel defines the chunk data model: fixed-size voxel tiles keyed
// by (cx, cz, lod), their heightmaps, and collider-handle bookkeeping.
// Shaped after Leterax-go-voxels/pkg/voxel.Chunk, generalized from a
// client-side render chunk to a server-authoritative one with a heightmap
// and collider handle list instead of a mesh.
package voxel

import (
	"time"

	"github.com/ashgrove/voxelkeep/internal/physics"
)

// LOD is a level of detail. Only High and Low exist; Low is optional per spec.
type LOD uint8

const (
	High LOD = iota
	Low
)

// Dimensions at High LOD. Low halves each.
const (
	HighWidth  = 32
	HighDepth  = 32
	HighHeight = 128
)

// Dims returns the (width, depth, height) voxel-grid dimensions for lod.
func (lod LOD) Dims() (w, d, h int) {
	switch lod {
	case Low:
		return HighWidth / 2, HighDepth / 2, HighHeight / 2
	default:
		return HighWidth, HighDepth, HighHeight
	}
}

// BlockID identifies a voxel's material. 0 means air.
type BlockID uint8

const (
	Air   BlockID = 0
	Dirt  BlockID = 1
	Stone BlockID = 2
)

// Key uniquely identifies a chunk: distinct LODs of the same horizontal
// tile are distinct chunks, per spec.
type Key struct {
	CX, CZ int32
	LOD    LOD
}

// ColliderHandle is an opaque id minted by the physics package.
type ColliderHandle = physics.ColliderHandle

// Chunk is a fixed-size 3-D block of voxels occupying one horizontal tile.
type Chunk struct {
	Key Key

	// Voxels is indexed by (y*W*D + z*W + x).
	Voxels []BlockID

	// Heightmap is always at High-LOD (W*D) resolution regardless of the
	// chunk's own voxel LOD, per spec invariant.
	Heightmap []int32

	// ColliderHandles currently representing this chunk's solid geometry.
	// Empty means either "not yet built" or "retired, pending rebuild".
	ColliderHandles []ColliderHandle

	LastModified time.Time
	LastAccessed time.Time
	Generated    bool
}

// New allocates an ungenerated chunk for key.
func New(key Key) *Chunk {
	w, d, h := key.LOD.Dims()
	return &Chunk{
		Key:       key,
		Voxels:    make([]BlockID, w*d*h),
		Heightmap: make([]int32, HighWidth*HighDepth),
	}
}

func (c *Chunk) dims() (w, d, h int) {
	return c.Key.LOD.Dims()
}

// Index returns the flat voxel index for local coordinates (x, y, z).
func (c *Chunk) Index(x, y, z int) int {
	w, _, _ := c.dims()
	return y*w*w + z*w + x
}

// At returns the block at local coordinates, or Air if out of range.
func (c *Chunk) At(x, y, z int) BlockID {
	w, d, h := c.dims()
	if x < 0 || z < 0 || y < 0 || x >= w || z >= d || y >= h {
		return Air
	}
	return c.Voxels[c.Index(x, y, z)]
}

// Set sets the block at local coordinates and does not itself touch the
// heightmap or collider handles — callers recompute those explicitly, per
// the spec invariant that both are kept in sync after a mutation.
func (c *Chunk) Set(x, y, z int, id BlockID) {
	w, d, h := c.dims()
	if x < 0 || z < 0 || y < 0 || x >= w || z >= d || y >= h {
		return
	}
	c.Voxels[c.Index(x, y, z)] = id
}

// RecomputeColumnHeight recomputes the heightmap entry for one High-LOD
// column (hx, hz), scanning the chunk's own (possibly lower resolution)
// voxel grid. heightmap[x+z*W] = max{y | voxel != air}, or 0 if all air.
func (c *Chunk) RecomputeColumnHeight(hx, hz int) {
	w, d, h := c.dims()
	// Map the High-LOD column onto this chunk's own voxel-grid resolution.
	scaleX := float32(w) / HighWidth
	scaleZ := float32(d) / HighDepth
	lx := int(float32(hx) * scaleX)
	lz := int(float32(hz) * scaleZ)

	top := 0
	for y := h - 1; y >= 0; y-- {
		if c.At(lx, y, lz) != Air {
			// Rescale back to world-height units (High LOD's H) so the
			// heightmap stays resolution-independent, per spec.
			top = int(float32(y) * (HighHeight / float32(h)))
			break
		}
	}
	c.Heightmap[hx+hz*HighWidth] = int32(top)
}

// RecomputeAllHeights recomputes the entire W*D heightmap.
func (c *Chunk) RecomputeAllHeights() {
	for hz := 0; hz < HighDepth; hz++ {
		for hx := 0; hx < HighWidth; hx++ {
			c.RecomputeColumnHeight(hx, hz)
		}
	}
}

// HeightAt returns the column-top y for the High-LOD column (x, z).
func (c *Chunk) HeightAt(x, z int) int32 {
	if x < 0 || z < 0 || x >= HighWidth || z >= HighDepth {
		return 0
	}
	return c.Heightmap[x+z*HighWidth]
}

// WorldOrigin returns the world-space corner (minimum X, 0, minimum Z) of
// this chunk's horizontal tile, in High-LOD meters (1 voxel = 1 meter).
func (key Key) WorldOrigin() (x, z float32) {
	return float32(key.CX) * HighWidth, float32(key.CZ) * HighDepth
}

// Package collider builds cuboid colliders from a chunk's solid voxels via
// 3-D greedy meshing with exposure gating, and queues their creation and
// removal against the physics world in bounded per-tick batches. The
// "visited mask + greedy expand" shape is grounded in
// Leterax-go-voxels/pkg/voxel.GreedyMeshChunk, which does the same kind of
// mask-and-merge walk to build render quads; here the merge runs across
// all three axes at once (per spec.md §4.B) to produce solid cuboids for
// physics instead of per-face quads for rendering.
package collider

import (
	"log"

	"github.com/ashgrove/voxelkeep/internal/physics"
	"github.com/ashgrove/voxelkeep/internal/voxel"
	"github.com/ashgrove/voxelkeep/internal/world"
)

// Per-tick caps, per spec.
const (
	MaxCreatesPerTick = 1024
	MaxRemovesPerTick = 50
)

// CreateAction is a nullary action, queued so the physics world is only
// ever mutated on the simulation goroutine.
type CreateAction func()

// Queues holds the two collider FIFOs living on the world state (spec §3).
type Queues struct {
	toCreate []CreateAction
	toRemove []physics.ColliderHandle
}

// NewQueues returns empty queues.
func NewQueues() *Queues {
	return &Queues{}
}

// EnqueueCreate appends a to-create action.
func (q *Queues) EnqueueCreate(a CreateAction) {
	q.toCreate = append(q.toCreate, a)
}

// EnqueueRemove appends a handle to the to-remove queue.
func (q *Queues) EnqueueRemove(h physics.ColliderHandle) {
	q.toRemove = append(q.toRemove, h)
}

// PendingCreates reports the current to-create queue depth, used by the
// tick loop to know when initial-load collider creation has caught up.
func (q *Queues) PendingCreates() int {
	return len(q.toCreate)
}

// PendingRemoves reports the current to-remove queue depth.
func (q *Queues) PendingRemoves() int {
	return len(q.toRemove)
}

// DrainCreates runs up to MaxCreatesPerTick queued creation actions and
// returns how many ran.
func (q *Queues) DrainCreates(w *physics.World) int {
	n := len(q.toCreate)
	if n > MaxCreatesPerTick {
		n = MaxCreatesPerTick
	}
	for i := 0; i < n; i++ {
		q.toCreate[i]()
	}
	q.toCreate = append(q.toCreate[:0], q.toCreate[n:]...)
	return n
}

// DrainRemoves removes up to MaxRemovesPerTick queued collider handles
// from w. Missing handles are skipped with a debug log, per spec.
func (q *Queues) DrainRemoves(w *physics.World) int {
	n := len(q.toRemove)
	if n > MaxRemovesPerTick {
		n = MaxRemovesPerTick
	}
	for i := 0; i < n; i++ {
		if !w.RemoveCollider(q.toRemove[i], true) {
			log.Printf("collider: remove of missing handle %d skipped", q.toRemove[i])
		}
	}
	q.toRemove = append(q.toRemove[:0], q.toRemove[n:]...)
	return n
}

// Retire drains chunk's collider handles into the to-remove queue and
// clears the chunk's list, per spec's symmetric retirement contract.
func (q *Queues) Retire(c *voxel.Chunk) {
	for _, h := range c.ColliderHandles {
		q.EnqueueRemove(h)
	}
	c.ColliderHandles = c.ColliderHandles[:0]
}

// cuboid is one maximal axis-aligned solid region found by the greedy walk,
// expressed in local chunk voxel coordinates (half-open: [min, min+size)).
type cuboid struct {
	x, y, z          int
	width, height, depth int
}

// meshCuboids greedy-meshes chunk's solid voxels into a set of maximal
// cuboids, in local chunk voxel coordinates. Pure geometry, no physics
// World touched — kept separate from BuildInto so the meshing algorithm is
// unit-testable on its own.
func meshCuboids(c *voxel.Chunk) []cuboid {
	w, d, h := c.Key.LOD.Dims()

	visited := make([]bool, w*d*h)
	idx := func(x, y, z int) int { return y*w*d + z*w + x }

	isSolid := func(x, y, z int) bool {
		return c.At(x, y, z) != voxel.Air
	}
	isAirNeighbor := func(x, y, z int) bool {
		// Out-of-chunk -X/+X/-Z/+Z neighbors are conservatively air;
		// -Y at y=0 and +Y at y=H-1 are air, per spec.
		if x < 0 || x >= w || z < 0 || z >= d {
			return true
		}
		if y < 0 {
			return true
		}
		if y >= h {
			return true
		}
		return c.At(x, y, z) == voxel.Air
	}

	var cuboids []cuboid

	for y := 0; y < h; y++ {
		for z := 0; z < d; z++ {
			for x := 0; x < w; x++ {
				if visited[idx(x, y, z)] || !isSolid(x, y, z) {
					continue
				}

				exposed := isAirNeighbor(x-1, y, z) || isAirNeighbor(x+1, y, z) ||
					isAirNeighbor(x, y-1, z) || isAirNeighbor(x, y+1, z) ||
					isAirNeighbor(x, y, z-1) || isAirNeighbor(x, y, z+1)
				if !exposed {
					continue
				}

				id := c.At(x, y, z)

				// Expand +X.
				width := 1
				for x+width < w && !visited[idx(x+width, y, z)] && c.At(x+width, y, z) == id {
					width++
				}

				// Expand +Z over the whole width strip.
				depth := 1
			depthLoop:
				for z+depth < d {
					for dx := 0; dx < width; dx++ {
						if visited[idx(x+dx, y, z+depth)] || c.At(x+dx, y, z+depth) != id {
							break depthLoop
						}
					}
					depth++
				}

				// Expand +Y over the whole (width x depth) slab.
				height := 1
			heightLoop:
				for y+height < h {
					for dz := 0; dz < depth; dz++ {
						for dx := 0; dx < width; dx++ {
							if visited[idx(x+dx, y+height, z+dz)] || c.At(x+dx, y+height, z+dz) != id {
								break heightLoop
							}
						}
					}
					height++
				}

				for dy := 0; dy < height; dy++ {
					for dz := 0; dz < depth; dz++ {
						for dx := 0; dx < width; dx++ {
							visited[idx(x+dx, y+dy, z+dz)] = true
						}
					}
				}

				cuboids = append(cuboids, cuboid{x: x, y: y, z: z, width: width, height: height, depth: depth})
			}
		}
	}

	return cuboids
}

// BuildInto greedy-meshes chunk and enqueues real creation actions bound to
// w, appending each new handle to chunk.ColliderHandles. Each action, once
// run, appends the resulting handle — never executed synchronously during
// generation, per spec's contract.
func BuildInto(c *voxel.Chunk, q *Queues, w *physics.World) {
	chunkW, _, _ := c.Key.LOD.Dims()
	scale := float32(voxel.HighWidth) / float32(chunkW) // voxel size in world meters at this LOD
	originX, originZ := c.Key.WorldOrigin()

	for _, cb := range meshCuboids(c) {
		cb := cb
		halfExtents := world.Vec3{
			float32(cb.width) * scale * 0.5,
			float32(cb.height) * scale * 0.5,
			float32(cb.depth) * scale * 0.5,
		}
		center := world.Vec3{
			originX + (float32(cb.x)+float32(cb.width)*0.5)*scale,
			(float32(cb.y) + float32(cb.height)*0.5) * scale,
			originZ + (float32(cb.z)+float32(cb.depth)*0.5)*scale,
		}
		q.EnqueueCreate(func() {
			h := w.CreateCuboidCollider(physics.Cuboid{Center: center, HalfExtents: halfExtents})
			c.ColliderHandles = append(c.ColliderHandles, h)
		})
	}
}

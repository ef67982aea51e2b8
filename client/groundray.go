package client

import (
	"github.com/chewxy/math32"

	"github.com/ashgrove/voxelkeep/internal/world"
)

// GroundRay implements movement.Raycaster against the client's cached
// heightmaps instead of a physics world, using the server-authoritative
// ground-surface convention (column_top + 1) this spec's open-question
// resolution settled on (spec.md §9): "the spec adopts the server
// convention... client replay must use the same."
type GroundRay struct {
	Cache *ChunkCache
}

// RaycastDown reports whether origin is within maxToi of the ground
// surface directly below it, per the shared convention.
func (g GroundRay) RaycastDown(origin world.Vec3, maxToi float32) bool {
	top, ok := g.Cache.HeightAt(int32(math32.Floor(origin[0])), int32(math32.Floor(origin[2])))
	if !ok {
		return false
	}
	surface := float32(top) + 1
	dist := origin[1] - surface
	return dist >= 0 && dist <= maxToi
}

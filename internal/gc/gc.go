// Package gc implements proximity-based chunk garbage collection
// (spec.md §4.G). The "distance from a tile center, compare to a radius"
// test is the same shape as
// server/world/sector.sectorID.inRadius (there, deciding which 500 m
// sectors are near a boat; here, which chunks are near any player),
// generalized from one fixed tile size to whole-chunk tiles.
package gc

import (
	"github.com/chewxy/math32"

	"github.com/ashgrove/voxelkeep/internal/collider"
	"github.com/ashgrove/voxelkeep/internal/voxel"
)

// Radius is GC_RADIUS from spec.md: chunks farther than this from every
// active player, on the XZ plane, are retired.
const Radius = 500.0

// Store is the subset of chunkstore.Store gc needs, kept narrow so gc does
// not import chunkstore directly (avoids a needless dependency edge; both
// packages are consumed together by internal/game).
type Store interface {
	ForEach(fn func(*voxel.Chunk))
	Delete(key voxel.Key)
}

// PlayerPosition is one active player's current XZ position, for the
// distance test.
type PlayerPosition struct {
	X, Z float32
}

// Sweeper runs periodic proximity sweeps against a chunk store. Chunks
// marked deletable on a previous Sweep call but not yet deleted implement
// spec's "defer deletion one GC cycle" policy, so a chunk with creation
// actions still in flight from this same cycle is never deleted out from
// under them.
type Sweeper struct {
	marked map[voxel.Key]bool
}

// NewSweeper returns a Sweeper with no chunks yet marked.
func NewSweeper() *Sweeper {
	return &Sweeper{marked: make(map[voxel.Key]bool)}
}

// Sweep runs one GC pass (spec.md §4.G): chunks marked deletable on the
// *previous* Sweep call and still deletable now are retired through q and
// deleted from store; every other deletable chunk is (re)marked for next
// time. This realizes spec's "defer deletion one cycle" policy without a
// chunk ever being deleted on the same cycle its colliders first finish
// building.
func (s *Sweeper) Sweep(store Store, q *collider.Queues, players []PlayerPosition) {
	nextMarked := make(map[voxel.Key]bool)

	store.ForEach(func(c *voxel.Chunk) {
		if !deletable(c, players) {
			return
		}
		nextMarked[c.Key] = true
		if s.marked[c.Key] {
			q.Retire(c)
			store.Delete(c.Key)
		}
	})

	s.marked = nextMarked
}

func deletable(c *voxel.Chunk, players []PlayerPosition) bool {
	if len(players) == 0 {
		return true
	}

	originX, originZ := c.Key.WorldOrigin()
	// WorldOrigin is in High-LOD meters, so the tile is HighWidth x
	// HighDepth meters wide at every LOD.
	centerX := originX + float32(voxel.HighWidth)/2
	centerZ := originZ + float32(voxel.HighDepth)/2

	for _, p := range players {
		if math32.Hypot(p.X-centerX, p.Z-centerZ) < Radius {
			return false
		}
	}
	return true
}

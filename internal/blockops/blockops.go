// Package blockops validates and applies mine/place requests (spec.md
// §4.F): a closed validation pipeline producing a typed wireerr.Error that
// always echoes the request's seq, matching how registerOutbound keeps
// per-client failures unicast rather than broadcast, and how the teacher's
// Inbound.Inbound methods each return early on the first invalid
// precondition.
package blockops

import (
	"github.com/ashgrove/voxelkeep/internal/collider"
	"github.com/ashgrove/voxelkeep/internal/physics"
	"github.com/ashgrove/voxelkeep/internal/rle"
	"github.com/ashgrove/voxelkeep/internal/voxel"
	"github.com/ashgrove/voxelkeep/internal/wireerr"
)

// World horizontal/vertical bounds. spec.md §4.F requires rejecting
// requests outside "the world AABB" but leaves WORLD_MIN/WORLD_MAX
// unspecified; Y is naturally bounded by chunk height (voxels outside
// [0, HighHeight) cannot exist in any chunk), and the horizontal bound is
// set generously wide so it only rejects obviously-bogus coordinates, never
// legitimate far-flung play — resolution recorded in DESIGN.md.
const (
	WorldMinXZ = -1_000_000
	WorldMaxXZ = 1_000_000
	WorldMinY  = 0
	WorldMaxY  = voxel.HighHeight - 1
)

// Request is a decoded mineBlock/placeBlock command (spec.md §6).
type Request struct {
	Seq    uint32
	X, Y, Z int32
	// BlockID is the id to place; zero (mine) is always valid as a request
	// value, meaning is decided by Mine vs Place below.
	BlockID voxel.BlockID
}

// Result reports what happened to a successful request, for building the
// blockUpdate broadcast.
type Result struct {
	ChunkKey voxel.Key
	Change   rle.Change
	// NoOp is true when the voxel already held the requested value
	// (spec's idempotence rule): success, but no broadcast or rebuild.
	NoOp bool
}

func validateCoordinates(req Request) *wireerr.Error {
	if req.X < WorldMinXZ || req.X > WorldMaxXZ || req.Z < WorldMinXZ || req.Z > WorldMaxXZ {
		return wireerr.New(req.Seq, wireerr.OutOfBounds, "coordinate outside world bounds")
	}
	if req.Y < WorldMinY || req.Y > WorldMaxY {
		return wireerr.New(req.Seq, wireerr.OutOfBounds, "coordinate outside world bounds")
	}
	return nil
}

// Validate runs the same precondition check apply runs before ever
// touching the chunk store, so a caller can reject a request without
// resolving (and so without waiting on) its target chunk at all.
func Validate(req Request) *wireerr.Error {
	return validateCoordinates(req)
}

// KeyFor resolves the chunk key a request falls into, so a caller can
// look the chunk up (and wait for it asynchronously) before calling
// Mine/Place with the resolved chunk.
func KeyFor(req Request) voxel.Key {
	key, _, _, _ := chunkAndLocal(req.X, req.Y, req.Z)
	return key
}

// chunkAndLocal resolves a world voxel coordinate to its owning High-LOD
// chunk key and local-to-chunk voxel coordinates.
func chunkAndLocal(x, y, z int32) (key voxel.Key, lx, ly, lz int) {
	cx := floorDiv(x, voxel.HighWidth)
	cz := floorDiv(z, voxel.HighDepth)
	key = voxel.Key{CX: cx, CZ: cz, LOD: voxel.High}
	lx = int(x - cx*voxel.HighWidth)
	ly = int(y)
	lz = int(z - cz*voxel.HighDepth)
	return
}

func floorDiv(a, b int32) int32 {
	q := a / b
	if (a%b != 0) && ((a < 0) != (b < 0)) {
		q--
	}
	return q
}

// Mine validates and applies a mineBlock request against an already
// resolved chunk: set target to air. The caller is responsible for
// resolving req's chunk (see KeyFor) without blocking the simulation
// goroutine; apply itself never waits on chunk generation.
func Mine(chunk *voxel.Chunk, q *collider.Queues, w *physics.World, req Request) (*Result, *wireerr.Error) {
	return apply(chunk, q, w, req, voxel.Air)
}

// Place validates and applies a placeBlock request against an already
// resolved chunk: set target to req.BlockID, which must be nonzero and the
// target cell must currently be air.
func Place(chunk *voxel.Chunk, q *collider.Queues, w *physics.World, req Request) (*Result, *wireerr.Error) {
	if req.BlockID == voxel.Air {
		return nil, wireerr.New(req.Seq, wireerr.InvalidBlockID, "place requires a nonzero block id")
	}
	return apply(chunk, q, w, req, req.BlockID)
}

func apply(chunk *voxel.Chunk, q *collider.Queues, w *physics.World, req Request, target voxel.BlockID) (*Result, *wireerr.Error) {
	if werr := validateCoordinates(req); werr != nil {
		return nil, werr
	}

	key, lx, ly, lz := chunkAndLocal(req.X, req.Y, req.Z)

	current := chunk.At(lx, ly, lz)

	if target != voxel.Air && current != voxel.Air {
		return nil, wireerr.New(req.Seq, wireerr.BlockOccupied, "target cell is not air")
	}

	if current == target {
		// Idempotent no-op: success, but no broadcast or rebuild, per spec.
		return &Result{ChunkKey: key, NoOp: true}, nil
	}

	chunk.Set(lx, ly, lz, target)
	chunk.RecomputeColumnHeight(lx, lz)

	q.Retire(chunk)
	collider.BuildInto(chunk, q, w)

	flatIndex := uint32(chunk.Index(lx, ly, lz))
	return &Result{
		ChunkKey: key,
		Change:   rle.Change{FlatIndex: flatIndex, BlockID: byte(target)},
	}, nil
}

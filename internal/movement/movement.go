// Package movement is the single pure-function movement integrator shared
// by the server (internal/game, with a real physics.World raycast) and the
// client (client package, replaying predicted steps with no physics world
// of its own). Factoring it out this way is how this spec satisfies the
// "client runs the same movement math as the server" requirement the
// teacher's world/entity.go states directly in a comment ("The following
// movement-related code must match the client's code") — the teacher keeps
// that code in one file because its client and server share a language
// build; we keep it in one importable package for the same reason.
package movement

import (
	"github.com/chewxy/math32"

	"github.com/ashgrove/voxelkeep/internal/world"
)

// Authoritative movement constants (spec.md §4.D).
const (
	MaxSpeed   = 6.0  // m/s, ground
	FlySpeed   = 10.0 // m/s, flying
	JumpV      = 7.0  // m/s, jump impulse
	GroundDamp = 0.90 // per tick, applied to horizontal velocity when idle and grounded
	AirDamp    = 0.99 // per tick, applied to horizontal velocity when idle and airborne

	// GroundTestMaxToi is the max downward raycast distance used both to
	// decide jump eligibility and to report isGrounded in snapshots.
	GroundTestMaxToi = 0.15
	// GroundTestSkin nudges the raycast origin up from the capsule's exact
	// bottom so the ray doesn't start embedded in the surface it's testing.
	GroundTestSkin = 0.01

	// IntentEpsilon is the minimum rotated-intent magnitude treated as
	// "the player wants to move"; below it, existing velocity is damped
	// instead of replaced.
	IntentEpsilon = 1e-4
)

// Raycaster abstracts the downward ground-test ray. The server implements
// it with internal/physics.World; the client has no physics world and
// instead implements it against its own local chunk/heightmap cache.
type Raycaster interface {
	// RaycastDown returns whether a downward ray from origin, capped at
	// maxToi meters, hits solid ground.
	RaycastDown(origin world.Vec3, maxToi float32) bool
}

// Input is one decoded player input frame (spec.md §3/§6 PlayerInput),
// already validated as all-finite by the caller.
type Input struct {
	Seq           uint32
	IntentX       float32
	IntentZ       float32
	Yaw           float32
	JumpPressed   bool
	FlyDownPressed bool
	IsFlying      bool
}

// State is the subset of player state movement reads and writes. Position
// is supplied by the caller (read from the physics body or the client's
// local prediction state) and Velocity is both read and written.
type State struct {
	Position world.Vec3
	Velocity world.Vec3
}

// Result reports the values movement computed for bookkeeping: the
// isGrounded reading taken during this step (using the same raycast a
// snapshot would use) and whether velocity was actually written (it is
// skipped, per spec, if any computed component is not finite).
type Result struct {
	IsGrounded  bool
	VelocityApplied bool
}

// HalfHeight is the player capsule's half-height (spec.md §3: total height
// 1.8 m), used to place the ground-test ray origin at the capsule bottom.
const HalfHeight = 0.9

// Step applies one fixed-tick movement update to state given in, following
// spec.md §4.D exactly: rotate intent by yaw, pick ground/fly branch, run
// the ground test through rc, and write the resulting velocity back into s.
//
// The ground test is run before picking ground-branch damping so the
// "existing velocity multiplied by a damp factor" case can use AIR_DAMP
// while airborne and GROUND_DAMP while grounded — spec.md defines both
// constants but only narrates the grounded case in prose; resting an idle
// airborne player's horizontal velocity at the slower AIR_DAMP rate is the
// reading consistent with defining the constant at all. Decision recorded
// in DESIGN.md.
func Step(rc Raycaster, s *State, in Input) Result {
	rotX, rotZ := rotateYaw(in.IntentX, in.IntentZ, in.Yaw)

	grounded := groundTest(rc, s.Position)

	var newVel world.Vec3
	if in.IsFlying {
		newVel = flyingVelocity(rotX, rotZ, in)
	} else {
		newVel = groundedVelocity(s.Velocity, rotX, rotZ, grounded, in)
	}

	applied := false
	if world.Finite(newVel) {
		s.Velocity = newVel
		applied = true
	}

	return Result{IsGrounded: grounded, VelocityApplied: applied}
}

// rotateYaw rotates a local XZ intent vector by yaw around Y, matching the
// client's camera-yaw convention (Y-up, per spec.md §4.D).
func rotateYaw(ix, iz, yaw float32) (x, z float32) {
	return world.RotateYawXZ(ix, iz, yaw)
}

func groundedVelocity(current world.Vec3, rotX, rotZ float32, grounded bool, in Input) world.Vec3 {
	mag := math32.Hypot(rotX, rotZ)

	v := current
	if mag > IntentEpsilon {
		nx, nz := rotX/mag, rotZ/mag
		v[0] = nx * MaxSpeed
		v[2] = nz * MaxSpeed
	} else {
		damp := float32(GroundDamp)
		if !grounded {
			damp = AirDamp
		}
		v[0] *= damp
		v[2] *= damp
	}

	if grounded && in.JumpPressed {
		v[1] = JumpV
	}
	// Otherwise Y is left untouched; the physics step integrates gravity.
	return v
}

func flyingVelocity(rotX, rotZ float32, in Input) world.Vec3 {
	v := world.Vec3{rotX * FlySpeed, 0, rotZ * FlySpeed}
	switch {
	case in.JumpPressed:
		v[1] = FlySpeed / 2
	case in.FlyDownPressed:
		v[1] = -FlySpeed / 2
	default:
		v[1] = 0
	}
	return v
}

func groundTest(rc Raycaster, position world.Vec3) bool {
	origin := position
	origin[1] = position[1] - HalfHeight + GroundTestSkin
	return rc.RaycastDown(origin, GroundTestMaxToi)
}

// ClampFlyingY is the per-tick post-step correction (spec.md §4.E step 6 /
// §4.D flying-branch note): zeroes any residual Y velocity a flying
// player's body picked up from collision response during the physics step.
func ClampFlyingY(v *world.Vec3) {
	v[1] = 0
}

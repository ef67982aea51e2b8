package client

import (
	"github.com/chewxy/math32"

	"github.com/ashgrove/voxelkeep/internal/movement"
	"github.com/ashgrove/voxelkeep/internal/wire"
	"github.com/ashgrove/voxelkeep/internal/world"
)

// reconcileSnapToleranceMeters is the "skip replay" gate (spec.md §4.H):
// when the server reports the local player grounded and the predicted
// position is already this close to the authoritative one, replaying
// every pending input is pure wasted work.
const reconcileSnapToleranceMeters = 0.3

// RemotePlayer is the client's view of another player, taken verbatim from
// the latest snapshot — never predicted (spec.md §4.H: "Remote players are
// not predicted").
type RemotePlayer struct {
	ID         string
	Position   world.Vec3
	Velocity   world.Vec3
	Yaw        float32
	IsGrounded bool
	IsFlying   bool
}

// Predictor holds the local player's predicted movement state plus the
// set of known remote players, and implements spec.md §4.H's client-side
// prediction and reconciliation loop. One Predictor per connection.
type Predictor struct {
	localID string
	cache   *ChunkCache
	rc      movement.Raycaster

	local   movement.State
	nextSeq uint32
	pending *pendingBuffer

	isFlying bool

	remotes map[string]*RemotePlayer
}

// NewPredictor returns a Predictor for localID, starting at spawn.
func NewPredictor(localID string, cache *ChunkCache, spawn world.Vec3) *Predictor {
	return &Predictor{
		localID: localID,
		cache:   cache,
		rc:      GroundRay{Cache: cache},
		local:   movement.State{Position: spawn},
		pending: newPendingBuffer(),
		remotes: make(map[string]*RemotePlayer),
	}
}

// Position returns the local player's current predicted position.
func (p *Predictor) Position() world.Vec3 {
	return p.local.Position
}

// Remotes returns the current known remote players, keyed by id.
func (p *Predictor) Remotes() map[string]*RemotePlayer {
	return p.remotes
}

// LocalInput builds the next outbound PlayerInput from raw intent, advances
// the local prediction by one fixed tick, and records it as pending,
// returning the encodable frame to send over the wire.
func (p *Predictor) LocalInput(intentX, intentZ, yaw float32, jump, flyDown, isFlying bool) wire.PlayerInput {
	p.nextSeq++
	seq := p.nextSeq
	p.isFlying = isFlying

	in := movement.Input{
		Seq: seq, IntentX: intentX, IntentZ: intentZ, Yaw: yaw,
		JumpPressed: jump, FlyDownPressed: flyDown, IsFlying: isFlying,
	}

	p.applyFixedStep(in)
	p.pending.Push(PendingInput{Seq: seq, Input: in})

	return wire.NewPlayerInput(seq, intentX, 0, intentZ, yaw, jump, flyDown, isFlying)
}

// applyFixedStep runs the shared integrator and advances position by the
// velocity it computes over one tick, mirroring the server's physics-step
// integration closely enough for prediction purposes (spec.md §4.H).
func (p *Predictor) applyFixedStep(in movement.Input) movement.Result {
	res := movement.Step(p.rc, &p.local, in)
	dt := float32(world.TickPeriod.Seconds())
	p.local.Position[0] += p.local.Velocity[0] * dt
	p.local.Position[1] += p.local.Velocity[1] * dt
	p.local.Position[2] += p.local.Velocity[2] * dt
	if p.isFlying {
		movement.ClampFlyingY(&p.local.Velocity)
	}
	return res
}

// Reconcile applies one received Snapshot, per spec.md §4.H steps 1-4:
// overwrite the local player's position and velocity from the authoritative
// record, drop acked pending inputs, and replay the remainder unless the
// skip-replay gate applies. Remote players are spawned, updated, or
// despawned (absence from this snapshot removes them) without prediction.
func (p *Predictor) Reconcile(snap wire.Snapshot) {
	seen := make(map[string]bool, len(snap.Players()))

	for _, ps := range snap.Players() {
		seen[ps.ID()] = true

		if ps.ID() == p.localID {
			p.reconcileLocal(ps)
			continue
		}

		x, y, z := ps.Position()
		vx, vy, vz := ps.Velocity()
		r := p.remotes[ps.ID()]
		if r == nil {
			r = &RemotePlayer{ID: ps.ID()}
			p.remotes[ps.ID()] = r
		}
		r.Position = world.Vec3{x, y, z}
		r.Velocity = world.Vec3{vx, vy, vz}
		r.Yaw = ps.Yaw()
		r.IsGrounded = ps.IsGrounded()
		r.IsFlying = ps.IsFlying()
	}

	for id := range p.remotes {
		if !seen[id] {
			delete(p.remotes, id)
		}
	}
}

func (p *Predictor) reconcileLocal(ps wire.PlayerState) {
	x, y, z := ps.Position()
	vx, vy, vz := ps.Velocity()
	authoritative := world.Vec3{x, y, z}

	predicted := p.local.Position
	p.local.Position = authoritative
	p.local.Velocity = world.Vec3{vx, vy, vz}

	p.pending.DropAcked(ps.LastAck())

	if ps.IsGrounded() && !ps.IsFlying() {
		delta := distance(predicted, authoritative)
		if delta < reconcileSnapToleranceMeters {
			return
		}
	}

	for _, pi := range p.pending.All() {
		p.applyFixedStep(pi.Input)
	}
}

func distance(a, b world.Vec3) float32 {
	dx, dy, dz := a[0]-b[0], a[1]-b[1], a[2]-b[2]
	return math32.Sqrt(dx*dx + dy*dy + dz*dz)
}

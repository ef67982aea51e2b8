package game

import (
	"github.com/ashgrove/voxelkeep/internal/physics"
)

// Player is one connected player's authoritative server-side state
// (spec.md §3). Position and linear velocity are deliberately not stored
// here — they are read from the physics body, matching spec's "not
// duplicated" invariant. A player's collision shape is the capsule body
// itself; there is no separate collider handle to track.
type Player struct {
	ID string

	// Body is unset (zero) until the player has been moved out of the
	// awaiting-init list (spec.md §4.C).
	Body    physics.BodyHandle
	HasBody bool

	LastProcessedInputSeq uint32
	LastYaw               float32
	IsFlying              bool
	// HadMovementIntent records whether the most recent input frame's
	// raw XZ intent was nonzero, for logging only (spec.md §3).
	HadMovementIntent bool

	// AwaitingInit is true from connection until the tick loop moves this
	// player into the active map (spec.md §4.C).
	AwaitingInit   bool
	SpawnX, SpawnZ float32
}

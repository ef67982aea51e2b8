package movement

import (
	"math"
	"testing"

	"github.com/ashgrove/voxelkeep/internal/world"
)

type fakeGround struct {
	hit bool
}

func (f fakeGround) RaycastDown(world.Vec3, float32) bool {
	return f.hit
}

func TestStepGroundedIdleDamps(t *testing.T) {
	s := &State{Position: world.Vec3{0, 1, 0}, Velocity: world.Vec3{3, 0, 2}}
	res := Step(fakeGround{hit: true}, s, Input{Seq: 1})

	if !res.IsGrounded {
		t.Fatalf("expected grounded")
	}
	damp := float32(GroundDamp)
	if s.Velocity[0] != 3*damp || s.Velocity[2] != 2*damp {
		t.Fatalf("expected ground damp applied, got %v", s.Velocity)
	}
}

func TestStepAirborneIdleDampsAtAirRate(t *testing.T) {
	s := &State{Position: world.Vec3{0, 10, 0}, Velocity: world.Vec3{3, 0, 2}}
	res := Step(fakeGround{hit: false}, s, Input{Seq: 1})

	if res.IsGrounded {
		t.Fatalf("expected airborne")
	}
	if s.Velocity[0] != 3*AirDamp || s.Velocity[2] != 2*AirDamp {
		t.Fatalf("expected air damp applied, got %v", s.Velocity)
	}
}

func TestStepGroundedIntentSetsMaxSpeed(t *testing.T) {
	s := &State{Position: world.Vec3{0, 1, 0}}
	Step(fakeGround{hit: true}, s, Input{Seq: 1, IntentZ: 1})

	mag := world.HorizontalLength(s.Velocity)
	if mag < MaxSpeed-1e-3 || mag > MaxSpeed+1e-3 {
		t.Fatalf("expected horizontal speed %v, got %v", MaxSpeed, mag)
	}
}

func TestStepGroundedJumpSetsVerticalVelocity(t *testing.T) {
	s := &State{Position: world.Vec3{0, 1, 0}}
	Step(fakeGround{hit: true}, s, Input{Seq: 1, JumpPressed: true})

	if s.Velocity[1] != JumpV {
		t.Fatalf("expected jump velocity %v, got %v", JumpV, s.Velocity[1])
	}
}

func TestStepJumpIgnoredWhileAirborne(t *testing.T) {
	s := &State{Position: world.Vec3{0, 10, 0}, Velocity: world.Vec3{0, -2, 0}}
	Step(fakeGround{hit: false}, s, Input{Seq: 1, JumpPressed: true})

	if s.Velocity[1] != -2 {
		t.Fatalf("expected jump ignored while airborne, velocity.y changed to %v", s.Velocity[1])
	}
}

func TestStepFlyingUsesFlySpeedAndIgnoresGround(t *testing.T) {
	s := &State{Position: world.Vec3{0, 1, 0}}
	Step(fakeGround{hit: true}, s, Input{Seq: 1, IntentX: 1, IsFlying: true, JumpPressed: true})

	if s.Velocity[0] != FlySpeed {
		t.Fatalf("expected fly speed %v, got %v", FlySpeed, s.Velocity[0])
	}
	if s.Velocity[1] != FlySpeed/2 {
		t.Fatalf("expected ascend velocity %v, got %v", FlySpeed/2, s.Velocity[1])
	}
}

func TestStepFlyingDescend(t *testing.T) {
	s := &State{Position: world.Vec3{0, 1, 0}}
	Step(fakeGround{hit: false}, s, Input{Seq: 1, IsFlying: true, FlyDownPressed: true})

	if s.Velocity[1] != -FlySpeed/2 {
		t.Fatalf("expected descend velocity %v, got %v", -FlySpeed/2, s.Velocity[1])
	}
}

func TestStepNonFiniteVelocityNotApplied(t *testing.T) {
	nan := float32(0)
	nan = nan / nan

	s := &State{Position: world.Vec3{0, 1, 0}, Velocity: world.Vec3{nan, 0, 0}}
	before := s.Velocity
	res := Step(fakeGround{hit: true}, s, Input{Seq: 1})

	if res.VelocityApplied {
		t.Fatalf("expected non-finite velocity to be rejected")
	}
	for i := range before {
		if math.Float32bits(s.Velocity[i]) != math.Float32bits(before[i]) {
			t.Fatalf("expected velocity unchanged on rejection")
		}
	}
}

func TestClampFlyingYZeroesVelocity(t *testing.T) {
	v := world.Vec3{1, 5, 1}
	ClampFlyingY(&v)
	if v[1] != 0 {
		t.Fatalf("expected y zeroed, got %v", v[1])
	}
}

package client

import (
	"testing"

	"github.com/ashgrove/voxelkeep/internal/voxel"
	"github.com/ashgrove/voxelkeep/internal/wire"
	"github.com/ashgrove/voxelkeep/internal/world"
)

func flatHeightmap(top int32) []int32 {
	hm := make([]int32, voxel.HighWidth*voxel.HighDepth)
	for i := range hm {
		hm[i] = top
	}
	return hm
}

func TestChunkCacheHeightAt(t *testing.T) {
	cache := NewChunkCache()
	cache.Store(voxel.Key{CX: 0, CZ: 0, LOD: voxel.High}, flatHeightmap(10))

	top, ok := cache.HeightAt(5, 5)
	if !ok || top != 10 {
		t.Fatalf("expected (10, true), got (%d, %v)", top, ok)
	}

	_, ok = cache.HeightAt(1000, 1000)
	if ok {
		t.Fatalf("expected unknown chunk to report not-ok")
	}
}

func TestGroundRayHitsWithinTolerance(t *testing.T) {
	cache := NewChunkCache()
	cache.Store(voxel.Key{CX: 0, CZ: 0, LOD: voxel.High}, flatHeightmap(10))
	rc := GroundRay{Cache: cache}

	if !rc.RaycastDown(world.Vec3{0, 11.05, 0}, 0.15) {
		t.Fatalf("expected ground hit just above the surface")
	}
	if rc.RaycastDown(world.Vec3{0, 20, 0}, 0.15) {
		t.Fatalf("expected no hit far above the surface")
	}
}

func TestLocalInputAdvancesPositionAndBuffersPending(t *testing.T) {
	cache := NewChunkCache()
	cache.Store(voxel.Key{CX: 0, CZ: 0, LOD: voxel.High}, flatHeightmap(0))
	p := NewPredictor("local", cache, world.Vec3{0, 1, 0})

	in := p.LocalInput(0, 1, 0, false, false, false)
	if in.Seq() != 1 {
		t.Fatalf("expected seq 1, got %d", in.Seq())
	}
	if len(p.pending.All()) != 1 {
		t.Fatalf("expected one pending input, got %d", len(p.pending.All()))
	}
	if p.Position() == (world.Vec3{0, 1, 0}) {
		t.Fatalf("expected predicted position to advance from spawn, got %v", p.Position())
	}
}

func TestReconcileDropsAckedAndOverwritesPosition(t *testing.T) {
	cache := NewChunkCache()
	cache.Store(voxel.Key{CX: 0, CZ: 0, LOD: voxel.High}, flatHeightmap(0))
	p := NewPredictor("local", cache, world.Vec3{0, 1, 0})

	p.LocalInput(0, 1, 0, false, false, false) // seq 1
	p.LocalInput(0, 1, 0, false, false, false) // seq 2
	p.LocalInput(0, 1, 0, false, false, false) // seq 3

	snap := wire.NewSnapshot(10, []wire.PlayerState{
		wire.NewPlayerState("local", 0, 5, 0, 0, 0, 0, 0, false, false, 2),
	})
	p.Reconcile(snap)

	if len(p.pending.All()) != 1 {
		t.Fatalf("expected 1 pending input left (seq 3), got %d", len(p.pending.All()))
	}
	if p.pending.All()[0].Seq != 3 {
		t.Fatalf("expected remaining pending seq 3, got %d", p.pending.All()[0].Seq)
	}
	if pos := p.Position(); pos[1] != 5 {
		t.Fatalf("expected local y overwritten to the authoritative 5, got %v", pos[1])
	}
}

func TestReconcileSkipsReplayWhenGroundedAndClose(t *testing.T) {
	cache := NewChunkCache()
	cache.Store(voxel.Key{CX: 0, CZ: 0, LOD: voxel.High}, flatHeightmap(0))
	p := NewPredictor("local", cache, world.Vec3{0, 1, 0})

	p.LocalInput(0, 1, 0, false, false, false) // seq 1
	p.LocalInput(0, 1, 0, false, false, false) // seq 2
	predictedBefore := p.Position()

	snap := wire.NewSnapshot(1, []wire.PlayerState{
		wire.NewPlayerState("local", predictedBefore[0], predictedBefore[1], predictedBefore[2], 0, 0, 0, 0, true, false, 1),
	})
	p.Reconcile(snap)

	if len(p.pending.All()) != 1 {
		t.Fatalf("expected only unacked seq 2 left pending, got %d", len(p.pending.All()))
	}
	if p.Position() != predictedBefore {
		t.Fatalf("expected replay skipped (position %v kept), got %v", predictedBefore, p.Position())
	}
}

func TestReconcileSpawnsAndDespawnsRemotes(t *testing.T) {
	cache := NewChunkCache()
	p := NewPredictor("local", cache, world.Vec3{0, 1, 0})

	snap := wire.NewSnapshot(1, []wire.PlayerState{
		wire.NewPlayerState("remote1", 1, 2, 3, 0, 0, 0, 0, false, false, 0),
	})
	p.Reconcile(snap)
	if _, ok := p.Remotes()["remote1"]; !ok {
		t.Fatalf("expected remote1 to be spawned")
	}

	empty := wire.NewSnapshot(2, nil)
	p.Reconcile(empty)
	if _, ok := p.Remotes()["remote1"]; ok {
		t.Fatalf("expected remote1 to be despawned after absence")
	}
}

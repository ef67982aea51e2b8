package blockops

import (
	"testing"
	"time"

	"github.com/ashgrove/voxelkeep/internal/chunkstore"
	"github.com/ashgrove/voxelkeep/internal/collider"
	"github.com/ashgrove/voxelkeep/internal/physics"
	"github.com/ashgrove/voxelkeep/internal/voxel"
)

func newTestStore(t *testing.T) *chunkstore.Store {
	t.Helper()
	s := chunkstore.New(1, nil)
	t.Cleanup(s.Close)
	return s
}

func waitForChunk(t *testing.T, store *chunkstore.Store, key voxel.Key) *voxel.Chunk {
	t.Helper()
	future := store.GetOrCreate(key)
	deadline := time.After(2 * time.Second)
	for {
		store.Drain()
		select {
		case <-future.Done():
			c, err := future.Wait()
			if err != nil {
				t.Fatalf("unexpected generation error: %v", err)
			}
			return c
		case <-deadline:
			t.Fatalf("timed out waiting for chunk generation")
		default:
			time.Sleep(time.Millisecond)
		}
	}
}

func TestMineSetsTargetToAir(t *testing.T) {
	store := newTestStore(t)
	key := voxel.Key{CX: 0, CZ: 0, LOD: voxel.High}
	chunk := waitForChunk(t, store, key)

	// Find a solid voxel near the bottom to mine.
	x, y, z := int32(0), int32(0), int32(0)
	if chunk.At(0, 0, 0) == voxel.Air {
		t.Fatalf("expected bottom voxel to be solid for this test to be meaningful")
	}

	q := collider.NewQueues()
	w := physics.New()

	result, werr := Mine(chunk, q, w, Request{Seq: 1, X: x, Y: y, Z: z})
	if werr != nil {
		t.Fatalf("unexpected error: %v", werr)
	}
	if result.NoOp {
		t.Fatalf("expected a real mutation, got NoOp")
	}
	if chunk.At(0, 0, 0) != voxel.Air {
		t.Fatalf("expected voxel to become air")
	}
}

func TestMineIsIdempotent(t *testing.T) {
	store := newTestStore(t)
	key := voxel.Key{CX: 0, CZ: 0, LOD: voxel.High}
	chunk := waitForChunk(t, store, key)

	q := collider.NewQueues()
	w := physics.New()

	// Find an air voxel (top of the chunk is always air).
	req := Request{Seq: 1, X: 0, Y: voxel.HighHeight - 1, Z: 0}
	result, werr := Mine(chunk, q, w, req)
	if werr != nil {
		t.Fatalf("unexpected error: %v", werr)
	}
	if !result.NoOp {
		t.Fatalf("expected mining already-air voxel to be a no-op")
	}
}

func TestPlaceRejectsAirBlockID(t *testing.T) {
	q := collider.NewQueues()
	w := physics.New()

	// Rejected before the chunk is ever touched, so a nil chunk is fine here.
	_, werr := Place(nil, q, w, Request{Seq: 5, X: 0, Y: 0, Z: 0, BlockID: voxel.Air})
	if werr == nil || werr.Code != "InvalidBlockID" {
		t.Fatalf("expected InvalidBlockID error, got %v", werr)
	}
}

func TestPlaceRejectsOccupiedCell(t *testing.T) {
	store := newTestStore(t)
	key := voxel.Key{CX: 0, CZ: 0, LOD: voxel.High}
	chunk := waitForChunk(t, store, key)

	q := collider.NewQueues()
	w := physics.New()

	_, werr := Place(chunk, q, w, Request{Seq: 6, X: 0, Y: 0, Z: 0, BlockID: voxel.Stone})
	if werr == nil || werr.Code != "BlockOccupied" {
		t.Fatalf("expected BlockOccupied error, got %v", werr)
	}
}

func TestValidateCoordinatesRejectsOutOfBounds(t *testing.T) {
	q := collider.NewQueues()
	w := physics.New()

	// Rejected before the chunk is ever touched, so a nil chunk is fine here.
	_, werr := Mine(nil, q, w, Request{Seq: 1, X: WorldMaxXZ + 1, Y: 0, Z: 0})
	if werr == nil || werr.Code != "OutOfBounds" {
		t.Fatalf("expected OutOfBounds error, got %v", werr)
	}

	_, werr = Mine(nil, q, w, Request{Seq: 1, X: 0, Y: WorldMaxY + 1, Z: 0})
	if werr == nil || werr.Code != "OutOfBounds" {
		t.Fatalf("expected OutOfBounds error for y, got %v", werr)
	}
}

func TestKeyForMatchesChunkOwningRequest(t *testing.T) {
	req := Request{Seq: 1, X: voxel.HighWidth + 2, Y: 0, Z: -1}
	key := KeyFor(req)
	want := voxel.Key{CX: 1, CZ: -1, LOD: voxel.High}
	if key != want {
		t.Fatalf("expected %+v, got %+v", want, key)
	}
}

func TestValidateRejectsWithoutTouchingAnyChunk(t *testing.T) {
	if werr := Validate(Request{Seq: 1, X: WorldMaxXZ + 1, Y: 0, Z: 0}); werr == nil || werr.Code != "OutOfBounds" {
		t.Fatalf("expected OutOfBounds error, got %v", werr)
	}
	if werr := Validate(Request{Seq: 1, X: 0, Y: 0, Z: 0}); werr != nil {
		t.Fatalf("expected in-bounds request to validate, got %v", werr)
	}
}
